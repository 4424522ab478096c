package splat

import (
	"fmt"
	"strings"

	"github.com/Faultbox/splatgen/pkg/math"
	"github.com/Faultbox/splatgen/pkg/mesh"
)

// Record is one splat: the unit handed to the converter.
type Record struct {
	Position math.Vec3  // target basis
	LogScale float64    // log of the isotropic radius
	Color    [3]float64 // linear RGB before SH packing
	Opacity  float64    // linear alpha before logit packing
	Rotation math.Quat
}

// Packed returns the wire tuple
// [x, y, z, log_scale, f_dc_0, f_dc_1, f_dc_2, opacity, rot_0, rot_1, rot_2, rot_3].
func (r Record) Packed() [12]float64 {
	return [12]float64{
		r.Position.X, r.Position.Y, r.Position.Z,
		r.LogScale,
		PackColor(r.Color[0]), PackColor(r.Color[1]), PackColor(r.Color[2]),
		PackOpacity(r.Opacity),
		r.Rotation.X, r.Rotation.Y, r.Rotation.Z, r.Rotation.W,
	}
}

// Mode selects the sampler.
type Mode int

const (
	ModeSurface Mode = iota // area-weighted samples over faces
	ModeVertex              // one sample per vertex
)

// String returns the mode name used in configuration.
func (m Mode) String() string {
	if m == ModeVertex {
		return "vertex"
	}
	return "surface"
}

// ParseMode parses "surface" or "vertex".
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(s) {
	case "surface":
		return ModeSurface, nil
	case "vertex", "vertices":
		return ModeVertex, nil
	}
	return 0, fmt.Errorf("unknown sampling mode %q", s)
}

// ParseSequence parses "legacy" or "random".
func ParseSequence(s string) (Sequence, error) {
	switch strings.ToLower(s) {
	case "legacy", "":
		return SequenceLegacy, nil
	case "random":
		return SequenceRandom, nil
	}
	return 0, fmt.Errorf("unknown barycentric sequence %q", s)
}

// Options configures one pipeline run.
type Options struct {
	Mode              Mode
	Density           float64
	Sequence          Sequence
	Seed              uint64
	UseNormals        bool
	UseColors         bool
	AutoScale         bool
	ScaleMultiplier   float64
	OpacityMultiplier float64
	Axes              Axes
}

// DefaultOptions mirrors the exporter defaults.
func DefaultOptions() Options {
	return Options{
		Mode:              ModeSurface,
		Density:           100,
		Sequence:          SequenceLegacy,
		UseNormals:        true,
		UseColors:         true,
		AutoScale:         true,
		ScaleMultiplier:   1,
		OpacityMultiplier: 1,
		Axes:              SourceAxes,
	}
}

// MeshStats summarizes what the pipeline did with one mesh.
type MeshStats struct {
	Name            string
	Vertices        int
	Faces           int
	Samples         int
	SkippedElements int // out-of-range color attribute elements
}

// Result is the output of one pipeline run.
type Result struct {
	Frame   int
	Records []Record
	Meshes  []MeshStats
}

// Generate runs the pipeline over every mesh of scene and concatenates the
// records. It returns ErrNoInputGeometry for an empty scene and
// ErrInvalidAxisConfig for a degenerate target basis.
func Generate(scene *mesh.Scene, opts Options) (*Result, error) {
	if scene == nil || len(scene.Meshes) == 0 {
		return nil, ErrNoInputGeometry
	}
	axis, err := AxisConversion(opts.Axes)
	if err != nil {
		return nil, err
	}

	res := &Result{Frame: scene.Frame}
	for _, m := range scene.Meshes {
		if m == nil {
			continue
		}
		records, stats := generateMesh(m, axis, scene.Frame, opts)
		res.Records = append(res.Records, records...)
		res.Meshes = append(res.Meshes, stats)
	}
	return res, nil
}

func generateMesh(m *mesh.Mesh, axis math.Mat4, frame int, opts Options) ([]Record, MeshStats) {
	xform := axis.Mul(m.World)

	var samples []Sample
	if opts.Mode == ModeVertex {
		samples = SampleVertices(m, xform, opts.UseNormals)
	} else {
		samples = SampleSurface(m, xform, SurfaceOptions{
			Density:    opts.Density,
			Frame:      frame,
			Sequence:   opts.Sequence,
			Seed:       opts.Seed,
			UseNormals: opts.UseNormals,
		})
	}

	var points []math.Vec3
	if opts.AutoScale {
		points = make([]math.Vec3, len(m.Positions))
		for i, p := range m.Positions {
			points[i] = xform.TransformPoint(p)
		}
	}
	scales := NewScaleEstimator(points, opts.AutoScale, opts.ScaleMultiplier)
	colors := NewColorResolver(m, opts.UseColors, opts.OpacityMultiplier)

	records := make([]Record, len(samples))
	for i, s := range samples {
		var scale float64
		if s.Vertex >= 0 {
			scale = scales.ForVertex(s.Position)
		} else {
			scale = scales.ForSurface(s.Position)
		}
		rgb, opacity := colors.Resolve(s)
		records[i] = Record{
			Position: s.Position,
			LogScale: PackScale(scale),
			Color:    rgb,
			Opacity:  opacity,
			Rotation: Orient(s.Normal),
		}
	}

	return records, MeshStats{
		Name:            m.Name,
		Vertices:        len(m.Positions),
		Faces:           len(m.Faces),
		Samples:         len(samples),
		SkippedElements: colors.Skipped(),
	}
}
