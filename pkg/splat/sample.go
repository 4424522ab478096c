package splat

import (
	gomath "math"
	"math/rand/v2"

	"github.com/Faultbox/splatgen/pkg/math"
	"github.com/Faultbox/splatgen/pkg/mesh"
)

// Sample is a raw point produced by the sampler. Exactly one of Face and
// Vertex is a valid index; the other is -1.
type Sample struct {
	Position math.Vec3
	Normal   math.Vec3
	Face     int
	Vertex   int
}

// Sequence selects how barycentric coordinates are generated in surface mode.
type Sequence int

const (
	// SequenceLegacy is a fixed deterministic sequence, used by default:
	// r1 = frac(sqrt(frame*0.001 + i*0.1)), r2 = frac(i*0.7).
	SequenceLegacy Sequence = iota
	// SequenceRandom draws from a PCG stream seeded by frame and seed.
	SequenceRandom
)

// String returns the sequence name used in configuration.
func (s Sequence) String() string {
	if s == SequenceRandom {
		return "random"
	}
	return "legacy"
}

// upNormal replaces normals when orientation is disabled.
var upNormal = math.Vec3{Z: 1}

// meshView is the per-mesh state shared by the samplers: positions already
// in the converted world space.
type meshView struct {
	mesh   *mesh.Mesh
	points []math.Vec3
	xform  math.Mat4
	// flip is -1 when xform mirrors, so face normals keep pointing the way
	// the untransformed winding did.
	flip float64
}

func newMeshView(m *mesh.Mesh, xform math.Mat4) *meshView {
	f := &meshView{mesh: m, xform: xform, points: make([]math.Vec3, len(m.Positions)), flip: 1}
	for i, p := range m.Positions {
		f.points[i] = xform.TransformPoint(p)
	}
	if xform.Determinant3() < 0 {
		f.flip = -1
	}
	return f
}

// validFace reports whether face fi has at least three in-range vertices.
func (f *meshView) validFace(fi int) bool {
	face := f.mesh.Faces[fi]
	if len(face) < 3 {
		return false
	}
	for _, v := range face {
		if v < 0 || v >= len(f.points) {
			return false
		}
	}
	return true
}

// faceVector returns the Newell vector of face fi: its direction is the
// polygon normal and its length twice the polygon area.
func (f *meshView) faceVector(fi int) math.Vec3 {
	face := f.mesh.Faces[fi]
	var n math.Vec3
	for i, vi := range face {
		a := f.points[vi]
		b := f.points[face[(i+1)%len(face)]]
		n.X += (a.Y - b.Y) * (a.Z + b.Z)
		n.Y += (a.Z - b.Z) * (a.X + b.X)
		n.Z += (a.X - b.X) * (a.Y + b.Y)
	}
	return n.Scale(f.flip)
}

// faceArea returns the area of face fi, or 0 for invalid faces.
func (f *meshView) faceArea(fi int) float64 {
	if !f.validFace(fi) {
		return 0
	}
	return f.faceVector(fi).Length() / 2
}

// vertexNormals returns one unit normal per vertex: the provider's normals
// when present, otherwise area-weighted face normals; isolated vertices
// fall back to up.
func (f *meshView) vertexNormals() []math.Vec3 {
	normals := make([]math.Vec3, len(f.points))
	m := f.mesh
	if len(m.Normals) == len(m.Positions) {
		nm := f.xform.NormalMatrix()
		for i, n := range m.Normals {
			normals[i] = nm.TransformDirection(n).Normalize()
		}
	} else {
		for fi, face := range m.Faces {
			if !f.validFace(fi) {
				continue
			}
			// Newell vector length is proportional to area.
			fv := f.faceVector(fi)
			for _, v := range face {
				normals[v] = normals[v].Add(fv)
			}
		}
		for i := range normals {
			normals[i] = normals[i].Normalize()
		}
	}
	for i, n := range normals {
		if n == (math.Vec3{}) {
			normals[i] = upNormal
		}
	}
	return normals
}

// SampleVertices emits exactly one sample per vertex.
func SampleVertices(m *mesh.Mesh, xform math.Mat4, useNormals bool) []Sample {
	f := newMeshView(m, xform)
	var normals []math.Vec3
	if useNormals {
		normals = f.vertexNormals()
	}
	samples := make([]Sample, len(f.points))
	for i, p := range f.points {
		n := upNormal
		if useNormals {
			n = normals[i]
		}
		samples[i] = Sample{Position: p, Normal: n, Face: -1, Vertex: i}
	}
	return samples
}

// SurfaceOptions controls area-weighted surface sampling.
type SurfaceOptions struct {
	Density    float64 // samples per square unit
	Frame      int
	Sequence   Sequence
	Seed       uint64
	UseNormals bool
}

// SampleSurface distributes floor(area*density) samples over the faces in
// proportion to their area. Every face with positive area receives at least
// one sample, so the result may exceed the budget. Faces with more than
// three vertices are sampled over their first three only.
func SampleSurface(m *mesh.Mesh, xform math.Mat4, opts SurfaceOptions) []Sample {
	f := newMeshView(m, xform)

	areas := make([]float64, len(m.Faces))
	total := 0.0
	for fi := range m.Faces {
		areas[fi] = f.faceArea(fi)
		total += areas[fi]
	}
	if !(total > 0) {
		return nil
	}
	budget := gomath.Floor(total * opts.Density)

	next := barycentric(opts)
	var samples []Sample
	for fi, area := range areas {
		if !(area > 0) {
			continue
		}
		count := max(1, int(gomath.Floor(area/total*budget)))

		face := m.Faces[fi]
		v0, v1, v2 := f.points[face[0]], f.points[face[1]], f.points[face[2]]
		normal := upNormal
		if opts.UseNormals {
			normal = f.faceVector(fi).Normalize()
		}
		e1, e2 := v1.Sub(v0), v2.Sub(v0)

		for range count {
			r1, r2 := next(len(samples))
			if r1+r2 > 1 {
				r1, r2 = 1-r1, 1-r2
			}
			samples = append(samples, Sample{
				Position: v0.Add(e1.Scale(r1)).Add(e2.Scale(r2)),
				Normal:   normal,
				Face:     fi,
				Vertex:   -1,
			})
		}
	}
	return samples
}

// barycentric returns the generator for the configured sequence. The
// argument is the running sample index within the mesh.
func barycentric(opts SurfaceOptions) func(i int) (float64, float64) {
	if opts.Sequence == SequenceRandom {
		rng := rand.New(rand.NewPCG(uint64(int64(opts.Frame)), opts.Seed))
		return func(int) (float64, float64) {
			return rng.Float64(), rng.Float64()
		}
	}
	fr := float64(opts.Frame)
	return func(i int) (float64, float64) {
		r1 := frac(gomath.Sqrt(gomath.Max(0, fr*0.001+float64(i)*0.1)))
		r2 := frac(float64(i) * 0.7)
		return r1, r2
	}
}

// frac matches Python's x % 1.0 for non-negative x.
func frac(x float64) float64 {
	return x - gomath.Floor(x)
}
