// Package bake turns textured meshes into per-corner colors the splat
// pipeline can read. Each corner takes the texel under its UV, tinted by the
// mesh's own color and optionally lit by a directional sun.
package bake

import (
	gomath "math"

	"go.uber.org/zap"

	"github.com/Faultbox/splatgen/internal/logger"
	"github.com/Faultbox/splatgen/internal/texture"
	"github.com/Faultbox/splatgen/pkg/math"
	"github.com/Faultbox/splatgen/pkg/mesh"
	"github.com/Faultbox/splatgen/pkg/splat"
)

// AttributeName names the baked color attribute.
const AttributeName = "baked_color"

// Options configures baking.
type Options struct {
	Lit          bool
	SunLongitude float64 // degrees around the up axis
	SunLatitude  float64 // degrees above the horizon
	Ambient      float64 // light floor in [0, 1]
}

// DefaultOptions matches the usual RO map sun.
func DefaultOptions() Options {
	return Options{Lit: true, SunLongitude: 45, SunLatitude: 45, Ambient: 0.3}
}

// SunDirection converts longitude/latitude in degrees to a unit vector
// pointing towards the sun, in the Z-up source basis.
func SunDirection(longitude, latitude float64) math.Vec3 {
	lon := longitude * gomath.Pi / 180
	lat := latitude * gomath.Pi / 180
	yUp := math.Vec3{
		X: gomath.Cos(lat) * gomath.Sin(lon),
		Y: gomath.Sin(lat),
		Z: gomath.Cos(lat) * gomath.Cos(lon),
	}
	return mesh.YUpToZUp().TransformDirection(yUp).Normalize()
}

// Lambert returns ambient + (1-ambient)*max(0, n.sun).
func Lambert(normal, sun math.Vec3, ambient float64) float64 {
	return ambient + (1-ambient)*gomath.Max(0, normal.Dot(sun))
}

// Bake returns a scene where every textured mesh carries a corner color
// attribute. Untextured meshes are shared with the input unchanged.
func Bake(scene *mesh.Scene, opts Options) *mesh.Scene {
	out := &mesh.Scene{Frame: scene.Frame, Meshes: make([]*mesh.Mesh, len(scene.Meshes))}
	sun := SunDirection(opts.SunLongitude, opts.SunLatitude)
	for i, m := range scene.Meshes {
		if m == nil || m.Texture == nil {
			out.Meshes[i] = m
			continue
		}
		out.Meshes[i] = bakeMesh(m, sun, opts)
	}
	return out
}

func bakeMesh(m *mesh.Mesh, sun math.Vec3, opts Options) *mesh.Mesh {
	tex := m.Texture
	tint := splat.NewColorResolver(m, true, 1)
	offsets := m.CornerOffsets()
	attr := &mesh.ColorAttribute{
		Name:     AttributeName,
		Domain:   mesh.DomainCorner,
		Values:   make([][4]float64, m.CornerCount()),
		HasAlpha: true,
	}

	missingUVs := 0
	for fi, face := range m.Faces {
		rgb, alpha := tint.Resolve(splat.Sample{Face: fi, Vertex: -1})
		light := 1.0
		if opts.Lit {
			light = Lambert(worldNormal(m, face), sun, opts.Ambient)
		}

		img := -1
		if fi < len(tex.FaceImage) {
			img = tex.FaceImage[fi]
		}
		for c := range face {
			corner := offsets[fi] + c
			texel := [4]float64{1, 1, 1, 1}
			switch {
			case corner >= len(tex.UVs):
				missingUVs++
			case img >= 0 && img < len(tex.Images) && tex.Images[img] != nil:
				texel = texture.Sample(tex.Images[img], tex.UVs[corner])
			}
			attr.Values[corner] = [4]float64{
				texel[0] * rgb[0] * light,
				texel[1] * rgb[1] * light,
				texel[2] * rgb[2] * light,
				texel[3] * alpha,
			}
		}
	}
	if missingUVs > 0 {
		logger.Debug("corners without UVs baked untextured",
			zap.String("mesh", m.Name), zap.Int("corners", missingUVs))
	}

	baked := m.Clone()
	baked.Color = attr
	baked.Texture = nil
	return baked
}

// worldNormal is the unit normal of face's first three vertices in world
// space, or zero for degenerate and invalid faces.
func worldNormal(m *mesh.Mesh, face []int) math.Vec3 {
	if len(face) < 3 {
		return math.Vec3{}
	}
	var p [3]math.Vec3
	for i := range p {
		v := face[i]
		if v < 0 || v >= len(m.Positions) {
			return math.Vec3{}
		}
		p[i] = m.World.TransformPoint(m.Positions[v])
	}
	return p[1].Sub(p[0]).Cross(p[2].Sub(p[0])).Normalize()
}
