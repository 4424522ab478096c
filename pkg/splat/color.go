package splat

import "github.com/Faultbox/splatgen/pkg/mesh"

// White is the color used when neither an attribute nor a material resolves.
var White = [3]float64{1, 1, 1}

// ColorResolver picks a color and opacity for each sample of one mesh:
// color attribute first, then the material constant, then opaque white.
type ColorResolver struct {
	mesh              *mesh.Mesh
	topo              *mesh.Topology
	useAttribute      bool
	opacityMultiplier float64
	skipped           int
}

// NewColorResolver prepares color resolution for m.
func NewColorResolver(m *mesh.Mesh, useAttribute bool, opacityMultiplier float64) *ColorResolver {
	return &ColorResolver{mesh: m, useAttribute: useAttribute, opacityMultiplier: opacityMultiplier}
}

// Skipped returns how many attribute elements were out of range so far.
// Each one is an ErrAttributeOutOfRange that was recovered by skipping it.
func (r *ColorResolver) Skipped() int {
	return r.skipped
}

// Resolve returns the linear RGB color and final opacity for s. Opacity is
// alpha times the opacity multiplier and is not clamped here.
func (r *ColorResolver) Resolve(s Sample) ([3]float64, float64) {
	rgb, alpha, ok := r.fromAttribute(s)
	if !ok {
		rgb, alpha, ok = r.fromMaterial()
	}
	if !ok {
		rgb, alpha = White, 1
	}
	return rgb, alpha * r.opacityMultiplier
}

func (r *ColorResolver) fromMaterial() ([3]float64, float64, bool) {
	mat := r.mesh.Material
	if mat == nil {
		return [3]float64{}, 0, false
	}
	return mat.Color, mat.Alpha, true
}

func (r *ColorResolver) fromAttribute(s Sample) ([3]float64, float64, bool) {
	attr := r.mesh.Color
	if !r.useAttribute || attr == nil || len(attr.Values) == 0 {
		return [3]float64{}, 0, false
	}

	var elems []int
	switch attr.Domain {
	case mesh.DomainCorner:
		elems = r.cornerElements(s)
	case mesh.DomainPoint:
		elems = r.pointElements(s)
	case mesh.DomainFace:
		elems = r.faceElements(s)
	default:
		return [3]float64{}, 0, false
	}
	return r.average(attr, elems)
}

// cornerElements: all corners of the sample's face, or all corners
// referencing the sample's vertex.
func (r *ColorResolver) cornerElements(s Sample) []int {
	topo := r.topology()
	if s.Face >= 0 {
		if s.Face >= len(r.mesh.Faces) {
			return nil
		}
		start := topo.CornerStart[s.Face]
		elems := make([]int, len(r.mesh.Faces[s.Face]))
		for i := range elems {
			elems[i] = start + i
		}
		return elems
	}
	if s.Vertex >= 0 && s.Vertex < len(topo.VertexCorner) {
		return topo.VertexCorner[s.Vertex]
	}
	return nil
}

// pointElements: the sample's vertex, or the vertices of the sample's face.
func (r *ColorResolver) pointElements(s Sample) []int {
	if s.Face >= 0 {
		if s.Face >= len(r.mesh.Faces) {
			return nil
		}
		return r.mesh.Faces[s.Face]
	}
	if s.Vertex >= 0 {
		return []int{s.Vertex}
	}
	return nil
}

// faceElements: the sample's face, or every face incident to its vertex.
func (r *ColorResolver) faceElements(s Sample) []int {
	if s.Face >= 0 {
		return []int{s.Face}
	}
	topo := r.topology()
	if s.Vertex >= 0 && s.Vertex < len(topo.VertexFaces) {
		return topo.VertexFaces[s.Vertex]
	}
	return nil
}

// average skips elements outside the attribute and reports false when none
// remain.
func (r *ColorResolver) average(attr *mesh.ColorAttribute, elems []int) ([3]float64, float64, bool) {
	var sum [3]float64
	alpha := 0.0
	n := 0
	for _, i := range elems {
		if i < 0 || i >= len(attr.Values) {
			r.skipped++
			continue
		}
		v := attr.Values[i]
		sum[0] += v[0]
		sum[1] += v[1]
		sum[2] += v[2]
		alpha += attr.Alpha(i)
		n++
	}
	if n == 0 {
		return [3]float64{}, 0, false
	}
	inv := 1 / float64(n)
	return [3]float64{sum[0] * inv, sum[1] * inv, sum[2] * inv}, alpha * inv, true
}

func (r *ColorResolver) topology() *mesh.Topology {
	if r.topo == nil {
		r.topo = mesh.BuildTopology(r.mesh)
	}
	return r.topo
}
