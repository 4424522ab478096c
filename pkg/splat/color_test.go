package splat

import (
	"math"
	"testing"

	vmath "github.com/Faultbox/splatgen/pkg/math"
	"github.com/Faultbox/splatgen/pkg/mesh"
)

// twoTriangles shares the edge 1-2 between faces 0 and 1.
func twoTriangles() *mesh.Mesh {
	return &mesh.Mesh{
		World:     vmath.Identity(),
		Positions: []vmath.Vec3{{}, {X: 1}, {Y: 1}, {X: 1, Y: 1}},
		Faces:     [][]int{{0, 1, 2}, {1, 3, 2}},
	}
}

func nearColor(a, b [3]float64) bool {
	for i := range a {
		if math.Abs(a[i]-b[i]) > 1e-12 {
			return false
		}
	}
	return true
}

func TestResolveUniformPointColor(t *testing.T) {
	m := twoTriangles()
	m.Color = &mesh.ColorAttribute{Domain: mesh.DomainPoint, HasAlpha: true}
	for range m.Positions {
		m.Color.Values = append(m.Color.Values, [4]float64{0.2, 0.4, 0.6, 0.8})
	}
	r := NewColorResolver(m, true, 0.5)

	for _, s := range []Sample{{Face: 1, Vertex: -1}, {Face: -1, Vertex: 3}} {
		rgb, opacity := r.Resolve(s)
		if !nearColor(rgb, [3]float64{0.2, 0.4, 0.6}) {
			t.Errorf("%+v: rgb %v", s, rgb)
		}
		if math.Abs(opacity-0.4) > 1e-12 {
			t.Errorf("%+v: opacity %v, want 0.4", s, opacity)
		}
	}
}

func TestResolveCornerAverage(t *testing.T) {
	m := twoTriangles()
	// Corners 0..2 belong to face 0, 3..5 to face 1.
	m.Color = &mesh.ColorAttribute{Domain: mesh.DomainCorner, Values: [][4]float64{
		{1, 0, 0, 1}, {1, 0, 0, 1}, {1, 0, 0, 1},
		{0, 0, 1, 1}, {0, 0, 1, 1}, {0, 0, 1, 1},
	}}
	r := NewColorResolver(m, true, 1)

	tests := []struct {
		name string
		s    Sample
		want [3]float64
	}{
		{"face 0", Sample{Face: 0, Vertex: -1}, [3]float64{1, 0, 0}},
		{"face 1", Sample{Face: 1, Vertex: -1}, [3]float64{0, 0, 1}},
		{"vertex on one face", Sample{Face: -1, Vertex: 0}, [3]float64{1, 0, 0}},
		{"shared vertex", Sample{Face: -1, Vertex: 1}, [3]float64{0.5, 0, 0.5}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rgb, opacity := r.Resolve(tt.s)
			if !nearColor(rgb, tt.want) {
				t.Errorf("rgb %v, want %v", rgb, tt.want)
			}
			if opacity != 1 {
				t.Errorf("opacity %v, want 1 without alpha", opacity)
			}
		})
	}
}

func TestResolveFaceDomain(t *testing.T) {
	m := twoTriangles()
	m.Color = &mesh.ColorAttribute{Domain: mesh.DomainFace, HasAlpha: true, Values: [][4]float64{
		{1, 1, 0, 1}, {0, 1, 1, 0},
	}}
	r := NewColorResolver(m, true, 1)

	rgb, opacity := r.Resolve(Sample{Face: -1, Vertex: 2})
	if !nearColor(rgb, [3]float64{0.5, 1, 0.5}) || math.Abs(opacity-0.5) > 1e-12 {
		t.Errorf("shared vertex: rgb %v opacity %v", rgb, opacity)
	}
	rgb, _ = r.Resolve(Sample{Face: 1, Vertex: -1})
	if !nearColor(rgb, [3]float64{0, 1, 1}) {
		t.Errorf("face 1: rgb %v", rgb)
	}
}

func TestResolveSkipsOutOfRange(t *testing.T) {
	m := twoTriangles()
	m.Material = &mesh.Material{Color: [3]float64{0.1, 0.2, 0.3}, Alpha: 0.9}
	// Only vertices 0 and 1 carry a value.
	m.Color = &mesh.ColorAttribute{Domain: mesh.DomainPoint, Values: [][4]float64{
		{1, 0, 0, 1}, {0, 1, 0, 1},
	}}
	r := NewColorResolver(m, true, 1)

	// Face 0 has vertices 0,1,2; vertex 2 is skipped.
	rgb, _ := r.Resolve(Sample{Face: 0, Vertex: -1})
	if !nearColor(rgb, [3]float64{0.5, 0.5, 0}) {
		t.Errorf("partial face: rgb %v", rgb)
	}
	if r.Skipped() != 1 {
		t.Errorf("Skipped() = %d, want 1", r.Skipped())
	}

	// Vertex 3 has no value at all: material fallback.
	rgb, opacity := r.Resolve(Sample{Face: -1, Vertex: 3})
	if !nearColor(rgb, m.Material.Color) || opacity != 0.9 {
		t.Errorf("fallback: rgb %v opacity %v", rgb, opacity)
	}
	if r.Skipped() != 2 {
		t.Errorf("Skipped() = %d, want 2", r.Skipped())
	}
}

func TestResolveFallbacks(t *testing.T) {
	m := twoTriangles()
	r := NewColorResolver(m, true, 1)
	if rgb, opacity := r.Resolve(Sample{Face: 0, Vertex: -1}); rgb != White || opacity != 1 {
		t.Errorf("no color source: rgb %v opacity %v", rgb, opacity)
	}

	m.Color = &mesh.ColorAttribute{Domain: mesh.DomainFace, Values: [][4]float64{{0, 0, 0, 1}, {0, 0, 0, 1}}}
	m.Material = &mesh.Material{Color: [3]float64{0, 1, 0}, Alpha: 1}
	r = NewColorResolver(m, false, 0.25)
	rgb, opacity := r.Resolve(Sample{Face: 0, Vertex: -1})
	if rgb != m.Material.Color {
		t.Errorf("attribute disabled: rgb %v, want material", rgb)
	}
	if opacity != 0.25 {
		t.Errorf("opacity %v, want 0.25", opacity)
	}
}
