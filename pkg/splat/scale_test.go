package splat

import (
	"math"
	"testing"

	vmath "github.com/Faultbox/splatgen/pkg/math"
)

func TestScaleEstimatorForVertex(t *testing.T) {
	points := []vmath.Vec3{{}, {X: 1}, {X: 3}}
	e := NewScaleEstimator(points, true, 1)

	tests := []struct {
		p    vmath.Vec3
		want float64
	}{
		{vmath.Vec3{}, 1},
		{vmath.Vec3{X: 1}, 1},
		{vmath.Vec3{X: 3}, 2},
	}
	for _, tt := range tests {
		if got := e.ForVertex(tt.p); math.Abs(got-tt.want) > 1e-12 {
			t.Errorf("ForVertex(%v) = %v, want %v", tt.p, got, tt.want)
		}
	}
}

func TestScaleEstimatorForSurface(t *testing.T) {
	e := NewScaleEstimator([]vmath.Vec3{{}, {X: 1}, {X: 3}}, true, 2)
	if got := e.ForSurface(vmath.Vec3{X: 0.25}); math.Abs(got-0.5) > 1e-12 {
		t.Errorf("ForSurface = %v, want 0.5", got)
	}
	// A surface point on a vertex clamps to the floor.
	if got := e.ForSurface(vmath.Vec3{X: 1}); got != MinScale*2 {
		t.Errorf("ForSurface on a vertex = %v, want %v", got, MinScale*2)
	}
}

func TestScaleEstimatorDegenerate(t *testing.T) {
	dup := NewScaleEstimator([]vmath.Vec3{{X: 1}, {X: 1}}, true, 1)
	if got := dup.ForVertex(vmath.Vec3{X: 1}); got != MinScale {
		t.Errorf("duplicate vertices: got %v, want MinScale", got)
	}

	single := NewScaleEstimator([]vmath.Vec3{{}}, true, 1)
	if got := single.ForVertex(vmath.Vec3{}); got != MinScale {
		t.Errorf("single vertex: got %v, want MinScale", got)
	}

	empty := NewScaleEstimator(nil, true, 1)
	if got := empty.ForSurface(vmath.Vec3{}); got != MinScale {
		t.Errorf("no vertices: got %v, want MinScale", got)
	}
}

func TestScaleEstimatorManual(t *testing.T) {
	e := NewScaleEstimator([]vmath.Vec3{{}, {X: 1}}, false, 0.05)
	if got := e.ForVertex(vmath.Vec3{}); got != 0.05 {
		t.Errorf("manual scale = %v, want 0.05", got)
	}
	if got := NewScaleEstimator(nil, false, 0).ForSurface(vmath.Vec3{}); got != MinScale {
		t.Errorf("zero multiplier = %v, want MinScale", got)
	}
}

func TestScaleEstimatorNeverBelowFloor(t *testing.T) {
	points := []vmath.Vec3{{}, {X: 1e-9}, {X: 1}}
	e := NewScaleEstimator(points, true, 1e-3)
	for _, p := range points {
		if got := e.ForVertex(p); got < MinScale {
			t.Errorf("ForVertex(%v) = %v below MinScale", p, got)
		}
	}
}
