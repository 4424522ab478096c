package splat

import (
	"math"
	"testing"
)

func TestPackScaleRoundTrip(t *testing.T) {
	for _, s := range []float64{MinScale, 0.001, 0.05, 1, 3.5, 1e4} {
		got := math.Exp(PackScale(s))
		if math.Abs(got-s) > s*1e-12 {
			t.Errorf("exp(PackScale(%v)) = %v", s, got)
		}
	}
}

func TestPackOpacity(t *testing.T) {
	tests := []struct {
		in   float64
		want float64
	}{
		{-0.5, -20},
		{0, -20},
		{1, 20},
		{1.5, 20},
		{0.5, 0},
	}
	for _, tt := range tests {
		if got := PackOpacity(tt.in); got != tt.want {
			t.Errorf("PackOpacity(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestOpacityRoundTrip(t *testing.T) {
	for _, o := range []float64{1e-6, 0.01, 0.25, 0.5, 0.8, 0.999} {
		if got := UnpackOpacity(PackOpacity(o)); math.Abs(got-o) > 1e-9 {
			t.Errorf("UnpackOpacity(PackOpacity(%v)) = %v", o, got)
		}
	}
}

func TestPackColor(t *testing.T) {
	if got, want := PackColor(1), (1-0.5)/SHC0; got != want {
		t.Errorf("PackColor(1) = %v, want %v", got, want)
	}
	if got := PackColor(0.5); got != 0 {
		t.Errorf("PackColor(0.5) = %v, want 0", got)
	}
	if got := UnpackColor(PackColor(0.2)); math.Abs(got-0.2) > 1e-12 {
		t.Errorf("UnpackColor(PackColor(0.2)) = %v", got)
	}
}

func TestClampScale(t *testing.T) {
	tests := []struct {
		in, want float64
	}{
		{0, MinScale},
		{-1, MinScale},
		{math.NaN(), MinScale},
		{math.Inf(1), MinScale},
		{MinScale / 2, MinScale},
		{0.5, 0.5},
	}
	for _, tt := range tests {
		got := ClampScale(tt.in)
		if got != tt.want {
			t.Errorf("ClampScale(%v) = %v, want %v", tt.in, got, tt.want)
		}
		if math.IsInf(PackScale(got), 0) || math.IsNaN(PackScale(got)) {
			t.Errorf("PackScale(ClampScale(%v)) is not finite", tt.in)
		}
	}
}
