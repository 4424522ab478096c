package splat

import (
	"errors"
	"testing"

	"github.com/Faultbox/splatgen/pkg/math"
)

func TestAxisConversionIdentity(t *testing.T) {
	m, err := AxisConversion(SourceAxes)
	if err != nil {
		t.Fatalf("AxisConversion(SourceAxes) error: %v", err)
	}
	id := math.Identity()
	for i := range m {
		if m[i] != id[i] {
			t.Fatalf("element %d = %v, want %v", i, m[i], id[i])
		}
	}
}

func TestAxisConversionMapsForwardAndUp(t *testing.T) {
	for f := AxisX; f <= AxisNegZ; f++ {
		for u := AxisX; u <= AxisNegZ; u++ {
			target := Axes{Forward: f, Up: u}
			if target.Validate() != nil {
				continue
			}
			m, err := AxisConversion(target)
			if err != nil {
				t.Fatalf("%s/%s: %v", f, u, err)
			}
			if got := m.TransformDirection(SourceAxes.Forward.Vec()); !got.NearlyEqual(f.Vec(), 1e-12) {
				t.Errorf("%s/%s: source forward maps to %v, want %v", f, u, got, f.Vec())
			}
			if got := m.TransformDirection(SourceAxes.Up.Vec()); !got.NearlyEqual(u.Vec(), 1e-12) {
				t.Errorf("%s/%s: source up maps to %v, want %v", f, u, got, u.Vec())
			}
			if d := m.Determinant3(); d != 1 {
				t.Errorf("%s/%s: determinant %v, want 1", f, u, d)
			}
			if m[12] != 0 || m[13] != 0 || m[14] != 0 {
				t.Errorf("%s/%s: conversion has translation", f, u)
			}
		}
	}
}

func TestAxisConversionRejectsParallel(t *testing.T) {
	tests := []Axes{
		{Forward: AxisX, Up: AxisX},
		{Forward: AxisX, Up: AxisNegX},
		{Forward: AxisNegZ, Up: AxisZ},
		{Forward: AxisY, Up: Axis(42)},
	}
	for _, tt := range tests {
		if _, err := AxisConversion(tt); !errors.Is(err, ErrInvalidAxisConfig) {
			t.Errorf("AxisConversion(%s, %s) error = %v, want ErrInvalidAxisConfig", tt.Forward, tt.Up, err)
		}
	}
}

func TestParseAxis(t *testing.T) {
	tests := []struct {
		in      string
		want    Axis
		wantErr bool
	}{
		{"X", AxisX, false},
		{"+y", AxisY, false},
		{" -z ", AxisNegZ, false},
		{"-X", AxisNegX, false},
		{"W", 0, true},
		{"", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseAxis(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseAxis(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalidAxisConfig) {
				t.Errorf("error %v does not wrap ErrInvalidAxisConfig", err)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("ParseAxis(%q) = %s, want %s", tt.in, got, tt.want)
			}
		})
	}
}
