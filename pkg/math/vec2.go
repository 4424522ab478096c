package math

import "math"

// Vec2 is a 2D vector, used for texture coordinates.
type Vec2 struct {
	X, Y float64
}

// Add returns v + other.
func (v Vec2) Add(other Vec2) Vec2 {
	return Vec2{v.X + other.X, v.Y + other.Y}
}

// Sub returns v - other.
func (v Vec2) Sub(other Vec2) Vec2 {
	return Vec2{v.X - other.X, v.Y - other.Y}
}

// Scale returns v * scalar.
func (v Vec2) Scale(s float64) Vec2 {
	return Vec2{v.X * s, v.Y * s}
}

// Wrap returns v with both components wrapped into [0, 1). NaN and
// infinities wrap to 0.
func (v Vec2) Wrap() Vec2 {
	return Vec2{wrap01(v.X), wrap01(v.Y)}
}

func wrap01(f float64) float64 {
	f -= math.Floor(f)
	if !(f >= 0 && f < 1) {
		return 0
	}
	return f
}
