package splat

import "math"

// SHC0 is the zeroth-order real spherical harmonic normalization constant.
const SHC0 = 0.28209479177387814

// OpacityLimit replaces the infinite logits of opacity 0 and 1.
const OpacityLimit = 20.0

// MinScale is the floor applied to every splat radius.
const MinScale = 1e-6

// PackColor converts a linear [0,1] channel to its SH DC coefficient.
func PackColor(c float64) float64 {
	return (c - 0.5) / SHC0
}

// UnpackColor inverts PackColor.
func UnpackColor(f float64) float64 {
	return f*SHC0 + 0.5
}

// PackOpacity returns the logit of o, clamped to ±OpacityLimit at the
// boundaries.
func PackOpacity(o float64) float64 {
	switch {
	case o <= 0:
		return -OpacityLimit
	case o >= 1:
		return OpacityLimit
	default:
		return -math.Log(1/o - 1)
	}
}

// UnpackOpacity is the sigmoid, the inverse of PackOpacity on (0,1).
func UnpackOpacity(p float64) float64 {
	return 1 / (1 + math.Exp(-p))
}

// PackScale returns the natural log of s.
func PackScale(s float64) float64 {
	return math.Log(s)
}

// ClampScale applies the MinScale floor. NaN and +Inf also map to MinScale
// so the packed log-scale stays finite.
func ClampScale(s float64) float64 {
	if !(s >= MinScale) || math.IsInf(s, 1) {
		return MinScale
	}
	return s
}
