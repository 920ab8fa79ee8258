// Package geom holds the small amount of 2D math needed to move between the
// coordinate spaces of a chart.
package geom

import (
	"math"

	"golang.org/x/exp/constraints"
)

// Number is any integer or floating point type.
type Number interface {
	constraints.Integer | constraints.Float
}

// Lerp linearly interpolates between low and high by f.
func Lerp[T constraints.Float](f, low, high T) T {
	return low + (high-low)*f
}

// InvLerp is the inverse of Lerp: it returns the fraction that v lies between
// low and high.
func InvLerp[T constraints.Float](v, low, high T) T {
	return (v - low) / (high - low)
}

// Remap maps v from the range [fromLow,fromHigh] to [toLow,toHigh].
func Remap[T constraints.Float](v, fromLow, fromHigh, toLow, toHigh T) T {
	return Lerp(InvLerp(v, fromLow, fromHigh), toLow, toHigh)
}

// Clamp restricts v to the closed interval [lo,hi].
func Clamp[T Number](v, lo, hi T) T {
	return min(max(v, lo), hi)
}

// Saturate clamps v to [0,1].
func Saturate[T constraints.Float](v T) T {
	return Clamp(v, 0, 1)
}

// RoundUp rounds value up to the nearest multiple of multiple. A value
// within rounding error of a multiple is taken to be that multiple, so
// RoundUp(RoundUp(v, m), m) == RoundUp(v, m).
func RoundUp(value, multiple float64) float64 {
	return math.Ceil(snap(value/multiple)) * multiple
}

// snap returns the nearest integer to v when v is within floating point
// noise of it.
func snap(v float64) float64 {
	if r := math.Round(v); math.Abs(v-r) < 1e-9 {
		return r
	}
	return v
}

// Smootherstep is Perlin's quintic ease, f³(3f(2f-5)+10). It expects f in
// [0,1] and returns 0 and 1 exactly at the ends.
func Smootherstep[T constraints.Float](f T) T {
	return f * f * f * (3*f*(2*f-5) + 10)
}

func Ceil[T Number](a T) T {
	return T(math.Ceil(float64(a)))
}

func Floor[T Number](a T) T {
	return T(math.Floor(float64(a)))
}
