package common

import "math"

func Lerp(a, b, t float32) float32 {
	return a + t*(b-a)
}

// Clamp limits v to [min, max].
func Clamp(v, min, max float32) float32 {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}

// Wrap maps v into the half-open interval [min, max).
func Wrap(v, min, max float32) float32 {
	width := max - min
	if width <= 0 {
		return min
	}
	r := float32(math.Mod(float64(v-min), float64(width)))
	if r < 0 {
		r += width
	}
	return min + r
}
