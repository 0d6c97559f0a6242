package mathx

import "math"

func ClampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Clamp01 clamps v into [0,1]. NaN collapses to 0.
func Clamp01(v float32) float32 {
	if !(v > 0) {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func Lerp(a, b, t float32) float32 {
	return a*(1-t) + b*t
}

// GaussianFalloff is the shared brush/erosion kernel: exp(-4 (d/r)^2).
func GaussianFalloff(dist, radius float32) float32 {
	if radius <= 0 {
		if dist <= 0 {
			return 1
		}
		return 0
	}
	n := dist / radius
	return float32(math.Exp(float64(-n * n * 4)))
}
