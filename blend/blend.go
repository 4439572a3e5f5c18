// Package blend implements the weight math shared by blend-tree states:
// one-dimensional threshold blends and two-dimensional directional blends.
// Functions write into caller-owned weight slices and never allocate.
package blend

import "math"

// Point is a 2D blend-space coordinate.
type Point struct {
	X float32 `json:"x"`
	Y float32 `json:"y"`
}

// epsilon bounds the degenerate cases: coincident thresholds, zero-magnitude
// inputs, and clips sitting on the blend-space origin.
const epsilon = 1e-4

// Magnitude returns the euclidean length of the point.
func (p Point) Magnitude() float32 {
	return float32(math.Hypot(float64(p.X), float64(p.Y)))
}

func (p Point) angle() float64 {
	return math.Atan2(float64(p.Y), float64(p.X))
}

func distance(a, b Point) float32 {
	return float32(math.Hypot(float64(a.X-b.X), float64(a.Y-b.Y)))
}

// wrapAngle normalizes an angle delta into [0, 2π).
func wrapAngle(a float64) float64 {
	a = math.Mod(a, 2*math.Pi)
	if a < 0 {
		a += 2 * math.Pi
	}
	return a
}

func saturate(v float32) float32 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func clamp(value, min, max float32) float32 {
	if value < min {
		return min
	}
	if value > max {
		return max
	}
	return value
}

func zero(dst []float32) {
	for i := range dst {
		dst[i] = 0
	}
}
