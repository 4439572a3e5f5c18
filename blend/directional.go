package blend

import "math"

// Directional computes 2D blend weights using simple-directional semantics:
// the input direction is bracketed by its nearest clip on either side
// (counter-clockwise and clockwise), those two clips split the directional
// weight by angular proximity, and a clip sitting on the origin acts as the
// idle pose that absorbs whatever the input magnitude leaves unclaimed.
// At most three weights are non-zero and the weights always sum to one.
//
// dst and positions must have the same length. Baked graphs guarantee at most
// one clip on the origin.
func Directional(dst []float32, input Point, positions []Point) {
	zero(dst)
	if len(positions) == 0 {
		return
	}
	if len(positions) == 1 {
		dst[0] = 1
		return
	}

	idle := -1
	for i, pos := range positions {
		if pos.Magnitude() < epsilon {
			idle = i
			break
		}
	}

	inputMag := input.Magnitude()
	if inputMag < epsilon {
		if idle >= 0 {
			dst[idle] = 1
			return
		}
		closest := 0
		best := distance(input, positions[0])
		for i := 1; i < len(positions); i++ {
			if d := distance(input, positions[i]); d < best {
				best = d
				closest = i
			}
		}
		dst[closest] = 1
		return
	}

	// Bracket the input direction with the nearest clip on either side.
	inputAngle := input.angle()
	left, right := -1, -1
	bestLeft, bestRight := math.MaxFloat64, math.MaxFloat64
	for i, pos := range positions {
		if i == idle {
			continue
		}
		angle := pos.angle()
		if ccw := wrapAngle(angle - inputAngle); ccw < bestLeft {
			bestLeft = ccw
			left = i
		}
		if cw := wrapAngle(inputAngle - angle); cw < bestRight {
			bestRight = cw
			right = i
		}
	}
	if left < 0 {
		if idle >= 0 {
			dst[idle] = 1
		}
		return
	}

	if left == right {
		// A single directional clip: fade it against idle by how much of its
		// magnitude the input reaches.
		if idle >= 0 {
			t := saturate(inputMag / positions[left].Magnitude())
			dst[left] = t
			dst[idle] = 1 - t
		} else {
			dst[left] = 1
		}
		return
	}

	arc := wrapAngle(positions[left].angle() - positions[right].angle())
	var t float32
	if arc > epsilon {
		t = float32(wrapAngle(inputAngle-positions[right].angle()) / arc)
	}
	leftWeight := t
	rightWeight := 1 - t

	if idle < 0 {
		dst[left] = leftWeight
		dst[right] = rightWeight
		return
	}

	blendedMag := leftWeight*positions[left].Magnitude() + rightWeight*positions[right].Magnitude()
	scale := float32(1)
	if blendedMag > epsilon {
		scale = saturate(inputMag / blendedMag)
	}
	dst[left] = leftWeight * scale
	dst[right] = rightWeight * scale
	dst[idle] = 1 - scale
}
