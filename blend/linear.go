package blend

// Linear computes 1D blend weights for a clip set whose thresholds are sorted
// ascending. The blend value is clamped into the threshold range, the two
// clips bracketing it each receive a share proportional to its position inside
// the bracket, and every other clip receives zero. At most two weights are
// non-zero, and the weights always sum to one.
//
// dst and thresholds must have the same length; the slices are assumed to
// come from a baked graph, which validates the ordering.
func Linear(dst []float32, value float32, thresholds []float32) {
	zero(dst)
	switch len(thresholds) {
	case 0:
		return
	case 1:
		dst[0] = 1
		return
	}

	value = clamp(value, thresholds[0], thresholds[len(thresholds)-1])

	for i := 0; i < len(thresholds)-1; i++ {
		lower := thresholds[i]
		upper := thresholds[i+1]
		if value < lower || value > upper {
			continue
		}
		span := upper - lower
		if span <= epsilon {
			// Coincident thresholds collapse onto the earlier clip.
			dst[i] = 1
			return
		}
		t := (value - lower) / span
		dst[i] = 1 - t
		dst[i+1] = t
		return
	}

	// Unreachable for sorted thresholds; keep the last clip live if the scan
	// falls through on malformed input.
	dst[len(dst)-1] = 1
}
