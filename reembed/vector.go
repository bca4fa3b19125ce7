package reembed

import "math"

// NormalizeVector scales v to unit length in place and returns it, so stored
// vectors compare by plain dot product. The squared norm accumulates in
// float64 to keep long vectors accurate. A zero or empty vector has no
// direction and is returned unchanged.
func NormalizeVector(v []float32) []float32 {
	var sum float64
	for _, val := range v {
		sum += float64(val) * float64(val)
	}
	if sum == 0 {
		return v
	}

	inv := float32(1 / math.Sqrt(sum))
	for i := range v {
		v[i] *= inv
	}
	return v
}
