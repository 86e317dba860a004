package facematch

import (
	"fmt"
	"math"
)

// EuclideanDistance returns the L2 distance between two descriptors of equal length.
func EuclideanDistance(a, b []float32) (float64, error) {
	if len(a) == 0 || len(a) != len(b) {
		return 0, fmt.Errorf("%w: lengths %d and %d", ErrInvalidDescriptor, len(a), len(b))
	}
	var sum float64
	for i := range a {
		d := float64(a[i]) - float64(b[i])
		sum += d * d
	}
	return math.Sqrt(sum), nil
}
