package facematch

import (
	"fmt"

	"github.com/UjjwalAsati/Attendance-System/internal/constants"
	"github.com/UjjwalAsati/Attendance-System/internal/database"
)

// FirstMatcher scans the roster in order and returns the first employee whose
// descriptor is closer than Threshold. It does not look for a closer
// candidate after that, so two enrolled faces within Threshold of the query
// resolve by roster order.
type FirstMatcher struct {
	Threshold float64
}

// NewFirstMatcher returns a FirstMatcher, falling back to the default
// threshold when threshold is not positive.
func NewFirstMatcher(threshold float64) *FirstMatcher {
	if threshold <= 0 {
		threshold = constants.DefaultMatchThreshold
	}
	return &FirstMatcher{Threshold: threshold}
}

func (m *FirstMatcher) Match(roster []database.Employee, query []float32) (*database.Employee, error) {
	if len(query) == 0 {
		return nil, fmt.Errorf("%w: empty query", ErrInvalidDescriptor)
	}
	for i := range roster {
		dist, err := EuclideanDistance(roster[i].Descriptor, query)
		if err != nil {
			return nil, fmt.Errorf("employee %s: %w", roster[i].ID, err)
		}
		if dist < m.Threshold {
			return &roster[i], nil
		}
	}
	return nil, nil
}
