// Package facematch identifies enrolled employees from face descriptors.
package facematch

import (
	"errors"

	"github.com/UjjwalAsati/Attendance-System/internal/database"
)

// ErrInvalidDescriptor is returned when a query and an enrolled descriptor
// differ in length or a descriptor is empty.
var ErrInvalidDescriptor = errors.New("invalid descriptor")

// Matcher finds the enrolled employee a query descriptor belongs to.
// A nil employee with a nil error means the face was not recognized.
type Matcher interface {
	Match(roster []database.Employee, query []float32) (*database.Employee, error)
}
