package attendance

import (
	"errors"

	"github.com/UjjwalAsati/Attendance-System/internal/facematch"
)

// Validation errors: the caller sent something the service cannot use.
var (
	ErrMissingField      = errors.New("missing required field")
	ErrInvalidType       = errors.New("type must be checkin or checkout")
	ErrInvalidLocation   = errors.New("invalid location")
	ErrDuplicateEmployee = errors.New("employee with this name already exists")
	ErrInvalidRange      = errors.New("invalid time range")
)

// Ledger rejections. They surface as unsuccessful outcomes, not failures.
var (
	ErrDuplicateCheckIn       = errors.New("Check-in already recorded today")
	ErrDuplicateCheckOut      = errors.New("Checkout already recorded today")
	ErrCheckoutWithoutCheckin = errors.New("Checkout denied: Check-in not recorded today")
)

// ErrStoreUnavailable wraps failures of the roster or ledger store.
var ErrStoreUnavailable = errors.New("store unavailable")

// ErrRosterMismatch reports an enrolled descriptor the matcher cannot compare
// with a valid query, e.g. after DESCRIPTOR_DIM changed.
var ErrRosterMismatch = errors.New("enrolled descriptor does not match configured dimension")

// Kind classifies an error for the transport layer.
type Kind int

const (
	KindInfrastructure Kind = iota
	KindValidation
	KindPolicy
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindPolicy:
		return "policy"
	default:
		return "infrastructure"
	}
}

// KindOf classifies err. Anything not recognized as a validation or policy
// error is treated as an infrastructure failure and is safe to retry.
func KindOf(err error) Kind {
	switch {
	case errors.Is(err, ErrMissingField),
		errors.Is(err, ErrInvalidType),
		errors.Is(err, ErrInvalidLocation),
		errors.Is(err, ErrDuplicateEmployee),
		errors.Is(err, ErrInvalidRange),
		errors.Is(err, facematch.ErrInvalidDescriptor):
		return KindValidation
	case errors.Is(err, ErrDuplicateCheckIn),
		errors.Is(err, ErrDuplicateCheckOut),
		errors.Is(err, ErrCheckoutWithoutCheckin):
		return KindPolicy
	}
	return KindInfrastructure
}
