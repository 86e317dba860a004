package attendance

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/UjjwalAsati/Attendance-System/internal/constants"
	"github.com/UjjwalAsati/Attendance-System/internal/database"
	"github.com/UjjwalAsati/Attendance-System/internal/facematch"
	"github.com/UjjwalAsati/Attendance-System/internal/geofence"
	"github.com/UjjwalAsati/Attendance-System/internal/metrics"
)

// Directory maps a tenant key to its store and geofence policy.
type Directory interface {
	Resolve(ctx context.Context, tenant string) (database.Backend, error)
	GeoFence(tenant string) geofence.Policy
}

// Reason tells why a submission was not recorded.
type Reason string

const (
	ReasonNone                   Reason = ""
	ReasonNotRecognized          Reason = "not recognized"
	ReasonOutOfZone              Reason = "out of zone"
	ReasonDuplicate              Reason = "duplicate"
	ReasonCheckoutWithoutCheckin Reason = "checkout-without-checkin"
)

// Submission is one attendance attempt from a kiosk.
type Submission struct {
	Tenant     string
	Descriptor []float32
	Timestamp  time.Time // Zero means now
	Type       string
	Location   *database.Location
}

// Outcome of a submission. Rejections by policy are outcomes, not errors.
type Outcome struct {
	Success           bool
	Reason            Reason
	Message           string
	EmployeeID        string
	EmployeeName      string
	Type              database.RecordType
	RecordedTimestamp time.Time
	Distance          *int // Meters from the zone center, set when out of zone
}

// EnrollRequest registers a new employee.
type EnrollRequest struct {
	Tenant     string
	Name       string
	Descriptor []float32
}

// Options configures a Service.
type Options struct {
	DescriptorDim int
	OffsetMinutes int
	Recorder      metrics.Recorder
	Now           func() time.Time
}

// Service runs the submission pipeline: resolve tenant, match descriptor,
// check geofence, apply the ledger transition.
type Service struct {
	dir      Directory
	matcher  facematch.Matcher
	ledger   *Ledger
	dim      int
	offset   int
	recorder metrics.Recorder
	now      func() time.Time
}

// NewService creates a Service.
func NewService(dir Directory, matcher facematch.Matcher, opts Options) *Service {
	if opts.DescriptorDim <= 0 {
		opts.DescriptorDim = constants.DefaultDescriptorDim
	}
	if opts.Recorder == nil {
		opts.Recorder = metrics.Nop{}
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Service{
		dir:      dir,
		matcher:  matcher,
		ledger:   NewLedger(opts.OffsetMinutes),
		dim:      opts.DescriptorDim,
		offset:   opts.OffsetMinutes,
		recorder: opts.Recorder,
		now:      opts.Now,
	}
}

// OffsetMinutes returns the civil day offset the service works with.
func (s *Service) OffsetMinutes() int {
	return s.offset
}

// Window returns the civil day window containing t.
func (s *Service) Window(t time.Time) Window {
	return Bounds(t, s.offset)
}

func (s *Service) validateDescriptor(desc []float32) error {
	if len(desc) == 0 {
		return fmt.Errorf("%w: descriptor", ErrMissingField)
	}
	if len(desc) != s.dim {
		return fmt.Errorf("%w: expected %d values, got %d", facematch.ErrInvalidDescriptor, s.dim, len(desc))
	}
	for _, v := range desc {
		if math.IsNaN(float64(v)) || math.IsInf(float64(v), 0) {
			return fmt.Errorf("%w: non-finite value", facematch.ErrInvalidDescriptor)
		}
	}
	return nil
}

func validateLocation(loc *database.Location) error {
	if math.IsNaN(loc.Latitude) || math.IsNaN(loc.Longitude) ||
		loc.Latitude < -90 || loc.Latitude > 90 ||
		loc.Longitude < -180 || loc.Longitude > 180 {
		return fmt.Errorf("%w: %f,%f", ErrInvalidLocation, loc.Latitude, loc.Longitude)
	}
	return nil
}

// Submit matches the descriptor and records the attendance event when every
// check passes. A submission rejected by matching or the geofence writes
// nothing.
func (s *Service) Submit(ctx context.Context, sub Submission) (*Outcome, error) {
	if err := s.validateDescriptor(sub.Descriptor); err != nil {
		return nil, err
	}
	typ, ok := database.ParseRecordType(sub.Type)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrInvalidType, sub.Type)
	}
	if sub.Location != nil {
		if err := validateLocation(sub.Location); err != nil {
			return nil, err
		}
	}

	ts := sub.Timestamp
	if ts.IsZero() {
		ts = s.now()
	}
	ts = ts.UTC().Truncate(time.Millisecond)

	backend, err := s.dir.Resolve(ctx, sub.Tenant)
	if err != nil {
		return nil, err
	}
	fence := s.dir.GeoFence(sub.Tenant)
	if sub.Location == nil && fence.Enabled {
		return nil, fmt.Errorf("%w: location", ErrMissingField)
	}
	roster, err := backend.Employees().ListEmployees(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: listing employees: %w", ErrStoreUnavailable, err)
	}

	start := time.Now()
	emp, err := s.matcher.Match(roster, sub.Descriptor)
	s.recorder.RecordMatchLatency(time.Since(start))
	if err != nil {
		// The query length was checked above, so the roster holds the bad descriptor
		slog.Error("roster descriptor mismatch",
			slog.String("tenant", sub.Tenant),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("%w: %v", ErrRosterMismatch, err)
	}
	if emp == nil {
		return s.reject(sub.Tenant, &Outcome{Reason: ReasonNotRecognized, Message: "Face not recognized"}), nil
	}

	if sub.Location != nil {
		if res := fence.Check(sub.Location.Latitude, sub.Location.Longitude); !res.Allowed {
			dist := res.Distance
			return s.reject(sub.Tenant, &Outcome{
				Reason:       ReasonOutOfZone,
				Message:      fmt.Sprintf("Outside %sm attendance zone (distance: %dm)", formatMeters(fence.RadiusMeters), dist),
				EmployeeID:   emp.ID,
				EmployeeName: emp.Name,
				Type:         typ,
				Distance:     &dist,
			}), nil
		}
	}

	rec, err := s.ledger.Record(ctx, backend.Attendance(), Entry{
		Tenant:    sub.Tenant,
		Employee:  emp,
		Type:      typ,
		Timestamp: ts,
		Location:  sub.Location,
	})
	if err != nil {
		if KindOf(err) != KindPolicy {
			slog.Error("recording attendance failed",
				slog.String("tenant", sub.Tenant),
				slog.String("employee_id", emp.ID),
				slog.String("error", err.Error()),
			)
			return nil, err
		}
		reason := ReasonDuplicate
		if errors.Is(err, ErrCheckoutWithoutCheckin) {
			reason = ReasonCheckoutWithoutCheckin
		}
		return s.reject(sub.Tenant, &Outcome{
			Reason:       reason,
			Message:      err.Error(),
			EmployeeID:   emp.ID,
			EmployeeName: emp.Name,
			Type:         typ,
		}), nil
	}

	s.recorder.RecordSubmission("success")
	slog.Info("attendance recorded",
		slog.String("tenant", sub.Tenant),
		slog.String("employee_id", emp.ID),
		slog.String("type", string(typ)),
		slog.String("day", rec.Day),
	)
	return &Outcome{
		Success:           true,
		Message:           typ.Label() + " recorded successfully",
		EmployeeID:        emp.ID,
		EmployeeName:      emp.Name,
		Type:              typ,
		RecordedTimestamp: rec.Timestamp,
	}, nil
}

func (s *Service) reject(tenant string, o *Outcome) *Outcome {
	s.recorder.RecordSubmission(string(o.Reason))
	slog.Info("attendance rejected",
		slog.String("tenant", tenant),
		slog.String("reason", string(o.Reason)),
		slog.String("employee_id", o.EmployeeID),
	)
	return o
}

func formatMeters(m float64) string {
	return fmt.Sprintf("%g", math.Round(m*10)/10)
}

// Enroll adds an employee to the tenant's roster. Names are unique per
// tenant after normalization.
func (s *Service) Enroll(ctx context.Context, req EnrollRequest) (*database.Employee, error) {
	name := facematch.CleanDisplayName(req.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: name", ErrMissingField)
	}
	if err := s.validateDescriptor(req.Descriptor); err != nil {
		return nil, err
	}

	backend, err := s.dir.Resolve(ctx, req.Tenant)
	if err != nil {
		return nil, err
	}

	desc := make([]float32, len(req.Descriptor))
	copy(desc, req.Descriptor)
	emp := &database.Employee{
		ID:         uuid.NewString(),
		Tenant:     req.Tenant,
		Name:       name,
		NameKey:    facematch.NormalizeEmployeeName(name),
		Descriptor: desc,
		CreatedAt:  s.now().UTC(),
	}
	if err := backend.Employees().CreateEmployee(ctx, emp); err != nil {
		if errors.Is(err, database.ErrEmployeeExists) {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateEmployee, name)
		}
		return nil, fmt.Errorf("%w: creating employee: %w", ErrStoreUnavailable, err)
	}

	s.recorder.RecordEnrollment()
	slog.Info("employee enrolled",
		slog.String("tenant", req.Tenant),
		slog.String("employee_id", emp.ID),
		slog.String("name", emp.Name),
	)
	return emp, nil
}

// ListEmployees returns the tenant's roster in enrollment order.
func (s *Service) ListEmployees(ctx context.Context, tenant string) ([]database.Employee, error) {
	backend, err := s.dir.Resolve(ctx, tenant)
	if err != nil {
		return nil, err
	}
	employees, err := backend.Employees().ListEmployees(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: listing employees: %w", ErrStoreUnavailable, err)
	}
	return employees, nil
}

// ListAttendance returns the tenant's records with from <= timestamp <= to.
func (s *Service) ListAttendance(ctx context.Context, tenant string, from, to time.Time) ([]database.AttendanceRecord, error) {
	if from.IsZero() || to.IsZero() || to.Before(from) {
		return nil, fmt.Errorf("%w: %s to %s", ErrInvalidRange, from.Format(time.RFC3339), to.Format(time.RFC3339))
	}
	backend, err := s.dir.Resolve(ctx, tenant)
	if err != nil {
		return nil, err
	}
	records, err := backend.Attendance().ListRecords(ctx, from.UTC(), to.UTC())
	if err != nil {
		return nil, fmt.Errorf("%w: listing records: %w", ErrStoreUnavailable, err)
	}
	return records, nil
}

// DayState returns the check-in state of an employee on the civil day of t.
func (s *Service) DayState(ctx context.Context, tenant, employeeID string, t time.Time) (State, error) {
	backend, err := s.dir.Resolve(ctx, tenant)
	if err != nil {
		return StateNoRecord, err
	}
	return s.ledger.StateOf(ctx, backend.Attendance(), employeeID, t)
}
