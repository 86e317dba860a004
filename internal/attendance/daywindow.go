package attendance

import (
	"time"

	"github.com/UjjwalAsati/Attendance-System/internal/constants"
)

// Window is the span of one civil day, [00:00:00.000, 23:59:59.999] at a
// fixed UTC offset, expressed as UTC instants.
type Window struct {
	Start time.Time
	End   time.Time
	Day   string // Civil date, YYYY-MM-DD
}

// Bounds returns the civil day window containing instant. The calculation
// runs entirely in UTC with a fixed offset, so the host time zone has no
// influence on the result.
func Bounds(instant time.Time, offsetMinutes int) Window {
	offset := time.Duration(offsetMinutes) * time.Minute
	shifted := instant.UTC().Add(offset)
	y, m, d := shifted.Date()
	midnight := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)

	start := midnight.Add(-offset)
	return Window{
		Start: start,
		End:   start.Add(24*time.Hour - time.Millisecond),
		Day:   midnight.Format(constants.CivilDateLayout),
	}
}

// Contains reports whether t falls inside the window, both ends inclusive.
func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.Start) && !t.After(w.End)
}

// DayBounds returns the window of a civil date given as YYYY-MM-DD.
func DayBounds(day string, offsetMinutes int) (Window, error) {
	d, err := time.Parse(constants.CivilDateLayout, day)
	if err != nil {
		return Window{}, err
	}
	// d is civil midnight read as UTC; moving it back by the offset gives
	// the real instant of civil midnight.
	return Bounds(d.Add(-time.Duration(offsetMinutes)*time.Minute), offsetMinutes), nil
}

// CivilTime returns t as wall-clock time in the civil zone.
func CivilTime(t time.Time, offsetMinutes int) time.Time {
	return t.In(time.FixedZone("civil", offsetMinutes*60))
}
