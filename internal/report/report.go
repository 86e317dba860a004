// Package report groups raw attendance records into per-day summaries.
package report

import (
	"sort"
	"time"

	"github.com/UjjwalAsati/Attendance-System/internal/attendance"
	"github.com/UjjwalAsati/Attendance-System/internal/constants"
	"github.com/UjjwalAsati/Attendance-System/internal/database"
)

const (
	labelLayout = "Monday, 02-01-2006"
	clockLayout = "03:04:05 PM"
)

// EmployeeDay is one employee's first check-in and last check-out of a day.
type EmployeeDay struct {
	EmployeeID   string     `json:"employee_id"`
	EmployeeName string     `json:"employee_name"`
	CheckIn      *time.Time `json:"check_in,omitempty"`
	CheckOut     *time.Time `json:"check_out,omitempty"`
	CheckInTime  string     `json:"check_in_time"`  // Civil wall clock, empty when missing
	CheckOutTime string     `json:"check_out_time"` // Civil wall clock, empty when missing
}

// Day groups the employees seen on one civil date.
type Day struct {
	Date      string        `json:"date"`
	Label     string        `json:"label"`
	Employees []EmployeeDay `json:"employees"`
	Absent    []string      `json:"absent,omitempty"`
}

// Build groups records by civil day and employee. Days are in date order,
// employees by name. When roster is given, every roster employee without a
// record on a day is listed as absent for that day.
func Build(records []database.AttendanceRecord, roster []database.Employee, offsetMinutes int) []Day {
	byDay := make(map[string]map[string]*EmployeeDay)
	for _, r := range records {
		day := r.Day
		if day == "" {
			day = attendance.Bounds(r.Timestamp, offsetMinutes).Day
		}
		emps, ok := byDay[day]
		if !ok {
			emps = make(map[string]*EmployeeDay)
			byDay[day] = emps
		}
		ed, ok := emps[r.EmployeeID]
		if !ok {
			ed = &EmployeeDay{EmployeeID: r.EmployeeID, EmployeeName: r.EmployeeName}
			emps[r.EmployeeID] = ed
		}

		ts := r.Timestamp
		switch r.Type {
		case database.RecordCheckIn:
			if ed.CheckIn == nil || ts.Before(*ed.CheckIn) {
				ed.CheckIn = &ts
				ed.CheckInTime = clock(ts, offsetMinutes)
			}
		case database.RecordCheckOut:
			if ed.CheckOut == nil || ts.After(*ed.CheckOut) {
				ed.CheckOut = &ts
				ed.CheckOutTime = clock(ts, offsetMinutes)
			}
		}
	}

	days := make([]Day, 0, len(byDay))
	for date, emps := range byDay {
		d := Day{Date: date, Label: label(date)}
		for _, ed := range emps {
			d.Employees = append(d.Employees, *ed)
		}
		sort.Slice(d.Employees, func(i, j int) bool {
			if d.Employees[i].EmployeeName != d.Employees[j].EmployeeName {
				return d.Employees[i].EmployeeName < d.Employees[j].EmployeeName
			}
			return d.Employees[i].EmployeeID < d.Employees[j].EmployeeID
		})
		for _, e := range roster {
			if _, seen := emps[e.ID]; !seen {
				d.Absent = append(d.Absent, e.Name)
			}
		}
		sort.Strings(d.Absent)
		days = append(days, d)
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Date < days[j].Date })
	return days
}

func clock(t time.Time, offsetMinutes int) string {
	return attendance.CivilTime(t, offsetMinutes).Format(clockLayout)
}

func label(date string) string {
	d, err := time.Parse(constants.CivilDateLayout, date)
	if err != nil {
		return date
	}
	return d.Format(labelLayout)
}
