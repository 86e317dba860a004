package cmd

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/UjjwalAsati/Attendance-System/internal/attendance"
	"github.com/UjjwalAsati/Attendance-System/internal/report"
)

var attendanceCmd = &cobra.Command{
	Use:   "attendance",
	Short: "List attendance records of a date range",
	Long: `List the attendance records of a tenant between two civil dates.

Examples:
  # Today's records of the default tenant
  attendance attendance

  # A week of tenant "jm" as a per-day report
  attendance attendance --tenant jm --from 2024-03-11 --to 2024-03-17 --report`,
	RunE: runAttendance,
}

func init() {
	rootCmd.AddCommand(attendanceCmd)

	attendanceCmd.Flags().String("tenant", "", "Tenant key (default tenant when empty)")
	attendanceCmd.Flags().String("from", "", "First civil date, YYYY-MM-DD (default today)")
	attendanceCmd.Flags().String("to", "", "Last civil date, YYYY-MM-DD (default --from)")
	attendanceCmd.Flags().Bool("report", false, "Group records into a per-day report")
	attendanceCmd.Flags().Bool("json", false, "Output as JSON")
}

// dayRange resolves --from/--to civil dates into an inclusive instant range.
func dayRange(from, to string, now time.Time, offsetMinutes int) (time.Time, time.Time, error) {
	if from == "" {
		from = attendance.Bounds(now, offsetMinutes).Day
	}
	if to == "" {
		to = from
	}
	start, err := attendance.DayBounds(from, offsetMinutes)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid --from date %q: %w", from, err)
	}
	end, err := attendance.DayBounds(to, offsetMinutes)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid --to date %q: %w", to, err)
	}
	if end.End.Before(start.Start) {
		return time.Time{}, time.Time{}, fmt.Errorf("--to %s is before --from %s", to, from)
	}
	return start.Start, end.End, nil
}

func civilClock(t time.Time, offsetMinutes int) string {
	return attendance.CivilTime(t, offsetMinutes).Format("2006-01-02 15:04:05")
}

type recordOutput struct {
	ID           string `json:"id"`
	EmployeeID   string `json:"employee_id"`
	EmployeeName string `json:"employee_name"`
	Type         string `json:"type"`
	Day          string `json:"day"`
	Time         string `json:"time"`
}

func runAttendance(cmd *cobra.Command, args []string) error {
	tenantKey := mustGetString(cmd, "tenant")
	asReport := mustGetBool(cmd, "report")
	jsonOutput := mustGetBool(cmd, "json")

	ctx := context.Background()
	a, err := loadApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	offset := a.cfg.Calendar.OffsetMinutes
	from, to, err := dayRange(mustGetString(cmd, "from"), mustGetString(cmd, "to"), time.Now(), offset)
	if err != nil {
		return err
	}

	records, err := a.service.ListAttendance(ctx, tenantKey, from, to)
	if err != nil {
		return fmt.Errorf("failed to list attendance: %w", err)
	}

	if asReport {
		days := report.Build(records, nil, offset)
		if jsonOutput {
			return outputJSON(days)
		}
		printReport(days)
		return nil
	}

	out := make([]recordOutput, len(records))
	for i, r := range records {
		out[i] = recordOutput{
			ID:           r.ID,
			EmployeeID:   r.EmployeeID,
			EmployeeName: r.EmployeeName,
			Type:         string(r.Type),
			Day:          r.Day,
			Time:         civilClock(r.Timestamp, offset),
		}
	}
	if jsonOutput {
		return outputJSON(out)
	}

	if len(out) == 0 {
		fmt.Println("No attendance records found.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "TIME\tEMPLOYEE\tTYPE")
	fmt.Fprintln(w, "----\t--------\t----")
	for _, r := range out {
		fmt.Fprintf(w, "%s\t%s\t%s\n", r.Time, r.EmployeeName, r.Type)
	}
	w.Flush()

	fmt.Printf("\nTotal: %d records\n", len(out))
	return nil
}

func printReport(days []report.Day) {
	if len(days) == 0 {
		fmt.Println("No attendance records found.")
		return
	}
	for _, d := range days {
		fmt.Printf("%s\n", d.Label)
		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "  EMPLOYEE\tCHECK-IN\tCHECK-OUT")
		for _, e := range d.Employees {
			fmt.Fprintf(w, "  %s\t%s\t%s\n", e.EmployeeName, orDash(e.CheckInTime), orDash(e.CheckOutTime))
		}
		w.Flush()
		fmt.Println()
	}
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
