package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/UjjwalAsati/Attendance-System/internal/attendance"
	"github.com/UjjwalAsati/Attendance-System/internal/database"
)

var enrollCmd = &cobra.Command{
	Use:   "enroll",
	Short: "Register employees and their face descriptors",
	Long: `Register a single employee or import a roster from a file.

The import file is YAML or JSON: a list of {name, descriptor} entries.
Entries are enrolled in file order, which becomes the roster order used to
break ties between similar faces. Employees whose name is already enrolled
are skipped.

Examples:
  # Register one employee in the default tenant
  attendance enroll --name "Asha Verma" --descriptor 0.12,-0.03,...

  # Import a roster into tenant "jm"
  attendance enroll --tenant jm --file roster.yaml`,
	RunE: runEnroll,
}

func init() {
	rootCmd.AddCommand(enrollCmd)

	enrollCmd.Flags().String("tenant", "", "Tenant key (default tenant when empty)")
	enrollCmd.Flags().String("name", "", "Employee name")
	enrollCmd.Flags().Float32Slice("descriptor", nil, "Face descriptor values, comma separated")
	enrollCmd.Flags().String("file", "", "YAML or JSON roster file to import")
}

// rosterEntry is one employee of an import file.
type rosterEntry struct {
	Name       string    `yaml:"name" json:"name"`
	Descriptor []float32 `yaml:"descriptor" json:"descriptor"`
}

// parseRoster decodes an import file. JSON is valid YAML, so one decoder
// serves both formats.
func parseRoster(data []byte) ([]rosterEntry, error) {
	var entries []rosterEntry
	if err := yaml.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("parsing roster: %w", err)
	}
	return entries, nil
}

func runEnroll(cmd *cobra.Command, args []string) error {
	tenantKey := mustGetString(cmd, "tenant")
	name := mustGetString(cmd, "name")
	descriptor := mustGetFloat32Slice(cmd, "descriptor")
	file := mustGetString(cmd, "file")

	if file == "" && name == "" {
		return errors.New("either --name with --descriptor or --file is required")
	}

	ctx := context.Background()
	a, err := loadApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	if file == "" {
		emp, err := a.service.Enroll(ctx, attendance.EnrollRequest{
			Tenant:     tenantKey,
			Name:       name,
			Descriptor: descriptor,
		})
		if err != nil {
			return fmt.Errorf("enrolling %s: %w", name, err)
		}
		fmt.Printf("Enrolled %s (%s)\n", emp.Name, emp.ID)
		return nil
	}

	data, err := os.ReadFile(file)
	if err != nil {
		return fmt.Errorf("reading roster file: %w", err)
	}
	entries, err := parseRoster(data)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Println("Roster file is empty")
		return nil
	}

	result := importRoster(ctx, a.service, tenantKey, entries)

	fmt.Printf("\nEnrolled: %d, skipped (already enrolled): %d, failed: %d\n",
		result.enrolled, result.skipped, len(result.failures))
	for _, f := range result.failures {
		fmt.Printf("  %s: %v\n", f.name, f.err)
	}
	if len(result.failures) > 0 {
		return fmt.Errorf("%d employees could not be enrolled", len(result.failures))
	}
	return nil
}

type importFailure struct {
	name string
	err  error
}

type importResult struct {
	enrolled int
	skipped  int
	failures []importFailure
}

// enroller is the part of the attendance service the import needs.
type enroller interface {
	Enroll(ctx context.Context, req attendance.EnrollRequest) (*database.Employee, error)
}

// importRoster enrolls entries one at a time in file order, so the stored
// roster keeps the order of the file. Duplicate names are counted as
// skipped, every other error as a failure.
func importRoster(ctx context.Context, svc enroller, tenantKey string, entries []rosterEntry) importResult {
	bar := progressbar.NewOptions(len(entries),
		progressbar.OptionSetDescription("Enrolling"),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetItsString("employees"),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionSetPredictTime(true),
		progressbar.OptionFullWidth(),
	)

	var result importResult
	for _, e := range entries {
		_, err := svc.Enroll(ctx, attendance.EnrollRequest{
			Tenant:     tenantKey,
			Name:       e.Name,
			Descriptor: e.Descriptor,
		})
		switch {
		case err == nil:
			result.enrolled++
		case errors.Is(err, attendance.ErrDuplicateEmployee):
			result.skipped++
		default:
			result.failures = append(result.failures, importFailure{name: e.Name, err: err})
		}
		bar.Add(1)
	}

	bar.Finish()
	return result
}
