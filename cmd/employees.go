package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var employeesCmd = &cobra.Command{
	Use:   "employees",
	Short: "List the enrolled employees of a tenant",
	RunE:  runEmployees,
}

func init() {
	rootCmd.AddCommand(employeesCmd)

	employeesCmd.Flags().String("tenant", "", "Tenant key (default tenant when empty)")
	employeesCmd.Flags().Bool("json", false, "Output as JSON")
}

type employeeOutput struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	CreatedAt string `json:"created_at"`
}

func runEmployees(cmd *cobra.Command, args []string) error {
	tenantKey := mustGetString(cmd, "tenant")
	jsonOutput := mustGetBool(cmd, "json")

	ctx := context.Background()
	a, err := loadApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	employees, err := a.service.ListEmployees(ctx, tenantKey)
	if err != nil {
		return fmt.Errorf("failed to list employees: %w", err)
	}

	offset := a.cfg.Calendar.OffsetMinutes
	out := make([]employeeOutput, len(employees))
	for i, e := range employees {
		out[i] = employeeOutput{
			ID:        e.ID,
			Name:      e.Name,
			CreatedAt: civilClock(e.CreatedAt, offset),
		}
	}

	if jsonOutput {
		return outputJSON(out)
	}

	if len(out) == 0 {
		fmt.Println("No employees enrolled.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tENROLLED")
	fmt.Fprintln(w, "--\t----\t--------")
	for _, e := range out {
		fmt.Fprintf(w, "%s\t%s\t%s\n", e.ID, e.Name, e.CreatedAt)
	}
	w.Flush()

	fmt.Printf("\nTotal: %d employees\n", len(out))
	return nil
}

func outputJSON(data any) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(data); err != nil {
		return fmt.Errorf("encoding JSON output: %w", err)
	}
	return nil
}
