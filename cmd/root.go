package cmd

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/UjjwalAsati/Attendance-System/internal/logger"
)

var rootCmd = &cobra.Command{
	Use:   "attendance",
	Short: "Face recognition attendance service",
	Long: `Attendance is a service that records employee check-ins and check-outs.
Kiosks submit face descriptors, the service identifies the employee against
the enrolled roster, checks the geofence and appends the record to the
tenant's attendance ledger.`,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
}

func initConfig() {
	// .env file is optional, don't fail if not found
	_ = godotenv.Load()
	logger.SetupDefault(os.Stderr, logger.ParseLevel(os.Getenv("LOG_LEVEL")))
}
