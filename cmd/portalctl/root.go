package main

import (
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "portalctl",
	Short: "Conference portal server and administration tool",
	Long: `portalctl runs the conference portal API and its background worker,
and manages the database schema, RBAC seed data and superusers.`,
	SilenceUsage: true,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func main() {
	Execute()
}
