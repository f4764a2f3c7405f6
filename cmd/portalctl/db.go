package main

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/lib/pq"
	"github.com/spf13/cobra"

	"github.com/confportal/conf-portal-api/pkg/config"
	"github.com/confportal/conf-portal-api/pkg/db"
)

// dbCmd represents the db command
var dbCmd = &cobra.Command{
	Use:   "db",
	Short: "Manage the database",
	Long:  `Manage the database schema and migrations.`,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("error: Command 'db' requires a subcommand (migrate, down, status)")
		fmt.Println()
		_ = cmd.Help()
		os.Exit(1)
	},
}

var dbMigrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create and/or upgrade the database schema",
	Long: `Create and/or upgrade the database schema.

Runs every pending migration. Release builds (-tags embed_migrations) carry
the migrations in the binary; other builds read db/migrations.

Example:
  portalctl db migrate`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runMigrations(databaseURL())
	},
}

var dbDownCmd = &cobra.Command{
	Use:   "down [steps]",
	Short: "Rollback database migrations",
	Long: `Rollback database migrations (default: 1).

Example:
  portalctl db down      # Rollback 1 migration
  portalctl db down 3    # Rollback 3 migrations`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		steps := 1
		if len(args) > 0 {
			n, err := strconv.Atoi(args[0])
			if err != nil || n < 1 {
				return fmt.Errorf("steps must be a positive integer, got %q", args[0])
			}
			steps = n
		}
		return runMigrationsDown(databaseURL(), steps)
	},
}

var dbStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show current migration version",
	RunE: func(cmd *cobra.Command, args []string) error {
		return showMigrationStatus(databaseURL())
	},
}

func init() {
	rootCmd.AddCommand(dbCmd)
	dbCmd.AddCommand(dbMigrateCmd)
	dbCmd.AddCommand(dbDownCmd)
	dbCmd.AddCommand(dbStatusCmd)
}

// databaseURL prefers the loaded configuration and falls back to
// DATABASE_URL when portal.yml is unreadable.
func databaseURL() string {
	if cfg, err := config.Load(); err == nil && cfg.DatabaseURL != "" {
		return cfg.DatabaseURL
	}
	return db.URL()
}

func runMigrations(dbURL string) error {
	if dbURL == "" {
		return errors.New("DATABASE_URL environment variable is required")
	}

	m, err := createMigrateInstance(dbURL)
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}
	defer func() { _, _ = m.Close() }()

	version, dirty, _ := m.Version()
	fmt.Printf("Current version: %d (dirty: %v)\n", version, dirty)

	if err := m.Up(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			fmt.Println("No migrations to run - database is up to date")
			return nil
		}
		return fmt.Errorf("migration failed: %w", err)
	}

	newVersion, _, _ := m.Version()
	fmt.Printf("Migrated to version: %d\n", newVersion)
	return nil
}

func runMigrationsDown(dbURL string, steps int) error {
	if dbURL == "" {
		return errors.New("DATABASE_URL environment variable is required")
	}

	m, err := createMigrateInstance(dbURL)
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}
	defer func() { _, _ = m.Close() }()

	fmt.Printf("Rolling back %d migration(s)...\n", steps)
	if err := m.Steps(-steps); err != nil {
		return fmt.Errorf("rollback failed: %w", err)
	}

	version, _, err := m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		fmt.Println("Rolled back every migration")
		return nil
	}
	fmt.Printf("Rolled back to version: %d\n", version)
	return nil
}

func showMigrationStatus(dbURL string) error {
	if dbURL == "" {
		return errors.New("DATABASE_URL environment variable is required")
	}

	m, err := createMigrateInstance(dbURL)
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}
	defer func() { _, _ = m.Close() }()

	version, dirty, err := m.Version()
	if err != nil {
		if errors.Is(err, migrate.ErrNilVersion) {
			fmt.Println("No migrations have been applied yet")
			return nil
		}
		return err
	}

	fmt.Printf("Current version: %d\n", version)
	if dirty {
		fmt.Println("Warning: Database is in a dirty state")
	}
	return nil
}
