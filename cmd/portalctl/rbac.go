package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/confportal/conf-portal-api/pkg/config"
	"github.com/confportal/conf-portal-api/pkg/db"
	"github.com/confportal/conf-portal-api/pkg/logger"
	"github.com/confportal/conf-portal-api/pkg/rbac"
)

// rbacCmd represents the rbac command
var rbacCmd = &cobra.Command{
	Use:   "rbac",
	Short: "Manage RBAC resources, verbs and permissions",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("error: Command 'rbac' requires a subcommand (seed)")
		fmt.Println()
		_ = cmd.Help()
		os.Exit(1)
	},
}

// rbacSeedCmd represents the rbac seed command
var rbacSeedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Create or update verbs, resources, permissions and the admin role",
	Long: `Create or update verbs, resources, permissions and the admin role.

Seeding is idempotent. Without --file the built-in seed is applied. Sections
missing from the file keep their built-in values.

With --watch the file is seeded again every time it changes.

Example:
  portalctl rbac seed
  portalctl rbac seed --file seed.yml --dry-run
  portalctl rbac seed --file /run/portal/seed.yml --watch`,
	RunE: func(cmd *cobra.Command, args []string) error {
		file, _ := cmd.Flags().GetString("file")
		watch, _ := cmd.Flags().GetBool("watch")
		dryRun, _ := cmd.Flags().GetBool("dry-run")
		if watch && file == "" {
			return fmt.Errorf("--watch requires --file")
		}

		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}
		log := logger.New(logger.Options{AppName: cfg.AppName, Env: cfg.Env, Level: cfg.LogLevel})

		database, err := db.Connect(db.Config{URL: cfg.DatabaseURL, LogLevel: cfg.LogLevel})
		if err != nil {
			return err
		}
		seeder := rbac.NewSeeder(rbac.NewGormStore(database), log).WithDryRun(dryRun)

		if err := seedOnce(seeder, file, cmd); err != nil {
			return err
		}
		if !watch {
			return nil
		}
		return watchSeed(seeder, file, cmd, log)
	},
}

func init() {
	rootCmd.AddCommand(rbacCmd)
	rbacCmd.AddCommand(rbacSeedCmd)
	rbacSeedCmd.Flags().StringP("file", "f", "", "YAML seed file overriding the built-in seed")
	rbacSeedCmd.Flags().BoolP("watch", "w", false, "seed again whenever the file changes")
	rbacSeedCmd.Flags().Bool("dry-run", false, "roll the changes back after applying them")
}

func loadSeed(file string) (*rbac.Seed, error) {
	if file == "" {
		return rbac.DefaultSeed(), nil
	}
	return rbac.LoadSeedFile(file)
}

func seedOnce(seeder *rbac.Seeder, file string, cmd *cobra.Command) error {
	seed, err := loadSeed(file)
	if err != nil {
		return err
	}
	result, err := seeder.Apply(seed)
	if err != nil {
		return fmt.Errorf("seeding failed: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Seeded %d verbs, %d resources, %d permissions (%d granted to the admin role)\n",
		result.Verbs, result.Resources, result.Permissions, result.Granted)
	return nil
}

// watchSeed re-applies file on every write until interrupted. Errors are
// logged and the watch goes on.
func watchSeed(seeder *rbac.Seeder, file string, cmd *cobra.Command, log zerolog.Logger) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer func() { _ = watcher.Close() }()

	if err := watcher.Add(file); err != nil {
		return fmt.Errorf("failed to watch file %s: %w", file, err)
	}
	log.Info().Str("file", file).Msg("Watching seed file")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename) {
				// editors replace the file; follow the new inode
				time.Sleep(100 * time.Millisecond)
				if err := watcher.Add(file); err != nil {
					log.Error().Err(err).Str("file", file).Msg("Seed file vanished")
					continue
				}
			} else if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			log.Info().Str("file", file).Msg("Seed file changed, reseeding")
			if err := seedOnce(seeder, file, cmd); err != nil {
				log.Error().Err(err).Msg("Reseed failed")
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Error().Err(err).Msg("Watcher error")
		case <-sigChan:
			fmt.Fprintln(cmd.OutOrStdout(), "\nShutting down...")
			return nil
		}
	}
}
