package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/confportal/conf-portal-api/pkg/config"
	"github.com/confportal/conf-portal-api/pkg/db"
	"github.com/confportal/conf-portal-api/pkg/jobs"
	"github.com/confportal/conf-portal-api/pkg/logger"
	"github.com/confportal/conf-portal-api/pkg/mail"
	"github.com/confportal/conf-portal-api/pkg/notify"
	"github.com/confportal/conf-portal-api/pkg/push"
	"github.com/confportal/conf-portal-api/pkg/server"
	"github.com/confportal/conf-portal-api/pkg/server/endpoints"
	"github.com/confportal/conf-portal-api/pkg/storage"
)

const shutdownTimeout = 10 * time.Second

// serverCmd represents the server command
var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Run the portal API server",
	Long: `Run the portal API server.

Configuration comes from portal.yml and the environment; see
"portalctl config show". DATABASE_URL, REDIS_URL and JWT_SECRET_KEY are
required.

By default, database migrations are run on startup and the background job
worker runs in the same process. Use --no-migrate and --no-worker to skip
them.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		noMigrate, _ := cmd.Flags().GetBool("no-migrate")
		noWorker, _ := cmd.Flags().GetBool("no-worker")

		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}
		if cmd.Flags().Changed("port") {
			cfg.Port, _ = cmd.Flags().GetInt("port")
		}
		if cmd.Flags().Changed("bind-address") {
			cfg.Host, _ = cmd.Flags().GetString("bind-address")
		}
		if err := cfg.Validate(); err != nil {
			return err
		}
		config.Set(cfg)

		log := logger.New(logger.Options{AppName: cfg.AppName, Env: cfg.Env, Level: cfg.LogLevel})

		if !noMigrate {
			log.Info().Msg("Running database migrations")
			if err := runMigrations(cfg.DatabaseURL); err != nil {
				return err
			}
		}
		return runServer(cmd.Context(), cfg, log, !noWorker)
	},
}

func init() {
	rootCmd.AddCommand(serverCmd)
	serverCmd.Flags().IntP("port", "p", defaultPort(), "server listen port")
	serverCmd.Flags().StringP("bind-address", "b", "0.0.0.0", "server bind address")
	serverCmd.Flags().Bool("no-migrate", false, "skip running database migrations on start")
	serverCmd.Flags().Bool("no-worker", false, "do not process background jobs in this process")
}

func runServer(ctx context.Context, cfg *config.PortalConfig, log zerolog.Logger, worker bool) error {
	database, err := db.Connect(db.Config{URL: cfg.DatabaseURL, LogLevel: cfg.LogLevel, Logger: &log})
	if err != nil {
		return err
	}
	if err := db.Ping(ctx, database, 5*time.Second); err != nil {
		return fmt.Errorf("database is not reachable: %w", err)
	}

	rdb, err := server.NewRedis(cfg.RedisURL, cfg.RedisDB)
	if err != nil {
		return err
	}
	defer func() { _ = rdb.Close() }()
	blacklist := rdb
	if cfg.TokenBlacklistRedisDB != cfg.RedisDB {
		if blacklist, err = server.NewRedis(cfg.RedisURL, cfg.TokenBlacklistRedisDB); err != nil {
			return err
		}
		defer func(c *redis.Client) { _ = c.Close() }(blacklist)
	}

	s := server.NewServer(cfg, database, rdb, blacklist, log)

	jobService, err := jobs.NewJobService(&s.Logger, cfg.RedisURL, cfg.RedisDB)
	if err != nil {
		return err
	}
	mailer := mail.NewClient(cfg.ResendAPIKey, cfg.MailFrom, log)
	sender, err := pushSender(ctx, cfg, log)
	if err != nil {
		return err
	}
	jobService.InitHandlers(notify.NewDispatcher(s.NotificationStore, sender, mailer, cfg.EnablePushNotification, log), mailer)
	s.Queue = jobService.Queue()

	if cfg.AWSS3Bucket != "" {
		st, err := storage.New(ctx, storage.Options{
			Region:          cfg.AWSRegion,
			Bucket:          cfg.AWSS3Bucket,
			Endpoint:        cfg.AWSS3Endpoint,
			AccessKeyID:     cfg.AWSAccessKeyID,
			SecretAccessKey: cfg.AWSSecretAccessKey,
			MaxUploadBytes:  cfg.MaxUploadBytes(),
		})
		if err != nil {
			return err
		}
		s.Storage = st
	} else {
		log.Warn().Msg("AWS_S3_BUCKET is not set, file endpoints are disabled")
	}

	endpoints.RegisterAll(s)

	if worker {
		if err := jobService.Start(); err != nil {
			return fmt.Errorf("failed to start job worker: %w", err)
		}
		defer jobService.Stop()
	}

	errc := make(chan error, 1)
	go func() { errc <- s.Start() }()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case sig := <-sigChan:
		log.Info().Str("signal", sig.String()).Msg("Shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return s.Shutdown(shutdownCtx)
}

// pushSender returns the FCM sender, or a dry-run sender when push is
// disabled.
func pushSender(ctx context.Context, cfg *config.PortalConfig, log zerolog.Logger) (push.Sender, error) {
	if !cfg.EnablePushNotification {
		log.Info().Msg("Push notifications disabled, deliveries are dry runs")
		return push.DryRunSender{}, nil
	}
	sender, err := push.NewFCMSender(ctx, cfg.FirebaseProjectID, cfg.GoogleApplicationCredentials)
	if err != nil {
		return nil, fmt.Errorf("failed to create FCM sender: %w", err)
	}
	return sender, nil
}
