package db

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// ErrNoURL is returned by Connect when neither Config.URL nor DATABASE_URL is set.
var ErrNoURL = errors.New("DATABASE_URL environment variable is required")

// Config holds database connection configuration
type Config struct {
	URL      string
	LogLevel string
	// Logger receives gorm's SQL and slow query lines. Nil uses gorm's
	// default stdout logger.
	Logger *zerolog.Logger
	// SlowThreshold marks queries as slow in the log. Zero means 200ms.
	SlowThreshold time.Duration
	// MaxOpenConns caps the pool. Zero keeps the driver default.
	MaxOpenConns    int
	ConnMaxLifetime time.Duration
}

// gormLogLevel maps a portal log level to gorm's. SQL statements are only
// logged at debug and trace.
func gormLogLevel(level string) gormlogger.LogLevel {
	switch level {
	case "debug", "trace":
		return gormlogger.Info
	case "warn", "info":
		return gormlogger.Warn
	case "error":
		return gormlogger.Error
	default:
		return gormlogger.Silent
	}
}

func (c Config) gormLogger() gormlogger.Interface {
	level := c.LogLevel
	if level == "" {
		level = os.Getenv("PORTAL_LOG_LEVEL")
	}
	if c.Logger == nil {
		return gormlogger.Default.LogMode(gormLogLevel(level))
	}
	slow := c.SlowThreshold
	if slow == 0 {
		slow = 200 * time.Millisecond
	}
	l := c.Logger.With().Str("component", "gorm").Logger()
	return gormlogger.New(&l, gormlogger.Config{
		SlowThreshold:             slow,
		LogLevel:                  gormLogLevel(level),
		IgnoreRecordNotFoundError: true,
	})
}

// Connect opens the Postgres pool. Timestamps are written in UTC.
func Connect(cfg Config) (*gorm.DB, error) {
	dbURL := cfg.URL
	if dbURL == "" {
		dbURL = URL()
	}
	if dbURL == "" {
		return nil, ErrNoURL
	}

	db, err := gorm.Open(
		postgres.New(postgres.Config{
			DSN:                  dbURL,
			PreferSimpleProtocol: true,
		}),
		&gorm.Config{
			Logger:  cfg.gormLogger(),
			NowFunc: func() time.Time { return time.Now().UTC() },
		},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to access connection pool: %w", err)
	}
	if cfg.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
		sqlDB.SetMaxIdleConns(cfg.MaxOpenConns / 2)
	}
	if cfg.ConnMaxLifetime > 0 {
		sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}
	return db, nil
}

// Ping checks the pool with a bounded wait, for startup and readiness checks.
func Ping(ctx context.Context, db *gorm.DB, timeout time.Duration) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return sqlDB.PingContext(ctx)
}

// URL returns DATABASE_URL, or "" when unset.
func URL() string {
	return os.Getenv("DATABASE_URL")
}
