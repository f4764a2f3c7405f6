package integration

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"
	"gorm.io/gorm"

	"github.com/confportal/conf-portal-api/pkg/db"
	"github.com/confportal/conf-portal-api/pkg/logger"
	"github.com/confportal/conf-portal-api/pkg/rbac"
)

// TestContext holds the containers and the server shared by every scenario.
type TestContext struct {
	DB          *gorm.DB
	Postgres    testcontainers.Container
	Redis       testcontainers.Container
	DatabaseURL string
	RedisURL    string
	ServerURL   string
	HTTPClient  *http.Client

	instance *ServerInstance
}

// NewTestContext starts PostgreSQL and Redis containers, applies the
// migrations and the RBAC seed, then starts a server.
//
// Modes:
//   - Inline mode (default): the server runs in-process
//   - Binary mode: set PORTAL_BINARY to the path of a portalctl binary
func NewTestContext(ctx context.Context) (*TestContext, error) {
	projectRoot, err := findProjectRoot()
	if err != nil {
		return nil, fmt.Errorf("failed to find project root: %w", err)
	}

	tc := &TestContext{HTTPClient: &http.Client{Timeout: 10 * time.Second}}

	pg, err := tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("portal_test"),
		tcpostgres.WithUsername("portal"),
		tcpostgres.WithPassword("portal"),
		tcpostgres.BasicWaitStrategies(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to start postgres container: %w", err)
	}
	tc.Postgres = pg

	if tc.DatabaseURL, err = pg.ConnectionString(ctx, "sslmode=disable"); err != nil {
		tc.Close(ctx)
		return nil, fmt.Errorf("failed to get postgres connection string: %w", err)
	}

	rd, err := tcredis.Run(ctx, "redis:7-alpine")
	if err != nil {
		tc.Close(ctx)
		return nil, fmt.Errorf("failed to start redis container: %w", err)
	}
	tc.Redis = rd
	if tc.RedisURL, err = rd.ConnectionString(ctx); err != nil {
		tc.Close(ctx)
		return nil, fmt.Errorf("failed to get redis connection string: %w", err)
	}

	if err := runMigrations(filepath.Join(projectRoot, "db", "migrations"), tc.DatabaseURL); err != nil {
		tc.Close(ctx)
		return nil, err
	}

	if tc.DB, err = db.Connect(db.Config{URL: tc.DatabaseURL}); err != nil {
		tc.Close(ctx)
		return nil, err
	}
	if _, err := rbac.NewSeeder(rbac.NewGormStore(tc.DB), *logger.Nop()).Apply(rbac.DefaultSeed()); err != nil {
		tc.Close(ctx)
		return nil, fmt.Errorf("failed to seed rbac: %w", err)
	}

	if binary := os.Getenv("PORTAL_BINARY"); binary != "" {
		log.Printf("Using binary: %s", binary)
		tc.instance, err = startBinaryServer(binary, tc.DatabaseURL, tc.RedisURL)
	} else {
		log.Println("Using inline server mode")
		tc.instance, err = startInlineServer(tc.DB, tc.DatabaseURL, tc.RedisURL)
	}
	if err != nil {
		tc.Close(ctx)
		return nil, fmt.Errorf("failed to start server: %w", err)
	}
	tc.ServerURL = tc.instance.URL

	if err := waitForServer(tc.ServerURL, 30*time.Second); err != nil {
		tc.Close(ctx)
		return nil, fmt.Errorf("server failed to become ready: %w", err)
	}
	return tc, nil
}

// Close stops the server and the containers.
func (tc *TestContext) Close(ctx context.Context) {
	if tc.instance != nil {
		tc.instance.Stop()
	}
	if tc.DB != nil {
		if sqlDB, err := tc.DB.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}
	if tc.Redis != nil {
		_ = tc.Redis.Terminate(ctx)
	}
	if tc.Postgres != nil {
		_ = tc.Postgres.Terminate(ctx)
	}
}

// waitForServer polls /healthz every 100ms until it answers 200.
func waitForServer(serverURL string, timeout time.Duration) error {
	client := &http.Client{Timeout: 2 * time.Second}
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()
	giveUp := time.After(timeout)

	var last error
	for {
		resp, err := client.Get(serverURL + "/healthz")
		switch {
		case err != nil:
			last = err
		case resp.StatusCode != http.StatusOK:
			last = fmt.Errorf("healthz returned %d", resp.StatusCode)
		}
		if resp != nil {
			_ = resp.Body.Close()
		}
		if err == nil && resp.StatusCode == http.StatusOK {
			return nil
		}
		select {
		case <-giveUp:
			return fmt.Errorf("portal not healthy after %v: %w", timeout, last)
		case <-ticker.C:
		}
	}
}

func findProjectRoot() (string, error) {
	for _, p := range []string{"../..", "..", "."} {
		if _, err := os.Stat(filepath.Join(p, "go.mod")); err == nil {
			return filepath.Abs(p)
		}
	}
	return "", fmt.Errorf("project root not found (looking for go.mod)")
}

func runMigrations(dir, dbURL string) error {
	m, err := migrate.New("file://"+dir, dbURL)
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}
	defer func() { _, _ = m.Close() }()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}
