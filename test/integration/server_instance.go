package integration

import (
	"context"
	"fmt"
	"net"
	"net/http/httptest"
	"os"
	"os/exec"
	"strconv"

	"gorm.io/gorm"

	"github.com/confportal/conf-portal-api/pkg/config"
	"github.com/confportal/conf-portal-api/pkg/jobs"
	"github.com/confportal/conf-portal-api/pkg/logger"
	"github.com/confportal/conf-portal-api/pkg/mail"
	"github.com/confportal/conf-portal-api/pkg/notify"
	"github.com/confportal/conf-portal-api/pkg/push"
	"github.com/confportal/conf-portal-api/pkg/server"
	"github.com/confportal/conf-portal-api/pkg/server/endpoints"
)

const jwtSecret = "integration-secret"

// ServerInstance is a running portal, in-process or as a child process.
type ServerInstance struct {
	URL string

	httpServer *httptest.Server
	jobs       *jobs.JobService
	process    *exec.Cmd
	cancel     context.CancelFunc
}

func testConfig(dbURL, redisURL string) *config.PortalConfig {
	cfg := config.New()
	cfg.DatabaseURL = dbURL
	cfg.RedisURL = redisURL
	cfg.JWTSecretKey = jwtSecret
	cfg.PasswordHashIterations = 1000
	cfg.LogLevel = "warn"
	return cfg
}

// startInlineServer wires the server the way portalctl does, with dry-run
// push and mail disabled.
func startInlineServer(database *gorm.DB, dbURL, redisURL string) (*ServerInstance, error) {
	cfg := testConfig(dbURL, redisURL)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	log := logger.New(logger.Options{AppName: cfg.AppName, Env: "stg", Level: cfg.LogLevel})

	rdb, err := server.NewRedis(redisURL, cfg.RedisDB)
	if err != nil {
		return nil, err
	}
	blacklist, err := server.NewRedis(redisURL, cfg.TokenBlacklistRedisDB)
	if err != nil {
		return nil, err
	}
	s := server.NewServer(cfg, database, rdb, blacklist, log)

	jobService, err := jobs.NewJobService(&s.Logger, redisURL, cfg.RedisDB)
	if err != nil {
		return nil, err
	}
	mailer := mail.NewClient("", cfg.MailFrom, log)
	jobService.InitHandlers(notify.NewDispatcher(s.NotificationStore, push.DryRunSender{}, mailer, false, log), mailer)
	if err := jobService.Start(); err != nil {
		return nil, err
	}
	s.Queue = jobService.Queue()

	endpoints.RegisterAll(s)

	hs := httptest.NewServer(s.Handler())
	return &ServerInstance{URL: hs.URL, httpServer: hs, jobs: jobService}, nil
}

// startBinaryServer runs "portalctl server" against the containers.
func startBinaryServer(binaryPath, dbURL, redisURL string) (*ServerInstance, error) {
	port, err := freePort()
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())
	cmd := exec.CommandContext(ctx, binaryPath, "server", "--no-migrate", "-b", "127.0.0.1", "-p", strconv.Itoa(port))
	cmd.Env = append(os.Environ(),
		"DATABASE_URL="+dbURL,
		"REDIS_URL="+redisURL,
		"JWT_SECRET_KEY="+jwtSecret,
		"PASSWORD_HASH_ITERATIONS=1000",
		"PORTAL_CONFIG_PATH="+os.TempDir(),
		"ENV=stg",
	)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	if err := cmd.Start(); err != nil {
		cancel()
		return nil, fmt.Errorf("failed to start binary: %w", err)
	}
	return &ServerInstance{URL: fmt.Sprintf("http://127.0.0.1:%d", port), process: cmd, cancel: cancel}, nil
}

func freePort() (int, error) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return 0, err
	}
	defer func() { _ = l.Close() }()
	return l.Addr().(*net.TCPAddr).Port, nil
}

// Stop shuts the instance down.
func (si *ServerInstance) Stop() {
	if si.httpServer != nil {
		si.httpServer.Close()
	}
	if si.jobs != nil {
		si.jobs.Stop()
	}
	if si.cancel != nil {
		si.cancel()
	}
	if si.process != nil && si.process.Process != nil {
		_ = si.process.Process.Kill()
		_ = si.process.Wait()
	}
}
