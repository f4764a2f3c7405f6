package server

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/go-redis/redis_rate/v10"
	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/confportal/conf-portal-api/pkg/audit"
	"github.com/confportal/conf-portal-api/pkg/authenticator"
	"github.com/confportal/conf-portal-api/pkg/authenticator/authn_firebase"
	"github.com/confportal/conf-portal-api/pkg/authenticator/authn_password"
	"github.com/confportal/conf-portal-api/pkg/cache"
	"github.com/confportal/conf-portal-api/pkg/config"
	"github.com/confportal/conf-portal-api/pkg/jobs"
	"github.com/confportal/conf-portal-api/pkg/model"
	"github.com/confportal/conf-portal-api/pkg/password"
	"github.com/confportal/conf-portal-api/pkg/server/middleware"
	"github.com/confportal/conf-portal-api/pkg/server/store"
	gormstore "github.com/confportal/conf-portal-api/pkg/server/store/gorm"
	"github.com/confportal/conf-portal-api/pkg/storage"
	"github.com/confportal/conf-portal-api/pkg/token"
)

// Queue hands work to the background workers.
type Queue interface {
	EnqueueNotification(ctx context.Context, p jobs.NotificationPayload) error
	EnqueueEmail(ctx context.Context, p jobs.EmailPayload) error
}

// Storage is the object store behind file uploads.
type Storage interface {
	Bucket() string
	Region() string
	NewKey(filename string) string
	Upload(ctx context.Context, key string, body io.Reader, contentType string) (*storage.Object, error)
	DeleteMany(ctx context.Context, keys []string) error
	PresignGet(ctx context.Context, key string) (string, time.Time, error)
}

type Server struct {
	Config *config.PortalConfig
	Logger zerolog.Logger
	Router *mux.Router
	// API is the /api/v1 subrouter every endpoint registers on.
	API   *mux.Router
	DB    *gorm.DB
	Redis *redis.Client

	UsersStore         store.UsersStore
	PasswordResetStore store.PasswordResetStore
	RolesStore         store.RolesStore
	PermissionsStore   store.PermissionsStore
	ResourcesStore     store.ResourcesStore
	VerbsStore         store.VerbsStore
	ConferenceStore    store.ConferenceStore
	EventScheduleStore store.EventScheduleStore
	WorkshopStore      store.WorkshopStore
	RegistrationStore  store.RegistrationStore
	InstructorsStore   store.CRUDStore[model.Instructor]
	LocationsStore     store.CRUDStore[model.Location]
	FeedbackStore      store.CRUDStore[model.Feedback]
	TestimonyStore     store.CRUDStore[model.Testimony]
	FaqStore           store.FaqStore
	FaqCategoryStore   store.FaqCategoryStore
	DevicesStore       store.DevicesStore
	NotificationStore  store.NotificationStore
	FileStore          store.FileStore
	LogStore           store.LogStore
	HealthStore        store.HealthStore

	Tokens         *token.Provider
	Refresh        *token.RefreshProvider
	Blacklist      *token.Blacklist
	PermCache      *cache.PermissionCache
	Hasher         *password.Hasher
	Audit          *audit.Recorder
	Authenticators *authenticator.Registry
	Auth           *middleware.Auth
	Perms          *middleware.Permissions

	// Queue and Storage are nil until the caller wires them.
	Queue   Queue
	Storage Storage

	srv *http.Server
}

// NewRedis connects to url, overriding the database number.
func NewRedis(url string, db int) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}
	opts.DB = db
	return redis.NewClient(opts), nil
}

// NewServer builds every store and service from cfg. blacklist may be the
// same client as rdb when both use one Redis database.
func NewServer(
	cfg *config.PortalConfig,
	db *gorm.DB,
	rdb *redis.Client,
	blacklist *redis.Client,
	logger zerolog.Logger,
) *Server {
	s := &Server{
		Config: cfg,
		Logger: logger,
		DB:     db,
		Redis:  rdb,

		UsersStore:         gormstore.NewUsersStore(db),
		PasswordResetStore: gormstore.NewPasswordResetStore(db),
		RolesStore:         gormstore.NewRolesStore(db),
		PermissionsStore:   gormstore.NewPermissionsStore(db),
		ResourcesStore:     gormstore.NewResourcesStore(db),
		VerbsStore:         gormstore.NewVerbsStore(db),
		ConferenceStore:    gormstore.NewConferenceStore(db),
		EventScheduleStore: gormstore.NewEventScheduleStore(db),
		WorkshopStore:      gormstore.NewWorkshopStore(db),
		RegistrationStore:  gormstore.NewRegistrationStore(db),
		InstructorsStore:   gormstore.NewInstructorsStore(db),
		LocationsStore:     gormstore.NewLocationsStore(db),
		FeedbackStore:      gormstore.NewFeedbackStore(db),
		TestimonyStore:     gormstore.NewTestimonyStore(db),
		FaqStore:           gormstore.NewFaqStore(db),
		FaqCategoryStore:   gormstore.NewFaqCategoryStore(db),
		DevicesStore:       gormstore.NewDevicesStore(db),
		NotificationStore:  gormstore.NewNotificationStore(db),
		FileStore:          gormstore.NewFileStore(db),
		LogStore:           gormstore.NewLogStore(db),
		HealthStore:        gormstore.NewHealthStore(db),

		Tokens:    token.NewProvider(cfg.JWTSecretKey, cfg.BaseURL, cfg.AppName, cfg.AccessTokenTTL()),
		Refresh:   token.NewRefreshProvider(db, cfg.RefreshTokenHashSalt, cfg.RefreshTokenHashPepper, cfg.RefreshTokenTTL()),
		Blacklist: token.NewBlacklist(blacklist, cfg.AppName, logger),
		PermCache: cache.NewPermissionCache(rdb, cfg.AppName),
		Hasher:    password.New(cfg.PasswordHashIterations),
		Audit:     audit.NewRecorder(audit.NewStoreWithDB(db), logger),
	}

	s.Authenticators = authenticator.NewRegistry().
		Install(authn_password.New(s.UsersStore, s.Hasher), true).
		Install(authn_firebase.New(s.UsersStore, authn_firebase.Config{ProjectID: cfg.FirebaseProjectID}), cfg.FirebaseProjectID != "")

	s.Auth = middleware.NewAuth(s.Tokens, s.Blacklist, s.UsersStore, cfg.Debug, &s.Logger)
	s.Perms = middleware.NewPermissions(s.PermCache, s.UsersStore, cfg.Debug, &s.Logger)

	router := mux.NewRouter().UseEncodedPath()
	router.Use(middleware.RequestID, middleware.RequestLogger(logger))
	s.Router = router
	s.API = router.PathPrefix("/api/v1").Subrouter()
	s.API.Use(middleware.NewRateLimit(redis_rate.NewLimiter(rdb), cfg.AppName, cfg.RateLimitPerMinute, cfg.Debug, &s.Logger).Handler)

	cors := handlers.CORS(
		handlers.AllowedOrigins(cfg.CORSAllowedOrigins),
		handlers.AllowedMethods([]string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}),
		handlers.AllowedHeaders([]string{"Authorization", "Content-Type", middleware.RequestIDHeader}),
		handlers.AllowCredentials(),
	)
	recovery := handlers.RecoveryHandler(handlers.PrintRecoveryStack(cfg.Debug))

	s.srv = &http.Server{
		Handler:      handlers.LoggingHandler(os.Stdout, recovery(cors(router))),
		Addr:         cfg.Addr(),
		WriteTimeout: 15 * time.Second,
		ReadTimeout:  15 * time.Second,
	}
	return s
}

// Handler is the fully wrapped HTTP handler, for tests.
func (s *Server) Handler() http.Handler {
	return s.srv.Handler
}

func (s *Server) Start() error {
	s.Logger.Info().Str("addr", s.srv.Addr).Msg("HTTP server listening")
	return s.srv.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}
