package endpoints

import (
	"context"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/confportal/conf-portal-api/pkg/authenticator"
	"github.com/confportal/conf-portal-api/pkg/errs"
	"github.com/confportal/conf-portal-api/pkg/server"
	"github.com/confportal/conf-portal-api/pkg/server/store"
)

const healthTimeout = 3 * time.Second

// AuthenticatorsResponse represents the response from /authenticators
type AuthenticatorsResponse struct {
	Installed []string          `json:"installed"`
	Enabled   []string          `json:"enabled"`
	Status    map[string]string `json:"status"`
}

// redisPinger adapts *redis.Client to store.Pinger.
type redisPinger struct {
	client *redis.Client
}

func (p redisPinger) Ping(ctx context.Context) error {
	return p.client.Ping(ctx).Err()
}

// RegisterHealthEndpoints registers /healthz and the authenticator listing
func RegisterHealthEndpoints(s *server.Server) {
	rs := newResponder(s)
	var redisCheck store.Pinger
	if s.Redis != nil {
		redisCheck = redisPinger{client: s.Redis}
	}

	s.Router.HandleFunc("/healthz", handleHealth(rs, s.HealthStore, redisCheck)).Methods("GET")
	s.API.HandleFunc("/authenticators", handleAuthenticators(s.Authenticators)).Methods("GET")
}

func handleHealth(rs responder, db store.HealthStore, kv store.Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
		defer cancel()

		if err := db.CheckConnectivity(ctx); err != nil {
			rs.error(w, r, errs.NewServiceUnavailableError("database connectivity check failed").WithDebug(err.Error()))
			return
		}
		if kv != nil {
			if err := kv.Ping(ctx); err != nil {
				rs.error(w, r, errs.NewServiceUnavailableError("redis connectivity check failed").WithDebug(err.Error()))
				return
			}
		}
		respondWithJSON(w, http.StatusOK, map[string]string{"message": "ok"})
	}
}

func handleAuthenticators(registry *authenticator.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status := map[string]string{}
		for name, err := range registry.Status(r.Context()) {
			if err != nil {
				status[name] = err.Error()
				continue
			}
			status[name] = "ok"
		}
		respondWithJSON(w, http.StatusOK, AuthenticatorsResponse{
			Installed: registry.Installed(),
			Enabled:   registry.Enabled(),
			Status:    status,
		})
	}
}
