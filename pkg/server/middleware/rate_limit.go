package middleware

import (
	"context"
	"math"
	"net/http"
	"strconv"

	"github.com/go-redis/redis_rate/v10"
	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"github.com/confportal/conf-portal-api/pkg/errs"
	"github.com/confportal/conf-portal-api/pkg/identity"
	"github.com/confportal/conf-portal-api/pkg/server/response"
)

// Limiter is the part of redis_rate.Limiter the middleware needs.
type Limiter interface {
	Allow(ctx context.Context, key string, limit redis_rate.Limit) (*redis_rate.Result, error)
}

var _ Limiter = (*redis_rate.Limiter)(nil)

// RateLimit throttles each client per route. Keys look like
// "<app>_limiter:<ip>:<route template>".
type RateLimit struct {
	limiter Limiter
	limit   redis_rate.Limit
	prefix  string
	debug   bool
	logger  *zerolog.Logger
}

// NewRateLimit allows perMinute requests per client and route. A
// non-positive perMinute disables throttling.
func NewRateLimit(l Limiter, appName string, perMinute int, debug bool, logger *zerolog.Logger) *RateLimit {
	return &RateLimit{
		limiter: l,
		limit:   redis_rate.PerMinute(perMinute),
		prefix:  appName + "_limiter",
		debug:   debug,
		logger:  logger,
	}
}

func (rl *RateLimit) key(r *http.Request) string {
	path := r.URL.Path
	if route := mux.CurrentRoute(r); route != nil {
		if tpl, err := route.GetPathTemplate(); err == nil {
			path = tpl
		}
	}
	ip := identity.RemoteIP(r.Header.Get("X-Forwarded-For"), r.RemoteAddr)
	return rl.prefix + ":" + ip.String() + ":" + r.Method + ":" + path
}

// Handler rejects clients over the limit with 429 and Retry-After. Redis
// failures let the request through.
func (rl *RateLimit) Handler(next http.Handler) http.Handler {
	if rl.limit.Rate <= 0 {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		res, err := rl.limiter.Allow(r.Context(), rl.key(r), rl.limit)
		if err != nil {
			rl.logger.Warn().Err(err).Str("request_id", GetRequestID(r.Context())).Msg("rate limiter unavailable")
			next.ServeHTTP(w, r)
			return
		}
		w.Header().Set("X-RateLimit-Limit", strconv.Itoa(rl.limit.Rate))
		w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(res.Remaining))
		if res.Allowed == 0 {
			retry := int(math.Ceil(res.RetryAfter.Seconds()))
			if retry < 1 {
				retry = 1
			}
			w.Header().Set("Retry-After", strconv.Itoa(retry))
			response.Error(w, r, errs.NewTooManyRequestsError("Too many requests"), rl.debug, rl.logger)
			return
		}
		next.ServeHTTP(w, r)
	})
}
