package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/confportal/conf-portal-api/pkg/identity"
)

const (
	mask          = "********"
	maxLoggedBody = 64 << 10
)

// SensitiveKeys are masked wherever they appear in a logged JSON body.
var SensitiveKeys = []string{
	"password",
	"new_password",
	"token",
	"access_token",
	"refresh_token",
	"firebase_token",
	"fcm_token",
}

// requestState is filled in by inner middleware so the logger, which runs
// outermost, can report who made the request.
type requestState struct {
	userID string
}

type requestStateKey struct{}

func setUserID(ctx context.Context, id string) {
	if s, ok := ctx.Value(requestStateKey{}).(*requestState); ok {
		s.userID = id
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// RequestLogger writes one structured line per request. Bodies are logged at
// debug level with SensitiveKeys masked.
func RequestLogger(logger zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			state := &requestState{}
			ctx := context.WithValue(r.Context(), requestStateKey{}, state)

			if logger.GetLevel() <= zerolog.DebugLevel && r.Body != nil && isJSON(r) {
				body, err := io.ReadAll(io.LimitReader(r.Body, maxLoggedBody))
				if err == nil {
					r.Body = io.NopCloser(io.MultiReader(bytes.NewReader(body), r.Body))
					logger.Debug().
						Str("request_id", GetRequestID(ctx)).
						RawJSON("body", MaskBody(body)).
						Msg("Request body")
				}
			}

			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r.WithContext(ctx))

			var e *zerolog.Event
			switch {
			case rec.status >= 500:
				e = logger.Error()
			case rec.status >= 400:
				e = logger.Warn()
			default:
				e = logger.Info()
			}
			e.Str("request_id", GetRequestID(ctx)).
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", rec.status).
				Float64("duration_ms", float64(time.Since(start).Microseconds())/1000).
				Str("ip", identity.RemoteIP(r.Header.Get("X-Forwarded-For"), r.RemoteAddr).String()).
				Str("user_id", state.userID).
				Msg("API")
		})
	}
}

func isJSON(r *http.Request) bool {
	return strings.HasPrefix(r.Header.Get("Content-Type"), "application/json")
}

// MaskBody replaces the values of SensitiveKeys at any depth. Bodies that are
// not valid JSON are replaced entirely.
func MaskBody(body []byte) []byte {
	if len(bytes.TrimSpace(body)) == 0 {
		return []byte(`null`)
	}
	var v any
	if err := json.Unmarshal(body, &v); err != nil {
		return []byte(`"` + mask + `"`)
	}
	out, err := json.Marshal(maskValue(v))
	if err != nil {
		return []byte(`"` + mask + `"`)
	}
	return out
}

func maskValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		for k, val := range t {
			if sensitive(k) {
				t[k] = mask
				continue
			}
			t[k] = maskValue(val)
		}
	case []any:
		for i := range t {
			t[i] = maskValue(t[i])
		}
	}
	return v
}

func sensitive(key string) bool {
	key = strings.ToLower(key)
	for _, k := range SensitiveKeys {
		if key == k {
			return true
		}
	}
	return false
}
