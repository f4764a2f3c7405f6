// Package response writes JSON bodies and portal error bodies.
package response

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/confportal/conf-portal-api/pkg/errs"
	"github.com/confportal/conf-portal-api/pkg/server/store"
	"github.com/confportal/conf-portal-api/pkg/sqlerr"
)

func JSON(w http.ResponseWriter, code int, payload interface{}) {
	body, err := json.Marshal(payload)
	if err != nil {
		code = http.StatusInternalServerError
		body, _ = json.Marshal(errs.NewInternalServerError())
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_, _ = w.Write(body)
}

func NoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}

// Convert turns any error into an *errs.HTTPError. Store misses become 404
// and database errors are mapped by sqlerr.
func Convert(err error) *errs.HTTPError {
	if httpErr, ok := errs.As(err); ok {
		return httpErr
	}
	if errors.Is(err, store.ErrNotFound) {
		return errs.NewNotFoundError("Resource not found", false, nil).WithDebug(err.Error())
	}
	if httpErr, ok := errs.As(sqlerr.HandleError(err)); ok {
		return httpErr
	}
	return errs.NewInternalServerError().WithDebug(err.Error())
}

// Error writes err as the portal error body. The debug detail is dropped
// unless debug is set. 5xx responses are logged.
func Error(w http.ResponseWriter, r *http.Request, err error, debug bool, logger *zerolog.Logger) {
	httpErr := Convert(err)
	if httpErr.Status >= http.StatusInternalServerError && logger != nil {
		logger.Error().Err(err).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Msg("Request failed")
	}
	if !debug && httpErr.DebugDetail != "" {
		httpErr = httpErr.WithDebug("")
	}
	JSON(w, httpErr.Status, httpErr)
}
