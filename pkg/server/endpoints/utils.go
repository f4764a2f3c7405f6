package endpoints

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"github.com/confportal/conf-portal-api/pkg/audit"
	"github.com/confportal/conf-portal-api/pkg/errs"
	"github.com/confportal/conf-portal-api/pkg/identity"
	"github.com/confportal/conf-portal-api/pkg/rbac"
	"github.com/confportal/conf-portal-api/pkg/server"
	"github.com/confportal/conf-portal-api/pkg/server/middleware"
	"github.com/confportal/conf-portal-api/pkg/server/response"
	"github.com/confportal/conf-portal-api/pkg/server/store"
)

// idPattern keeps literal segments like /pages from matching {id}.
const idPattern = "{id:[0-9a-fA-F-]{36}}"

var validate = validator.New(validator.WithRequiredStructEnabled())

// responder writes error bodies the same way for every handler.
type responder struct {
	debug  bool
	logger *zerolog.Logger
}

func newResponder(s *server.Server) responder {
	return responder{debug: s.Config.Debug, logger: &s.Logger}
}

func (rs responder) error(w http.ResponseWriter, r *http.Request, err error) {
	response.Error(w, r, err, rs.debug, rs.logger)
}

func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response.JSON(w, code, payload)
}

type idResponse struct {
	ID uuid.UUID `json:"id"`
}

// decodeJSON reads and validates a request body. An empty body decodes to
// the zero value so validation reports the missing fields.
func decodeJSON(r *http.Request, dst any) error {
	if r.Body != nil {
		err := json.NewDecoder(r.Body).Decode(dst)
		if err != nil && !errors.Is(err, io.EOF) {
			return errs.NewBadRequestError("Invalid request body", false, nil, nil, nil).WithDebug(err.Error())
		}
	}
	if err := validate.Struct(dst); err != nil {
		return errs.ValidationError(err)
	}
	return nil
}

func pathUUID(r *http.Request, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(mux.Vars(r)[name])
	if err != nil {
		return uuid.Nil, errs.NewBadRequestError("Invalid "+name, false, nil,
			[]errs.FieldError{{Field: name, Error: "must be a UUID"}}, nil)
	}
	return id, nil
}

func queryInt(r *http.Request, name string, def int) (int, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, errs.NewBadRequestError("Invalid "+name, false, nil,
			[]errs.FieldError{{Field: name, Error: "must be an integer"}}, nil)
	}
	return n, nil
}

func queryBool(r *http.Request, name string) bool {
	switch strings.ToLower(r.URL.Query().Get(name)) {
	case "1", "true", "yes":
		return true
	}
	return false
}

// pageQuery parses page, page_size, order_by, descending, deleted and
// keyword. Filters are left to the caller.
func pageQuery(r *http.Request) (store.PageQuery, error) {
	page, err := queryInt(r, "page", 0)
	if err != nil {
		return store.PageQuery{}, err
	}
	size, err := queryInt(r, "page_size", store.DefaultPageSize)
	if err != nil {
		return store.PageQuery{}, err
	}
	q := store.PageQuery{
		Page:       page,
		PageSize:   size,
		OrderBy:    r.URL.Query().Get("order_by"),
		Descending: queryBool(r, "descending"),
		Deleted:    queryBool(r, "deleted"),
		Keyword:    strings.TrimSpace(r.URL.Query().Get("keyword")),
	}
	return q.Normalize(), nil
}

// withFilter adds an equality filter from a UUID query parameter.
func withFilter(q store.PageQuery, r *http.Request, param, column string) (store.PageQuery, error) {
	v := r.URL.Query().Get(param)
	if v == "" {
		return q, nil
	}
	id, err := uuid.Parse(v)
	if err != nil {
		return q, errs.NewBadRequestError("Invalid "+param, false, nil,
			[]errs.FieldError{{Field: param, Error: "must be a UUID"}}, nil)
	}
	if q.Filters == nil {
		q.Filters = map[string]any{}
	}
	q.Filters[column] = id
	return q, nil
}

// withIntFilter adds an equality filter from an integer query parameter.
func withIntFilter(q store.PageQuery, r *http.Request, param, column string) (store.PageQuery, error) {
	if r.URL.Query().Get(param) == "" {
		return q, nil
	}
	n, err := queryInt(r, param, 0)
	if err != nil {
		return q, err
	}
	if q.Filters == nil {
		q.Filters = map[string]any{}
	}
	q.Filters[column] = n
	return q, nil
}

func caller(r *http.Request) (*identity.Identity, error) {
	id, ok := identity.Get(r.Context())
	if !ok {
		return nil, errs.NewUnauthorizedError("Authentication required", false)
	}
	return id, nil
}

func actor(r *http.Request) audit.Actor {
	id, _ := identity.Get(r.Context())
	return audit.ActorFrom(id)
}

// clientOf describes the request origin when no identity is set yet.
func clientOf(r *http.Request) (ip, userAgent string) {
	if addr := identity.RemoteIP(r.Header.Get("X-Forwarded-For"), r.RemoteAddr); addr != nil {
		ip = addr.String()
	}
	return ip, r.UserAgent()
}

// guard wraps h with a permission check.
func guard(p *middleware.Permissions, code string, h http.HandlerFunc) http.Handler {
	return p.Require(rbac.Any(code))(h)
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func expiresIn(expiresAt, now time.Time) int {
	return int(expiresAt.Sub(now).Seconds())
}
