package endpoints

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/confportal/conf-portal-api/pkg/rbac"
	"github.com/confportal/conf-portal-api/pkg/server"
	"github.com/confportal/conf-portal-api/pkg/server/store"
)

// RegisterLogEndpoints registers /admin/log
func RegisterLogEndpoints(s *server.Server, admin *mux.Router) {
	admin.Handle("/log/pages", guard(s.Perms, rbac.Read(rbac.SystemLog), handleLogPages(newResponder(s), s.LogStore))).Methods("GET")
}

func handleLogPages(rs responder, logs store.LogStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q, err := pageQuery(r)
		if err != nil {
			rs.error(w, r, err)
			return
		}
		for _, f := range []string{"record_id", "created_by_id"} {
			if q, err = withFilter(q, r, f, f); err != nil {
				rs.error(w, r, err)
				return
			}
		}
		query := r.URL.Query()
		for _, f := range []string{"operation_type", "operation_code"} {
			if v := query.Get(f); v != "" {
				if q.Filters == nil {
					q.Filters = map[string]any{}
				}
				q.Filters[f] = v
			}
		}
		page, err := logs.Pages(r.Context(), q)
		if err != nil {
			rs.error(w, r, err)
			return
		}
		respondWithJSON(w, http.StatusOK, page)
	}
}
