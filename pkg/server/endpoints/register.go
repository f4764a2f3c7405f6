package endpoints

import (
	"github.com/confportal/conf-portal-api/pkg/server"
	"github.com/confportal/conf-portal-api/pkg/token"
)

// RegisterAll registers every route on the server. Queue and Storage must be
// set on srv beforehand since handlers capture them here.
func RegisterAll(srv *server.Server) {
	RegisterHealthEndpoints(srv)

	// App
	RegisterAppAuthEndpoints(srv)
	RegisterAccountEndpoints(srv)
	RegisterPublicEndpoints(srv)
	RegisterDeviceEndpoints(srv)

	// /admin/auth has its own public routes, so it is registered before the
	// authenticated /admin subrouter.
	RegisterAdminAuthEndpoints(srv)

	admin := srv.API.PathPrefix("/admin").Subrouter()
	admin.Use(srv.Auth.Require(token.KindAdmin))
	RegisterRBACEndpoints(srv, admin)
	RegisterContentEndpoints(srv, admin)
	RegisterNotificationEndpoints(srv, admin)
	RegisterFileEndpoints(srv, admin)
	RegisterLogEndpoints(srv, admin)
}
