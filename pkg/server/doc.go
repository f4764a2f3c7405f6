// Package server provides the HTTP server for the conference portal API.
//
// It uses gorilla/mux for routing and gorilla/handlers for the access log,
// CORS and panic recovery, and holds every store and service the endpoints
// need.
//
// # Server Setup
//
//	srv := server.NewServer(cfg, db, rdb, blacklistRedis, logger)
//	srv.Queue = jobService.Queue()
//	srv.Storage = s3
//	endpoints.RegisterAll(srv)
//	if err := srv.Start(); err != nil {
//	    log.Fatal(err)
//	}
//
// # Components
//
//   - Router and API: the root router and its /api/v1 subrouter
//   - the gorm stores under store/gorm
//   - Tokens, Refresh and Blacklist: access and refresh token handling
//   - Auth and Perms: bearer token and RBAC middleware
//   - Queue and Storage: asynq and S3, optional
//
// # Endpoints
//
// API endpoints are registered via the endpoints subpackage:
//
//   - /healthz
//   - /api/v1/auth, /account, /conference, /event_info, /faq, /feedback,
//     /testimony, /fcm_device and /notification for the app
//   - /api/v1/admin/... for the admin console
package server
