// Command portalctl runs the conference portal.
//
// # Quick Start
//
//	# Apply the schema
//	portalctl db migrate
//
//	# Create resources, verbs and permissions for the admin console
//	portalctl rbac seed
//
//	# Create the first console account
//	portalctl superuser create
//
//	# Start the API and the job worker
//	portalctl server
//
// # Environment Variables
//
//   - DATABASE_URL: PostgreSQL connection string
//   - REDIS_URL: Redis connection string shared by the cache, the token
//     blacklist and the job queue
//   - JWT_SECRET_KEY: HMAC key for access tokens
//   - PORTAL_CONFIG_PATH: directory holding portal.yml
//   - PORTAL_LOG_LEVEL: trace, debug, info, warn or error
//   - PORT: server port (default: 8000)
//
// Run "portalctl config show" for the full list and where each value came from.
package main
