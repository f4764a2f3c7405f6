// Package config provides configuration management for the portal.
//
// Values are layered: built-in defaults, then the YAML file at
// $PORTAL_CONFIG_PATH/portal.yml (default /etc/conf-portal/portal.yml), then
// environment variables. A .env file in the working directory is loaded into
// the environment before anything else is read.
//
// Every attribute remembers its source, which `portalctl config show` prints.
//
// # Key Configuration Options
//
//   - APP_NAME: Prefix for Redis keys and JWT audiences
//   - ENV: dev, stg or prod
//   - DATABASE_URL: Postgres connection string
//   - REDIS_URL: Redis connection string
//   - JWT_SECRET_KEY: HS256 signing key for access tokens
//   - PORTAL_LOG_LEVEL: Logging verbosity
package config
