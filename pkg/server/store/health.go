package store

import "context"

// HealthStore abstracts health check operations
type HealthStore interface {
	// CheckConnectivity verifies database connectivity
	CheckConnectivity(ctx context.Context) error
}

// Pinger checks a dependency other than the database, such as Redis.
type Pinger interface {
	Ping(ctx context.Context) error
}
