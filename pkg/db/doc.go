// Package db opens the portal's Postgres pool through gorm.
//
//	database, err := db.Connect(db.Config{
//	    URL:      cfg.DatabaseURL,
//	    LogLevel: cfg.LogLevel,
//	    Logger:   &log,
//	})
//
// SQL statements are logged only when PORTAL_LOG_LEVEL is debug or trace.
// With a Logger set, gorm's lines go through zerolog tagged
// component=gorm, and queries slower than SlowThreshold are logged at warn.
//
// Schema changes are not made here. Migrations live in db/migrations and
// are applied by portalctl.
package db
