//go:build !embed_migrations

package main

import (
	"fmt"
	"os"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/source/file"
)

const defaultMigrationsPath = "db/migrations"

func migrationsPath() string {
	if p := os.Getenv("PORTAL_MIGRATIONS_PATH"); p != "" {
		return p
	}
	return defaultMigrationsPath
}

func createMigrateInstance(dbURL string) (*migrate.Migrate, error) {
	path := migrationsPath()
	fmt.Printf("Running migrations from file://%s\n", path)
	return migrate.New("file://"+path, dbURL)
}
