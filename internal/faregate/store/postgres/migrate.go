// Package postgres implements the faregate stores on PostgreSQL via pgx,
// for deployments where the embedded SQLite database is not enough.
// Migrations are embedded and applied with goose at startup.
package postgres

import (
	"database/sql"
	"embed"
	"fmt"

	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Migrate brings the schema up to date. It takes a *sql.DB (use the pgx
// stdlib driver) because goose speaks database/sql, while the stores
// themselves run on a pgxpool.
func Migrate(db *sql.DB) error {
	goose.SetBaseFS(migrationsFS)
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("postgres.Migrate: set dialect: %w", err)
	}
	if err := goose.Up(db, "migrations"); err != nil {
		return fmt.Errorf("postgres.Migrate: up: %w", err)
	}
	return nil
}
