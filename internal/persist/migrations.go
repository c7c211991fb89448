package persist

import (
	"context"
	"embed"
	"fmt"

	"github.com/pressly/goose/v3"
	"go.uber.org/zap"
)

//go:embed migrations/*/*.sql
var migrations embed.FS

// RunMigrations applies all pending migrations for the driver of db. Each
// backend keeps its own directory since the column types differ.
func RunMigrations(ctx context.Context, db *DB) error {
	goose.SetLogger(goose.NopLogger())
	goose.SetBaseFS(migrations)

	dialect := "sqlite3"
	if db.driver == DriverPostgres {
		dialect = "postgres"
	}
	if err := goose.SetDialect(dialect); err != nil {
		return fmt.Errorf("set dialect: %w", err)
	}
	if err := goose.UpContext(ctx, db.SQL, "migrations/"+db.driver); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}
	db.log.Debug("migrations applied", zap.String("driver", db.driver))
	return nil
}
