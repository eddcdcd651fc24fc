package database

import (
	"context"
	"fmt"

	"github.com/forgo/lending/api/migrations"
)

// Migrate applies the embedded SurrealQL migrations. Every statement is
// idempotent so Migrate runs on each start.
func Migrate(ctx context.Context, db Database) error {
	migs, err := migrations.SurrealQL()
	if err != nil {
		return fmt.Errorf("load migrations: %w", err)
	}
	for i, mig := range migs {
		if err := db.Execute(ctx, mig, nil); err != nil {
			return fmt.Errorf("migration %d: %w", i+1, err)
		}
	}
	return nil
}

// MigratePostgres applies the embedded PostgreSQL migrations
func MigratePostgres(ctx context.Context, p *Postgres) error {
	if p.pool == nil {
		return ErrConnection
	}
	migs, err := migrations.Postgres()
	if err != nil {
		return fmt.Errorf("load migrations: %w", err)
	}
	for i, mig := range migs {
		if _, err := p.pool.Exec(ctx, mig); err != nil {
			return fmt.Errorf("migration %d: %w", i+1, TranslateError(err))
		}
	}
	return nil
}
