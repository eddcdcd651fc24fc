package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// uniqueViolation is the PostgreSQL SQLSTATE for unique_violation
const uniqueViolation = "23505"

// Postgres wraps a pgx connection pool
type Postgres struct {
	pool   *pgxpool.Pool
	config PostgresConfig
}

// NewPostgres creates a new PostgreSQL backend
func NewPostgres(cfg PostgresConfig) *Postgres {
	return &Postgres{config: cfg}
}

// Connect opens the pool and verifies it with a ping
func (p *Postgres) Connect(ctx context.Context) error {
	poolConfig, err := pgxpool.ParseConfig(p.config.URL)
	if err != nil {
		return fmt.Errorf("%w: parse config: %v", ErrConnection, err)
	}
	if p.config.MaxConns > 0 {
		poolConfig.MaxConns = p.config.MaxConns
	}
	if p.config.MinConns > 0 {
		poolConfig.MinConns = p.config.MinConns
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrConnection, err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return fmt.Errorf("%w: ping failed: %v", ErrConnection, err)
	}

	p.pool = pool
	return nil
}

// Close closes the pool
func (p *Postgres) Close() error {
	if p.pool != nil {
		p.pool.Close()
	}
	return nil
}

// Ping checks the database connection
func (p *Postgres) Ping(ctx context.Context) error {
	if p.pool == nil {
		return ErrConnection
	}
	if err := p.pool.Ping(ctx); err != nil {
		return fmt.Errorf("%w: %v", ErrConnection, err)
	}
	return nil
}

// Pool returns the underlying pool for repositories
func (p *Postgres) Pool() *pgxpool.Pool {
	return p.pool
}

// TranslateError maps driver errors to the package's standard errors
func TranslateError(err error) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return fmt.Errorf("%w: %s", ErrDuplicate, pgErr.ConstraintName)
	}
	return fmt.Errorf("%w: %v", ErrQuery, err)
}
