package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"
)

// PostgresStore persists records in PostgreSQL. The pool is shared by the
// concurrent kind pollers.
type PostgresStore struct {
	*sqlStore
}

// NewPostgresStore connects to dsn and ensures the per-kind tables exist.
func NewPostgresStore(ctx context.Context, dsn string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening postgres: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(5 * time.Minute)
	db.SetConnMaxIdleTime(5 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging postgres: %w", err)
	}

	s := newSQLStore(db, postgresDialect)
	if err := s.migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return &PostgresStore{sqlStore: s}, nil
}
