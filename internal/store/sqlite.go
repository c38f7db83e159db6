package store

import (
	"context"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// SQLiteStore persists records in a local SQLite database.
type SQLiteStore struct {
	*sqlStore
}

// NewSQLiteStore opens (or creates) a SQLite database at dbPath and ensures the
// per-kind tables exist.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath+"?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, fmt.Errorf("opening sqlite db: %w", err)
	}
	// One connection serialises writers from the concurrent kind pollers.
	db.SetMaxOpenConns(1)

	ctx := context.Background()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging sqlite db: %w", err)
	}

	s := newSQLStore(db, sqliteDialect)
	if err := s.migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return &SQLiteStore{sqlStore: s}, nil
}
