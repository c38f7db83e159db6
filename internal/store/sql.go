package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/amishk599/expawatch/internal/model"
)

// timeLayout is fixed-width so stored timestamps sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// dialect captures the differences between the SQL backends.
type dialect struct {
	name        string
	placeholder func(n int) string
}

var (
	sqliteDialect   = dialect{name: "sqlite", placeholder: func(int) string { return "?" }}
	postgresDialect = dialect{name: "postgres", placeholder: func(n int) string { return fmt.Sprintf("$%d", n) }}
)

// sqlStore is the RecordStore shared by the SQLite and PostgreSQL backends.
// Each kind lives in its own table with id as primary key.
type sqlStore struct {
	db      *sql.DB
	dialect dialect
	now     func() time.Time
}

func newSQLStore(db *sql.DB, d dialect) *sqlStore {
	return &sqlStore{db: db, dialect: d, now: time.Now}
}

func (s *sqlStore) migrate(ctx context.Context) error {
	for _, kind := range model.Kinds {
		stmt := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
		id         TEXT PRIMARY KEY,
		created_at TEXT NOT NULL,
		fetched_at TEXT NOT NULL,
		payload    TEXT NOT NULL
	)`, kind.Collection())
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("creating %s table: %w", kind.Collection(), err)
		}
	}
	return nil
}

func table(kind model.Kind) (string, error) {
	name := kind.Collection()
	if name == "" {
		return "", fmt.Errorf("unknown kind %q", kind)
	}
	return name, nil
}

// InsertIfAbsent writes rec unless a row with the same id already exists.
func (s *sqlStore) InsertIfAbsent(ctx context.Context, rec model.Record) (model.InsertResult, error) {
	tbl, err := table(rec.Kind)
	if err != nil {
		return model.StoreFailed, fmt.Errorf("%w: %v", model.ErrStoreFailed, err)
	}
	payload, err := json.Marshal(rec)
	if err != nil {
		return model.StoreFailed, fmt.Errorf("%w: encoding %s %s: %v", model.ErrStoreFailed, rec.Kind, rec.ID, err)
	}

	p := s.dialect.placeholder
	stmt := fmt.Sprintf(
		"INSERT INTO %s (id, created_at, fetched_at, payload) VALUES (%s, %s, %s, %s) ON CONFLICT (id) DO NOTHING",
		tbl, p(1), p(2), p(3), p(4),
	)
	res, err := s.db.ExecContext(ctx, stmt,
		rec.ID,
		rec.CreatedAt.UTC().Format(timeLayout),
		s.now().UTC().Format(timeLayout),
		string(payload),
	)
	if err != nil {
		return model.StoreFailed, fmt.Errorf("%w: inserting %s %s: %w", model.ErrStoreFailed, rec.Kind, rec.ID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return model.StoreFailed, fmt.Errorf("%w: inserting %s %s: %w", model.ErrStoreFailed, rec.Kind, rec.ID, err)
	}
	if n == 0 {
		return model.Duplicate, nil
	}
	return model.Inserted, nil
}

// Get returns the stored record, or model.ErrRecordNotFound.
func (s *sqlStore) Get(ctx context.Context, kind model.Kind, id string) (model.StoredRecord, error) {
	tbl, err := table(kind)
	if err != nil {
		return model.StoredRecord{}, err
	}
	stmt := fmt.Sprintf("SELECT fetched_at, payload FROM %s WHERE id = %s", tbl, s.dialect.placeholder(1))
	var fetchedAt, payload string
	err = s.db.QueryRowContext(ctx, stmt, id).Scan(&fetchedAt, &payload)
	if errors.Is(err, sql.ErrNoRows) {
		return model.StoredRecord{}, fmt.Errorf("%s %s: %w", kind, id, model.ErrRecordNotFound)
	}
	if err != nil {
		return model.StoredRecord{}, fmt.Errorf("reading %s %s: %w", kind, id, err)
	}
	return decodeRow(fetchedAt, payload)
}

// List returns up to limit records of kind, most recently fetched first.
// A limit of zero or less returns every record.
func (s *sqlStore) List(ctx context.Context, kind model.Kind, limit int) ([]model.StoredRecord, error) {
	tbl, err := table(kind)
	if err != nil {
		return nil, err
	}
	stmt := fmt.Sprintf("SELECT fetched_at, payload FROM %s ORDER BY fetched_at DESC, id", tbl)
	var args []any
	if limit > 0 {
		stmt += " LIMIT " + s.dialect.placeholder(1)
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("listing %s: %w", tbl, err)
	}
	defer rows.Close()

	var out []model.StoredRecord
	for rows.Next() {
		var fetchedAt, payload string
		if err := rows.Scan(&fetchedAt, &payload); err != nil {
			return nil, fmt.Errorf("listing %s: %w", tbl, err)
		}
		rec, err := decodeRow(fetchedAt, payload)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("listing %s: %w", tbl, err)
	}
	return out, nil
}

// Close closes the underlying database connection.
func (s *sqlStore) Close() error {
	return s.db.Close()
}

func decodeRow(fetchedAt, payload string) (model.StoredRecord, error) {
	var rec model.Record
	if err := json.Unmarshal([]byte(payload), &rec); err != nil {
		return model.StoredRecord{}, fmt.Errorf("decoding stored record: %w", err)
	}
	ts, err := time.Parse(timeLayout, fetchedAt)
	if err != nil {
		return model.StoredRecord{}, fmt.Errorf("decoding fetched_at %q: %w", fetchedAt, err)
	}
	return model.StoredRecord{Record: rec, FetchedAt: ts}, nil
}
