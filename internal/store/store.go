package store

import (
	"context"
	"fmt"

	"github.com/amishk599/expawatch/internal/model"
)

var (
	_ model.RecordStore = (*SQLiteStore)(nil)
	_ model.RecordStore = (*PostgresStore)(nil)
	_ model.RecordStore = (*RedisStore)(nil)
	_ model.RecordStore = (*NopStore)(nil)
)

// Options selects and configures a backend.
type Options struct {
	Driver string // "sqlite", "postgres" or "redis"
	Path   string // sqlite
	DSN    string // postgres
	Redis  RedisOptions
}

// Open returns the configured RecordStore.
func Open(ctx context.Context, opts Options) (model.RecordStore, error) {
	switch opts.Driver {
	case "", "sqlite":
		return NewSQLiteStore(opts.Path)
	case "postgres":
		return NewPostgresStore(ctx, opts.DSN)
	case "redis":
		return NewRedisStore(ctx, opts.Redis)
	default:
		return nil, fmt.Errorf("unsupported store driver %q", opts.Driver)
	}
}
