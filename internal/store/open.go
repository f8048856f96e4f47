package store

import (
	"context"
	"fmt"

	"classattend/internal/attendance"
)

// Open connects the named backend ("postgres", "sqlite" or "memory") and
// migrates its schema. dsn is a connection string for postgres and a file
// path for sqlite. The returned func releases the connection.
func Open(ctx context.Context, backend, dsn string) (attendance.Store, func() error, error) {
	var (
		db   *DB
		repo *Repository
		err  error
	)
	switch backend {
	case "memory":
		return NewMemory(), func() error { return nil }, nil
	case "postgres":
		db, err = NewDB(ctx, dsn)
		if err == nil {
			repo = NewPostgres(db.Client)
		}
	case "sqlite":
		db, err = NewSQLiteDB(ctx, dsn)
		if err == nil {
			repo = NewSQLite(db.Client)
		}
	default:
		return nil, nil, fmt.Errorf("unknown store backend %q", backend)
	}
	if err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("connect %s: %w", backend, err)
	}
	if err := repo.Migrate(ctx); err != nil {
		_ = db.Close()
		return nil, nil, err
	}
	return repo, db.Close, nil
}
