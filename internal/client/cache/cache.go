// Package cache is the client's local SQLite store: the last snapshot per
// owner and a little session metadata.
package cache

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"

	"github.com/dmitrijs2005/pagewatch/internal/client/migrations"
	"github.com/dmitrijs2005/pagewatch/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/pagewatch/internal/client/repositories/snapshots"
	"github.com/dmitrijs2005/pagewatch/internal/filex"
	"github.com/pressly/goose/v3"

	_ "modernc.org/sqlite"
)

const FileName = "cache.db"

type Cache struct {
	db        *sql.DB
	Metadata  metadata.Repository
	Snapshots snapshots.Repository
}

func RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)
	goose.SetLogger(goose.NopLogger())

	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("failed to set goose dialect: %w", err)
	}

	return goose.UpContext(ctx, db, ".")
}

// Open creates dir if needed and opens (and migrates) the cache inside it.
func Open(ctx context.Context, dir string) (*Cache, error) {
	dir, err := filex.EnsureDir(dir)
	if err != nil {
		return nil, err
	}
	return OpenDSN(ctx, filepath.Join(dir, FileName))
}

// OpenDSN opens a cache at an explicit sqlite DSN such as ":memory:".
func OpenDSN(ctx context.Context, dsn string) (*Cache, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	// one connection keeps ":memory:" databases alive across calls
	db.SetMaxOpenConns(1)

	if err := RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Cache{
		db:        db,
		Metadata:  metadata.NewSQLiteRepository(db),
		Snapshots: snapshots.NewSQLiteRepository(db),
	}, nil
}

func (c *Cache) Close() error {
	return c.db.Close()
}
