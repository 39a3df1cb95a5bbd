// Package snapshots keeps the last monitor list seen for each owner so the
// client can still render it while the server is unreachable.
package snapshots

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/pagewatch/internal/common"
	"github.com/dmitrijs2005/pagewatch/internal/dbx"
	"github.com/dmitrijs2005/pagewatch/internal/models"
)

// Snapshot is a cached collection read.
type Snapshot struct {
	Owner    string
	Monitors []models.Monitor
	ReadAt   time.Time
}

type Repository interface {
	Save(ctx context.Context, s Snapshot) error
	// Load returns common.ErrorNotFound when nothing is cached for owner.
	Load(ctx context.Context, owner string) (*Snapshot, error)
	Delete(ctx context.Context, owner string) error
}

type SQLiteRepository struct {
	db dbx.DBTX
}

func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) Save(ctx context.Context, s Snapshot) error {
	payload, err := json.Marshal(s.Monitors)
	if err != nil {
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO snapshots (owner, monitors, read_at) VALUES (?, ?, ?)
		ON CONFLICT(owner) DO UPDATE SET monitors = excluded.monitors, read_at = excluded.read_at
	`, s.Owner, string(payload), s.ReadAt.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("failed to save snapshot[%s]: %w", s.Owner, err)
	}
	return nil
}

func (r *SQLiteRepository) Load(ctx context.Context, owner string) (*Snapshot, error) {
	var payload, readAt string
	err := r.db.QueryRowContext(ctx, `SELECT monitors, read_at FROM snapshots WHERE owner = ?`, owner).Scan(&payload, &readAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrorNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load snapshot[%s]: %w", owner, err)
	}

	s := &Snapshot{Owner: owner}
	if err := json.Unmarshal([]byte(payload), &s.Monitors); err != nil {
		return nil, fmt.Errorf("failed to decode snapshot[%s]: %w", owner, err)
	}
	if s.ReadAt, err = time.Parse(time.RFC3339Nano, readAt); err != nil {
		return nil, fmt.Errorf("failed to decode snapshot[%s] time: %w", owner, err)
	}
	return s, nil
}

func (r *SQLiteRepository) Delete(ctx context.Context, owner string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM snapshots WHERE owner = ?`, owner); err != nil {
		return fmt.Errorf("failed to delete snapshot[%s]: %w", owner, err)
	}
	return nil
}
