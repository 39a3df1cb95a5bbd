package history

import (
	"context"
	"fmt"
	"time"

	"github.com/dmitrijs2005/pagewatch/internal/dbx"
	"github.com/dmitrijs2005/pagewatch/internal/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Append(ctx context.Context, monitorID, value string, status models.Status, observedAt time.Time) error {
	query := `
		INSERT INTO monitor_history (monitor_id, value, status, observed_at)
		VALUES ($1, $2, $3, $4)
	`
	if _, err := r.db.ExecContext(ctx, query, monitorID, value, string(status), observedAt); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) Prune(ctx context.Context, monitorID string, keep int) (int64, error) {
	query := `
		DELETE FROM monitor_history
		WHERE monitor_id = $1 AND id NOT IN (
			SELECT id FROM monitor_history
			WHERE monitor_id = $1
			ORDER BY observed_at DESC, id DESC
			LIMIT $2
		)
	`
	res, err := r.db.ExecContext(ctx, query, monitorID, keep)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return n, nil
}

func (r *PostgresRepository) List(ctx context.Context, monitorID string, limit int) ([]models.HistoryEntry, error) {
	query := `
		SELECT value, status, observed_at
		FROM monitor_history
		WHERE monitor_id = $1
		ORDER BY observed_at DESC, id DESC
		LIMIT $2
	`
	rows, err := r.db.QueryContext(ctx, query, monitorID, limit)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	out := make([]models.HistoryEntry, 0, limit)
	for rows.Next() {
		e := models.HistoryEntry{MonitorID: monitorID}
		var status string
		if err := rows.Scan(&e.Value, &status, &e.ObservedAt); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		e.Status = models.Status(status)
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return out, nil
}
