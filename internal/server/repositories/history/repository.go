// Package history keeps a bounded trail of observed values per monitor.
package history

import (
	"context"
	"time"

	"github.com/dmitrijs2005/pagewatch/internal/models"
)

type Repository interface {
	Append(ctx context.Context, monitorID, value string, status models.Status, observedAt time.Time) error
	// Prune keeps only the newest keep entries of monitorID.
	Prune(ctx context.Context, monitorID string, keep int) (int64, error)
	// List returns up to limit entries, newest first.
	List(ctx context.Context, monitorID string, limit int) ([]models.HistoryEntry, error)
}
