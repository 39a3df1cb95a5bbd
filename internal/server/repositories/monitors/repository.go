// Package monitors persists monitor documents, one collection per owner.
package monitors

import (
	"context"
	"time"

	"github.com/dmitrijs2005/pagewatch/internal/models"
)

// NewMonitor is the initial state of a document being created.
type NewMonitor struct {
	Fields    models.Fields
	Status    models.Status
	LastValue *string
	Now       time.Time
}

type Repository interface {
	Create(ctx context.Context, owner string, m NewMonitor) (*models.Monitor, error)
	// Update applies patch to owner's document id. lastChecked sentinels
	// resolve to now, and updated_at moves to max(now, previous+1µs) so it
	// strictly advances. Unknown documents yield common.ErrorNotFound.
	Update(ctx context.Context, owner, id string, patch models.Patch, now time.Time) (*models.Monitor, error)
	// Get returns common.ErrorNotFound for unknown documents.
	Get(ctx context.Context, owner, id string) (*models.Monitor, error)
	// Delete reports whether a document was removed.
	Delete(ctx context.Context, owner, id string) (bool, error)
	// List returns owner's documents, newest first.
	List(ctx context.Context, owner string) ([]models.Monitor, error)
}
