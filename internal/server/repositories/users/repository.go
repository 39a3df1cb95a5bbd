// Package users stores server identities.
package users

import (
	"context"

	"github.com/dmitrijs2005/pagewatch/internal/server/models"
)

type Repository interface {
	// CreateAnonymous inserts a fresh anonymous user.
	CreateAnonymous(ctx context.Context) (*models.User, error)
	// UpsertExternal returns the user bound to externalID, creating it on
	// first sign-in.
	UpsertExternal(ctx context.Context, externalID string) (*models.User, error)
	// GetByID returns common.ErrorNotFound for unknown ids.
	GetByID(ctx context.Context, id string) (*models.User, error)
}
