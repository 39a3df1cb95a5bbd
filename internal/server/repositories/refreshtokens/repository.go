// Package refreshtokens stores the opaque refresh tokens of the
// access/refresh token pair.
package refreshtokens

import (
	"context"
	"time"

	"github.com/dmitrijs2005/pagewatch/internal/server/models"
)

type Repository interface {
	// Create stores token for userID, expiring at now+validity.
	Create(ctx context.Context, userID string, token string, validity time.Duration) error
	// Find returns common.ErrorNotFound when the token is unknown.
	Find(ctx context.Context, token string) (*models.RefreshToken, error)
	// Delete removes a token. Unknown tokens are not an error.
	Delete(ctx context.Context, token string) error
	// DeleteExpired drops userID's tokens that expired before now.
	DeleteExpired(ctx context.Context, userID string, now time.Time) (int64, error)
}
