package metadata

import (
	"context"
)

// Repository is a small string key/value store for client state that
// must survive restarts, such as the last signed-in owner.
type Repository interface {
	// Get returns ("", false, nil) when key is absent.
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
	Clear(ctx context.Context) error
}
