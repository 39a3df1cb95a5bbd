package client

import (
	"context"
	"time"

	"github.com/dmitrijs2005/pagewatch/internal/models"
	"github.com/dmitrijs2005/pagewatch/internal/rpc"
)

// SnapshotStream yields full collection snapshots.
type SnapshotStream interface {
	Recv() (*rpc.Snapshot, error)
}

// ExportLink is a temporary download link for an export.
type ExportLink struct {
	Key       string
	URL       string
	ExpiresAt time.Time
}

type Client interface {
	Close() error
	Ping(ctx context.Context) error

	SignInAnonymous(ctx context.Context) (*models.Identity, error)
	SignInWithToken(ctx context.Context, token string) (*models.Identity, error)
	Resume(ctx context.Context, refreshToken string) (*models.Identity, error)
	SetTokens(accessToken, refreshToken string)
	OnTokensRefreshed(fn func(accessToken, refreshToken string))

	CreateRecord(ctx context.Context, collectionPath string, fields models.Fields, status models.Status, lastValue *string) (string, error)
	UpdateRecord(ctx context.Context, docPath string, patch models.Patch) error
	DeleteRecord(ctx context.Context, docPath string) error
	Subscribe(ctx context.Context, collectionPath, orderHint string) (SnapshotStream, error)
	History(ctx context.Context, docPath string, limit int) ([]models.HistoryEntry, error)
	Export(ctx context.Context, collectionPath string) (*ExportLink, error)
}
