package rpc

import (
	"time"

	"github.com/dmitrijs2005/pagewatch/internal/models"
)

type Empty struct{}

type PingRequest struct{}

type PingResponse struct {
	Status string `json:"status"`
}

type SignInAnonymousRequest struct{}

type SignInWithTokenRequest struct {
	Token string `json:"token"`
}

type RefreshTokenRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type IdentityResponse struct {
	UserID       string `json:"userId"`
	Anonymous    bool   `json:"anonymous"`
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// CreateRecordRequest creates a monitor document. The store always stamps
// createdAt and updatedAt with server time.
type CreateRecordRequest struct {
	CollectionPath string        `json:"collectionPath"`
	Fields         models.Fields `json:"fields"`
	Status         models.Status `json:"status"`
	LastValue      *string       `json:"lastValue,omitempty"`
}

type CreateRecordResponse struct {
	ID string `json:"id"`
}

type UpdateRecordRequest struct {
	DocPath string       `json:"docPath"`
	Patch   models.Patch `json:"patch"`
}

type DeleteRecordRequest struct {
	DocPath string `json:"docPath"`
}

type SubscribeRequest struct {
	CollectionPath string `json:"collectionPath"`
	OrderHint      string `json:"orderHint,omitempty"`
}

// Snapshot is the full monitor list of a collection at ReadAt.
type Snapshot struct {
	Monitors []models.Monitor `json:"monitors"`
	ReadAt   time.Time        `json:"readAt"`
}

type HistoryRequest struct {
	DocPath string `json:"docPath"`
	Limit   int    `json:"limit"`
}

type HistoryResponse struct {
	Entries []models.HistoryEntry `json:"entries"`
}

type ExportRequest struct {
	CollectionPath string `json:"collectionPath"`
}

type ExportResponse struct {
	Key       string    `json:"key"`
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expiresAt"`
}
