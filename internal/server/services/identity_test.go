package services

import (
	"context"
	"testing"
	"time"

	"github.com/dmitrijs2005/pagewatch/internal/common"
	"github.com/dmitrijs2005/pagewatch/internal/server/auth"
	"github.com/dmitrijs2005/pagewatch/internal/server/config"
	srvmodels "github.com/dmitrijs2005/pagewatch/internal/server/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newIdentityService(t *testing.T) (*IdentityService, *memStore) {
	t.Helper()
	cfg := &config.Config{}
	cfg.LoadDefaults()
	store := newMemStore()
	return NewIdentityService(txDB(t, 20), store, cfg), store
}

func TestIdentityService_SignInAnonymous(t *testing.T) {
	svc, store := newIdentityService(t)

	id, err := svc.SignInAnonymous(context.Background())
	require.NoError(t, err)
	assert.True(t, id.Anonymous)
	assert.NotEmpty(t, id.RefreshToken)
	assert.Contains(t, store.tokens, id.RefreshToken)

	uid, err := svc.UserIDFromAccessToken(id.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, id.UserID, uid)
}

func TestIdentityService_SignInWithToken(t *testing.T) {
	svc, _ := newIdentityService(t)
	ctx := context.Background()

	tok, err := auth.MintCustomToken("ext-1", svc.customTokenSecret, time.Minute)
	require.NoError(t, err)

	first, err := svc.SignInWithToken(ctx, tok)
	require.NoError(t, err)
	assert.False(t, first.Anonymous)

	again, err := svc.SignInWithToken(ctx, tok)
	require.NoError(t, err)
	assert.Equal(t, first.UserID, again.UserID, "same external id maps to the same user")

	_, err = svc.SignInWithToken(ctx, "garbage")
	assert.ErrorIs(t, err, common.ErrInvalidToken)
}

func TestIdentityService_RefreshRotates(t *testing.T) {
	svc, store := newIdentityService(t)
	ctx := context.Background()

	id, err := svc.SignInAnonymous(ctx)
	require.NoError(t, err)

	next, err := svc.RefreshToken(ctx, id.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, id.UserID, next.UserID)
	assert.True(t, next.Anonymous)
	assert.NotEqual(t, id.RefreshToken, next.RefreshToken)
	assert.NotContains(t, store.tokens, id.RefreshToken, "old token is consumed")

	_, err = svc.RefreshToken(ctx, id.RefreshToken)
	assert.ErrorIs(t, err, common.ErrorUnauthorized)
}

func TestIdentityService_RefreshExpired(t *testing.T) {
	svc, store := newIdentityService(t)
	store.tokens["old"] = srvmodels.RefreshToken{UserID: "u1", Token: "old", ExpiresAt: time.Now().Add(-time.Minute)}

	_, err := svc.RefreshToken(context.Background(), "old")
	assert.ErrorIs(t, err, common.ErrRefreshTokenExpired)
}
