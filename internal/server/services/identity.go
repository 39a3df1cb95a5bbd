// Package services holds the server business logic behind the gRPC
// handlers: identity, monitor documents and exports.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/pagewatch/internal/common"
	"github.com/dmitrijs2005/pagewatch/internal/dbx"
	"github.com/dmitrijs2005/pagewatch/internal/models"
	"github.com/dmitrijs2005/pagewatch/internal/server/auth"
	"github.com/dmitrijs2005/pagewatch/internal/server/config"
	"github.com/dmitrijs2005/pagewatch/internal/server/repositories/repomanager"
)

// IdentityService signs users in and rotates their token pairs.
type IdentityService struct {
	db                           *sql.DB
	repomanager                  repomanager.RepositoryManager
	jwtSecret                    []byte
	customTokenSecret            []byte
	accessTokenValidityDuration  time.Duration
	refreshTokenValidityDuration time.Duration
	now                          func() time.Time
}

func NewIdentityService(db *sql.DB, m repomanager.RepositoryManager, cfg *config.Config) *IdentityService {
	return &IdentityService{
		db:                           db,
		repomanager:                  m,
		jwtSecret:                    []byte(cfg.JWTSecret),
		customTokenSecret:            []byte(cfg.CustomTokenSecret),
		accessTokenValidityDuration:  cfg.AccessTokenValidityDuration,
		refreshTokenValidityDuration: cfg.RefreshTokenValidityDuration,
		now:                          time.Now,
	}
}

// SignInAnonymous creates a new anonymous user and returns its identity.
func (s *IdentityService) SignInAnonymous(ctx context.Context) (*models.Identity, error) {
	var id *models.Identity
	err := dbx.InTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		u, err := s.repomanager.Users(tx).CreateAnonymous(ctx)
		if err != nil {
			return fmt.Errorf("create anonymous user: %w", err)
		}
		id, err = s.issue(ctx, tx, u.ID, true)
		return err
	})
	if err != nil {
		return nil, err
	}
	return id, nil
}

// SignInWithToken accepts a custom token and signs in the external user it
// names, creating the user on first sight.
func (s *IdentityService) SignInWithToken(ctx context.Context, token string) (*models.Identity, error) {
	externalID, err := auth.ParseCustomToken(token, s.customTokenSecret)
	if err != nil {
		return nil, err
	}

	var id *models.Identity
	err = dbx.InTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		u, err := s.repomanager.Users(tx).UpsertExternal(ctx, externalID)
		if err != nil {
			return fmt.Errorf("upsert user: %w", err)
		}
		id, err = s.issue(ctx, tx, u.ID, u.Anonymous)
		return err
	})
	if err != nil {
		return nil, err
	}
	return id, nil
}

// RefreshToken validates a refresh token, rotates it transactionally and
// returns a fresh identity. Unknown tokens are ErrorUnauthorized, expired
// ones ErrRefreshTokenExpired.
func (s *IdentityService) RefreshToken(ctx context.Context, refreshToken string) (*models.Identity, error) {
	token, err := s.repomanager.RefreshTokens(s.db).Find(ctx, refreshToken)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorUnauthorized
		}
		return nil, fmt.Errorf("find refresh token: %w", err)
	}
	if token.ExpiresAt.Before(s.now()) {
		return nil, common.ErrRefreshTokenExpired
	}

	var id *models.Identity
	err = dbx.InTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.RefreshTokens(tx)
		if err := repo.Delete(ctx, refreshToken); err != nil {
			return fmt.Errorf("delete refresh token: %w", err)
		}
		if _, err := repo.DeleteExpired(ctx, token.UserID, s.now()); err != nil {
			return fmt.Errorf("purge expired tokens: %w", err)
		}
		u, err := s.repomanager.Users(tx).GetByID(ctx, token.UserID)
		if err != nil {
			return fmt.Errorf("load user: %w", err)
		}
		id, err = s.issue(ctx, tx, u.ID, u.Anonymous)
		return err
	})
	if err != nil {
		return nil, err
	}
	return id, nil
}

// UserIDFromAccessToken verifies an access token.
func (s *IdentityService) UserIDFromAccessToken(token string) (string, error) {
	return auth.GetUserIDFromToken(token, s.jwtSecret)
}

func (s *IdentityService) issue(ctx context.Context, tx dbx.DBTX, userID string, anonymous bool) (*models.Identity, error) {
	access, err := auth.GenerateToken(userID, anonymous, s.jwtSecret, s.accessTokenValidityDuration)
	if err != nil {
		return nil, fmt.Errorf("%w: sign access token: %v", common.ErrorInternal, err)
	}
	refresh, err := common.MakeRandHexString(32)
	if err != nil {
		return nil, fmt.Errorf("%w: refresh token: %v", common.ErrorInternal, err)
	}
	if err := s.repomanager.RefreshTokens(tx).Create(ctx, userID, refresh, s.refreshTokenValidityDuration); err != nil {
		return nil, fmt.Errorf("store refresh token: %w", err)
	}
	return &models.Identity{UserID: userID, Anonymous: anonymous, AccessToken: access, RefreshToken: refresh}, nil
}
