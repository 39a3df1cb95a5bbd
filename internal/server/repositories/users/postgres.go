package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/pagewatch/internal/common"
	"github.com/dmitrijs2005/pagewatch/internal/dbx"
	"github.com/dmitrijs2005/pagewatch/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) CreateAnonymous(ctx context.Context) (*models.User, error) {
	query := `
		INSERT INTO users (anonymous)
		VALUES (TRUE)
		RETURNING id, created_at
	`
	u := &models.User{Anonymous: true}
	if err := r.db.QueryRowContext(ctx, query).Scan(&u.ID, &u.CreatedAt); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return u, nil
}

func (r *PostgresRepository) UpsertExternal(ctx context.Context, externalID string) (*models.User, error) {
	query := `
		INSERT INTO users (external_id, anonymous)
		VALUES ($1, FALSE)
		ON CONFLICT (external_id) DO UPDATE SET external_id = EXCLUDED.external_id
		RETURNING id, anonymous, created_at
	`
	u := &models.User{ExternalID: &externalID}
	if err := r.db.QueryRowContext(ctx, query, externalID).Scan(&u.ID, &u.Anonymous, &u.CreatedAt); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return u, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	query := `
		SELECT id, external_id, anonymous, created_at
		FROM users
		WHERE id = $1
	`
	u := &models.User{}
	var ext sql.NullString
	if err := r.db.QueryRowContext(ctx, query, id).Scan(&u.ID, &ext, &u.Anonymous, &u.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	if ext.Valid {
		u.ExternalID = &ext.String
	}
	return u, nil
}
