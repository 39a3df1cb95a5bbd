package monitors

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/pagewatch/internal/common"
	"github.com/dmitrijs2005/pagewatch/internal/dbx"
	"github.com/dmitrijs2005/pagewatch/internal/models"
)

const columns = `id, name, url, selector, last_value, last_checked, status, created_at, updated_at`

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMonitor(row rowScanner) (*models.Monitor, error) {
	var (
		m           models.Monitor
		lastValue   sql.NullString
		lastChecked sql.NullTime
		status      string
		createdAt   time.Time
		updatedAt   time.Time
	)
	if err := row.Scan(&m.ID, &m.Name, &m.URL, &m.Selector, &lastValue, &lastChecked, &status, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	if lastValue.Valid {
		m.LastValue = &lastValue.String
	}
	if lastChecked.Valid {
		t := lastChecked.Time
		m.LastChecked = &t
	}
	m.Status = models.Status(status)
	m.CreatedAt = &createdAt
	m.UpdatedAt = &updatedAt
	return &m, nil
}

func (r *PostgresRepository) Create(ctx context.Context, owner string, n NewMonitor) (*models.Monitor, error) {
	query := `
		INSERT INTO monitors (owner_id, name, url, selector, last_value, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $7)
		RETURNING ` + columns

	m, err := scanMonitor(r.db.QueryRowContext(ctx, query,
		owner, n.Fields.Name, n.Fields.URL, n.Fields.Selector, n.LastValue, string(n.Status), n.Now))
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return m, nil
}

func (r *PostgresRepository) Update(ctx context.Context, owner, id string, p models.Patch, now time.Time) (*models.Monitor, error) {
	query := `
		UPDATE monitors SET
			name         = COALESCE($3, name),
			url          = COALESCE($4, url),
			selector     = COALESCE($5, selector),
			last_value   = COALESCE($6, last_value),
			last_checked = COALESCE($7, last_checked),
			status       = COALESCE($8, status),
			updated_at   = GREATEST($9, updated_at + INTERVAL '1 microsecond')
		WHERE id = $1 AND owner_id = $2
		RETURNING ` + columns

	var lastChecked *time.Time
	if p.LastChecked != nil {
		t := p.LastChecked.Resolve(now)
		lastChecked = &t
	}
	var status *string
	if p.Status != nil {
		s := string(*p.Status)
		status = &s
	}

	m, err := scanMonitor(r.db.QueryRowContext(ctx, query,
		id, owner, p.Name, p.URL, p.Selector, p.LastValue, lastChecked, status, now))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return m, nil
}

func (r *PostgresRepository) Get(ctx context.Context, owner, id string) (*models.Monitor, error) {
	query := `SELECT ` + columns + ` FROM monitors WHERE id = $1 AND owner_id = $2`

	m, err := scanMonitor(r.db.QueryRowContext(ctx, query, id, owner))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return m, nil
}

func (r *PostgresRepository) Delete(ctx context.Context, owner, id string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM monitors WHERE id = $1 AND owner_id = $2`, id, owner)
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	return n > 0, nil
}

func (r *PostgresRepository) List(ctx context.Context, owner string) ([]models.Monitor, error) {
	query := `SELECT ` + columns + ` FROM monitors WHERE owner_id = $1 ORDER BY created_at DESC, id`

	rows, err := r.db.QueryContext(ctx, query, owner)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	out := make([]models.Monitor, 0)
	for rows.Next() {
		m, err := scanMonitor(rows)
		if err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		out = append(out, *m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return out, nil
}
