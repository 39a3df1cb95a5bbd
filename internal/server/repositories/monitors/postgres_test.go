package monitors

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/pagewatch/internal/common"
	"github.com/dmitrijs2005/pagewatch/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var cols = []string{"id", "name", "url", "selector", "last_value", "last_checked", "status", "created_at", "updated_at"}

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewPostgresRepository(db), mock
}

func TestCreate(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	now := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	f := models.Fields{Name: "Price Tracker", URL: "https://shop.test/x", Selector: ".price"}

	mock.ExpectQuery(`(?s)INSERT\s+INTO\s+monitors\s*\(owner_id,\s*name,\s*url,\s*selector,\s*last_value,\s*status,\s*created_at,\s*updated_at\)\s*VALUES\s*\(\$1,\s*\$2,\s*\$3,\s*\$4,\s*\$5,\s*\$6,\s*\$7,\s*\$7\)\s*RETURNING`).
		WithArgs("u1", f.Name, f.URL, f.Selector, nil, "new", now).
		WillReturnRows(sqlmock.NewRows(cols).AddRow("m1", f.Name, f.URL, f.Selector, nil, nil, "new", now, now))

	m, err := repo.Create(context.Background(), "u1", NewMonitor{Fields: f, Status: models.StatusNew, Now: now})
	require.NoError(t, err)
	assert.Equal(t, "m1", m.ID)
	assert.Equal(t, models.StatusNew, m.Status)
	assert.Nil(t, m.LastValue)
	assert.Nil(t, m.LastChecked)
	require.NotNil(t, m.CreatedAt)
	assert.True(t, now.Equal(*m.CreatedAt))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdate_ResolvesServerTimestamp(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	created := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	now := created.Add(time.Hour)

	p := models.FieldsPatch(models.Fields{Name: "n", URL: "https://a.test", Selector: ".p"}).
		WithObservation("In Stock", models.StatusStable)

	mock.ExpectQuery(`(?s)UPDATE\s+monitors\s+SET.*updated_at\s*=\s*GREATEST\(\$9,\s*updated_at\s*\+\s*INTERVAL\s+'1 microsecond'\)\s+WHERE\s+id\s*=\s*\$1\s+AND\s+owner_id\s*=\s*\$2`).
		WithArgs("m1", "u1", sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), now, "stable", now).
		WillReturnRows(sqlmock.NewRows(cols).AddRow("m1", "n", "https://a.test", ".p", "In Stock", now, "stable", created, now))

	m, err := repo.Update(context.Background(), "u1", "m1", p, now)
	require.NoError(t, err)
	require.NotNil(t, m.LastValue)
	assert.Equal(t, "In Stock", *m.LastValue)
	require.NotNil(t, m.LastChecked)
	assert.True(t, now.Equal(*m.LastChecked))
	assert.Equal(t, models.StatusStable, m.Status)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdate_NotFound(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery(`UPDATE\s+monitors`).WillReturnError(sql.ErrNoRows)

	_, err := repo.Update(context.Background(), "u1", "nope", models.Patch{}, time.Now())
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

func TestGet(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	now := time.Now()
	q := `(?s)SELECT\s+id,.*FROM\s+monitors\s+WHERE\s+id\s*=\s*\$1\s+AND\s+owner_id\s*=\s*\$2`

	mock.ExpectQuery(q).WithArgs("m1", "u1").
		WillReturnRows(sqlmock.NewRows(cols).AddRow("m1", "n", "https://a.test", ".p", "v", now, "changed", now, now))
	m, err := repo.Get(context.Background(), "u1", "m1")
	require.NoError(t, err)
	assert.Equal(t, models.StatusChanged, m.Status)

	mock.ExpectQuery(q).WithArgs("m2", "u1").WillReturnError(sql.ErrNoRows)
	_, err = repo.Get(context.Background(), "u1", "m2")
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

func TestDelete(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	q := `DELETE\s+FROM\s+monitors\s+WHERE\s+id\s*=\s*\$1\s+AND\s+owner_id\s*=\s*\$2`

	mock.ExpectExec(q).WithArgs("m1", "u1").WillReturnResult(sqlmock.NewResult(0, 1))
	ok, err := repo.Delete(context.Background(), "u1", "m1")
	require.NoError(t, err)
	assert.True(t, ok)

	mock.ExpectExec(q).WithArgs("gone", "u1").WillReturnResult(sqlmock.NewResult(0, 0))
	ok, err = repo.Delete(context.Background(), "u1", "gone")
	require.NoError(t, err)
	assert.False(t, ok)

	mock.ExpectExec(q).WithArgs("m1", "u1").WillReturnError(errors.New("boom"))
	_, err = repo.Delete(context.Background(), "u1", "m1")
	assert.ErrorContains(t, err, "db error")
}

func TestList(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	t1 := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	t0 := t1.Add(-time.Hour)

	mock.ExpectQuery(`(?s)FROM\s+monitors\s+WHERE\s+owner_id\s*=\s*\$1\s+ORDER\s+BY\s+created_at\s+DESC`).
		WithArgs("u1").
		WillReturnRows(sqlmock.NewRows(cols).
			AddRow("b", "n", "https://a.test", ".p", nil, nil, "new", t1, t1).
			AddRow("a", "n", "https://a.test", ".p", "x", t0, "stable", t0, t0))

	ms, err := repo.List(context.Background(), "u1")
	require.NoError(t, err)
	require.Len(t, ms, 2)
	assert.Equal(t, "b", ms[0].ID)
	assert.Nil(t, ms[0].LastValue)
	assert.Equal(t, "x", *ms[1].LastValue)
}

func TestList_Empty(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery(`FROM\s+monitors`).WithArgs("u1").WillReturnRows(sqlmock.NewRows(cols))

	ms, err := repo.List(context.Background(), "u1")
	require.NoError(t, err)
	assert.NotNil(t, ms)
	assert.Empty(t, ms)
}
