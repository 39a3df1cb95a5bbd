package services

import (
	"context"
	"database/sql"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/pagewatch/internal/common"
	"github.com/dmitrijs2005/pagewatch/internal/dbx"
	"github.com/dmitrijs2005/pagewatch/internal/models"
	srvmodels "github.com/dmitrijs2005/pagewatch/internal/server/models"
	"github.com/dmitrijs2005/pagewatch/internal/server/repositories/history"
	"github.com/dmitrijs2005/pagewatch/internal/server/repositories/monitors"
	"github.com/dmitrijs2005/pagewatch/internal/server/repositories/refreshtokens"
	"github.com/dmitrijs2005/pagewatch/internal/server/repositories/users"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

// memStore is an in-memory stand-in for the PostgreSQL repositories.
type memStore struct {
	mu       sync.Mutex
	users    map[string]*srvmodels.User
	byExt    map[string]string
	tokens   map[string]srvmodels.RefreshToken
	monitors map[string]map[string]models.Monitor
	history  map[string][]models.HistoryEntry
}

func newMemStore() *memStore {
	return &memStore{
		users:    map[string]*srvmodels.User{},
		byExt:    map[string]string{},
		tokens:   map[string]srvmodels.RefreshToken{},
		monitors: map[string]map[string]models.Monitor{},
		history:  map[string][]models.HistoryEntry{},
	}
}

func (s *memStore) RunMigrations(context.Context, *sql.DB) error { return nil }
func (s *memStore) Users(dbx.DBTX) users.Repository             { return memUsers{s} }
func (s *memStore) RefreshTokens(dbx.DBTX) refreshtokens.Repository {
	return memTokens{s}
}
func (s *memStore) Monitors(dbx.DBTX) monitors.Repository { return memMonitors{s} }
func (s *memStore) History(dbx.DBTX) history.Repository   { return memHistory{s} }

type memUsers struct{ s *memStore }

func (r memUsers) CreateAnonymous(context.Context) (*srvmodels.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u := &srvmodels.User{ID: uuid.NewString(), Anonymous: true, CreatedAt: time.Now()}
	r.s.users[u.ID] = u
	return u, nil
}

func (r memUsers) UpsertExternal(_ context.Context, ext string) (*srvmodels.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if id, ok := r.s.byExt[ext]; ok {
		return r.s.users[id], nil
	}
	u := &srvmodels.User{ID: uuid.NewString(), ExternalID: &ext, CreatedAt: time.Now()}
	r.s.users[u.ID] = u
	r.s.byExt[ext] = u.ID
	return u, nil
}

func (r memUsers) GetByID(_ context.Context, id string) (*srvmodels.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return u, nil
}

type memTokens struct{ s *memStore }

func (r memTokens) Create(_ context.Context, userID, token string, validity time.Duration) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.tokens[token] = srvmodels.RefreshToken{UserID: userID, Token: token, ExpiresAt: time.Now().Add(validity)}
	return nil
}

func (r memTokens) Find(_ context.Context, token string) (*srvmodels.RefreshToken, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	t, ok := r.s.tokens[token]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return &t, nil
}

func (r memTokens) Delete(_ context.Context, token string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	delete(r.s.tokens, token)
	return nil
}

func (r memTokens) DeleteExpired(_ context.Context, userID string, now time.Time) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var n int64
	for k, t := range r.s.tokens {
		if t.UserID == userID && t.ExpiresAt.Before(now) {
			delete(r.s.tokens, k)
			n++
		}
	}
	return n, nil
}

type memMonitors struct{ s *memStore }

func (r memMonitors) Create(_ context.Context, owner string, n monitors.NewMonitor) (*models.Monitor, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	now := n.Now
	m := models.Monitor{
		ID: uuid.NewString(), Name: n.Fields.Name, URL: n.Fields.URL, Selector: n.Fields.Selector,
		LastValue: n.LastValue, Status: n.Status, CreatedAt: &now, UpdatedAt: &now,
	}
	if r.s.monitors[owner] == nil {
		r.s.monitors[owner] = map[string]models.Monitor{}
	}
	r.s.monitors[owner][m.ID] = m
	return &m, nil
}

func (r memMonitors) Update(_ context.Context, owner, id string, p models.Patch, now time.Time) (*models.Monitor, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	m, ok := r.s.monitors[owner][id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	updated := now
	if next := m.UpdatedAt.Add(time.Microsecond); !updated.After(*m.UpdatedAt) {
		updated = next
	}
	m = p.Apply(m, now, updated)
	r.s.monitors[owner][id] = m
	return &m, nil
}

func (r memMonitors) Get(_ context.Context, owner, id string) (*models.Monitor, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	m, ok := r.s.monitors[owner][id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return &m, nil
}

func (r memMonitors) Delete(_ context.Context, owner, id string) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.monitors[owner][id]; !ok {
		return false, nil
	}
	delete(r.s.monitors[owner], id)
	delete(r.s.history, id)
	return true, nil
}

func (r memMonitors) List(_ context.Context, owner string) ([]models.Monitor, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make([]models.Monitor, 0, len(r.s.monitors[owner]))
	for _, m := range r.s.monitors[owner] {
		out = append(out, m)
	}
	models.SortByCreatedDesc(out)
	return out, nil
}

type memHistory struct{ s *memStore }

func (r memHistory) Append(_ context.Context, id, value string, status models.Status, at time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.history[id] = append(r.s.history[id], models.HistoryEntry{MonitorID: id, Value: value, Status: status, ObservedAt: at})
	return nil
}

func (r memHistory) Prune(_ context.Context, id string, keep int) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	h := r.s.history[id]
	if len(h) <= keep {
		return 0, nil
	}
	dropped := len(h) - keep
	r.s.history[id] = h[dropped:]
	return int64(dropped), nil
}

func (r memHistory) List(_ context.Context, id string, limit int) ([]models.HistoryEntry, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	h := append([]models.HistoryEntry(nil), r.s.history[id]...)
	for i, j := 0, len(h)-1; i < j; i, j = i+1, j-1 {
		h[i], h[j] = h[j], h[i]
	}
	if len(h) > limit {
		h = h[:limit]
	}
	return h, nil
}

// txDB returns a sqlmock DB that accepts any number of commit/rollback
// transactions.
func txDB(t *testing.T, txs int) *sql.DB {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	mock.MatchExpectationsInOrder(false)
	for i := 0; i < txs; i++ {
		mock.ExpectBegin()
		mock.ExpectCommit()
	}
	return db
}
