package cli

import (
	"bufio"
	"bytes"
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/dmitrijs2005/pagewatch/internal/client/cache"
	"github.com/dmitrijs2005/pagewatch/internal/client/client"
	"github.com/dmitrijs2005/pagewatch/internal/client/config"
	"github.com/dmitrijs2005/pagewatch/internal/common"
	"github.com/dmitrijs2005/pagewatch/internal/logging"
	"github.com/dmitrijs2005/pagewatch/internal/models"
	"github.com/dmitrijs2005/pagewatch/internal/monitor"
	"github.com/dmitrijs2005/pagewatch/internal/rpc"
	"github.com/dmitrijs2005/pagewatch/internal/textgen"
	"github.com/stretchr/testify/require"
)

type updateCall struct {
	path  string
	patch models.Patch
}

type createCall struct {
	path      string
	fields    models.Fields
	status    models.Status
	lastValue *string
}

// fakeClient is an in-memory client.Client.
type fakeClient struct {
	mu sync.Mutex

	identity  *models.Identity
	signInErr error
	pingErr   error
	anonCalls int

	sessions  map[string]*models.Identity
	resumeErr error
	resumed   []string

	creates []createCall
	updates []updateCall
	deletes []string
	closed  bool

	history     []models.HistoryEntry
	historyPath string

	export    *client.ExportLink
	exportErr error

	snaps  chan *rpc.Snapshot
	subCtx context.Context

	onRefresh func(string, string)
}

func newFakeClient() *fakeClient {
	return &fakeClient{
		identity: &models.Identity{UserID: "user-1", Anonymous: true, AccessToken: "a", RefreshToken: "r"},
		snaps:    make(chan *rpc.Snapshot, 4),
	}
}

func (f *fakeClient) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func (f *fakeClient) Ping(ctx context.Context) error { return f.pingErr }

func (f *fakeClient) SignInAnonymous(ctx context.Context) (*models.Identity, error) {
	f.mu.Lock()
	f.anonCalls++
	f.mu.Unlock()
	if f.signInErr != nil {
		return nil, f.signInErr
	}
	id := *f.identity
	return &id, nil
}

func (f *fakeClient) SignInWithToken(ctx context.Context, token string) (*models.Identity, error) {
	if f.signInErr != nil {
		return nil, f.signInErr
	}
	return &models.Identity{UserID: "ext-" + token}, nil
}

func (f *fakeClient) Resume(ctx context.Context, refreshToken string) (*models.Identity, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.resumed = append(f.resumed, refreshToken)
	if f.resumeErr != nil {
		return nil, f.resumeErr
	}
	id, ok := f.sessions[refreshToken]
	if !ok {
		return nil, common.ErrorUnauthorized
	}
	cp := *id
	return &cp, nil
}

func (f *fakeClient) SetTokens(accessToken, refreshToken string) {}

func (f *fakeClient) OnTokensRefreshed(fn func(accessToken, refreshToken string)) { f.onRefresh = fn }

func (f *fakeClient) CreateRecord(ctx context.Context, collectionPath string, fields models.Fields, status models.Status, lastValue *string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.creates = append(f.creates, createCall{collectionPath, fields, status, lastValue})
	return "new-id", nil
}

func (f *fakeClient) UpdateRecord(ctx context.Context, docPath string, patch models.Patch) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updates = append(f.updates, updateCall{docPath, patch})
	return nil
}

func (f *fakeClient) DeleteRecord(ctx context.Context, docPath string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deletes = append(f.deletes, docPath)
	return nil
}

func (f *fakeClient) Subscribe(ctx context.Context, collectionPath, orderHint string) (client.SnapshotStream, error) {
	f.mu.Lock()
	f.subCtx = ctx
	f.mu.Unlock()
	return &fakeStream{ctx: ctx, in: f.snaps}, nil
}

func (f *fakeClient) subscriptionCtx() context.Context {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.subCtx
}

func (f *fakeClient) History(ctx context.Context, docPath string, limit int) ([]models.HistoryEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.historyPath = docPath
	return f.history, nil
}

func (f *fakeClient) Export(ctx context.Context, collectionPath string) (*client.ExportLink, error) {
	return f.export, f.exportErr
}

type fakeStream struct {
	ctx context.Context
	in  chan *rpc.Snapshot
}

func (s *fakeStream) Recv() (*rpc.Snapshot, error) {
	select {
	case snap := <-s.in:
		return snap, nil
	case <-s.ctx.Done():
		return nil, s.ctx.Err()
	}
}

type funcCompleter func(ctx context.Context, prompt string) (string, error)

func (f funcCompleter) Complete(ctx context.Context, prompt string) (string, error) {
	return f(ctx, prompt)
}

// syncBuffer is a bytes.Buffer safe for the background writers of App.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

type testEnv struct {
	app    *App
	client *fakeClient
	cache  *cache.Cache
	out    *syncBuffer
}

// newTestApp builds an App over fakes and an in-memory cache. input feeds
// the prompts.
func newTestApp(t *testing.T, completer textgen.Completer, input ...string) *testEnv {
	t.Helper()
	return newTestAppAt(t, ":memory:", completer, input...)
}

// newTestAppAt is newTestApp over the cache at dsn, so that a second App
// can pick up what a first one left behind.
func newTestAppAt(t *testing.T, dsn string, completer textgen.Completer, input ...string) *testEnv {
	t.Helper()

	cfg := &config.Config{}
	cfg.LoadDefaults()

	ch, err := cache.OpenDSN(context.Background(), dsn)
	require.NoError(t, err)

	fc := newFakeClient()
	out := &syncBuffer{}
	r := bufio.NewReader(strings.NewReader(strings.Join(input, "\n")))

	a := newApp(cfg, fc, ch, completer, logging.Nop{}, r, out)
	t.Cleanup(a.Close)

	return &testEnv{app: a, client: fc, cache: ch, out: out}
}

// start installs the identity listener the way Run does.
func (e *testEnv) start(ctx context.Context) {
	e.app.unsubscribe = e.app.session.OnIdentityChange(func(id *models.Identity) {
		e.app.identityChanged(ctx, id)
	})
}

func newManagerFor(e *testEnv, candidates []string) *monitor.Manager {
	return monitor.NewManager(e.client, e.app.session, candidates, nil, logging.Nop{})
}
