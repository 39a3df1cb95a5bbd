package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/dmitrijs2005/pagewatch/internal/assist"
	"github.com/dmitrijs2005/pagewatch/internal/client/cache"
	"github.com/dmitrijs2005/pagewatch/internal/client/client"
	"github.com/dmitrijs2005/pagewatch/internal/client/config"
	"github.com/dmitrijs2005/pagewatch/internal/client/session"
	"github.com/dmitrijs2005/pagewatch/internal/logging"
	"github.com/dmitrijs2005/pagewatch/internal/models"
	"github.com/dmitrijs2005/pagewatch/internal/monitor"
	"github.com/dmitrijs2005/pagewatch/internal/textgen"
)

type Mode string

const (
	ModeOffline Mode = "offline"
	ModeOnline  Mode = "online"
)

const pingTimeout = 3 * time.Second

type App struct {
	config     *config.Config
	client     client.Client
	session    *session.Session
	monitors   *monitor.Manager
	assistant  *assist.Assistant
	assistsOn  bool
	correlator *assist.Correlator
	cache      *cache.Cache
	httpClient *http.Client
	logger     logging.Logger
	reader     *bufio.Reader
	out        io.Writer

	closeOnce   sync.Once
	mu          sync.Mutex
	Mode        Mode
	live        *liveList
	watching    bool
	assistDone  <-chan struct{}
	unsubscribe func()
}

// NewApp builds the client from configuration. A missing cache or text
// provider only disables the feature that needs it.
func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	l, err := logging.New(logging.Options{Kind: logging.Kind(c.Logger), Level: c.LogLevel, Out: os.Stderr})
	if err != nil {
		return nil, err
	}

	apiClient, err := client.NewPageWatchClient(c.ServerEndpointAddr)
	if err != nil {
		return nil, err
	}

	ch, err := cache.Open(ctx, c.CacheDir)
	if err != nil {
		l.Warn(ctx, "offline cache disabled", "error", err)
		ch = nil
	}

	completer, err := textgen.NewCompleter(ctx, textgen.Options{
		Provider: c.TextProvider,
		Model:    c.TextModel,
		APIKey:   c.TextAPIKey,
		BaseURL:  c.TextBaseURL,
	})
	if err != nil {
		l.Info(ctx, "assists disabled", "reason", err)
		completer = nil
	}

	a := newApp(c, apiClient, ch, completer, l, bufio.NewReader(os.Stdin), os.Stdout)
	return a, nil
}

func newApp(c *config.Config, cl client.Client, ch *cache.Cache, completer textgen.Completer, l logging.Logger, r *bufio.Reader, w io.Writer) *App {
	sess := session.New(cl)
	adapter := textgen.NewAdapter(completer, c.TextTimeout, l)

	a := &App{
		config:     c,
		client:     cl,
		session:    sess,
		monitors:   monitor.NewManager(cl, sess, c.CheckCandidates, nil, l),
		assistant:  assist.NewAssistant(adapter, cl, sess, c.MaxHTMLBytes, l),
		assistsOn:  adapter.Enabled(),
		correlator: assist.NewCorrelator(),
		cache:      ch,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		logger:     l.With("module", "cli"),
		reader:     r,
		out:        w,
		Mode:       ModeOffline,
	}
	sess.OnTokensRotated(func(id models.Identity) {
		a.rememberSession(context.Background(), id)
	})
	return a
}

func (a *App) setMode(mode Mode) {
	a.mu.Lock()
	changed := a.Mode != mode
	a.Mode = mode
	a.mu.Unlock()

	if changed {
		fmt.Fprintf(a.out, "Switched to %s mode\n", mode)
	}
}

func (a *App) mode() Mode {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.Mode
}

func (a *App) isLoggedIn() bool {
	return a.session.UserID() != ""
}

func (a *App) getStatus() string {
	s := ""
	if id := a.session.UserID(); id != "" {
		s = shortID(id) + " "
	}
	if m := a.mode(); m != "" {
		s = s + string(m)
	}
	if s != "" {
		s = fmt.Sprintf("(%s)", s)
	}
	return s
}

// Run blocks until the user exits. Without a configured store only the
// configuration screen is shown.
func (a *App) Run(ctx context.Context) {
	defer a.Close()

	scanner := bufio.NewScanner(a.reader)
	if !a.config.StoreConfigured() {
		runConfigScreen(scanner)
		return
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	fmt.Fprintln(a.out, "Welcome to PageWatch (type 'help' for commands)")
	if !a.assistsOn {
		fmt.Fprintln(a.out, "Assists are disabled: no text generation API key is configured.")
	}

	a.unsubscribe = a.session.OnIdentityChange(func(id *models.Identity) {
		a.identityChanged(ctx, id)
	})

	_ = a.Resume(ctx)

	go a.StartOnlineStatusWatcher(ctx, a.config.OnlineCheckInterval)

	runREPL(ctx, a, a.getStatus, scanner)
}

// Close tears the session down and releases the connection and cache.
func (a *App) Close() {
	a.closeOnce.Do(a.close)
}

func (a *App) close() {
	a.correlator.Reset()
	if a.unsubscribe != nil {
		a.unsubscribe()
	}
	a.stopLive()
	if err := a.client.Close(); err != nil {
		a.logger.Warn(context.Background(), "close client", "error", err)
	}
	if a.cache != nil {
		if err := a.cache.Close(); err != nil {
			a.logger.Warn(context.Background(), "close cache", "error", err)
		}
	}
}

func (a *App) StartOnlineStatusWatcher(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			a.pingOnce(ctx)
		case <-ctx.Done():
			return
		}
	}
}

func (a *App) pingOnce(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	err := a.client.Ping(ctx)
	cancel()

	if err != nil {
		a.setMode(ModeOffline)
	} else {
		a.setMode(ModeOnline)
	}
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
