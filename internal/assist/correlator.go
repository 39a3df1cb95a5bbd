package assist

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

const SelectorKey = "selector"

func SummaryKey(monitorID string) string {
	return "summary:" + monitorID
}

// Ticket identifies one in-flight request.
type Ticket struct {
	Key   string
	Token string
}

type pending struct {
	token  string
	cancel context.CancelFunc
}

// Correlator tracks the latest request per key. A newer request under
// the same key, or Reset, supersedes older ones.
type Correlator struct {
	mu      sync.Mutex
	pending map[string]pending
}

func NewCorrelator() *Correlator {
	return &Correlator{pending: make(map[string]pending)}
}

// Begin registers a new request under key and returns its ticket and a
// context that is cancelled once the request is superseded.
func (c *Correlator) Begin(ctx context.Context, key string) (Ticket, context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	t := Ticket{Key: key, Token: uuid.NewString()}

	c.mu.Lock()
	if old, ok := c.pending[key]; ok {
		old.cancel()
	}
	c.pending[key] = pending{token: t.Token, cancel: cancel}
	c.mu.Unlock()

	return t, ctx
}

// Finish reports whether t is still the latest request for its key and
// forgets it. A false result means the response must be dropped.
func (c *Correlator) Finish(t Ticket) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	p, ok := c.pending[t.Key]
	if !ok || p.token != t.Token {
		return false
	}
	p.cancel()
	delete(c.pending, t.Key)
	return true
}

// Reset supersedes every pending request.
func (c *Correlator) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()

	for k, p := range c.pending {
		p.cancel()
		delete(c.pending, k)
	}
}

// Pending returns the number of requests still awaiting an answer.
func (c *Correlator) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.pending)
}

// Run executes work in its own goroutine under key and hands the result
// to deliver only if the request has not been superseded meanwhile. The
// returned channel is closed once the goroutine is done.
func Run[T any](ctx context.Context, c *Correlator, key string, work func(context.Context) T, deliver func(T)) <-chan struct{} {
	t, ctx := c.Begin(ctx, key)
	done := make(chan struct{})

	go func() {
		defer close(done)
		res := work(ctx)
		if c.Finish(t) {
			deliver(res)
		}
	}()
	return done
}
