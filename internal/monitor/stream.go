package monitor

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/dmitrijs2005/pagewatch/internal/client/client"
	"github.com/dmitrijs2005/pagewatch/internal/common"
	"github.com/dmitrijs2005/pagewatch/internal/models"
	"github.com/sethvargo/go-retry"
)

// Stream is a live, cancellable sequence of sorted monitor lists.
type Stream struct {
	out    chan []models.Monitor
	cancel context.CancelFunc
	done   chan struct{}

	mu  sync.Mutex
	err error
}

// C yields every snapshot, newest monitor first. It is closed once the
// stream is cancelled or fails for good.
func (s *Stream) C() <-chan []models.Monitor { return s.out }

// Cancel stops the stream and waits until it has shut down. No snapshot is
// delivered after Cancel returns. It is safe to call more than once.
func (s *Stream) Cancel() {
	s.cancel()
	<-s.done
}

// Err is the reason the stream ended on its own, if any.
func (s *Stream) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

func (s *Stream) fail(err error) {
	s.mu.Lock()
	s.err = err
	s.mu.Unlock()
}

// healthyStreamAge is how long a stream must stay open before a drop
// reconnects without waiting, unless it delivered more than its first
// snapshot.
const healthyStreamAge = 30 * time.Second

// retryable tells transient stream failures from ones a reconnect will not
// fix.
func retryable(err error) bool {
	switch {
	case errors.Is(err, context.Canceled),
		errors.Is(err, common.ErrPermissionDenied),
		errors.Is(err, common.ErrorUnauthorized),
		errors.Is(err, common.ErrTokenExpired),
		errors.Is(err, common.ErrValidationFailed):
		return false
	}
	return true
}

// Subscribe streams the owner's monitors. Broken connections are reopened
// with exponential backoff, which only starts over once a stream has proven
// healthy. The stream ends on Cancel or on an error a reconnect cannot fix.
func (m *Manager) Subscribe(ctx context.Context) (*Stream, error) {
	owner, err := m.ready()
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(ctx)
	s := &Stream{
		out:    make(chan []models.Monitor),
		cancel: cancel,
		done:   make(chan struct{}),
	}
	go m.run(ctx, s, models.CollectionPath(owner))
	return s, nil
}

func (m *Manager) run(ctx context.Context, s *Stream, path string) {
	defer close(s.done)
	defer close(s.out)

	b := m.backoff()
	for {
		stream, err := m.open(ctx, b, path)
		if err != nil {
			if ctx.Err() == nil {
				s.fail(err)
			}
			return
		}

		opened := time.Now()
		delivered, err := m.pump(ctx, stream, s.out)
		if ctx.Err() != nil {
			return
		}
		if !retryable(err) {
			s.fail(err)
			return
		}

		if delivered > 1 || time.Since(opened) >= healthyStreamAge {
			b = m.backoff()
			m.logger.Warn(ctx, "subscription dropped, reconnecting", "error", err)
			continue
		}

		wait, stop := b.Next()
		if stop {
			s.fail(err)
			return
		}
		m.logger.Warn(ctx, "subscription dropped, reconnecting", "error", err, "after", wait)

		t := time.NewTimer(wait)
		select {
		case <-t.C:
		case <-ctx.Done():
			t.Stop()
			return
		}
	}
}

// open subscribes, retrying transient failures on b.
func (m *Manager) open(ctx context.Context, b retry.Backoff, path string) (client.SnapshotStream, error) {
	var stream client.SnapshotStream
	err := retry.Do(ctx, b, func(ctx context.Context) error {
		st, err := m.store.Subscribe(ctx, path, OrderHint)
		if err != nil {
			if retryable(err) {
				m.logger.Warn(ctx, "subscribe failed, retrying", "error", err)
				return retry.RetryableError(err)
			}
			return err
		}
		stream = st
		return nil
	})
	return stream, err
}

// pump forwards sorted snapshots until the stream fails and reports how
// many it delivered.
func (m *Manager) pump(ctx context.Context, stream client.SnapshotStream, out chan<- []models.Monitor) (int, error) {
	delivered := 0
	for {
		snap, err := stream.Recv()
		if err != nil {
			return delivered, err
		}

		list := append([]models.Monitor(nil), snap.Monitors...)
		models.SortByCreatedDesc(list)

		select {
		case out <- list:
			delivered++
		case <-ctx.Done():
			return delivered, ctx.Err()
		}
	}
}
