// Package broker fans out "collection changed" signals to the live
// subscriptions of an owner. Signals carry no payload and coalesce: a slow
// subscriber sees at most one pending signal however many writes happened.
package broker

import (
	"context"
	"sync"
)

// Broker is what the store services and the subscription streams share.
type Broker interface {
	// Publish signals that owner's collection changed. It never blocks.
	Publish(ctx context.Context, owner string)
	// Subscribe returns a signal channel for owner and a cancel func that
	// must be called to release it.
	Subscribe(owner string) (<-chan struct{}, func())
}

type subscription struct {
	ch chan struct{}
}

// Local is an in-process Broker.
type Local struct {
	mu   sync.Mutex
	subs map[string]map[*subscription]struct{}
}

func NewLocal() *Local {
	return &Local{subs: make(map[string]map[*subscription]struct{})}
}

func (b *Local) Publish(_ context.Context, owner string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for s := range b.subs[owner] {
		select {
		case s.ch <- struct{}{}:
		default:
		}
	}
}

func (b *Local) Subscribe(owner string) (<-chan struct{}, func()) {
	s := &subscription{ch: make(chan struct{}, 1)}

	b.mu.Lock()
	if b.subs[owner] == nil {
		b.subs[owner] = make(map[*subscription]struct{})
	}
	b.subs[owner][s] = struct{}{}
	b.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			delete(b.subs[owner], s)
			if len(b.subs[owner]) == 0 {
				delete(b.subs, owner)
			}
		})
	}
	return s.ch, cancel
}

// Subscribers returns the number of live subscriptions for owner.
func (b *Local) Subscribers(owner string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs[owner])
}
