package assist

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCorrelator_Supersede(t *testing.T) {
	c := NewCorrelator()

	first, firstCtx := c.Begin(context.Background(), SelectorKey)
	second, _ := c.Begin(context.Background(), SelectorKey)

	assert.ErrorIs(t, firstCtx.Err(), context.Canceled)
	assert.False(t, c.Finish(first))
	assert.True(t, c.Finish(second))
	assert.False(t, c.Finish(second))
	assert.Equal(t, 0, c.Pending())
}

func TestCorrelator_KeysAreIndependent(t *testing.T) {
	c := NewCorrelator()

	a, _ := c.Begin(context.Background(), SummaryKey("m1"))
	b, _ := c.Begin(context.Background(), SummaryKey("m2"))

	assert.Equal(t, 2, c.Pending())
	assert.True(t, c.Finish(a))
	assert.True(t, c.Finish(b))
}

func TestCorrelator_Reset(t *testing.T) {
	c := NewCorrelator()

	a, ctx := c.Begin(context.Background(), SelectorKey)
	c.Reset()

	assert.ErrorIs(t, ctx.Err(), context.Canceled)
	assert.False(t, c.Finish(a))
}

func TestRun_DropsStaleResponse(t *testing.T) {
	c := NewCorrelator()

	release := make(chan struct{})
	var mu sync.Mutex
	var delivered []string

	deliver := func(s string) {
		mu.Lock()
		delivered = append(delivered, s)
		mu.Unlock()
	}

	slow := Run(context.Background(), c, SelectorKey, func(ctx context.Context) string {
		<-release
		return "stale"
	}, deliver)

	fast := Run(context.Background(), c, SelectorKey, func(ctx context.Context) string {
		return "fresh"
	}, deliver)
	<-fast

	close(release)
	<-slow

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"fresh"}, delivered)
}

func TestRun_DroppedAfterReset(t *testing.T) {
	c := NewCorrelator()
	release := make(chan struct{})
	called := false

	done := Run(context.Background(), c, SummaryKey("m1"), func(ctx context.Context) int {
		<-release
		return 1
	}, func(int) { called = true })

	c.Reset()
	close(release)
	<-done

	assert.False(t, called)
}
