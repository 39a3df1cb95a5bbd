package cli

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/dmitrijs2005/pagewatch/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/pagewatch/internal/client/repositories/snapshots"
	"github.com/dmitrijs2005/pagewatch/internal/common"
	"github.com/dmitrijs2005/pagewatch/internal/models"
	"github.com/dmitrijs2005/pagewatch/internal/monitor"
)

// liveList is the subscription of the signed-in owner and the latest
// list it delivered.
type liveList struct {
	stream   *monitor.Stream
	owner    string
	monitors []models.Monitor
	received bool
	readAt   time.Time
	done     chan struct{}
}

// identityChanged starts a fresh subscription for a new identity and tears
// everything down on sign-out.
func (a *App) identityChanged(ctx context.Context, id *models.Identity) {
	a.stopLive()

	if id == nil {
		a.correlator.Reset()
		return
	}

	s, err := a.monitors.Subscribe(ctx)
	if err != nil {
		a.logger.Warn(ctx, "subscribe failed", "error", err)
		return
	}

	l := &liveList{stream: s, owner: id.UserID, done: make(chan struct{})}
	a.mu.Lock()
	a.live = l
	a.mu.Unlock()

	if a.cache != nil {
		if err := a.cache.Metadata.Set(ctx, metadata.KeyLastOwner, id.UserID); err != nil {
			a.logger.Warn(ctx, "remember owner", "error", err)
		}
	}

	go a.consume(ctx, l)
}

func (a *App) stopLive() {
	a.mu.Lock()
	l := a.live
	a.live = nil
	a.mu.Unlock()

	if l != nil {
		l.stream.Cancel()
		<-l.done
	}
}

func (a *App) consume(ctx context.Context, l *liveList) {
	defer close(l.done)

	for list := range l.stream.C() {
		a.mu.Lock()
		if a.live != l {
			a.mu.Unlock()
			continue
		}
		l.monitors = list
		l.received = true
		l.readAt = time.Now().UTC()
		watching := a.watching
		a.mu.Unlock()

		a.saveSnapshot(ctx, l.owner, list, l.readAt)

		if watching {
			fmt.Fprintf(a.out, "\n-- update: %d monitor(s) --\n", len(list))
			renderCards(a.out, list)
		}
	}

	if err := l.stream.Err(); err != nil && !errors.Is(err, context.Canceled) {
		a.logger.Warn(ctx, "live updates stopped", "error", err)
		fmt.Fprintf(a.out, "Live updates stopped: %v\n", err)
	}
}

func (a *App) saveSnapshot(ctx context.Context, owner string, list []models.Monitor, readAt time.Time) {
	if a.cache == nil {
		return
	}
	err := a.cache.Snapshots.Save(ctx, snapshots.Snapshot{Owner: owner, Monitors: list, ReadAt: readAt})
	if err != nil {
		a.logger.Warn(ctx, "cache snapshot", "error", err)
	}
}

// currentList returns the live list when one has arrived, else the cached
// list of the current or last owner. cachedAt is zero for live data.
func (a *App) currentList(ctx context.Context) (list []models.Monitor, cachedAt time.Time, ok bool) {
	a.mu.Lock()
	if a.live != nil && a.live.received {
		list = append([]models.Monitor(nil), a.live.monitors...)
		a.mu.Unlock()
		return list, time.Time{}, true
	}
	a.mu.Unlock()

	if a.cache == nil {
		return nil, time.Time{}, false
	}

	owner := a.session.UserID()
	if owner == "" {
		last, found, err := a.cache.Metadata.Get(ctx, metadata.KeyLastOwner)
		if err != nil || !found {
			return nil, time.Time{}, false
		}
		owner = last
	}

	snap, err := a.cache.Snapshots.Load(ctx, owner)
	if err != nil {
		if !errors.Is(err, common.ErrorNotFound) {
			a.logger.Warn(ctx, "load cached snapshot", "error", err)
		}
		return nil, time.Time{}, false
	}
	return snap.Monitors, snap.ReadAt, true
}

// resolve finds a monitor by 1-based list position, full id or unique id
// prefix.
func (a *App) resolve(ctx context.Context, ref string) (models.Monitor, error) {
	list, _, _ := a.currentList(ctx)

	if n, err := strconv.Atoi(ref); err == nil {
		if n >= 1 && n <= len(list) {
			return list[n-1], nil
		}
		return models.Monitor{}, fmt.Errorf("%w: no monitor at position %d", common.ErrorNotFound, n)
	}

	var match *models.Monitor
	for i := range list {
		if list[i].ID == ref {
			return list[i], nil
		}
		if strings.HasPrefix(list[i].ID, ref) {
			if match != nil {
				return models.Monitor{}, fmt.Errorf("%w: id prefix %q is ambiguous", common.ErrValidationFailed, ref)
			}
			match = &list[i]
		}
	}
	if match == nil {
		return models.Monitor{}, fmt.Errorf("%w: monitor %q", common.ErrorNotFound, ref)
	}
	return *match, nil
}
