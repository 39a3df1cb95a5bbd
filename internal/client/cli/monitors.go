package cli

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/pagewatch/internal/models"
	"github.com/dmitrijs2005/pagewatch/internal/monitor"
)

const historyLimit = 10

// List renders the live list, or the cached one while offline.
func (a *App) List(ctx context.Context) error {
	list, cachedAt, ok := a.currentList(ctx)
	if !ok {
		if a.isLoggedIn() {
			fmt.Fprintln(a.out, "Waiting for the first update from the server...")
		} else {
			fmt.Fprintln(a.out, "Nothing to show. Sign in with 'signin' or 'login'.")
		}
		return nil
	}

	if !cachedAt.IsZero() {
		fmt.Fprintf(a.out, "(offline copy from %s)\n", cachedAt.Local().Format(timeLayout))
	}
	renderCards(a.out, list)
	return nil
}

// Add collects name, URL and selector and creates a monitor.
func (a *App) Add(ctx context.Context) error {
	name, err := getSimpleText(a.reader, "Name", a.out)
	if err != nil {
		return a.report(ctx, "read input", err)
	}
	url, err := getSimpleText(a.reader, "URL", a.out)
	if err != nil {
		return a.report(ctx, "read input", err)
	}
	selector, err := getSimpleText(a.reader, "CSS selector (try 'suggest' if unsure)", a.out)
	if err != nil {
		return a.report(ctx, "read input", err)
	}

	id, err := a.monitors.Create(ctx, name, url, selector)
	if err != nil {
		return a.report(ctx, "create monitor", err)
	}
	fmt.Fprintf(a.out, "Created monitor %s\n", id)
	return nil
}

// Edit rewrites the fields of a monitor and optionally records a manual
// value. Pressing Enter keeps a field unchanged.
func (a *App) Edit(ctx context.Context, ref string) error {
	m, err := a.resolve(ctx, ref)
	if err != nil {
		return a.report(ctx, "find monitor", err)
	}

	name, err := GetWithDefault(a.reader, "Name", m.Name, a.out)
	if err != nil {
		return a.report(ctx, "read input", err)
	}
	url, err := GetWithDefault(a.reader, "URL", m.URL, a.out)
	if err != nil {
		return a.report(ctx, "read input", err)
	}
	selector, err := GetWithDefault(a.reader, "CSS selector", m.Selector, a.out)
	if err != nil {
		return a.report(ctx, "read input", err)
	}
	manual, err := getSimpleText(a.reader, "Manual value (empty to skip)", a.out)
	if err != nil {
		return a.report(ctx, "read input", err)
	}

	if err := a.monitors.Update(ctx, m.ID, name, url, selector, manual); err != nil {
		return a.report(ctx, "update monitor", err)
	}
	fmt.Fprintln(a.out, "Saved.")
	return nil
}

// Delete removes a monitor after an explicit y/n confirmation.
func (a *App) Delete(ctx context.Context, ref string) error {
	m, err := a.resolve(ctx, ref)
	if err != nil {
		return a.report(ctx, "find monitor", err)
	}

	confirm := monitor.ConfirmFunc(func(prompt string) bool {
		return Confirm(a.reader, prompt, a.out)
	})

	deleted, err := a.monitors.Delete(ctx, m.ID, confirmPrompt{confirm, fmt.Sprintf("Delete %q? This cannot be undone.", m.Name)})
	if err != nil {
		return a.report(ctx, "delete monitor", err)
	}
	if !deleted {
		fmt.Fprintln(a.out, "Cancelled.")
		return nil
	}
	fmt.Fprintln(a.out, "Deleted.")
	return nil
}

// confirmPrompt replaces the generic question with one naming the monitor.
type confirmPrompt struct {
	next   monitor.Confirmer
	prompt string
}

func (c confirmPrompt) Confirm(string) bool { return c.next.Confirm(c.prompt) }

// Check runs a simulated check and prints the observed value.
func (a *App) Check(ctx context.Context, ref string) error {
	m, err := a.resolve(ctx, ref)
	if err != nil {
		return a.report(ctx, "find monitor", err)
	}

	res, err := a.monitors.Check(ctx, m)
	if err != nil {
		return a.report(ctx, "check monitor", err)
	}

	prev := "-"
	if res.Previous != nil {
		prev = *res.Previous
	}
	fmt.Fprintf(a.out, "%s: %s -> %s (%s)\n", m.Name, prev, res.Value, statusLabel(res.Status))
	return nil
}

// History prints the recorded values of a monitor, newest first.
func (a *App) History(ctx context.Context, ref string) error {
	m, err := a.resolve(ctx, ref)
	if err != nil {
		return a.report(ctx, "find monitor", err)
	}
	owner := a.session.UserID()
	if owner == "" {
		return a.report(ctx, "history", errNoSession)
	}

	entries, err := a.client.History(ctx, models.DocPath(owner, m.ID), historyLimit)
	if err != nil {
		return a.report(ctx, "history", err)
	}
	fmt.Fprintf(a.out, "History of %s:\n", m.Name)
	renderHistory(a.out, entries)
	return nil
}

// Watch toggles printing of every live update.
func (a *App) Watch(ctx context.Context) error {
	a.mu.Lock()
	a.watching = !a.watching
	on := a.watching
	a.mu.Unlock()

	if on {
		fmt.Fprintln(a.out, "Live updates on.")
	} else {
		fmt.Fprintln(a.out, "Live updates off.")
	}
	return nil
}
