package assist

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/pagewatch/internal/models"
)

// historyLookback matches the default number of history entries the
// server keeps per monitor.
const historyLookback = 10

// Summary is the result of a change-summary request. Heuristic is set
// when Previous is a placeholder rather than a recorded value.
type Summary struct {
	Text      string
	Previous  string
	Current   string
	Heuristic bool
	OK        bool
}

// Summarize drafts one sentence about the latest change of m. It never
// writes anything back.
func (a *Assistant) Summarize(ctx context.Context, m models.Monitor) Summary {
	if !m.HasValue() {
		return Summary{Text: FallbackNoValue}
	}

	current := *m.LastValue
	previous, heuristic := a.previousValue(ctx, m.ID, current)

	s := Summary{Previous: previous, Current: current, Heuristic: heuristic}

	text, err := a.completer.TryComplete(ctx, fmt.Sprintf(summaryPrompt, m.Name, previous, current))
	if err != nil {
		a.logger.Warn(ctx, "change summary failed", "id", m.ID, "error", err)
		s.Text = FallbackSummary
		return s
	}

	s.Text = text
	s.OK = true
	return s
}

// previousValue reads the newest recorded value that differs from current.
// History comes newest first and starts with current itself, repeated once
// for every stable check.
func (a *Assistant) previousValue(ctx context.Context, id, current string) (string, bool) {
	if a.history == nil || a.owner == nil || a.owner.UserID() == "" {
		return PlaceholderPrevious, true
	}

	entries, err := a.history.History(ctx, models.DocPath(a.owner.UserID(), id), historyLookback)
	if err != nil {
		a.logger.Warn(ctx, "history unavailable, using placeholder", "id", id, "error", err)
		return PlaceholderPrevious, true
	}

	for _, e := range entries {
		if e.Value != current {
			return e.Value, false
		}
	}
	return PlaceholderPrevious, true
}
