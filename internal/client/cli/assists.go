package cli

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/pagewatch/internal/assist"
)

func (a *App) assistsDisabled() bool {
	if a.assistsOn {
		return false
	}
	fmt.Fprintln(a.out, "Assists are disabled. Set GEMINI_API_KEY or OPENAI_API_KEY, or pass -key.")
	return true
}

// Suggest reads an HTML fragment and asks for a selector in the
// background. A newer suggest or a sign-out drops the pending answer.
func (a *App) Suggest(ctx context.Context) error {
	if a.assistsDisabled() {
		return nil
	}

	html, err := GetMultiline(a.reader, "Paste the HTML around the value you want to track", a.out)
	if err != nil {
		return a.report(ctx, "read input", err)
	}

	fmt.Fprintln(a.out, "Asking for a selector suggestion...")
	a.startAssist(ctx, assist.SelectorKey, func(ctx context.Context) string {
		selector, ok := a.assistant.SuggestSelector(ctx, html)
		if !ok {
			return selector
		}
		return "Suggested selector: " + selector
	})
	return nil
}

// Summary drafts a one-sentence description of the latest change. It is
// informational only and never stored.
func (a *App) Summary(ctx context.Context, ref string) error {
	if a.assistsDisabled() {
		return nil
	}

	m, err := a.resolve(ctx, ref)
	if err != nil {
		return a.report(ctx, "find monitor", err)
	}

	fmt.Fprintf(a.out, "Summarising %s...\n", m.Name)
	a.startAssist(ctx, assist.SummaryKey(m.ID), func(ctx context.Context) string {
		s := a.assistant.Summarize(ctx, m)
		if !s.OK {
			return s.Text
		}
		if s.Heuristic {
			return fmt.Sprintf("%s: %s\n(heuristic: no earlier value was recorded, the comparison is approximate)", m.Name, s.Text)
		}
		return fmt.Sprintf("%s: %s", m.Name, s.Text)
	})
	return nil
}

func (a *App) startAssist(ctx context.Context, key string, work func(context.Context) string) {
	done := assist.Run(ctx, a.correlator, key, work, func(msg string) {
		fmt.Fprintf(a.out, "\n%s\n", msg)
	})

	a.mu.Lock()
	a.assistDone = done
	a.mu.Unlock()
}
