package assist

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/dmitrijs2005/pagewatch/internal/logging"
	"github.com/dmitrijs2005/pagewatch/internal/models"
)

const (
	// DefaultMaxHTMLBytes caps the fragment sent to the provider.
	DefaultMaxHTMLBytes = 16 << 10

	FallbackSelector = "Could not suggest a selector right now. Inspect the page and enter one manually."
	FallbackNoHTML   = "Paste an HTML fragment to get a selector suggestion."
	FallbackSummary  = "A change summary is not available right now."
	FallbackNoValue  = "Nothing to summarise yet: this monitor has no observed value."

	// PlaceholderPrevious stands in for the prior value when no history
	// entry exists.
	PlaceholderPrevious = "an earlier unrecorded value"
)

const selectorPrompt = `Given the HTML fragment below, reply with one CSS selector that targets the value a user would most likely want to track, such as a price or a stock status. Reply with the selector only, on a single line, without explanation.

HTML:
%s`

const summaryPrompt = `A web page monitor named %q observed a new value. The previous value was %q and the new value is %q. Write one short sentence that describes the change and whether it is good or bad news for the user.`

// Completer is the fail-closed text-generation call. *textgen.Adapter
// satisfies it.
type Completer interface {
	TryComplete(ctx context.Context, prompt string) (string, error)
}

type HistoryReader interface {
	History(ctx context.Context, docPath string, limit int) ([]models.HistoryEntry, error)
}

type Owner interface {
	UserID() string
}

type Assistant struct {
	completer    Completer
	history      HistoryReader
	owner        Owner
	maxHTMLBytes int
	logger       logging.Logger
}

// NewAssistant wires the assists. history and owner may be nil, in which
// case summaries always use the placeholder previous value.
func NewAssistant(c Completer, h HistoryReader, o Owner, maxHTMLBytes int, l logging.Logger) *Assistant {
	if maxHTMLBytes <= 0 {
		maxHTMLBytes = DefaultMaxHTMLBytes
	}
	return &Assistant{
		completer:    c,
		history:      h,
		owner:        o,
		maxHTMLBytes: maxHTMLBytes,
		logger:       l.With("module", "assist"),
	}
}

// SuggestSelector asks for a selector matching html. The answer is a
// single cleaned line, or one of the fallback messages; ok reports which.
func (a *Assistant) SuggestSelector(ctx context.Context, html string) (selector string, ok bool) {
	html = strings.TrimSpace(html)
	if html == "" {
		return FallbackNoHTML, false
	}
	html = truncateUTF8(html, a.maxHTMLBytes)

	text, err := a.completer.TryComplete(ctx, fmt.Sprintf(selectorPrompt, html))
	if err != nil {
		a.logger.Warn(ctx, "selector suggestion failed", "error", err)
		return FallbackSelector, false
	}

	selector = CleanSelector(text)
	if selector == "" {
		return FallbackSelector, false
	}
	return selector, true
}

// CleanSelector reduces a model answer to one line: markdown fences and
// backticks are removed and the first non-blank line is kept.
func CleanSelector(s string) string {
	for _, line := range strings.Split(s, "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "```") {
			continue
		}
		line = strings.Trim(line, "`")
		line = strings.TrimSpace(line)
		if line != "" {
			return line
		}
	}
	return ""
}

func truncateUTF8(s string, max int) string {
	if len(s) <= max {
		return s
	}
	cut := max
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}
