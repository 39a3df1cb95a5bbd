// Package textgen is the text-generation adapter behind the assists. It
// wraps a provider Completer with a per-call timeout and fails closed to
// a fixed fallback string.
package textgen

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/pagewatch/internal/common"
	"github.com/dmitrijs2005/pagewatch/internal/logging"
)

// Fallback is returned by Complete whenever the provider fails.
const Fallback = "Text generation is unavailable right now."

// Completer turns a prompt into model text.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// Options select and tune a provider.
type Options struct {
	Provider string // gemini or openai
	Model    string
	APIKey   string
	BaseURL  string
}

// NewCompleter builds the provider named in opts. Without an API key it
// returns common.ErrConfigurationMissing.
func NewCompleter(ctx context.Context, opts Options) (Completer, error) {
	if opts.APIKey == "" {
		return nil, fmt.Errorf("%w: no text generation API key", common.ErrConfigurationMissing)
	}
	switch opts.Provider {
	case "", "gemini":
		g, err := NewGemini(ctx, opts)
		if err != nil {
			return nil, err
		}
		return g, nil
	case "openai":
		return NewOpenAI(opts), nil
	default:
		return nil, fmt.Errorf("%w: unknown provider %q", common.ErrConfigurationMissing, opts.Provider)
	}
}

type Adapter struct {
	completer Completer
	timeout   time.Duration
	logger    logging.Logger
}

// NewAdapter wraps c. A nil c yields an adapter that always fails closed.
func NewAdapter(c Completer, timeout time.Duration, l logging.Logger) *Adapter {
	return &Adapter{completer: c, timeout: timeout, logger: l.With("module", "textgen")}
}

// Enabled reports whether a provider is configured.
func (a *Adapter) Enabled() bool {
	return a != nil && a.completer != nil
}

// TryComplete runs one completion under the configured timeout. Failures
// and blank answers wrap common.ErrRemoteCallFailed.
func (a *Adapter) TryComplete(ctx context.Context, prompt string) (string, error) {
	if !a.Enabled() {
		return "", fmt.Errorf("%w: %w", common.ErrRemoteCallFailed, common.ErrConfigurationMissing)
	}

	if a.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.timeout)
		defer cancel()
	}

	text, err := a.completer.Complete(ctx, prompt)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			a.logger.Warn(ctx, "completion timed out", "timeout", a.timeout)
		} else {
			a.logger.Warn(ctx, "completion failed", "error", err)
		}
		return "", fmt.Errorf("%w: %w", common.ErrRemoteCallFailed, err)
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return "", fmt.Errorf("%w: empty completion", common.ErrRemoteCallFailed)
	}
	return text, nil
}

// Complete is TryComplete that answers Fallback instead of an error.
func (a *Adapter) Complete(ctx context.Context, prompt string) string {
	text, err := a.TryComplete(ctx, prompt)
	if err != nil {
		return Fallback
	}
	return text
}
