package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/pagewatch/internal/client/client"
	"github.com/dmitrijs2005/pagewatch/internal/common"
)

var errNoSession = fmt.Errorf("%w: no active session", common.ErrPreconditionFailed)

// report prints a user-facing message for err, logs it and returns it
// unchanged.
func (a *App) report(ctx context.Context, action string, err error) error {
	a.logger.Warn(ctx, action+" failed", "error", err)

	switch {
	case errors.Is(err, common.ErrValidationFailed):
		fmt.Fprintf(a.out, "Invalid input: %v\n", err)
	case errors.Is(err, common.ErrPreconditionFailed):
		fmt.Fprintln(a.out, "Sign in first (signin or login).")
	case errors.Is(err, common.ErrConfigurationMissing):
		fmt.Fprintf(a.out, "Not configured: %v\n", err)
	case errors.Is(err, client.ErrUnavailable):
		fmt.Fprintln(a.out, "Server unavailable, try again later.")
	case errors.Is(err, common.ErrorNotFound):
		fmt.Fprintf(a.out, "Not found: %v\n", err)
	case errors.Is(err, common.ErrorUnauthorized), errors.Is(err, common.ErrTokenExpired):
		fmt.Fprintln(a.out, "Your session is no longer valid. Sign in again.")
	case errors.Is(err, common.ErrPermissionDenied):
		fmt.Fprintln(a.out, "Permission denied.")
	default:
		fmt.Fprintf(a.out, "Error: %v\n", err)
	}
	return err
}
