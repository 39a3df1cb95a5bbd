package cli

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/dmitrijs2005/pagewatch/internal/client/client"
	"github.com/dmitrijs2005/pagewatch/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/pagewatch/internal/common"
	"github.com/dmitrijs2005/pagewatch/internal/models"
)

// getSimpleText and getSecret are indirections used to facilitate testing.
// They point to interactive input helpers and can be swapped in tests.
var getSimpleText = GetSimpleText
var getSecret = GetSecret

// SignIn starts an anonymous session. If the server cannot be reached the
// client stays offline and the cached list remains available.
func (a *App) SignIn(ctx context.Context) error {
	a.signOutQuietly()

	id, err := a.session.SignInAnonymous(ctx)
	if err != nil {
		return a.signInFailed(ctx, err)
	}
	a.signedIn(ctx, id)
	return nil
}

// Resume signs the previous user back in with the refresh token kept in
// the cache. Without one, or when the server rejects it, a new anonymous
// session is started instead.
func (a *App) Resume(ctx context.Context) error {
	token, anonymous := a.storedSession(ctx)
	if token == "" {
		return a.SignIn(ctx)
	}

	id, err := a.session.Resume(ctx, token)
	if err == nil {
		a.signedIn(ctx, id)
		return nil
	}
	if errors.Is(err, client.ErrUnavailable) {
		return a.signInFailed(ctx, err)
	}

	a.logger.Warn(ctx, "resume session", "error", err)
	a.forgetSession(ctx)
	if !anonymous {
		fmt.Fprintln(a.out, "Previous token session has expired, use 'login' to sign in again.")
	}
	return a.SignIn(ctx)
}

// Login prompts for a custom token without echo and signs in with it.
func (a *App) Login(ctx context.Context) error {
	token, err := getSecret("Enter sign-in token", a.out)
	if err != nil {
		return a.report(ctx, "read token", err)
	}
	if token == "" {
		fmt.Fprintln(a.out, "No token entered.")
		return fmt.Errorf("%w: empty token", common.ErrValidationFailed)
	}

	a.signOutQuietly()

	id, err := a.session.SignInWithToken(ctx, token)
	if err != nil {
		return a.signInFailed(ctx, err)
	}
	a.signedIn(ctx, id)
	return nil
}

// Logout ends the session and clears locally cached data.
func (a *App) Logout(ctx context.Context) error {
	owner := a.session.UserID()
	if owner == "" {
		fmt.Fprintln(a.out, "Not signed in.")
		return nil
	}

	a.session.SignOut()

	if a.cache != nil {
		if err := a.cache.Snapshots.Delete(ctx, owner); err != nil {
			a.logger.Warn(ctx, "clear cached snapshot", "error", err)
		}
		if err := a.cache.Metadata.Clear(ctx); err != nil {
			a.logger.Warn(ctx, "clear cache metadata", "error", err)
		}
	}

	fmt.Fprintln(a.out, "Signed out.")
	return nil
}

func (a *App) signOutQuietly() {
	if a.isLoggedIn() {
		a.session.SignOut()
	}
}

func (a *App) signedIn(ctx context.Context, id *models.Identity) {
	a.setMode(ModeOnline)

	kind := "with token"
	if id.Anonymous {
		kind = "anonymously"
	}
	fmt.Fprintf(a.out, "Signed in %s as %s\n", kind, id.UserID)

	a.rememberSession(ctx, *id)
}

// rememberSession stores what Resume needs on the next start.
func (a *App) rememberSession(ctx context.Context, id models.Identity) {
	if a.cache == nil || id.RefreshToken == "" {
		return
	}
	if err := a.cache.Metadata.Set(ctx, metadata.KeyRefreshToken, id.RefreshToken); err != nil {
		a.logger.Warn(ctx, "remember refresh token", "error", err)
	}
	if err := a.cache.Metadata.Set(ctx, metadata.KeyLastAnonymous, strconv.FormatBool(id.Anonymous)); err != nil {
		a.logger.Warn(ctx, "remember sign-in kind", "error", err)
	}
}

func (a *App) storedSession(ctx context.Context) (token string, anonymous bool) {
	if a.cache == nil {
		return "", false
	}
	token, _, err := a.cache.Metadata.Get(ctx, metadata.KeyRefreshToken)
	if err != nil {
		a.logger.Warn(ctx, "read refresh token", "error", err)
		return "", false
	}
	v, _, _ := a.cache.Metadata.Get(ctx, metadata.KeyLastAnonymous)
	anonymous, _ = strconv.ParseBool(v)
	return token, anonymous
}

func (a *App) forgetSession(ctx context.Context) {
	if a.cache == nil {
		return
	}
	if err := a.cache.Metadata.Delete(ctx, metadata.KeyRefreshToken); err != nil {
		a.logger.Warn(ctx, "forget refresh token", "error", err)
	}
}

func (a *App) signInFailed(ctx context.Context, err error) error {
	if errors.Is(err, client.ErrUnavailable) {
		a.setMode(ModeOffline)
		fmt.Fprintln(a.out, "Server unavailable, working offline. 'list' shows the last cached monitors.")
		a.logger.Warn(ctx, "sign-in failed", "error", err)
		return err
	}
	return a.report(ctx, "sign-in", err)
}
