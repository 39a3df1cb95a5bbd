// Package session is the identity provider adapter of the client. A
// Session owns the signed-in identity for the life of the process and
// tells listeners whenever it changes.
package session

import (
	"context"
	"sync"

	"github.com/dmitrijs2005/pagewatch/internal/models"
)

// Authenticator is the slice of the remote client a session needs.
type Authenticator interface {
	SignInAnonymous(ctx context.Context) (*models.Identity, error)
	SignInWithToken(ctx context.Context, token string) (*models.Identity, error)
	Resume(ctx context.Context, refreshToken string) (*models.Identity, error)
	SetTokens(accessToken, refreshToken string)
	OnTokensRefreshed(fn func(accessToken, refreshToken string))
}

// Listener receives the new identity, or nil after sign-out.
type Listener func(*models.Identity)

type Session struct {
	auth Authenticator

	mu        sync.Mutex
	current   *models.Identity
	listeners map[int]Listener
	nextID    int
	rotated   func(models.Identity)
}

func New(auth Authenticator) *Session {
	s := &Session{auth: auth, listeners: map[int]Listener{}}
	auth.OnTokensRefreshed(s.tokensRefreshed)
	return s
}

func (s *Session) tokensRefreshed(accessToken, refreshToken string) {
	s.mu.Lock()
	if s.current == nil {
		s.mu.Unlock()
		return
	}
	next := *s.current
	next.AccessToken = accessToken
	next.RefreshToken = refreshToken
	s.current = &next
	fn := s.rotated
	s.mu.Unlock()

	if fn != nil {
		fn(next)
	}
}

// OnTokensRotated registers fn to receive the identity after its tokens
// were refreshed in the background. The user does not change.
func (s *Session) OnTokensRotated(fn func(models.Identity)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rotated = fn
}

func (s *Session) SignInAnonymous(ctx context.Context) (*models.Identity, error) {
	id, err := s.auth.SignInAnonymous(ctx)
	if err != nil {
		return nil, err
	}
	s.set(id)
	return id, nil
}

func (s *Session) SignInWithToken(ctx context.Context, token string) (*models.Identity, error) {
	id, err := s.auth.SignInWithToken(ctx, token)
	if err != nil {
		return nil, err
	}
	s.set(id)
	return id, nil
}

// Resume signs the previous user back in with a stored refresh token.
func (s *Session) Resume(ctx context.Context, refreshToken string) (*models.Identity, error) {
	id, err := s.auth.Resume(ctx, refreshToken)
	if err != nil {
		return nil, err
	}
	s.set(id)
	return id, nil
}

// SignOut drops the identity and its tokens. Signing out twice is fine.
func (s *Session) SignOut() {
	s.auth.SetTokens("", "")
	s.set(nil)
}

// Current returns a copy of the active identity.
func (s *Session) Current() (models.Identity, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return models.Identity{}, false
	}
	return *s.current, true
}

// UserID returns the active user id, or "" without a session.
func (s *Session) UserID() string {
	id, _ := s.Current()
	return id.UserID
}

// OnIdentityChange calls fn with the current identity right away and then
// after every sign-in and sign-out until the returned func is called.
func (s *Session) OnIdentityChange(fn Listener) (unsubscribe func()) {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = fn
	cur := s.current
	s.mu.Unlock()

	fn(cur)

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.listeners, id)
			s.mu.Unlock()
		})
	}
}

func (s *Session) set(id *models.Identity) {
	s.mu.Lock()
	prev := s.current
	s.current = id
	listeners := make([]Listener, 0, len(s.listeners))
	for _, l := range s.listeners {
		listeners = append(listeners, l)
	}
	s.mu.Unlock()

	if prev == nil && id == nil {
		return
	}
	for _, l := range listeners {
		l(id)
	}
}
