// Package session holds the signed-in identity and the pomodoro focus
// selection. Both are shared by every view and notify subscribers on change.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"github.com/sadopc/focusflow/internal/api"
)

type State int

const (
	StateLoading State = iota
	StateAuthenticated
	StateAnonymous
)

func (s State) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateAuthenticated:
		return "authenticated"
	case StateAnonymous:
		return "anonymous"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

var ErrNotSignedIn = errors.New("not signed in")

// TokenStore persists the bearer token between runs.
type TokenStore interface {
	Token() (string, error)
	SetToken(token string) error
	ClearToken() error
}

// Authenticator is the subset of the API client the session needs.
type Authenticator interface {
	Me(ctx context.Context) (api.User, error)
	Login(ctx context.Context, creds api.Credentials) (api.AuthResponse, error)
	Register(ctx context.Context, creds api.Credentials) (api.AuthResponse, error)
	UpdateDailyGoal(ctx context.Context, dailyGoal int) (api.User, error)
	UpdatePassword(ctx context.Context, current, next string) error
}

// Snapshot is an immutable view of the session.
type Snapshot struct {
	State State
	User  *api.User
}

func (s Snapshot) IsAdmin() bool {
	return s.User != nil && s.User.IsAdmin()
}

type Session struct {
	tokens TokenStore
	auth   Authenticator
	log    *zap.Logger
	now    func() time.Time

	mu    sync.Mutex
	state State
	user  *api.User
	subs  map[int]func(Snapshot)
	next  int
}

func New(tokens TokenStore, auth Authenticator, log *zap.Logger) *Session {
	if log == nil {
		log = zap.NewNop()
	}
	return &Session{
		tokens: tokens,
		auth:   auth,
		log:    log,
		now:    time.Now,
		state:  StateLoading,
		subs:   make(map[int]func(Snapshot)),
	}
}

func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Session) snapshotLocked() Snapshot {
	snap := Snapshot{State: s.state}
	if s.user != nil {
		u := *s.user
		snap.User = &u
	}
	return snap
}

// Subscribe registers fn for state changes and returns an unsubscribe func.
// fn runs on the goroutine that caused the change.
func (s *Session) Subscribe(fn func(Snapshot)) func() {
	s.mu.Lock()
	id := s.next
	s.next++
	s.subs[id] = fn
	s.mu.Unlock()
	return func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}
}

func (s *Session) set(state State, user *api.User) {
	s.mu.Lock()
	s.state = state
	s.user = user
	snap := s.snapshotLocked()
	subs := make([]func(Snapshot), 0, len(s.subs))
	for _, fn := range s.subs {
		subs = append(subs, fn)
	}
	s.mu.Unlock()

	for _, fn := range subs {
		fn(snap)
	}
}

// Start resolves the initial state from the stored token. An expired token
// is discarded without a network call; otherwise GET /auth/me decides.
func (s *Session) Start(ctx context.Context) Snapshot {
	token, err := s.tokens.Token()
	if err != nil {
		s.log.Warn("read stored token", zap.Error(err))
	}
	if token == "" {
		s.set(StateAnonymous, nil)
		return s.Snapshot()
	}
	if expired(token, s.now()) {
		s.log.Info("stored token expired")
		s.Logout()
		return s.Snapshot()
	}

	user, err := s.auth.Me(ctx)
	if err != nil {
		s.log.Warn("load user", zap.Error(err))
		s.Logout()
		return s.Snapshot()
	}
	s.set(StateAuthenticated, &user)
	return s.Snapshot()
}

// expired reports whether token carries an exp claim in the past. Tokens
// that are not JWTs or have no exp are left to the server to judge.
func expired(token string, now time.Time) bool {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return false
	}
	return !exp.After(now)
}

func (s *Session) Login(ctx context.Context, email, password string) (api.User, error) {
	res, err := s.auth.Login(ctx, api.Credentials{Email: email, Password: password})
	if err != nil {
		return api.User{}, err
	}
	return s.signIn(res)
}

func (s *Session) Register(ctx context.Context, email, password string) (api.User, error) {
	res, err := s.auth.Register(ctx, api.Credentials{Email: email, Password: password})
	if err != nil {
		return api.User{}, err
	}
	return s.signIn(res)
}

func (s *Session) signIn(res api.AuthResponse) (api.User, error) {
	if err := s.tokens.SetToken(res.Token); err != nil {
		return api.User{}, fmt.Errorf("store token: %w", err)
	}
	user := res.User
	s.set(StateAuthenticated, &user)
	s.log.Info("signed in", zap.String("user", user.Email))
	return user, nil
}

// Logout clears the token and the user.
func (s *Session) Logout() {
	if err := s.tokens.ClearToken(); err != nil {
		s.log.Warn("clear token", zap.Error(err))
	}
	s.set(StateAnonymous, nil)
}

// UpdateDailyGoal stores the daily pomodoro target on the profile. It is a
// no-op when signed out.
func (s *Session) UpdateDailyGoal(ctx context.Context, goal int) error {
	if s.Snapshot().State != StateAuthenticated {
		return nil
	}
	user, err := s.auth.UpdateDailyGoal(ctx, goal)
	if err != nil {
		s.log.Warn("update daily goal", zap.Error(err))
		return fmt.Errorf("update daily goal: %w", err)
	}
	s.set(StateAuthenticated, &user)
	return nil
}

func (s *Session) UpdatePassword(ctx context.Context, current, next string) error {
	if s.Snapshot().State != StateAuthenticated {
		return ErrNotSignedIn
	}
	return s.auth.UpdatePassword(ctx, current, next)
}
