// Package session owns the authenticated identity of the running client.
// The current user is only ever changed through Init, Login and Logout, or
// torn down when the API reports 401; everything else reads it through
// Current or Require.
package session

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/sirupsen/logrus"

	"github.com/nhle/facultyflow/internal/api"
	"github.com/nhle/facultyflow/internal/credential"
	"github.com/nhle/facultyflow/internal/logging"
	"github.com/nhle/facultyflow/internal/model"
)

var (
	// ErrNotAuthenticated means there is no valid session; callers should
	// send the user to the login view.
	ErrNotAuthenticated = errors.New("not authenticated")

	// ErrMissingCredentials is returned by Login before any request when
	// email or password is blank.
	ErrMissingCredentials = errors.New("Please enter your email and password")
)

// ForbiddenError is returned by Require when the user's role may not
// access the requested area.
type ForbiddenError struct {
	Role  model.Role
	Route Route
}

func (e *ForbiddenError) Error() string {
	return fmt.Sprintf("role %s may not access %s", e.Role, e.Route)
}

// Event is a session lifecycle change.
type Event int

const (
	EventLoggedIn Event = iota
	EventLoggedOut
	// EventExpired fires when the backend rejected the stored token.
	EventExpired
)

func (e Event) String() string {
	switch e {
	case EventLoggedIn:
		return "logged-in"
	case EventLoggedOut:
		return "logged-out"
	case EventExpired:
		return "expired"
	}
	return "unknown"
}

// Backend is the part of the API client the session needs.
type Backend interface {
	Login(ctx context.Context, email, password string) (string, error)
	Me(ctx context.Context) (model.User, error)
	OnUnauthorized(fn func())
}

// Provider holds the current user.
type Provider struct {
	backend Backend
	tokens  credential.Store
	now     func() time.Time

	mu        sync.RWMutex
	user      *model.User
	listeners []func(Event)
}

// New creates a provider and subscribes it to the backend's 401 hook.
func New(backend Backend, tokens credential.Store) *Provider {
	p := &Provider{
		backend: backend,
		tokens:  tokens,
		now:     time.Now,
	}
	backend.OnUnauthorized(p.expire)
	return p
}

// Subscribe registers fn for lifecycle events. fn runs on the goroutine
// that caused the change.
func (p *Provider) Subscribe(fn func(Event)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.listeners = append(p.listeners, fn)
}

// Init restores a session from the persisted token. A missing, expired or
// rejected token leaves the provider signed out and is not an error; only
// failures that say nothing about the token (network, 5xx) are returned.
func (p *Provider) Init(ctx context.Context) error {
	token, err := p.tokens.Get(credential.TokenKey)
	if errors.Is(err, credential.ErrNotFound) || (err == nil && token == "") {
		p.setUser(nil)
		return nil
	}
	if err != nil {
		return fmt.Errorf("reading stored token: %w", err)
	}

	if expired(token, p.now()) {
		logging.Logger.Info("stored token expired, signing out")
		p.clearToken()
		p.setUser(nil)
		return nil
	}

	user, err := p.backend.Me(ctx)
	if err != nil {
		// A 401 has already cleared the token through the client hook.
		if api.IsUnauthorized(err) {
			return nil
		}
		return fmt.Errorf("validating stored token: %w", err)
	}

	p.setUser(&user)
	logging.Logger.WithFields(logrus.Fields{
		"user": user.Email,
		"role": user.Role,
	}).Info("session restored")
	return nil
}

// Login exchanges credentials for a token, persists it and loads the user.
func (p *Provider) Login(ctx context.Context, email, password string) (model.User, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return model.User{}, ErrMissingCredentials
	}

	token, err := p.backend.Login(ctx, email, password)
	if err != nil {
		return model.User{}, err
	}
	if err := p.tokens.Set(credential.TokenKey, token); err != nil {
		return model.User{}, fmt.Errorf("storing token: %w", err)
	}

	user, err := p.backend.Me(ctx)
	if err != nil {
		p.clearToken()
		return model.User{}, err
	}

	p.setUser(&user)
	logging.Logger.WithFields(logrus.Fields{
		"user": user.Email,
		"role": user.Role,
	}).Info("logged in")
	p.emit(EventLoggedIn)
	return user, nil
}

// Logout forgets the token and the user.
func (p *Provider) Logout() error {
	err := p.tokens.Delete(credential.TokenKey)
	p.setUser(nil)
	p.emit(EventLoggedOut)
	if err != nil {
		return fmt.Errorf("deleting token: %w", err)
	}
	return nil
}

// Current returns a copy of the signed-in user.
func (p *Provider) Current() (model.User, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.user == nil {
		return model.User{}, false
	}
	return *p.user, true
}

// Authenticated reports whether a user is signed in.
func (p *Provider) Authenticated() bool {
	_, ok := p.Current()
	return ok
}

// Require returns the current user if one is signed in and may open route.
func (p *Provider) Require(route Route) (model.User, error) {
	user, ok := p.Current()
	if !ok {
		return model.User{}, ErrNotAuthenticated
	}
	if !CanAccess(user.Role, route) {
		return model.User{}, &ForbiddenError{Role: user.Role, Route: route}
	}
	return user, nil
}

func (p *Provider) expire() {
	p.mu.Lock()
	had := p.user != nil
	p.user = nil
	p.mu.Unlock()

	if had {
		logging.Logger.Warn("session expired, token rejected by server")
		p.emit(EventExpired)
	}
}

func (p *Provider) setUser(u *model.User) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.user = u
}

func (p *Provider) clearToken() {
	if err := p.tokens.Delete(credential.TokenKey); err != nil {
		logging.Logger.WithError(err).Warn("clearing stored token")
	}
}

func (p *Provider) emit(e Event) {
	p.mu.RLock()
	ls := append([]func(Event){}, p.listeners...)
	p.mu.RUnlock()
	for _, fn := range ls {
		fn(e)
	}
}

// expired reports whether token is a JWT whose exp claim has passed.
// The signature is not checked; the server remains the authority and
// opaque tokens are passed through to /auth/me.
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

// TokenSubject returns the numeric sub claim of an unverified JWT. It lets
// offline commands find the viewer's cache without reaching the server.
func TokenSubject(token string) (int64, bool) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return 0, false
	}
	sub, err := claims.GetSubject()
	if err != nil || sub == "" {
		return 0, false
	}
	id, err := strconv.ParseInt(sub, 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}
