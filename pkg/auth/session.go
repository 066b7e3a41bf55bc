// Package auth manages the signed-in identity and tells interested components when it changes.
package auth

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/dukex/flowcanvas/pkg/models"
	"github.com/go-playground/validator/v10"
)

// API is the part of the service used for authentication.
type API interface {
	Login(ctx context.Context, email, password string) (*models.AuthResponse, error)
	Register(ctx context.Context, email, password string) (*models.AuthResponse, error)
	Verify(ctx context.Context) (*models.VerifyResponse, error)
}

type Event string

const (
	EventLogin    Event = "login"
	EventRegister Event = "register"
	EventRestore  Event = "restore"
	EventLogout   Event = "logout"
)

// IdentityListener is called after every identity change. user is nil after logout.
type IdentityListener func(event Event, user *models.User)

// Session tracks the signed-in user and notifies listeners when the identity changes.
type Session struct {
	api      API
	tokens   TokenStore
	logger   *slog.Logger
	validate *validator.Validate

	mu        sync.Mutex
	user      *models.User
	err       error
	listeners []IdentityListener
}

// NewSession creates a signed-out session. Call Restore to pick up a saved token.
func NewSession(api API, tokens TokenStore, logger *slog.Logger) *Session {
	return &Session{
		api:      api,
		tokens:   tokens,
		logger:   logger.With("module", "auth"),
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
}

// OnIdentityChange registers fn. Listeners run synchronously, in registration order, before the
// triggering call returns.
func (s *Session) OnIdentityChange(fn IdentityListener) {
	s.mu.Lock()
	s.listeners = append(s.listeners, fn)
	s.mu.Unlock()
}

// User returns the signed-in user, or nil.
func (s *Session) User() *models.User {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.user == nil {
		return nil
	}

	u := *s.user

	return &u
}

func (s *Session) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.err
}

func (s *Session) ClearError() {
	s.mu.Lock()
	s.err = nil
	s.mu.Unlock()
}

func (s *Session) Login(ctx context.Context, email, password string) (*models.User, error) {
	if strings.TrimSpace(email) == "" || password == "" {
		return nil, s.fail(ErrMissingCredentials)
	}

	return s.authenticate(ctx, EventLogin, email, password, s.api.Login)
}

func (s *Session) Register(ctx context.Context, email, password string) (*models.User, error) {
	if err := s.validate.Struct(models.Credentials{Email: email, Password: password}); err != nil {
		return nil, s.fail(fmt.Errorf("%w: %w", ErrInvalidCredentials, err))
	}

	return s.authenticate(ctx, EventRegister, email, password, s.api.Register)
}

// CheckPasswordConfirmation compares a registration password with its confirmation.
func CheckPasswordConfirmation(password, confirmation string) error {
	if password != confirmation {
		return ErrPasswordMismatch
	}

	return nil
}

type authFunc func(ctx context.Context, email, password string) (*models.AuthResponse, error)

func (s *Session) authenticate(ctx context.Context, event Event, email, password string, call authFunc) (*models.User, error) {
	s.ClearError()

	resp, err := call(ctx, email, password)
	if err != nil {
		s.logger.Debug("Authentication failed", "event", event, "error", err)
		return nil, s.fail(err)
	}

	if err := s.tokens.Save(resp.AccessToken); err != nil {
		return nil, s.fail(err)
	}

	user := resp.User
	s.setUser(event, &user)
	s.logger.Info("Signed in", "event", event, "user_id", user.ID)

	return &user, nil
}

// Restore verifies a stored token and, when valid, re-establishes its identity. It returns
// nil, nil when no token is stored. An invalid token is removed.
func (s *Session) Restore(ctx context.Context) (*models.User, error) {
	if s.tokens.Token() == "" {
		return nil, nil
	}

	resp, err := s.api.Verify(ctx)
	if err == nil && (!resp.Valid || resp.User == nil) {
		err = ErrInvalidToken
	}

	if err != nil {
		s.logger.Debug("Token validation failed", "error", err)

		if clearErr := s.tokens.Clear(); clearErr != nil {
			s.logger.Error("Failed to clear token", "error", clearErr)
		}

		return nil, err
	}

	user := *resp.User
	s.setUser(EventRestore, &user)

	return &user, nil
}

// Logout forgets the token and the user.
func (s *Session) Logout() error {
	err := s.tokens.Clear()

	s.mu.Lock()
	s.err = nil
	s.mu.Unlock()

	s.setUser(EventLogout, nil)
	s.logger.Info("Signed out")

	return err
}

func (s *Session) setUser(event Event, user *models.User) {
	s.mu.Lock()
	s.user = user
	if user != nil {
		s.err = nil
	}
	listeners := make([]IdentityListener, len(s.listeners))
	copy(listeners, s.listeners)
	s.mu.Unlock()

	for _, l := range listeners {
		if user == nil {
			l(event, nil)
			continue
		}

		u := *user
		l(event, &u)
	}
}

func (s *Session) fail(err error) error {
	s.mu.Lock()
	s.err = err
	s.mu.Unlock()

	return err
}
