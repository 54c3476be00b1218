// Package auth logs the operator in against the shop API and keeps the
// resulting bearer token in a session store.
package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/rs/zerolog"

	"shop-admin/internal/apiclient"
	"shop-admin/internal/model"
	"shop-admin/internal/session"
)

// API paths used by the service.
const (
	LoginPath   = "/api/auth/login"
	ProfilePath = "/api/auth/profile"
)

// ErrLoginRejected is returned when the server refuses the credentials.
var ErrLoginRejected = errors.New("login rejected")

// Service handles login, profile and logout.
type Service struct {
	api      apiclient.Doer
	sessions session.Store
	logger   zerolog.Logger
}

// NewService creates an auth service. The api Doer must read its token from
// sessions.
func NewService(api apiclient.Doer, sessions session.Store, logger zerolog.Logger) *Service {
	return &Service{
		api:      api,
		sessions: sessions,
		logger:   logger.With().Str("component", "auth").Logger(),
	}
}

// Login exchanges credentials for a token, stores the session and returns
// the operator's profile.
func (s *Service) Login(ctx context.Context, username, password string) (*model.User, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, model.NewValidationError("username", "username is required")
	}
	if password == "" {
		return nil, model.NewValidationError("password", "password is required")
	}

	resp, err := s.api.Do(ctx, apiclient.Request{
		Method: http.MethodPost,
		Path:   LoginPath,
		Body:   model.LoginRequest{Username: username, Password: password},
	})
	if err != nil {
		if apiclient.StatusOf(err) == http.StatusUnauthorized {
			return nil, fmt.Errorf("%w: %s", ErrLoginRejected, model.ErrInvalidCredentials.Message)
		}
		return nil, err
	}

	var login model.LoginResponse
	if err := resp.Decode(&login); err != nil {
		return nil, err
	}
	if !login.Success || login.Token == "" {
		msg := login.Message
		if msg == "" {
			msg = "login failed"
		}
		return nil, fmt.Errorf("%w: %s", ErrLoginRejected, msg)
	}

	if err := s.sessions.Save(session.Session{Token: login.Token, Username: username}); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}
	s.logger.Info().Str("username", username).Msg("operator logged in")

	user, err := s.Profile(ctx)
	if err != nil {
		if login.User == nil {
			return nil, fmt.Errorf("fetch profile: %w", err)
		}
		s.logger.Warn().Err(err).Msg("profile unavailable, using login payload")
		return login.User, nil
	}
	return user, nil
}

// Profile fetches the authenticated operator.
func (s *Service) Profile(ctx context.Context) (*model.User, error) {
	if !s.sessions.Current().Authenticated() {
		return nil, session.ErrNoSession
	}
	resp, err := s.api.Do(ctx, apiclient.Request{Method: http.MethodGet, Path: ProfilePath})
	if err != nil {
		return nil, err
	}
	var user model.User
	if err := resp.Decode(&user); err != nil {
		return nil, err
	}
	return &user, nil
}

// Restore validates a persisted session. A session the server rejects is
// cleared.
func (s *Service) Restore(ctx context.Context) (*model.User, error) {
	user, err := s.Profile(ctx)
	if err == nil {
		return user, nil
	}
	if errors.Is(err, session.ErrNoSession) {
		return nil, err
	}
	if status := apiclient.StatusOf(err); status == http.StatusUnauthorized || status == http.StatusForbidden {
		if clearErr := s.sessions.Clear(); clearErr != nil {
			return nil, fmt.Errorf("clear session: %w", clearErr)
		}
		s.logger.Info().Msg("stored session rejected, cleared")
		return nil, session.ErrNoSession
	}
	return nil, err
}

// Logout forgets the session.
func (s *Service) Logout() error {
	if err := s.sessions.Clear(); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	s.logger.Info().Msg("operator logged out")
	return nil
}
