package service

import (
	"context"
	"crypto/subtle"
	"strings"
	"time"

	"shop-admin/internal/config"
	"shop-admin/internal/model"

	"github.com/google/uuid"
	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/rs/zerolog"
)

// maxSessions bounds the number of live tokens; the oldest is evicted first.
const maxSessions = 1024

// authService implements AuthService for the single configured operator.
type authService struct {
	operator config.OperatorConfig
	tokens   *expirable.LRU[string, model.User]
	logger   zerolog.Logger
}

// NewAuthService creates an auth service issuing tokens that expire after
// operator.TokenTTL.
func NewAuthService(operator config.OperatorConfig, logger zerolog.Logger) AuthService {
	ttl := operator.TokenTTL
	if ttl <= 0 {
		ttl = 8 * time.Hour
	}
	return &authService{
		operator: operator,
		tokens:   expirable.NewLRU[string, model.User](maxSessions, nil, ttl),
		logger:   logger.With().Str("service", "auth").Logger(),
	}
}

// Login checks the credentials and issues a bearer token. Rejected
// credentials return a failed response together with ErrInvalidCredentials.
func (s *authService) Login(ctx context.Context, req model.LoginRequest) (*model.LoginResponse, error) {
	username := strings.TrimSpace(req.Username)
	userOK := subtle.ConstantTimeCompare([]byte(username), []byte(s.operator.Username)) == 1
	passOK := subtle.ConstantTimeCompare([]byte(req.Password), []byte(s.operator.Password)) == 1
	if !userOK || !passOK {
		s.logger.Warn().Str("username", username).Msg("login rejected")
		return &model.LoginResponse{
			Success: false,
			Message: model.ErrInvalidCredentials.Message,
		}, model.ErrInvalidCredentials
	}

	user := s.profile()
	token := uuid.NewString()
	s.tokens.Add(token, user)

	s.logger.Info().Str("username", username).Msg("operator logged in")
	return &model.LoginResponse{
		Success: true,
		Message: "login successful",
		Token:   token,
		User:    &user,
	}, nil
}

// Authenticate resolves a bearer token to its operator.
func (s *authService) Authenticate(token string) (*model.User, error) {
	if token == "" {
		return nil, model.ErrUnauthorised
	}
	user, ok := s.tokens.Get(token)
	if !ok {
		return nil, model.ErrUnauthorised
	}
	return &user, nil
}

// Logout revokes a token.
func (s *authService) Logout(token string) {
	s.tokens.Remove(token)
}

func (s *authService) profile() model.User {
	return model.User{
		UserID:   1,
		Username: s.operator.Username,
		Email:    s.operator.Email,
		Role:     "Admin",
	}
}
