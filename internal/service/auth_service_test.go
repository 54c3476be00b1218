package service

import (
	"context"
	"testing"
	"time"

	"shop-admin/internal/config"
	"shop-admin/internal/model"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testOperator() config.OperatorConfig {
	return config.OperatorConfig{Username: "admin", Password: "s3cret", Email: "admin@shop.test", TokenTTL: time.Hour}
}

func TestAuthService_Login(t *testing.T) {
	tests := []struct {
		name     string
		req      model.LoginRequest
		wantOK   bool
		wantUser string
	}{
		{name: "valid credentials", req: model.LoginRequest{Username: "admin", Password: "s3cret"}, wantOK: true, wantUser: "admin"},
		{name: "username is trimmed", req: model.LoginRequest{Username: " admin ", Password: "s3cret"}, wantOK: true, wantUser: "admin"},
		{name: "wrong password", req: model.LoginRequest{Username: "admin", Password: "nope"}},
		{name: "unknown user", req: model.LoginRequest{Username: "root", Password: "s3cret"}},
		{name: "empty", req: model.LoginRequest{}},
	}

	svc := NewAuthService(testOperator(), zerolog.Nop())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := svc.Login(context.Background(), tt.req)
			require.NotNil(t, resp)
			if !tt.wantOK {
				assert.ErrorIs(t, err, model.ErrInvalidCredentials)
				assert.False(t, resp.Success)
				assert.Empty(t, resp.Token)
				assert.NotEmpty(t, resp.Message)
				return
			}
			require.NoError(t, err)
			assert.True(t, resp.Success)
			assert.NotEmpty(t, resp.Token)
			require.NotNil(t, resp.User)
			assert.Equal(t, tt.wantUser, resp.User.Username)
			assert.Equal(t, "admin@shop.test", resp.User.Email)
		})
	}
}

func TestAuthService_AuthenticateAndLogout(t *testing.T) {
	svc := NewAuthService(testOperator(), zerolog.Nop())

	resp, err := svc.Login(context.Background(), model.LoginRequest{Username: "admin", Password: "s3cret"})
	require.NoError(t, err)

	user, err := svc.Authenticate(resp.Token)
	require.NoError(t, err)
	assert.Equal(t, "admin", user.Username)

	_, err = svc.Authenticate("")
	assert.ErrorIs(t, err, model.ErrUnauthorised)
	_, err = svc.Authenticate("not-a-token")
	assert.ErrorIs(t, err, model.ErrUnauthorised)

	svc.Logout(resp.Token)
	_, err = svc.Authenticate(resp.Token)
	assert.ErrorIs(t, err, model.ErrUnauthorised)
}

func TestAuthService_TokensExpire(t *testing.T) {
	op := testOperator()
	op.TokenTTL = 20 * time.Millisecond
	svc := NewAuthService(op, zerolog.Nop())

	resp, err := svc.Login(context.Background(), model.LoginRequest{Username: "admin", Password: "s3cret"})
	require.NoError(t, err)

	assert.Eventually(t, func() bool {
		_, err := svc.Authenticate(resp.Token)
		return err != nil
	}, time.Second, 10*time.Millisecond)
}
