package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajharbinger/partnex-scoring/internal/auth"
	"github.com/ajharbinger/partnex-scoring/internal/errors"
	"github.com/ajharbinger/partnex-scoring/internal/logger"
	"github.com/ajharbinger/partnex-scoring/internal/models"
)

func newTestAuthService(m *mockRepos) (AuthService, *auth.JWTService) {
	jwtSvc := auth.NewJWTService("test-secret", time.Hour)
	return newAuthService(m.Repositories, jwtSvc, logger.NewNop()), jwtSvc
}

func TestAuthService_Register(t *testing.T) {
	m := newMockRepos()
	svc, jwtSvc := newTestAuthService(m)

	resp, err := svc.Register(context.Background(), models.RegisterRequest{
		Email:    "  Owner@Acme.CO ",
		Password: " Str0ng!pass ",
		Role:     " SME ",
	})
	require.NoError(t, err)

	assert.Equal(t, "owner@acme.co", resp.User.Email)
	assert.Equal(t, "sme", resp.User.Role)
	assert.True(t, auth.CheckPassword("Str0ng!pass", m.users.users["owner@acme.co"].PasswordHash))

	claims, err := jwtSvc.ValidateToken(resp.Token)
	require.NoError(t, err)
	assert.Equal(t, resp.User.ID, claims.UserID)
	assert.Equal(t, "sme", claims.Role)
}

func TestAuthService_RegisterValidation(t *testing.T) {
	tests := []struct {
		name    string
		req     models.RegisterRequest
		wantMsg string
	}{
		{"missing email", models.RegisterRequest{Password: "Str0ng!pass", Role: "sme"}, "Email is required"},
		{"bad email", models.RegisterRequest{Email: "nope", Password: "Str0ng!pass", Role: "sme"}, "Invalid email address"},
		{"weak password", models.RegisterRequest{Email: "a@b.co", Password: "weak", Role: "sme"}, "Password must be at least 8 characters"},
		{"missing role", models.RegisterRequest{Email: "a@b.co", Password: "Str0ng!pass"}, "Role is required"},
		{"unknown role", models.RegisterRequest{Email: "a@b.co", Password: "Str0ng!pass", Role: "banker"}, "role must be sme, investor, or admin"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _ := newTestAuthService(newMockRepos())
			_, err := svc.Register(context.Background(), tt.req)
			require.Error(t, err)
			assert.Equal(t, errors.ErrCodeValidationError, errors.CodeOf(err))
			assert.Equal(t, tt.wantMsg, errors.PublicMessage(err))
		})
	}
}

func TestAuthService_RegisterDuplicateEmail(t *testing.T) {
	m := newMockRepos()
	svc, _ := newTestAuthService(m)
	req := models.RegisterRequest{Email: "dup@acme.co", Password: "Str0ng!pass", Role: "investor"}

	_, err := svc.Register(context.Background(), req)
	require.NoError(t, err)

	_, err = svc.Register(context.Background(), req)
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeConflict, errors.CodeOf(err))
	assert.Equal(t, "Email already in use", errors.PublicMessage(err))
}

func TestAuthService_RegisterDatabaseFailure(t *testing.T) {
	m := newMockRepos()
	m.users.createErr = errDBDown
	svc, _ := newTestAuthService(m)

	_, err := svc.Register(context.Background(), models.RegisterRequest{Email: "a@b.co", Password: "Str0ng!pass", Role: "sme"})
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeDatabaseError, errors.CodeOf(err))
	assert.ErrorIs(t, err, errDBDown)
}

func TestAuthService_Login(t *testing.T) {
	m := newMockRepos()
	svc, _ := newTestAuthService(m)
	_, err := svc.Register(context.Background(), models.RegisterRequest{Email: "inv@fund.co", Password: "Str0ng!pass", Role: "investor"})
	require.NoError(t, err)

	resp, err := svc.Login(context.Background(), models.LoginRequest{Email: "INV@fund.co", Password: "Str0ng!pass "})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.Token)
	assert.Equal(t, "investor", resp.User.Role)
	assert.False(t, resp.ExpiresAt.IsZero())

	tests := []struct {
		name     string
		req      models.LoginRequest
		wantCode string
		wantMsg  string
	}{
		{"wrong password", models.LoginRequest{Email: "inv@fund.co", Password: "Wr0ng!pass"}, errors.ErrCodeUnauthorized, "Invalid credentials"},
		{"unknown user", models.LoginRequest{Email: "ghost@fund.co", Password: "Str0ng!pass"}, errors.ErrCodeUnauthorized, "Invalid credentials"},
		{"blank password", models.LoginRequest{Email: "inv@fund.co", Password: "   "}, errors.ErrCodeValidationError, "Password is required"},
		{"bad email", models.LoginRequest{Email: "inv", Password: "Str0ng!pass"}, errors.ErrCodeValidationError, "Invalid email address"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Login(context.Background(), tt.req)
			require.Error(t, err)
			assert.Equal(t, tt.wantCode, errors.CodeOf(err))
			assert.Equal(t, tt.wantMsg, errors.PublicMessage(err))
		})
	}
}
