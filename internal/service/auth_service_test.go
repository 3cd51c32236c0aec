package service

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/tankermike11/staycation-journal/internal/models"
	appErrors "github.com/tankermike11/staycation-journal/pkg/errors"
)

func newTestAuthService(t *testing.T) *AuthService {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("correct horse"), bcrypt.MinCost)
	require.NoError(t, err)
	return NewAuthService(nil, zap.NewNop(), AuthConfig{
		AccessTokenSecret: "secret",
		AccessTokenExpiry: time.Hour,
		Issuer:            "staycation-journal",
		OwnerEmail:        "owner@example.com",
		OwnerPasswordHash: string(hash),
	})
}

func TestAuthServiceLoginSuccess(t *testing.T) {
	svc := newTestAuthService(t)

	res, err := svc.Login(context.Background(), models.LoginRequest{Email: "Owner@Example.com", Password: "correct horse"})
	require.NoError(t, err)
	assert.NotEmpty(t, res.AccessToken)
	assert.Equal(t, "Bearer", res.TokenType)
	assert.Equal(t, int64(3600), res.ExpiresIn)
	assert.Equal(t, "owner@example.com", res.Email)
}

func TestAuthServiceLoginRejected(t *testing.T) {
	svc := newTestAuthService(t)
	cases := []models.LoginRequest{
		{Email: "owner@example.com", Password: "wrong"},
		{Email: "intruder@example.com", Password: "correct horse"},
	}
	for _, req := range cases {
		_, err := svc.Login(context.Background(), req)
		require.Error(t, err)
		assert.Equal(t, appErrors.ErrInvalidCredentials.Code, appErrors.FromError(err).Code)
	}

	_, err := svc.Login(context.Background(), models.LoginRequest{Email: "not-an-email", Password: "x"})
	assert.True(t, appErrors.Is(err, appErrors.ErrValidation))
}

func TestAuthServiceLoginWithoutConfiguredOwner(t *testing.T) {
	svc := NewAuthService(nil, nil, AuthConfig{AccessTokenSecret: "secret"})

	_, err := svc.Login(context.Background(), models.LoginRequest{Email: "owner@example.com", Password: "x"})
	assert.True(t, appErrors.Is(err, appErrors.ErrInvalidCredentials))
}

func TestValidateToken(t *testing.T) {
	svc := newTestAuthService(t)
	res, err := svc.Login(context.Background(), models.LoginRequest{Email: "owner@example.com", Password: "correct horse"})
	require.NoError(t, err)

	claims, err := svc.ValidateToken(res.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "owner@example.com", claims.Email)
	assert.Equal(t, "staycation-journal", claims.Issuer)

	_, err = svc.ValidateToken(res.AccessToken + "x")
	assert.True(t, appErrors.Is(err, appErrors.ErrUnauthorized))
}

func TestValidateTokenExpired(t *testing.T) {
	svc := newTestAuthService(t)
	res, err := svc.Login(context.Background(), models.LoginRequest{Email: "owner@example.com", Password: "correct horse"})
	require.NoError(t, err)

	svc.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	_, err = svc.ValidateToken(res.AccessToken)
	assert.True(t, appErrors.Is(err, appErrors.ErrUnauthorized))
}

func TestValidateTokenRejectsForeignSubject(t *testing.T) {
	svc := newTestAuthService(t)
	claims := &models.JWTClaims{
		Email: "someone@example.com",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("secret"))
	require.NoError(t, err)

	_, err = svc.ValidateToken(signed)
	assert.True(t, appErrors.Is(err, appErrors.ErrUnauthorized))
}
