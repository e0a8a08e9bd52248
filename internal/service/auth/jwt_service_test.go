package auth_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskhive/taskhive-api/internal/config"
	"github.com/taskhive/taskhive-api/internal/domain"
	"github.com/taskhive/taskhive-api/internal/service/auth"
)

const testSecret = "test-secret-key-thats-long-enough-for-hmac"

func TestJWTServiceRoundTrip(t *testing.T) {
	t.Parallel()

	svc := auth.NewTestJWTService(testSecret, 15*time.Minute, time.Now)
	userID := uuid.New()

	token, err := svc.GenerateToken(context.Background(), userID, domain.RoleUser)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := svc.ValidateToken(context.Background(), token)
	require.NoError(t, err)

	assert.Equal(t, userID, claims.UserID)
	assert.Equal(t, domain.RoleUser, claims.Role)
	assert.Equal(t, "access", claims.TokenType)
	assert.Equal(t, userID.String(), claims.Subject)
	assert.NotEmpty(t, claims.ID, "tokens should carry a unique jti")
}

func TestJWTServiceExpiry(t *testing.T) {
	t.Parallel()

	now := time.Now()
	current := now
	svc := auth.NewTestJWTService(testSecret, 15*time.Minute, func() time.Time { return current })

	token, err := svc.GenerateToken(context.Background(), uuid.New(), domain.RoleUser)
	require.NoError(t, err)

	// Still valid just before expiry.
	current = now.Add(14 * time.Minute)
	_, err = svc.ValidateToken(context.Background(), token)
	assert.NoError(t, err)

	// Expired afterwards.
	current = now.Add(16 * time.Minute)
	_, err = svc.ValidateToken(context.Background(), token)
	assert.ErrorIs(t, err, auth.ErrExpiredToken)
}

func TestJWTServiceRejectsWrongTokenType(t *testing.T) {
	t.Parallel()

	svc := auth.NewTestJWTService(testSecret, 15*time.Minute, time.Now)
	userID := uuid.New()

	accessToken, err := svc.GenerateToken(context.Background(), userID, domain.RoleUser)
	require.NoError(t, err)
	refreshToken, err := svc.GenerateRefreshToken(context.Background(), userID, domain.RoleUser)
	require.NoError(t, err)

	// An access token must not pass refresh validation and vice versa.
	_, err = svc.ValidateRefreshToken(context.Background(), accessToken)
	assert.ErrorIs(t, err, auth.ErrWrongTokenType)

	_, err = svc.ValidateToken(context.Background(), refreshToken)
	assert.ErrorIs(t, err, auth.ErrWrongTokenType)
}

func TestJWTServiceRejectsTamperedToken(t *testing.T) {
	t.Parallel()

	svc := auth.NewTestJWTService(testSecret, 15*time.Minute, time.Now)
	other := auth.NewTestJWTService("another-secret-key-thats-long-enough!!", 15*time.Minute, time.Now)

	token, err := other.GenerateToken(context.Background(), uuid.New(), domain.RoleUser)
	require.NoError(t, err)

	_, err = svc.ValidateToken(context.Background(), token)
	assert.ErrorIs(t, err, auth.ErrInvalidToken)

	_, err = svc.ValidateToken(context.Background(), "not.a.jwt")
	assert.ErrorIs(t, err, auth.ErrInvalidToken)
}

func TestJWTServiceRefreshLifetimeOutlivesAccess(t *testing.T) {
	t.Parallel()

	now := time.Now()
	current := now
	svc := auth.NewTestJWTService(testSecret, 15*time.Minute, func() time.Time { return current })

	refreshToken, err := svc.GenerateRefreshToken(context.Background(), uuid.New(), domain.RoleUser)
	require.NoError(t, err)

	current = now.Add(30 * time.Minute)
	claims, err := svc.ValidateRefreshToken(context.Background(), refreshToken)
	require.NoError(t, err)
	assert.Equal(t, "refresh", claims.TokenType)
}

func TestNewJWTServiceRejectsShortSecret(t *testing.T) {
	t.Parallel()

	_, err := auth.NewJWTService(config.AuthConfig{
		JWTSecret:                   "too-short",
		TokenLifetimeMinutes:        15,
		RefreshTokenLifetimeMinutes: 10080,
	})
	assert.Error(t, err)
}
