package auth

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	apperrors "github.com/yanqian/outfit-recommender/pkg/errors"
)

func TestService_IssueAndValidate(t *testing.T) {
	svc := NewService(Config{Secret: "test-secret", TokenTTL: time.Hour}, newTestLogger())

	token, err := svc.Issue(context.Background(), "65f0c0ffee")
	require.NoError(t, err)

	claims, err := svc.ValidateToken(context.Background(), token)
	require.NoError(t, err)
	require.Equal(t, "65f0c0ffee", claims.UserID)
	require.WithinDuration(t, time.Now().Add(time.Hour), claims.ExpiresAt, time.Minute)
}

func TestService_ValidateNumericUserID(t *testing.T) {
	svc := NewService(Config{Secret: "test-secret"}, newTestLogger())
	token := signRaw(t, "test-secret", jwt.MapClaims{
		"user_id": 42,
		"exp":     time.Now().Add(time.Hour).Unix(),
	})

	claims, err := svc.ValidateToken(context.Background(), token)
	require.NoError(t, err)
	require.Equal(t, "42", claims.UserID)
}

func TestService_RejectsBadTokens(t *testing.T) {
	svc := NewService(Config{Secret: "test-secret"}, newTestLogger())
	cases := map[string]string{
		"empty":        "",
		"garbage":      "not-a-jwt",
		"wrong secret": signRaw(t, "other", jwt.MapClaims{"user_id": "u", "exp": time.Now().Add(time.Hour).Unix()}),
		"expired":      signRaw(t, "test-secret", jwt.MapClaims{"user_id": "u", "exp": time.Now().Add(-time.Minute).Unix()}),
		"no expiry":    signRaw(t, "test-secret", jwt.MapClaims{"user_id": "u"}),
		"no user":      signRaw(t, "test-secret", jwt.MapClaims{"exp": time.Now().Add(time.Hour).Unix()}),
	}
	for name, token := range cases {
		_, err := svc.ValidateToken(context.Background(), token)
		require.Error(t, err, name)
		require.True(t, apperrors.IsCode(err, apperrors.CodeInvalidToken), name)
	}
}

func TestService_IssueRequiresUser(t *testing.T) {
	svc := NewService(Config{Secret: "test-secret"}, newTestLogger())
	_, err := svc.Issue(context.Background(), " ")
	require.True(t, apperrors.IsCode(err, apperrors.CodeInvalidInput))
}

func signRaw(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
