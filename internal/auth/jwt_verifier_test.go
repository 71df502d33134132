package auth

import (
	"crypto/rand"
	"crypto/rsa"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"problembox/internal/domain"
	"problembox/internal/domain/models"
)

func testVerifier(t *testing.T) (*SupabaseJWTVerifier, *rsa.PrivateKey) {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	kf := func(*jwt.Token) (any, error) { return &key.PublicKey, nil }
	return NewKeyfuncVerifier(kf, slog.New(slog.NewTextHandler(io.Discard, nil))), key
}

func claims(sub, role string, exp time.Time) *models.SupabaseClaims {
	return &models.SupabaseClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   sub,
			ExpiresAt: jwt.NewNumericDate(exp),
		},
		Role: role,
	}
}

func TestVerifyToken(t *testing.T) {
	v, key := testVerifier(t)
	future := time.Now().Add(time.Hour)

	sign := func(c *models.SupabaseClaims) string {
		s, err := jwt.NewWithClaims(jwt.SigningMethodRS256, c).SignedString(key)
		require.NoError(t, err)
		return s
	}

	t.Run("valid", func(t *testing.T) {
		got, err := v.VerifyToken(sign(claims("user-1", "authenticated", future)))
		require.NoError(t, err)
		assert.Equal(t, "user-1", got.GetUserID())
	})

	rejected := map[string]string{
		"anon role":       sign(claims("user-1", "anon", future)),
		"missing subject": sign(claims("", "authenticated", future)),
		"expired":         sign(claims("user-1", "authenticated", time.Now().Add(-time.Hour))),
		"garbage":         "not.a.token",
	}
	for name, token := range rejected {
		t.Run(name, func(t *testing.T) {
			_, err := v.VerifyToken(token)
			assert.ErrorIs(t, err, domain.ErrUnauthorized)
		})
	}

	t.Run("hmac rejected", func(t *testing.T) {
		s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims("user-1", "authenticated", future)).SignedString([]byte("secret"))
		require.NoError(t, err)
		_, err = v.VerifyToken(s)
		assert.ErrorIs(t, err, domain.ErrUnauthorized)
	})
}
