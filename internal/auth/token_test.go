package auth

import (
	"testing"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fitdesk/support-service/internal/domain"
)

func signToken(t *testing.T, secret string, claims Claims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func TestParseTokenValid(t *testing.T) {
	tm := NewTokenManager("secret")
	signed := signToken(t, "secret", Claims{
		ActorID:   "agent-1",
		TenantID:  "tenant-1",
		ActorKind: domain.ActorKindAgent,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})

	claims, err := tm.ParseToken(signed)
	require.NoError(t, err)
	assert.Equal(t, "agent-1", claims.ActorID)
	assert.Equal(t, "tenant-1", claims.TenantID)
	assert.Equal(t, domain.ActorKindAgent, claims.ActorKind)
}

func TestParseTokenRejectsWrongSecret(t *testing.T) {
	tm := NewTokenManager("secret")
	signed := signToken(t, "other-secret", Claims{
		ActorID: "agent-1", TenantID: "tenant-1", ActorKind: domain.ActorKindAgent,
	})

	_, err := tm.ParseToken(signed)
	assert.Error(t, err)
}

func TestParseTokenRejectsExpired(t *testing.T) {
	tm := NewTokenManager("secret")
	signed := signToken(t, "secret", Claims{
		ActorID:  "agent-1",
		TenantID: "tenant-1",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
		},
	})

	_, err := tm.ParseToken(signed)
	assert.Error(t, err)
}

func TestParseTokenRequiresTenantAndSubject(t *testing.T) {
	tm := NewTokenManager("secret")

	_, err := tm.ParseToken(signToken(t, "secret", Claims{ActorID: "agent-1"}))
	assert.Error(t, err, "missing tenant")

	_, err = tm.ParseToken(signToken(t, "secret", Claims{TenantID: "tenant-1"}))
	assert.Error(t, err, "missing subject")
}
