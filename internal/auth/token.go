package auth

import (
	"errors"

	jwt "github.com/golang-jwt/jwt/v5"

	"github.com/fitdesk/support-service/internal/domain"
)

// TokenManager verifies JWTs minted by the platform identity service.
// This service never issues tokens.
type TokenManager struct {
	secret []byte
}

// NewTokenManager builds a new manager.
func NewTokenManager(secret string) *TokenManager {
	return &TokenManager{secret: []byte(secret)}
}

// Claims describes the JWT payload shared with the identity service.
type Claims struct {
	ActorID   string           `json:"sub"`
	TenantID  string           `json:"tenant_id"`
	ActorKind domain.ActorKind `json:"actor_kind"`
	jwt.RegisteredClaims
}

// ParseToken validates the signature and returns claims.
func (tm *TokenManager) ParseToken(tokenStr string) (*Claims, error) {
	parsed, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, errors.New("unexpected signing method")
		}
		return tm.secret, nil
	})
	if err != nil {
		return nil, err
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, errors.New("invalid token claims")
	}
	if claims.TenantID == "" || claims.ActorID == "" {
		return nil, errors.New("token missing tenant or subject")
	}
	return claims, nil
}
