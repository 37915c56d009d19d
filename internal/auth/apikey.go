package auth

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/crypto/bcrypt"

	apperrors "github.com/fitdesk/support-service/pkg/util/errorutil"
)

// APIKeyVerifier checks service-to-service credentials against bcrypt
// hashes from configuration. Used by the internal endpoints that platform
// batch jobs (messaging, billing) call.
type APIKeyVerifier struct {
	hashes map[string]string
}

// NewAPIKeyVerifier builds a verifier over name->bcrypt-hash pairs.
func NewAPIKeyVerifier(hashes map[string]string) *APIKeyVerifier {
	return &APIKeyVerifier{hashes: hashes}
}

// Verify checks the presented key for the named caller.
func (v *APIKeyVerifier) Verify(name, key string) error {
	hash, ok := v.hashes[name]
	if !ok {
		return errors.New("unknown service")
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(key))
}

// Handle authenticates internal callers via X-Service-Name and
// X-Service-Key headers.
func (v *APIKeyVerifier) Handle(c *fiber.Ctx) error {
	name := c.Get("X-Service-Name")
	key := c.Get("X-Service-Key")
	if name == "" || key == "" {
		return apperrors.NewUnauthorized("service credentials required")
	}
	if err := v.Verify(name, key); err != nil {
		return apperrors.NewUnauthorized("invalid service credentials")
	}
	return c.Next()
}
