package auth

import "problembox/internal/domain/models"

// JWTVerifier validates bearer tokens. The middleware depends on this
// interface so tests can swap in a static verifier.
type JWTVerifier interface {
	// VerifyToken returns the token's claims, or domain.ErrUnauthorized.
	VerifyToken(tokenString string) (*models.SupabaseClaims, error)

	// Close releases the JWKS client.
	Close() error
}
