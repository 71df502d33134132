package models

import "github.com/golang-jwt/jwt/v5"

// SupabaseClaims is the claim set of a Supabase access token.
type SupabaseClaims struct {
	jwt.RegisteredClaims
	Email        string                 `json:"email"`
	Role         string                 `json:"role"` // "authenticated" or "anon"
	AAL          string                 `json:"aal"`
	SessionID    string                 `json:"session_id"`
	IsAnonymous  bool                   `json:"is_anonymous"`
	UserMetadata map[string]interface{} `json:"user_metadata"`
}

// GetUserID returns the subject claim, the caller's user id.
func (c *SupabaseClaims) GetUserID() string {
	return c.Subject
}
