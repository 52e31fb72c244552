package jwt

import "github.com/golang-jwt/jwt"

// Payload is the claim set carried by the service's access token cookie.
// The client never verifies the signature (it has no key); it reads the claims to
// learn who the ambient credential belongs to and when it expires.
type Payload struct {
	// StandardClaims holds exp, iat and iss.
	jwt.StandardClaims

	// UserID is the account the credential was issued for.
	UserID string `json:"user_id"`

	// SessionID identifies the server-side session (refresh token family).
	SessionID string `json:"session_id,omitempty"`
}
