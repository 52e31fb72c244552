package jwt

import (
	"errors"
	"net/http"
	"net/url"
	"time"

	"github.com/golang-jwt/jwt"
)

const (
	// AccessCookieName is the cookie the service stores the access token in.
	AccessCookieName = "access_token"

	// RefreshCookieName is the cookie the renewal endpoint consumes.
	RefreshCookieName = "refresh_token"

	// TokenIssuer identifies tokens minted by GenerateToken.
	TokenIssuer = "livesync-fake"
)

// ErrNoCredential is returned when the jar holds no access token for the service.
var ErrNoCredential = errors.New("no access token cookie")

// GenerateToken signs a token for payload. Only fake services in tests mint tokens.
func GenerateToken(payload *Payload, secretKey string, duration time.Duration) (string, error) {
	now := time.Now()

	payload.StandardClaims = jwt.StandardClaims{
		ExpiresAt: now.Add(duration).Unix(),
		IssuedAt:  now.Unix(),
		Issuer:    TokenIssuer,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, payload)

	return token.SignedString([]byte(secretKey))
}

// ParseUnverified decodes the claims of tokenString without checking the signature.
func ParseUnverified(tokenString string) (*Payload, error) {
	claims := &Payload{}

	parser := &jwt.Parser{}
	if _, _, err := parser.ParseUnverified(tokenString, claims); err != nil {
		return nil, err
	}

	return claims, nil
}

// FromJar reads and decodes the access token stored in jar for the service at u.
func FromJar(jar http.CookieJar, u *url.URL) (*Payload, error) {
	if jar == nil || u == nil {
		return nil, ErrNoCredential
	}

	for _, c := range jar.Cookies(u) {
		if c.Name == AccessCookieName {
			return ParseUnverified(c.Value)
		}
	}

	return nil, ErrNoCredential
}

// Expiry returns the expiration time of the claims, zero when absent.
func (p *Payload) Expiry() time.Time {
	if p == nil || p.ExpiresAt == 0 {
		return time.Time{}
	}

	return time.Unix(p.ExpiresAt, 0)
}
