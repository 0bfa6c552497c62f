package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Rejection reasons surfaced by Validate. The session gate maps all of them
// to 401; the distinction matters for logs and tests.
var (
	ErrInvalidSignature = errors.New("token signature invalid")
	ErrExpired          = errors.New("token expired")
	ErrMalformedClaim   = errors.New("token subject claim missing")
)

// TokenIssuer mints and validates the HS256 bearer tokens the API runs on.
// The secret and TTL are fixed at construction; rotating the secret
// invalidates every outstanding token at once. Tokens are stateless and
// cannot be revoked individually.
type TokenIssuer struct {
	secret []byte
	ttl    time.Duration
}

// NewTokenIssuer builds an issuer. ttl <= 0 falls back to one hour, matching
// the default access-token lifetime.
func NewTokenIssuer(secret []byte, ttl time.Duration) *TokenIssuer {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &TokenIssuer{secret: secret, ttl: ttl}
}

// Issue signs a token whose subject is the user's email, expiring after the
// configured TTL.
func (t *TokenIssuer) Issue(email string) (string, error) {
	return t.IssueWithTTL(email, t.ttl)
}

// IssueWithTTL signs a token with an explicit lifetime.
func (t *TokenIssuer) IssueWithTTL(email string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   email,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := tok.SignedString(t.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Validate checks signature, expiry and subject, returning the embedded
// email. Any token signed with a different method counts as an invalid
// signature, not a parse error.
func (t *TokenIssuer) Validate(tokenStr string) (string, error) {
	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(tokenStr, claims, func(tok *jwt.Token) (interface{}, error) {
		return t.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	switch {
	case err == nil:
	case errors.Is(err, jwt.ErrTokenExpired):
		return "", ErrExpired
	default:
		return "", ErrInvalidSignature
	}
	if claims.Subject == "" {
		return "", ErrMalformedClaim
	}
	return claims.Subject, nil
}
