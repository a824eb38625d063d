// Package session issues and verifies the signed bearer tokens that
// prove a logged-in account between requests. Tokens are stateless:
// nothing is kept server side, validity is entirely signature plus
// expiry at the moment of use. Logging out therefore only discards
// the client's copy, it cannot revoke a token that already leaked.
package session

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

type (
	// Config carries everything the token layer needs. It is built
	// once at startup and injected, core packages never read the
	// process environment themselves.
	Config struct {
		// Secret signs tokens (HS256). Required, never defaulted.
		Secret []byte
		// Lifetime bounds token validity from the moment of issuance.
		Lifetime time.Duration
		// InsecureCookie drops the Secure flag from the session
		// cookie. Local development only.
		InsecureCookie bool
	}

	// Issuer mints and verifies tokens for a single signing secret.
	Issuer struct {
		secret   []byte
		lifetime time.Duration
	}
)

// Verification failures are distinguishable so that future flows
// (eg. token refresh) can react differently, even though the HTTP
// boundary collapses all three into a 401.
var (
	ErrTokenExpired      = errors.New("session: token expired")
	ErrTokenBadSignature = errors.New("session: token signature mismatch")
	ErrTokenMalformed    = errors.New("session: token malformed")
)

const minSecretLen = 32

func NewIssuer(cfg Config) (*Issuer, error) {
	if len(cfg.Secret) < minSecretLen {
		return nil, fmt.Errorf("session: signing secret must have at least %v bytes", minSecretLen)
	}
	if cfg.Lifetime <= 0 {
		return nil, errors.New("session: token lifetime must be positive")
	}
	return &Issuer{secret: cfg.Secret, lifetime: cfg.Lifetime}, nil
}

// Lifetime returns the configured validity window, the cookie layer
// mirrors it as the cookie max-age.
func (i *Issuer) Lifetime() time.Duration { return i.lifetime }

// Issue mints a token whose subject is the given account id, valid
// from now until now plus the configured lifetime.
func (i *Issuer) Issue(subject string) (string, error) {
	if len(subject) == 0 {
		return "", errors.New("session: cannot issue token for empty subject")
	}
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   subject,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(i.lifetime)),
	})
	signed, err := token.SignedString(i.secret)
	if err != nil {
		return "", fmt.Errorf("session: unable to sign token, cause %w", err)
	}
	return signed, nil
}

// Verify checks signature first, then expiry, and recovers the
// subject account id. Forged or tampered tokens never reach the
// claim checks.
func (i *Issuer) Verify(token string) (string, error) {
	var claims jwt.RegisteredClaims
	_, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (interface{}, error) {
		return i.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	switch {
	case err == nil:
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return "", ErrTokenBadSignature
	case errors.Is(err, jwt.ErrTokenExpired):
		return "", ErrTokenExpired
	default:
		return "", ErrTokenMalformed
	}
	if len(claims.Subject) == 0 {
		return "", ErrTokenMalformed
	}
	return claims.Subject, nil
}
