package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v4"
)

// SecretSource yields the HMAC signing secret used to verify tokens.
type SecretSource interface {
	SigningSecret(ctx context.Context) ([]byte, error)
}

// StaticSecret is a fixed in-process secret (tests, local runs).
type StaticSecret []byte

// SigningSecret returns the fixed secret.
func (s StaticSecret) SigningSecret(context.Context) ([]byte, error) { return []byte(s), nil }

// tokenClaims is the expected claim set: subject carries the user id.
type tokenClaims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// TokenVerifier verifies HS256-signed bearer tokens.
type TokenVerifier struct {
	secrets SecretSource
}

// NewTokenVerifier builds a TokenVerifier over the given secret source.
func NewTokenVerifier(secrets SecretSource) *TokenVerifier {
	return &TokenVerifier{secrets: secrets}
}

// Verify parses and validates the token, returning the embedded identity.
// Every failure mode (bad signature, expiry, wrong algorithm, missing
// claims) collapses into UnauthorizedError.
func (v *TokenVerifier) Verify(ctx context.Context, token string) (Identity, error) {
	if token == "" {
		return Identity{}, &UnauthorizedError{Reason: "missing credential"}
	}
	secret, err := v.secrets.SigningSecret(ctx)
	if err != nil {
		return Identity{}, fmt.Errorf("auth: secret lookup: %w", err)
	}
	var claims tokenClaims
	_, err = jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method " + t.Method.Alg())
		}
		return secret, nil
	})
	if err != nil {
		return Identity{}, &UnauthorizedError{Reason: err.Error()}
	}
	if claims.Subject == "" {
		return Identity{}, &UnauthorizedError{Reason: "token missing subject"}
	}
	return Identity{UserID: claims.Subject, Email: claims.Email}, nil
}

var _ Verifier = (*TokenVerifier)(nil)
