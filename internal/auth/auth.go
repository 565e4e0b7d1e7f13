// Package auth is the credential boundary: it verifies a bearer token and
// yields the caller's identity. Token issuance and password handling live
// outside this service; only verification happens here, before any entity
// access.
package auth

import (
	"context"
	"fmt"
)

// Identity is the verified caller.
type Identity struct {
	UserID string
	Email  string
}

// UnauthorizedError reports a missing, malformed, or expired credential. The
// reason is for logs; callers surface only a generic message.
type UnauthorizedError struct{ Reason string }

func (e *UnauthorizedError) Error() string { return fmt.Sprintf("unauthorized: %s", e.Reason) }

// Verifier checks a bearer credential. Verification is synchronous and
// side-effect free per request.
type Verifier interface {
	Verify(ctx context.Context, token string) (Identity, error)
}
