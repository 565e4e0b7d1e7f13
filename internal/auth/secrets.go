package auth

import (
	"context"
	"fmt"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
)

// SecretsAPI is the slice of the Secrets Manager client used here.
type SecretsAPI interface {
	GetSecretValue(context.Context, *secretsmanager.GetSecretValueInput, ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error)
}

// RemoteSecretSource fetches the signing secret from Secrets Manager once and
// caches it for the process lifetime, so verification does not pay a remote
// round trip per request. Failed lookups are not cached.
type RemoteSecretSource struct {
	client   SecretsAPI
	secretID string

	mu     sync.Mutex
	cached []byte
}

// NewRemoteSecretSource builds a source for the named secret.
func NewRemoteSecretSource(client SecretsAPI, secretID string) *RemoteSecretSource {
	return &RemoteSecretSource{client: client, secretID: secretID}
}

// SigningSecret returns the cached secret, fetching it on first use.
func (s *RemoteSecretSource) SigningSecret(ctx context.Context) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cached != nil {
		return s.cached, nil
	}
	out, err := s.client.GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{
		SecretId: aws.String(s.secretID),
	})
	if err != nil {
		return nil, fmt.Errorf("auth: fetch secret %q: %w", s.secretID, err)
	}
	switch {
	case out.SecretString != nil:
		s.cached = []byte(*out.SecretString)
	case out.SecretBinary != nil:
		s.cached = out.SecretBinary
	default:
		return nil, fmt.Errorf("auth: secret %q is empty", s.secretID)
	}
	return s.cached, nil
}

var _ SecretSource = (*RemoteSecretSource)(nil)
