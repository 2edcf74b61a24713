// Package secrets resolves named secrets, such as the database connection
// string, from a managed secret store.
package secrets

import (
	"context"
	"errors"
	"fmt"
	"os"
)

// ErrSecretUnavailable is wrapped by every resolver failure: unset name,
// unreachable store, or missing secret.
var ErrSecretUnavailable = errors.New("secret unavailable")

// Resolver returns the current value of a named secret.
type Resolver interface {
	Resolve(ctx context.Context, name string) (string, error)
}

func unavailable(name string, cause error) error {
	if cause == nil {
		return fmt.Errorf("%w: %s", ErrSecretUnavailable, name)
	}
	return fmt.Errorf("%w: %s: %w", ErrSecretUnavailable, name, cause)
}

// EnvResolver reads secrets from environment variables of the same name.
// Intended for local development where no secret store is available.
type EnvResolver struct{}

func (EnvResolver) Resolve(_ context.Context, name string) (string, error) {
	if name == "" {
		return "", unavailable("(unset)", errors.New("secret name is empty"))
	}
	v, ok := os.LookupEnv(name)
	if !ok || v == "" {
		return "", unavailable(name, errors.New("environment variable not set"))
	}
	return v, nil
}
