package interfaces

import (
	"context"
	"errors"
)

var (
	// ErrSecretNotFound is returned when a secret reference resolves to nothing.
	ErrSecretNotFound = errors.New("secret not found")

	// ErrUnsupportedSecretRef is returned for references with an unknown prefix.
	ErrUnsupportedSecretRef = errors.New("unsupported secret reference")
)

// SecretResolver turns a secret reference (env:NAME, file:/path,
// vault://mount/path#key) into its value.
type SecretResolver interface {
	Resolve(ctx context.Context, ref string) (string, error)
}
