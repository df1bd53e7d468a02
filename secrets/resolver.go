// Package secrets resolves secret references used in store and authenticator URIs.
//
// A reference is one of:
//
//	env:NAME              value of the environment variable NAME
//	file:/path/to/file    file contents with surrounding whitespace trimmed
//	vault://mount/path#key  field "key" of a Vault KV v2 secret
package secrets

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	vault "github.com/hashicorp/vault/api"
	"github.com/houseplants-app/plants-api/interfaces"
)

// VaultConfig configures the optional Vault client. An empty Address
// disables vault:// references.
type VaultConfig struct {
	Address string
	Token   string
}

// Resolver implements interfaces.SecretResolver.
type Resolver struct {
	vault *vault.Client
	log   *slog.Logger
}

// NewResolver creates a resolver, connecting a Vault client when configured.
func NewResolver(cfg VaultConfig, log *slog.Logger) (*Resolver, error) {
	r := &Resolver{log: log}
	if cfg.Address == "" {
		return r, nil
	}

	config := vault.DefaultConfig()
	config.Address = cfg.Address
	config.HttpClient = &http.Client{Timeout: 30 * time.Second}

	client, err := vault.NewClient(config)
	if err != nil {
		return nil, fmt.Errorf("failed to create Vault client: %w", err)
	}
	if cfg.Token != "" {
		client.SetToken(cfg.Token)
	}
	r.vault = client
	return r, nil
}

// Resolve returns the value behind ref.
func (r *Resolver) Resolve(ctx context.Context, ref string) (string, error) {
	switch {
	case strings.HasPrefix(ref, "env:"):
		name := strings.TrimPrefix(ref, "env:")
		value, ok := os.LookupEnv(name)
		if !ok {
			return "", fmt.Errorf("%w: environment variable %s is not set", interfaces.ErrSecretNotFound, name)
		}
		return value, nil

	case strings.HasPrefix(ref, "file:"):
		path := strings.TrimPrefix(ref, "file:")
		data, err := os.ReadFile(path)
		if os.IsNotExist(err) {
			return "", fmt.Errorf("%w: %s", interfaces.ErrSecretNotFound, path)
		}
		if err != nil {
			return "", fmt.Errorf("failed to read secret file: %w", err)
		}
		return strings.TrimSpace(string(data)), nil

	case strings.HasPrefix(ref, "vault://"):
		return r.resolveVault(ctx, strings.TrimPrefix(ref, "vault://"))

	default:
		return "", fmt.Errorf("%w: %q", interfaces.ErrUnsupportedSecretRef, ref)
	}
}

// resolveVault reads mount/path#key through the KV v2 data endpoint.
func (r *Resolver) resolveVault(ctx context.Context, ref string) (string, error) {
	if r.vault == nil {
		return "", fmt.Errorf("vault reference %q used but no Vault address configured", ref)
	}

	location, key, ok := strings.Cut(ref, "#")
	if !ok || key == "" {
		return "", fmt.Errorf("%w: vault reference needs a #key suffix", interfaces.ErrUnsupportedSecretRef)
	}
	mount, path, ok := strings.Cut(strings.Trim(location, "/"), "/")
	if !ok || path == "" {
		return "", fmt.Errorf("%w: expected vault://mount/path#key", interfaces.ErrUnsupportedSecretRef)
	}

	fullPath := fmt.Sprintf("%s/data/%s", mount, path)
	secret, err := r.vault.Logical().ReadWithContext(ctx, fullPath)
	if err != nil {
		r.log.Error("Failed to read from Vault", slog.String("path", fullPath), "err", err)
		return "", fmt.Errorf("failed to read %s from Vault: %w", fullPath, err)
	}
	if secret == nil || secret.Data == nil {
		return "", fmt.Errorf("%w: %s", interfaces.ErrSecretNotFound, fullPath)
	}

	data, ok := secret.Data["data"].(map[string]any)
	if !ok {
		return "", fmt.Errorf("invalid KV v2 response for %s", fullPath)
	}
	value, ok := data[key].(string)
	if !ok {
		return "", fmt.Errorf("%w: key %q in %s", interfaces.ErrSecretNotFound, key, fullPath)
	}
	return value, nil
}
