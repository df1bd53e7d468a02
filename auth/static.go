package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/houseplants-app/plants-api/interfaces"
	"golang.org/x/crypto/bcrypt"
	"gopkg.in/yaml.v3"
)

// StaticUser is one entry of a static tokens file.
type StaticUser struct {
	UID         string `yaml:"uid"`
	DisplayName string `yaml:"displayName"`
	Email       string `yaml:"email"`
	TokenHash   string `yaml:"tokenHash"`
}

type staticTokensFile struct {
	Users []StaticUser `yaml:"users"`
}

// StaticAuthenticator accepts a fixed set of bcrypt-hashed bearer tokens,
// for development and single-user deployments.
type StaticAuthenticator struct {
	users []StaticUser
	byUID map[string]StaticUser
	log   *slog.Logger
}

// LoadStaticAuthenticator reads a YAML tokens file:
//
//	users:
//	  - uid: alice
//	    displayName: Alice
//	    email: alice@example.com
//	    tokenHash: $2a$10$...
func LoadStaticAuthenticator(path string, log *slog.Logger) (*StaticAuthenticator, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read tokens file: %w", err)
	}

	var file staticTokensFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse tokens file: %w", err)
	}
	return NewStaticAuthenticator(file.Users, log)
}

// NewStaticAuthenticator creates an authenticator from user entries.
func NewStaticAuthenticator(users []StaticUser, log *slog.Logger) (*StaticAuthenticator, error) {
	byUID := make(map[string]StaticUser, len(users))
	for i, u := range users {
		if u.UID == "" || u.TokenHash == "" {
			return nil, fmt.Errorf("user entry %d needs uid and tokenHash", i)
		}
		if _, err := bcrypt.Cost([]byte(u.TokenHash)); err != nil {
			return nil, fmt.Errorf("user %s: invalid token hash: %w", u.UID, err)
		}
		if _, dup := byUID[u.UID]; dup {
			return nil, fmt.Errorf("duplicate uid %s", u.UID)
		}
		byUID[u.UID] = u
	}

	log.Info("Loaded static tokens", slog.Int("users", len(users)))
	return &StaticAuthenticator{users: users, byUID: byUID, log: log}, nil
}

// Authenticate compares the token against every configured hash.
func (a *StaticAuthenticator) Authenticate(ctx context.Context, token string) (interfaces.Principal, error) {
	if token == "" {
		return interfaces.Principal{}, fmt.Errorf("%w: empty token", interfaces.ErrUnauthenticated)
	}
	for _, u := range a.users {
		err := bcrypt.CompareHashAndPassword([]byte(u.TokenHash), []byte(token))
		if err == nil {
			return interfaces.Principal{ID: u.UID}, nil
		}
		if !errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			a.log.Warn("Static token comparison failed", slog.String("uid", u.UID), "err", err)
		}
	}
	return interfaces.Principal{}, fmt.Errorf("%w: unknown token", interfaces.ErrUnauthenticated)
}

// LookupUser returns the configured profile.
func (a *StaticAuthenticator) LookupUser(ctx context.Context, uid string) (*interfaces.UserProfile, error) {
	u, ok := a.byUID[uid]
	if !ok {
		return nil, interfaces.ErrNotFound
	}
	return &interfaces.UserProfile{UID: u.UID, DisplayName: u.DisplayName, Email: u.Email}, nil
}
