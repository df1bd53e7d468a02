package auth

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/houseplants-app/plants-api/interfaces"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func signToken(t *testing.T, method jwt.SigningMethod, key any, claims Claims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(method, claims).SignedString(key)
	require.NoError(t, err)
	return token
}

func TestJWTAuthenticator(t *testing.T) {
	secret := []byte("test-secret")
	a, err := NewJWTAuthenticator(secret, "plants-auth", "plants-api", testLogger())
	require.NoError(t, err)

	valid := Claims{
		Name:  "Alice",
		Email: "alice@example.com",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "u1",
			Issuer:    "plants-auth",
			Audience:  jwt.ClaimStrings{"plants-api"},
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}

	expired := valid
	expired.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Hour))

	wrongIssuer := valid
	wrongIssuer.Issuer = "someone-else"

	wrongAudience := valid
	wrongAudience.Audience = jwt.ClaimStrings{"other-api"}

	noSubject := valid
	noSubject.Subject = ""

	tests := []struct {
		name    string
		token   string
		wantErr bool
	}{
		{name: "valid", token: signToken(t, jwt.SigningMethodHS256, secret, valid)},
		{name: "wrong secret", token: signToken(t, jwt.SigningMethodHS256, []byte("other"), valid), wantErr: true},
		{name: "expired", token: signToken(t, jwt.SigningMethodHS256, secret, expired), wantErr: true},
		{name: "wrong issuer", token: signToken(t, jwt.SigningMethodHS256, secret, wrongIssuer), wantErr: true},
		{name: "wrong audience", token: signToken(t, jwt.SigningMethodHS256, secret, wrongAudience), wantErr: true},
		{name: "no subject", token: signToken(t, jwt.SigningMethodHS256, secret, noSubject), wantErr: true},
		{name: "unsigned", token: signToken(t, jwt.SigningMethodNone, jwt.UnsafeAllowNoneSignatureType, valid), wantErr: true},
		{name: "garbage", token: "not-a-jwt", wantErr: true},
		{name: "empty", token: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			principal, err := a.Authenticate(context.Background(), tt.token)
			if tt.wantErr {
				assert.ErrorIs(t, err, interfaces.ErrUnauthenticated)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "u1", principal.ID)
		})
	}
}

func TestJWTAuthenticator_LookupUser(t *testing.T) {
	secret := []byte("test-secret")
	a, err := NewJWTAuthenticator(secret, "", "", testLogger())
	require.NoError(t, err)

	_, err = a.LookupUser(context.Background(), "u1")
	assert.ErrorIs(t, err, interfaces.ErrNotFound)

	token := signToken(t, jwt.SigningMethodHS256, secret, Claims{
		Name:             "Alice",
		Email:            "alice@example.com",
		RegisteredClaims: jwt.RegisteredClaims{Subject: "u1"},
	})
	_, err = a.Authenticate(context.Background(), token)
	require.NoError(t, err)

	profile, err := a.LookupUser(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, &interfaces.UserProfile{UID: "u1", DisplayName: "Alice", Email: "alice@example.com"}, profile)
}

func TestNewJWTAuthenticator_EmptySecret(t *testing.T) {
	_, err := NewJWTAuthenticator(nil, "", "", testLogger())
	assert.Error(t, err)
}

func writeTokensFile(t *testing.T, tokens map[string]string) string {
	t.Helper()

	content := "users:\n"
	for uid, token := range tokens {
		hash, err := bcrypt.GenerateFromPassword([]byte(token), bcrypt.MinCost)
		require.NoError(t, err)
		content += "  - uid: " + uid + "\n"
		content += "    displayName: " + uid + " name\n"
		content += "    email: " + uid + "@example.com\n"
		content += "    tokenHash: \"" + string(hash) + "\"\n"
	}

	path := filepath.Join(t.TempDir(), "tokens.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestStaticAuthenticator(t *testing.T) {
	path := writeTokensFile(t, map[string]string{"alice": "alice-token", "bob": "bob-token"})

	a, err := LoadStaticAuthenticator(path, testLogger())
	require.NoError(t, err)

	principal, err := a.Authenticate(context.Background(), "bob-token")
	require.NoError(t, err)
	assert.Equal(t, "bob", principal.ID)

	_, err = a.Authenticate(context.Background(), "mallory-token")
	assert.ErrorIs(t, err, interfaces.ErrUnauthenticated)

	_, err = a.Authenticate(context.Background(), "")
	assert.ErrorIs(t, err, interfaces.ErrUnauthenticated)

	profile, err := a.LookupUser(context.Background(), "alice")
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", profile.Email)
	assert.Equal(t, "alice name", profile.DisplayName)

	_, err = a.LookupUser(context.Background(), "carol")
	assert.ErrorIs(t, err, interfaces.ErrNotFound)
}

func TestNewStaticAuthenticator_RejectsBadEntries(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("t"), bcrypt.MinCost)
	require.NoError(t, err)

	tests := []struct {
		name  string
		users []StaticUser
	}{
		{name: "missing uid", users: []StaticUser{{TokenHash: string(hash)}}},
		{name: "missing hash", users: []StaticUser{{UID: "u1"}}},
		{name: "plaintext token", users: []StaticUser{{UID: "u1", TokenHash: "plaintext"}}},
		{name: "duplicate uid", users: []StaticUser{{UID: "u1", TokenHash: string(hash)}, {UID: "u1", TokenHash: string(hash)}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewStaticAuthenticator(tt.users, testLogger())
			assert.Error(t, err)
		})
	}
}

type mapResolver map[string]string

func (m mapResolver) Resolve(ctx context.Context, ref string) (string, error) {
	v, ok := m[ref]
	if !ok {
		return "", interfaces.ErrSecretNotFound
	}
	return v, nil
}

func TestProviderFactory(t *testing.T) {
	tokensPath := writeTokensFile(t, map[string]string{"alice": "alice-token"})
	factory := NewProviderFactory(testLogger(), mapResolver{"env:JWT_SECRET": "s3cret"})

	tests := []struct {
		name        string
		uri         string
		wantErr     bool
		wantInvalid bool
	}{
		{name: "jwt", uri: "jwt://?secret=env:JWT_SECRET&issuer=plants-auth"},
		{name: "static", uri: "static://" + tokensPath},
		{name: "jwt without secret", uri: "jwt://", wantErr: true, wantInvalid: true},
		{name: "jwt unknown secret", uri: "jwt://?secret=env:NOPE", wantErr: true},
		{name: "static missing file", uri: "static://" + tokensPath + ".missing", wantErr: true},
		{name: "firebase without project", uri: "firebase://", wantErr: true, wantInvalid: true},
		{name: "unknown scheme", uri: "oauth://example.com", wantErr: true, wantInvalid: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			provider, err := factory.ProviderFor(context.Background(), tt.uri)
			if tt.wantErr {
				require.Error(t, err)
				if tt.wantInvalid {
					assert.ErrorIs(t, err, interfaces.ErrInvalidLocationURI)
				}
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, provider)
		})
	}
}
