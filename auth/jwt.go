package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/golang-jwt/jwt/v4"
	"github.com/houseplants-app/plants-api/interfaces"
)

// Claims carried by tokens accepted by JWTAuthenticator. The subject is the
// principal id.
type Claims struct {
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

// JWTAuthenticator verifies HS256 tokens signed with a shared secret.
// Profiles are taken from the name and email claims of the most recent token
// seen for each subject.
type JWTAuthenticator struct {
	secret   []byte
	issuer   string
	audience string
	log      *slog.Logger

	profiles sync.Map // subject -> *interfaces.UserProfile
}

// NewJWTAuthenticator creates a verifier. Empty issuer or audience disables
// that check.
func NewJWTAuthenticator(secret []byte, issuer, audience string, log *slog.Logger) (*JWTAuthenticator, error) {
	if len(secret) == 0 {
		return nil, errors.New("jwt secret must not be empty")
	}
	return &JWTAuthenticator{
		secret:   secret,
		issuer:   issuer,
		audience: audience,
		log:      log,
	}, nil
}

// Authenticate parses and validates the token.
func (a *JWTAuthenticator) Authenticate(ctx context.Context, token string) (interfaces.Principal, error) {
	var claims Claims
	_, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return a.secret, nil
	})
	if err != nil {
		a.log.Debug("JWT rejected", "err", err)
		return interfaces.Principal{}, fmt.Errorf("%w: %v", interfaces.ErrUnauthenticated, err)
	}

	if claims.Subject == "" {
		return interfaces.Principal{}, fmt.Errorf("%w: token has no subject", interfaces.ErrUnauthenticated)
	}
	if a.issuer != "" && !claims.VerifyIssuer(a.issuer, true) {
		return interfaces.Principal{}, fmt.Errorf("%w: unexpected issuer %q", interfaces.ErrUnauthenticated, claims.Issuer)
	}
	if a.audience != "" && !claims.VerifyAudience(a.audience, true) {
		return interfaces.Principal{}, fmt.Errorf("%w: token not issued for %q", interfaces.ErrUnauthenticated, a.audience)
	}

	a.profiles.Store(claims.Subject, &interfaces.UserProfile{
		UID:         claims.Subject,
		DisplayName: claims.Name,
		Email:       claims.Email,
	})
	return interfaces.Principal{ID: claims.Subject}, nil
}

// LookupUser returns the profile from the subject's last verified token.
func (a *JWTAuthenticator) LookupUser(ctx context.Context, uid string) (*interfaces.UserProfile, error) {
	v, ok := a.profiles.Load(uid)
	if !ok {
		return nil, interfaces.ErrNotFound
	}
	profile := *v.(*interfaces.UserProfile)
	return &profile, nil
}
