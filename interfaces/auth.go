package interfaces

import "context"

// Authenticator verifies a bearer credential. Every failure is reported as an
// error wrapping ErrUnauthenticated; the cause is for logs only.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (Principal, error)
}

// UserDirectory resolves principal ids to public profiles.
type UserDirectory interface {
	LookupUser(ctx context.Context, uid string) (*UserProfile, error)
}

// IdentityProvider is implemented by authenticators that also own the user directory.
type IdentityProvider interface {
	Authenticator
	UserDirectory
}
