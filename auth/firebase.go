package auth

import (
	"context"
	"fmt"
	"log/slog"

	firebase "firebase.google.com/go/v4"
	fbauth "firebase.google.com/go/v4/auth"
	"github.com/houseplants-app/plants-api/interfaces"
	"google.golang.org/api/option"
)

// FirebaseAuthenticator verifies Firebase ID tokens and reads profiles from
// Firebase Authentication.
type FirebaseAuthenticator struct {
	client    *fbauth.Client
	projectID string
	log       *slog.Logger
}

// NewFirebaseAuthenticator creates an authenticator for the project. Without
// a credentials file, application default credentials are used.
func NewFirebaseAuthenticator(ctx context.Context, projectID, credentialsFile string, log *slog.Logger) (*FirebaseAuthenticator, error) {
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}

	app, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: projectID}, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Firebase app: %w", err)
	}
	client, err := app.Auth(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create Firebase auth client: %w", err)
	}

	return &FirebaseAuthenticator{client: client, projectID: projectID, log: log}, nil
}

// Authenticate verifies the signature, expiry and audience of an ID token.
func (a *FirebaseAuthenticator) Authenticate(ctx context.Context, token string) (interfaces.Principal, error) {
	verified, err := a.client.VerifyIDToken(ctx, token)
	if err != nil {
		a.log.Debug("Firebase token rejected", "err", err)
		return interfaces.Principal{}, fmt.Errorf("%w: %v", interfaces.ErrUnauthenticated, err)
	}
	return interfaces.Principal{ID: verified.UID}, nil
}

// LookupUser fetches the user record.
func (a *FirebaseAuthenticator) LookupUser(ctx context.Context, uid string) (*interfaces.UserProfile, error) {
	record, err := a.client.GetUser(ctx, uid)
	if fbauth.IsUserNotFound(err) {
		return nil, interfaces.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get Firebase user: %w", err)
	}
	return &interfaces.UserProfile{
		UID:         record.UID,
		DisplayName: record.DisplayName,
		Email:       record.Email,
	}, nil
}
