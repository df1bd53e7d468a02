package auth

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/houseplants-app/plants-api/interfaces"
)

// ProviderFactory creates identity providers from location URIs.
type ProviderFactory struct {
	log     *slog.Logger
	secrets interfaces.SecretResolver
}

// NewProviderFactory creates a factory. The secret resolver backs the jwt
// secret parameter.
func NewProviderFactory(logger *slog.Logger, secrets interfaces.SecretResolver) *ProviderFactory {
	return &ProviderFactory{log: logger, secrets: secrets}
}

// ProviderFor creates an identity provider from a location URI.
//
// Supported schemes:
//   - firebase://project-id[?credentials=/path/sa.json]
//   - jwt://?secret=<secret-ref>[&issuer=...][&audience=...]
//   - static:///path/to/tokens.yaml
func (pf *ProviderFactory) ProviderFor(ctx context.Context, locationURI string) (interfaces.IdentityProvider, error) {
	loc, err := interfaces.ParseLocation(locationURI)
	if err != nil {
		return nil, err
	}

	switch loc.Scheme {
	case "firebase":
		if loc.Host == "" {
			return nil, fmt.Errorf("%w: firebase URI requires a project id", interfaces.ErrInvalidLocationURI)
		}
		pf.log.Debug("Creating Firebase authenticator", slog.String("project", loc.Host))
		return NewFirebaseAuthenticator(ctx, loc.Host, loc.GetParam("credentials"), pf.log)

	case "jwt":
		ref := loc.GetParam("secret")
		if ref == "" {
			return nil, fmt.Errorf("%w: jwt URI requires a secret reference", interfaces.ErrInvalidLocationURI)
		}
		if pf.secrets == nil {
			return nil, fmt.Errorf("no secret resolver configured for %q", ref)
		}
		secret, err := pf.secrets.Resolve(ctx, ref)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve jwt secret: %w", err)
		}
		pf.log.Debug("Creating JWT authenticator", slog.String("issuer", loc.GetParam("issuer")))
		return NewJWTAuthenticator([]byte(secret), loc.GetParam("issuer"), loc.GetParam("audience"), pf.log)

	case "static":
		path := loc.Path
		if loc.Host != "" {
			path = loc.Host + path
		}
		if path == "" {
			return nil, fmt.Errorf("%w: empty path in static URI", interfaces.ErrInvalidLocationURI)
		}
		return LoadStaticAuthenticator(path, pf.log)

	default:
		return nil, fmt.Errorf("%w: unsupported authenticator scheme %q", interfaces.ErrInvalidLocationURI, loc.Scheme)
	}
}
