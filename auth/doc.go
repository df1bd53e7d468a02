// Package auth verifies bearer tokens and resolves user profiles.
//
// Implementations are selected by URI:
//
//	firebase://project-id[?credentials=/path/sa.json]   Firebase ID tokens
//	jwt://?secret=env:JWT_SECRET[&issuer=..][&audience=..]  HS256 JWTs
//	static:///etc/plants/tokens.yaml                    bcrypt-hashed static tokens
//
// Every Authenticate failure wraps interfaces.ErrUnauthenticated.
package auth
