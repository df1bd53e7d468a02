// Package interfaces defines core interfaces and types for the house-plants
// API, separating contracts from their implementations.
//
// # Collaborator Interfaces
//
// DocumentStore: A key/value document database with point lookup, equality
// queries, partial merge updates, idempotent deletes and the only atomic
// multi-step primitive the core relies on: single-document array union and
// array difference.
//
// Authenticator: Verifies an opaque bearer credential and yields a Principal.
//
// UserDirectory: Resolves a principal id to a public user profile.
//
// # Domain Types
//
//   - Plant, Room: owner-scoped resources with a per-owner unique name
//   - WateringLog, WateringRecord: one log document per plant holding an
//     embedded array of watering records
//   - Fields: a JSON-normalized document body as exchanged with a DocumentStore
//
// # Errors
//
// The error taxonomy (ErrUnauthenticated, ErrForbidden, ErrNotFound,
// ErrValidation, ErrConflict and *StoreError) is shared between the service
// layer and the HTTP router, which maps each kind to a fixed status code.
package interfaces
