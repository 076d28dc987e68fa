// Package client contains the transport layer of the Aligned CLI.
//
// # Overview
//
// The package provides:
//  1. The backend contract (see the Client interface): login, account
//     creation, profile reads and updates, the three triage queues, the
//     align/skip action, notifications, the preference assistant and the
//     peer chat bootstrap.
//  2. An HTTP implementation (see HTTPClient). Most write endpoints take a
//     multipart form whose "metadata" field holds a JSON document; the
//     rest speak plain JSON. A bearer token is attached once known.
//  3. Local persistence bootstrap (InitDatabase, RunMigrations) wiring an
//     SQLite cache and applying embedded goose migrations.
//
// # Error Handling
//
// Transport failures map to ErrUnavailable. Non-2xx answers become an
// *APIError that unwraps to ErrUnauthorized, ErrNotFound, ErrUnavailable or
// ErrRejected. Match with errors.Is.
//
// All operations accept context.Context and honor cancellation and the
// configured request timeout.
package client
