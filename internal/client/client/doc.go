// Package client contains the client's connection to the Exersio API and the
// bootstrap of its local database.
//
// HTTPClient implements Client over REST/JSON. Authenticated requests pass
// through a tokenTransport that adds the bearer token and, on a
// "token_expired" answer, refreshes the token pair once and replays the
// request. Non-2xx answers surface as *APIError values that unwrap to the
// sentinels in errors.go (ErrNotFound, ErrUnauthorized, ...), so callers match
// them with errors.Is. Transport failures wrap ErrUnavailable.
//
// InitDatabase opens the SQLite store and applies the embedded goose
// migrations.
package client
