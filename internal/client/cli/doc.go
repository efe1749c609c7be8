// Package cli provides the interactive Exersio command-line client.
//
// It wires configuration, the local SQLite store, the REST client, the sync
// engine and the connectivity observer behind a small REPL. The prompt shows
// the signed-in user and whether the server is reachable; status shows the
// pending and conflict counters and the last sync time.
//
// The REPL is started via App.Run(ctx), which blocks until the user exits.
package cli
