// Package records implements the client's offline store: one SQLite table per
// entity kind holding the JSON payload together with its sync status,
// last-modified and last-synced timestamps (unix milliseconds) and a local
// version counter.
//
// Absence is never an error: Get returns (nil, nil) for an unknown id and
// MarkSynced is a no-op for one.
package records
