// Package services contains the server-side business logic: accounts and
// tokens, exercises (with diagram normalization and image storage),
// sessions and clubs. Services return the sentinels from internal/common so
// the transport layer can map them to status codes.
package services
