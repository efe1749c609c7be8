// Package models defines client-side data models: the offline record envelope
// kept in the local store and the exercise/session payloads it wraps.
package models

import (
	"encoding/json"
	"fmt"
	"time"
)

// Kind names an offline-capable entity collection. The value doubles as the
// local table name and the REST collection path.
type Kind string

const (
	KindExercises Kind = "exercises"
	KindSessions  Kind = "sessions"
)

// Kinds lists collections in sync order: sessions reference exercises.
var Kinds = []Kind{KindExercises, KindSessions}

func ParseKind(s string) (Kind, error) {
	switch Kind(s) {
	case KindExercises, "exercise":
		return KindExercises, nil
	case KindSessions, "session":
		return KindSessions, nil
	}
	return "", fmt.Errorf("unknown kind %q", s)
}

type SyncStatus string

const (
	StatusSynced    SyncStatus = "synced"
	StatusPending   SyncStatus = "pending"
	StatusConflict  SyncStatus = "conflict"
	StatusLocalOnly SyncStatus = "local-only"
)

// Record is a locally cached entity annotated with its sync state.
//
// LastSynced is nil until the record has been confirmed written to or read
// from the server. Version is a local counter bumped on every Save and is used
// to detect edits made while a sync of the same record was in flight.
type Record struct {
	Kind         Kind
	ID           string
	Data         json.RawMessage
	Status       SyncStatus
	LastModified time.Time
	LastSynced   *time.Time
	Version      int64
}

// Unsynced reports whether the record carries local state the server has
// not seen.
func (r *Record) Unsynced() bool {
	return r.Status == StatusPending || r.Status == StatusLocalOnly || r.Status == StatusConflict
}
