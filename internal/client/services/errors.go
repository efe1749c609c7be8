package services

import "errors"

var (
	ErrOffline        = errors.New("offline: operation needs a server connection")
	ErrSyncInProgress = errors.New("sync already in progress")
	ErrNoConflict     = errors.New("record is not in conflict")
	ErrUnknownChoice  = errors.New(`choice must be "local" or "server"`)
	ErrNotFound       = errors.New("record not found")
	ErrNotSynced      = errors.New("record has not been synced to the server yet")
)

// storeError marks a local storage failure. Those abort a batch instead of
// being counted as a per-record failure.
type storeError struct{ err error }

func (e *storeError) Error() string { return "local store: " + e.err.Error() }
func (e *storeError) Unwrap() error { return e.err }

func storeErr(err error) error {
	if err == nil {
		return nil
	}
	return &storeError{err: err}
}
