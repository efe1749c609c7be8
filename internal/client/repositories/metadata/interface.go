package metadata

import (
	"context"
	"time"
)

// Well-known keys.
const (
	KeyLastSyncTime = "last_sync_time"
	KeyUserEmail    = "user_email"
	KeyUserID       = "user_id"
)

// Repository is a small key/value store living next to the offline records.
// Get returns (nil, nil) for absent keys.
type Repository interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	List(ctx context.Context) (map[string][]byte, error)
	Clear(ctx context.Context) error

	GetTime(ctx context.Context, key string) (*time.Time, error)
	SetTime(ctx context.Context, key string, t time.Time) error
}
