package records

import (
	"context"
	"encoding/json"

	"github.com/dmitrijs2005/exersio/internal/client/models"
)

type Repository interface {
	// Save upserts a record, stamping last_modified and bumping version.
	// last_synced is stamped only for StatusSynced, with the later of the
	// local clock and the payload's updatedAt; otherwise the prior value is
	// kept.
	Save(ctx context.Context, kind models.Kind, id string, data json.RawMessage, status models.SyncStatus) (*models.Record, error)

	Get(ctx context.Context, kind models.Kind, id string) (*models.Record, error)
	List(ctx context.Context, kind models.Kind) ([]*models.Record, error)
	GetAllPending(ctx context.Context, kind models.Kind) ([]*models.Record, error)
	GetByStatus(ctx context.Context, kind models.Kind, statuses ...models.SyncStatus) ([]*models.Record, error)
	CountByStatus(ctx context.Context, kind models.Kind) (map[models.SyncStatus]int, error)

	MarkSynced(ctx context.Context, kind models.Kind, id string) error

	// MarkSyncedAt records that a push of the record at version reached the
	// server. last_synced is always advanced; data (when non-nil) is stored
	// and the record flipped to synced only if its version still equals
	// version. It reports whether the version matched.
	MarkSyncedAt(ctx context.Context, kind models.Kind, id string, version int64, data json.RawMessage) (bool, error)

	SetStatus(ctx context.Context, kind models.Kind, id string, status models.SyncStatus) error
	Delete(ctx context.Context, kind models.Kind, id string) error

	// Promote replaces a placeholder record with the server-created entity in
	// one transaction. If the placeholder was edited after version was read,
	// the local payload is kept under the new id as pending.
	Promote(ctx context.Context, kind models.Kind, oldID string, version int64, newID string, serverData json.RawMessage) (*models.Record, error)

	// ClearAll wipes every record and all metadata.
	ClearAll(ctx context.Context) error
}
