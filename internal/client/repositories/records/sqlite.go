package records

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/exersio/internal/client/models"
	"github.com/dmitrijs2005/exersio/internal/dbx"
)

type SQLiteRepository struct {
	db  *sql.DB
	now func() time.Time
}

type Option func(*SQLiteRepository)

// WithClock overrides the time source used for timestamps.
func WithClock(now func() time.Time) Option {
	return func(r *SQLiteRepository) { r.now = now }
}

func NewSQLiteRepository(db *sql.DB, opts ...Option) *SQLiteRepository {
	r := &SQLiteRepository{db: db, now: time.Now}
	for _, o := range opts {
		o(r)
	}
	return r
}

func table(kind models.Kind) (string, error) {
	switch kind {
	case models.KindExercises:
		return "exercises", nil
	case models.KindSessions:
		return "sessions", nil
	}
	return "", fmt.Errorf("unknown record kind %q", kind)
}

const columns = `id, data, sync_status, last_modified, last_synced, version`

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(kind models.Kind, s scanner) (*models.Record, error) {
	var (
		rec          = &models.Record{Kind: kind}
		data         []byte
		status       string
		lastModified int64
		lastSynced   sql.NullInt64
	)
	if err := s.Scan(&rec.ID, &data, &status, &lastModified, &lastSynced, &rec.Version); err != nil {
		return nil, err
	}
	rec.Data = json.RawMessage(data)
	rec.Status = models.SyncStatus(status)
	rec.LastModified = time.UnixMilli(lastModified).UTC()
	rec.LastSynced = dbx.FromNullMillis(lastSynced)
	return rec, nil
}

// syncStamp is the sync point recorded for a server payload: the later of the
// local clock and the server's updatedAt, so a server clock running ahead does
// not make the next local edit look like a remote change.
func syncStamp(now time.Time, serverData json.RawMessage) time.Time {
	if len(serverData) == 0 {
		return now
	}
	meta, err := models.Meta(serverData)
	if err != nil || !meta.UpdatedAt.After(now) {
		return now
	}
	return meta.UpdatedAt
}

func save(ctx context.Context, db dbx.DBTX, t string, kind models.Kind, id string, data json.RawMessage, status models.SyncStatus, now time.Time) (*models.Record, error) {
	var synced sql.NullInt64
	if status == models.StatusSynced {
		stamp := syncStamp(now, data)
		synced = dbx.NullMillis(&stamp)
	}

	query := fmt.Sprintf(`
		INSERT INTO %[1]s (id, data, sync_status, last_modified, last_synced, version)
		VALUES (?, ?, ?, ?, ?, 1)
		ON CONFLICT(id) DO UPDATE SET
			data          = excluded.data,
			sync_status   = excluded.sync_status,
			last_modified = excluded.last_modified,
			last_synced   = CASE WHEN excluded.sync_status = 'synced'
			                     THEN excluded.last_synced
			                     ELSE %[1]s.last_synced END,
			version       = %[1]s.version + 1
		RETURNING %[2]s`, t, columns)

	row := db.QueryRowContext(ctx, query, id, []byte(data), string(status), now.UnixMilli(), synced)
	rec, err := scanRecord(kind, row)
	if err != nil {
		return nil, fmt.Errorf("failed to save %s[%s]: %w", kind, id, err)
	}
	return rec, nil
}

func (r *SQLiteRepository) Save(ctx context.Context, kind models.Kind, id string, data json.RawMessage, status models.SyncStatus) (*models.Record, error) {
	t, err := table(kind)
	if err != nil {
		return nil, err
	}
	return save(ctx, r.db, t, kind, id, data, status, r.now())
}

func get(ctx context.Context, db dbx.DBTX, t string, kind models.Kind, id string) (*models.Record, error) {
	row := db.QueryRowContext(ctx, fmt.Sprintf(`SELECT %s FROM %s WHERE id = ?`, columns, t), id)
	rec, err := scanRecord(kind, row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get %s[%s]: %w", kind, id, err)
	}
	return rec, nil
}

func (r *SQLiteRepository) Get(ctx context.Context, kind models.Kind, id string) (*models.Record, error) {
	t, err := table(kind)
	if err != nil {
		return nil, err
	}
	return get(ctx, r.db, t, kind, id)
}

func (r *SQLiteRepository) query(ctx context.Context, kind models.Kind, where string, args ...any) ([]*models.Record, error) {
	t, err := table(kind)
	if err != nil {
		return nil, err
	}

	q := fmt.Sprintf(`SELECT %s FROM %s %s ORDER BY last_modified DESC, id`, columns, t, where)
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to select %s: %w", kind, err)
	}
	defer rows.Close()

	result := []*models.Record{}
	for rows.Next() {
		rec, err := scanRecord(kind, rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan %s row: %w", kind, err)
		}
		result = append(result, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate %s rows: %w", kind, err)
	}
	return result, nil
}

func (r *SQLiteRepository) List(ctx context.Context, kind models.Kind) ([]*models.Record, error) {
	return r.query(ctx, kind, "")
}

func (r *SQLiteRepository) GetAllPending(ctx context.Context, kind models.Kind) ([]*models.Record, error) {
	return r.GetByStatus(ctx, kind, models.StatusPending)
}

func (r *SQLiteRepository) GetByStatus(ctx context.Context, kind models.Kind, statuses ...models.SyncStatus) ([]*models.Record, error) {
	if len(statuses) == 0 {
		return []*models.Record{}, nil
	}
	args := make([]any, len(statuses))
	for i, s := range statuses {
		args[i] = string(s)
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(statuses)), ",")
	return r.query(ctx, kind, "WHERE sync_status IN ("+placeholders+")", args...)
}

func (r *SQLiteRepository) CountByStatus(ctx context.Context, kind models.Kind) (map[models.SyncStatus]int, error) {
	t, err := table(kind)
	if err != nil {
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx, fmt.Sprintf(`SELECT sync_status, COUNT(*) FROM %s GROUP BY sync_status`, t))
	if err != nil {
		return nil, fmt.Errorf("failed to count %s: %w", kind, err)
	}
	defer rows.Close()

	counts := make(map[models.SyncStatus]int)
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, fmt.Errorf("failed to scan %s count: %w", kind, err)
		}
		counts[models.SyncStatus(status)] = n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate %s counts: %w", kind, err)
	}
	return counts, nil
}

func (r *SQLiteRepository) MarkSynced(ctx context.Context, kind models.Kind, id string) error {
	t, err := table(kind)
	if err != nil {
		return err
	}

	// already-synced rows keep their stamp so repeated calls converge
	q := fmt.Sprintf(`UPDATE %s SET sync_status = 'synced', last_synced = ? WHERE id = ? AND sync_status <> 'synced'`, t)
	if _, err := r.db.ExecContext(ctx, q, r.now().UnixMilli(), id); err != nil {
		return fmt.Errorf("failed to mark %s[%s] synced: %w", kind, id, err)
	}
	return nil
}

func (r *SQLiteRepository) MarkSyncedAt(ctx context.Context, kind models.Kind, id string, version int64, data json.RawMessage) (bool, error) {
	t, err := table(kind)
	if err != nil {
		return false, err
	}

	var payload any
	if data != nil {
		payload = []byte(data)
	}
	stamp := syncStamp(r.now(), data).UnixMilli()

	var matched bool
	err = dbx.WithTx(ctx, r.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		q := fmt.Sprintf(`
			UPDATE %s SET
				sync_status = 'synced',
				last_synced = ?,
				data        = COALESCE(?, data)
			WHERE id = ? AND version = ?`, t)
		res, err := tx.ExecContext(ctx, q, stamp, payload, id, version)
		if err != nil {
			return err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to get rows affected: %w", err)
		}
		if n == 1 {
			matched = true
			return nil
		}

		// the push landed but the record was edited meanwhile: it stays
		// pending, measured against the state the server now holds
		_, err = tx.ExecContext(ctx, fmt.Sprintf(`UPDATE %s SET last_synced = ? WHERE id = ?`, t), stamp, id)
		return err
	})
	if err != nil {
		return false, fmt.Errorf("failed to mark %s[%s] synced: %w", kind, id, err)
	}
	return matched, nil
}

func (r *SQLiteRepository) SetStatus(ctx context.Context, kind models.Kind, id string, status models.SyncStatus) error {
	t, err := table(kind)
	if err != nil {
		return err
	}
	q := fmt.Sprintf(`UPDATE %s SET sync_status = ? WHERE id = ?`, t)
	if _, err := r.db.ExecContext(ctx, q, string(status), id); err != nil {
		return fmt.Errorf("failed to set %s[%s] status: %w", kind, id, err)
	}
	return nil
}

func (r *SQLiteRepository) Delete(ctx context.Context, kind models.Kind, id string) error {
	t, err := table(kind)
	if err != nil {
		return err
	}
	if _, err := r.db.ExecContext(ctx, fmt.Sprintf(`DELETE FROM %s WHERE id = ?`, t), id); err != nil {
		return fmt.Errorf("failed to delete %s[%s]: %w", kind, id, err)
	}
	return nil
}

func (r *SQLiteRepository) Promote(ctx context.Context, kind models.Kind, oldID string, version int64, newID string, serverData json.RawMessage) (*models.Record, error) {
	t, err := table(kind)
	if err != nil {
		return nil, err
	}

	var out *models.Record
	err = dbx.WithTx(ctx, r.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		old, err := get(ctx, tx, t, kind, oldID)
		if err != nil {
			return err
		}

		if oldID != newID {
			if _, err := tx.ExecContext(ctx, fmt.Sprintf(`DELETE FROM %s WHERE id = ?`, t), oldID); err != nil {
				return fmt.Errorf("failed to delete placeholder %s[%s]: %w", kind, oldID, err)
			}
		}

		now := r.now()

		if old == nil || old.Version == version {
			out, err = save(ctx, tx, t, kind, newID, serverData, models.StatusSynced, now)
			return err
		}

		// edited while the create was in flight: keep the newer local payload
		// under the server id and let the next sync push it
		data, err := models.ReplaceID(old.Data, newID)
		if err != nil {
			return err
		}
		q := fmt.Sprintf(`
			INSERT INTO %s (id, data, sync_status, last_modified, last_synced, version)
			VALUES (?, ?, 'pending', ?, ?, 1)`, t)
		if _, err := tx.ExecContext(ctx, q, newID, []byte(data), old.LastModified.UnixMilli(), syncStamp(now, serverData).UnixMilli()); err != nil {
			return fmt.Errorf("failed to insert %s[%s]: %w", kind, newID, err)
		}
		out, err = get(ctx, tx, t, kind, newID)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to promote %s[%s]: %w", kind, oldID, err)
	}
	return out, nil
}

func (r *SQLiteRepository) ClearAll(ctx context.Context) error {
	err := dbx.WithTx(ctx, r.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		for _, q := range []string{`DELETE FROM exercises`, `DELETE FROM sessions`, `DELETE FROM metadata`} {
			if _, err := tx.ExecContext(ctx, q); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to clear local data: %w", err)
	}
	return nil
}
