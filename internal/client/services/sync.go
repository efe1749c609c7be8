// Package services holds the client's application services: the sync engine,
// the offline-capable entity services and authentication.
package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dmitrijs2005/exersio/internal/client/client"
	"github.com/dmitrijs2005/exersio/internal/client/models"
	"github.com/dmitrijs2005/exersio/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/exersio/internal/client/repositories/records"
	"github.com/dmitrijs2005/exersio/internal/common"
	"github.com/dmitrijs2005/exersio/internal/logging"
)

// Connectivity is the read side of connectivity.Observer.
type Connectivity interface {
	IsOnline() bool
}

// keyIDMapPrefix prefixes metadata entries mapping a promoted placeholder
// exercise id to its server id, so sessions edited offline can be remapped
// even when the exercise was synced in an earlier batch.
const keyIDMapPrefix = "id_map:"

type SyncResult struct {
	Synced    int
	Failed    int
	Conflicts int
	Errors    []string
	Success   bool
}

type DownloadResult struct {
	Downloaded int
	// Skipped counts server records not applied because the local copy has
	// unsynced changes (pending, local-only or conflict).
	Skipped int
}

// Conflict pairs the local and server copies of a conflicted record.
type Conflict struct {
	Kind          models.Kind
	ID            string
	Local         json.RawMessage
	LocalModified time.Time
	LastSynced    *time.Time
	Server        json.RawMessage
	ServerUpdated time.Time
	ServerMissing bool
	FetchError    string
}

// Status is what the offline panel shows.
type Status struct {
	Online       bool
	Pending      map[models.Kind]int
	Conflicts    map[models.Kind]int
	LastSyncTime *time.Time
}

func (s Status) TotalPending() int {
	n := 0
	for _, v := range s.Pending {
		n += v
	}
	return n
}

func (s Status) TotalConflicts() int {
	n := 0
	for _, v := range s.Conflicts {
		n += v
	}
	return n
}

type outcome int

const (
	outcomeSynced outcome = iota
	outcomeConflict
	// pushed, but edited locally meanwhile; stays pending for the next sync
	outcomeRequeued
)

// SyncService reconciles the local store with the server. At most one
// SyncAll, DownloadAll, ResolveConflict or ClearLocalData runs at a time per
// instance.
type SyncService struct {
	client  client.Client
	records records.Repository
	meta    metadata.Repository
	net     Connectivity
	log     logging.Logger
	now     func() time.Time

	mu      sync.Mutex
	syncing bool
}

func NewSyncService(c client.Client, rec records.Repository, meta metadata.Repository, net Connectivity, log logging.Logger) *SyncService {
	return &SyncService{
		client:  c,
		records: rec,
		meta:    meta,
		net:     net,
		log:     log.With("module", "sync"),
		now:     time.Now,
	}
}

func (s *SyncService) begin() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.syncing {
		return ErrSyncInProgress
	}
	s.syncing = true
	return nil
}

func (s *SyncService) end() {
	s.mu.Lock()
	s.syncing = false
	s.mu.Unlock()
}

// InProgress reports whether a batch is running.
func (s *SyncService) InProgress() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.syncing
}

func (s *SyncService) preconditions() error {
	if !s.net.IsOnline() {
		return ErrOffline
	}
	return s.begin()
}

// SyncAll pushes every pending and local-only record. Per-record failures are
// reported in the result; only precondition and storage failures are returned
// as errors.
func (s *SyncService) SyncAll(ctx context.Context) (*SyncResult, error) {
	if err := s.preconditions(); err != nil {
		return nil, err
	}
	defer s.end()

	res := &SyncResult{Errors: []string{}}

	for _, kind := range models.Kinds {
		recs, err := s.unsynced(ctx, kind)
		if err != nil {
			return nil, fmt.Errorf("load unsynced %s: %w", kind, err)
		}

		for _, rec := range recs {
			out, err := s.syncRecord(ctx, rec)

			var se *storeError
			if errors.As(err, &se) {
				return nil, err
			}
			if err != nil {
				res.Failed++
				res.Errors = append(res.Errors, fmt.Sprintf("%s %s: %v", kind, rec.ID, err))
				s.log.Warn(ctx, "record sync failed", "kind", kind, "id", rec.ID, "error", err)
				continue
			}

			switch out {
			case outcomeConflict:
				res.Conflicts++
				s.log.Info(ctx, "conflict detected", "kind", kind, "id", rec.ID)
			case outcomeRequeued:
				s.log.Info(ctx, "record edited during sync, left pending", "kind", kind, "id", rec.ID)
			default:
				res.Synced++
			}
		}
	}

	res.Success = res.Failed == 0

	if res.Synced > 0 {
		if err := s.meta.SetTime(ctx, metadata.KeyLastSyncTime, s.now()); err != nil {
			return nil, err
		}
	}

	s.log.Info(ctx, "sync finished", "synced", res.Synced, "failed", res.Failed, "conflicts", res.Conflicts)
	return res, nil
}

// unsynced returns the pending records of kind followed by its local-only
// ones.
func (s *SyncService) unsynced(ctx context.Context, kind models.Kind) ([]*models.Record, error) {
	pending, err := s.records.GetAllPending(ctx, kind)
	if err != nil {
		return nil, err
	}
	local, err := s.records.GetByStatus(ctx, kind, models.StatusLocalOnly)
	if err != nil {
		return nil, err
	}
	return append(pending, local...), nil
}

func (s *SyncService) syncRecord(ctx context.Context, rec *models.Record) (outcome, error) {
	if rec.Kind == models.KindSessions {
		var err error
		if rec, err = s.remapSession(ctx, rec); err != nil {
			return 0, err
		}
	}
	return s.syncOne(ctx, rec)
}

// remapSession rewrites placeholder exercise ids that have since been
// promoted. A session still pointing at an unsynced exercise is not sent.
func (s *SyncService) remapSession(ctx context.Context, rec *models.Record) (*models.Record, error) {
	var sess models.Session
	if err := json.Unmarshal(rec.Data, &sess); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}

	ids := map[string]string{}
	for _, id := range sess.ExerciseIDs {
		if !common.IsLocalID(id) {
			continue
		}
		v, err := s.meta.Get(ctx, keyIDMapPrefix+id)
		if err != nil {
			return nil, storeErr(err)
		}
		if v == nil {
			return nil, fmt.Errorf("references exercise %s that is not synced yet", id)
		}
		ids[id] = string(v)
	}

	data, changed, err := models.RemapExerciseIDs(rec.Data, ids)
	if err != nil || !changed {
		return rec, err
	}

	updated, err := s.records.Save(ctx, rec.Kind, rec.ID, data, rec.Status)
	if err != nil {
		return nil, storeErr(err)
	}
	return updated, nil
}

// syncOne applies the per-record policy: local-only records are created;
// pending records are compared with the server copy first and either pushed,
// flagged as conflict, or re-created when the server no longer has them.
func (s *SyncService) syncOne(ctx context.Context, rec *models.Record) (outcome, error) {
	if rec.Status == models.StatusLocalOnly || common.IsLocalID(rec.ID) {
		return s.create(ctx, rec)
	}

	col := s.client.Collection(rec.Kind)

	server, err := col.Get(ctx, rec.ID)
	if errors.Is(err, client.ErrNotFound) {
		s.log.Info(ctx, "record deleted on server, re-creating", "kind", rec.Kind, "id", rec.ID)
		return s.create(ctx, rec)
	}
	if err != nil {
		return 0, err
	}

	meta, err := models.Meta(server)
	if err != nil {
		return 0, err
	}

	var lastSynced time.Time
	if rec.LastSynced != nil {
		lastSynced = *rec.LastSynced
	}
	if meta.UpdatedAt.After(lastSynced) {
		if err := s.records.SetStatus(ctx, rec.Kind, rec.ID, models.StatusConflict); err != nil {
			return 0, storeErr(err)
		}
		return outcomeConflict, nil
	}

	updated, err := col.Update(ctx, rec.ID, rec.Data)
	if err != nil {
		return 0, err
	}

	ok, err := s.records.MarkSyncedAt(ctx, rec.Kind, rec.ID, rec.Version, updated)
	if err != nil {
		return 0, storeErr(err)
	}
	if !ok {
		return outcomeRequeued, nil
	}
	return outcomeSynced, nil
}

func (s *SyncService) create(ctx context.Context, rec *models.Record) (outcome, error) {
	created, err := s.client.Collection(rec.Kind).Create(ctx, rec.Data)
	if err != nil {
		return 0, err
	}

	meta, err := models.Meta(created)
	if err != nil {
		return 0, err
	}
	if meta.ID == "" {
		return 0, errors.New("server returned an entity without id")
	}

	if rec.Kind == models.KindExercises && common.IsLocalID(rec.ID) {
		if err := s.meta.Set(ctx, keyIDMapPrefix+rec.ID, []byte(meta.ID)); err != nil {
			return 0, storeErr(err)
		}
	}

	promoted, err := s.records.Promote(ctx, rec.Kind, rec.ID, rec.Version, meta.ID, created)
	if err != nil {
		return 0, storeErr(err)
	}
	if promoted != nil && promoted.Status != models.StatusSynced {
		return outcomeRequeued, nil
	}
	return outcomeSynced, nil
}

// DownloadAll fetches both collections and stores them as synced. Local
// records with unsynced changes are left alone; nothing is deleted locally.
func (s *SyncService) DownloadAll(ctx context.Context) (*DownloadResult, error) {
	if err := s.preconditions(); err != nil {
		return nil, err
	}
	defer s.end()

	res := &DownloadResult{}

	for _, kind := range models.Kinds {
		items, err := s.client.Collection(kind).List(ctx)
		if err != nil {
			return nil, fmt.Errorf("download %s: %w", kind, err)
		}

		for _, raw := range items {
			meta, err := models.Meta(raw)
			if err != nil {
				return nil, err
			}

			local, err := s.records.Get(ctx, kind, meta.ID)
			if err != nil {
				return nil, err
			}
			if local != nil && local.Unsynced() {
				res.Skipped++
				s.log.Debug(ctx, "download skipped unsynced record", "kind", kind, "id", meta.ID, "status", local.Status)
				continue
			}

			if _, err := s.records.Save(ctx, kind, meta.ID, raw, models.StatusSynced); err != nil {
				return nil, err
			}
			res.Downloaded++
		}
	}

	if err := s.meta.SetTime(ctx, metadata.KeyLastSyncTime, s.now()); err != nil {
		return nil, err
	}

	s.log.Info(ctx, "download finished", "downloaded", res.Downloaded, "skipped", res.Skipped)
	return res, nil
}

// GetConflicts re-fetches the server copy of every conflicted record.
func (s *SyncService) GetConflicts(ctx context.Context) ([]Conflict, error) {
	if !s.net.IsOnline() {
		return nil, ErrOffline
	}

	out := []Conflict{}
	for _, kind := range models.Kinds {
		recs, err := s.records.GetByStatus(ctx, kind, models.StatusConflict)
		if err != nil {
			return nil, err
		}

		for _, rec := range recs {
			c := Conflict{
				Kind:          kind,
				ID:            rec.ID,
				Local:         rec.Data,
				LocalModified: rec.LastModified,
				LastSynced:    rec.LastSynced,
			}

			server, err := s.client.Collection(kind).Get(ctx, rec.ID)
			switch {
			case errors.Is(err, client.ErrNotFound):
				c.ServerMissing = true
			case err != nil:
				c.FetchError = err.Error()
			default:
				c.Server = server
				if meta, err := models.Meta(server); err == nil {
					c.ServerUpdated = meta.UpdatedAt
				}
			}
			out = append(out, c)
		}
	}
	return out, nil
}

const (
	ChoiceLocal  = "local"
	ChoiceServer = "server"
)

// ResolveConflict settles a conflict by overwriting one side: "local" pushes
// the local payload, "server" replaces the local copy with the server's.
func (s *SyncService) ResolveConflict(ctx context.Context, kind models.Kind, id, choice string) error {
	if choice != ChoiceLocal && choice != ChoiceServer {
		return ErrUnknownChoice
	}
	if err := s.preconditions(); err != nil {
		return err
	}
	defer s.end()

	rec, err := s.records.Get(ctx, kind, id)
	if err != nil {
		return err
	}
	if rec == nil {
		return ErrNotFound
	}
	if rec.Status != models.StatusConflict {
		return ErrNoConflict
	}

	col := s.client.Collection(kind)

	if choice == ChoiceServer {
		server, err := col.Get(ctx, id)
		if errors.Is(err, client.ErrNotFound) {
			// the server side is a deletion
			return s.records.Delete(ctx, kind, id)
		}
		if err != nil {
			return err
		}
		_, err = s.records.Save(ctx, kind, id, server, models.StatusSynced)
		return err
	}

	updated, err := col.Update(ctx, id, rec.Data)
	if errors.Is(err, client.ErrNotFound) {
		_, err = s.create(ctx, rec)
		return err
	}
	if err != nil {
		return err
	}
	_, err = s.records.MarkSyncedAt(ctx, kind, id, rec.Version, updated)
	return err
}

// PendingCount returns pending plus local-only records per kind.
func (s *SyncService) PendingCount(ctx context.Context) (map[models.Kind]int, error) {
	st, err := s.Status(ctx)
	if err != nil {
		return nil, err
	}
	return st.Pending, nil
}

func (s *SyncService) Status(ctx context.Context) (*Status, error) {
	st := &Status{
		Online:    s.net.IsOnline(),
		Pending:   map[models.Kind]int{},
		Conflicts: map[models.Kind]int{},
	}

	for _, kind := range models.Kinds {
		counts, err := s.records.CountByStatus(ctx, kind)
		if err != nil {
			return nil, err
		}
		st.Pending[kind] = counts[models.StatusPending] + counts[models.StatusLocalOnly]
		st.Conflicts[kind] = counts[models.StatusConflict]
	}

	last, err := s.meta.GetTime(ctx, metadata.KeyLastSyncTime)
	if err != nil {
		return nil, err
	}
	st.LastSyncTime = last
	return st, nil
}

// ClearLocalData wipes every record and all sync metadata. It is only ever
// called on explicit user request.
func (s *SyncService) ClearLocalData(ctx context.Context) error {
	if err := s.begin(); err != nil {
		return err
	}
	defer s.end()
	return s.records.ClearAll(ctx)
}
