package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrijs2005/exersio/internal/client/client"
	"github.com/dmitrijs2005/exersio/internal/client/models"
	"github.com/dmitrijs2005/exersio/internal/client/repositories/records"
	"github.com/dmitrijs2005/exersio/internal/common"
	"github.com/dmitrijs2005/exersio/internal/logging"
)

// Item is a decoded local record together with its sync state.
type Item[P models.Entity] struct {
	Value        P
	Status       models.SyncStatus
	LastModified time.Time
	LastSynced   *time.Time
}

// EntityService is the offline-first CRUD service for one entity kind. Reads
// always come from the local store; writes go to the server when online and
// are queued locally otherwise.
type EntityService[T any, P interface {
	*T
	models.Entity
}] struct {
	kind    models.Kind
	client  client.Client
	records records.Repository
	net     Connectivity
	log     logging.Logger
	now     func() time.Time
}

type SessionService = EntityService[models.Session, *models.Session]

func NewSessionService(c client.Client, rec records.Repository, net Connectivity, log logging.Logger) *SessionService {
	return newEntityService[models.Session](models.KindSessions, c, rec, net, log)
}

func newEntityService[T any, P interface {
	*T
	models.Entity
}](kind models.Kind, c client.Client, rec records.Repository, net Connectivity, log logging.Logger) *EntityService[T, P] {
	return &EntityService[T, P]{
		kind:    kind,
		client:  c,
		records: rec,
		net:     net,
		log:     log.With("module", string(kind)),
		now:     time.Now,
	}
}

func (s *EntityService[T, P]) decode(rec *models.Record) (*Item[P], error) {
	var v P = new(T)
	if err := json.Unmarshal(rec.Data, v); err != nil {
		return nil, fmt.Errorf("decode %s[%s]: %w", s.kind, rec.ID, err)
	}
	return &Item[P]{
		Value:        v,
		Status:       rec.Status,
		LastModified: rec.LastModified,
		LastSynced:   rec.LastSynced,
	}, nil
}

func (s *EntityService[T, P]) save(ctx context.Context, id string, data json.RawMessage, status models.SyncStatus) (*Item[P], error) {
	rec, err := s.records.Save(ctx, s.kind, id, data, status)
	if err != nil {
		return nil, err
	}
	return s.decode(rec)
}

func (s *EntityService[T, P]) List(ctx context.Context) ([]*Item[P], error) {
	recs, err := s.records.List(ctx, s.kind)
	if err != nil {
		return nil, err
	}
	items := make([]*Item[P], 0, len(recs))
	for _, rec := range recs {
		it, err := s.decode(rec)
		if err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, nil
}

func (s *EntityService[T, P]) Get(ctx context.Context, id string) (*Item[P], error) {
	rec, err := s.records.Get(ctx, s.kind, id)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, ErrNotFound
	}
	return s.decode(rec)
}

// rejected reports errors for which falling back to a local copy would only
// queue a write the server is going to refuse again.
func rejected(err error) bool {
	return errors.Is(err, client.ErrBadRequest) ||
		errors.Is(err, client.ErrForbidden) ||
		errors.Is(err, client.ErrUnauthorized)
}

// Create stores a new entity. Online it is created on the server and kept as
// synced; offline, or when the server is unreachable, it gets a placeholder id
// and is kept as local-only.
func (s *EntityService[T, P]) Create(ctx context.Context, v P) (*Item[P], error) {
	if err := v.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrorValidation, err)
	}
	v.Touch(s.now().UTC())

	if s.net.IsOnline() {
		v.SetID("")
		data, err := json.Marshal(v)
		if err != nil {
			return nil, err
		}

		created, err := s.client.Collection(s.kind).Create(ctx, data)
		if err == nil {
			meta, err := models.Meta(created)
			if err != nil {
				return nil, err
			}
			return s.save(ctx, meta.ID, created, models.StatusSynced)
		}
		if rejected(err) {
			return nil, err
		}
		s.log.Warn(ctx, "create failed, keeping local copy", "error", err)
	}

	v.SetID(common.LocalIDPrefix + uuid.NewString())
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return s.save(ctx, v.GetID(), data, models.StatusLocalOnly)
}

// Update replaces an entity. Placeholders stay local-only and conflicts stay
// conflicts; everything else is written as pending and pushed when online.
func (s *EntityService[T, P]) Update(ctx context.Context, v P) (*Item[P], error) {
	if err := v.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrorValidation, err)
	}

	id := v.GetID()
	rec, err := s.records.Get(ctx, s.kind, id)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, ErrNotFound
	}

	v.Touch(s.now().UTC())
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}

	switch rec.Status {
	case models.StatusLocalOnly, models.StatusConflict:
		return s.save(ctx, id, data, rec.Status)
	}

	saved, err := s.records.Save(ctx, s.kind, id, data, models.StatusPending)
	if err != nil {
		return nil, err
	}

	if s.net.IsOnline() {
		updated, err := s.client.Collection(s.kind).Update(ctx, id, data)
		if err != nil {
			s.log.Warn(ctx, "update not pushed, left pending", "id", id, "error", err)
			return s.decode(saved)
		}
		if _, err := s.records.MarkSyncedAt(ctx, s.kind, id, saved.Version, updated); err != nil {
			return nil, err
		}
		return s.Get(ctx, id)
	}

	return s.decode(saved)
}

// Delete removes an entity. Placeholders never reached the server and are
// dropped locally; anything else is deleted remotely first, which needs a
// connection.
func (s *EntityService[T, P]) Delete(ctx context.Context, id string) error {
	rec, err := s.records.Get(ctx, s.kind, id)
	if err != nil {
		return err
	}

	if rec != nil && (rec.Status == models.StatusLocalOnly || common.IsLocalID(id)) {
		return s.records.Delete(ctx, s.kind, id)
	}

	if !s.net.IsOnline() {
		return ErrOffline
	}

	if err := s.client.Collection(s.kind).Delete(ctx, id); err != nil && !errors.Is(err, client.ErrNotFound) {
		return err
	}
	return s.records.Delete(ctx, s.kind, id)
}
