package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/dmitrijs2005/exersio/internal/client/client"
	"github.com/dmitrijs2005/exersio/internal/client/models"
	"github.com/dmitrijs2005/exersio/internal/client/repositories/records"
	"github.com/dmitrijs2005/exersio/internal/common"
	"github.com/dmitrijs2005/exersio/internal/filex"
	"github.com/dmitrijs2005/exersio/internal/logging"
	"github.com/dmitrijs2005/exersio/internal/netx"
)

// MaxImageSize caps exercise illustrations.
const MaxImageSize = 10 << 20

type ExerciseService struct {
	*EntityService[models.Exercise, *models.Exercise]
	upload *http.Client
}

func NewExerciseService(c client.Client, rec records.Repository, net Connectivity, log logging.Logger) *ExerciseService {
	return &ExerciseService{
		EntityService: newEntityService[models.Exercise](models.KindExercises, c, rec, net, log),
	}
}

func (s *ExerciseService) online(id string) error {
	if !s.net.IsOnline() {
		return ErrOffline
	}
	if common.IsLocalID(id) {
		return ErrNotSynced
	}
	return nil
}

// UploadImage sends an image file to object storage through a presigned URL
// and records the resulting key on the exercise.
func (s *ExerciseService) UploadImage(ctx context.Context, id, path string) (string, error) {
	if err := s.online(id); err != nil {
		return "", err
	}

	body, contentType, err := filex.ReadLimited(path, MaxImageSize)
	if err != nil {
		return "", err
	}
	if !strings.HasPrefix(contentType, "image/") {
		return "", fmt.Errorf("%w: %s is %s, not an image", common.ErrorValidation, path, contentType)
	}

	up, err := s.client.ExerciseImageUploadURL(ctx, id, contentType)
	if err != nil {
		return "", fmt.Errorf("request upload url: %w", err)
	}

	if err := netx.UploadToPresignedURL(ctx, s.upload, up.URL, contentType, body); err != nil {
		return "", err
	}

	if err := s.refresh(ctx, id); err != nil {
		s.log.Warn(ctx, "image uploaded but local copy not refreshed", "id", id, "error", err)
	}
	return up.Key, nil
}

// refresh pulls the server copy into the store unless the local one has
// unsynced edits.
func (s *ExerciseService) refresh(ctx context.Context, id string) error {
	rec, err := s.records.Get(ctx, s.kind, id)
	if err != nil || rec == nil || rec.Status != models.StatusSynced {
		return err
	}
	server, err := s.client.Collection(s.kind).Get(ctx, id)
	if err != nil {
		return err
	}
	_, err = s.records.Save(ctx, s.kind, id, server, models.StatusSynced)
	return err
}

func (s *ExerciseService) ImageURL(ctx context.Context, id string) (string, error) {
	if err := s.online(id); err != nil {
		return "", err
	}
	return s.client.ExerciseImageURL(ctx, id)
}

func (s *ExerciseService) Permissions(ctx context.Context, id string) (*client.Permissions, error) {
	if err := s.online(id); err != nil {
		return nil, err
	}
	return s.client.ExercisePermissions(ctx, id)
}

// Share attaches the exercise to a club. The shared copy returned by the
// server replaces the local one when that has no pending edits.
func (s *ExerciseService) Share(ctx context.Context, id, clubID string) error {
	if err := s.online(id); err != nil {
		return err
	}

	shared, err := s.client.ShareExercise(ctx, id, clubID)
	if err != nil {
		return err
	}

	rec, err := s.records.Get(ctx, s.kind, id)
	if err != nil {
		return err
	}
	if rec == nil || rec.Status == models.StatusSynced {
		_, err = s.records.Save(ctx, s.kind, id, json.RawMessage(shared), models.StatusSynced)
	}
	return err
}
