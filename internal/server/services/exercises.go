package services

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/dmitrijs2005/exersio/internal/common"
	"github.com/dmitrijs2005/exersio/internal/diagram"
	"github.com/dmitrijs2005/exersio/internal/server/config"
	"github.com/dmitrijs2005/exersio/internal/server/models"
	"github.com/dmitrijs2005/exersio/internal/server/repositories/repomanager"
	"github.com/google/uuid"
)

type ExerciseService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	config      *config.Config
	now         func() time.Time
}

func NewExerciseService(db *sql.DB, m repomanager.RepositoryManager, cfg *config.Config) *ExerciseService {
	return &ExerciseService{db: db, repomanager: m, config: cfg, now: time.Now}
}

// prepare validates the payload and stores its diagram at the current version.
func prepare(e *models.Exercise) error {
	if err := e.Validate(); err != nil {
		return fmt.Errorf("%w: %v", common.ErrorValidation, err)
	}
	fd, err := diagram.Normalize(e.FieldData)
	if err != nil {
		return fmt.Errorf("%w: fieldData: %v", common.ErrorValidation, err)
	}
	e.FieldData = fd
	return nil
}

// load fetches an exercise and checks the caller has at least want access.
func (s *ExerciseService) load(ctx context.Context, userID, id string, want access) (*models.Exercise, access, error) {
	e, err := s.repomanager.Exercises(s.db).Get(ctx, id)
	if err != nil {
		return nil, accessNone, err
	}
	a, err := resolveAccess(ctx, s.repomanager.Clubs(s.db), userID, e.UserID, e.ClubID)
	if err != nil {
		return nil, accessNone, err
	}
	if err := a.require(want); err != nil {
		return nil, a, err
	}
	return e, a, nil
}

func (s *ExerciseService) List(ctx context.Context, userID string) ([]*models.Exercise, error) {
	return s.repomanager.Exercises(s.db).ListVisible(ctx, userID)
}

func (s *ExerciseService) Get(ctx context.Context, userID, id string) (*models.Exercise, error) {
	e, _, err := s.load(ctx, userID, id, accessMember)
	return e, err
}

// Create stores a new exercise owned by userID. The server assigns the id
// and both timestamps; client-sent values are ignored.
func (s *ExerciseService) Create(ctx context.Context, userID string, e *models.Exercise) (*models.Exercise, error) {
	if err := prepare(e); err != nil {
		return nil, err
	}
	if err := checkClub(ctx, s.repomanager.Clubs(s.db), userID, e.ClubID); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	e.ID = uuid.NewString()
	e.UserID = userID
	e.ImageKey = ""
	e.CreatedAt = now
	e.UpdatedAt = now

	if err := s.repomanager.Exercises(s.db).Create(ctx, e); err != nil {
		return nil, err
	}
	return e, nil
}

// Update replaces the editable fields of an owned exercise. Ownership,
// club, image and creation time are kept from the stored copy.
func (s *ExerciseService) Update(ctx context.Context, userID, id string, in *models.Exercise) (*models.Exercise, error) {
	if err := prepare(in); err != nil {
		return nil, err
	}
	cur, _, err := s.load(ctx, userID, id, accessOwner)
	if err != nil {
		return nil, err
	}

	in.ID = cur.ID
	in.UserID = cur.UserID
	in.ClubID = cur.ClubID
	in.ImageKey = cur.ImageKey
	in.CreatedAt = cur.CreatedAt
	in.UpdatedAt = s.now().UTC()

	if err := s.repomanager.Exercises(s.db).Update(ctx, in); err != nil {
		return nil, err
	}
	return in, nil
}

func (s *ExerciseService) Delete(ctx context.Context, userID, id string) error {
	if _, _, err := s.load(ctx, userID, id, accessOwner); err != nil {
		return err
	}
	return s.repomanager.Exercises(s.db).Delete(ctx, id)
}

// Share attaches an owned exercise to a club the owner belongs to.
func (s *ExerciseService) Share(ctx context.Context, userID, id, clubID string) (*models.Exercise, error) {
	if clubID == "" {
		return nil, fmt.Errorf("%w: clubId is required", common.ErrorValidation)
	}
	e, _, err := s.load(ctx, userID, id, accessOwner)
	if err != nil {
		return nil, err
	}
	if err := checkClub(ctx, s.repomanager.Clubs(s.db), userID, &clubID); err != nil {
		return nil, err
	}

	e.ClubID = &clubID
	e.UpdatedAt = s.now().UTC()
	if err := s.repomanager.Exercises(s.db).SetClub(ctx, id, clubID, e.UpdatedAt); err != nil {
		return nil, err
	}
	return e, nil
}

func (s *ExerciseService) Permissions(ctx context.Context, userID, id string) (*models.Permissions, error) {
	_, a, err := s.load(ctx, userID, id, accessMember)
	if err != nil {
		return nil, err
	}
	p := a.permissions()
	return &p, nil
}
