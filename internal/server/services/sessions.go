package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/exersio/internal/common"
	"github.com/dmitrijs2005/exersio/internal/server/models"
	"github.com/dmitrijs2005/exersio/internal/server/repositories/repomanager"
	"github.com/google/uuid"
)

type SessionService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	now         func() time.Time
}

func NewSessionService(db *sql.DB, m repomanager.RepositoryManager) *SessionService {
	return &SessionService{db: db, repomanager: m, now: time.Now}
}

func (s *SessionService) load(ctx context.Context, userID, id string, want access) (*models.Session, error) {
	sess, err := s.repomanager.Sessions(s.db).Get(ctx, id)
	if err != nil {
		return nil, err
	}
	a, err := resolveAccess(ctx, s.repomanager.Clubs(s.db), userID, sess.UserID, sess.ClubID)
	if err != nil {
		return nil, err
	}
	if err := a.require(want); err != nil {
		return nil, err
	}
	return sess, nil
}

// checkExercises makes sure every referenced exercise exists and is visible
// to userID, so a session never points at something its owner cannot open.
func (s *SessionService) checkExercises(ctx context.Context, userID string, ids []string) error {
	exercises := s.repomanager.Exercises(s.db)
	clubs := s.repomanager.Clubs(s.db)

	for _, id := range ids {
		if common.IsLocalID(id) {
			return fmt.Errorf("%w: exercise %s has not been synced", common.ErrorValidation, id)
		}
		e, err := exercises.Get(ctx, id)
		if err != nil {
			if errors.Is(err, common.ErrorNotFound) {
				return fmt.Errorf("%w: unknown exercise %s", common.ErrorValidation, id)
			}
			return err
		}
		a, err := resolveAccess(ctx, clubs, userID, e.UserID, e.ClubID)
		if err != nil {
			return err
		}
		if a == accessNone {
			return fmt.Errorf("%w: unknown exercise %s", common.ErrorValidation, id)
		}
	}
	return nil
}

func (s *SessionService) validate(ctx context.Context, userID string, in *models.Session) error {
	if err := in.Validate(); err != nil {
		return fmt.Errorf("%w: %v", common.ErrorValidation, err)
	}
	if in.ExerciseIDs == nil {
		in.ExerciseIDs = []string{}
	}
	return s.checkExercises(ctx, userID, in.ExerciseIDs)
}

func (s *SessionService) List(ctx context.Context, userID string) ([]*models.Session, error) {
	return s.repomanager.Sessions(s.db).ListVisible(ctx, userID)
}

func (s *SessionService) Get(ctx context.Context, userID, id string) (*models.Session, error) {
	return s.load(ctx, userID, id, accessMember)
}

func (s *SessionService) Create(ctx context.Context, userID string, in *models.Session) (*models.Session, error) {
	if err := s.validate(ctx, userID, in); err != nil {
		return nil, err
	}
	if err := checkClub(ctx, s.repomanager.Clubs(s.db), userID, in.ClubID); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	in.ID = uuid.NewString()
	in.UserID = userID
	in.CreatedAt = now
	in.UpdatedAt = now

	if err := s.repomanager.Sessions(s.db).Create(ctx, in); err != nil {
		return nil, err
	}
	return in, nil
}

func (s *SessionService) Update(ctx context.Context, userID, id string, in *models.Session) (*models.Session, error) {
	cur, err := s.load(ctx, userID, id, accessOwner)
	if err != nil {
		return nil, err
	}
	if err := s.validate(ctx, userID, in); err != nil {
		return nil, err
	}

	in.ID = cur.ID
	in.UserID = cur.UserID
	in.ClubID = cur.ClubID
	in.CreatedAt = cur.CreatedAt
	in.UpdatedAt = s.now().UTC()

	if err := s.repomanager.Sessions(s.db).Update(ctx, in); err != nil {
		return nil, err
	}
	return in, nil
}

func (s *SessionService) Delete(ctx context.Context, userID, id string) error {
	if _, err := s.load(ctx, userID, id, accessOwner); err != nil {
		return err
	}
	return s.repomanager.Sessions(s.db).Delete(ctx, id)
}
