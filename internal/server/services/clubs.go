package services

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/exersio/internal/common"
	"github.com/dmitrijs2005/exersio/internal/dbx"
	"github.com/dmitrijs2005/exersio/internal/server/models"
	"github.com/dmitrijs2005/exersio/internal/server/repositories/repomanager"
	"github.com/google/uuid"
)

type ClubService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	now         func() time.Time
}

func NewClubService(db *sql.DB, m repomanager.RepositoryManager) *ClubService {
	return &ClubService{db: db, repomanager: m, now: time.Now}
}

func (s *ClubService) List(ctx context.Context, userID string) ([]*models.Club, error) {
	return s.repomanager.Clubs(s.db).ListForUser(ctx, userID)
}

// Create makes a club and enrols its creator as owner in one transaction.
func (s *ClubService) Create(ctx context.Context, userID, name string) (*models.Club, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: club name is required", common.ErrorValidation)
	}

	club := &models.Club{
		ID:        uuid.NewString(),
		Name:      name,
		OwnerID:   userID,
		Role:      models.RoleOwner,
		CreatedAt: s.now().UTC(),
	}

	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Clubs(tx)
		if err := repo.Create(ctx, club); err != nil {
			return err
		}
		return repo.AddMember(ctx, club.ID, userID, models.RoleOwner)
	})
	if err != nil {
		return nil, fmt.Errorf("error creating club: %w", err)
	}
	return club, nil
}

// AddMember lets a club owner enrol another user as coach or member.
func (s *ClubService) AddMember(ctx context.Context, userID, clubID, memberID, role string) error {
	if !models.ValidMemberRole(role) {
		return fmt.Errorf("%w: role must be %q or %q", common.ErrorValidation, models.RoleCoach, models.RoleMember)
	}
	if memberID == "" {
		return fmt.Errorf("%w: userId is required", common.ErrorValidation)
	}

	repo := s.repomanager.Clubs(s.db)
	club, err := repo.Get(ctx, clubID)
	if err != nil {
		return err
	}
	if club.OwnerID != userID {
		if _, err := repo.MemberRole(ctx, clubID, userID); err != nil {
			return err
		}
		return common.ErrorForbidden
	}
	if memberID == club.OwnerID {
		return fmt.Errorf("%w: the owner's role cannot be changed", common.ErrorValidation)
	}

	if _, err := s.repomanager.Users(s.db).GetUserByID(ctx, memberID); err != nil {
		return err
	}
	return repo.AddMember(ctx, clubID, memberID, role)
}
