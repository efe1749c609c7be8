package services

import (
	"context"
	"errors"

	"github.com/dmitrijs2005/exersio/internal/common"
	"github.com/dmitrijs2005/exersio/internal/server/models"
	"github.com/dmitrijs2005/exersio/internal/server/repositories/clubs"
)

// access is what a user may do with an owned, possibly club-shared entity.
type access int

const (
	accessNone access = iota
	accessMember
	accessOwner
)

func resolveAccess(ctx context.Context, repo clubs.Repository, userID, ownerID string, clubID *string) (access, error) {
	if userID == ownerID {
		return accessOwner, nil
	}
	if clubID == nil {
		return accessNone, nil
	}
	if _, err := repo.MemberRole(ctx, *clubID, userID); err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return accessNone, nil
		}
		return accessNone, err
	}
	return accessMember, nil
}

// require maps an access level to the sentinel a caller gets when it is not
// enough. Invisible entities look missing.
func (a access) require(want access) error {
	switch {
	case a >= want:
		return nil
	case a == accessNone:
		return common.ErrorNotFound
	default:
		return common.ErrorForbidden
	}
}

func (a access) permissions() models.Permissions {
	return models.Permissions{
		CanView:   a >= accessMember,
		CanEdit:   a == accessOwner,
		CanDelete: a == accessOwner,
		CanShare:  a == accessOwner,
	}
}

// checkClub verifies userID may attach an entity to clubID.
func checkClub(ctx context.Context, repo clubs.Repository, userID string, clubID *string) error {
	if clubID == nil {
		return nil
	}
	if _, err := repo.MemberRole(ctx, *clubID, userID); err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return common.ErrorForbidden
		}
		return err
	}
	return nil
}
