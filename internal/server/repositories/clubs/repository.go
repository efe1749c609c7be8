// Package clubs persists clubs and their memberships.
package clubs

import (
	"context"

	"github.com/dmitrijs2005/exersio/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, club *models.Club) error
	// Get returns common.ErrorNotFound when the club does not exist.
	Get(ctx context.Context, id string) (*models.Club, error)
	// ListForUser returns the clubs userID belongs to, with userID's role.
	ListForUser(ctx context.Context, userID string) ([]*models.Club, error)
	// AddMember inserts or updates a membership. An unknown club or user
	// yields common.ErrorNotFound.
	AddMember(ctx context.Context, clubID, userID, role string) error
	// MemberRole returns common.ErrorNotFound when userID is not a member.
	MemberRole(ctx context.Context, clubID, userID string) (string, error)
}
