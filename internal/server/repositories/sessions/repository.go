// Package sessions persists training sessions in PostgreSQL.
package sessions

import (
	"context"

	"github.com/dmitrijs2005/exersio/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, s *models.Session) error
	// Get returns common.ErrorNotFound when the session does not exist.
	Get(ctx context.Context, id string) (*models.Session, error)
	// ListVisible returns sessions owned by userID or shared to one of
	// userID's clubs, most recently updated first.
	ListVisible(ctx context.Context, userID string) ([]*models.Session, error)
	Update(ctx context.Context, s *models.Session) error
	Delete(ctx context.Context, id string) error
}
