// Package exercises persists training exercises in PostgreSQL.
package exercises

import (
	"context"
	"time"

	"github.com/dmitrijs2005/exersio/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, e *models.Exercise) error
	// Get returns common.ErrorNotFound when the exercise does not exist.
	Get(ctx context.Context, id string) (*models.Exercise, error)
	// ListVisible returns exercises owned by userID or shared to a club
	// userID belongs to, most recently updated first.
	ListVisible(ctx context.Context, userID string) ([]*models.Exercise, error)
	Update(ctx context.Context, e *models.Exercise) error
	Delete(ctx context.Context, id string) error
	SetClub(ctx context.Context, id string, clubID string, updatedAt time.Time) error
	SetImageKey(ctx context.Context, id string, key string, updatedAt time.Time) error
}
