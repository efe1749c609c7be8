package clubs

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/exersio/internal/common"
	"github.com/dmitrijs2005/exersio/internal/dbx"
	"github.com/dmitrijs2005/exersio/internal/server/models"
	"github.com/dmitrijs2005/exersio/internal/server/repositories/pgerr"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, club *models.Club) error {
	query := `
		INSERT INTO clubs (id, name, owner_id, created_at)
		VALUES ($1, $2, $3, $4)
	`
	if _, err := r.db.ExecContext(ctx, query, club.ID, club.Name, club.OwnerID, club.CreatedAt); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) Get(ctx context.Context, id string) (*models.Club, error) {
	query := `
		SELECT id, name, owner_id, created_at
		FROM clubs
		WHERE id = $1
	`
	c := &models.Club{}
	if err := r.db.QueryRowContext(ctx, query, id).Scan(&c.ID, &c.Name, &c.OwnerID, &c.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return c, nil
}

func (r *PostgresRepository) ListForUser(ctx context.Context, userID string) ([]*models.Club, error) {
	query := `
		SELECT c.id, c.name, c.owner_id, c.created_at, m.role
		FROM clubs c
		JOIN club_members m ON m.club_id = c.id
		WHERE m.user_id = $1
		ORDER BY c.name
	`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	result := []*models.Club{}
	for rows.Next() {
		c := &models.Club{}
		if err := rows.Scan(&c.ID, &c.Name, &c.OwnerID, &c.CreatedAt, &c.Role); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return result, nil
}

func (r *PostgresRepository) AddMember(ctx context.Context, clubID, userID, role string) error {
	query := `
		INSERT INTO club_members (club_id, user_id, role)
		VALUES ($1, $2, $3)
		ON CONFLICT (club_id, user_id) DO UPDATE SET role = EXCLUDED.role
	`
	if _, err := r.db.ExecContext(ctx, query, clubID, userID, role); err != nil {
		if pgerr.IsForeignKeyViolation(err) {
			return common.ErrorNotFound
		}
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) MemberRole(ctx context.Context, clubID, userID string) (string, error) {
	query := `
		SELECT role
		FROM club_members
		WHERE club_id = $1 AND user_id = $2
	`
	var role string
	if err := r.db.QueryRowContext(ctx, query, clubID, userID).Scan(&role); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", common.ErrorNotFound
		}
		return "", fmt.Errorf("db error: %w", err)
	}
	return role, nil
}
