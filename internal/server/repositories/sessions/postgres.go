package sessions

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/exersio/internal/common"
	"github.com/dmitrijs2005/exersio/internal/dbx"
	"github.com/dmitrijs2005/exersio/internal/server/models"
)

const columns = `id, user_id, club_id, name, description, date, duration_minutes,
		exercise_ids, created_at, updated_at`

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

type scanner interface {
	Scan(dest ...any) error
}

func scan(row scanner) (*models.Session, error) {
	s := &models.Session{}
	var (
		clubID      sql.NullString
		date        sql.NullTime
		exerciseIDs []byte
	)
	err := row.Scan(&s.ID, &s.UserID, &clubID, &s.Name, &s.Description, &date, &s.DurationMinutes,
		&exerciseIDs, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if clubID.Valid {
		s.ClubID = &clubID.String
	}
	if date.Valid {
		s.Date = &date.Time
	}
	s.ExerciseIDs = []string{}
	if len(exerciseIDs) > 0 {
		if err := json.Unmarshal(exerciseIDs, &s.ExerciseIDs); err != nil {
			return nil, fmt.Errorf("decode exercise ids: %w", err)
		}
	}
	return s, nil
}

func encodeIDs(ids []string) (string, error) {
	if ids == nil {
		ids = []string{}
	}
	b, err := json.Marshal(ids)
	return string(b), err
}

func nullTime(s *models.Session) sql.NullTime {
	if s.Date == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *s.Date, Valid: true}
}

func (r *PostgresRepository) Create(ctx context.Context, s *models.Session) error {
	ids, err := encodeIDs(s.ExerciseIDs)
	if err != nil {
		return err
	}

	var clubID sql.NullString
	if s.ClubID != nil {
		clubID = sql.NullString{String: *s.ClubID, Valid: true}
	}

	query := `INSERT INTO sessions (` + columns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	if _, err := r.db.ExecContext(ctx, query,
		s.ID, s.UserID, clubID, s.Name, s.Description, nullTime(s), s.DurationMinutes,
		ids, s.CreatedAt, s.UpdatedAt); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) Get(ctx context.Context, id string) (*models.Session, error) {
	query := `SELECT ` + columns + ` FROM sessions WHERE id = $1`

	s, err := scan(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return s, nil
}

func (r *PostgresRepository) ListVisible(ctx context.Context, userID string) ([]*models.Session, error) {
	query := `SELECT ` + columns + ` FROM sessions
		WHERE user_id = $1
		   OR club_id IN (SELECT club_id FROM club_members WHERE user_id = $1)
		ORDER BY updated_at DESC`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	result := []*models.Session{}
	for rows.Next() {
		s, err := scan(rows)
		if err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return result, nil
}

func (r *PostgresRepository) Update(ctx context.Context, s *models.Session) error {
	ids, err := encodeIDs(s.ExerciseIDs)
	if err != nil {
		return err
	}

	query := `UPDATE sessions SET
		name = $2, description = $3, date = $4, duration_minutes = $5,
		exercise_ids = $6, updated_at = $7
		WHERE id = $1`

	res, err := r.db.ExecContext(ctx, query, s.ID, s.Name, s.Description, nullTime(s), s.DurationMinutes, ids, s.UpdatedAt)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return affected(res)
}

func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM sessions WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return affected(res)
}

func affected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}
