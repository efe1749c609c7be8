package exercises

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/exersio/internal/common"
	"github.com/dmitrijs2005/exersio/internal/dbx"
	"github.com/dmitrijs2005/exersio/internal/server/models"
)

const columns = `id, user_id, club_id, name, description, sport, category, age_category,
		intensity, duration_minutes, players_min, players_max, material, tags,
		field_data, image_key, created_at, updated_at`

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

type scanner interface {
	Scan(dest ...any) error
}

func scan(row scanner) (*models.Exercise, error) {
	e := &models.Exercise{}
	var (
		clubID         sql.NullString
		material, tags []byte
		fieldData      []byte
	)
	err := row.Scan(&e.ID, &e.UserID, &clubID, &e.Name, &e.Description, &e.Sport, &e.Category, &e.AgeCategory,
		&e.Intensity, &e.DurationMinutes, &e.PlayersMin, &e.PlayersMax, &material, &tags,
		&fieldData, &e.ImageKey, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if clubID.Valid {
		e.ClubID = &clubID.String
	}
	if err := decodeList(material, &e.Material); err != nil {
		return nil, fmt.Errorf("decode material: %w", err)
	}
	if err := decodeList(tags, &e.Tags); err != nil {
		return nil, fmt.Errorf("decode tags: %w", err)
	}
	if len(fieldData) > 0 {
		e.FieldData = json.RawMessage(fieldData)
	}
	return e, nil
}

func decodeList(b []byte, dst *[]string) error {
	if len(b) == 0 {
		return nil
	}
	return json.Unmarshal(b, dst)
}

func encodeList(v []string) (string, error) {
	if v == nil {
		v = []string{}
	}
	b, err := json.Marshal(v)
	return string(b), err
}

func nullJSON(raw json.RawMessage) any {
	if len(raw) == 0 {
		return nil
	}
	return string(raw)
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func (r *PostgresRepository) Create(ctx context.Context, e *models.Exercise) error {
	material, err := encodeList(e.Material)
	if err != nil {
		return err
	}
	tags, err := encodeList(e.Tags)
	if err != nil {
		return err
	}

	query := `INSERT INTO exercises (` + columns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)`

	_, err = r.db.ExecContext(ctx, query,
		e.ID, e.UserID, nullString(e.ClubID), e.Name, e.Description, e.Sport, e.Category, e.AgeCategory,
		e.Intensity, e.DurationMinutes, e.PlayersMin, e.PlayersMax, material, tags,
		nullJSON(e.FieldData), e.ImageKey, e.CreatedAt, e.UpdatedAt)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) Get(ctx context.Context, id string) (*models.Exercise, error) {
	query := `SELECT ` + columns + ` FROM exercises WHERE id = $1`

	e, err := scan(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return e, nil
}

func (r *PostgresRepository) ListVisible(ctx context.Context, userID string) ([]*models.Exercise, error) {
	query := `SELECT ` + columns + ` FROM exercises
		WHERE user_id = $1
		   OR club_id IN (SELECT club_id FROM club_members WHERE user_id = $1)
		ORDER BY updated_at DESC`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	result := []*models.Exercise{}
	for rows.Next() {
		e, err := scan(rows)
		if err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return result, nil
}

// exec runs a single-row write and maps "no rows affected" to ErrorNotFound.
func (r *PostgresRepository) exec(ctx context.Context, query string, args ...any) error {
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}

func (r *PostgresRepository) Update(ctx context.Context, e *models.Exercise) error {
	material, err := encodeList(e.Material)
	if err != nil {
		return err
	}
	tags, err := encodeList(e.Tags)
	if err != nil {
		return err
	}

	query := `UPDATE exercises SET
		name = $2, description = $3, sport = $4, category = $5, age_category = $6,
		intensity = $7, duration_minutes = $8, players_min = $9, players_max = $10,
		material = $11, tags = $12, field_data = $13, updated_at = $14
		WHERE id = $1`

	return r.exec(ctx, query,
		e.ID, e.Name, e.Description, e.Sport, e.Category, e.AgeCategory,
		e.Intensity, e.DurationMinutes, e.PlayersMin, e.PlayersMax,
		material, tags, nullJSON(e.FieldData), e.UpdatedAt)
}

func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	return r.exec(ctx, `DELETE FROM exercises WHERE id = $1`, id)
}

func (r *PostgresRepository) SetClub(ctx context.Context, id string, clubID string, updatedAt time.Time) error {
	return r.exec(ctx, `UPDATE exercises SET club_id = $2, updated_at = $3 WHERE id = $1`, id, clubID, updatedAt)
}

func (r *PostgresRepository) SetImageKey(ctx context.Context, id string, key string, updatedAt time.Time) error {
	return r.exec(ctx, `UPDATE exercises SET image_key = $2, updated_at = $3 WHERE id = $1`, id, key, updatedAt)
}
