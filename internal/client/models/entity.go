package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// Entity is implemented by pointers to Exercise and Session.
type Entity interface {
	GetID() string
	SetID(id string)
	Validate() error
	// Touch stamps UpdatedAt, and CreatedAt when it is still zero.
	Touch(now time.Time)
}

func touch(created, updated *time.Time, now time.Time) {
	if created.IsZero() {
		*created = now
	}
	*updated = now
}

type Exercise struct {
	ID              string          `json:"id"`
	Name            string          `json:"name"`
	Description     string          `json:"description,omitempty"`
	Sport           string          `json:"sport,omitempty"`
	Category        string          `json:"category,omitempty"`
	AgeCategory     string          `json:"ageCategory,omitempty"`
	Intensity       int             `json:"intensity,omitempty"`
	DurationMinutes int             `json:"durationMinutes,omitempty"`
	PlayersMin      int             `json:"playersMin,omitempty"`
	PlayersMax      int             `json:"playersMax,omitempty"`
	Material        []string        `json:"material,omitempty"`
	Tags            []string        `json:"tags,omitempty"`
	FieldData       json.RawMessage `json:"fieldData,omitempty"`
	ImageKey        string          `json:"imageKey,omitempty"`
	UserID          string          `json:"userId,omitempty"`
	ClubID          *string         `json:"clubId,omitempty"`
	CreatedAt       time.Time       `json:"createdAt"`
	UpdatedAt       time.Time       `json:"updatedAt"`
}

func (e *Exercise) GetID() string       { return e.ID }
func (e *Exercise) SetID(id string)     { e.ID = id }
func (e *Exercise) Touch(now time.Time) { touch(&e.CreatedAt, &e.UpdatedAt, now) }

func (e *Exercise) Validate() error {
	if e.Name == "" {
		return errors.New("exercise name is required")
	}
	if e.Intensity < 0 || e.Intensity > 5 {
		return fmt.Errorf("intensity must be between 1 and 5, got %d", e.Intensity)
	}
	if e.PlayersMax > 0 && e.PlayersMin > e.PlayersMax {
		return fmt.Errorf("playersMin %d exceeds playersMax %d", e.PlayersMin, e.PlayersMax)
	}
	return nil
}

type Session struct {
	ID              string     `json:"id"`
	Name            string     `json:"name"`
	Description     string     `json:"description,omitempty"`
	Date            *time.Time `json:"date,omitempty"`
	DurationMinutes int        `json:"durationMinutes,omitempty"`
	ExerciseIDs     []string   `json:"exerciseIds"`
	UserID          string     `json:"userId,omitempty"`
	ClubID          *string    `json:"clubId,omitempty"`
	CreatedAt       time.Time  `json:"createdAt"`
	UpdatedAt       time.Time  `json:"updatedAt"`
}

func (s *Session) GetID() string       { return s.ID }
func (s *Session) SetID(id string)     { s.ID = id }
func (s *Session) Touch(now time.Time) { touch(&s.CreatedAt, &s.UpdatedAt, now) }

func (s *Session) Validate() error {
	if s.Name == "" {
		return errors.New("session name is required")
	}
	return nil
}

// EntityMeta is the part of any payload the sync engine needs.
type EntityMeta struct {
	ID        string    `json:"id"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func Meta(raw json.RawMessage) (EntityMeta, error) {
	var m EntityMeta
	if err := json.Unmarshal(raw, &m); err != nil {
		return EntityMeta{}, fmt.Errorf("decode entity meta: %w", err)
	}
	return m, nil
}

// ReplaceID rewrites the "id" field of a JSON object, leaving the rest intact.
func ReplaceID(raw json.RawMessage, id string) (json.RawMessage, error) {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil {
		return nil, fmt.Errorf("decode payload: %w", err)
	}
	b, err := json.Marshal(id)
	if err != nil {
		return nil, err
	}
	obj["id"] = b
	return json.Marshal(obj)
}

// RemapExerciseIDs replaces placeholder exercise ids inside a session payload.
// It reports whether anything changed.
func RemapExerciseIDs(raw json.RawMessage, ids map[string]string) (json.RawMessage, bool, error) {
	if len(ids) == 0 {
		return raw, false, nil
	}

	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil {
		return nil, false, fmt.Errorf("decode session: %w", err)
	}

	var exerciseIDs []string
	if v, ok := obj["exerciseIds"]; ok {
		if err := json.Unmarshal(v, &exerciseIDs); err != nil {
			return nil, false, fmt.Errorf("decode exerciseIds: %w", err)
		}
	}

	changed := false
	for i, id := range exerciseIDs {
		if n, ok := ids[id]; ok {
			exerciseIDs[i] = n
			changed = true
		}
	}
	if !changed {
		return raw, false, nil
	}

	b, err := json.Marshal(exerciseIDs)
	if err != nil {
		return nil, false, err
	}
	obj["exerciseIds"] = b

	out, err := json.Marshal(obj)
	if err != nil {
		return nil, false, err
	}
	return out, true, nil
}
