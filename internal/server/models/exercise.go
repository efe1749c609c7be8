package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// Exercise is the server copy of a training exercise. The JSON shape is the
// one exchanged with clients.
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
	UserID          string          `json:"userId"`
	ClubID          *string         `json:"clubId,omitempty"`
	CreatedAt       time.Time       `json:"createdAt"`
	UpdatedAt       time.Time       `json:"updatedAt"`
}

func (e *Exercise) Validate() error {
	if e.Name == "" {
		return errors.New("name is required")
	}
	if e.Intensity < 0 || e.Intensity > 5 {
		return fmt.Errorf("intensity must be between 1 and 5, got %d", e.Intensity)
	}
	if e.DurationMinutes < 0 {
		return errors.New("durationMinutes must not be negative")
	}
	if e.PlayersMin < 0 || e.PlayersMax < 0 {
		return errors.New("player counts must not be negative")
	}
	if e.PlayersMax > 0 && e.PlayersMin > e.PlayersMax {
		return fmt.Errorf("playersMin %d exceeds playersMax %d", e.PlayersMin, e.PlayersMax)
	}
	return nil
}
