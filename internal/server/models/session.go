package models

import (
	"errors"
	"time"
)

type Session struct {
	ID              string     `json:"id"`
	Name            string     `json:"name"`
	Description     string     `json:"description,omitempty"`
	Date            *time.Time `json:"date,omitempty"`
	DurationMinutes int        `json:"durationMinutes,omitempty"`
	ExerciseIDs     []string   `json:"exerciseIds"`
	UserID          string     `json:"userId"`
	ClubID          *string    `json:"clubId,omitempty"`
	CreatedAt       time.Time  `json:"createdAt"`
	UpdatedAt       time.Time  `json:"updatedAt"`
}

func (s *Session) Validate() error {
	if s.Name == "" {
		return errors.New("name is required")
	}
	if s.DurationMinutes < 0 {
		return errors.New("durationMinutes must not be negative")
	}
	return nil
}
