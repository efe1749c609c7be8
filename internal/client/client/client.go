package client

import (
	"context"
	"encoding/json"

	"github.com/dmitrijs2005/exersio/internal/client/models"
)

// Collection is the remote side of one entity kind. Payloads are passed as
// raw JSON so the sync engine can stay kind-agnostic.
type Collection interface {
	List(ctx context.Context) ([]json.RawMessage, error)
	Get(ctx context.Context, id string) (json.RawMessage, error)
	Create(ctx context.Context, data json.RawMessage) (json.RawMessage, error)
	Update(ctx context.Context, id string, data json.RawMessage) (json.RawMessage, error)
	Delete(ctx context.Context, id string) error
}

type Client interface {
	Close() error
	Register(ctx context.Context, email, name, password string) error
	Login(ctx context.Context, email, password string) (*Tokens, error)
	Refresh(ctx context.Context) error
	Logout()
	Ping(ctx context.Context) error

	Collection(kind models.Kind) Collection

	ShareExercise(ctx context.Context, id, clubID string) (json.RawMessage, error)
	ExercisePermissions(ctx context.Context, id string) (*Permissions, error)
	ExerciseImageUploadURL(ctx context.Context, id, contentType string) (*ImageUpload, error)
	ExerciseImageURL(ctx context.Context, id string) (string, error)

	ListClubs(ctx context.Context) ([]Club, error)
	CreateClub(ctx context.Context, name string) (*Club, error)
	AddClubMember(ctx context.Context, clubID, userID, role string) error
}

type Tokens struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	UserID       string `json:"userId,omitempty"`
}

type Permissions struct {
	CanView   bool `json:"canView"`
	CanEdit   bool `json:"canEdit"`
	CanDelete bool `json:"canDelete"`
	CanShare  bool `json:"canShare"`
}

type ImageUpload struct {
	Key string `json:"key"`
	URL string `json:"url"`
}

type Club struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	OwnerID string `json:"ownerId"`
	Role    string `json:"role,omitempty"`
}
