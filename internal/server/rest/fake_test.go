package rest

import (
	"context"

	"github.com/dmitrijs2005/exersio/internal/common"
	"github.com/dmitrijs2005/exersio/internal/server/models"
	"github.com/dmitrijs2005/exersio/internal/server/services"
)

type fakeUsers struct {
	tokens    map[string]string
	authErr   error
	lastEmail string
	err       error
}

func (f *fakeUsers) Authenticate(token string) (string, error) {
	if f.authErr != nil {
		return "", f.authErr
	}
	id, ok := f.tokens[token]
	if !ok {
		return "", common.ErrInvalidToken
	}
	return id, nil
}

func (f *fakeUsers) Register(_ context.Context, email, name, _ string) (*models.User, error) {
	f.lastEmail = email
	if f.err != nil {
		return nil, f.err
	}
	return &models.User{ID: "u-new", Email: email, Name: name}, nil
}

func (f *fakeUsers) Login(_ context.Context, email, password string) (*services.TokenPair, error) {
	if password != "secret" {
		return nil, common.ErrorUnauthorized
	}
	return &services.TokenPair{AccessToken: "acc", RefreshToken: "ref", UserID: "u1"}, nil
}

func (f *fakeUsers) RefreshToken(_ context.Context, token string) (*services.TokenPair, error) {
	if token != "ref" {
		return nil, common.ErrRefreshTokenExpired
	}
	return &services.TokenPair{AccessToken: "acc2", RefreshToken: "ref2", UserID: "u1"}, nil
}

type fakeExercises struct {
	items      map[string]*models.Exercise
	err        error
	lastUser   string
	lastClub   string
	lastType   string
	deletedIDs []string
}

func (f *fakeExercises) List(_ context.Context, userID string) ([]*models.Exercise, error) {
	f.lastUser = userID
	if f.err != nil {
		return nil, f.err
	}
	var out []*models.Exercise
	for _, e := range f.items {
		out = append(out, e)
	}
	return out, nil
}

func (f *fakeExercises) Get(_ context.Context, userID, id string) (*models.Exercise, error) {
	f.lastUser = userID
	e, ok := f.items[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return e, nil
}

func (f *fakeExercises) Create(_ context.Context, userID string, e *models.Exercise) (*models.Exercise, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := *e
	out.ID = "srv-1"
	out.UserID = userID
	return &out, nil
}

func (f *fakeExercises) Update(_ context.Context, userID, id string, e *models.Exercise) (*models.Exercise, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := *e
	out.ID = id
	out.UserID = userID
	return &out, nil
}

func (f *fakeExercises) Delete(_ context.Context, _ string, id string) error {
	if f.err != nil {
		return f.err
	}
	f.deletedIDs = append(f.deletedIDs, id)
	return nil
}

func (f *fakeExercises) Share(_ context.Context, _ string, id, clubID string) (*models.Exercise, error) {
	f.lastClub = clubID
	return &models.Exercise{ID: id, ClubID: &clubID}, nil
}

func (f *fakeExercises) Permissions(context.Context, string, string) (*models.Permissions, error) {
	return &models.Permissions{CanView: true}, nil
}

func (f *fakeExercises) ImageUploadURL(_ context.Context, _ string, id, contentType string) (*services.ImageUpload, error) {
	f.lastType = contentType
	return &services.ImageUpload{Key: "exercises/" + id + "/k", URL: "http://s3/put"}, nil
}

func (f *fakeExercises) ImageURL(context.Context, string, string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return "http://s3/get", nil
}

type fakeSessions struct {
	err     error
	deleted string
}

func (f *fakeSessions) List(context.Context, string) ([]*models.Session, error) {
	return nil, f.err
}

func (f *fakeSessions) Get(_ context.Context, _ string, id string) (*models.Session, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &models.Session{ID: id, Name: "Tuesday"}, nil
}

func (f *fakeSessions) Create(_ context.Context, userID string, s *models.Session) (*models.Session, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := *s
	out.ID = "s-1"
	out.UserID = userID
	return &out, nil
}

func (f *fakeSessions) Update(_ context.Context, _ string, id string, s *models.Session) (*models.Session, error) {
	out := *s
	out.ID = id
	return &out, f.err
}

func (f *fakeSessions) Delete(_ context.Context, _ string, id string) error {
	f.deleted = id
	return f.err
}

type fakeClubs struct {
	err      error
	member   string
	role     string
	clubName string
}

func (f *fakeClubs) List(context.Context, string) ([]*models.Club, error) {
	return []*models.Club{{ID: "c1", Name: "Lions", OwnerID: "u1", Role: models.RoleOwner}}, f.err
}

func (f *fakeClubs) Create(_ context.Context, userID, name string) (*models.Club, error) {
	f.clubName = name
	if f.err != nil {
		return nil, f.err
	}
	return &models.Club{ID: "c2", Name: name, OwnerID: userID, Role: models.RoleOwner}, nil
}

func (f *fakeClubs) AddMember(_ context.Context, _ string, _ string, memberID, role string) error {
	f.member, f.role = memberID, role
	return f.err
}
