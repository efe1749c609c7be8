package services

import (
	"context"
	"database/sql"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/exersio/internal/common"
	"github.com/dmitrijs2005/exersio/internal/dbx"
	"github.com/dmitrijs2005/exersio/internal/server/config"
	"github.com/dmitrijs2005/exersio/internal/server/models"
	"github.com/dmitrijs2005/exersio/internal/server/repositories/clubs"
	"github.com/dmitrijs2005/exersio/internal/server/repositories/exercises"
	"github.com/dmitrijs2005/exersio/internal/server/repositories/refreshtokens"
	"github.com/dmitrijs2005/exersio/internal/server/repositories/sessions"
	"github.com/dmitrijs2005/exersio/internal/server/repositories/users"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)

type errBoom struct{}

func (errBoom) Error() string { return "boom" }

// --- users ---

type fakeUsers struct {
	mu      sync.Mutex
	byID    map[string]*models.User
	getErr  error
	created int
}

func (f *fakeUsers) Create(_ context.Context, u *models.User) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, other := range f.byID {
		if other.Email == u.Email {
			return nil, common.ErrorAlreadyExists
		}
	}
	u.CreatedAt = t0
	f.byID[u.ID] = u
	f.created++
	return u, nil
}

func (f *fakeUsers) GetUserByEmail(_ context.Context, email string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	for _, u := range f.byID {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (f *fakeUsers) GetUserByID(_ context.Context, id string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if u, ok := f.byID[id]; ok {
		return u, nil
	}
	return nil, common.ErrorNotFound
}

// --- refresh tokens ---

type fakeTokens struct {
	mu        sync.Mutex
	m         map[string]*models.RefreshToken
	createErr error
	purged    int64
}

func (f *fakeTokens) Create(_ context.Context, userID, token string, expires time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return f.createErr
	}
	f.m[token] = &models.RefreshToken{UserID: userID, Token: token, Expires: expires}
	return nil
}

func (f *fakeTokens) Find(_ context.Context, token string) (*models.RefreshToken, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if t, ok := f.m[token]; ok {
		return t, nil
	}
	return nil, common.ErrorNotFound
}

func (f *fakeTokens) Delete(_ context.Context, token string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.m, token)
	return nil
}

func (f *fakeTokens) DeleteExpired(_ context.Context, userID string, now time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for k, t := range f.m {
		if t.UserID == userID && t.Expires.Before(now) {
			delete(f.m, k)
			n++
		}
	}
	f.purged += n
	return n, nil
}

// --- clubs ---

type fakeClubs struct {
	mu      sync.Mutex
	clubs   map[string]*models.Club
	members map[string]map[string]string
	roleErr error
}

func (f *fakeClubs) Create(_ context.Context, c *models.Club) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.clubs[c.ID] = c
	return nil
}

func (f *fakeClubs) Get(_ context.Context, id string) (*models.Club, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if c, ok := f.clubs[id]; ok {
		cp := *c
		return &cp, nil
	}
	return nil, common.ErrorNotFound
}

func (f *fakeClubs) ListForUser(_ context.Context, userID string) ([]*models.Club, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []*models.Club{}
	for id, m := range f.members {
		if role, ok := m[userID]; ok {
			c := *f.clubs[id]
			c.Role = role
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (f *fakeClubs) AddMember(_ context.Context, clubID, userID, role string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.clubs[clubID]; !ok {
		return common.ErrorNotFound
	}
	if f.members[clubID] == nil {
		f.members[clubID] = map[string]string{}
	}
	f.members[clubID][userID] = role
	return nil
}

func (f *fakeClubs) MemberRole(_ context.Context, clubID, userID string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.roleErr != nil {
		return "", f.roleErr
	}
	if role, ok := f.members[clubID][userID]; ok {
		return role, nil
	}
	return "", common.ErrorNotFound
}

// --- exercises ---

type fakeExercises struct {
	mu sync.Mutex
	m  map[string]*models.Exercise
}

func (f *fakeExercises) Create(_ context.Context, e *models.Exercise) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *e
	f.m[e.ID] = &cp
	return nil
}

func (f *fakeExercises) Get(_ context.Context, id string) (*models.Exercise, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if e, ok := f.m[id]; ok {
		cp := *e
		return &cp, nil
	}
	return nil, common.ErrorNotFound
}

func (f *fakeExercises) ListVisible(context.Context, string) ([]*models.Exercise, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []*models.Exercise{}
	for _, e := range f.m {
		cp := *e
		out = append(out, &cp)
	}
	return out, nil
}

func (f *fakeExercises) Update(_ context.Context, e *models.Exercise) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.m[e.ID]; !ok {
		return common.ErrorNotFound
	}
	cp := *e
	f.m[e.ID] = &cp
	return nil
}

func (f *fakeExercises) Delete(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.m[id]; !ok {
		return common.ErrorNotFound
	}
	delete(f.m, id)
	return nil
}

func (f *fakeExercises) SetClub(_ context.Context, id, clubID string, updatedAt time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	e, ok := f.m[id]
	if !ok {
		return common.ErrorNotFound
	}
	e.ClubID = &clubID
	e.UpdatedAt = updatedAt
	return nil
}

func (f *fakeExercises) SetImageKey(_ context.Context, id, key string, updatedAt time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	e, ok := f.m[id]
	if !ok {
		return common.ErrorNotFound
	}
	e.ImageKey = key
	e.UpdatedAt = updatedAt
	return nil
}

// --- sessions ---

type fakeSessions struct {
	mu sync.Mutex
	m  map[string]*models.Session
}

func (f *fakeSessions) Create(_ context.Context, s *models.Session) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *s
	f.m[s.ID] = &cp
	return nil
}

func (f *fakeSessions) Get(_ context.Context, id string) (*models.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if s, ok := f.m[id]; ok {
		cp := *s
		return &cp, nil
	}
	return nil, common.ErrorNotFound
}

func (f *fakeSessions) ListVisible(context.Context, string) ([]*models.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []*models.Session{}
	for _, s := range f.m {
		cp := *s
		out = append(out, &cp)
	}
	return out, nil
}

func (f *fakeSessions) Update(_ context.Context, s *models.Session) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.m[s.ID]; !ok {
		return common.ErrorNotFound
	}
	cp := *s
	f.m[s.ID] = &cp
	return nil
}

func (f *fakeSessions) Delete(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.m[id]; !ok {
		return common.ErrorNotFound
	}
	delete(f.m, id)
	return nil
}

// --- manager ---

type fakeRepoManager struct {
	users     *fakeUsers
	tokens    *fakeTokens
	clubs     *fakeClubs
	exercises *fakeExercises
	sessions  *fakeSessions
}

func newFakeRepoManager() *fakeRepoManager {
	return &fakeRepoManager{
		users:     &fakeUsers{byID: map[string]*models.User{}},
		tokens:    &fakeTokens{m: map[string]*models.RefreshToken{}},
		clubs:     &fakeClubs{clubs: map[string]*models.Club{}, members: map[string]map[string]string{}},
		exercises: &fakeExercises{m: map[string]*models.Exercise{}},
		sessions:  &fakeSessions{m: map[string]*models.Session{}},
	}
}

func (m *fakeRepoManager) RunMigrations(context.Context, *sql.DB) error    { return nil }
func (m *fakeRepoManager) Users(dbx.DBTX) users.Repository                 { return m.users }
func (m *fakeRepoManager) RefreshTokens(dbx.DBTX) refreshtokens.Repository { return m.tokens }
func (m *fakeRepoManager) Exercises(dbx.DBTX) exercises.Repository         { return m.exercises }
func (m *fakeRepoManager) Sessions(dbx.DBTX) sessions.Repository           { return m.sessions }
func (m *fakeRepoManager) Clubs(dbx.DBTX) clubs.Repository                 { return m.clubs }

// addClub registers a club owned by owner with extra members.
func (m *fakeRepoManager) addClub(id, owner string, members map[string]string) {
	m.clubs.clubs[id] = &models.Club{ID: id, Name: id, OwnerID: owner, CreatedAt: t0}
	mem := map[string]string{owner: models.RoleOwner}
	for u, r := range members {
		mem[u] = r
	}
	m.clubs.members[id] = mem
}

func newSQLMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db, mock
}

func testConfig() *config.Config {
	return &config.Config{
		SecretKey:                    "k",
		AccessTokenValidityDuration:  time.Hour,
		RefreshTokenValidityDuration: 2 * time.Hour,
		S3Region:                     "us-east-1",
		S3RootUser:                   "minioadmin",
		S3RootPassword:               "minioadmin",
		S3BaseEndpoint:               "http://127.0.0.1:9000",
		S3Bucket:                     "exersio",
	}
}

func fixedNow() time.Time { return t0 }
