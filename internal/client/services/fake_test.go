package services

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/exersio/internal/client/client"
	"github.com/dmitrijs2005/exersio/internal/client/models"
	"github.com/dmitrijs2005/exersio/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/exersio/internal/client/repositories/records"
	"github.com/dmitrijs2005/exersio/internal/logging"
)

// ---- clock ----

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newClock() *fakeClock {
	return &fakeClock{t: time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

// ---- connectivity ----

type fakeNet struct{ online atomic.Bool }

func (n *fakeNet) IsOnline() bool  { return n.online.Load() }
func (n *fakeNet) Set(online bool) { n.online.Store(online) }

// ---- server ----

// fakeServer is an in-memory stand-in for the API: it assigns ids and stamps
// updatedAt like the real server does.
type fakeServer struct {
	mu    sync.Mutex
	clock *fakeClock
	seq   int
	data  map[models.Kind]map[string]map[string]any
	calls int

	// error injection, keyed by operation name ("create", "get", ...)
	errs map[string]error
	// failIDs makes Create/Update fail for payloads with these names
	failNames map[string]error

	// hooks run inside the call, before it returns
	onCreate func()
	onUpdate func()

	loginTokens *client.Tokens
	loggedOut   bool
	pingErr     error

	lastShareClub   string
	lastContentType string
	uploadURL       string
}

func newFakeServer(clock *fakeClock) *fakeServer {
	return &fakeServer{
		clock: clock,
		data: map[models.Kind]map[string]map[string]any{
			models.KindExercises: {},
			models.KindSessions:  {},
		},
		errs:      map[string]error{},
		failNames: map[string]error{},
	}
}

func (f *fakeServer) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func (f *fakeServer) enter(op string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return f.errs[op]
}

func (f *fakeServer) stamp() string {
	return f.clock.Now().Format(time.RFC3339Nano)
}

// put stores an entity directly, as if another device wrote it.
func (f *fakeServer) put(kind models.Kind, id string, obj map[string]any) {
	f.mu.Lock()
	defer f.mu.Unlock()
	obj["id"] = id
	if _, ok := obj["createdAt"]; !ok {
		obj["createdAt"] = f.stamp()
	}
	obj["updatedAt"] = f.stamp()
	f.data[kind][id] = obj
}

func (f *fakeServer) has(kind models.Kind, id string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.data[kind][id]
	return ok
}

func (f *fakeServer) field(kind models.Kind, id, name string) any {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.data[kind][id][name]
}

func (f *fakeServer) remove(kind models.Kind, id string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.data[kind], id)
}

func (f *fakeServer) Close() error { return nil }

func (f *fakeServer) Register(ctx context.Context, email, name, password string) error {
	return f.enter("register")
}

func (f *fakeServer) Login(ctx context.Context, email, password string) (*client.Tokens, error) {
	if err := f.enter("login"); err != nil {
		return nil, err
	}
	if f.loginTokens != nil {
		return f.loginTokens, nil
	}
	return &client.Tokens{AccessToken: "a", RefreshToken: "r", UserID: "u-" + email}, nil
}

func (f *fakeServer) Refresh(ctx context.Context) error { return f.enter("refresh") }
func (f *fakeServer) Logout()                           { f.loggedOut = true }
func (f *fakeServer) Ping(ctx context.Context) error    { return f.pingErr }

func (f *fakeServer) Collection(kind models.Kind) client.Collection {
	return &fakeCollection{f: f, kind: kind}
}

func (f *fakeServer) ShareExercise(ctx context.Context, id, clubID string) (json.RawMessage, error) {
	if err := f.enter("share"); err != nil {
		return nil, err
	}
	f.lastShareClub = clubID
	f.mu.Lock()
	obj, ok := f.data[models.KindExercises][id]
	if ok {
		obj["clubId"] = clubID
		obj["updatedAt"] = f.stamp()
	}
	f.mu.Unlock()
	if !ok {
		return nil, client.ErrNotFound
	}
	return json.Marshal(obj)
}

func (f *fakeServer) ExercisePermissions(ctx context.Context, id string) (*client.Permissions, error) {
	if err := f.enter("permissions"); err != nil {
		return nil, err
	}
	return &client.Permissions{CanView: true, CanEdit: true}, nil
}

func (f *fakeServer) ExerciseImageUploadURL(ctx context.Context, id, contentType string) (*client.ImageUpload, error) {
	if err := f.enter("imageupload"); err != nil {
		return nil, err
	}
	f.lastContentType = contentType
	key := "exercises/" + id + "/image"
	f.mu.Lock()
	if obj, ok := f.data[models.KindExercises][id]; ok {
		obj["imageKey"] = key
		obj["updatedAt"] = f.stamp()
	}
	f.mu.Unlock()
	return &client.ImageUpload{Key: key, URL: f.uploadURL}, nil
}

func (f *fakeServer) ExerciseImageURL(ctx context.Context, id string) (string, error) {
	if err := f.enter("imageurl"); err != nil {
		return "", err
	}
	return "https://images.example/" + id, nil
}

func (f *fakeServer) ListClubs(ctx context.Context) ([]client.Club, error) { return nil, nil }
func (f *fakeServer) CreateClub(ctx context.Context, name string) (*client.Club, error) {
	return &client.Club{ID: "club-1", Name: name}, nil
}
func (f *fakeServer) AddClubMember(ctx context.Context, clubID, userID, role string) error {
	return nil
}

type fakeCollection struct {
	f    *fakeServer
	kind models.Kind
}

func decodeObj(raw json.RawMessage) (map[string]any, error) {
	var obj map[string]any
	if err := json.Unmarshal(raw, &obj); err != nil {
		return nil, err
	}
	return obj, nil
}

func (c *fakeCollection) List(ctx context.Context) ([]json.RawMessage, error) {
	if err := c.f.enter("list"); err != nil {
		return nil, err
	}
	c.f.mu.Lock()
	defer c.f.mu.Unlock()
	out := []json.RawMessage{}
	for _, obj := range c.f.data[c.kind] {
		b, _ := json.Marshal(obj)
		out = append(out, b)
	}
	return out, nil
}

func (c *fakeCollection) Get(ctx context.Context, id string) (json.RawMessage, error) {
	if err := c.f.enter("get"); err != nil {
		return nil, err
	}
	c.f.mu.Lock()
	defer c.f.mu.Unlock()
	obj, ok := c.f.data[c.kind][id]
	if !ok {
		return nil, client.ErrNotFound
	}
	return json.Marshal(obj)
}

func (c *fakeCollection) Create(ctx context.Context, data json.RawMessage) (json.RawMessage, error) {
	if err := c.f.enter("create"); err != nil {
		return nil, err
	}
	obj, err := decodeObj(data)
	if err != nil {
		return nil, client.ErrBadRequest
	}
	if name, _ := obj["name"].(string); c.f.failNames[name] != nil {
		return nil, c.f.failNames[name]
	}
	if c.f.onCreate != nil {
		c.f.onCreate()
	}

	c.f.mu.Lock()
	c.f.seq++
	id := fmt.Sprintf("srv-%d", c.f.seq)
	c.f.mu.Unlock()

	delete(obj, "createdAt")
	c.f.put(c.kind, id, obj)
	return json.Marshal(obj)
}

func (c *fakeCollection) Update(ctx context.Context, id string, data json.RawMessage) (json.RawMessage, error) {
	if err := c.f.enter("update"); err != nil {
		return nil, err
	}
	obj, err := decodeObj(data)
	if err != nil {
		return nil, client.ErrBadRequest
	}
	if name, _ := obj["name"].(string); c.f.failNames[name] != nil {
		return nil, c.f.failNames[name]
	}
	if !c.f.has(c.kind, id) {
		return nil, client.ErrNotFound
	}
	if c.f.onUpdate != nil {
		c.f.onUpdate()
	}
	obj["createdAt"] = c.f.field(c.kind, id, "createdAt")
	c.f.put(c.kind, id, obj)
	return json.Marshal(obj)
}

func (c *fakeCollection) Delete(ctx context.Context, id string) error {
	if err := c.f.enter("delete"); err != nil {
		return err
	}
	if !c.f.has(c.kind, id) {
		return client.ErrNotFound
	}
	c.f.remove(c.kind, id)
	return nil
}

// ---- wiring ----

type env struct {
	db        *sql.DB
	clock     *fakeClock
	server    *fakeServer
	net       *fakeNet
	records   *records.SQLiteRepository
	meta      *metadata.SQLiteRepository
	sync      *SyncService
	exercises *ExerciseService
	sessions  *SessionService
}

func newEnv(t *testing.T) *env {
	t.Helper()
	ctx := context.Background()

	db, err := client.InitDatabase(ctx, filepath.Join(t.TempDir(), "exersio.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	e := &env{db: db, clock: newClock(), net: &fakeNet{}}
	e.server = newFakeServer(e.clock)
	e.records = records.NewSQLiteRepository(db, records.WithClock(e.clock.Now))
	e.meta = metadata.NewSQLiteRepository(db)

	log := logging.Discard()
	e.sync = NewSyncService(e.server, e.records, e.meta, e.net, log)
	e.sync.now = e.clock.Now
	e.exercises = NewExerciseService(e.server, e.records, e.net, log)
	e.exercises.now = e.clock.Now
	e.sessions = NewSessionService(e.server, e.records, e.net, log)
	e.sessions.now = e.clock.Now
	return e
}

func (e *env) record(t *testing.T, kind models.Kind, id string) *models.Record {
	t.Helper()
	rec, err := e.records.Get(context.Background(), kind, id)
	require.NoError(t, err)
	return rec
}
