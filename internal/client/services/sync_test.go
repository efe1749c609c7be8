package services

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/exersio/internal/client/client"
	"github.com/dmitrijs2005/exersio/internal/client/models"
	"github.com/dmitrijs2005/exersio/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/exersio/internal/common"
)

func TestSyncAll_Offline_NoNetworkCalls(t *testing.T) {
	e := newEnv(t)
	e.net.Set(false)

	_, err := e.sync.SyncAll(context.Background())
	require.ErrorIs(t, err, ErrOffline)
	require.Equal(t, 0, e.server.Calls())
}

func TestSyncAll_InProgress(t *testing.T) {
	e := newEnv(t)
	e.net.Set(true)
	ctx := context.Background()

	_, err := e.exercises.Create(ctx, &models.Exercise{Name: "rondo"})
	require.NoError(t, err)
	// make the exercise pending so SyncAll has work to do
	e.net.Set(false)
	items, err := e.exercises.List(ctx)
	require.NoError(t, err)
	items[0].Value.Name = "rondo 2"
	_, err = e.exercises.Update(ctx, items[0].Value)
	require.NoError(t, err)
	e.net.Set(true)

	entered := make(chan struct{})
	release := make(chan struct{})
	var once sync.Once
	e.server.onUpdate = func() {
		once.Do(func() { close(entered) })
		<-release
	}

	done := make(chan error, 1)
	go func() {
		_, err := e.sync.SyncAll(ctx)
		done <- err
	}()

	<-entered
	require.True(t, e.sync.InProgress())
	before := e.server.Calls()

	_, err = e.sync.SyncAll(ctx)
	require.ErrorIs(t, err, ErrSyncInProgress)
	_, err = e.sync.DownloadAll(ctx)
	require.ErrorIs(t, err, ErrSyncInProgress)
	require.ErrorIs(t, e.sync.ClearLocalData(ctx), ErrSyncInProgress)
	require.ErrorIs(t, e.sync.ResolveConflict(ctx, models.KindExercises, items[0].Value.ID, ChoiceServer), ErrSyncInProgress)
	require.Equal(t, before, e.server.Calls())

	close(release)
	require.NoError(t, <-done)
	require.False(t, e.sync.InProgress())
}

func TestSyncAll_Empty(t *testing.T) {
	e := newEnv(t)
	e.net.Set(true)
	ctx := context.Background()

	res, err := e.sync.SyncAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, &SyncResult{Errors: []string{}, Success: true}, res)

	last, err := e.meta.GetTime(ctx, metadata.KeyLastSyncTime)
	require.NoError(t, err)
	assert.Nil(t, last)
}

func TestOfflineCreateThenSync_PromotesPlaceholder(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	item, err := e.exercises.Create(ctx, &models.Exercise{Name: "passing square", Intensity: 3})
	require.NoError(t, err)
	localID := item.Value.ID
	require.True(t, common.IsLocalID(localID))
	require.Equal(t, models.StatusLocalOnly, item.Status)
	require.Nil(t, item.LastSynced)

	st, err := e.sync.Status(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, st.Pending[models.KindExercises])

	e.net.Set(true)
	e.clock.Advance(time.Minute)
	res, err := e.sync.SyncAll(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, res.Synced)
	require.True(t, res.Success)

	require.Nil(t, e.record(t, models.KindExercises, localID))
	rec := e.record(t, models.KindExercises, "srv-1")
	require.NotNil(t, rec)
	require.Equal(t, models.StatusSynced, rec.Status)
	require.NotNil(t, rec.LastSynced)

	st, err = e.sync.Status(ctx)
	require.NoError(t, err)
	require.Equal(t, 0, st.Pending[models.KindExercises])
	require.NotNil(t, st.LastSyncTime)
	require.True(t, e.clock.Now().Equal(*st.LastSyncTime))
}

func TestSyncAll_FailedCreateKeepsLocalOnly(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	bad, err := e.exercises.Create(ctx, &models.Exercise{Name: "broken"})
	require.NoError(t, err)
	_, err = e.exercises.Create(ctx, &models.Exercise{Name: "fine"})
	require.NoError(t, err)

	e.server.failNames["broken"] = client.ErrServer
	e.net.Set(true)

	res, err := e.sync.SyncAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Synced)
	assert.Equal(t, 1, res.Failed)
	assert.False(t, res.Success)
	require.Len(t, res.Errors, 1)
	assert.Contains(t, res.Errors[0], bad.Value.ID)

	rec := e.record(t, models.KindExercises, bad.Value.ID)
	require.NotNil(t, rec)
	assert.Equal(t, models.StatusLocalOnly, rec.Status)

	// lastSyncTime moves because something was synced
	last, err := e.meta.GetTime(ctx, metadata.KeyLastSyncTime)
	require.NoError(t, err)
	assert.NotNil(t, last)
}

func TestSyncAll_AllFailed_NoLastSyncTime(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	_, err := e.exercises.Create(ctx, &models.Exercise{Name: "a"})
	require.NoError(t, err)

	e.server.errs["create"] = client.ErrUnavailable
	e.net.Set(true)

	res, err := e.sync.SyncAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, res.Synced)
	assert.Equal(t, 1, res.Failed)

	last, err := e.meta.GetTime(ctx, metadata.KeyLastSyncTime)
	require.NoError(t, err)
	assert.Nil(t, last)
}

// seedSynced creates an entity online so it exists on both sides.
func seedSynced(t *testing.T, e *env, name string) string {
	t.Helper()
	e.net.Set(true)
	item, err := e.exercises.Create(context.Background(), &models.Exercise{Name: name})
	require.NoError(t, err)
	require.Equal(t, models.StatusSynced, item.Status)
	return item.Value.ID
}

func editOffline(t *testing.T, e *env, id, name string) {
	t.Helper()
	ctx := context.Background()
	e.net.Set(false)
	item, err := e.exercises.Get(ctx, id)
	require.NoError(t, err)
	item.Value.Name = name
	item, err = e.exercises.Update(ctx, item.Value)
	require.NoError(t, err)
	require.Equal(t, models.StatusPending, item.Status)
	e.net.Set(true)
}

func TestSyncAll_PushesPending(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	id := seedSynced(t, e, "v1")

	e.clock.Advance(time.Minute)
	editOffline(t, e, id, "v2")

	res, err := e.sync.SyncAll(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, res.Synced)

	assert.Equal(t, "v2", e.server.field(models.KindExercises, id, "name"))
	rec := e.record(t, models.KindExercises, id)
	assert.Equal(t, models.StatusSynced, rec.Status)
}

func TestSyncAll_ServerNewer_Conflict(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	id := seedSynced(t, e, "v1")

	// another device wins the race
	e.clock.Advance(time.Minute)
	e.server.put(models.KindExercises, id, map[string]any{"name": "theirs"})

	editOffline(t, e, id, "mine")

	res, err := e.sync.SyncAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, res.Synced)
	assert.Equal(t, 1, res.Conflicts)
	assert.True(t, res.Success)

	rec := e.record(t, models.KindExercises, id)
	assert.Equal(t, models.StatusConflict, rec.Status)
	assert.Equal(t, "theirs", e.server.field(models.KindExercises, id, "name"))

	var local models.Exercise
	require.NoError(t, json.Unmarshal(rec.Data, &local))
	assert.Equal(t, "mine", local.Name)

	// conflicts are not retried by the next sync
	res, err = e.sync.SyncAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, res.Conflicts)
}

func TestTwoClients_SecondFlagsConflict(t *testing.T) {
	a := newEnv(t)
	ctx := context.Background()
	a.net.Set(true)

	sess, err := a.sessions.Create(ctx, &models.Session{Name: "tuesday"})
	require.NoError(t, err)
	id := sess.Value.ID

	// client B shares the server and clock and downloads the session
	b := newEnv(t)
	b.server = a.server
	b.sync.client, b.sessions.client = a.server, a.server
	b.net.Set(true)
	_, err = b.sync.DownloadAll(ctx)
	require.NoError(t, err)

	a.clock.Advance(time.Minute)
	a.net.Set(false)
	b.net.Set(false)

	for _, c := range []*env{a, b} {
		it, err := c.sessions.Get(ctx, id)
		require.NoError(t, err)
		it.Value.Description = "edited"
		_, err = c.sessions.Update(ctx, it.Value)
		require.NoError(t, err)
	}

	a.clock.Advance(time.Minute)
	a.net.Set(true)
	res, err := a.sync.SyncAll(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, res.Synced)

	a.clock.Advance(time.Minute)
	b.net.Set(true)
	res, err = b.sync.SyncAll(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, res.Conflicts)
	assert.Equal(t, models.StatusConflict, b.record(t, models.KindSessions, id).Status)
}

func TestSyncAll_ServerDeleted_Recreates(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	id := seedSynced(t, e, "v1")

	editOffline(t, e, id, "v2")
	e.server.remove(models.KindExercises, id)

	res, err := e.sync.SyncAll(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, res.Synced)

	assert.Nil(t, e.record(t, models.KindExercises, id))
	rec := e.record(t, models.KindExercises, "srv-2")
	require.NotNil(t, rec)
	assert.Equal(t, models.StatusSynced, rec.Status)
}

// renameLocally rewrites the stored payload as a UI edit would, bypassing
// the services so it can run inside a fake server hook.
func renameLocally(t *testing.T, e *env, kind models.Kind, id, name string) {
	t.Helper()
	rec := e.record(t, kind, id)
	require.NotNil(t, rec)
	var obj map[string]any
	require.NoError(t, json.Unmarshal(rec.Data, &obj))
	obj["name"] = name
	data, err := json.Marshal(obj)
	require.NoError(t, err)
	status := rec.Status
	if status == models.StatusSynced {
		status = models.StatusPending
	}
	_, err = e.records.Save(context.Background(), kind, id, data, status)
	require.NoError(t, err)
}

func TestSyncAll_EditDuringPushStaysPending(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	id := seedSynced(t, e, "v1")
	e.clock.Advance(time.Minute)
	editOffline(t, e, id, "v2")
	e.clock.Advance(time.Minute)

	e.server.onUpdate = func() {
		e.server.onUpdate = nil
		renameLocally(t, e, models.KindExercises, id, "v3")
	}

	res, err := e.sync.SyncAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, res.Synced, "the pushed version is already stale")
	assert.Equal(t, 0, res.Conflicts)
	assert.True(t, res.Success)
	assert.Equal(t, "v2", e.server.field(models.KindExercises, id, "name"))

	rec := e.record(t, models.KindExercises, id)
	assert.Equal(t, models.StatusPending, rec.Status)
	require.NotNil(t, rec.LastSynced)
	assert.True(t, e.clock.Now().Equal(*rec.LastSynced), "the landed push is the new sync point")

	// our own push must not read as a remote change
	e.clock.Advance(time.Minute)
	res, err = e.sync.SyncAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Synced)
	assert.Equal(t, 0, res.Conflicts)
	assert.Equal(t, "v3", e.server.field(models.KindExercises, id, "name"))
	assert.Equal(t, models.StatusSynced, e.record(t, models.KindExercises, id).Status)
}

func TestSyncAll_EditDuringCreateIsPushedNext(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	item, err := e.exercises.Create(ctx, &models.Exercise{Name: "draft"})
	require.NoError(t, err)
	localID := item.Value.ID

	e.net.Set(true)
	e.server.onCreate = func() {
		e.server.onCreate = nil
		renameLocally(t, e, models.KindExercises, localID, "draft edited")
	}

	res, err := e.sync.SyncAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, res.Synced)
	assert.Equal(t, 0, res.Conflicts)

	rec := e.record(t, models.KindExercises, "srv-1")
	require.NotNil(t, rec)
	assert.Equal(t, models.StatusPending, rec.Status)
	assert.Nil(t, e.record(t, models.KindExercises, localID))

	e.clock.Advance(time.Minute)
	res, err = e.sync.SyncAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Synced)
	assert.Equal(t, 0, res.Conflicts)
	assert.Equal(t, "draft edited", e.server.field(models.KindExercises, "srv-1", "name"))
}

func TestSyncAll_RemapsSessionExerciseIDs(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	ex, err := e.exercises.Create(ctx, &models.Exercise{Name: "offline drill"})
	require.NoError(t, err)
	sess, err := e.sessions.Create(ctx, &models.Session{Name: "plan", ExerciseIDs: []string{ex.Value.ID, "srv-existing"}})
	require.NoError(t, err)

	e.net.Set(true)
	res, err := e.sync.SyncAll(ctx)
	require.NoError(t, err)
	require.Equal(t, 2, res.Synced)
	require.True(t, res.Success)

	assert.Nil(t, e.record(t, models.KindSessions, sess.Value.ID))
	assert.Equal(t, []any{"srv-1", "srv-existing"}, e.server.field(models.KindSessions, "srv-2", "exerciseIds"))
}

func TestSyncAll_SessionWithUnsyncedExerciseFails(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	ex, err := e.exercises.Create(ctx, &models.Exercise{Name: "stuck"})
	require.NoError(t, err)
	sess, err := e.sessions.Create(ctx, &models.Session{Name: "plan", ExerciseIDs: []string{ex.Value.ID}})
	require.NoError(t, err)

	e.server.failNames["stuck"] = client.ErrServer
	e.net.Set(true)

	res, err := e.sync.SyncAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Failed)
	assert.Equal(t, models.StatusLocalOnly, e.record(t, models.KindSessions, sess.Value.ID).Status)
}

func TestDownloadAll_SkipsUnsynced(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	id := seedSynced(t, e, "mine")
	editOffline(t, e, id, "local edit")

	e.server.put(models.KindExercises, "srv-other", map[string]any{"name": "from server"})
	e.server.put(models.KindSessions, "srv-s", map[string]any{"name": "session", "exerciseIds": []string{}})

	e.net.Set(false)
	_, err := e.sync.DownloadAll(ctx)
	require.ErrorIs(t, err, ErrOffline)

	e.net.Set(true)
	res, err := e.sync.DownloadAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, &DownloadResult{Downloaded: 2, Skipped: 1}, res)

	rec := e.record(t, models.KindExercises, id)
	assert.Equal(t, models.StatusPending, rec.Status)
	assert.Equal(t, models.StatusSynced, e.record(t, models.KindExercises, "srv-other").Status)
	assert.Equal(t, models.StatusSynced, e.record(t, models.KindSessions, "srv-s").Status)

	last, err := e.meta.GetTime(ctx, metadata.KeyLastSyncTime)
	require.NoError(t, err)
	assert.NotNil(t, last)
}

func TestDownloadAll_ListError(t *testing.T) {
	e := newEnv(t)
	e.net.Set(true)
	e.server.errs["list"] = client.ErrUnavailable

	_, err := e.sync.DownloadAll(context.Background())
	require.ErrorIs(t, err, client.ErrUnavailable)
	require.False(t, e.sync.InProgress())
}

func conflicted(t *testing.T) (*env, string) {
	t.Helper()
	e := newEnv(t)
	id := seedSynced(t, e, "v1")
	e.clock.Advance(time.Minute)
	e.server.put(models.KindExercises, id, map[string]any{"name": "theirs"})
	editOffline(t, e, id, "mine")
	_, err := e.sync.SyncAll(context.Background())
	require.NoError(t, err)
	require.Equal(t, models.StatusConflict, e.record(t, models.KindExercises, id).Status)
	return e, id
}

func TestGetConflicts(t *testing.T) {
	e, id := conflicted(t)
	ctx := context.Background()

	got, err := e.sync.GetConflicts(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1)
	c := got[0]
	assert.Equal(t, models.KindExercises, c.Kind)
	assert.Equal(t, id, c.ID)
	assert.False(t, c.ServerMissing)
	assert.Contains(t, string(c.Server), "theirs")
	assert.Contains(t, string(c.Local), "mine")
	assert.True(t, e.clock.Now().Equal(c.ServerUpdated))

	e.net.Set(false)
	_, err = e.sync.GetConflicts(ctx)
	require.ErrorIs(t, err, ErrOffline)
}

func TestResolveConflict_Server(t *testing.T) {
	e, id := conflicted(t)
	ctx := context.Background()

	require.NoError(t, e.sync.ResolveConflict(ctx, models.KindExercises, id, ChoiceServer))

	rec := e.record(t, models.KindExercises, id)
	assert.Equal(t, models.StatusSynced, rec.Status)

	server, err := e.server.Collection(models.KindExercises).Get(ctx, id)
	require.NoError(t, err)
	assert.JSONEq(t, string(server), string(rec.Data))
}

func TestResolveConflict_Local(t *testing.T) {
	e, id := conflicted(t)
	ctx := context.Background()

	require.NoError(t, e.sync.ResolveConflict(ctx, models.KindExercises, id, ChoiceLocal))

	assert.Equal(t, "mine", e.server.field(models.KindExercises, id, "name"))
	assert.Equal(t, models.StatusSynced, e.record(t, models.KindExercises, id).Status)
}

func TestResolveConflict_ServerDeleted(t *testing.T) {
	e, id := conflicted(t)
	ctx := context.Background()
	e.server.remove(models.KindExercises, id)

	require.NoError(t, e.sync.ResolveConflict(ctx, models.KindExercises, id, ChoiceServer))
	assert.Nil(t, e.record(t, models.KindExercises, id))
}

func TestResolveConflict_Preconditions(t *testing.T) {
	e, id := conflicted(t)
	ctx := context.Background()

	err := e.sync.ResolveConflict(ctx, models.KindExercises, id, "merge")
	require.ErrorIs(t, err, ErrUnknownChoice)

	err = e.sync.ResolveConflict(ctx, models.KindExercises, "nope", ChoiceLocal)
	require.ErrorIs(t, err, ErrNotFound)

	other := seedSynced(t, e, "calm")
	err = e.sync.ResolveConflict(ctx, models.KindExercises, other, ChoiceLocal)
	require.ErrorIs(t, err, ErrNoConflict)

	e.net.Set(false)
	err = e.sync.ResolveConflict(ctx, models.KindExercises, id, ChoiceLocal)
	require.ErrorIs(t, err, ErrOffline)
}

func TestSyncAll_StoreErrorAborts(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	_, err := e.exercises.Create(ctx, &models.Exercise{Name: "x"})
	require.NoError(t, err)
	_, err = e.exercises.Create(ctx, &models.Exercise{Name: "y"})
	require.NoError(t, err)

	e.net.Set(true)
	e.server.onCreate = func() {
		_, err := e.db.Exec(`DROP TABLE exercises`)
		require.NoError(t, err)
	}

	res, err := e.sync.SyncAll(ctx)
	require.Error(t, err)
	require.Nil(t, res)

	var se *storeError
	require.ErrorAs(t, err, &se)
	// the batch stopped at the first record
	require.Equal(t, 1, e.server.Calls())
	require.False(t, e.sync.InProgress())
}

func TestClearLocalData(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	_, err := e.exercises.Create(ctx, &models.Exercise{Name: "x"})
	require.NoError(t, err)
	require.NoError(t, e.meta.SetTime(ctx, metadata.KeyLastSyncTime, e.clock.Now()))

	require.NoError(t, e.sync.ClearLocalData(ctx))

	st, err := e.sync.Status(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, st.TotalPending())
	assert.Nil(t, st.LastSyncTime)
}
