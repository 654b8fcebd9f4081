package client

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/afzalm/cclms/internal/dto"
	"github.com/afzalm/cclms/internal/models"
	"github.com/afzalm/cclms/internal/workflow"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var confirmYes = ConfirmFunc(func(context.Context, Command) bool { return true })

// userDirectory serves a single user whose status follows the commands it
// receives. A held list reads the user, signals read, then waits for hold.
type userDirectory struct {
	mu   sync.Mutex
	user models.User
	hold chan struct{}
	read chan struct{}
}

func newUserDirectory(f *fakeAPI) *userDirectory {
	d := &userDirectory{
		user: models.User{ID: uuid.New(), Email: "s@lms.test", Role: "STUDENT", Status: workflow.UserActive},
		read: make(chan struct{}, 1),
	}
	f.mux.HandleFunc("GET /api/admin/users", d.list)
	f.mux.HandleFunc("PUT /api/admin/users", d.act)
	return d
}

func (d *userDirectory) holdNextList(hold chan struct{}) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.hold = hold
}

func (d *userDirectory) list(w http.ResponseWriter, r *http.Request) {
	d.mu.Lock()
	user, hold := d.user, d.hold
	d.hold = nil
	d.mu.Unlock()
	if hold != nil {
		d.read <- struct{}{}
		<-hold
	}
	writeJSON(w, http.StatusOK, dto.UserListResponse{Users: []models.User{user}, Total: 1, Page: 1, TotalPages: 1})
}

func (d *userDirectory) act(w http.ResponseWriter, r *http.Request) {
	var req dto.UserActionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: true, Message: err.Error()})
		return
	}
	d.mu.Lock()
	if req.Action == string(workflow.ActionSuspend) {
		d.user.Status = workflow.UserSuspended
	} else {
		d.user.Status = workflow.UserActive
	}
	status := d.user.Status
	d.mu.Unlock()
	writeJSON(w, http.StatusOK, dto.ActionResponse{Success: true, Message: "User updated", Status: status})
}

func TestListStartedBeforeCommandIsNotCached(t *testing.T) {
	f := newFakeAPI(t)
	dir := newUserDirectory(f)
	c, _ := signedIn(t, f, workflow.RoleAdmin)
	ctx := context.Background()

	hold := make(chan struct{})
	dir.holdNextList(hold)
	type listed struct {
		page *Page[models.User]
		err  error
	}
	first := make(chan listed, 1)
	go func() {
		p, err := c.ListUsers(ctx, 1, 10, nil)
		first <- listed{p, err}
	}()
	<-dir.read

	_, err := c.Execute(ctx, Command{Entity: workflow.EntityUser, Action: workflow.ActionSuspend, TargetID: dir.user.ID}, confirmYes)
	require.NoError(t, err)
	close(hold)

	got := <-first
	require.NoError(t, got.err)
	assert.Equal(t, workflow.UserActive, got.page.Items[0].Status, "the overlapping read saw the old status")

	page, err := c.ListUsers(ctx, 1, 10, nil)
	require.NoError(t, err)
	assert.Equal(t, workflow.UserSuspended, page.Items[0].Status)
	assert.Equal(t, 2, f.hitCount("GET /api/admin/users"))
}

func TestQueryCacheGenerations(t *testing.T) {
	q := newQueryCache(time.Minute)
	key := QueryKey{Resource: ResourceUsers, Page: 1, PerPage: 10}

	gen := q.generation(ResourceUsers)
	q.invalidate(ResourceCourses)
	assert.True(t, q.set(key, gen, "fresh"), "other resources do not matter")
	v, ok := q.get(key)
	require.True(t, ok)
	assert.Equal(t, "fresh", v)

	gen = q.generation(ResourceUsers)
	q.invalidate(ResourceUsers)
	assert.False(t, q.set(key, gen, "stale"))
	_, ok = q.get(key)
	assert.False(t, ok)

	gen = q.generation(ResourceUsers)
	q.clear()
	assert.False(t, q.set(key, gen, "stale"), "sign-out discards in-flight results")
}

func TestCachedQueriesExpire(t *testing.T) {
	f := newFakeAPI(t)
	f.mux.HandleFunc("GET /api/admin/users", usersHandler)
	c, _ := signedIn(t, f, workflow.RoleAdmin, WithQueryTTL(time.Minute))
	now := time.Now()
	c.queries.now = func() time.Time { return now }
	ctx := context.Background()

	for range 2 {
		_, err := c.ListUsers(ctx, 1, 10, nil)
		require.NoError(t, err)
	}
	assert.Equal(t, 1, f.hitCount("GET /api/admin/users"))

	now = now.Add(time.Minute)
	_, err := c.ListUsers(ctx, 1, 10, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, f.hitCount("GET /api/admin/users"))
}

func TestZeroTTLDisablesCaching(t *testing.T) {
	f := newFakeAPI(t)
	f.mux.HandleFunc("GET /api/admin/users", usersHandler)
	c, _ := signedIn(t, f, workflow.RoleAdmin, WithQueryTTL(0))

	for range 3 {
		_, err := c.ListUsers(context.Background(), 1, 10, nil)
		require.NoError(t, err)
	}
	assert.Equal(t, 3, f.hitCount("GET /api/admin/users"))
}

func TestReloadShowsChangesFromAnotherClient(t *testing.T) {
	f := newFakeAPI(t)
	dir := newUserDirectory(f)
	a, _ := signedIn(t, f, workflow.RoleAdmin)
	b, _ := signedIn(t, f, workflow.RoleAdmin)
	ctx := context.Background()

	lc := NewListController[models.User](a.ListUsers, 10, ReloadFrom[models.User](a, ResourceUsers))
	defer lc.Close()
	require.NoError(t, lc.Load(ctx))
	assert.Equal(t, workflow.UserActive, lc.State().Items[0].Status)

	_, err := b.Execute(ctx, Command{Entity: workflow.EntityUser, Action: workflow.ActionSuspend, TargetID: dir.user.ID}, confirmYes)
	require.NoError(t, err)

	require.NoError(t, lc.SetPage(ctx, 1))
	assert.Equal(t, workflow.UserActive, lc.State().Items[0].Status, "page changes are served from the cache")

	require.NoError(t, lc.Load(ctx))
	assert.Equal(t, workflow.UserSuspended, lc.State().Items[0].Status)
	assert.Equal(t, 2, f.hitCount("GET /api/admin/users"))
}
