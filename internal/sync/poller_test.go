package sync_test

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/facultyflow/internal/api"
	"github.com/nhle/facultyflow/internal/apitest"
	"github.com/nhle/facultyflow/internal/credential"
	"github.com/nhle/facultyflow/internal/model"
	tasksync "github.com/nhle/facultyflow/internal/sync"
	"github.com/nhle/facultyflow/tests/testutil"
)

var (
	faculty = model.User{ID: 1, Name: "Ada Faculty", Email: "ada@uni.edu", Role: model.RoleFaculty}
	hod     = model.User{ID: 2, Name: "Hal Head", Email: "hal@uni.edu", Role: model.RoleHOD}
	clock   = func() time.Time { return time.Date(2025, 4, 1, 8, 0, 0, 0, time.UTC) }
)

func ref(u model.User) model.UserRef {
	return model.UserRef{ID: u.ID, Name: u.Name, Email: u.Email}
}

func signedIn(u model.User) tasksync.ViewerFunc {
	return func() (model.User, bool) { return u, true }
}

func setup(t *testing.T, as model.User) (*api.Client, *apitest.Server) {
	t.Helper()
	srv := apitest.New(t)
	srv.AddUser(faculty, "secret")
	srv.AddUser(hod, "secret")
	tokens := credential.NewMemoryStore()
	require.NoError(t, tokens.Set(credential.TokenKey, srv.Token(t, as.ID)))
	return api.NewClient(srv.URL(), tokens), srv
}

func TestFirstSyncIsBaseline(t *testing.T) {
	client, srv := setup(t, faculty)
	srv.AddTask(model.Task{Title: "Grade midterms", AssignedTo: ref(faculty), AssignedBy: ref(hod)})
	st := testutil.NewTestStore(t)
	p := tasksync.New(client, st, signedIn(faculty), time.Minute, tasksync.WithClock(clock))

	res := p.SyncOnce(context.Background())
	require.NoError(t, res.Error)
	assert.Len(t, res.Tasks, 1)
	assert.Empty(t, res.Notifications)

	at, err := st.LastFetched(context.Background(), faculty.ID)
	require.NoError(t, err)
	assert.True(t, clock().Equal(at))
	assert.Equal(t, tasksync.SyncIdle, p.Status().State)
}

func TestNewAssignmentAndStatusChange(t *testing.T) {
	client, srv := setup(t, faculty)
	first := srv.AddTask(model.Task{Title: "Grade midterms", AssignedTo: ref(faculty), AssignedBy: ref(hod)})
	st := testutil.NewTestStore(t)
	p := tasksync.New(client, st, signedIn(faculty), time.Minute, tasksync.WithClock(clock))
	ctx := context.Background()

	require.NoError(t, p.SyncOnce(ctx).Error)

	srv.AddTask(model.Task{Title: "Lab safety review", AssignedTo: ref(faculty), AssignedBy: ref(hod)})
	_, err := client.StartTask(ctx, first.ID)
	require.NoError(t, err)

	res := p.SyncOnce(ctx)
	require.NoError(t, res.Error)
	require.Len(t, res.Notifications, 2)
	assert.Equal(t, 1, res.NewTaskCount())
	assert.Equal(t, "Grade midterms is now IN PROGRESS", res.Notifications[0].Message)
	assert.Equal(t, "New task assigned: Lab safety review", res.Notifications[1].Message)

	unread, err := st.GetUnreadNotifications(ctx, faculty.ID)
	require.NoError(t, err)
	assert.Len(t, unread, 2)

	res = p.SyncOnce(ctx)
	require.NoError(t, res.Error)
	assert.Empty(t, res.Notifications, "unchanged list raises nothing")
}

func TestDiffForReviewer(t *testing.T) {
	known := map[int64]model.TaskStatus{1: model.StatusInProgress, 2: model.StatusSubmitted}
	tasks := []model.Task{
		{ID: 1, Title: "Report", Status: model.StatusSubmitted, AssignedTo: ref(faculty)},
		{ID: 2, Title: "Syllabus", Status: model.StatusSubmitted, AssignedTo: ref(faculty)},
		{ID: 3, Title: "Advising", Status: model.StatusPending, AssignedTo: ref(faculty)},
	}

	notes := tasksync.Diff(hod, known, tasks)
	require.Len(t, notes, 1)
	assert.Equal(t, model.NotifyAwaitingReview, notes[0].Kind)
	assert.Equal(t, int64(1), notes[0].TaskID)
	assert.Equal(t, "Awaiting review: Report from Ada Faculty", notes[0].Message)

	assert.Empty(t, tasksync.Diff(model.User{ID: 9, Role: model.RoleAdmin}, known, tasks))
}

func TestSkippedWhenSignedOut(t *testing.T) {
	client, srv := setup(t, faculty)
	p := tasksync.New(client, testutil.NewTestStore(t), func() (model.User, bool) { return model.User{}, false }, 0)

	res := p.SyncOnce(context.Background())
	assert.True(t, res.Skipped)
	assert.Equal(t, 0, srv.CallCount(http.MethodGet, "/tasks"))
}

func TestUnauthorizedIsReported(t *testing.T) {
	client, srv := setup(t, faculty)
	srv.Respond(http.MethodGet, "/tasks", http.StatusUnauthorized, `{"error":"expired"}`)
	p := tasksync.New(client, testutil.NewTestStore(t), signedIn(faculty), time.Minute)

	res := p.SyncOnce(context.Background())
	require.Error(t, res.Error)
	assert.True(t, res.Unauthorized)
	assert.Equal(t, tasksync.SyncError, p.Status().State)
}

type failingFetcher struct {
	err   error
	calls int
}

func (f *failingFetcher) ListTasks(context.Context, model.TaskStatus) ([]model.Task, error) {
	f.calls++
	return nil, f.err
}

func TestBreakerOpensAfterRepeatedOutages(t *testing.T) {
	f := &failingFetcher{err: &api.Error{Status: 0, Message: "Network error"}}
	p := tasksync.New(f, testutil.NewTestStore(t), signedIn(faculty), time.Hour)
	ctx := context.Background()

	for i := 0; i < 4; i++ {
		require.Error(t, p.SyncOnce(ctx).Error)
	}
	assert.Equal(t, gobreaker.StateOpen, p.Status().Breaker)

	res := p.SyncOnce(ctx)
	assert.True(t, errors.Is(res.Error, gobreaker.ErrOpenState))
	assert.Equal(t, 4, f.calls, "open breaker does not reach the server")
}

func TestClientErrorsDoNotTripBreaker(t *testing.T) {
	f := &failingFetcher{err: &api.Error{Status: http.StatusForbidden, Message: "Forbidden"}}
	p := tasksync.New(f, testutil.NewTestStore(t), signedIn(faculty), time.Hour)

	for i := 0; i < 6; i++ {
		require.Error(t, p.SyncOnce(context.Background()).Error)
	}
	assert.Equal(t, gobreaker.StateClosed, p.Status().Breaker)
	assert.Equal(t, 6, f.calls)
}

func TestStartDeliversResults(t *testing.T) {
	client, srv := setup(t, faculty)
	srv.AddTask(model.Task{Title: "Grade midterms", AssignedTo: ref(faculty), AssignedBy: ref(hod)})
	p := tasksync.New(client, testutil.NewTestStore(t), signedIn(faculty), time.Hour)

	cmd := p.Start()
	require.NotNil(t, cmd)
	defer p.Stop()
	assert.Nil(t, p.Start(), "already running")

	msg, ok := cmd().(tasksync.SyncResultMsg)
	require.True(t, ok)
	require.NoError(t, msg.Error)
	assert.Len(t, msg.Tasks, 1)

	p.Refresh()
	msg, ok = p.WaitForNextResult()().(tasksync.SyncResultMsg)
	require.True(t, ok)
	assert.Len(t, msg.Tasks, 1)
}
