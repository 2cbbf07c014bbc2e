package store_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/facultyflow/internal/model"
	"github.com/nhle/facultyflow/internal/store"
	"github.com/nhle/facultyflow/tests/testutil"
)

var fetched = time.Date(2025, 4, 1, 8, 30, 0, 0, time.UTC)

func sampleTasks() []model.Task {
	return []model.Task{
		{
			ID:          10,
			Title:       "Grade midterms",
			Description: "Section A",
			Status:      model.StatusPending,
			Priority:    7,
			Links:       []string{"https://lms.example/a"},
			AssignedTo:  model.UserRef{ID: 1, Name: "Ada Faculty", Email: "ada@uni.edu"},
			AssignedBy:  model.UserRef{ID: 2, Name: "Hal Head", Email: "hal@uni.edu"},
			DueAt:       time.Date(2025, 4, 10, 23, 59, 0, 0, time.UTC),
			CreatedAt:   time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC),
			UpdatedAt:   time.Date(2025, 3, 2, 9, 0, 0, 0, time.UTC),
		},
		{
			ID:        11,
			Title:     "Submit syllabus",
			Status:    model.StatusCompleted,
			Priority:  3,
			Locked:    true,
			CreatedAt: time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC),
			UpdatedAt: time.Date(2025, 3, 5, 9, 0, 0, 0, time.UTC),
		},
	}
}

func TestSnapshotRoundTrip(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.SaveSnapshot(ctx, 1, sampleTasks(), fetched))

	got, err := s.GetTasks(ctx, 1, store.TaskFilter{})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, int64(11), got[0].ID, "most recently updated first")
	assert.True(t, got[0].Locked)
	assert.Empty(t, got[0].Links)
	assert.NotNil(t, got[0].Links)
	assert.True(t, got[0].DueAt.IsZero())

	assert.Equal(t, sampleTasks()[0], got[1])

	at, err := s.LastFetched(ctx, 1)
	require.NoError(t, err)
	assert.True(t, fetched.Equal(at))
}

func TestSnapshotReplacesPrevious(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.SaveSnapshot(ctx, 1, sampleTasks(), fetched))
	require.NoError(t, s.SaveSnapshot(ctx, 1, sampleTasks()[1:], fetched.Add(time.Minute)))

	got, err := s.GetTasks(ctx, 1, store.TaskFilter{})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, int64(11), got[0].ID)

	missing, err := s.GetTaskByID(ctx, 1, 10)
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestSnapshotsAreScopedByViewer(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.SaveSnapshot(ctx, 1, sampleTasks()[:1], fetched))
	require.NoError(t, s.SaveSnapshot(ctx, 2, sampleTasks(), fetched))

	mine, err := s.GetTasks(ctx, 1, store.TaskFilter{})
	require.NoError(t, err)
	assert.Len(t, mine, 1)

	statuses, err := s.KnownStatuses(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, map[int64]model.TaskStatus{10: model.StatusPending, 11: model.StatusCompleted}, statuses)

	never, err := s.LastFetched(ctx, 3)
	require.NoError(t, err)
	assert.True(t, never.IsZero())
}

func TestGetTasksFilter(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.SaveSnapshot(ctx, 1, sampleTasks(), fetched))

	got, err := s.GetTasks(ctx, 1, store.TaskFilter{Status: model.StatusPending})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, int64(10), got[0].ID)

	got, err = s.GetTasks(ctx, 1, store.TaskFilter{Query: "SECTION"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, int64(10), got[0].ID)

	got, err = s.GetTasks(ctx, 1, store.TaskFilter{Limit: 1})
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestGetTasksSearchMatchesWildcardsLiterally(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()
	tasks := append(sampleTasks(), model.Task{
		ID:        12,
		Title:     "Reach 100% of lab_reports",
		Status:    model.StatusInProgress,
		Priority:  5,
		CreatedAt: time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC),
		UpdatedAt: time.Date(2025, 3, 3, 9, 0, 0, 0, time.UTC),
	})
	require.NoError(t, s.SaveSnapshot(ctx, 1, tasks, fetched))

	for _, q := range []string{"_", "%", "0% of", "lab_"} {
		got, err := s.GetTasks(ctx, 1, store.TaskFilter{Query: q})
		require.NoError(t, err, q)
		require.Len(t, got, 1, q)
		assert.Equal(t, int64(12), got[0].ID, q)
	}

	got, err := s.GetTasks(ctx, 1, store.TaskFilter{Query: `\`})
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestNotifications(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.CreateNotification(ctx, 1, model.Notification{TaskID: 10, Message: "first", CreatedAt: fetched}))
	require.NoError(t, s.CreateNotification(ctx, 1, model.Notification{TaskID: 11, Message: "second", CreatedAt: fetched.Add(time.Second)}))
	require.NoError(t, s.CreateNotification(ctx, 2, model.Notification{TaskID: 11, Message: "other viewer"}))

	unread, err := s.GetUnreadNotifications(ctx, 1)
	require.NoError(t, err)
	require.Len(t, unread, 2)
	assert.Equal(t, "second", unread[0].Message)
	assert.NotEmpty(t, unread[0].ID)

	require.NoError(t, s.MarkNotificationRead(ctx, unread[0].ID))
	unread, err = s.GetUnreadNotifications(ctx, 1)
	require.NoError(t, err)
	require.Len(t, unread, 1)
	assert.Equal(t, "first", unread[0].Message)

	require.NoError(t, s.MarkAllNotificationsRead(ctx, 1))
	unread, err = s.GetUnreadNotifications(ctx, 1)
	require.NoError(t, err)
	assert.Empty(t, unread)

	other, err := s.GetUnreadNotifications(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, other, 1)
}

func TestPurge(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.SaveSnapshot(ctx, 1, sampleTasks(), fetched))
	require.NoError(t, s.CreateNotification(ctx, 1, model.Notification{TaskID: 10, Message: "hi"}))
	require.NoError(t, s.Purge(ctx, 1))

	got, err := s.GetTasks(ctx, 1, store.TaskFilter{})
	require.NoError(t, err)
	assert.Empty(t, got)

	at, err := s.LastFetched(ctx, 1)
	require.NoError(t, err)
	assert.True(t, at.IsZero())

	unread, err := s.GetUnreadNotifications(ctx, 1)
	require.NoError(t, err)
	assert.Empty(t, unread)
}

func TestReopenKeepsSchema(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.db")
	ctx := context.Background()

	s, err := store.NewSQLiteStore(path)
	require.NoError(t, err)
	require.NoError(t, s.SaveSnapshot(ctx, 1, sampleTasks(), fetched))
	require.NoError(t, s.Close())

	s, err = store.NewSQLiteStore(path)
	require.NoError(t, err)
	defer s.Close()

	got, err := s.GetTasks(ctx, 1, store.TaskFilter{})
	require.NoError(t, err)
	assert.Len(t, got, 2)
}
