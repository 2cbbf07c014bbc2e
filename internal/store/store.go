package store

import (
	"context"
	"time"

	"github.com/nhle/facultyflow/internal/model"
)

// TaskFilter narrows a query over the cached task snapshot.
type TaskFilter struct {
	Status model.TaskStatus // empty for all
	Query  string           // matched against title + description
	Limit  int
}

// Snapshot is the last task list fetched for one signed-in user.
type Snapshot struct {
	ViewerID  int64
	FetchedAt time.Time
	Tasks     []model.Task
}

// Store is the local cache of the most recent task listing and of the
// notifications raised by background refreshes. Every row is scoped to
// the viewer that fetched it because the server filters /tasks by role.
type Store interface {
	// === Task snapshot ===

	// SaveSnapshot replaces the viewer's cached task list.
	SaveSnapshot(ctx context.Context, viewerID int64, tasks []model.Task, fetchedAt time.Time) error
	GetTasks(ctx context.Context, viewerID int64, filter TaskFilter) ([]model.Task, error)
	GetTaskByID(ctx context.Context, viewerID, id int64) (*model.Task, error)
	// LastFetched returns the zero time when the viewer has no snapshot.
	LastFetched(ctx context.Context, viewerID int64) (time.Time, error)
	KnownStatuses(ctx context.Context, viewerID int64) (map[int64]model.TaskStatus, error)

	// === Notifications ===

	CreateNotification(ctx context.Context, viewerID int64, n model.Notification) error
	GetUnreadNotifications(ctx context.Context, viewerID int64) ([]model.Notification, error)
	MarkNotificationRead(ctx context.Context, id string) error
	MarkAllNotificationsRead(ctx context.Context, viewerID int64) error

	// Purge drops everything cached for the viewer, used on logout.
	Purge(ctx context.Context, viewerID int64) error
}
