package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/nhle/facultyflow/internal/model"
)

// timeLayout is fixed width so stored timestamps sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// SQLiteStore implements the Store interface using a local SQLite database.
type SQLiteStore struct {
	db *sqlx.DB
}

// NewSQLiteStore opens (or creates) a SQLite database at dbPath,
// enables WAL mode, and runs any pending schema migrations.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sqlx.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite db: %w", err)
	}

	// An in-memory database exists per connection.
	if dbPath == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	// Enable WAL mode for better concurrent read performance.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	s := &SQLiteStore{db: db}
	if err := s.runMigrations(); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// runMigrations checks the current schema version and applies any
// outstanding migrations in order.
func (s *SQLiteStore) runMigrations() error {
	currentVersion := 0

	var tableCount int
	err := s.db.Get(
		&tableCount,
		"SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='schema_version'",
	)
	if err != nil {
		return fmt.Errorf("checking schema_version table: %w", err)
	}

	if tableCount > 0 {
		err = s.db.Get(&currentVersion, "SELECT COALESCE(MAX(version), 0) FROM schema_version")
		if err != nil {
			return fmt.Errorf("reading schema version: %w", err)
		}
	}

	for _, m := range migrations {
		if m.version <= currentVersion {
			continue
		}
		if _, err := s.db.Exec(m.sql); err != nil {
			return fmt.Errorf("applying migration v%d: %w", m.version, err)
		}
	}

	return nil
}

// taskRow mirrors the tasks table.
type taskRow struct {
	ViewerID    int64  `db:"viewer_id"`
	ID          int64  `db:"id"`
	Title       string `db:"title"`
	Description string `db:"description"`
	Status      string `db:"status"`
	Priority    int    `db:"priority"`
	Locked      bool   `db:"locked"`
	Links       string `db:"links"`
	AssignedTo  string `db:"assigned_to"`
	AssignedBy  string `db:"assigned_by"`
	DueAt       string `db:"due_at"`
	CreatedAt   string `db:"created_at"`
	UpdatedAt   string `db:"updated_at"`
}

func toRow(viewerID int64, t model.Task) (taskRow, error) {
	links := t.Links
	if links == nil {
		links = []string{}
	}
	linksJSON, err := json.Marshal(links)
	if err != nil {
		return taskRow{}, fmt.Errorf("marshaling links for task %d: %w", t.ID, err)
	}
	to, err := json.Marshal(t.AssignedTo)
	if err != nil {
		return taskRow{}, fmt.Errorf("marshaling assignee for task %d: %w", t.ID, err)
	}
	by, err := json.Marshal(t.AssignedBy)
	if err != nil {
		return taskRow{}, fmt.Errorf("marshaling assigner for task %d: %w", t.ID, err)
	}

	return taskRow{
		ViewerID:    viewerID,
		ID:          t.ID,
		Title:       t.Title,
		Description: t.Description,
		Status:      string(t.Status),
		Priority:    t.Priority,
		Locked:      t.Locked,
		Links:       string(linksJSON),
		AssignedTo:  string(to),
		AssignedBy:  string(by),
		DueAt:       formatTime(t.DueAt),
		CreatedAt:   formatTime(t.CreatedAt),
		UpdatedAt:   formatTime(t.UpdatedAt),
	}, nil
}

func (r taskRow) task() (model.Task, error) {
	t := model.Task{
		ID:          r.ID,
		Title:       r.Title,
		Description: r.Description,
		Status:      model.TaskStatus(r.Status),
		Priority:    r.Priority,
		Locked:      r.Locked,
		Links:       []string{},
	}
	if err := json.Unmarshal([]byte(r.Links), &t.Links); err != nil {
		return model.Task{}, fmt.Errorf("unmarshaling links for task %d: %w", r.ID, err)
	}
	if err := json.Unmarshal([]byte(r.AssignedTo), &t.AssignedTo); err != nil {
		return model.Task{}, fmt.Errorf("unmarshaling assignee for task %d: %w", r.ID, err)
	}
	if err := json.Unmarshal([]byte(r.AssignedBy), &t.AssignedBy); err != nil {
		return model.Task{}, fmt.Errorf("unmarshaling assigner for task %d: %w", r.ID, err)
	}

	var err error
	if t.DueAt, err = parseTime(r.DueAt); err != nil {
		return model.Task{}, err
	}
	if t.CreatedAt, err = parseTime(r.CreatedAt); err != nil {
		return model.Task{}, err
	}
	if t.UpdatedAt, err = parseTime(r.UpdatedAt); err != nil {
		return model.Task{}, err
	}
	return t, nil
}

// SaveSnapshot replaces the viewer's cached tasks in one transaction.
func (s *SQLiteStore) SaveSnapshot(
	ctx context.Context,
	viewerID int64,
	tasks []model.Task,
	fetchedAt time.Time,
) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM tasks WHERE viewer_id = ?", viewerID); err != nil {
		return fmt.Errorf("clearing snapshot for viewer %d: %w", viewerID, err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO snapshots (viewer_id, fetched_at) VALUES (?, ?)
		ON CONFLICT(viewer_id) DO UPDATE SET fetched_at = excluded.fetched_at`,
		viewerID, formatTime(fetchedAt),
	)
	if err != nil {
		return fmt.Errorf("recording snapshot for viewer %d: %w", viewerID, err)
	}

	const query = `
		INSERT OR REPLACE INTO tasks (
			viewer_id, id, title, description, status, priority, locked,
			links, assigned_to, assigned_by, due_at, created_at, updated_at
		) VALUES (
			:viewer_id, :id, :title, :description, :status, :priority, :locked,
			:links, :assigned_to, :assigned_by, :due_at, :created_at, :updated_at
		)`

	stmt, err := tx.PrepareNamedContext(ctx, query)
	if err != nil {
		return fmt.Errorf("preparing snapshot insert: %w", err)
	}
	defer stmt.Close()

	for _, t := range tasks {
		row, err := toRow(viewerID, t)
		if err != nil {
			return err
		}
		if _, err := stmt.ExecContext(ctx, row); err != nil {
			return fmt.Errorf("caching task %d: %w", t.ID, err)
		}
	}

	return tx.Commit()
}

// likeEscaper makes LIKE wildcards in a search term match literally.
var likeEscaper = strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`)

// GetTasks returns the viewer's cached tasks, most recently updated first.
func (s *SQLiteStore) GetTasks(
	ctx context.Context,
	viewerID int64,
	filter TaskFilter,
) ([]model.Task, error) {
	conditions := []string{"viewer_id = ?"}
	args := []interface{}{viewerID}

	if filter.Status != "" {
		conditions = append(conditions, "status = ?")
		args = append(args, string(filter.Status))
	}
	if q := strings.TrimSpace(filter.Query); q != "" {
		conditions = append(conditions, `(title || ' ' || description) LIKE ? ESCAPE '\'`)
		args = append(args, "%"+likeEscaper.Replace(q)+"%")
	}

	query := "SELECT * FROM tasks WHERE " + strings.Join(conditions, " AND ") +
		" ORDER BY updated_at DESC, id ASC"
	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", filter.Limit)
	}

	var rows []taskRow
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("querying cached tasks: %w", err)
	}

	tasks := make([]model.Task, 0, len(rows))
	for _, r := range rows {
		t, err := r.task()
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}
	return tasks, nil
}

// GetTaskByID returns nil, nil when the task is not cached for the viewer.
func (s *SQLiteStore) GetTaskByID(
	ctx context.Context,
	viewerID, id int64,
) (*model.Task, error) {
	var row taskRow
	err := s.db.GetContext(ctx, &row,
		"SELECT * FROM tasks WHERE viewer_id = ? AND id = ?", viewerID, id,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying cached task %d: %w", id, err)
	}

	t, err := row.task()
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// LastFetched returns when the viewer's snapshot was taken.
func (s *SQLiteStore) LastFetched(ctx context.Context, viewerID int64) (time.Time, error) {
	var raw string
	err := s.db.GetContext(ctx, &raw,
		"SELECT fetched_at FROM snapshots WHERE viewer_id = ?", viewerID,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("reading snapshot time: %w", err)
	}
	return parseTime(raw)
}

// KnownStatuses maps each cached task id to its cached status.
func (s *SQLiteStore) KnownStatuses(
	ctx context.Context,
	viewerID int64,
) (map[int64]model.TaskStatus, error) {
	var rows []struct {
		ID     int64  `db:"id"`
		Status string `db:"status"`
	}
	err := s.db.SelectContext(ctx, &rows,
		"SELECT id, status FROM tasks WHERE viewer_id = ?", viewerID,
	)
	if err != nil {
		return nil, fmt.Errorf("querying cached statuses: %w", err)
	}

	out := make(map[int64]model.TaskStatus, len(rows))
	for _, r := range rows {
		out[r.ID] = model.TaskStatus(r.Status)
	}
	return out, nil
}

// CreateNotification inserts a new notification record.
func (s *SQLiteStore) CreateNotification(
	ctx context.Context,
	viewerID int64,
	n model.Notification,
) error {
	if n.ID == "" {
		n.ID = uuid.New().String()
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO notifications (id, viewer_id, task_id, kind, message, read, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		n.ID, viewerID, n.TaskID, string(n.Kind), n.Message,
		boolToInt(n.Read), formatTime(n.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("creating notification: %w", err)
	}

	return nil
}

// GetUnreadNotifications retrieves all notifications that have not been read,
// ordered by creation time descending.
func (s *SQLiteStore) GetUnreadNotifications(
	ctx context.Context,
	viewerID int64,
) ([]model.Notification, error) {
	var rows []struct {
		ID        string `db:"id"`
		ViewerID  int64  `db:"viewer_id"`
		TaskID    int64  `db:"task_id"`
		Kind      string `db:"kind"`
		Message   string `db:"message"`
		Read      bool   `db:"read"`
		CreatedAt string `db:"created_at"`
	}
	err := s.db.SelectContext(ctx, &rows, `
		SELECT * FROM notifications
		WHERE viewer_id = ? AND read = 0
		ORDER BY created_at DESC, rowid DESC`,
		viewerID,
	)
	if err != nil {
		return nil, fmt.Errorf("querying unread notifications: %w", err)
	}

	notifications := make([]model.Notification, 0, len(rows))
	for _, r := range rows {
		created, err := parseTime(r.CreatedAt)
		if err != nil {
			return nil, err
		}
		notifications = append(notifications, model.Notification{
			ID:        r.ID,
			TaskID:    r.TaskID,
			Kind:      model.NotificationKind(r.Kind),
			Message:   r.Message,
			Read:      r.Read,
			CreatedAt: created,
		})
	}
	return notifications, nil
}

// MarkNotificationRead marks a single notification as read.
func (s *SQLiteStore) MarkNotificationRead(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx,
		"UPDATE notifications SET read = 1 WHERE id = ?", id,
	)
	if err != nil {
		return fmt.Errorf("marking notification %s as read: %w", id, err)
	}
	return nil
}

// MarkAllNotificationsRead marks every notification of the viewer as read.
func (s *SQLiteStore) MarkAllNotificationsRead(ctx context.Context, viewerID int64) error {
	_, err := s.db.ExecContext(ctx,
		"UPDATE notifications SET read = 1 WHERE viewer_id = ?", viewerID,
	)
	if err != nil {
		return fmt.Errorf("marking notifications read: %w", err)
	}
	return nil
}

// Purge removes the viewer's snapshot and notifications.
func (s *SQLiteStore) Purge(ctx context.Context, viewerID int64) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	for _, q := range []string{
		"DELETE FROM tasks WHERE viewer_id = ?",
		"DELETE FROM snapshots WHERE viewer_id = ?",
		"DELETE FROM notifications WHERE viewer_id = ?",
	} {
		if _, err := tx.ExecContext(ctx, q, viewerID); err != nil {
			return fmt.Errorf("purging cache for viewer %d: %w", viewerID, err)
		}
	}
	return tx.Commit()
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing stored time %q: %w", s, err)
	}
	return t, nil
}

// boolToInt converts a boolean to 0 or 1 for SQLite storage.
func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
