package store

// migration holds a single schema migration with its target version and SQL.
type migration struct {
	version int
	sql     string
}

// migrations is the ordered list of schema migrations.
// Each migration's version must be sequential starting from 1.
var migrations = []migration{
	{
		version: 1,
		sql: `
CREATE TABLE IF NOT EXISTS schema_version (
	version INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS snapshots (
	viewer_id  INTEGER PRIMARY KEY,
	fetched_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS tasks (
	viewer_id      INTEGER NOT NULL REFERENCES snapshots(viewer_id) ON DELETE CASCADE,
	id             INTEGER NOT NULL,
	title          TEXT NOT NULL,
	description    TEXT NOT NULL DEFAULT '',
	status         TEXT NOT NULL,
	priority       INTEGER NOT NULL DEFAULT 3,
	locked         INTEGER NOT NULL DEFAULT 0 CHECK(locked IN (0, 1)),
	links          TEXT NOT NULL DEFAULT '[]',
	assigned_to    TEXT NOT NULL DEFAULT '{}',
	assigned_by    TEXT NOT NULL DEFAULT '{}',
	due_at         TEXT NOT NULL DEFAULT '',
	created_at     TEXT NOT NULL DEFAULT '',
	updated_at     TEXT NOT NULL DEFAULT '',
	PRIMARY KEY (viewer_id, id)
);

CREATE TABLE IF NOT EXISTS notifications (
	id          TEXT PRIMARY KEY,
	viewer_id   INTEGER NOT NULL,
	task_id     INTEGER NOT NULL,
	kind        TEXT NOT NULL DEFAULT '',
	message     TEXT NOT NULL,
	read        INTEGER NOT NULL DEFAULT 0 CHECK(read IN (0, 1)),
	created_at  TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_tasks_status ON tasks(viewer_id, status);
CREATE INDEX IF NOT EXISTS idx_tasks_updated_at ON tasks(viewer_id, updated_at);
CREATE INDEX IF NOT EXISTS idx_notifications_unread ON notifications(viewer_id, read);

INSERT INTO schema_version (version) VALUES (1);
`,
	},
	{
		version: 2,
		sql: `
CREATE INDEX IF NOT EXISTS idx_notifications_task_id
	ON notifications(task_id);

INSERT INTO schema_version (version) VALUES (2);
`,
	},
}
