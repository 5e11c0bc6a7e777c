package sqlite

type migration struct {
	version int
	sql     string
}

// migrations is the ordered schema history. Versions are sequential from 1.
var migrations = []migration{
	{
		version: 1,
		sql: `
CREATE TABLE IF NOT EXISTS schema_version (
	version INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS webhooks (
	id                      TEXT PRIMARY KEY,
	secret                  TEXT NOT NULL DEFAULT '',
	owner_user_id           TEXT NOT NULL,
	workspace_connection_id TEXT NOT NULL,
	is_active               INTEGER NOT NULL DEFAULT 1,
	event_count             INTEGER NOT NULL DEFAULT 0,
	last_event_at           DATETIME,
	created_at              DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS workspace_connections (
	id             TEXT PRIMARY KEY,
	owner_user_id  TEXT NOT NULL,
	workspace_id   TEXT NOT NULL DEFAULT '',
	workspace_name TEXT NOT NULL DEFAULT '',
	access_token   TEXT NOT NULL DEFAULT '',
	scope          TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS emoji_preferences (
	owner_user_id  TEXT PRIMARY KEY,
	today_emoji    TEXT NOT NULL DEFAULT '',
	tomorrow_emoji TEXT NOT NULL DEFAULT '',
	later_emoji    TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS users (
	id            TEXT PRIMARY KEY,
	name          TEXT NOT NULL DEFAULT '',
	email         TEXT NOT NULL DEFAULT '',
	slack_user_id TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS processed_events (
	key           TEXT PRIMARY KEY,
	owner_user_id TEXT NOT NULL,
	task_id       TEXT NOT NULL,
	processed_at  DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS tasks (
	id              TEXT PRIMARY KEY,
	owner_user_id   TEXT NOT NULL,
	title           TEXT NOT NULL,
	body            TEXT NOT NULL DEFAULT '',
	deadline        DATETIME,
	status          TEXT NOT NULL DEFAULT 'open',
	urgency         TEXT NOT NULL,
	importance_seed INTEGER NOT NULL DEFAULT 0,
	source_channel  TEXT NOT NULL DEFAULT '',
	source_ts       TEXT NOT NULL DEFAULT '',
	created_at      DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_tasks_owner_created ON tasks(owner_user_id, created_at DESC);

INSERT INTO schema_version (version) VALUES (1);
`,
	},
	{
		version: 2,
		sql: `
CREATE TABLE IF NOT EXISTS dead_letters (
	id                      TEXT PRIMARY KEY,
	webhook_id              TEXT NOT NULL,
	owner_user_id           TEXT NOT NULL,
	workspace_connection_id TEXT NOT NULL,
	channel                 TEXT NOT NULL,
	message_ts              TEXT NOT NULL,
	reaction                TEXT NOT NULL,
	actor                   TEXT NOT NULL,
	urgency                 TEXT NOT NULL,
	deadline                DATETIME,
	importance_seed         INTEGER NOT NULL DEFAULT 0,
	accepted_at             DATETIME NOT NULL,
	stage                   TEXT NOT NULL,
	error                   TEXT NOT NULL DEFAULT '',
	created_at              DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_dead_letters_created ON dead_letters(created_at);

INSERT INTO schema_version (version) VALUES (2);
`,
	},
}
