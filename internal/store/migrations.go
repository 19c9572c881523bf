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

CREATE TABLE IF NOT EXISTS templates (
	id          TEXT PRIMARY KEY,
	name        TEXT NOT NULL,
	category    TEXT NOT NULL DEFAULT 'custom'
		CHECK(category IN ('summarize', 'reply', 'insights', 'custom')),
	text        TEXT NOT NULL,
	favorite    INTEGER NOT NULL DEFAULT 0 CHECK(favorite IN (0, 1)),
	usage_count INTEGER NOT NULL DEFAULT 0,
	built_in    INTEGER NOT NULL DEFAULT 0 CHECK(built_in IN (0, 1)),
	created_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	updated_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_templates_name
	ON templates(name COLLATE NOCASE);

CREATE TABLE IF NOT EXISTS context_profile (
	id                  INTEGER PRIMARY KEY CHECK(id = 1),
	personal_enabled    INTEGER NOT NULL DEFAULT 0,
	name                TEXT NOT NULL DEFAULT '',
	role                TEXT NOT NULL DEFAULT '',
	company             TEXT NOT NULL DEFAULT '',
	industry            TEXT NOT NULL DEFAULT '',
	communication_style TEXT NOT NULL DEFAULT '',
	detail_level        TEXT NOT NULL DEFAULT '',
	notes               TEXT NOT NULL DEFAULT '',
	org_enabled         INTEGER NOT NULL DEFAULT 0,
	org_text            TEXT NOT NULL DEFAULT '',
	updated_at          DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

INSERT INTO schema_version (version) VALUES (1);
`,
	},
	{
		version: 2,
		sql: `
CREATE TABLE IF NOT EXISTS quick_note (
	id         INTEGER PRIMARY KEY CHECK(id = 1),
	text       TEXT NOT NULL DEFAULT '',
	updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_templates_favorite_usage
	ON templates(favorite, usage_count);

INSERT INTO schema_version (version) VALUES (2);
`,
	},
}
