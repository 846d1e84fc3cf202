package postgres

// DDL mirrors the logical persisted layout: one generic node table keyed by
// the global id plus category, one detail table per category keyed by the
// same id, a join table for associations with edge attributes, and the
// right tuples. Statements are idempotent so startup can always apply them.
var ddlStatements = []string{
	`CREATE TABLE IF NOT EXISTS nodes (
		id TEXT PRIMARY KEY,
		category TEXT NOT NULL,
		name TEXT NOT NULL DEFAULT '',
		description TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS nodes_category_idx ON nodes(category)`,
	`CREATE TABLE IF NOT EXISTS scene_types (
		id TEXT PRIMARY KEY REFERENCES nodes(id) ON DELETE CASCADE,
		layout JSONB
	)`,
	`CREATE TABLE IF NOT EXISTS classes (
		id TEXT PRIMARY KEY REFERENCES nodes(id) ON DELETE CASCADE,
		abstract BOOLEAN NOT NULL DEFAULT FALSE
	)`,
	`CREATE TABLE IF NOT EXISTS relation_classes (
		id TEXT PRIMARY KEY REFERENCES nodes(id) ON DELETE CASCADE,
		representation TEXT NOT NULL DEFAULT ''
	)`,
	`CREATE TABLE IF NOT EXISTS attributes (
		id TEXT PRIMARY KEY REFERENCES nodes(id) ON DELETE CASCADE,
		default_value TEXT NOT NULL DEFAULT ''
	)`,
	`CREATE TABLE IF NOT EXISTS attribute_types (
		id TEXT PRIMARY KEY REFERENCES nodes(id) ON DELETE CASCADE,
		kind TEXT NOT NULL DEFAULT '',
		enum_values JSONB,
		pattern TEXT NOT NULL DEFAULT ''
	)`,
	`CREATE TABLE IF NOT EXISTS ports (
		id TEXT PRIMARY KEY REFERENCES nodes(id) ON DELETE CASCADE,
		direction TEXT NOT NULL DEFAULT ''
	)`,
	`CREATE TABLE IF NOT EXISTS roles (
		id TEXT PRIMARY KEY REFERENCES nodes(id) ON DELETE CASCADE,
		direction TEXT NOT NULL DEFAULT ''
	)`,
	`CREATE TABLE IF NOT EXISTS rules (
		id TEXT PRIMARY KEY REFERENCES nodes(id) ON DELETE CASCADE,
		expression TEXT NOT NULL DEFAULT '',
		severity TEXT NOT NULL DEFAULT ''
	)`,
	`CREATE TABLE IF NOT EXISTS procedures (
		id TEXT PRIMARY KEY REFERENCES nodes(id) ON DELETE CASCADE,
		body TEXT NOT NULL DEFAULT '',
		trigger_kind TEXT NOT NULL DEFAULT ''
	)`,
	`CREATE TABLE IF NOT EXISTS users (
		id TEXT PRIMARY KEY REFERENCES nodes(id) ON DELETE CASCADE,
		login TEXT NOT NULL DEFAULT ''
	)`,
	`CREATE TABLE IF NOT EXISTS user_groups (
		id TEXT PRIMARY KEY REFERENCES nodes(id) ON DELETE CASCADE
	)`,
	`CREATE TABLE IF NOT EXISTS associations (
		source_id TEXT NOT NULL REFERENCES nodes(id) ON DELETE CASCADE,
		target_id TEXT NOT NULL REFERENCES nodes(id) ON DELETE CASCADE,
		kind TEXT NOT NULL,
		seq INTEGER NOT NULL DEFAULT 0,
		ui_hint TEXT NOT NULL DEFAULT '',
		min_card INTEGER NOT NULL DEFAULT 0,
		max_card INTEGER NOT NULL DEFAULT 0,
		PRIMARY KEY (source_id, target_id, kind)
	)`,
	`CREATE INDEX IF NOT EXISTS associations_target_idx ON associations(target_id, kind)`,
	`CREATE TABLE IF NOT EXISTS node_rights (
		group_id TEXT NOT NULL,
		action TEXT NOT NULL,
		node_id TEXT NOT NULL DEFAULT '',
		category TEXT NOT NULL DEFAULT '',
		PRIMARY KEY (group_id, action, node_id, category)
	)`,
}
