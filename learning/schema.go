package learning

// Schema for the knowledge database. Passed to dbopen.WithSchema or applied
// manually via Store.Init.
//
// conversation_patterns carries a unique index on user_input so that
// INSERT OR REPLACE gives exactly one row per exact input text.
// learning_metrics and threat_intelligence are append-only and never pruned.
const Schema = `
CREATE TABLE IF NOT EXISTS conversation_patterns (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	user_input TEXT NOT NULL UNIQUE,
	response_pattern TEXT NOT NULL,
	success_rate REAL NOT NULL,
	usage_count INTEGER NOT NULL DEFAULT 1,
	last_used INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS learning_metrics (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	metric_name TEXT NOT NULL,
	metric_value REAL NOT NULL,
	timestamp INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_learning_metrics_name ON learning_metrics(metric_name);

CREATE TABLE IF NOT EXISTS expertise_evolution (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	domain TEXT NOT NULL UNIQUE,
	skill_level INTEGER NOT NULL,
	experience_points INTEGER NOT NULL,
	last_updated INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS threat_intelligence (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	threat_type TEXT NOT NULL,
	ioc_value TEXT NOT NULL,
	confidence REAL NOT NULL,
	source TEXT NOT NULL,
	timestamp INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_threat_intelligence_ts ON threat_intelligence(timestamp);
`
