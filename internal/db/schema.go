package db

// SchemaSQL is the complete schema for fresh curator installs.
//
// This is the SINGLE SOURCE OF TRUTH for the database schema. All repository
// tests create their in-memory databases via GetSchemaSQL() so that a column
// referenced by repository code but missing here fails immediately with
// "no such column" at test time instead of in production.
const SchemaSQL = `
-- Feed subscriptions
CREATE TABLE IF NOT EXISTS feeds (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	url TEXT UNIQUE NOT NULL,
	title TEXT,
	category TEXT NOT NULL CHECK (category IN ('articles', 'youtube', 'podcasts')),
	added_at DATETIME DEFAULT CURRENT_TIMESTAMP,
	last_fetched_at DATETIME,
	is_active BOOLEAN DEFAULT 1
);

-- Processed entries (idempotency guard, append-only). Outlives its feed:
-- unsubscribing must not reopen old entries for reprocessing.
CREATE TABLE IF NOT EXISTS processed_entries (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	entry_guid TEXT UNIQUE NOT NULL,
	feed_id INTEGER,
	entry_url TEXT NOT NULL,
	entry_title TEXT,
	processed_at DATETIME DEFAULT CURRENT_TIMESTAMP,
	note_path TEXT,
	FOREIGN KEY (feed_id) REFERENCES feeds(id) ON DELETE SET NULL
);

-- Retry queue for transiently failed entries
CREATE TABLE IF NOT EXISTS retry_queue (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	entry_guid TEXT UNIQUE NOT NULL,
	feed_id INTEGER,
	entry_url TEXT NOT NULL,
	entry_title TEXT,
	category TEXT NOT NULL,
	first_failed_at DATETIME DEFAULT CURRENT_TIMESTAMP,
	last_attempt_at DATETIME,
	next_retry_at DATETIME,
	retry_count INTEGER DEFAULT 0,
	last_error TEXT,
	FOREIGN KEY (feed_id) REFERENCES feeds(id) ON DELETE SET NULL
);

-- Pipeline run history (catch-up detection)
CREATE TABLE IF NOT EXISTS pipeline_runs (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	started_at DATETIME DEFAULT CURRENT_TIMESTAMP,
	completed_at DATETIME,
	items_processed INTEGER DEFAULT 0,
	items_failed INTEGER DEFAULT 0,
	status TEXT CHECK (status IN ('running', 'completed', 'failed'))
);

CREATE INDEX IF NOT EXISTS idx_processed_guid ON processed_entries(entry_guid);
CREATE INDEX IF NOT EXISTS idx_retry_next ON retry_queue(next_retry_at);
CREATE INDEX IF NOT EXISTS idx_feeds_category ON feeds(category);
`

// GetSchemaSQL returns the authoritative schema SQL.
func GetSchemaSQL() string {
	return SchemaSQL
}
