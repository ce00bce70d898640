// Package sqlite_test contains integration tests for the SQLite repositories.
//
// All test setup goes through setupTestDB, which loads the authoritative
// schema from db.GetSchemaSQL(). Do not hardcode CREATE TABLE statements in
// test files; drift between test and production schemas must be impossible.
package sqlite_test

import (
	"database/sql"
	"testing"

	_ "github.com/mattn/go-sqlite3"

	"github.com/example/curator/internal/db"
)

// setupTestDB creates an in-memory database with the authoritative schema.
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	testDB, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}

	if _, err := testDB.Exec("PRAGMA foreign_keys = ON"); err != nil {
		t.Fatalf("failed to enable foreign keys: %v", err)
	}

	if _, err := testDB.Exec(db.GetSchemaSQL()); err != nil {
		t.Fatalf("failed to create schema: %v", err)
	}

	t.Cleanup(func() {
		testDB.Close()
	})

	return testDB
}

// seedFeed inserts a test feed and returns its ID.
func seedFeed(t *testing.T, db *sql.DB, url, category string) int64 {
	t.Helper()
	if url == "" {
		url = "https://example.com/feed.xml"
	}
	if category == "" {
		category = "articles"
	}
	res, err := db.Exec("INSERT INTO feeds (url, title, category) VALUES (?, 'Test Feed', ?)", url, category)
	if err != nil {
		t.Fatalf("failed to seed feed: %v", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		t.Fatalf("failed to read seeded feed id: %v", err)
	}
	return id
}
