// Copyright 2026 The Panoptikon PQL Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package store wraps the SQLite database a compiled query runs against:
// opening the connection, creating the schema on first use, and running a
// compiled statement.
package store

import (
	"context"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"

	"github.com/reasv-labs/panoptikon-pql/internal/pql"
)

// Store wraps the *sql.DB a compiled query runs against.
type Store struct {
	db *sql.DB
}

// Open opens (and, if necessary, creates) the SQLite database at path and
// ensures the schema exists.
func Open(ctx context.Context, path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("store: opening %q: %w", path, err)
	}
	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("store: connecting to %q: %w", path, err)
	}
	if _, err := db.ExecContext(ctx, schemaSQL); err != nil {
		return nil, fmt.Errorf("store: creating schema: %w", err)
	}
	return &Store{db: db}, nil
}

// DB returns the underlying *sql.DB.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Run executes a compiled PQL statement and decodes its rows (spec.md §4.6).
// For a count compilation it instead scans the single COUNT(*) result into
// count and returns a nil result slice.
func (s *Store) Run(ctx context.Context, compiled pql.Compiled, isCount bool) ([]pql.SearchResult, int64, error) {
	rows, err := s.db.QueryContext(ctx, compiled.SQL, compiled.Params...)
	if err != nil {
		return nil, 0, fmt.Errorf("store: executing query: %w", err)
	}
	defer rows.Close()

	if isCount {
		var count int64
		if rows.Next() {
			if err := rows.Scan(&count); err != nil {
				return nil, 0, fmt.Errorf("store: scanning count: %w", err)
			}
		}
		return nil, count, rows.Err()
	}

	results, err := pql.DecodeRows(rows, compiled.Extras)
	if err != nil {
		return nil, 0, err
	}
	return results, int64(len(results)), nil
}

// schemaSQL creates the tables and FTS5 virtual tables named by the Schema
// Binding (internal/pql/schema.go), mirroring the physical layout the
// original program's SQLite database uses.
const schemaSQL = `
CREATE TABLE IF NOT EXISTS items (
	id INTEGER PRIMARY KEY,
	md5 TEXT,
	type TEXT,
	size INTEGER,
	width INTEGER,
	height INTEGER,
	duration REAL,
	time_added TEXT,
	audio_tracks INTEGER,
	video_tracks INTEGER,
	subtitle_tracks INTEGER
);

CREATE TABLE IF NOT EXISTS files (
	id INTEGER PRIMARY KEY,
	item_id INTEGER NOT NULL REFERENCES items(id),
	sha256 TEXT,
	path TEXT NOT NULL,
	filename TEXT,
	last_modified TEXT
);

CREATE TABLE IF NOT EXISTS setters (
	id INTEGER PRIMARY KEY,
	name TEXT NOT NULL UNIQUE
);

CREATE TABLE IF NOT EXISTS item_data (
	id INTEGER PRIMARY KEY,
	item_id INTEGER NOT NULL REFERENCES items(id),
	setter_id INTEGER NOT NULL REFERENCES setters(id),
	job_id INTEGER,
	idx INTEGER,
	source_id INTEGER
);

CREATE TABLE IF NOT EXISTS extracted_text (
	id INTEGER PRIMARY KEY REFERENCES item_data(id),
	language TEXT,
	language_confidence REAL,
	text TEXT,
	confidence REAL,
	text_length INTEGER
);

CREATE TABLE IF NOT EXISTS tags (
	id INTEGER PRIMARY KEY,
	namespace TEXT,
	name TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS tag_items (
	item_id INTEGER NOT NULL REFERENCES items(id),
	tag_id INTEGER NOT NULL REFERENCES tags(id),
	setter_id INTEGER NOT NULL REFERENCES setters(id),
	confidence REAL
);

CREATE TABLE IF NOT EXISTS bookmarks (
	file_id INTEGER NOT NULL REFERENCES files(id),
	sha256 TEXT NOT NULL,
	namespace TEXT,
	time_added TEXT
);

CREATE VIRTUAL TABLE IF NOT EXISTS files_path_fts USING fts5(
	filename, path, content='files', content_rowid='id'
);

CREATE VIRTUAL TABLE IF NOT EXISTS extracted_text_fts USING fts5(
	text, content='extracted_text', content_rowid='id'
);
`
