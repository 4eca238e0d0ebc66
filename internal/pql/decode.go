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

package pql

import (
	"database/sql"
	"fmt"
)

// SearchResult is one row of a non-count compilation's result set (spec.md
// §4.6). The text-mode-only columns are left invalid (Valid == false)
// outside text mode. Extras holds
// every filter-contributed select_as column, keyed by the alias the filter
// was asked to project it under.
type SearchResult struct {
	FileID       int64
	ItemID       int64
	Path         string
	SHA256       string
	Filename     string
	LastModified string

	MD5            string
	Type           string
	Size           int64
	Width          sql.NullInt64
	Height         sql.NullInt64
	Duration       sql.NullFloat64
	TimeAdded      string
	AudioTracks    sql.NullInt64
	VideoTracks    sql.NullInt64
	SubtitleTracks sql.NullInt64

	TextID             sql.NullInt64
	Language           sql.NullString
	LanguageConfidence sql.NullFloat64
	Text               sql.NullString
	Confidence         sql.NullFloat64
	TextLength         sql.NullInt64
	JobID              sql.NullInt64
	SetterID           sql.NullInt64
	SetterName         sql.NullString
	TextIndex          sql.NullInt64
	SourceID           sql.NullInt64

	Extras map[string]any
}

// RowScanner is the subset of *sql.Rows the Result Decoder needs; it lets
// tests exercise DecodeRows against a fake without opening a real database.
type RowScanner interface {
	Columns() ([]string, error)
	Next() bool
	Scan(dest ...any) error
	Err() error
}

// DecodeRows consumes every remaining row of rows and maps it to a
// SearchResult, resolving the extra_0..extra_{n-1} columns back to the
// aliases recorded in extras, in the same order they were appended during
// compilation (spec.md §4.6). Which struct fields get populated follows
// entirely from which columns rows actually reports, so text-mode columns
// simply aren't present outside text mode.
func DecodeRows(rows RowScanner, extras []ExtraColumn) ([]SearchResult, error) {
	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("pql: reading result columns: %w", err)
	}

	var results []SearchResult
	for rows.Next() {
		res, err := decodeOneRow(cols, rows, extras)
		if err != nil {
			return nil, err
		}
		results = append(results, res)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("pql: iterating result rows: %w", err)
	}
	return results, nil
}

func decodeOneRow(cols []string, rows RowScanner, extras []ExtraColumn) (SearchResult, error) {
	var res SearchResult
	dest := make([]any, len(cols))
	extraVals := make([]any, len(extras))

	for i, c := range cols {
		switch c {
		case "file_id":
			dest[i] = &res.FileID
		case "item_id":
			dest[i] = &res.ItemID
		case "path":
			dest[i] = &res.Path
		case "sha256":
			dest[i] = &res.SHA256
		case "filename":
			dest[i] = &res.Filename
		case "last_modified":
			dest[i] = &res.LastModified
		case "md5":
			dest[i] = &res.MD5
		case "type":
			dest[i] = &res.Type
		case "size":
			dest[i] = &res.Size
		case "width":
			dest[i] = &res.Width
		case "height":
			dest[i] = &res.Height
		case "duration":
			dest[i] = &res.Duration
		case "time_added":
			dest[i] = &res.TimeAdded
		case "audio_tracks":
			dest[i] = &res.AudioTracks
		case "video_tracks":
			dest[i] = &res.VideoTracks
		case "subtitle_tracks":
			dest[i] = &res.SubtitleTracks
		case "text_id":
			dest[i] = &res.TextID
		case "language":
			dest[i] = &res.Language
		case "language_confidence":
			dest[i] = &res.LanguageConfidence
		case "text":
			dest[i] = &res.Text
		case "confidence":
			dest[i] = &res.Confidence
		case "text_length":
			dest[i] = &res.TextLength
		case "job_id":
			dest[i] = &res.JobID
		case "setter_id":
			dest[i] = &res.SetterID
		case "setter_name":
			dest[i] = &res.SetterName
		case "text_index":
			dest[i] = &res.TextIndex
		case "source_id":
			dest[i] = &res.SourceID
		default:
			idx, ok := extraIndex(c)
			if !ok {
				return SearchResult{}, fmt.Errorf("pql: unexpected result column %q", c)
			}
			dest[i] = &extraVals[idx]
		}
	}

	if err := rows.Scan(dest...); err != nil {
		return SearchResult{}, fmt.Errorf("pql: scanning result row: %w", err)
	}

	if len(extras) > 0 {
		res.Extras = make(map[string]any, len(extras))
		for i, ex := range extras {
			res.Extras[ex.Alias] = extraVals[i]
		}
	}
	return res, nil
}

// extraIndex parses an "extra_<n>" column name back to its index in the
// extras slice (spec.md §4.6).
func extraIndex(col string) (int, bool) {
	const prefix = "extra_"
	if len(col) <= len(prefix) || col[:len(prefix)] != prefix {
		return 0, false
	}
	var n int
	if _, err := fmt.Sscanf(col[len(prefix):], "%d", &n); err != nil {
		return 0, false
	}
	return n, true
}
