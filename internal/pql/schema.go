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

// Package pql implements the Panoptikon Query Language compiler: it
// translates a SearchQuery filter tree into a single parameterized SQL
// statement built from chained common table expressions.
package pql

import "fmt"

// Table names the physical tables and FTS5 virtual tables the schema
// binding is allowed to reference. Filters never hardcode these strings;
// they go through Schema instead.
const (
	TableFiles            = "files"
	TableItems            = "items"
	TableExtractedText    = "extracted_text"
	TableExtractedTextFTS = "extracted_text_fts"
	TableFilesPathFTS     = "files_path_fts"
	TableItemData         = "item_data"
	TableSetters          = "setters"
	TableBookmarks        = "bookmarks"
	TableTags             = "tags"
	TableTagItems         = "tag_items"
)

// BoundColumn is a logical column resolved to its physical table and
// column name.
type BoundColumn struct {
	Table  string
	Column string
}

// Qualified returns "table.column", the form used when building SQL text.
func (b BoundColumn) Qualified() string {
	return b.Table + "." + b.Column
}

// Schema is the process-wide registry of logical table/column handles used
// symbolically by filters. It is built once at startup (NewSchema) and is
// read-only afterward; it holds no mutable state and is safe to share
// across concurrently-running compilations.
type Schema struct {
	columns map[string]BoundColumn
}

// NewSchema builds the default Schema Binding described in spec.md §3/§4.1.
// The mapping from logical column name to physical (table, column) is
// defined once here; every filter and the final assembler reference only
// the logical names below.
func NewSchema() *Schema {
	return &Schema{
		columns: map[string]BoundColumn{
			// File columns.
			"file_id":       {TableFiles, "id"},
			"sha256":        {TableFiles, "sha256"},
			"path":          {TableFiles, "path"},
			"filename":      {TableFiles, "filename"},
			"last_modified": {TableFiles, "last_modified"},

			// Item columns.
			"item_id":         {TableFiles, "item_id"},
			"md5":             {TableItems, "md5"},
			"type":            {TableItems, "type"},
			"size":            {TableItems, "size"},
			"width":           {TableItems, "width"},
			"height":          {TableItems, "height"},
			"duration":        {TableItems, "duration"},
			"time_added":      {TableItems, "time_added"},
			"audio_tracks":    {TableItems, "audio_tracks"},
			"video_tracks":    {TableItems, "video_tracks"},
			"subtitle_tracks": {TableItems, "subtitle_tracks"},

			// Text columns. text_id is the extracted_text row id; job_id,
			// setter_id, text_index and source_id live on item_data, the
			// join table between items and extracted_text, the way the
			// original program's schema splits them (see DESIGN.md).
			"text_id":              {TableExtractedText, "id"},
			"language":             {TableExtractedText, "language"},
			"language_confidence":  {TableExtractedText, "language_confidence"},
			"text":                 {TableExtractedText, "text"},
			"confidence":           {TableExtractedText, "confidence"},
			"text_length":          {TableExtractedText, "text_length"},
			"job_id":               {TableItemData, "job_id"},
			"setter_id":            {TableItemData, "setter_id"},
			"setter_name":          {TableSetters, "name"},
			"text_index":           {TableItemData, "idx"},
			"source_id":            {TableItemData, "source_id"},
		},
	}
}

// ColumnFor resolves a logical column name to its physical binding. It is
// the public contract named in spec.md §4.1; an unknown name fails the
// compilation with InvalidColumn.
func (s *Schema) ColumnFor(name string) (BoundColumn, error) {
	col, ok := s.columns[name]
	if !ok {
		return BoundColumn{}, &InvalidColumnError{Column: name}
	}
	return col, nil
}

// MustColumnFor is like ColumnFor but panics on an unknown name. It is only
// safe to call with compile-time-constant names that are known to exist in
// the schema (e.g. "file_id", "item_id"), never with caller-supplied input.
func (s *Schema) MustColumnFor(name string) BoundColumn {
	col, err := s.ColumnFor(name)
	if err != nil {
		panic(fmt.Sprintf("pql: internal schema reference to unknown column %q", name))
	}
	return col
}

// IsTextColumn reports whether name is one of the TextColumns literal's
// members (spec.md §6). Compile uses it to reject an order_by text column
// outside text mode, where extracted_text is not joined.
func IsTextColumn(name string) bool {
	switch name {
	case "text_id", "language", "language_confidence", "text", "confidence",
		"text_length", "job_id", "setter_id", "setter_name", "text_index", "source_id":
		return true
	default:
		return false
	}
}

// IsKnownOrderColumn reports whether name is a member of FileColumns ∪
// ItemColumns ∪ TextColumns (spec.md §6).
func IsKnownOrderColumn(name string) bool {
	switch name {
	case "file_id", "sha256", "path", "filename", "last_modified",
		"item_id", "md5", "type", "size", "width", "height", "duration",
		"time_added", "audio_tracks", "video_tracks", "subtitle_tracks":
		return true
	default:
		return IsTextColumn(name)
	}
}
