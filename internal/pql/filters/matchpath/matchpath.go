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

// Package matchpath implements the match_path filter: an FTS5 full-text
// match against either a file's filename or its path, rankable by FTS5 bm25
// rank.
package matchpath

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/reasv-labs/panoptikon-pql/internal/pql"
)

func init() {
	pql.RegisterFilterKind("match_path", decode)
}

// Filter matches files whose filename or path (per Target, the complete
// domain for this field — there is no "both" mode) satisfies an FTS5 MATCH
// expression. An empty Query validates false and is elided.
type Filter struct {
	pql.Sortable

	Query    string `json:"query"`
	Target   string `json:"target"` // "filename" or "path".
	RawMatch bool   `json:"raw_fts5_match,omitempty"`
}

func decode(data []byte) (pql.Filter, error) {
	var f Filter
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("match_path: %w", err)
	}
	return &f, nil
}

func (f *Filter) Kind() string { return "match_path" }

// Validate requires Target to be exactly "filename" or "path": FTS5's
// MATCH operator takes a single column reference, not an arbitrary
// expression, so there is no way to match "both" in one predicate.
func (f *Filter) Validate(schema *pql.Schema) (bool, error) {
	if f.Target != "filename" && f.Target != "path" {
		return false, &pql.ValidationError{Filter: "match_path", Reason: fmt.Sprintf("target must be \"filename\" or \"path\", got %q", f.Target)}
	}
	return strings.TrimSpace(f.Query) != "", nil
}

func (f *Filter) BuildQuery(ctx pql.CTE, state *pql.QueryState) (pql.CTE, error) {
	matchQuery := f.Query
	if !f.RawMatch {
		matchQuery = fts5QuoteEach(f.Query)
	}
	matchCol := pql.TableFilesPathFTS + "." + f.Target

	matchParam := state.AddParam(matchQuery)
	rank := f.DeriveRankColumn("bm25(" + pql.TableFilesPathFTS + ")")

	body := fmt.Sprintf(
		"SELECT %s, %s FROM %s JOIN %s ON %s.rowid = %s.file_id WHERE %s MATCH %s",
		pql.SelectStdCols(ctx.Name, state.StdCols()), rank,
		ctx.Name, pql.TableFilesPathFTS, pql.TableFilesPathFTS, ctx.Name,
		matchCol, matchParam,
	)
	return f.Sortable.WrapQuery(state, "MatchPath", body), nil
}

// fts5QuoteEach wraps each whitespace-separated token of q in double quotes
// so the caller's query text is matched literally rather than parsed as
// FTS5 query syntax (spec.md §4.2, match_path's non-raw mode).
func fts5QuoteEach(q string) string {
	tokens := strings.Fields(q)
	quoted := make([]string, len(tokens))
	for i, t := range tokens {
		quoted[i] = `"` + strings.ReplaceAll(t, `"`, `""`) + `"`
	}
	return strings.Join(quoted, " ")
}
