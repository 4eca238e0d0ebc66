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

// Package matchtext implements the match_text filter: an FTS5 full-text
// match against extracted text, scoped by setter/language/confidence/length
// constraints, optionally rankable by FTS5 bm25 rank and optionally
// emitting a highlighted snippet.
package matchtext

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/reasv-labs/panoptikon-pql/internal/pql"
)

func init() {
	pql.RegisterFilterKind("match_text", decode)
}

// Filter matches extracted-text rows whose text satisfies an FTS5 MATCH
// expression, restricted by the scope fields below (spec.md §4.2,
// grounded on the original's sortable/extracted_text.py). An empty Query
// validates false and is elided, unless FilterOnly is set, in which case
// the MATCH itself is skipped and only the scope fields apply.
type Filter struct {
	pql.Sortable

	Query                string   `json:"query"`
	Targets              []string `json:"targets,omitempty"`
	Languages            []string `json:"languages,omitempty"`
	LanguageMinConfidence *float64 `json:"language_min_confidence,omitempty"`
	MinConfidence        *float64 `json:"min_confidence,omitempty"`
	MinLength            *int     `json:"min_length,omitempty"`
	MaxLength            *int     `json:"max_length,omitempty"`
	FilterOnly           bool     `json:"filter_only,omitempty"`
	SelectSnippetAs      *string  `json:"select_snippet_as,omitempty"`
	RawMatch             bool     `json:"raw_fts5_match,omitempty"`
}

func decode(data []byte) (pql.Filter, error) {
	var f Filter
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("match_text: %w", err)
	}
	return &f, nil
}

func (f *Filter) Kind() string { return "match_text" }

// Validate requires a non-blank Query unless FilterOnly is set, in which
// case the match itself is skipped entirely and Query is ignored (matching
// the original's validate(), which also clears select_snippet_as in that
// case since there is no match to snippet). MinConfidence and
// LanguageMinConfidence must fall within [0, 1], the same bound the
// original enforces via its Pydantic ge=0/le=1 field constraints.
func (f *Filter) Validate(schema *pql.Schema) (bool, error) {
	if f.MinConfidence != nil && (*f.MinConfidence < 0 || *f.MinConfidence > 1) {
		return false, &pql.ValidationError{Filter: "match_text", Reason: fmt.Sprintf("min_confidence must be between 0 and 1, got %v", *f.MinConfidence)}
	}
	if f.LanguageMinConfidence != nil && (*f.LanguageMinConfidence < 0 || *f.LanguageMinConfidence > 1) {
		return false, &pql.ValidationError{Filter: "match_text", Reason: fmt.Sprintf("language_min_confidence must be between 0 and 1, got %v", *f.LanguageMinConfidence)}
	}
	if !f.FilterOnly && strings.TrimSpace(f.Query) == "" {
		return false, nil
	}
	if f.FilterOnly {
		f.SelectSnippetAs = nil
	}
	return true, nil
}

// BuildQuery reaches extracted_text through item_data, the join table
// between items and extracted-text rows, the way the original's
// build_query does for each of its two branches (spec.md §4.2):
//   - in item/file mode the context has no text_id, so item_data is joined
//     by item_id and the (possibly many) matching text rows per item are
//     collapsed back to one row per file via GROUP BY + MIN(rank);
//   - in text mode the context already carries one row per extracted-text
//     fragment (context.text_id), so item_data/extracted_text/fts all join
//     directly off that id and no grouping is needed.
//
// FilterOnly skips the MATCH predicate and constant-ranks matches.
func (f *Filter) BuildQuery(ctx pql.CTE, state *pql.QueryState) (pql.CTE, error) {
	textIDCol := state.Schema.MustColumnFor("text_id")
	languageCol := state.Schema.MustColumnFor("language")
	langConfCol := state.Schema.MustColumnFor("language_confidence")
	confCol := state.Schema.MustColumnFor("confidence")
	lengthCol := state.Schema.MustColumnFor("text_length")
	setterCol := state.Schema.MustColumnFor("setter_name")

	var where []string
	if f.FilterOnly {
		where = append(where, "1 = 1")
	} else {
		matchQuery := f.Query
		if !f.RawMatch {
			matchQuery = fts5QuoteEach(f.Query)
		}
		where = append(where, fmt.Sprintf("%s MATCH %s", pql.TableExtractedTextFTS, state.AddParam(matchQuery)))
	}
	if len(f.Languages) > 0 {
		placeholders := make([]string, len(f.Languages))
		for i, l := range f.Languages {
			placeholders[i] = state.AddParam(l)
		}
		where = append(where, fmt.Sprintf("%s IN (%s)", languageCol.Qualified(), pql.JoinColumns(placeholders)))
	}
	if f.LanguageMinConfidence != nil {
		where = append(where, fmt.Sprintf("%s >= %s", langConfCol.Qualified(), state.AddParam(*f.LanguageMinConfidence)))
	}
	if f.MinConfidence != nil {
		where = append(where, fmt.Sprintf("%s >= %s", confCol.Qualified(), state.AddParam(*f.MinConfidence)))
	}
	if f.MinLength != nil {
		where = append(where, fmt.Sprintf("%s >= %s", lengthCol.Qualified(), state.AddParam(*f.MinLength)))
	}
	if f.MaxLength != nil {
		where = append(where, fmt.Sprintf("%s <= %s", lengthCol.Qualified(), state.AddParam(*f.MaxLength)))
	}
	if len(f.Targets) > 0 {
		placeholders := make([]string, len(f.Targets))
		for i, t := range f.Targets {
			placeholders[i] = state.AddParam(t)
		}
		where = append(where, fmt.Sprintf("%s IN (%s)", setterCol.Qualified(), pql.JoinColumns(placeholders)))
	}

	rankExpr := "bm25(" + pql.TableExtractedTextFTS + ")"
	switch {
	case f.FilterOnly:
		rankExpr = "1"
	case !state.IsTextQuery:
		rankExpr = "MIN(" + rankExpr + ")"
	}
	rank := f.DeriveRankColumn(rankExpr)

	selectExtra := ""
	if !state.IsCountQuery && f.SelectSnippetAs != nil {
		selectExtra = fmt.Sprintf(
			", snippet(%s, 0, '<b>', '</b>', '...', 20) AS snippet",
			pql.TableExtractedTextFTS,
		)
	}

	var from, groupBy string
	if state.IsTextQuery {
		from = fmt.Sprintf(
			"%s JOIN %s ON %s.id = %s.text_id "+
				"JOIN %s ON %s.id = %s.setter_id "+
				"JOIN %s ON %s.text_id = %s.id "+
				"JOIN %s ON %s.rowid = %s.text_id",
			ctx.Name,
			pql.TableItemData, pql.TableItemData, ctx.Name,
			pql.TableSetters, pql.TableSetters, pql.TableItemData,
			textIDCol.Table, ctx.Name, textIDCol.Table,
			pql.TableExtractedTextFTS, pql.TableExtractedTextFTS, ctx.Name,
		)
	} else {
		from = fmt.Sprintf(
			"%s JOIN %s ON %s.item_id = %s.item_id "+
				"JOIN %s ON %s.id = %s.setter_id "+
				"JOIN %s ON %s.id = %s.id "+
				"JOIN %s ON %s.rowid = %s.id",
			ctx.Name,
			pql.TableItemData, pql.TableItemData, ctx.Name,
			pql.TableSetters, pql.TableSetters, pql.TableItemData,
			textIDCol.Table, pql.TableItemData, textIDCol.Table,
			pql.TableExtractedTextFTS, pql.TableExtractedTextFTS, textIDCol.Table,
		)
		groupBy = " GROUP BY " + ctx.Name + ".file_id"
	}

	body := fmt.Sprintf(
		"SELECT %s, %s%s FROM %s WHERE %s%s",
		pql.SelectStdCols(ctx.Name, state.StdCols()), rank, selectExtra,
		from, pql.JoinAnd(where), groupBy,
	)

	cte := f.Sortable.WrapQuery(state, "MatchText", body)
	if !state.IsCountQuery && f.SelectSnippetAs != nil {
		cte.HasSnippet = true
		state.AppendExtra(pql.ExtraColumn{
			CTE:      cte,
			Column:   "snippet",
			Alias:    *f.SelectSnippetAs,
			NeedJoin: !f.OrderBy,
		})
	}
	return cte, nil
}

// fts5QuoteEach wraps each whitespace-separated token of q in double quotes
// so the caller's query text is matched literally rather than parsed as
// FTS5 query syntax.
func fts5QuoteEach(q string) string {
	tokens := strings.Fields(q)
	quoted := make([]string, len(tokens))
	for i, t := range tokens {
		quoted[i] = `"` + strings.ReplaceAll(t, `"`, `""`) + `"`
	}
	return strings.Join(quoted, " ")
}
