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
	"fmt"
	"strings"
)

// fileItemColumns and textColumns make up the column list projected by a
// non-count compilation: file/item columns always, text columns only in
// text mode (spec.md §3, SearchResult).
var fileItemColumns = []string{
	"file_id", "item_id", "sha256", "path", "filename", "last_modified",
	"md5", "type", "size", "width", "height", "duration", "time_added",
	"audio_tracks", "video_tracks", "subtitle_tracks",
}

var textColumns = []string{
	"text_id", "language", "language_confidence", "text", "confidence",
	"text_length", "job_id", "setter_id", "setter_name", "text_index", "source_id",
}

// buildRootSelect builds the base join that produces one row per
// file (or per item, or per extracted-text fragment, depending on
// entity), before any filter CTE narrows it (spec.md §4.5 step 1).
func buildRootSelect(schema *Schema, entity Entity, stdCols []string) string {
	filesID := schema.MustColumnFor("file_id").Qualified()
	itemsJoinCol := schema.MustColumnFor("item_id")

	switch entity {
	case EntityText:
		cols := map[string]string{
			"file_id": filesID,
			"item_id": itemsJoinCol.Qualified(),
			"text_id": schema.MustColumnFor("text_id").Qualified(),
		}
		sel := make([]string, len(stdCols))
		for i, c := range stdCols {
			sel[i] = cols[c] + " AS " + c
		}
		return fmt.Sprintf(
			"SELECT %s FROM %s JOIN %s ON %s = %s.id "+
				"JOIN %s ON %s.item_id = %s.id "+
				"JOIN %s ON %s.id = %s.id",
			strings.Join(sel, ", "),
			TableFiles, TableItems, itemsJoinCol.Qualified(), TableItems,
			TableItemData, TableItemData, TableItems,
			TableExtractedText, TableItemData, TableExtractedText,
		)
	case EntityItems:
		return fmt.Sprintf(
			"SELECT MIN(%s) AS file_id, %s AS item_id FROM %s JOIN %s ON %s = %s.id GROUP BY %s",
			filesID, itemsJoinCol.Qualified(), TableFiles, TableItems,
			itemsJoinCol.Qualified(), TableItems, itemsJoinCol.Qualified(),
		)
	default: // EntityFiles
		return fmt.Sprintf(
			"SELECT %s AS file_id, %s AS item_id FROM %s JOIN %s ON %s = %s.id",
			filesID, itemsJoinCol.Qualified(), TableFiles, TableItems,
			itemsJoinCol.Qualified(), TableItems,
		)
	}
}

// assembled is the Final Assembler's output before SQL-string rendering.
type assembled struct {
	sql    string
	params []any
}

// assemble implements spec.md §4.5: it attaches every generated CTE to the
// root query, joins the final narrowed CTE back to the base tables for
// projection, applies ordering and paging (or collapses to COUNT(*) in a
// count compilation).
func assemble(schema *Schema, state *QueryState, q SearchQuery, finalCTEName string, hadQuery bool) (assembled, error) {
	var b strings.Builder

	rootSelect := buildRootSelect(schema, q.Entity, state.StdCols())

	if hadQuery {
		b.WriteString("WITH root_files AS (\n")
		b.WriteString(rootSelect)
		b.WriteString("\n)")
		for _, cte := range state.CTEs() {
			b.WriteString(",\n")
			b.WriteString(cte.Name)
			b.WriteString(" AS (\n")
			b.WriteString(cte.Body)
			b.WriteString("\n)")
		}
		b.WriteString("\n")
	}

	// fromExpr is what every downstream clause joins against: the named CTE
	// when the tree produced one, or an inline aliased subquery over the
	// root join otherwise. Either way it is reachable under finalCTEName.
	fromExpr := finalCTEName
	if !hadQuery {
		fromExpr = "(" + rootSelect + ") AS " + finalCTEName
	}

	if q.Count {
		b.WriteString(fmt.Sprintf("SELECT COUNT(*) FROM %s", fromExpr))
		return assembled{sql: b.String(), params: state.Params()}, nil
	}

	joinKeyCol := "file_id"
	if state.IsTextQuery {
		joinKeyCol = "text_id"
	}

	// Project result columns by joining the final narrowed CTE back to
	// the base tables (spec.md §4.5 step 3).
	cols := append([]string{}, fileItemColumns...)
	if state.IsTextQuery {
		cols = append(cols, textColumns...)
	}
	projected := make([]string, 0, len(cols)+len(state.Extras()))
	for _, c := range cols {
		projected = append(projected, schema.MustColumnFor(c).Qualified()+" AS "+c)
	}

	plan := buildOrderingPlan(state.OrderList(), finalCTEName, joinKeyCol)

	// Extras whose order_rank CTE is already reached by the ordering plan's
	// join (NeedJoin == false, i.e. the filter was also order_by) reuse that
	// join's alias instead of opening a second join to the same CTE.
	orderAlias := make(map[string]string, len(plan.aliasByCTE))
	for k, v := range plan.aliasByCTE {
		orderAlias[k] = v
	}

	extraJoins := make([]string, 0, len(state.Extras()))
	for i, ex := range state.Extras() {
		if ex.NeedJoin {
			alias := fmt.Sprintf("extra_join_%d_%s", i, ex.CTE.Name)
			extraJoins = append(extraJoins, fmt.Sprintf(
				"LEFT JOIN %s AS %s ON %s.%s = %s.%s",
				ex.CTE.Name, alias, finalCTEName, joinKeyCol, alias, joinKeyCol,
			))
			projected = append(projected, fmt.Sprintf("%s.%s AS extra_%d", alias, ex.Column, i))
		} else {
			alias, ok := orderAlias[ex.CTE.Name]
			if !ok {
				// Defensive fallback: the CTE wasn't reached by the
				// ordering plan after all, so join it ourselves.
				alias = fmt.Sprintf("extra_join_%d_%s", i, ex.CTE.Name)
				extraJoins = append(extraJoins, fmt.Sprintf(
					"LEFT JOIN %s AS %s ON %s.%s = %s.%s",
					ex.CTE.Name, alias, finalCTEName, joinKeyCol, alias, joinKeyCol,
				))
			}
			projected = append(projected, fmt.Sprintf("%s.%s AS extra_%d", alias, ex.Column, i))
		}
	}

	b.WriteString(fmt.Sprintf("SELECT %s\nFROM %s\n", strings.Join(projected, ", "), fromExpr))
	b.WriteString(fmt.Sprintf("JOIN %s ON %s = %s.file_id\n", TableFiles, schema.MustColumnFor("file_id").Qualified(), finalCTEName))
	b.WriteString(fmt.Sprintf("JOIN %s ON %s.item_id = %s.id\n", TableItems, finalCTEName, TableItems))
	if state.IsTextQuery {
		b.WriteString(fmt.Sprintf("JOIN %s ON %s.text_id = %s.id\n", TableExtractedText, finalCTEName, TableExtractedText))
		b.WriteString(fmt.Sprintf("JOIN %s ON %s.text_id = %s.id\n", TableItemData, finalCTEName, TableItemData))
		b.WriteString(fmt.Sprintf("JOIN %s ON %s.setter_id = %s.id\n", TableSetters, TableItemData, TableSetters))
	}
	for _, j := range extraJoins {
		b.WriteString(j)
		b.WriteString("\n")
	}

	for _, j := range plan.joins {
		b.WriteString(j)
		b.WriteString("\n")
	}

	var orderBy []string
	orderBy = append(orderBy, plan.orderBy...)

	col, dir := q.OrderArgs.ResolvedOrderBy()
	bound, err := schema.ColumnFor(col)
	if err != nil {
		return assembled{}, err
	}
	orderBy = append(orderBy, fmt.Sprintf("%s %s", bound.Qualified(), dir.SQL()))

	b.WriteString("ORDER BY ")
	b.WriteString(strings.Join(orderBy, ", "))
	b.WriteString("\n")

	page := q.OrderArgs.Page
	if page < 1 {
		page = 1
	}
	offset := (page - 1) * q.OrderArgs.PageSize
	b.WriteString(fmt.Sprintf("LIMIT %s OFFSET %s", state.AddParam(q.OrderArgs.PageSize), state.AddParam(offset)))

	return assembled{sql: b.String(), params: state.Params()}, nil
}
