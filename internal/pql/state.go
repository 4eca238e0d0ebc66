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

import "fmt"

// CTE is a handle to one generated common table expression: its name, the
// SQL text of its body (already fully parameterized), and the standard
// columns it is known to expose. Every filter's output CTE carries forward
// the standard columns of its input context (spec.md §3, CTE Handle
// invariant).
type CTE struct {
	Name string
	Body string

	// HasOrderRank is true when this CTE exposes an order_rank column.
	HasOrderRank bool
	// HasSnippet is true when this CTE exposes a snippet column (MatchText
	// with select_snippet_as set, outside a count compilation).
	HasSnippet bool
}

// OrderByFilter records one ranking filter's contribution to the final
// ORDER BY clause (spec.md §3). Invariant: CTE must expose a column named
// order_rank.
type OrderByFilter struct {
	CTE       CTE
	Direction Direction
	Priority  int
}

// ExtraColumn records one filter's contribution to the out-of-band extras
// map (spec.md §3/§4.6).
type ExtraColumn struct {
	CTE      CTE
	Column   string
	Alias    string
	NeedJoin bool
}

// QueryState is the mutable accumulator threaded by pointer through one
// compilation's recursive tree walk (spec.md §3, §9). It must not be shared
// across compilations or across goroutines; each call to Compile owns a
// fresh QueryState (spec.md §5).
type QueryState struct {
	Schema *Schema

	cteCounter int
	ctes       []CTE
	orderList  []OrderByFilter
	extras     []ExtraColumn

	IsCountQuery bool
	IsTextQuery  bool

	params []any
}

// NewQueryState creates a fresh, per-compilation QueryState bound to schema.
func NewQueryState(schema *Schema, isCountQuery, isTextQuery bool) *QueryState {
	return &QueryState{
		Schema:       schema,
		IsCountQuery: isCountQuery,
		IsTextQuery:  isTextQuery,
	}
}

// NextCTEName synthesizes a fresh, unique CTE name of the form
// n_<counter>_<className> and advances the counter. CTE names within one
// compilation are never reused (spec.md §3, invariant 1).
func (s *QueryState) NextCTEName(className string) string {
	name := fmt.Sprintf("n_%d_%s", s.cteCounter, className)
	s.cteCounter++
	return name
}

// AppendCTE records a freshly-built CTE onto the state's ordered CTE list.
// The Final Assembler attaches every recorded CTE, in this creation order,
// to the root query (spec.md §4.5 step 2).
func (s *QueryState) AppendCTE(c CTE) {
	s.ctes = append(s.ctes, c)
}

// CTEs returns every CTE recorded so far, in creation order.
func (s *QueryState) CTEs() []CTE {
	return s.ctes
}

// AppendOrder records a SortableFilter's contribution to the ORDER BY
// clause (spec.md §4.2 build_query contract, step 4).
func (s *QueryState) AppendOrder(o OrderByFilter) {
	s.orderList = append(s.orderList, o)
}

// OrderList returns every recorded OrderByFilter, in tree-walk order (i.e.
// the order filters were compiled, not yet sorted by priority).
func (s *QueryState) OrderList() []OrderByFilter {
	return s.orderList
}

// AppendExtra records a filter's contribution to the extras projection
// (spec.md §4.2 build_query contract, step 5).
func (s *QueryState) AppendExtra(e ExtraColumn) {
	s.extras = append(s.extras, e)
}

// Extras returns every recorded ExtraColumn, in insertion order — the
// order the Result Decoder uses to map extra_0..extra_{n-1} back to
// aliases (spec.md §4.6).
func (s *QueryState) Extras() []ExtraColumn {
	return s.extras
}

// AddParam appends v to the statement's positional parameter vector and
// returns the "?" placeholder to splice into the SQL text at exactly the
// point it is written — callers must call AddParam in the same left-to-
// right order the placeholders appear in the emitted text, since the
// driver binds parameters positionally (spec.md §6).
func (s *QueryState) AddParam(v any) string {
	s.params = append(s.params, v)
	return "?"
}

// Params returns the full positional parameter vector accumulated so far.
func (s *QueryState) Params() []any {
	return s.params
}

// StdCols returns the standard column list a CTE at this point in the
// compilation must project: file_id, item_id, and — in text mode —
// text_id (spec.md §3, invariant 2). In a count compilation every filter's
// wrap_query strips projections down to these standard columns (spec.md
// §4.5 step 5). Text mode keeps text_id there too: text-mode filters such
// as MatchText join on the context's text_id, and the count is one row
// per extracted-text fragment.
func (s *QueryState) StdCols() []string {
	if s.IsTextQuery {
		return []string{"file_id", "item_id", "text_id"}
	}
	return []string{"file_id", "item_id"}
}
