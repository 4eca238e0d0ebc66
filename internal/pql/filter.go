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
	"encoding/json"
	"fmt"
)

// Filter is a leaf node in the query tree that narrows or ranks rows
// (spec.md §4.2, the GLOSSARY's "Filter"). Concrete filters live in
// internal/pql/filters and register themselves with RegisterFilterKind
// from an init() function, the same way the teacher's tool packages call
// tools.Register from their own init()s.
type Filter interface {
	// Kind returns the filter's catalog name, used both for JSON decoding
	// and as the <ClassName> component of its generated CTE names.
	Kind() string

	// Validate pre-processes the filter's arguments and normalizes them in
	// place. It must return true if the filter should be included in the
	// compiled query, false if it is a no-op and should be silently
	// elided (spec.md §4.2, §7 "Elision"). It must be called, and must
	// return true, before BuildQuery; calling BuildQuery first is a
	// programmer error, which BuildQuery does not detect: it builds the
	// CTE from the arguments as they are and returns no error for it. A
	// non-nil error means the filter's arguments are invalid
	// (ValidationError).
	Validate(schema *Schema) (bool, error)

	// BuildQuery receives the upstream context CTE and the shared
	// QueryState, and returns a new CTE that narrows or ranks the
	// context's rows (spec.md §4.2, "build_query").
	BuildQuery(ctx CTE, state *QueryState) (CTE, error)
}

// FilterFactory decodes one filter's JSON arguments into a fresh, typed
// Filter value.
type FilterFactory func(data []byte) (Filter, error)

var filterRegistry = make(map[string]FilterFactory)

// RegisterFilterKind associates a kind string with a factory that decodes
// that filter's JSON body. Returns false (and does not overwrite) if kind
// is already registered, mirroring tools.Register in the teacher.
func RegisterFilterKind(kind string, factory FilterFactory) bool {
	if _, exists := filterRegistry[kind]; exists {
		return false
	}
	filterRegistry[kind] = factory
	return true
}

// filterEnvelope is the wire shape of a filter node: {"kind": "...", ...
// filter-specific fields}.
type filterEnvelope struct {
	Kind string `json:"kind"`
}

// DecodeFilter looks up the registered factory for the kind named in data
// and decodes the filter's arguments with it.
func DecodeFilter(data []byte) (Filter, error) {
	var env filterEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("pql: decoding filter envelope: %w", err)
	}
	factory, ok := filterRegistry[env.Kind]
	if !ok {
		return nil, &StructureError{Reason: fmt.Sprintf("unknown filter kind %q", env.Kind)}
	}
	f, err := factory(data)
	if err != nil {
		return nil, fmt.Errorf("pql: decoding filter %q: %w", env.Kind, err)
	}
	return f, nil
}

// Sortable holds the four additional knobs a SortableFilter offers
// (spec.md §4.2 "SortableFilter extensions"). Filter implementations that
// expose an order_rank column embed this struct and call its helper
// methods from their own BuildQuery.
type Sortable struct {
	OrderBy       bool      `json:"order_by"`
	Direction     Direction `json:"direction"`
	Priority      int       `json:"priority"`
	RowN          bool      `json:"row_n"`
	RowNDirection Direction `json:"row_n_direction"`
	GT            any       `json:"gt,omitempty"`
	LT            any       `json:"lt,omitempty"`
	SelectAs      *string   `json:"select_as,omitempty"`
}

// DeriveRankColumn applies the row_number() wrapper to rankExpr when row_n
// is set and the filter is actually going to be ordered or selected by
// (spec.md §4.2 "derive_rank_column"). The result is always aliased to
// order_rank.
func (s Sortable) DeriveRankColumn(rankExpr string) string {
	if s.RowN && (s.OrderBy || s.SelectAs != nil) {
		dir := s.RowNDirection
		if dir == "" {
			dir = Asc
		}
		rankExpr = fmt.Sprintf("ROW_NUMBER() OVER (ORDER BY %s %s)", rankExpr, dir.SQL())
	}
	return rankExpr + " AS order_rank"
}

// WrapQuery implements the SortableFilter half of the build_query contract
// (spec.md §4.2 items 2-5): it finishes a filter's SELECT body into a
// named CTE, applies cursor bounds (gt/lt, ignored in count mode), and
// registers the filter's OrderByFilter/ExtraColumn entries on state.
//
// innerSelect must be a complete "SELECT ... FROM ... [WHERE ...] [GROUP
// BY ...]" statement whose column list is std-cols followed by an
// "order_rank" column (from DeriveRankColumn) and, optionally, further
// extra columns (e.g. "snippet").
func (s Sortable) WrapQuery(state *QueryState, className string, innerSelect string) CTE {
	body := innerSelect
	if state.IsCountQuery {
		cols := state.StdCols()
		body = fmt.Sprintf("SELECT %s FROM (%s) AS wrapped", joinColumns(cols), body)
	} else if s.GT != nil || s.LT != nil {
		var where []string
		if s.GT != nil {
			where = append(where, fmt.Sprintf("order_rank > %s", state.AddParam(s.GT)))
		}
		if s.LT != nil {
			where = append(where, fmt.Sprintf("order_rank < %s", state.AddParam(s.LT)))
		}
		body = fmt.Sprintf("SELECT * FROM (%s) AS wrapped WHERE %s", innerSelect, joinAnd(where))
	}

	name := state.NextCTEName(className)
	cte := CTE{Name: name, Body: body, HasOrderRank: !state.IsCountQuery}

	if !state.IsCountQuery && s.SelectAs != nil {
		state.AppendExtra(ExtraColumn{
			CTE:      cte,
			Column:   "order_rank",
			Alias:    *s.SelectAs,
			NeedJoin: !s.OrderBy,
		})
	}
	if !state.IsCountQuery && s.OrderBy {
		dir := s.Direction
		if dir == "" {
			dir = Asc
		}
		state.AppendOrder(OrderByFilter{CTE: cte, Direction: dir, Priority: s.Priority})
	}
	state.AppendCTE(cte)
	return cte
}

// WrapFilterQuery finishes a non-sortable filter's SELECT body into a
// named CTE (spec.md §4.2 "build_query" items 1/3, the base Filter
// contract without the SortableFilter extensions). In a count
// compilation, projections are stripped to the standard columns only
// (spec.md §4.5 step 5).
func WrapFilterQuery(state *QueryState, className string, innerSelect string) CTE {
	body := innerSelect
	if state.IsCountQuery {
		cols := state.StdCols()
		body = fmt.Sprintf("SELECT %s FROM (%s) AS wrapped", joinColumns(cols), body)
	}
	name := state.NextCTEName(className)
	cte := CTE{Name: name, Body: body}
	state.AppendCTE(cte)
	return cte
}
