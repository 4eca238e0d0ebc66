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

// compileNode walks one Node against ctx, returning the CTE it produced
// (or ctx unchanged), whether the node actually narrowed anything
// ("included"), and any fatal error. A false "included" propagates
// elision upward exactly as spec.md §7 describes.
//
// Operators themselves are never sortable: ranking produced by a filter
// buried under a NOT or inside an OR is discarded, because NOT/OR only
// ever re-project the standard columns and the OrderByFilters registered
// beneath them are dropped from state (spec.md §4.3).
func compileNode(node Node, ctx CTE, state *QueryState) (CTE, bool, error) {
	switch n := node.(type) {
	case FilterNode:
		return compileFilter(n.Filter, ctx, state)
	case AndOperator:
		return compileAnd(n, ctx, state)
	case OrOperator:
		mark := len(state.orderList)
		cte, included, err := compileOr(n, ctx, state)
		state.orderList = state.orderList[:mark]
		return cte, included, err
	case NotOperator:
		mark := len(state.orderList)
		cte, included, err := compileNot(n, ctx, state)
		state.orderList = state.orderList[:mark]
		return cte, included, err
	default:
		return CTE{}, false, &StructureError{Reason: fmt.Sprintf("unknown query element type %T", node)}
	}
}

func compileFilter(f Filter, ctx CTE, state *QueryState) (CTE, bool, error) {
	ok, err := f.Validate(state.Schema)
	if err != nil {
		return CTE{}, false, err
	}
	if !ok {
		// Elision: a no-op filter is silently removed.
		return ctx, false, nil
	}
	cte, err := f.BuildQuery(ctx, state)
	if err != nil {
		return CTE{}, false, err
	}
	return cte, true, nil
}

// compileAnd implements spec.md §4.3 AND(children): compile children
// left-to-right, each receiving the previous output as its new context.
// If every child elides, the whole AND reduces to its input context
// (short-circuit).
func compileAnd(op AndOperator, ctx CTE, state *QueryState) (CTE, bool, error) {
	current := ctx
	anyIncluded := false
	for _, child := range op.Children {
		next, included, err := compileNode(child, current, state)
		if err != nil {
			return CTE{}, false, err
		}
		if included {
			current = next
			anyIncluded = true
		}
	}
	if !anyIncluded {
		return ctx, false, nil
	}
	body := fmt.Sprintf("SELECT %s FROM %s", selectStdCols(current.Name, state.StdCols()), current.Name)
	cte := WrapFilterQuery(state, "AndOperator", body)
	return cte, true, nil
}

// compileOr implements spec.md §4.3 OR(children): compile each child
// against the same context, then UNION the child CTEs' standard-column
// projections. An OR with zero children is a StructureError (spec.md §4.3,
// §7); an OR whose children all elide reduces to "match nothing" (spec.md
// §7), not a compile error.
func compileOr(op OrOperator, ctx CTE, state *QueryState) (CTE, bool, error) {
	if len(op.Children) == 0 {
		return CTE{}, false, &StructureError{Reason: "or operator requires at least one child"}
	}
	var branches []string
	for _, child := range op.Children {
		next, included, err := compileNode(child, ctx, state)
		if err != nil {
			return CTE{}, false, err
		}
		if !included {
			continue
		}
		branches = append(branches, fmt.Sprintf(
			"SELECT %s FROM %s", selectStdCols(next.Name, state.StdCols()), next.Name,
		))
	}
	var body string
	if len(branches) == 0 {
		// Every alternative elided: match nothing.
		cols := state.StdCols()
		nullCols := make([]string, len(cols))
		for i, c := range cols {
			nullCols[i] = "NULL AS " + c
		}
		body = fmt.Sprintf("SELECT %s WHERE 1 = 0", joinColumns(nullCols))
	} else {
		body = joinUnion(branches)
	}
	cte := WrapFilterQuery(state, "OrOperator", body)
	return cte, true, nil
}

// compileNot implements spec.md §4.3 NOT(child): compile child; emit
// "SELECT std-cols FROM context EXCEPT SELECT std-cols FROM child". A NOT
// of an elided child is the identity (spec.md §7).
func compileNot(op NotOperator, ctx CTE, state *QueryState) (CTE, bool, error) {
	next, included, err := compileNode(op.Child, ctx, state)
	if err != nil {
		return CTE{}, false, err
	}
	if !included {
		return ctx, false, nil
	}
	cols := state.StdCols()
	body := fmt.Sprintf(
		"SELECT %s FROM %s EXCEPT SELECT %s FROM %s",
		selectStdCols(ctx.Name, cols), ctx.Name,
		selectStdCols(next.Name, cols), next.Name,
	)
	cte := WrapFilterQuery(state, "NotOperator", body)
	return cte, true, nil
}

func joinUnion(branches []string) string {
	out := branches[0]
	for _, b := range branches[1:] {
		out += " UNION " + b
	}
	return out
}
