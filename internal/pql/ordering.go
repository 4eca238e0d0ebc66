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
	"sort"
	"strings"
)

// rankGroup is a bucket of OrderByFilters that share one priority: their
// order_rank columns are coalesced into a single expression (spec.md §4.4
// step 2).
type rankGroup struct {
	priority  int
	direction Direction // taken from the first entry encountered (spec.md §9, Open Question c: "first wins").
	members   []OrderByFilter
}

// orderingPlan is the SQL fragments the Final Assembler splices in to
// honor spec.md §4.4: the LEFT JOINs needed to reach every ranking CTE,
// and the ORDER BY clauses derived from them, in priority order.
type orderingPlan struct {
	joins   []string
	orderBy []string
	// aliasByCTE maps a ranking CTE's name to the join alias this plan gave
	// it, so callers needing to reference the same CTE (e.g. an extra
	// select_as column on a filter that is also order_by) can reuse the
	// join instead of opening a second one.
	aliasByCTE map[string]string
}

// buildOrderingPlan implements spec.md §4.4 steps 1-3: sort OrderByFilters
// by priority descending (stable), group consecutive equal-priority
// entries, coalesce each group's order_rank columns, and attach a LEFT
// JOIN + NULL-last ORDER BY for each group. joinKeyCol is "file_id" in
// item/file mode or "text_id" in text mode (spec.md §4.4 step 3).
func buildOrderingPlan(order []OrderByFilter, rootAlias, joinKeyCol string) orderingPlan {
	if len(order) == 0 {
		return orderingPlan{}
	}

	sorted := make([]OrderByFilter, len(order))
	copy(sorted, order)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Priority > sorted[j].Priority
	})

	var groups []rankGroup
	for _, entry := range sorted {
		if n := len(groups); n > 0 && groups[n-1].priority == entry.Priority {
			groups[n-1].members = append(groups[n-1].members, entry)
			continue
		}
		groups = append(groups, rankGroup{
			priority:  entry.Priority,
			direction: entry.Direction,
			members:   []OrderByFilter{entry},
		})
	}

	plan := orderingPlan{aliasByCTE: make(map[string]string)}
	for gi, g := range groups {
		var refs []string
		for mi, m := range g.members {
			alias := fmt.Sprintf("ob_%d_%d_%s", gi, mi, m.CTE.Name)
			plan.joins = append(plan.joins, fmt.Sprintf(
				"LEFT JOIN %s AS %s ON %s.%s = %s.%s",
				m.CTE.Name, alias, rootAlias, joinKeyCol, alias, joinKeyCol,
			))
			plan.aliasByCTE[m.CTE.Name] = alias
			refs = append(refs, alias+".order_rank")
		}
		expr := refs[0]
		if len(refs) > 1 {
			expr = "COALESCE(" + strings.Join(refs, ", ") + ")"
		}
		dir := g.direction
		if dir == "" {
			dir = Asc
		}
		plan.orderBy = append(plan.orderBy, fmt.Sprintf("(%s) IS NULL", expr))
		plan.orderBy = append(plan.orderBy, fmt.Sprintf("%s %s", expr, dir.SQL()))
	}
	return plan
}
