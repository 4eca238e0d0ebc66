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

// Compiled is the finished output of Compile: a single parameterized SQL
// statement and the positional parameter vector that binds against it, plus
// whatever ExtraColumn entries the Result Decoder needs to interpret the
// non-standard projected columns.
type Compiled struct {
	SQL    string
	Params []any
	Extras []ExtraColumn
}

// Compile translates a SearchQuery into one parameterized SQL statement
// (spec.md §2, "compiler"). It owns the single fresh QueryState this
// compilation mutates; QueryState is never shared across calls, so
// concurrent calls to Compile never interfere with one another (spec.md
// §5).
func Compile(schema *Schema, query SearchQuery) (Compiled, error) {
	if err := query.OrderArgs.Normalize(); err != nil {
		return Compiled{}, err
	}
	if query.Entity == "" {
		query.Entity = EntityFiles
	}
	if ob := query.OrderArgs.OrderBy; ob != nil && IsTextColumn(*ob) && query.Entity != EntityText {
		return Compiled{}, &ValidationError{Reason: "order_by " + *ob + " is a text column and needs entity \"text\""}
	}

	state := NewQueryState(schema, query.Count, query.Entity == EntityText)

	finalCTEName := "root_files"
	treeIncluded := false
	if query.Query != nil {
		root := CTE{Name: "root_files"}
		final, included, err := compileNode(query.Query, root, state)
		if err != nil {
			return Compiled{}, err
		}
		if included {
			finalCTEName = final.Name
			treeIncluded = true
		}
		// If the whole tree elided (included == false), fall through and
		// behave as an unconstrained search over the root join (spec.md §7).
	}

	asm, err := assemble(schema, state, query, finalCTEName, treeIncluded)
	if err != nil {
		return Compiled{}, err
	}
	return Compiled{SQL: asm.sql, Params: asm.params, Extras: state.Extras()}, nil
}
