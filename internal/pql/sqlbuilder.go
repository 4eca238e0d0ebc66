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

import "strings"

// joinColumns renders a plain comma-separated column list, e.g. for a
// "SELECT a, b FROM (...)" wrapper.
func joinColumns(cols []string) string {
	return JoinColumns(cols)
}

// JoinColumns renders a plain comma-separated column list. Exported so
// filter packages under internal/pql/filters can share it.
func JoinColumns(cols []string) string {
	return strings.Join(cols, ", ")
}

// joinAnd renders a list of boolean SQL predicates joined with AND, each
// individually parenthesized so operator precedence within a predicate
// never leaks into the conjunction.
func joinAnd(predicates []string) string {
	return JoinAnd(predicates)
}

// JoinAnd is the exported form of joinAnd, for use by filter packages.
func JoinAnd(predicates []string) string {
	if len(predicates) == 0 {
		return "1 = 1"
	}
	wrapped := make([]string, len(predicates))
	for i, p := range predicates {
		wrapped[i] = "(" + p + ")"
	}
	return strings.Join(wrapped, " AND ")
}

// joinOr renders a list of boolean SQL predicates joined with OR, each
// individually parenthesized.
func joinOr(predicates []string) string {
	return JoinOr(predicates)
}

// JoinOr is the exported form of joinOr, for use by filter packages.
func JoinOr(predicates []string) string {
	if len(predicates) == 0 {
		return "1 = 0"
	}
	wrapped := make([]string, len(predicates))
	for i, p := range predicates {
		wrapped[i] = "(" + p + ")"
	}
	return strings.Join(wrapped, " OR ")
}

// selectStdCols renders the standard columns of ctxAlias as a column list
// suitable for a SELECT clause, e.g. "ctx.file_id AS file_id, ctx.item_id
// AS item_id".
func selectStdCols(ctxAlias string, cols []string) string {
	return SelectStdCols(ctxAlias, cols)
}

// SelectStdCols is the exported form of selectStdCols, for use by filter
// packages building their own context projections.
func SelectStdCols(ctxAlias string, cols []string) string {
	parts := make([]string, len(cols))
	for i, c := range cols {
		parts[i] = ctxAlias + "." + c + " AS " + c
	}
	return strings.Join(parts, ", ")
}

// LikeEscapeChar is the ESCAPE character used for every LIKE pattern the
// compiler builds from caller-supplied strings.
const LikeEscapeChar = `\`

// EscapeLikePattern escapes the SQL LIKE wildcard characters '_' and '%',
// and the escape character itself, in a caller-supplied literal before it
// is embedded in a LIKE pattern (spec.md §9, Open Question (b), resolved:
// yes). Every LIKE built from this escaped value must carry
// "ESCAPE '\'".
func EscapeLikePattern(s string) string {
	r := strings.NewReplacer(
		LikeEscapeChar, LikeEscapeChar+LikeEscapeChar,
		"%", LikeEscapeChar+"%",
		"_", LikeEscapeChar+"_",
	)
	return r.Replace(s)
}
