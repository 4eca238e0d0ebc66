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

// Package inpaths implements the in_paths filter: match files whose path
// starts with one of a set of caller-supplied prefixes.
package inpaths

import (
	"encoding/json"
	"fmt"

	"github.com/reasv-labs/panoptikon-pql/internal/pql"
)

func init() {
	pql.RegisterFilterKind("in_paths", decode)
}

// Filter matches files whose path starts with any of Paths. An empty Paths
// list validates false and is elided (spec.md §7).
type Filter struct {
	Paths []string `json:"paths"`
}

func decode(data []byte) (pql.Filter, error) {
	var f Filter
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("in_paths: %w", err)
	}
	return &f, nil
}

func (f *Filter) Kind() string { return "in_paths" }

func (f *Filter) Validate(schema *pql.Schema) (bool, error) {
	return len(f.Paths) > 0, nil
}

func (f *Filter) BuildQuery(ctx pql.CTE, state *pql.QueryState) (pql.CTE, error) {
	pathCol := state.Schema.MustColumnFor("path")
	fileIDCol := state.Schema.MustColumnFor("file_id")

	predicates := make([]string, len(f.Paths))
	for i, p := range f.Paths {
		param := state.AddParam(pql.EscapeLikePattern(p) + "%")
		predicates[i] = fmt.Sprintf("%s LIKE %s ESCAPE '\\'", pathCol.Qualified(), param)
	}

	body := fmt.Sprintf(
		"SELECT %s FROM %s JOIN %s ON %s = %s WHERE %s",
		pql.SelectStdCols(ctx.Name, state.StdCols()),
		ctx.Name, fileIDCol.Table,
		fileIDCol.Qualified(), ctx.Name+".file_id",
		pql.JoinOr(predicates),
	)
	return pql.WrapFilterQuery(state, "InPaths", body), nil
}
