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

// Package typein implements the type_in filter: match items whose MIME type
// starts with one of a set of caller-supplied prefixes (e.g. "image/",
// "video/mp4").
package typein

import (
	"encoding/json"
	"fmt"

	"github.com/reasv-labs/panoptikon-pql/internal/pql"
)

func init() {
	pql.RegisterFilterKind("type_in", decode)
}

// Filter matches items whose type starts with any of Types. An empty Types
// list validates false and is elided (spec.md §7).
type Filter struct {
	Types []string `json:"types"`
}

func decode(data []byte) (pql.Filter, error) {
	var f Filter
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("type_in: %w", err)
	}
	return &f, nil
}

func (f *Filter) Kind() string { return "type_in" }

func (f *Filter) Validate(schema *pql.Schema) (bool, error) {
	return len(f.Types) > 0, nil
}

func (f *Filter) BuildQuery(ctx pql.CTE, state *pql.QueryState) (pql.CTE, error) {
	typeCol := state.Schema.MustColumnFor("type")

	predicates := make([]string, len(f.Types))
	for i, t := range f.Types {
		param := state.AddParam(pql.EscapeLikePattern(t) + "%")
		predicates[i] = fmt.Sprintf("%s LIKE %s ESCAPE '\\'", typeCol.Qualified(), param)
	}

	body := fmt.Sprintf(
		"SELECT %s FROM %s JOIN %s ON %s = %s WHERE %s",
		pql.SelectStdCols(ctx.Name, state.StdCols()),
		ctx.Name, typeCol.Table,
		typeCol.Table+".id", ctx.Name+".item_id",
		pql.JoinOr(predicates),
	)
	return pql.WrapFilterQuery(state, "TypeIn", body), nil
}
