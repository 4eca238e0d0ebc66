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

// Package inbookmarks implements the in_bookmarks filter: match files that
// are bookmarked, optionally restricted to a set of namespaces, optionally
// rankable by bookmark time.
package inbookmarks

import (
	"encoding/json"
	"fmt"

	"github.com/reasv-labs/panoptikon-pql/internal/pql"
)

func init() {
	pql.RegisterFilterKind("in_bookmarks", decode)
}

// Filter matches bookmarked files. Namespaces, when non-empty, restricts
// the match to bookmarks filed under one of those namespaces. Filter never
// elides: a bookmarks search with no namespace restriction is still a
// meaningful "has any bookmark" query.
type Filter struct {
	pql.Sortable

	Namespaces []string `json:"namespaces,omitempty"`
}

func decode(data []byte) (pql.Filter, error) {
	var f Filter
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("in_bookmarks: %w", err)
	}
	return &f, nil
}

func (f *Filter) Kind() string { return "in_bookmarks" }

func (f *Filter) Validate(schema *pql.Schema) (bool, error) {
	return true, nil
}

func (f *Filter) BuildQuery(ctx pql.CTE, state *pql.QueryState) (pql.CTE, error) {
	fileIDCol := state.Schema.MustColumnFor("file_id")

	var where []string
	if len(f.Namespaces) > 0 {
		placeholders := make([]string, len(f.Namespaces))
		for i, ns := range f.Namespaces {
			placeholders[i] = state.AddParam(ns)
		}
		where = append(where, fmt.Sprintf("%s.namespace IN (%s)", pql.TableBookmarks, pql.JoinColumns(placeholders)))
	}

	rank := f.DeriveRankColumn(pql.TableBookmarks + ".time_added")

	body := fmt.Sprintf(
		"SELECT %s, %s FROM %s JOIN %s ON %s.id = %s.file_id JOIN %s ON %s.sha256 = %s.sha256",
		pql.SelectStdCols(ctx.Name, state.StdCols()), rank,
		ctx.Name, fileIDCol.Table, fileIDCol.Table, ctx.Name,
		pql.TableBookmarks, pql.TableBookmarks, fileIDCol.Table,
	)
	if len(where) > 0 {
		body += " WHERE " + pql.JoinAnd(where)
	}
	return f.Sortable.WrapQuery(state, "InBookmarks", body), nil
}
