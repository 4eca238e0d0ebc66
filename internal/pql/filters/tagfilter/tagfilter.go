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

// Package tagfilter implements the tag_filter filter: match items whose
// associated tags satisfy a combination of positive/negative, any/all
// constraints, optionally scoped to a set of setters or namespaces and a
// minimum confidence.
package tagfilter

import (
	"encoding/json"
	"fmt"

	"github.com/reasv-labs/panoptikon-pql/internal/pql"
)

func init() {
	pql.RegisterFilterKind("tag_filter", decode)
}

// Filter matches items by the tags attached to them. At least one of the
// four match lists must be non-empty, or the filter validates false and is
// elided.
type Filter struct {
	PosMatchAll        []string `json:"pos_match_all,omitempty"`
	PosMatchAny        []string `json:"pos_match_any,omitempty"`
	NegMatchAny        []string `json:"neg_match_any,omitempty"`
	NegMatchAll        []string `json:"neg_match_all,omitempty"`
	AllSettersRequired bool     `json:"all_setters_required,omitempty"`
	Setters            []string `json:"setters,omitempty"`
	Namespaces         []string `json:"namespaces,omitempty"`
	MinConfidence      *float64 `json:"min_confidence,omitempty"`
}

func decode(data []byte) (pql.Filter, error) {
	var f Filter
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("tag_filter: %w", err)
	}
	return &f, nil
}

func (f *Filter) Kind() string { return "tag_filter" }

func (f *Filter) Validate(schema *pql.Schema) (bool, error) {
	return len(f.PosMatchAll) > 0 || len(f.PosMatchAny) > 0 ||
		len(f.NegMatchAny) > 0 || len(f.NegMatchAll) > 0, nil
}

func (f *Filter) BuildQuery(ctx pql.CTE, state *pql.QueryState) (pql.CTE, error) {
	var scope []string
	if f.MinConfidence != nil {
		scope = append(scope, fmt.Sprintf("%s.confidence >= %s", pql.TableTagItems, state.AddParam(*f.MinConfidence)))
	}
	if len(f.Setters) > 0 {
		placeholders := make([]string, len(f.Setters))
		for i, s := range f.Setters {
			placeholders[i] = state.AddParam(s)
		}
		scope = append(scope, fmt.Sprintf("%s.name IN (%s)", pql.TableSetters, pql.JoinColumns(placeholders)))
	}
	if len(f.Namespaces) > 0 {
		placeholders := make([]string, len(f.Namespaces))
		for i, ns := range f.Namespaces {
			placeholders[i] = state.AddParam(ns)
		}
		scope = append(scope, fmt.Sprintf("%s.namespace IN (%s)", pql.TableTags, pql.JoinColumns(placeholders)))
	}

	join := fmt.Sprintf(
		"JOIN %s ON %s.item_id = %s.item_id JOIN %s ON %s.tag_id = %s.id JOIN %s ON %s.setter_id = %s.id",
		pql.TableTagItems, pql.TableTagItems, ctx.Name,
		pql.TableTags, pql.TableTagItems, pql.TableTags,
		pql.TableSetters, pql.TableTagItems, pql.TableSetters,
	)
	scopeWhere := ""
	if len(scope) > 0 {
		scopeWhere = " WHERE " + pql.JoinAnd(scope)
	}

	havingParts := []string{}

	if len(f.PosMatchAny) > 0 {
		placeholders := make([]string, len(f.PosMatchAny))
		for i, t := range f.PosMatchAny {
			placeholders[i] = state.AddParam(t)
		}
		havingParts = append(havingParts, fmt.Sprintf(
			"SUM(CASE WHEN %s.name IN (%s) THEN 1 ELSE 0 END) > 0", pql.TableTags, pql.JoinColumns(placeholders),
		))
	}
	if len(f.NegMatchAny) > 0 {
		placeholders := make([]string, len(f.NegMatchAny))
		for i, t := range f.NegMatchAny {
			placeholders[i] = state.AddParam(t)
		}
		havingParts = append(havingParts, fmt.Sprintf(
			"SUM(CASE WHEN %s.name IN (%s) THEN 1 ELSE 0 END) = 0", pql.TableTags, pql.JoinColumns(placeholders),
		))
	}
	for _, t := range f.PosMatchAll {
		havingParts = append(havingParts, fmt.Sprintf(
			"SUM(CASE WHEN %s.name = %s THEN 1 ELSE 0 END) > 0", pql.TableTags, state.AddParam(t),
		))
	}
	if len(f.NegMatchAll) > 0 {
		placeholders := make([]string, len(f.NegMatchAll))
		for i, t := range f.NegMatchAll {
			placeholders[i] = state.AddParam(t)
		}
		havingParts = append(havingParts, fmt.Sprintf(
			"SUM(CASE WHEN %s.name IN (%s) THEN 1 ELSE 0 END) < %d", pql.TableTags, pql.JoinColumns(placeholders), len(f.NegMatchAll),
		))
	}
	groupBy := ctx.Name + ".item_id"
	if f.AllSettersRequired && len(f.Setters) > 0 {
		groupBy = fmt.Sprintf("%s, %s.name", groupBy, pql.TableSetters)
	}

	body := fmt.Sprintf(
		"SELECT %s FROM %s %s%s GROUP BY %s",
		pql.SelectStdCols(ctx.Name, state.StdCols()),
		ctx.Name, join, scopeWhere, groupBy,
	)
	if len(havingParts) > 0 {
		body += " HAVING " + pql.JoinAnd(havingParts)
	}
	return pql.WrapFilterQuery(state, "TagFilter", body), nil
}
