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

package tagfilter

import (
	"strings"
	"testing"

	"github.com/reasv-labs/panoptikon-pql/internal/pql"
)

func TestFilter_ValidateElidesWithNoMatchLists(t *testing.T) {
	f := &Filter{}
	ok, err := f.Validate(pql.NewSchema())
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if ok {
		t.Errorf("expected a filter with no match lists to elide")
	}
}

func TestFilter_ValidateIncludesWithAnyOneMatchList(t *testing.T) {
	f := &Filter{NegMatchAny: []string{"nsfw"}}
	ok, err := f.Validate(pql.NewSchema())
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if !ok {
		t.Errorf("expected neg_match_any alone to be sufficient to include the filter")
	}
}

func TestFilter_BuildQueryMatchAnyUsesSumHaving(t *testing.T) {
	schema := pql.NewSchema()
	state := pql.NewQueryState(schema, false, false)
	f := &Filter{PosMatchAny: []string{"cat", "dog"}}

	cte, err := f.BuildQuery(pql.CTE{Name: "root_files"}, state)
	if err != nil {
		t.Fatalf("BuildQuery: %v", err)
	}
	if !strings.Contains(cte.Body, "HAVING") || !strings.Contains(cte.Body, "SUM(CASE WHEN") {
		t.Errorf("expected a SUM(CASE WHEN ...) HAVING predicate, got:\n%s", cte.Body)
	}
	if !strings.Contains(cte.Body, "> 0") {
		t.Errorf("expected a positive match_any predicate to require > 0 matches, got:\n%s", cte.Body)
	}
	if len(state.Params()) != 2 {
		t.Errorf("expected 2 bound tag name parameters, got %v", state.Params())
	}
}

func TestFilter_BuildQueryMatchAllEmitsOnePredicatePerTag(t *testing.T) {
	schema := pql.NewSchema()
	state := pql.NewQueryState(schema, false, false)
	f := &Filter{PosMatchAll: []string{"cat", "indoor"}}

	cte, err := f.BuildQuery(pql.CTE{Name: "root_files"}, state)
	if err != nil {
		t.Fatalf("BuildQuery: %v", err)
	}
	if strings.Count(cte.Body, "SUM(CASE WHEN") != 2 {
		t.Errorf("expected one SUM(CASE WHEN...) predicate per pos_match_all tag, got:\n%s", cte.Body)
	}
}

func TestFilter_BuildQueryNegMatchAllRequiresNotAllPresent(t *testing.T) {
	schema := pql.NewSchema()
	state := pql.NewQueryState(schema, false, false)
	f := &Filter{NegMatchAll: []string{"cat", "dog", "bird"}}

	cte, err := f.BuildQuery(pql.CTE{Name: "root_files"}, state)
	if err != nil {
		t.Fatalf("BuildQuery: %v", err)
	}
	// A single IN-list predicate bounded by the list size, not one
	// all-or-nothing predicate per tag: an item carrying 2 of the 3 tags
	// must still match (it just can't carry all 3 at once).
	if strings.Count(cte.Body, "SUM(CASE WHEN") != 1 {
		t.Errorf("expected exactly one SUM(CASE WHEN...) predicate for neg_match_all, got:\n%s", cte.Body)
	}
	if !strings.Contains(cte.Body, "IN (?, ?, ?) THEN 1 ELSE 0 END) < 3") {
		t.Errorf("expected a < 3 bound on the combined tag count, got:\n%s", cte.Body)
	}
}

func TestFilter_BuildQueryScopesBySetterAndConfidence(t *testing.T) {
	schema := pql.NewSchema()
	state := pql.NewQueryState(schema, false, false)
	minConf := 0.5
	f := &Filter{
		PosMatchAny:   []string{"cat"},
		Setters:       []string{"wd14"},
		MinConfidence: &minConf,
	}

	cte, err := f.BuildQuery(pql.CTE{Name: "root_files"}, state)
	if err != nil {
		t.Fatalf("BuildQuery: %v", err)
	}
	if !strings.Contains(cte.Body, "WHERE") || !strings.Contains(cte.Body, "confidence >=") {
		t.Errorf("expected a confidence scope predicate, got:\n%s", cte.Body)
	}
	if !strings.Contains(cte.Body, "setters.name IN") {
		t.Errorf("expected a setters scope predicate, got:\n%s", cte.Body)
	}
}
