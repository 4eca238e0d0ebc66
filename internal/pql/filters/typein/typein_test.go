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

package typein

import (
	"strings"
	"testing"

	"github.com/reasv-labs/panoptikon-pql/internal/pql"
)

func TestFilter_ValidateElidesOnEmptyTypes(t *testing.T) {
	f := &Filter{}
	ok, err := f.Validate(pql.NewSchema())
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if ok {
		t.Errorf("expected an empty types list to elide (Validate = false)")
	}
}

func TestFilter_BuildQueryMatchesAnyPrefix(t *testing.T) {
	schema := pql.NewSchema()
	state := pql.NewQueryState(schema, false, false)
	f := &Filter{Types: []string{"image/", "video/mp4"}}

	ok, err := f.Validate(schema)
	if err != nil || !ok {
		t.Fatalf("Validate: ok=%v err=%v", ok, err)
	}

	cte, err := f.BuildQuery(pql.CTE{Name: "root_files"}, state)
	if err != nil {
		t.Fatalf("BuildQuery: %v", err)
	}
	if strings.Count(cte.Body, "LIKE") != 2 {
		t.Errorf("expected one LIKE predicate per type, got:\n%s", cte.Body)
	}
	if !strings.Contains(cte.Body, " OR ") {
		t.Errorf("expected the two predicates joined with OR, got:\n%s", cte.Body)
	}
	if len(state.Params()) != 2 {
		t.Errorf("expected 2 bound parameters, got %v", state.Params())
	}
}
