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

package inbookmarks

import (
	"strings"
	"testing"

	"github.com/reasv-labs/panoptikon-pql/internal/pql"
)

func TestFilter_ValidateNeverElides(t *testing.T) {
	f := &Filter{}
	ok, err := f.Validate(pql.NewSchema())
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if !ok {
		t.Errorf("expected in_bookmarks to never elide, even with no namespaces")
	}
}

func TestFilter_BuildQueryJoinsThroughFilesAndSha256(t *testing.T) {
	schema := pql.NewSchema()
	state := pql.NewQueryState(schema, false, false)
	f := &Filter{Namespaces: []string{"favorites"}}

	cte, err := f.BuildQuery(pql.CTE{Name: "root_files"}, state)
	if err != nil {
		t.Fatalf("BuildQuery: %v", err)
	}
	if !strings.Contains(cte.Body, "files.id = root_files.file_id") {
		t.Errorf("expected a join from root_files to files by file_id, got:\n%s", cte.Body)
	}
	if !strings.Contains(cte.Body, "bookmarks.sha256 = files.sha256") {
		t.Errorf("expected a join from files to bookmarks by sha256, got:\n%s", cte.Body)
	}
	if !strings.Contains(cte.Body, "bookmarks.namespace IN") {
		t.Errorf("expected a namespace restriction, got:\n%s", cte.Body)
	}
	if len(state.Params()) != 1 {
		t.Errorf("expected 1 bound parameter, got %v", state.Params())
	}
}

func TestFilter_BuildQueryOmitsWhereWithoutNamespaces(t *testing.T) {
	schema := pql.NewSchema()
	state := pql.NewQueryState(schema, false, false)
	f := &Filter{}

	cte, err := f.BuildQuery(pql.CTE{Name: "root_files"}, state)
	if err != nil {
		t.Fatalf("BuildQuery: %v", err)
	}
	if strings.Contains(cte.Body, "WHERE") {
		t.Errorf("expected no WHERE clause with no namespace restriction, got:\n%s", cte.Body)
	}
}
