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

package pql_test

import (
	"regexp"
	"strings"
	"sync"
	"testing"

	"golang.org/x/sync/errgroup"

	"github.com/reasv-labs/panoptikon-pql/internal/pql"
	_ "github.com/reasv-labs/panoptikon-pql/internal/pql/filters/inbookmarks"
	_ "github.com/reasv-labs/panoptikon-pql/internal/pql/filters/inpaths"
	_ "github.com/reasv-labs/panoptikon-pql/internal/pql/filters/matchpath"
	_ "github.com/reasv-labs/panoptikon-pql/internal/pql/filters/matchtext"
	_ "github.com/reasv-labs/panoptikon-pql/internal/pql/filters/tagfilter"
	_ "github.com/reasv-labs/panoptikon-pql/internal/pql/filters/typein"
)

func mustDecodeNode(t *testing.T, js string) pql.Node {
	t.Helper()
	node, err := pql.DecodeNode([]byte(js))
	if err != nil {
		t.Fatalf("DecodeNode: %v", err)
	}
	return node
}

func TestCompile_EmptyQueryDefaultOrder(t *testing.T) {
	schema := pql.NewSchema()
	q := pql.SearchQuery{
		OrderArgs: pql.OrderArgs{Page: 1, PageSize: 20},
	}
	compiled, err := pql.Compile(schema, q)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	if strings.Contains(compiled.SQL, "WITH ") {
		t.Errorf("expected no intermediate CTEs for an unconstrained query, got:\n%s", compiled.SQL)
	}
	if !strings.Contains(compiled.SQL, "ORDER BY") || !strings.Contains(compiled.SQL, "last_modified") {
		t.Errorf("expected default ordering by last_modified, got:\n%s", compiled.SQL)
	}
	if !strings.Contains(compiled.SQL, "DESC") {
		t.Errorf("expected default direction desc for last_modified, got:\n%s", compiled.SQL)
	}
}

func TestCompile_PathPrefix(t *testing.T) {
	schema := pql.NewSchema()
	node := mustDecodeNode(t, `{"filter":{"kind":"in_paths","paths":["/music/"]}}`)
	q := pql.SearchQuery{
		Query:     node,
		OrderArgs: pql.OrderArgs{Page: 1, PageSize: 20},
	}
	compiled, err := pql.Compile(schema, q)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	if !strings.Contains(compiled.SQL, "WITH root_files AS") {
		t.Errorf("expected a WITH clause once a filter narrows the query, got:\n%s", compiled.SQL)
	}
	if len(compiled.Params) == 0 {
		t.Errorf("expected at least one bound parameter for the path prefix")
	}
}

func TestCompile_AndNot(t *testing.T) {
	schema := pql.NewSchema()
	node := mustDecodeNode(t, `{
		"and": [
			{"filter": {"kind": "in_paths", "paths": ["/music/"]}},
			{"not": {"filter": {"kind": "type_in", "types": ["audio/"]}}}
		]
	}`)
	q := pql.SearchQuery{Query: node, OrderArgs: pql.OrderArgs{Page: 1, PageSize: 20}}
	compiled, err := pql.Compile(schema, q)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	if !strings.Contains(compiled.SQL, "EXCEPT") {
		t.Errorf("expected NOT to compile to EXCEPT, got:\n%s", compiled.SQL)
	}
}

func TestCompile_OrDiscardsRank(t *testing.T) {
	schema := pql.NewSchema()
	node := mustDecodeNode(t, `{
		"or": [
			{"filter": {"kind": "match_path", "query": "foo", "target": "filename", "order_by": true}},
			{"filter": {"kind": "match_path", "query": "bar", "target": "filename", "order_by": true}}
		]
	}`)
	q := pql.SearchQuery{Query: node, OrderArgs: pql.OrderArgs{Page: 1, PageSize: 20}}
	compiled, err := pql.Compile(schema, q)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	// The MatchPath CTE bodies still compute order_rank, but the OR only
	// re-projects the standard columns and the OrderByFilters registered
	// beneath it are dropped, so neither the OR's own body nor the final
	// ORDER BY references a child rank.
	if matched, _ := regexp.MatchString(`n_\d+_OrOperator.*order_rank`, compiled.SQL); matched {
		t.Errorf("expected OrOperator to discard its children's ranking, got:\n%s", compiled.SQL)
	}
	if _, orderBy, ok := strings.Cut(compiled.SQL, "ORDER BY"); !ok || strings.Contains(orderBy, "order_rank") {
		t.Errorf("expected the final ORDER BY to reference no child rank under OR, got:\n%s", compiled.SQL)
	}
}

func TestCompile_CursorPagination(t *testing.T) {
	schema := pql.NewSchema()
	node := mustDecodeNode(t, `{"filter":{"kind":"match_path","query":"foo","target":"filename","order_by":true,"row_n":true,"gt":42}}`)
	q := pql.SearchQuery{Query: node, OrderArgs: pql.OrderArgs{Page: 1, PageSize: 20}}
	compiled, err := pql.Compile(schema, q)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	if !strings.Contains(compiled.SQL, "order_rank >") {
		t.Errorf("expected a cursor bound on order_rank, got:\n%s", compiled.SQL)
	}
	// encoding/json decodes the untyped gt value as a float64.
	foundCursor := false
	for _, p := range compiled.Params {
		if p == float64(42) {
			foundCursor = true
		}
	}
	if !foundCursor {
		t.Errorf("expected the gt cursor value to appear in the parameter vector, got %v", compiled.Params)
	}
}

func TestCompile_TextModeWithSnippet(t *testing.T) {
	schema := pql.NewSchema()
	node := mustDecodeNode(t, `{"filter":{"kind":"match_text","query":"hello world","select_snippet_as":"snippet"}}`)
	q := pql.SearchQuery{
		Query:     node,
		Entity:    pql.EntityText,
		OrderArgs: pql.OrderArgs{Page: 1, PageSize: 20},
	}
	compiled, err := pql.Compile(schema, q)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	if !strings.Contains(compiled.SQL, "text_id") {
		t.Errorf("expected text_id to be part of the std columns in text mode, got:\n%s", compiled.SQL)
	}
	if len(compiled.Extras) != 1 || compiled.Extras[0].Alias != "snippet" {
		t.Errorf("expected exactly one extra column aliased snippet, got %+v", compiled.Extras)
	}
}

func TestCompile_CountStripsOrderingAndCursors(t *testing.T) {
	schema := pql.NewSchema()
	node := mustDecodeNode(t, `{"filter":{"kind":"match_path","query":"foo","target":"filename","order_by":true,"row_n":true,"gt":42}}`)
	q := pql.SearchQuery{
		Query:     node,
		Count:     true,
		OrderArgs: pql.OrderArgs{Page: 1, PageSize: 20},
	}
	compiled, err := pql.Compile(schema, q)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	if strings.Contains(compiled.SQL, "ORDER BY") {
		t.Errorf("expected a count compilation to omit ORDER BY, got:\n%s", compiled.SQL)
	}
	if strings.Contains(compiled.SQL, "order_rank >") {
		t.Errorf("expected a count compilation to ignore the gt cursor, got:\n%s", compiled.SQL)
	}
	if !strings.HasPrefix(strings.TrimSpace(compiled.SQL), "SELECT COUNT(*)") &&
		!strings.Contains(compiled.SQL, "SELECT COUNT(*)") {
		t.Errorf("expected a COUNT(*) projection, got:\n%s", compiled.SQL)
	}
}

func TestCompile_OrWithZeroChildrenIsStructureError(t *testing.T) {
	_, err := pql.DecodeNode([]byte(`{"or": []}`))
	var structErr *pql.StructureError
	if err == nil {
		t.Fatalf("expected a StructureError for an empty or, got nil")
	}
	if !asStructureError(err, &structErr) {
		t.Fatalf("expected a *pql.StructureError, got %T: %v", err, err)
	}
}

func asStructureError(err error, target **pql.StructureError) bool {
	se, ok := err.(*pql.StructureError)
	if !ok {
		return false
	}
	*target = se
	return true
}

func TestCompile_AllElidedOrMatchesNothing(t *testing.T) {
	schema := pql.NewSchema()
	node := mustDecodeNode(t, `{"or": [{"filter": {"kind": "in_paths", "paths": []}}]}`)
	q := pql.SearchQuery{Query: node, OrderArgs: pql.OrderArgs{Page: 1, PageSize: 20}}
	compiled, err := pql.Compile(schema, q)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	if !strings.Contains(compiled.SQL, "1 = 0") {
		t.Errorf("expected an all-elided OR to compile to a match-nothing predicate, got:\n%s", compiled.SQL)
	}
}

// TestCompile_ConcurrentCallsDoNotInterfere exercises spec.md §5's
// concurrency guarantee: many goroutines compiling the same query
// concurrently must each get their own QueryState and produce identical
// output, since nothing is shared across calls to Compile.
func TestCompile_ConcurrentCallsDoNotInterfere(t *testing.T) {
	schema := pql.NewSchema()
	buildQuery := func() pql.SearchQuery {
		node := mustDecodeNode(t, `{"filter":{"kind":"in_paths","paths":["/music/","/video/"]}}`)
		return pql.SearchQuery{Query: node, OrderArgs: pql.OrderArgs{Page: 1, PageSize: 20}}
	}

	var g errgroup.Group
	var mu sync.Mutex
	var results []string
	for i := 0; i < 16; i++ {
		g.Go(func() error {
			compiled, err := pql.Compile(schema, buildQuery())
			if err != nil {
				return err
			}
			mu.Lock()
			results = append(results, compiled.SQL)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		t.Fatalf("concurrent Compile calls failed: %v", err)
	}
	for i := 1; i < len(results); i++ {
		if results[i] != results[0] {
			t.Fatalf("expected every concurrent compilation of the same query to produce identical SQL")
		}
	}
}
