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

package store

import (
	"context"
	"testing"

	"github.com/reasv-labs/panoptikon-pql/internal/pql"
)

func TestOpen_CreatesSchemaIdempotently(t *testing.T) {
	ctx := context.Background()
	st, err := Open(ctx, ":memory:")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer st.Close()

	// A second pass over the same connection must not fail on the
	// IF NOT EXISTS tables/virtual tables.
	if _, err := st.DB().ExecContext(ctx, schemaSQL); err != nil {
		t.Fatalf("re-running schemaSQL: %v", err)
	}
}

func TestRun_EmptyDatabaseReturnsNoRows(t *testing.T) {
	ctx := context.Background()
	st, err := Open(ctx, ":memory:")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer st.Close()

	compiled, err := pql.Compile(pql.NewSchema(), pql.SearchQuery{
		OrderArgs: pql.OrderArgs{Page: 1, PageSize: 10},
	})
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}

	results, count, err := st.Run(ctx, compiled, false)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(results) != 0 || count != 0 {
		t.Errorf("expected no rows from an empty database, got %d results, count=%d", len(results), count)
	}
}

func TestRun_CountMode(t *testing.T) {
	ctx := context.Background()
	st, err := Open(ctx, ":memory:")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer st.Close()

	compiled, err := pql.Compile(pql.NewSchema(), pql.SearchQuery{
		Count:     true,
		OrderArgs: pql.OrderArgs{Page: 1, PageSize: 10},
	})
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}

	results, count, err := st.Run(ctx, compiled, true)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if results != nil {
		t.Errorf("expected a nil result slice in count mode, got %v", results)
	}
	if count != 0 {
		t.Errorf("expected count 0 against an empty database, got %d", count)
	}
}
