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

package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/reasv-labs/panoptikon-pql/internal/log"
	"github.com/reasv-labs/panoptikon-pql/internal/pql"
	"github.com/reasv-labs/panoptikon-pql/internal/store"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	st, err := store.Open(context.Background(), ":memory:")
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	logger, err := log.NewLogger("standard", "ERROR", &bytes.Buffer{}, &bytes.Buffer{})
	if err != nil {
		t.Fatalf("log.NewLogger: %v", err)
	}
	return &Server{Schema: pql.NewSchema(), Store: st, Logger: logger}
}

func TestHandleSearch_EmptyQueryReturnsEmptyResults(t *testing.T) {
	srv := newTestServer(t)
	body := `{"query": null, "page": 1, "page_size": 10}`

	req := httptest.NewRequest(http.MethodPost, "/search", strings.NewReader(body))
	rr := httptest.NewRecorder()
	srv.Router().ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	var resp searchResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if len(resp.Results) != 0 {
		t.Errorf("expected no results against an empty database, got %d", len(resp.Results))
	}
}

func TestHandleSearch_UnknownFilterKindReturns400(t *testing.T) {
	srv := newTestServer(t)
	body := `{"query": {"filter": {"kind": "not_a_real_filter"}}, "page": 1, "page_size": 10}`

	req := httptest.NewRequest(http.MethodPost, "/search", strings.NewReader(body))
	rr := httptest.NewRecorder()
	srv.Router().ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for an unknown filter kind, got %d: %s", rr.Code, rr.Body.String())
	}
}

func TestHandleSearch_CountMode(t *testing.T) {
	srv := newTestServer(t)
	body := `{"query": null, "count": true, "page": 1, "page_size": 10}`

	req := httptest.NewRequest(http.MethodPost, "/search", strings.NewReader(body))
	rr := httptest.NewRecorder()
	srv.Router().ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	var resp searchResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if resp.Count != 0 {
		t.Errorf("expected count 0 against an empty database, got %d", resp.Count)
	}
}
