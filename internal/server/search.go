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
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"github.com/reasv-labs/panoptikon-pql/internal/log"
	"github.com/reasv-labs/panoptikon-pql/internal/pql"
	"github.com/reasv-labs/panoptikon-pql/internal/store"
)

// Server holds the dependencies the /search handler needs.
type Server struct {
	Schema *pql.Schema
	Store  *store.Store
	Logger log.Logger
}

// searchRequest is the wire shape of a POST /search body (spec.md §6): a
// polymorphic query tree plus paging/ordering/mode fields.
type searchRequest struct {
	Query    json.RawMessage `json:"query"`
	OrderBy  *string         `json:"order_by,omitempty"`
	Order    *pql.Direction  `json:"order,omitempty"`
	Page     int             `json:"page"`
	PageSize int             `json:"page_size"`
	Count    bool            `json:"count,omitempty"`
	Entity   pql.Entity      `json:"entity,omitempty"`
}

// searchResponse is the successful POST /search body.
type searchResponse struct {
	Results []pql.SearchResult `json:"results,omitempty"`
	Count   int64              `json:"count"`
}

// Router builds the chi router exposing POST /search. No middleware is
// installed; in particular a trailing slash is not stripped, so
// "/search/" does not match.
func (s *Server) Router() chi.Router {
	r := chi.NewRouter()
	r.Post("/search", s.handleSearch)
	return r
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, map[string]string{"error": "invalid request body: " + err.Error()})
		return
	}

	node, err := pql.DecodeNode(req.Query)
	if err != nil {
		s.renderCompileError(w, r, err)
		return
	}

	query := pql.SearchQuery{
		Query:  node,
		Count:  req.Count,
		Entity: req.Entity,
		OrderArgs: pql.OrderArgs{
			OrderBy:  req.OrderBy,
			Order:    req.Order,
			Page:     req.Page,
			PageSize: req.PageSize,
		},
	}

	compiled, err := pql.Compile(s.Schema, query)
	if err != nil {
		s.renderCompileError(w, r, err)
		return
	}

	ctx := r.Context()
	results, count, err := s.Store.Run(ctx, compiled, req.Count)
	if err != nil {
		s.Logger.ErrorContext(ctx, "search query execution failed", "error", err)
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, map[string]string{"error": "query execution failed"})
		return
	}

	render.JSON(w, r, searchResponse{Results: results, Count: count})
}

// renderCompileError maps a Compile failure to an HTTP response. All three
// of pql's error types are caller-input mistakes, so all render 400; the
// type switch exists so a future error category (e.g. a server-side
// compilation bug) can be told apart from these without touching callers.
func (s *Server) renderCompileError(w http.ResponseWriter, r *http.Request, err error) {
	var valErr *pql.ValidationError
	var structErr *pql.StructureError
	var colErr *pql.InvalidColumnError
	if !errors.As(err, &valErr) && !errors.As(err, &structErr) && !errors.As(err, &colErr) {
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, map[string]string{"error": err.Error()})
		return
	}
	render.Status(r, http.StatusBadRequest)
	render.JSON(w, r, map[string]string{"error": err.Error()})
}
