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

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/reasv-labs/panoptikon-pql/internal/pql"
)

// wireQuery is the JSON shape accepted by "pqlc compile" — the same wire
// shape as a POST /search body (spec.md §6), minus execution.
type wireQuery struct {
	Query    json.RawMessage `json:"query"`
	OrderBy  *string         `json:"order_by,omitempty"`
	Order    *pql.Direction  `json:"order,omitempty"`
	Page     int             `json:"page"`
	PageSize int             `json:"page_size"`
	Count    bool            `json:"count,omitempty"`
	Entity   pql.Entity      `json:"entity,omitempty"`
}

func newCompileCommand(root *Command) *cobra.Command {
	var inputPath string

	cmd := &cobra.Command{
		Use:   "compile",
		Short: "Compile a SearchQuery JSON document into SQL and print it.",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := root.newLogger()
			if err != nil {
				return err
			}

			var r io.Reader = cmd.InOrStdin()
			if inputPath != "" {
				f, err := os.Open(inputPath)
				if err != nil {
					return fmt.Errorf("pqlc compile: %w", err)
				}
				defer f.Close()
				r = f
			}

			data, err := io.ReadAll(r)
			if err != nil {
				return fmt.Errorf("pqlc compile: reading input: %w", err)
			}

			var wq wireQuery
			if err := json.Unmarshal(data, &wq); err != nil {
				return fmt.Errorf("pqlc compile: parsing input: %w", err)
			}

			node, err := pql.DecodeNode(wq.Query)
			if err != nil {
				return fmt.Errorf("pqlc compile: %w", err)
			}

			query := pql.SearchQuery{
				Query:  node,
				Count:  wq.Count,
				Entity: wq.Entity,
				OrderArgs: pql.OrderArgs{
					OrderBy:  wq.OrderBy,
					Order:    wq.Order,
					Page:     wq.Page,
					PageSize: wq.PageSize,
				},
			}

			compiled, err := pql.Compile(pql.NewSchema(), query)
			if err != nil {
				return fmt.Errorf("pqlc compile: %w", err)
			}

			logger.InfoContext(cmd.Context(), "compiled query", "params", len(compiled.Params))
			fmt.Fprintln(cmd.OutOrStdout(), compiled.SQL)
			for i, p := range compiled.Params {
				fmt.Fprintf(cmd.OutOrStdout(), "-- param[%d] = %v\n", i, p)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&inputPath, "input", "", "path to a SearchQuery JSON file (default: stdin)")
	return cmd
}
