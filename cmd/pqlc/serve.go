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
	"fmt"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/reasv-labs/panoptikon-pql/internal/config"
	"github.com/reasv-labs/panoptikon-pql/internal/pql"
	"github.com/reasv-labs/panoptikon-pql/internal/server"
	"github.com/reasv-labs/panoptikon-pql/internal/store"
)

func newServeCommand(root *Command) *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP search server.",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := root.newLogger()
			if err != nil {
				return err
			}

			cfg := config.Default()
			if configPath != "" {
				cfg, err = config.Load(configPath)
				if err != nil {
					return err
				}
			}

			ctx := cmd.Context()
			st, err := store.Open(ctx, cfg.Database.Path)
			if err != nil {
				return fmt.Errorf("pqlc serve: %w", err)
			}
			defer st.Close()

			srv := &server.Server{
				Schema: pql.NewSchema(),
				Store:  st,
				Logger: logger,
			}

			logger.InfoContext(ctx, "starting search server", "address", cfg.Server.Address)
			return http.ListenAndServe(cfg.Server.Address, srv.Router())
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "", "path to a YAML config file")
	return cmd
}
