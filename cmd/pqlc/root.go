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

// Command pqlc is the compiler's command-line entry point: a cobra command
// tree offering "compile" (translate a SearchQuery JSON document to SQL)
// and "serve" (boot the HTTP search surface).
package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/reasv-labs/panoptikon-pql/internal/log"
)

// Command wraps cobra.Command the way the teacher's own Command type does,
// giving callers a concrete type to configure in tests.
type Command struct {
	*cobra.Command

	logFormat string
	logLevel  string
}

// NewCommand builds the root pqlc command and attaches its subcommands.
func NewCommand() *Command {
	c := &Command{}

	c.Command = &cobra.Command{
		Use:           "pqlc",
		Short:         "Compile and run Panoptikon Query Language searches.",
		SilenceErrors: true,
		SilenceUsage:  true,
	}

	flags := c.Command.PersistentFlags()
	flags.StringVar(&c.logFormat, "log-format", "standard", "logging format: standard or json")
	flags.StringVar(&c.logLevel, "log-level", log.Info, "logging level: DEBUG, INFO, WARN, or ERROR")

	c.AddCommand(newCompileCommand(c))
	c.AddCommand(newServeCommand(c))

	return c
}

func (c *Command) newLogger() (log.Logger, error) {
	out := c.OutOrStdout()
	err := c.ErrOrStderr()
	logger, lerr := log.NewLogger(c.logFormat, c.logLevel, out, err)
	if lerr != nil {
		return nil, fmt.Errorf("pqlc: %w", lerr)
	}
	return logger, nil
}
