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
	"os"

	// Each filter kind self-registers with internal/pql from its own
	// init(), the same way database/sql drivers register via blank
	// import. pqlc must import every kind it wants DecodeFilter to know
	// about.
	_ "github.com/reasv-labs/panoptikon-pql/internal/pql/filters/inbookmarks"
	_ "github.com/reasv-labs/panoptikon-pql/internal/pql/filters/inpaths"
	_ "github.com/reasv-labs/panoptikon-pql/internal/pql/filters/matchpath"
	_ "github.com/reasv-labs/panoptikon-pql/internal/pql/filters/matchtext"
	_ "github.com/reasv-labs/panoptikon-pql/internal/pql/filters/tagfilter"
	_ "github.com/reasv-labs/panoptikon-pql/internal/pql/filters/typein"
)

func main() {
	c := NewCommand()
	if err := c.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
