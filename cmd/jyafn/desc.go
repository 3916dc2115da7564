// Copyright (C) 2022 Sneller, Inc.
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <http://www.gnu.org/licenses/>.

package main

import (
	"bytes"
	"fmt"
	"os"

	"github.com/viodotcom/jyafn/artifact"
	"github.com/viodotcom/jyafn/code"
	"github.com/viodotcom/jyafn/runtime"
)

// entry point for 'jyafn [-graph] desc <artifact>'
func desc(path string, withGraph bool) {
	data, err := os.ReadFile(path)
	if err != nil {
		exitf("reading %s: %s", path, err)
	}

	out, err := artifact.DescribeJSON(data)
	if err != nil {
		exitf("describing %s: %s", path, err)
	}
	fmt.Fprintln(os.Stdout, string(out))

	if !withGraph {
		return
	}

	fn, err := runtime.Load(bytes.NewReader(data))
	if err != nil {
		exitf("linking %s: %s", path, err)
	}
	defer fn.Close()
	fmt.Fprint(os.Stdout, code.Render(fn.Program()))
}
