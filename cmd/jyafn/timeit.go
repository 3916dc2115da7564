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
	"context"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/viodotcom/jyafn/runtime"
)

// entry point for 'jyafn [-n N] timeit <artifact> <json>'
func timeit(path, jsonArg string, n int) {
	if n <= 0 {
		exitf("timeit: -n must be positive, got %d", n)
	}
	fn, err := runtime.LoadFile(path)
	if err != nil {
		exitf("loading %s: %s", path, err)
	}
	defer fn.Close()

	in := []byte(jsonArg)
	ctx := context.Background()
	samples := make([]time.Duration, n)
	for i := 0; i < n; i++ {
		start := time.Now()
		if _, err := fn.CallJSON(ctx, in); err != nil {
			exitf("call %d: %s", i, err)
		}
		samples[i] = time.Since(start)
	}

	sort.Slice(samples, func(i, j int) bool { return samples[i] < samples[j] })
	min := samples[0]
	median := samples[len(samples)/2]
	p99 := samples[percentileIndex(len(samples), 99)]
	fmt.Fprintf(os.Stdout, "n=%d min=%s median=%s p99=%s\n", n, min, median, p99)
}

func percentileIndex(n, pct int) int {
	idx := (n*pct + 99) / 100 // ceil(n*pct/100)
	if idx >= n {
		idx = n - 1
	}
	return idx
}
