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

package gls

import "runtime"

// stackHeader fills buf with the first line of this goroutine's stack
// trace and returns the number of bytes written.
func stackHeader(buf []byte) int {
	var full [128]byte
	n := runtime.Stack(full[:], false)
	for i := 0; i < n; i++ {
		if full[i] == '\n' {
			return copy(buf, full[:i])
		}
	}
	return copy(buf, full[:n])
}
