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

package compiler

import (
	"errors"
	"runtime"
)

// ErrUnsupportedWordSize is returned by Compile on a 32-bit GOARCH: the
// word encoding package layout and package code share (a flat uint64
// per leaf, per layout/value.go) assumes a 64-bit machine word
// throughout, the same assumption vm's own bytecode makes of its host.
var ErrUnsupportedWordSize = errors.New("compiler: jyafn requires a 64-bit word size")

func checkWordSize() error {
	switch runtime.GOARCH {
	case "386", "arm", "mips", "mipsle":
		return ErrUnsupportedWordSize
	default:
		return nil
	}
}
