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

package graph

import (
	"fmt"

	"github.com/dchest/siphash"
)

// hashKey0/hashKey1 are fixed, arbitrary 64-bit halves of a siphash key.
// Hash is a content fingerprint, not a MAC, so a fixed key is fine: it
// only needs to be stable across calls within one process, mirroring
// how vm's own content hashing uses a fixed key rather than a random
// one.
const (
	hashKey0 = 0x6a7966_616e6a79
	hashKey1 = 0x7379_6e6f707369
)

// Hash returns a siphash-2-4 content fingerprint of g's node vector,
// input declarations, and return declaration. Two graphs built from
// identical sequences of operations hash equal. Neither the compiler
// nor package artifact consumes it: sub-graphs are not deduplicated by
// hash, and an artifact's content_hash is a separate blake2b digest.
func (g *Graph) Hash() uint64 {
	var buf []byte
	for _, n := range g.nodes {
		buf = appendUvarint(buf, uint64(n.Op))
		buf = appendUvarint(buf, uint64(n.Type))
		buf = appendUvarint(buf, uint64(len(n.Operands)))
		for _, o := range n.Operands {
			buf = appendUvarint(buf, uint64(o))
		}
		buf = append(buf, fmt.Sprintf("%v", n.Imm)...)
		buf = append(buf, 0)
	}
	for _, in := range g.inputs {
		buf = append(buf, in.Name...)
		buf = append(buf, 0)
	}
	if g.ret != nil {
		for _, l := range g.ret.Leaves {
			buf = appendUvarint(buf, uint64(l))
		}
	}
	return siphash.Hash(hashKey0, hashKey1, buf)
}

func appendUvarint(buf []byte, v uint64) []byte {
	var tmp [10]byte
	n := 0
	for v >= 0x80 {
		tmp[n] = byte(v) | 0x80
		v >>= 7
		n++
	}
	tmp[n] = byte(v)
	n++
	return append(buf, tmp[:n]...)
}
