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
	"github.com/viodotcom/jyafn/jyafnerr"
	"github.com/viodotcom/jyafn/layout"
	"github.com/viodotcom/jyafn/mapping"
)

// MapGetImm is the Imm payload of every OpMapGet/OpMapGetOr node: which
// mapping constant to consult, and which flat leaf of its value layout
// this particular node produces.
type MapGetImm struct {
	Mapping int
	Leaf    int
	NumKey  int // number of leading operands that are the key's leaves
}

// AddMapping registers a built mapping.Table as a graph constant and
// returns its dense index, used by MapGet/MapGetOr.
func (g *Graph) AddMapping(t *mapping.Table) int {
	g.mappings = append(g.mappings, t)
	return len(g.mappings) - 1
}

// MapGet looks key up in the mapping constant at mappingID, returning a
// Value shaped like the mapping's value layout. A key absent at call
// time aborts invocation (spec.md §4.4); use MapGetOr for a default.
func (g *Graph) MapGet(mappingID int, key Value) (Value, error) {
	return g.mapGet(mappingID, key, nil)
}

// MapGetOr is MapGet but substitutes def (checked against the mapping's
// value layout) when key is absent at call time instead of aborting.
func (g *Graph) MapGetOr(mappingID int, key Value, def Value) (Value, error) {
	return g.mapGet(mappingID, key, &def)
}

func (g *Graph) mapGet(mappingID int, key Value, def *Value) (Value, error) {
	if mappingID < 0 || mappingID >= len(g.mappings) {
		return nil, &jyafnerr.BuildError{Op: "map_get", Msg: "no such mapping"}
	}
	t := g.mappings[mappingID]
	keyLeaves, err := flatten(nil, t.KeyLayout(), key, "$key")
	if err != nil {
		return nil, err
	}
	op := OpMapGet
	var defLeaves []int
	if def != nil {
		op = OpMapGetOr
		defLeaves, err = flatten(nil, t.ValueLayout(), *def, "$default")
		if err != nil {
			return nil, err
		}
	}
	leaf := 0
	return buildValue(t.ValueLayout(), func(l layout.Layout) (Ref, error) {
		p, _ := leafPrim(l)
		operands := append([]int(nil), keyLeaves...)
		if defLeaves != nil {
			operands = append(operands, defLeaves[leaf])
		}
		imm := MapGetImm{Mapping: mappingID, Leaf: leaf, NumKey: len(keyLeaves)}
		leaf++
		return g.push(op, p, imm, operands...)
	})
}
