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

package ir

import (
	"github.com/viodotcom/jyafn/graph"
	"github.com/viodotcom/jyafn/jyafnerr"
	"github.com/viodotcom/jyafn/layout"
)

// Lower flattens a closed graph.Graph into a Program: a 1:1,
// order-preserving copy of the graph's node vector with explicit value
// Kinds, plus every embedded sub-graph lowered the same way. It applies
// no optimization; constant folding and dead-code elimination are a
// later compiler pass over the result (see the compiler package).
func Lower(g *graph.Graph) (*Program, error) {
	if !g.Closed() {
		return nil, &jyafnerr.CompilationError{Msg: "cannot lower a graph that is still open"}
	}

	subs := make([]*Program, len(g.Subgraphs()))
	for i, sub := range g.Subgraphs() {
		p, err := Lower(sub)
		if err != nil {
			return nil, err
		}
		subs[i] = p
	}

	instrs := make([]Instr, g.Len())
	for i := 0; i < g.Len(); i++ {
		n := g.NodeAt(i)
		instrs[i] = Instr{
			Op:       n.Op,
			Kind:     kindOf(n.Type),
			Operands: n.Operands,
			Imm:      n.Imm,
		}
	}

	var inputLeaves []int
	for i, instr := range instrs {
		if instr.Op == graph.OpInput {
			inputLeaves = append(inputLeaves, i)
		}
	}
	var inputs []InputSlot
	leaf := 0
	for _, in := range g.Inputs() {
		for j := 0; j < in.Layout.Width(); j++ {
			idx := inputLeaves[leaf]
			inputs = append(inputs, InputSlot{Name: in.Name, Kind: instrs[idx].Kind, Instr: idx})
			leaf++
		}
	}

	ret := g.Return()
	if ret == nil {
		return nil, &jyafnerr.CompilationError{Msg: "graph has no return declaration"}
	}

	inputFields := make([]layout.Field, len(g.Inputs()))
	for i, in := range g.Inputs() {
		inputFields[i] = layout.Field{Name: in.Name, Layout: in.Layout}
	}

	return &Program{
		Instrs:       instrs,
		Inputs:       inputs,
		Return:       append([]int(nil), ret.Leaves...),
		InputLayout:  layout.NewStruct(inputFields...),
		ReturnLayout: ret.Layout,
		Symbols:      g.Symbols(),
		Mappings:     g.Mappings(),
		Resources:    g.Resources(),
		Subprograms:  subs,
		Metadata:     g.Metadata(),
	}, nil
}
