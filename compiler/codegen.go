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
	"github.com/viodotcom/jyafn/code"
	"github.com/viodotcom/jyafn/date"
	"github.com/viodotcom/jyafn/graph"
	"github.com/viodotcom/jyafn/ir"
	"github.com/viodotcom/jyafn/symbol"
)

// Compile lowers g to IR, folds it, and walks the result into a
// code.Program ready for code/engine or for serialization by package
// artifact. g must already be closed (graph.Graph.Close).
func Compile(g *graph.Graph) (*code.Program, error) {
	if err := checkWordSize(); err != nil {
		return nil, err
	}
	lowered, err := ir.Lower(g)
	if err != nil {
		return nil, err
	}
	folded, err := Fold(lowered)
	if err != nil {
		return nil, err
	}
	return codegen(folded), nil
}

func codegen(p *ir.Program) *code.Program {
	instrs := make([]code.Instr, len(p.Instrs))
	for i, in := range p.Instrs {
		instrs[i] = convertInstr(in)
	}

	inputs := make([]code.InputSlot, len(p.Inputs))
	for i, s := range p.Inputs {
		inputs[i] = code.InputSlot{Name: s.Name, Kind: code.Kind(s.Kind), Instr: s.Instr}
	}

	subs := make([]*code.Program, len(p.Subprograms))
	for i, sub := range p.Subprograms {
		subs[i] = codegen(sub)
	}

	return &code.Program{
		Instrs:       instrs,
		Inputs:       inputs,
		Return:       append([]int(nil), p.Return...),
		InputLayout:  p.InputLayout,
		ReturnLayout: p.ReturnLayout,
		Symbols:      p.Symbols,
		Mappings:     p.Mappings,
		Resources:    p.Resources,
		Subprograms:  subs,
		Metadata:     p.Metadata,
	}
}

func convertInstr(in ir.Instr) code.Instr {
	out := code.Instr{
		Op:       in.Op,
		Kind:     code.Kind(in.Kind),
		Operands: append([]int(nil), in.Operands...),
	}
	switch in.Op {
	case graph.OpConst:
		out.Float = in.Imm.(float64)
	case graph.OpConstBool:
		out.Bool = in.Imm.(bool)
	case graph.OpConstSym:
		out.Sym = in.Imm.(symbol.ID)
	case graph.OpConstDT:
		out.DT = in.Imm.(date.Time)
	case graph.OpParseDT, graph.OpFormatDT, graph.OpAssert:
		out.Str = in.Imm.(string)
	case graph.OpMapGet, graph.OpMapGetOr:
		imm := in.Imm.(graph.MapGetImm)
		out.Index = imm.Mapping
		out.Leaf = imm.Leaf
		out.NumKey = imm.NumKey
	case graph.OpResourceCall:
		imm := in.Imm.(graph.ResourceCallImm)
		out.Index = imm.Resource
		out.Str = imm.Method
		out.Leaf = imm.Leaf
	case graph.OpCallSubgraph:
		imm := in.Imm.(graph.CallSubgraphImm)
		out.Index = imm.Subgraph
		out.Leaf = imm.Leaf
	case graph.OpBindResource:
		out.Index = in.Imm.(int)
	}
	return out
}
