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
	"fmt"
	"strconv"
	"strings"

	"github.com/viodotcom/jyafn/graph"
	"github.com/viodotcom/jyafn/ir"
)

// Render dumps p as one instruction per line, `%3 = add %0, %1` style,
// for debugging a folded program without a disassembler. Immediates
// print after the operands, e.g. `%2 = const_sym "us"` or
// `%5 = map_get %0 [mapping 0, leaf 1]`.
func Render(p *ir.Program) string {
	var b strings.Builder
	renderInto(&b, p, 0)
	return b.String()
}

func renderInto(b *strings.Builder, p *ir.Program, depth int) {
	indent := strings.Repeat("  ", depth)
	for i, instr := range p.Instrs {
		fmt.Fprintf(b, "%s%%%d = %s", indent, i, instr.Op)
		for _, o := range instr.Operands {
			fmt.Fprintf(b, " %%%d", o)
		}
		if tail := renderImm(instr); tail != "" {
			b.WriteString(" ")
			b.WriteString(tail)
		}
		b.WriteString("\n")
	}
	fmt.Fprintf(b, "%sreturn", indent)
	for _, idx := range p.Return {
		fmt.Fprintf(b, " %%%d", idx)
	}
	b.WriteString("\n")
	for i, sub := range p.Subprograms {
		fmt.Fprintf(b, "%ssubgraph %d:\n", indent, i)
		renderInto(b, sub, depth+1)
	}
}

func renderImm(instr ir.Instr) string {
	switch instr.Op {
	case graph.OpConst:
		return strconv.FormatFloat(instr.Imm.(float64), 'g', -1, 64)
	case graph.OpConstBool:
		return strconv.FormatBool(instr.Imm.(bool))
	case graph.OpConstSym:
		return fmt.Sprintf("sym %d", instr.Imm)
	case graph.OpConstDT:
		return fmt.Sprintf("%v", instr.Imm)
	case graph.OpParseDT, graph.OpFormatDT:
		return strconv.Quote(instr.Imm.(string))
	case graph.OpMapGet, graph.OpMapGetOr:
		imm := instr.Imm.(graph.MapGetImm)
		return fmt.Sprintf("[mapping %d, leaf %d]", imm.Mapping, imm.Leaf)
	case graph.OpResourceCall:
		imm := instr.Imm.(graph.ResourceCallImm)
		return fmt.Sprintf("[resource %d, %q, leaf %d]", imm.Resource, imm.Method, imm.Leaf)
	case graph.OpCallSubgraph:
		imm := instr.Imm.(graph.CallSubgraphImm)
		return fmt.Sprintf("[subgraph %d, leaf %d]", imm.Subgraph, imm.Leaf)
	case graph.OpBindResource:
		return fmt.Sprintf("[resource %d]", instr.Imm)
	default:
		return ""
	}
}
