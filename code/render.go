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

package code

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/viodotcom/jyafn/graph"
)

// Render dumps p as one instruction per line, `%3 = add %0, %1` style,
// the same shape compiler.Render prints for a folded ir.Program, but
// over the linked Instr form cmd/jyafn's "desc --graph" has on hand once
// an artifact is loaded (the ir.Program a graph folded into no longer
// exists past codegen).
func Render(p *Program) string {
	var b strings.Builder
	renderInto(&b, p, 0)
	return b.String()
}

func renderInto(b *strings.Builder, p *Program, depth int) {
	indent := strings.Repeat("  ", depth)
	for i, instr := range p.Instrs {
		fmt.Fprintf(b, "%s%%%d = %s:%s", indent, i, instr.Op, instr.Kind)
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

func renderImm(instr Instr) string {
	switch instr.Op {
	case graph.OpConst:
		return strconv.FormatFloat(instr.Float, 'g', -1, 64)
	case graph.OpConstBool:
		return strconv.FormatBool(instr.Bool)
	case graph.OpConstSym:
		return fmt.Sprintf("sym %d", instr.Sym)
	case graph.OpConstDT:
		return fmt.Sprintf("%v", instr.DT)
	case graph.OpParseDT, graph.OpFormatDT:
		return strconv.Quote(instr.Str)
	case graph.OpMapGet, graph.OpMapGetOr:
		return fmt.Sprintf("[mapping %d, leaf %d]", instr.Index, instr.Leaf)
	case graph.OpResourceCall:
		return fmt.Sprintf("[resource %d, %q, leaf %d]", instr.Index, instr.Str, instr.Leaf)
	case graph.OpCallSubgraph:
		return fmt.Sprintf("[subgraph %d, leaf %d]", instr.Index, instr.Leaf)
	case graph.OpBindResource:
		return fmt.Sprintf("[resource %d]", instr.Index)
	default:
		return ""
	}
}
