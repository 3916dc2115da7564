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

// Package ir implements the compiler's low-level, SSA-shaped
// intermediate representation: a flat instruction list, produced
// unoptimized by Lower and then constant-folded and dead-code-eliminated
// by package compiler before code generation.
// Instr's {Kind, Operands} shape is a direct generalization of
// vm.bcArgType's "single-letter stack-slot kind, dispatched off an
// opcode" scheme, scaled from vm's dozen-odd slot classes down to the
// four value kinds jyafn's back end actually needs to move through
// registers/stack slots: W(ord), L(ogical), S(ymbol), D(ate-time).
package ir

import (
	"github.com/viodotcom/jyafn/graph"
	"github.com/viodotcom/jyafn/layout"
	"github.com/viodotcom/jyafn/mapping"
	"github.com/viodotcom/jyafn/resource"
	"github.com/viodotcom/jyafn/symbol"
)

// Kind is the value kind an IR instruction's result occupies, the
// lowered counterpart of graph.Prim. A Ptr reference (graph.PrimPtr)
// lowers to a plain W(ord): by the time code generation sees it, a
// bound resource handle is just an integer index into the artifact's
// resource table.
type Kind int

const (
	KindW Kind = iota // word: an f64 scalar
	KindL             // logical: a bool
	KindS             // symbol: an interned string id
	KindD             // date-time: microseconds since the epoch
)

func (k Kind) String() string {
	switch k {
	case KindW:
		return "W"
	case KindL:
		return "L"
	case KindS:
		return "S"
	case KindD:
		return "D"
	default:
		return "?"
	}
}

// Instr is one instruction of the lowered program. Op is reused
// directly from graph.Op: the IR does not rename operations, it only
// flattens them into an SSA list whose value kinds are explicit.
type Instr struct {
	Op       graph.Op
	Kind     Kind
	Operands []int
	Imm      any
}

// Program is a fully lowered function body: Lower's output, and (once
// package compiler has folded it) the hand-off to code generation.
type Program struct {
	Instrs []Instr

	Inputs []InputSlot
	Return []int // instruction indices, in the return layout's flat order

	// InputLayout is a Struct layout over the graph's declared top-level
	// inputs, named and ordered exactly as Graph.Inputs() declared them.
	// Its flat encoding order matches Inputs exactly (both walk the same
	// declaration order, then each input's own Layout structurally), so
	// it is what a host-facing caller (package runtime) encodes a
	// structured argument value against before handing the flattened
	// leaves to code/engine.
	InputLayout layout.Layout
	// ReturnLayout is the graph's declared return layout, carried
	// through verbatim so a caller can decode Return's flat leaves back
	// into a structured host value.
	ReturnLayout layout.Layout

	Symbols   *symbol.Table
	Mappings  []*mapping.Table
	Resources *resource.Table

	// Subprograms holds every embedded sub-graph, lowered once; an
	// OpCallSubgraph instruction's Imm (graph.CallSubgraphImm) indexes
	// here directly.
	Subprograms []*Program

	Metadata map[string]string
}

// InputSlot is one leaf of a declared graph input, in the input's flat
// encoding order, after lowering.
type InputSlot struct {
	Name  string
	Kind  Kind
	Instr int // the OpInput instruction index producing this slot
}

func kindOf(p graph.Prim) Kind {
	switch p {
	case graph.PrimBool:
		return KindL
	case graph.PrimSymbol:
		return KindS
	case graph.PrimDateTime:
		return KindD
	default:
		return KindW
	}
}
