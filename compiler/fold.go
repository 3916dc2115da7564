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

// Package compiler implements C5's back half: folding the IR's constant
// subexpressions, dropping dead code, and turning what remains into a
// code.Program the engine can run. The fold pass is a small
// tree-walking interpreter over graph.Op in the spirit of vm's own
// constant-propagation pass ahead of bytecode lowering, scaled down to
// jyafn's much smaller operation set.
package compiler

import (
	"github.com/viodotcom/jyafn/date"
	"github.com/viodotcom/jyafn/graph"
	"github.com/viodotcom/jyafn/ir"
	"github.com/viodotcom/jyafn/jyafnerr"
	"github.com/viodotcom/jyafn/symbol"
)

// sideEffecting reports whether instructions of op must be kept even
// when nothing downstream references their result: they either abort
// invocation (assert) or touch state the compiler cannot fully see
// through (a mapping table, a resource, a sub-graph).
func sideEffecting(op graph.Op) bool {
	switch op {
	case graph.OpAssert, graph.OpResourceCall, graph.OpMapGet, graph.OpMapGetOr, graph.OpCallSubgraph:
		return true
	default:
		return false
	}
}

// Fold constant-folds and dead-code-eliminates p, recursing into every
// embedded sub-program first so that a sub-graph call made with
// all-constant arguments still benefits (call_subgraph itself is never
// folded away, per sideEffecting, but its callee is folded just the
// same as the top-level program).
func Fold(p *ir.Program) (*ir.Program, error) {
	subs := make([]*ir.Program, len(p.Subprograms))
	for i, sub := range p.Subprograms {
		folded, err := Fold(sub)
		if err != nil {
			return nil, err
		}
		subs[i] = folded
	}

	n := len(p.Instrs)
	consts := make([]any, n)
	isConst := make([]bool, n)
	dropped := make([]bool, n)
	alias := make([]int, n)
	for i := range alias {
		alias[i] = i
	}

	resolve := func(i int) int {
		for alias[i] != i {
			i = alias[i]
		}
		return i
	}
	operand := func(i int) (any, bool) {
		i = resolve(i)
		if isConst[i] {
			return consts[i], true
		}
		return nil, false
	}

	for i, instr := range p.Instrs {
		switch instr.Op {
		case graph.OpChoose:
			if condV, ok := operand(instr.Operands[0]); ok {
				src := instr.Operands[2]
				if l(condV) {
					src = instr.Operands[1]
				}
				alias[i] = resolve(src)
				dropped[i] = true
			}
			continue
		case graph.OpAssert:
			if condV, ok := operand(instr.Operands[0]); ok {
				if !l(condV) {
					msg, _ := instr.Imm.(string)
					return nil, &jyafnerr.CompilationError{Msg: "assertion always fails at compile time: " + msg}
				}
				dropped[i] = true
			}
			continue
		case graph.OpMapGet, graph.OpMapGetOr, graph.OpResourceCall, graph.OpCallSubgraph, graph.OpBindResource:
			continue
		}

		if v, ok := eval(p.Symbols, instr, operand); ok {
			isConst[i] = true
			consts[i] = v
		}
	}

	live := make([]bool, n)
	var mark func(i int)
	mark = func(i int) {
		i = resolve(i)
		if live[i] {
			return
		}
		live[i] = true
		if isConst[i] {
			return
		}
		for _, o := range p.Instrs[i].Operands {
			mark(o)
		}
	}
	for _, idx := range p.Return {
		mark(idx)
	}
	for i, instr := range p.Instrs {
		if !dropped[i] && sideEffecting(instr.Op) {
			mark(i)
		}
	}
	for _, slot := range p.Inputs {
		mark(slot.Instr)
	}

	newIndex := make([]int, n)
	for i := range newIndex {
		newIndex[i] = -1
	}
	remap := func(o int) int { return newIndex[resolve(o)] }

	var out []ir.Instr
	for i := range p.Instrs {
		if resolve(i) != i || !live[i] || dropped[i] {
			continue
		}
		var ni ir.Instr
		if isConst[i] {
			ni = constInstr(p.Symbols, p.Instrs[i].Kind, consts[i])
		} else {
			orig := p.Instrs[i]
			operands := make([]int, len(orig.Operands))
			for j, o := range orig.Operands {
				operands[j] = remap(o)
			}
			ni = ir.Instr{Op: orig.Op, Kind: orig.Kind, Operands: operands, Imm: orig.Imm}
		}
		newIndex[i] = len(out)
		out = append(out, ni)
	}

	newInputs := make([]ir.InputSlot, len(p.Inputs))
	for i, slot := range p.Inputs {
		newInputs[i] = ir.InputSlot{Name: slot.Name, Kind: slot.Kind, Instr: remap(slot.Instr)}
	}
	newReturn := make([]int, len(p.Return))
	for i, idx := range p.Return {
		newReturn[i] = remap(idx)
	}

	return &ir.Program{
		Instrs:       out,
		Inputs:       newInputs,
		Return:       newReturn,
		InputLayout:  p.InputLayout,
		ReturnLayout: p.ReturnLayout,
		Symbols:      p.Symbols,
		Mappings:     p.Mappings,
		Resources:    p.Resources,
		Subprograms:  subs,
		Metadata:     p.Metadata,
	}, nil
}

// constInstr builds the literal const/const_bool/const_sym/const_dt
// instruction standing for v, interning v into symtab first if kind is
// symbolic and v was produced at fold time rather than copied from an
// existing const_sym (e.g. a format_dt call folded against a constant
// date-time).
func constInstr(symtab *symbol.Table, kind ir.Kind, v any) ir.Instr {
	switch kind {
	case ir.KindL:
		return ir.Instr{Op: graph.OpConstBool, Kind: ir.KindL, Imm: v.(bool)}
	case ir.KindS:
		return ir.Instr{Op: graph.OpConstSym, Kind: ir.KindS, Imm: symtab.Intern(s(v))}
	case ir.KindD:
		return ir.Instr{Op: graph.OpConstDT, Kind: ir.KindD, Imm: v.(date.Time)}
	default:
		return ir.Instr{Op: graph.OpConst, Kind: ir.KindW, Imm: w(v)}
	}
}
