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

// Package engine is jyafn's dispatch-loop interpreter for a compiled
// code.Program: the counterpart of vm's evalbc dispatch loop, except
// each "instruction" is a Go case in a switch rather than a hand-written
// assembly routine. A call allocates one Frame (four parallel register
// arrays, one slot per instruction index) and walks the program once in
// order, since the DAG invariant already guarantees every operand was
// computed earlier in the same pass.
package engine

import (
	"context"
	"math"

	"github.com/viodotcom/jyafn/code"
	"github.com/viodotcom/jyafn/date"
	"github.com/viodotcom/jyafn/graph"
	"github.com/viodotcom/jyafn/jyafnerr"
	"github.com/viodotcom/jyafn/symbol"
)

// Frame holds one call's working registers. Only one of the four
// arrays is meaningful at any given index, selected by that
// instruction's Kind; keeping them as separate typed slices instead of
// one []any avoids boxing every scalar result.
type Frame struct {
	w []float64
	l []bool
	s []string
	d []date.Time
}

func newFrame(n int) *Frame {
	return &Frame{
		w: make([]float64, n),
		l: make([]bool, n),
		s: make([]string, n),
		d: make([]date.Time, n),
	}
}

// callDepthLimit guards against runaway sub-graph recursion in a
// malformed artifact (the graph builder already rejects recursive
// embedding, so this should never trigger against honestly-produced
// code; it exists purely as a backstop, the same role
// containsTransitively plays in package graph).
const callDepthLimit = 1000

// Run executes p against inputs, one entry per p.Inputs in order,
// already typed to match each slot's Kind (float64, bool, string or
// date.Time), and returns p's declared return values encoded the same
// way, in p.Return's flat order.
func Run(ctx context.Context, p *code.Program, inputs []any) ([]any, error) {
	return run(ctx, p, inputs, 0)
}

func run(ctx context.Context, p *code.Program, inputs []any, depth int) ([]any, error) {
	if depth > callDepthLimit {
		return nil, &jyafnerr.InvocationError{Msg: "sub-graph call depth exceeded"}
	}
	if len(inputs) != len(p.Inputs) {
		return nil, &jyafnerr.InvocationError{Msg: "wrong number of input leaves"}
	}

	f := newFrame(len(p.Instrs))
	filled := make([]bool, len(p.Instrs))
	for i, slot := range p.Inputs {
		if err := storeAny(f, slot.Instr, slot.Kind, inputs[i]); err != nil {
			return nil, err
		}
		filled[slot.Instr] = true
	}

	for i, instr := range p.Instrs {
		if filled[i] {
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := exec(ctx, f, p, i, instr, depth); err != nil {
			return nil, err
		}
	}

	out := make([]any, len(p.Return))
	for i, idx := range p.Return {
		out[i] = loadAny(f, p.Instrs[idx].Kind, idx)
	}
	return out, nil
}

func getW(f *Frame, i int) float64    { return f.w[i] }
func getL(f *Frame, i int) bool       { return f.l[i] }
func getS(f *Frame, i int) string     { return f.s[i] }
func getD(f *Frame, i int) date.Time  { return f.d[i] }
func setW(f *Frame, i int, v float64) { f.w[i] = v }
func setL(f *Frame, i int, v bool)    { f.l[i] = v }
func setS(f *Frame, i int, v string)  { f.s[i] = v }
func setD(f *Frame, i int, v date.Time) { f.d[i] = v }

func loadAny(f *Frame, k code.Kind, i int) any {
	switch k {
	case code.KindW:
		return getW(f, i)
	case code.KindL:
		return getL(f, i)
	case code.KindS:
		return getS(f, i)
	default:
		return getD(f, i)
	}
}

func storeAny(f *Frame, i int, k code.Kind, v any) error {
	switch k {
	case code.KindW:
		x, ok := v.(float64)
		if !ok {
			return &jyafnerr.InvocationError{Msg: "expected a scalar input"}
		}
		setW(f, i, x)
	case code.KindL:
		x, ok := v.(bool)
		if !ok {
			return &jyafnerr.InvocationError{Msg: "expected a bool input"}
		}
		setL(f, i, x)
	case code.KindS:
		x, ok := v.(string)
		if !ok {
			return &jyafnerr.InvocationError{Msg: "expected a symbol input"}
		}
		setS(f, i, x)
	case code.KindD:
		x, ok := v.(date.Time)
		if !ok {
			return &jyafnerr.InvocationError{Msg: "expected a datetime input"}
		}
		setD(f, i, x)
	}
	return nil
}

// wordOf re-encodes an already-computed register as a flat word, the
// same shape layout.Encode produces for a single primitive leaf, for
// handing to a mapping lookup or a resource method call.
func wordOf(f *Frame, symtab *symbol.Table, k code.Kind, i int) uint64 {
	switch k {
	case code.KindW:
		return math.Float64bits(getW(f, i))
	case code.KindL:
		if getL(f, i) {
			return 1
		}
		return 0
	case code.KindS:
		id, ok := symtab.Symbolize(getS(f, i))
		if !ok {
			// Never interned statically (e.g. produced by format_dt at
			// call time): it cannot equal any key the table was built
			// with, so any fixed id outside the table's live range
			// correctly misses every lookup.
			return ^uint64(0)
		}
		return uint64(id)
	default:
		return uint64(getD(f, i).UnixMicro())
	}
}

// storeWord is wordOf's inverse: it decodes a single flat word produced
// by a mapping lookup or resource call back into register i.
func storeWord(f *Frame, symtab *symbol.Table, k code.Kind, i int, word uint64) error {
	switch k {
	case code.KindW:
		setW(f, i, math.Float64frombits(word))
	case code.KindL:
		setL(f, i, word != 0)
	case code.KindS:
		s, ok := symtab.Lookup(symbol.ID(word))
		if !ok {
			return &jyafnerr.InvocationError{Msg: "unknown symbol id produced at call time"}
		}
		setS(f, i, s)
	case code.KindD:
		setD(f, i, date.UnixMicro(int64(word)))
	}
	return nil
}

func exec(ctx context.Context, f *Frame, p *code.Program, i int, instr code.Instr, depth int) error {
	ops := instr.Operands
	switch instr.Op {
	case graph.OpConst:
		setW(f, i, instr.Float)
	case graph.OpConstBool:
		setL(f, i, instr.Bool)
	case graph.OpConstSym:
		s, ok := p.Symbols.Lookup(instr.Sym)
		if !ok {
			return &jyafnerr.InvocationError{Msg: "unknown interned symbol id"}
		}
		setS(f, i, s)
	case graph.OpConstDT:
		setD(f, i, instr.DT)

	case graph.OpAdd:
		setW(f, i, getW(f, ops[0])+getW(f, ops[1]))
	case graph.OpSub:
		setW(f, i, getW(f, ops[0])-getW(f, ops[1]))
	case graph.OpMul:
		setW(f, i, getW(f, ops[0])*getW(f, ops[1]))
	case graph.OpDiv:
		setW(f, i, getW(f, ops[0])/getW(f, ops[1]))
	case graph.OpRem:
		setW(f, i, math.Mod(getW(f, ops[0]), getW(f, ops[1])))
	case graph.OpNeg:
		setW(f, i, -getW(f, ops[0]))
	case graph.OpAbs:
		setW(f, i, math.Abs(getW(f, ops[0])))
	case graph.OpPow:
		setW(f, i, math.Pow(getW(f, ops[0]), getW(f, ops[1])))
	case graph.OpSqrt:
		setW(f, i, math.Sqrt(getW(f, ops[0])))
	case graph.OpExp:
		setW(f, i, math.Exp(getW(f, ops[0])))
	case graph.OpLn:
		setW(f, i, math.Log(getW(f, ops[0])))
	case graph.OpLog:
		setW(f, i, math.Log(getW(f, ops[0]))/math.Log(getW(f, ops[1])))
	case graph.OpSin:
		setW(f, i, math.Sin(getW(f, ops[0])))
	case graph.OpCos:
		setW(f, i, math.Cos(getW(f, ops[0])))
	case graph.OpTan:
		setW(f, i, math.Tan(getW(f, ops[0])))
	case graph.OpAsin:
		setW(f, i, math.Asin(getW(f, ops[0])))
	case graph.OpAcos:
		setW(f, i, math.Acos(getW(f, ops[0])))
	case graph.OpAtan:
		setW(f, i, math.Atan(getW(f, ops[0])))
	case graph.OpAtan2:
		setW(f, i, math.Atan2(getW(f, ops[0]), getW(f, ops[1])))
	case graph.OpFloor:
		setW(f, i, math.Floor(getW(f, ops[0])))
	case graph.OpCeil:
		setW(f, i, math.Ceil(getW(f, ops[0])))
	case graph.OpRound:
		setW(f, i, math.Round(getW(f, ops[0])))
	case graph.OpMin:
		setW(f, i, math.Min(getW(f, ops[0]), getW(f, ops[1])))
	case graph.OpMax:
		setW(f, i, math.Max(getW(f, ops[0]), getW(f, ops[1])))
	case graph.OpIsNaN:
		setL(f, i, math.IsNaN(getW(f, ops[0])))
	case graph.OpIsFinite:
		v := getW(f, ops[0])
		setL(f, i, !math.IsNaN(v) && !math.IsInf(v, 0))
	case graph.OpIsInfinite:
		setL(f, i, math.IsInf(getW(f, ops[0]), 0))

	case graph.OpEq:
		setL(f, i, getW(f, ops[0]) == getW(f, ops[1]))
	case graph.OpNe:
		setL(f, i, getW(f, ops[0]) != getW(f, ops[1]))
	case graph.OpLt:
		setL(f, i, getW(f, ops[0]) < getW(f, ops[1]))
	case graph.OpLe:
		setL(f, i, getW(f, ops[0]) <= getW(f, ops[1]))
	case graph.OpGt:
		setL(f, i, getW(f, ops[0]) > getW(f, ops[1]))
	case graph.OpGe:
		setL(f, i, getW(f, ops[0]) >= getW(f, ops[1]))
	case graph.OpSymEq:
		setL(f, i, getS(f, ops[0]) == getS(f, ops[1]))

	case graph.OpAnd:
		setL(f, i, getL(f, ops[0]) && getL(f, ops[1]))
	case graph.OpOr:
		setL(f, i, getL(f, ops[0]) || getL(f, ops[1]))
	case graph.OpXor:
		setL(f, i, getL(f, ops[0]) != getL(f, ops[1]))
	case graph.OpNot:
		setL(f, i, !getL(f, ops[0]))
	case graph.OpChoose:
		cond := getL(f, ops[0])
		src := ops[2]
		if cond {
			src = ops[1]
		}
		switch instr.Kind {
		case code.KindW:
			setW(f, i, getW(f, src))
		case code.KindL:
			setL(f, i, getL(f, src))
		case code.KindS:
			setS(f, i, getS(f, src))
		case code.KindD:
			setD(f, i, getD(f, src))
		}
	case graph.OpAssert:
		if !getL(f, ops[0]) {
			return &jyafnerr.InvocationError{Msg: instr.Str}
		}

	case graph.OpFromTimestamp:
		sec := getW(f, ops[0])
		whole := math.Trunc(sec)
		setD(f, i, date.Unix(int64(whole), int64((sec-whole)*1e9)))
	case graph.OpTimestamp:
		setW(f, i, float64(getD(f, ops[0]).UnixMicro())/1e6)
	case graph.OpDTYear:
		setW(f, i, float64(getD(f, ops[0]).Year()))
	case graph.OpDTMonth:
		setW(f, i, float64(getD(f, ops[0]).Month()))
	case graph.OpDTDay:
		setW(f, i, float64(getD(f, ops[0]).Day()))
	case graph.OpDTHour:
		setW(f, i, float64(getD(f, ops[0]).Hour()))
	case graph.OpDTMinute:
		setW(f, i, float64(getD(f, ops[0]).Minute()))
	case graph.OpDTSecond:
		setW(f, i, float64(getD(f, ops[0]).Second()))
	case graph.OpDTMicrosecond:
		setW(f, i, float64(getD(f, ops[0]).Microsecond()))
	case graph.OpParseDT:
		s := getS(f, ops[0])
		t, ok := date.ParseFormat(s, instr.Str)
		if !ok {
			return &jyafnerr.InvocationError{Msg: "cannot parse " + s + " as a datetime"}
		}
		setD(f, i, t)
	case graph.OpFormatDT:
		setS(f, i, date.FormatString(getD(f, ops[0]), instr.Str))

	case graph.OpMapGet, graph.OpMapGetOr:
		return execMapGet(f, p, i, instr)
	case graph.OpResourceCall:
		return execResourceCall(f, p, i, instr)
	case graph.OpCallSubgraph:
		return execCallSubgraph(ctx, f, p, i, instr, depth)
	case graph.OpBindResource:
		setW(f, i, float64(instr.Index))

	default:
		return &jyafnerr.InvocationError{Msg: "unsupported instruction at runtime"}
	}
	return nil
}

func execMapGet(f *Frame, p *code.Program, i int, instr code.Instr) error {
	m := p.Mappings[instr.Index]
	key := make([]uint64, instr.NumKey)
	for j := 0; j < instr.NumKey; j++ {
		key[j] = wordOf(f, p.Symbols, kindOfOperand(p, instr.Operands[j]), instr.Operands[j])
	}
	if vw, ok := m.GetWords(key); ok {
		return storeWord(f, p.Symbols, instr.Kind, i, vw[instr.Leaf])
	}
	if instr.Op == graph.OpMapGet {
		return &jyafnerr.InvocationError{Msg: "mapping key not found"}
	}
	// map_get_or: the last operand is this leaf's own default value.
	def := instr.Operands[len(instr.Operands)-1]
	return copyReg(f, instr.Kind, i, def)
}

func execResourceCall(f *Frame, p *code.Program, i int, instr code.Instr) error {
	if instr.ResolvedMethod == nil {
		return &jyafnerr.InvocationError{Msg: "program is not linked: no resolved resource method"}
	}
	in := make([]uint64, len(instr.Operands))
	for j, o := range instr.Operands {
		in[j] = wordOf(f, p.Symbols, kindOfOperand(p, o), o)
	}
	out, err := instr.ResolvedMethod.Call(in)
	if err != nil {
		return err
	}
	return storeWord(f, p.Symbols, instr.Kind, i, out[instr.Leaf])
}

func execCallSubgraph(ctx context.Context, f *Frame, p *code.Program, i int, instr code.Instr, depth int) error {
	sub := p.Subprograms[instr.Index]
	args := make([]any, len(instr.Operands))
	for j, o := range instr.Operands {
		args[j] = loadAny(f, kindOfOperand(p, o), o)
	}
	outs, err := run(ctx, sub, args, depth+1)
	if err != nil {
		return err
	}
	return storeAny(f, i, instr.Kind, outs[instr.Leaf])
}

func kindOfOperand(p *code.Program, idx int) code.Kind { return p.Instrs[idx].Kind }

func copyReg(f *Frame, k code.Kind, dst, src int) error {
	switch k {
	case code.KindW:
		setW(f, dst, getW(f, src))
	case code.KindL:
		setL(f, dst, getL(f, src))
	case code.KindS:
		setS(f, dst, getS(f, src))
	case code.KindD:
		setD(f, dst, getD(f, src))
	}
	return nil
}

