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
	"math"

	"github.com/viodotcom/jyafn/date"
	"github.com/viodotcom/jyafn/graph"
	"github.com/viodotcom/jyafn/ir"
	"github.com/viodotcom/jyafn/symbol"
)

// foldedSymbol marks a string value that folding has produced (e.g. via
// format_dt on a constant date-time) but that has not yet been interned
// in the program's symbol table. eval itself never interns - only Fold
// does, once it has decided the instruction is being kept as a
// const_sym - so two foldable paths that happen to produce the same
// text don't race to intern it twice.
type foldedSymbol string

// eval evaluates instr assuming every one of its operands is already
// known to be constant, returning (value, true) if instr itself folds
// to a constant, or (nil, false) if this op is never evaluated at
// compile time (map_get, resource_call, call_subgraph and choose/assert,
// which Fold handles specially).
//
// operand(i) returns the already-folded constant at program index i, or
// (nil, false) if index i did not fold.
func eval(symtab *symbol.Table, instr ir.Instr, operand func(int) (any, bool)) (any, bool) {
	args := make([]any, len(instr.Operands))
	for i, o := range instr.Operands {
		v, ok := operand(o)
		if !ok {
			return nil, false
		}
		args[i] = v
	}

	switch instr.Op {
	case graph.OpConst:
		return instr.Imm.(float64), true
	case graph.OpConstBool:
		return instr.Imm.(bool), true
	case graph.OpConstSym:
		s, ok := symtab.Lookup(instr.Imm.(symbol.ID))
		if !ok {
			return nil, false
		}
		return s, true
	case graph.OpConstDT:
		return instr.Imm.(date.Time), true

	case graph.OpAdd:
		return w(args[0]) + w(args[1]), true
	case graph.OpSub:
		return w(args[0]) - w(args[1]), true
	case graph.OpMul:
		return w(args[0]) * w(args[1]), true
	case graph.OpDiv:
		return w(args[0]) / w(args[1]), true
	case graph.OpRem:
		return math.Mod(w(args[0]), w(args[1])), true
	case graph.OpNeg:
		return -w(args[0]), true
	case graph.OpAbs:
		return math.Abs(w(args[0])), true
	case graph.OpPow:
		return math.Pow(w(args[0]), w(args[1])), true
	case graph.OpSqrt:
		return math.Sqrt(w(args[0])), true
	case graph.OpExp:
		return math.Exp(w(args[0])), true
	case graph.OpLn:
		return math.Log(w(args[0])), true
	case graph.OpLog:
		return math.Log(w(args[0])) / math.Log(w(args[1])), true
	case graph.OpSin:
		return math.Sin(w(args[0])), true
	case graph.OpCos:
		return math.Cos(w(args[0])), true
	case graph.OpTan:
		return math.Tan(w(args[0])), true
	case graph.OpAsin:
		return math.Asin(w(args[0])), true
	case graph.OpAcos:
		return math.Acos(w(args[0])), true
	case graph.OpAtan:
		return math.Atan(w(args[0])), true
	case graph.OpAtan2:
		return math.Atan2(w(args[0]), w(args[1])), true
	case graph.OpFloor:
		return math.Floor(w(args[0])), true
	case graph.OpCeil:
		return math.Ceil(w(args[0])), true
	case graph.OpRound:
		return math.Round(w(args[0])), true
	case graph.OpMin:
		return math.Min(w(args[0]), w(args[1])), true
	case graph.OpMax:
		return math.Max(w(args[0]), w(args[1])), true
	case graph.OpIsNaN:
		return math.IsNaN(w(args[0])), true
	case graph.OpIsFinite:
		v := w(args[0])
		return !math.IsNaN(v) && !math.IsInf(v, 0), true
	case graph.OpIsInfinite:
		return math.IsInf(w(args[0]), 0), true

	case graph.OpEq:
		return w(args[0]) == w(args[1]), true
	case graph.OpNe:
		return w(args[0]) != w(args[1]), true
	case graph.OpLt:
		return w(args[0]) < w(args[1]), true
	case graph.OpLe:
		return w(args[0]) <= w(args[1]), true
	case graph.OpGt:
		return w(args[0]) > w(args[1]), true
	case graph.OpGe:
		return w(args[0]) >= w(args[1]), true
	case graph.OpSymEq:
		return s(args[0]) == s(args[1]), true

	case graph.OpAnd:
		return l(args[0]) && l(args[1]), true
	case graph.OpOr:
		return l(args[0]) || l(args[1]), true
	case graph.OpXor:
		return l(args[0]) != l(args[1]), true
	case graph.OpNot:
		return !l(args[0]), true

	case graph.OpFromTimestamp:
		sec := w(args[0])
		whole := math.Trunc(sec)
		return date.Unix(int64(whole), int64((sec-whole)*1e9)), true
	case graph.OpTimestamp:
		return float64(d(args[0]).UnixMicro()) / 1e6, true
	case graph.OpDTYear:
		return float64(d(args[0]).Year()), true
	case graph.OpDTMonth:
		return float64(d(args[0]).Month()), true
	case graph.OpDTDay:
		return float64(d(args[0]).Day()), true
	case graph.OpDTHour:
		return float64(d(args[0]).Hour()), true
	case graph.OpDTMinute:
		return float64(d(args[0]).Minute()), true
	case graph.OpDTSecond:
		return float64(d(args[0]).Second()), true
	case graph.OpDTMicrosecond:
		return float64(d(args[0]).Microsecond()), true
	case graph.OpParseDT:
		t, ok := date.ParseFormat(s(args[0]), instr.Imm.(string))
		if !ok {
			return nil, false
		}
		return t, true
	case graph.OpFormatDT:
		return foldedSymbol(date.FormatString(d(args[0]), instr.Imm.(string))), true

	default:
		// map_get/map_get_or, resource_call, call_subgraph, choose,
		// assert and bind_resource all need more than pure operand
		// substitution (external state, branch selection or a
		// compile-time error path) and are handled directly by Fold.
		return nil, false
	}
}

func w(v any) float64 {
	switch x := v.(type) {
	case float64:
		return x
	default:
		return math.NaN()
	}
}

func l(v any) bool {
	b, _ := v.(bool)
	return b
}

func s(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case foldedSymbol:
		return string(x)
	default:
		return ""
	}
}

func d(v any) date.Time {
	t, _ := v.(date.Time)
	return t
}
