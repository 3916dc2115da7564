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

import "github.com/viodotcom/jyafn/jyafnerr"

// Ref is an opaque reference to one primitive-typed node of a Graph.
// Go has no operator overloading, so Ref carries the operator-method
// surface (Add, Sub, Lt, ...) the host bindings build expressions with,
// per Design Notes §9.
type Ref struct {
	g   *Graph
	idx int
	typ Prim
}

// Index returns r's node index within its graph.
func (r Ref) Index() int { return r.idx }

func (r Ref) String() string {
	if r.g == nil {
		return "<invalid ref>"
	}
	return r.typ.String()
}

// Graph returns the graph r belongs to.
func (r Ref) Graph() *Graph { return r.g }

// Type returns r's primitive type.
func (r Ref) Type() Prim { return r.typ }

// Valid reports whether r was produced by a builder call (as opposed to
// the zero Ref).
func (r Ref) Valid() bool { return r.g != nil }

func binop(a, b Ref, op Op, typ Prim) (Ref, error) {
	if a.g == nil || b.g == nil {
		return Ref{}, &jyafnerr.BuildError{Op: op.String(), Msg: "use of an invalid reference"}
	}
	if a.g != b.g {
		return Ref{}, &jyafnerr.BuildError{Op: op.String(), Msg: "references belong to different graphs"}
	}
	return a.g.push(op, typ, nil, a.idx, b.idx)
}

func unop(a Ref, op Op, typ Prim) (Ref, error) {
	if a.g == nil {
		return Ref{}, &jyafnerr.BuildError{Op: op.String(), Msg: "use of an invalid reference"}
	}
	return a.g.push(op, typ, nil, a.idx)
}

func requireScalar(op Op, rs ...Ref) error {
	for _, r := range rs {
		if r.g == nil {
			return &jyafnerr.BuildError{Op: op.String(), Msg: "use of an invalid reference"}
		}
		if r.typ != PrimScalar {
			return &jyafnerr.BuildError{Op: op.String(), Msg: "expected a scalar reference, got " + r.typ.String()}
		}
	}
	return nil
}

func requireBool(op Op, rs ...Ref) error {
	for _, r := range rs {
		if r.g == nil {
			return &jyafnerr.BuildError{Op: op.String(), Msg: "use of an invalid reference"}
		}
		if r.typ != PrimBool {
			return &jyafnerr.BuildError{Op: op.String(), Msg: "expected a bool reference, got " + r.typ.String()}
		}
	}
	return nil
}

func requireDateTime(op Op, rs ...Ref) error {
	for _, r := range rs {
		if r.g == nil {
			return &jyafnerr.BuildError{Op: op.String(), Msg: "use of an invalid reference"}
		}
		if r.typ != PrimDateTime {
			return &jyafnerr.BuildError{Op: op.String(), Msg: "expected a datetime reference, got " + r.typ.String()}
		}
	}
	return nil
}

func requireSymbol(op Op, rs ...Ref) error {
	for _, r := range rs {
		if r.g == nil {
			return &jyafnerr.BuildError{Op: op.String(), Msg: "use of an invalid reference"}
		}
		if r.typ != PrimSymbol {
			return &jyafnerr.BuildError{Op: op.String(), Msg: "expected a symbol reference, got " + r.typ.String()}
		}
	}
	return nil
}

// Arithmetic

func (r Ref) Add(o Ref) (Ref, error) {
	if err := requireScalar(OpAdd, r, o); err != nil {
		return Ref{}, err
	}
	return binop(r, o, OpAdd, PrimScalar)
}

func (r Ref) Sub(o Ref) (Ref, error) {
	if err := requireScalar(OpSub, r, o); err != nil {
		return Ref{}, err
	}
	return binop(r, o, OpSub, PrimScalar)
}

func (r Ref) Mul(o Ref) (Ref, error) {
	if err := requireScalar(OpMul, r, o); err != nil {
		return Ref{}, err
	}
	return binop(r, o, OpMul, PrimScalar)
}

func (r Ref) Div(o Ref) (Ref, error) {
	if err := requireScalar(OpDiv, r, o); err != nil {
		return Ref{}, err
	}
	return binop(r, o, OpDiv, PrimScalar)
}

func (r Ref) Rem(o Ref) (Ref, error) {
	if err := requireScalar(OpRem, r, o); err != nil {
		return Ref{}, err
	}
	return binop(r, o, OpRem, PrimScalar)
}

func (r Ref) Neg() (Ref, error) {
	if err := requireScalar(OpNeg, r); err != nil {
		return Ref{}, err
	}
	return unop(r, OpNeg, PrimScalar)
}

func (r Ref) Abs() (Ref, error) {
	if err := requireScalar(OpAbs, r); err != nil {
		return Ref{}, err
	}
	return unop(r, OpAbs, PrimScalar)
}

func (r Ref) Pow(o Ref) (Ref, error) {
	if err := requireScalar(OpPow, r, o); err != nil {
		return Ref{}, err
	}
	return binop(r, o, OpPow, PrimScalar)
}

func (r Ref) Sqrt() (Ref, error) { return unaryMath(r, OpSqrt) }
func (r Ref) Exp() (Ref, error)  { return unaryMath(r, OpExp) }
func (r Ref) Ln() (Ref, error)   { return unaryMath(r, OpLn) }

func (r Ref) Log(base Ref) (Ref, error) {
	if err := requireScalar(OpLog, r, base); err != nil {
		return Ref{}, err
	}
	return binop(r, base, OpLog, PrimScalar)
}

func (r Ref) Sin() (Ref, error)  { return unaryMath(r, OpSin) }
func (r Ref) Cos() (Ref, error)  { return unaryMath(r, OpCos) }
func (r Ref) Tan() (Ref, error)  { return unaryMath(r, OpTan) }
func (r Ref) Asin() (Ref, error) { return unaryMath(r, OpAsin) }
func (r Ref) Acos() (Ref, error) { return unaryMath(r, OpAcos) }
func (r Ref) Atan() (Ref, error) { return unaryMath(r, OpAtan) }

func (r Ref) Atan2(o Ref) (Ref, error) {
	if err := requireScalar(OpAtan2, r, o); err != nil {
		return Ref{}, err
	}
	return binop(r, o, OpAtan2, PrimScalar)
}

func (r Ref) Floor() (Ref, error) { return unaryMath(r, OpFloor) }
func (r Ref) Ceil() (Ref, error)  { return unaryMath(r, OpCeil) }
func (r Ref) Round() (Ref, error) { return unaryMath(r, OpRound) }

func (r Ref) Min(o Ref) (Ref, error) {
	if err := requireScalar(OpMin, r, o); err != nil {
		return Ref{}, err
	}
	return binop(r, o, OpMin, PrimScalar)
}

func (r Ref) Max(o Ref) (Ref, error) {
	if err := requireScalar(OpMax, r, o); err != nil {
		return Ref{}, err
	}
	return binop(r, o, OpMax, PrimScalar)
}

func (r Ref) IsNaN() (Ref, error) {
	if err := requireScalar(OpIsNaN, r); err != nil {
		return Ref{}, err
	}
	return unop(r, OpIsNaN, PrimBool)
}

func (r Ref) IsFinite() (Ref, error) {
	if err := requireScalar(OpIsFinite, r); err != nil {
		return Ref{}, err
	}
	return unop(r, OpIsFinite, PrimBool)
}

func (r Ref) IsInfinite() (Ref, error) {
	if err := requireScalar(OpIsInfinite, r); err != nil {
		return Ref{}, err
	}
	return unop(r, OpIsInfinite, PrimBool)
}

func unaryMath(r Ref, op Op) (Ref, error) {
	if err := requireScalar(op, r); err != nil {
		return Ref{}, err
	}
	return unop(r, op, PrimScalar)
}

// Comparisons

func (r Ref) Eq(o Ref) (Ref, error) { return compare(r, o, OpEq) }
func (r Ref) Ne(o Ref) (Ref, error) { return compare(r, o, OpNe) }
func (r Ref) Lt(o Ref) (Ref, error) { return compare(r, o, OpLt) }
func (r Ref) Le(o Ref) (Ref, error) { return compare(r, o, OpLe) }
func (r Ref) Gt(o Ref) (Ref, error) { return compare(r, o, OpGt) }
func (r Ref) Ge(o Ref) (Ref, error) { return compare(r, o, OpGe) }

func compare(a, b Ref, op Op) (Ref, error) {
	if err := requireScalar(op, a, b); err != nil {
		return Ref{}, err
	}
	return binop(a, b, op, PrimBool)
}

// SymEq compares two symbol references for equality (spec.md §4.1's
// "symbol equality" comparison; symbols do not support <, <=, >, >=).
func (r Ref) SymEq(o Ref) (Ref, error) {
	if err := requireSymbol(OpSymEq, r, o); err != nil {
		return Ref{}, err
	}
	return binop(r, o, OpSymEq, PrimBool)
}

// Boolean algebra

func (r Ref) And(o Ref) (Ref, error) {
	if err := requireBool(OpAnd, r, o); err != nil {
		return Ref{}, err
	}
	return binop(r, o, OpAnd, PrimBool)
}

func (r Ref) Or(o Ref) (Ref, error) {
	if err := requireBool(OpOr, r, o); err != nil {
		return Ref{}, err
	}
	return binop(r, o, OpOr, PrimBool)
}

func (r Ref) Xor(o Ref) (Ref, error) {
	if err := requireBool(OpXor, r, o); err != nil {
		return Ref{}, err
	}
	return binop(r, o, OpXor, PrimBool)
}

func (r Ref) Not() (Ref, error) {
	if err := requireBool(OpNot, r); err != nil {
		return Ref{}, err
	}
	return unop(r, OpNot, PrimBool)
}

// Choose is the ternary select cond ? ifTrue : ifFalse. ifTrue and
// ifFalse must share the same primitive type, which becomes the result
// type.
func (r Ref) Choose(ifTrue, ifFalse Ref) (Ref, error) {
	if err := requireBool(OpChoose, r); err != nil {
		return Ref{}, err
	}
	if ifTrue.g == nil || ifFalse.g == nil {
		return Ref{}, &jyafnerr.BuildError{Op: "choose", Msg: "use of an invalid reference"}
	}
	if ifTrue.typ != ifFalse.typ {
		return Ref{}, &jyafnerr.BuildError{Op: "choose", Msg: "ifTrue and ifFalse must share a primitive type"}
	}
	if r.g != ifTrue.g || r.g != ifFalse.g {
		return Ref{}, &jyafnerr.BuildError{Op: "choose", Msg: "references belong to different graphs"}
	}
	return r.g.push(OpChoose, ifTrue.typ, nil, r.idx, ifTrue.idx, ifFalse.idx)
}

// Assert makes a call of the compiled function fail with an
// InvocationError carrying msg when r is false. It
// returns no value; use its error only to detect a build-time failure
// (graph closed, wrong type, ...).
func (r Ref) Assert(msg string) error {
	if err := requireBool(OpAssert, r); err != nil {
		return err
	}
	_, err := r.g.push(OpAssert, PrimBool, msg, r.idx)
	return err
}
