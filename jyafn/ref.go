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

package jyafn

import (
	"github.com/viodotcom/jyafn/date"
	"github.com/viodotcom/jyafn/graph"
)

// Ref is a handle to one node of the graph under construction, wrapping
// graph.Ref with the same operator-method surface but panicking instead
// of returning an error: Func recovers the panic and turns it back into
// an error, so a function body written against Ref reads like ordinary
// (if verbose, Go having no operator overloading) arithmetic rather than
// threading `if err != nil` through every expression.
type Ref struct{ r graph.Ref }

func wrap(r graph.Ref, err error) Ref {
	if err != nil {
		panic(err)
	}
	return Ref{r: r}
}

func current() *graph.Graph {
	g, err := graph.Current()
	if err != nil {
		panic(err)
	}
	return g
}

// Const pushes a scalar constant onto the current graph.
func Const(x float64) Ref { return wrap(current().Const(x)) }

// ConstBool pushes a bool constant onto the current graph.
func ConstBool(b bool) Ref { return wrap(current().ConstBool(b)) }

// ConstSym pushes a symbol constant onto the current graph.
func ConstSym(s string) Ref { return wrap(current().ConstSym(s)) }

// ConstDT pushes a datetime constant onto the current graph.
func ConstDT(t date.Time) Ref { return wrap(current().ConstDT(t)) }

// Pi is the scalar constant math.Pi.
func Pi() Ref { return wrap(current().Pi()) }

// E is the scalar constant math.E.
func E() Ref { return wrap(current().E()) }

func (r Ref) Add(o Ref) Ref   { return wrap(r.r.Add(o.r)) }
func (r Ref) Sub(o Ref) Ref   { return wrap(r.r.Sub(o.r)) }
func (r Ref) Mul(o Ref) Ref   { return wrap(r.r.Mul(o.r)) }
func (r Ref) Div(o Ref) Ref   { return wrap(r.r.Div(o.r)) }
func (r Ref) Rem(o Ref) Ref   { return wrap(r.r.Rem(o.r)) }
func (r Ref) Neg() Ref        { return wrap(r.r.Neg()) }
func (r Ref) Abs() Ref        { return wrap(r.r.Abs()) }
func (r Ref) Pow(o Ref) Ref   { return wrap(r.r.Pow(o.r)) }
func (r Ref) Sqrt() Ref       { return wrap(r.r.Sqrt()) }
func (r Ref) Exp() Ref        { return wrap(r.r.Exp()) }
func (r Ref) Ln() Ref         { return wrap(r.r.Ln()) }
func (r Ref) Log(base Ref) Ref { return wrap(r.r.Log(base.r)) }
func (r Ref) Sin() Ref        { return wrap(r.r.Sin()) }
func (r Ref) Cos() Ref        { return wrap(r.r.Cos()) }
func (r Ref) Tan() Ref        { return wrap(r.r.Tan()) }
func (r Ref) Asin() Ref       { return wrap(r.r.Asin()) }
func (r Ref) Acos() Ref       { return wrap(r.r.Acos()) }
func (r Ref) Atan() Ref       { return wrap(r.r.Atan()) }
func (r Ref) Atan2(o Ref) Ref { return wrap(r.r.Atan2(o.r)) }
func (r Ref) Floor() Ref      { return wrap(r.r.Floor()) }
func (r Ref) Ceil() Ref       { return wrap(r.r.Ceil()) }
func (r Ref) Round() Ref      { return wrap(r.r.Round()) }
func (r Ref) Min(o Ref) Ref   { return wrap(r.r.Min(o.r)) }
func (r Ref) Max(o Ref) Ref   { return wrap(r.r.Max(o.r)) }
func (r Ref) IsNaN() Ref      { return wrap(r.r.IsNaN()) }
func (r Ref) IsFinite() Ref   { return wrap(r.r.IsFinite()) }
func (r Ref) IsInfinite() Ref { return wrap(r.r.IsInfinite()) }

func (r Ref) Eq(o Ref) Ref    { return wrap(r.r.Eq(o.r)) }
func (r Ref) Ne(o Ref) Ref    { return wrap(r.r.Ne(o.r)) }
func (r Ref) Lt(o Ref) Ref    { return wrap(r.r.Lt(o.r)) }
func (r Ref) Le(o Ref) Ref    { return wrap(r.r.Le(o.r)) }
func (r Ref) Gt(o Ref) Ref    { return wrap(r.r.Gt(o.r)) }
func (r Ref) Ge(o Ref) Ref    { return wrap(r.r.Ge(o.r)) }
func (r Ref) SymEq(o Ref) Ref { return wrap(r.r.SymEq(o.r)) }

func (r Ref) And(o Ref) Ref { return wrap(r.r.And(o.r)) }
func (r Ref) Or(o Ref) Ref  { return wrap(r.r.Or(o.r)) }
func (r Ref) Xor(o Ref) Ref { return wrap(r.r.Xor(o.r)) }
func (r Ref) Not() Ref      { return wrap(r.r.Not()) }

// Choose is the ternary select r ? ifTrue : ifFalse.
func (r Ref) Choose(ifTrue, ifFalse Ref) Ref {
	return wrap(r.r.Choose(ifTrue.r, ifFalse.r))
}

// Assert makes a call of the compiled function fail with an
// InvocationError carrying msg when r is false. A build-time failure
// (e.g. r is not a bool) panics the same way Ref's arithmetic methods
// do, and Func recovers it.
func (r Ref) Assert(msg string) Ref {
	if err := r.r.Assert(msg); err != nil {
		panic(err)
	}
	return r
}
