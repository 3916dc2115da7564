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

import (
	"math"

	"github.com/viodotcom/jyafn/date"
	"github.com/viodotcom/jyafn/jyafnerr"
	"github.com/viodotcom/jyafn/layout"
)

// Input declares a new named input of layout l and returns a Value tree
// of primitive leaf references shaped like l. Each leaf becomes one
// OpInput node in declaration order; composite layouts simply get one
// leaf node per flat word.
func (g *Graph) Input(name string, l layout.Layout) (Value, error) {
	if g.closed {
		return nil, &jyafnerr.BuildError{Op: "input", Msg: "graph is closed"}
	}
	for _, in := range g.inputs {
		if in.Name == name {
			return nil, &jyafnerr.BuildError{Op: "input", Msg: "duplicate input name " + name}
		}
	}
	v, err := buildValue(l, func(leaf layout.Layout) (Ref, error) {
		p, imm := leafPrim(leaf)
		return g.push(OpInput, p, imm)
	})
	if err != nil {
		return nil, err
	}
	g.inputs = append(g.inputs, InputDecl{Name: name, Layout: l})
	return v, nil
}

// SetReturn declares v, checked against l, as the graph's return value.
// It may be called at most once.
func (g *Graph) SetReturn(v Value, l layout.Layout) error {
	if g.closed {
		return &jyafnerr.BuildError{Op: "return", Msg: "graph is closed"}
	}
	if g.ret != nil {
		return &jyafnerr.BuildError{Op: "return", Msg: "graph already has a return value"}
	}
	leaves, err := flatten(nil, l, v, "$")
	if err != nil {
		return err
	}
	g.ret = &ReturnDecl{Layout: l, Leaves: leaves}
	return nil
}

// SetReturnInferred is SetReturn with the layout computed by Infer.
func (g *Graph) SetReturnInferred(v Value) error {
	l, err := Infer(v)
	if err != nil {
		return err
	}
	return g.SetReturn(v, l)
}

// -- constants --

// Const pushes a scalar constant.
func (g *Graph) Const(x float64) (Ref, error) {
	return g.push(OpConst, PrimScalar, x)
}

// ConstBool pushes a bool constant.
func (g *Graph) ConstBool(b bool) (Ref, error) {
	return g.push(OpConstBool, PrimBool, b)
}

// ConstSym pushes a symbol constant, interning s in the graph's symbol
// table.
func (g *Graph) ConstSym(s string) (Ref, error) {
	id := g.symbols.Intern(s)
	return g.push(OpConstSym, PrimSymbol, id)
}

// ConstDT pushes a datetime constant.
func (g *Graph) ConstDT(t date.Time) (Ref, error) {
	return g.push(OpConstDT, PrimDateTime, t)
}

// Pi and E are convenience scalar constants mirroring math.Pi/math.E,
// since graph authors otherwise have no way to spell a literal
// transcendental constant except Const(math.Pi).
func (g *Graph) Pi() (Ref, error) { return g.Const(math.Pi) }
func (g *Graph) E() (Ref, error)  { return g.Const(math.E) }
