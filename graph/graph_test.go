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
	"testing"

	"github.com/viodotcom/jyafn/layout"
)

func TestBeginEndCurrent(t *testing.T) {
	if _, err := Current(); err == nil {
		t.Fatal("expected an error with no open graph")
	}
	g, h := Begin("g")
	cur, err := Current()
	if err != nil {
		t.Fatal(err)
	}
	if cur != g {
		t.Fatal("Current did not return the graph Begin opened")
	}
	closed := h.End()
	if !closed.Closed() {
		t.Fatal("End did not close the graph")
	}
	if _, err := Current(); err == nil {
		t.Fatal("expected an error after End")
	}
}

func TestDAGInvariant(t *testing.T) {
	g := New("g")
	a, err := g.Const(1)
	if err != nil {
		t.Fatal(err)
	}
	b, err := g.Const(2)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := a.Add(b); err != nil {
		t.Fatal(err)
	}
	// every pushed node's operands reference strictly earlier indices
	for i, n := range g.nodes {
		for _, o := range n.Operands {
			if o >= i {
				t.Fatalf("node %d has operand %d, violating the DAG invariant", i, o)
			}
		}
	}
}

func TestCrossGraphReferenceRejected(t *testing.T) {
	g1 := New("g1")
	g2 := New("g2")
	a, _ := g1.Const(1)
	b, _ := g2.Const(2)
	if _, err := a.Add(b); err == nil {
		t.Fatal("expected an error combining references from different graphs")
	}
}

func TestTypeMismatch(t *testing.T) {
	g := New("g")
	s, _ := g.Const(1)
	b, _ := g.ConstBool(true)
	if _, err := s.Add(b); err == nil {
		t.Fatal("expected a type error adding a scalar and a bool")
	}
	if _, err := b.Not(); err != nil {
		t.Fatal(err)
	}
}

func TestPushAfterCloseFails(t *testing.T) {
	g, h := Begin("g")
	h.End()
	if _, err := g.Const(1); err == nil {
		t.Fatal("expected an error pushing to a closed graph")
	}
}

func TestInputReturnScalar(t *testing.T) {
	g, h := Begin("f")
	x, err := g.Input("x", layout.Scalar)
	if err != nil {
		t.Fatal(err)
	}
	one, _ := g.Const(1)
	sum, err := x.(RefValue).Ref.Add(one)
	if err != nil {
		t.Fatal(err)
	}
	if err := g.SetReturn(RefValue{Ref: sum}, layout.Scalar); err != nil {
		t.Fatal(err)
	}
	closed := h.End()
	if closed.Return() == nil || len(closed.Return().Leaves) != 1 {
		t.Fatal("expected a single-leaf return declaration")
	}
}

func TestInputReturnStruct(t *testing.T) {
	g, h := Begin("f")
	l := layout.NewStruct(
		layout.Field{Name: "a", Layout: layout.Scalar},
		layout.Field{Name: "b", Layout: layout.Bool},
	)
	v, err := g.Input("in", l)
	if err != nil {
		t.Fatal(err)
	}
	if err := g.SetReturn(v, l); err != nil {
		t.Fatal(err)
	}
	closed := h.End()
	if len(closed.Return().Leaves) != 2 {
		t.Fatalf("expected 2 leaves, got %d", len(closed.Return().Leaves))
	}
}

func TestInferPutativeLayout(t *testing.T) {
	g := New("g")
	a, _ := g.Const(1)
	bo, _ := g.ConstBool(true)
	v := Struct(
		NamedValue{Name: "a", Value: RefValue{Ref: a}},
		NamedValue{Name: "b", Value: RefValue{Ref: bo}},
	)
	l, err := Infer(v)
	if err != nil {
		t.Fatal(err)
	}
	want := layout.NewStruct(
		layout.Field{Name: "a", Layout: layout.Scalar},
		layout.Field{Name: "b", Layout: layout.Bool},
	)
	if !layout.Equal(l, want) {
		t.Fatalf("Infer = %s, want %s", l, want)
	}
}

func TestAssertBuildsNode(t *testing.T) {
	g := New("g")
	tru, _ := g.ConstBool(true)
	if err := tru.Assert("must be true"); err != nil {
		t.Fatal(err)
	}
	if g.nodes[len(g.nodes)-1].Op != OpAssert {
		t.Fatal("expected the last node to be an assert")
	}
}

func TestEndDefaultsUnitReturn(t *testing.T) {
	g, h := Begin("g")
	tru, _ := g.ConstBool(true)
	tru.Assert("ok")
	closed := h.End()
	if closed.Return().Layout.Kind() != layout.KindUnit {
		t.Fatal("expected End to default the return layout to Unit")
	}
}

func TestHashStableAndSensitive(t *testing.T) {
	build := func() *Graph {
		g := New("g")
		a, _ := g.Const(2)
		b, _ := g.Const(3)
		sum, _ := a.Add(b)
		g.SetReturn(RefValue{Ref: sum}, layout.Scalar)
		return g
	}
	g1, g2 := build(), build()
	if g1.Hash() != g2.Hash() {
		t.Fatal("identical graphs should hash equal")
	}
	g3 := New("g")
	a, _ := g3.Const(2)
	b, _ := g3.Const(4)
	sum, _ := a.Add(b)
	g3.SetReturn(RefValue{Ref: sum}, layout.Scalar)
	if g1.Hash() == g3.Hash() {
		t.Fatal("different graphs should (almost certainly) hash differently")
	}
}
