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

package ir

import (
	"testing"

	"github.com/viodotcom/jyafn/graph"
	"github.com/viodotcom/jyafn/layout"
)

func TestLowerSimple(t *testing.T) {
	g, h := graph.Begin("f")
	x, err := g.Input("x", layout.Scalar)
	if err != nil {
		t.Fatal(err)
	}
	one, _ := g.Const(1)
	sum, err := x.(graph.RefValue).Ref.Add(one)
	if err != nil {
		t.Fatal(err)
	}
	if err := g.SetReturn(graph.RefValue{Ref: sum}, layout.Scalar); err != nil {
		t.Fatal(err)
	}
	closed := h.End()

	p, err := Lower(closed)
	if err != nil {
		t.Fatal(err)
	}
	if len(p.Instrs) != closed.Len() {
		t.Fatalf("expected %d instructions, got %d", closed.Len(), len(p.Instrs))
	}
	if len(p.Inputs) != 1 || p.Inputs[0].Name != "x" || p.Inputs[0].Kind != KindW {
		t.Fatalf("unexpected input slots: %#v", p.Inputs)
	}
	if len(p.Return) != 1 {
		t.Fatalf("expected 1 return leaf, got %d", len(p.Return))
	}
	if p.Instrs[p.Return[0]].Op != graph.OpAdd {
		t.Fatal("expected the return leaf to be the add instruction")
	}
}

func TestLowerOpenGraphFails(t *testing.T) {
	g := graph.New("f")
	if _, err := Lower(g); err == nil {
		t.Fatal("expected an error lowering an open graph")
	}
}

func TestLowerInputsInterleavedWithConstants(t *testing.T) {
	g, h := graph.Begin("f")
	if _, err := g.Const(42); err != nil {
		t.Fatal(err)
	}
	x, err := g.Input("x", layout.Scalar)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := g.Const(7); err != nil {
		t.Fatal(err)
	}
	y, err := g.Input("y", layout.Scalar)
	if err != nil {
		t.Fatal(err)
	}
	sum, err := x.(graph.RefValue).Ref.Add(y.(graph.RefValue).Ref)
	if err != nil {
		t.Fatal(err)
	}
	if err := g.SetReturn(graph.RefValue{Ref: sum}, layout.Scalar); err != nil {
		t.Fatal(err)
	}
	closed := h.End()

	p, err := Lower(closed)
	if err != nil {
		t.Fatal(err)
	}
	if len(p.Inputs) != 2 || p.Inputs[0].Name != "x" || p.Inputs[1].Name != "y" {
		t.Fatalf("unexpected input slots: %#v", p.Inputs)
	}
}
