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
	"testing"

	"github.com/viodotcom/jyafn/graph"
	"github.com/viodotcom/jyafn/ir"
	"github.com/viodotcom/jyafn/layout"
)

func TestFoldConstantArithmetic(t *testing.T) {
	g, h := graph.Begin("f")
	x, err := g.Input("x", layout.Scalar)
	if err != nil {
		t.Fatal(err)
	}
	two, _ := g.Const(2)
	three, _ := g.Const(3)
	five, err := two.Add(three)
	if err != nil {
		t.Fatal(err)
	}
	sum, err := x.(graph.RefValue).Ref.Add(five)
	if err != nil {
		t.Fatal(err)
	}
	if err := g.SetReturn(graph.RefValue{Ref: sum}, layout.Scalar); err != nil {
		t.Fatal(err)
	}
	closed := h.End()

	lowered, err := ir.Lower(closed)
	if err != nil {
		t.Fatal(err)
	}
	folded, err := Fold(lowered)
	if err != nil {
		t.Fatal(err)
	}

	// 2+3 should have folded away, leaving a single add of x and the
	// literal 5: one input, one folded constant, one add.
	if len(folded.Instrs) != 3 {
		t.Fatalf("expected 3 instructions after folding, got %d: %s", len(folded.Instrs), Render(folded))
	}
	addIdx := folded.Return[0]
	add := folded.Instrs[addIdx]
	if add.Op != graph.OpAdd {
		t.Fatalf("expected the return leaf to be an add, got %s", add.Op)
	}
	var constOperand *ir.Instr
	for _, o := range add.Operands {
		if folded.Instrs[o].Op == graph.OpConst {
			constOperand = &folded.Instrs[o]
		}
	}
	if constOperand == nil || constOperand.Imm.(float64) != 5 {
		t.Fatalf("expected a folded constant operand of 5, got %#v", constOperand)
	}
}

func TestFoldChooseConstantCondition(t *testing.T) {
	g, h := graph.Begin("f")
	x, err := g.Input("x", layout.Scalar)
	if err != nil {
		t.Fatal(err)
	}
	y, err := g.Input("y", layout.Scalar)
	if err != nil {
		t.Fatal(err)
	}
	cond, _ := g.ConstBool(true)
	chosen, err := cond.Choose(x.(graph.RefValue).Ref, y.(graph.RefValue).Ref)
	if err != nil {
		t.Fatal(err)
	}
	if err := g.SetReturn(graph.RefValue{Ref: chosen}, layout.Scalar); err != nil {
		t.Fatal(err)
	}
	closed := h.End()

	lowered, err := ir.Lower(closed)
	if err != nil {
		t.Fatal(err)
	}
	folded, err := Fold(lowered)
	if err != nil {
		t.Fatal(err)
	}

	// The choose collapses to a pure alias of x, and its condition
	// becomes unreferenced and drops out; x and y themselves stay,
	// since every declared input is kept live regardless of use.
	if len(folded.Instrs) != 2 {
		t.Fatalf("expected 2 live instructions (x and y, with choose/cond folded away), got %d: %s",
			len(folded.Instrs), Render(folded))
	}
	returned := folded.Instrs[folded.Return[0]]
	if returned.Op != graph.OpInput {
		t.Fatalf("expected the return leaf to alias directly to an input, got %s", returned.Op)
	}
}

func TestFoldAssertAlwaysFalseFails(t *testing.T) {
	g, h := graph.Begin("g")
	no, _ := g.ConstBool(false)
	if err := no.Assert("always fails"); err != nil {
		t.Fatal(err)
	}
	one, _ := g.Const(1)
	if err := g.SetReturn(graph.RefValue{Ref: one}, layout.Scalar); err != nil {
		t.Fatal(err)
	}
	closed := h.End()

	lowered, err := ir.Lower(closed)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := Fold(lowered); err == nil {
		t.Fatal("expected Fold to reject a constant-false assertion")
	}
}
