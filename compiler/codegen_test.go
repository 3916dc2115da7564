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
	"context"
	"testing"

	"github.com/viodotcom/jyafn/code/engine"
	"github.com/viodotcom/jyafn/graph"
	"github.com/viodotcom/jyafn/layout"
)

func TestCompileAndRun(t *testing.T) {
	g, h := graph.Begin("f")
	x, err := g.Input("x", layout.Scalar)
	if err != nil {
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

	p, err := Compile(closed)
	if err != nil {
		t.Fatal(err)
	}

	out, err := engine.Run(context.Background(), p, []any{3.0, 4.0})
	if err != nil {
		t.Fatal(err)
	}
	if len(out) != 1 || out[0].(float64) != 7.0 {
		t.Fatalf("expected [7], got %#v", out)
	}
}

func TestCompileFoldsConstants(t *testing.T) {
	g, h := graph.Begin("f")
	x, err := g.Input("x", layout.Scalar)
	if err != nil {
		t.Fatal(err)
	}
	one, _ := g.Const(1)
	two, _ := g.Const(2)
	three, err := one.Add(two)
	if err != nil {
		t.Fatal(err)
	}
	sum, err := x.(graph.RefValue).Ref.Add(three)
	if err != nil {
		t.Fatal(err)
	}
	if err := g.SetReturn(graph.RefValue{Ref: sum}, layout.Scalar); err != nil {
		t.Fatal(err)
	}
	closed := h.End()

	p, err := Compile(closed)
	if err != nil {
		t.Fatal(err)
	}

	out, err := engine.Run(context.Background(), p, []any{10.0})
	if err != nil {
		t.Fatal(err)
	}
	if len(out) != 1 || out[0].(float64) != 13.0 {
		t.Fatalf("expected [13], got %#v", out)
	}
}
