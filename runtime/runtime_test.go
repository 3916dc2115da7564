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

package runtime_test

import (
	"bytes"
	"context"
	"testing"

	"github.com/viodotcom/jyafn/artifact"
	"github.com/viodotcom/jyafn/code"
	"github.com/viodotcom/jyafn/compiler"
	"github.com/viodotcom/jyafn/graph"
	"github.com/viodotcom/jyafn/layout"
	"github.com/viodotcom/jyafn/runtime"
)

func compileAndSave(t *testing.T, p *code.Program) *runtime.Function {
	t.Helper()
	var buf bytes.Buffer
	if err := artifact.Save(&buf, p, nil); err != nil {
		t.Fatal(err)
	}
	fn, err := runtime.Load(bytes.NewReader(buf.Bytes()))
	if err != nil {
		t.Fatal(err)
	}
	return fn
}

// hypotenuse mirrors spec.md §8's scenario 1: a two-scalar-input,
// one-scalar-output function compiled from a graph, saved to an
// artifact, loaded back, and called with a plain float64 pair.
func compileHypotenuse(t *testing.T) *code.Program {
	t.Helper()
	g, h := graph.Begin("hypot")
	a, err := g.Input("a", layout.Scalar)
	if err != nil {
		t.Fatal(err)
	}
	b, err := g.Input("b", layout.Scalar)
	if err != nil {
		t.Fatal(err)
	}
	aRef := a.(graph.RefValue).Ref
	bRef := b.(graph.RefValue).Ref
	a2, err := aRef.Mul(aRef)
	if err != nil {
		t.Fatal(err)
	}
	b2, err := bRef.Mul(bRef)
	if err != nil {
		t.Fatal(err)
	}
	sum, err := a2.Add(b2)
	if err != nil {
		t.Fatal(err)
	}
	root, err := sum.Sqrt()
	if err != nil {
		t.Fatal(err)
	}
	if err := g.SetReturn(graph.RefValue{Ref: root}, layout.Scalar); err != nil {
		t.Fatal(err)
	}
	closed := h.End()
	p, err := compiler.Compile(closed)
	if err != nil {
		t.Fatal(err)
	}
	return p
}

func TestCallScalarFunction(t *testing.T) {
	p := compileHypotenuse(t)
	fn := compileAndSave(t, p)
	defer fn.Close()

	out, err := fn.Call(context.Background(), map[string]any{"a": 3.0, "b": 4.0})
	if err != nil {
		t.Fatal(err)
	}
	if out.(float64) != 5.0 {
		t.Fatalf("expected 5, got %v", out)
	}
}

func TestCallJSONScalarFunction(t *testing.T) {
	p := compileHypotenuse(t)
	fn := compileAndSave(t, p)
	defer fn.Close()

	out, err := fn.CallJSON(context.Background(), []byte(`{"a":3,"b":4}`))
	if err != nil {
		t.Fatal(err)
	}
	if string(out) != "5" {
		t.Fatalf("expected JSON 5, got %s", out)
	}
}

// compileStructInOut mirrors spec.md §8's scenario involving structured
// (struct-in, struct-out) input/output, proving the whole-program
// InputLayout/ReturnLayout reconstruction threads composite shapes
// correctly through save/load/call.
func compileStructInOut(t *testing.T) *code.Program {
	t.Helper()
	g, h := graph.Begin("struct_io")
	in, err := g.Input("point", layout.NewStruct(
		layout.Field{Name: "x", Layout: layout.Scalar},
		layout.Field{Name: "y", Layout: layout.Scalar},
	))
	if err != nil {
		t.Fatal(err)
	}
	sv := in.(graph.StructValue)
	x := sv.Fields[0].Value.(graph.RefValue).Ref
	y := sv.Fields[1].Value.(graph.RefValue).Ref
	sum, err := x.Add(y)
	if err != nil {
		t.Fatal(err)
	}
	diff, err := x.Sub(y)
	if err != nil {
		t.Fatal(err)
	}
	ret := graph.Tuple(graph.RefValue{Ref: sum}, graph.RefValue{Ref: diff})
	if err := g.SetReturn(ret, layout.NewTuple(layout.Scalar, layout.Scalar)); err != nil {
		t.Fatal(err)
	}
	closed := h.End()
	p, err := compiler.Compile(closed)
	if err != nil {
		t.Fatal(err)
	}
	return p
}

func TestCallStructInputTupleOutput(t *testing.T) {
	p := compileStructInOut(t)
	fn := compileAndSave(t, p)
	defer fn.Close()

	in := map[string]any{"point": map[string]any{"x": 10.0, "y": 4.0}}
	out, err := fn.Call(context.Background(), in)
	if err != nil {
		t.Fatal(err)
	}
	pair := out.([]any)
	if pair[0].(float64) != 14.0 || pair[1].(float64) != 6.0 {
		t.Fatalf("expected [14 6], got %#v", pair)
	}
}

func TestCallRejectsWrongShape(t *testing.T) {
	p := compileHypotenuse(t)
	fn := compileAndSave(t, p)
	defer fn.Close()

	if _, err := fn.Call(context.Background(), map[string]any{"a": 3.0}); err == nil {
		t.Fatal("expected an error for a missing field")
	}
}
