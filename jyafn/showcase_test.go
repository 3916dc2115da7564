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

package jyafn_test

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/viodotcom/jyafn/artifact"
	"github.com/viodotcom/jyafn/compiler"
	"github.com/viodotcom/jyafn/graph"
	"github.com/viodotcom/jyafn/jyafn"
	"github.com/viodotcom/jyafn/layout"
	"github.com/viodotcom/jyafn/mapping"
	"github.com/viodotcom/jyafn/runtime"
)

// Scenario 1: Linear scalar, f(a,b) = 2*a + b + 1, end to end through the
// jyafn.Func decorator including its internal dump/load round trip.
func TestScenarioLinearScalar(t *testing.T) {
	f, err := jyafn.Func(func(a, b jyafn.Ref) jyafn.Ref {
		return a.Mul(jyafn.Const(2)).Add(b).Add(jyafn.Const(1))
	}, jyafn.Params("a", "b"))
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	out, err := f.Call(context.Background(), map[string]any{"a": 5.0, "b": 6.0})
	if err != nil {
		t.Fatal(err)
	}
	if out.(float64) != 17.0 {
		t.Fatalf("expected 17, got %v", out)
	}
	// Call again: a loaded artifact behaves identically on repeat calls.
	out, err = f.Call(context.Background(), map[string]any{"a": 5.0, "b": 6.0})
	if err != nil {
		t.Fatal(err)
	}
	if out.(float64) != 17.0 {
		t.Fatalf("expected 17 on second call, got %v", out)
	}
}

// Scenario 2: Branchless select, relu(a) = (a >= 0).choose(sqrt(a), 0).
func TestScenarioBranchlessSelect(t *testing.T) {
	f, err := jyafn.Func(func(a jyafn.Ref) jyafn.Ref {
		return a.Ge(jyafn.Const(0)).Choose(a.Sqrt(), jyafn.Const(0))
	}, jyafn.Params("a"))
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	cases := []struct {
		in   float64
		want float64
	}{{-1, 0}, {0, 0}, {1, 1}}
	for _, c := range cases {
		out, err := f.Call(context.Background(), map[string]any{"a": c.in})
		if err != nil {
			t.Fatal(err)
		}
		if out.(float64) != c.want {
			t.Fatalf("relu(%v) = %v, want %v", c.in, out, c.want)
		}
	}
}

// Scenario 3: Assertion trap, g(x) -> unit with assert(x > 0, ...). Built
// directly on package graph since jyafn.Func's decorator only covers
// Ref-returning functions, not a Unit-returning assertion-only graph.
func TestScenarioAssertionTrap(t *testing.T) {
	g, h := graph.Begin("assert_trap")
	xv, err := g.Input("x", layout.Scalar)
	if err != nil {
		t.Fatal(err)
	}
	x := xv.(graph.RefValue).Ref
	zero, err := g.Const(0)
	if err != nil {
		t.Fatal(err)
	}
	positive, err := x.Gt(zero)
	if err != nil {
		t.Fatal(err)
	}
	if err := positive.Assert("x must be positive"); err != nil {
		t.Fatal(err)
	}
	if err := g.SetReturn(graph.UnitValue{}, layout.Unit); err != nil {
		t.Fatal(err)
	}
	closed := h.End()

	prog, err := compiler.Compile(closed)
	if err != nil {
		t.Fatal(err)
	}
	var buf bytes.Buffer
	if err := artifact.Save(&buf, prog, nil); err != nil {
		t.Fatal(err)
	}
	fn, err := runtime.Load(bytes.NewReader(buf.Bytes()))
	if err != nil {
		t.Fatal(err)
	}
	defer fn.Close()

	if _, err := fn.Call(context.Background(), map[string]any{"x": 1.0}); err != nil {
		t.Fatalf("g(1) should succeed, got %v", err)
	}
	_, err = fn.Call(context.Background(), map[string]any{"x": -1.0})
	if err == nil {
		t.Fatal("g(-1) should surface an InvocationError")
	}
}

// Scenario 4: Mapping lookup, h(x: symbol) = map.get_or(x, 6) over
// {"a":2, "b":4}.
func TestScenarioMappingLookup(t *testing.T) {
	g, h := graph.Begin("mapping_lookup")
	pairs := mapping.NewPairs(func(yield func(any, any) bool) {
		if !yield("a", 2.0) {
			return
		}
		yield("b", 4.0)
	})
	tab, err := mapping.Build(layout.Symbol, layout.Scalar, pairs, g.Symbols())
	if err != nil {
		t.Fatal(err)
	}
	mappingID := g.AddMapping(tab)

	xv, err := g.Input("x", layout.Symbol)
	if err != nil {
		t.Fatal(err)
	}
	def, err := g.Const(6)
	if err != nil {
		t.Fatal(err)
	}
	out, err := g.MapGetOr(mappingID, xv, graph.RefValue{Ref: def})
	if err != nil {
		t.Fatal(err)
	}
	if err := g.SetReturn(out, layout.Scalar); err != nil {
		t.Fatal(err)
	}
	closed := h.End()

	prog, err := compiler.Compile(closed)
	if err != nil {
		t.Fatal(err)
	}
	var buf bytes.Buffer
	if err := artifact.Save(&buf, prog, nil); err != nil {
		t.Fatal(err)
	}
	fn, err := runtime.Load(bytes.NewReader(buf.Bytes()))
	if err != nil {
		t.Fatal(err)
	}
	defer fn.Close()

	cases := []struct {
		in   string
		want float64
	}{{"a", 2}, {"b", 4}, {"c", 6}}
	for _, c := range cases {
		out, err := fn.Call(context.Background(), map[string]any{"x": c.in})
		if err != nil {
			t.Fatal(err)
		}
		if out.(float64) != c.want {
			t.Fatalf("h(%q) = %v, want %v", c.in, out, c.want)
		}
	}
}

// Scenario 5: Struct return with metadata, k(a,b) -> {result: scalar}
// returning {"result": 2*a + b + 1}. Checks both the value and that the
// output layout's JSON rendering matches spec.md §8's exact shape.
func TestScenarioStructReturn(t *testing.T) {
	g, h := graph.Begin("struct_return")
	av, err := g.Input("a", layout.Scalar)
	if err != nil {
		t.Fatal(err)
	}
	bv, err := g.Input("b", layout.Scalar)
	if err != nil {
		t.Fatal(err)
	}
	a := av.(graph.RefValue).Ref
	b := bv.(graph.RefValue).Ref
	two, err := g.Const(2)
	if err != nil {
		t.Fatal(err)
	}
	one, err := g.Const(1)
	if err != nil {
		t.Fatal(err)
	}
	a2, err := a.Mul(two)
	if err != nil {
		t.Fatal(err)
	}
	sum, err := a2.Add(b)
	if err != nil {
		t.Fatal(err)
	}
	result, err := sum.Add(one)
	if err != nil {
		t.Fatal(err)
	}
	retLayout := layout.NewStruct(layout.Field{Name: "result", Layout: layout.Scalar})
	ret := graph.Struct(graph.NamedValue{Name: "result", Value: graph.RefValue{Ref: result}})
	if err := g.SetReturn(ret, retLayout); err != nil {
		t.Fatal(err)
	}
	closed := h.End()

	prog, err := compiler.Compile(closed)
	if err != nil {
		t.Fatal(err)
	}
	var buf bytes.Buffer
	if err := artifact.Save(&buf, prog, nil); err != nil {
		t.Fatal(err)
	}
	fn, err := runtime.Load(bytes.NewReader(buf.Bytes()))
	if err != nil {
		t.Fatal(err)
	}
	defer fn.Close()

	out, err := fn.Call(context.Background(), map[string]any{"a": 1.0, "b": 2.0})
	if err != nil {
		t.Fatal(err)
	}
	m := out.(map[string]any)
	if m["result"].(float64) != 5.0 {
		t.Fatalf(`expected {"result":5}, got %#v`, m)
	}

	layoutJSON, err := json.Marshal(fn.ReturnLayout())
	if err != nil {
		t.Fatal(err)
	}
	want := `{"type":"struct","fields":[["result",{"type":"scalar"}]]}`
	if string(layoutJSON) != want {
		t.Fatalf("output layout JSON = %s, want %s", layoutJSON, want)
	}
}

// Scenario 6: Tuple encoding, t(p: tuple[scalar,scalar]) -> tuple[scalar,
// scalar] returning (p[0]+p[1], p[0]-p[1]); also checks the raw encoded
// input buffer is exactly the two input words in order.
func TestScenarioTupleEncoding(t *testing.T) {
	g, h := graph.Begin("tuple_encoding")
	tupleLayout := layout.NewTuple(layout.Scalar, layout.Scalar)
	pv, err := g.Input("p", tupleLayout)
	if err != nil {
		t.Fatal(err)
	}
	tv := pv.(graph.TupleValue)
	p0 := tv.Items[0].(graph.RefValue).Ref
	p1 := tv.Items[1].(graph.RefValue).Ref
	sum, err := p0.Add(p1)
	if err != nil {
		t.Fatal(err)
	}
	diff, err := p0.Sub(p1)
	if err != nil {
		t.Fatal(err)
	}
	ret := graph.Tuple(graph.RefValue{Ref: sum}, graph.RefValue{Ref: diff})
	if err := g.SetReturn(ret, tupleLayout); err != nil {
		t.Fatal(err)
	}
	closed := h.End()

	prog, err := compiler.Compile(closed)
	if err != nil {
		t.Fatal(err)
	}
	var buf bytes.Buffer
	if err := artifact.Save(&buf, prog, nil); err != nil {
		t.Fatal(err)
	}
	fn, err := runtime.Load(bytes.NewReader(buf.Bytes()))
	if err != nil {
		t.Fatal(err)
	}
	defer fn.Close()

	out, err := fn.Call(context.Background(), map[string]any{"p": []any{1.0, 3.0}})
	if err != nil {
		t.Fatal(err)
	}
	pair := out.([]any)
	if pair[0].(float64) != 4.0 || pair[1].(float64) != -2.0 {
		t.Fatalf("expected (4, -2), got %#v", pair)
	}

	words, err := layout.Encode(nil, tupleLayout, []any{1.0, 3.0}, g.Symbols())
	if err != nil {
		t.Fatal(err)
	}
	if len(words) != 2 {
		t.Fatalf("expected a 2-word encoded buffer, got %d words", len(words))
	}
	if words[0] != 0x3ff0000000000000 || words[1] != 0x4008000000000000 {
		t.Fatalf("encoded input buffer = %#x, want [1.0 bits, 3.0 bits]", words)
	}
}
