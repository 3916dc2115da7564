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

package layout

import (
	"testing"

	"github.com/viodotcom/jyafn/date"
	"github.com/viodotcom/jyafn/symbol"
)

func TestWidth(t *testing.T) {
	cases := []struct {
		l Layout
		w int
	}{
		{Unit, 0},
		{Scalar, 1},
		{Bool, 1},
		{Symbol, 1},
		{NewDateTime(""), 1},
		{NewStruct(Field{"a", Scalar}, Field{"b", Scalar}), 2},
		{NewTuple(Scalar, Bool), 2},
		{NewList(Scalar, 3), 3},
		{NewList(Scalar, 0), 0},
		{NewList(NewTuple(Scalar, Scalar), 2), 4},
	}
	for _, c := range cases {
		if got := c.l.Width(); got != c.w {
			t.Errorf("%v.Width() = %d, want %d", c.l, got, c.w)
		}
	}
}

func TestJSONRoundTrip(t *testing.T) {
	layouts := []Layout{
		Unit, Scalar, Bool, Symbol,
		NewDateTime("%Y-%m-%d"),
		NewStruct(Field{"result", Scalar}),
		NewTuple(Scalar, Scalar),
		NewList(Scalar, 0),
		NewList(NewStruct(Field{"x", Scalar}, Field{"y", Bool}), 5),
	}
	for _, l := range layouts {
		s, err := Render(l)
		if err != nil {
			t.Fatalf("Render(%v): %v", l, err)
		}
		got, err := Parse(s)
		if err != nil {
			t.Fatalf("Parse(%q): %v", s, err)
		}
		if !Equal(l, got) {
			t.Errorf("round trip mismatch: %v != %v (via %s)", l, got, s)
		}
	}
}

func TestScenario5StructJSONShape(t *testing.T) {
	l := NewStruct(Field{"result", Scalar})
	s, err := Render(l)
	if err != nil {
		t.Fatal(err)
	}
	want := `{"type":"struct","fields":[["result",{"type":"scalar"}]]}`
	if s != want {
		t.Errorf("JSON shape = %s, want %s", s, want)
	}
}

func TestEncodeDecodeScalarTuple(t *testing.T) {
	var tab symbol.Table
	l := NewTuple(Scalar, Scalar)
	words, err := Encode(nil, l, []any{1.0, 3.0}, &tab)
	if err != nil {
		t.Fatal(err)
	}
	if len(words) != 2 {
		t.Fatalf("len(words) = %d, want 2", len(words))
	}
	v, err := Decode(words, l, &tab)
	if err != nil {
		t.Fatal(err)
	}
	got := v.([]any)
	if got[0].(float64) != 1.0 || got[1].(float64) != 3.0 {
		t.Fatalf("decode mismatch: %v", got)
	}
}

func TestEncodeDecodeStruct(t *testing.T) {
	var tab symbol.Table
	l := NewStruct(Field{"a", Scalar}, Field{"b", Bool})
	words, err := Encode(nil, l, map[string]any{"a": 2.0, "b": true}, &tab)
	if err != nil {
		t.Fatal(err)
	}
	v, err := Decode(words, l, &tab)
	if err != nil {
		t.Fatal(err)
	}
	m := v.(map[string]any)
	if m["a"].(float64) != 2.0 || m["b"].(bool) != true {
		t.Fatalf("decode mismatch: %v", m)
	}
}

func TestEncodeUnknownSymbol(t *testing.T) {
	var tab symbol.Table
	_, err := Encode(nil, Symbol, "nope", &tab)
	if err == nil {
		t.Fatal("expected unknown symbol error")
	}
}

func TestEncodeDecodeSymbol(t *testing.T) {
	var tab symbol.Table
	tab.Intern("a")
	tab.Intern("b")
	words, err := Encode(nil, Symbol, "b", &tab)
	if err != nil {
		t.Fatal(err)
	}
	v, err := Decode(words, Symbol, &tab)
	if err != nil {
		t.Fatal(err)
	}
	if v.(string) != "b" {
		t.Fatalf("decode mismatch: %v", v)
	}
}

func TestEncodeDecodeDateTime(t *testing.T) {
	var tab symbol.Table
	tm := date.Date(2024, 1, 2, 3, 4, 5, 6)
	words, err := Encode(nil, NewDateTime(""), tm, &tab)
	if err != nil {
		t.Fatal(err)
	}
	v, err := Decode(words, NewDateTime(""), &tab)
	if err != nil {
		t.Fatal(err)
	}
	got := v.(date.Time)
	if got.UnixMicro() != tm.UnixMicro() {
		t.Fatalf("decode mismatch: %v != %v", got, tm)
	}
}

func TestEncodePathError(t *testing.T) {
	var tab symbol.Table
	l := NewStruct(Field{"a", NewList(Scalar, 2)})
	_, err := Encode(nil, l, map[string]any{"a": []any{1.0, "oops"}}, &tab)
	if err == nil {
		t.Fatal("expected type mismatch error")
	}
	if got := err.Error(); got == "" {
		t.Fatal("expected non-empty error message")
	}
}

func TestEmptyList(t *testing.T) {
	var tab symbol.Table
	l := NewList(Scalar, 0)
	words, err := Encode(nil, l, []any{}, &tab)
	if err != nil {
		t.Fatal(err)
	}
	if len(words) != 0 {
		t.Fatalf("len(words) = %d, want 0", len(words))
	}
	v, err := Decode(nil, l, &tab)
	if err != nil {
		t.Fatal(err)
	}
	if len(v.([]any)) != 0 {
		t.Fatalf("decode mismatch: %v", v)
	}
}
