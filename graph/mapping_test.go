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
	"github.com/viodotcom/jyafn/mapping"
)

func TestMapGet(t *testing.T) {
	g := New("g")
	pairs := mapping.NewPairs(func(yield func(any, any) bool) {
		yield(1.0, 10.0)
		yield(2.0, 20.0)
	})
	tbl, err := mapping.Build(layout.Scalar, layout.Scalar, pairs, g.Symbols())
	if err != nil {
		t.Fatal(err)
	}
	id := g.AddMapping(tbl)

	key, _ := g.Const(1)
	v, err := g.MapGet(id, RefValue{Ref: key})
	if err != nil {
		t.Fatal(err)
	}
	rv, ok := v.(RefValue)
	if !ok || rv.Ref.Type() != PrimScalar {
		t.Fatalf("expected a scalar RefValue, got %#v", v)
	}
	if g.nodes[rv.Ref.idx].Op != OpMapGet {
		t.Fatal("expected the leaf node to be a map_get")
	}
}

func TestMapGetOr(t *testing.T) {
	g := New("g")
	pairs := mapping.NewPairs(func(yield func(any, any) bool) {
		yield(1.0, 10.0)
	})
	tbl, err := mapping.Build(layout.Scalar, layout.Scalar, pairs, g.Symbols())
	if err != nil {
		t.Fatal(err)
	}
	id := g.AddMapping(tbl)

	key, _ := g.Const(2)
	def, _ := g.Const(-1)
	v, err := g.MapGetOr(id, RefValue{Ref: key}, RefValue{Ref: def})
	if err != nil {
		t.Fatal(err)
	}
	rv, ok := v.(RefValue)
	if !ok {
		t.Fatal("expected a RefValue")
	}
	n := g.nodes[rv.Ref.idx]
	if n.Op != OpMapGetOr {
		t.Fatal("expected the leaf node to be a map_get_or")
	}
	if len(n.Operands) != 2 {
		t.Fatalf("expected 2 operands (key, default), got %d", len(n.Operands))
	}
}

func TestMapGetUnknownMapping(t *testing.T) {
	g := New("g")
	key, _ := g.Const(1)
	if _, err := g.MapGet(7, RefValue{Ref: key}); err == nil {
		t.Fatal("expected an error for an unregistered mapping id")
	}
}
