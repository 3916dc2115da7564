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

import "testing"

func TestListGet(t *testing.T) {
	g := New("g")
	a, _ := g.Const(10)
	b, _ := g.Const(20)
	c, _ := g.Const(30)
	idx, _ := g.Const(1)

	v, err := g.ListGet(List(RefValue{Ref: a}, RefValue{Ref: b}, RefValue{Ref: c}), idx)
	if err != nil {
		t.Fatal(err)
	}
	rv, ok := v.(RefValue)
	if !ok || rv.Ref.Type() != PrimScalar {
		t.Fatalf("expected a scalar RefValue, got %#v", v)
	}
	// the cascade must bottom out in a chain of Choose nodes
	if g.nodes[rv.Ref.idx].Op != OpChoose {
		t.Fatal("expected the result to be produced by a choose cascade")
	}
}

func TestListGetEmpty(t *testing.T) {
	g := New("g")
	idx, _ := g.Const(0)
	if _, err := g.ListGet(List(), idx); err == nil {
		t.Fatal("expected an error indexing an empty list")
	}
}

func TestListGetRequiresScalarIndex(t *testing.T) {
	g := New("g")
	a, _ := g.Const(1)
	notScalar, _ := g.ConstBool(true)
	if _, err := g.ListGet(List(RefValue{Ref: a}), notScalar); err == nil {
		t.Fatal("expected an error for a non-scalar index")
	}
}
