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
	"github.com/viodotcom/jyafn/resource"
)

func TestResourceCall(t *testing.T) {
	g := New("g")
	id := g.AddResource(resource.SquareMatrix{N: 2})

	mat, err := g.Input("mat", layout.NewList(layout.Scalar, 4))
	if err != nil {
		t.Fatal(err)
	}
	out, err := g.ResourceCall(id, "det", mat)
	if err != nil {
		t.Fatal(err)
	}
	rv, ok := out.(RefValue)
	if !ok || rv.Ref.Type() != PrimScalar {
		t.Fatalf("expected a scalar RefValue, got %#v", out)
	}
	if g.nodes[rv.Ref.idx].Op != OpResourceCall {
		t.Fatal("expected the leaf node to be a resource_call")
	}
}

func TestResourceCallUnknownMethod(t *testing.T) {
	g := New("g")
	id := g.AddResource(resource.SquareMatrix{N: 2})
	mat, _ := g.Input("mat", layout.NewList(layout.Scalar, 4))
	if _, err := g.ResourceCall(id, "nope", mat); err == nil {
		t.Fatal("expected an error for an unknown method")
	}
}

func TestBindResource(t *testing.T) {
	g := New("g")
	id := g.AddResource(resource.SquareMatrix{N: 2})
	r, err := g.BindResource(id)
	if err != nil {
		t.Fatal(err)
	}
	if r.Type() != PrimPtr {
		t.Fatal("expected a ptr-typed reference")
	}
}
