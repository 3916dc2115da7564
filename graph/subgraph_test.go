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

func buildDouble(t *testing.T) *Graph {
	t.Helper()
	g, h := Begin("double")
	x, err := g.Input("x", layout.Scalar)
	if err != nil {
		t.Fatal(err)
	}
	two, _ := g.Const(2)
	y, err := x.(RefValue).Ref.Mul(two)
	if err != nil {
		t.Fatal(err)
	}
	if err := g.SetReturn(RefValue{Ref: y}, layout.Scalar); err != nil {
		t.Fatal(err)
	}
	return h.End()
}

func TestCallSubgraph(t *testing.T) {
	double := buildDouble(t)

	outer, h := Begin("outer")
	id, err := outer.AddSubgraph(double)
	if err != nil {
		t.Fatal(err)
	}
	x, err := outer.Input("x", layout.Scalar)
	if err != nil {
		t.Fatal(err)
	}
	result, err := outer.CallSubgraph(id, Tuple(x))
	if err != nil {
		t.Fatal(err)
	}
	if err := outer.SetReturn(result, layout.Scalar); err != nil {
		t.Fatal(err)
	}
	closed := h.End()
	if len(closed.Subgraphs()) != 1 {
		t.Fatalf("expected 1 embedded sub-graph, got %d", len(closed.Subgraphs()))
	}
	var calls int
	for i := 0; i < closed.Len(); i++ {
		if closed.NodeAt(i).Op == OpCallSubgraph {
			calls++
		}
	}
	if calls != 1 {
		t.Fatalf("expected 1 call_subgraph node, got %d", calls)
	}
}

func TestCallSubgraphRejectsOpenGraph(t *testing.T) {
	open := New("open")
	outer := New("outer")
	if _, err := outer.AddSubgraph(open); err == nil {
		t.Fatal("expected an error embedding a still-open graph")
	}
}

func TestContainsTransitively(t *testing.T) {
	leaf := New("leaf")
	leaf.closed = true
	mid := New("mid")
	mid.subgraphs = append(mid.subgraphs, leaf)
	mid.closed = true
	if !containsTransitively(mid, leaf) {
		t.Fatal("expected mid's transitive closure to include leaf")
	}
	other := New("other")
	other.closed = true
	if containsTransitively(mid, other) {
		t.Fatal("did not expect mid's transitive closure to include an unrelated graph")
	}
}
