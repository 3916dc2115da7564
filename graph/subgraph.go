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
	"github.com/viodotcom/jyafn/jyafnerr"
	"github.com/viodotcom/jyafn/layout"
)

// CallSubgraphImm is the Imm payload of every OpCallSubgraph node: which
// embedded sub-graph to invoke (the node's own Operands carry the
// flattened argument list, the same shape MapGet/ResourceCall use) and
// which flat leaf of the callee's return layout this node produces.
type CallSubgraphImm struct {
	Subgraph int
	Leaf     int
}

// AddSubgraph embeds sub (which must already be closed) as a constant
// of g and returns its dense index, used by CallSubgraph. Recursion -
// sub's transitive closure including g - is checked defensively here,
// even though the embed-only-closed-graphs protocol makes it
// structurally unreachable: a Graph can only be embedded once closed,
// and g itself cannot be closed yet while it is still embedding things,
// so sub could never have embedded g (or a graph that embeds g)
// earlier. See DESIGN.md.
func (g *Graph) AddSubgraph(sub *Graph) (int, error) {
	if !sub.closed {
		return 0, &jyafnerr.BuildError{Op: "call_subgraph", Msg: "cannot embed a graph that is still open"}
	}
	if containsTransitively(sub, g) {
		return 0, &jyafnerr.BuildError{Op: "call_subgraph", Msg: "recursive sub-graph embedding: callee's closure includes the caller"}
	}
	g.subgraphs = append(g.subgraphs, sub)
	return len(g.subgraphs) - 1, nil
}

func containsTransitively(sub, target *Graph) bool {
	for _, s := range sub.subgraphs {
		if s == target || containsTransitively(s, target) {
			return true
		}
	}
	return false
}

// CallSubgraph invokes the sub-graph embedded at subgraphID with args
// (checked against its input layout), returning a Value shaped like
// its return layout.
func (g *Graph) CallSubgraph(subgraphID int, args Value) (Value, error) {
	if subgraphID < 0 || subgraphID >= len(g.subgraphs) {
		return nil, &jyafnerr.BuildError{Op: "call_subgraph", Msg: "no such sub-graph"}
	}
	callee := g.subgraphs[subgraphID]
	inLayout := inputsLayout(callee)
	operands, err := flatten(nil, inLayout, args, "$args")
	if err != nil {
		return nil, err
	}
	leaf := 0
	return buildValue(callee.ret.Layout, func(l layout.Layout) (Ref, error) {
		p, _ := leafPrim(l)
		imm := CallSubgraphImm{Subgraph: subgraphID, Leaf: leaf}
		leaf++
		return g.push(OpCallSubgraph, p, imm, operands...)
	})
}

// inputsLayout reassembles a callee's declared inputs as a single Tuple
// layout, in declaration order, since CallSubgraph always passes
// arguments positionally.
func inputsLayout(g *Graph) layout.Layout {
	items := make([]layout.Layout, len(g.inputs))
	for i, in := range g.inputs {
		items[i] = in.Layout
	}
	return layout.NewTuple(items...)
}
