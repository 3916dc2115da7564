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
	"github.com/viodotcom/jyafn/resource"
)

// ResourceCallImm is the Imm payload of every OpResourceCall node: which
// resource and method to invoke, and which flat leaf of the method's
// output layout this node produces.
type ResourceCallImm struct {
	Resource int
	Method   string
	Leaf     int
}

// AddResource registers r as a graph constant and returns its dense
// index, used by ResourceCall and BindResource.
func (g *Graph) AddResource(r resource.Resource) int {
	return g.resources.Add(r)
}

// ResourceCall invokes the named method of the resource at resourceID,
// lowering to one OpResourceCall node per leaf of the method's output
// layout, per spec.md §4.4.
func (g *Graph) ResourceCall(resourceID int, method string, args Value) (Value, error) {
	if resourceID < 0 || resourceID >= g.resources.Len() {
		return nil, &jyafnerr.BuildError{Op: "resource_call", Msg: "no such resource"}
	}
	r := g.resources.At(resourceID)
	m, ok := resource.Find(r, method)
	if !ok {
		return nil, &jyafnerr.BuildError{Op: "resource_call", Msg: "no such method " + method}
	}
	argLeaves, err := flatten(nil, m.In, args, "$args")
	if err != nil {
		return nil, err
	}
	leaf := 0
	return buildValue(m.Out, func(l layout.Layout) (Ref, error) {
		p, _ := leafPrim(l)
		imm := ResourceCallImm{Resource: resourceID, Method: method, Leaf: leaf}
		leaf++
		return g.push(OpResourceCall, p, imm, argLeaves...)
	})
}

// BindResource emits a ptr-typed reference standing for the resource
// instance at resourceID, for host bindings that want to offer a
// Ref-shaped handle instead of threading the raw index
// through Graph.ResourceCall.
func (g *Graph) BindResource(resourceID int) (Ref, error) {
	if resourceID < 0 || resourceID >= g.resources.Len() {
		return Ref{}, &jyafnerr.BuildError{Op: "bind_resource", Msg: "no such resource"}
	}
	return g.push(OpBindResource, PrimPtr, resourceID)
}
