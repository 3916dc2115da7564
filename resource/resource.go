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

// Package resource implements the Resource graph constant (C4, resource
// half): opaque typed objects exposing named methods that lower to
// ResourceCall graph nodes. The compiler never looks inside a Resource;
// only its method signatures matter, per spec.md §3.
package resource

import "github.com/viodotcom/jyafn/layout"

// Method is one named, typed entry point a Resource exposes.
type Method struct {
	Name string
	In   layout.Layout
	Out  layout.Layout
	// Call invokes the method against its already-encoded input words,
	// returning encoded output words. It must be safe for concurrent use
	// unless its extension is marked serial (see loadedExtension.serial).
	Call func(in []uint64) ([]uint64, error)
}

// Resource is an opaque, typed object exposing named methods. Built-in
// resources (SquareMatrix) and loaded Extension resources both satisfy
// this interface.
type Resource interface {
	// TypeJSON describes the resource's type, e.g.
	// {"type":"SquareMatrix","n":3} or
	// {"type":"extension","extension":"...","resource":"..."}.
	TypeJSON() (string, error)
	// Methods returns the resource's method table.
	Methods() []Method
}

// Find returns the named method of r, or (Method{}, false) if absent.
func Find(r Resource, name string) (Method, bool) {
	for _, m := range r.Methods() {
		if m.Name == name {
			return m, true
		}
	}
	return Method{}, false
}

// Table is the graph-owned, ordered list of resource constants,
// referenced by dense index from ResourceCall nodes, mirroring how
// ion/blockfmt builds an ordered, append-only table of constants.
type Table struct {
	resources []Resource
}

// Add appends r to the table and returns its dense index.
func (t *Table) Add(r Resource) int {
	t.resources = append(t.resources, r)
	return len(t.resources) - 1
}

// At returns the resource at index id.
func (t *Table) At(id int) Resource { return t.resources[id] }

// Len returns the number of resources in the table.
func (t *Table) Len() int { return len(t.resources) }

// All returns the resources in table order. The returned slice must not
// be mutated.
func (t *Table) All() []Resource { return t.resources }

// FromSlice builds a Table directly from an already-ordered slice of
// resources, used when an artifact's loader-time linker reconstructs a
// resource.Table from a decoded RESOURCES section.
func FromSlice(resources []Resource) *Table {
	return &Table{resources: append([]Resource(nil), resources...)}
}
