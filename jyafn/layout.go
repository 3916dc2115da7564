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

// Package jyafn is the host bindings surface (C9): the layer a Go program
// actually imports to build, compile and run a jyafn function, without
// touching package graph, compiler, artifact or runtime directly. It is
// sugar, not a new capability — everything here composes those packages'
// exported surface the way Sneller's query layer sits atop its own
// lower-level plan/exec split.
package jyafn

import "github.com/viodotcom/jyafn/layout"

// Layout is a structural type description, re-exported from package
// layout so callers of this package never need its import path.
type Layout = layout.Layout

// Field names one member of a Struct layout.
type Field = layout.Field

var (
	// Scalar is the layout of an f64 value.
	Scalar = layout.Scalar
	// Bool is the layout of a boolean value.
	Bool = layout.Bool
	// Symbol is the layout of an interned-string value.
	Symbol = layout.Symbol
	// Unit is the zero-width layout.
	Unit = layout.Unit
)

// DateTime returns the layout of a timestamp formatted textually with
// format (strftime-style, per package date). An empty format uses
// layout.DateTimeDefaultFormat.
func DateTime(format string) Layout { return layout.NewDateTime(format) }

// NamedField builds one Struct field.
func NamedField(name string, l Layout) Field { return Field{Name: name, Layout: l} }

// Struct returns the layout of a named, ordered product of fields.
func Struct(fields ...Field) Layout { return layout.NewStruct(fields...) }

// Tuple returns the layout of an ordered, heterogeneous product of
// items.
func Tuple(items ...Layout) Layout { return layout.NewTuple(items...) }

// List returns the layout of a fixed-size, homogeneous sequence of n
// copies of elem.
func List(elem Layout, n int) Layout { return layout.NewList(elem, n) }

// Tensor is List sugar for an n-dimensional array of scalars: Tensor(3,4)
// describes the same flat 12-word layout as List(List(Scalar,4),3), a
// 3-by-4 matrix in row-major order. Tensor() (no dims) is Scalar.
func Tensor(dims ...int) Layout {
	if len(dims) == 0 {
		return Scalar
	}
	l := Scalar
	for i := len(dims) - 1; i >= 0; i-- {
		l = List(l, dims[i])
	}
	return l
}
