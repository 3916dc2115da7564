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

// Package layout implements the structural type (C1) describing how
// high-level structured values are encoded as a flat sequence of 64-bit
// words, plus round-trip encoders/decoders against both that word
// buffer and a textual (JSON) representation. The tag-switch shape here
// follows ion.Datum in the teacher package: a closed sum type is encoded
// and decoded with hand-written switches, not a reflective/tag-driven
// generic marshaller.
package layout

import "fmt"

// Kind identifies which case of the Layout sum type a value holds.
type Kind int

const (
	KindUnit Kind = iota
	KindScalar
	KindBool
	KindSymbol
	KindDateTime
	KindStruct
	KindTuple
	KindList
)

func (k Kind) String() string {
	switch k {
	case KindUnit:
		return "unit"
	case KindScalar:
		return "scalar"
	case KindBool:
		return "bool"
	case KindSymbol:
		return "symbol"
	case KindDateTime:
		return "datetime"
	case KindStruct:
		return "struct"
	case KindTuple:
		return "tuple"
	case KindList:
		return "list"
	default:
		return "unknown"
	}
}

// Field is one named member of a Struct layout. Order is significant: it
// is the order fields are concatenated into the flat encoding.
type Field struct {
	Name   string
	Layout Layout
}

// Layout is the recursive algebraic type described in spec.md §3:
//
//	Unit | Scalar | Bool | Symbol | DateTime(format) |
//	Struct(fields) | Tuple(items) | List(inner, size)
type Layout struct {
	kind   Kind
	format string  // DateTime only
	fields []Field // Struct only, insertion order preserved
	items  []Layout
	elem   *Layout // List only
	size   int     // List only
}

// Unit is the zero-width layout carried by operations with no return
// value (e.g. a graph built only for its assertions).
var Unit = Layout{kind: KindUnit}

// Scalar is the layout of an f64 value.
var Scalar = Layout{kind: KindScalar}

// Bool is the layout of a boolean value.
var Bool = Layout{kind: KindBool}

// Symbol is the layout of an interned-string value.
var Symbol = Layout{kind: KindSymbol}

// DateTimeDefaultFormat is used by NewDateTime("") and by JSON decoding
// of a datetime layout that omits its format field.
const DateTimeDefaultFormat = "%Y-%m-%dT%H:%M:%S%.f%z"

// NewDateTime returns the layout of a timestamp value formatted
// (textually) with format. An empty format means DateTimeDefaultFormat.
func NewDateTime(format string) Layout {
	if format == "" {
		format = DateTimeDefaultFormat
	}
	return Layout{kind: KindDateTime, format: format}
}

// NewStruct returns a Struct layout with the given fields, in the given
// order. Field order is semantically significant.
func NewStruct(fields ...Field) Layout {
	cp := append([]Field(nil), fields...)
	return Layout{kind: KindStruct, fields: cp}
}

// NewTuple returns a Tuple layout over the given element layouts, in
// order.
func NewTuple(items ...Layout) Layout {
	cp := append([]Layout(nil), items...)
	return Layout{kind: KindTuple, items: cp}
}

// NewList returns a List layout of size copies of inner. size must be
// >= 0; size == 0 is legal and encodes/decodes to zero words (see
// DESIGN.md's resolution of the spec's open question about empty
// lists).
func NewList(inner Layout, size int) Layout {
	if size < 0 {
		panic("layout: negative list size")
	}
	e := inner
	return Layout{kind: KindList, elem: &e, size: size}
}

// Kind returns which case of the sum type l holds.
func (l Layout) Kind() Kind { return l.kind }

// Format returns the format string of a DateTime layout. It panics if l
// is not a DateTime layout.
func (l Layout) Format() string {
	if l.kind != KindDateTime {
		panic("layout: Format called on non-datetime layout")
	}
	return l.format
}

// Fields returns the fields of a Struct layout. It panics if l is not a
// Struct layout. The returned slice must not be mutated.
func (l Layout) Fields() []Field {
	if l.kind != KindStruct {
		panic("layout: Fields called on non-struct layout")
	}
	return l.fields
}

// Items returns the element layouts of a Tuple layout. It panics if l is
// not a Tuple layout. The returned slice must not be mutated.
func (l Layout) Items() []Layout {
	if l.kind != KindTuple {
		panic("layout: Items called on non-tuple layout")
	}
	return l.items
}

// Elem returns the element layout of a List layout. It panics if l is
// not a List layout.
func (l Layout) Elem() Layout {
	if l.kind != KindList {
		panic("layout: Elem called on non-list layout")
	}
	return *l.elem
}

// Size returns the fixed size of a List layout. It panics if l is not a
// List layout.
func (l Layout) Size() int {
	if l.kind != KindList {
		panic("layout: Size called on non-list layout")
	}
	return l.size
}

// Width returns the flat width of l in 64-bit words, computed
// structurally per spec.md §3:
//
//	Unit=0, Scalar=Bool=Symbol=DateTime=1,
//	Struct/Tuple=sum of children, List(inner,n)=n*inner.Width()
func (l Layout) Width() int {
	switch l.kind {
	case KindUnit:
		return 0
	case KindScalar, KindBool, KindSymbol, KindDateTime:
		return 1
	case KindStruct:
		w := 0
		for _, f := range l.fields {
			w += f.Layout.Width()
		}
		return w
	case KindTuple:
		w := 0
		for _, it := range l.items {
			w += it.Width()
		}
		return w
	case KindList:
		return l.size * l.elem.Width()
	default:
		panic("layout: unreachable kind")
	}
}

// Equal reports whether l and other describe the same structural
// layout, including field names/order and the DateTime format string.
func Equal(l, other Layout) bool {
	if l.kind != other.kind {
		return false
	}
	switch l.kind {
	case KindDateTime:
		return l.format == other.format
	case KindStruct:
		if len(l.fields) != len(other.fields) {
			return false
		}
		for i := range l.fields {
			if l.fields[i].Name != other.fields[i].Name ||
				!Equal(l.fields[i].Layout, other.fields[i].Layout) {
				return false
			}
		}
		return true
	case KindTuple:
		if len(l.items) != len(other.items) {
			return false
		}
		for i := range l.items {
			if !Equal(l.items[i], other.items[i]) {
				return false
			}
		}
		return true
	case KindList:
		return l.size == other.size && Equal(*l.elem, *other.elem)
	default:
		return true
	}
}

// String renders l as a single-line debug form, e.g. "struct{a: scalar, b: list[bool,3]}".
func (l Layout) String() string {
	switch l.kind {
	case KindDateTime:
		return fmt.Sprintf("datetime[%q]", l.format)
	case KindStruct:
		s := "struct{"
		for i, f := range l.fields {
			if i > 0 {
				s += ", "
			}
			s += f.Name + ": " + f.Layout.String()
		}
		return s + "}"
	case KindTuple:
		s := "tuple["
		for i, it := range l.items {
			if i > 0 {
				s += ", "
			}
			s += it.String()
		}
		return s + "]"
	case KindList:
		return fmt.Sprintf("list[%s,%d]", l.elem.String(), l.size)
	default:
		return l.kind.String()
	}
}
