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
	"fmt"

	"github.com/viodotcom/jyafn/jyafnerr"
	"github.com/viodotcom/jyafn/layout"
)

// Value is the host-side, short-lived construction tree a builder
// assembles references into before declaring an Input or a Return: a
// single primitive Ref, or an ordered composite of Values, mirroring
// layout.Layout's own shape. A Go map has no defined iteration order,
// which would fight the "field order is the encoding order" invariant,
// so StructValue carries its fields as an ordered slice instead of a
// map[string]any the way layout.Layout itself does.
type Value interface {
	isValue()
}

// RefValue wraps a single primitive reference as a Value.
type RefValue struct{ Ref Ref }

// TupleValue is an ordered, heterogeneous composite Value.
type TupleValue struct{ Items []Value }

// ListValue is an ordered, homogeneous (same putative layout) composite
// Value.
type ListValue struct{ Items []Value }

// NamedValue is one field of a StructValue.
type NamedValue struct {
	Name  string
	Value Value
}

// StructValue is an ordered composite Value with named fields.
type StructValue struct{ Fields []NamedValue }

// UnitValue is the unique Value of layout.Unit.
type UnitValue struct{}

func (RefValue) isValue()    {}
func (TupleValue) isValue()  {}
func (ListValue) isValue()   {}
func (StructValue) isValue() {}
func (UnitValue) isValue()   {}

// Struct builds a StructValue from name/value pairs, preserving the
// order given.
func Struct(fields ...NamedValue) StructValue {
	return StructValue{Fields: append([]NamedValue(nil), fields...)}
}

// Tuple builds a TupleValue from its items, in order.
func Tuple(items ...Value) TupleValue {
	return TupleValue{Items: append([]Value(nil), items...)}
}

// List builds a ListValue from its items, in order. All items must
// share the same putative layout, checked lazily by Infer.
func List(items ...Value) ListValue {
	return ListValue{Items: append([]Value(nil), items...)}
}

// Infer computes v's putative layout: the Layout that Return would
// require if none were given explicitly. Per Design Notes §9, it is a
// structural fold over v's own shape (mappings and resources never
// appear inside a Value, so there is no ambiguity to resolve the way a
// bare host map would create).
func Infer(v Value) (layout.Layout, error) {
	switch t := v.(type) {
	case UnitValue:
		return layout.Unit, nil
	case RefValue:
		switch t.Ref.Type() {
		case PrimScalar:
			return layout.Scalar, nil
		case PrimBool:
			return layout.Bool, nil
		case PrimSymbol:
			return layout.Symbol, nil
		case PrimDateTime:
			return layout.NewDateTime(""), nil
		default:
			return layout.Layout{}, &jyafnerr.BuildError{Msg: "a ptr reference has no layout"}
		}
	case TupleValue:
		items := make([]layout.Layout, len(t.Items))
		for i, it := range t.Items {
			l, err := Infer(it)
			if err != nil {
				return layout.Layout{}, err
			}
			items[i] = l
		}
		return layout.NewTuple(items...), nil
	case StructValue:
		fields := make([]layout.Field, len(t.Fields))
		for i, f := range t.Fields {
			l, err := Infer(f.Value)
			if err != nil {
				return layout.Layout{}, err
			}
			fields[i] = layout.Field{Name: f.Name, Layout: l}
		}
		return layout.NewStruct(fields...), nil
	case ListValue:
		if len(t.Items) == 0 {
			return layout.Layout{}, &jyafnerr.BuildError{Msg: "cannot infer the element layout of an empty list; use Return with an explicit layout"}
		}
		inner, err := Infer(t.Items[0])
		if err != nil {
			return layout.Layout{}, err
		}
		for i, it := range t.Items[1:] {
			l, err := Infer(it)
			if err != nil {
				return layout.Layout{}, err
			}
			if !layout.Equal(inner, l) {
				return layout.Layout{}, &jyafnerr.BuildError{Msg: fmt.Sprintf("list element %d has a different layout than element 0", i+1)}
			}
		}
		return layout.NewList(inner, len(t.Items)), nil
	default:
		return layout.Layout{}, &jyafnerr.BuildError{Msg: "unrecognized value shape"}
	}
}

// flatten walks v against l in lockstep, appending v's leaf node indices
// to dst in l's flat encoding order. path is used only for error
// messages.
func flatten(dst []int, l layout.Layout, v Value, path string) ([]int, error) {
	switch l.Kind() {
	case layout.KindUnit:
		if _, ok := v.(UnitValue); !ok {
			return nil, &jyafnerr.BuildError{Msg: path + ": expected a unit value"}
		}
		return dst, nil
	case layout.KindScalar, layout.KindBool, layout.KindSymbol, layout.KindDateTime:
		rv, ok := v.(RefValue)
		if !ok {
			return nil, &jyafnerr.BuildError{Msg: path + ": expected a reference value"}
		}
		if err := typeMatchesLeaf(l, rv.Ref.Type()); err != nil {
			return nil, &jyafnerr.BuildError{Msg: path + ": " + err.Error()}
		}
		return append(dst, rv.Ref.idx), nil
	case layout.KindTuple:
		tv, ok := v.(TupleValue)
		if !ok {
			return nil, &jyafnerr.BuildError{Msg: path + ": expected a tuple value"}
		}
		items := l.Items()
		if len(items) != len(tv.Items) {
			return nil, &jyafnerr.BuildError{Msg: fmt.Sprintf("%s: tuple has %d items, layout wants %d", path, len(tv.Items), len(items))}
		}
		var err error
		for i, it := range items {
			dst, err = flatten(dst, it, tv.Items[i], fmt.Sprintf("%s[%d]", path, i))
			if err != nil {
				return nil, err
			}
		}
		return dst, nil
	case layout.KindStruct:
		sv, ok := v.(StructValue)
		if !ok {
			return nil, &jyafnerr.BuildError{Msg: path + ": expected a struct value"}
		}
		fields := l.Fields()
		if len(fields) != len(sv.Fields) {
			return nil, &jyafnerr.BuildError{Msg: fmt.Sprintf("%s: struct has %d fields, layout wants %d", path, len(sv.Fields), len(fields))}
		}
		var err error
		for i, f := range fields {
			if sv.Fields[i].Name != f.Name {
				return nil, &jyafnerr.BuildError{Msg: fmt.Sprintf("%s: field %d is named %q, layout wants %q", path, i, sv.Fields[i].Name, f.Name)}
			}
			dst, err = flatten(dst, f.Layout, sv.Fields[i].Value, path+"."+f.Name)
			if err != nil {
				return nil, err
			}
		}
		return dst, nil
	case layout.KindList:
		lv, ok := v.(ListValue)
		if !ok {
			return nil, &jyafnerr.BuildError{Msg: path + ": expected a list value"}
		}
		if len(lv.Items) != l.Size() {
			return nil, &jyafnerr.BuildError{Msg: fmt.Sprintf("%s: list has %d items, layout wants %d", path, len(lv.Items), l.Size())}
		}
		elem := l.Elem()
		var err error
		for i, it := range lv.Items {
			dst, err = flatten(dst, elem, it, fmt.Sprintf("%s[%d]", path, i))
			if err != nil {
				return nil, err
			}
		}
		return dst, nil
	default:
		return nil, &jyafnerr.BuildError{Msg: path + ": unreachable layout kind"}
	}
}

func typeMatchesLeaf(l layout.Layout, p Prim) error {
	switch l.Kind() {
	case layout.KindScalar:
		if p != PrimScalar {
			return fmt.Errorf("expected a scalar reference, got %s", p)
		}
	case layout.KindBool:
		if p != PrimBool {
			return fmt.Errorf("expected a bool reference, got %s", p)
		}
	case layout.KindSymbol:
		if p != PrimSymbol {
			return fmt.Errorf("expected a symbol reference, got %s", p)
		}
	case layout.KindDateTime:
		if p != PrimDateTime {
			return fmt.Errorf("expected a datetime reference, got %s", p)
		}
	}
	return nil
}

// unflatten is the inverse of flatten: it consumes leaf node indices
// from src (in l's flat encoding order) and builds a Value tree shaped
// like l, with each leaf wrapped as a RefValue bound to g.
func unflatten(g *Graph, l layout.Layout, src []int) (Value, []int, error) {
	switch l.Kind() {
	case layout.KindUnit:
		return UnitValue{}, src, nil
	case layout.KindScalar, layout.KindBool, layout.KindSymbol, layout.KindDateTime:
		if len(src) == 0 {
			return nil, nil, &jyafnerr.BuildError{Msg: "ran out of leaf nodes while unflattening"}
		}
		typ := PrimScalar
		switch l.Kind() {
		case layout.KindBool:
			typ = PrimBool
		case layout.KindSymbol:
			typ = PrimSymbol
		case layout.KindDateTime:
			typ = PrimDateTime
		}
		return RefValue{Ref: Ref{g: g, idx: src[0], typ: typ}}, src[1:], nil
	case layout.KindTuple:
		items := make([]Value, len(l.Items()))
		rest := src
		var v Value
		var err error
		for i, it := range l.Items() {
			v, rest, err = unflatten(g, it, rest)
			if err != nil {
				return nil, nil, err
			}
			items[i] = v
		}
		return TupleValue{Items: items}, rest, nil
	case layout.KindStruct:
		fields := make([]NamedValue, len(l.Fields()))
		rest := src
		var v Value
		var err error
		for i, f := range l.Fields() {
			v, rest, err = unflatten(g, f.Layout, rest)
			if err != nil {
				return nil, nil, err
			}
			fields[i] = NamedValue{Name: f.Name, Value: v}
		}
		return StructValue{Fields: fields}, rest, nil
	case layout.KindList:
		items := make([]Value, l.Size())
		rest := src
		var v Value
		var err error
		for i := 0; i < l.Size(); i++ {
			v, rest, err = unflatten(g, l.Elem(), rest)
			if err != nil {
				return nil, nil, err
			}
			items[i] = v
		}
		return ListValue{Items: items}, rest, nil
	default:
		return nil, nil, &jyafnerr.BuildError{Msg: "unreachable layout kind"}
	}
}
