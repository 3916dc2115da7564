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

// leafPrim returns the Prim and op-specific immediate (a DateTime
// leaf's format string, otherwise nil) for a primitive leaf layout.
func leafPrim(l layout.Layout) (Prim, any) {
	switch l.Kind() {
	case layout.KindBool:
		return PrimBool, nil
	case layout.KindSymbol:
		return PrimSymbol, nil
	case layout.KindDateTime:
		return PrimDateTime, l.Format()
	default:
		return PrimScalar, nil
	}
}

// buildValue assembles a Value tree shaped like l, calling next once per
// primitive leaf (in l's flat encoding order, passed its own leaf
// layout so e.g. a DateTime leaf's format string is available) to
// obtain that leaf's Ref. It is the shared shape every multi-output
// builder operation (Input, MapGet, ResourceCall, CallSubgraph) uses to
// turn "one op that conceptually returns a composite value" into "one
// graph node per primitive leaf".
func buildValue(l layout.Layout, next func(leaf layout.Layout) (Ref, error)) (Value, error) {
	switch l.Kind() {
	case layout.KindUnit:
		return UnitValue{}, nil
	case layout.KindScalar, layout.KindBool, layout.KindSymbol, layout.KindDateTime:
		r, err := next(l)
		return RefValue{Ref: r}, err
	case layout.KindTuple:
		items := make([]Value, len(l.Items()))
		for i, it := range l.Items() {
			v, err := buildValue(it, next)
			if err != nil {
				return nil, err
			}
			items[i] = v
		}
		return TupleValue{Items: items}, nil
	case layout.KindStruct:
		fields := make([]NamedValue, len(l.Fields()))
		for i, f := range l.Fields() {
			v, err := buildValue(f.Layout, next)
			if err != nil {
				return nil, err
			}
			fields[i] = NamedValue{Name: f.Name, Value: v}
		}
		return StructValue{Fields: fields}, nil
	case layout.KindList:
		items := make([]Value, l.Size())
		for i := 0; i < l.Size(); i++ {
			v, err := buildValue(l.Elem(), next)
			if err != nil {
				return nil, err
			}
			items[i] = v
		}
		return ListValue{Items: items}, nil
	default:
		return nil, &jyafnerr.BuildError{Msg: "unreachable layout kind"}
	}
}
