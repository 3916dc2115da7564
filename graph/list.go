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

import "github.com/viodotcom/jyafn/jyafnerr"

// ListGet selects list.Items[idx] where idx is a runtime-computed
// scalar reference, not a compile-time constant. Since the graph has no
// notion of a runtime array load, this is lowered as a cascade of
// Choose selects comparing idx against each compile-time index in
// turn - the "stack-copy-plus-select" strategy spec.md §4.1 calls for.
// Cost is O(len(list.Items)) regardless of which element is picked.
func (g *Graph) ListGet(list ListValue, idx Ref) (Value, error) {
	if len(list.Items) == 0 {
		return nil, &jyafnerr.BuildError{Op: "list_get", Msg: "cannot index an empty list"}
	}
	if err := requireScalar(OpChoose, idx); err != nil {
		return nil, &jyafnerr.BuildError{Op: "list_get", Msg: err.Error()}
	}
	result := list.Items[len(list.Items)-1]
	for i := len(list.Items) - 2; i >= 0; i-- {
		iConst, err := idx.g.Const(float64(i))
		if err != nil {
			return nil, err
		}
		cond, err := idx.Eq(iConst)
		if err != nil {
			return nil, err
		}
		result, err = selectValue(cond, list.Items[i], result)
		if err != nil {
			return nil, err
		}
	}
	return result, nil
}

// selectValue recursively applies Choose across two structurally
// matching Value trees.
func selectValue(cond Ref, a, b Value) (Value, error) {
	switch av := a.(type) {
	case UnitValue:
		return UnitValue{}, nil
	case RefValue:
		bv, ok := b.(RefValue)
		if !ok {
			return nil, &jyafnerr.BuildError{Op: "list_get", Msg: "list elements have mismatched shapes"}
		}
		r, err := cond.Choose(av.Ref, bv.Ref)
		return RefValue{Ref: r}, err
	case TupleValue:
		bv, ok := b.(TupleValue)
		if !ok || len(bv.Items) != len(av.Items) {
			return nil, &jyafnerr.BuildError{Op: "list_get", Msg: "list elements have mismatched shapes"}
		}
		items := make([]Value, len(av.Items))
		for i := range av.Items {
			v, err := selectValue(cond, av.Items[i], bv.Items[i])
			if err != nil {
				return nil, err
			}
			items[i] = v
		}
		return TupleValue{Items: items}, nil
	case StructValue:
		bv, ok := b.(StructValue)
		if !ok || len(bv.Fields) != len(av.Fields) {
			return nil, &jyafnerr.BuildError{Op: "list_get", Msg: "list elements have mismatched shapes"}
		}
		fields := make([]NamedValue, len(av.Fields))
		for i := range av.Fields {
			if av.Fields[i].Name != bv.Fields[i].Name {
				return nil, &jyafnerr.BuildError{Op: "list_get", Msg: "list elements have mismatched field names"}
			}
			v, err := selectValue(cond, av.Fields[i].Value, bv.Fields[i].Value)
			if err != nil {
				return nil, err
			}
			fields[i] = NamedValue{Name: av.Fields[i].Name, Value: v}
		}
		return StructValue{Fields: fields}, nil
	case ListValue:
		bv, ok := b.(ListValue)
		if !ok || len(bv.Items) != len(av.Items) {
			return nil, &jyafnerr.BuildError{Op: "list_get", Msg: "list elements have mismatched shapes"}
		}
		items := make([]Value, len(av.Items))
		for i := range av.Items {
			v, err := selectValue(cond, av.Items[i], bv.Items[i])
			if err != nil {
				return nil, err
			}
			items[i] = v
		}
		return ListValue{Items: items}, nil
	default:
		return nil, &jyafnerr.BuildError{Op: "list_get", Msg: "unrecognized value shape"}
	}
}
