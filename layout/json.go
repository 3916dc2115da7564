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

package layout

import (
	"encoding/json"
	"fmt"
)

// envelope is the tagged-union JSON shape shared by every case, matching
// the wire shapes given in spec.md §6, e.g.
// {"type":"struct","fields":[["a",{"type":"scalar"}]]}.
type envelope struct {
	Type   string            `json:"type"`
	Format string            `json:"format,omitempty"`
	Fields []json.RawMessage `json:"fields,omitempty"` // each is a ["name", Layout] pair
	Items  []json.RawMessage `json:"items,omitempty"`
	Item   json.RawMessage   `json:"item,omitempty"`
	Size   int               `json:"size,omitempty"`
}

// MarshalJSON implements json.Marshaler by hand, per the tag-switch
// style ion.Datum and date.Time use in the teacher package rather than
// struct-tag-driven reflection, since Layout is a closed recursive sum
// type.
func (l Layout) MarshalJSON() ([]byte, error) {
	env := envelope{Type: l.kind.String()}
	switch l.kind {
	case KindDateTime:
		env.Format = l.format
	case KindStruct:
		for _, f := range l.fields {
			lb, err := json.Marshal(f.Layout)
			if err != nil {
				return nil, err
			}
			pair, err := json.Marshal([]json.RawMessage{
				json.RawMessage(mustQuote(f.Name)), lb,
			})
			if err != nil {
				return nil, err
			}
			env.Fields = append(env.Fields, pair)
		}
		if env.Fields == nil {
			env.Fields = []json.RawMessage{}
		}
	case KindTuple:
		for _, it := range l.items {
			ib, err := json.Marshal(it)
			if err != nil {
				return nil, err
			}
			env.Items = append(env.Items, ib)
		}
		if env.Items == nil {
			env.Items = []json.RawMessage{}
		}
	case KindList:
		ib, err := json.Marshal(*l.elem)
		if err != nil {
			return nil, err
		}
		env.Item = ib
		env.Size = l.size
	}
	return json.Marshal(env)
}

func mustQuote(s string) []byte {
	b, err := json.Marshal(s)
	if err != nil {
		panic(err)
	}
	return b
}

// UnmarshalJSON implements json.Unmarshaler, the inverse of MarshalJSON.
func (l *Layout) UnmarshalJSON(data []byte) error {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return fmt.Errorf("layout: %w", err)
	}
	switch env.Type {
	case "unit":
		*l = Unit
	case "scalar":
		*l = Scalar
	case "bool":
		*l = Bool
	case "symbol":
		*l = Symbol
	case "datetime":
		*l = NewDateTime(env.Format)
	case "struct":
		fields := make([]Field, 0, len(env.Fields))
		for _, raw := range env.Fields {
			var pair []json.RawMessage
			if err := json.Unmarshal(raw, &pair); err != nil || len(pair) != 2 {
				return fmt.Errorf("layout: malformed struct field: %s", raw)
			}
			var name string
			if err := json.Unmarshal(pair[0], &name); err != nil {
				return fmt.Errorf("layout: malformed field name: %w", err)
			}
			var sub Layout
			if err := json.Unmarshal(pair[1], &sub); err != nil {
				return fmt.Errorf("layout: malformed field %q: %w", name, err)
			}
			fields = append(fields, Field{Name: name, Layout: sub})
		}
		*l = NewStruct(fields...)
	case "tuple":
		items := make([]Layout, 0, len(env.Items))
		for _, raw := range env.Items {
			var sub Layout
			if err := json.Unmarshal(raw, &sub); err != nil {
				return fmt.Errorf("layout: malformed tuple item: %w", err)
			}
			items = append(items, sub)
		}
		*l = NewTuple(items...)
	case "list":
		var inner Layout
		if len(env.Item) > 0 {
			if err := json.Unmarshal(env.Item, &inner); err != nil {
				return fmt.Errorf("layout: malformed list item: %w", err)
			}
		}
		*l = NewList(inner, env.Size)
	default:
		return fmt.Errorf("layout: unknown type tag %q", env.Type)
	}
	return nil
}

// Render returns l's textual (JSON) representation.
func Render(l Layout) (string, error) {
	b, err := json.Marshal(l)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Parse parses a Layout from its textual (JSON) representation.
func Parse(s string) (Layout, error) {
	var l Layout
	if err := json.Unmarshal([]byte(s), &l); err != nil {
		return Layout{}, err
	}
	return l, nil
}
