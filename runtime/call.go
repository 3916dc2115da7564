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

package runtime

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/viodotcom/jyafn/date"
	"github.com/viodotcom/jyafn/jyafnerr"
	"github.com/viodotcom/jyafn/layout"
)

// flattenValue walks v against l in lockstep, the same traversal
// graph.flatten and layout.Encode use (struct fields, then tuple items,
// then list elements, all in declared order), producing one entry per
// primitive leaf typed exactly as code/engine.Run wants: float64, bool,
// string or date.Time. Unlike layout.Encode, leaves are never reduced to
// a uint64 word: a KindSymbol leaf stays a plain Go string and a
// KindDateTime leaf stays a date.Time, since code/engine's registers hold
// those types directly and a value produced at call time (e.g. by
// format_dt) may not be a symbol the program's static table ever
// interned.
func flattenValue(l layout.Layout, v any, path string) ([]any, error) {
	switch l.Kind() {
	case layout.KindUnit:
		return nil, nil
	case layout.KindScalar:
		f, ok := toFloat(v)
		if !ok {
			return nil, pathErr(path, "expected a scalar, got %T", v)
		}
		return []any{f}, nil
	case layout.KindBool:
		b, ok := v.(bool)
		if !ok {
			return nil, pathErr(path, "expected a bool, got %T", v)
		}
		return []any{b}, nil
	case layout.KindSymbol:
		s, ok := v.(string)
		if !ok {
			return nil, pathErr(path, "expected a symbol (string), got %T", v)
		}
		return []any{s}, nil
	case layout.KindDateTime:
		t, ok := toTime(v, l.Format())
		if !ok {
			return nil, pathErr(path, "expected a datetime, got %T", v)
		}
		return []any{t}, nil
	case layout.KindStruct:
		m, ok := v.(map[string]any)
		if !ok {
			return nil, pathErr(path, "expected a struct (map[string]any), got %T", v)
		}
		var out []any
		for _, f := range l.Fields() {
			fv, present := m[f.Name]
			if !present {
				return nil, pathErr(path+"."+f.Name, "missing field")
			}
			leaves, err := flattenValue(f.Layout, fv, path+"."+f.Name)
			if err != nil {
				return nil, err
			}
			out = append(out, leaves...)
		}
		return out, nil
	case layout.KindTuple:
		s, ok := v.([]any)
		if !ok {
			return nil, pathErr(path, "expected a tuple ([]any), got %T", v)
		}
		items := l.Items()
		if len(s) != len(items) {
			return nil, pathErr(path, "tuple has %d elements, expected %d", len(s), len(items))
		}
		var out []any
		for i, it := range items {
			leaves, err := flattenValue(it, s[i], fmt.Sprintf("%s[%d]", path, i))
			if err != nil {
				return nil, err
			}
			out = append(out, leaves...)
		}
		return out, nil
	case layout.KindList:
		s, ok := v.([]any)
		if !ok {
			return nil, pathErr(path, "expected a list ([]any), got %T", v)
		}
		if len(s) != l.Size() {
			return nil, pathErr(path, "list has %d elements, expected %d", len(s), l.Size())
		}
		elem := l.Elem()
		var out []any
		for i, e := range s {
			leaves, err := flattenValue(elem, e, fmt.Sprintf("%s[%d]", path, i))
			if err != nil {
				return nil, err
			}
			out = append(out, leaves...)
		}
		return out, nil
	default:
		return nil, pathErr(path, "unreachable layout kind")
	}
}

// unflattenValue is flattenValue's inverse: it consumes leaves (as
// code/engine.Run returned them) in l's flat order and rebuilds a host
// value of the same shapes flattenValue accepts.
func unflattenValue(l layout.Layout, leaves []any) (any, []any, error) {
	switch l.Kind() {
	case layout.KindUnit:
		return nil, leaves, nil
	case layout.KindScalar, layout.KindBool, layout.KindSymbol, layout.KindDateTime:
		if len(leaves) == 0 {
			return nil, nil, &jyafnerr.InvocationError{Msg: "ran out of leaves while decoding a return value"}
		}
		return leaves[0], leaves[1:], nil
	case layout.KindStruct:
		m := make(map[string]any, len(l.Fields()))
		rest := leaves
		var v any
		var err error
		for _, f := range l.Fields() {
			v, rest, err = unflattenValue(f.Layout, rest)
			if err != nil {
				return nil, nil, err
			}
			m[f.Name] = v
		}
		return m, rest, nil
	case layout.KindTuple:
		out := make([]any, len(l.Items()))
		rest := leaves
		var v any
		var err error
		for i, it := range l.Items() {
			v, rest, err = unflattenValue(it, rest)
			if err != nil {
				return nil, nil, err
			}
			out[i] = v
		}
		return out, rest, nil
	case layout.KindList:
		out := make([]any, l.Size())
		rest := leaves
		var v any
		var err error
		for i := 0; i < l.Size(); i++ {
			v, rest, err = unflattenValue(l.Elem(), rest)
			if err != nil {
				return nil, nil, err
			}
			out[i] = v
		}
		return out, rest, nil
	default:
		return nil, nil, &jyafnerr.InvocationError{Msg: "unreachable layout kind"}
	}
}

func pathErr(path, format string, args ...any) error {
	return &jyafnerr.InvocationError{Path: path, Msg: fmt.Sprintf(format, args...)}
}

func toFloat(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case float32:
		return float64(x), true
	case int:
		return float64(x), true
	case int64:
		return float64(x), true
	case json.Number:
		f, err := x.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}

func toTime(v any, format string) (date.Time, bool) {
	switch x := v.(type) {
	case date.Time:
		return x, true
	case string:
		return date.ParseFormat(x, format)
	default:
		return date.Time{}, false
	}
}

// toJSONValue walks v (as unflattenValue built it) against l, rendering
// every date.Time leaf as a string per l's format so the result is
// directly json.Marshal-able; every other leaf is already JSON-native.
func toJSONValue(l layout.Layout, v any) any {
	switch l.Kind() {
	case layout.KindUnit:
		return nil
	case layout.KindDateTime:
		return date.FormatString(v.(date.Time), l.Format())
	case layout.KindStruct:
		m := v.(map[string]any)
		out := make(map[string]any, len(m))
		for _, f := range l.Fields() {
			out[f.Name] = toJSONValue(f.Layout, m[f.Name])
		}
		return out
	case layout.KindTuple:
		s := v.([]any)
		out := make([]any, len(s))
		for i, it := range l.Items() {
			out[i] = toJSONValue(it, s[i])
		}
		return out
	case layout.KindList:
		s := v.([]any)
		elem := l.Elem()
		out := make([]any, len(s))
		for i, e := range s {
			out[i] = toJSONValue(elem, e)
		}
		return out
	default:
		return v
	}
}

// CallJSON decodes in as JSON, calls the function, and re-encodes the
// result as JSON. A datetime leaf is expected as a string formatted per
// its layout's format (or any format Go's reference-layout-based parser
// in package date accepts against it) on input, and is rendered the same
// way on output.
func (f *Function) CallJSON(ctx context.Context, in []byte) ([]byte, error) {
	var v any
	if err := json.Unmarshal(in, &v); err != nil {
		return nil, &jyafnerr.InvocationError{Msg: "malformed JSON input: " + err.Error()}
	}
	out, err := f.Call(ctx, v)
	if err != nil {
		return nil, err
	}
	return json.Marshal(toJSONValue(f.loaded.Program.ReturnLayout, out))
}
