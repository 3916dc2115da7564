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
	"fmt"
	"math"

	"github.com/viodotcom/jyafn/date"
	"github.com/viodotcom/jyafn/jyafnerr"
	"github.com/viodotcom/jyafn/symbol"
)

// SymbolTable is the subset of *symbol.Table that host-value encoding
// and decoding needs: turning symbol strings into ids (encode) and ids
// back into strings (decode). A mapping key/value of KindSymbol shares
// this same table with the surrounding graph/artifact.
type SymbolTable interface {
	Symbolize(s string) (symbol.ID, bool)
	Lookup(id symbol.ID) (string, bool)
}

// Encode walks v in lockstep with l and appends its flat word encoding
// to dst, returning the extended slice. v's shape must match l
// structurally:
//
//	Scalar   -> float64
//	Bool     -> bool
//	Symbol   -> string (must already be interned in tab)
//	DateTime -> date.Time
//	Struct   -> map[string]any, keyed by field name
//	Tuple/List -> []any, in order
//	Unit     -> anything (ignored)
//
// Errors are reported as *jyafnerr.InvocationError carrying a
// layout-path such as ".a.b[3]".
func Encode(dst []uint64, l Layout, v any, tab SymbolTable) ([]uint64, error) {
	return encode(dst, l, v, tab, "")
}

func encode(dst []uint64, l Layout, v any, tab SymbolTable, path string) ([]uint64, error) {
	switch l.kind {
	case KindUnit:
		return dst, nil
	case KindScalar:
		f, ok := toFloat(v)
		if !ok {
			return nil, pathErr(path, "expected scalar, got %T", v)
		}
		return append(dst, math.Float64bits(f)), nil
	case KindBool:
		b, ok := v.(bool)
		if !ok {
			return nil, pathErr(path, "expected bool, got %T", v)
		}
		if b {
			return append(dst, 1), nil
		}
		return append(dst, 0), nil
	case KindSymbol:
		s, ok := v.(string)
		if !ok {
			return nil, pathErr(path, "expected symbol (string), got %T", v)
		}
		id, ok := tab.Symbolize(s)
		if !ok {
			return nil, pathErr(path, "unknown symbol %q", s)
		}
		return append(dst, uint64(id)), nil
	case KindDateTime:
		t, ok := toTime(v)
		if !ok {
			return nil, pathErr(path, "expected datetime, got %T", v)
		}
		return append(dst, uint64(t.UnixMicro())), nil
	case KindStruct:
		m, ok := v.(map[string]any)
		if !ok {
			return nil, pathErr(path, "expected struct (map[string]any), got %T", v)
		}
		var err error
		for _, f := range l.fields {
			fv, present := m[f.Name]
			if !present {
				return nil, pathErr(path+"."+f.Name, "missing field")
			}
			dst, err = encode(dst, f.Layout, fv, tab, path+"."+f.Name)
			if err != nil {
				return nil, err
			}
		}
		return dst, nil
	case KindTuple:
		s, ok := v.([]any)
		if !ok {
			return nil, pathErr(path, "expected tuple ([]any), got %T", v)
		}
		if len(s) != len(l.items) {
			return nil, pathErr(path, "tuple has %d elements, expected %d", len(s), len(l.items))
		}
		var err error
		for i, it := range l.items {
			dst, err = encode(dst, it, s[i], tab, fmt.Sprintf("%s[%d]", path, i))
			if err != nil {
				return nil, err
			}
		}
		return dst, nil
	case KindList:
		s, ok := v.([]any)
		if !ok {
			return nil, pathErr(path, "expected list ([]any), got %T", v)
		}
		if len(s) != l.size {
			return nil, pathErr(path, "list has %d elements, expected %d", len(s), l.size)
		}
		var err error
		for i, e := range s {
			dst, err = encode(dst, *l.elem, e, tab, fmt.Sprintf("%s[%d]", path, i))
			if err != nil {
				return nil, err
			}
		}
		return dst, nil
	default:
		return nil, pathErr(path, "unreachable layout kind")
	}
}

// Decode reads l.Width() words from src (which must have at least that
// many words) and returns the corresponding host-native value, in the
// same shapes Encode accepts.
func Decode(src []uint64, l Layout, tab SymbolTable) (any, error) {
	v, _, err := decode(src, l, tab, "")
	return v, err
}

func decode(src []uint64, l Layout, tab SymbolTable, path string) (any, []uint64, error) {
	switch l.kind {
	case KindUnit:
		return nil, src, nil
	case KindScalar:
		if len(src) < 1 {
			return nil, nil, pathErr(path, "truncated buffer")
		}
		return math.Float64frombits(src[0]), src[1:], nil
	case KindBool:
		if len(src) < 1 {
			return nil, nil, pathErr(path, "truncated buffer")
		}
		return src[0] != 0, src[1:], nil
	case KindSymbol:
		if len(src) < 1 {
			return nil, nil, pathErr(path, "truncated buffer")
		}
		s, ok := tab.Lookup(symbol.ID(src[0]))
		if !ok {
			return nil, nil, pathErr(path, "unknown symbol id %d", src[0])
		}
		return s, src[1:], nil
	case KindDateTime:
		if len(src) < 1 {
			return nil, nil, pathErr(path, "truncated buffer")
		}
		return date.UnixMicro(int64(src[0])), src[1:], nil
	case KindStruct:
		m := make(map[string]any, len(l.fields))
		rest := src
		var v any
		var err error
		for _, f := range l.fields {
			v, rest, err = decode(rest, f.Layout, tab, path+"."+f.Name)
			if err != nil {
				return nil, nil, err
			}
			m[f.Name] = v
		}
		return m, rest, nil
	case KindTuple:
		out := make([]any, len(l.items))
		rest := src
		var v any
		var err error
		for i, it := range l.items {
			v, rest, err = decode(rest, it, tab, fmt.Sprintf("%s[%d]", path, i))
			if err != nil {
				return nil, nil, err
			}
			out[i] = v
		}
		return out, rest, nil
	case KindList:
		out := make([]any, l.size)
		rest := src
		var v any
		var err error
		for i := 0; i < l.size; i++ {
			v, rest, err = decode(rest, *l.elem, tab, fmt.Sprintf("%s[%d]", path, i))
			if err != nil {
				return nil, nil, err
			}
			out[i] = v
		}
		return out, rest, nil
	default:
		return nil, nil, pathErr(path, "unreachable layout kind")
	}
}

func pathErr(path, format string, args ...any) error {
	if path == "" {
		path = "."
	}
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
	default:
		return 0, false
	}
}

func toTime(v any) (date.Time, bool) {
	switch x := v.(type) {
	case date.Time:
		return x, true
	default:
		return date.Time{}, false
	}
}
