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

package code

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"io"
	"math"
	"sort"

	"github.com/viodotcom/jyafn/layout"
)

// wireVersion guards Instr's field layout, bumped whenever a field is
// added, removed or reinterpreted. artifact.ABIVersion is the container
// format's own version and is independent of this one.
const wireVersion = 2

type writer struct {
	buf bytes.Buffer
	err error
}

func (w *writer) fail(err error) {
	if w.err == nil {
		w.err = err
	}
}

func (w *writer) u64(v uint64) {
	var tmp [8]byte
	binary.LittleEndian.PutUint64(tmp[:], v)
	w.buf.Write(tmp[:])
}

func (w *writer) i64(v int64) { w.u64(uint64(v)) }

func (w *writer) u8(v byte) { w.buf.WriteByte(v) }

func (w *writer) bool(v bool) {
	if v {
		w.u8(1)
	} else {
		w.u8(0)
	}
}

func (w *writer) f64(v float64) { w.u64(math.Float64bits(v)) }

func (w *writer) bytesField(b []byte) {
	w.u64(uint64(len(b)))
	w.buf.Write(b)
}

func (w *writer) str(s string) { w.bytesField([]byte(s)) }

func (w *writer) ints(xs []int) {
	w.u64(uint64(len(xs)))
	for _, x := range xs {
		w.i64(int64(x))
	}
}

func (w *writer) layout(l layout.Layout) {
	b, err := json.Marshal(l)
	if err != nil {
		w.fail(err)
		return
	}
	w.bytesField(b)
}

// Encode writes p's instructions, input/return shape, symbol table,
// mapping constants, resource type descriptors (TypeJSON only — the
// resources themselves are re-instantiated at Decode time via a
// caller-supplied factory), embedded sub-programs and metadata to w.
func (p *Program) Encode(w io.Writer) error {
	e := &writer{}
	e.u64(wireVersion)
	p.encodeInto(e)
	if e.err != nil {
		return e.err
	}
	_, err := w.Write(e.buf.Bytes())
	return err
}

func (p *Program) encodeInto(w *writer) {
	w.u64(uint64(len(p.Instrs)))
	for _, in := range p.Instrs {
		w.u8(byte(in.Op))
		w.u8(byte(in.Kind))
		w.ints(in.Operands)
		w.f64(in.Float)
		w.bool(in.Bool)
		w.u64(uint64(in.Sym))
		w.i64(in.DT.UnixMicro())
		w.str(in.Str)
		w.i64(int64(in.Index))
		w.i64(int64(in.Leaf))
		w.i64(int64(in.NumKey))
	}

	w.u64(uint64(len(p.Inputs)))
	for _, in := range p.Inputs {
		w.str(in.Name)
		w.u8(byte(in.Kind))
		w.i64(int64(in.Instr))
	}
	w.ints(p.Return)
	w.layout(p.InputLayout)
	w.layout(p.ReturnLayout)

	var symbols []string
	if p.Symbols != nil {
		symbols = p.Symbols.Strings()
	}
	w.u64(uint64(len(symbols)))
	for _, s := range symbols {
		w.str(s)
	}

	w.u64(uint64(len(p.Mappings)))
	for _, m := range p.Mappings {
		w.layout(m.KeyLayout())
		w.layout(m.ValueLayout())
		entries := m.RawEntries()
		keys := make([]string, 0, len(entries))
		for k := range entries {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		w.u64(uint64(len(keys)))
		for _, k := range keys {
			w.str(k)
			v := entries[k]
			w.u64(uint64(len(v)))
			for _, word := range v {
				w.u64(word)
			}
		}
	}

	var resourceTypes []string
	if p.Resources != nil {
		for _, r := range p.Resources.All() {
			tj, err := r.TypeJSON()
			if err != nil {
				w.fail(err)
				return
			}
			resourceTypes = append(resourceTypes, tj)
		}
	}
	w.u64(uint64(len(resourceTypes)))
	for _, tj := range resourceTypes {
		w.str(tj)
	}

	w.u64(uint64(len(p.Subprograms)))
	for _, sub := range p.Subprograms {
		sub.encodeInto(w)
	}

	metaKeys := make([]string, 0, len(p.Metadata))
	for k := range p.Metadata {
		metaKeys = append(metaKeys, k)
	}
	sort.Strings(metaKeys)
	w.u64(uint64(len(metaKeys)))
	for _, k := range metaKeys {
		w.str(k)
		w.str(p.Metadata[k])
	}
}
