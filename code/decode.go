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
	"fmt"
	"io"
	"math"

	"github.com/viodotcom/jyafn/date"
	"github.com/viodotcom/jyafn/graph"
	"github.com/viodotcom/jyafn/jyafnerr"
	"github.com/viodotcom/jyafn/layout"
	"github.com/viodotcom/jyafn/mapping"
	"github.com/viodotcom/jyafn/resource"
	"github.com/viodotcom/jyafn/symbol"
)

func dtFromMicro(us int64) date.Time { return date.UnixMicro(us) }

// ResourceFactory reconstructs a resource.Resource from the TypeJSON
// string it was originally described by (e.g.
// `{"type":"SquareMatrix","n":3}`). Package artifact supplies the
// concrete factory (Loaded.factory), since code has no knowledge of
// individual resource types or the extension loader.
type ResourceFactory func(typeJSON string) (resource.Resource, error)

type reader struct {
	buf *bytes.Reader
	err error
}

func (r *reader) fail(err error) {
	if r.err == nil {
		r.err = err
	}
}

func (r *reader) u64() uint64 {
	var tmp [8]byte
	if _, err := io.ReadFull(r.buf, tmp[:]); err != nil {
		r.fail(&jyafnerr.SerializationError{Msg: "truncated code stream: " + err.Error()})
		return 0
	}
	return binary.LittleEndian.Uint64(tmp[:])
}

func (r *reader) i64() int64    { return int64(r.u64()) }
func (r *reader) f64() float64  { return math.Float64frombits(r.u64()) }
func (r *reader) u8() byte {
	b, err := r.buf.ReadByte()
	if err != nil {
		r.fail(&jyafnerr.SerializationError{Msg: "truncated code stream: " + err.Error()})
	}
	return b
}
func (r *reader) bool() bool { return r.u8() != 0 }

func (r *reader) bytesField() []byte {
	n := r.u64()
	if r.err != nil {
		return nil
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(r.buf, buf); err != nil {
		r.fail(&jyafnerr.SerializationError{Msg: "truncated code stream: " + err.Error()})
		return nil
	}
	return buf
}

func (r *reader) str() string { return string(r.bytesField()) }

func (r *reader) ints() []int {
	n := r.u64()
	if n == 0 {
		return nil
	}
	out := make([]int, n)
	for i := range out {
		out[i] = int(r.i64())
	}
	return out
}

func (r *reader) layout() layout.Layout {
	b := r.bytesField()
	if r.err != nil {
		return layout.Layout{}
	}
	var l layout.Layout
	if err := json.Unmarshal(b, &l); err != nil {
		r.fail(&jyafnerr.SerializationError{Msg: "bad layout: " + err.Error()})
		return layout.Layout{}
	}
	return l
}

// Decode reads a Program previously written by Encode. resources
// reconstructs each resource constant from its TypeJSON description; it
// may be nil if the program carries no resource constants.
func Decode(rd io.Reader, resources ResourceFactory) (*Program, error) {
	data, err := io.ReadAll(rd)
	if err != nil {
		return nil, err
	}
	r := &reader{buf: bytes.NewReader(data)}
	v := r.u64()
	if v != wireVersion {
		return nil, &jyafnerr.SerializationError{Msg: fmt.Sprintf("unsupported code wire version %d", v)}
	}
	p := decodeInto(r, resources)
	if r.err != nil {
		return nil, r.err
	}
	return p, nil
}

func decodeInto(r *reader, resources ResourceFactory) *Program {
	p := &Program{}

	n := r.u64()
	p.Instrs = make([]Instr, n)
	for i := range p.Instrs {
		in := &p.Instrs[i]
		in.Op = graph.Op(r.u8())
		in.Kind = Kind(r.u8())
		in.Operands = r.ints()
		in.Float = r.f64()
		in.Bool = r.bool()
		in.Sym = symbol.ID(r.u64())
		in.DT = dtFromMicro(r.i64())
		in.Str = r.str()
		in.Index = int(r.i64())
		in.Leaf = int(r.i64())
		in.NumKey = int(r.i64())
	}

	ni := r.u64()
	p.Inputs = make([]InputSlot, ni)
	for i := range p.Inputs {
		p.Inputs[i] = InputSlot{Name: r.str(), Kind: Kind(r.u8()), Instr: int(r.i64())}
	}
	p.Return = r.ints()
	p.InputLayout = r.layout()
	p.ReturnLayout = r.layout()

	ns := r.u64()
	strs := make([]string, ns)
	for i := range strs {
		strs[i] = r.str()
	}
	p.Symbols = symbol.FromStrings(strs)

	nm := r.u64()
	p.Mappings = make([]*mapping.Table, nm)
	for i := range p.Mappings {
		keyLayout := r.layout()
		valLayout := r.layout()
		ne := r.u64()
		entries := make(map[string][]uint64, ne)
		for j := uint64(0); j < ne; j++ {
			k := r.str()
			nw := r.u64()
			words := make([]uint64, nw)
			for w := range words {
				words[w] = r.u64()
			}
			entries[k] = words
		}
		p.Mappings[i] = mapping.FromRaw(keyLayout, valLayout, entries)
	}

	nr := r.u64()
	if nr > 0 {
		resourceList := make([]resource.Resource, nr)
		for i := range resourceList {
			tj := r.str()
			if r.err != nil {
				break
			}
			if resources == nil {
				r.fail(&jyafnerr.SerializationError{Msg: "program has resource constants but no ResourceFactory was supplied"})
				break
			}
			res, err := resources(tj)
			if err != nil {
				r.fail(err)
				break
			}
			resourceList[i] = res
		}
		p.Resources = resource.FromSlice(resourceList)
	} else {
		p.Resources = resource.FromSlice(nil)
	}

	nsub := r.u64()
	p.Subprograms = make([]*Program, nsub)
	for i := range p.Subprograms {
		p.Subprograms[i] = decodeInto(r, resources)
	}

	nmeta := r.u64()
	if nmeta > 0 {
		p.Metadata = make(map[string]string, nmeta)
		for i := uint64(0); i < nmeta; i++ {
			k := r.str()
			v := r.str()
			p.Metadata[k] = v
		}
	}

	return p
}
