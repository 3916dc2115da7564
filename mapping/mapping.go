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

// Package mapping implements the Mapping graph constant (C4, mapping
// half): an immutable Layout(K) -> Layout(V) lookup table built once
// from an iterable of host pairs. The "encode the key once, index on the
// encoded bytes" trick mirrors ion.Symtab.getBytes in the teacher
// package, and the "build once from an iterable, never mutate again"
// shape mirrors ion/blockfmt's constant tables.
package mapping

import (
	"encoding/binary"
	"errors"
	"iter"
	"strings"
	"sync/atomic"

	"github.com/viodotcom/jyafn/jyafnerr"
	"github.com/viodotcom/jyafn/layout"
	"github.com/viodotcom/jyafn/symbol"
)

// ErrConsumed is returned by Build when given a Pairs value whose
// underlying iterator has already been consumed by an earlier Build
// call.
var ErrConsumed = errors.New("mapping: iterator already consumed")

// Pairs wraps a one-shot key/value iterator. It may be passed to Build
// exactly once; a second attempt fails with ErrConsumed.
type Pairs struct {
	seq  iter.Seq2[any, any]
	used atomic.Bool
}

// NewPairs wraps seq as a one-shot Pairs source.
func NewPairs(seq iter.Seq2[any, any]) *Pairs {
	return &Pairs{seq: seq}
}

// FromMap returns a Pairs source iterating over m in unspecified order
// (Mapping's own ordering is not observable per spec.md §4.4).
func FromMap(m map[any]any) *Pairs {
	return NewPairs(func(yield func(any, any) bool) {
		for k, v := range m {
			if !yield(k, v) {
				return
			}
		}
	})
}

func (p *Pairs) consume() (iter.Seq2[any, any], error) {
	if !p.used.CompareAndSwap(false, true) {
		return nil, ErrConsumed
	}
	return p.seq, nil
}

// Interner is the subset of *symbol.Table that Build needs: it both
// looks up and interns symbols appearing only inside the mapping's keys
// or values (which, unlike the graph's own node constants, may not have
// been interned anywhere else yet).
type Interner interface {
	Intern(s string) symbol.ID
	Symbolize(s string) (symbol.ID, bool)
	Lookup(id symbol.ID) (string, bool)
}

// Table is a built, immutable mapping constant.
type Table struct {
	keyLayout layout.Layout
	valLayout layout.Layout
	entries   map[string][]uint64 // encoded key bytes -> encoded value words
}

// KeyLayout returns the mapping's key layout.
func (t *Table) KeyLayout() layout.Layout { return t.keyLayout }

// ValueLayout returns the mapping's value layout.
func (t *Table) ValueLayout() layout.Layout { return t.valLayout }

// Len returns the number of entries in the table.
func (t *Table) Len() int { return len(t.entries) }

// RawEntries returns the table's already-encoded key-bytes -> value-words
// entries, for package code's serializer. The returned map must not be
// mutated.
func (t *Table) RawEntries() map[string][]uint64 { return t.entries }

// FromRaw reconstructs a Table directly from already-encoded entries,
// the inverse of RawEntries, used when decoding a mapping constant back
// out of an artifact's MAPPINGS section.
func FromRaw(keyLayout, valLayout layout.Layout, entries map[string][]uint64) *Table {
	return &Table{keyLayout: keyLayout, valLayout: valLayout, entries: entries}
}

// Build consumes pairs exactly once, encoding each key/value pair
// against keyLayout/valLayout and interning any symbols encountered
// along the way. It returns ErrConsumed if pairs was already consumed by
// an earlier Build call.
func Build(keyLayout, valLayout layout.Layout, pairs *Pairs, tab Interner) (*Table, error) {
	seq, err := pairs.consume()
	if err != nil {
		return nil, err
	}
	t := &Table{
		keyLayout: keyLayout,
		valLayout: valLayout,
		entries:   make(map[string][]uint64),
	}
	var buildErr error
	seq(func(k, v any) bool {
		internSymbols(keyLayout, k, tab)
		internSymbols(valLayout, v, tab)
		kw, err := layout.Encode(nil, keyLayout, k, tab)
		if err != nil {
			buildErr = err
			return false
		}
		vw, err := layout.Encode(nil, valLayout, v, tab)
		if err != nil {
			buildErr = err
			return false
		}
		t.entries[keyBytes(kw)] = vw
		return true
	})
	if buildErr != nil {
		return nil, buildErr
	}
	return t, nil
}

// Get looks up key (encoded per the mapping's key layout) and returns
// its value and true, or (nil, false) if key is absent.
func (t *Table) Get(key any, tab Interner) (any, bool, error) {
	kw, err := layout.Encode(nil, t.keyLayout, key, tab)
	if err != nil {
		// Build interns every symbol its keys use, so a key naming a
		// symbol tab has never seen cannot be present.
		var ie *jyafnerr.InvocationError
		if errors.As(err, &ie) && strings.HasPrefix(ie.Msg, "unknown symbol") {
			return nil, false, nil
		}
		return nil, false, err
	}
	vw, ok := t.entries[keyBytes(kw)]
	if !ok {
		return nil, false, nil
	}
	v, err := layout.Decode(vw, t.valLayout, tab)
	return v, true, err
}

// GetWords looks up a key already encoded to its flat word
// representation, the form the compiled code's MapGet/MapGetOr
// instructions use at call time.
func (t *Table) GetWords(key []uint64) ([]uint64, bool) {
	vw, ok := t.entries[keyBytes(key)]
	return vw, ok
}

func keyBytes(words []uint64) string {
	buf := make([]byte, 8*len(words))
	for i, w := range words {
		binary.LittleEndian.PutUint64(buf[i*8:], w)
	}
	return string(buf)
}

func internSymbols(l layout.Layout, v any, tab Interner) {
	switch l.Kind() {
	case layout.KindSymbol:
		if s, ok := v.(string); ok {
			tab.Intern(s)
		}
	case layout.KindStruct:
		m, ok := v.(map[string]any)
		if !ok {
			return
		}
		for _, f := range l.Fields() {
			internSymbols(f.Layout, m[f.Name], tab)
		}
	case layout.KindTuple:
		s, ok := v.([]any)
		if !ok {
			return
		}
		for i, it := range l.Items() {
			if i < len(s) {
				internSymbols(it, s[i], tab)
			}
		}
	case layout.KindList:
		s, ok := v.([]any)
		if !ok {
			return
		}
		elem := l.Elem()
		for _, e := range s {
			internSymbols(elem, e, tab)
		}
	}
}
