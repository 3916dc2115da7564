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

package mapping

import (
	"iter"
	"testing"

	"github.com/viodotcom/jyafn/layout"
	"github.com/viodotcom/jyafn/symbol"
)

func twoPairs() iter.Seq2[any, any] {
	return func(yield func(any, any) bool) {
		if !yield("a", 2.0) {
			return
		}
		yield("b", 4.0)
	}
}

func TestBuildGet(t *testing.T) {
	var tab symbol.Table
	p := NewPairs(twoPairs())
	m, err := Build(layout.Symbol, layout.Scalar, p, &tab)
	if err != nil {
		t.Fatal(err)
	}
	v, ok, err := m.Get("a", &tab)
	if err != nil || !ok || v.(float64) != 2.0 {
		t.Fatalf("Get(a) = %v, %v, %v", v, ok, err)
	}
	v, ok, err = m.Get("b", &tab)
	if err != nil || !ok || v.(float64) != 4.0 {
		t.Fatalf("Get(b) = %v, %v, %v", v, ok, err)
	}
	_, ok, err = m.Get("c", &tab)
	if err != nil || ok {
		t.Fatalf("Get(c) should miss, got %v, %v", ok, err)
	}
}

func TestConsumedIterator(t *testing.T) {
	var tab symbol.Table
	p := NewPairs(twoPairs())
	if _, err := Build(layout.Symbol, layout.Scalar, p, &tab); err != nil {
		t.Fatal(err)
	}
	if _, err := Build(layout.Symbol, layout.Scalar, p, &tab); err != ErrConsumed {
		t.Fatalf("second Build() = %v, want ErrConsumed", err)
	}
}

func TestFromMap(t *testing.T) {
	var tab symbol.Table
	p := FromMap(map[any]any{"x": 1.0, "y": 2.0})
	m, err := Build(layout.Symbol, layout.Scalar, p, &tab)
	if err != nil {
		t.Fatal(err)
	}
	if m.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", m.Len())
	}
}
