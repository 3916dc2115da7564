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

package symbol

import "testing"

func TestInternDedup(t *testing.T) {
	var tab Table
	a := tab.Intern("hello")
	b := tab.Intern("world")
	c := tab.Intern("hello")
	if a != c {
		t.Fatalf("expected same id for repeated intern, got %d and %d", a, c)
	}
	if a == b {
		t.Fatal("distinct strings got the same id")
	}
	if tab.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", tab.Len())
	}
}

func TestLookupSymbolize(t *testing.T) {
	var tab Table
	id := tab.Intern("a")
	s, ok := tab.Lookup(id)
	if !ok || s != "a" {
		t.Fatalf("Lookup(%d) = %q, %v", id, s, ok)
	}
	got, ok := tab.Symbolize("a")
	if !ok || got != id {
		t.Fatalf("Symbolize(a) = %d, %v; want %d, true", got, ok, id)
	}
	if _, ok := tab.Symbolize("missing"); ok {
		t.Fatal("Symbolize found a string that was never interned")
	}
}

func TestFromStrings(t *testing.T) {
	tab := FromStrings([]string{"a", "b", "c"})
	if tab.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", tab.Len())
	}
	id, ok := tab.Symbolize("b")
	if !ok || id != 1 {
		t.Fatalf("Symbolize(b) = %d, %v; want 1, true", id, ok)
	}
	if got := tab.Intern("b"); got != 1 {
		t.Fatalf("Intern(b) after FromStrings = %d, want 1", got)
	}
}
