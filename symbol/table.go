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

// Package symbol implements the per-graph/per-artifact symbol table
// (C2): a dense mapping from interned strings to small integer ids, with
// O(1) expected lookup in both directions. It is a direct generalization
// of ion.Symtab from the teacher package, minus the ten system-reserved
// symbols ion always carries (jyafn reserves none: id 0 is an ordinary
// symbol).
package symbol

// ID is an interned symbol id.
type ID uint64

// Table is a mutable, append-only symbol table. The zero value is an
// empty, ready-to-use table.
type Table struct {
	interned []string
	toindex  map[string]ID
}

// Len returns the number of interned symbols.
func (t *Table) Len() int { return len(t.interned) }

// Intern interns s if it is not already present and returns its id.
// Two calls with equal strings always return the same id.
func (t *Table) Intern(s string) ID {
	if t.toindex == nil {
		t.toindex = make(map[string]ID)
	}
	if id, ok := t.toindex[s]; ok {
		return id
	}
	id := ID(len(t.interned))
	t.interned = append(t.interned, s)
	t.toindex[s] = id
	return id
}

// Lookup returns the string associated with id, or ("", false) if id is
// not present in the table.
func (t *Table) Lookup(id ID) (string, bool) {
	if int(id) < 0 || int(id) >= len(t.interned) {
		return "", false
	}
	return t.interned[id], true
}

// Symbolize returns the id associated with s, or (0, false) if s has not
// been interned.
func (t *Table) Symbolize(s string) (ID, bool) {
	if t.toindex == nil {
		return 0, false
	}
	id, ok := t.toindex[s]
	return id, ok
}

// Strings returns the interned strings in id order. The returned slice
// must not be mutated by the caller.
func (t *Table) Strings() []string { return t.interned }

// FromStrings rebuilds a Table from a slice of strings in id order, the
// shape the artifact's SYMBOLS section decodes into.
func FromStrings(strs []string) *Table {
	t := &Table{
		interned: append([]string(nil), strs...),
		toindex:  make(map[string]ID, len(strs)),
	}
	for i, s := range t.interned {
		t.toindex[s] = ID(i)
	}
	return t
}
