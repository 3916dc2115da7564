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

package engine

// MappedFile is a read-only view of a whole file, backed by mmap where
// the platform supports it (mmap_unix.go) and by a plain read into a
// heap buffer otherwise (mmap_other.go). Close releases the mapping or
// buffer.
type MappedFile interface {
	Bytes() []byte
	Close() error
}

// OpenMapped maps path read-only for the lifetime of the returned
// MappedFile. Package artifact uses this so a loaded artifact's
// on-disk bytes are parsed in place rather than copied onto the heap a
// second time.
func OpenMapped(path string) (MappedFile, error) {
	return mmapFile(path)
}
