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

//go:build unix

package engine

import (
	"os"

	"golang.org/x/sys/unix"
)

// mappedFile is a read-only memory-mapped artifact file, closed to
// release the mapping once the loaded Program tree is no longer
// needed. This mirrors cmd/sdb's mmap_linux.go and
// ion/blockfmt/mmap_linux.go, which both map a whole file read-only for
// the lifetime of a query; jyafn does the same for a loaded artifact,
// except through the portable golang.org/x/sys/unix wrapper rather than
// the raw syscall package.
type mappedFile struct {
	data []byte
}

// mmapFile maps path read-only for the calling process's lifetime of
// use. The caller must call Close when done to munmap the region.
func mmapFile(path string) (*mappedFile, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	fi, err := f.Stat()
	if err != nil {
		return nil, err
	}
	size := fi.Size()
	if size == 0 {
		return &mappedFile{data: nil}, nil
	}

	data, err := unix.Mmap(int(f.Fd()), 0, int(size), unix.PROT_READ, unix.MAP_SHARED)
	if err != nil {
		return nil, err
	}
	return &mappedFile{data: data}, nil
}

// Bytes returns the mapped region. It must not be retained past Close.
func (m *mappedFile) Bytes() []byte { return m.data }

// Close unmaps the region.
func (m *mappedFile) Close() error {
	if m.data == nil {
		return nil
	}
	err := unix.Munmap(m.data)
	m.data = nil
	return err
}
