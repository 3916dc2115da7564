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

package artifact

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"github.com/viodotcom/jyafn/code"
	"github.com/viodotcom/jyafn/code/engine"
	"github.com/viodotcom/jyafn/jyafnerr"
	"github.com/viodotcom/jyafn/resource"
)

// Loaded is a decoded, linked artifact: the code.Program handed to
// code/engine for execution, plus whatever process-wide state (loaded
// extension handles) must be released once the caller is done with it.
type Loaded struct {
	Program *code.Program
	Meta    map[string]string

	release []func()
	closer  io.Closer // non-nil only when loaded via LoadFile's mmap path
}

// Close releases every extension resource this artifact's tree pinned
// and, for an mmap-backed load, unmaps the underlying file. It is safe
// to call more than once.
func (l *Loaded) Close() error {
	for _, fn := range l.release {
		fn()
	}
	l.release = nil
	if l.closer != nil {
		c := l.closer
		l.closer = nil
		return c.Close()
	}
	return nil
}

// typeTag is the minimal shape every resource.Resource.TypeJSON string
// shares: enough to dispatch to a builtin reconstructor or to
// resource.Load without fully unmarshaling a type-specific payload
// twice.
type typeTag struct {
	Type      string `json:"type"`
	Extension string `json:"extension"`
	Resource  string `json:"resource"`
	N         int    `json:"n"`
}

// factory reconstructs a resource.Resource from its TypeJSON
// description, recording any extension release callback on out so
// Close can unpin it later. This is the code.ResourceFactory Decode
// needs; package resource has no notion of individual resource types
// (SquareMatrix) or the extension loader, so only artifact, sitting
// above both, can supply one.
func (out *Loaded) factory(typeJSON string) (resource.Resource, error) {
	var tag typeTag
	if err := json.Unmarshal([]byte(typeJSON), &tag); err != nil {
		return nil, &jyafnerr.SerializationError{Msg: "malformed resource type descriptor: " + err.Error()}
	}
	switch tag.Type {
	case "SquareMatrix":
		return resource.SquareMatrix{N: tag.N}, nil
	case "extension":
		r, release, err := resource.Load(tag.Extension, tag.Resource)
		if err != nil {
			return nil, err
		}
		out.release = append(out.release, release)
		return r, nil
	default:
		return nil, &jyafnerr.LinkError{Symbol: tag.Type, Msg: "unknown resource type"}
	}
}

// Load decodes, links and returns the artifact container read from r.
func Load(r io.Reader) (*Loaded, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return loadBytes(data, nil)
}

// LoadFile mmaps path read-only (code/engine.OpenMapped, falling back
// to a plain read on platforms or build tags where unix.Mmap is
// unavailable) so the container's on-disk bytes are parsed in place
// rather than copied onto the heap a second time before artifact's
// section framing even runs. The mapping is held open by the returned
// Loaded and released on Close.
func LoadFile(path string) (*Loaded, error) {
	f, err := engine.OpenMapped(path)
	if err != nil {
		return nil, err
	}
	loaded, err := loadBytes(f.Bytes(), f)
	if err != nil {
		f.Close()
		return nil, err
	}
	return loaded, nil
}

func loadBytes(data []byte, closer io.Closer) (*Loaded, error) {
	sections, err := readSections(data)
	if err != nil {
		return nil, err
	}
	meta, err := decodeMeta(sections[TagMeta])
	if err != nil {
		return nil, err
	}
	if want, ok := meta[MetaContentHash]; ok {
		got, err := contentHash(map[Tag][]byte{
			TagInputLayout:  sections[TagInputLayout],
			TagOutputLayout: sections[TagOutputLayout],
			TagSymbols:      sections[TagSymbols],
			TagMappings:     sections[TagMappings],
			TagResources:    sections[TagResources],
			TagSubgraphs:    sections[TagSubgraphs],
			TagCode:         sections[TagCode],
		})
		if err != nil {
			return nil, err
		}
		if got != want {
			return nil, &jyafnerr.SerializationError{Msg: fmt.Sprintf("content hash mismatch: artifact is corrupt (want %s, got %s)", want, got)}
		}
	}

	out := &Loaded{Meta: meta, closer: closer}
	program, err := code.Decode(bytes.NewReader(sections[TagCode]), out.factory)
	if err != nil {
		return nil, err
	}
	if err := program.Link(); err != nil {
		out.Close()
		return nil, err
	}
	out.Program = program
	return out, nil
}
