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

// Package artifact implements jyafn's function artifact (C6): a
// self-describing container file holding a compiled code.Program plus
// enough side information (layouts, symbols, mapping/resource
// descriptions) to introspect it without a full decode. The framing —
// four-byte magic, version, then a flat list of length-prefixed,
// tagged sections — is a direct generalization of ion/blockfmt's own
// trailer (offset+length per named region) to a single-file format.
package artifact

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/google/uuid"
	"github.com/klauspost/compress/zstd"
	"golang.org/x/crypto/blake2b"

	"github.com/viodotcom/jyafn/code"
	"github.com/viodotcom/jyafn/jyafnerr"
)

// Magic is the four-byte file signature every artifact begins with.
const Magic = "jyaf"

// ABIVersion guards the container framing and code.Instr's wire shape
// together. Load rejects any artifact whose version does not match
// exactly, the "incompatible artifact" failure mode of spec.md §4.
const ABIVersion uint32 = 1

// Tag identifies one section of the container. The set is closed; an
// unrecognized tag on load is a SerializationError, never silently
// skipped, since a future section kind could change load semantics.
type Tag uint32

const (
	TagMeta Tag = iota
	TagInputLayout
	TagOutputLayout
	TagSymbols
	TagMappings
	TagResources
	TagSubgraphs
	TagCode
	tagCount
)

func (t Tag) String() string {
	switch t {
	case TagMeta:
		return "META"
	case TagInputLayout:
		return "INPUT_LAYOUT"
	case TagOutputLayout:
		return "OUTPUT_LAYOUT"
	case TagSymbols:
		return "SYMBOLS"
	case TagMappings:
		return "MAPPINGS"
	case TagResources:
		return "RESOURCES"
	case TagSubgraphs:
		return "SUBGRAPHS"
	case TagCode:
		return "CODE"
	default:
		return "UNKNOWN"
	}
}

// MetaArtifactID and MetaContentHash are the two metadata keys Save
// always populates.
const (
	MetaArtifactID  = "artifact_id"
	MetaContentHash = "content_hash"
)

// compressedTags are the sections large enough that zstd pays for
// itself; mirrors compr's own "only the hot/bulk sections" scoping.
var compressedTags = map[Tag]bool{TagCode: true, TagResources: true}

// Save writes p's artifact container to w: a MAPPINGS/SYMBOLS/RESOURCES
// debug view derived from p's top level (for DescribeJSON and cmd/jyafn
// desc, which should not need a full code.Decode to answer "what does
// this take as input"), plus one CODE section carrying p.Encode's
// self-contained byte stream, which is the only section Load actually
// needs to reconstruct p.
//
// meta is copied into the META section; Save always adds/overwrites
// "artifact_id" (a fresh google/uuid.NewString, unless the caller
// already supplied one) and "content_hash" (a blake2b-256 digest of
// every other section, hex-encoded, checked again by Load).
func Save(w io.Writer, p *code.Program, meta map[string]string) error {
	sections := make(map[Tag][]byte, tagCount)

	inputLayoutJSON, err := p.InputLayout.MarshalJSON()
	if err != nil {
		return fmt.Errorf("artifact: marshaling input layout: %w", err)
	}
	sections[TagInputLayout] = inputLayoutJSON

	outputLayoutJSON, err := p.ReturnLayout.MarshalJSON()
	if err != nil {
		return fmt.Errorf("artifact: marshaling output layout: %w", err)
	}
	sections[TagOutputLayout] = outputLayoutJSON

	sections[TagSymbols] = encodeSymbols(p)
	sections[TagMappings] = encodeMappingsDebug(p)

	resourcesDebug, err := encodeResourcesDebug(p)
	if err != nil {
		return err
	}
	sections[TagResources] = resourcesDebug
	sections[TagSubgraphs] = encodeSubgraphsDebug(p)

	var codeBuf bytes.Buffer
	if err := p.Encode(&codeBuf); err != nil {
		return fmt.Errorf("artifact: encoding code: %w", err)
	}
	sections[TagCode] = codeBuf.Bytes()

	hash, err := contentHash(sections)
	if err != nil {
		return err
	}
	fullMeta := make(map[string]string, len(meta)+2)
	for k, v := range meta {
		fullMeta[k] = v
	}
	if fullMeta[MetaArtifactID] == "" {
		fullMeta[MetaArtifactID] = uuid.NewString()
	}
	fullMeta[MetaContentHash] = hash
	sections[TagMeta] = encodeMeta(fullMeta)

	return writeContainer(w, sections)
}

func writeContainer(w io.Writer, sections map[Tag][]byte) error {
	var buf bytes.Buffer
	buf.WriteString(Magic)
	writeU32(&buf, ABIVersion)

	order := []Tag{TagMeta, TagInputLayout, TagOutputLayout, TagSymbols, TagMappings, TagResources, TagSubgraphs, TagCode}
	writeU32(&buf, uint32(len(order)))
	for _, tag := range order {
		raw := sections[tag]
		payload := raw
		if compressedTags[tag] {
			payload = compress(raw)
		}
		writeU32(&buf, uint32(tag))
		writeU64(&buf, uint64(len(payload)))
		buf.Write(payload)
	}
	_, err := w.Write(buf.Bytes())
	return err
}

func contentHash(sections map[Tag][]byte) (string, error) {
	h, err := blake2b.New256(nil)
	if err != nil {
		return "", fmt.Errorf("artifact: blake2b: %w", err)
	}
	for _, tag := range []Tag{TagInputLayout, TagOutputLayout, TagSymbols, TagMappings, TagResources, TagSubgraphs, TagCode} {
		h.Write(sections[tag])
	}
	return fmt.Sprintf("%x", h.Sum(nil)), nil
}

func compress(raw []byte) []byte {
	enc, err := zstd.NewWriter(nil)
	if err != nil {
		// zstd.NewWriter only fails on bad options; none are set here.
		panic(err)
	}
	defer enc.Close()
	compressed := enc.EncodeAll(raw, nil)
	if len(compressed)+1 >= len(raw)+1 {
		return append([]byte{0}, raw...)
	}
	return append([]byte{1}, compressed...)
}

func decompress(payload []byte) ([]byte, error) {
	if len(payload) == 0 {
		return nil, &jyafnerr.SerializationError{Msg: "empty section payload"}
	}
	flag, body := payload[0], payload[1:]
	switch flag {
	case 0:
		return body, nil
	case 1:
		dec, err := zstd.NewReader(nil)
		if err != nil {
			return nil, fmt.Errorf("artifact: zstd reader: %w", err)
		}
		defer dec.Close()
		out, err := dec.DecodeAll(body, nil)
		if err != nil {
			return nil, &jyafnerr.SerializationError{Msg: "corrupt zstd section: " + err.Error()}
		}
		return out, nil
	default:
		return nil, &jyafnerr.SerializationError{Msg: fmt.Sprintf("unknown compression flag %d", flag)}
	}
}

// readSections parses the container framing from data and returns the
// decompressed bytes of every section it finds, keyed by Tag.
func readSections(data []byte) (map[Tag][]byte, error) {
	if len(data) < len(Magic)+8 || string(data[:len(Magic)]) != Magic {
		return nil, &jyafnerr.SerializationError{Msg: "bad magic: not a jyafn artifact"}
	}
	r := bytes.NewReader(data[len(Magic):])
	version := readU32(r)
	if version != ABIVersion {
		return nil, &jyafnerr.SerializationError{Msg: fmt.Sprintf("incompatible artifact: ABI version %d, loader wants %d", version, ABIVersion)}
	}
	n := readU32(r)
	out := make(map[Tag][]byte, n)
	for i := uint32(0); i < n; i++ {
		if r.Len() < 12 {
			return nil, &jyafnerr.SerializationError{Msg: "truncated artifact: section header"}
		}
		tag := Tag(readU32(r))
		length := readU64(r)
		if uint64(r.Len()) < length {
			return nil, &jyafnerr.SerializationError{Msg: fmt.Sprintf("truncated artifact: section %s wants %d bytes", tag, length)}
		}
		raw := make([]byte, length)
		if _, err := io.ReadFull(r, raw); err != nil {
			return nil, &jyafnerr.SerializationError{Msg: "truncated artifact: " + err.Error()}
		}
		if compressedTags[tag] {
			decoded, err := decompress(raw)
			if err != nil {
				return nil, err
			}
			raw = decoded
		}
		out[tag] = raw
	}
	return out, nil
}

func writeU32(buf *bytes.Buffer, v uint32) {
	var tmp [4]byte
	binary.LittleEndian.PutUint32(tmp[:], v)
	buf.Write(tmp[:])
}

func writeU64(buf *bytes.Buffer, v uint64) {
	var tmp [8]byte
	binary.LittleEndian.PutUint64(tmp[:], v)
	buf.Write(tmp[:])
}

func readU32(r *bytes.Reader) uint32 {
	var tmp [4]byte
	io.ReadFull(r, tmp[:])
	return binary.LittleEndian.Uint32(tmp[:])
}

func readU64(r *bytes.Reader) uint64 {
	var tmp [8]byte
	io.ReadFull(r, tmp[:])
	return binary.LittleEndian.Uint64(tmp[:])
}

func encodeMeta(meta map[string]string) []byte {
	var buf bytes.Buffer
	writeU64(&buf, uint64(len(meta)))
	for k, v := range meta {
		writeStr(&buf, k)
		writeStr(&buf, v)
	}
	return buf.Bytes()
}

func decodeMeta(raw []byte) (map[string]string, error) {
	r := bytes.NewReader(raw)
	n := readU64(r)
	meta := make(map[string]string, n)
	for i := uint64(0); i < n; i++ {
		k, err := readStr(r)
		if err != nil {
			return nil, err
		}
		v, err := readStr(r)
		if err != nil {
			return nil, err
		}
		meta[k] = v
	}
	return meta, nil
}

func writeStr(buf *bytes.Buffer, s string) {
	writeU64(buf, uint64(len(s)))
	buf.WriteString(s)
}

func readStr(r *bytes.Reader) (string, error) {
	n := readU64(r)
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return "", &jyafnerr.SerializationError{Msg: "truncated string: " + err.Error()}
	}
	return string(buf), nil
}

func encodeSymbols(p *code.Program) []byte {
	var buf bytes.Buffer
	strs := p.Symbols.Strings()
	writeU64(&buf, uint64(len(strs)))
	for _, s := range strs {
		writeStr(&buf, s)
	}
	return buf.Bytes()
}

func encodeMappingsDebug(p *code.Program) []byte {
	var buf bytes.Buffer
	writeU64(&buf, uint64(len(p.Mappings)))
	for _, m := range p.Mappings {
		kj, _ := m.KeyLayout().MarshalJSON()
		vj, _ := m.ValueLayout().MarshalJSON()
		writeStr(&buf, string(kj))
		writeStr(&buf, string(vj))
		writeU64(&buf, uint64(m.Len()))
	}
	return buf.Bytes()
}

func encodeResourcesDebug(p *code.Program) ([]byte, error) {
	var buf bytes.Buffer
	all := p.Resources.All()
	writeU64(&buf, uint64(len(all)))
	for _, r := range all {
		tj, err := r.TypeJSON()
		if err != nil {
			return nil, fmt.Errorf("artifact: resource TypeJSON: %w", err)
		}
		writeStr(&buf, tj)
	}
	return buf.Bytes(), nil
}

func encodeSubgraphsDebug(p *code.Program) []byte {
	var buf bytes.Buffer
	writeU64(&buf, uint64(len(p.Subprograms)))
	for _, sub := range p.Subprograms {
		writeU64(&buf, uint64(len(sub.Instrs)))
	}
	return buf.Bytes()
}
