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

	"github.com/viodotcom/jyafn/jyafnerr"
	"github.com/viodotcom/jyafn/layout"
)

// Description is a debug/introspection summary of an artifact container,
// read directly from its non-CODE sections: answering "what does this
// take as input, what does it return, how big is it" without paying for
// a full code.Decode + link + resource-factory round trip, the same
// split cmd/sdb's describe drew between a data file's trailer and its
// actual row data.
type Description struct {
	Meta          map[string]string `json:"meta"`
	InputLayout   layout.Layout     `json:"input_layout"`
	ReturnLayout  layout.Layout     `json:"return_layout"`
	Symbols       []string          `json:"symbols"`
	Mappings      []MappingSummary  `json:"mappings"`
	Resources     []string          `json:"resources"` // each entry is a resource's TypeJSON
	SubgraphCount int               `json:"subgraph_count"`
}

// MappingSummary describes one mapping constant without its entries.
type MappingSummary struct {
	KeyLayout   layout.Layout `json:"key_layout"`
	ValueLayout layout.Layout `json:"value_layout"`
	Entries     int           `json:"entries"`
}

// Describe reads data's section framing and decodes every section except
// CODE, returning a Description. It never needs a ResourceFactory: the
// RESOURCES section it reads here is each resource's TypeJSON string, not
// a reconstructed resource.Resource.
func Describe(data []byte) (*Description, error) {
	sections, err := readSections(data)
	if err != nil {
		return nil, err
	}
	meta, err := decodeMeta(sections[TagMeta])
	if err != nil {
		return nil, err
	}

	var inputLayout, returnLayout layout.Layout
	if err := json.Unmarshal(sections[TagInputLayout], &inputLayout); err != nil {
		return nil, &jyafnerr.SerializationError{Msg: "malformed input layout section: " + err.Error()}
	}
	if err := json.Unmarshal(sections[TagOutputLayout], &returnLayout); err != nil {
		return nil, &jyafnerr.SerializationError{Msg: "malformed output layout section: " + err.Error()}
	}

	symbols, err := decodeSymbolsDebug(sections[TagSymbols])
	if err != nil {
		return nil, err
	}
	mappings, err := decodeMappingsDebug(sections[TagMappings])
	if err != nil {
		return nil, err
	}
	resources, err := decodeResourcesDebug(sections[TagResources])
	if err != nil {
		return nil, err
	}
	subgraphCount, err := decodeSubgraphsDebugCount(sections[TagSubgraphs])
	if err != nil {
		return nil, err
	}

	return &Description{
		Meta:          meta,
		InputLayout:   inputLayout,
		ReturnLayout:  returnLayout,
		Symbols:       symbols,
		Mappings:      mappings,
		Resources:     resources,
		SubgraphCount: subgraphCount,
	}, nil
}

// DescribeJSON is Describe, rendered as JSON, the shape cmd/jyafn's
// "desc" subcommand prints directly.
func DescribeJSON(data []byte) ([]byte, error) {
	d, err := Describe(data)
	if err != nil {
		return nil, err
	}
	return json.MarshalIndent(d, "", "  ")
}

func decodeSymbolsDebug(raw []byte) ([]string, error) {
	r := bytes.NewReader(raw)
	n := readU64(r)
	out := make([]string, n)
	for i := range out {
		s, err := readStr(r)
		if err != nil {
			return nil, err
		}
		out[i] = s
	}
	return out, nil
}

func decodeMappingsDebug(raw []byte) ([]MappingSummary, error) {
	r := bytes.NewReader(raw)
	n := readU64(r)
	out := make([]MappingSummary, n)
	for i := range out {
		kj, err := readStr(r)
		if err != nil {
			return nil, err
		}
		vj, err := readStr(r)
		if err != nil {
			return nil, err
		}
		entries := readU64(r)
		var kl, vl layout.Layout
		if err := json.Unmarshal([]byte(kj), &kl); err != nil {
			return nil, &jyafnerr.SerializationError{Msg: "malformed mapping key layout: " + err.Error()}
		}
		if err := json.Unmarshal([]byte(vj), &vl); err != nil {
			return nil, &jyafnerr.SerializationError{Msg: "malformed mapping value layout: " + err.Error()}
		}
		out[i] = MappingSummary{KeyLayout: kl, ValueLayout: vl, Entries: int(entries)}
	}
	return out, nil
}

func decodeResourcesDebug(raw []byte) ([]string, error) {
	r := bytes.NewReader(raw)
	n := readU64(r)
	out := make([]string, n)
	for i := range out {
		s, err := readStr(r)
		if err != nil {
			return nil, err
		}
		out[i] = s
	}
	return out, nil
}

func decodeSubgraphsDebugCount(raw []byte) (int, error) {
	r := bytes.NewReader(raw)
	n := readU64(r)
	return int(n), nil
}
