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

// Package runtime implements jyafn's runtime invoker (C7): the host-facing
// Load/Call surface that sits on top of package artifact (container
// decode+link) and code/engine (the bytecode dispatch loop). Function is
// the loaded, callable handle; Call/CallJSON are the two host-value
// boundaries spec.md §4.7 describes, bridging between a structured Go
// value (or its JSON rendering) and the flat, per-leaf typed arguments
// code/engine.Run actually consumes.
package runtime

import (
	"context"
	"io"

	"github.com/viodotcom/jyafn/artifact"
	"github.com/viodotcom/jyafn/code"
	"github.com/viodotcom/jyafn/code/engine"
	"github.com/viodotcom/jyafn/jyafnerr"
	"github.com/viodotcom/jyafn/layout"
)

// Function is a loaded, linked, callable artifact.
type Function struct {
	loaded *artifact.Loaded
}

// Load decodes and links the artifact container read from r.
func Load(r io.Reader) (*Function, error) {
	l, err := artifact.Load(r)
	if err != nil {
		return nil, err
	}
	return &Function{loaded: l}, nil
}

// LoadFile loads the artifact container at path, mmapping it read-only
// where the platform allows (see code/engine.OpenMapped).
func LoadFile(path string) (*Function, error) {
	l, err := artifact.LoadFile(path)
	if err != nil {
		return nil, err
	}
	return &Function{loaded: l}, nil
}

// Close releases every resource this Function's artifact pinned
// (extension handles, an mmap region). It is safe to call more than
// once.
func (f *Function) Close() error { return f.loaded.Close() }

// Meta returns the artifact's metadata map, including the always-present
// "artifact_id" and "content_hash" keys (see package artifact).
func (f *Function) Meta() map[string]string { return f.loaded.Meta }

// InputLayout returns the structural layout Call expects its argument to
// match.
func (f *Function) InputLayout() layout.Layout { return f.loaded.Program.InputLayout }

// ReturnLayout returns the structural layout Call's result is shaped
// like.
func (f *Function) ReturnLayout() layout.Layout { return f.loaded.Program.ReturnLayout }

// Program returns the linked, compiled code object Call runs, for
// debug tooling (cmd/jyafn's "desc --graph" disassembles it with
// code.Render).
func (f *Function) Program() *code.Program { return f.loaded.Program }

// Call encodes in against the function's InputLayout, runs the compiled
// program, and decodes its result against the function's ReturnLayout.
// in's shape follows layout.Encode's conventions: float64/bool/string/
// date.Time at the primitive leaves, map[string]any for a Struct,
// []any for a Tuple or List, nil for Unit.
func (f *Function) Call(ctx context.Context, in any) (any, error) {
	p := f.loaded.Program

	args, err := flattenValue(p.InputLayout, in, "$")
	if err != nil {
		return nil, err
	}
	if len(args) != len(p.Inputs) {
		return nil, &jyafnerr.InvocationError{Msg: "input layout leaf count does not match the compiled program's input count"}
	}

	out, err := engine.Run(ctx, p, args)
	if err != nil {
		return nil, err
	}

	val, rest, err := unflattenValue(p.ReturnLayout, out)
	if err != nil {
		return nil, err
	}
	if len(rest) != 0 {
		return nil, &jyafnerr.InvocationError{Msg: "engine produced more return leaves than the return layout expects"}
	}
	return val, nil
}
