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

// Package jyafnerr defines the closed set of error kinds that every other
// jyafn package returns: each a small struct of context fields (Op,
// Path, Symbol, ...) plus Msg with a hand-written Error(), the same
// shape as expr.TypeError/expr.SyntaxError in the teacher package.
package jyafnerr

import "fmt"

// BuildError is returned while a graph is under construction: type
// mismatch, unknown symbol, cross-graph reference, non-DAG attempt,
// missing return, or layout/value mismatch.
type BuildError struct {
	Op  string // the builder call that failed, e.g. "add"
	Msg string
}

func (e *BuildError) Error() string {
	if e.Op == "" {
		return e.Msg
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Msg)
}

// SerializationError is returned while reading or writing an artifact
// container: bad magic, unknown section, incompatible artifact version,
// or truncated input.
type SerializationError struct {
	Msg string
}

func (e *SerializationError) Error() string { return e.Msg }

// CompilationError is returned by the compiler: unsupported platform,
// back-end failure, or a constant-false assertion discovered at build
// time.
type CompilationError struct {
	Msg string
}

func (e *CompilationError) Error() string { return e.Msg }

// LinkError is returned while resolving symbolic references in a loaded
// artifact: missing extension, missing resource method, or symbol
// resolution failure.
type LinkError struct {
	Symbol string
	Msg    string
}

func (e *LinkError) Error() string {
	if e.Symbol == "" {
		return e.Msg
	}
	return fmt.Sprintf("%s: %s", e.Symbol, e.Msg)
}

// InvocationError is returned while calling a compiled function: input
// encoding failure (with a layout path), output decoding failure, or an
// assertion failure (carries the user-authored message).
type InvocationError struct {
	Path string // layout path, e.g. ".a.b[3]"
	Msg  string
}

func (e *InvocationError) Error() string {
	if e.Path == "" {
		return e.Msg
	}
	return fmt.Sprintf("%s: %s", e.Path, e.Msg)
}

// ResourceError is raised by a resource method and propagated unchanged.
type ResourceError struct {
	Resource string
	Method   string
	Msg      string
}

func (e *ResourceError) Error() string {
	return fmt.Sprintf("%s.%s: %s", e.Resource, e.Method, e.Msg)
}
