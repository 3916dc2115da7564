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

package jyafn

import (
	"bytes"
	"fmt"
	"reflect"

	"github.com/viodotcom/jyafn/artifact"
	"github.com/viodotcom/jyafn/compiler"
	"github.com/viodotcom/jyafn/graph"
	"github.com/viodotcom/jyafn/jyafnerr"
	"github.com/viodotcom/jyafn/runtime"
)

var refType = reflect.TypeOf(Ref{})
var errType = reflect.TypeOf((*error)(nil)).Elem()

type options struct {
	name         string
	paramNames   []string
	paramLayouts []Layout
	returnLayout *Layout
	meta         map[string]string
}

// Option configures Func.
type Option func(*options)

// Params names fn's parameters, in order: Go does not preserve parameter
// names past compilation, so a jyafn.Func author must give them here for
// the compiled program's InputLayout (a Struct, one field per name) to
// carry meaningful field names.
func Params(names ...string) Option {
	return func(o *options) { o.paramNames = names }
}

// Layouts overrides the default Scalar layout assumed for each of fn's
// parameters, in order. Its length must match Params' if both are
// given.
func Layouts(layouts ...Layout) Option {
	return func(o *options) { o.paramLayouts = layouts }
}

// Returns overrides the return layout that would otherwise be inferred
// from fn's traced result (graph.Infer), e.g. to give a datetime result
// a specific format. fn returns a single Ref, so l describes one
// primitive value.
func Returns(l Layout) Option {
	return func(o *options) { o.returnLayout = &l }
}

// Meta attaches free-form string metadata to the artifact Func produces
// (see package artifact's Save).
func Meta(m map[string]string) Option {
	return func(o *options) { o.meta = m }
}

// Func traces fn — a Go function of one or more jyafn.Ref parameters
// returning a single jyafn.Ref (optionally paired with a trailing error)
// — into a graph, compiles it, and returns the resulting runtime.Function
// ready to Call. fn is invoked exactly once, with fresh graph.Input
// references standing in for its parameters; whatever arithmetic fn
// performs on them becomes the compiled program.
//
// Params is required: Go's reflect package exposes parameter types but
// never parameter names.
func Func(fn any, opts ...Option) (f *runtime.Function, err error) {
	o := &options{name: "f"}
	for _, opt := range opts {
		opt(o)
	}

	rv := reflect.ValueOf(fn)
	rt := rv.Type()
	if rt.Kind() != reflect.Func {
		return nil, &jyafnerr.BuildError{Op: "Func", Msg: "fn must be a function"}
	}

	nIn := rt.NumIn()
	if len(o.paramNames) != nIn {
		return nil, &jyafnerr.BuildError{
			Op:  "Func",
			Msg: fmt.Sprintf("Params names %d parameter(s), fn declares %d", len(o.paramNames), nIn),
		}
	}
	for i := 0; i < nIn; i++ {
		if rt.In(i) != refType {
			return nil, &jyafnerr.BuildError{
				Op:  "Func",
				Msg: fmt.Sprintf("parameter %d (%s) must be of type jyafn.Ref, got %s", i, o.paramNames[i], rt.In(i)),
			}
		}
	}

	if o.paramLayouts == nil {
		o.paramLayouts = make([]Layout, nIn)
		for i := range o.paramLayouts {
			o.paramLayouts[i] = Scalar
		}
	} else if len(o.paramLayouts) != nIn {
		return nil, &jyafnerr.BuildError{
			Op:  "Func",
			Msg: fmt.Sprintf("Layouts declares %d layout(s), fn has %d parameter(s)", len(o.paramLayouts), nIn),
		}
	}

	switch rt.NumOut() {
	case 1:
		if rt.Out(0) != refType {
			return nil, &jyafnerr.BuildError{Op: "Func", Msg: "fn must return a jyafn.Ref"}
		}
	case 2:
		if rt.Out(0) != refType || rt.Out(1) != errType {
			return nil, &jyafnerr.BuildError{Op: "Func", Msg: "fn's second return value must be error"}
		}
	default:
		return nil, &jyafnerr.BuildError{Op: "Func", Msg: "fn must return exactly one jyafn.Ref, optionally plus an error"}
	}

	g, h := graph.Begin(o.name)
	defer func() {
		if r := recover(); r != nil {
			h.End()
			f, err = nil, toBuildErr(r)
		}
	}()

	args := make([]reflect.Value, nIn)
	for i := 0; i < nIn; i++ {
		v, ierr := g.Input(o.paramNames[i], o.paramLayouts[i])
		if ierr != nil {
			h.End()
			return nil, ierr
		}
		args[i] = reflect.ValueOf(Ref{r: v.(graph.RefValue).Ref})
	}

	results := rv.Call(args)
	if len(results) == 2 && !results[1].IsNil() {
		h.End()
		return nil, results[1].Interface().(error)
	}
	out := results[0].Interface().(Ref)

	retLayout := o.returnLayout
	if retLayout == nil {
		inferred, ierr := graph.Infer(graph.RefValue{Ref: out.r})
		if ierr != nil {
			h.End()
			return nil, ierr
		}
		retLayout = &inferred
	}
	if serr := g.SetReturn(graph.RefValue{Ref: out.r}, *retLayout); serr != nil {
		h.End()
		return nil, serr
	}

	closed := h.End()

	prog, cerr := compiler.Compile(closed)
	if cerr != nil {
		return nil, cerr
	}

	var buf bytes.Buffer
	if serr := artifact.Save(&buf, prog, o.meta); serr != nil {
		return nil, serr
	}
	return runtime.Load(&buf)
}

func toBuildErr(r any) error {
	if err, ok := r.(error); ok {
		return err
	}
	return &jyafnerr.BuildError{Op: "Func", Msg: fmt.Sprint(r)}
}
