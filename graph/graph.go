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

// Package graph implements the computation graph (C3): an append-only
// DAG of typed nodes built through a thread-local "current graph"
// builder, plus sub-graph embedding (C8). Node storage is a flat slice
// indexed by position, the same shape vm.Program.Ops uses for its
// bytecode rather than a pointer-linked tree, since every operand
// reference is required to point at a strictly lower index (this is
// what makes the graph a DAG by construction, per spec.md §3).
package graph

import (
	"fmt"

	"github.com/viodotcom/jyafn/internal/gls"
	"github.com/viodotcom/jyafn/jyafnerr"
	"github.com/viodotcom/jyafn/layout"
	"github.com/viodotcom/jyafn/mapping"
	"github.com/viodotcom/jyafn/resource"
	"github.com/viodotcom/jyafn/symbol"
)

// Prim is the closed set of primitive node types a Reference can carry,
// per spec.md §3: {scalar, bool, symbol, datetime, ptr}. This is
// distinct from layout.Layout, which additionally describes structural
// (composite) shapes built out of these primitives.
type Prim int

const (
	PrimScalar Prim = iota
	PrimBool
	PrimSymbol
	PrimDateTime
	// PrimPtr is an opaque handle to a bound Resource instance. It never
	// appears in a Layout; it exists only so host bindings can offer a
	// Ref-shaped handle to call a resource's methods through (see
	// Graph.BindResource).
	PrimPtr
)

func (p Prim) String() string {
	switch p {
	case PrimScalar:
		return "scalar"
	case PrimBool:
		return "bool"
	case PrimSymbol:
		return "symbol"
	case PrimDateTime:
		return "datetime"
	case PrimPtr:
		return "ptr"
	default:
		return "unknown"
	}
}

// Op identifies a node's operation.
type Op int

const (
	OpConst Op = iota
	OpConstBool
	OpConstSym
	OpConstDT
	OpInput // leaf produced by Graph.Input, Imm = input leaf path info

	OpAdd
	OpSub
	OpMul
	OpDiv
	OpRem
	OpNeg
	OpAbs
	OpPow
	OpSqrt
	OpExp
	OpLn
	OpLog
	OpSin
	OpCos
	OpTan
	OpAsin
	OpAcos
	OpAtan
	OpAtan2
	OpFloor
	OpCeil
	OpRound
	OpMin
	OpMax
	OpIsNaN
	OpIsFinite
	OpIsInfinite

	OpEq
	OpNe
	OpLt
	OpLe
	OpGt
	OpGe
	OpSymEq

	OpAnd
	OpOr
	OpXor
	OpNot
	OpChoose
	OpAssert

	OpFromTimestamp
	OpTimestamp
	OpDTYear
	OpDTMonth
	OpDTDay
	OpDTHour
	OpDTMinute
	OpDTSecond
	OpDTMicrosecond
	OpParseDT
	OpFormatDT

	OpMapGet
	OpMapGetOr
	OpResourceCall
	OpCallSubgraph

	OpBindResource
)

// Node is one entry of the graph's flat, append-only node vector. Every
// index in Operands must be strictly less than the node's own index in
// the owning Graph's node slice; this is the DAG invariant and it is
// enforced once, centrally, in Graph.push.
type Node struct {
	Op       Op
	Type     Prim
	Operands []int
	Imm      any // op-specific immediate payload (constant value, format string, call-site id, ...)
}

// InputDecl is one named, typed input declared with Graph.Input.
type InputDecl struct {
	Name   string
	Layout layout.Layout
}

// ReturnDecl is the graph's (at most one) declared return value.
type ReturnDecl struct {
	Layout layout.Layout
	Leaves []int // node indices, in the layout's flat encoding order
}

// Graph is an append-only computation DAG under construction, or
// (once closed) an immutable value: hashable, serializable, and safe to
// embed as a constant in another graph.
type Graph struct {
	name string

	nodes []Node

	inputs []InputDecl
	ret    *ReturnDecl

	symbols   symbol.Table
	mappings  []*mapping.Table
	resources resource.Table
	subgraphs []*Graph

	metadata map[string]string

	closed bool
}

// New returns a fresh, open, empty graph. Most callers should use Begin
// instead so builder functions can find the graph implicitly.
func New(name string) *Graph {
	return &Graph{name: name, metadata: map[string]string{}}
}

// Name returns the graph's name, as given to Begin or New.
func (g *Graph) Name() string { return g.name }

// Len returns the number of nodes in the graph.
func (g *Graph) Len() int { return len(g.nodes) }

// NodeAt returns the node at index i.
func (g *Graph) NodeAt(i int) Node { return g.nodes[i] }

// Inputs returns the graph's declared inputs, in declaration order.
func (g *Graph) Inputs() []InputDecl { return g.inputs }

// Return returns the graph's declared return value, or nil if none has
// been set (only possible on a still-open graph; End defaults it to
// Unit).
func (g *Graph) Return() *ReturnDecl { return g.ret }

// Closed reports whether the graph has finished construction.
func (g *Graph) Closed() bool { return g.closed }

// Symbols returns the graph's symbol table.
func (g *Graph) Symbols() *symbol.Table { return &g.symbols }

// Mappings returns the graph's ordered mapping constants.
func (g *Graph) Mappings() []*mapping.Table { return g.mappings }

// Resources returns the graph's resource table.
func (g *Graph) Resources() *resource.Table { return &g.resources }

// Subgraphs returns the graph's embedded sub-graphs, in embedding order.
func (g *Graph) Subgraphs() []*Graph { return g.subgraphs }

// Metadata returns the graph's free-form string metadata map. Callers
// may read and write it directly.
func (g *Graph) Metadata() map[string]string { return g.metadata }

// push appends a node and returns a Ref bound to it. It is the single
// choke point every op constructor funnels through, so the DAG
// invariant (operand index < own index) and the open/closed invariant
// are each enforced exactly once.
func (g *Graph) push(op Op, typ Prim, imm any, operands ...int) (Ref, error) {
	if g.closed {
		return Ref{}, &jyafnerr.BuildError{Op: op.String(), Msg: "graph is closed"}
	}
	idx := len(g.nodes)
	for _, o := range operands {
		if o < 0 || o >= idx {
			return Ref{}, &jyafnerr.BuildError{
				Op:  op.String(),
				Msg: fmt.Sprintf("operand index %d is not strictly less than node index %d (DAG invariant)", o, idx),
			}
		}
	}
	g.nodes = append(g.nodes, Node{Op: op, Type: typ, Operands: operands, Imm: imm})
	return Ref{g: g, idx: idx, typ: typ}, nil
}

// own checks that r was produced by g, the cross-graph-reference guard
// spec.md §7 requires ("reference belongs to a graph other than the
// current one").
func (g *Graph) own(r Ref) error {
	if r.g != g {
		return &jyafnerr.BuildError{Msg: "reference belongs to a different graph than the current one"}
	}
	return nil
}

func (o Op) String() string {
	switch o {
	case OpConst:
		return "const"
	case OpConstBool:
		return "const_bool"
	case OpConstSym:
		return "const_sym"
	case OpConstDT:
		return "const_dt"
	case OpInput:
		return "input"
	case OpAdd:
		return "add"
	case OpSub:
		return "sub"
	case OpMul:
		return "mul"
	case OpDiv:
		return "div"
	case OpRem:
		return "rem"
	case OpNeg:
		return "neg"
	case OpAbs:
		return "abs"
	case OpPow:
		return "pow"
	case OpSqrt:
		return "sqrt"
	case OpExp:
		return "exp"
	case OpLn:
		return "ln"
	case OpLog:
		return "log"
	case OpSin:
		return "sin"
	case OpCos:
		return "cos"
	case OpTan:
		return "tan"
	case OpAsin:
		return "asin"
	case OpAcos:
		return "acos"
	case OpAtan:
		return "atan"
	case OpAtan2:
		return "atan2"
	case OpFloor:
		return "floor"
	case OpCeil:
		return "ceil"
	case OpRound:
		return "round"
	case OpMin:
		return "min"
	case OpMax:
		return "max"
	case OpIsNaN:
		return "is_nan"
	case OpIsFinite:
		return "is_finite"
	case OpIsInfinite:
		return "is_infinite"
	case OpEq:
		return "eq"
	case OpNe:
		return "ne"
	case OpLt:
		return "lt"
	case OpLe:
		return "le"
	case OpGt:
		return "gt"
	case OpGe:
		return "ge"
	case OpSymEq:
		return "sym_eq"
	case OpAnd:
		return "and"
	case OpOr:
		return "or"
	case OpXor:
		return "xor"
	case OpNot:
		return "not"
	case OpChoose:
		return "choose"
	case OpAssert:
		return "assert"
	case OpFromTimestamp:
		return "fromtimestamp"
	case OpTimestamp:
		return "timestamp"
	case OpDTYear:
		return "year"
	case OpDTMonth:
		return "month"
	case OpDTDay:
		return "day"
	case OpDTHour:
		return "hour"
	case OpDTMinute:
		return "minute"
	case OpDTSecond:
		return "second"
	case OpDTMicrosecond:
		return "microsecond"
	case OpParseDT:
		return "parse"
	case OpFormatDT:
		return "format"
	case OpMapGet:
		return "map_get"
	case OpMapGetOr:
		return "map_get_or"
	case OpResourceCall:
		return "resource_call"
	case OpCallSubgraph:
		return "call_subgraph"
	case OpBindResource:
		return "bind_resource"
	default:
		return "unknown"
	}
}

// -- thread-local "current graph" stack --

type stackEntry struct {
	g     *Graph
	owner int64
}

// Handle is returned by Begin and popped by End. It is not safe to use
// a Handle from a goroutine other than the one that created it.
type Handle struct {
	g     *Graph
	owner int64
}

// Begin pushes a new, empty, open graph named name onto the calling
// goroutine's builder stack and returns both the graph and a Handle
// used to close it. Builder functions (Input, Add, Return, ...) operate
// on whichever graph is current for the calling goroutine.
func Begin(name string) (*Graph, Handle) {
	g := New(name)
	owner := gls.ID()
	stack, _ := gls.Get().([]stackEntry)
	stack = append(stack, stackEntry{g: g, owner: owner})
	gls.Set(stack)
	return g, Handle{g: g, owner: owner}
}

// Current returns the calling goroutine's innermost open graph, or an
// error if there is none.
func Current() (*Graph, error) {
	stack, _ := gls.Get().([]stackEntry)
	if len(stack) == 0 {
		return nil, &jyafnerr.BuildError{Msg: "no current graph"}
	}
	top := stack[len(stack)-1]
	if top.owner != gls.ID() {
		return nil, &jyafnerr.BuildError{Msg: "builder used from a different thread than the one that opened it"}
	}
	return top.g, nil
}

// End closes h's graph (defaulting its return value to Unit if Return
// was never called) and pops it from the calling goroutine's builder
// stack. End must be called exactly once per Begin, including on panic
// recovery paths; callers typically `defer h.End()`.
func (h Handle) End() *Graph {
	stack, _ := gls.Get().([]stackEntry)
	if len(stack) > 0 && stack[len(stack)-1].g == h.g {
		stack = stack[:len(stack)-1]
		gls.Set(stack)
	}
	if h.g.ret == nil {
		h.g.ret = &ReturnDecl{Layout: layout.Unit}
	}
	h.g.closed = true
	return h.g
}
