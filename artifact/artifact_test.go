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

package artifact_test

import (
	"bytes"
	"context"
	"testing"

	"github.com/viodotcom/jyafn/artifact"
	"github.com/viodotcom/jyafn/code"
	"github.com/viodotcom/jyafn/code/engine"
	"github.com/viodotcom/jyafn/compiler"
	"github.com/viodotcom/jyafn/graph"
	"github.com/viodotcom/jyafn/layout"
)

func compileAddOne(t *testing.T) *code.Program {
	t.Helper()
	g, h := graph.Begin("add_one")
	x, err := g.Input("x", layout.Scalar)
	if err != nil {
		t.Fatal(err)
	}
	one, err := g.Const(1)
	if err != nil {
		t.Fatal(err)
	}
	sum, err := x.(graph.RefValue).Ref.Add(one)
	if err != nil {
		t.Fatal(err)
	}
	if err := g.SetReturn(graph.RefValue{Ref: sum}, layout.Scalar); err != nil {
		t.Fatal(err)
	}
	closed := h.End()

	p, err := compiler.Compile(closed)
	if err != nil {
		t.Fatal(err)
	}
	return p
}

// TestSaveLoadRoundTrip exercises spec.md §8's property that
// load(dump(A)) behaves identically to A: a program saved to an artifact
// and loaded back must run as before.
func TestSaveLoadRoundTrip(t *testing.T) {
	p := compileAddOne(t)

	var buf bytes.Buffer
	if err := artifact.Save(&buf, p, nil); err != nil {
		t.Fatal(err)
	}

	loaded, err := artifact.Load(&buf)
	if err != nil {
		t.Fatal(err)
	}
	defer loaded.Close()

	if loaded.Meta["artifact_id"] == "" {
		t.Fatal("expected Save to assign an artifact_id")
	}
	if loaded.Meta["content_hash"] == "" {
		t.Fatal("expected Save to assign a content_hash")
	}

	out, err := engine.Run(context.Background(), loaded.Program, []any{41.0})
	if err != nil {
		t.Fatal(err)
	}
	if len(out) != 1 || out[0].(float64) != 42.0 {
		t.Fatalf("expected [42], got %#v", out)
	}
}

func TestSaveLoadPreservesCustomMetadata(t *testing.T) {
	p := compileAddOne(t)

	var buf bytes.Buffer
	if err := artifact.Save(&buf, p, map[string]string{"author": "test"}); err != nil {
		t.Fatal(err)
	}

	loaded, err := artifact.Load(bytes.NewReader(buf.Bytes()))
	if err != nil {
		t.Fatal(err)
	}
	defer loaded.Close()

	if loaded.Meta["author"] != "test" {
		t.Fatalf("expected author metadata to survive the round trip, got %q", loaded.Meta["author"])
	}
}

func TestLoadRejectsCorruptedContent(t *testing.T) {
	p := compileAddOne(t)

	var buf bytes.Buffer
	if err := artifact.Save(&buf, p, nil); err != nil {
		t.Fatal(err)
	}
	corrupt := buf.Bytes()
	// Flip a byte well past the header, inside the CODE section, without
	// touching the magic/version/section-count framing.
	flip := len(corrupt) - 1
	corrupt[flip] ^= 0xff

	if _, err := artifact.Load(bytes.NewReader(corrupt)); err == nil {
		t.Fatal("expected a corrupted artifact to fail content-hash verification")
	}
}

func TestLoadRejectsBadMagic(t *testing.T) {
	if _, err := artifact.Load(bytes.NewReader([]byte("not an artifact at all"))); err == nil {
		t.Fatal("expected an error for a non-artifact byte stream")
	}
}

func TestDescribeJSON(t *testing.T) {
	p := compileAddOne(t)

	var buf bytes.Buffer
	if err := artifact.Save(&buf, p, nil); err != nil {
		t.Fatal(err)
	}

	desc, err := artifact.Describe(buf.Bytes())
	if err != nil {
		t.Fatal(err)
	}
	if desc.InputLayout.Kind() != layout.KindScalar {
		t.Fatalf("expected a scalar input layout, got %s", desc.InputLayout)
	}
	if desc.ReturnLayout.Kind() != layout.KindScalar {
		t.Fatalf("expected a scalar return layout, got %s", desc.ReturnLayout)
	}

	if _, err := artifact.DescribeJSON(buf.Bytes()); err != nil {
		t.Fatal(err)
	}
}
