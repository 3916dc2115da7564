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

package resource

import (
	"math"
	"testing"
)

func wordsOf(vals ...float64) []uint64 {
	out := make([]uint64, len(vals))
	for i, v := range vals {
		out[i] = math.Float64bits(v)
	}
	return out
}

func TestSquareMatrixDetInv(t *testing.T) {
	sm := SquareMatrix{N: 2}
	det, ok := Find(sm, "det")
	if !ok {
		t.Fatal("det method not found")
	}
	// [[2,0],[0,2]] -> det = 4
	out, err := det.Call(wordsOf(2, 0, 0, 2))
	if err != nil {
		t.Fatal(err)
	}
	if got := math.Float64frombits(out[0]); got != 4 {
		t.Fatalf("det = %v, want 4", got)
	}

	inv, ok := Find(sm, "inv")
	if !ok {
		t.Fatal("inv method not found")
	}
	out, err = inv.Call(wordsOf(2, 0, 0, 2))
	if err != nil {
		t.Fatal(err)
	}
	want := []float64{0.5, 0, 0, 0.5}
	for i, w := range want {
		if got := math.Float64frombits(out[i]); got != w {
			t.Fatalf("inv[%d] = %v, want %v", i, got, w)
		}
	}
}

func TestSquareMatrixSolve(t *testing.T) {
	sm := SquareMatrix{N: 2}
	solve, ok := Find(sm, "solve")
	if !ok {
		t.Fatal("solve method not found")
	}
	// [[1,0],[0,1]] x = [3,4] -> x = [3,4]
	out, err := solve.Call(wordsOf(1, 0, 0, 1, 3, 4))
	if err != nil {
		t.Fatal(err)
	}
	if math.Float64frombits(out[0]) != 3 || math.Float64frombits(out[1]) != 4 {
		t.Fatalf("solve mismatch: %v", out)
	}
}

func TestSquareMatrixCholesky(t *testing.T) {
	sm := SquareMatrix{N: 2}
	ch, ok := Find(sm, "cholesky")
	if !ok {
		t.Fatal("cholesky method not found")
	}
	// [[4,0],[0,4]] -> L = [[2,0],[0,2]]
	out, err := ch.Call(wordsOf(4, 0, 0, 4))
	if err != nil {
		t.Fatal(err)
	}
	want := []float64{2, 0, 0, 2}
	for i, w := range want {
		if got := math.Float64frombits(out[i]); got != w {
			t.Fatalf("cholesky[%d] = %v, want %v", i, got, w)
		}
	}
}

func TestSquareMatrixSingular(t *testing.T) {
	sm := SquareMatrix{N: 2}
	inv, _ := Find(sm, "inv")
	if _, err := inv.Call(wordsOf(0, 0, 0, 0)); err == nil {
		t.Fatal("expected singular matrix error")
	}
}
