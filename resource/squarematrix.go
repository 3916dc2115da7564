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
	"encoding/json"
	"fmt"
	"math"

	"github.com/viodotcom/jyafn/jyafnerr"
	"github.com/viodotcom/jyafn/layout"
)

// SquareMatrix is the one in-process built-in resource named in
// spec.md §4.4, exposing inv/det/cholesky/solve over an n x n matrix
// stored row-major as list[scalar, n*n]. No linear-algebra library
// appears anywhere in the retrieved example pack's go.mod files, so
// these are plain stdlib-math implementations (Gauss-Jordan elimination
// and Cholesky decomposition); see DESIGN.md for the justification.
type SquareMatrix struct {
	N int
}

var _ Resource = SquareMatrix{}

// TypeJSON implements Resource.
func (s SquareMatrix) TypeJSON() (string, error) {
	b, err := json.Marshal(struct {
		Type string `json:"type"`
		N    int    `json:"n"`
	}{"SquareMatrix", s.N})
	return string(b), err
}

// Methods implements Resource.
func (s SquareMatrix) Methods() []Method {
	n := s.N
	mat := layout.NewList(layout.Scalar, n*n)
	vec := layout.NewList(layout.Scalar, n)
	return []Method{
		{Name: "inv", In: mat, Out: mat, Call: func(in []uint64) ([]uint64, error) {
			a := toMatrix(in, n)
			inv, err := invert(a, n)
			if err != nil {
				return nil, resourceErr("inv", err)
			}
			return fromMatrix(inv), nil
		}},
		{Name: "det", In: mat, Out: layout.Scalar, Call: func(in []uint64) ([]uint64, error) {
			a := toMatrix(in, n)
			d, err := determinant(a, n)
			if err != nil {
				return nil, resourceErr("det", err)
			}
			return []uint64{math.Float64bits(d)}, nil
		}},
		{Name: "cholesky", In: mat, Out: mat, Call: func(in []uint64) ([]uint64, error) {
			a := toMatrix(in, n)
			l, err := cholesky(a, n)
			if err != nil {
				return nil, resourceErr("cholesky", err)
			}
			return fromMatrix(l), nil
		}},
		{Name: "solve", In: layout.NewTuple(mat, vec), Out: vec, Call: func(in []uint64) ([]uint64, error) {
			if len(in) != n*n+n {
				return nil, resourceErr("solve", fmt.Errorf("expected %d input words, got %d", n*n+n, len(in)))
			}
			a := toMatrix(in[:n*n], n)
			b := toVector(in[n*n:], n)
			x, err := solve(a, b, n)
			if err != nil {
				return nil, resourceErr("solve", err)
			}
			return fromVector(x), nil
		}},
	}
}

func resourceErr(method string, err error) error {
	return &jyafnerr.ResourceError{Resource: "SquareMatrix", Method: method, Msg: err.Error()}
}

func toMatrix(words []uint64, n int) [][]float64 {
	a := make([][]float64, n)
	for i := range a {
		a[i] = make([]float64, n)
		for j := range a[i] {
			a[i][j] = math.Float64frombits(words[i*n+j])
		}
	}
	return a
}

func fromMatrix(a [][]float64) []uint64 {
	n := len(a)
	out := make([]uint64, n*n)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			out[i*n+j] = math.Float64bits(a[i][j])
		}
	}
	return out
}

func toVector(words []uint64, n int) []float64 {
	v := make([]float64, n)
	for i := range v {
		v[i] = math.Float64frombits(words[i])
	}
	return v
}

func fromVector(v []float64) []uint64 {
	out := make([]uint64, len(v))
	for i, x := range v {
		out[i] = math.Float64bits(x)
	}
	return out
}

// augmented returns a deep copy of a with b appended as an extra column
// (or, if b is nil, the n x n identity matrix appended).
func augmented(a [][]float64, n int, b [][]float64) [][]float64 {
	width := n
	if b != nil {
		width = n + len(b[0])
	}
	aug := make([][]float64, n)
	for i := 0; i < n; i++ {
		aug[i] = make([]float64, width)
		copy(aug[i], a[i])
		if b != nil {
			copy(aug[i][n:], b[i])
		}
	}
	return aug
}

func identity(n int) [][]float64 {
	id := make([][]float64, n)
	for i := range id {
		id[i] = make([]float64, n)
		id[i][i] = 1
	}
	return id
}

// gaussJordan reduces aug (an n x (n+k) augmented matrix) to reduced
// row-echelon form in place via partial pivoting, returning the sign of
// the permutation applied (for determinant sign tracking) or an error if
// the matrix is singular.
func gaussJordan(aug [][]float64, n int) (sign float64, err error) {
	sign = 1
	for col := 0; col < n; col++ {
		pivot := col
		best := math.Abs(aug[col][col])
		for r := col + 1; r < n; r++ {
			if v := math.Abs(aug[r][col]); v > best {
				pivot, best = r, v
			}
		}
		if best == 0 {
			return 0, fmt.Errorf("matrix is singular")
		}
		if pivot != col {
			aug[col], aug[pivot] = aug[pivot], aug[col]
			sign = -sign
		}
		p := aug[col][col]
		for j := range aug[col] {
			aug[col][j] /= p
		}
		for r := 0; r < n; r++ {
			if r == col {
				continue
			}
			f := aug[r][col]
			if f == 0 {
				continue
			}
			for j := range aug[r] {
				aug[r][j] -= f * aug[col][j]
			}
		}
	}
	return sign, nil
}

func invert(a [][]float64, n int) ([][]float64, error) {
	aug := augmented(a, n, identity(n))
	if _, err := gaussJordan(aug, n); err != nil {
		return nil, err
	}
	out := make([][]float64, n)
	for i := range out {
		out[i] = aug[i][n:]
	}
	return out, nil
}

func solve(a [][]float64, b []float64, n int) ([]float64, error) {
	col := make([][]float64, n)
	for i := range col {
		col[i] = []float64{b[i]}
	}
	aug := augmented(a, n, col)
	if _, err := gaussJordan(aug, n); err != nil {
		return nil, err
	}
	x := make([]float64, n)
	for i := range x {
		x[i] = aug[i][n]
	}
	return x, nil
}

// determinant computes det(a) via LU-style elimination with partial
// pivoting (a non-destructive variant of gaussJordan's pivoting).
func determinant(a [][]float64, n int) (float64, error) {
	m := make([][]float64, n)
	for i := range m {
		m[i] = append([]float64(nil), a[i]...)
	}
	det := 1.0
	for col := 0; col < n; col++ {
		pivot := col
		best := math.Abs(m[col][col])
		for r := col + 1; r < n; r++ {
			if v := math.Abs(m[r][col]); v > best {
				pivot, best = r, v
			}
		}
		if best == 0 {
			return 0, nil
		}
		if pivot != col {
			m[col], m[pivot] = m[pivot], m[col]
			det = -det
		}
		det *= m[col][col]
		for r := col + 1; r < n; r++ {
			f := m[r][col] / m[col][col]
			if f == 0 {
				continue
			}
			for j := col; j < n; j++ {
				m[r][j] -= f * m[col][j]
			}
		}
	}
	return det, nil
}

// cholesky computes the lower-triangular L such that a = L * L^T,
// requiring a to be symmetric positive-definite.
func cholesky(a [][]float64, n int) ([][]float64, error) {
	l := make([][]float64, n)
	for i := range l {
		l[i] = make([]float64, n)
	}
	for i := 0; i < n; i++ {
		for j := 0; j <= i; j++ {
			sum := a[i][j]
			for k := 0; k < j; k++ {
				sum -= l[i][k] * l[j][k]
			}
			if i == j {
				if sum <= 0 {
					return nil, fmt.Errorf("matrix is not positive-definite")
				}
				l[i][j] = math.Sqrt(sum)
			} else {
				l[i][j] = sum / l[j][j]
			}
		}
	}
	return l, nil
}
