// Package numeric provides the small dense linear-algebra kernel the
// algebra layer's numeric Newton solve (expr.NSolve) needs for its
// per-iteration linear solve: Doolittle LU decomposition with partial
// pivoting over plain [][]float64 Jacobians sized to a handful of circuit
// unknowns.
package numeric

import (
	"errors"
	"fmt"
)

// ErrSingular is returned when the system has no unique solution (a pivot
// column is zero in every remaining row).
var ErrSingular = errors.New("numeric: singular system")

// ErrDimensionMismatch is returned when A is not square or b's length does
// not match A's dimension.
var ErrDimensionMismatch = errors.New("numeric: dimension mismatch")

// SolveLinear solves A*x = b for x via LU decomposition with partial
// pivoting and forward/backward substitution.
//
// Stage 1 (Validate): A is square and matches len(b).
// Stage 2 (Decompose): factor a row-permuted copy of A as L*U (Doolittle),
// recording the pivot so b can be permuted identically.
// Stage 3 (Substitute): solve L*y = Pb, then U*x = y.
//
// Complexity: O(n^3) time, O(n^2) memory, where n = len(b).
func SolveLinear(a [][]float64, b []float64) ([]float64, error) {
	n := len(a)
	if n == 0 {
		return nil, fmt.Errorf("SolveLinear: %w", ErrDimensionMismatch)
	}
	if len(b) != n {
		return nil, fmt.Errorf("SolveLinear: %w", ErrDimensionMismatch)
	}
	for _, row := range a {
		if len(row) != n {
			return nil, fmt.Errorf("SolveLinear: non-square %dx%d: %w", n, len(row), ErrDimensionMismatch)
		}
	}

	// Stage 2: working copy + partial-pivoted Doolittle LU.
	lu := make([][]float64, n)
	for i := range a {
		lu[i] = append([]float64(nil), a[i]...)
	}
	perm := make([]int, n)
	for i := range perm {
		perm[i] = i
	}

	for k := 0; k < n; k++ {
		// Select the largest-magnitude pivot in column k among rows >= k.
		pivotRow := k
		best := abs(lu[k][k])
		for i := k + 1; i < n; i++ {
			if v := abs(lu[i][k]); v > best {
				best = v
				pivotRow = i
			}
		}
		if best == 0 {
			return nil, fmt.Errorf("SolveLinear: zero pivot at column %d: %w", k, ErrSingular)
		}
		if pivotRow != k {
			lu[k], lu[pivotRow] = lu[pivotRow], lu[k]
			perm[k], perm[pivotRow] = perm[pivotRow], perm[k]
		}
		for i := k + 1; i < n; i++ {
			factor := lu[i][k] / lu[k][k]
			lu[i][k] = factor
			for j := k + 1; j < n; j++ {
				lu[i][j] -= factor * lu[k][j]
			}
		}
	}

	// Stage 3: forward substitution L*y = Pb, then backward U*x = y.
	y := make([]float64, n)
	for i := 0; i < n; i++ {
		sum := b[perm[i]]
		for j := 0; j < i; j++ {
			sum -= lu[i][j] * y[j]
		}
		y[i] = sum
	}
	x := make([]float64, n)
	for i := n - 1; i >= 0; i-- {
		sum := y[i]
		for j := i + 1; j < n; j++ {
			sum -= lu[i][j] * x[j]
		}
		x[i] = sum / lu[i][i]
	}
	return x, nil
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
