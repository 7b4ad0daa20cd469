package mna

import "github.com/katalvlaran/mnacompile/expr"

// GaussianEliminator drives symbolic Gauss-Jordan elimination over a list of
// LinearCombination rows. It owns the rows it was built with; SolveAndRemove
// consumes them as unknowns are peeled off.
type GaussianEliminator struct {
	rows []*LinearCombination
}

// NewGaussianEliminator wraps rows for elimination. The slice is copied; the
// eliminator does not alias the caller's backing array.
func NewGaussianEliminator(rows []*LinearCombination) *GaussianEliminator {
	return &GaussianEliminator{rows: append([]*LinearCombination(nil), rows...)}
}

// Rows returns the eliminator's current row list.
func (g *GaussianEliminator) Rows() []*LinearCombination {
	return append([]*LinearCombination(nil), g.rows...)
}

// FindPivot returns the first row (in current list order) whose pivot
// position is v, or ok=false if no row currently pivots on v.
func (g *GaussianEliminator) FindPivot(v expr.Expression) (*LinearCombination, bool) {
	for _, row := range g.rows {
		if p, ok := row.PivotPosition(); ok && expr.Equal(p, v) {
			return row, true
		}
	}
	return nil, false
}

// findAnyNonzero returns the first row (in current list order) carrying a
// nonzero coefficient in column v, regardless of that row's own pivot. Used
// as SolveAndRemove's fallback when no row currently pivots on v: a row can
// still be solved for v even if v isn't its leading term.
func (g *GaussianEliminator) findAnyNonzero(v expr.Expression) (*LinearCombination, bool) {
	for _, row := range g.rows {
		if !isZeroCoefficient(row.Coefficient(v)) {
			return row, true
		}
	}
	return nil, false
}

// RowReduce drives the forward elimination pass: for each unknown in x (in
// order), locate a row carrying a nonzero coefficient in that column, scale
// it to a unit pivot, and subtract a multiple of it from every other row so
// that column becomes zero everywhere else. Unknowns with no carrying row are
// skipped — they are free of this system and left to a later stage.
func (g *GaussianEliminator) RowReduce(x []expr.Expression) error {
	used := make(map[*LinearCombination]bool, len(g.rows))
	for _, v := range x {
		pivotRow, ok := g.findUnusedNonzero(v, used)
		if !ok {
			continue
		}
		if err := pivotRow.scaleToUnitPivot(v); err != nil {
			return err
		}
		used[pivotRow] = true
		for _, other := range g.rows {
			if other == pivotRow {
				continue
			}
			factor := other.Coefficient(v)
			if isZeroCoefficient(factor) {
				continue
			}
			other.subtractScaled(pivotRow, factor)
		}
	}
	return nil
}

// findUnusedNonzero is findAnyNonzero restricted to rows not already claimed
// as another column's pivot in this RowReduce pass.
func (g *GaussianEliminator) findUnusedNonzero(v expr.Expression, used map[*LinearCombination]bool) (*LinearCombination, bool) {
	for _, row := range g.rows {
		if used[row] {
			continue
		}
		if !isZeroCoefficient(row.Coefficient(v)) {
			return row, true
		}
	}
	return nil, false
}

// BackSubstitute repeats the elimination pass in reverse unknown order,
// clearing each pivot column out of every row above it so the system reaches
// full reduced row-echelon form: every pivot column has exactly one nonzero
// entry, its own unit pivot.
func (g *GaussianEliminator) BackSubstitute(x []expr.Expression) error {
	for i := len(x) - 1; i >= 0; i-- {
		v := x[i]
		pivotRow, ok := g.FindPivot(v)
		if !ok {
			continue
		}
		for _, other := range g.rows {
			if other == pivotRow {
				continue
			}
			factor := other.Coefficient(v)
			if isZeroCoefficient(factor) {
				continue
			}
			other.subtractScaled(pivotRow, factor)
		}
	}
	return nil
}

// SolveAndRemove walks x in reverse order — the order matters, since each
// solved unknown's row is removed before earlier unknowns are resolved,
// ensuring an already-pivoted column is never re-consulted for a later
// (earlier-indexed) unknown. For each unknown it prefers a row that pivots on
// it; failing that, any row with a nonzero coefficient in that column. Ties
// are broken by first-in-current-list-order. Unknowns with no carrying row at
// all are left unresolved and absent from the returned assignments.
func (g *GaussianEliminator) SolveAndRemove(x []expr.Expression) ([]expr.Arrow, error) {
	arrows := make([]expr.Arrow, 0, len(x))
	for i := len(x) - 1; i >= 0; i-- {
		v := x[i]
		row, ok := g.FindPivot(v)
		if !ok {
			row, ok = g.findAnyNonzero(v)
		}
		if !ok {
			continue
		}
		solved, err := row.SolveFor(v)
		if err != nil {
			return nil, &CompileError{Op: "SolveAndRemove", Subject: v.String(), Err: err}
		}
		arrows = append(arrows, expr.NewArrow(v, solved))
		g.remove(row)
	}
	return arrows, nil
}

func (g *GaussianEliminator) remove(target *LinearCombination) {
	for i, row := range g.rows {
		if row == target {
			g.rows = append(g.rows[:i], g.rows[i+1:]...)
			return
		}
	}
}
