package mna_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/katalvlaran/mnacompile/expr"
	"github.com/katalvlaran/mnacompile/mna"
)

// buildRow constructs a LinearCombination over basis from plain coefficient
// values (as constants) plus a constant term, for compact test fixtures.
func buildRow(t *testing.T, basis []expr.Expression, coeffs []int64, constant int64) *mna.LinearCombination {
	t.Helper()
	row := mna.NewLinearCombination(basis)
	for i, b := range basis {
		require.NoError(t, row.SetCoefficient(b, expr.ConstInt(coeffs[i])))
	}
	row.SetConstant(expr.ConstInt(constant))
	return row
}

func TestGaussianEliminationSolvesSystem(t *testing.T) {
	x, y := expr.Sym("x"), expr.Sym("y")
	basis := []expr.Expression{x, y}
	// x + y - 10 = 0
	// x - y - 2  = 0   =>  x=6, y=4
	rows := []*mna.LinearCombination{
		buildRow(t, basis, []int64{1, 1}, -10),
		buildRow(t, basis, []int64{1, -1}, -2),
	}
	elim := mna.NewGaussianEliminator(rows)
	require.NoError(t, elim.RowReduce(basis))
	require.NoError(t, elim.BackSubstitute(basis))
	arrows, err := elim.SolveAndRemove(basis)
	require.NoError(t, err)

	byName := map[string]expr.Expression{}
	for _, a := range arrows {
		byName[a.Left.Name()] = a.Right
	}
	require.Equal(t, "6", byName["x"].String())
	require.Equal(t, "4", byName["y"].String())
}

func TestSolveAndRemoveOrderMatters(t *testing.T) {
	x, y := expr.Sym("x"), expr.Sym("y")
	basis := []expr.Expression{x, y}
	rows := []*mna.LinearCombination{
		buildRow(t, basis, []int64{1, 1}, -10),
		buildRow(t, basis, []int64{0, 1}, -4), // y = 4 directly
	}
	elim := mna.NewGaussianEliminator(rows)
	arrows, err := elim.SolveAndRemove(basis)
	require.NoError(t, err)
	require.Len(t, arrows, 2)
	// Reverse order: y is resolved before x.
	require.Equal(t, "y", arrows[0].Left.Name())
	require.Equal(t, "x", arrows[1].Left.Name())
}

func TestFindPivotFirstInListOrderWins(t *testing.T) {
	x := expr.Sym("x")
	basis := []expr.Expression{x}
	rows := []*mna.LinearCombination{
		buildRow(t, basis, []int64{2}, 0),
		buildRow(t, basis, []int64{3}, 0),
	}
	elim := mna.NewGaussianEliminator(rows)
	pivot, ok := elim.FindPivot(x)
	require.True(t, ok)
	require.True(t, expr.Equal(pivot.Coefficient(x), expr.ConstInt(2)))
}

func TestRowReduceSkipsVariableWithNoCarryingRow(t *testing.T) {
	x, y := expr.Sym("x"), expr.Sym("y")
	basis := []expr.Expression{x, y}
	rows := []*mna.LinearCombination{
		buildRow(t, basis, []int64{1, 0}, -5),
	}
	elim := mna.NewGaussianEliminator(rows)
	require.NoError(t, elim.RowReduce(basis))
	arrows, err := elim.SolveAndRemove(basis)
	require.NoError(t, err)
	require.Len(t, arrows, 1)
	require.Equal(t, "x", arrows[0].Left.Name())
}
