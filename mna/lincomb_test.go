package mna_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/katalvlaran/mnacompile/expr"
	"github.com/katalvlaran/mnacompile/mna"
)

func TestLinearCombinationCoefficientRoundTrip(t *testing.T) {
	x, y := expr.Sym("x"), expr.Sym("y")
	row := mna.NewLinearCombination([]expr.Expression{x, y})

	require.True(t, expr.Equal(row.Coefficient(x), expr.ConstInt(0)))

	require.NoError(t, row.SetCoefficient(x, expr.ConstInt(3)))
	require.True(t, expr.Equal(row.Coefficient(x), expr.ConstInt(3)))

	row.SetConstant(expr.ConstInt(7))
	require.True(t, expr.Equal(row.Constant(), expr.ConstInt(7)))
}

func TestSetCoefficientRejectsUnknownBasisElement(t *testing.T) {
	x, y := expr.Sym("x"), expr.Sym("y")
	row := mna.NewLinearCombination([]expr.Expression{x})
	err := row.SetCoefficient(y, expr.ConstInt(1))
	require.ErrorIs(t, err, mna.ErrNotInBasis)
}

func TestPivotPositionFirstNonzero(t *testing.T) {
	x, y, z := expr.Sym("x"), expr.Sym("y"), expr.Sym("z")
	row := mna.NewLinearCombination([]expr.Expression{x, y, z})
	require.NoError(t, row.SetCoefficient(y, expr.ConstInt(5)))

	pivot, ok := row.PivotPosition()
	require.True(t, ok)
	require.True(t, expr.Equal(pivot, y))
}

func TestPivotPositionNoneWhenAllZero(t *testing.T) {
	x := expr.Sym("x")
	row := mna.NewLinearCombination([]expr.Expression{x})
	_, ok := row.PivotPosition()
	require.False(t, ok)
}

func TestSwapColumns(t *testing.T) {
	x, y := expr.Sym("x"), expr.Sym("y")
	row := mna.NewLinearCombination([]expr.Expression{x, y})
	require.NoError(t, row.SetCoefficient(x, expr.ConstInt(1)))
	require.NoError(t, row.SetCoefficient(y, expr.ConstInt(2)))

	require.NoError(t, row.SwapColumns([]expr.Expression{y, x}))
	require.True(t, expr.Equal(row.Coefficient(y), expr.ConstInt(2)))
	require.True(t, expr.Equal(row.Coefficient(x), expr.ConstInt(1)))

	err := row.SwapColumns([]expr.Expression{x})
	require.ErrorIs(t, err, mna.ErrBasisMismatch)
}

func TestSolveForProducesIsolatedExpression(t *testing.T) {
	x, y := expr.Sym("x"), expr.Sym("y")
	row := mna.NewLinearCombination([]expr.Expression{x, y})
	require.NoError(t, row.SetCoefficient(x, expr.ConstInt(2)))
	require.NoError(t, row.SetCoefficient(y, expr.ConstInt(1)))
	row.SetConstant(expr.ConstInt(-10))
	// 2x + y - 10 = 0  =>  x = (10 - y) / 2
	solved, err := row.SolveFor(x)
	require.NoError(t, err)
	require.True(t, expr.Equal(solved, expr.Evaluate(solved, nil)))

	// Plugging y = 0 should give x = 5.
	atYZero := expr.Evaluate(solved, []expr.Arrow{expr.NewArrow(y, expr.ConstInt(0))})
	require.Equal(t, "5", atYZero.String())
}

func TestSolveForZeroPivotFails(t *testing.T) {
	x := expr.Sym("x")
	row := mna.NewLinearCombination([]expr.Expression{x})
	_, err := row.SolveFor(x)
	require.True(t, errors.Is(err, mna.ErrZeroPivotCoefficient))
}

func TestToExpression(t *testing.T) {
	x, y := expr.Sym("x"), expr.Sym("y")
	row := mna.NewLinearCombination([]expr.Expression{x, y})
	require.NoError(t, row.SetCoefficient(x, expr.ConstInt(2)))
	row.SetConstant(expr.ConstInt(3))
	require.True(t, expr.Equal(row.ToExpression(), expr.Add(expr.Mul(expr.ConstInt(2), x), expr.ConstInt(3))))
}

func TestRowFromEquation(t *testing.T) {
	x, y := expr.Sym("x"), expr.Sym("y")
	eq := expr.NewEquation(expr.Add(expr.Mul(expr.ConstInt(3), x), y), expr.ConstInt(5))
	row := mna.RowFromEquation(eq, []expr.Expression{x, y})
	require.True(t, expr.Equal(row.Coefficient(x), expr.ConstInt(3)))
	require.True(t, expr.Equal(row.Coefficient(y), expr.ConstInt(1)))
	require.True(t, expr.Equal(row.Constant(), expr.ConstInt(-5)))
}
