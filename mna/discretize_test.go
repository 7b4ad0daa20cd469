package mna_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/katalvlaran/mnacompile/expr"
	"github.com/katalvlaran/mnacompile/mna"
)

func TestDiscretizeConstantRate(t *testing.T) {
	y := expr.Sym("y")
	h := expr.Sym("h")
	// dy/dt := 1 (constant rate): y := y(t0) + h.
	arrow := mna.Discretize(y, expr.ConstInt(1), expr.T, expr.T0, h)
	require.True(t, expr.Equal(arrow.Left, y))
	require.Equal(t, expr.Add(expr.Prev(y), h).String(), arrow.Right.String())
}

func TestDiscretizeSubstitutesPreviousStep(t *testing.T) {
	y := expr.Sym("y")
	h := expr.ConstFloat(0.1)
	// dy/dt := y (exponential growth), discretized to trapezoidal form.
	arrow := mna.Discretize(y, y, expr.T, expr.T0, h)
	require.True(t, expr.Equal(arrow.Left, y))
	require.Contains(t, arrow.Right.String(), "Prev(y)")
}

func TestDiscretizeAllRejectsNonDerivative(t *testing.T) {
	y := expr.Sym("y")
	eq := expr.NewEquation(y, expr.ConstInt(0))
	_, err := mna.DiscretizeAll([]expr.Equation{eq}, expr.T, expr.T0, expr.Sym("h"))
	require.ErrorIs(t, err, mna.ErrNotDerivative)
}

func TestDiscretizeAllHappyPath(t *testing.T) {
	y := expr.Sym("y")
	h := expr.Sym("h")
	eq := expr.NewEquation(expr.D(y, expr.T), y)
	arrows, err := mna.DiscretizeAll([]expr.Equation{eq}, expr.T, expr.T0, h)
	require.NoError(t, err)
	require.Len(t, arrows, 1)
	require.True(t, expr.Equal(arrows[0].Left, y))
}
