package mna_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/katalvlaran/mnacompile/expr"
	"github.com/katalvlaran/mnacompile/logx"
	"github.com/katalvlaran/mnacompile/mna"
)

func TestSolveDCLinearSystemConverges(t *testing.T) {
	x := expr.Sym("x")
	v := expr.Sym("V")
	// x - V/2 = 0, V hinted to 10 => x = 5.
	eqs := []expr.Equation{expr.NewEquation(x, expr.Div(v, expr.ConstInt(2)))}
	analysis := mna.Analysis{
		Equations:             eqs,
		Unknowns:              []expr.Expression{x},
		InitialConditionsHint: []expr.Arrow{expr.NewArrow(v, expr.ConstFloat(10))},
	}
	arrows := mna.SolveDC(analysis, nil)
	require.Len(t, arrows, 1)
	val, ok := arrows[0].Right.AsConst()
	require.True(t, ok)
	require.InDelta(t, 5.0, val.ToFloat(), 1e-9)
}

func TestSolveDCSoftFailsAndLogsOnNonConvergence(t *testing.T) {
	x := expr.Sym("x")
	v := expr.Sym("V")
	vd := expr.Div(x, expr.ConstFloat(0.025))
	// A lone forward-driven diode equation, hinted at a DC point far enough
	// from rest to stall undamped Newton past its iteration budget.
	residual := expr.Sub(expr.Div(expr.Sub(x, v), expr.ConstFloat(1000)),
		expr.Neg(expr.Mul(expr.ConstFloat(1e-12), expr.Sub(expr.Call(expr.CallExp, vd), expr.ConstInt(1)))))
	eqs := []expr.Equation{expr.NewEquation(residual, expr.ConstInt(0))}
	analysis := mna.Analysis{
		Equations:             eqs,
		Unknowns:              []expr.Expression{x},
		InitialConditionsHint: []expr.Arrow{expr.NewArrow(v, expr.ConstFloat(5))},
	}
	var buf bytes.Buffer
	arrows := mna.SolveDC(analysis, logx.New(&buf))
	require.Empty(t, arrows)
	require.Contains(t, buf.String(), "did not converge")
}

func TestSolveDCWithNilLoggerDoesNotPanic(t *testing.T) {
	x := expr.Sym("x")
	eqs := []expr.Equation{expr.NewEquation(x, expr.ConstInt(3))}
	analysis := mna.Analysis{Equations: eqs, Unknowns: []expr.Expression{x}}
	arrows := mna.SolveDC(analysis, nil)
	require.Len(t, arrows, 1)
}
