package mna

import "github.com/katalvlaran/mnacompile/expr"

// Discretize applies implicit trapezoidal integration to a single
// differential equation D(y,t) := f(y,t), producing the arrow
// y := Prev(y) + (h/2)*(f + f₀), where f₀ is f evaluated with y
// replaced by Prev(y) and t replaced by t0. It takes the unknown y and the
// right-hand side f of a derivative already solved out by the Gaussian
// elimination driver; Solve's integration step calls it once per solved
// derivative. It implements the same rule as expr.IntegrateTrapezoid without
// calling it; no stage of the pipeline calls expr.IntegrateTrapezoid (see
// DESIGN.md).
func Discretize(y expr.Expression, f expr.Expression, t, t0, h expr.Expression) expr.Arrow {
	prevY := expr.Prev(y)
	f0 := expr.Substitute(f, []expr.Arrow{
		expr.NewArrow(y, prevY),
		expr.NewArrow(t, t0),
	})
	half := expr.Div(h, expr.ConstInt(2))
	updated := expr.Add(prevY, expr.Mul(half, expr.Add(f, f0)))
	return expr.NewArrow(y, updated)
}

// DiscretizeAll discretizes every derivative equation in eqs, each assumed
// already split to the form D(yᵢ,t) := fᵢ(yᵢ,t) by the caller. The returned
// arrows are in the same order as eqs.
func DiscretizeAll(eqs []expr.Equation, t, t0, h expr.Expression) ([]expr.Arrow, error) {
	arrows := make([]expr.Arrow, 0, len(eqs))
	for _, eq := range eqs {
		y, x, ok := expr.UnwrapDerivative(eq.Left)
		if !ok || !expr.Equal(x, t) {
			return nil, &CompileError{Op: "Discretize", Subject: eq.String(), Err: ErrNotDerivative}
		}
		arrows = append(arrows, Discretize(y, eq.Right, t, t0, h))
	}
	return arrows, nil
}
