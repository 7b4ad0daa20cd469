package mna

import (
	"github.com/katalvlaran/mnacompile/expr"
	"github.com/katalvlaran/mnacompile/logx"
)

// SolveDC computes DC steady-state initial conditions for analysis: it is
// exactly the DC step of the TransientSolution compiler, exposed standalone
// so callers can obtain initial conditions without running a full transient
// compile. Solve calls this same helper internally.
//
// Failure is always soft: on any algebra error from the numeric solver, a
// warning is logged and an empty slice is returned — DC non-convergence is
// explicitly a non-fatal error kind.
func SolveDC(analysis Analysis, log *logx.Logger) []expr.Arrow {
	dyDt := classifyDerivatives(analysis.Equations, analysis.Unknowns)
	return solveDCStep(analysis, dyDt, log)
}

// solveDCStep is the shared implementation behind SolveDC and Solve's step 2:
// zero every derivative and both time symbols, apply the caller's hints, then
// hand the resulting algebraic system to the numeric solver from an all-zero
// guess.
func solveDCStep(analysis Analysis, dyDt []expr.Expression, log *logx.Logger) []expr.Arrow {
	subs := make([]expr.Arrow, 0, len(dyDt)+2+len(analysis.InitialConditionsHint))
	for _, d := range dyDt {
		subs = append(subs, expr.NewArrow(d, expr.ConstInt(0)))
	}
	subs = append(subs, expr.NewArrow(expr.T, expr.ConstInt(0)), expr.NewArrow(expr.T0, expr.ConstInt(0)))
	subs = append(subs, analysis.InitialConditionsHint...)

	dcEquations := make([]expr.Equation, len(analysis.Equations))
	for i, eq := range analysis.Equations {
		dcEquations[i] = expr.NewEquation(expr.Evaluate(eq.Left, subs), expr.Evaluate(eq.Right, subs))
	}

	guess := make([]expr.Arrow, len(analysis.Unknowns))
	for i, y := range analysis.Unknowns {
		guess[i] = expr.NewArrow(y, expr.ConstFloat(0))
	}

	solved, err := expr.NSolve(dcEquations, guess)
	if err != nil {
		log.Warning("DC initial-condition solve did not converge: " + err.Error())
		return nil
	}
	return solved
}
