package circuit

import (
	"github.com/katalvlaran/mnacompile/expr"
	"github.com/katalvlaran/mnacompile/mna"
)

// Demo bundles a ready-to-compile analysis together with the timestep its
// scenario was designed around.
type Demo struct {
	Name     string
	Analysis mna.Analysis
	TimeStep expr.Expression
}

// inputSignal is the exogenous driving voltage every signal-path demo below
// shares: a free symbol, never a circuit node, so closed-form solutions
// render it by name rather than as a resolved constant.
func inputSignal() expr.Expression { return expr.Sym("V") }

// ResistorDivider is S1: two resistors from an input signal to ground
// through node n, tapped at n. One unknown, fully linear, no derivatives —
// solves to a single LinearSolutions arrow and no Newton block.
func ResistorDivider(r1, r2 float64) Demo {
	c := New()
	vin := inputSignal()
	c.ResistorFromSignal(vin, "n", r1)
	c.Resistor("n", groundName, r2)
	return Demo{
		Name:     "resistor_divider",
		Analysis: mna.Analysis{Equations: c.Equations(), Unknowns: c.Unknowns(), InitialConditionsHint: dcInputAtZero(vin)},
		TimeStep: expr.ConstFloat(1.0 / 48000.0),
	}
}

// dcInputAtZero hints the DC step that every exogenous signal this
// package's demos drive from is held at 0V at power-up — the compiler
// has no way to infer a value for a symbol that is never one of its own
// unknowns, so the caller must supply it.
func dcInputAtZero(signals ...expr.Expression) []expr.Arrow {
	hints := make([]expr.Arrow, len(signals))
	for i, s := range signals {
		hints[i] = expr.NewArrow(s, expr.ConstFloat(0))
	}
	return hints
}

// RCLowPass is S2: a series resistor into a shunt capacitor at node n — one
// unknown, one derivative, no nonlinearity. Exercises the discretizer and
// the linear peel with no Newton block.
func RCLowPass(r, capFarads, h float64) Demo {
	c := New()
	vin := inputSignal()
	c.ResistorFromSignal(vin, "n", r)
	c.Capacitor("n", groundName, capFarads)
	return Demo{
		Name:     "rc_lowpass",
		Analysis: mna.Analysis{Equations: c.Equations(), Unknowns: c.Unknowns(), InitialConditionsHint: dcInputAtZero(vin)},
		TimeStep: expr.ConstFloat(h),
	}
}

// DiodeClipper is S3: two parallel branches off the same input signal — a
// shunt-capacitor low-pass stage (purely linear, peels into LinearSolutions)
// and a two-diode clamp network across nodes n2/n3 (genuinely nonlinear,
// coupled through the n2-n3 resistor, so both deltas remain in the Newton
// block together).
func DiodeClipper(r1, capFarads, r2, r3, isat, vt, h float64) Demo {
	c := New()
	vin := inputSignal()
	c.ResistorFromSignal(vin, "n1", r1)
	c.Capacitor("n1", groundName, capFarads)

	c.ResistorFromSignal(vin, "n2", r2)
	c.Diode("n2", groundName, isat, vt)
	c.Resistor("n2", "n3", r3)
	c.Diode("n3", groundName, isat, vt)

	return Demo{
		Name:     "diode_clipper",
		Analysis: mna.Analysis{Equations: c.Equations(), Unknowns: c.Unknowns(), InitialConditionsHint: dcInputAtZero(vin)},
		TimeStep: expr.ConstFloat(h),
	}
}

// dcForceVolts is the DC operating point DCFailure hints for its input: large
// enough that the first Newton step (where the diode's exponential term is
// still negligible next to 1/R) lands squarely in the diode's saturated
// region, from which each further step only retreats by about one thermal
// voltage — driving the iteration count well past maxNewtonIterations.
const dcForceVolts = 5.0

// DCFailure is S4: a single forward-biased diode driven hard from a zero
// initial guess. Undamped Newton-Raphson on a Shockley diode's exponential
// characteristic is a textbook divergence case without gmin or source
// stepping (neither of which this compiler implements, see the retrieval
// pack's toy-spice analysis/op.go for the production-grade remedy) — so the
// DC step is expected to exhaust its iteration budget and
// return AlgebraError{ErrDidNotConverge}, while the transient system itself
// (symbolic, t left free) remains perfectly well-posed.
func DCFailure(r, isat, vt, h float64) Demo {
	c := New()
	vin := inputSignal()
	c.ResistorFromSignal(vin, "n", r)
	c.Diode("n", groundName, isat, vt)
	return Demo{
		Name: "dc_failure",
		Analysis: mna.Analysis{
			Equations:             c.Equations(),
			Unknowns:              c.Unknowns(),
			InitialConditionsHint: []expr.Arrow{expr.NewArrow(vin, expr.ConstFloat(dcForceVolts))},
		},
		TimeStep: expr.ConstFloat(h),
	}
}

// SingularJacobian is S5: two branch-current unknowns whose equations are
// linearly dependent — the second is exactly the first scaled by a
// constant, as two voltage-source branches stamped redundantly against the
// same node pair would produce. Both deltas carry constant (unknown-
// independent) coefficients, so both land in the Newton block's purely
// linear partition; row reduction there pivots the first row on the first
// delta and zeroes the second row entirely. SolveAndRemove, walking in
// reverse, then solves the second delta from the first row and removes it,
// leaving the first delta with no pivot and no nonzero column anywhere — the
// fatal Singular Jacobian case, reported against I_a.
func SingularJacobian() Demo {
	ia := expr.Sym("I_a")
	ib := expr.Sym("I_b")
	eqs := []expr.Equation{
		expr.NewEquation(expr.Add(ia, ib), expr.ConstInt(1)),
		expr.NewEquation(expr.Add(expr.Mul(expr.ConstInt(2), ia), expr.Mul(expr.ConstInt(2), ib)), expr.ConstInt(3)),
	}
	return Demo{
		Name: "singular_jacobian",
		Analysis: mna.Analysis{
			Equations: eqs,
			Unknowns:  []expr.Expression{ia, ib},
		},
		TimeStep: expr.ConstFloat(1.0 / 48000.0),
	}
}
