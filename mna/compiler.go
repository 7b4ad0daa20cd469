package mna

import (
	"github.com/katalvlaran/mnacompile/expr"
	"github.com/katalvlaran/mnacompile/logx"
)

// Analysis supplies the three read-only artifacts the TransientSolution
// compiler consumes: the MNA equation system, the ordered list of circuit
// unknowns, and side-condition hints used only by the DC step.
type Analysis struct {
	Equations             []expr.Equation
	Unknowns              []expr.Expression
	InitialConditionsHint []expr.Arrow
}

// TransientSolution is the compiler's immutable output: a timestep, an
// ordered list of solution sets whose sequential evaluation updates every
// unknown, and a (possibly empty) list of DC initial conditions.
type TransientSolution struct {
	timeStep          expr.Expression
	solutions         []SolutionSet
	initialConditions []expr.Arrow
}

// TimeStep returns the compiled solution's fixed integration timestep.
func (s *TransientSolution) TimeStep() expr.Expression { return s.timeStep }

// Solutions returns the ordered solution-set sequence.
func (s *TransientSolution) Solutions() []SolutionSet {
	return append([]SolutionSet(nil), s.solutions...)
}

// InitialConditions returns the DC steady-state values, or an empty slice if
// DC analysis was skipped or failed to converge.
func (s *TransientSolution) InitialConditions() []expr.Arrow {
	return append([]expr.Arrow(nil), s.initialConditions...)
}

// Render produces the canonical textual dump Testable Property 4 (round-trip
// determinism) is checked against: every constructor downstream of expr
// canonicalizes operand order at build time, so two compiles of the same
// input always render identically here.
func (s *TransientSolution) Render() string {
	out := "h := " + s.timeStep.String() + "\n"
	for i, set := range s.solutions {
		out += "-- solution set " + itoa(i) + " --\n" + set.String() + "\n"
	}
	out += "-- initial conditions --\n"
	for _, a := range s.initialConditions {
		out += a.String() + "\n"
	}
	return out
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	digits := ""
	for n > 0 {
		digits = string(rune('0'+n%10)) + digits
		n /= 10
	}
	return digits
}

// nameSet builds the symbol-name membership set DependsOn expects.
func nameSet(ys []expr.Expression) map[string]bool {
	m := make(map[string]bool, len(ys))
	for _, u := range ys {
		m[u.Name()] = true
	}
	return m
}

// occursIn reports whether target occurs anywhere in e's tree, including e
// itself — the mna package's own copy of the same structural-containment
// test expr.Derivative uses internally, built here from expr's exported
// Operands()/Equal() surface since mna never sees the tagged variant itself.
func occursIn(e, target expr.Expression) bool {
	if expr.Equal(e, target) {
		return true
	}
	for _, o := range e.Operands() {
		if occursIn(o, target) {
			return true
		}
	}
	return false
}

// classifyDerivatives finds, for every unknown y, whether some equation
// actually references D(y, t); only those derivatives are classified as
// differential.
func classifyDerivatives(equations []expr.Equation, unknowns []expr.Expression) []expr.Expression {
	var dyDt []expr.Expression
	for _, y := range unknowns {
		d := expr.D(y, expr.T)
		referenced := false
		for _, eq := range equations {
			if occursIn(eq.Left, d) || occursIn(eq.Right, d) {
				referenced = true
				break
			}
		}
		if referenced {
			dyDt = append(dyDt, d)
		}
	}
	return dyDt
}

// Solve compiles analysis into a TransientSolution. log may be nil; a nil
// *logx.Logger is a valid no-op sink.
func Solve(analysis Analysis, h expr.Expression, withInitialConditions bool, log *logx.Logger) (*TransientSolution, error) {
	// Step 1: classify derivatives.
	dyDt := classifyDerivatives(analysis.Equations, analysis.Unknowns)

	// Step 2: optional DC initial conditions.
	var initials []expr.Arrow
	if withInitialConditions {
		initials = solveDCStep(analysis, dyDt, log)
	}

	// Step 3: split diffeq from algebraic equations.
	var diffeqEqs, algebraicEqs []expr.Equation
	for _, eq := range analysis.Equations {
		isDiff := false
		for _, d := range dyDt {
			if occursIn(eq.Left, d) || occursIn(eq.Right, d) {
				isDiff = true
				break
			}
		}
		if isDiff {
			diffeqEqs = append(diffeqEqs, eq)
		} else {
			algebraicEqs = append(algebraicEqs, eq)
		}
	}

	if len(dyDt) > 0 {
		diffRows := make([]*LinearCombination, len(diffeqEqs))
		for i, eq := range diffeqEqs {
			diffRows[i] = RowFromEquation(eq, dyDt)
		}

		// Step 4: integrate.
		elim := NewGaussianEliminator(diffRows)
		if err := elim.RowReduce(dyDt); err != nil {
			return nil, &CompileError{Op: "Integrate", Subject: "row_reduce", Err: err}
		}
		if err := elim.BackSubstitute(dyDt); err != nil {
			return nil, &CompileError{Op: "Integrate", Subject: "back_substitute", Err: err}
		}
		derivativeArrows, err := elim.SolveAndRemove(dyDt)
		if err != nil {
			return nil, err
		}
		for _, a := range derivativeArrows {
			y, x, ok := expr.UnwrapDerivative(a.Left)
			if !ok || !expr.Equal(x, expr.T) {
				return nil, &CompileError{Op: "Integrate", Subject: a.String(), Err: ErrNotDerivative}
			}
			discretized := Discretize(y, a.Right, expr.T, expr.T0, h)
			algebraicEqs = append(algebraicEqs, expr.NewEquation(discretized.Left, discretized.Right))
		}
		for _, leftover := range elim.Rows() {
			algebraicEqs = append(algebraicEqs, expr.NewEquation(leftover.ToExpression(), expr.ConstInt(0)))
		}
	}

	// Step 5: peel linear solutions.
	localUnknowns := append([]expr.Expression(nil), analysis.Unknowns...)
	var solutions []SolutionSet

	// expr.Solve already guarantees every returned arrow's Right side is free
	// of every unknown it was asked to solve for (including the ones it
	// left unsolved) — a true closed form, not just a partial peel.
	closedForm := expr.Solve(algebraicEqs, localUnknowns)
	if len(closedForm) > 0 {
		solvedNames := nameSet(leftSides(closedForm))
		// Drop each closed-form variable's own defining equation (Left is
		// exactly that variable, e.g. the discretized y := ... arrow step 4
		// produced): it is now redundant, and substituting closedForm into
		// it would otherwise leave a permanently-zero, never-simplified
		// residual cluttering the Newton block's Jacobian.
		remainingEqs := algebraicEqs[:0:0]
		for _, eq := range algebraicEqs {
			if name := eq.Left.Name(); name != "" && solvedNames[name] {
				continue
			}
			remainingEqs = append(remainingEqs, eq)
		}
		algebraicEqs = remainingEqs
		for i, eq := range algebraicEqs {
			algebraicEqs[i] = expr.NewEquation(expr.Evaluate(eq.Left, closedForm), expr.Evaluate(eq.Right, closedForm))
		}
		remaining := localUnknowns[:0:0]
		for _, y := range localUnknowns {
			if !solvedNames[y.Name()] {
				remaining = append(remaining, y)
			}
		}
		localUnknowns = remaining
		for i := range closedForm {
			closedForm[i] = expr.NewArrow(closedForm[i].Left, expr.Factor(closedForm[i].Right))
		}
		solutions = append(solutions, NewLinearSolutionSet(closedForm))
	}

	// Step 6: construct the Newton block, only if unknowns remain.
	if len(localUnknowns) > 0 {
		newton, err := buildNewtonBlock(algebraicEqs, localUnknowns)
		if err != nil {
			return nil, err
		}
		solutions = append(solutions, NewNewtonSolutionSet(*newton))
	}

	return &TransientSolution{
		timeStep:          h,
		solutions:         solutions,
		initialConditions: initials,
	}, nil
}

func leftSides(arrows []expr.Arrow) []expr.Expression {
	out := make([]expr.Expression, len(arrows))
	for i, a := range arrows {
		out[i] = a.Left
	}
	return out
}

// buildNewtonBlock constructs the Newton-Raphson iteration block: Jacobian
// rows over the Δy basis, partitioned into a purely linear part (row-reduced
// and solved outright) and a genuinely nonlinear remainder.
func buildNewtonBlock(equations []expr.Equation, unknowns []expr.Expression) (*NewtonIteration, error) {
	deltaBasis := make([]expr.Expression, len(unknowns))
	for i, y := range unknowns {
		deltaBasis[i] = expr.NewtonDelta(y)
	}

	// 6.a/6.b: residuals and Jacobian rows, tagged with their residual.
	jacRows := make([]*LinearCombination, len(equations))
	for i, eq := range equations {
		residual := eq.Residual()
		row := NewLinearCombination(deltaBasis)
		for j, y := range unknowns {
			_ = row.SetCoefficient(deltaBasis[j], expr.Derivative(residual, y))
		}
		row.SetConstant(residual)
		row.SetTag(residual)
		jacRows[i] = row
	}

	// 6.c: partition Δ columns into those whose coefficients never depend on
	// any surviving unknown (truly linear, "ly") versus the rest.
	namesY := nameSet(unknowns)
	var ly, rest []expr.Expression
	for j := range unknowns {
		depends := false
		for _, row := range jacRows {
			if expr.DependsOn(row.Coefficient(deltaBasis[j]), namesY) {
				depends = true
				break
			}
		}
		if depends {
			rest = append(rest, deltaBasis[j])
		} else {
			ly = append(ly, deltaBasis[j])
		}
	}

	// 6.d: the degenerate single-Δ case collapses into ly unconditionally —
	// an open question (see DESIGN.md) is whether this is correct when that
	// sole equation is genuinely nonlinear in Δ. Implemented literally
	// rather than silently resolved differently; the downstream singular-
	// pivot check still catches the case where the collapse doesn't work.
	if len(deltaBasis) == 1 {
		ly = append([]expr.Expression(nil), deltaBasis...)
		rest = nil
	}

	ordered := append(append([]expr.Expression(nil), ly...), rest...)
	for _, row := range jacRows {
		if err := row.SwapColumns(ordered); err != nil {
			return nil, &CompileError{Op: "NewtonBlock", Subject: "SwapColumns", Err: err}
		}
	}

	// 6.e: row-reduce and solve_and_remove over ly only.
	elim := NewGaussianEliminator(jacRows)
	if len(ly) > 0 {
		if err := elim.RowReduce(ly); err != nil {
			return nil, &CompileError{Op: "NewtonBlock", Subject: "row_reduce", Err: err}
		}
	}
	linearUpdates, err := elim.SolveAndRemove(ly)
	if err != nil {
		return nil, err
	}
	// Every Δy shares the same underlying call name ("Delta"), so a plain
	// nameSet over linearUpdates' left sides would conflate them; key on the
	// wrapped unknown's own name instead.
	solvedNames := make(map[string]bool, len(linearUpdates))
	for _, a := range linearUpdates {
		if y, ok := expr.UnwrapDelta(a.Left); ok {
			solvedNames[y.Name()] = true
		}
	}
	for _, v := range ly {
		y, _ := expr.UnwrapDelta(v)
		if !solvedNames[y.Name()] {
			return nil, &CompileError{Op: "NewtonBlock", Subject: y.String(), Err: ErrSingularJacobian}
		}
	}

	// 6.f: initial guess y := y(t0).
	initialGuess := make([]expr.Arrow, len(unknowns))
	for i, y := range unknowns {
		initialGuess[i] = expr.NewArrow(y, expr.Prev(y))
	}

	// 6.g: factor every emitted expression.
	for i := range linearUpdates {
		linearUpdates[i] = expr.NewArrow(linearUpdates[i].Left, expr.Factor(linearUpdates[i].Right))
	}
	remainingRows := elim.Rows()
	for _, row := range remainingRows {
		for _, b := range row.Basis() {
			_ = row.SetCoefficient(b, expr.Factor(row.Coefficient(b)))
		}
		row.SetConstant(expr.Factor(row.Constant()))
	}

	return &NewtonIteration{
		LinearUpdates:   linearUpdates,
		Jacobian:        remainingRows,
		NonlinearDeltas: rest,
		InitialGuess:    initialGuess,
	}, nil
}
