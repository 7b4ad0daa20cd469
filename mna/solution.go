package mna

import "github.com/katalvlaran/mnacompile/expr"

// SolutionSet is a tagged union: a fully linear step's closed-form
// assignments, or a remaining nonlinear system requiring a caller-driven
// Newton iteration. Exactly one of AsLinear/AsNewton will report ok=true
// for any value produced by this package.
type SolutionSet struct {
	linear *LinearSolutions
	newton *NewtonIteration
}

// LinearSolutions is an ordered list of closed-form assignments, dependency-
// ordered so that each Right-hand side references only unknowns assigned by
// an earlier entry.
type LinearSolutions struct {
	Assignments []expr.Arrow
}

// NewtonIteration is the per-step nonlinear residual block: the linear
// updates already peeled off, the symbolic Jacobian rows of the remaining
// residuals with respect to the remaining deltas, the deltas themselves, and
// an initial guess to seed iteration from.
type NewtonIteration struct {
	LinearUpdates   []expr.Arrow
	Jacobian        []*LinearCombination
	NonlinearDeltas []expr.Expression
	InitialGuess    []expr.Arrow
}

// NewLinearSolutionSet wraps a LinearSolutions as a SolutionSet.
func NewLinearSolutionSet(assignments []expr.Arrow) SolutionSet {
	return SolutionSet{linear: &LinearSolutions{Assignments: assignments}}
}

// NewNewtonSolutionSet wraps a NewtonIteration as a SolutionSet.
func NewNewtonSolutionSet(n NewtonIteration) SolutionSet {
	return SolutionSet{newton: &n}
}

// AsLinear returns the wrapped LinearSolutions, if this SolutionSet holds one.
func (s SolutionSet) AsLinear() (LinearSolutions, bool) {
	if s.linear == nil {
		return LinearSolutions{}, false
	}
	return *s.linear, true
}

// AsNewton returns the wrapped NewtonIteration, if this SolutionSet holds one.
func (s SolutionSet) AsNewton() (NewtonIteration, bool) {
	if s.newton == nil {
		return NewtonIteration{}, false
	}
	return *s.newton, true
}

// IsLinear reports whether this SolutionSet holds a LinearSolutions.
func (s SolutionSet) IsLinear() bool { return s.linear != nil }

// String renders the solution set for diagnostics and TransientSolution.Render.
func (s SolutionSet) String() string {
	if lin, ok := s.AsLinear(); ok {
		out := ""
		for i, a := range lin.Assignments {
			if i > 0 {
				out += "\n"
			}
			out += a.String()
		}
		return out
	}
	if n, ok := s.AsNewton(); ok {
		out := "newton:"
		for _, d := range n.NonlinearDeltas {
			out += " " + d.String()
		}
		return out
	}
	return "<empty solution set>"
}
