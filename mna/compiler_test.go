package mna_test

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/katalvlaran/mnacompile/circuit"
	"github.com/katalvlaran/mnacompile/expr"
	"github.com/katalvlaran/mnacompile/logx"
	"github.com/katalvlaran/mnacompile/mna"
)

// CompilerSuite exercises the bundled demo scenarios end to end, through
// the circuit package's demo topologies.
type CompilerSuite struct {
	suite.Suite
}

func TestCompilerSuite(t *testing.T) {
	suite.Run(t, new(CompilerSuite))
}

// S1: a purely resistive divider — one unknown, no derivatives, no
// nonlinearity. Solve must produce exactly one LinearSolutions set and no
// Newton block, with a nonempty DC initial condition.
func (s *CompilerSuite) TestS1ResistorDividerIsFullyLinear() {
	demo := circuit.ResistorDivider(1000, 2000)
	sol, err := mna.Solve(demo.Analysis, demo.TimeStep, true, nil)
	s.Require().NoError(err)

	solutions := sol.Solutions()
	s.Require().Len(solutions, 1)

	lin, ok := solutions[0].AsLinear()
	s.Require().True(ok)
	s.Require().Len(lin.Assignments, 1)
	s.Equal("V_n", lin.Assignments[0].Left.Name())

	s.Require().NotEmpty(sol.InitialConditions())
	for _, a := range sol.InitialConditions() {
		if a.Left.Name() == "V_n" {
			v, ok := a.Right.AsConst()
			s.Require().True(ok)
			// Input hinted to 0V for the DC step: the divider output is 0.
			s.InDelta(0.0, v.ToFloat(), 1e-9)
		}
	}
}

// S2: a series-R shunt-C low-pass — one unknown, one derivative, still no
// nonlinearity. Discretization must replace the single differential equation
// with a trapezoidal update arrow and produce no Newton block.
func (s *CompilerSuite) TestS2RCLowPassDiscretizesToLinearUpdate() {
	demo := circuit.RCLowPass(1000, 1e-6, 1.0/48000.0)
	sol, err := mna.Solve(demo.Analysis, demo.TimeStep, true, nil)
	s.Require().NoError(err)

	solutions := sol.Solutions()
	s.Require().Len(solutions, 1)
	lin, ok := solutions[0].AsLinear()
	s.Require().True(ok)
	s.Require().Len(lin.Assignments, 1)
	s.Equal("V_n", lin.Assignments[0].Left.Name())
	// The trapezoidal update must reference both the previous step's value
	// and the input symbol driving it.
	rendered := lin.Assignments[0].Right.String()
	s.Contains(rendered, "Prev(V_n)")
	s.Contains(rendered, "V")
}

// S3: a mixed network — a linear RC branch plus a two-diode clamp coupled
// through a shared resistor. Solve must produce both a LinearSolutions set
// (the RC branch) and a NewtonIteration block whose two remaining unknowns
// stay coupled (neither collapses via the single-Δ rule).
func (s *CompilerSuite) TestS3DiodeClipperMixesLinearAndNewton() {
	demo := circuit.DiodeClipper(1000, 1e-6, 1000, 100, 1e-12, 0.025, 1.0/48000.0)
	sol, err := mna.Solve(demo.Analysis, demo.TimeStep, true, nil)
	s.Require().NoError(err)

	var sawLinear, sawNewton bool
	var newtonBlock mna.NewtonIteration
	for _, set := range sol.Solutions() {
		if lin, ok := set.AsLinear(); ok {
			sawLinear = true
			s.Require().Len(lin.Assignments, 1)
			s.Equal("V_n1", lin.Assignments[0].Left.Name())
		}
		if n, ok := set.AsNewton(); ok {
			sawNewton = true
			newtonBlock = n
		}
	}
	s.Require().True(sawLinear, "expected the RC branch to peel into a LinearSolutions set")
	s.Require().True(sawNewton, "expected the diode pair to remain a NewtonIteration block")
	s.Require().Len(newtonBlock.NonlinearDeltas, 2)
	// Only the two unknowns still outstanding after step 5's linear peel
	// reach step 6.f; V_n1 already has its own closed-form assignment above.
	s.Require().Len(newtonBlock.InitialGuess, 2)
}

// S4: a single forward-biased diode hinted at a DC operating point that
// drives undamped Newton-Raphson into the diode's exponential wall. The DC
// step is expected to soft-fail (a warning logged, empty initial conditions)
// while the transient compile itself still succeeds.
func (s *CompilerSuite) TestS4DCFailureIsSoftAndLogged() {
	demo := circuit.DCFailure(1000, 1e-12, 0.025, 1.0/48000.0)
	var buf bytes.Buffer
	log := logx.New(&buf)

	sol, err := mna.Solve(demo.Analysis, demo.TimeStep, true, log)
	s.Require().NoError(err)
	s.Empty(sol.InitialConditions())
	s.Contains(buf.String(), "did not converge")

	solutions := sol.Solutions()
	s.Require().NotEmpty(solutions)
}

// S5: two branch-current unknowns whose defining equations are linearly
// dependent (the second is the first scaled by a constant) — a genuinely
// rank-deficient Jacobian. Solve must return a fatal CompileError wrapping
// ErrSingularJacobian.
func (s *CompilerSuite) TestS5SingularJacobianIsFatal() {
	demo := circuit.SingularJacobian()
	_, err := mna.Solve(demo.Analysis, demo.TimeStep, false, nil)
	s.Require().Error(err)
	s.Require().True(errors.Is(err, mna.ErrSingularJacobian))
}

// S6: determinism — compiling the same analysis twice renders identically,
// byte for byte, since every expr constructor canonicalizes operand order at
// build time.
func (s *CompilerSuite) TestS6CompileIsDeterministic() {
	demo1 := circuit.DiodeClipper(1000, 1e-6, 1000, 100, 1e-12, 0.025, 1.0/48000.0)
	sol1, err := mna.Solve(demo1.Analysis, demo1.TimeStep, true, nil)
	s.Require().NoError(err)

	demo2 := circuit.DiodeClipper(1000, 1e-6, 1000, 100, 1e-12, 0.025, 1.0/48000.0)
	sol2, err := mna.Solve(demo2.Analysis, demo2.TimeStep, true, nil)
	s.Require().NoError(err)

	s.Equal(sol1.Render(), sol2.Render())
}

func TestSolveRejectsNothingForEmptyAnalysis(t *testing.T) {
	sol, err := mna.Solve(mna.Analysis{}, expr.ConstFloat(1.0/48000.0), false, nil)
	require.NoError(t, err)
	require.Empty(t, sol.Solutions())
	require.Empty(t, sol.InitialConditions())
}
