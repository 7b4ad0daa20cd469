package circuit_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/katalvlaran/mnacompile/circuit"
	"github.com/katalvlaran/mnacompile/expr"
)

func TestNodeGroundIsConstantZero(t *testing.T) {
	c := circuit.New()
	ground := c.Node("0")
	v, ok := ground.AsConst()
	require.True(t, ok)
	require.True(t, v.IsZero())
	require.Empty(t, c.Unknowns())
}

func TestNodeCreatesSymbolOnce(t *testing.T) {
	c := circuit.New()
	a := c.Node("n")
	b := c.Node("n")
	require.True(t, expr.Equal(a, b))
	require.Len(t, c.Unknowns(), 1)
}

func TestResistorProducesOppositeKCLContributions(t *testing.T) {
	c := circuit.New()
	c.Resistor("a", "b", 1000)
	eqs := c.Equations()
	require.Len(t, eqs, 2)
	// Both node equations reference both node voltages: the shared resistor
	// couples them.
	names := map[string]bool{}
	for _, eq := range eqs {
		names[eq.String()] = true
	}
	require.Contains(t, eqs[0].Left.String(), "V_a")
	require.Contains(t, eqs[0].Left.String(), "V_b")
	require.Contains(t, eqs[1].Left.String(), "V_a")
	require.Contains(t, eqs[1].Left.String(), "V_b")
	// The contribution to b is exactly the negation of the one to a.
	require.True(t, expr.Equal(eqs[1].Left, expr.Neg(eqs[0].Left)))
}

func TestCapacitorToGroundHasNoSpuriousGroundDerivative(t *testing.T) {
	c := circuit.New()
	c.Capacitor("n", "0", 1e-6)
	eqs := c.Equations()
	require.Len(t, eqs, 1)
	// Only one D(..., t) marker should appear: the grounded terminal
	// contributes no D(0, t) term.
	rendered := eqs[0].String()
	require.Equal(t, 1, countSubstr(rendered, "D("))
	require.Contains(t, rendered, "D(V_n, t)")
}

func TestDiodeIsNonlinearInNodeVoltage(t *testing.T) {
	c := circuit.New()
	c.Diode("a", "0", 1e-12, 0.025)
	eqs := c.Equations()
	require.Len(t, eqs, 1)
	require.Contains(t, eqs[0].String(), "Exp(")
}

func TestVoltageSourceAddsBranchEquationAndCurrentUnknown(t *testing.T) {
	c := circuit.New()
	c.VoltageSource("p", "0", "vs1", 5)
	eqs := c.Equations()
	require.Len(t, eqs, 2) // one KCL row for "p", one branch constraint
	unknowns := c.Unknowns()
	require.Len(t, unknowns, 2) // V_p and I_vs1

	var sawBranchCurrent bool
	for _, u := range unknowns {
		if u.Name() == "I_vs1" {
			sawBranchCurrent = true
		}
	}
	require.True(t, sawBranchCurrent)
}

func TestInputVoltageSourceUsesSignalDirectly(t *testing.T) {
	c := circuit.New()
	sig := expr.Sym("V_in")
	c.InputVoltageSource("p", "0", "src", sig)
	eqs := c.Equations()
	require.Contains(t, eqs[1].Right.String(), "V_in")
}

func countSubstr(s, sub string) int {
	count := 0
	for i := 0; i+len(sub) <= len(s); i++ {
		if s[i:i+len(sub)] == sub {
			count++
		}
	}
	return count
}
