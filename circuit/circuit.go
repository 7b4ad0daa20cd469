// Package circuit provides component-stamping convenience builders —
// resistor, capacitor, ideal diode, independent voltage source — over the
// mna package's symbolic Equation/Expression surface, plus a handful of
// bundled demo circuits. It is a stand-in component catalogue sufficient to
// build circuits without a schematic file format, not a schematic editor.
package circuit

import (
	"fmt"

	"github.com/katalvlaran/mnacompile/expr"
)

// groundName is the distinguished zero-volt reference node. It is never
// added to the unknowns list.
const groundName = "0"

// Circuit accumulates KCL residuals node by node as components are stamped,
// plus any auxiliary branch equations (independent voltage sources). Build
// order determines unknown and equation order, which in turn determines
// TransientSolution's deterministic rendering.
type Circuit struct {
	nodeOrder   []string
	nodeSymbol  map[string]expr.Expression
	kcl         map[string]expr.Expression
	branchEqs   []expr.Equation
	branchOrder []string
	branchSym   map[string]expr.Expression
}

// New returns an empty circuit.
func New() *Circuit {
	return &Circuit{
		nodeSymbol: make(map[string]expr.Expression),
		kcl:        make(map[string]expr.Expression),
		branchSym:  make(map[string]expr.Expression),
	}
}

// Node returns the node-voltage symbol for name, creating it on first use.
// Ground ("0") always resolves to the constant 0 and is never added to the
// unknowns list.
func (c *Circuit) Node(name string) expr.Expression {
	if name == groundName {
		return expr.ConstInt(0)
	}
	if sym, ok := c.nodeSymbol[name]; ok {
		return sym
	}
	sym := expr.Sym("V_" + name)
	c.nodeSymbol[name] = sym
	c.kcl[name] = expr.ConstInt(0)
	c.nodeOrder = append(c.nodeOrder, name)
	return sym
}

// addCurrent adds amount to the running KCL sum (current leaving node) at
// node. Ground absorbs and discards every contribution — it is not a KCL
// unknown.
func (c *Circuit) addCurrent(node string, amount expr.Expression) {
	if node == groundName {
		return
	}
	c.kcl[node] = expr.Add(c.kcl[node], amount)
}

// branchCurrent returns (creating if needed) the branch-current unknown for
// a named independent source.
func (c *Circuit) branchCurrent(name string) expr.Expression {
	if sym, ok := c.branchSym[name]; ok {
		return sym
	}
	sym := expr.Sym("I_" + name)
	c.branchSym[name] = sym
	c.branchOrder = append(c.branchOrder, name)
	return sym
}

// Resistor stamps a two-terminal linear resistor of value ohms between n1
// and n2: current n1→n2 is (V1-V2)/R.
func (c *Circuit) Resistor(n1, n2 string, ohms float64) {
	v1, v2 := c.Node(n1), c.Node(n2)
	i := expr.Div(expr.Sub(v1, v2), expr.ConstFloat(ohms))
	c.addCurrent(n1, i)
	c.addCurrent(n2, expr.Neg(i))
}

// ResistorFromSignal stamps a resistor of value ohms between an exogenous
// signal expression (not a circuit node — no KCL row of its own, e.g. the
// input voltage driving the first stage of a signal path) and node n2. The
// sign convention matches Resistor's: n2 accumulates the current leaving n2
// toward the signal, (V_n2 - signal)/R, exactly what a real Resistor(signal,
// n2) would contribute to n2's own row.
func (c *Circuit) ResistorFromSignal(signal expr.Expression, n2 string, ohms float64) {
	v2 := c.Node(n2)
	i := expr.Div(expr.Sub(v2, signal), expr.ConstFloat(ohms))
	c.addCurrent(n2, i)
}

// Capacitor stamps a two-terminal linear capacitor of value farads between
// n1 and n2: current n1→n2 is C·d(V1-V2)/dt. Ground's derivative is the
// constant 0 by definition, so a grounded terminal contributes no D(...,
// t) term rather than the inert marker D(0, t).
func (c *Circuit) Capacitor(n1, n2 string, farads float64) {
	v1, v2 := c.Node(n1), c.Node(n2)
	dv1, dv2 := derivOrZero(v1), derivOrZero(v2)
	i := expr.Mul(expr.ConstFloat(farads), expr.Sub(dv1, dv2))
	c.addCurrent(n1, i)
	c.addCurrent(n2, expr.Neg(i))
}

// derivOrZero returns D(v, t), or the constant 0 if v is itself a constant
// (the ground node).
func derivOrZero(v expr.Expression) expr.Expression {
	if _, ok := v.AsConst(); ok {
		return expr.ConstInt(0)
	}
	return expr.D(v, expr.T)
}

// Diode stamps an ideal Shockley diode between anode n1 and cathode n2:
// I = isat·(exp((V1-V2)/vt) - 1). This is the circuit's one genuinely
// nonlinear primitive, the source of every NewtonIteration block the bundled
// demos exercise.
func (c *Circuit) Diode(n1, n2 string, isat, vt float64) {
	v1, v2 := c.Node(n1), c.Node(n2)
	vd := expr.Div(expr.Sub(v1, v2), expr.ConstFloat(vt))
	i := expr.Mul(expr.ConstFloat(isat), expr.Sub(expr.Call(expr.CallExp, vd), expr.ConstInt(1)))
	c.addCurrent(n1, i)
	c.addCurrent(n2, expr.Neg(i))
}

// VoltageSource stamps an independent ideal voltage source of value volts
// from nPos to nNeg, named name. It introduces a branch-current unknown and
// an auxiliary constraint equation V(nPos) - V(nNeg) = volts.
func (c *Circuit) VoltageSource(nPos, nNeg, name string, volts float64) {
	vp, vn := c.Node(nPos), c.Node(nNeg)
	i := c.branchCurrent(name)
	c.addCurrent(nPos, i)
	c.addCurrent(nNeg, expr.Neg(i))
	c.branchEqs = append(c.branchEqs, expr.NewEquation(expr.Sub(vp, vn), expr.ConstFloat(volts)))
}

// InputVoltageSource stamps an independent source driven by input signal
// symbol, rather than a fixed constant — the common case of "the circuit's
// input" in the bundled demos.
func (c *Circuit) InputVoltageSource(nPos, nNeg, name string, signal expr.Expression) {
	vp, vn := c.Node(nPos), c.Node(nNeg)
	i := c.branchCurrent(name)
	c.addCurrent(nPos, i)
	c.addCurrent(nNeg, expr.Neg(i))
	c.branchEqs = append(c.branchEqs, expr.NewEquation(expr.Sub(vp, vn), signal))
}

// Equations returns the full MNA system: one KCL residual per non-ground
// node (in node insertion order), followed by each voltage source's branch
// constraint (in stamping order).
func (c *Circuit) Equations() []expr.Equation {
	eqs := make([]expr.Equation, 0, len(c.nodeOrder)+len(c.branchEqs))
	for _, n := range c.nodeOrder {
		eqs = append(eqs, expr.NewEquation(c.kcl[n], expr.ConstInt(0)))
	}
	eqs = append(eqs, c.branchEqs...)
	return eqs
}

// Unknowns returns every node-voltage symbol (in node insertion order)
// followed by every branch-current symbol (in stamping order).
func (c *Circuit) Unknowns() []expr.Expression {
	ys := make([]expr.Expression, 0, len(c.nodeOrder)+len(c.branchOrder))
	for _, n := range c.nodeOrder {
		ys = append(ys, c.nodeSymbol[n])
	}
	for _, b := range c.branchOrder {
		ys = append(ys, c.branchSym[b])
	}
	return ys
}

// String renders the circuit's accumulated equations, for diagnostics.
func (c *Circuit) String() string {
	out := ""
	for i, eq := range c.Equations() {
		out += fmt.Sprintf("eq[%d]: %s\n", i, eq.String())
	}
	return out
}
