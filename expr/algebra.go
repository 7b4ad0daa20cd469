package expr

import (
	"math"

	"github.com/katalvlaran/mnacompile/expr/numeric"
)

// containsExpr reports whether target occurs anywhere in e's tree (including
// e itself). Derivative uses it as a fast zero-shortcut: if wrt never
// appears, the derivative is trivially the constant 0 regardless of kind.
func containsExpr(e, target Expression) bool {
	if Equal(e, target) {
		return true
	}
	for _, o := range e.operands {
		if containsExpr(o, target) {
			return true
		}
	}
	return false
}

// Derivative returns the partial derivative of e with respect to wrt, which
// may be a plain symbol (t, a node voltage) or a distinguished compound form
// such as the derivative marker D(y, t) — differentiating an equation's
// residual against those markers is how RowFromEquation builds the
// differential subsystem's coefficient columns. The Newton block
// differentiates each residual with respect to the plain unknown y_j and
// stores the result in column Δy_j.
//
// Supported rules: sum and product rule over Add/Mul, power rule for
// constant exponents, the chain rule through the Exp primitive (diode
// models), and the identity/zero rule for every other shape. A call or power
// this package cannot differentiate structurally falls back to 0, the same
// best-effort posture zero-testing takes throughout this package.
func Derivative(e, wrt Expression) Expression {
	if Equal(e, wrt) {
		return ConstInt(1)
	}
	if !containsExpr(e, wrt) {
		return ConstInt(0)
	}
	switch e.kind {
	case KindConst, KindSymbol:
		return ConstInt(0)
	case KindAdd:
		terms := make([]Expression, len(e.operands))
		for i, o := range e.operands {
			terms[i] = Derivative(o, wrt)
		}
		return Add(terms...)
	case KindMul:
		var terms []Expression
		for i := range e.operands {
			d := Derivative(e.operands[i], wrt)
			if d.IsZero() {
				continue
			}
			others := make([]Expression, 0, len(e.operands)-1)
			for j, o := range e.operands {
				if j != i {
					others = append(others, o)
				}
			}
			terms = append(terms, Mul(append([]Expression{d}, others...)...))
		}
		return Add(terms...)
	case KindPow:
		base, exp := e.operands[0], e.operands[1]
		if ev, ok := exp.AsConst(); ok {
			newExp := Const(ev.Sub(One()))
			return Mul(Const(ev), Pow(base, newExp), Derivative(base, wrt))
		}
		return ConstInt(0)
	case KindCall:
		if e.name == CallExp && len(e.operands) == 1 {
			return Mul(e, Derivative(e.operands[0], wrt))
		}
		return ConstInt(0)
	}
	return ConstInt(0)
}

// Factor performs best-effort arithmetic-reducing factoring: it recurses
// into every operand, then for a sum of products sharing one common factor,
// pulls that factor out front. It makes no claim of canonical minimality
// beyond that.
func Factor(e Expression) Expression {
	switch e.kind {
	case KindAdd:
		terms := make([]Expression, len(e.operands))
		for i, o := range e.operands {
			terms[i] = Factor(o)
		}
		return factorSum(terms)
	case KindMul:
		ops := make([]Expression, len(e.operands))
		for i, o := range e.operands {
			ops[i] = Factor(o)
		}
		return Mul(ops...)
	case KindPow:
		return Pow(Factor(e.operands[0]), e.operands[1])
	case KindCall:
		ops := make([]Expression, len(e.operands))
		for i, o := range e.operands {
			ops[i] = Factor(o)
		}
		return Call(e.name, ops...)
	default:
		return e
	}
}

func factorSum(terms []Expression) Expression {
	if len(terms) < 2 {
		return Add(terms...)
	}
	factorsOf := func(t Expression) []Expression {
		if t.kind == KindMul {
			return t.operands
		}
		return []Expression{t}
	}
	common := factorsOf(terms[0])
	for _, t := range terms[1:] {
		common = intersectByEqual(common, factorsOf(t))
		if len(common) == 0 {
			return Add(terms...)
		}
	}
	// Never factor out a bare numeric constant: that would just relocate the
	// coefficient without reducing operation count.
	pick := Expression{}
	found := false
	for _, c := range common {
		if _, isConst := c.AsConst(); !isConst {
			pick = c
			found = true
			break
		}
	}
	if !found {
		return Add(terms...)
	}
	remainders := make([]Expression, len(terms))
	for i, t := range terms {
		remainders[i] = divOutFactor(t, pick)
	}
	return Mul(pick, Add(remainders...))
}

func divOutFactor(t, c Expression) Expression {
	if Equal(t, c) {
		return ConstInt(1)
	}
	if t.kind == KindMul {
		rest := make([]Expression, 0, len(t.operands))
		removed := false
		for _, o := range t.operands {
			if !removed && Equal(o, c) {
				removed = true
				continue
			}
			rest = append(rest, o)
		}
		return Mul(rest...)
	}
	return t
}

func intersectByEqual(a, b []Expression) []Expression {
	out := make([]Expression, 0, len(a))
	for _, x := range a {
		for _, y := range b {
			if Equal(x, y) {
				out = append(out, x)
				break
			}
		}
	}
	return out
}

// UnwrapDerivative returns (y, x, true) if e is exactly D(y, x).
func UnwrapDerivative(e Expression) (y, x Expression, ok bool) {
	if e.kind == KindCall && e.name == callDerivative && len(e.operands) == 2 {
		return e.operands[0], e.operands[1], true
	}
	return Expression{}, Expression{}, false
}

// IntegrateTrapezoid applies implicit trapezoidal integration to a batch of
// arrows: each arrow D(y, t) := f(y, t) becomes
// y := y(t0) + (h/2)*(f(y,t) + f(y(t0),t0)), where every unknown y_i driven by
// one of the input arrows is replaced by Prev(y_i) in the t0-evaluated copy of
// f, alongside t itself. mna's own discretizer reimplements this same
// trapezoidal rule directly against its Gaussian-elimination output rather
// than calling through this free function, since by the time it runs the
// arrows are already scoped to exactly the differential subsystem; this
// entry point exists so the rule is concretely satisfiable and independently
// testable on its own.
func IntegrateTrapezoid(arrows []Arrow, t, t0, h Expression) []Arrow {
	ys := make([]Expression, 0, len(arrows))
	for _, a := range arrows {
		if y, x, ok := UnwrapDerivative(a.Left); ok && Equal(x, t) {
			ys = append(ys, y)
		}
	}
	prevSubs := make([]Arrow, 0, len(ys)+1)
	prevSubs = append(prevSubs, NewArrow(t, t0))
	for _, y := range ys {
		prevSubs = append(prevSubs, NewArrow(y, Prev(y)))
	}
	half := Const(RationalFromInt64(1, 2))

	out := make([]Arrow, len(arrows))
	for i, a := range arrows {
		y, x, ok := UnwrapDerivative(a.Left)
		if !ok || !Equal(x, t) {
			out[i] = a
			continue
		}
		f := a.Right
		fPrev := Substitute(f, prevSubs)
		update := Add(Prev(y), Mul(half, h, Add(f, fPrev)))
		out[i] = NewArrow(y, update)
	}
	return out
}

// zeroAt returns e with every bare occurrence of u replaced by the constant
// 0, rebuilt bottom-up through Add/Mul/Pow/Call so the replacement actually
// cancels algebraically (a zero factor collapses its whole product, a zero
// term drops out of its sum) rather than just appearing in the tree. Like
// Derivative, it treats Prev(y)/D(y,x)/Delta(y) as opaque with respect to
// their own arguments: Prev(u) denotes u's already-resolved value from the
// previous step, not a live occurrence of u, so zeroing u must leave it
// untouched.
func zeroAt(e, u Expression) Expression {
	if Equal(e, u) {
		return ConstInt(0)
	}
	switch e.kind {
	case KindConst, KindSymbol:
		return e
	case KindCall:
		if e.name == callPrev || e.name == callDerivative || e.name == callDelta {
			return e
		}
	}
	newOps := make([]Expression, len(e.operands))
	for i, o := range e.operands {
		newOps[i] = zeroAt(o, u)
	}
	switch e.kind {
	case KindAdd:
		return Add(newOps...)
	case KindMul:
		return Mul(newOps...)
	case KindPow:
		return Pow(newOps[0], newOps[1])
	case KindCall:
		return Call(e.name, newOps...)
	}
	return e
}

// Solve is a best-effort linear symbolic solver: it repeatedly looks for an
// equation that is affine in some still-pending unknown with a constant
// (already-evaluated) coefficient, solves for it, substitutes the result
// into the remaining search, and stops when no more progress can be made.
// Unknowns it cannot isolate this way (nonlinear coupling, or genuinely
// underdetermined equations) are simply left unsolved — callers treat that
// as the expected soft-failure case, not an error.
//
// The coefficient test (Derivative(residual, u) reducing to a plain
// constant) is the same affine detection RowFromEquation uses for the MNA
// system's own linear stamping; once it holds, zeroAt(residual, u) recovers
// exactly the u-independent remainder, however many separate places u
// appeared in the original residual.
func Solve(equations []Equation, unknowns []Expression) []Arrow {
	eqs := append([]Equation(nil), equations...)
	pending := append([]Expression(nil), unknowns...)
	var solved []Arrow

	for {
		progressed := false
		for ui := 0; ui < len(pending); ui++ {
			u := pending[ui]
			if u.Name() == "" {
				continue
			}
			for ei, eq := range eqs {
				residual := Evaluate(eq.Residual(), solved)
				coeff := Derivative(residual, u)
				cv, isConst := coeff.AsConst()
				if !isConst || cv.IsZero() {
					continue
				}
				remainder := zeroAt(residual, u)
				value := Factor(Neg(Div(remainder, coeff)))
				solved = append(solved, NewArrow(u, value))
				eqs = append(eqs[:ei], eqs[ei+1:]...)
				pending = append(pending[:ui], pending[ui+1:]...)
				progressed = true
				break
			}
			if progressed {
				break
			}
		}
		if !progressed {
			break
		}
	}

	// Later solutions may reference unknowns that were still pending (and
	// only solved afterward): x := 10 - y, found before y := 4 is. Fold each
	// later arrow into every earlier one, back to front, so every returned
	// Right side is expressed purely in terms of symbols Solve never
	// isolated at all.
	for i := len(solved) - 1; i >= 0; i-- {
		solved[i] = NewArrow(solved[i].Left, Factor(Evaluate(solved[i].Right, solved[i+1:])))
	}

	// Drop anything that, even after that back-substitution, still depends
	// on an unknown Solve never isolated (e.g. one equation in x and y: x
	// peels to 1-y, but y itself never does). A result still straddling an
	// unresolved unknown is not a closed form — leave it to the caller's own
	// system-level reasoning rather than report false progress.
	names := make(map[string]bool, len(unknowns))
	for _, u := range unknowns {
		names[u.Name()] = true
	}
	closed := solved[:0:0]
	for _, a := range solved {
		if !DependsOn(a.Right, names) {
			closed = append(closed, a)
		}
	}
	return closed
}

// maxNewtonIterations bounds NSolve's iteration count; the per-sample
// transient Newton loop is host-controlled at the evaluation layer, but the
// DC solve this function backs runs once at compile time and needs its own
// fixed budget.
const maxNewtonIterations = 100

// newtonTolerance is the convergence threshold on the Newton update's
// Euclidean norm.
const newtonTolerance = 1e-12

// NSolve is a numeric Newton-Raphson solver over the real-valued residual of
// equations, starting from initialGuess (one Arrow per unknown, Left a
// symbol, Right a numeric constant). The per-iteration linear solve is
// performed by expr/numeric.SolveLinear. Returns an *AlgebraError wrapping
// ErrDidNotConverge or ErrSingularSystem on failure, or ErrNotAffine when a
// guess value is not a constant or a residual or Jacobian entry does not
// reduce to a number once every unknown is bound.
func NSolve(equations []Equation, initialGuess []Arrow) ([]Arrow, error) {
	n := len(initialGuess)
	names := make([]string, n)
	x := make([]float64, n)
	for i, g := range initialGuess {
		names[i] = g.Left.Name()
		v, ok := g.Right.AsConst()
		if !ok {
			return nil, &AlgebraError{Op: "NSolve", Err: ErrNotAffine}
		}
		x[i] = v.ToFloat()
	}

	for iter := 0; iter < maxNewtonIterations; iter++ {
		bindings := make([]Arrow, n)
		for i, name := range names {
			bindings[i] = NewArrow(Sym(name), ConstFloat(x[i]))
		}

		f := make([]float64, len(equations))
		jac := make([][]float64, len(equations))
		for i, eq := range equations {
			residual := eq.Residual()
			fv, ok := evalFloat(Evaluate(residual, bindings))
			if !ok {
				return nil, &AlgebraError{Op: "NSolve", Err: ErrNotAffine}
			}
			f[i] = fv
			row := make([]float64, n)
			for j, name := range names {
				d := Derivative(residual, Sym(name))
				dv, ok := evalFloat(Evaluate(d, bindings))
				if !ok {
					return nil, &AlgebraError{Op: "NSolve", Err: ErrNotAffine}
				}
				row[j] = dv
			}
			jac[i] = row
		}

		neg := make([]float64, len(f))
		for i, v := range f {
			neg[i] = -v
		}
		delta, err := numeric.SolveLinear(jac, neg)
		if err != nil {
			return nil, &AlgebraError{Op: "NSolve", Err: ErrSingularSystem}
		}

		norm := 0.0
		for i, d := range delta {
			x[i] += d
			norm += d * d
		}
		if math.Sqrt(norm) < newtonTolerance {
			out := make([]Arrow, n)
			for i, name := range names {
				out[i] = NewArrow(Sym(name), ConstFloat(x[i]))
			}
			return out, nil
		}
	}
	return nil, &AlgebraError{Op: "NSolve", Err: ErrDidNotConverge}
}

// evalFloat reduces a fully-bound (no remaining symbols) expression to a
// float64. It returns ok=false if a symbol or unsupported call remains,
// signalling that the caller did not substitute everything NSolve requires.
func evalFloat(e Expression) (float64, bool) {
	switch e.kind {
	case KindConst:
		return e.value.ToFloat(), true
	case KindSymbol:
		return 0, false
	case KindAdd:
		sum := 0.0
		for _, o := range e.operands {
			v, ok := evalFloat(o)
			if !ok {
				return 0, false
			}
			sum += v
		}
		return sum, true
	case KindMul:
		prod := 1.0
		for _, o := range e.operands {
			v, ok := evalFloat(o)
			if !ok {
				return 0, false
			}
			prod *= v
		}
		return prod, true
	case KindPow:
		base, ok1 := evalFloat(e.operands[0])
		exp, ok2 := evalFloat(e.operands[1])
		if !ok1 || !ok2 {
			return 0, false
		}
		return math.Pow(base, exp), true
	case KindCall:
		if e.name == CallExp && len(e.operands) == 1 {
			v, ok := evalFloat(e.operands[0])
			if !ok {
				return 0, false
			}
			return math.Exp(v), true
		}
		return 0, false
	}
	return 0, false
}
