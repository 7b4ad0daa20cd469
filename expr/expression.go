// Package expr implements the symbolic expression layer treated as an
// external algebra-library collaborator: structural equality, textual
// rendering, substitution, differentiation, dependency testing, factoring,
// and the free functions Evaluate/Derivative/Factor/Solve/NSolve/IsCall/
// IntegrateTrapezoid. Everything above this package (the mna package) treats
// Expression as opaque and only ever calls through the contract surface
// documented here.
//
// Expression values are immutable once built; building one never mutates an
// operand. Two expressions built through the same constructors from
// structurally equal inputs compare Equal and render to the same String.
package expr

import (
	"fmt"
	"sort"
	"strings"
)

// Kind discriminates the tagged variant a Expression wraps.
type Kind int

const (
	// KindConst is an exact rational constant.
	KindConst Kind = iota
	// KindSymbol is a named atomic unknown (a node voltage, t, t0, an input
	// signal, ...).
	KindSymbol
	// KindAdd is an n-ary sum, canonically ordered and constant-folded.
	KindAdd
	// KindMul is an n-ary product, canonically ordered and constant-folded.
	KindMul
	// KindPow is a binary base**exponent node (operands[0]**operands[1]).
	KindPow
	// KindCall is a named n-ary function application, used both for genuine
	// nonlinear primitives (Exp, for a diode's I-V law) and for the
	// distinguished derivative/delta/previous-step markers (D, Delta, Prev).
	KindCall
)

// Expression is an immutable symbolic term.
type Expression struct {
	kind     Kind
	value    Rational     // KindConst
	name     string       // KindSymbol, KindCall (call name)
	operands []Expression // KindAdd, KindMul, KindPow (base, exponent), KindCall (args)
}

// Distinguished call names used to represent time-integration markers
// without introducing any shared mutable state: D(f, x) is the derivative of
// f with respect to x; Delta(y) is the Newton update symbol Δy; Prev(y) is
// the previous-timestep value y(t0). The mapping is pure and bijective by
// construction (Delta/Prev are 1-argument wrappers you can always unwrap).
const (
	callDerivative = "D"
	callDelta      = "Delta"
	callPrev       = "Prev"
	// CallExp is the nonlinear exponential primitive used by diode-style
	// device models (I = Is*(exp(V/Vt) - 1)).
	CallExp = "Exp"
)

// Const builds a constant expression from an exact rational.
func Const(r Rational) Expression { return Expression{kind: KindConst, value: r} }

// ConstFloat builds a constant expression from a float64 literal (component
// values, timesteps).
func ConstFloat(f float64) Expression { return Const(RationalFromFloat(f)) }

// ConstInt builds a constant expression from an integer literal.
func ConstInt(n int64) Expression { return Const(RationalFromInt64(n, 1)) }

// Sym builds an atomic named symbol.
func Sym(name string) Expression { return Expression{kind: KindSymbol, name: name} }

// Call builds an opaque named function application.
func Call(name string, args ...Expression) Expression {
	return Expression{kind: KindCall, name: name, operands: append([]Expression(nil), args...)}
}

// D builds the derivative marker D(f, x), i.e. df/dx as an as-yet-undischarged
// symbol (used to classify which equations are differential, before the
// Gaussian elimination driver solves for it explicitly).
func D(f, x Expression) Expression { return Call(callDerivative, f, x) }

// NewtonDelta builds Δy for unknown y.
func NewtonDelta(y Expression) Expression { return Call(callDelta, y) }

// UnwrapDelta returns (y, true) if e is Δy for some y, else (zero, false).
func UnwrapDelta(e Expression) (Expression, bool) {
	if e.kind == KindCall && e.name == callDelta && len(e.operands) == 1 {
		return e.operands[0], true
	}
	return Expression{}, false
}

// Prev builds y(t0), the previous-timestep value of unknown y.
func Prev(y Expression) Expression { return Call(callPrev, y) }

// T and T0 are the distinguished current-time and previous-step-time
// symbols; every compiled TransientSolution is expressed in terms of these
// two plus each unknown's own Δ and Prev forms.
var (
	T  = Sym("t")
	T0 = Sym("t0")
)

// IsCall reports whether e is a call to name whose argument at argIndex is
// structurally equal to argValue, used to detect derivative markers and
// other distinguished forms without exposing the tagged variant itself to
// callers.
func IsCall(e Expression, name string, argIndex int, argValue Expression) bool {
	if e.kind != KindCall || e.name != name || argIndex < 0 || argIndex >= len(e.operands) {
		return false
	}
	return Equal(e.operands[argIndex], argValue)
}

// IsDerivativeOf reports whether e is exactly D(y, x).
func IsDerivativeOf(e, y, x Expression) bool {
	return IsCall(e, callDerivative, 0, y) && IsCall(e, callDerivative, 1, x)
}

// Equal reports structural equality. Because every constructor canonicalizes
// its operands (constant folding, sorted operand order), structural equality
// after construction is equivalent to mathematical identity for the subset of
// expressions this package can build — a best-effort symbolic test, not a
// numerical one.
func Equal(a, b Expression) bool {
	if a.kind != b.kind {
		return false
	}
	switch a.kind {
	case KindConst:
		return a.value.Equals(b.value)
	case KindSymbol:
		return a.name == b.name
	case KindCall:
		if a.name != b.name || len(a.operands) != len(b.operands) {
			return false
		}
	case KindAdd, KindMul:
		if len(a.operands) != len(b.operands) {
			return false
		}
	case KindPow:
		// handled by the generic operand loop below
	}
	for i := range a.operands {
		if !Equal(a.operands[i], b.operands[i]) {
			return false
		}
	}
	return true
}

// String renders e in a canonical, deterministic textual form. Canonical
// operand ordering is established at construction time (see Add/Mul), so two
// expressions reaching the same normal form always render identically —
// Testable Property 4 depends on this.
func (e Expression) String() string {
	switch e.kind {
	case KindConst:
		return e.value.String()
	case KindSymbol:
		return e.name
	case KindAdd:
		parts := make([]string, len(e.operands))
		for i, o := range e.operands {
			parts[i] = o.String()
		}
		return "(" + strings.Join(parts, " + ") + ")"
	case KindMul:
		parts := make([]string, len(e.operands))
		for i, o := range e.operands {
			parts[i] = o.String()
		}
		return "(" + strings.Join(parts, " * ") + ")"
	case KindPow:
		return fmt.Sprintf("(%s^%s)", e.operands[0].String(), e.operands[1].String())
	case KindCall:
		parts := make([]string, len(e.operands))
		for i, o := range e.operands {
			parts[i] = o.String()
		}
		return e.name + "(" + strings.Join(parts, ", ") + ")"
	default:
		return "<?>"
	}
}

// Kind reports the tagged-variant discriminant, for callers (mna's Gaussian
// elimination, discretizer) that must branch on expression shape the way the
// original source dispatches dynamically on node type — see DESIGN.md's note
// on re-architecting that dispatch as a tagged variant.
func (e Expression) Kind() Kind { return e.kind }

// AsConst returns (value, true) if e is a constant.
func (e Expression) AsConst() (Rational, bool) {
	if e.kind == KindConst {
		return e.value, true
	}
	return Rational{}, false
}

// Name returns the symbol or call name for KindSymbol/KindCall expressions,
// and "" otherwise.
func (e Expression) Name() string {
	if e.kind == KindSymbol || e.kind == KindCall {
		return e.name
	}
	return ""
}

// Operands returns the child operands (empty for KindConst/KindSymbol). The
// returned slice must not be mutated by the caller.
func (e Expression) Operands() []Expression { return e.operands }

// IsZero reports whether e is the constant 0.
func (e Expression) IsZero() bool {
	v, ok := e.AsConst()
	return ok && v.IsZero()
}

// Add returns the canonical sum of the given terms: flattened, constant
// terms folded into one, remaining operands sorted by canonical rendering so
// that Add(x, y) and Add(y, x) produce the identical tree.
func Add(terms ...Expression) Expression {
	flat := make([]Expression, 0, len(terms))
	for _, t := range terms {
		if t.kind == KindAdd {
			flat = append(flat, t.operands...)
		} else {
			flat = append(flat, t)
		}
	}
	acc := Zero()
	rest := make([]Expression, 0, len(flat))
	for _, t := range flat {
		if v, ok := t.AsConst(); ok {
			acc = acc.Add(v)
			continue
		}
		rest = append(rest, t)
	}
	sort.SliceStable(rest, func(i, j int) bool { return rest[i].String() < rest[j].String() })
	if !acc.IsZero() || len(rest) == 0 {
		rest = append([]Expression{Const(acc)}, rest...)
	}
	if len(rest) == 1 {
		return rest[0]
	}
	return Expression{kind: KindAdd, operands: rest}
}

// Sub returns a - b.
func Sub(a, b Expression) Expression { return Add(a, Neg(b)) }

// Neg returns -e.
func Neg(e Expression) Expression { return Mul(ConstInt(-1), e) }

// Mul returns the canonical product of the given factors: flattened,
// constant factors folded into one, remaining operands sorted by canonical
// rendering. A zero factor collapses the whole product to 0.
func Mul(factors ...Expression) Expression {
	flat := make([]Expression, 0, len(factors))
	for _, f := range factors {
		if f.kind == KindMul {
			flat = append(flat, f.operands...)
		} else {
			flat = append(flat, f)
		}
	}
	acc := One()
	rest := make([]Expression, 0, len(flat))
	for _, f := range flat {
		if v, ok := f.AsConst(); ok {
			acc = acc.Mul(v)
			continue
		}
		rest = append(rest, f)
	}
	if acc.IsZero() {
		return Const(Zero())
	}
	sort.SliceStable(rest, func(i, j int) bool { return rest[i].String() < rest[j].String() })
	if !acc.IsOne() || len(rest) == 0 {
		rest = append([]Expression{Const(acc)}, rest...)
	}
	if len(rest) == 1 {
		return rest[0]
	}
	return Expression{kind: KindMul, operands: rest}
}

// Pow returns base**exp. Constant base/exponent pairs with an integer
// exponent fold immediately; everything else is kept symbolic.
func Pow(base, exp Expression) Expression {
	if bv, ok := base.AsConst(); ok {
		if ev, ok := exp.AsConst(); ok && ev.IsInt() {
			n := ev.IntValue()
			if n >= 0 {
				acc := One()
				for i := int64(0); i < n; i++ {
					acc = acc.Mul(bv)
				}
				return Const(acc)
			}
			if !bv.IsZero() {
				acc := One()
				for i := int64(0); i < -n; i++ {
					acc = acc.Mul(bv)
				}
				return Const(One().Div(acc))
			}
		}
	}
	if ev, ok := exp.AsConst(); ok && ev.IsOne() {
		return base
	}
	return Expression{kind: KindPow, operands: []Expression{base, exp}}
}

// Div returns a / b == a * b**-1.
func Div(a, b Expression) Expression { return Mul(a, Pow(b, ConstInt(-1))) }

// DependsOn reports whether e references any symbol or call name in syms —
// treating the distinguished markers Prev(y), D(y,x), and Delta(y) as opaque
// leaves with respect to their own arguments, the same way Derivative does.
// Prev(y) denotes a value already resolved at the previous timestep, not a
// live occurrence of y itself, so an expression built only from Prev(y) does
// not "depend on" y in the sense every caller of DependsOn cares about:
// whether y still needs solving for in the equation at hand.
func DependsOn(e Expression, syms map[string]bool) bool {
	switch e.kind {
	case KindConst:
		return false
	case KindSymbol:
		return syms[e.name]
	case KindCall:
		if syms[e.name] {
			return true
		}
		if e.name == callPrev || e.name == callDerivative || e.name == callDelta {
			return false
		}
	}
	for _, o := range e.operands {
		if DependsOn(o, syms) {
			return true
		}
	}
	return false
}

// Substitute applies the parallel substitution described by arrows: every
// occurrence of arrows[i].Left (interpreted as a symbol, or matched
// structurally for non-symbol left-hand sides such as Prev(y)) is replaced by
// arrows[i].Right, all at once — not sequentially, so substituting {x: y, y:
// x} really does swap x and y rather than collapsing both to one value.
func Substitute(e Expression, arrows []Arrow) Expression {
	for _, a := range arrows {
		if Equal(e, a.Left) {
			return a.Right
		}
	}
	switch e.kind {
	case KindConst, KindSymbol:
		return e
	default:
		newOps := make([]Expression, len(e.operands))
		for i, o := range e.operands {
			newOps[i] = Substitute(o, arrows)
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
	}
	return e
}

// Evaluate performs a parallel multi-substitution. It is the exported entry
// point Substitute's documentation above describes; Substitute is kept as
// the lower-level recursive helper other functions in this package call
// directly.
func Evaluate(e Expression, arrows []Arrow) Expression { return Substitute(e, arrows) }
