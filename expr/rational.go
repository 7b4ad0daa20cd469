package expr

import (
	"math/big"
)

// Rational is an exact rational number used for constant folding inside
// Expression trees. Component values in a circuit (1/48000 s, 4.7e-9 F, ...)
// do not fit comfortably in small int64 fractions, so Rational is backed by
// math/big.Rat rather than a hand-rolled int/int pair; the API shape
// (Add/Sub/Mul/Div/Neg/IsZero/Equals/ToFloat/String) mirrors the exact-rational
// coefficient type used elsewhere in the retrieval pack for constraint
// arithmetic, normalized to lowest terms with a positive denominator.
type Rational struct {
	r *big.Rat
}

// RationalFromInt64 builds the exact rational num/den, normalized.
// Panics if den is zero: constructing an undefined rational is a programmer
// error, not a runtime condition callers should branch on.
func RationalFromInt64(num, den int64) Rational {
	if den == 0 {
		panic("expr: rational denominator is zero")
	}
	return Rational{r: big.NewRat(num, den)}
}

// RationalFromFloat builds the closest exact rational to f.
// Used when a circuit component value (resistance, capacitance, timestep)
// arrives as a float64 literal; big.Rat.SetFloat64 recovers the exact binary
// fraction underlying f, which is sufficient for the constant folding this
// package performs (no transcendental irrationals are ever introduced).
func RationalFromFloat(f float64) Rational {
	r := new(big.Rat)
	if r.SetFloat64(f) == nil {
		// f is NaN or ±Inf: there is no exact rational; callers must not
		// feed non-finite component values into the symbolic layer.
		panic("expr: cannot represent non-finite float as Rational")
	}
	return Rational{r: r}
}

// Zero and One are the additive and multiplicative identities.
func Zero() Rational { return RationalFromInt64(0, 1) }
func One() Rational  { return RationalFromInt64(1, 1) }

func (a Rational) ensure() *big.Rat {
	if a.r == nil {
		return big.NewRat(0, 1)
	}
	return a.r
}

// Add returns a + b.
func (a Rational) Add(b Rational) Rational {
	return Rational{r: new(big.Rat).Add(a.ensure(), b.ensure())}
}

// Sub returns a - b.
func (a Rational) Sub(b Rational) Rational {
	return Rational{r: new(big.Rat).Sub(a.ensure(), b.ensure())}
}

// Mul returns a * b.
func (a Rational) Mul(b Rational) Rational {
	return Rational{r: new(big.Rat).Mul(a.ensure(), b.ensure())}
}

// Div returns a / b. Panics if b is zero, mirroring Rational construction's
// panic-on-undefined-value policy.
func (a Rational) Div(b Rational) Rational {
	if b.IsZero() {
		panic("expr: rational division by zero")
	}
	return Rational{r: new(big.Rat).Quo(a.ensure(), b.ensure())}
}

// Neg returns -a.
func (a Rational) Neg() Rational {
	return Rational{r: new(big.Rat).Neg(a.ensure())}
}

// IsZero reports whether a is exactly zero.
func (a Rational) IsZero() bool {
	return a.ensure().Sign() == 0
}

// IsOne reports whether a is exactly one.
func (a Rational) IsOne() bool {
	return a.ensure().Cmp(big.NewRat(1, 1)) == 0
}

// Equals reports exact equality between two normalized rationals.
func (a Rational) Equals(b Rational) bool {
	return a.ensure().Cmp(b.ensure()) == 0
}

// IsInt reports whether a has no fractional part.
func (a Rational) IsInt() bool {
	return a.ensure().IsInt()
}

// IntValue returns a's integer value. Callers must check IsInt first; the
// result is meaningless otherwise.
func (a Rational) IntValue() int64 {
	return a.ensure().Num().Int64()
}

// ToFloat returns the nearest float64 approximation, for evaluation against
// host-provided numeric tolerances (Newton convergence, DC solve residuals).
func (a Rational) ToFloat() float64 {
	f, _ := a.ensure().Float64()
	return f
}

// String renders a canonical "num/den" (or "num" when den==1) form. Rendering
// is part of the deterministic canonical output relied on by Testable
// Property 4 (round-trip determinism).
func (a Rational) String() string {
	r := a.ensure()
	if r.IsInt() {
		return r.Num().String()
	}
	return r.RatString()
}
