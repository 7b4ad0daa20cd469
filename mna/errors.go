package mna

import "errors"

// Sentinel errors, matched via errors.Is/errors.As.
var (
	// ErrNotInBasis is returned when a coefficient is requested or set for a
	// basis element the row was not constructed with.
	ErrNotInBasis = errors.New("mna: basis element not present in row")

	// ErrBasisMismatch is returned when SwapColumns is given a slice that is
	// not a permutation of the row's current basis.
	ErrBasisMismatch = errors.New("mna: column swap basis mismatch")

	// ErrZeroPivotCoefficient is returned when SolveFor or row reduction is
	// asked to pivot on a symbolically zero coefficient.
	ErrZeroPivotCoefficient = errors.New("mna: pivot coefficient is zero")

	// ErrSingularJacobian is wrapped by CompileError when the Newton block
	// finds a Δ with no pivot and no row carrying a nonzero coefficient for
	// it — a rank-deficient Jacobian.
	ErrSingularJacobian = errors.New("mna: Jacobian has no pivot for required unknown")

	// ErrNotDerivative is returned when the discretizer is handed an equation
	// whose left side is not D(y, t) for the expected time variable t.
	ErrNotDerivative = errors.New("mna: equation is not a derivative in the expected time variable")
)

// CompileError is the structured, fatal compile-time error for the Singular
// Jacobian case and for algebra-layer failures on a required step: it names
// the offending unknown or equation alongside the wrapped sentinel.
type CompileError struct {
	Op      string // the compiler stage that failed, e.g. "NewtonBlock"
	Subject string // the offending unknown or equation, rendered
	Err     error
}

func (e *CompileError) Error() string {
	return "mna: " + e.Op + ": " + e.Subject + ": " + e.Err.Error()
}

func (e *CompileError) Unwrap() error { return e.Err }
