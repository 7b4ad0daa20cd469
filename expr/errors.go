package expr

import "errors"

// Sentinel errors for the algebra layer. Callers must match with
// errors.Is/errors.As, never by comparing error strings.
var (
	// ErrNotAffine is wrapped by AlgebraError when NSolve is handed input it
	// cannot evaluate numerically: an initial-guess value that is not a
	// constant, or a residual or Jacobian entry that still contains a free
	// symbol or an unsupported call once every unknown is bound.
	ErrNotAffine = errors.New("expr: expression is not affine in requested basis")

	// ErrDidNotConverge is wrapped by AlgebraError when NSolve exhausts its
	// iteration budget without meeting the convergence tolerance.
	ErrDidNotConverge = errors.New("expr: numeric solve did not converge")

	// ErrSingularSystem is wrapped by AlgebraError when NSolve's inner linear
	// solve fails: an exactly-zero pivot, or a Jacobian that is not square
	// (equation count differs from unknown count).
	ErrSingularSystem = errors.New("expr: singular system during numeric solve")
)

// AlgebraError is the structured error NSolve returns on failure. Go has no
// exceptions, so AlgebraError is an ordinary error value wrapping one of the
// sentinels above via Unwrap.
type AlgebraError struct {
	Op  string // the operation that failed, e.g. "NSolve"
	Err error  // the wrapped sentinel
}

func (e *AlgebraError) Error() string {
	return "expr: " + e.Op + ": " + e.Err.Error()
}

func (e *AlgebraError) Unwrap() error { return e.Err }
