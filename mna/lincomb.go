// Package mna implements the circuit-to-solver compiler: the symbolic row
// and elimination machinery (LinearCombination, GaussianEliminator), the
// trapezoidal ODE discretizer, the two SolutionSet shapes, and the top-level
// TransientSolution compiler (Solve / SolveDC) that ties them together. It
// treats github.com/katalvlaran/mnacompile/expr as an external algebra
// collaborator: mna never inspects an Expression's internal shape directly
// except through expr's exported contract.
package mna

import (
	"fmt"

	"github.com/katalvlaran/mnacompile/expr"
)

// LinearCombination is a symbolic row Σ cᵢ·bᵢ + c₀ over an ordered basis of
// distinguished expressions. Iteration order over the basis defines pivot
// scanning order for the Gaussian elimination driver in gauss.go; callers
// must not rely on any other ordering guarantee.
type LinearCombination struct {
	basis    []expr.Expression
	index    map[string]int // basis element canonical string -> position
	coeffs   []expr.Expression
	constant expr.Expression
	tag      expr.Expression // carries the originating residual for Jacobian rows
}

// NewLinearCombination builds a zero row over the given basis (in order).
func NewLinearCombination(basis []expr.Expression) *LinearCombination {
	row := &LinearCombination{
		basis:    append([]expr.Expression(nil), basis...),
		index:    make(map[string]int, len(basis)),
		coeffs:   make([]expr.Expression, len(basis)),
		constant: expr.ConstInt(0),
	}
	for i, b := range row.basis {
		row.index[b.String()] = i
		row.coeffs[i] = expr.ConstInt(0)
	}
	return row
}

// Basis returns the row's ordered basis. The returned slice must not be
// mutated; use SwapColumns to reorder.
func (row *LinearCombination) Basis() []expr.Expression {
	return append([]expr.Expression(nil), row.basis...)
}

// Coefficient returns the coefficient of basis element b, or the constant 0
// if b is not part of this row's basis.
func (row *LinearCombination) Coefficient(b expr.Expression) expr.Expression {
	i, ok := row.index[b.String()]
	if !ok {
		return expr.ConstInt(0)
	}
	return row.coeffs[i]
}

// SetCoefficient replaces the coefficient of basis element b.
func (row *LinearCombination) SetCoefficient(b expr.Expression, c expr.Expression) error {
	i, ok := row.index[b.String()]
	if !ok {
		return fmt.Errorf("mna: %s is not in this row's basis: %w", b, ErrNotInBasis)
	}
	row.coeffs[i] = c
	return nil
}

// Constant returns the row's constant term (the coefficient of the implicit 1).
func (row *LinearCombination) Constant() expr.Expression { return row.constant }

// SetConstant replaces the row's constant term.
func (row *LinearCombination) SetConstant(c expr.Expression) { row.constant = c }

// Tag returns the opaque tag slot used to carry a Jacobian row's originating
// residual Fᵢ, plumbed explicitly rather than through an untyped sidecar.
func (row *LinearCombination) Tag() expr.Expression { return row.tag }

// SetTag sets the tag slot.
func (row *LinearCombination) SetTag(t expr.Expression) { row.tag = t }

// isZeroCoefficient is the row's zero-test: structural equality with the
// constant 0 after the coefficient's own construction-time normalization.
// A best-effort symbolic test, not a numerical one.
func isZeroCoefficient(c expr.Expression) bool {
	return expr.Equal(c, expr.ConstInt(0))
}

// PivotPosition returns the first basis element (in basis order) whose
// coefficient is symbolically nonzero, or ok=false if the row is entirely
// zero over its basis.
func (row *LinearCombination) PivotPosition() (b expr.Expression, ok bool) {
	for i, c := range row.coeffs {
		if !isZeroCoefficient(c) {
			return row.basis[i], true
		}
	}
	return expr.Expression{}, false
}

// SwapColumns permutes the row's basis to newOrder; coefficients follow their
// basis element. newOrder must be a permutation of row.Basis().
func (row *LinearCombination) SwapColumns(newOrder []expr.Expression) error {
	if len(newOrder) != len(row.basis) {
		return fmt.Errorf("mna: SwapColumns: length mismatch (%d vs %d): %w", len(newOrder), len(row.basis), ErrBasisMismatch)
	}
	newCoeffs := make([]expr.Expression, len(newOrder))
	newIndex := make(map[string]int, len(newOrder))
	for i, b := range newOrder {
		j, ok := row.index[b.String()]
		if !ok {
			return fmt.Errorf("mna: SwapColumns: %s not in original basis: %w", b, ErrBasisMismatch)
		}
		newCoeffs[i] = row.coeffs[j]
		newIndex[b.String()] = i
	}
	row.basis = append([]expr.Expression(nil), newOrder...)
	row.coeffs = newCoeffs
	row.index = newIndex
	return nil
}

// SolveFor returns -(Σ_{b'≠b} c_b'·b' + c₀) / c_b, the symbolic expression
// that sets this row to zero with the given basis element isolated. It fails
// with ErrZeroPivotCoefficient if c_b is symbolically zero.
func (row *LinearCombination) SolveFor(b expr.Expression) (expr.Expression, error) {
	cb := row.Coefficient(b)
	if isZeroCoefficient(cb) {
		return expr.Expression{}, fmt.Errorf("mna: SolveFor(%s): %w", b, ErrZeroPivotCoefficient)
	}
	var rest []expr.Expression
	for i, b2 := range row.basis {
		if expr.Equal(b2, b) {
			continue
		}
		if !isZeroCoefficient(row.coeffs[i]) {
			rest = append(rest, expr.Mul(row.coeffs[i], b2))
		}
	}
	rest = append(rest, row.constant)
	sum := expr.Add(rest...)
	return expr.Factor(expr.Neg(expr.Div(sum, cb))), nil
}

// ToExpression renders the row as Σ cᵢ·bᵢ + c₀.
func (row *LinearCombination) ToExpression() expr.Expression {
	terms := make([]expr.Expression, 0, len(row.basis)+1)
	for i, b := range row.basis {
		if !isZeroCoefficient(row.coeffs[i]) {
			terms = append(terms, expr.Mul(row.coeffs[i], b))
		}
	}
	terms = append(terms, row.constant)
	return expr.Add(terms...)
}

// scaleToUnitPivot divides every coefficient and the constant by the current
// coefficient of pivot, so that the pivot's coefficient becomes exactly 1.
func (row *LinearCombination) scaleToUnitPivot(pivot expr.Expression) error {
	c := row.Coefficient(pivot)
	if isZeroCoefficient(c) {
		return fmt.Errorf("mna: scaleToUnitPivot(%s): %w", pivot, ErrZeroPivotCoefficient)
	}
	for i := range row.coeffs {
		row.coeffs[i] = expr.Div(row.coeffs[i], c)
	}
	row.constant = expr.Div(row.constant, c)
	return nil
}

// subtractScaled computes row := row - factor*other, column by column, plus
// the constant term. other must share row's basis (same elements, any
// order); it is looked up by basis element, not position.
func (row *LinearCombination) subtractScaled(other *LinearCombination, factor expr.Expression) {
	for i, b := range row.basis {
		row.coeffs[i] = expr.Sub(row.coeffs[i], expr.Mul(factor, other.Coefficient(b)))
	}
	row.constant = expr.Sub(row.constant, expr.Mul(factor, other.Constant()))
}

// RowFromEquation builds a LinearCombination over basis from eq, assuming eq
// is affine in basis (true for MNA's linear stamping of reactive elements and
// for the Jacobian's own linear partition). Each coefficient is the partial
// derivative of the residual (Left - Right) with respect to the
// corresponding basis element; the constant term is the residual with every
// basis element zeroed out.
func RowFromEquation(eq expr.Equation, basis []expr.Expression) *LinearCombination {
	row := NewLinearCombination(basis)
	residual := eq.Residual()
	zero := make([]expr.Arrow, len(basis))
	for i, b := range basis {
		zero[i] = expr.NewArrow(b, expr.ConstInt(0))
	}
	for _, b := range basis {
		_ = row.SetCoefficient(b, expr.Derivative(residual, b))
	}
	row.SetConstant(expr.Evaluate(residual, zero))
	return row
}
