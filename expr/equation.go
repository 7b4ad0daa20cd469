package expr

// Equation is the ordered pair (Left, Right) interpreted as Left = Right —
// the shape every entry in an MNA system and every residual equation takes.
type Equation struct {
	Left, Right Expression
}

// NewEquation builds an Equation.
func NewEquation(left, right Expression) Equation { return Equation{Left: left, Right: right} }

// Residual returns Left - Right, the zero-when-satisfied form used to build
// Jacobian rows and to check a candidate solution.
func (e Equation) Residual() Expression { return Sub(e.Left, e.Right) }

// DependsOn reports whether either side of the equation references any
// symbol or call name in syms.
func (e Equation) DependsOn(syms map[string]bool) bool {
	return DependsOn(e.Left, syms) || DependsOn(e.Right, syms)
}

// String renders "Left = Right".
func (e Equation) String() string { return e.Left.String() + " = " + e.Right.String() }

// Arrow is the ordered pair (Left, Right) interpreted as the solved
// assignment Left := Right. Left is conventionally a single unknown symbol
// (or a distinguished form like Prev(y)); callers that build a sequence of
// Arrows are responsible for the dependency-order invariant: Right must not
// reference any unknown listed after this Arrow in its containing sequence.
type Arrow struct {
	Left, Right Expression
}

// NewArrow builds an Arrow.
func NewArrow(left, right Expression) Arrow { return Arrow{Left: left, Right: right} }

// String renders "Left := Right".
func (a Arrow) String() string { return a.Left.String() + " := " + a.Right.String() }

// ArrowsEqual reports whether two Arrow slices are structurally identical in
// order, for comparing two arrow lists element by element.
func ArrowsEqual(a, b []Arrow) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !Equal(a[i].Left, b[i].Left) || !Equal(a[i].Right, b[i].Right) {
			return false
		}
	}
	return true
}
