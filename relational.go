// Package relational transforms relations between symbolic expressions:
// applying the same operation to both sides of an equality or inequality
// while tracking whether the comparison direction survives.
//
// Equalities accept any transformation. Inequalities accept additive shifts,
// multiplicative scales, reciprocals and a closed list of sign-preserving
// rewrites; scales and reciprocals consult a sign oracle, or partition a
// domain into cases when the sign varies over it.
package relational

import (
	"errors"
	"fmt"
)

// ============================================================
// Relation model
// ============================================================

// ComparisonKind identifies the comparison operator of a relation.
type ComparisonKind int

const (
	KindEq ComparisonKind = iota
	KindLe
	KindLt
	KindGe
	KindGt
)

func (k ComparisonKind) String() string {
	switch k {
	case KindEq:
		return "="
	case KindLe:
		return "<="
	case KindLt:
		return "<"
	case KindGe:
		return ">="
	case KindGt:
		return ">"
	}
	panic(fmt.Sprintf("relational: invalid comparison kind %d", int(k)))
}

func (k ComparisonKind) latex() string {
	switch k {
	case KindLe:
		return "\\leq"
	case KindGe:
		return "\\geq"
	}
	return k.String()
}

// Relation is an immutable comparison between two expressions.
type Relation struct {
	Kind ComparisonKind
	LHS  Expr
	RHS  Expr
}

func Eq(lhs, rhs Expr) Relation { return Relation{Kind: KindEq, LHS: lhs, RHS: rhs} }
func Le(lhs, rhs Expr) Relation { return Relation{Kind: KindLe, LHS: lhs, RHS: rhs} }
func Lt(lhs, rhs Expr) Relation { return Relation{Kind: KindLt, LHS: lhs, RHS: rhs} }
func Ge(lhs, rhs Expr) Relation { return Relation{Kind: KindGe, LHS: lhs, RHS: rhs} }
func Gt(lhs, rhs Expr) Relation { return Relation{Kind: KindGt, LHS: lhs, RHS: rhs} }

func (r Relation) String() string {
	return r.LHS.String() + " " + r.Kind.String() + " " + r.RHS.String()
}

func (r Relation) LaTeX() string {
	return r.LHS.LaTeX() + " " + r.Kind.latex() + " " + r.RHS.LaTeX()
}

func (r Relation) Equal(other Relation) bool {
	return r.Kind == other.Kind && r.LHS.Equal(other.LHS) && r.RHS.Equal(other.RHS)
}

// Simplify returns the relation with both sides simplified.
func (r Relation) Simplify() Relation {
	return Relation{Kind: r.Kind, LHS: r.LHS.Simplify(), RHS: r.RHS.Simplify()}
}

// InvertDirection maps each strict or weak inequality to its reverse.
// Equality has no inverse direction; asking for one is a programmer error.
func InvertDirection(k ComparisonKind) ComparisonKind {
	switch k {
	case KindLe:
		return KindGe
	case KindGe:
		return KindLe
	case KindLt:
		return KindGt
	case KindGt:
		return KindLt
	}
	panic("relational: comparison kind has no inverse direction")
}

// InvertRelation negates both sides and reverses the direction, producing an
// equivalent relation: a >= b becomes -a <= -b.
func InvertRelation(r Relation) Relation {
	return Relation{
		Kind: InvertDirection(r.Kind),
		LHS:  Neg(r.LHS),
		RHS:  Neg(r.RHS),
	}
}

// ============================================================
// Errors
// ============================================================

var (
	// ErrSignUndetermined: a scale or reciprocal needed the sign of an
	// expression and the oracle could not decide it.
	ErrSignUndetermined = errors.New("relational: sign undetermined")

	// ErrMissingVariable: a domain was supplied without naming the variable
	// it constrains.
	ErrMissingVariable = errors.New("relational: domain given without a variable; only univariate domains are supported")

	// ErrDivisionByZero: a reciprocal was requested for a relation with a
	// zero side.
	ErrDivisionByZero = errors.New("relational: cannot take reciprocals with one side zero")

	// ErrNotImplemented: the operation is outside the supported set for the
	// relation kind.
	ErrNotImplemented = errors.New("relational: operation not implemented for this relation")
)

// ============================================================
// Operations and results
// ============================================================

// Op enumerates the transformations BothSides can apply.
type Op int

const (
	OpShift Op = iota
	OpScale
	OpPower
	OpSimplify
	OpExpand
	OpFactor
	OpCollect
	OpTogether
	OpApart
)

func (op Op) String() string {
	switch op {
	case OpShift:
		return "shift"
	case OpScale:
		return "scale"
	case OpPower:
		return "power"
	case OpSimplify:
		return "simplify"
	case OpExpand:
		return "expand"
	case OpFactor:
		return "factor"
	case OpCollect:
		return "collect"
	case OpTogether:
		return "together"
	case OpApart:
		return "apart"
	}
	return fmt.Sprintf("op(%d)", int(op))
}

func (op Op) isRewrite() bool { return op >= OpSimplify }

// Case is one branch of a domain case split.
type Case struct {
	Where    Domain
	Relation Relation
}

// Result is either a single relation or a case split over subdomains; Split
// tells which. Case order is deterministic.
type Result struct {
	Single Relation
	Cases  []Case
	Split  bool
}

func single(r Relation) Result { return Result{Single: r} }
func split(cs []Case) Result   { return Result{Cases: cs, Split: true} }

// ============================================================
// Engine
// ============================================================

// Engine applies transformations using an injected sign oracle and domain
// partition solver.
type Engine struct {
	Signs  SignOracle
	Solver PartitionSolver
}

// NewEngine builds an engine. A nil oracle assumes nothing; a nil solver
// defaults to the exact polynomial solver.
func NewEngine(signs SignOracle, solver PartitionSolver) *Engine {
	if signs == nil {
		signs = Assumptions(nil)
	}
	if solver == nil {
		solver = PolySolver{}
	}
	return &Engine{Signs: signs, Solver: solver}
}

var defaultEngine = NewEngine(nil, nil)

// BothSides applies op to both sides of rel using an engine with no symbol
// assumptions and the exact polynomial solver.
func BothSides(rel Relation, op Op, arg Expr, domain *Domain, variable string) (Result, error) {
	return defaultEngine.BothSides(rel, op, arg, domain, variable)
}

// BothSides applies op to both sides of rel. arg is the shift or scale term
// or the power exponent; it is ignored by rewrites. A non-nil domain selects
// interval mode for scale and reciprocal, in which case variable names the
// symbol the domain constrains.
func (e *Engine) BothSides(rel Relation, op Op, arg Expr, domain *Domain, variable string) (Result, error) {
	if rel.Kind == KindEq {
		fn, err := equalityFn(op, arg, variable)
		if err != nil {
			return Result{}, err
		}
		out, err := ApplyEquality(rel, fn)
		if err != nil {
			return Result{}, err
		}
		return single(out), nil
	}

	switch {
	case op == OpShift:
		return single(AddShift(rel, arg)), nil

	case op == OpScale:
		if domain == nil {
			out, err := e.MulScale(rel, arg)
			if err != nil {
				return Result{}, err
			}
			return single(out), nil
		}
		cases, err := e.MulScaleOn(rel, arg, *domain, variable)
		if err != nil {
			return Result{}, err
		}
		return split(cases), nil

	case op == OpPower:
		n, ok := arg.(*Num)
		if !ok || !n.IsNegOne() {
			return Result{}, fmt.Errorf("%w: inequality powers other than -1", ErrNotImplemented)
		}
		if domain == nil {
			out, err := e.Reciprocal(rel)
			if err != nil {
				return Result{}, err
			}
			return single(out), nil
		}
		cases, err := e.ReciprocalOn(rel, *domain, variable)
		if err != nil {
			return Result{}, err
		}
		return split(cases), nil

	case op.isRewrite():
		out, err := Rewrite(rel, op, variable)
		if err != nil {
			return Result{}, err
		}
		return single(out), nil
	}
	return Result{}, fmt.Errorf("%w: %s", ErrNotImplemented, op)
}

// equalityFn builds the side function for an equality. Every supported op is
// legal on equalities, including arbitrary powers.
func equalityFn(op Op, arg Expr, variable string) (func(Expr) Expr, error) {
	switch op {
	case OpShift:
		if arg == nil {
			panic("relational: shift with nil argument")
		}
		return func(side Expr) Expr { return Sum(side, arg) }, nil
	case OpScale:
		if arg == nil {
			panic("relational: scale with nil argument")
		}
		return func(side Expr) Expr { return Prod(side, arg) }, nil
	case OpPower:
		if arg == nil {
			panic("relational: power with nil exponent")
		}
		return func(side Expr) Expr { return Power(side, arg) }, nil
	}
	if op.isRewrite() {
		return rewriteFn(op, variable)
	}
	return nil, fmt.Errorf("%w: %s", ErrNotImplemented, op)
}

// ApplyEquality applies fn to both sides of an equality.
func ApplyEquality(rel Relation, fn func(Expr) Expr) (Relation, error) {
	if rel.Kind != KindEq {
		return Relation{}, fmt.Errorf("%w: equality transform on %s relation", ErrNotImplemented, rel.Kind)
	}
	return Eq(fn(rel.LHS).Simplify(), fn(rel.RHS).Simplify()), nil
}

// ============================================================
// Inequality transformers
// ============================================================

// AddShift adds arg to both sides. The direction always survives a shift, so
// this works for every relation kind.
func AddShift(rel Relation, arg Expr) Relation {
	if arg == nil {
		panic("relational: shift with nil argument")
	}
	return Relation{
		Kind: rel.Kind,
		LHS:  Sum(rel.LHS, arg),
		RHS:  Sum(rel.RHS, arg),
	}
}

// MulScale multiplies both sides by arg under the engine's sign oracle.
// A positive multiplier keeps the direction, a negative one reverses it, and
// a zero multiplier collapses the relation to 0 = 0.
func (e *Engine) MulScale(rel Relation, arg Expr) (Relation, error) {
	if arg == nil {
		panic("relational: scale with nil argument")
	}
	scaled := func(k ComparisonKind) Relation {
		return Relation{Kind: k, LHS: Prod(rel.LHS, arg), RHS: Prod(rel.RHS, arg)}
	}
	switch e.Signs.SignOf(arg) {
	case SignPositive:
		return scaled(rel.Kind), nil
	case SignNegative:
		return scaled(InvertDirection(rel.Kind)), nil
	case SignZero:
		return Eq(N(0), N(0)), nil
	}
	return Relation{}, fmt.Errorf("%w: multiplier %s; supply a domain to split into cases", ErrSignUndetermined, arg)
}

// MulScaleOn multiplies both sides by arg over a domain of the variable,
// splitting into at most three cases by the sign of arg. Empty regions are
// omitted.
func (e *Engine) MulScaleOn(rel Relation, arg Expr, domain Domain, variable string) ([]Case, error) {
	if arg == nil {
		panic("relational: scale with nil argument")
	}
	if variable == "" {
		return nil, ErrMissingVariable
	}

	pos, err := e.Solver.SolveWhere(arg, PredPositive, variable, domain)
	if err != nil {
		return nil, err
	}
	neg, err := e.Solver.SolveWhere(arg, PredNegative, variable, domain)
	if err != nil {
		return nil, err
	}
	zero, err := e.Solver.SolveWhere(arg, PredZero, variable, domain)
	if err != nil {
		return nil, err
	}

	scaled := func(k ComparisonKind) Relation {
		return Relation{Kind: k, LHS: Prod(rel.LHS, arg), RHS: Prod(rel.RHS, arg)}
	}
	cases := []Case{}
	if !pos.IsEmpty() {
		cases = append(cases, Case{Where: pos, Relation: scaled(rel.Kind)})
	}
	if !neg.IsEmpty() {
		cases = append(cases, Case{Where: neg, Relation: scaled(InvertDirection(rel.Kind))})
	}
	if !zero.IsEmpty() {
		cases = append(cases, Case{Where: zero, Relation: Eq(N(0), N(0))})
	}
	return cases, nil
}

// Reciprocal replaces each side by its reciprocal under the engine's sign
// oracle. Sides of the same sign reverse the direction; sides of opposite
// signs keep it. A side that is zero, structurally or by the oracle, is a
// division by zero.
func (e *Engine) Reciprocal(rel Relation) (Relation, error) {
	if isLiteralZero(rel.LHS) || isLiteralZero(rel.RHS) {
		return Relation{}, ErrDivisionByZero
	}
	ls := e.Signs.SignOf(rel.LHS)
	rs := e.Signs.SignOf(rel.RHS)
	if ls == SignZero || rs == SignZero {
		return Relation{}, ErrDivisionByZero
	}
	if ls == SignUnknown || rs == SignUnknown {
		return Relation{}, fmt.Errorf("%w: side signs %s and %s; supply a domain to split into cases", ErrSignUndetermined, ls, rs)
	}

	kind := rel.Kind
	if ls == rs {
		kind = InvertDirection(kind)
	}
	return Relation{Kind: kind, LHS: Recip(rel.LHS), RHS: Recip(rel.RHS)}, nil
}

// ReciprocalOn replaces each side by its reciprocal over a domain of the
// variable, splitting by the sign combination of the two sides. Same-sign
// regions reverse the direction, opposite-sign regions keep it, and regions
// where either side crosses zero are omitted.
func (e *Engine) ReciprocalOn(rel Relation, domain Domain, variable string) ([]Case, error) {
	if isLiteralZero(rel.LHS) || isLiteralZero(rel.RHS) {
		return nil, ErrDivisionByZero
	}
	if variable == "" {
		return nil, ErrMissingVariable
	}

	lp, err := e.Solver.SolveWhere(rel.LHS, PredPositive, variable, domain)
	if err != nil {
		return nil, err
	}
	ln, err := e.Solver.SolveWhere(rel.LHS, PredNegative, variable, domain)
	if err != nil {
		return nil, err
	}
	rp, err := e.Solver.SolveWhere(rel.RHS, PredPositive, variable, domain)
	if err != nil {
		return nil, err
	}
	rn, err := e.Solver.SolveWhere(rel.RHS, PredNegative, variable, domain)
	if err != nil {
		return nil, err
	}

	inverted := Relation{Kind: InvertDirection(rel.Kind), LHS: Recip(rel.LHS), RHS: Recip(rel.RHS)}
	same := Relation{Kind: rel.Kind, LHS: Recip(rel.LHS), RHS: Recip(rel.RHS)}

	regions := []struct {
		where Domain
		rel   Relation
	}{
		{lp.Intersect(rp), inverted},
		{ln.Intersect(rn), inverted},
		{lp.Intersect(rn), same},
		{ln.Intersect(rp), same},
	}

	cases := []Case{}
	for _, reg := range regions {
		if reg.where.IsEmpty() {
			continue
		}
		// Merge into an earlier case with the same outcome.
		merged := false
		for i := range cases {
			if cases[i].Relation.Equal(reg.rel) {
				cases[i].Where = cases[i].Where.Union(reg.where)
				merged = true
				break
			}
		}
		if !merged {
			cases = append(cases, Case{Where: reg.where, Relation: reg.rel})
		}
	}
	return cases, nil
}

// ============================================================
// Rewrites
// ============================================================

// Rewrite applies a sign-preserving rewrite to both sides. Rewrites never
// change the direction, so they are valid for every relation kind.
func Rewrite(rel Relation, op Op, variable string) (Relation, error) {
	fn, err := rewriteFn(op, variable)
	if err != nil {
		return Relation{}, err
	}
	return Relation{Kind: rel.Kind, LHS: fn(rel.LHS), RHS: fn(rel.RHS)}, nil
}

func rewriteFn(op Op, variable string) (func(Expr) Expr, error) {
	needsVar := func() error {
		if variable == "" {
			return fmt.Errorf("%w: %s needs a variable", ErrMissingVariable, op)
		}
		return nil
	}
	switch op {
	case OpSimplify:
		return func(e Expr) Expr { return e.Simplify() }, nil
	case OpExpand:
		return Expand, nil
	case OpTogether:
		return Together, nil
	case OpFactor:
		if err := needsVar(); err != nil {
			return nil, err
		}
		return func(e Expr) Expr { return FactorExpr(e, variable) }, nil
	case OpCollect:
		if err := needsVar(); err != nil {
			return nil, err
		}
		return func(e Expr) Expr { return Collect(e, variable) }, nil
	case OpApart:
		if err := needsVar(); err != nil {
			return nil, err
		}
		return func(e Expr) Expr { return ApartExpr(e, variable) }, nil
	}
	return nil, fmt.Errorf("%w: %s is not a rewrite", ErrNotImplemented, op)
}

// ============================================================
// Equation-pair arithmetic
// ============================================================

// AddRelations adds two equalities sidewise: a=b and c=d give a+c = b+d.
func AddRelations(r1, r2 Relation) (Relation, error) {
	if err := requireEq(r1, r2); err != nil {
		return Relation{}, err
	}
	return Eq(Sum(r1.LHS, r2.LHS), Sum(r1.RHS, r2.RHS)), nil
}

// SubRelations subtracts the second equality from the first sidewise.
func SubRelations(r1, r2 Relation) (Relation, error) {
	if err := requireEq(r1, r2); err != nil {
		return Relation{}, err
	}
	return Eq(Sum(r1.LHS, Neg(r2.LHS)), Sum(r1.RHS, Neg(r2.RHS))), nil
}

// MulRelations multiplies two equalities sidewise.
func MulRelations(r1, r2 Relation) (Relation, error) {
	if err := requireEq(r1, r2); err != nil {
		return Relation{}, err
	}
	return Eq(Prod(r1.LHS, r2.LHS), Prod(r1.RHS, r2.RHS)), nil
}

// DivRelations divides the first equality by the second sidewise. A second
// relation with a literally zero side is a division by zero.
func DivRelations(r1, r2 Relation) (Relation, error) {
	if err := requireEq(r1, r2); err != nil {
		return Relation{}, err
	}
	if isLiteralZero(r2.LHS) || isLiteralZero(r2.RHS) {
		return Relation{}, ErrDivisionByZero
	}
	return Eq(Div(r1.LHS, r2.LHS), Div(r1.RHS, r2.RHS)), nil
}

func requireEq(rs ...Relation) error {
	for _, r := range rs {
		if r.Kind != KindEq {
			return fmt.Errorf("%w: sidewise combination requires equalities, got %s", ErrNotImplemented, r.Kind)
		}
	}
	return nil
}

func isLiteralZero(e Expr) bool {
	n, ok := e.Simplify().(*Num)
	return ok && n.IsZero()
}
