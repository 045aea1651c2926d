package relational

import (
	"math"
	"math/big"
	"sort"
	"strings"
)

// ============================================================
// Expression kernel
// ============================================================

// Expr is an immutable symbolic term. All constructors return simplified
// values; nothing in this package ever mutates an Expr.
type Expr interface {
	Simplify() Expr
	String() string
	LaTeX() string
	Substitute(name string, value Expr) Expr
	Equal(other Expr) bool
	Eval() (*Num, bool)
}

// ============================================================
// Num — exact rational constant
// ============================================================

type Num struct{ val *big.Rat }

func N(n int64) *Num { return &Num{val: new(big.Rat).SetInt64(n)} }
func F(p, q int64) *Num {
	if q == 0 {
		panic("relational: denominator is zero")
	}
	return &Num{val: new(big.Rat).SetFrac(big.NewInt(p), big.NewInt(q))}
}

func numFromRat(r *big.Rat) *Num     { return &Num{val: new(big.Rat).Set(r)} }
func numFromFloat(f float64) *Num    { return &Num{val: new(big.Rat).SetFloat64(f)} }
func numAdd(a, b *Num) *Num          { return &Num{val: new(big.Rat).Add(a.val, b.val)} }
func numMul(a, b *Num) *Num          { return &Num{val: new(big.Rat).Mul(a.val, b.val)} }
func numNeg(a *Num) *Num             { return &Num{val: new(big.Rat).Neg(a.val)} }
func numCmp(a, b *Num) int           { return a.val.Cmp(b.val) }
func numRecip(a *Num) *Num {
	if a.IsZero() {
		panic("relational: division by zero")
	}
	return &Num{val: new(big.Rat).Inv(a.val)}
}

func (n *Num) Simplify() Expr               { return n }
func (n *Num) Substitute(string, Expr) Expr { return n }
func (n *Num) Eval() (*Num, bool)           { return n, true }
func (n *Num) Equal(other Expr) bool        { o, ok := other.(*Num); return ok && n.val.Cmp(o.val) == 0 }
func (n *Num) IsZero() bool                 { return n.val.Sign() == 0 }
func (n *Num) IsOne() bool                  { return n.val.Cmp(ratOne) == 0 }
func (n *Num) IsNegOne() bool               { return n.val.Cmp(ratNegOne) == 0 }
func (n *Num) IsInteger() bool              { return n.val.IsInt() }
func (n *Num) IsPositive() bool             { return n.val.Sign() > 0 }
func (n *Num) IsNegative() bool             { return n.val.Sign() < 0 }
func (n *Num) Rat() *big.Rat                { return new(big.Rat).Set(n.val) }

var (
	ratOne    = big.NewRat(1, 1)
	ratNegOne = big.NewRat(-1, 1)
)

func (n *Num) String() string {
	if n.val.IsInt() {
		return n.val.Num().String()
	}
	return n.val.RatString()
}

func (n *Num) LaTeX() string {
	if n.val.IsInt() {
		return n.val.Num().String()
	}
	sign := ""
	v := new(big.Rat).Set(n.val)
	if v.Sign() < 0 {
		sign = "-"
		v.Neg(v)
	}
	return sign + "\\frac{" + v.Num().String() + "}{" + v.Denom().String() + "}"
}

// ============================================================
// Sym — free variable
// ============================================================

type Sym struct{ name string }

func S(name string) *Sym { return &Sym{name: name} }

func (s *Sym) Simplify() Expr        { return s }
func (s *Sym) String() string        { return s.name }
func (s *Sym) LaTeX() string         { return s.name }
func (s *Sym) Eval() (*Num, bool)    { return nil, false }
func (s *Sym) Equal(other Expr) bool { o, ok := other.(*Sym); return ok && s.name == o.name }
func (s *Sym) Name() string          { return s.name }

func (s *Sym) Substitute(name string, value Expr) Expr {
	if s.name == name {
		return value
	}
	return s
}

// ============================================================
// Add — sum with like-term combination
// ============================================================

type Add struct{ terms []Expr }

// Sum builds the simplified sum of terms. Terms with identical non-numeric
// parts are combined through their rational coefficients, so 5x + x^2 - 5x
// collapses to x^2.
func Sum(terms ...Expr) Expr { return (&Add{terms: terms}).Simplify() }

func (a *Add) Simplify() Expr {
	flat := make([]Expr, 0, len(a.terms))
	for _, t := range a.terms {
		s := t.Simplify()
		if inner, ok := s.(*Add); ok {
			flat = append(flat, inner.terms...)
		} else {
			flat = append(flat, s)
		}
	}

	acc := N(0)
	keys := []string{}
	coeffs := map[string]*Num{}
	parts := map[string]Expr{}
	for _, t := range flat {
		if n, ok := t.(*Num); ok {
			acc = numAdd(acc, n)
			continue
		}
		c, rest := splitCoeff(t)
		key := rest.String()
		if _, seen := coeffs[key]; !seen {
			keys = append(keys, key)
			coeffs[key] = N(0)
			parts[key] = rest
		}
		coeffs[key] = numAdd(coeffs[key], c)
	}
	sort.Strings(keys)

	out := make([]Expr, 0, len(keys)+1)
	for _, key := range keys {
		c := coeffs[key]
		if c.IsZero() {
			continue
		}
		if c.IsOne() {
			out = append(out, parts[key])
			continue
		}
		out = append(out, Prod(c, parts[key]))
	}
	if !acc.IsZero() {
		out = append(out, acc)
	}
	switch len(out) {
	case 0:
		return N(0)
	case 1:
		return out[0]
	}
	return &Add{terms: out}
}

func (a *Add) String() string {
	parts := make([]string, len(a.terms))
	for i, t := range a.terms {
		parts[i] = t.String()
	}
	return strings.Join(parts, " + ")
}

func (a *Add) LaTeX() string {
	parts := make([]string, len(a.terms))
	for i, t := range a.terms {
		parts[i] = t.LaTeX()
	}
	return strings.Join(parts, " + ")
}

func (a *Add) Substitute(name string, value Expr) Expr {
	out := make([]Expr, len(a.terms))
	for i, t := range a.terms {
		out[i] = t.Substitute(name, value)
	}
	return Sum(out...)
}

func (a *Add) Eval() (*Num, bool) {
	acc := N(0)
	for _, t := range a.terms {
		v, ok := t.Eval()
		if !ok {
			return nil, false
		}
		acc = numAdd(acc, v)
	}
	return acc, true
}

func (a *Add) Equal(other Expr) bool {
	o, ok := other.(*Add)
	if !ok || len(a.terms) != len(o.terms) {
		return false
	}
	for i := range a.terms {
		if !a.terms[i].Equal(o.terms[i]) {
			return false
		}
	}
	return true
}

func (a *Add) Terms() []Expr { return a.terms }

// ============================================================
// Mul — product with canonical factor order
// ============================================================

type Mul struct{ factors []Expr }

// Prod builds the simplified product of factors. Repeated identical factors
// collapse into a power, so x*x becomes x^2.
func Prod(factors ...Expr) Expr { return (&Mul{factors: factors}).Simplify() }

func (m *Mul) Simplify() Expr {
	flat := make([]Expr, 0, len(m.factors))
	for _, f := range m.factors {
		s := f.Simplify()
		if inner, ok := s.(*Mul); ok {
			flat = append(flat, inner.factors...)
		} else {
			flat = append(flat, s)
		}
	}

	coeff := N(1)
	others := []Expr{}
	for _, f := range flat {
		if n, ok := f.(*Num); ok {
			coeff = numMul(coeff, n)
			continue
		}
		others = append(others, f)
	}
	if coeff.IsZero() {
		return N(0)
	}

	type keyed struct {
		e   Expr
		key string
	}
	ks := make([]keyed, len(others))
	for i, e := range others {
		ks[i] = keyed{e: e, key: e.String()}
	}
	sort.Slice(ks, func(i, j int) bool { return ks[i].key < ks[j].key })

	grouped := []Expr{}
	for i := 0; i < len(ks); {
		j := i
		for j < len(ks) && ks[j].key == ks[i].key {
			j++
		}
		if n := j - i; n > 1 {
			grouped = append(grouped, Power(ks[i].e, N(int64(n))))
		} else {
			grouped = append(grouped, ks[i].e)
		}
		i = j
	}

	if len(grouped) == 0 {
		return coeff
	}
	if coeff.IsOne() {
		if len(grouped) == 1 {
			return grouped[0]
		}
		return &Mul{factors: grouped}
	}
	return &Mul{factors: append([]Expr{coeff}, grouped...)}
}

func (m *Mul) String() string {
	parts := make([]string, len(m.factors))
	for i, f := range m.factors {
		if _, isAdd := f.(*Add); isAdd {
			parts[i] = "(" + f.String() + ")"
		} else {
			parts[i] = f.String()
		}
	}
	return strings.Join(parts, "*")
}

func (m *Mul) LaTeX() string {
	parts := make([]string, len(m.factors))
	for i, f := range m.factors {
		if _, isAdd := f.(*Add); isAdd {
			parts[i] = "\\left(" + f.LaTeX() + "\\right)"
		} else {
			parts[i] = f.LaTeX()
		}
	}
	return strings.Join(parts, " ")
}

func (m *Mul) Substitute(name string, value Expr) Expr {
	out := make([]Expr, len(m.factors))
	for i, f := range m.factors {
		out[i] = f.Substitute(name, value)
	}
	return Prod(out...)
}

func (m *Mul) Eval() (*Num, bool) {
	acc := N(1)
	for _, f := range m.factors {
		v, ok := f.Eval()
		if !ok {
			return nil, false
		}
		acc = numMul(acc, v)
	}
	return acc, true
}

func (m *Mul) Equal(other Expr) bool {
	o, ok := other.(*Mul)
	if !ok || len(m.factors) != len(o.factors) {
		return false
	}
	for i := range m.factors {
		if !m.factors[i].Equal(o.factors[i]) {
			return false
		}
	}
	return true
}

func (m *Mul) Factors() []Expr { return m.factors }

// ============================================================
// Pow — base^exponent
// ============================================================

type Pow struct{ base, exp Expr }

func Power(base, exp Expr) Expr { return (&Pow{base: base, exp: exp}).Simplify() }

// Neg returns -e, distributing over sums.
func Neg(e Expr) Expr {
	if a, ok := e.Simplify().(*Add); ok {
		terms := make([]Expr, len(a.terms))
		for i, t := range a.terms {
			terms[i] = Neg(t)
		}
		return Sum(terms...)
	}
	return Prod(N(-1), e)
}

// Recip returns 1/e as e^-1.
func Recip(e Expr) Expr { return Power(e, N(-1)) }

// Div returns a/b as a*b^-1.
func Div(a, b Expr) Expr { return Prod(a, Recip(b)) }

func (p *Pow) Simplify() Expr {
	base := p.base.Simplify()
	exp := p.exp.Simplify()

	if bn, ok := base.(*Num); ok && bn.IsZero() {
		// 0^0 and 0^negative stay unevaluated.
		if en, ok2 := exp.(*Num); ok2 && en.IsPositive() {
			return N(0)
		}
		return &Pow{base: base, exp: exp}
	}
	if en, ok := exp.(*Num); ok {
		if en.IsZero() {
			return N(1)
		}
		if en.IsOne() {
			return base
		}
	}
	if bn, ok := base.(*Num); ok {
		if bn.IsOne() {
			return N(1)
		}
		if en, ok2 := exp.(*Num); ok2 && en.IsInteger() {
			if r, ok3 := ratPow(bn.val, en.val.Num().Int64()); ok3 {
				return numFromRat(r)
			}
		}
	}
	if inner, ok := base.(*Pow); ok {
		return Power(inner.base, Prod(inner.exp, exp))
	}
	return &Pow{base: base, exp: exp}
}

// ratPow folds small integer powers exactly; the base is known nonzero.
func ratPow(base *big.Rat, e int64) (*big.Rat, bool) {
	if e > 16 || e < -16 {
		return nil, false
	}
	abs := e
	if abs < 0 {
		abs = -abs
	}
	r := big.NewRat(1, 1)
	for i := int64(0); i < abs; i++ {
		r.Mul(r, base)
	}
	if e < 0 {
		r.Inv(r)
	}
	return r, true
}

func (p *Pow) String() string {
	baseStr := p.base.String()
	switch p.base.(type) {
	case *Add, *Mul:
		baseStr = "(" + baseStr + ")"
	}
	expStr := p.exp.String()
	switch p.exp.(type) {
	case *Add, *Mul:
		expStr = "(" + expStr + ")"
	}
	return baseStr + "^" + expStr
}

func (p *Pow) LaTeX() string {
	baseStr := p.base.LaTeX()
	switch p.base.(type) {
	case *Add, *Mul:
		baseStr = "\\left(" + baseStr + "\\right)"
	}
	return baseStr + "^{" + p.exp.LaTeX() + "}"
}

func (p *Pow) Substitute(name string, value Expr) Expr {
	return Power(p.base.Substitute(name, value), p.exp.Substitute(name, value))
}

func (p *Pow) Eval() (*Num, bool) {
	b, ok1 := p.base.Eval()
	e, ok2 := p.exp.Eval()
	if !ok1 || !ok2 {
		return nil, false
	}
	if e.IsInteger() && !b.IsZero() {
		if r, ok := ratPow(b.val, e.val.Num().Int64()); ok {
			return numFromRat(r), true
		}
	}
	bf, _ := b.val.Float64()
	ef, _ := e.val.Float64()
	pf := math.Pow(bf, ef)
	if math.IsNaN(pf) || math.IsInf(pf, 0) {
		return nil, false
	}
	return numFromFloat(pf), true
}

func (p *Pow) Equal(other Expr) bool {
	o, ok := other.(*Pow)
	return ok && p.base.Equal(o.base) && p.exp.Equal(o.exp)
}

func (p *Pow) Base() Expr     { return p.base }
func (p *Pow) Exponent() Expr { return p.exp }

// ============================================================
// Func — named unary function
// ============================================================

type Func struct {
	name string
	arg  Expr
}

func funcOf(name string, arg Expr) *Func { return &Func{name: name, arg: arg} }

func Sin(arg Expr) Expr { return funcOf("sin", arg).Simplify() }
func Cos(arg Expr) Expr { return funcOf("cos", arg).Simplify() }
func Exp(arg Expr) Expr { return funcOf("exp", arg).Simplify() }
func Ln(arg Expr) Expr  { return funcOf("ln", arg).Simplify() }
func Abs(arg Expr) Expr { return funcOf("abs", arg).Simplify() }

func (f *Func) Simplify() Expr {
	arg := f.arg.Simplify()
	switch f.name {
	case "sin":
		if n, ok := arg.(*Num); ok && n.IsZero() {
			return N(0)
		}
	case "cos":
		if n, ok := arg.(*Num); ok && n.IsZero() {
			return N(1)
		}
	case "exp":
		if n, ok := arg.(*Num); ok && n.IsZero() {
			return N(1)
		}
		if inner, ok := arg.(*Func); ok && inner.name == "ln" {
			return inner.arg
		}
	case "ln":
		if n, ok := arg.(*Num); ok && n.IsOne() {
			return N(0)
		}
		if inner, ok := arg.(*Func); ok && inner.name == "exp" {
			return inner.arg
		}
	case "abs":
		if n, ok := arg.(*Num); ok {
			if n.IsNegative() {
				return numNeg(n)
			}
			return n
		}
	}
	return &Func{name: f.name, arg: arg}
}

func (f *Func) String() string { return f.name + "(" + f.arg.String() + ")" }

func (f *Func) LaTeX() string {
	switch f.name {
	case "sin", "cos", "exp", "ln":
		return "\\" + f.name + "\\left(" + f.arg.LaTeX() + "\\right)"
	case "abs":
		return "\\left|" + f.arg.LaTeX() + "\\right|"
	}
	return "\\operatorname{" + f.name + "}\\left(" + f.arg.LaTeX() + "\\right)"
}

func (f *Func) Substitute(name string, value Expr) Expr {
	return funcOf(f.name, f.arg.Substitute(name, value)).Simplify()
}

func (f *Func) Eval() (*Num, bool) {
	n, ok := f.arg.Eval()
	if !ok {
		return nil, false
	}
	v, _ := n.val.Float64()
	switch f.name {
	case "sin":
		return numFromFloat(math.Sin(v)), true
	case "cos":
		return numFromFloat(math.Cos(v)), true
	case "exp":
		return numFromFloat(math.Exp(v)), true
	case "ln":
		if v <= 0 {
			return nil, false
		}
		return numFromFloat(math.Log(v)), true
	case "abs":
		return numFromFloat(math.Abs(v)), true
	}
	return nil, false
}

func (f *Func) Equal(other Expr) bool {
	o, ok := other.(*Func)
	return ok && f.name == o.name && f.arg.Equal(o.arg)
}

func (f *Func) FuncName() string { return f.name }
func (f *Func) Arg() Expr        { return f.arg }

// ============================================================
// Top-level helpers
// ============================================================

func Simplify(e Expr) Expr { return e.Simplify() }
func LaTeX(e Expr) string  { return e.LaTeX() }

func Substitute(e Expr, name string, value Expr) Expr {
	return e.Substitute(name, value).Simplify()
}

// splitCoeff peels the leading rational coefficient off a product.
func splitCoeff(e Expr) (*Num, Expr) {
	if m, ok := e.(*Mul); ok && len(m.factors) >= 2 {
		if c, ok2 := m.factors[0].(*Num); ok2 {
			rest := m.factors[1:]
			if len(rest) == 1 {
				return c, rest[0]
			}
			return c, &Mul{factors: rest}
		}
	}
	return N(1), e
}

// splitQuotient decomposes e into numerator and denominator by collecting
// negative-power factors. ok is false when there is no denominator.
func splitQuotient(e Expr) (num, den Expr, ok bool) {
	switch v := e.(type) {
	case *Pow:
		if n, isNum := v.exp.(*Num); isNum && n.IsNegative() {
			if n.IsNegOne() {
				return N(1), v.base, true
			}
			return N(1), Power(v.base, numNeg(n)), true
		}
	case *Mul:
		numFs, denFs := []Expr{}, []Expr{}
		for _, f := range v.factors {
			if p, isPow := f.(*Pow); isPow {
				if n, isNum := p.exp.(*Num); isNum && n.IsNegative() {
					if n.IsNegOne() {
						denFs = append(denFs, p.base)
					} else {
						denFs = append(denFs, Power(p.base, numNeg(n)))
					}
					continue
				}
			}
			numFs = append(numFs, f)
		}
		if len(denFs) == 0 {
			return nil, nil, false
		}
		joined := func(fs []Expr) Expr {
			switch len(fs) {
			case 0:
				return N(1)
			case 1:
				return fs[0]
			}
			return &Mul{factors: fs}
		}
		return joined(numFs), joined(denFs), true
	}
	return nil, nil, false
}

// ============================================================
// Free symbols and polynomial views
// ============================================================

func FreeSymbols(e Expr) map[string]struct{} {
	out := map[string]struct{}{}
	collectSymbols(e, out)
	return out
}

func collectSymbols(e Expr, out map[string]struct{}) {
	switch v := e.(type) {
	case *Sym:
		out[v.name] = struct{}{}
	case *Add:
		for _, t := range v.terms {
			collectSymbols(t, out)
		}
	case *Mul:
		for _, f := range v.factors {
			collectSymbols(f, out)
		}
	case *Pow:
		collectSymbols(v.base, out)
		collectSymbols(v.exp, out)
	case *Func:
		collectSymbols(v.arg, out)
	}
}

func containsSym(e Expr, name string) bool {
	_, ok := FreeSymbols(e)[name]
	return ok
}

// Degree returns the polynomial degree of e in the given variable, after
// expansion. Non-polynomial shapes report 0 for variable-free subtrees.
func Degree(e Expr, variable string) int {
	e = Expand(e)
	return degreeOf(e, variable)
}

func degreeOf(e Expr, variable string) int {
	switch v := e.(type) {
	case *Sym:
		if v.name == variable {
			return 1
		}
	case *Pow:
		if s, ok := v.base.(*Sym); ok && s.name == variable {
			if n, ok2 := v.exp.(*Num); ok2 && n.IsInteger() && !n.IsNegative() {
				return int(n.val.Num().Int64())
			}
		}
	case *Add:
		max := 0
		for _, t := range v.terms {
			if d := degreeOf(t, variable); d > max {
				max = d
			}
		}
		return max
	case *Mul:
		total := 0
		for _, f := range v.factors {
			total += degreeOf(f, variable)
		}
		return total
	}
	return 0
}

// PolyCoeffs extracts coefficients by degree in the given variable, expanding
// first. ok is false when e is not polynomial in the variable (the variable
// appears under a function, a symbolic exponent, or a negative power).
func PolyCoeffs(e Expr, variable string) (map[int]Expr, bool) {
	out := map[int]Expr{}
	if !gatherCoeffs(Expand(e), variable, out) {
		return nil, false
	}
	return out, true
}

func gatherCoeffs(e Expr, variable string, out map[int]Expr) bool {
	switch v := e.(type) {
	case *Num:
		addCoeff(out, 0, v)
	case *Sym:
		if v.name == variable {
			addCoeff(out, 1, N(1))
		} else {
			addCoeff(out, 0, v)
		}
	case *Pow:
		if s, ok := v.base.(*Sym); ok && s.name == variable {
			if n, ok2 := v.exp.(*Num); ok2 && n.IsInteger() && !n.IsNegative() {
				addCoeff(out, int(n.val.Num().Int64()), N(1))
				return true
			}
			return false
		}
		if containsSym(v, variable) {
			return false
		}
		addCoeff(out, 0, e)
	case *Add:
		for _, t := range v.terms {
			if !gatherCoeffs(t, variable, out) {
				return false
			}
		}
	case *Mul:
		deg := 0
		coeffFs := []Expr{}
		for _, f := range v.factors {
			if d := degreeOf(f, variable); d > 0 {
				deg += d
				continue
			}
			if containsSym(f, variable) {
				return false
			}
			coeffFs = append(coeffFs, f)
		}
		switch len(coeffFs) {
		case 0:
			addCoeff(out, deg, N(1))
		case 1:
			addCoeff(out, deg, coeffFs[0])
		default:
			addCoeff(out, deg, Prod(coeffFs...))
		}
	case *Func:
		if containsSym(v, variable) {
			return false
		}
		addCoeff(out, 0, e)
	}
	return true
}

func addCoeff(out map[int]Expr, deg int, val Expr) {
	if prev, ok := out[deg]; ok {
		out[deg] = Sum(prev, val)
		return
	}
	out[deg] = val.Simplify()
}

// ratPolyCoeffs is the strict variant: every coefficient must be rational.
func ratPolyCoeffs(e Expr, variable string) (map[int]*big.Rat, bool) {
	coeffs, ok := PolyCoeffs(e, variable)
	if !ok {
		return nil, false
	}
	out := map[int]*big.Rat{}
	for d, c := range coeffs {
		n, isNum := c.(*Num)
		if !isNum {
			return nil, false
		}
		if !n.IsZero() {
			out[d] = n.Rat()
		}
	}
	return out, true
}

func evalRatPoly(coeffs map[int]*big.Rat, x *big.Rat) *big.Rat {
	acc := new(big.Rat)
	for d, c := range coeffs {
		term := big.NewRat(1, 1)
		for i := 0; i < d; i++ {
			term.Mul(term, x)
		}
		term.Mul(term, c)
		acc.Add(acc, term)
	}
	return acc
}

// ============================================================
// Rewrites: expand, collect, factor, together, apart
// ============================================================

// Expand distributes products over sums and unrolls small integer powers.
func Expand(e Expr) Expr { return expandExpr(e.Simplify()).Simplify() }

func expandExpr(e Expr) Expr {
	switch v := e.(type) {
	case *Mul:
		fs := make([]Expr, len(v.factors))
		for i, f := range v.factors {
			fs[i] = expandExpr(f)
		}
		for i, f := range fs {
			a, ok := f.(*Add)
			if !ok {
				continue
			}
			rest := make([]Expr, 0, len(fs)-1)
			for j, other := range fs {
				if j != i {
					rest = append(rest, other)
				}
			}
			terms := make([]Expr, len(a.terms))
			for k, t := range a.terms {
				terms[k] = expandExpr(Prod(append([]Expr{t}, rest...)...))
			}
			return expandExpr(Sum(terms...))
		}
		return Prod(fs...)
	case *Add:
		terms := make([]Expr, len(v.terms))
		for i, t := range v.terms {
			terms[i] = expandExpr(t)
		}
		return Sum(terms...)
	case *Pow:
		if n, ok := v.exp.(*Num); ok && n.IsInteger() {
			e := n.val.Num().Int64()
			if e >= 2 && e <= 10 {
				base := expandExpr(v.base)
				a, isAdd := base.(*Add)
				if !isAdd {
					return Power(base, v.exp)
				}
				// Distribute term by term; an expanded sum has no nested
				// sums, so the cross products never regroup into a power
				// of a sum.
				acc := []Expr{N(1)}
				for i := int64(0); i < e; i++ {
					next := make([]Expr, 0, len(acc)*len(a.terms))
					for _, t := range acc {
						for _, bt := range a.terms {
							next = append(next, Prod(t, bt))
						}
					}
					acc = next
				}
				return Sum(acc...)
			}
		}
		return Power(expandExpr(v.base), expandExpr(v.exp))
	}
	return e
}

// Collect groups e by powers of the variable, highest degree first. If e is
// not polynomial in the variable it is returned simplified but ungrouped.
func Collect(e Expr, variable string) Expr {
	coeffs, ok := PolyCoeffs(e, variable)
	if !ok {
		return e.Simplify()
	}
	degrees := make([]int, 0, len(coeffs))
	for d := range coeffs {
		degrees = append(degrees, d)
	}
	sort.Sort(sort.Reverse(sort.IntSlice(degrees)))

	terms := make([]Expr, 0, len(degrees))
	for _, d := range degrees {
		c := coeffs[d]
		if n, isNum := c.(*Num); isNum && n.IsZero() {
			continue
		}
		switch d {
		case 0:
			terms = append(terms, c)
		case 1:
			terms = append(terms, Prod(c, S(variable)))
		default:
			terms = append(terms, Prod(c, Power(S(variable), N(int64(d)))))
		}
	}
	return Sum(terms...)
}

// FactorResult holds the outcome of a factoring attempt.
type FactorResult struct {
	Factors []Expr
	Success bool
}

// Factor tries to factor a polynomial in the variable over the rationals.
// Quadratics with rational roots split into linear factors; everything else
// is returned unfactored.
func Factor(e Expr, variable string) FactorResult {
	e = Collect(e, variable)
	coeffs, ok := ratPolyCoeffs(e, variable)
	if !ok {
		return FactorResult{Factors: []Expr{e}}
	}
	deg := 0
	for d := range coeffs {
		if d > deg {
			deg = d
		}
	}
	if deg != 2 {
		return FactorResult{Factors: []Expr{e}}
	}
	a := coeffAt(coeffs, 2)
	roots, ok := ratQuadRoots(a, coeffAt(coeffs, 1), coeffAt(coeffs, 0))
	if !ok || len(roots) == 0 {
		return FactorResult{Factors: []Expr{e}}
	}

	x := S(variable)
	factors := []Expr{}
	if a.Cmp(ratOne) != 0 {
		factors = append(factors, numFromRat(a))
	}
	if len(roots) == 1 {
		factors = append(factors, Power(Sum(x, numNeg(numFromRat(roots[0]))), N(2)))
	} else {
		for _, r := range roots {
			factors = append(factors, Sum(x, numNeg(numFromRat(r))))
		}
	}
	return FactorResult{Factors: factors, Success: true}
}

// FactorExpr is the rewrite form of Factor: the factored product, or the
// input simplified when no factoring applies.
func FactorExpr(e Expr, variable string) Expr {
	fr := Factor(e, variable)
	if !fr.Success {
		return e.Simplify()
	}
	return Prod(fr.Factors...)
}

func coeffAt(coeffs map[int]*big.Rat, d int) *big.Rat {
	if c, ok := coeffs[d]; ok {
		return c
	}
	return new(big.Rat)
}

// Together combines a sum of quotients over a common denominator.
func Together(e Expr) Expr {
	a, ok := e.Simplify().(*Add)
	if !ok {
		return e.Simplify()
	}
	type frac struct{ num, den Expr }
	fracs := make([]frac, 0, len(a.terms))
	anyDen := false
	for _, t := range a.terms {
		if num, den, isQ := splitQuotient(t); isQ {
			fracs = append(fracs, frac{num, den})
			anyDen = true
			continue
		}
		fracs = append(fracs, frac{t, N(1)})
	}
	if !anyDen {
		return a
	}

	dens := []Expr{}
	seen := map[string]bool{}
	for _, f := range fracs {
		key := f.den.String()
		if key == "1" || seen[key] {
			continue
		}
		seen[key] = true
		dens = append(dens, f.den)
	}

	numTerms := make([]Expr, len(fracs))
	for i, f := range fracs {
		fs := []Expr{f.num}
		own := f.den.String()
		for _, d := range dens {
			if d.String() == own {
				continue
			}
			fs = append(fs, d)
		}
		numTerms[i] = Prod(fs...)
	}
	return Prod(Sum(numTerms...), Recip(Prod(dens...)))
}

// ApartResult holds a partial fraction decomposition.
type ApartResult struct {
	Terms []Expr
	Error string
}

// Apart decomposes num/den into partial fractions by the cover-up rule.
// It requires a denominator with distinct rational roots and a numerator of
// lower degree; otherwise the quotient is returned as a single term.
func Apart(num, den Expr, variable string) ApartResult {
	fallback := func(msg string) ApartResult {
		return ApartResult{Terms: []Expr{Div(num, den)}, Error: msg}
	}
	ncoeffs, ok := ratPolyCoeffs(num, variable)
	if !ok {
		return fallback("numerator is not a rational polynomial")
	}
	dcoeffs, ok := ratPolyCoeffs(den, variable)
	if !ok {
		return fallback("denominator is not a rational polynomial")
	}
	ndeg, ddeg := 0, 0
	for d := range ncoeffs {
		if d > ndeg {
			ndeg = d
		}
	}
	for d := range dcoeffs {
		if d > ddeg {
			ddeg = d
		}
	}
	if ndeg >= ddeg {
		return fallback("numerator degree must be below denominator degree")
	}

	var roots []*big.Rat
	switch ddeg {
	case 1:
		r := new(big.Rat).Quo(new(big.Rat).Neg(coeffAt(dcoeffs, 0)), coeffAt(dcoeffs, 1))
		roots = []*big.Rat{r}
	case 2:
		rs, ok := ratQuadRoots(coeffAt(dcoeffs, 2), coeffAt(dcoeffs, 1), coeffAt(dcoeffs, 0))
		if !ok || len(rs) != 2 {
			return fallback("denominator does not split into distinct rational roots")
		}
		roots = rs
	default:
		return fallback("denominator degree not supported")
	}

	lead := coeffAt(dcoeffs, ddeg)
	terms := make([]Expr, len(roots))
	for i, ri := range roots {
		residue := evalRatPoly(ncoeffs, ri)
		scale := new(big.Rat).Set(lead)
		for j, rj := range roots {
			if j == i {
				continue
			}
			scale.Mul(scale, new(big.Rat).Sub(ri, rj))
		}
		residue.Quo(residue, scale)
		linear := Sum(S(variable), numNeg(numFromRat(ri)))
		terms[i] = Prod(numFromRat(residue), Recip(linear))
	}
	return ApartResult{Terms: terms}
}

// ApartExpr is the rewrite form of Apart: it splits a quotient expression
// into partial fractions when possible, and otherwise returns the input
// simplified.
func ApartExpr(e Expr, variable string) Expr {
	num, den, ok := splitQuotient(e.Simplify())
	if !ok {
		return e.Simplify()
	}
	res := Apart(num, den, variable)
	if res.Error != "" {
		return e.Simplify()
	}
	return Sum(res.Terms...)
}
