package relational

import (
	"errors"
	"math/big"
)

// ============================================================
// Domain partition solver
// ============================================================

// Predicate selects which region of a domain SolveWhere answers for.
type Predicate int

const (
	PredPositive Predicate = iota
	PredNegative
	PredZero
)

func (p Predicate) String() string {
	switch p {
	case PredPositive:
		return "> 0"
	case PredNegative:
		return "< 0"
	}
	return "= 0"
}

// ErrUnsupportedPredicate is returned when a solver cannot answer exactly
// for the given expression. Solvers never guess.
var ErrUnsupportedPredicate = errors.New("relational: cannot solve predicate exactly")

// PartitionSolver answers where on a domain an expression is positive,
// negative or zero. For a given expression and domain, the three answers
// must partition the domain exactly.
type PartitionSolver interface {
	SolveWhere(expr Expr, pred Predicate, variable string, domain Domain) (Domain, error)
}

// PolySolver solves sign predicates exactly for univariate rational
// polynomials of degree at most two whose roots are rational. Anything
// outside that class is ErrUnsupportedPredicate.
type PolySolver struct{}

func (PolySolver) SolveWhere(expr Expr, pred Predicate, variable string, domain Domain) (Domain, error) {
	if variable == "" {
		return Domain{}, ErrMissingVariable
	}
	coeffs, ok := ratPolyCoeffs(expr, variable)
	if !ok {
		return Domain{}, ErrUnsupportedPredicate
	}
	for name := range FreeSymbols(expr) {
		if name != variable {
			return Domain{}, ErrUnsupportedPredicate
		}
	}

	deg := 0
	for d := range coeffs {
		if d > deg {
			deg = d
		}
	}

	// Constants, including the zero polynomial, cover the whole domain or
	// none of it.
	if deg == 0 {
		c := coeffAt(coeffs, 0)
		match := (pred == PredZero && c.Sign() == 0) ||
			(pred == PredPositive && c.Sign() > 0) ||
			(pred == PredNegative && c.Sign() < 0)
		if match {
			return domain, nil
		}
		return EmptyDomain(), nil
	}
	if deg > 2 {
		return Domain{}, ErrUnsupportedPredicate
	}

	var roots []*big.Rat
	if deg == 1 {
		r := new(big.Rat).Quo(new(big.Rat).Neg(coeffAt(coeffs, 0)), coeffAt(coeffs, 1))
		roots = []*big.Rat{r}
	} else {
		rs, ok := ratQuadRoots(coeffAt(coeffs, 2), coeffAt(coeffs, 1), coeffAt(coeffs, 0))
		if !ok {
			return Domain{}, ErrUnsupportedPredicate
		}
		roots = rs
	}

	if pred == PredZero {
		pts := []Interval{}
		for _, r := range roots {
			rn := numFromRat(r)
			if domain.Contains(rn) {
				pts = append(pts, Point(rn))
			}
		}
		return NewDomain(pts...), nil
	}

	out := []Interval{}
	for _, iv := range domain.Intervals() {
		out = append(out, signRegions(coeffs, roots, iv, pred)...)
	}
	return NewDomain(out...), nil
}

// signRegions splits one interval at the roots and keeps the pieces where
// the polynomial has the requested strict sign, decided by evaluating at an
// exact interior sample point.
func signRegions(coeffs map[int]*big.Rat, roots []*big.Rat, iv Interval, pred Predicate) []Interval {
	cuts := []*big.Rat{}
	for _, r := range roots {
		if iv.contains(r) {
			cuts = append(cuts, r)
		}
	}
	for i := 0; i < len(cuts); i++ {
		for j := i + 1; j < len(cuts); j++ {
			if cuts[j].Cmp(cuts[i]) < 0 {
				cuts[i], cuts[j] = cuts[j], cuts[i]
			}
		}
	}

	pieces := []Interval{}
	lo, loOpen := iv.lo, iv.loOpen
	for _, c := range cuts {
		pieces = append(pieces, Interval{lo: lo, hi: c, loOpen: loOpen, hiOpen: true})
		lo, loOpen = c, true
	}
	pieces = append(pieces, Interval{lo: lo, hi: iv.hi, loOpen: loOpen, hiOpen: iv.hiOpen})

	out := []Interval{}
	for _, p := range pieces {
		if p.isEmpty() {
			continue
		}
		s := evalRatPoly(coeffs, samplePoint(p)).Sign()
		if (pred == PredPositive && s > 0) || (pred == PredNegative && s < 0) {
			out = append(out, p)
		}
	}
	return out
}

// samplePoint picks an exact rational strictly inside a nonempty interval
// that is not a single point.
func samplePoint(iv Interval) *big.Rat {
	switch {
	case iv.lo != nil && iv.hi != nil:
		if iv.lo.Cmp(iv.hi) == 0 {
			return new(big.Rat).Set(iv.lo)
		}
		mid := new(big.Rat).Add(iv.lo, iv.hi)
		return mid.Quo(mid, big.NewRat(2, 1))
	case iv.lo != nil:
		return new(big.Rat).Add(iv.lo, big.NewRat(1, 1))
	case iv.hi != nil:
		return new(big.Rat).Sub(iv.hi, big.NewRat(1, 1))
	}
	return new(big.Rat)
}

// ratQuadRoots finds the rational roots of a*x^2 + b*x + c. ok is false when
// the equation is not a genuine quadratic or the discriminant is not a
// perfect square of a rational. A double root is returned once.
func ratQuadRoots(a, b, c *big.Rat) ([]*big.Rat, bool) {
	if a.Sign() == 0 {
		return nil, false
	}
	// disc = b^2 - 4ac
	disc := new(big.Rat).Mul(b, b)
	disc.Sub(disc, new(big.Rat).Mul(big.NewRat(4, 1), new(big.Rat).Mul(a, c)))
	if disc.Sign() < 0 {
		return []*big.Rat{}, true
	}
	sq, ok := ratSqrt(disc)
	if !ok {
		return nil, false
	}
	twoA := new(big.Rat).Mul(big.NewRat(2, 1), a)
	negB := new(big.Rat).Neg(b)
	if disc.Sign() == 0 {
		r := new(big.Rat).Quo(negB, twoA)
		return []*big.Rat{r}, true
	}
	r1 := new(big.Rat).Quo(new(big.Rat).Sub(negB, sq), twoA)
	r2 := new(big.Rat).Quo(new(big.Rat).Add(negB, sq), twoA)
	if r1.Cmp(r2) > 0 {
		r1, r2 = r2, r1
	}
	return []*big.Rat{r1, r2}, true
}

// ratSqrt returns the exact square root of a nonnegative rational, when the
// numerator and denominator are both perfect squares.
func ratSqrt(r *big.Rat) (*big.Rat, bool) {
	num, ok1 := intSqrt(r.Num())
	den, ok2 := intSqrt(r.Denom())
	if !ok1 || !ok2 {
		return nil, false
	}
	return new(big.Rat).SetFrac(num, den), true
}

func intSqrt(n *big.Int) (*big.Int, bool) {
	if n.Sign() < 0 {
		return nil, false
	}
	s := new(big.Int).Sqrt(n)
	if new(big.Int).Mul(s, s).Cmp(n) != 0 {
		return nil, false
	}
	return s, true
}
