package relational

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func solveAll(t *testing.T, expr Expr, variable string, domain Domain) (pos, neg, zero Domain) {
	t.Helper()
	var err error
	pos, err = PolySolver{}.SolveWhere(expr, PredPositive, variable, domain)
	require.NoError(t, err)
	neg, err = PolySolver{}.SolveWhere(expr, PredNegative, variable, domain)
	require.NoError(t, err)
	zero, err = PolySolver{}.SolveWhere(expr, PredZero, variable, domain)
	require.NoError(t, err)
	return pos, neg, zero
}

func TestPolySolverLinear(t *testing.T) {
	t.Parallel()

	x := S("x")
	domain := NewDomain(ClosedInterval(N(-1), N(1)))
	pos, neg, zero := solveAll(t, Sum(x, N(1)), "x", domain)

	assert.Equal(t, "(-1, 1]", pos.String())
	assert.True(t, neg.IsEmpty())
	assert.Equal(t, "{-1}", zero.String())
}

func TestPolySolverQuadratic(t *testing.T) {
	t.Parallel()

	x := S("x")
	domain := NewDomain(ClosedInterval(N(-1), N(1)))
	pos, neg, zero := solveAll(t, Power(x, N(2)), "x", domain)

	assert.Equal(t, "[-1, 0) U (0, 1]", pos.String())
	assert.True(t, neg.IsEmpty())
	assert.Equal(t, "{0}", zero.String())
}

func TestPolySolverPartitionsDomain(t *testing.T) {
	t.Parallel()

	x := S("x")
	domain := NewDomain(ClosedInterval(N(-3), N(3)))
	expr := Sum(Power(x, N(2)), N(-1))
	pos, neg, zero := solveAll(t, expr, "x", domain)

	assert.Equal(t, "[-3, -1) U (1, 3]", pos.String())
	assert.Equal(t, "(-1, 1)", neg.String())
	assert.Equal(t, "{-1} U {1}", zero.String())

	assert.True(t, pos.Intersect(neg).IsEmpty())
	assert.True(t, pos.Intersect(zero).IsEmpty())
	assert.True(t, neg.Intersect(zero).IsEmpty())
	assert.True(t, pos.Union(neg).Union(zero).Equal(domain))
}

func TestPolySolverConstants(t *testing.T) {
	t.Parallel()

	domain := NewDomain(ClosedInterval(N(0), N(1)))

	pos, neg, zero := solveAll(t, N(5), "x", domain)
	assert.True(t, pos.Equal(domain))
	assert.True(t, neg.IsEmpty())
	assert.True(t, zero.IsEmpty())

	// The zero polynomial is zero everywhere.
	x := S("x")
	pos, neg, zero = solveAll(t, Sum(x, Neg(x)), "x", domain)
	assert.True(t, pos.IsEmpty())
	assert.True(t, neg.IsEmpty())
	assert.True(t, zero.Equal(domain))
}

func TestPolySolverRationalRoots(t *testing.T) {
	t.Parallel()

	x := S("x")
	domain := NewDomain(ClosedInterval(N(0), N(1)))
	// 2x - 1 crosses zero at 1/2.
	pos, neg, zero := solveAll(t, Sum(Prod(N(2), x), N(-1)), "x", domain)
	assert.Equal(t, "(1/2, 1]", pos.String())
	assert.Equal(t, "[0, 1/2)", neg.String())
	assert.Equal(t, "{1/2}", zero.String())
}

func TestPolySolverUnsupported(t *testing.T) {
	t.Parallel()

	x := S("x")
	domain := NewDomain(ClosedInterval(N(-2), N(2)))

	// Irrational roots.
	_, err := PolySolver{}.SolveWhere(Sum(Power(x, N(2)), N(-2)), PredPositive, "x", domain)
	assert.ErrorIs(t, err, ErrUnsupportedPredicate)

	// Not a polynomial.
	_, err = PolySolver{}.SolveWhere(Sin(x), PredPositive, "x", domain)
	assert.ErrorIs(t, err, ErrUnsupportedPredicate)

	// Degree above two.
	_, err = PolySolver{}.SolveWhere(Power(x, N(3)), PredZero, "x", domain)
	assert.ErrorIs(t, err, ErrUnsupportedPredicate)

	// A second free symbol.
	_, err = PolySolver{}.SolveWhere(Sum(x, S("y")), PredPositive, "x", domain)
	assert.ErrorIs(t, err, ErrUnsupportedPredicate)

	// No variable named.
	_, err = PolySolver{}.SolveWhere(x, PredPositive, "", domain)
	assert.ErrorIs(t, err, ErrMissingVariable)
}

func TestPolySolverRootOutsideDomain(t *testing.T) {
	t.Parallel()

	x := S("x")
	domain := NewDomain(ClosedInterval(N(1), N(2)))
	pos, neg, zero := solveAll(t, x, "x", domain)
	assert.True(t, pos.Equal(domain))
	assert.True(t, neg.IsEmpty())
	assert.True(t, zero.IsEmpty())
}

func TestPolySolverNegativeDiscriminant(t *testing.T) {
	t.Parallel()

	x := S("x")
	domain := NewDomain(ClosedInterval(N(-2), N(2)))
	// x^2 + 1 has no real roots: positive everywhere.
	pos, neg, zero := solveAll(t, Sum(Power(x, N(2)), N(1)), "x", domain)
	assert.True(t, pos.Equal(domain))
	assert.True(t, neg.IsEmpty())
	assert.True(t, zero.IsEmpty())
}
