package relational

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func evalAt(t *testing.T, e Expr, variable string, v int64) *Num {
	t.Helper()
	n, ok := Substitute(e, variable, N(v)).Eval()
	require.True(t, ok, "expression %s did not evaluate at %s=%d", e, variable, v)
	return n
}

func TestLikeTermCombination(t *testing.T) {
	t.Parallel()

	x := S("x")
	got := Sum(x, x, x, N(2))
	assert.Equal(t, "3*x + 2", got.String())

	// 5x + x^2 - 5x collapses to x^2.
	got = Sum(Prod(N(5), x), Power(x, N(2)), Prod(N(-5), x))
	assert.True(t, got.Equal(Power(x, N(2))), "got %s", got)
}

func TestProductGrouping(t *testing.T) {
	t.Parallel()

	x := S("x")
	assert.True(t, Prod(x, x).Equal(Power(x, N(2))))
	assert.True(t, Prod(N(2), x, N(3)).Equal(Prod(N(6), x)))
	assert.True(t, Prod(N(0), x).Equal(N(0)))
}

func TestNumericFolding(t *testing.T) {
	t.Parallel()

	assert.True(t, Power(N(2), N(3)).Equal(N(8)))
	assert.True(t, Power(N(2), N(-2)).Equal(F(1, 4)))
	assert.True(t, Sum(F(1, 3), F(5, 6)).Equal(F(7, 6)))
	assert.Equal(t, "7/2", F(7, 2).String())
	assert.Equal(t, "\\frac{1}{2}", F(1, 2).LaTeX())
}

func TestNegDistributesOverSums(t *testing.T) {
	t.Parallel()

	x, y := S("x"), S("y")
	got := Sum(Sum(x, y), Neg(Sum(x, Neg(y))))
	assert.True(t, got.Equal(Prod(N(2), y)), "got %s", got)
}

func TestSubstitute(t *testing.T) {
	t.Parallel()

	x := S("x")
	linear := Sum(Prod(N(2), x), N(3))
	got := Substitute(linear, "x", N(5))
	assert.True(t, got.Equal(N(13)), "got %s", got)
}

func TestExpand(t *testing.T) {
	t.Parallel()

	x := S("x")
	got := Expand(Prod(Sum(x, N(1)), Sum(x, N(1))))
	want := Sum(Power(x, N(2)), Prod(N(2), x), N(1))
	assert.True(t, got.Equal(want), "got %s, want %s", got, want)

	got = Expand(Power(Sum(x, N(-2)), N(2)))
	want = Sum(Power(x, N(2)), Prod(N(-4), x), N(4))
	assert.True(t, got.Equal(want), "got %s, want %s", got, want)
}

func TestCollect(t *testing.T) {
	t.Parallel()

	x, y := S("x"), S("y")
	got := Collect(Sum(Prod(x, y), x, N(1)), "x")
	want := Sum(Prod(Sum(y, N(1)), x), N(1))
	assert.True(t, got.Equal(want), "got %s, want %s", got, want)
}

func TestDegreeAndCoeffs(t *testing.T) {
	t.Parallel()

	x := S("x")
	poly := Sum(
		Prod(N(5), Power(x, N(3))),
		Prod(N(2), Power(x, N(2))),
		Prod(N(-1), x),
		N(7),
	)
	assert.Equal(t, 3, Degree(poly, "x"))

	coeffs, ok := PolyCoeffs(poly, "x")
	require.True(t, ok)
	assert.True(t, coeffs[3].Equal(N(5)))
	assert.True(t, coeffs[2].Equal(N(2)))
	assert.True(t, coeffs[1].Equal(N(-1)))
	assert.True(t, coeffs[0].Equal(N(7)))

	_, ok = PolyCoeffs(Sin(x), "x")
	assert.False(t, ok)
	_, ok = PolyCoeffs(Recip(x), "x")
	assert.False(t, ok)
}

func TestFreeSymbols(t *testing.T) {
	t.Parallel()

	syms := FreeSymbols(Sum(Prod(S("x"), S("y")), S("z")))
	assert.Len(t, syms, 3)
	for _, name := range []string{"x", "y", "z"} {
		assert.Contains(t, syms, name)
	}
}

func TestFactorQuadratics(t *testing.T) {
	t.Parallel()

	x := S("x")

	t.Run("distinct rational roots", func(t *testing.T) {
		t.Parallel()
		fr := Factor(Sum(Power(x, N(2)), Prod(N(-5), x), N(6)), "x")
		require.True(t, fr.Success)
		require.Len(t, fr.Factors, 2)
		assert.True(t, fr.Factors[0].Equal(Sum(x, N(-2))), "got %s", fr.Factors[0])
		assert.True(t, fr.Factors[1].Equal(Sum(x, N(-3))), "got %s", fr.Factors[1])
	})

	t.Run("double root", func(t *testing.T) {
		t.Parallel()
		fr := Factor(Sum(Power(x, N(2)), Prod(N(-2), x), N(1)), "x")
		require.True(t, fr.Success)
		require.Len(t, fr.Factors, 1)
		assert.True(t, fr.Factors[0].Equal(Power(Sum(x, N(-1)), N(2))), "got %s", fr.Factors[0])
	})

	t.Run("irrational roots stay unfactored", func(t *testing.T) {
		t.Parallel()
		fr := Factor(Sum(Power(x, N(2)), N(-2)), "x")
		assert.False(t, fr.Success)
	})

	t.Run("non-monic leading coefficient", func(t *testing.T) {
		t.Parallel()
		// 2x^2 - 2 = 2(x+1)(x-1)
		fr := Factor(Sum(Prod(N(2), Power(x, N(2))), N(-2)), "x")
		require.True(t, fr.Success)
		require.Len(t, fr.Factors, 3)
		assert.True(t, fr.Factors[0].Equal(N(2)))
	})
}

func TestTogether(t *testing.T) {
	t.Parallel()

	x := S("x")
	// 1/x + 1/(x+1) = (2x+1) / (x(x+1)); check by exact evaluation.
	got := Together(Sum(Recip(x), Recip(Sum(x, N(1)))))
	assert.True(t, evalAt(t, got, "x", 2).Equal(F(5, 6)), "got %s", got)

	num, den, ok := splitQuotient(got)
	require.True(t, ok, "result is not a quotient: %s", got)
	assert.True(t, evalAt(t, num, "x", 2).Equal(N(5)))
	assert.True(t, evalAt(t, den, "x", 2).Equal(N(6)))
}

func TestApart(t *testing.T) {
	t.Parallel()

	x := S("x")

	t.Run("distinct linear factors", func(t *testing.T) {
		t.Parallel()
		// 1/(x^2 - 1) = -1/2 * 1/(x+1) + 1/2 * 1/(x-1)
		res := Apart(N(1), Sum(Power(x, N(2)), N(-1)), "x")
		require.Empty(t, res.Error)
		require.Len(t, res.Terms, 2)
		assert.True(t, evalAt(t, Sum(res.Terms...), "x", 3).Equal(F(1, 8)))
	})

	t.Run("linear denominator", func(t *testing.T) {
		t.Parallel()
		res := Apart(N(3), Sum(x, N(-2)), "x")
		require.Empty(t, res.Error)
		require.Len(t, res.Terms, 1)
		assert.True(t, evalAt(t, res.Terms[0], "x", 4).Equal(F(3, 2)))
	})

	t.Run("numerator degree too high falls back", func(t *testing.T) {
		t.Parallel()
		res := Apart(Power(x, N(2)), Sum(x, N(-1)), "x")
		assert.NotEmpty(t, res.Error)
		require.Len(t, res.Terms, 1)
	})

	t.Run("irrational roots fall back", func(t *testing.T) {
		t.Parallel()
		res := Apart(N(1), Sum(Power(x, N(2)), N(-2)), "x")
		assert.NotEmpty(t, res.Error)
	})
}

func TestFuncSpecialCases(t *testing.T) {
	t.Parallel()

	x := S("x")
	assert.True(t, Sin(N(0)).Equal(N(0)))
	assert.True(t, Cos(N(0)).Equal(N(1)))
	assert.True(t, Exp(N(0)).Equal(N(1)))
	assert.True(t, Ln(N(1)).Equal(N(0)))
	assert.True(t, Exp(Ln(x)).Equal(x))
	assert.True(t, Abs(N(-3)).Equal(N(3)))
}

func TestStringRendering(t *testing.T) {
	t.Parallel()

	x := S("x")
	assert.Equal(t, "x^-2", Power(x, N(-2)).String())
	assert.Equal(t, "(x + 1)^-1", Recip(Sum(x, N(1))).String())
	assert.Equal(t, "2*x + 3", Sum(Prod(N(2), x), N(3)).String())
	assert.Equal(t, "-5*x + 5", Sum(Prod(N(-5), x), N(5)).String())
	assert.Equal(t, "sin(x)", Sin(x).String())
	assert.Equal(t, "x^{2}", Power(x, N(2)).LaTeX())
}
