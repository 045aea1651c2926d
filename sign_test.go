package relational

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAssumptionsSignOf(t *testing.T) {
	t.Parallel()

	x, y := S("x"), S("y")
	assume := Assumptions{"p": SignPositive, "n": SignNegative, "z": SignZero}
	p, n, z := S("p"), S("n"), S("z")

	tests := []struct {
		name string
		expr Expr
		want Sign
	}{
		{"positive number", N(3), SignPositive},
		{"negative number", F(-1, 2), SignNegative},
		{"zero number", N(0), SignZero},
		{"declared positive symbol", p, SignPositive},
		{"declared negative symbol", n, SignNegative},
		{"declared zero symbol", z, SignZero},
		{"undeclared symbol", x, SignUnknown},
		{"product of positives", Prod(N(2), p), SignPositive},
		{"product with one negative", Prod(N(2), n), SignNegative},
		{"product of two negatives", Prod(n, N(-3)), SignPositive},
		{"product with zero factor", Prod(x, z), SignZero},
		{"product with unknown factor", Prod(p, x), SignUnknown},
		{"sum of positives", Sum(p, N(1)), SignPositive},
		{"sum of negatives", Sum(n, N(-1)), SignNegative},
		{"mixed-sign sum", Sum(p, n), SignUnknown},
		{"even power of negative", Power(n, N(2)), SignPositive},
		{"odd power of negative", Power(n, N(3)), SignNegative},
		{"power of positive", Power(p, N(-1)), SignPositive},
		{"power of unknown", Power(x, N(2)), SignUnknown},
		{"exp is positive", Exp(x), SignPositive},
		{"abs of nonzero", Abs(n), SignPositive},
		{"abs of zero", Abs(z), SignZero},
		{"abs of unknown", Abs(x), SignUnknown},
		{"sin is unknown", Sin(p), SignUnknown},
		{"two unknowns", Sum(x, y), SignUnknown},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, assume.SignOf(tt.expr))
		})
	}
}

func TestNilAssumptions(t *testing.T) {
	t.Parallel()

	var assume Assumptions
	assert.Equal(t, SignUnknown, assume.SignOf(S("x")))
	assert.Equal(t, SignPositive, assume.SignOf(N(7)))
}

func TestSignString(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "positive", SignPositive.String())
	assert.Equal(t, "negative", SignNegative.String())
	assert.Equal(t, "zero", SignZero.String())
	assert.Equal(t, "unknown", SignUnknown.String())
}
