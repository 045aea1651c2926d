package relational

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIntervalString(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "[0, 1]", ClosedInterval(N(0), N(1)).String())
	assert.Equal(t, "(0, 1]", LopenInterval(N(0), N(1)).String())
	assert.Equal(t, "[0, 1)", RopenInterval(N(0), N(1)).String())
	assert.Equal(t, "{2}", Point(N(2)).String())
	assert.Equal(t, "(-oo, oo)", Reals().String())
	assert.Equal(t, "(-oo, 3]", NewInterval(nil, N(3), true, false).String())
	assert.Equal(t, "[-1/2, 1/2]", ClosedInterval(F(-1, 2), F(1, 2)).String())
	assert.Equal(t, "EmptySet", EmptyDomain().String())
}

func TestIntervalBoundsPanic(t *testing.T) {
	t.Parallel()

	assert.Panics(t, func() { ClosedInterval(N(2), N(1)) })
}

func TestDomainNormalization(t *testing.T) {
	t.Parallel()

	// Overlapping intervals merge.
	d := NewDomain(ClosedInterval(N(0), N(2)), ClosedInterval(N(1), N(3)))
	assert.Equal(t, "[0, 3]", d.String())

	// Touching closed endpoints merge.
	d = NewDomain(RopenInterval(N(-2), N(0)), Point(N(0)), LopenInterval(N(0), N(2)))
	assert.Equal(t, "[-2, 2]", d.String())

	// Touching open endpoints stay apart.
	d = NewDomain(OpenInterval(N(-1), N(0)), LopenInterval(N(0), N(1)))
	assert.Equal(t, "(-1, 0) U (0, 1]", d.String())

	// Empty intervals are dropped.
	d = NewDomain(OpenInterval(N(1), N(1)), ClosedInterval(N(2), N(3)))
	assert.Equal(t, "[2, 3]", d.String())

	// Order of construction does not matter.
	a := NewDomain(ClosedInterval(N(2), N(3)), ClosedInterval(N(0), N(1)))
	b := NewDomain(ClosedInterval(N(0), N(1)), ClosedInterval(N(2), N(3)))
	assert.True(t, a.Equal(b))
}

func TestDomainIntersect(t *testing.T) {
	t.Parallel()

	a := NewDomain(ClosedInterval(N(0), N(2)))
	b := NewDomain(ClosedInterval(N(1), N(3)))
	assert.Equal(t, "[1, 2]", a.Intersect(b).String())

	// Disjoint parts give the empty set.
	c := NewDomain(ClosedInterval(N(5), N(6)))
	assert.True(t, a.Intersect(c).IsEmpty())

	// Open endpoints win over closed ones at a shared bound.
	d := NewDomain(OpenInterval(N(0), N(2)))
	assert.Equal(t, "(0, 2)", a.Intersect(d).String())

	// Intersection distributes over unions.
	u := NewDomain(ClosedInterval(N(-1), N(1)), ClosedInterval(N(4), N(6)))
	got := u.Intersect(NewDomain(ClosedInterval(N(0), N(5))))
	assert.Equal(t, "[0, 1] U [4, 5]", got.String())
}

func TestDomainUnion(t *testing.T) {
	t.Parallel()

	a := NewDomain(ClosedInterval(N(0), N(1)))
	b := NewDomain(ClosedInterval(N(1), N(2)))
	assert.Equal(t, "[0, 2]", a.Union(b).String())

	c := NewDomain(ClosedInterval(N(5), N(6)))
	assert.Equal(t, "[0, 1] U [5, 6]", a.Union(c).String())
}

func TestDomainContains(t *testing.T) {
	t.Parallel()

	d := NewDomain(LopenInterval(N(0), N(1)), Point(N(5)))
	assert.False(t, d.Contains(N(0)))
	assert.True(t, d.Contains(F(1, 2)))
	assert.True(t, d.Contains(N(1)))
	assert.True(t, d.Contains(N(5)))
	assert.False(t, d.Contains(N(3)))
}

func TestUnboundedIntervals(t *testing.T) {
	t.Parallel()

	r := Reals()
	assert.True(t, r.Contains(N(-1000000)))

	half := NewDomain(NewInterval(N(0), nil, false, true))
	assert.Equal(t, "[0, oo)", half.String())
	assert.True(t, half.Contains(N(1000000)))
	assert.False(t, half.Contains(N(-1)))
	assert.Equal(t, "[0, 3]", half.Intersect(NewDomain(ClosedInterval(N(-3), N(3)))).String())
}
