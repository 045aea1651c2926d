package relational

import (
	"math/big"
	"sort"
	"strings"
)

// ============================================================
// Intervals and domains
// ============================================================

// Interval is a connected subset of the reals with exact rational endpoints.
// A nil endpoint means unbounded on that side; unbounded ends are always open.
type Interval struct {
	lo, hi         *big.Rat
	loOpen, hiOpen bool
}

// NewInterval builds an interval from optional endpoints. Nil endpoints are
// unbounded. Panics when both endpoints are finite and lo > hi.
func NewInterval(lo, hi *Num, loOpen, hiOpen bool) Interval {
	iv := Interval{loOpen: loOpen, hiOpen: hiOpen}
	if lo != nil {
		iv.lo = lo.Rat()
	} else {
		iv.loOpen = true
	}
	if hi != nil {
		iv.hi = hi.Rat()
	} else {
		iv.hiOpen = true
	}
	if iv.lo != nil && iv.hi != nil && iv.lo.Cmp(iv.hi) > 0 {
		panic("relational: interval lower bound exceeds upper bound")
	}
	return iv
}

func ClosedInterval(lo, hi *Num) Interval { return NewInterval(lo, hi, false, false) }
func OpenInterval(lo, hi *Num) Interval   { return NewInterval(lo, hi, true, true) }

// LopenInterval is (lo, hi].
func LopenInterval(lo, hi *Num) Interval { return NewInterval(lo, hi, true, false) }

// RopenInterval is [lo, hi).
func RopenInterval(lo, hi *Num) Interval { return NewInterval(lo, hi, false, true) }

// Point is the degenerate interval {v}.
func Point(v *Num) Interval { return NewInterval(v, v, false, false) }

func (iv Interval) isEmpty() bool {
	if iv.lo == nil || iv.hi == nil {
		return false
	}
	c := iv.lo.Cmp(iv.hi)
	if c > 0 {
		return true
	}
	return c == 0 && (iv.loOpen || iv.hiOpen)
}

func (iv Interval) isPoint() bool {
	return iv.lo != nil && iv.hi != nil && iv.lo.Cmp(iv.hi) == 0 && !iv.loOpen && !iv.hiOpen
}

func (iv Interval) contains(v *big.Rat) bool {
	if iv.lo != nil {
		c := v.Cmp(iv.lo)
		if c < 0 || (c == 0 && iv.loOpen) {
			return false
		}
	}
	if iv.hi != nil {
		c := v.Cmp(iv.hi)
		if c > 0 || (c == 0 && iv.hiOpen) {
			return false
		}
	}
	return true
}

func (iv Interval) intersect(other Interval) Interval {
	out := Interval{}
	out.lo, out.loOpen = maxBound(iv.lo, iv.loOpen, other.lo, other.loOpen)
	out.hi, out.hiOpen = minBound(iv.hi, iv.hiOpen, other.hi, other.hiOpen)
	return out
}

func maxBound(a *big.Rat, aOpen bool, b *big.Rat, bOpen bool) (*big.Rat, bool) {
	if a == nil {
		return b, bOpen
	}
	if b == nil {
		return a, aOpen
	}
	switch a.Cmp(b) {
	case 1:
		return a, aOpen
	case -1:
		return b, bOpen
	}
	return a, aOpen || bOpen
}

func minBound(a *big.Rat, aOpen bool, b *big.Rat, bOpen bool) (*big.Rat, bool) {
	if a == nil {
		return b, bOpen
	}
	if b == nil {
		return a, aOpen
	}
	switch a.Cmp(b) {
	case -1:
		return a, aOpen
	case 1:
		return b, bOpen
	}
	return a, aOpen || bOpen
}

func ratStr(r *big.Rat) string {
	if r.IsInt() {
		return r.Num().String()
	}
	return r.RatString()
}

// String renders the interval in set notation, with oo for unbounded ends.
func (iv Interval) String() string {
	if iv.isEmpty() {
		return "EmptySet"
	}
	if iv.isPoint() {
		return "{" + ratStr(iv.lo) + "}"
	}
	var b strings.Builder
	if iv.loOpen {
		b.WriteByte('(')
	} else {
		b.WriteByte('[')
	}
	if iv.lo == nil {
		b.WriteString("-oo")
	} else {
		b.WriteString(ratStr(iv.lo))
	}
	b.WriteString(", ")
	if iv.hi == nil {
		b.WriteString("oo")
	} else {
		b.WriteString(ratStr(iv.hi))
	}
	if iv.hiOpen {
		b.WriteByte(')')
	} else {
		b.WriteByte(']')
	}
	return b.String()
}

// ============================================================
// Domain — normalized disjoint union of intervals
// ============================================================

// Domain is an immutable finite union of intervals, kept sorted, disjoint
// and maximally merged.
type Domain struct {
	parts []Interval
}

// NewDomain normalizes the given intervals into a domain: empties dropped,
// overlapping or touching intervals merged.
func NewDomain(intervals ...Interval) Domain {
	parts := make([]Interval, 0, len(intervals))
	for _, iv := range intervals {
		if !iv.isEmpty() {
			parts = append(parts, iv)
		}
	}
	sort.Slice(parts, func(i, j int) bool { return boundLess(parts[i], parts[j]) })

	merged := make([]Interval, 0, len(parts))
	for _, iv := range parts {
		if len(merged) == 0 {
			merged = append(merged, iv)
			continue
		}
		last := &merged[len(merged)-1]
		if joinable(*last, iv) {
			last.hi, last.hiOpen = maxUpper(*last, iv)
			continue
		}
		merged = append(merged, iv)
	}
	return Domain{parts: merged}
}

func boundLess(a, b Interval) bool {
	if a.lo == nil {
		return b.lo != nil
	}
	if b.lo == nil {
		return false
	}
	c := a.lo.Cmp(b.lo)
	if c != 0 {
		return c < 0
	}
	return !a.loOpen && b.loOpen
}

// joinable reports whether b can be merged onto a, given a starts no later
// than b. They merge when they overlap or share a closed touching endpoint.
func joinable(a, b Interval) bool {
	if a.hi == nil || b.lo == nil {
		return true
	}
	c := b.lo.Cmp(a.hi)
	if c < 0 {
		return true
	}
	if c > 0 {
		return false
	}
	return !a.hiOpen || !b.loOpen
}

func maxUpper(a, b Interval) (*big.Rat, bool) {
	if a.hi == nil || b.hi == nil {
		return nil, true
	}
	switch a.hi.Cmp(b.hi) {
	case 1:
		return a.hi, a.hiOpen
	case -1:
		return b.hi, b.hiOpen
	}
	return a.hi, a.hiOpen && b.hiOpen
}

// Reals is the whole real line.
func Reals() Domain { return Domain{parts: []Interval{{loOpen: true, hiOpen: true}}} }

// EmptyDomain is the empty set.
func EmptyDomain() Domain { return Domain{} }

func (d Domain) IsEmpty() bool { return len(d.parts) == 0 }

// Intervals returns the normalized parts in order.
func (d Domain) Intervals() []Interval {
	out := make([]Interval, len(d.parts))
	copy(out, d.parts)
	return out
}

func (d Domain) Contains(v *Num) bool {
	r := v.Rat()
	for _, iv := range d.parts {
		if iv.contains(r) {
			return true
		}
	}
	return false
}

func (d Domain) Intersect(other Domain) Domain {
	out := []Interval{}
	for _, a := range d.parts {
		for _, b := range other.parts {
			if iv := a.intersect(b); !iv.isEmpty() {
				out = append(out, iv)
			}
		}
	}
	return NewDomain(out...)
}

func (d Domain) Union(other Domain) Domain {
	return NewDomain(append(d.Intervals(), other.parts...)...)
}

func (d Domain) Equal(other Domain) bool {
	if len(d.parts) != len(other.parts) {
		return false
	}
	for i := range d.parts {
		if !intervalEqual(d.parts[i], other.parts[i]) {
			return false
		}
	}
	return true
}

func intervalEqual(a, b Interval) bool {
	return ratPtrEqual(a.lo, b.lo) && ratPtrEqual(a.hi, b.hi) &&
		a.loOpen == b.loOpen && a.hiOpen == b.hiOpen
}

func ratPtrEqual(a, b *big.Rat) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Cmp(b) == 0
}

func (d Domain) String() string {
	if len(d.parts) == 0 {
		return "EmptySet"
	}
	parts := make([]string, len(d.parts))
	for i, iv := range d.parts {
		parts[i] = iv.String()
	}
	return strings.Join(parts, " U ")
}
