package relational

// ============================================================
// Sign oracle
// ============================================================

// Sign is the answer a SignOracle gives about an expression.
type Sign int

const (
	SignUnknown Sign = iota
	SignPositive
	SignNegative
	SignZero
)

func (s Sign) String() string {
	switch s {
	case SignPositive:
		return "positive"
	case SignNegative:
		return "negative"
	case SignZero:
		return "zero"
	}
	return "unknown"
}

// SignOracle decides the sign of an expression under some set of
// assumptions. SignUnknown is always a legal answer.
type SignOracle interface {
	SignOf(e Expr) Sign
}

// Assumptions maps symbol names to declared signs and infers signs
// structurally from there. A nil map assumes nothing about any symbol.
type Assumptions map[string]Sign

func (a Assumptions) SignOf(e Expr) Sign { return a.signOf(e.Simplify()) }

func (a Assumptions) signOf(e Expr) Sign {
	switch v := e.(type) {
	case *Num:
		switch {
		case v.IsZero():
			return SignZero
		case v.IsPositive():
			return SignPositive
		}
		return SignNegative
	case *Sym:
		if s, ok := a[v.name]; ok {
			return s
		}
		return SignUnknown
	case *Add:
		return a.sumSign(v.terms)
	case *Mul:
		return a.productSign(v.factors)
	case *Pow:
		return a.powSign(v)
	case *Func:
		switch v.name {
		case "exp":
			return SignPositive
		case "abs":
			switch a.signOf(v.arg) {
			case SignZero:
				return SignZero
			case SignPositive, SignNegative:
				return SignPositive
			}
		}
	}
	return SignUnknown
}

// sumSign combines term signs: a sum of same-signed terms keeps that sign,
// zeros are neutral.
func (a Assumptions) sumSign(terms []Expr) Sign {
	out := SignZero
	for _, t := range terms {
		s := a.signOf(t)
		switch s {
		case SignUnknown:
			return SignUnknown
		case SignZero:
			continue
		}
		if out == SignZero {
			out = s
			continue
		}
		if out != s {
			return SignUnknown
		}
	}
	return out
}

// productSign combines factor signs; a zero factor zeroes the product even
// when another factor is unknown.
func (a Assumptions) productSign(factors []Expr) Sign {
	out := SignPositive
	unknown := false
	for _, f := range factors {
		switch a.signOf(f) {
		case SignZero:
			return SignZero
		case SignNegative:
			if out == SignPositive {
				out = SignNegative
			} else {
				out = SignPositive
			}
		case SignUnknown:
			unknown = true
		}
	}
	if unknown {
		return SignUnknown
	}
	return out
}

func (a Assumptions) powSign(p *Pow) Sign {
	base := a.signOf(p.base)
	exp, expNum := p.exp.(*Num)
	switch base {
	case SignPositive:
		return SignPositive
	case SignZero:
		if expNum && exp.IsPositive() {
			return SignZero
		}
	case SignNegative:
		if expNum && exp.IsInteger() {
			if exp.val.Num().Bit(0) == 0 {
				return SignPositive
			}
			return SignNegative
		}
	}
	return SignUnknown
}
