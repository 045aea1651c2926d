package relational

import (
	"encoding/json"
	"fmt"
	"math/big"
	"strings"
)

// ============================================================
// JSON serialization
// ============================================================

// ExprToJSON renders an expression as the wire object form.
func ExprToJSON(e Expr) map[string]interface{} {
	switch v := e.(type) {
	case *Num:
		return map[string]interface{}{"type": "num", "value": v.String()}
	case *Sym:
		return map[string]interface{}{"type": "sym", "name": v.name}
	case *Add:
		ts := make([]map[string]interface{}, len(v.terms))
		for i, t := range v.terms {
			ts[i] = ExprToJSON(t)
		}
		return map[string]interface{}{"type": "add", "terms": ts}
	case *Mul:
		fs := make([]map[string]interface{}, len(v.factors))
		for i, f := range v.factors {
			fs[i] = ExprToJSON(f)
		}
		return map[string]interface{}{"type": "mul", "factors": fs}
	case *Pow:
		return map[string]interface{}{"type": "pow", "base": ExprToJSON(v.base), "exp": ExprToJSON(v.exp)}
	case *Func:
		return map[string]interface{}{"type": "func", "name": v.name, "arg": ExprToJSON(v.arg)}
	}
	panic(fmt.Sprintf("relational: cannot serialize expression %T", e))
}

// ToJSON renders an expression as a JSON string.
func ToJSON(e Expr) (string, error) {
	b, err := json.Marshal(ExprToJSON(e))
	return string(b), err
}

// ExprFromJSON rebuilds an expression from its wire object form.
func ExprFromJSON(data map[string]interface{}) (Expr, error) {
	if data == nil {
		return nil, fmt.Errorf("expression must be an object")
	}
	typAny, ok := data["type"]
	if !ok {
		return nil, fmt.Errorf("missing 'type' field")
	}
	typ, ok := typAny.(string)
	if !ok || typ == "" {
		return nil, fmt.Errorf("field 'type' must be a non-empty string")
	}

	subObj := func(field string) (map[string]interface{}, error) {
		v, ok := data[field]
		if !ok {
			return nil, fmt.Errorf("%s: missing %q", typ, field)
		}
		m, ok := v.(map[string]interface{})
		if !ok {
			return nil, fmt.Errorf("%s: %q must be an object", typ, field)
		}
		return m, nil
	}

	subObjArray := func(field string) ([]map[string]interface{}, error) {
		v, ok := data[field]
		if !ok {
			return nil, fmt.Errorf("%s: missing %q", typ, field)
		}
		raw, ok := v.([]interface{})
		if !ok {
			return nil, fmt.Errorf("%s: %q must be an array", typ, field)
		}
		out := make([]map[string]interface{}, len(raw))
		for i, it := range raw {
			m, ok := it.(map[string]interface{})
			if !ok {
				return nil, fmt.Errorf("%s: %q[%d] must be an object", typ, field, i)
			}
			out[i] = m
		}
		return out, nil
	}

	subString := func(field string) (string, error) {
		v, ok := data[field]
		if !ok {
			return "", fmt.Errorf("%s: missing %q", typ, field)
		}
		s, ok := v.(string)
		if !ok || s == "" {
			return "", fmt.Errorf("%s: %q must be a non-empty string", typ, field)
		}
		return s, nil
	}

	switch typ {
	case "num":
		val, err := subString("value")
		if err != nil {
			return nil, err
		}
		r := new(big.Rat)
		if _, ok := r.SetString(val); !ok {
			return nil, fmt.Errorf("invalid num value: %s", val)
		}
		return &Num{val: r}, nil

	case "sym":
		name, err := subString("name")
		if err != nil {
			return nil, err
		}
		return S(name), nil

	case "add":
		objs, err := subObjArray("terms")
		if err != nil {
			return nil, err
		}
		terms := make([]Expr, len(objs))
		for i, o := range objs {
			e, err := ExprFromJSON(o)
			if err != nil {
				return nil, fmt.Errorf("add: terms[%d]: %w", i, err)
			}
			terms[i] = e
		}
		return Sum(terms...), nil

	case "mul":
		objs, err := subObjArray("factors")
		if err != nil {
			return nil, err
		}
		factors := make([]Expr, len(objs))
		for i, o := range objs {
			e, err := ExprFromJSON(o)
			if err != nil {
				return nil, fmt.Errorf("mul: factors[%d]: %w", i, err)
			}
			factors[i] = e
		}
		return Prod(factors...), nil

	case "pow":
		baseM, err := subObj("base")
		if err != nil {
			return nil, err
		}
		expM, err := subObj("exp")
		if err != nil {
			return nil, err
		}
		base, err := ExprFromJSON(baseM)
		if err != nil {
			return nil, fmt.Errorf("pow: base: %w", err)
		}
		exp, err := ExprFromJSON(expM)
		if err != nil {
			return nil, fmt.Errorf("pow: exp: %w", err)
		}
		return Power(base, exp), nil

	case "func":
		name, err := subString("name")
		if err != nil {
			return nil, err
		}
		argM, err := subObj("arg")
		if err != nil {
			return nil, err
		}
		arg, err := ExprFromJSON(argM)
		if err != nil {
			return nil, fmt.Errorf("func: arg: %w", err)
		}
		return funcOf(name, arg).Simplify(), nil
	}
	return nil, fmt.Errorf("unknown expression type: %s", typ)
}

// RelationToJSON renders a relation as the wire object form.
func RelationToJSON(r Relation) map[string]interface{} {
	return map[string]interface{}{
		"kind": kindName(r.Kind),
		"lhs":  ExprToJSON(r.LHS),
		"rhs":  ExprToJSON(r.RHS),
	}
}

func kindName(k ComparisonKind) string {
	switch k {
	case KindEq:
		return "eq"
	case KindLe:
		return "le"
	case KindLt:
		return "lt"
	case KindGe:
		return "ge"
	}
	return "gt"
}

func kindFromName(name string) (ComparisonKind, error) {
	switch name {
	case "eq":
		return KindEq, nil
	case "le":
		return KindLe, nil
	case "lt":
		return KindLt, nil
	case "ge":
		return KindGe, nil
	case "gt":
		return KindGt, nil
	}
	return 0, fmt.Errorf("unknown relation kind: %s", name)
}

// RelationFromJSON rebuilds a relation from its wire object form.
func RelationFromJSON(data map[string]interface{}) (Relation, error) {
	if data == nil {
		return Relation{}, fmt.Errorf("relation must be an object")
	}
	kindStr, ok := data["kind"].(string)
	if !ok || kindStr == "" {
		return Relation{}, fmt.Errorf("relation: 'kind' must be a non-empty string")
	}
	kind, err := kindFromName(kindStr)
	if err != nil {
		return Relation{}, err
	}
	lhsM, ok := data["lhs"].(map[string]interface{})
	if !ok {
		return Relation{}, fmt.Errorf("relation: 'lhs' must be an object")
	}
	rhsM, ok := data["rhs"].(map[string]interface{})
	if !ok {
		return Relation{}, fmt.Errorf("relation: 'rhs' must be an object")
	}
	lhs, err := ExprFromJSON(lhsM)
	if err != nil {
		return Relation{}, fmt.Errorf("relation: lhs: %w", err)
	}
	rhs, err := ExprFromJSON(rhsM)
	if err != nil {
		return Relation{}, fmt.Errorf("relation: rhs: %w", err)
	}
	return Relation{Kind: kind, LHS: lhs, RHS: rhs}, nil
}

// DomainFromJSON rebuilds a domain from a list of interval objects. Endpoint
// values are rational strings; "oo", "-oo" or null mean unbounded.
func DomainFromJSON(raw []interface{}) (Domain, error) {
	intervals := make([]Interval, len(raw))
	for i, it := range raw {
		m, ok := it.(map[string]interface{})
		if !ok {
			return Domain{}, fmt.Errorf("domain[%d] must be an interval object", i)
		}
		lo, err := endpointFromJSON(m["lo"])
		if err != nil {
			return Domain{}, fmt.Errorf("domain[%d]: lo: %w", i, err)
		}
		hi, err := endpointFromJSON(m["hi"])
		if err != nil {
			return Domain{}, fmt.Errorf("domain[%d]: hi: %w", i, err)
		}
		loOpen, _ := m["lo_open"].(bool)
		hiOpen, _ := m["hi_open"].(bool)
		if lo != nil && hi != nil && numCmp(lo, hi) > 0 {
			return Domain{}, fmt.Errorf("domain[%d]: lower bound exceeds upper bound", i)
		}
		intervals[i] = NewInterval(lo, hi, loOpen, hiOpen)
	}
	return NewDomain(intervals...), nil
}

func endpointFromJSON(v interface{}) (*Num, error) {
	switch val := v.(type) {
	case nil:
		return nil, nil
	case string:
		if val == "oo" || val == "-oo" {
			return nil, nil
		}
		r := new(big.Rat)
		if _, ok := r.SetString(val); !ok {
			return nil, fmt.Errorf("invalid endpoint: %s", val)
		}
		return numFromRat(r), nil
	case float64:
		return numFromFloat(val), nil
	}
	return nil, fmt.Errorf("endpoint must be a string, number or null")
}

// ParseSign maps a wire sign name onto a Sign.
func ParseSign(name string) (Sign, error) {
	switch name {
	case "positive":
		return SignPositive, nil
	case "negative":
		return SignNegative, nil
	case "zero":
		return SignZero, nil
	case "unknown":
		return SignUnknown, nil
	}
	return SignUnknown, fmt.Errorf("unknown sign: %s", name)
}

// ParseOp maps a wire operation name onto an Op.
func ParseOp(name string) (Op, error) {
	switch name {
	case "add":
		return OpShift, nil
	case "mul":
		return OpScale, nil
	case "pow":
		return OpPower, nil
	case "simplify":
		return OpSimplify, nil
	case "expand":
		return OpExpand, nil
	case "factor":
		return OpFactor, nil
	case "collect":
		return OpCollect, nil
	case "together":
		return OpTogether, nil
	case "apart":
		return OpApart, nil
	}
	return 0, fmt.Errorf("unknown operation: %s", name)
}

// ============================================================
// Tool interface
// ============================================================

type ToolRequest struct {
	Tool   string                 `json:"tool"`
	Params map[string]interface{} `json:"params"`
}

type ToolResponse struct {
	Result interface{} `json:"result,omitempty"`
	LaTeX  string      `json:"latex,omitempty"`
	String string      `json:"string,omitempty"`
	Error  string      `json:"error,omitempty"`
}

// HandleToolCall dispatches one JSON tool request against the engine. The
// optional "assume" param (symbol name to sign name) configures the sign
// oracle for the call.
func HandleToolCall(req ToolRequest) ToolResponse {
	getRelation := func(key string) (Relation, error) {
		v, ok := req.Params[key]
		if !ok {
			return Relation{}, fmt.Errorf("missing param: %s", key)
		}
		m, ok := v.(map[string]interface{})
		if !ok {
			return Relation{}, fmt.Errorf("invalid type for param %s", key)
		}
		return RelationFromJSON(m)
	}
	getExpr := func(key string) (Expr, error) {
		v, ok := req.Params[key]
		if !ok {
			return nil, fmt.Errorf("missing param: %s", key)
		}
		m, ok := v.(map[string]interface{})
		if !ok {
			return nil, fmt.Errorf("invalid type for param %s", key)
		}
		return ExprFromJSON(m)
	}
	getString := func(key string) (string, error) {
		v, ok := req.Params[key]
		if !ok {
			return "", fmt.Errorf("missing param: %s", key)
		}
		s, ok := v.(string)
		if !ok {
			return "", fmt.Errorf("param %s must be a string", key)
		}
		return s, nil
	}
	buildEngine := func() (*Engine, error) {
		v, ok := req.Params["assume"]
		if !ok {
			return NewEngine(nil, nil), nil
		}
		m, ok := v.(map[string]interface{})
		if !ok {
			return nil, fmt.Errorf("param assume must be an object")
		}
		assume := Assumptions{}
		for name, sv := range m {
			s, ok := sv.(string)
			if !ok {
				return nil, fmt.Errorf("assume.%s must be a sign name", name)
			}
			sign, err := ParseSign(s)
			if err != nil {
				return nil, err
			}
			assume[name] = sign
		}
		return NewEngine(assume, nil), nil
	}
	respondRelation := func(r Relation) ToolResponse {
		return ToolResponse{Result: RelationToJSON(r), LaTeX: r.LaTeX(), String: r.String()}
	}
	respondResult := func(res Result) ToolResponse {
		if !res.Split {
			return respondRelation(res.Single)
		}
		cases := make([]map[string]interface{}, len(res.Cases))
		strs := make([]string, len(res.Cases))
		for i, c := range res.Cases {
			cases[i] = map[string]interface{}{
				"where":    c.Where.String(),
				"relation": RelationToJSON(c.Relation),
			}
			strs[i] = c.Where.String() + ": " + c.Relation.String()
		}
		return ToolResponse{
			Result: map[string]interface{}{"cases": cases},
			String: strings.Join(strs, "; "),
		}
	}
	pairTool := func(combine func(Relation, Relation) (Relation, error)) ToolResponse {
		r1, err := getRelation("rel1")
		if err != nil {
			return ToolResponse{Error: err.Error()}
		}
		r2, err := getRelation("rel2")
		if err != nil {
			return ToolResponse{Error: err.Error()}
		}
		out, err := combine(r1, r2)
		if err != nil {
			return ToolResponse{Error: err.Error()}
		}
		return respondRelation(out.Simplify())
	}

	switch req.Tool {
	case "both_sides":
		rel, err := getRelation("relation")
		if err != nil {
			return ToolResponse{Error: err.Error()}
		}
		opName, err := getString("op")
		if err != nil {
			return ToolResponse{Error: err.Error()}
		}
		op, err := ParseOp(opName)
		if err != nil {
			return ToolResponse{Error: err.Error()}
		}
		var arg Expr
		if _, ok := req.Params["arg"]; ok {
			arg, err = getExpr("arg")
			if err != nil {
				return ToolResponse{Error: err.Error()}
			}
		}
		if !op.isRewrite() && arg == nil {
			return ToolResponse{Error: fmt.Sprintf("missing param: arg (required by %s)", op)}
		}
		variable := ""
		if _, ok := req.Params["var"]; ok {
			variable, err = getString("var")
			if err != nil {
				return ToolResponse{Error: err.Error()}
			}
		}
		var domain *Domain
		if v, ok := req.Params["domain"]; ok {
			raw, ok := v.([]interface{})
			if !ok {
				return ToolResponse{Error: "param domain must be an array of intervals"}
			}
			d, err := DomainFromJSON(raw)
			if err != nil {
				return ToolResponse{Error: err.Error()}
			}
			domain = &d
		}
		eng, err := buildEngine()
		if err != nil {
			return ToolResponse{Error: err.Error()}
		}
		res, err := eng.BothSides(rel, op, arg, domain, variable)
		if err != nil {
			return ToolResponse{Error: err.Error()}
		}
		return respondResult(res)

	case "invert":
		rel, err := getRelation("relation")
		if err != nil {
			return ToolResponse{Error: err.Error()}
		}
		if rel.Kind == KindEq {
			return ToolResponse{Error: "equalities have no inverse direction"}
		}
		return respondRelation(InvertRelation(rel))

	case "add_relations":
		return pairTool(AddRelations)

	case "sub_relations":
		return pairTool(SubRelations)

	case "mul_relations":
		return pairTool(MulRelations)

	case "div_relations":
		return pairTool(DivRelations)

	case "simplify":
		rel, err := getRelation("relation")
		if err != nil {
			return ToolResponse{Error: err.Error()}
		}
		return respondRelation(rel.Simplify())

	case "to_latex":
		rel, err := getRelation("relation")
		if err != nil {
			return ToolResponse{Error: err.Error()}
		}
		return ToolResponse{LaTeX: rel.LaTeX(), String: rel.String()}

	case "tool_spec":
		return ToolResponse{Result: ToolSpec(), String: "tool specification"}
	}
	return ToolResponse{Error: fmt.Sprintf("unknown tool: %s", req.Tool)}
}

// ============================================================
// Tool specification
// ============================================================

// ToolSpec returns the JSON schema of the tool interface.
func ToolSpec() string {
	tools := []map[string]interface{}{
		ts("both_sides",
			"Apply an operation to both sides of a relation. op is one of add, mul, pow, simplify, expand, factor, collect, together, apart. arg is the shift/scale term or exponent (required for add, mul, pow). domain (interval list) with var selects case-split mode for mul and pow. assume maps symbol names to signs.",
			[]string{"relation", "op"},
			map[string]string{
				"relation": "object",
				"op":       "string",
				"arg":      "object",
				"var":      "string",
				"domain":   "array",
				"assume":   "object",
			}),
		ts("invert",
			"Negate both sides of an inequality and reverse its direction.",
			[]string{"relation"},
			map[string]string{"relation": "object"}),
		ts("add_relations",
			"Add two equalities sidewise.",
			[]string{"rel1", "rel2"},
			map[string]string{"rel1": "object", "rel2": "object"}),
		ts("sub_relations",
			"Subtract the second equality from the first sidewise.",
			[]string{"rel1", "rel2"},
			map[string]string{"rel1": "object", "rel2": "object"}),
		ts("mul_relations",
			"Multiply two equalities sidewise.",
			[]string{"rel1", "rel2"},
			map[string]string{"rel1": "object", "rel2": "object"}),
		ts("div_relations",
			"Divide the first equality by the second sidewise.",
			[]string{"rel1", "rel2"},
			map[string]string{"rel1": "object", "rel2": "object"}),
		ts("simplify",
			"Simplify both sides of a relation.",
			[]string{"relation"},
			map[string]string{"relation": "object"}),
		ts("to_latex",
			"Render a relation as LaTeX.",
			[]string{"relation"},
			map[string]string{"relation": "object"}),
	}
	b, _ := json.MarshalIndent(map[string]interface{}{"tools": tools}, "", "  ")
	return string(b)
}

func ts(name, description string, required []string, props map[string]string) map[string]interface{} {
	properties := map[string]interface{}{}
	for k, t := range props {
		properties[k] = map[string]string{"type": t}
	}
	return map[string]interface{}{
		"name":        name,
		"description": description,
		"inputSchema": map[string]interface{}{
			"type":       "object",
			"properties": properties,
			"required":   required,
		},
	}
}
