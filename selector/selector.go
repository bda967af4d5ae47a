// Package selector implements the SUBSCRIBE selector language: the
// JMS-style boolean expression ActiveMQ (and, by extension, STOMP
// brokers built on it) evaluate against message headers to filter
// deliveries. No library in the retrieved example corpus provides an
// expression evaluator of this shape (no LRU or rule-engine/expression
// dependency appears in any example repo's go.mod), so this is a
// deliberate stdlib-only exception — see DESIGN.md.
package selector

import (
	"fmt"
	"strconv"
	"strings"
)

// Compiled is a parsed selector expression ready for repeated
// evaluation against message headers.
type Compiled struct {
	raw  string
	expr node
}

// Raw returns the original selector text, for RECEIPT/ERROR diagnostics
// and for rebuilding a durable-subscription Binding.
func (c *Compiled) Raw() string { return c.raw }

// Matches evaluates the compiled expression against a delivery's
// headers. A missing header compares as SQL NULL: any direct
// comparison against it is false, but IS NULL is true.
func (c *Compiled) Matches(headers map[string]string) bool {
	v, ok := c.expr.eval(headers)
	return ok && truthy(v)
}

// Compile parses raw into a Compiled selector, or returns a non-nil
// error describing the first syntax problem encountered. Per spec
// §9's open question, compilation is mandatory whenever a selector
// header is present; callers surface a compile error via die().
func Compile(raw string) (*Compiled, error) {
	p := &parser{tokens: tokenize(raw)}
	expr, err := p.parseOr()
	if err != nil {
		return nil, fmt.Errorf("selector: %w", err)
	}
	if p.pos != len(p.tokens) {
		return nil, fmt.Errorf("selector: unexpected token %q", p.tokens[p.pos].text)
	}
	return &Compiled{raw: raw, expr: expr}, nil
}

// -- AST ------------------------------------------------------------------

type value struct {
	str    string
	num    float64
	isNum  bool
	isNull bool
}

type node interface {
	eval(headers map[string]string) (value, bool)
}

func truthy(v value) bool {
	if v.isNull {
		return false
	}
	if v.isNum {
		return v.num != 0
	}
	return strings.EqualFold(v.str, "true")
}

type literal struct{ v value }

func (l literal) eval(map[string]string) (value, bool) { return l.v, true }

type identifier struct{ name string }

func (id identifier) eval(headers map[string]string) (value, bool) {
	raw, ok := headers[id.name]
	if !ok {
		return value{isNull: true}, true
	}
	if n, err := strconv.ParseFloat(raw, 64); err == nil {
		return value{num: n, isNum: true}, true
	}
	return value{str: raw}, true
}

type isNullCheck struct {
	operand node
	negate  bool
}

func (n isNullCheck) eval(headers map[string]string) (value, bool) {
	v, _ := n.operand.eval(headers)
	result := v.isNull
	if n.negate {
		result = !result
	}
	return boolValue(result), true
}

type notExpr struct{ operand node }

func (n notExpr) eval(headers map[string]string) (value, bool) {
	v, ok := n.operand.eval(headers)
	if !ok || v.isNull {
		return value{isNull: true}, true
	}
	return boolValue(!truthy(v)), true
}

type logical struct {
	left, right node
	and         bool
}

func (n logical) eval(headers map[string]string) (value, bool) {
	l, _ := n.left.eval(headers)
	r, _ := n.right.eval(headers)
	if n.and {
		return boolValue(truthy(l) && truthy(r)), true
	}
	return boolValue(truthy(l) || truthy(r)), true
}

type comparison struct {
	left, right node
	op          string
}

func (n comparison) eval(headers map[string]string) (value, bool) {
	l, _ := n.left.eval(headers)
	r, _ := n.right.eval(headers)
	if l.isNull || r.isNull {
		return value{isNull: true}, true
	}

	switch n.op {
	case "=":
		return boolValue(equalValues(l, r)), true
	case "<>":
		return boolValue(!equalValues(l, r)), true
	}

	if !l.isNum || !r.isNum {
		return boolValue(false), true
	}
	switch n.op {
	case "<":
		return boolValue(l.num < r.num), true
	case "<=":
		return boolValue(l.num <= r.num), true
	case ">":
		return boolValue(l.num > r.num), true
	case ">=":
		return boolValue(l.num >= r.num), true
	}
	return value{isNull: true}, true
}

func equalValues(l, r value) bool {
	if l.isNum && r.isNum {
		return l.num == r.num
	}
	return l.str == r.str
}

type likeExpr struct {
	left    node
	pattern string
	negate  bool
}

func (n likeExpr) eval(headers map[string]string) (value, bool) {
	l, _ := n.left.eval(headers)
	if l.isNull {
		return value{isNull: true}, true
	}
	matched := likeMatch(l.str, n.pattern)
	if n.negate {
		matched = !matched
	}
	return boolValue(matched), true
}

// likeMatch implements SQL LIKE's "%" (any run) and "_" (single char)
// wildcards over plain strings.
func likeMatch(s, pattern string) bool {
	return likeMatchRunes([]rune(s), []rune(pattern))
}

func likeMatchRunes(s, p []rune) bool {
	if len(p) == 0 {
		return len(s) == 0
	}
	switch p[0] {
	case '%':
		if likeMatchRunes(s, p[1:]) {
			return true
		}
		for i := range s {
			if likeMatchRunes(s[i+1:], p[1:]) {
				return true
			}
		}
		return false
	case '_':
		if len(s) == 0 {
			return false
		}
		return likeMatchRunes(s[1:], p[1:])
	default:
		if len(s) == 0 || s[0] != p[0] {
			return false
		}
		return likeMatchRunes(s[1:], p[1:])
	}
}

func boolValue(b bool) value {
	if b {
		return value{num: 1, isNum: true}
	}
	return value{num: 0, isNum: true}
}
