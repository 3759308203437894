// Package marker evaluates environment markers, the boolean expressions
// that gate a dependency on the target interpreter and platform
// ("sys_platform == 'win32'", "python_version >= '3.8' and extra == 'dev'").
//
// # Grammar
//
// The evaluator splits at the first textual occurrence of " or ", then at
// the first " and ", and otherwise treats the text as a single condition:
//
//	expr      := expr " or " expr | expr " and " expr | condition
//	condition := operand OP operand
//	OP        := == | != | <= | >= | < | > | in | not in
//
// Flat expressions get the usual "and binds tighter" reading, but
// parentheses do not group: "(a or b) and c" splits at its " or " into
// "(a" and "b) and c". Parentheses wrapping a single condition are
// stripped, nothing more.
//
// Quoted operands are literals; bare operands name an [Environment]
// variable. Unknown variables resolve to "". Ordering operators compare
// dotted versions numerically and are false when exactly one side is empty.
package marker

import (
	"strings"

	"github.com/matzehuels/pipcore/pkg/core/deps"
	perrors "github.com/matzehuels/pipcore/pkg/errors"
)

// Marker is a parsed marker expression.
type Marker struct {
	raw  string
	root node
}

type node interface {
	eval(env Environment) bool
}

type or struct{ left, right node }

func (n or) eval(env Environment) bool { return n.left.eval(env) || n.right.eval(env) }

type and struct{ left, right node }

func (n and) eval(env Environment) bool { return n.left.eval(env) && n.right.eval(env) }

type op int

const (
	opEq op = iota
	opNotEq
	opLtEq
	opGtEq
	opLt
	opGt
	opNotIn
	opIn
)

// conditionOps is the detection order. Two-character operators come before
// their prefixes and " not in " before " in ".
var conditionOps = []struct {
	text string
	op   op
}{
	{"!=", opNotEq},
	{"==", opEq},
	{"<=", opLtEq},
	{">=", opGtEq},
	{"<", opLt},
	{">", opGt},
	{" not in ", opNotIn},
	{" in ", opIn},
}

type operand struct {
	value    string
	variable bool
}

func (o operand) resolve(env Environment) string {
	if o.variable {
		return env.Lookup(o.value)
	}
	return o.value
}

type condition struct {
	lhs, rhs operand
	op       op
}

func (c condition) eval(env Environment) bool {
	l, r := c.lhs.resolve(env), c.rhs.resolve(env)
	switch c.op {
	case opEq:
		return l == r
	case opNotEq:
		return l != r
	case opIn:
		return strings.Contains(r, l)
	case opNotIn:
		return !strings.Contains(r, l)
	}

	if (l == "") != (r == "") {
		return false
	}
	cmp := deps.CompareVersions(l, r)
	switch c.op {
	case opLt:
		return cmp < 0
	case opLtEq:
		return cmp <= 0
	case opGt:
		return cmp > 0
	case opGtEq:
		return cmp >= 0
	}
	return false
}

// Parse parses a marker expression. It fails with INVALID_MARKER on empty
// input or a condition without a recognised operator.
func Parse(s string) (*Marker, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, perrors.New(perrors.ErrCodeInvalidMarker, "empty marker")
	}
	root, err := parseExpr(s)
	if err != nil {
		return nil, err
	}
	return &Marker{raw: s, root: root}, nil
}

func parseExpr(s string) (node, error) {
	if idx := strings.Index(s, " or "); idx >= 0 {
		return parseBinary(s, idx, len(" or "), func(l, r node) node { return or{l, r} })
	}
	if idx := strings.Index(s, " and "); idx >= 0 {
		return parseBinary(s, idx, len(" and "), func(l, r node) node { return and{l, r} })
	}
	return parseCondition(s)
}

func parseBinary(s string, idx, width int, join func(l, r node) node) (node, error) {
	left, err := parseExpr(s[:idx])
	if err != nil {
		return nil, err
	}
	right, err := parseExpr(s[idx+width:])
	if err != nil {
		return nil, err
	}
	return join(left, right), nil
}

func parseCondition(s string) (node, error) {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		s = strings.TrimSpace(s[1 : len(s)-1])
	}

	for _, o := range conditionOps {
		lhs, rhs, found := strings.Cut(s, o.text)
		if !found {
			continue
		}
		l, r := parseOperand(lhs), parseOperand(rhs)
		if l.value == "" && l.variable || r.value == "" && r.variable {
			return nil, perrors.New(perrors.ErrCodeInvalidMarker, "missing operand in %q", s)
		}
		return condition{lhs: l, rhs: r, op: o.op}, nil
	}
	return nil, perrors.New(perrors.ErrCodeInvalidMarker, "no operator in %q", s)
}

func parseOperand(s string) operand {
	s = strings.TrimSpace(s)
	if len(s) >= 2 && (s[0] == '\'' || s[0] == '"') && s[len(s)-1] == s[0] {
		return operand{value: s[1 : len(s)-1]}
	}
	return operand{value: s, variable: true}
}

// Evaluate reports whether the marker holds under env.
func (m *Marker) Evaluate(env Environment) bool {
	return m.root.eval(env)
}

// String returns the marker text as parsed.
func (m *Marker) String() string { return m.raw }

// Evaluate parses and evaluates expr. Unparseable markers evaluate to
// false, so a dependency with a malformed marker is never installed.
func Evaluate(expr string, env Environment) bool {
	m, err := Parse(expr)
	if err != nil {
		return false
	}
	return m.Evaluate(env)
}
