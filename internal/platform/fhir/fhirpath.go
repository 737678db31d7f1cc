package fhir

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

// FHIRPath evaluation over decoded JSON trees (map[string]interface{}).
// The supported subset covers what error reporting needs: member
// navigation, indexers, equality, and/or, and the functions where,
// first, last, exists, empty, count and extension.

// Evaluate returns the collection expression yields against resource.
func Evaluate(resource map[string]interface{}, expression string) ([]interface{}, error) {
	expression = strings.TrimSpace(expression)
	if expression == "" {
		return nil, fmt.Errorf("fhirpath: empty expression")
	}
	tokens, err := tokenize(expression)
	if err != nil {
		return nil, fmt.Errorf("fhirpath: %w", err)
	}
	p := &pathParser{tokens: tokens}
	ast, err := p.parseOr()
	if err != nil {
		return nil, fmt.Errorf("fhirpath: %w", err)
	}
	if tok := p.peek(); tok.kind != tkEOF {
		return nil, fmt.Errorf("fhirpath: unexpected %q at position %d", tok.value, tok.pos)
	}
	if resource == nil {
		return []interface{}{}, nil
	}
	return ast.eval([]interface{}{resource})
}

// Result is the outcome of TryEvaluate. Err is set when the expression
// could not be evaluated; Value is the first item of the result otherwise.
type Result struct {
	Value interface{}
	Err   error
}

func (r Result) OK() bool { return r.Err == nil }

// Or returns the evaluated value, or fallback when evaluation failed.
func (r Result) Or(fallback interface{}) interface{} {
	if r.Err != nil {
		return fallback
	}
	return r.Value
}

// TryEvaluate evaluates expression and keeps the first item.
func TryEvaluate(resource map[string]interface{}, expression string) Result {
	out, err := Evaluate(resource, expression)
	if err != nil {
		return Result{Err: err}
	}
	if len(out) == 0 {
		return Result{}
	}
	return Result{Value: out[0]}
}

type tokenKind int

const (
	tkIdent tokenKind = iota
	tkString
	tkNumber
	tkDot
	tkLParen
	tkRParen
	tkLBrack
	tkRBrack
	tkComma
	tkEq
	tkNe
	tkEOF
)

type token struct {
	kind  tokenKind
	value string
	pos   int
}

func tokenize(input string) ([]token, error) {
	var tokens []token
	i := 0
	for i < len(input) {
		ch := input[i]
		start := i
		switch {
		case ch == ' ' || ch == '\t' || ch == '\n' || ch == '\r':
			i++
			continue
		case ch == '.':
			tokens = append(tokens, token{tkDot, ".", start})
			i++
		case ch == '(':
			tokens = append(tokens, token{tkLParen, "(", start})
			i++
		case ch == ')':
			tokens = append(tokens, token{tkRParen, ")", start})
			i++
		case ch == '[':
			tokens = append(tokens, token{tkLBrack, "[", start})
			i++
		case ch == ']':
			tokens = append(tokens, token{tkRBrack, "]", start})
			i++
		case ch == ',':
			tokens = append(tokens, token{tkComma, ",", start})
			i++
		case ch == '=':
			tokens = append(tokens, token{tkEq, "=", start})
			i++
		case ch == '!' && i+1 < len(input) && input[i+1] == '=':
			tokens = append(tokens, token{tkNe, "!=", start})
			i += 2
		case ch == '\'':
			i++
			var sb strings.Builder
			for i < len(input) && input[i] != '\'' {
				if input[i] == '\\' && i+1 < len(input) {
					i++
				}
				sb.WriteByte(input[i])
				i++
			}
			if i >= len(input) {
				return nil, fmt.Errorf("unterminated string at position %d", start)
			}
			i++
			tokens = append(tokens, token{tkString, sb.String(), start})
		case ch >= '0' && ch <= '9':
			for i < len(input) && (input[i] >= '0' && input[i] <= '9') {
				i++
			}
			tokens = append(tokens, token{tkNumber, input[start:i], start})
		case ch == '$' || ch == '_' || unicode.IsLetter(rune(ch)):
			i++
			for i < len(input) && (input[i] == '_' || unicode.IsLetter(rune(input[i])) || unicode.IsDigit(rune(input[i]))) {
				i++
			}
			tokens = append(tokens, token{tkIdent, input[start:i], start})
		default:
			return nil, fmt.Errorf("unexpected character %q at position %d", ch, start)
		}
	}
	return append(tokens, token{tkEOF, "", len(input)}), nil
}

type pathNode interface {
	eval(focus []interface{}) ([]interface{}, error)
}

type pathParser struct {
	tokens []token
	pos    int
}

func (p *pathParser) peek() token { return p.tokens[p.pos] }

func (p *pathParser) next() token {
	t := p.tokens[p.pos]
	if t.kind != tkEOF {
		p.pos++
	}
	return t
}

func (p *pathParser) expect(kind tokenKind, what string) error {
	if t := p.next(); t.kind != kind {
		return fmt.Errorf("expected %s at position %d, got %q", what, t.pos, t.value)
	}
	return nil
}

func (p *pathParser) parseOr() (pathNode, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for p.peek().kind == tkIdent && p.peek().value == "or" {
		p.next()
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		left = &logicNode{op: "or", left: left, right: right}
	}
	return left, nil
}

func (p *pathParser) parseAnd() (pathNode, error) {
	left, err := p.parseEquality()
	if err != nil {
		return nil, err
	}
	for p.peek().kind == tkIdent && p.peek().value == "and" {
		p.next()
		right, err := p.parseEquality()
		if err != nil {
			return nil, err
		}
		left = &logicNode{op: "and", left: left, right: right}
	}
	return left, nil
}

func (p *pathParser) parseEquality() (pathNode, error) {
	left, err := p.parsePostfix()
	if err != nil {
		return nil, err
	}
	if k := p.peek().kind; k == tkEq || k == tkNe {
		p.next()
		right, err := p.parsePostfix()
		if err != nil {
			return nil, err
		}
		return &equalNode{negate: k == tkNe, left: left, right: right}, nil
	}
	return left, nil
}

func (p *pathParser) parsePostfix() (pathNode, error) {
	n, err := p.parseTerm(nil)
	if err != nil {
		return nil, err
	}
	for {
		switch p.peek().kind {
		case tkDot:
			p.next()
			if n, err = p.parseTerm(n); err != nil {
				return nil, err
			}
		case tkLBrack:
			p.next()
			idx, err := p.parseOr()
			if err != nil {
				return nil, err
			}
			if err := p.expect(tkRBrack, "']'"); err != nil {
				return nil, err
			}
			n = &indexNode{target: n, index: idx}
		default:
			return n, nil
		}
	}
}

// parseTerm parses a literal, parenthesised expression, member or function
// invocation applied to target (nil means the current focus).
func (p *pathParser) parseTerm(target pathNode) (pathNode, error) {
	t := p.next()
	switch t.kind {
	case tkString:
		return &literalNode{value: t.value}, nil
	case tkNumber:
		n, _ := strconv.Atoi(t.value)
		return &literalNode{value: n}, nil
	case tkLParen:
		inner, err := p.parseOr()
		if err != nil {
			return nil, err
		}
		return inner, p.expect(tkRParen, "')'")
	case tkIdent:
		switch t.value {
		case "true", "false":
			if target == nil {
				return &literalNode{value: t.value == "true"}, nil
			}
		case "$this":
			return &thisNode{}, nil
		}
		if p.peek().kind != tkLParen {
			return &memberNode{target: target, name: t.value}, nil
		}
		p.next()
		var args []pathNode
		for p.peek().kind != tkRParen {
			arg, err := p.parseOr()
			if err != nil {
				return nil, err
			}
			args = append(args, arg)
			if p.peek().kind == tkComma {
				p.next()
			}
			if p.peek().kind == tkEOF {
				return nil, fmt.Errorf("unterminated call to %s()", t.value)
			}
		}
		p.next()
		return &funcNode{target: target, name: t.value, args: args}, nil
	}
	return nil, fmt.Errorf("unexpected %q at position %d", t.value, t.pos)
}

type literalNode struct{ value interface{} }

func (n *literalNode) eval([]interface{}) ([]interface{}, error) {
	return []interface{}{n.value}, nil
}

type thisNode struct{}

func (thisNode) eval(focus []interface{}) ([]interface{}, error) { return focus, nil }

type memberNode struct {
	target pathNode
	name   string
}

func (n *memberNode) eval(focus []interface{}) ([]interface{}, error) {
	input := focus
	if n.target != nil {
		var err error
		if input, err = n.target.eval(focus); err != nil {
			return nil, err
		}
	}
	out := []interface{}{}
	for _, item := range input {
		m, ok := item.(map[string]interface{})
		if !ok {
			continue
		}
		v, present := m[n.name]
		if !present {
			// A leading type name selects the resource itself.
			if n.target == nil && m["resourceType"] == n.name {
				out = append(out, m)
			}
			continue
		}
		out = appendFlat(out, v)
	}
	return out, nil
}

func appendFlat(out []interface{}, v interface{}) []interface{} {
	switch vv := v.(type) {
	case nil:
		return out
	case []interface{}:
		for _, e := range vv {
			if e != nil {
				out = append(out, e)
			}
		}
		return out
	default:
		return append(out, vv)
	}
}

type indexNode struct {
	target pathNode
	index  pathNode
}

func (n *indexNode) eval(focus []interface{}) ([]interface{}, error) {
	coll, err := n.target.eval(focus)
	if err != nil {
		return nil, err
	}
	idxColl, err := n.index.eval(focus)
	if err != nil {
		return nil, err
	}
	if len(idxColl) != 1 {
		return nil, fmt.Errorf("indexer must be a single integer")
	}
	i, ok := idxColl[0].(int)
	if !ok {
		return nil, fmt.Errorf("indexer must be an integer, got %T", idxColl[0])
	}
	if i < 0 || i >= len(coll) {
		return []interface{}{}, nil
	}
	return []interface{}{coll[i]}, nil
}

type funcNode struct {
	target pathNode
	name   string
	args   []pathNode
}

func (n *funcNode) eval(focus []interface{}) ([]interface{}, error) {
	input := focus
	if n.target != nil {
		var err error
		if input, err = n.target.eval(focus); err != nil {
			return nil, err
		}
	}
	switch n.name {
	case "where":
		if len(n.args) != 1 {
			return nil, fmt.Errorf("where() takes one argument")
		}
		out := []interface{}{}
		for _, item := range input {
			res, err := n.args[0].eval([]interface{}{item})
			if err != nil {
				return nil, err
			}
			if truthy(res) {
				out = append(out, item)
			}
		}
		return out, nil
	case "first":
		if len(input) == 0 {
			return []interface{}{}, nil
		}
		return input[:1], nil
	case "last":
		if len(input) == 0 {
			return []interface{}{}, nil
		}
		return input[len(input)-1:], nil
	case "exists":
		return []interface{}{len(input) > 0}, nil
	case "empty":
		return []interface{}{len(input) == 0}, nil
	case "count":
		return []interface{}{len(input)}, nil
	case "extension":
		if len(n.args) != 1 {
			return nil, fmt.Errorf("extension() takes one argument")
		}
		urls, err := n.args[0].eval(focus)
		if err != nil {
			return nil, err
		}
		if len(urls) != 1 {
			return nil, fmt.Errorf("extension() url must be a single string")
		}
		url, ok := urls[0].(string)
		if !ok {
			return nil, fmt.Errorf("extension() url must be a string")
		}
		out := []interface{}{}
		for _, item := range input {
			m, ok := item.(map[string]interface{})
			if !ok {
				continue
			}
			exts, _ := m["extension"].([]interface{})
			for _, e := range exts {
				if em, ok := e.(map[string]interface{}); ok && em["url"] == url {
					out = append(out, em)
				}
			}
		}
		return out, nil
	}
	return nil, fmt.Errorf("unsupported function %s()", n.name)
}

type equalNode struct {
	negate      bool
	left, right pathNode
}

func (n *equalNode) eval(focus []interface{}) ([]interface{}, error) {
	l, err := n.left.eval(focus)
	if err != nil {
		return nil, err
	}
	r, err := n.right.eval(focus)
	if err != nil {
		return nil, err
	}
	if len(l) == 0 || len(r) == 0 {
		return []interface{}{}, nil
	}
	eq := len(l) == len(r)
	for i := 0; eq && i < len(l); i++ {
		eq = equalValues(l[i], r[i])
	}
	return []interface{}{eq != n.negate}, nil
}

func equalValues(a, b interface{}) bool {
	if af, ok := toFloat(a); ok {
		if bf, ok := toFloat(b); ok {
			return af == bf
		}
	}
	return fmt.Sprint(a) == fmt.Sprint(b)
}

func toFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}

type logicNode struct {
	op          string
	left, right pathNode
}

func (n *logicNode) eval(focus []interface{}) ([]interface{}, error) {
	l, err := n.left.eval(focus)
	if err != nil {
		return nil, err
	}
	r, err := n.right.eval(focus)
	if err != nil {
		return nil, err
	}
	if n.op == "and" {
		return []interface{}{truthy(l) && truthy(r)}, nil
	}
	return []interface{}{truthy(l) || truthy(r)}, nil
}

// truthy applies singleton evaluation: an empty collection is false and a
// single boolean is itself.
func truthy(coll []interface{}) bool {
	if len(coll) == 0 {
		return false
	}
	if len(coll) == 1 {
		if b, ok := coll[0].(bool); ok {
			return b
		}
	}
	return true
}
