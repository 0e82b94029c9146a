package design

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode"

	"github.com/matzehuels/gdstools/pkg/errors"
)

// Expressions are arithmetic over numbers, variables and a few functions:
//
//	2*w + 10
//	-(length - {gap}) / 2
//	sqrt(2) * pi
//
// Variables may be written bare or in braces. pi and e are predefined.

var constants = map[string]float64{
	"pi": math.Pi,
	"e":  math.E,
}

var functions = map[string]func(float64) float64{
	"sqrt": math.Sqrt,
	"sin":  math.Sin,
	"cos":  math.Cos,
	"tan":  math.Tan,
	"abs":  math.Abs,
	"rad":  func(deg float64) float64 { return deg * math.Pi / 180 },
	"deg":  func(rad float64) float64 { return rad * 180 / math.Pi },
}

// Lookup resolves a variable name.
type Lookup func(name string) (float64, bool, error)

// MapLookup resolves variables from a fixed map.
func MapLookup(vars map[string]float64) Lookup {
	return func(name string) (float64, bool, error) {
		v, ok := vars[name]
		return v, ok, nil
	}
}

// Eval evaluates an arithmetic expression.
func Eval(src string, lookup Lookup) (float64, error) {
	p := &parser{src: src, lookup: lookup}
	p.next()
	v, err := p.expr()
	if err != nil {
		return 0, err
	}
	if p.err != nil {
		return 0, p.err
	}
	if p.tok.kind != tokEOF {
		return 0, p.errorf("unexpected %q", p.tok.text)
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, errors.New(errors.ErrCodeInvalidParameter, "expression %q is not a finite number", src)
	}
	return v, nil
}

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokNum
	tokIdent
	tokOp
)

type token struct {
	kind tokenKind
	text string
	num  float64
}

type parser struct {
	src    string
	pos    int
	tok    token
	lookup Lookup
	err    error
}

func (p *parser) errorf(format string, args ...any) error {
	return errors.New(errors.ErrCodeInvalidParameter, "expression %q: %s", p.src, fmt.Sprintf(format, args...))
}

func (p *parser) next() {
	for p.pos < len(p.src) && unicode.IsSpace(rune(p.src[p.pos])) {
		p.pos++
	}
	if p.pos >= len(p.src) {
		p.tok = token{kind: tokEOF}
		return
	}
	c := p.src[p.pos]
	switch {
	case c >= '0' && c <= '9' || c == '.':
		start := p.pos
		for p.pos < len(p.src) && (isDigit(p.src[p.pos]) || p.src[p.pos] == '.') {
			p.pos++
		}
		// Exponent: 1e-3, 2.5E6
		if p.pos < len(p.src) && (p.src[p.pos] == 'e' || p.src[p.pos] == 'E') {
			q := p.pos + 1
			if q < len(p.src) && (p.src[q] == '+' || p.src[q] == '-') {
				q++
			}
			if q < len(p.src) && isDigit(p.src[q]) {
				for q < len(p.src) && isDigit(p.src[q]) {
					q++
				}
				p.pos = q
			}
		}
		text := p.src[start:p.pos]
		v, err := strconv.ParseFloat(text, 64)
		if err != nil && p.err == nil {
			p.err = p.errorf("bad number %q", text)
		}
		p.tok = token{kind: tokNum, text: text, num: v}
	case c == '{':
		end := strings.IndexByte(p.src[p.pos:], '}')
		if end < 0 {
			if p.err == nil {
				p.err = p.errorf("unclosed '{'")
			}
			p.tok = token{kind: tokEOF}
			p.pos = len(p.src)
			return
		}
		name := strings.TrimSpace(p.src[p.pos+1 : p.pos+end])
		p.pos += end + 1
		p.tok = token{kind: tokIdent, text: name}
	case isIdentStart(c):
		start := p.pos
		for p.pos < len(p.src) && isIdentPart(p.src[p.pos]) {
			p.pos++
		}
		p.tok = token{kind: tokIdent, text: p.src[start:p.pos]}
	default:
		p.pos++
		p.tok = token{kind: tokOp, text: string(c)}
	}
}

// expr = term { ("+" | "-") term }
func (p *parser) expr() (float64, error) {
	v, err := p.term()
	if err != nil {
		return 0, err
	}
	for p.tok.kind == tokOp && (p.tok.text == "+" || p.tok.text == "-") {
		op := p.tok.text
		p.next()
		r, err := p.term()
		if err != nil {
			return 0, err
		}
		if op == "+" {
			v += r
		} else {
			v -= r
		}
	}
	return v, nil
}

// term = unary { ("*" | "/") unary }
func (p *parser) term() (float64, error) {
	v, err := p.unary()
	if err != nil {
		return 0, err
	}
	for p.tok.kind == tokOp && (p.tok.text == "*" || p.tok.text == "/") {
		op := p.tok.text
		p.next()
		r, err := p.unary()
		if err != nil {
			return 0, err
		}
		if op == "*" {
			v *= r
		} else {
			if r == 0 {
				return 0, p.errorf("division by zero")
			}
			v /= r
		}
	}
	return v, nil
}

// unary = ("-" | "+") unary | primary
func (p *parser) unary() (float64, error) {
	if p.tok.kind == tokOp && (p.tok.text == "-" || p.tok.text == "+") {
		neg := p.tok.text == "-"
		p.next()
		v, err := p.unary()
		if neg {
			v = -v
		}
		return v, err
	}
	return p.primary()
}

// primary = number | ident | ident "(" expr ")" | "(" expr ")"
func (p *parser) primary() (float64, error) {
	if p.err != nil {
		return 0, p.err
	}
	switch p.tok.kind {
	case tokNum:
		v := p.tok.num
		p.next()
		return v, p.err
	case tokIdent:
		name := p.tok.text
		p.next()
		if p.tok.kind == tokOp && p.tok.text == "(" {
			fn, ok := functions[name]
			if !ok {
				return 0, p.errorf("unknown function %q", name)
			}
			arg, err := p.paren()
			if err != nil {
				return 0, err
			}
			return fn(arg), nil
		}
		return p.variable(name)
	case tokOp:
		if p.tok.text == "(" {
			return p.paren()
		}
		return 0, p.errorf("unexpected %q", p.tok.text)
	}
	return 0, p.errorf("unexpected end of expression")
}

func (p *parser) paren() (float64, error) {
	p.next() // "("
	v, err := p.expr()
	if err != nil {
		return 0, err
	}
	if p.tok.kind != tokOp || p.tok.text != ")" {
		return 0, p.errorf("missing ')'")
	}
	p.next()
	return v, nil
}

func (p *parser) variable(name string) (float64, error) {
	if p.lookup != nil {
		v, ok, err := p.lookup(name)
		if err != nil {
			return 0, err
		}
		if ok {
			return v, nil
		}
	}
	if v, ok := constants[name]; ok {
		return v, nil
	}
	return 0, p.errorf("unknown variable %q", name)
}

func isDigit(c byte) bool      { return c >= '0' && c <= '9' }
func isIdentStart(c byte) bool { return c == '_' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' }
func isIdentPart(c byte) bool  { return isIdentStart(c) || isDigit(c) }

// ParseInstructions parses a compact parameter list such as
//
//	"width: 10, length: 2*pi*{r}"
//
// into named values. Whitespace is ignored and every value is an expression
// evaluated against vars.
func ParseInstructions(s string, vars map[string]float64) (map[string]float64, error) {
	out := make(map[string]float64)
	lookup := MapLookup(vars)
	for _, part := range strings.Split(s, ",") {
		if strings.TrimSpace(part) == "" {
			continue
		}
		key, val, ok := strings.Cut(part, ":")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, errors.New(errors.ErrCodeInvalidParameter, "instruction %q must have the form key: value", strings.TrimSpace(part))
		}
		v, err := Eval(val, lookup)
		if err != nil {
			return nil, err
		}
		out[key] = v
	}
	return out, nil
}
