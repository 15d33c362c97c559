/*
formula.go - Jurisdiction formula evaluator

PURPOSE:
  Evaluates the small expression language used in jurisdiction-configured
  personal-deduction formulas, e.g.

    MAX(1560000, {annualGross} * 0.333)
    IF({dependents} > 2, {gross} * 0.05, 0)

  against named numeric variables supplied by the calculator.

LANGUAGE:
  - Variables: {name}, textually substituted before parsing. An undefined
    variable leaves the placeholder in place, which fails the parse.
  - Functions: MAX(a, b, ...), MIN(a, b, ...), ROUND(x) (half-up to integer),
    IF(cond, then, else) where cond is a single binary comparison with one of
    > < >= <= == != - no nested comparisons, no boolean operators.
  - Arithmetic: + - * / and parentheses.

SAFETY:
  This is a closed recursive-descent parser over the substituted string.
  There is no generic code-execution primitive anywhere in the path, so a
  hostile formula string has no injection surface - the worst it can do is
  fail to parse.

FAIL-SAFE CONTRACT:
  Any parse or evaluation failure (bad syntax, unresolved variable, division
  by zero) yields 0, never an error. A malformed jurisdiction formula must
  degrade to "no deduction" instead of halting payroll for an organization.
  The failure is reported out-of-band through the OnError hook so operators
  can spot misconfigured formulas; the numeric contract never changes.

SEE ALSO:
  - paye.go: The only in-engine caller (formula-typed personal deductions)
  - rules.go: PersonalDeduction.Formula
*/
package engine

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// =============================================================================
// EVALUATOR
// =============================================================================

// FormulaDiagnostic receives every swallowed formula failure. The evaluator
// still returns 0 for that formula; the hook is observation only.
type FormulaDiagnostic func(formula string, err error)

// Evaluator evaluates jurisdiction formulas. The zero value is usable and
// swallows failures silently; set OnError to surface them.
type Evaluator struct {
	OnError FormulaDiagnostic
}

// NewEvaluator creates an evaluator with the given diagnostic hook.
// A nil hook is valid.
func NewEvaluator(onError FormulaDiagnostic) *Evaluator {
	return &Evaluator{OnError: onError}
}

var variablePattern = regexp.MustCompile(`\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// Evaluate computes the formula against the given variables. On any failure
// it returns 0 (see the fail-safe contract above).
func (e *Evaluator) Evaluate(formula string, variables map[string]float64) float64 {
	substituted := variablePattern.ReplaceAllStringFunc(formula, func(match string) string {
		name := match[1 : len(match)-1]
		value, ok := variables[name]
		if !ok {
			// Leave the placeholder; the parser rejects it below.
			return match
		}
		// Parenthesize so negative values survive adjacent operators.
		return "(" + strconv.FormatFloat(value, 'f', -1, 64) + ")"
	})

	result, err := evalExpression(substituted)
	if err != nil {
		if e.OnError != nil {
			e.OnError(formula, err)
		}
		return 0
	}
	if math.IsNaN(result) || math.IsInf(result, 0) {
		if e.OnError != nil {
			e.OnError(formula, fmt.Errorf("non-finite result"))
		}
		return 0
	}
	return result
}

// Evaluate is the package-level convenience with no diagnostic hook.
func Evaluate(formula string, variables map[string]float64) float64 {
	return (&Evaluator{}).Evaluate(formula, variables)
}

// =============================================================================
// TOKENIZER
// =============================================================================

type tokenKind int

const (
	tokNumber tokenKind = iota
	tokIdent
	tokOp    // + - * /
	tokCmp   // > < >= <= == !=
	tokLParen
	tokRParen
	tokComma
	tokEOF
)

type token struct {
	kind tokenKind
	text string
	num  float64
}

func tokenize(input string) ([]token, error) {
	var tokens []token
	i := 0
	for i < len(input) {
		c := input[i]
		switch {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			i++
		case c >= '0' && c <= '9' || c == '.':
			start := i
			for i < len(input) && (input[i] >= '0' && input[i] <= '9' || input[i] == '.') {
				i++
			}
			text := input[start:i]
			num, err := strconv.ParseFloat(text, 64)
			if err != nil {
				return nil, fmt.Errorf("bad number %q", text)
			}
			tokens = append(tokens, token{kind: tokNumber, text: text, num: num})
		case c >= 'A' && c <= 'Z' || c >= 'a' && c <= 'z' || c == '_':
			start := i
			for i < len(input) && (input[i] >= 'A' && input[i] <= 'Z' ||
				input[i] >= 'a' && input[i] <= 'z' ||
				input[i] >= '0' && input[i] <= '9' || input[i] == '_') {
				i++
			}
			tokens = append(tokens, token{kind: tokIdent, text: input[start:i]})
		case c == '+' || c == '-' || c == '*' || c == '/':
			tokens = append(tokens, token{kind: tokOp, text: string(c)})
			i++
		case c == '(':
			tokens = append(tokens, token{kind: tokLParen, text: "("})
			i++
		case c == ')':
			tokens = append(tokens, token{kind: tokRParen, text: ")"})
			i++
		case c == ',':
			tokens = append(tokens, token{kind: tokComma, text: ","})
			i++
		case c == '>' || c == '<':
			op := string(c)
			i++
			if i < len(input) && input[i] == '=' {
				op += "="
				i++
			}
			tokens = append(tokens, token{kind: tokCmp, text: op})
		case c == '=' || c == '!':
			if i+1 >= len(input) || input[i+1] != '=' {
				return nil, fmt.Errorf("unexpected character %q", string(c))
			}
			tokens = append(tokens, token{kind: tokCmp, text: string(c) + "="})
			i += 2
		case c == '{':
			return nil, fmt.Errorf("unresolved variable at offset %d", i)
		default:
			return nil, fmt.Errorf("unexpected character %q", string(c))
		}
	}
	tokens = append(tokens, token{kind: tokEOF})
	return tokens, nil
}

// =============================================================================
// PARSER - Recursive descent over the substituted string
// =============================================================================

type parser struct {
	tokens []token
	pos    int
}

func evalExpression(input string) (float64, error) {
	tokens, err := tokenize(input)
	if err != nil {
		return 0, err
	}
	p := &parser{tokens: tokens}
	result, err := p.expression()
	if err != nil {
		return 0, err
	}
	if p.peek().kind != tokEOF {
		return 0, fmt.Errorf("unexpected token %q after expression", p.peek().text)
	}
	return result, nil
}

func (p *parser) peek() token { return p.tokens[p.pos] }

func (p *parser) next() token {
	t := p.tokens[p.pos]
	if t.kind != tokEOF {
		p.pos++
	}
	return t
}

func (p *parser) expect(kind tokenKind, what string) error {
	if p.peek().kind != kind {
		return fmt.Errorf("expected %s, got %q", what, p.peek().text)
	}
	p.next()
	return nil
}

// expression := term (('+'|'-') term)*
func (p *parser) expression() (float64, error) {
	left, err := p.term()
	if err != nil {
		return 0, err
	}
	for p.peek().kind == tokOp && (p.peek().text == "+" || p.peek().text == "-") {
		op := p.next().text
		right, err := p.term()
		if err != nil {
			return 0, err
		}
		if op == "+" {
			left += right
		} else {
			left -= right
		}
	}
	return left, nil
}

// term := unary (('*'|'/') unary)*
func (p *parser) term() (float64, error) {
	left, err := p.unary()
	if err != nil {
		return 0, err
	}
	for p.peek().kind == tokOp && (p.peek().text == "*" || p.peek().text == "/") {
		op := p.next().text
		right, err := p.unary()
		if err != nil {
			return 0, err
		}
		if op == "*" {
			left *= right
		} else {
			if right == 0 {
				return 0, fmt.Errorf("division by zero")
			}
			left /= right
		}
	}
	return left, nil
}

// unary := '-' unary | primary
func (p *parser) unary() (float64, error) {
	if p.peek().kind == tokOp && p.peek().text == "-" {
		p.next()
		value, err := p.unary()
		if err != nil {
			return 0, err
		}
		return -value, nil
	}
	return p.primary()
}

// primary := number | '(' expression ')' | function
func (p *parser) primary() (float64, error) {
	switch t := p.peek(); t.kind {
	case tokNumber:
		p.next()
		return t.num, nil
	case tokLParen:
		p.next()
		value, err := p.expression()
		if err != nil {
			return 0, err
		}
		if err := p.expect(tokRParen, ")"); err != nil {
			return 0, err
		}
		return value, nil
	case tokIdent:
		return p.function()
	default:
		return 0, fmt.Errorf("unexpected token %q", t.text)
	}
}

// function := IDENT '(' args ')'
func (p *parser) function() (float64, error) {
	name := strings.ToUpper(p.next().text)
	if err := p.expect(tokLParen, "("); err != nil {
		return 0, err
	}

	switch name {
	case "MAX", "MIN":
		args, err := p.arguments()
		if err != nil {
			return 0, err
		}
		if len(args) == 0 {
			return 0, fmt.Errorf("%s requires at least one argument", name)
		}
		best := args[0]
		for _, a := range args[1:] {
			if name == "MAX" && a > best || name == "MIN" && a < best {
				best = a
			}
		}
		return best, nil

	case "ROUND":
		value, err := p.expression()
		if err != nil {
			return 0, err
		}
		if err := p.expect(tokRParen, ")"); err != nil {
			return 0, err
		}
		// Half away from zero, matching the nearest rounding mode.
		return math.Round(value), nil

	case "IF":
		cond, err := p.comparison()
		if err != nil {
			return 0, err
		}
		if err := p.expect(tokComma, ","); err != nil {
			return 0, err
		}
		thenValue, err := p.expression()
		if err != nil {
			return 0, err
		}
		if err := p.expect(tokComma, ","); err != nil {
			return 0, err
		}
		elseValue, err := p.expression()
		if err != nil {
			return 0, err
		}
		if err := p.expect(tokRParen, ")"); err != nil {
			return 0, err
		}
		if cond {
			return thenValue, nil
		}
		return elseValue, nil

	default:
		return 0, fmt.Errorf("unknown function %q", name)
	}
}

// arguments := expression (',' expression)* ')'
func (p *parser) arguments() ([]float64, error) {
	var args []float64
	for {
		value, err := p.expression()
		if err != nil {
			return nil, err
		}
		args = append(args, value)
		if p.peek().kind == tokComma {
			p.next()
			continue
		}
		if err := p.expect(tokRParen, ")"); err != nil {
			return nil, err
		}
		return args, nil
	}
}

// comparison := expression CMP expression
// Exactly one binary comparison; chaining is a syntax error.
func (p *parser) comparison() (bool, error) {
	left, err := p.expression()
	if err != nil {
		return false, err
	}
	if p.peek().kind != tokCmp {
		return false, fmt.Errorf("expected comparison operator, got %q", p.peek().text)
	}
	op := p.next().text
	right, err := p.expression()
	if err != nil {
		return false, err
	}
	if p.peek().kind == tokCmp {
		return false, fmt.Errorf("chained comparisons are not supported")
	}
	switch op {
	case ">":
		return left > right, nil
	case "<":
		return left < right, nil
	case ">=":
		return left >= right, nil
	case "<=":
		return left <= right, nil
	case "==":
		return left == right, nil
	case "!=":
		return left != right, nil
	}
	return false, fmt.Errorf("unknown comparison %q", op)
}
