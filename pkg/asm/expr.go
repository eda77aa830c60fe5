package asm

import (
	"errors"
	"strconv"
)

type arity int

const (
	binary arity = iota
	prefix
)

// Operator is one entry of the expression operator table. Apply combines
// two 16-bit operands; prefix operators ignore b.
type Operator struct {
	Symbol string
	Level  int
	Arity  arity
	Apply  func(a, b uint16) (uint16, error)
}

const (
	// maxLevel is the tightest binary level; above it the parser reads a value.
	maxLevel = 5
	// maxDepth bounds nested parentheses and prefix chains.
	maxDepth = 64
)

var errDivideByZero = errors.New("division by zero")

func boolWord(b bool) uint16 {
	if b {
		return 0xFFFF
	}
	return 0
}

// operators lists longer symbols before their prefixes so "<<" is never
// read as "<".
var operators = []Operator{
	{"==", 2, binary, func(a, b uint16) (uint16, error) { return boolWord(a == b), nil }},
	{"!=", 2, binary, func(a, b uint16) (uint16, error) { return boolWord(a != b), nil }},
	{"<=", 2, binary, func(a, b uint16) (uint16, error) { return boolWord(a <= b), nil }},
	{">=", 2, binary, func(a, b uint16) (uint16, error) { return boolWord(a >= b), nil }},
	{"<<", 3, binary, func(a, b uint16) (uint16, error) { return a << (b & 0x1F), nil }},
	{">>", 3, binary, func(a, b uint16) (uint16, error) { return a >> (b & 0x1F), nil }},
	{"<", 2, binary, func(a, b uint16) (uint16, error) { return boolWord(a < b), nil }},
	{">", 2, binary, func(a, b uint16) (uint16, error) { return boolWord(a > b), nil }},
	{"|", 0, binary, func(a, b uint16) (uint16, error) { return a | b, nil }},
	{"^", 0, binary, func(a, b uint16) (uint16, error) { return a ^ b, nil }},
	{"&", 1, binary, func(a, b uint16) (uint16, error) { return a & b, nil }},
	{"+", 4, binary, func(a, b uint16) (uint16, error) { return a + b, nil }},
	{"-", 4, binary, func(a, b uint16) (uint16, error) { return a - b, nil }},
	{"*", 5, binary, func(a, b uint16) (uint16, error) { return a * b, nil }},
	{"/", 5, binary, func(a, b uint16) (uint16, error) {
		if b == 0 {
			return 0, errDivideByZero
		}
		return a / b, nil
	}},
	{"%", 5, binary, func(a, b uint16) (uint16, error) {
		if b == 0 {
			return 0, errDivideByZero
		}
		return a % b, nil
	}},

	{"-", maxLevel + 1, prefix, func(a, _ uint16) (uint16, error) { return -a, nil }},
	{"+", maxLevel + 1, prefix, func(a, _ uint16) (uint16, error) { return a, nil }},
	{"~", maxLevel + 1, prefix, func(a, _ uint16) (uint16, error) { return ^a, nil }},
	{"!", maxLevel + 1, prefix, func(a, _ uint16) (uint16, error) { return boolWord(a == 0), nil }},
}

// matchOperator returns the first operator of the given arity at the cursor,
// without advancing.
func matchOperator(c *cursor, ar arity) *Operator {
	for i := range operators {
		op := &operators[i]
		if op.Arity == ar && c.matchString(op.Symbol, false) {
			return op
		}
	}
	return nil
}

// apply folds op over the operand values into dst. An unresolved input gives
// an unresolved result; an arithmetic failure is recorded on dst.
func apply(op *Operator, dst *Operand, a, b Value) {
	x, okA := a.Get()
	y, okB := b.Get()
	if !okA || !okB {
		dst.Value = Unresolved
		return
	}
	v, err := op.Apply(x, y)
	if err != nil {
		dst.fail(err.Error())
	}
	dst.Value = Resolved(v)
}

// parseExpression parses a binary expression at the given precedence level.
// An empty Text on the result means nothing was recognised.
func (l *SourceLine) parseExpression(level int) *Operand {
	if level > maxLevel {
		return l.parseValue()
	}
	left := l.parseExpression(level + 1)
	if left.Text == "" {
		return left
	}
	for {
		save := l.c.pos
		l.c.skipSpace()
		op := matchOperator(&l.c, binary)
		if op == nil || op.Level != level {
			l.c.pos = save
			break
		}
		l.c.munch(len(op.Symbol))

		right := l.parseExpression(level + 1)
		if right.Text == "" {
			left.Text += " " + op.Symbol + " "
			left.fail(right.Error)
			continue
		}
		left.Text += " " + op.Symbol + " " + right.Text
		if right.HasError() {
			left.fail(right.Error)
		}
		left.Undefined = append(left.Undefined, right.Undefined...)
		apply(op, left, left.Value, right.Value)
	}
	return left
}

// parseValue reads one terminal: a number, a label reference, a character
// literal, $, a parenthesised expression or a prefix operator application.
func (l *SourceLine) parseValue() *Operand {
	l.c.skipSpace()
	start := l.c.pos

	if v := l.parseNumber(); v != nil {
		return v
	}

	if ref, ok := parseLabelReference(&l.c, l.env.scope, l.Number); ok {
		return l.resolveReference(ref, start)
	}

	if n, chars := scanQuoted(l.c.src, start, '\''); n > 0 && chars == 1 {
		text := l.c.munch(n)
		ch := dequote(text[1 : len(text)-1])[0]
		return &Operand{Kind: OperandImm8, Text: text, Value: Resolved(uint16(ch)), Column: start + 1}
	}

	if l.c.peek() == '$' && !isIdentChar(byteAt(l.c.src, start+1)) {
		l.c.munch(1)
		return &Operand{Kind: OperandImm16, Text: "$", Value: l.env.code.Address(), Column: start + 1}
	}

	if l.c.peek() == '(' {
		if l.depth >= maxDepth {
			return &Operand{Error: "expression nested too deeply", Column: start + 1}
		}
		l.c.munch(1)
		l.depth++
		v := l.parseExpression(0)
		l.depth--
		l.c.skipSpace()
		if l.c.peek() == ')' {
			l.c.munch(1)
		} else {
			v.fail("missing right parenthesis in operand expression")
		}
		v.Text = "(" + v.Text + ")"
		v.Column = start + 1
		return v
	}

	if op := matchOperator(&l.c, prefix); op != nil {
		if l.depth >= maxDepth {
			return &Operand{Error: "expression nested too deeply", Column: start + 1}
		}
		l.c.munch(len(op.Symbol))
		l.depth++
		v := l.parseValue()
		l.depth--
		if v.Text == "" {
			l.c.pos = start
			return v
		}
		v.Text = op.Symbol + v.Text
		v.Column = start + 1
		apply(op, v, v.Value, Resolved(0))
		return v
	}

	l.c.pos = start
	return &Operand{Error: "valid value not found", Column: start + 1}
}

func byteAt(s string, i int) byte {
	if i < 0 || i >= len(s) {
		return 0
	}
	return s[i]
}

// parseNumber reads a hexadecimal (0FFH), binary (101B), octal (17O or 17Q)
// or decimal literal. It returns nil when no literal is at the cursor.
func (l *SourceLine) parseNumber() *Operand {
	s := l.c.src
	i := l.c.pos
	if !isDigit(byteAt(s, i)) {
		return nil
	}
	n := 0
	for isIdentChar(byteAt(s, i+n)) {
		n++
	}
	word := s[i : i+n]

	digits, base := word, 10
	switch last := word[len(word)-1]; last {
	case 'H', 'h':
		digits, base = word[:len(word)-1], 16
	case 'B', 'b':
		digits, base = word[:len(word)-1], 2
	case 'O', 'o', 'Q', 'q':
		digits, base = word[:len(word)-1], 8
	case 'D', 'd':
		digits = word[:len(word)-1]
	}
	if digits == "" || !validDigits(digits, base) {
		// 1BH ends in B but is hexadecimal; anything else is not a number.
		return nil
	}

	l.c.munch(n)
	op := &Operand{Kind: OperandImm16, Text: word, Column: i + 1}
	v, err := strconv.ParseUint(digits, base, 16)
	if err != nil {
		op.fail("numeric literal out of range (0-65535): " + word)
		op.Value = Resolved(0)
		return op
	}
	op.Value = Resolved(uint16(v))
	return op
}

func validDigits(s string, base int) bool {
	for i := 0; i < len(s); i++ {
		b := s[i]
		switch base {
		case 2:
			if b != '0' && b != '1' {
				return false
			}
		case 8:
			if b < '0' || b > '7' {
				return false
			}
		case 10:
			if !isDigit(b) {
				return false
			}
		case 16:
			if !isHexDigit(b) {
				return false
			}
		}
	}
	return true
}

// resolveReference turns a parsed label reference into an operand carrying
// the symbol's current value.
func (l *SourceLine) resolveReference(ref *LabelReference, start int) *Operand {
	sym := l.env.syms.LookupReference(*ref)
	op := &Operand{Kind: OperandImm16, Text: ref.Source, Column: start + 1}
	if sym == nil {
		op.fail("invalid label reference " + ref.Source)
		return op
	}
	if l.env.final {
		sym.Refs = append(sym.Refs, Location{File: l.File, Line: l.Number})
	}
	op.Value = sym.Value
	if !sym.Value.IsResolved() {
		op.Undefined = append(op.Undefined, sym.Name())
	}
	return op
}
