package asm

import (
	"strings"
)

// OperandKind tells how an operand was parsed and how it is encoded.
type OperandKind int

const (
	OperandNone OperandKind = iota
	OperandR8Left
	OperandR8Right
	OperandR16SP
	OperandR16PSW
	OperandR16BD
	OperandImm8
	OperandImm16
	OperandRst
	OperandDBList
	OperandDWList
	OperandDSSize
)

var operandKindNames = [...]string{
	OperandNone:    "none",
	OperandR8Left:  "r8-left",
	OperandR8Right: "r8-right",
	OperandR16SP:   "r16-sp",
	OperandR16PSW:  "r16-psw",
	OperandR16BD:   "r16-bd",
	OperandImm8:    "imm8",
	OperandImm16:   "imm16",
	OperandRst:     "rst",
	OperandDBList:  "db",
	OperandDWList:  "dw",
	OperandDSSize:  "ds",
}

func (k OperandKind) String() string {
	if k < 0 || int(k) >= len(operandKindNames) {
		return "unknown"
	}
	return operandKindNames[k]
}

// Operand is one parsed operand of an instruction.
type Operand struct {
	Kind     OperandKind
	Text     string // source text as recognised; empty if nothing was
	Bytes    []byte // data bytes emitted after the opcode
	Value    Value
	Modifier byte // ORed into the opcode
	Error    string
	Column   int // 1-based column where the operand starts

	// Undefined names the symbols this operand needed but could not resolve.
	Undefined []string
}

// HasError reports whether parsing or evaluating the operand failed.
func (o *Operand) HasError() bool {
	return o.Error != ""
}

// fail records msg unless an earlier error is already recorded.
func (o *Operand) fail(msg string) {
	if o.Error == "" {
		o.Error = msg
	}
}

// Register tables. Each row lists the accepted spellings of one encoding;
// the row index is the encoded value.
var (
	regs8     = [][]string{{"B"}, {"C"}, {"D"}, {"E"}, {"H"}, {"L"}, {"M"}, {"A"}}
	regs16SP  = [][]string{{"BC", "B"}, {"DE", "D"}, {"HL", "H"}, {"SP"}}
	regs16PSW = [][]string{{"BC", "B"}, {"DE", "D"}, {"HL", "H"}, {"PSW"}}
	regs16BD  = [][]string{{"BC", "B"}, {"DE", "D"}}
	rstNums   = [][]string{{"0"}, {"1"}, {"2"}, {"3"}, {"4"}, {"5"}, {"6"}, {"7"}}
)

const regM = 6

// lookupToken matches the word at the cursor against table, ignoring case.
// The whole word must match so "BC" is never read as "B".
func (l *SourceLine) lookupToken(table [][]string) (int, string, bool) {
	l.c.skipSpace()
	s, i := l.c.src, l.c.pos
	n := 0
	for isIdentChar(byteAt(s, i+n)) {
		n++
	}
	if n == 0 {
		return 0, "", false
	}
	word := s[i : i+n]
	for idx, row := range table {
		for _, name := range row {
			if strings.EqualFold(word, name) {
				l.c.munch(n)
				return idx, word, true
			}
		}
	}
	return 0, "", false
}

func (l *SourceLine) parseRegister(kind OperandKind, table [][]string, shift uint, what string) *Operand {
	l.c.skipSpace()
	op := &Operand{Kind: kind, Column: l.c.pos + 1}
	idx, text, ok := l.lookupToken(table)
	if !ok {
		op.fail("expected " + what)
		n := 0
		for isIdentChar(byteAt(l.c.src, l.c.pos+n)) {
			n++
		}
		op.Text = l.c.munch(n)
		return op
	}
	op.Text = text
	op.Value = Resolved(uint16(idx))
	op.Modifier = byte(idx) << shift
	return op
}

func (l *SourceLine) parseR8Left() *Operand {
	return l.parseRegister(OperandR8Left, regs8, 3, "8-bit register (B, C, D, E, H, L, M or A)")
}

func (l *SourceLine) parseR8Right() *Operand {
	return l.parseRegister(OperandR8Right, regs8, 0, "8-bit register (B, C, D, E, H, L, M or A)")
}

func (l *SourceLine) parseR16SP() *Operand {
	return l.parseRegister(OperandR16SP, regs16SP, 4, "register pair (BC, DE, HL or SP)")
}

func (l *SourceLine) parseR16PSW() *Operand {
	return l.parseRegister(OperandR16PSW, regs16PSW, 4, "register pair (BC, DE, HL or PSW)")
}

func (l *SourceLine) parseR16BD() *Operand {
	return l.parseRegister(OperandR16BD, regs16BD, 4, "register pair (BC or DE)")
}

// parseRst reads a restart vector number. A lone digit is looked up
// directly; anything else is evaluated and must land in 0-7.
func (l *SourceLine) parseRst() *Operand {
	save := l.c.pos
	op := l.parseRegister(OperandRst, rstNums, 3, "restart number 0-7")
	if !op.HasError() {
		l.c.skipSpace()
		if l.c.eof() || l.c.peek() == ';' {
			return op
		}
	}
	l.c.pos = save

	v := l.parseExpression(0)
	v.Kind = OperandRst
	if v.Text == "" || v.HasError() {
		return v
	}
	if n, ok := v.Value.Get(); ok {
		if n > 7 {
			v.fail("restart number must be 0-7")
			return v
		}
		v.Modifier = byte(n) << 3
	}
	return v
}

// parseImm8 evaluates an expression and encodes it as one byte. An
// unresolved or failed expression leaves a zero placeholder.
func (l *SourceLine) parseImm8() *Operand {
	op := l.parseExpression(0)
	op.Kind = OperandImm8
	w, ok := op.Value.Get()
	if !ok || op.HasError() {
		w = 0
	}
	op.Bytes = []byte{byte(w)}
	return op
}

// parseImm16 evaluates an expression and encodes it as a little-endian word.
func (l *SourceLine) parseImm16() *Operand {
	op := l.parseExpression(0)
	op.Kind = OperandImm16
	w, ok := op.Value.Get()
	if !ok || op.HasError() {
		w = 0
	}
	op.Bytes = []byte{byte(w), byte(w >> 8)}
	return op
}

// parseString reads a quoted string for DB. Either quote character may be
// used; a backslash escapes the next character.
func (l *SourceLine) parseString() *Operand {
	l.c.skipSpace()
	start := l.c.pos
	for _, q := range []byte{'\'', '"'} {
		if n, _ := scanQuoted(l.c.src, start, q); n > 0 {
			text := l.c.munch(n)
			body := dequote(text[1 : len(text)-1])
			return &Operand{
				Kind:   OperandDBList,
				Text:   text,
				Bytes:  []byte(body),
				Value:  Resolved(0),
				Column: start + 1,
			}
		}
	}
	return nil
}

// parseList reads a comma separated list for DB or DW into one operand.
// An empty slot contributes nothing and does not end the list.
func (l *SourceLine) parseList(kind OperandKind, item func() *Operand) *Operand {
	l.c.skipSpace()
	list := &Operand{Kind: kind, Value: Resolved(0), Column: l.c.pos + 1}
	start := l.c.pos
	items := 0
	for {
		l.c.skipSpace()
		if l.c.peek() != ',' {
			if it := item(); it != nil {
				items++
				list.Bytes = append(list.Bytes, it.Bytes...)
				list.Undefined = append(list.Undefined, it.Undefined...)
				if it.HasError() {
					list.fail(it.Error)
				}
			}
		}
		save := l.c.pos
		l.c.skipSpace()
		if l.c.peek() != ',' {
			l.c.pos = save
			break
		}
		l.c.munch(1)
	}
	list.Text = strings.TrimSpace(l.c.src[start:l.c.pos])
	if items == 0 && list.Text == "" {
		list.fail("valid value not found")
	}
	return list
}

func (l *SourceLine) parseDBItem() *Operand {
	save := l.c.pos
	op := l.parseImm8()
	if op.Text != "" {
		return op
	}
	l.c.pos = save
	return l.parseString()
}

func (l *SourceLine) parseDWItem() *Operand {
	save := l.c.pos
	op := l.parseImm16()
	if op.Text != "" {
		return op
	}
	l.c.pos = save
	return nil
}

func (l *SourceLine) parseDBList() *Operand {
	return l.parseList(OperandDBList, l.parseDBItem)
}

func (l *SourceLine) parseDWList() *Operand {
	return l.parseList(OperandDWList, l.parseDWItem)
}

// parseDSSize reads the size of a DS block. It emits no bytes.
func (l *SourceLine) parseDSSize() *Operand {
	op := l.parseExpression(0)
	op.Kind = OperandDSSize
	return op
}
