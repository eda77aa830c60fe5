package asm

import (
	"fmt"

	"github.com/golang/glog"

	"xasm8080/pkg/i8080"
)

// passState is what a line needs from the pass it is assembled in.
type passState struct {
	syms  *SymbolTable
	code  *CodeBuffer
	scope *Scope
	final bool
}

// SourceLine is one logical source line and everything parsing and
// assembling it produced.
type SourceLine struct {
	File   string
	Number int // physical line the logical line starts on
	Text   string

	Label       *LabelDeclaration
	Instruction *i8080.Instruction
	Operands    []*Operand
	Comment     string
	Errors      []*LineError

	Bytes        []byte // bytes emitted by this line
	StartAddress Value  // address before the line was assembled
	End          bool   // the line was an END directive

	c     cursor
	env   *passState
	depth int
}

func newSourceLine(file string, number int, text string, env *passState) *SourceLine {
	return &SourceLine{
		File:   file,
		Number: number,
		Text:   text,
		c:      cursor{src: text},
		env:    env,
	}
}

// HasErrors reports whether any error was recorded on the line.
func (l *SourceLine) HasErrors() bool {
	return len(l.Errors) > 0
}

func (l *SourceLine) addError(kind ErrorKind, column int, format string, args ...any) {
	l.Errors = append(l.Errors, &LineError{
		Kind:    kind,
		File:    l.File,
		Line:    l.Number,
		Column:  column,
		Message: fmt.Sprintf(format, args...),
	})
}

// assemble parses the line and emits its code.
func (l *SourceLine) assemble() {
	l.StartAddress = l.env.code.Address()
	l.parseLabel()
	l.parseInstruction()
	l.parseComment()
	l.generate()
	if l.env.final {
		l.checkUnresolved()
	}
}

func (l *SourceLine) parseLabel() {
	if decl, ok := parseLabelDeclaration(&l.c, l.env.scope, l.Number); ok {
		l.Label = decl
	}
}

func (l *SourceLine) parseInstruction() {
	l.c.skipSpace()
	start := l.c.pos
	n := scanLetters(l.c.src, start)
	if n == 0 {
		return
	}
	in, ok := i8080.Lookup(l.c.src[start : start+n])
	if !ok {
		if l.env.final {
			glog.V(2).Infof("%s:%d: ignoring unknown mnemonic %q", l.File, l.Number, l.c.src[start:start+n])
		}
		return
	}
	l.c.munch(n)
	l.Instruction = &in
	l.parseOperands(in.Model)

	l.c.skipSpace()
	if !l.c.eof() && l.c.peek() != ';' {
		l.addError(ParseError, l.c.pos+1, "unexpected text %q", l.c.rest())
		// Skip to the comment so it is still picked up.
		for !l.c.eof() && l.c.peek() != ';' {
			l.c.munch(1)
		}
	}
}

// parseOperands dispatches on the operand model of the instruction.
func (l *SourceLine) parseOperands(model i8080.OperandModel) {
	switch model {
	case i8080.ModelNone:
	case i8080.ModelR8Left:
		l.addOperand(l.parseR8Left())
	case i8080.ModelR8Right:
		l.addOperand(l.parseR8Right())
	case i8080.ModelR8R8:
		dst := l.parseR8Left()
		l.addOperand(dst)
		if !l.expectComma() {
			return
		}
		src := l.parseR8Right()
		l.addOperand(src)
		if !dst.HasError() && !src.HasError() && dst.Value == Resolved(regM) && src.Value == Resolved(regM) {
			l.addError(ParseError, dst.Column, "MOV M,M is not a valid instruction")
		}
	case i8080.ModelR16SP:
		l.addOperand(l.parseR16SP())
	case i8080.ModelR16PSW:
		l.addOperand(l.parseR16PSW())
	case i8080.ModelR16BD:
		l.addOperand(l.parseR16BD())
	case i8080.ModelImm8:
		l.addOperand(l.parseImm8())
	case i8080.ModelImm16:
		l.addOperand(l.parseImm16())
	case i8080.ModelR8Imm8:
		l.addOperand(l.parseR8Left())
		if l.expectComma() {
			l.addOperand(l.parseImm8())
		}
	case i8080.ModelR16SPImm16:
		l.addOperand(l.parseR16SP())
		if l.expectComma() {
			l.addOperand(l.parseImm16())
		}
	case i8080.ModelRst:
		l.addOperand(l.parseRst())
	case i8080.ModelDBList:
		l.addOperand(l.parseDBList())
	case i8080.ModelDWList:
		l.addOperand(l.parseDWList())
	case i8080.ModelDSSize:
		l.addOperand(l.parseDSSize())
	default:
		l.addError(InternalError, 0, "no operand parser for model %v", model)
	}
}

func (l *SourceLine) addOperand(op *Operand) {
	l.Operands = append(l.Operands, op)
	if !op.HasError() {
		return
	}
	if op.Text == "" {
		l.addError(MissingOperandError, op.Column, "%s", op.Error)
	} else {
		l.addError(ParseError, op.Column, "%s in %q", op.Error, op.Text)
	}
}

func (l *SourceLine) expectComma() bool {
	l.c.skipSpace()
	if l.c.peek() != ',' {
		l.addError(ParseError, l.c.pos+1, "expected ',' between operands")
		return false
	}
	l.c.munch(1)
	return true
}

func (l *SourceLine) parseComment() {
	l.c.skipSpace()
	if l.c.peek() == ';' {
		l.Comment = l.c.munch(len(l.c.src) - l.c.pos)
	}
}

// wordOperand returns the value of a directive's single operand.
func (l *SourceLine) wordOperand() (uint16, bool) {
	if len(l.Operands) != 1 || l.Operands[0].HasError() {
		return 0, false
	}
	return l.Operands[0].Value.Get()
}

func (l *SourceLine) mnemonic() string {
	if l.Instruction == nil {
		return ""
	}
	return l.Instruction.Mnemonic
}

// generate defines the line's label and emits the line's code.
func (l *SourceLine) generate() {
	code := l.env.code
	mnemonic := l.mnemonic()

	if l.Label != nil {
		var v Value
		switch mnemonic {
		case i8080.ORG, i8080.EQU:
			if w, ok := l.wordOperand(); ok {
				v = Resolved(w)
			}
		default:
			v = code.Address()
		}
		l.defineLabel(v)
	}

	if l.Instruction == nil {
		return
	}

	switch mnemonic {
	case i8080.END:
		l.End = true
		return
	case i8080.ORG, i8080.EQU, i8080.DS:
		w, ok := l.wordOperand()
		if !ok {
			if len(l.Operands) == 1 && !l.Operands[0].HasError() {
				l.addError(MissingOperandError, l.Operands[0].Column, "%s needs a resolved operand: %s undefined", mnemonic, l.Operands[0].Text)
			}
			return
		}
		switch mnemonic {
		case i8080.ORG:
			code.SetAddress(w)
		case i8080.DS:
			if !code.Address().IsResolved() {
				l.addError(AddressUndefinedError, 0, "DS before any ORG")
				return
			}
			code.Advance(w)
		}
		return
	}

	if !code.Address().IsResolved() {
		l.addError(AddressUndefinedError, 0, "no ORG before code")
		return
	}

	if !l.Instruction.PseudoOp {
		opcode := l.Instruction.Opcode
		for _, op := range l.Operands {
			opcode |= op.Modifier
		}
		code.EmitByte(opcode, &l.Bytes)
	}
	for _, op := range l.Operands {
		code.EmitBytes(op.Bytes, &l.Bytes)
	}
	if size := l.Instruction.Size(); size > 0 && !l.HasErrors() && len(l.Bytes) != size {
		l.addError(InternalError, 0, "%s emitted %d bytes, want %d", mnemonic, len(l.Bytes), size)
	}
}

// defineLabel looks the declared label up and assigns v. A label that
// already holds a value keeps it when v is unresolved.
func (l *SourceLine) defineLabel(v Value) {
	sym, err := l.env.syms.LookupDeclaration(*l.Label)
	if err != nil {
		l.addError(DuplicateLabelError, 1, "%v", err)
		return
	}
	if sym.Value.IsResolved() && !v.IsResolved() {
		l.addError(InternalError, 1, "%s lost its value %s", sym.Name(), sym.Value)
		glog.Warningf("%s:%d: %s lost its value %s", l.File, l.Number, sym.Name(), sym.Value)
		return
	}
	sym.Value = v
}

// checkUnresolved records an error for every symbol an operand could not
// resolve.
func (l *SourceLine) checkUnresolved() {
	seen := make(map[string]bool)
	for _, op := range l.Operands {
		for _, name := range op.Undefined {
			if seen[name] {
				continue
			}
			seen[name] = true
			l.addError(UnresolvedSymbolError, op.Column, "undefined symbol %s", name)
		}
	}
}
