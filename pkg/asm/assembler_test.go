package asm

import (
	"bytes"
	"errors"
	"reflect"
	"strings"
	"testing"
)

func assembleOne(t *testing.T, code string) (*Result, *Assembler, error) {
	t.Helper()
	a := NewAssembler(NewSource("t.asm", code))
	res, err := a.Assemble()
	if res == nil {
		t.Fatalf("Assemble returned no result: %v", err)
	}
	return res, a, err
}

func TestInstructionEncoding(t *testing.T) {
	tests := []struct {
		src  string
		want []byte
	}{
		{"NOP", []byte{0x00}},
		{"HLT", []byte{0x76}},
		{"xchg", []byte{0xEB}},
		{"MOV A,B", []byte{0x78}},
		{"MOV M,A", []byte{0x77}},
		{"mov e , h", []byte{0x5C}},
		{"MVI B,12H", []byte{0x06, 0x12}},
		{"MVI A,-1", []byte{0x3E, 0xFF}},
		{"MVI M,'Z'", []byte{0x36, 0x5A}},
		{"LXI H,1234H", []byte{0x21, 0x34, 0x12}},
		{"LXI SP,0", []byte{0x31, 0x00, 0x00}},
		{"lxi d,100H", []byte{0x11, 0x00, 0x01}},
		{"LXI BC,1", []byte{0x01, 0x01, 0x00}},
		{"PUSH PSW", []byte{0xF5}},
		{"PUSH D", []byte{0xD5}},
		{"POP B", []byte{0xC1}},
		{"POP HL", []byte{0xE1}},
		{"STAX D", []byte{0x12}},
		{"LDAX B", []byte{0x0A}},
		{"INR A", []byte{0x3C}},
		{"DCR M", []byte{0x35}},
		{"ADD C", []byte{0x81}},
		{"CMP M", []byte{0xBE}},
		{"INX SP", []byte{0x33}},
		{"DAD H", []byte{0x29}},
		{"RST 0", []byte{0xC7}},
		{"RST 7", []byte{0xFF}},
		{"RST 2+1", []byte{0xDF}},
		{"JMP 1234H", []byte{0xC3, 0x34, 0x12}},
		{"CALL 5", []byte{0xCD, 0x05, 0x00}},
		{"IN 10H", []byte{0xDB, 0x10}},
		{"OUT 0FEH ; port", []byte{0xD3, 0xFE}},
		{"ANI 1FFH", []byte{0xE6, 0xFF}},
		{"DB 1,'A',3", []byte{0x01, 0x41, 0x03}},
		{"DB 1,,3", []byte{0x01, 0x03}},
		{"DB 'HI',0", []byte{0x48, 0x49, 0x00}},
		{`DB "A\"B"`, []byte{0x41, 0x22, 0x42}},
		{"DB 'A'+1", []byte{0x42}},
		{"DW 1234H,5", []byte{0x34, 0x12, 0x05, 0x00}},
	}
	for _, tc := range tests {
		t.Run(tc.src, func(t *testing.T) {
			res, _, err := assembleOne(t, "ORG 0\n "+tc.src)
			if err != nil {
				t.Fatalf("Assemble: %v", err)
			}
			if len(res.Errors) > 0 {
				t.Fatalf("errors: %v", res.Errors)
			}
			if !bytes.Equal(res.Image, tc.want) {
				t.Errorf("%s = % X; want % X", tc.src, res.Image, tc.want)
			}
		})
	}
}

func TestOrgWindow(t *testing.T) {
	res, a, err := assembleOne(t, "ORG 0100H\nMVI A,1\nRET")
	if err != nil {
		t.Fatal(err)
	}
	lo, hi, ok := a.Code.Range()
	if !ok || lo != 0x100 || hi != 0x102 {
		t.Errorf("Range() = %04X %04X; want 0100 0102", lo, hi)
	}
	if res.Origin != 0x100 || len(res.Image) != 3 {
		t.Errorf("origin %04X, %d bytes; want 0100, 3 bytes", res.Origin, len(res.Image))
	}
}

func TestForwardReference(t *testing.T) {
	res, _, err := assembleOne(t, `
        ORG 0
        JMP FWD
        NOP
FWD:    HLT
`)
	if err != nil {
		t.Fatal(err)
	}
	want := []byte{0xC3, 0x04, 0x00, 0x00, 0x76}
	if !bytes.Equal(res.Image, want) {
		t.Errorf("image = % X; want % X", res.Image, want)
	}
}

func TestEndStopsPass(t *testing.T) {
	res, a, err := assembleOne(t, "ORG 0\nNOP\nEND\nHLT\nLATE: NOP")
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(res.Image, []byte{0x00}) {
		t.Errorf("image = % X; want 00", res.Image)
	}
	if _, ok := a.Symbols.Get("LATE@t.asm"); ok {
		t.Error("label after END was assembled")
	}
}

func TestEndSkipsRemainingFiles(t *testing.T) {
	a := NewAssembler(
		NewSource("a.asm", "ORG 0\nNOP\nEND"),
		NewSource("b.asm", "HLT"),
	)
	res, err := a.Assemble()
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(res.Image, []byte{0x00}) {
		t.Errorf("image = % X; want 00", res.Image)
	}
}

func TestLocalLabelKeys(t *testing.T) {
	_, a, err := assembleOne(t, `
        ORG 0
START:  MVI B,2
.LOOP:  DCR B
        JNZ .LOOP
OTHER:  MVI C,2
.LOOP:  DCR C
        JNZ .LOOP
        JMP START.LOOP
`)
	if err != nil {
		t.Fatal(err)
	}
	for key, want := range map[string]uint16{
		"START.LOOP@t.asm": 2,
		"OTHER.LOOP@t.asm": 8,
		"START@t.asm":      0,
		"OTHER@t.asm":      6,
	} {
		sym, ok := a.Symbols.Get(key)
		if !ok {
			t.Errorf("no symbol %s", key)
			continue
		}
		if got, ok := sym.Value.Get(); !ok || got != want {
			t.Errorf("%s = %v; want %04XH", key, sym.Value, want)
		}
	}
}

func TestGlobalAcrossFiles(t *testing.T) {
	a := NewAssembler(
		NewSource("a.asm", "ORG 0\nCALL $PRINT"),
		NewSource("b.asm", "$PRINT: RET"),
	)
	res, err := a.Assemble()
	if err != nil {
		t.Fatal(err)
	}
	want := []byte{0xCD, 0x03, 0x00, 0xC9}
	if !bytes.Equal(res.Image, want) {
		t.Errorf("image = % X; want % X", res.Image, want)
	}
	sym, ok := a.Symbols.Get("$PRINT@b.asm")
	if !ok {
		t.Fatalf("global not keyed by its declaring file:\n%s", a.Symbols)
	}
	if len(sym.Refs) != 1 || sym.Refs[0] != (Location{File: "a.asm", Line: 2}) {
		t.Errorf("refs = %v; want [a.asm:2]", sym.Refs)
	}
}

func TestStaticLabelsArePerFile(t *testing.T) {
	a := NewAssembler(
		NewSource("a.asm", "ORG 0\nHERE: JMP HERE"),
		NewSource("b.asm", "HERE: JMP HERE"),
	)
	res, err := a.Assemble()
	if err != nil {
		t.Fatal(err)
	}
	want := []byte{0xC3, 0x00, 0x00, 0xC3, 0x03, 0x00}
	if !bytes.Equal(res.Image, want) {
		t.Errorf("image = % X; want % X", res.Image, want)
	}
}

func TestConvergenceHistory(t *testing.T) {
	res, a, err := assembleOne(t, "A EQU B\nB EQU C\nC EQU 5")
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(res.History, []int{2, 1, 0}) {
		t.Errorf("History = %v; want [2 1 0]", res.History)
	}
	if res.Passes != 4 {
		t.Errorf("Passes = %d; want 4", res.Passes)
	}
	for i := 1; i < len(res.History); i++ {
		if res.History[i] > res.History[i-1] {
			t.Errorf("unresolved count grew: %v", res.History)
		}
	}
	if sym, _ := a.Symbols.Get("A@t.asm"); sym.Value.Or(0) != 5 {
		t.Errorf("A = %v; want 0005H", sym.Value)
	}
}

func TestUnresolvedAbortsWithListing(t *testing.T) {
	var rep recorder
	a := NewAssembler(NewSource("t.asm", "ORG 0\nJMP NOWHERE"))
	a.SetReporter(&rep)
	res, err := a.Assemble()
	if !errors.Is(err, ErrUnresolvedSymbols) {
		t.Fatalf("err = %v; want ErrUnresolvedSymbols", err)
	}
	if !strings.Contains(err.Error(), "1 unresolved symbols") {
		t.Errorf("err = %q", err)
	}
	if res.Unresolved != 1 {
		t.Errorf("Unresolved = %d; want 1", res.Unresolved)
	}
	if len(rep.lines) != 2 || !rep.finished {
		t.Errorf("reporter saw %d lines, finished=%v", len(rep.lines), rep.finished)
	}
	if !hasError(res.Errors, UnresolvedSymbolError) {
		t.Errorf("errors = %v; want an unresolved symbol error", res.Errors)
	}
	if !bytes.Equal(res.Image, []byte{0xC3, 0, 0}) {
		t.Errorf("image = % X; want placeholder C3 00 00", res.Image)
	}
}

func TestDirectives(t *testing.T) {
	res, a, err := assembleOne(t, `
        ORG 10H
X       EQU 5
SIZE:   EQU X*2
        NOP
BUF:    DS SIZE
        DB 0FFH
`)
	if err != nil {
		t.Fatal(err)
	}
	if res.Origin != 0x10 || len(res.Image) != 12 || res.Image[11] != 0xFF {
		t.Errorf("origin %04X image % X", res.Origin, res.Image)
	}
	for key, want := range map[string]uint16{"X@t.asm": 5, "SIZE@t.asm": 10, "BUF@t.asm": 0x11} {
		sym, _ := a.Symbols.Get(key)
		if sym == nil || sym.Value.Or(0xFFFF) != want {
			t.Errorf("%s = %v; want %04XH", key, sym, want)
		}
	}
}

func TestLineErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		kind ErrorKind
	}{
		{"no org", "NOP", AddressUndefinedError},
		{"ds before org", "DS 2", AddressUndefinedError},
		{"org without operand", "ORG", MissingOperandError},
		{"equ without operand", "X EQU", MissingOperandError},
		{"duplicate label", "ORG 0\nA: NOP\nA: NOP", DuplicateLabelError},
		{"mov m,m", "ORG 0\nMOV M,M", ParseError},
		{"trailing text", "ORG 0\nNOP foo", ParseError},
		{"missing comma", "ORG 0\nMVI A 1", ParseError},
		{"bad register", "ORG 0\nINR Q", ParseError},
		{"bad pair", "ORG 0\nSTAX H", ParseError},
		{"rst range", "ORG 0\nRST 8", ParseError},
		{"divide by zero", "ORG 0\nDB 1/0", ParseError},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			res, _, _ := assembleOne(t, tc.src)
			if !hasError(res.Errors, tc.kind) {
				t.Errorf("errors = %v; want a %v", res.Errors, tc.kind)
			}
		})
	}
}

func TestUnknownMnemonicIgnored(t *testing.T) {
	res, _, err := assembleOne(t, "ORG 0\nLDIR\nNOP")
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Errors) != 0 || !bytes.Equal(res.Image, []byte{0x00}) {
		t.Errorf("errors %v image % X", res.Errors, res.Image)
	}
}

func TestPlaceholderKeepsSize(t *testing.T) {
	res, _, err := assembleOne(t, "ORG 0\nLXI H,(1\nNOP")
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Image) != 4 || res.Image[3] != 0x00 {
		t.Errorf("image = % X; want 4 bytes", res.Image)
	}
	if !hasError(res.Errors, ParseError) {
		t.Errorf("errors = %v; want a parse error", res.Errors)
	}
}

func TestLineContinuationAssembles(t *testing.T) {
	res, _, err := assembleOne(t, "ORG 0\nDB 1,\\\n   2")
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(res.Image, []byte{1, 2}) {
		t.Errorf("image = % X; want 01 02", res.Image)
	}
}

func TestAssembleSourceMap(t *testing.T) {
	code := `
; comment
        ORG 0
        MVI A,10        ; line 4
LABEL:                  ; line 5
        ADD B           ; line 6
        ORG 10H
        HLT             ; line 8
        DB 'AB',0       ; line 9
`
	_, sourceMap, err := Assemble(code)
	if err != nil {
		t.Fatalf("Assemble failed: %v", err)
	}

	tests := []struct {
		addr uint16
		line int
	}{
		{0x0000, 4},
		{0x0002, 6},
		{0x0010, 8},
		{0x0011, 9},
	}
	for _, tc := range tests {
		if got := sourceMap[tc.addr]; got != tc.line {
			t.Errorf("sourceMap[0x%04X] = %d; want %d", tc.addr, got, tc.line)
		}
	}
	if len(sourceMap) != len(tests) {
		t.Errorf("sourceMap has %d entries; want %d", len(sourceMap), len(tests))
	}
}

func TestAssembleReturnsFirstLineError(t *testing.T) {
	_, _, err := Assemble("ORG 0\nMOV M,M")
	var le *LineError
	if !errors.As(err, &le) {
		t.Fatalf("err = %v; want *LineError", err)
	}
	if le.Line != 2 || le.Kind != ParseError {
		t.Errorf("err = %v", le)
	}
}

type recorder struct {
	lines    []*SourceLine
	finished bool
}

func (r *recorder) Line(l *SourceLine) { r.lines = append(r.lines, l) }

func (r *recorder) Finish(*SymbolTable) error {
	r.finished = true
	return nil
}

func hasError(errs []*LineError, kind ErrorKind) bool {
	for _, e := range errs {
		if e.Kind == kind {
			return true
		}
	}
	return false
}
