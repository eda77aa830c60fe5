package asm

import (
	"fmt"
	"strings"
	"testing"
)

// smallProgram is a countdown loop.
const smallProgram = `
        ORG 100H
        MVI B,10
LOOP:   DCR B
        JNZ LOOP
        HLT
`

// mediumProgram has subroutines, local labels, forward references and data.
const mediumProgram = `
        ORG 0100H
STACK   EQU 0F000H
        LXI SP,STACK
        JMP MAIN

; copy C bytes from (HL) to (DE)
COPY:   MOV A,C
        ORA A
        RZ
.LOOP:  MOV A,M
        STAX D
        INX H
        INX D
        DCR C
        JNZ .LOOP
        RET

; print the zero terminated string at (HL)
PRINT:  MOV A,M
        ORA A
        RZ
        OUT CONOUT
        INX H
        JMP PRINT

MAIN:   LXI H,MSG
        LXI D,BUF
        MVI C,MSGLEN
        CALL COPY
        LXI H,BUF
        CALL PRINT
        HLT

CONOUT  EQU 1
MSG:    DB 'Hello, World!',0DH,0AH,0
MSGLEN  EQU $-MSG
BUF:    DS MSGLEN
        DW MSG, BUF, MSGLEN*2
`

// largeProgram repeats a block of routines, each under its own static label.
var largeProgram = func() string {
	var sb strings.Builder
	sb.WriteString("        ORG 0\n        JMP R0\n")
	for i := 0; i < 40; i++ {
		fmt.Fprintf(&sb, `
R%d:     MVI B,%d
.LOOP:  MOV A,B
        ANI 0FH
        CPI 0AH
        JC .DIGIT
        ADI 'A'-'0'-10
.DIGIT: ADI '0'
        OUT 2
        DCR B
        JNZ .LOOP
        JMP R%d
`, i, i+1, i+1)
	}
	fmt.Fprintf(&sb, "R%d:     HLT\n", 40)
	return sb.String()
}()

func BenchmarkAssemble_Small(b *testing.B) {
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		_, _, err := Assemble(smallProgram)
		if err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkAssemble_Medium(b *testing.B) {
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		_, _, err := Assemble(mediumProgram)
		if err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkAssemble_Large(b *testing.B) {
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		_, _, err := Assemble(largeProgram)
		if err != nil {
			b.Fatal(err)
		}
	}
}

func TestBenchmarkProgramsAssemble(t *testing.T) {
	for name, src := range map[string]string{"small": smallProgram, "medium": mediumProgram, "large": largeProgram} {
		if _, _, err := Assemble(src); err != nil {
			t.Errorf("%s: %v", name, err)
		}
	}
}
