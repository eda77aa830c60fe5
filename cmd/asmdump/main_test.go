package main

import (
	"bytes"
	"io"
	"os"
	"strings"
	"testing"

	"github.com/k0kubun/pp/v3"

	"xasm8080/pkg/asm"
)

func TestDumpTestSource(t *testing.T) {
	a := asm.NewAssembler(asm.NewSource("test.asm", testSource))
	printer := pp.New()
	printer.SetColoringEnabled(false)
	a.SetReporter(&dumper{printer: printer})

	// Capture stdout
	oldStdout := os.Stdout
	r, w, _ := os.Pipe()
	os.Stdout = w

	res, err := a.Assemble()

	w.Close()
	os.Stdout = oldStdout
	var buf bytes.Buffer
	io.Copy(&buf, r)

	if err != nil {
		t.Fatalf("Assemble failed: %v", err)
	}
	want := []byte{0x06, 0x03, 0x05, 0xC2, 0x02, 0x01, 'O', 'K', 0x00}
	if !bytes.Equal(res.Image, want) {
		t.Errorf("image = % X; want % X", res.Image, want)
	}

	out := buf.String()
	for _, s := range []string{
		"test.asm:3  0100H  06 03",
		"label   Local LOOP (parent \"START\")",
		"instr   JNZ C2 imm16",
		"START.LOOP@test.asm",
	} {
		if !strings.Contains(out, s) {
			t.Errorf("dump missing %q:\n%s", s, out)
		}
	}
}
