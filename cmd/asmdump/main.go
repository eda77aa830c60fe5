// Command asmdump assembles a single source file and prints every stage:
// the logical lines after continuation joining, each assembled line with its
// parsed label, instruction and operands, and the final symbol table.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/golang/glog"
	"github.com/k0kubun/pp/v3"

	"xasm8080/pkg/asm"
)

const testSource = `        ORG 100H
COUNT   EQU 3
START:  MVI B,COUNT
.LOOP:  DCR B
        JNZ .LOOP
        DB 'OK',0
        END
`

// dumper prints each line of the final pass.
type dumper struct {
	printer *pp.PrettyPrinter
}

func (d *dumper) Line(l *asm.SourceLine) {
	fmt.Printf("%s:%d  %s  % X\n", l.File, l.Number, l.StartAddress, l.Bytes)
	if l.Label != nil {
		fmt.Printf("  label   %s %s (parent %q)\n", l.Label.Kind, l.Label.Text, l.Label.Parent)
	}
	if l.Instruction != nil {
		fmt.Printf("  instr   %s %02X %v\n", l.Instruction.Mnemonic, l.Instruction.Opcode, l.Instruction.Model)
	}
	for _, op := range l.Operands {
		fmt.Printf("  operand %-8s %-12q %s mod=%02X\n", op.Kind, op.Text, op.Value, op.Modifier)
	}
	for _, e := range l.Errors {
		fmt.Printf("  error   %s\n", e)
	}
}

func (d *dumper) Finish(syms *asm.SymbolTable) error {
	fmt.Println()
	fmt.Print(syms)
	fmt.Println()
	_, err := d.printer.Println(syms.Symbols())
	return err
}

func main() {
	flag.Parse()
	defer glog.Flush()

	src := asm.NewSource("test.asm", testSource)
	if flag.NArg() > 0 {
		var err error
		src, err = asm.LoadFile(flag.Arg(0))
		if err != nil {
			fmt.Fprintln(os.Stderr, "read error:", err)
			os.Exit(1)
		}
	}

	fmt.Printf("Source (%d logical lines)\n", len(src.Lines))
	for _, l := range src.Lines {
		fmt.Printf("  %4d  %s\n", l.Number, l.Text)
	}
	fmt.Println()

	printer := pp.New()
	printer.SetExportedOnly(true)

	a := asm.NewAssembler(src)
	a.SetReporter(&dumper{printer: printer})
	res, err := a.Assemble()
	if err != nil {
		fmt.Fprintln(os.Stderr, "assembly error:", err)
	}
	if res != nil {
		fmt.Printf("\n%d passes, unresolved per pass %v, %d bytes at %04XH\n",
			res.Passes, res.History, len(res.Image), res.Origin)
	}
	if err != nil {
		os.Exit(1)
	}
}
