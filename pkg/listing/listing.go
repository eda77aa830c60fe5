// Package listing writes the human readable products of an assembly: the
// listing, the symbol table with cross references, and the error file.
package listing

import (
	"fmt"
	"io"
	"os"
	"strings"

	"xasm8080/pkg/asm"
)

const bytesPerRow = 3

// Writer receives the final pass from the assembler and formats it. Any of
// the three destinations may be nil. The first write error is kept and
// returned by Finish.
type Writer struct {
	lst, sym, errs io.Writer
	closers        []io.Closer

	errors []*asm.LineError
	err    error
}

var _ asm.Reporter = (*Writer)(nil)

// New returns a Writer for the given destinations.
func New(listing, symbols, errors io.Writer) *Writer {
	return &Writer{lst: listing, sym: symbols, errs: errors}
}

// Create opens base.lst, base.xrf and base.err for writing.
func Create(base string) (*Writer, error) {
	var files []*os.File
	for _, ext := range []string{".lst", ".xrf", ".err"} {
		f, err := os.Create(base + ext)
		if err != nil {
			for _, open := range files {
				open.Close()
			}
			return nil, fmt.Errorf("create %s: %w", base+ext, err)
		}
		files = append(files, f)
	}
	w := New(files[0], files[1], files[2])
	for _, f := range files {
		w.closers = append(w.closers, f)
	}
	return w, nil
}

// Close closes the files opened by Create.
func (w *Writer) Close() error {
	var first error
	for _, c := range w.closers {
		if err := c.Close(); err != nil && first == nil {
			first = err
		}
	}
	w.closers = nil
	return first
}

func (w *Writer) printf(dst io.Writer, format string, args ...any) {
	if dst == nil || w.err != nil {
		return
	}
	if _, err := fmt.Fprintf(dst, format, args...); err != nil {
		w.err = err
	}
}

// Line writes the listing rows of one source line: the line number, the
// start address and up to three bytes on the first row, with further bytes
// on continuation rows, followed by a row per error.
func (w *Writer) Line(l *asm.SourceLine) {
	w.errors = append(w.errors, l.Errors...)
	if w.lst != nil {
		w.printf(w.lst, "%s", FormatLine(l))
	}
}

// FormatLine returns the listing rows for l.
func FormatLine(l *asm.SourceLine) string {
	var sb strings.Builder
	addr, known := l.StartAddress.Get()
	addrStr := "    "
	if known {
		addrStr = fmt.Sprintf("%04X", addr)
	}

	if len(l.Bytes) == 0 {
		fmt.Fprintf(&sb, "%5d %s          %s\n", l.Number, addrStr, l.Text)
	}
	for i := 0; i < len(l.Bytes); i += bytesPerRow {
		if i == 0 {
			fmt.Fprintf(&sb, "%5d %s", l.Number, addrStr)
		} else {
			fmt.Fprintf(&sb, "      %04X", addr+uint16(i))
		}
		for j := i; j < i+bytesPerRow; j++ {
			if j < len(l.Bytes) {
				fmt.Fprintf(&sb, " %02X", l.Bytes[j])
			} else {
				sb.WriteString("   ")
			}
		}
		if i == 0 {
			sb.WriteString(" " + l.Text)
		}
		sb.WriteString("\n")
	}

	for _, e := range l.Errors {
		fmt.Fprintf(&sb, "***** %s\n", e)
	}
	return sb.String()
}

// SymbolRow formats one symbol table entry: kind, declared name and
// location padded to 70 columns, then the value.
func SymbolRow(s *asm.Symbol) string {
	row := fmt.Sprintf("%-6s ", s.Kind)
	if s.Kind == asm.LabelLocal {
		row += s.Parent + "."
	}
	row += fmt.Sprintf("%s@%s:%d", s.Label, s.File, s.Line)
	if v, ok := s.Value.Get(); ok {
		return fmt.Sprintf("%-70s = %04X", row, v)
	}
	return fmt.Sprintf("%-70s = null (undefined)", row)
}

func refsRow(s *asm.Symbol) string {
	if len(s.Refs) == 0 {
		return "       refs: (none)"
	}
	locs := make([]string, len(s.Refs))
	for i, r := range s.Refs {
		locs[i] = r.String()
	}
	return "       refs: " + strings.Join(locs, " ")
}

// Finish writes the symbol table and the error file.
func (w *Writer) Finish(syms *asm.SymbolTable) error {
	if w.sym != nil {
		w.printf(w.sym, "*** SYMBOL TABLE ***\n")
		w.printf(w.sym, "%d entries.\n", syms.Len())
		for _, s := range syms.Symbols() {
			w.printf(w.sym, "%s\n%s\n", SymbolRow(s), refsRow(s))
		}
		w.printf(w.sym, "*** END ***\n")
	}

	if w.errs != nil {
		for _, e := range w.errors {
			w.printf(w.errs, "%s\n", e)
		}
		w.printf(w.errs, "%d errors, %d unresolved symbols\n", len(w.errors), syms.UnresolvedCount())
	}
	return w.err
}

// Errors returns the line errors seen so far.
func (w *Writer) Errors() []*asm.LineError {
	return w.errors
}
