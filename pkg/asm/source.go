package asm

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
)

// LogicalLine is a source line after continuation joining.
type LogicalLine struct {
	Text   string
	Number int // physical line the logical line starts on
}

// SourceFile is one input file, ready to assemble.
type SourceFile struct {
	Name  string
	Lines []LogicalLine
}

const continuation = `\`

// ReadSource reads r as assembler source. A physical line ending in a
// backslash is joined with the next one; the backslash on the last line of
// the input is kept as text.
func ReadSource(name string, r io.Reader) (*SourceFile, error) {
	var physical []string
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		physical = append(physical, strings.TrimRight(sc.Text(), "\r"))
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read %s: %w", name, err)
	}

	src := &SourceFile{Name: name}
	for i := 0; i < len(physical); i++ {
		start := i + 1
		text := physical[i]
		for strings.HasSuffix(text, continuation) && i+1 < len(physical) {
			i++
			text = text[:len(text)-1] + physical[i]
		}
		src.Lines = append(src.Lines, LogicalLine{Text: text, Number: start})
	}
	return src, nil
}

// NewSource builds a SourceFile from in-memory text.
func NewSource(name, text string) *SourceFile {
	src, err := ReadSource(name, strings.NewReader(text))
	if err != nil {
		return &SourceFile{Name: name}
	}
	return src
}

// LoadFile reads the source file at path. The file is named by path in
// symbol keys and diagnostics.
func LoadFile(path string) (*SourceFile, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open source: %w", err)
	}
	defer f.Close()
	return ReadSource(path, f)
}
