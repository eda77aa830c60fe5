// Package asm is a multi-pass assembler for the Intel 8080. Passes repeat
// until every symbol has a value or a pass stops reducing the number of
// unresolved symbols; one last pass then produces the image, the errors and
// the listing.
package asm

import (
	"fmt"

	"github.com/golang/glog"
)

// Reporter receives the results of the final pass: each assembled line in
// source order, then the symbol table.
type Reporter interface {
	Line(l *SourceLine)
	Finish(syms *SymbolTable) error
}

// Result describes a finished assembly.
type Result struct {
	Passes     int
	History    []int // unresolved symbol count after each pass
	Unresolved int
	Origin     uint16 // address of Image[0]
	Image      []byte
	Errors     []*LineError

	// SourceMap maps the address of each code-emitting line to that line.
	SourceMap map[uint16]Location
}

type Assembler struct {
	Symbols *SymbolTable
	Code    *CodeBuffer

	files    []*SourceFile
	reporter Reporter
}

func NewAssembler(files ...*SourceFile) *Assembler {
	return &Assembler{
		Symbols: NewSymbolTable(),
		Code:    NewCodeBuffer(),
		files:   files,
	}
}

// SetReporter installs r to receive the final pass.
func (a *Assembler) SetReporter(r Reporter) {
	a.reporter = r
}

// Assemble runs the pass loop followed by the final pass. When symbols are
// still unresolved at the end the Result is returned together with an error
// wrapping ErrUnresolvedSymbols.
func (a *Assembler) Assemble() (*Result, error) {
	res := &Result{}
	prior := 0
	for pass := 1; ; pass++ {
		a.runPass(false, nil)
		unresolved := a.Symbols.UnresolvedCount()
		res.History = append(res.History, unresolved)
		glog.V(1).Infof("pass %d: %d symbols, %d unresolved", pass, a.Symbols.Len(), unresolved)

		// Stop once nothing is left or a pass made no progress.
		final := pass > 1 && (unresolved == 0 || unresolved >= prior)
		prior = unresolved
		if final {
			break
		}
	}

	a.Symbols.ClearRefs()
	res.SourceMap = make(map[uint16]Location)
	a.runPass(true, res)
	res.Passes = len(res.History) + 1
	res.Unresolved = a.Symbols.UnresolvedCount()
	res.Image = a.Code.Output()
	if lo, _, ok := a.Code.Range(); ok {
		res.Origin = lo
	}
	glog.V(1).Infof("final pass %d: %d bytes, %d errors", res.Passes, len(res.Image), len(res.Errors))

	if a.reporter != nil {
		if err := a.reporter.Finish(a.Symbols); err != nil {
			return res, fmt.Errorf("write report: %w", err)
		}
	}
	if res.Unresolved > 0 {
		return res, fmt.Errorf("assembly aborted after %d passes: %d %w", res.Passes, res.Unresolved, ErrUnresolvedSymbols)
	}
	return res, nil
}

// runPass assembles every file once. On the final pass res collects the
// errors and the source map and the reporter sees every line.
func (a *Assembler) runPass(final bool, res *Result) {
	a.Code.Reset()
	for _, f := range a.files {
		scope := &Scope{File: f.Name}
		env := &passState{syms: a.Symbols, code: a.Code, scope: scope, final: final}
		for _, ll := range f.Lines {
			l := newSourceLine(f.Name, ll.Number, ll.Text, env)
			l.assemble()
			if final {
				glog.V(2).Infof("%s:%d %s %X", l.File, l.Number, l.StartAddress, l.Bytes)
				res.Errors = append(res.Errors, l.Errors...)
				if a0, ok := l.StartAddress.Get(); ok && len(l.Bytes) > 0 {
					res.SourceMap[a0] = Location{File: l.File, Line: l.Number}
				}
				if a.reporter != nil {
					a.reporter.Line(l)
				}
			}
			if l.End {
				return
			}
		}
	}
}

// Assemble assembles a single in-memory source and returns the image with a
// map from each instruction's address to its line number.
func Assemble(code string) ([]byte, map[uint16]int, error) {
	a := NewAssembler(NewSource("main.asm", code))
	res, err := a.Assemble()
	if err != nil {
		return nil, nil, err
	}
	if len(res.Errors) > 0 {
		return nil, nil, res.Errors[0]
	}
	sourceMap := make(map[uint16]int, len(res.SourceMap))
	for addr, loc := range res.SourceMap {
		sourceMap[addr] = loc.Line
	}
	return res.Image, sourceMap, nil
}
