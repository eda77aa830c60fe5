package asm

import (
	"errors"
	"fmt"
)

// ErrUnresolvedSymbols is returned by Assemble when the pass loop stopped
// making progress with symbols still lacking a value.
var ErrUnresolvedSymbols = errors.New("unresolved symbols")

// ErrorKind classifies a LineError.
type ErrorKind int

const (
	ParseError ErrorKind = iota
	UnresolvedSymbolError
	AddressUndefinedError
	MissingOperandError
	DuplicateLabelError
	InternalError
)

var errorKindNames = [...]string{
	ParseError:            "parse error",
	UnresolvedSymbolError: "unresolved symbol",
	AddressUndefinedError: "address undefined",
	MissingOperandError:   "missing operand",
	DuplicateLabelError:   "duplicate label",
	InternalError:         "internal error",
}

func (k ErrorKind) String() string {
	if k < 0 || int(k) >= len(errorKindNames) {
		return "error"
	}
	return errorKindNames[k]
}

// LineError is a problem found on one source line. Column is 1-based; 0 means
// the whole line.
type LineError struct {
	Kind    ErrorKind
	File    string
	Line    int
	Column  int
	Message string
}

func (e *LineError) Error() string {
	if e.Column > 0 {
		return fmt.Sprintf("%s:%d:%d: %s: %s", e.File, e.Line, e.Column, e.Kind, e.Message)
	}
	return fmt.Sprintf("%s:%d: %s: %s", e.File, e.Line, e.Kind, e.Message)
}
