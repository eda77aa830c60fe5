package asm

import "fmt"

// Value is a 16-bit quantity that may not be known yet. The zero Value is
// Unresolved.
type Value struct {
	word     uint16
	resolved bool
}

// Unresolved is the Value of a forward reference, an undefined address or a
// failed expression.
var Unresolved = Value{}

// Resolved wraps a known word.
func Resolved(w uint16) Value {
	return Value{word: w, resolved: true}
}

// Get returns the word and whether it is known.
func (v Value) Get() (uint16, bool) {
	return v.word, v.resolved
}

// IsResolved reports whether the value is known.
func (v Value) IsResolved() bool {
	return v.resolved
}

// Or returns the word, or def when unresolved.
func (v Value) Or(def uint16) uint16 {
	if !v.resolved {
		return def
	}
	return v.word
}

func (v Value) String() string {
	if !v.resolved {
		return "undefined"
	}
	return fmt.Sprintf("%04XH", v.word)
}
