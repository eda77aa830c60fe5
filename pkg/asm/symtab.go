package asm

import (
	"fmt"
	"sort"
	"strings"
)

// Location is a file and line pair.
type Location struct {
	File string
	Line int
}

func (l Location) String() string {
	return fmt.Sprintf("%s:%d", l.File, l.Line)
}

// Symbol is one symbol table entry. It starts life as a stub, created by
// whichever of a declaration or a reference is seen first, and acquires its
// Value when the declaring line is assembled.
type Symbol struct {
	Kind   LabelKind
	Label  string
	Parent string
	File   string // declaring file; "?" for a Global not yet declared
	Line   int    // declaring line; 0 until declared
	Value  Value

	// Refs holds the final-pass reference sites, for the cross reference.
	Refs []Location
}

// Key returns the symbol's table key.
func (s *Symbol) Key() string {
	return symbolKey(s.Kind, s.Label, s.Parent, s.File)
}

// Declared reports whether a declaration for the symbol has been seen.
func (s *Symbol) Declared() bool {
	return s.Line > 0
}

// Name returns the label as written, with its parent for locals.
func (s *Symbol) Name() string {
	switch s.Kind {
	case LabelGlobal:
		return "$" + s.Label
	case LabelLocal:
		return s.Parent + "." + s.Label
	default:
		return s.Label
	}
}

// SymbolTable maps symbol keys to entries. Lookups never fail: a miss
// inserts an unresolved stub so later passes see the same, growing table.
type SymbolTable struct {
	symbols map[string]*Symbol

	// globals maps a declared Global's name to its resolved key.
	globals map[string]string
}

func NewSymbolTable() *SymbolTable {
	return &SymbolTable{
		symbols: make(map[string]*Symbol),
		globals: make(map[string]string),
	}
}

// LookupDeclaration returns the entry for a label declared on a source line.
// A direct hit keeps its declaring file and only gains a missing line number.
// On a miss, a stub left by a forward reference to the same Global is
// promoted to the declared key. The error reports a label declared twice;
// the returned symbol is still usable.
func (t *SymbolTable) LookupDeclaration(d LabelDeclaration) (*Symbol, error) {
	key := d.Key()
	if key == "" {
		return nil, fmt.Errorf("label %q has no kind", d.Text)
	}

	if sym, ok := t.symbols[key]; ok {
		if sym.Line == 0 {
			sym.Line = d.Line
		} else if sym.Line != d.Line {
			return sym, fmt.Errorf("%s already declared at %s:%d", sym.Name(), sym.File, sym.Line)
		}
		return sym, nil
	}

	if d.Kind == LabelGlobal {
		if prior, ok := t.globals[d.Text]; ok {
			sym := t.symbols[prior]
			return sym, fmt.Errorf("global %s already declared at %s:%d", sym.Name(), sym.File, sym.Line)
		}
		stubKey := symbolKey(LabelGlobal, d.Text, "", unknownFile)
		if stub, ok := t.symbols[stubKey]; ok && d.File != "" && d.File != unknownFile {
			delete(t.symbols, stubKey)
			stub.File = d.File
			stub.Line = d.Line
			t.symbols[key] = stub
			t.globals[d.Text] = key
			return stub, nil
		}
	}

	sym := &Symbol{
		Kind:   d.Kind,
		Label:  d.Text,
		Parent: d.Parent,
		File:   d.File,
		Line:   d.Line,
	}
	t.symbols[key] = sym
	if d.Kind == LabelGlobal && d.File != "" && d.File != unknownFile {
		t.globals[d.Text] = key
	}
	return sym, nil
}

// LookupReference returns the entry a label reference points at. It never
// moves an existing entry; a miss inserts an unresolved stub.
func (t *SymbolTable) LookupReference(r LabelReference) *Symbol {
	key := r.Key()
	if key == "" {
		return nil
	}
	if r.Kind == LabelGlobal {
		if declared, ok := t.globals[r.Text]; ok {
			key = declared
		}
	}
	if sym, ok := t.symbols[key]; ok {
		return sym
	}
	if r.Kind == LabelGlobal {
		if stub, ok := t.symbols[symbolKey(LabelGlobal, r.Text, "", unknownFile)]; ok {
			return stub
		}
	}

	file := r.File
	if r.Kind == LabelGlobal {
		file = unknownFile
	}
	sym := &Symbol{
		Kind:   r.Kind,
		Label:  r.Text,
		Parent: r.Parent,
		File:   file,
	}
	t.symbols[key] = sym
	return sym
}

// Get returns the entry stored under key, if any.
func (t *SymbolTable) Get(key string) (*Symbol, bool) {
	sym, ok := t.symbols[key]
	return sym, ok
}

// UnresolvedCount returns how many entries still have no value. The pass
// controller stops when this stops shrinking.
func (t *SymbolTable) UnresolvedCount() int {
	n := 0
	for _, sym := range t.symbols {
		if !sym.Value.IsResolved() {
			n++
		}
	}
	return n
}

// Len returns the number of entries.
func (t *SymbolTable) Len() int {
	return len(t.symbols)
}

// ClearRefs forgets recorded reference sites.
func (t *SymbolTable) ClearRefs() {
	for _, sym := range t.symbols {
		sym.Refs = nil
	}
}

// Symbols returns the entries ordered by key.
func (t *SymbolTable) Symbols() []*Symbol {
	keys := make([]string, 0, len(t.symbols))
	for k := range t.symbols {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]*Symbol, len(keys))
	for i, k := range keys {
		out[i] = t.symbols[k]
	}
	return out
}

// String returns a deterministically ordered dump of the table.
func (t *SymbolTable) String() string {
	if len(t.symbols) == 0 {
		return "Symbols: (empty)\n"
	}
	var sb strings.Builder
	sb.WriteString("Symbols:\n")
	for _, sym := range t.Symbols() {
		fmt.Fprintf(&sb, "  %-30s  %-6s %s\n", sym.Key(), sym.Kind, sym.Value)
	}
	return sb.String()
}
