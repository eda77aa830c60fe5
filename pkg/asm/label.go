package asm

// LabelKind is the visibility of a label.
type LabelKind int

const (
	LabelNone   LabelKind = iota
	LabelGlobal           // visible from every file
	LabelStatic           // unique within its file
	LabelLocal            // unique under its parent static label
)

func (k LabelKind) String() string {
	switch k {
	case LabelGlobal:
		return "Global"
	case LabelStatic:
		return "Static"
	case LabelLocal:
		return "Local"
	default:
		return "None"
	}
}

// unknownFile stands in for the declaring file of a Global that has been
// referenced but not yet declared.
const unknownFile = "?"

// symbolKey builds the table key for a label:
//
//	Global  $name@file
//	Static  name@file
//	Local   parent.name@file
func symbolKey(kind LabelKind, text, parent, file string) string {
	if file == "" {
		file = unknownFile
	}
	switch kind {
	case LabelGlobal:
		return "$" + text + "@" + file
	case LabelStatic:
		return text + "@" + file
	case LabelLocal:
		return parent + "." + text + "@" + file
	default:
		return ""
	}
}

// Scope is the per-file parsing state: the most recently declared static
// label, which is the implicit parent of a bare .NAME.
type Scope struct {
	File       string
	LastStatic string
}

// LabelDeclaration is a label defined at the start of a line.
type LabelDeclaration struct {
	Kind   LabelKind
	Text   string
	Parent string
	File   string
	Line   int
	Source string // text as written, for diagnostics
}

// Key returns the symbol table key of the declaration.
func (d LabelDeclaration) Key() string {
	return symbolKey(d.Kind, d.Text, d.Parent, d.File)
}

// LabelReference is a label used inside an operand expression. File is the
// referencing file for Static and Local kinds and empty for Global.
type LabelReference struct {
	Kind   LabelKind
	Text   string
	Parent string
	File   string
	Line   int
	Source string
}

// Key returns the symbol table key of the reference. A Global reference is
// keyed under the unknown file until the table maps it to its declaration.
func (r LabelReference) Key() string {
	file := r.File
	if r.Kind == LabelGlobal {
		file = unknownFile
	}
	return symbolKey(r.Kind, r.Text, r.Parent, file)
}

// labelEnd matches what may follow a declared name: a colon, which is
// consumed, or blanks and EQU, which are left for the instruction parser.
func labelEnd(s string, i int) (int, bool) {
	if i < len(s) && s[i] == ':' {
		return 1, true
	}
	sp := scanSpace(s, i)
	if sp > 0 && scanWord(s, i+sp, "EQU") > 0 {
		return 0, true
	}
	return 0, false
}

// parseLabelDeclaration tries each declaration form in precedence order at
// the cursor. On success the cursor is moved past the label and, for Static
// labels, scope.LastStatic is updated.
func parseLabelDeclaration(c *cursor, scope *Scope, line int) (*LabelDeclaration, bool) {
	s := c.src
	start := c.pos + scanSpace(s, c.pos)

	accept := func(kind LabelKind, text, parent string, end int) (*LabelDeclaration, bool) {
		decl := &LabelDeclaration{
			Kind:   kind,
			Text:   text,
			Parent: parent,
			File:   scope.File,
			Line:   line,
			Source: s[start:end],
		}
		c.pos = end
		if kind == LabelStatic {
			scope.LastStatic = text
		}
		return decl, true
	}

	// GLOBAL [$]NAME:
	if kw := scanKeyword(s, start, "GLOBAL"); kw > 0 {
		i := start + kw
		if i < len(s) && s[i] == '$' {
			i++
		}
		if n := scanIdent(s, i); n > 0 {
			if e, ok := labelEnd(s, i+n); ok {
				return accept(LabelGlobal, s[i:i+n], "", i+n+e)
			}
		}
	}

	// $NAME:
	if start < len(s) && s[start] == '$' {
		if n := scanIdent(s, start+1); n > 0 {
			if e, ok := labelEnd(s, start+1+n); ok {
				return accept(LabelGlobal, s[start+1:start+1+n], "", start+1+n+e)
			}
		}
	}

	// STATIC NAME:
	if kw := scanKeyword(s, start, "STATIC"); kw > 0 {
		i := start + kw
		if n := scanIdent(s, i); n > 0 {
			if e, ok := labelEnd(s, i+n); ok {
				return accept(LabelStatic, s[i:i+n], "", i+n+e)
			}
		}
	}

	// NAME:
	if n := scanIdent(s, start); n > 0 {
		if e, ok := labelEnd(s, start+n); ok {
			return accept(LabelStatic, s[start:start+n], "", start+n+e)
		}
	}

	// LOCAL PARENT.NAME:  and  PARENT.NAME:
	for _, kw := range []string{"LOCAL", ""} {
		i := start
		if kw != "" {
			k := scanKeyword(s, start, kw)
			if k == 0 {
				continue
			}
			i += k
		}
		p := scanIdent(s, i)
		if p == 0 || i+p >= len(s) || s[i+p] != '.' {
			continue
		}
		n := scanIdent(s, i+p+1)
		if n == 0 {
			continue
		}
		if e, ok := labelEnd(s, i+p+1+n); ok {
			return accept(LabelLocal, s[i+p+1:i+p+1+n], s[i:i+p], i+p+1+n+e)
		}
	}

	// .NAME:
	if start < len(s) && s[start] == '.' {
		if n := scanIdent(s, start+1); n > 0 {
			if e, ok := labelEnd(s, start+1+n); ok {
				return accept(LabelLocal, s[start+1:start+1+n], scope.LastStatic, start+1+n+e)
			}
		}
	}

	return nil, false
}

// parseLabelReference mirrors parseLabelDeclaration without the trailing
// colon. A bare .NAME takes scope.LastStatic as its parent.
func parseLabelReference(c *cursor, scope *Scope, line int) (*LabelReference, bool) {
	s := c.src
	start := c.pos + scanSpace(s, c.pos)

	accept := func(kind LabelKind, text, parent string, end int) (*LabelReference, bool) {
		ref := &LabelReference{
			Kind:   kind,
			Text:   text,
			Parent: parent,
			Line:   line,
			Source: s[start:end],
		}
		if kind != LabelGlobal {
			ref.File = scope.File
		}
		c.pos = end
		return ref, true
	}

	// GLOBAL [$]NAME
	if kw := scanKeyword(s, start, "GLOBAL"); kw > 0 {
		i := start + kw
		if i < len(s) && s[i] == '$' {
			i++
		}
		if n := scanIdent(s, i); n > 0 {
			return accept(LabelGlobal, s[i:i+n], "", i+n)
		}
	}

	// $NAME
	if start < len(s) && s[start] == '$' {
		if n := scanIdent(s, start+1); n > 0 {
			return accept(LabelGlobal, s[start+1:start+1+n], "", start+1+n)
		}
	}

	// STATIC NAME
	if kw := scanKeyword(s, start, "STATIC"); kw > 0 {
		i := start + kw
		if n := scanIdent(s, i); n > 0 {
			return accept(LabelStatic, s[i:i+n], "", i+n)
		}
	}

	// LOCAL [PARENT].NAME
	if kw := scanKeyword(s, start, "LOCAL"); kw > 0 {
		i := start + kw
		p := scanIdent(s, i)
		if i+p < len(s) && s[i+p] == '.' {
			if n := scanIdent(s, i+p+1); n > 0 {
				parent := s[i : i+p]
				if p == 0 {
					parent = scope.LastStatic
				}
				return accept(LabelLocal, s[i+p+1:i+p+1+n], parent, i+p+1+n)
			}
		}
	}

	// PARENT.NAME  or  NAME
	if p := scanIdent(s, start); p > 0 {
		if start+p < len(s) && s[start+p] == '.' {
			if n := scanIdent(s, start+p+1); n > 0 {
				return accept(LabelLocal, s[start+p+1:start+p+1+n], s[start:start+p], start+p+1+n)
			}
		}
		return accept(LabelStatic, s[start:start+p], "", start+p)
	}

	// .NAME
	if start < len(s) && s[start] == '.' {
		if n := scanIdent(s, start+1); n > 0 {
			return accept(LabelLocal, s[start+1:start+1+n], scope.LastStatic, start+1+n)
		}
	}

	return nil, false
}
