package asm

import "strings"

// cursor walks one logical source line. The text never changes; only pos
// moves, and only on a successful match.
type cursor struct {
	src string
	pos int // byte offset of the next unread character
}

func (c *cursor) eof() bool {
	return c.pos >= len(c.src)
}

// peek returns the byte at the current position, or 0 at end of line.
func (c *cursor) peek() byte {
	if c.pos >= len(c.src) {
		return 0
	}
	return c.src[c.pos]
}

func (c *cursor) rest() string {
	if c.pos >= len(c.src) {
		return ""
	}
	return c.src[c.pos:]
}

func (c *cursor) skipSpace() {
	for c.pos < len(c.src) && isSpace(c.src[c.pos]) {
		c.pos++
	}
}

// matchString reports whether s is next in the input; it does not advance.
func (c *cursor) matchString(s string, fold bool) bool {
	rest := c.rest()
	if len(rest) < len(s) {
		return false
	}
	if fold {
		return strings.EqualFold(rest[:len(s)], s)
	}
	return rest[:len(s)] == s
}

// munch returns the next n bytes and advances past them.
func (c *cursor) munch(n int) string {
	end := c.pos + n
	if end > len(c.src) {
		end = len(c.src)
	}
	s := c.src[c.pos:end]
	c.pos = end
	return s
}

// The scan helpers below look at s from offset i and return the length of
// their match, 0 meaning no match. They never allocate.

func isSpace(b byte) bool { return b == ' ' || b == '\t' || b == '\r' || b == '\f' || b == '\v' }

func isLetter(b byte) bool { return (b >= 'A' && b <= 'Z') || (b >= 'a' && b <= 'z') }

func isDigit(b byte) bool { return b >= '0' && b <= '9' }

func isHexDigit(b byte) bool {
	return isDigit(b) || (b >= 'A' && b <= 'F') || (b >= 'a' && b <= 'f')
}

func isIdentChar(b byte) bool { return isLetter(b) || isDigit(b) || b == '_' }

func scanSpace(s string, i int) int {
	n := 0
	for i+n < len(s) && isSpace(s[i+n]) {
		n++
	}
	return n
}

// scanIdent matches [A-Za-z][A-Za-z0-9_]*.
func scanIdent(s string, i int) int {
	if i >= len(s) || !isLetter(s[i]) {
		return 0
	}
	n := 1
	for i+n < len(s) && isIdentChar(s[i+n]) {
		n++
	}
	return n
}

// scanLetters matches [A-Za-z]+ that is not followed by another identifier
// character.
func scanLetters(s string, i int) int {
	n := 0
	for i+n < len(s) && isLetter(s[i+n]) {
		n++
	}
	if n > 0 && i+n < len(s) && isIdentChar(s[i+n]) {
		return 0
	}
	return n
}

// scanKeyword matches kw (any case) followed by at least one blank, and
// returns the length including the blanks.
func scanKeyword(s string, i int, kw string) int {
	if len(s)-i < len(kw) || !strings.EqualFold(s[i:i+len(kw)], kw) {
		return 0
	}
	sp := scanSpace(s, i+len(kw))
	if sp == 0 {
		return 0
	}
	return len(kw) + sp
}

// scanWord matches kw (any case) as a whole word.
func scanWord(s string, i int, kw string) int {
	if len(s)-i < len(kw) || !strings.EqualFold(s[i:i+len(kw)], kw) {
		return 0
	}
	if i+len(kw) < len(s) && isIdentChar(s[i+len(kw)]) {
		return 0
	}
	return len(kw)
}

// scanQuoted matches a run of characters between quote bytes, with a
// backslash escaping the next character. It returns the total length
// including both quotes, and the number of characters inside.
func scanQuoted(s string, i int, quote byte) (length, chars int) {
	if i >= len(s) || s[i] != quote {
		return 0, 0
	}
	j := i + 1
	for j < len(s) {
		switch s[j] {
		case '\\':
			if j+1 >= len(s) {
				return 0, 0
			}
			j += 2
		case quote:
			return j + 1 - i, chars
		default:
			j++
		}
		chars++
	}
	return 0, 0
}

// dequote collapses each two-character escape (\ + c) to c.
func dequote(s string) string {
	if strings.IndexByte(s, '\\') < 0 {
		return s
	}
	var sb strings.Builder
	sb.Grow(len(s))
	for i := 0; i < len(s); i++ {
		if s[i] == '\\' && i+1 < len(s) {
			i++
		}
		sb.WriteByte(s[i])
	}
	return sb.String()
}
