package asm

// MemorySize is the size of the 8080 address space.
const MemorySize = 0x10000

// CodeBuffer is the 64K memory image being assembled, with the current
// emission address and the window of addresses written so far.
type CodeBuffer struct {
	image    [MemorySize]byte
	addr     Value
	min, max Value
}

func NewCodeBuffer() *CodeBuffer {
	return &CodeBuffer{}
}

// Reset clears the address and used window for a new pass. The image
// contents are kept.
func (b *CodeBuffer) Reset() {
	b.addr = Unresolved
	b.min = Unresolved
	b.max = Unresolved
}

// Address returns the current emission address.
func (b *CodeBuffer) Address() Value {
	return b.addr
}

// SetAddress moves the emission address, as ORG does.
func (b *CodeBuffer) SetAddress(a uint16) {
	b.addr = Resolved(a)
}

// Advance skips n bytes, as DS does. It does nothing while the address is
// undefined.
func (b *CodeBuffer) Advance(n uint16) {
	if a, ok := b.addr.Get(); ok {
		b.addr = Resolved(a + n)
	}
}

// MarkUsed widens the used window to include addr.
func (b *CodeBuffer) MarkUsed(addr uint16) {
	if lo, ok := b.min.Get(); !ok || addr < lo {
		b.min = Resolved(addr)
	}
	if hi, ok := b.max.Get(); !ok || addr > hi {
		b.max = Resolved(addr)
	}
}

// EmitByte stores data at the current address and advances. When out is
// not nil the byte is also appended to it. Nothing happens while the address
// is undefined.
func (b *CodeBuffer) EmitByte(data byte, out *[]byte) {
	a, ok := b.addr.Get()
	if !ok {
		return
	}
	b.image[a] = data
	b.MarkUsed(a)
	if out != nil {
		*out = append(*out, data)
	}
	b.addr = Resolved(a + 1)
}

// EmitWord stores data little endian.
func (b *CodeBuffer) EmitWord(data uint16, out *[]byte) {
	b.EmitByte(byte(data), out)
	b.EmitByte(byte(data>>8), out)
}

func (b *CodeBuffer) EmitBytes(data []byte, out *[]byte) {
	for _, d := range data {
		b.EmitByte(d, out)
	}
}

func (b *CodeBuffer) EmitWords(data []uint16, out *[]byte) {
	for _, d := range data {
		b.EmitWord(d, out)
	}
}

// Range returns the lowest and highest address written this pass.
func (b *CodeBuffer) Range() (lo, hi uint16, ok bool) {
	lo, okLo := b.min.Get()
	hi, okHi := b.max.Get()
	return lo, hi, okLo && okHi
}

// At returns the image byte at addr.
func (b *CodeBuffer) At(addr uint16) byte {
	return b.image[addr]
}

// Output returns a copy of the image from the lowest to the highest address
// written, inclusive, or an empty slice if nothing was written.
func (b *CodeBuffer) Output() []byte {
	lo, hi, ok := b.Range()
	if !ok {
		return []byte{}
	}
	out := make([]byte, int(hi)-int(lo)+1)
	copy(out, b.image[lo:int(hi)+1])
	return out
}
