// Package i8080 is the read-only instruction catalog of the Intel 8080:
// every mnemonic the assembler understands, its base opcode and the shape of
// the operands it takes.
package i8080

import "strings"

// OperandModel describes which operands follow a mnemonic and how they are
// folded into the encoded instruction.
type OperandModel int

const (
	ModelNone       OperandModel = iota
	ModelR8Left                  // r in bits 5-3
	ModelR8Right                 // r in bits 2-0
	ModelR8R8                    // MOV d,s
	ModelR16SP                   // BC, DE, HL, SP in bits 5-4
	ModelR16PSW                  // BC, DE, HL, PSW in bits 5-4
	ModelR16BD                   // BC, DE only
	ModelImm8                    // one data byte
	ModelImm16                   // one data word
	ModelR8Imm8                  // MVI r,byte
	ModelR16SPImm16              // LXI rp,word
	ModelRst                     // RST 0-7
	ModelDBList                  // DB byte-or-string list
	ModelDWList                  // DW word list
	ModelDSSize                  // DS size
)

var modelNames = [...]string{
	ModelNone:       "none",
	ModelR8Left:     "r8-left",
	ModelR8Right:    "r8-right",
	ModelR8R8:       "r8,r8",
	ModelR16SP:      "r16-sp",
	ModelR16PSW:     "r16-psw",
	ModelR16BD:      "r16-bd",
	ModelImm8:       "imm8",
	ModelImm16:      "imm16",
	ModelR8Imm8:     "r8,imm8",
	ModelR16SPImm16: "r16-sp,imm16",
	ModelRst:        "rst",
	ModelDBList:     "db-list",
	ModelDWList:     "dw-list",
	ModelDSSize:     "ds-size",
}

func (m OperandModel) String() string {
	if m < 0 || int(m) >= len(modelNames) {
		return "unknown"
	}
	return modelNames[m]
}

// Pseudo-op mnemonics.
const (
	ORG = "ORG"
	EQU = "EQU"
	DB  = "DB"
	DW  = "DW"
	DS  = "DS"
	END = "END"
)

// Instruction is one catalog entry.
type Instruction struct {
	Mnemonic string
	Opcode   byte
	Model    OperandModel
	PseudoOp bool
}

// Size returns the encoded length in bytes of a machine instruction, or 0
// for pseudo-ops whose size depends on their operands.
func (i Instruction) Size() int {
	if i.PseudoOp {
		return 0
	}
	switch i.Model {
	case ModelImm8, ModelR8Imm8:
		return 2
	case ModelImm16, ModelR16SPImm16:
		return 3
	default:
		return 1
	}
}

var instructionSet = []Instruction{
	// data transfer
	{"MOV", 0x40, ModelR8R8, false},
	{"MVI", 0x06, ModelR8Imm8, false},
	{"LXI", 0x01, ModelR16SPImm16, false},
	{"LDA", 0x3A, ModelImm16, false},
	{"STA", 0x32, ModelImm16, false},
	{"LHLD", 0x2A, ModelImm16, false},
	{"SHLD", 0x22, ModelImm16, false},
	{"LDAX", 0x0A, ModelR16BD, false},
	{"STAX", 0x02, ModelR16BD, false},
	{"XCHG", 0xEB, ModelNone, false},

	// arithmetic and logic
	{"ADD", 0x80, ModelR8Right, false},
	{"ADC", 0x88, ModelR8Right, false},
	{"SUB", 0x90, ModelR8Right, false},
	{"SBB", 0x98, ModelR8Right, false},
	{"ANA", 0xA0, ModelR8Right, false},
	{"XRA", 0xA8, ModelR8Right, false},
	{"ORA", 0xB0, ModelR8Right, false},
	{"CMP", 0xB8, ModelR8Right, false},
	{"ADI", 0xC6, ModelImm8, false},
	{"ACI", 0xCE, ModelImm8, false},
	{"SUI", 0xD6, ModelImm8, false},
	{"SBI", 0xDE, ModelImm8, false},
	{"ANI", 0xE6, ModelImm8, false},
	{"XRI", 0xEE, ModelImm8, false},
	{"ORI", 0xF6, ModelImm8, false},
	{"CPI", 0xFE, ModelImm8, false},
	{"INR", 0x04, ModelR8Left, false},
	{"DCR", 0x05, ModelR8Left, false},
	{"INX", 0x03, ModelR16SP, false},
	{"DCX", 0x0B, ModelR16SP, false},
	{"DAD", 0x09, ModelR16SP, false},
	{"DAA", 0x27, ModelNone, false},
	{"CMA", 0x2F, ModelNone, false},
	{"STC", 0x37, ModelNone, false},
	{"CMC", 0x3F, ModelNone, false},
	{"RLC", 0x07, ModelNone, false},
	{"RRC", 0x0F, ModelNone, false},
	{"RAL", 0x17, ModelNone, false},
	{"RAR", 0x1F, ModelNone, false},

	// branch
	{"JMP", 0xC3, ModelImm16, false},
	{"JNZ", 0xC2, ModelImm16, false},
	{"JZ", 0xCA, ModelImm16, false},
	{"JNC", 0xD2, ModelImm16, false},
	{"JC", 0xDA, ModelImm16, false},
	{"JPO", 0xE2, ModelImm16, false},
	{"JPE", 0xEA, ModelImm16, false},
	{"JP", 0xF2, ModelImm16, false},
	{"JM", 0xFA, ModelImm16, false},
	{"CALL", 0xCD, ModelImm16, false},
	{"CNZ", 0xC4, ModelImm16, false},
	{"CZ", 0xCC, ModelImm16, false},
	{"CNC", 0xD4, ModelImm16, false},
	{"CC", 0xDC, ModelImm16, false},
	{"CPO", 0xE4, ModelImm16, false},
	{"CPE", 0xEC, ModelImm16, false},
	{"CP", 0xF4, ModelImm16, false},
	{"CM", 0xFC, ModelImm16, false},
	{"RET", 0xC9, ModelNone, false},
	{"RNZ", 0xC0, ModelNone, false},
	{"RZ", 0xC8, ModelNone, false},
	{"RNC", 0xD0, ModelNone, false},
	{"RC", 0xD8, ModelNone, false},
	{"RPO", 0xE0, ModelNone, false},
	{"RPE", 0xE8, ModelNone, false},
	{"RP", 0xF0, ModelNone, false},
	{"RM", 0xF8, ModelNone, false},
	{"RST", 0xC7, ModelRst, false},
	{"PCHL", 0xE9, ModelNone, false},

	// stack, I/O and machine control
	{"PUSH", 0xC5, ModelR16PSW, false},
	{"POP", 0xC1, ModelR16PSW, false},
	{"XTHL", 0xE3, ModelNone, false},
	{"SPHL", 0xF9, ModelNone, false},
	{"IN", 0xDB, ModelImm8, false},
	{"OUT", 0xD3, ModelImm8, false},
	{"EI", 0xFB, ModelNone, false},
	{"DI", 0xF3, ModelNone, false},
	{"HLT", 0x76, ModelNone, false},
	{"NOP", 0x00, ModelNone, false},

	// pseudo-ops
	{ORG, 0, ModelImm16, true},
	{EQU, 0, ModelImm16, true},
	{DB, 0, ModelDBList, true},
	{DW, 0, ModelDWList, true},
	{DS, 0, ModelDSSize, true},
	{END, 0, ModelNone, true},
}

var byMnemonic = func() map[string]Instruction {
	m := make(map[string]Instruction, len(instructionSet))
	for _, in := range instructionSet {
		if _, dup := m[in.Mnemonic]; !dup {
			m[in.Mnemonic] = in
		}
	}
	return m
}()

// Lookup returns the first catalog entry whose mnemonic matches, ignoring case.
func Lookup(mnemonic string) (Instruction, bool) {
	in, ok := byMnemonic[strings.ToUpper(mnemonic)]
	return in, ok
}

// Instructions returns a copy of the whole catalog in table order.
func Instructions() []Instruction {
	out := make([]Instruction, len(instructionSet))
	copy(out, instructionSet)
	return out
}
