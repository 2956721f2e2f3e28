// Package insts provides E20 instruction definitions and decoding.
package insts

// Op represents an E20 operation.
type Op uint8

// E20 operations. OpNone is the recognized no-effect operation that
// unused function codes inside the three-register class decode to.
const (
	OpNone Op = iota
	OpAdd
	OpSub
	OpOr
	OpAnd
	OpSltu
	OpXor
	OpNor
	OpSll
	OpSrl
	OpSra
	OpJr
	OpAddi
	OpSlti
	OpLw
	OpSw
	OpJeq
	OpJ
	OpJal
)

// Format represents an instruction encoding class, selected by the top
// three bits of the instruction word.
type Format uint8

// Instruction formats.
const (
	FormatThreeReg Format = iota // three register indices + 4-bit function code
	FormatRegImm                 // two register indices + 7-bit signed immediate
	FormatJump                   // 13-bit absolute address
)

// Opcode values (top three bits of the instruction word).
const (
	opcodeThreeReg = 0b000
	opcodeAddi     = 0b001
	opcodeJ        = 0b010
	opcodeJal      = 0b011
	opcodeLw       = 0b100
	opcodeSw       = 0b101
	opcodeJeq      = 0b110
	opcodeSlti     = 0b111
)

// Function codes for the three-register class.
const (
	funcAdd  = 0b0000
	funcSub  = 0b0001
	funcOr   = 0b0010
	funcAnd  = 0b0011
	funcSltu = 0b0100
	funcXor  = 0b0101
	funcNor  = 0b0110
	funcJr   = 0b1000
	funcSll  = 0b1001
	funcSrl  = 0b1010
	funcSra  = 0b1011
)

// LinkReg is the register written by jal.
const LinkReg = 7

// Instruction represents a decoded E20 instruction.
type Instruction struct {
	Op     Op
	Format Format

	// RegA and RegB are the first and second source register indices.
	// Fields that a format does not use are zero.
	RegA uint8
	RegB uint8

	// RegDst is the architectural destination register (the rDst field
	// for three-register instructions, the middle field for addi/slti/lw,
	// and LinkReg for jal).
	RegDst uint8

	// Imm is the sign-extended 7-bit immediate as a 16-bit pattern.
	Imm uint16

	// Addr is the 13-bit absolute jump address, zero-extended.
	Addr uint16
}

// WritesReg reports whether the instruction writes a general register.
func (i Instruction) WritesReg() bool {
	switch i.Op {
	case OpAdd, OpSub, OpOr, OpAnd, OpSltu, OpXor, OpNor, OpSll, OpSrl, OpSra,
		OpAddi, OpSlti, OpLw, OpJal:
		return true
	}
	return false
}

// UsesRegA reports whether the instruction reads RegA as a source.
func (i Instruction) UsesRegA() bool {
	switch i.Op {
	case OpNone, OpJ, OpJal:
		return false
	}
	return true
}

// UsesRegB reports whether the instruction reads RegB as a source.
// For sw, RegB holds the value to store.
func (i Instruction) UsesRegB() bool {
	switch i.Op {
	case OpAdd, OpSub, OpOr, OpAnd, OpSltu, OpXor, OpNor, OpSll, OpSrl, OpSra,
		OpSw, OpJeq:
		return true
	}
	return false
}

// IsLoad reports whether the instruction reads data memory.
func (i Instruction) IsLoad() bool { return i.Op == OpLw }

// IsStore reports whether the instruction writes data memory.
func (i Instruction) IsStore() bool { return i.Op == OpSw }

// IsBranch reports whether the instruction can redirect control flow.
func (i Instruction) IsBranch() bool {
	switch i.Op {
	case OpJ, OpJal, OpJr, OpJeq:
		return true
	}
	return false
}

// UsesImm reports whether the second ALU operand is the immediate
// rather than a register value.
func (i Instruction) UsesImm() bool {
	switch i.Op {
	case OpAddi, OpSlti, OpLw, OpSw:
		return true
	}
	return false
}
