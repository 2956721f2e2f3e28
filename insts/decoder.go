package insts

// Decoder decodes E20 machine words into instructions.
type Decoder struct{}

// NewDecoder creates a new E20 instruction decoder.
func NewDecoder() *Decoder {
	return &Decoder{}
}

// Field positions within a 16-bit instruction word.
const (
	leftRegShift  = 10 // bits [12:10]
	midRegShift   = 7  // bits [9:7]
	rightRegShift = 4  // bits [6:4]
	regMask       = 0b111
	funcMask      = 0b1111
	imm7Mask      = 0x7F
	addr13Mask    = 0x1FFF
)

// Decode decodes a 16-bit E20 instruction word. Decode is total: every
// word decodes to some instruction. Function codes with no assigned
// operation decode to OpNone and execute without effect.
func (d *Decoder) Decode(word uint16) Instruction {
	opcode := word >> 13
	left := uint8((word >> leftRegShift) & regMask)
	mid := uint8((word >> midRegShift) & regMask)
	right := uint8((word >> rightRegShift) & regMask)

	switch opcode {
	case opcodeThreeReg:
		return d.decodeThreeReg(word, left, mid, right)
	case opcodeAddi:
		return Instruction{Op: OpAddi, Format: FormatRegImm, RegA: left, RegDst: mid, Imm: signExtend7(word)}
	case opcodeSlti:
		return Instruction{Op: OpSlti, Format: FormatRegImm, RegA: left, RegDst: mid, Imm: signExtend7(word)}
	case opcodeLw:
		return Instruction{Op: OpLw, Format: FormatRegImm, RegA: left, RegDst: mid, Imm: signExtend7(word)}
	case opcodeSw:
		return Instruction{Op: OpSw, Format: FormatRegImm, RegA: left, RegB: mid, Imm: signExtend7(word)}
	case opcodeJeq:
		return Instruction{Op: OpJeq, Format: FormatRegImm, RegA: left, RegB: mid, Imm: signExtend7(word)}
	case opcodeJ:
		return Instruction{Op: OpJ, Format: FormatJump, Addr: word & addr13Mask}
	default: // opcodeJal
		return Instruction{Op: OpJal, Format: FormatJump, RegDst: LinkReg, Addr: word & addr13Mask}
	}
}

// decodeThreeReg decodes the three-register class using the 4-bit
// function code in the low bits of the word.
func (d *Decoder) decodeThreeReg(word uint16, left, mid, right uint8) Instruction {
	inst := Instruction{
		Format: FormatThreeReg,
		RegA:   left,
		RegB:   mid,
		RegDst: right,
	}

	switch word & funcMask {
	case funcAdd:
		inst.Op = OpAdd
	case funcSub:
		inst.Op = OpSub
	case funcOr:
		inst.Op = OpOr
	case funcAnd:
		inst.Op = OpAnd
	case funcSltu:
		inst.Op = OpSltu
	case funcXor:
		inst.Op = OpXor
	case funcNor:
		inst.Op = OpNor
	case funcSll:
		inst.Op = OpSll
	case funcSrl:
		inst.Op = OpSrl
	case funcSra:
		inst.Op = OpSra
	case funcJr:
		inst.Op = OpJr
		inst.RegB = 0
		inst.RegDst = 0
	default:
		// Unassigned function codes execute as no-ops, never errors.
		inst.Op = OpNone
	}

	return inst
}

// signExtend7 sign-extends the low 7 bits of word to a 16-bit pattern.
func signExtend7(word uint16) uint16 {
	imm := word & imm7Mask
	if imm&0x40 != 0 {
		imm |= 0xFF80
	}
	return imm
}
