package emu

import "github.com/e20arch/e20sim/insts"

// shiftAmountMask limits shifts to the low 4 bits of the amount operand.
const shiftAmountMask = 0xF

// ALU computes E20 arithmetic, logical, and shift results. It is a pure
// combinational unit: Compute has no side effects.
type ALU struct{}

// Compute evaluates op over two 16-bit operands. Immediate-operand
// operations (addi, slti, lw, sw) pass the sign-extended immediate as b.
// Unsigned-less-than produces 0 or 1. Arithmetic right shift
// sign-extends from bit 15.
func (ALU) Compute(op insts.Op, a, b uint16) uint16 {
	switch op {
	case insts.OpAdd, insts.OpAddi, insts.OpLw, insts.OpSw:
		return a + b
	case insts.OpSub:
		return a - b
	case insts.OpOr:
		return a | b
	case insts.OpAnd:
		return a & b
	case insts.OpXor:
		return a ^ b
	case insts.OpNor:
		return ^(a | b)
	case insts.OpSltu, insts.OpSlti:
		if a < b {
			return 1
		}
		return 0
	case insts.OpSll:
		return a << (b & shiftAmountMask)
	case insts.OpSrl:
		return a >> (b & shiftAmountMask)
	case insts.OpSra:
		return uint16(int16(a) >> (b & shiftAmountMask))
	default:
		return 0
	}
}
