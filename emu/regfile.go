// Package emu provides functional E20 emulation.
package emu

// NumRegs is the number of general-purpose registers.
const NumRegs = 8

// RegFile represents the E20 register file: 8 general-purpose 16-bit
// registers. Register 0 is hardwired to zero.
type RegFile struct {
	regs [NumRegs]uint16
}

// Read reads a register value. Register 0 always reads 0.
func (r *RegFile) Read(reg uint8) uint16 {
	return r.regs[reg&(NumRegs-1)]
}

// Write writes a value to a register. Writes to register 0 are
// silently discarded.
func (r *RegFile) Write(reg uint8, value uint16) {
	reg &= NumRegs - 1
	if reg == 0 {
		return
	}
	r.regs[reg] = value
}

// Regs returns a copy of all register values.
func (r *RegFile) Regs() [NumRegs]uint16 {
	return r.regs
}

// Reset rewrites every register to zero. Reset is idempotent and may
// be invoked at any step boundary.
func (r *RegFile) Reset() {
	for i := range r.regs {
		r.regs[i] = 0
	}
}
