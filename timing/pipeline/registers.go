// Package pipeline provides the 5-stage pipeline implementation for
// cycle-accurate timing simulation.
package pipeline

import "github.com/e20arch/e20sim/insts"

// IFIDRegister holds state between Fetch and Decode stages.
type IFIDRegister struct {
	// Valid indicates if this pipeline register contains valid data.
	Valid bool

	// PC is the program counter of the fetched instruction.
	PC uint16

	// Word is the raw 16-bit instruction word.
	Word uint16
}

// Clear resets the IF/ID register to empty state.
func (r *IFIDRegister) Clear() {
	r.Valid = false
	r.PC = 0
	r.Word = 0
}

// IDEXRegister holds state between Decode and Execute stages.
type IDEXRegister struct {
	// Valid indicates if this pipeline register contains valid data.
	Valid bool

	// PC is the program counter of the instruction.
	PC uint16

	// Inst is the decoded instruction.
	Inst insts.Instruction

	// Register values read from the register file.
	ValA uint16
	ValB uint16

	// Register numbers for hazard detection.
	SrcA uint8
	SrcB uint8
	Rd   uint8

	// Control signals.
	MemRead  bool // True for load instructions
	MemWrite bool // True for store instructions
	RegWrite bool // True if instruction writes to register
	MemToReg bool // True if result comes from memory (load)
	IsBranch bool // True for control-flow instructions
}

// Clear resets the ID/EX register to empty state.
func (r *IDEXRegister) Clear() {
	r.Valid = false
	r.PC = 0
	r.Inst = insts.Instruction{}
	r.ValA = 0
	r.ValB = 0
	r.SrcA = 0
	r.SrcB = 0
	r.Rd = 0
	r.MemRead = false
	r.MemWrite = false
	r.RegWrite = false
	r.MemToReg = false
	r.IsBranch = false
}

// EXMEMRegister holds state between Execute and Memory stages.
type EXMEMRegister struct {
	// Valid indicates if this pipeline register contains valid data.
	Valid bool

	// PC is the program counter of the instruction.
	PC uint16

	// Inst is the decoded instruction.
	Inst insts.Instruction

	// ALU result (address for load/store, result for ALU ops, link
	// value for jal).
	ALUResult uint16

	// Value to store for store instructions.
	StoreValue uint16

	// Destination register number.
	Rd uint8

	// Control signals (propagated from ID/EX).
	MemRead  bool
	MemWrite bool
	RegWrite bool
	MemToReg bool
}

// Clear resets the EX/MEM register to empty state.
func (r *EXMEMRegister) Clear() {
	r.Valid = false
	r.PC = 0
	r.Inst = insts.Instruction{}
	r.ALUResult = 0
	r.StoreValue = 0
	r.Rd = 0
	r.MemRead = false
	r.MemWrite = false
	r.RegWrite = false
	r.MemToReg = false
}

// MEMWBRegister holds state between Memory and Writeback stages.
type MEMWBRegister struct {
	// Valid indicates if this pipeline register contains valid data.
	Valid bool

	// PC is the program counter of the instruction.
	PC uint16

	// Inst is the decoded instruction.
	Inst insts.Instruction

	// ALU result (for ALU instructions).
	ALUResult uint16

	// Data read from memory (for load instructions).
	MemData uint16

	// Destination register number.
	Rd uint8

	// Control signals.
	RegWrite bool
	MemToReg bool // True if result comes from memory
}

// Clear resets the MEM/WB register to empty state.
func (r *MEMWBRegister) Clear() {
	r.Valid = false
	r.PC = 0
	r.Inst = insts.Instruction{}
	r.ALUResult = 0
	r.MemData = 0
	r.Rd = 0
	r.RegWrite = false
	r.MemToReg = false
}
