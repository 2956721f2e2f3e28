package emu

import (
	"errors"

	"github.com/e20arch/e20sim/insts"
)

// ErrDidNotHalt reports that a run exhausted its cycle or instruction
// budget before a halt was detected. It is a recoverable, caller-visible
// condition, not a fatal error.
var ErrDidNotHalt = errors.New("simulation did not halt within the budget")

// StepResult represents the result of executing a single instruction.
type StepResult struct {
	// Halted is true once the program has terminated (PC unchanged
	// after executing an instruction, the E20 halt idiom).
	Halted bool

	// Err is set if the instruction budget was exhausted.
	Err error
}

// Emulator executes E20 instructions one per step, with no pipelining.
// It is the golden reference the pipelined engine is validated against.
type Emulator struct {
	regFile *RegFile
	memory  *Memory
	decoder *insts.Decoder
	alu     ALU

	pc     uint16
	halted bool

	instructionCount uint64
	maxInstructions  uint64 // 0 means no limit
}

// EmulatorOption is a functional option for configuring the Emulator.
type EmulatorOption func(*Emulator)

// WithMaxInstructions sets the maximum number of instructions to
// execute before a run is reported as not halting. 0 means no limit.
func WithMaxInstructions(max uint64) EmulatorOption {
	return func(e *Emulator) {
		e.maxInstructions = max
	}
}

// NewEmulator creates a new E20 reference emulator.
func NewEmulator(opts ...EmulatorOption) *Emulator {
	e := &Emulator{
		regFile: &RegFile{},
		memory:  NewMemory(),
		decoder: insts.NewDecoder(),
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

// RegFile returns the emulator's register file.
func (e *Emulator) RegFile() *RegFile {
	return e.regFile
}

// Memory returns the emulator's memory.
func (e *Emulator) Memory() *Memory {
	return e.memory
}

// PC returns the current program counter.
func (e *Emulator) PC() uint16 {
	return e.pc
}

// Halted returns true once the program has terminated.
func (e *Emulator) Halted() bool {
	return e.halted
}

// InstructionCount returns the number of instructions executed.
func (e *Emulator) InstructionCount() uint64 {
	return e.instructionCount
}

// LoadProgram loads a program image into memory at address 0 and
// resets the program counter.
func (e *Emulator) LoadProgram(words []uint16) error {
	if err := e.memory.LoadWords(words); err != nil {
		return err
	}
	e.pc = 0
	return nil
}

// Reset restores the emulator to its initial state: PC 0, zeroed
// registers and memory.
func (e *Emulator) Reset() {
	e.regFile.Reset()
	e.memory.Reset()
	e.pc = 0
	e.halted = false
	e.instructionCount = 0
}

// Step executes a single instruction. The program has halted when the
// program counter is unchanged after the instruction executes (a jump
// to self).
func (e *Emulator) Step() StepResult {
	if e.halted {
		return StepResult{Halted: true}
	}
	if e.maxInstructions > 0 && e.instructionCount >= e.maxInstructions {
		return StepResult{Err: ErrDidNotHalt}
	}

	prevPC := e.pc
	word := e.memory.Read(e.pc)
	inst := e.decoder.Decode(word)

	e.pc++
	e.execute(inst, prevPC)
	e.instructionCount++

	if e.pc == prevPC {
		e.halted = true
	}
	return StepResult{Halted: e.halted}
}

// Run executes instructions until the program halts or the instruction
// budget is exhausted.
func (e *Emulator) Run() error {
	for {
		result := e.Step()
		if result.Err != nil {
			return result.Err
		}
		if result.Halted {
			return nil
		}
	}
}

// execute applies a decoded instruction to the architectural state.
// prevPC is the address the instruction was fetched from; e.pc already
// holds prevPC+1.
func (e *Emulator) execute(inst insts.Instruction, prevPC uint16) {
	valA := e.regFile.Read(inst.RegA)
	valB := e.regFile.Read(inst.RegB)

	switch inst.Op {
	case insts.OpNone:
		// Unassigned function code: no effect.
	case insts.OpJr:
		e.pc = valA
	case insts.OpAdd, insts.OpSub, insts.OpOr, insts.OpAnd, insts.OpSltu,
		insts.OpXor, insts.OpNor, insts.OpSll, insts.OpSrl, insts.OpSra:
		e.regFile.Write(inst.RegDst, e.alu.Compute(inst.Op, valA, valB))
	case insts.OpAddi, insts.OpSlti:
		e.regFile.Write(inst.RegDst, e.alu.Compute(inst.Op, valA, inst.Imm))
	case insts.OpLw:
		addr := e.alu.Compute(inst.Op, valA, inst.Imm)
		e.regFile.Write(inst.RegDst, e.memory.Read(addr))
	case insts.OpSw:
		addr := e.alu.Compute(inst.Op, valA, inst.Imm)
		e.memory.Write(addr, valB)
	case insts.OpJeq:
		if valA == valB {
			e.pc = prevPC + 1 + inst.Imm
		}
	case insts.OpJ:
		e.pc = inst.Addr
	case insts.OpJal:
		e.regFile.Write(insts.LinkReg, prevPC+1)
		e.pc = inst.Addr
	}
}
