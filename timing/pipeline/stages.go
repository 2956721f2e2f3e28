package pipeline

import (
	"github.com/e20arch/e20sim/emu"
	"github.com/e20arch/e20sim/insts"
)

// FetchStage handles instruction fetch from memory.
type FetchStage struct {
	memory *emu.Memory
}

// NewFetchStage creates a new fetch stage.
func NewFetchStage(memory *emu.Memory) *FetchStage {
	return &FetchStage{memory: memory}
}

// Fetch reads the instruction word at the given PC.
func (s *FetchStage) Fetch(pc uint16) (uint16, bool) {
	return s.memory.Read(pc), true
}

// DecodeStage handles instruction decode and register read.
type DecodeStage struct {
	regFile *emu.RegFile
	decoder *insts.Decoder
}

// NewDecodeStage creates a new decode stage.
func NewDecodeStage(regFile *emu.RegFile) *DecodeStage {
	return &DecodeStage{
		regFile: regFile,
		decoder: insts.NewDecoder(),
	}
}

// DecodeResult holds the result of the decode stage.
type DecodeResult struct {
	Inst insts.Instruction

	// Register values read from the register file.
	ValA uint16
	ValB uint16

	// Destination and source registers.
	SrcA uint8
	SrcB uint8
	Rd   uint8

	// Control signals.
	MemRead  bool
	MemWrite bool
	RegWrite bool
	MemToReg bool
	IsBranch bool
}

// Decode decodes the instruction and reads register values.
func (s *DecodeStage) Decode(word uint16) DecodeResult {
	inst := s.decoder.Decode(word)
	result := DecodeResult{
		Inst: inst,
		SrcA: inst.RegA,
		SrcB: inst.RegB,
		Rd:   inst.RegDst,
	}

	result.ValA = s.regFile.Read(inst.RegA)
	result.ValB = s.regFile.Read(inst.RegB)

	// Register 0 is hardwired to zero, so writes targeting it carry no
	// architectural effect and must not trigger hazards downstream.
	result.RegWrite = inst.WritesReg() && inst.RegDst != 0
	result.MemRead = inst.IsLoad()
	result.MemToReg = inst.IsLoad()
	result.MemWrite = inst.IsStore()
	result.IsBranch = inst.IsBranch()

	return result
}

// ExecuteStage handles ALU operations, address calculation, and branch
// resolution.
type ExecuteStage struct {
	alu emu.ALU
}

// NewExecuteStage creates a new execute stage.
func NewExecuteStage() *ExecuteStage {
	return &ExecuteStage{}
}

// ExecuteResult holds the result of the execute stage.
type ExecuteResult struct {
	ALUResult  uint16
	StoreValue uint16

	// Branch result.
	BranchTaken  bool
	BranchTarget uint16
}

// Execute performs ALU operations, address calculation, or branch
// resolution. Operand values arrive post-forwarding.
func (s *ExecuteStage) Execute(idex *IDEXRegister, valA, valB uint16) ExecuteResult {
	result := ExecuteResult{}
	inst := idex.Inst

	switch inst.Op {
	case insts.OpNone:
		// Unassigned function code: no effect.

	case insts.OpAdd, insts.OpSub, insts.OpOr, insts.OpAnd, insts.OpSltu,
		insts.OpXor, insts.OpNor, insts.OpSll, insts.OpSrl, insts.OpSra:
		result.ALUResult = s.alu.Compute(inst.Op, valA, valB)

	case insts.OpAddi, insts.OpSlti:
		result.ALUResult = s.alu.Compute(inst.Op, valA, inst.Imm)

	case insts.OpLw, insts.OpSw:
		result.ALUResult = s.alu.Compute(inst.Op, valA, inst.Imm)
		result.StoreValue = valB

	case insts.OpJeq:
		if valA == valB {
			result.BranchTaken = true
			result.BranchTarget = idex.PC + 1 + inst.Imm
		}

	case insts.OpJr:
		result.BranchTaken = true
		result.BranchTarget = valA

	case insts.OpJ:
		result.BranchTaken = true
		result.BranchTarget = inst.Addr

	case insts.OpJal:
		result.BranchTaken = true
		result.BranchTarget = inst.Addr
		result.ALUResult = idex.PC + 1 // Link value
	}

	return result
}

// MemoryStage handles memory load/store operations.
type MemoryStage struct {
	memory *emu.Memory
}

// NewMemoryStage creates a new memory stage.
func NewMemoryStage(memory *emu.Memory) *MemoryStage {
	return &MemoryStage{memory: memory}
}

// MemoryResult holds the result of the memory stage.
type MemoryResult struct {
	MemData uint16
}

// Access performs memory read or write.
func (s *MemoryStage) Access(exmem *EXMEMRegister) MemoryResult {
	result := MemoryResult{}

	if !exmem.Valid {
		return result
	}

	if exmem.MemRead {
		result.MemData = s.memory.Read(exmem.ALUResult)
	} else if exmem.MemWrite {
		s.memory.Write(exmem.ALUResult, exmem.StoreValue)
	}

	return result
}

// WritebackStage handles register file writeback.
type WritebackStage struct {
	regFile *emu.RegFile
}

// NewWritebackStage creates a new writeback stage.
func NewWritebackStage(regFile *emu.RegFile) *WritebackStage {
	return &WritebackStage{regFile: regFile}
}

// Writeback writes the result to the register file.
func (s *WritebackStage) Writeback(memwb *MEMWBRegister) {
	if !memwb.Valid || !memwb.RegWrite {
		return
	}

	var value uint16
	if memwb.MemToReg {
		value = memwb.MemData
	} else {
		value = memwb.ALUResult
	}

	s.regFile.Write(memwb.Rd, value)
}
