package pipeline_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/e20arch/e20sim/emu"
	"github.com/e20arch/e20sim/insts"
	"github.com/e20arch/e20sim/timing/pipeline"
)

var _ = Describe("FetchStage", func() {
	It("should read the instruction word at the PC", func() {
		memory := emu.NewMemory()
		memory.Write(5, 0x2081)
		stage := pipeline.NewFetchStage(memory)

		word, ok := stage.Fetch(5)

		Expect(ok).To(BeTrue())
		Expect(word).To(Equal(uint16(0x2081)))
	})
})

var _ = Describe("DecodeStage", func() {
	var (
		regFile *emu.RegFile
		stage   *pipeline.DecodeStage
	)

	BeforeEach(func() {
		regFile = &emu.RegFile{}
		regFile.Write(1, 11)
		regFile.Write(2, 22)
		stage = pipeline.NewDecodeStage(regFile)
	})

	It("should read source register values", func() {
		result := stage.Decode(0x0530) // add $3, $1, $2

		Expect(result.ValA).To(Equal(uint16(11)))
		Expect(result.ValB).To(Equal(uint16(22)))
		Expect(result.SrcA).To(Equal(uint8(1)))
		Expect(result.SrcB).To(Equal(uint8(2)))
		Expect(result.Rd).To(Equal(uint8(3)))
	})

	It("should set control signals for ALU instructions", func() {
		result := stage.Decode(0x0530)

		Expect(result.RegWrite).To(BeTrue())
		Expect(result.MemRead).To(BeFalse())
		Expect(result.MemWrite).To(BeFalse())
		Expect(result.IsBranch).To(BeFalse())
	})

	It("should set control signals for loads", func() {
		result := stage.Decode(0x8580) // lw $3, 0($1)

		Expect(result.MemRead).To(BeTrue())
		Expect(result.MemToReg).To(BeTrue())
		Expect(result.RegWrite).To(BeTrue())
	})

	It("should set control signals for stores", func() {
		result := stage.Decode(0xA086) // sw $1, 6($0)

		Expect(result.MemWrite).To(BeTrue())
		Expect(result.RegWrite).To(BeFalse())
		Expect(result.ValB).To(Equal(uint16(11)))
	})

	It("should mark jumps as branches", func() {
		Expect(stage.Decode(0x4003).IsBranch).To(BeTrue())  // j
		Expect(stage.Decode(0x6003).IsBranch).To(BeTrue())  // jal
		Expect(stage.Decode(0x0408).IsBranch).To(BeTrue())  // jr
		Expect(stage.Decode(0xC401).IsBranch).To(BeTrue())  // jeq
	})

	It("should mark jal as writing the link register", func() {
		result := stage.Decode(0x6003)

		Expect(result.RegWrite).To(BeTrue())
		Expect(result.Rd).To(Equal(uint8(insts.LinkReg)))
	})

	It("should suppress RegWrite for destination register 0", func() {
		// add $0, $1, $2 -> 000 001 010 000 0000
		result := stage.Decode(0x0500)

		Expect(result.RegWrite).To(BeFalse())
	})
})

var _ = Describe("ExecuteStage", func() {
	var stage *pipeline.ExecuteStage

	BeforeEach(func() {
		stage = pipeline.NewExecuteStage()
	})

	It("should compute ALU results from forwarded operands", func() {
		idex := &pipeline.IDEXRegister{
			Valid: true,
			Inst:  insts.Instruction{Op: insts.OpAdd},
		}

		result := stage.Execute(idex, 30, 12)

		Expect(result.ALUResult).To(Equal(uint16(42)))
		Expect(result.BranchTaken).To(BeFalse())
	})

	It("should compute load/store addresses and carry the store value", func() {
		idex := &pipeline.IDEXRegister{
			Valid: true,
			Inst:  insts.Instruction{Op: insts.OpSw, Imm: 6},
		}

		result := stage.Execute(idex, 10, 77)

		Expect(result.ALUResult).To(Equal(uint16(16)))
		Expect(result.StoreValue).To(Equal(uint16(77)))
	})

	It("should resolve jeq relative to PC+1", func() {
		idex := &pipeline.IDEXRegister{
			Valid: true,
			PC:    3,
			Inst:  insts.Instruction{Op: insts.OpJeq, Imm: 3},
		}

		taken := stage.Execute(idex, 5, 5)
		Expect(taken.BranchTaken).To(BeTrue())
		Expect(taken.BranchTarget).To(Equal(uint16(7)))

		notTaken := stage.Execute(idex, 5, 6)
		Expect(notTaken.BranchTaken).To(BeFalse())
	})

	It("should resolve backward jeq targets through wraparound arithmetic", func() {
		idex := &pipeline.IDEXRegister{
			Valid: true,
			PC:    7,
			Inst:  insts.Instruction{Op: insts.OpJeq, Imm: 0xFFFF}, // -1
		}

		result := stage.Execute(idex, 0, 0)

		Expect(result.BranchTaken).To(BeTrue())
		Expect(result.BranchTarget).To(Equal(uint16(7)))
	})

	It("should always take j and jal", func() {
		j := stage.Execute(&pipeline.IDEXRegister{
			Valid: true,
			Inst:  insts.Instruction{Op: insts.OpJ, Addr: 100},
		}, 0, 0)
		Expect(j.BranchTaken).To(BeTrue())
		Expect(j.BranchTarget).To(Equal(uint16(100)))

		jal := stage.Execute(&pipeline.IDEXRegister{
			Valid: true,
			PC:    9,
			Inst:  insts.Instruction{Op: insts.OpJal, Addr: 100},
		}, 0, 0)
		Expect(jal.BranchTaken).To(BeTrue())
		Expect(jal.ALUResult).To(Equal(uint16(10)))
	})

	It("should take jr to the first operand value", func() {
		result := stage.Execute(&pipeline.IDEXRegister{
			Valid: true,
			Inst:  insts.Instruction{Op: insts.OpJr},
		}, 55, 0)

		Expect(result.BranchTaken).To(BeTrue())
		Expect(result.BranchTarget).To(Equal(uint16(55)))
	})

	It("should do nothing for OpNone", func() {
		result := stage.Execute(&pipeline.IDEXRegister{
			Valid: true,
			Inst:  insts.Instruction{Op: insts.OpNone},
		}, 5, 5)

		Expect(result).To(Equal(pipeline.ExecuteResult{}))
	})
})

var _ = Describe("MemoryStage", func() {
	var (
		memory *emu.Memory
		stage  *pipeline.MemoryStage
	)

	BeforeEach(func() {
		memory = emu.NewMemory()
		memory.Write(10, 1234)
		stage = pipeline.NewMemoryStage(memory)
	})

	It("should read memory for loads", func() {
		result := stage.Access(&pipeline.EXMEMRegister{
			Valid:     true,
			MemRead:   true,
			ALUResult: 10,
		})

		Expect(result.MemData).To(Equal(uint16(1234)))
	})

	It("should write memory for stores", func() {
		stage.Access(&pipeline.EXMEMRegister{
			Valid:      true,
			MemWrite:   true,
			ALUResult:  20,
			StoreValue: 99,
		})

		Expect(memory.Read(20)).To(Equal(uint16(99)))
	})

	It("should ignore invalid or non-memory slots", func() {
		Expect(stage.Access(&pipeline.EXMEMRegister{})).To(Equal(pipeline.MemoryResult{}))
		Expect(stage.Access(&pipeline.EXMEMRegister{Valid: true})).To(Equal(pipeline.MemoryResult{}))
	})
})

var _ = Describe("WritebackStage", func() {
	var (
		regFile *emu.RegFile
		stage   *pipeline.WritebackStage
	)

	BeforeEach(func() {
		regFile = &emu.RegFile{}
		stage = pipeline.NewWritebackStage(regFile)
	})

	It("should write the ALU result", func() {
		stage.Writeback(&pipeline.MEMWBRegister{
			Valid:     true,
			RegWrite:  true,
			Rd:        3,
			ALUResult: 42,
		})

		Expect(regFile.Read(3)).To(Equal(uint16(42)))
	})

	It("should write memory data for loads", func() {
		stage.Writeback(&pipeline.MEMWBRegister{
			Valid:     true,
			RegWrite:  true,
			MemToReg:  true,
			Rd:        3,
			ALUResult: 42,
			MemData:   99,
		})

		Expect(regFile.Read(3)).To(Equal(uint16(99)))
	})

	It("should not write without RegWrite", func() {
		stage.Writeback(&pipeline.MEMWBRegister{
			Valid:     true,
			Rd:        3,
			ALUResult: 42,
		})

		Expect(regFile.Read(3)).To(Equal(uint16(0)))
	})
})
