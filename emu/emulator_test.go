package emu_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/e20arch/e20sim/emu"
	"github.com/e20arch/e20sim/insts"
)

var _ = Describe("Emulator", func() {
	var e *emu.Emulator

	BeforeEach(func() {
		e = emu.NewEmulator()
	})

	Describe("NewEmulator", func() {
		It("should create an emulator with initialized components", func() {
			Expect(e).NotTo(BeNil())
			Expect(e.RegFile()).NotTo(BeNil())
			Expect(e.Memory()).NotTo(BeNil())
			Expect(e.PC()).To(Equal(uint16(0)))
		})
	})

	Describe("LoadProgram", func() {
		It("should load words at address 0 and reset the PC", func() {
			Expect(e.LoadProgram([]uint16{0x2081, 0x2102})).To(Succeed())

			Expect(e.Memory().Read(0)).To(Equal(uint16(0x2081)))
			Expect(e.Memory().Read(1)).To(Equal(uint16(0x2102)))
			Expect(e.PC()).To(Equal(uint16(0)))
		})
	})

	Describe("Step", func() {
		It("should execute addi and advance the PC", func() {
			Expect(e.LoadProgram([]uint16{0x2081})).To(Succeed()) // addi $1, $0, 1

			result := e.Step()

			Expect(result.Halted).To(BeFalse())
			Expect(e.PC()).To(Equal(uint16(1)))
			Expect(e.RegFile().Read(1)).To(Equal(uint16(1)))
		})

		It("should halt when a jump targets its own address", func() {
			Expect(e.LoadProgram([]uint16{0x4000})).To(Succeed()) // j 0

			result := e.Step()

			Expect(result.Halted).To(BeTrue())
			Expect(e.Halted()).To(BeTrue())
			Expect(e.PC()).To(Equal(uint16(0)))
		})

		It("should discard writes to register 0", func() {
			// addi $0, $0, 5; j 1
			Expect(e.LoadProgram([]uint16{0x2005, 0x4001})).To(Succeed())

			Expect(e.Run()).To(Succeed())

			Expect(e.RegFile().Read(0)).To(Equal(uint16(0)))
		})
	})

	Describe("Run", func() {
		It("should compute 1 + 2 = 3", func() {
			// addi $1, $0, 1; addi $2, $0, 2; add $3, $1, $2; j 3
			program := []uint16{0x2081, 0x2102, 0x0530, 0x4003}
			Expect(e.LoadProgram(program)).To(Succeed())

			Expect(e.Run()).To(Succeed())

			Expect(e.PC()).To(Equal(uint16(3)))
			Expect(e.RegFile().Read(1)).To(Equal(uint16(1)))
			Expect(e.RegFile().Read(2)).To(Equal(uint16(2)))
			Expect(e.RegFile().Read(3)).To(Equal(uint16(3)))
			Expect(e.InstructionCount()).To(Equal(uint64(4)))
		})

		It("should sum a zero-terminated array through lw and jeq", func() {
			// $1 walks the array at address 8, $2 accumulates.
			program := []uint16{
				0x2088, // addi $1, $0, 8
				0x2100, // addi $2, $0, 0
				0x8580, // loop: lw $3, 0($1)
				0xCC03, // jeq $3, $0, done
				0x09A0, // add $2, $2, $3
				0x2481, // addi $1, $1, 1
				0x4002, // j loop
				0x4007, // done: halt
				5, 3, 20, 4, 5, 0,
			}
			Expect(e.LoadProgram(program)).To(Succeed())

			Expect(e.Run()).To(Succeed())

			Expect(e.PC()).To(Equal(uint16(7)))
			Expect(e.RegFile().Read(1)).To(Equal(uint16(13)))
			Expect(e.RegFile().Read(2)).To(Equal(uint16(37)))
			Expect(e.RegFile().Read(3)).To(Equal(uint16(0)))
			Expect(e.InstructionCount()).To(Equal(uint64(30)))
		})

		It("should compute the 9th Fibonacci number", func() {
			program := []uint16{
				0x2080, // addi $1, $0, 0
				0x2101, // addi $2, $0, 1
				0x2188, // addi $3, $0, 8
				0xCC05, // loop: jeq $3, $0, done
				0x0540, // add $4, $1, $2
				0x0110, // add $1, $0, $2
				0x0220, // add $2, $0, $4
				0x2DFF, // addi $3, $3, -1
				0x4003, // j loop
				0x4009, // done: halt
			}
			Expect(e.LoadProgram(program)).To(Succeed())

			Expect(e.Run()).To(Succeed())

			Expect(e.PC()).To(Equal(uint16(9)))
			Expect(e.RegFile().Read(1)).To(Equal(uint16(21)))
			Expect(e.RegFile().Read(2)).To(Equal(uint16(34)))
			Expect(e.RegFile().Read(3)).To(Equal(uint16(0)))
		})

		It("should write the link register on jal", func() {
			// jal 3; addi $1, $0, 60; (unused); halt
			program := []uint16{0x6003, 0x20BC, 0x0000, 0x4003}
			Expect(e.LoadProgram(program)).To(Succeed())

			Expect(e.Run()).To(Succeed())

			Expect(e.PC()).To(Equal(uint16(3)))
			Expect(e.RegFile().Read(insts.LinkReg)).To(Equal(uint16(1)))
			Expect(e.RegFile().Read(1)).To(Equal(uint16(0)))
		})

		It("should jump through a register on jr", func() {
			// addi $1, $0, 3; jr $1; (unused); halt
			program := []uint16{0x2083, 0x0408, 0x0000, 0x4003}
			Expect(e.LoadProgram(program)).To(Succeed())

			Expect(e.Run()).To(Succeed())

			Expect(e.PC()).To(Equal(uint16(3)))
		})

		It("should store to memory with sw", func() {
			// addi $1, $0, 60; sw $1, 6($0); halt
			program := []uint16{0x20BC, 0xA086, 0x4002}
			Expect(e.LoadProgram(program)).To(Succeed())

			Expect(e.Run()).To(Succeed())

			Expect(e.Memory().Read(6)).To(Equal(uint16(60)))
			Expect(e.PC()).To(Equal(uint16(2)))
		})

		It("should compute slti against the immediate", func() {
			// addi $1, $0, 5; slti $2, $1, 10; halt
			program := []uint16{0x2085, 0xE50A, 0x4002}
			Expect(e.LoadProgram(program)).To(Succeed())

			Expect(e.Run()).To(Succeed())

			Expect(e.RegFile().Read(2)).To(Equal(uint16(1)))
		})

		It("should report ErrDidNotHalt when the budget expires", func() {
			bounded := emu.NewEmulator(emu.WithMaxInstructions(100))
			// j 1; j 0: a two-instruction loop that never halts.
			Expect(bounded.LoadProgram([]uint16{0x4001, 0x4000})).To(Succeed())

			err := bounded.Run()

			Expect(err).To(MatchError(emu.ErrDidNotHalt))
			Expect(bounded.Halted()).To(BeFalse())
			Expect(bounded.InstructionCount()).To(Equal(uint64(100)))
		})
	})

	Describe("Reset", func() {
		It("should restore initial state", func() {
			Expect(e.LoadProgram([]uint16{0x2081, 0x4001})).To(Succeed())
			Expect(e.Run()).To(Succeed())

			e.Reset()

			Expect(e.PC()).To(Equal(uint16(0)))
			Expect(e.Halted()).To(BeFalse())
			Expect(e.InstructionCount()).To(Equal(uint64(0)))
			Expect(e.RegFile().Read(1)).To(Equal(uint16(0)))
			Expect(e.Memory().Read(0)).To(Equal(uint16(0)))
		})
	})
})
