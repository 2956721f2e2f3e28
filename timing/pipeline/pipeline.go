package pipeline

import (
	"github.com/e20arch/e20sim/emu"
	"github.com/e20arch/e20sim/timing/cache"
)

// Statistics holds pipeline performance statistics.
type Statistics struct {
	// Cycles is the total number of cycles simulated.
	Cycles uint64
	// Instructions is the number of instructions completed (retired).
	Instructions uint64
	// Stalls is the number of stall cycles.
	Stalls uint64
	// Flushes is the number of pipeline flushes (taken branches).
	Flushes uint64
	// MemStalls is the number of stalls due to memory latency.
	MemStalls uint64
	// DataHazards is the number of RAW data hazards resolved by forwarding.
	DataHazards uint64
}

// CPI returns the cycles per instruction.
func (s Statistics) CPI() float64 {
	if s.Instructions == 0 {
		return 0
	}
	return float64(s.Cycles) / float64(s.Instructions)
}

// TraceEntry records one instruction fetch for debugging.
type TraceEntry struct {
	// Cycle is the cycle the fetch happened on.
	Cycle uint64
	// PC is the fetch-stage program counter.
	PC uint16
	// Word is the fetched instruction word.
	Word uint16
}

// PipelineOption is a functional option for configuring the Pipeline.
type PipelineOption func(*Pipeline)

// WithICache enables an instruction cache with the given configuration.
func WithICache(config cache.Config) PipelineOption {
	return func(p *Pipeline) {
		backing := cache.NewMemoryBacking(p.memory)
		icache := cache.New(config, backing)
		p.cachedFetchStage = NewCachedFetchStage(icache)
		p.useICache = true
	}
}

// WithDCache enables a data cache with the given configuration.
func WithDCache(config cache.Config) PipelineOption {
	return func(p *Pipeline) {
		backing := cache.NewMemoryBacking(p.memory)
		dcache := cache.New(config, backing)
		p.cachedMemoryStage = NewCachedMemoryStage(dcache)
		p.useDCache = true
	}
}

// WithDefaultCaches enables instruction and data caches with default
// configurations.
func WithDefaultCaches() PipelineOption {
	return func(p *Pipeline) {
		WithICache(cache.DefaultIConfig())(p)
		WithDCache(cache.DefaultDConfig())(p)
	}
}

// WithHaltWindow sets the halt detection window in cycles.
func WithHaltWindow(window int) PipelineOption {
	return func(p *Pipeline) {
		p.haltDetector = NewHaltDetector(window)
	}
}

// WithTrace enables per-cycle fetch tracing.
func WithTrace() PipelineOption {
	return func(p *Pipeline) {
		p.traceEnabled = true
	}
}

// Pipeline implements a 5-stage pipelined CPU model.
// Stages: Fetch (IF) -> Decode (ID) -> Execute (EX) -> Memory (MEM) -> Writeback (WB)
type Pipeline struct {
	// Pipeline registers
	ifid  IFIDRegister
	idex  IDEXRegister
	exmem EXMEMRegister
	memwb MEMWBRegister

	// Pipeline stages
	fetchStage     *FetchStage
	decodeStage    *DecodeStage
	executeStage   *ExecuteStage
	memoryStage    *MemoryStage
	writebackStage *WritebackStage

	// Cached pipeline stages (optional)
	cachedFetchStage  *CachedFetchStage
	cachedMemoryStage *CachedMemoryStage
	useICache         bool
	useDCache         bool

	// Hazard detection
	hazardUnit *HazardUnit

	// Halt detection
	haltDetector *HaltDetector

	// Shared resources
	regFile *emu.RegFile
	memory  *emu.Memory

	// Program counter
	pc uint16

	// Statistics
	stats Statistics

	// Fetch trace
	traceEnabled bool
	trace        []TraceEntry

	// Execution state. Once a halt condition fires, fetch and decode
	// are suppressed and the pipeline drains so that older in-flight
	// instructions still commit their architectural effects.
	draining bool
	halted   bool
}

// NewPipeline creates a new 5-stage pipeline over the given register
// file and memory.
func NewPipeline(regFile *emu.RegFile, memory *emu.Memory, opts ...PipelineOption) *Pipeline {
	p := &Pipeline{
		fetchStage:     NewFetchStage(memory),
		decodeStage:    NewDecodeStage(regFile),
		executeStage:   NewExecuteStage(),
		memoryStage:    NewMemoryStage(memory),
		writebackStage: NewWritebackStage(regFile),
		hazardUnit:     NewHazardUnit(),
		haltDetector:   NewHaltDetector(DefaultHaltWindow),
		regFile:        regFile,
		memory:         memory,
	}

	for _, opt := range opts {
		opt(p)
	}

	return p
}

// PC returns the current fetch program counter.
func (p *Pipeline) PC() uint16 {
	return p.pc
}

// SetPC sets the program counter.
func (p *Pipeline) SetPC(pc uint16) {
	p.pc = pc
}

// GetIFID returns the IF/ID pipeline register.
func (p *Pipeline) GetIFID() *IFIDRegister {
	return &p.ifid
}

// GetIDEX returns the ID/EX pipeline register.
func (p *Pipeline) GetIDEX() *IDEXRegister {
	return &p.idex
}

// GetEXMEM returns the EX/MEM pipeline register.
func (p *Pipeline) GetEXMEM() *EXMEMRegister {
	return &p.exmem
}

// GetMEMWB returns the MEM/WB pipeline register.
func (p *Pipeline) GetMEMWB() *MEMWBRegister {
	return &p.memwb
}

// Stats returns pipeline statistics.
func (p *Pipeline) Stats() Statistics {
	return p.stats
}

// Trace returns the recorded fetch trace.
func (p *Pipeline) Trace() []TraceEntry {
	return p.trace
}

// Halted returns true if the pipeline has halted.
func (p *Pipeline) Halted() bool {
	return p.halted
}

// ICacheStats returns instruction cache statistics, if enabled.
func (p *Pipeline) ICacheStats() (cache.Statistics, bool) {
	if !p.useICache {
		return cache.Statistics{}, false
	}
	return p.cachedFetchStage.CacheStats(), true
}

// DCacheStats returns data cache statistics, if enabled.
func (p *Pipeline) DCacheStats() (cache.Statistics, bool) {
	if !p.useDCache {
		return cache.Statistics{}, false
	}
	return p.cachedMemoryStage.CacheStats(), true
}

// Reset restores the pipeline to its initial state: all stage
// registers empty, PC 0, zeroed registers and memory. The program must
// be reloaded before the next run.
func (p *Pipeline) Reset() {
	p.regFile.Reset()
	p.memory.Reset()
	p.ifid.Clear()
	p.idex.Clear()
	p.exmem.Clear()
	p.memwb.Clear()
	p.pc = 0
	p.stats = Statistics{}
	p.trace = nil
	p.draining = false
	p.halted = false
	p.haltDetector.Reset()
	if p.cachedFetchStage != nil {
		p.cachedFetchStage.Reset()
	}
	if p.cachedMemoryStage != nil {
		p.cachedMemoryStage.Reset()
	}
}

// Run executes the pipeline until it halts. maxCycles of 0 means no
// limit; a positive budget that expires before halt returns
// emu.ErrDidNotHalt.
func (p *Pipeline) Run(maxCycles uint64) error {
	for !p.halted {
		if maxCycles > 0 && p.stats.Cycles >= maxCycles {
			return emu.ErrDidNotHalt
		}
		p.Tick()
	}
	return nil
}

// RunCycles executes the pipeline for the specified number of cycles.
// Returns true if still running, false if halted.
func (p *Pipeline) RunCycles(cycles uint64) bool {
	for i := uint64(0); i < cycles && !p.halted; i++ {
		p.Tick()
	}
	return !p.halted
}

// Tick executes one pipeline cycle.
//
// Hazard handling:
//   - Data forwarding from EX/MEM and MEM/WB into Execute resolves RAW
//     hazards between back-to-back ALU instructions without stalling.
//   - A load-use hazard stalls IF and ID for one cycle and inserts a
//     bubble into EX.
//   - A taken branch resolved in Execute redirects fetch and flushes
//     the two younger instructions in IF and ID.
//
// Stages are evaluated in reverse order (WB->MEM->EX->IF->ID) from a
// snapshot of the pipeline registers, then new values are latched at
// cycle end. Writeback commits before Decode reads, so a value three
// instructions old is visible through the register file itself.
func (p *Pipeline) Tick() {
	if p.halted {
		return
	}

	p.stats.Cycles++

	// Detect hazards before executing stages.
	forwarding := p.hazardUnit.DetectForwarding(&p.idex, &p.exmem, &p.memwb)
	if forwarding.ForwardA != ForwardNone || forwarding.ForwardB != ForwardNone {
		p.stats.DataHazards++
	}

	// Detect a load-use hazard between the load in ID/EX and the
	// instruction waiting in IF/ID. Peeking requires a decode, but the
	// real decode still happens in the ID stage below.
	loadUseHazard := false
	if p.idex.Valid && p.idex.MemRead && p.idex.Rd != 0 && p.ifid.Valid && !p.draining {
		next := p.decodeStage.decoder.Decode(p.ifid.Word)
		loadUseHazard = p.hazardUnit.DetectLoadUseHazard(
			p.idex.Rd,
			next.RegA, next.RegB,
			next.UsesRegA(), next.UsesRegB(),
		)
	}

	branchTaken := false
	var branchTarget uint16

	// Stage 5: Writeback
	savedMEMWB := p.memwb
	p.writebackStage.Writeback(&p.memwb)
	if p.memwb.Valid {
		p.stats.Instructions++
	}

	// Stage 4: Memory
	var nextMEMWB MEMWBRegister
	memStall := false
	if p.exmem.Valid {
		var memResult MemoryResult
		if p.useDCache && p.cachedMemoryStage != nil {
			memResult, memStall = p.cachedMemoryStage.Access(&p.exmem)
			if memStall {
				p.stats.MemStalls++
			}
		} else {
			memResult = p.memoryStage.Access(&p.exmem)
		}

		if !memStall {
			nextMEMWB = MEMWBRegister{
				Valid:     true,
				PC:        p.exmem.PC,
				Inst:      p.exmem.Inst,
				ALUResult: p.exmem.ALUResult,
				MemData:   memResult.MemData,
				Rd:        p.exmem.Rd,
				RegWrite:  p.exmem.RegWrite,
				MemToReg:  p.exmem.MemToReg,
			}
		}
	}

	// Stage 3: Execute
	var nextEXMEM EXMEMRegister
	if p.idex.Valid && !memStall {
		valA := p.hazardUnit.ForwardedValue(
			forwarding.ForwardA, p.idex.ValA, &p.exmem, &savedMEMWB)
		valB := p.hazardUnit.ForwardedValue(
			forwarding.ForwardB, p.idex.ValB, &p.exmem, &savedMEMWB)

		execResult := p.executeStage.Execute(&p.idex, valA, valB)

		if p.idex.IsBranch && execResult.BranchTaken {
			branchTaken = true
			branchTarget = execResult.BranchTarget

			// A branch to its own address is the termination idiom.
			if p.haltDetector.SelfJump(branchTarget, p.idex.PC) {
				p.draining = true
			}
		}

		nextEXMEM = EXMEMRegister{
			Valid:      true,
			PC:         p.idex.PC,
			Inst:       p.idex.Inst,
			ALUResult:  execResult.ALUResult,
			StoreValue: execResult.StoreValue,
			Rd:         p.idex.Rd,
			MemRead:    p.idex.MemRead,
			MemWrite:   p.idex.MemWrite,
			RegWrite:   p.idex.RegWrite,
			MemToReg:   p.idex.MemToReg,
		}
	}

	stallResult := p.hazardUnit.ComputeStalls(loadUseHazard || memStall, branchTaken)

	// Stage 1: Fetch (processed before Decode to learn about fetch stalls)
	var nextIFID IFIDRegister
	fetchStall := false
	if p.draining {
		// No fetch while draining.
	} else if !stallResult.StallIF && !stallResult.FlushIF {
		var word uint16
		var ok bool

		if p.useICache && p.cachedFetchStage != nil {
			word, ok, fetchStall = p.cachedFetchStage.Fetch(p.pc)
			if fetchStall {
				p.stats.Stalls++
			}
		} else {
			word, ok = p.fetchStage.Fetch(p.pc)
		}

		if ok && !fetchStall {
			nextIFID = IFIDRegister{
				Valid: true,
				PC:    p.pc,
				Word:  word,
			}
			if p.traceEnabled {
				p.trace = append(p.trace, TraceEntry{
					Cycle: p.stats.Cycles,
					PC:    p.pc,
					Word:  word,
				})
			}
			p.pc++
		} else if fetchStall {
			nextIFID = p.ifid
		}
	} else if stallResult.StallIF && !stallResult.FlushIF {
		nextIFID = p.ifid
		p.stats.Stalls++
	}

	// Stage 2: Decode
	// When fetch stalls, IF/ID is preserved for next cycle, so decoding
	// now would execute the instruction twice.
	var nextIDEX IDEXRegister
	if p.draining {
		// No decode while draining.
	} else if p.ifid.Valid && !stallResult.StallID && !stallResult.FlushID && !fetchStall {
		decResult := p.decodeStage.Decode(p.ifid.Word)
		nextIDEX = IDEXRegister{
			Valid:    true,
			PC:       p.ifid.PC,
			Inst:     decResult.Inst,
			ValA:     decResult.ValA,
			ValB:     decResult.ValB,
			SrcA:     decResult.SrcA,
			SrcB:     decResult.SrcB,
			Rd:       decResult.Rd,
			MemRead:  decResult.MemRead,
			MemWrite: decResult.MemWrite,
			RegWrite: decResult.RegWrite,
			MemToReg: decResult.MemToReg,
			IsBranch: decResult.IsBranch,
		}
	} else if (stallResult.StallID || fetchStall) && !stallResult.FlushID {
		nextIDEX = p.idex
	}

	// Handle taken branch: redirect fetch and flush wrong-path
	// instructions in IF and ID.
	if branchTaken {
		p.pc = branchTarget
		nextIFID.Clear()
		nextIDEX.Clear()
		p.stats.Flushes++
	}

	// Latch pipeline registers.
	if !memStall && !fetchStall {
		p.memwb = nextMEMWB
	} else {
		p.memwb.Clear()
	}
	if !memStall && !fetchStall {
		p.exmem = nextEXMEM
	}
	if stallResult.InsertBubbleEX && !memStall && !fetchStall {
		p.idex.Clear()
	} else if !memStall && !fetchStall {
		p.idex = nextIDEX
	}
	if !fetchStall {
		p.ifid = nextIFID
	}

	// An instruction held in ID/EX outlives its producers' stay in
	// MEM/WB, which is cleared on stall cycles. Writeback has already
	// committed this tick, so re-read the register file to keep the
	// held operands current; in-flight producers are still covered by
	// forwarding.
	if (memStall || fetchStall) && p.idex.Valid {
		p.idex.ValA = p.regFile.Read(p.idex.SrcA)
		p.idex.ValB = p.regFile.Read(p.idex.SrcB)
	}

	if p.draining {
		if !p.ifid.Valid && !p.idex.Valid && !p.exmem.Valid && !p.memwb.Valid {
			p.halted = true
			// Dirty blocks must reach memory so the final state is
			// architecturally complete.
			if p.useDCache && p.cachedMemoryStage != nil {
				p.cachedMemoryStage.Flush()
			}
		}
		return
	}

	stalled := memStall || fetchStall || stallResult.StallIF
	if p.haltDetector.Observe(p.pc, stalled) {
		p.draining = true
	}
}
