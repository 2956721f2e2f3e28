package pipeline

// ForwardSource indicates where a forwarded value should come from.
type ForwardSource int

const (
	// ForwardNone means no forwarding needed, use the register file value.
	ForwardNone ForwardSource = iota
	// ForwardFromEXMEM means forward from the EX/MEM pipeline register.
	ForwardFromEXMEM
	// ForwardFromMEMWB means forward from the MEM/WB pipeline register.
	ForwardFromMEMWB
)

// ForwardingResult contains forwarding decisions for both source operands.
type ForwardingResult struct {
	// ForwardA specifies the forwarding source for the first operand.
	ForwardA ForwardSource
	// ForwardB specifies the forwarding source for the second operand
	// (ALU operand, store data, or branch comparison value).
	ForwardB ForwardSource
}

// StallResult contains stall and flush control signals.
type StallResult struct {
	// StallIF indicates the IF stage should stall (hold current instruction).
	StallIF bool
	// StallID indicates the ID stage should stall.
	StallID bool
	// InsertBubbleEX indicates a bubble should be inserted in the EX stage.
	InsertBubbleEX bool
	// FlushIF indicates the IF stage should be flushed (taken branch).
	FlushIF bool
	// FlushID indicates the ID stage should be flushed (taken branch).
	FlushID bool
}

// HazardUnit detects data hazards and determines forwarding and stall
// signals.
type HazardUnit struct{}

// NewHazardUnit creates a new hazard detection unit.
func NewHazardUnit() *HazardUnit {
	return &HazardUnit{}
}

// DetectForwarding determines if forwarding is needed for the operands
// of the instruction in ID/EX. It checks the source registers against
// the destination registers of the instructions in later pipeline
// stages. EX/MEM holds the younger of the two in-flight producers, so
// it takes precedence over MEM/WB.
func (h *HazardUnit) DetectForwarding(
	idex *IDEXRegister,
	exmem *EXMEMRegister,
	memwb *MEMWBRegister,
) ForwardingResult {
	result := ForwardingResult{
		ForwardA: ForwardNone,
		ForwardB: ForwardNone,
	}

	if !idex.Valid {
		return result
	}

	if idex.Inst.UsesRegA() {
		result.ForwardA = h.detectForwardForReg(idex.SrcA, exmem, memwb)
	}
	if idex.Inst.UsesRegB() {
		result.ForwardB = h.detectForwardForReg(idex.SrcB, exmem, memwb)
	}

	return result
}

// detectForwardForReg checks if a specific register needs forwarding.
func (h *HazardUnit) detectForwardForReg(
	reg uint8,
	exmem *EXMEMRegister,
	memwb *MEMWBRegister,
) ForwardSource {
	// Register 0 always reads as 0, no need to forward.
	if reg == 0 {
		return ForwardNone
	}

	if exmem.Valid && exmem.RegWrite && exmem.Rd == reg {
		return ForwardFromEXMEM
	}

	if memwb.Valid && memwb.RegWrite && memwb.Rd == reg {
		return ForwardFromMEMWB
	}

	return ForwardNone
}

// DetectLoadUseHazard detects the load-use hazard: a load in ID/EX
// whose destination is a source of the instruction about to decode.
// The loaded value is not available until after MEM, so it cannot be
// forwarded in time for EX and the consumer must stall one cycle.
func (h *HazardUnit) DetectLoadUseHazard(
	loadRd uint8,
	nextA, nextB uint8,
	usesA, usesB bool,
) bool {
	// Register 0 never carries a dependency.
	if loadRd == 0 {
		return false
	}

	if usesA && loadRd == nextA {
		return true
	}
	if usesB && loadRd == nextB {
		return true
	}

	return false
}

// ComputeStalls computes stall and flush signals from hazard conditions.
func (h *HazardUnit) ComputeStalls(loadUseHazard bool, branchTaken bool) StallResult {
	result := StallResult{}

	// Load-use hazard: stall IF and ID, insert bubble in EX.
	if loadUseHazard {
		result.StallIF = true
		result.StallID = true
		result.InsertBubbleEX = true
	}

	// Taken branch: flush IF and ID (kill wrong-path instructions).
	if branchTaken {
		result.FlushIF = true
		result.FlushID = true
	}

	return result
}

// ForwardedValue returns the operand value to use based on a
// forwarding decision. EX/MEM forwards the ALU result; MEM/WB forwards
// memory data for loads and the ALU result otherwise.
func (h *HazardUnit) ForwardedValue(
	forward ForwardSource,
	originalValue uint16,
	exmem *EXMEMRegister,
	memwb *MEMWBRegister,
) uint16 {
	switch forward {
	case ForwardFromEXMEM:
		return exmem.ALUResult
	case ForwardFromMEMWB:
		if memwb.MemToReg {
			return memwb.MemData
		}
		return memwb.ALUResult
	default:
		return originalValue
	}
}
