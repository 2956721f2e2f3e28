package pipeline

// DefaultHaltWindow is the default number of consecutive non-stalled
// cycles with an unchanged fetch PC before the pipeline decides the
// program has halted.
const DefaultHaltWindow = 5

// HaltDetector recognizes program termination. The architecture has no
// halt instruction; programs terminate by jumping to their own address.
// Two signals are recognized:
//
//   - a taken branch whose target equals its own PC (SelfJump), which
//     fires as soon as the branch resolves in Execute, and
//   - a fetch PC that stays unchanged for a full window of non-stalled
//     cycles (Observe), which catches indirect self-loops the branch
//     check cannot see.
type HaltDetector struct {
	window int

	lastPC uint16
	seen   bool
	count  int
}

// NewHaltDetector creates a detector with the given window. A window
// of 0 or less uses DefaultHaltWindow.
func NewHaltDetector(window int) *HaltDetector {
	if window <= 0 {
		window = DefaultHaltWindow
	}
	return &HaltDetector{window: window}
}

// SelfJump reports whether a resolved taken branch targets its own
// address.
func (d *HaltDetector) SelfJump(target, branchPC uint16) bool {
	return target == branchPC
}

// Observe records the fetch PC for one cycle and reports whether the
// halt window has been reached. Stalled cycles hold the PC for reasons
// unrelated to termination and do not advance the window.
func (d *HaltDetector) Observe(pc uint16, stalled bool) bool {
	if stalled {
		return false
	}

	if !d.seen || pc != d.lastPC {
		d.lastPC = pc
		d.seen = true
		d.count = 1
		return false
	}

	d.count++
	return d.count >= d.window
}

// Reset clears the detector state.
func (d *HaltDetector) Reset() {
	d.lastPC = 0
	d.seen = false
	d.count = 0
}
