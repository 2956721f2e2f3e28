package emu

import (
	"fmt"
	"io"
)

// MemDumpSize is the number of memory words included in a final state
// dump.
const MemDumpSize = 128

// memDumpCols is the number of words printed per memory dump line.
const memDumpCols = 8

// WriteState writes the architectural state in the canonical final
// state format: the program counter, all registers in decimal, and the
// first MemDumpSize memory words in hex, eight per line.
func WriteState(w io.Writer, pc uint16, regFile *RegFile, memory *Memory) error {
	if _, err := fmt.Fprintf(w, "Final state:\n\tpc=%5d\n", pc); err != nil {
		return err
	}
	for i, v := range regFile.Regs() {
		if _, err := fmt.Fprintf(w, "\t$%d=%5d\n", i, v); err != nil {
			return err
		}
	}
	for addr := 0; addr < MemDumpSize; addr++ {
		if _, err := fmt.Fprintf(w, "%04x ", memory.Read(uint16(addr))); err != nil {
			return err
		}
		if (addr+1)%memDumpCols == 0 {
			if _, err := fmt.Fprintln(w); err != nil {
				return err
			}
		}
	}
	return nil
}
