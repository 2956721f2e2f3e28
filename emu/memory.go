package emu

import "fmt"

// MemSize is the number of 16-bit words in memory (13-bit addresses).
const MemSize = 1 << 13

// AddrMask masks an address into the valid 13-bit range.
const AddrMask = MemSize - 1

// Memory is the flat word-addressed instruction and data store. A
// single backing array serves both instruction fetch and data access
// (Harvard-style ports, shared storage). Addresses are always masked
// into range, never rejected.
type Memory struct {
	words [MemSize]uint16
}

// NewMemory creates a new zeroed memory.
func NewMemory() *Memory {
	return &Memory{}
}

// Read returns the word at addr. The address wraps modulo MemSize.
func (m *Memory) Read(addr uint16) uint16 {
	return m.words[addr&AddrMask]
}

// Write stores value at addr. The address wraps modulo MemSize.
func (m *Memory) Write(addr, value uint16) {
	m.words[addr&AddrMask] = value
}

// LoadWords copies a program image into memory starting at address 0.
func (m *Memory) LoadWords(words []uint16) error {
	if len(words) > MemSize {
		return fmt.Errorf("program too big for memory: %d words", len(words))
	}
	for i, w := range words {
		m.words[i] = w
	}
	return nil
}

// Reset rewrites every word to zero. Reset is idempotent and may be
// invoked at any step boundary.
func (m *Memory) Reset() {
	for i := range m.words {
		m.words[i] = 0
	}
}
