// Package cache provides word-addressed cache modeling using Akita
// cache components.
package cache

import (
	"github.com/e20arch/e20sim/emu"
)

// MemoryBacking wraps emu.Memory as a BackingStore.
type MemoryBacking struct {
	memory *emu.Memory
}

// NewMemoryBacking creates a new MemoryBacking adapter.
func NewMemoryBacking(memory *emu.Memory) *MemoryBacking {
	return &MemoryBacking{memory: memory}
}

// ReadBlock fetches a block of words from the backing memory.
func (m *MemoryBacking) ReadBlock(addr uint16, words int) []uint16 {
	data := make([]uint16, words)
	for i := range data {
		data[i] = m.memory.Read(addr + uint16(i))
	}
	return data
}

// WriteBlock stores a block of words to the backing memory.
func (m *MemoryBacking) WriteBlock(addr uint16, data []uint16) {
	for i, w := range data {
		m.memory.Write(addr+uint16(i), w)
	}
}
