// Package cache provides word-addressed cache modeling using Akita
// cache components.
package cache

import (
	akitacache "github.com/sarchlab/akita/v4/mem/cache"
)

// Config holds cache configuration parameters. All sizes are in 16-bit
// words; the simulated machine has no byte addressing.
type Config struct {
	// SizeWords is the total capacity in words.
	SizeWords int
	// Associativity (number of ways)
	Associativity int
	// BlockWords is the cache line size in words.
	BlockWords int
	// HitLatency in extra cycles (0 means single-cycle access)
	HitLatency uint64
	// MissLatency in extra cycles (includes memory access time)
	MissLatency uint64
}

// DefaultIConfig returns a default instruction cache configuration
// sized for the 8192-word memory.
func DefaultIConfig() Config {
	return Config{
		SizeWords:     256,
		Associativity: 2,
		BlockWords:    4,
		HitLatency:    0,
		MissLatency:   2,
	}
}

// DefaultDConfig returns a default data cache configuration sized for
// the 8192-word memory.
func DefaultDConfig() Config {
	return Config{
		SizeWords:     256,
		Associativity: 2,
		BlockWords:    4,
		HitLatency:    0,
		MissLatency:   2,
	}
}

// AccessResult contains the result of a cache access.
type AccessResult struct {
	// Hit indicates whether the access was a cache hit.
	Hit bool
	// Latency is the number of extra cycles this access takes.
	Latency uint64
	// Data is the word read (for load operations).
	Data uint16
	// Evicted is true if a valid block was evicted.
	Evicted bool
	// EvictedAddr is the block address of the evicted block.
	EvictedAddr uint16
}

// BackingStore is the next level in the memory hierarchy.
type BackingStore interface {
	// ReadBlock fetches a block of words from the backing store.
	ReadBlock(addr uint16, words int) []uint16
	// WriteBlock stores a block of words to the backing store.
	WriteBlock(addr uint16, data []uint16)
}

// Statistics holds cache performance statistics.
type Statistics struct {
	Reads      uint64
	Writes     uint64
	Hits       uint64
	Misses     uint64
	Evictions  uint64
	Writebacks uint64
}

// Cache is a write-back, write-allocate cache over 16-bit word
// addresses. Tag and replacement state live in an Akita cache
// directory; block data is stored alongside, indexed by set and way.
type Cache struct {
	config Config

	directory *akitacache.DirectoryImpl

	// Block data indexed by (setID * associativity + wayID).
	dataStore [][]uint16

	stats Statistics

	backing BackingStore
}

// New creates a new cache with the given configuration.
func New(config Config, backing BackingStore) *Cache {
	numSets := config.SizeWords / (config.Associativity * config.BlockWords)
	totalBlocks := numSets * config.Associativity

	dataStore := make([][]uint16, totalBlocks)
	for i := range dataStore {
		dataStore[i] = make([]uint16, config.BlockWords)
	}

	return &Cache{
		config: config,
		directory: akitacache.NewDirectory(
			numSets,
			config.Associativity,
			config.BlockWords,
			akitacache.NewLRUVictimFinder(),
		),
		dataStore: dataStore,
		backing:   backing,
	}
}

// Config returns the cache configuration.
func (c *Cache) Config() Config {
	return c.config
}

// Stats returns cache statistics.
func (c *Cache) Stats() Statistics {
	return c.stats
}

// ResetStats clears cache statistics.
func (c *Cache) ResetStats() {
	c.stats = Statistics{}
}

// blockIndex computes the index into dataStore for a block.
func (c *Cache) blockIndex(block *akitacache.Block) int {
	return block.SetID*c.config.Associativity + block.WayID
}

// blockAddr aligns a word address down to its block boundary.
func (c *Cache) blockAddr(addr uint16) uint16 {
	return addr / uint16(c.config.BlockWords) * uint16(c.config.BlockWords)
}

// Read performs a cache read of one word.
func (c *Cache) Read(addr uint16) AccessResult {
	c.stats.Reads++

	blockAddr := c.blockAddr(addr)
	block := c.directory.Lookup(0, uint64(blockAddr))

	if block != nil && block.IsValid {
		c.stats.Hits++
		c.directory.Visit(block)

		offset := addr - blockAddr
		return AccessResult{
			Hit:     true,
			Latency: c.config.HitLatency,
			Data:    c.dataStore[c.blockIndex(block)][offset],
		}
	}

	c.stats.Misses++
	return c.handleMiss(addr, false, 0)
}

// Write performs a cache write of one word. The cache is
// write-allocate: on miss the block is fetched first, then written.
func (c *Cache) Write(addr uint16, data uint16) AccessResult {
	c.stats.Writes++

	blockAddr := c.blockAddr(addr)
	block := c.directory.Lookup(0, uint64(blockAddr))

	if block != nil && block.IsValid {
		c.stats.Hits++
		c.directory.Visit(block)

		offset := addr - blockAddr
		c.dataStore[c.blockIndex(block)][offset] = data
		block.IsDirty = true

		return AccessResult{
			Hit:     true,
			Latency: c.config.HitLatency,
		}
	}

	c.stats.Misses++
	return c.handleMiss(addr, true, data)
}

// handleMiss fetches the missing block from the backing store,
// evicting and writing back a victim if needed.
func (c *Cache) handleMiss(addr uint16, isWrite bool, writeData uint16) AccessResult {
	result := AccessResult{
		Hit:     false,
		Latency: c.config.MissLatency,
	}

	blockAddr := c.blockAddr(addr)

	victim := c.directory.FindVictim(uint64(blockAddr))
	if victim == nil {
		return result
	}

	victimData := c.dataStore[c.blockIndex(victim)]

	if victim.IsValid {
		c.stats.Evictions++
		result.Evicted = true
		result.EvictedAddr = uint16(victim.Tag)

		if victim.IsDirty && c.backing != nil {
			c.stats.Writebacks++
			c.backing.WriteBlock(uint16(victim.Tag), victimData)
		}
	}

	if c.backing != nil {
		copy(victimData, c.backing.ReadBlock(blockAddr, c.config.BlockWords))
	} else {
		for i := range victimData {
			victimData[i] = 0
		}
	}

	// Tag stores the block-aligned word address.
	victim.Tag = uint64(blockAddr)
	victim.IsValid = true
	victim.IsDirty = false

	offset := addr - blockAddr
	if isWrite {
		victimData[offset] = writeData
		victim.IsDirty = true
	} else {
		result.Data = victimData[offset]
	}

	c.directory.Visit(victim)

	return result
}

// Invalidate marks a cache line as invalid without writeback.
func (c *Cache) Invalidate(addr uint16) {
	block := c.directory.Lookup(0, uint64(c.blockAddr(addr)))
	if block != nil && block.IsValid {
		block.IsValid = false
		block.IsDirty = false
	}
}

// Flush writes back all dirty blocks and invalidates them.
func (c *Cache) Flush() {
	for _, set := range c.directory.GetSets() {
		for _, block := range set.Blocks {
			if block.IsValid && block.IsDirty && c.backing != nil {
				c.backing.WriteBlock(uint16(block.Tag), c.dataStore[c.blockIndex(block)])
				c.stats.Writebacks++
			}
			block.IsValid = false
			block.IsDirty = false
		}
	}
}

// Reset invalidates all cache lines without writeback.
func (c *Cache) Reset() {
	c.directory.Reset()
	c.stats = Statistics{}
}
