package pipeline

import (
	"github.com/e20arch/e20sim/timing/cache"
)

// CachedFetchStage fetches instructions through an instruction cache.
type CachedFetchStage struct {
	cache     *cache.Cache
	pending   bool   // True if waiting out a miss
	pendingPC uint16 // PC being waited on
	latency   uint64 // Remaining latency cycles
	result    uint16 // Fetched word held while waiting
}

// NewCachedFetchStage creates a new cached fetch stage.
func NewCachedFetchStage(icache *cache.Cache) *CachedFetchStage {
	return &CachedFetchStage{cache: icache}
}

// Fetch fetches an instruction word through the I-cache. Returns the
// word, whether the fetch completed, and whether the stage is stalling.
func (s *CachedFetchStage) Fetch(pc uint16) (word uint16, ok bool, stall bool) {
	// A PC change cancels any pending request (taken branch).
	if s.pending && s.pendingPC != pc {
		s.pending = false
		s.latency = 0
	}

	if s.pending {
		s.latency--
		if s.latency > 0 {
			return 0, false, true
		}
		s.pending = false
		return s.result, true, false
	}

	result := s.cache.Read(pc)

	if result.Latency == 0 {
		return result.Data, true, false
	}

	// The access takes extra cycles; hold the result until they elapse.
	s.pending = true
	s.pendingPC = pc
	s.latency = result.Latency
	s.result = result.Data
	return 0, false, true
}

// Reset clears pending state and invalidates the cache.
func (s *CachedFetchStage) Reset() {
	s.pending = false
	s.latency = 0
	s.result = 0
	s.cache.Reset()
}

// CacheStats returns the underlying cache statistics.
func (s *CachedFetchStage) CacheStats() cache.Statistics {
	return s.cache.Stats()
}

// CachedMemoryStage handles loads and stores through a data cache.
type CachedMemoryStage struct {
	cache       *cache.Cache
	pending     bool   // True if waiting out access latency
	pendingPC   uint16 // PC of instruction being waited on
	pendingAddr uint16 // Address being waited on
	latency     uint64 // Remaining latency cycles
	result      uint16 // Loaded word held while waiting

	// Completed state: when an access finishes but the pipeline has not
	// advanced yet (another stage is stalling), the result is held here
	// so the replaying instruction does not re-trigger the cache and
	// inflate statistics.
	completed       bool
	completedPC     uint16
	completedAddr   uint16
	completedResult uint16

	// Stores are fire-and-forget; this guard skips duplicate writes
	// when a stall replays the same store.
	storeIssued     bool
	storeIssuedPC   uint16
	storeIssuedAddr uint16
}

// NewCachedMemoryStage creates a new cached memory stage.
func NewCachedMemoryStage(dcache *cache.Cache) *CachedMemoryStage {
	return &CachedMemoryStage{cache: dcache}
}

// Access performs a memory read or write through the D-cache. Returns
// the result and whether the operation is stalling.
func (s *CachedMemoryStage) Access(exmem *EXMEMRegister) (MemoryResult, bool) {
	result := MemoryResult{}

	if !exmem.Valid || (!exmem.MemRead && !exmem.MemWrite) {
		s.pending = false
		s.completed = false
		return result, false
	}

	addr := exmem.ALUResult

	// A different memory operation cancels pending and completed state.
	if s.pending && (s.pendingPC != exmem.PC || s.pendingAddr != addr) {
		s.pending = false
		s.latency = 0
	}
	if s.completed && (s.completedPC != exmem.PC || s.completedAddr != addr) {
		s.completed = false
	}

	if s.completed {
		if exmem.MemRead {
			result.MemData = s.completedResult
		}
		return result, false
	}

	if s.pending {
		s.latency--
		if s.latency > 0 {
			return result, true
		}
		s.pending = false
		s.completed = true
		s.completedPC = exmem.PC
		s.completedAddr = addr
		s.completedResult = s.result
		if exmem.MemRead {
			result.MemData = s.result
		}
		return result, false
	}

	if exmem.MemRead {
		cacheResult := s.cache.Read(addr)

		if cacheResult.Latency == 0 {
			s.completed = true
			s.completedPC = exmem.PC
			s.completedAddr = addr
			s.completedResult = cacheResult.Data
			result.MemData = cacheResult.Data
			return result, false
		}

		s.pending = true
		s.pendingPC = exmem.PC
		s.pendingAddr = addr
		s.latency = cacheResult.Latency
		s.result = cacheResult.Data
		return result, true
	}

	// Store: write-allocate into the cache immediately, without
	// stalling. A store buffer is assumed to absorb the latency.
	if !s.storeIssued || s.storeIssuedPC != exmem.PC || s.storeIssuedAddr != addr {
		s.cache.Write(addr, exmem.StoreValue)
		s.storeIssued = true
		s.storeIssuedPC = exmem.PC
		s.storeIssuedAddr = addr
	}
	s.pending = false
	return result, false
}

// Flush writes all dirty cache blocks back to memory.
func (s *CachedMemoryStage) Flush() {
	s.cache.Flush()
}

// Reset clears pending and completed state and invalidates the cache.
func (s *CachedMemoryStage) Reset() {
	s.pending = false
	s.latency = 0
	s.result = 0
	s.completed = false
	s.completedResult = 0
	s.storeIssued = false
	s.cache.Reset()
}

// CacheStats returns the underlying cache statistics.
func (s *CachedMemoryStage) CacheStats() cache.Statistics {
	return s.cache.Stats()
}
