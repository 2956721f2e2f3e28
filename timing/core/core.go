// Package core assembles the pipelined engine around shared
// architectural state.
package core

import (
	"io"

	"github.com/e20arch/e20sim/config"
	"github.com/e20arch/e20sim/emu"
	"github.com/e20arch/e20sim/timing/cache"
	"github.com/e20arch/e20sim/timing/pipeline"
)

// Core couples a register file, a memory, and a 5-stage pipeline into
// a runnable timing engine.
type Core struct {
	regFile  *emu.RegFile
	memory   *emu.Memory
	pipeline *pipeline.Pipeline

	maxCycles uint64
}

// NewCore creates a core with the given pipeline options and no cycle
// limit.
func NewCore(opts ...pipeline.PipelineOption) *Core {
	regFile := &emu.RegFile{}
	memory := emu.NewMemory()
	return &Core{
		regFile:  regFile,
		memory:   memory,
		pipeline: pipeline.NewPipeline(regFile, memory, opts...),
	}
}

// FromConfig creates a core configured from a loaded configuration.
func FromConfig(cfg *config.Config) *Core {
	var opts []pipeline.PipelineOption

	opts = append(opts, pipeline.WithHaltWindow(cfg.HaltWindow))
	if cfg.Trace {
		opts = append(opts, pipeline.WithTrace())
	}
	if cfg.ICache.Enabled {
		opts = append(opts, pipeline.WithICache(cacheConfig(cfg.ICache)))
	}
	if cfg.DCache.Enabled {
		opts = append(opts, pipeline.WithDCache(cacheConfig(cfg.DCache)))
	}

	c := NewCore(opts...)
	c.maxCycles = cfg.MaxCycles
	return c
}

func cacheConfig(c config.CacheConfig) cache.Config {
	return cache.Config{
		SizeWords:     c.SizeWords,
		Associativity: c.Associativity,
		BlockWords:    c.BlockWords,
		HitLatency:    uint64(c.HitLatency),
		MissLatency:   uint64(c.MissLatency),
	}
}

// RegFile returns the core's register file.
func (c *Core) RegFile() *emu.RegFile {
	return c.regFile
}

// Memory returns the core's memory.
func (c *Core) Memory() *emu.Memory {
	return c.memory
}

// Pipeline returns the underlying pipeline.
func (c *Core) Pipeline() *pipeline.Pipeline {
	return c.pipeline
}

// PC returns the final program counter.
func (c *Core) PC() uint16 {
	return c.pipeline.PC()
}

// Stats returns pipeline statistics.
func (c *Core) Stats() pipeline.Statistics {
	return c.pipeline.Stats()
}

// Trace returns the recorded fetch trace.
func (c *Core) Trace() []pipeline.TraceEntry {
	return c.pipeline.Trace()
}

// LoadProgram loads a program image into memory at address 0.
func (c *Core) LoadProgram(words []uint16) error {
	return c.memory.LoadWords(words)
}

// Run executes until the program halts or the configured cycle budget
// expires, in which case emu.ErrDidNotHalt is returned.
func (c *Core) Run() error {
	return c.pipeline.Run(c.maxCycles)
}

// WriteState writes the final architectural state in the canonical
// format.
func (c *Core) WriteState(w io.Writer) error {
	return emu.WriteState(w, c.pipeline.PC(), c.regFile, c.memory)
}
