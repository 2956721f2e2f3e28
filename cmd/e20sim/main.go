// Package main provides the entry point for e20sim.
// e20sim is a cycle-accurate simulator for the E20 processor.
package main

import (
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/e20arch/e20sim/config"
	"github.com/e20arch/e20sim/emu"
	"github.com/e20arch/e20sim/loader"
	"github.com/e20arch/e20sim/timing/core"
)

var (
	timing     = flag.Bool("timing", false, "Enable pipelined timing simulation mode")
	configPath = flag.String("config", "", "Path to configuration YAML file")
	trace      = flag.Bool("trace", false, "Print per-cycle fetch trace (timing mode)")
	verbose    = flag.Bool("v", false, "Verbose output")
)

func main() {
	flag.Parse()

	if flag.NArg() < 1 {
		fmt.Fprintf(os.Stderr, "Usage: e20sim [options] <program.bin>\n")
		fmt.Fprintf(os.Stderr, "\nOptions:\n")
		flag.PrintDefaults()
		os.Exit(1)
	}

	programPath := flag.Arg(0)

	words, err := loader.LoadFile(programPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading program: %v\n", err)
		os.Exit(1)
	}

	if *verbose {
		fmt.Printf("Loaded: %s (%d words)\n", programPath, len(words))
	}

	cfg := config.Default()
	if *configPath != "" {
		cfg, err = config.Load(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
			os.Exit(1)
		}
	}
	if *trace {
		cfg.Trace = true
	}

	if *timing {
		runTiming(words, cfg)
	} else {
		runEmulation(words, cfg)
	}
}

// runEmulation runs the program on the non-pipelined reference
// emulator.
func runEmulation(words []uint16, cfg *config.Config) {
	emulator := emu.NewEmulator(
		emu.WithMaxInstructions(cfg.MaxInstructions),
	)
	if err := emulator.LoadProgram(words); err != nil {
		fmt.Fprintf(os.Stderr, "Error loading program: %v\n", err)
		os.Exit(1)
	}

	if err := emulator.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if *verbose {
		fmt.Printf("Instructions executed: %d\n", emulator.InstructionCount())
	}

	if err := emu.WriteState(os.Stdout, emulator.PC(), emulator.RegFile(), emulator.Memory()); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing state: %v\n", err)
		os.Exit(1)
	}
}

// runTiming runs the program on the pipelined engine.
func runTiming(words []uint16, cfg *config.Config) {
	c := core.FromConfig(cfg)
	if err := c.LoadProgram(words); err != nil {
		fmt.Fprintf(os.Stderr, "Error loading program: %v\n", err)
		os.Exit(1)
	}

	err := c.Run()
	if err != nil && !errors.Is(err, emu.ErrDidNotHalt) {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if cfg.Trace {
		for _, e := range c.Trace() {
			fmt.Printf("cycle %d: pc=%d word=%04x\n", e.Cycle, e.PC, e.Word)
		}
	}

	if *verbose || err != nil {
		stats := c.Stats()
		fmt.Printf("Cycles: %d\n", stats.Cycles)
		fmt.Printf("Instructions: %d\n", stats.Instructions)
		fmt.Printf("Stalls: %d\n", stats.Stalls)
		fmt.Printf("Flushes: %d\n", stats.Flushes)
		fmt.Printf("CPI: %.2f\n", stats.CPI())
		if icache, ok := c.Pipeline().ICacheStats(); ok {
			fmt.Printf("I-cache: %d hits, %d misses\n", icache.Hits, icache.Misses)
		}
		if dcache, ok := c.Pipeline().DCacheStats(); ok {
			fmt.Printf("D-cache: %d hits, %d misses\n", dcache.Hits, dcache.Misses)
		}
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
	}

	if err := c.WriteState(os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing state: %v\n", err)
		os.Exit(1)
	}
}
