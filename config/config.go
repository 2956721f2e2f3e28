// Package config loads simulator configuration from YAML files.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// CacheConfig describes one word-addressed cache.
type CacheConfig struct {
	Enabled       bool `yaml:"enabled"`
	SizeWords     int  `yaml:"sizeWords"`
	Associativity int  `yaml:"associativity"`
	BlockWords    int  `yaml:"blockWords"`
	HitLatency    int  `yaml:"hitLatency"`  // cycles
	MissLatency   int  `yaml:"missLatency"` // cycles
}

// Config represents the simulator configuration.
type Config struct {
	// MaxCycles bounds a pipelined run. 0 means no limit.
	MaxCycles uint64 `yaml:"maxCycles"`

	// MaxInstructions bounds a reference emulator run. 0 means no limit.
	MaxInstructions uint64 `yaml:"maxInstructions"`

	// HaltWindow is the number of consecutive non-stalled cycles with an
	// unchanged fetch PC before the pipeline decides the program halted.
	HaltWindow int `yaml:"haltWindow"`

	// Trace enables per-cycle fetch tracing.
	Trace bool `yaml:"trace"`

	ICache CacheConfig `yaml:"icache"`
	DCache CacheConfig `yaml:"dcache"`
}

// Default returns the default configuration: unbounded run, a 5-cycle
// halt window, and caches disabled.
func Default() *Config {
	return &Config{
		MaxCycles:       0,
		MaxInstructions: 0,
		HaltWindow:      5,
		Trace:           false,

		ICache: CacheConfig{
			Enabled:       false,
			SizeWords:     256,
			Associativity: 2,
			BlockWords:    4,
			HitLatency:    0,
			MissLatency:   2,
		},
		DCache: CacheConfig{
			Enabled:       false,
			SizeWords:     256,
			Associativity: 2,
			BlockWords:    4,
			HitLatency:    0,
			MissLatency:   2,
		},
	}
}

// Load reads a YAML configuration file. Fields absent from the file
// keep their default values.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// validate checks if the configuration is valid.
func validate(cfg *Config) error {
	if cfg.HaltWindow <= 0 {
		return fmt.Errorf("halt window must be positive")
	}
	if err := validateCache("icache", cfg.ICache); err != nil {
		return err
	}
	if err := validateCache("dcache", cfg.DCache); err != nil {
		return err
	}
	return nil
}

func validateCache(name string, c CacheConfig) error {
	if !c.Enabled {
		return nil
	}
	if c.SizeWords <= 0 || c.SizeWords&(c.SizeWords-1) != 0 {
		return fmt.Errorf("%s size must be a positive power of two", name)
	}
	if c.BlockWords <= 0 || c.BlockWords&(c.BlockWords-1) != 0 {
		return fmt.Errorf("%s block size must be a positive power of two", name)
	}
	if c.Associativity <= 0 {
		return fmt.Errorf("%s associativity must be positive", name)
	}
	if c.SizeWords < c.BlockWords*c.Associativity {
		return fmt.Errorf("%s size too small for one set", name)
	}
	if c.HitLatency < 0 || c.MissLatency < 0 {
		return fmt.Errorf("%s latencies must not be negative", name)
	}
	return nil
}
