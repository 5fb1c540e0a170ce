package cpu

import (
	"github.com/ezrec/iarm/internal"
)

// Config holds the construction parameters of a processor.
type Config struct {
	Width      int   `mapstructure:"width" yaml:"width"`         // Register width in bits.
	Registers  int   `mapstructure:"registers" yaml:"registers"` // Number of general purpose registers, PC included.
	MemorySize int   `mapstructure:"memory" yaml:"memory"`       // Memory size in bytes.
	Random     bool  `mapstructure:"random" yaml:"random"`       // Unwritten registers read as a random, then stable, value.
	Seed       int64 `mapstructure:"seed" yaml:"seed"`           // Random seed. Zero seeds from the clock.
	AutoRun    bool  `mapstructure:"autorun" yaml:"autorun"`     // Run newly assembled code after each block.
	MaxSteps   int   `mapstructure:"max_steps" yaml:"max_steps"` // Step budget for auto-run. Zero is unbounded.
}

// DefaultConfig is a 32-bit processor with R0-R15 and 1KiB of memory.
func DefaultConfig() Config {
	return Config{
		Width:      32,
		Registers:  16,
		MemorySize: 1024,
		AutoRun:    true,
	}
}

// Validate checks the configuration limits.
func (cfg Config) Validate() (err error) {
	switch {
	case cfg.Width < 8 || cfg.Width > 64:
		err = ErrConfigWidth
	case cfg.Registers < 11 || cfg.Registers > 64:
		err = ErrConfigRegisters
	case cfg.MemorySize <= 0:
		err = ErrConfigMemory
	case uint64(cfg.MemorySize) > internal.Mask[uint64](cfg.Width):
		err = ErrConfigMemoryWidth
	}

	return
}
