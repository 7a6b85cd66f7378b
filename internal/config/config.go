// Package config loads tool configuration from environment variables.
package config

import (
	"github.com/caarlos0/env/v11"
)

// Config holds the compiler and runtime settings.
type Config struct {
	// LogLevel is the zerolog level name (debug, info, warn, error).
	LogLevel string `env:"FLAME_LOG_LEVEL" envDefault:"info"`

	// StrictMemoryAccess refuses functions without memory access
	// declarations instead of promoting everything to read-write.
	StrictMemoryAccess bool `env:"FLAME_STRICT_MEMORY_ACCESS" envDefault:"false"`

	// GraphDir is where graph dumps are written.
	GraphDir string `env:"FLAME_GRAPH_DIR" envDefault:"."`

	// MaxParallelism bounds concurrent tasks per wave; 0 = unbounded.
	MaxParallelism int `env:"FLAME_MAX_PARALLELISM" envDefault:"0"`

	// Iterations is the default iteration count for run.
	Iterations int `env:"FLAME_ITERATIONS" envDefault:"1"`

	// ConditionCacheSize bounds the compiled condition program cache.
	ConditionCacheSize int `env:"FLAME_CONDITION_CACHE_SIZE" envDefault:"100"`
}

// Load reads the configuration from the environment.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
