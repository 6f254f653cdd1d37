package browse

import (
	"fmt"
	"time"

	"github.com/plcscope/plcscope/internal/core/constants"
)

// Config contains configuration for the browse command
type Config struct {
	// Log file to open
	FilePath string

	// State directories
	StateDir string // bookmark stores
	CacheDir string // detection cache

	// Parser selection; empty enables detection
	ParserName string

	// Display settings
	Timezone string

	// Chunking settings
	ChunkDuration time.Duration
	MaxChunks     int

	// Zoom clamp overrides; zero keeps the viewport defaults
	MinZoom float64
	MaxZoom float64

	// Behavior switches
	NoCache bool
	Watch   bool
}

// Validate checks if the configuration is valid and fills defaults
func (c *Config) Validate() error {
	if c.FilePath == "" {
		return fmt.Errorf("log file path is required")
	}
	if c.Timezone == "" {
		c.Timezone = "Local"
	}
	if c.ChunkDuration <= 0 {
		c.ChunkDuration = constants.DefaultChunkDuration
	}
	if c.MaxChunks <= 0 {
		c.MaxChunks = constants.DefaultMaxResidentChunks
	}
	return nil
}
