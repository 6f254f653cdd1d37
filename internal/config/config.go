// Package config loads the plcscope TOML configuration file with
// graceful defaults. Command-line flags override loaded values.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"

	"github.com/plcscope/plcscope/internal/core/constants"
	"github.com/plcscope/plcscope/internal/core/viewport"
)

// Config carries every file-configurable setting.
type Config struct {
	ChunkDuration time.Duration
	MaxChunks     int
	MinZoom       float64
	MaxZoom       float64

	LogLevel string
	LogFile  string
	CacheDir string
	StateDir string

	// Optional policy files for validate and map.
	RulesPath   string
	LayoutPath  string
	UnitMapPath string
	ColorsPath  string
}

const (
	// DefaultPath is where Load looks when no --config flag is given.
	DefaultPath = "~/.config/plcscope/config.toml"

	defaultCacheDir = "~/.cache/plcscope"
	defaultStateDir = "~/.local/share/plcscope"
	defaultLogFile  = "~/.cache/plcscope/logs/plcscope.log"
	defaultLogLevel = "info"
)

func defaults() Config {
	return Config{
		ChunkDuration: constants.DefaultChunkDuration,
		MaxChunks:     constants.DefaultMaxResidentChunks,
		MinZoom:       viewport.DefaultMinZoom,
		MaxZoom:       viewport.DefaultMaxZoom,
		LogLevel:      defaultLogLevel,
		LogFile:       MustExpand(defaultLogFile),
		CacheDir:      MustExpand(defaultCacheDir),
		StateDir:      MustExpand(defaultStateDir),
	}
}

// Load reads the config at path, falling back to defaults when the file
// does not exist. An empty path means DefaultPath.
func Load(path string) (Config, error) {
	resolved, err := resolvePath(path)
	if err != nil {
		return Config{}, err
	}

	cfg := defaults()

	data, err := os.ReadFile(resolved)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	var raw struct {
		ChunkDuration string  `toml:"chunk_duration"`
		MaxChunks     int     `toml:"max_chunks"`
		MinZoom       float64 `toml:"min_zoom"`
		MaxZoom       float64 `toml:"max_zoom"`
		LogLevel      string  `toml:"log_level"`
		LogFile       string  `toml:"log_file"`
		CacheDir      string  `toml:"cache_dir"`
		StateDir      string  `toml:"state_dir"`
		Rules         string  `toml:"rules"`
		Layout        string  `toml:"layout"`
		Units         string  `toml:"units"`
		Colors        string  `toml:"colors"`
	}
	if err := toml.Unmarshal(data, &raw); err != nil {
		return Config{}, fmt.Errorf("parse config %s: %w", resolved, err)
	}

	if s := strings.TrimSpace(raw.ChunkDuration); s != "" {
		d, err := time.ParseDuration(s)
		if err != nil || d <= 0 {
			return Config{}, fmt.Errorf("invalid chunk_duration %q in %s", raw.ChunkDuration, resolved)
		}
		cfg.ChunkDuration = d
	}
	if raw.MaxChunks > 0 {
		cfg.MaxChunks = raw.MaxChunks
	}
	if raw.MinZoom > 0 {
		cfg.MinZoom = raw.MinZoom
	}
	if raw.MaxZoom > 0 {
		cfg.MaxZoom = raw.MaxZoom
	}
	if cfg.MinZoom >= cfg.MaxZoom {
		return Config{}, fmt.Errorf("invalid zoom bounds [%g, %g] in %s", cfg.MinZoom, cfg.MaxZoom, resolved)
	}

	if s := strings.TrimSpace(raw.LogLevel); s != "" {
		cfg.LogLevel = s
	}
	if s := strings.TrimSpace(raw.LogFile); s != "" {
		cfg.LogFile = MustExpand(s)
	}
	if s := strings.TrimSpace(raw.CacheDir); s != "" {
		cfg.CacheDir = MustExpand(s)
	}
	if s := strings.TrimSpace(raw.StateDir); s != "" {
		cfg.StateDir = MustExpand(s)
	}

	cfg.RulesPath = expandOptional(raw.Rules)
	cfg.LayoutPath = expandOptional(raw.Layout)
	cfg.UnitMapPath = expandOptional(raw.Units)
	cfg.ColorsPath = expandOptional(raw.Colors)

	return cfg, nil
}

func resolvePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return ExpandPath(DefaultPath)
	}
	return ExpandPath(path)
}

func expandOptional(path string) string {
	if strings.TrimSpace(path) == "" {
		return ""
	}
	return MustExpand(path)
}

// MustExpand expands a path, returning it unchanged when expansion
// fails.
func MustExpand(path string) string {
	expanded, err := ExpandPath(path)
	if err != nil {
		return path
	}
	return expanded
}

// ExpandPath resolves a leading ~ against the home directory and makes
// the path absolute.
func ExpandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", fmt.Errorf("path is empty")
	}
	if strings.HasPrefix(trimmed, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		trimmed = filepath.Join(home, strings.TrimPrefix(trimmed, "~"))
	}
	return filepath.Abs(trimmed)
}
