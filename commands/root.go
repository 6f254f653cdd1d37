package commands

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/plcscope/plcscope/internal/analyzer"
	"github.com/plcscope/plcscope/internal/config"
	"github.com/plcscope/plcscope/internal/core/model"
	"github.com/plcscope/plcscope/internal/util"
)

var (
	// Global configuration
	cfgPath       string
	logLevel      string
	chunkDuration time.Duration
	maxChunks     int

	// Scan flags
	outputFormat string
	parserName   string
	timezone     string
	limit        int
	hourly       bool
	noCache      bool

	rootCmd = &cobra.Command{
		Use:   "plcscope <log-file-or-directory>",
		Short: "PLC log timing-diagram browser and analyzer",
		Long: `plcscope parses PLC signal logs (csvlog, tablog, mcs, plcdebug, fieldlog),
loads them in fixed-duration chunks with LRU eviction, and renders signal
activity as timing diagrams.

The root command scans a file or a directory of logs and prints per-signal
statistics.

Examples:
  plcscope conveyor.log                         # Scan one file
  plcscope /var/log/plc --output json           # Scan a directory, JSON report
  plcscope conveyor.log --hourly --limit 20     # Hourly buckets, top 20 signals
  plcscope browse conveyor.log                  # Interactive timing diagram
  plcscope export conveyor.log --db out.db      # Export a window to SQLite`,
		Args: cobra.ExactArgs(1),
	}
)

func init() {
	rootCmd.RunE = runScan

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&cfgPath, "config", "",
		"Config file path (default ~/.config/plcscope/config.toml)")
	pf.StringVar(&logLevel, "log-level", "info",
		"Log level (debug, info, warn, error)")
	pf.DurationVar(&chunkDuration, "chunk-duration", 0,
		"Chunk duration for windowed loading (e.g. 5m)")
	pf.IntVar(&maxChunks, "max-chunks", 0,
		"Maximum chunks held in memory")

	rootCmd.Flags().StringVarP(&outputFormat, "output", "o", "table",
		"Output format (table, json, csv, summary)")
	rootCmd.Flags().StringVar(&parserName, "parser", "",
		"Force a specific parser (default auto-detect)")
	rootCmd.Flags().StringVar(&timezone, "timezone", "Local",
		"Timezone for displayed timestamps (e.g. Asia/Tokyo, UTC)")
	rootCmd.Flags().IntVar(&limit, "limit", 0,
		"Limit signal rows in the report (0 = unlimited)")
	rootCmd.Flags().BoolVar(&hourly, "hourly", false,
		"Include hourly activity buckets")
	rootCmd.Flags().BoolVar(&noCache, "no-cache", false,
		"Skip the format detection cache")
}

func runScan(cmd *cobra.Command, args []string) error {
	cfg, err := effectiveConfig()
	if err != nil {
		return err
	}
	if err := initRuntime(cfg, timezone); err != nil {
		return err
	}

	a := analyzer.New(&analyzer.Config{
		Path:         config.MustExpand(args[0]),
		CacheDir:     cfg.CacheDir,
		OutputFormat: outputFormat,
		ParserName:   parserName,
		Limit:        limit,
		Hourly:       hourly,
		NoCache:      noCache,
	})
	return a.Run()
}

func Execute() error {
	return rootCmd.Execute()
}

// effectiveConfig loads the config file and applies the global flag
// overrides. Flags win over file values only when explicitly set.
func effectiveConfig() (config.Config, error) {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return config.Config{}, err
	}

	pf := rootCmd.PersistentFlags()
	if pf.Changed("log-level") {
		cfg.LogLevel = logLevel
	}
	if pf.Changed("chunk-duration") {
		if chunkDuration <= 0 {
			return config.Config{}, fmt.Errorf("chunk duration must be positive, got %s", chunkDuration)
		}
		cfg.ChunkDuration = chunkDuration
	}
	if pf.Changed("max-chunks") {
		if maxChunks <= 0 {
			return config.Config{}, fmt.Errorf("max chunks must be positive, got %d", maxChunks)
		}
		cfg.MaxChunks = maxChunks
	}
	return cfg, nil
}

// parseFailureMessage extracts a one-line reason from a failed parse.
func parseFailureMessage(result model.ParseResult) string {
	if len(result.Errors) > 0 {
		return result.Errors[0].Reason
	}
	return "no entries parsed"
}

// initRuntime brings up logging and the time provider. When the log
// directory cannot be created, logging falls back to the console.
func initRuntime(cfg config.Config, tz string) error {
	logFile := cfg.LogFile
	debugConsole := strings.EqualFold(cfg.LogLevel, "debug")
	if err := os.MkdirAll(filepath.Dir(logFile), 0o755); err != nil {
		logFile = ""
		debugConsole = true
	}
	util.InitLogger(cfg.LogLevel, logFile, debugConsole)

	return util.InitializeTimeProvider(tz)
}
