package analyzer

import (
	"fmt"
	"os"
	"runtime"
	"sync"
	"time"

	"github.com/plcscope/plcscope/internal/core/model"
	"github.com/plcscope/plcscope/internal/data/aggregator"
	"github.com/plcscope/plcscope/internal/data/cache"
	"github.com/plcscope/plcscope/internal/data/parser"
	"github.com/plcscope/plcscope/internal/data/scanner"
	"github.com/plcscope/plcscope/internal/presentation/formatter"
	"github.com/plcscope/plcscope/internal/util"
)

type Config struct {
	Path         string // log file or directory of logs
	CacheDir     string
	OutputFormat string // table, json, csv, summary
	ParserName   string // force a specific parser; empty enables detection
	Concurrency  int
	Limit        int  // cap signal rows in the report, 0 keeps all
	Hourly       bool // include hourly activity buckets
	NoCache      bool
}

type Analyzer struct {
	config   *Config
	cache    *cache.DetectionCache
	registry *parser.Registry
}

func New(config *Config) *Analyzer {
	if config.Concurrency == 0 {
		config.Concurrency = runtime.NumCPU()
	}

	var detectionCache *cache.DetectionCache
	if !config.NoCache {
		c, err := cache.NewDetectionCache(config.CacheDir)
		if err != nil {
			util.LogWarnf("Detection cache disabled: %v", err)
		} else {
			detectionCache = c
		}
	}

	return &Analyzer{
		config:   config,
		cache:    detectionCache,
		registry: parser.NewDefaultRegistry(),
	}
}

// Run scans, aggregates and prints in the configured output format.
func (a *Analyzer) Run() error {
	startTime := time.Now()
	util.LogInfo("Starting PLC log scan...")

	report, err := a.Report()
	if err != nil {
		return err
	}

	outputStart := time.Now()
	err = a.formatAndOutput(report)
	outputDuration := time.Since(outputStart)
	util.LogDebugf("Formatting and output duration: %v", outputDuration)

	util.LogDebugf("Total duration: %v", time.Since(startTime))
	return err
}

// Report runs the scan pipeline and returns the aggregated report.
func (a *Analyzer) Report() (*formatter.Report, error) {
	// Phase 1: Preload detection cache into memory
	preloadStart := time.Now()
	if a.cache != nil {
		if err := a.cache.Preload(); err != nil {
			util.LogWarnf("Cache preload failed: %v", err)
		}
	}
	preloadDuration := time.Since(preloadStart)
	util.LogDebugf("Phase 1 - Cache preload duration: %v", preloadDuration)

	// Phase 2: Resolve files
	scanStart := time.Now()
	files, err := a.resolveFiles()
	if err != nil {
		return nil, fmt.Errorf("Failed to scan files: %w", err)
	}
	scanDuration := time.Since(scanStart)
	util.LogDebugf("Phase 2 - File scan duration: %v, found %d files", scanDuration, len(files))

	if len(files) == 0 {
		return nil, fmt.Errorf("No log files found in %s", a.config.Path)
	}

	util.LogInfof("Found %d log files", len(files))

	// Phase 3: Parse files, reusing cached format detection where valid
	parseStart := time.Now()
	stats := NewScanStats()
	results := a.processFiles(files, stats)
	parseDuration := time.Since(parseStart)
	util.LogDebugf("Phase 3 - File parsing duration: %v", parseDuration)

	stats.PrintFinalStats()

	fileReports := make([]formatter.FileReport, len(results))
	logs := make([]*model.ParsedLog, 0, len(results))
	for i, r := range results {
		fileReports[i] = r.report
		if r.log != nil {
			logs = append(logs, r.log)
		}
	}

	merged := parser.MergeParsedLogs(logs)
	if merged == nil || len(merged.Entries) == 0 {
		return nil, fmt.Errorf("No log entries parsed from %s", a.config.Path)
	}

	// Phase 4: Aggregate signal activity
	aggStart := time.Now()
	signals := aggregator.AggregateBySignal(merged.Entries)
	var hourly []aggregator.HourlyData
	if a.config.Hourly {
		hourly = aggregator.AggregateByHour(merged.Entries)
	}
	aggDuration := time.Since(aggStart)
	util.LogDebugf("Phase 4 - Aggregation duration: %v, %d signals", aggDuration, len(signals))

	totalTransitions := aggregator.TotalTransitions(signals)

	if a.config.Limit > 0 && len(signals) > a.config.Limit {
		util.LogDebugf("Applying result limit: %d -> %d", len(signals), a.config.Limit)
		signals = signals[:a.config.Limit]
	}

	return &formatter.Report{
		GeneratedAt:      time.Now(),
		Root:             a.config.Path,
		Files:            fileReports,
		Signals:          signals,
		Hourly:           hourly,
		TotalEntries:     len(merged.Entries),
		TotalTransitions: totalTransitions,
	}, nil
}

func (a *Analyzer) resolveFiles() ([]string, error) {
	info, err := os.Stat(a.config.Path)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return []string{a.config.Path}, nil
	}
	return scanner.NewFileScanner(a.config.Path).Scan()
}

type fileResult struct {
	report formatter.FileReport
	log    *model.ParsedLog
}

// processFiles parses every file on a bounded worker pool. Results land in
// input order.
func (a *Analyzer) processFiles(files []string, stats *ScanStats) []fileResult {
	workers := a.config.Concurrency
	if workers > len(files) {
		workers = len(files)
	}

	jobs := make(chan int)
	out := make([]fileResult, len(files))

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				out[i] = a.processFile(files[i], stats)
			}
		}()
	}
	for i := range files {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	return out
}

func (a *Analyzer) processFile(path string, stats *ScanStats) fileResult {
	stats.IncrementTotal()
	report := formatter.FileReport{Path: path}

	parserName := a.config.ParserName
	if parserName == "" && a.cache != nil {
		cached := a.cache.Get(path)
		if cached.Found {
			stats.IncrementHit()
			parserName = cached.Entry.Format
			report.FromCache = true
		} else {
			stats.IncrementMiss(path, cached.MissReason)
		}
	}
	if parserName == "" {
		parserName = a.registry.Detect(path).Name()
	}

	result := a.registry.Parse(path, parserName)
	if !result.Success() {
		stats.IncrementFailure()
		report.Error = parseFailureMessage(result)
		util.LogWarnf("Failed to parse file %s: %s", path, report.Error)
		return fileResult{report: report}
	}

	data := result.Data
	report.Format = parserName
	report.EntryCount = len(data.Entries)
	report.DeviceCount = len(data.Devices)
	report.SignalCount = len(data.Signals)
	report.ParseErrors = len(result.Errors)
	if data.TimeRange != nil {
		report.StartTime = data.TimeRange.Start
		report.EndTime = data.TimeRange.End
	}

	if a.cache != nil && !report.FromCache && data.TimeRange != nil {
		entry := &cache.DetectionEntry{
			Format:     parserName,
			FirstEntry: data.TimeRange.Start,
			LastEntry:  data.TimeRange.End,
		}
		if err := a.cache.Set(path, entry); err != nil {
			util.LogWarnf("Failed to save cache for %s: %v", path, err)
		}
	}

	return fileResult{report: report, log: data}
}

func parseFailureMessage(result model.ParseResult) string {
	if len(result.Errors) > 0 {
		return result.Errors[0].Reason
	}
	return "no entries parsed"
}

func (a *Analyzer) formatAndOutput(report *formatter.Report) error {
	switch a.config.OutputFormat {
	case "json":
		return formatter.NewJSONFormatter().Format(report)
	case "csv":
		return formatter.NewCSVFormatter().Format(report)
	case "summary":
		return formatter.NewSummaryFormatter().Format(report)
	default:
		return formatter.NewTableFormatter().Format(report)
	}
}
