package commands

import (
	"fmt"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"github.com/plcscope/plcscope/internal/config"
	"github.com/plcscope/plcscope/internal/core/chunk"
	"github.com/plcscope/plcscope/internal/core/model"
	"github.com/plcscope/plcscope/internal/core/validation"
	"github.com/plcscope/plcscope/internal/core/waveform"
	"github.com/plcscope/plcscope/internal/data/export"
	"github.com/plcscope/plcscope/internal/data/parser"
)

var (
	exportDB    string
	exportCSV   string
	exportJSON  string
	exportFrom  string
	exportTo    string
	exportRules string
	exportTz    string

	exportCmd = &cobra.Command{
		Use:   "export <log-file>",
		Short: "Export a time window to SQLite, CSV or JSON",
		Long: `Export loads one time window of a log through the chunk manager and
writes it out for other tooling: raw entries as CSV, entries plus derived
signal states as JSON, or both plus validation findings as a SQLite
database.

--from and --to accept "2006-01-02 15:04:05.000", "2006-01-02 15:04:05"
or a bare date, interpreted in the --timezone location. The window is
half-open: an entry exactly at --to is excluded. Omitting both exports
the whole file.`,
		Args: cobra.ExactArgs(1),
		RunE: runExport,
	}
)

func init() {
	exportCmd.Flags().StringVar(&exportDB, "db", "", "SQLite output path")
	exportCmd.Flags().StringVar(&exportCSV, "csv", "", "CSV output path (raw entries)")
	exportCmd.Flags().StringVar(&exportJSON, "json", "", "JSON output path (entries and states)")
	exportCmd.Flags().StringVar(&exportFrom, "from", "", "Window start (default: start of file)")
	exportCmd.Flags().StringVar(&exportTo, "to", "", "Window end (default: end of file)")
	exportCmd.Flags().StringVar(&exportRules, "rules", "",
		"Validate the window against this rules file and include the findings")
	exportCmd.Flags().StringVar(&exportTz, "timezone", "Local",
		"Timezone for --from/--to and displayed timestamps")

	rootCmd.AddCommand(exportCmd)
}

func runExport(cmd *cobra.Command, args []string) error {
	if exportDB == "" && exportCSV == "" && exportJSON == "" {
		return fmt.Errorf("no output selected: pass --db, --csv, or --json")
	}

	cfg, err := effectiveConfig()
	if err != nil {
		return err
	}
	if err := initRuntime(cfg, exportTz); err != nil {
		return err
	}

	path, err := config.ExpandPath(args[0])
	if err != nil {
		return err
	}

	registry := parser.NewDefaultRegistry()
	p := registry.Detect(path)
	if p == nil {
		return fmt.Errorf("%s: %w", path, parser.ErrNoParser)
	}
	full, err := parser.ExtractTimeRange(path, p)
	if err != nil {
		return err
	}

	loc, err := locationFor(exportTz)
	if err != nil {
		return err
	}
	from, to := full.Start, full.End
	if exportFrom != "" {
		if from, err = parseWindowTime(exportFrom, loc); err != nil {
			return fmt.Errorf("invalid --from: %w", err)
		}
	}
	if exportTo != "" {
		if to, err = parseWindowTime(exportTo, loc); err != nil {
			return fmt.Errorf("invalid --to: %w", err)
		}
	}
	if !to.After(from) {
		return fmt.Errorf("window end %s is not after start %s", exportTo, exportFrom)
	}

	log, _, err := chunk.Open(path, full, cfg.ChunkDuration, cfg.MaxChunks, registry)
	if err != nil {
		return err
	}
	defer log.Close()

	// EntriesInRange is half-open; nudge the end so an export of the whole
	// file keeps its last entry.
	queryEnd := to
	if exportTo == "" {
		queryEnd = to.Add(time.Nanosecond)
	}
	entries, err := log.EntriesInRange(from, queryEnd, false)
	if err != nil {
		return err
	}

	window := model.TimeRange{Start: from, End: to}
	signals := waveform.BuildSignals(model.NewParsedLog(entries, &window))

	var violations []validation.Violation
	if exportRules != "" {
		validator, err := validation.NewSignalValidator(config.MustExpand(exportRules))
		if err != nil {
			return err
		}
		violations = flattenViolations(validator.ValidateAll(signals))
	}

	win := &export.Window{
		Source:     path,
		Range:      window,
		Entries:    entries,
		Signals:    signals,
		Violations: violations,
	}

	if exportCSV != "" {
		out := config.MustExpand(exportCSV)
		if err := export.WriteCSVFile(out, entries); err != nil {
			return err
		}
		fmt.Printf("Wrote %d entries to %s\n", len(entries), out)
	}
	if exportJSON != "" {
		out := config.MustExpand(exportJSON)
		if err := export.WriteJSONFile(out, win); err != nil {
			return err
		}
		fmt.Printf("Wrote %d entries, %d signals to %s\n", len(entries), len(signals), out)
	}
	if exportDB != "" {
		out := config.MustExpand(exportDB)
		writer, err := export.NewSQLiteWriter(out)
		if err != nil {
			return err
		}
		if err := writer.ExportWindow(win); err != nil {
			writer.Close()
			return err
		}
		if err := writer.Close(); err != nil {
			return err
		}
		fmt.Printf("Wrote %d entries, %d signals, %d violations to %s\n",
			len(entries), len(signals), len(violations), out)
	}
	return nil
}

// flattenViolations merges the per-device findings into one slice ordered
// by device id.
func flattenViolations(byDevice map[string][]validation.Violation) []validation.Violation {
	devices := make([]string, 0, len(byDevice))
	for device := range byDevice {
		devices = append(devices, device)
	}
	sort.Strings(devices)

	var flat []validation.Violation
	for _, device := range devices {
		flat = append(flat, byDevice[device]...)
	}
	return flat
}

// windowTimeLayouts are the accepted --from/--to formats, most specific
// first.
var windowTimeLayouts = []string{
	"2006-01-02 15:04:05.000",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

func parseWindowTime(s string, loc *time.Location) (time.Time, error) {
	for _, layout := range windowTimeLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized time %q (want 2006-01-02 15:04:05[.000] or 2006-01-02)", s)
}

func locationFor(tz string) (*time.Location, error) {
	if tz == "" || tz == "Local" {
		return time.Local, nil
	}
	return time.LoadLocation(tz)
}
