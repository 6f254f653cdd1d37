package formatter

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/plcscope/plcscope/internal/util"
)

// SummaryFormatter renders a human readable scan report.
type SummaryFormatter struct{}

func NewSummaryFormatter() *SummaryFormatter {
	return &SummaryFormatter{}
}

type deviceSummary struct {
	signals     int
	entries     int
	transitions int
	firstSeen   time.Time
	lastSeen    time.Time
}

func (f *SummaryFormatter) Format(report *Report) error {
	fmt.Println(strings.Repeat("=", 60))
	fmt.Println("PLC Log Scan Summary")
	fmt.Println(strings.Repeat("=", 60))
	fmt.Println()

	fmt.Printf("Scanned: %s\n", report.Root)
	parsed, failed := 0, 0
	for _, file := range report.Files {
		if file.Error != "" {
			failed++
		} else {
			parsed++
		}
	}
	fmt.Printf("Files: %d parsed, %d failed (%d format hits from cache)\n",
		parsed, failed, report.CacheHits())
	if start, end, ok := report.TimeSpan(); ok {
		fmt.Printf("Time Range: %s\n", util.FormatTimeRange(start, end))
	}
	fmt.Println()

	if len(report.Signals) == 0 {
		fmt.Println("No data to summarize")
		fmt.Println()
		fmt.Println(strings.Repeat("=", 60))
		return nil
	}

	fmt.Println("Entry Breakdown:")
	fmt.Printf("  Total Entries: %s\n", formatNumber(report.TotalEntries))
	fmt.Printf("  Value Changes: %s\n", formatNumber(report.TotalTransitions))
	fmt.Printf("  Devices: %s\n", formatNumber(report.DeviceCount()))
	fmt.Printf("  Signals: %s\n", formatNumber(len(report.Signals)))
	fmt.Println()

	devices := make(map[string]*deviceSummary)
	for _, s := range report.Signals {
		d, ok := devices[s.DeviceID]
		if !ok {
			d = &deviceSummary{firstSeen: s.FirstSeen, lastSeen: s.LastSeen}
			devices[s.DeviceID] = d
		}
		d.signals++
		d.entries += s.EntryCount
		d.transitions += s.Transitions
		if s.FirstSeen.Before(d.firstSeen) {
			d.firstSeen = s.FirstSeen
		}
		if s.LastSeen.After(d.lastSeen) {
			d.lastSeen = s.LastSeen
		}
	}

	fmt.Println("Device Activity:")
	fmt.Println(strings.Repeat("-", 60))

	var names []string
	for name := range devices {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		d := devices[name]
		fmt.Printf("\n%s:\n", name)
		fmt.Printf("  Signals:              %s\n", formatNumber(d.signals))
		fmt.Printf("  Entries:              %s\n", formatNumber(d.entries))
		fmt.Printf("  Value Changes:        %s\n", formatNumber(d.transitions))
		fmt.Printf("  First Seen:           %s\n", d.firstSeen.Format(tableTimeLayout))
		fmt.Printf("  Last Seen:            %s\n", d.lastSeen.Format(tableTimeLayout))
	}

	if len(report.Hourly) > 0 {
		fmt.Println()
		fmt.Println("Hourly Activity:")
		fmt.Println(strings.Repeat("-", 60))
		for _, h := range report.Hourly {
			fmt.Printf("  %s  entries %-10s changes %-10s signals %s\n",
				time.Unix(h.Hour, 0).UTC().Format("2006-01-02 15:00"),
				formatNumber(h.EntryCount),
				formatNumber(h.Transitions),
				formatNumber(h.ActiveSignals))
		}
	}

	if failed > 0 {
		fmt.Println()
		fmt.Println("Failed Files:")
		for _, file := range report.Files {
			if file.Error != "" {
				fmt.Printf("  %s: %s\n", file.Path, file.Error)
			}
		}
	}

	fmt.Println()
	fmt.Println(strings.Repeat("=", 60))

	return nil
}
