package formatter

import (
	"fmt"
	"strings"
	"time"

	"github.com/plcscope/plcscope/internal/data/aggregator"
)

const tableTimeLayout = "2006-01-02 15:04:05"

type TableFormatter struct {
	headers []string
}

func NewTableFormatter() *TableFormatter {
	return &TableFormatter{
		headers: []string{
			"Device", "Signal", "Type", "Entries",
			"Changes", "Distinct", "First Seen", "Last Seen",
		},
	}
}

func (f *TableFormatter) Format(report *Report) error {
	rows := signalRows(report.Signals)
	widths := f.calculateColumnWidths(rows, report)

	f.printBorder(widths, "top")
	f.printRow(f.headers, widths)
	f.printBorder(widths, "middle")

	for _, row := range rows {
		f.printRow(row, widths)
	}

	f.printBorder(widths, "middle")
	f.printRow(totalRow(report), widths)
	f.printBorder(widths, "bottom")

	if len(report.Hourly) > 0 {
		fmt.Println()
		f.printHourly(report.Hourly)
	}

	return nil
}

func signalRows(signals []aggregator.SignalStats) [][]string {
	rows := make([][]string, 0, len(signals))
	for _, s := range signals {
		rows = append(rows, []string{
			s.DeviceID,
			s.SignalName,
			string(s.Type),
			formatNumber(s.EntryCount),
			formatNumber(s.Transitions),
			formatNumber(s.DistinctValues),
			s.FirstSeen.Format(tableTimeLayout),
			s.LastSeen.Format(tableTimeLayout),
		})
	}
	return rows
}

func totalRow(report *Report) []string {
	return []string{
		"Total",
		fmt.Sprintf("%d signals", len(report.Signals)),
		"",
		formatNumber(report.TotalEntries),
		formatNumber(report.TotalTransitions),
		"",
		"",
		"",
	}
}

// calculateColumnWidths sizes each column to its widest cell, with a floor
// for readability.
func (f *TableFormatter) calculateColumnWidths(rows [][]string, report *Report) []int {
	widths := make([]int, len(f.headers))
	for i, header := range f.headers {
		widths[i] = len(header)
	}

	grow := func(values []string) {
		for i, value := range values {
			if len(value) > widths[i] {
				widths[i] = len(value)
			}
		}
	}
	for _, row := range rows {
		grow(row)
	}
	grow(totalRow(report))

	for i := range widths {
		if widths[i] < 6 {
			widths[i] = 6
		}
	}
	return widths
}

func (f *TableFormatter) printBorder(widths []int, borderType string) {
	var left, middle, right, separator string

	switch borderType {
	case "top":
		left, middle, right, separator = "┌", "┬", "┐", "─"
	case "middle":
		left, middle, right, separator = "├", "┼", "┤", "─"
	case "bottom":
		left, middle, right, separator = "└", "┴", "┘", "─"
	}

	fmt.Print(left)
	for i, width := range widths {
		fmt.Print(strings.Repeat(separator, width+2))
		if i < len(widths)-1 {
			fmt.Print(middle)
		}
	}
	fmt.Println(right)
}

func (f *TableFormatter) printRow(values []string, widths []int) {
	fmt.Print("│")
	for i, value := range values {
		// Count columns are right-aligned, text and timestamps left.
		if i >= 3 && i <= 5 {
			fmt.Printf(" %*s │", widths[i], value)
		} else {
			fmt.Printf(" %-*s │", widths[i], value)
		}
	}
	fmt.Println()
}

func (f *TableFormatter) printHourly(hourly []aggregator.HourlyData) {
	headers := []string{"Hour", "Entries", "Changes", "Active Signals"}
	rows := make([][]string, 0, len(hourly))
	for _, h := range hourly {
		rows = append(rows, []string{
			time.Unix(h.Hour, 0).UTC().Format("2006-01-02 15:00"),
			formatNumber(h.EntryCount),
			formatNumber(h.Transitions),
			formatNumber(h.ActiveSignals),
		})
	}

	widths := make([]int, len(headers))
	for i, header := range headers {
		widths[i] = len(header)
	}
	for _, row := range rows {
		for i, value := range row {
			if len(value) > widths[i] {
				widths[i] = len(value)
			}
		}
	}

	hf := &TableFormatter{headers: headers}
	hf.printBorder(widths, "top")
	fmt.Print("│")
	for i, header := range headers {
		fmt.Printf(" %-*s │", widths[i], header)
	}
	fmt.Println()
	hf.printBorder(widths, "middle")
	for _, row := range rows {
		fmt.Print("│")
		for i, value := range row {
			if i == 0 {
				fmt.Printf(" %-*s │", widths[i], value)
			} else {
				fmt.Printf(" %*s │", widths[i], value)
			}
		}
		fmt.Println()
	}
	hf.printBorder(widths, "bottom")
}

func formatNumber(n int) string {
	s := fmt.Sprintf("%d", n)
	if len(s) <= 3 {
		return s
	}

	var result []byte
	for i, digit := range []byte(s) {
		if i > 0 && (len(s)-i)%3 == 0 {
			result = append(result, ',')
		}
		result = append(result, digit)
	}

	return string(result)
}
