package formatter

import (
	"encoding/csv"
	"fmt"
	"os"
)

type CSVFormatter struct{}

func NewCSVFormatter() *CSVFormatter {
	return &CSVFormatter{}
}

func (f *CSVFormatter) Format(report *Report) error {
	w := csv.NewWriter(os.Stdout)
	defer w.Flush()

	headers := []string{
		"Device", "Signal", "Type", "Entries",
		"Changes", "Distinct", "First Seen", "Last Seen",
	}
	if err := w.Write(headers); err != nil {
		return err
	}

	for _, s := range report.Signals {
		record := []string{
			s.DeviceID,
			s.SignalName,
			string(s.Type),
			fmt.Sprintf("%d", s.EntryCount),
			fmt.Sprintf("%d", s.Transitions),
			fmt.Sprintf("%d", s.DistinctValues),
			s.FirstSeen.Format(tableTimeLayout),
			s.LastSeen.Format(tableTimeLayout),
		}
		if err := w.Write(record); err != nil {
			return err
		}
	}

	return nil
}
