package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"

	"github.com/plcscope/plcscope/internal/core/model"
)

// Millisecond precision so exported files satisfy the csvlog line pattern.
const csvTimestampLayout = "2006-01-02 15:04:05.000"

// WriteCSV writes entries in the four column format the csvlog parser reads
// back: timestamp, device id, signal name, value. The header line is skipped
// on re-parse like any other unparseable line.
func WriteCSV(w io.Writer, entries []model.LogEntry) error {
	cw := csv.NewWriter(w)

	if err := cw.Write([]string{"timestamp", "device_id", "signal_name", "value"}); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, e := range entries {
		record := []string{
			e.Timestamp.Format(csvTimestampLayout),
			e.DeviceID,
			e.SignalName,
			e.Value.String(),
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write entry: %w", err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// WriteCSVFile writes entries to a new CSV file at path.
func WriteCSVFile(path string, entries []model.LogEntry) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create csv: %w", err)
	}
	if err := WriteCSV(f, entries); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
