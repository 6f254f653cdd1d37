package export

import (
	"bytes"
	"database/sql"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/bytedance/sonic"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/plcscope/plcscope/internal/core/model"
	"github.com/plcscope/plcscope/internal/core/validation"
	"github.com/plcscope/plcscope/internal/core/waveform"
	"github.com/plcscope/plcscope/internal/data/parser"
)

var exportBase = time.Date(2025, 6, 10, 8, 0, 0, 0, time.UTC)

func testWindow() *Window {
	entries := []model.LogEntry{
		{DeviceID: "B1ACNV13301-104@D19", SignalName: "B", Timestamp: exportBase, Value: model.BoolValue(true)},
		{DeviceID: "B1ACNV13301-104@D19", SignalName: "B", Timestamp: exportBase.Add(1500 * time.Millisecond), Value: model.BoolValue(false)},
		{DeviceID: "B1ACPT15001-104@D19", SignalName: "Status", Timestamp: exportBase.Add(2 * time.Second), Value: model.StringValue("Error")},
		{DeviceID: "B1ACNV13301-104@D19", SignalName: "B", Timestamp: exportBase.Add(3250 * time.Millisecond), Value: model.BoolValue(true)},
	}
	signal := &waveform.Signal{
		Name:     "B",
		DeviceID: "B1ACNV13301-104@D19",
		Key:      "B1ACNV13301-104@D19::B",
		Type:     model.SignalBoolean,
		States: []waveform.State{
			{Start: exportBase, End: exportBase.Add(1500 * time.Millisecond), Value: model.BoolValue(true)},
			{Start: exportBase.Add(1500 * time.Millisecond), End: exportBase.Add(3250 * time.Millisecond), Value: model.BoolValue(false)},
		},
	}
	violations := []validation.Violation{
		{
			DeviceID:   "B1ACNV13301-104@D19",
			SignalName: "B",
			Timestamp:  exportBase.Add(2 * time.Second),
			Severity:   validation.SeverityError,
			RuleName:   "Handshake: Step 2",
			Message:    "Sequence timeout",
		},
		{
			DeviceID:   "B1ACPT15001-104@D19",
			SignalName: "ACK",
			Severity:   validation.SeverityError,
			RuleName:   "Handshake",
			Message:    "Required signal missing",
		},
	}
	return &Window{
		Source:     "conveyor.log",
		Range:      model.TimeRange{Start: exportBase, End: exportBase.Add(4 * time.Second)},
		Entries:    entries,
		Signals:    []*waveform.Signal{signal},
		Violations: violations,
	}
}

func TestWriteCSVFormat(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, testWindow().Entries))

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 5)
	assert.Equal(t, "timestamp,device_id,signal_name,value", lines[0])
	assert.Equal(t, "2025-06-10 08:00:00.000,B1ACNV13301-104@D19,B,true", lines[1])
	assert.Equal(t, "2025-06-10 08:00:02.000,B1ACPT15001-104@D19,Status,Error", lines[3])
}

func TestWriteCSVRoundTrip(t *testing.T) {
	win := testWindow()
	path := filepath.Join(t.TempDir(), "export.csv")
	require.NoError(t, WriteCSVFile(path, win.Entries))

	result := parser.NewDefaultRegistry().Parse(path, "")
	require.True(t, result.Success())
	require.Len(t, result.Data.Entries, len(win.Entries))

	got := result.Data.Entries[0]
	assert.Equal(t, "B1ACNV13301-104@D19", got.DeviceID)
	assert.Equal(t, "B", got.SignalName)
	assert.Equal(t, model.BoolValue(true), got.Value)
	assert.True(t, got.Timestamp.Equal(exportBase))
}

func TestWriteJSONDocument(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, testWindow()))

	var doc Document
	require.NoError(t, sonic.Unmarshal(buf.Bytes(), &doc))

	assert.Equal(t, "conveyor.log", doc.Source)
	assert.Equal(t, 4, doc.EntryCount)
	assert.Equal(t, 1, doc.SignalCount)
	require.Len(t, doc.Entries, 4)
	assert.Equal(t, model.SignalBoolean, doc.Entries[0].Value.Type)
	require.Len(t, doc.States, 2)
	assert.Equal(t, int64(1500), doc.States[0].DurationMS)
	require.Len(t, doc.Violations, 2)
	assert.Equal(t, validation.SeverityError, doc.Violations[0].Severity)
}

func TestSQLiteExport(t *testing.T) {
	path := filepath.Join(t.TempDir(), "export.db")

	writer, err := NewSQLiteWriter(path)
	require.NoError(t, err)
	require.NoError(t, writer.ExportWindow(testWindow()))
	require.NoError(t, writer.Close())

	db, err := sql.Open("sqlite3", path)
	require.NoError(t, err)
	defer db.Close()

	var count int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM entries`).Scan(&count))
	assert.Equal(t, 4, count)
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM signal_states`).Scan(&count))
	assert.Equal(t, 2, count)
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM violations`).Scan(&count))
	assert.Equal(t, 2, count)

	var value, valueType string
	require.NoError(t, db.QueryRow(
		`SELECT value, value_type FROM entries WHERE signal_name = 'Status'`).Scan(&value, &valueType))
	assert.Equal(t, "Error", value)
	assert.Equal(t, "string", valueType)

	// Findings without a log position store a NULL timestamp.
	require.NoError(t, db.QueryRow(
		`SELECT COUNT(*) FROM violations WHERE timestamp IS NULL`).Scan(&count))
	assert.Equal(t, 1, count)
}

func TestSQLiteExportAppends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "export.db")

	writer, err := NewSQLiteWriter(path)
	require.NoError(t, err)
	require.NoError(t, writer.ExportWindow(testWindow()))
	require.NoError(t, writer.ExportWindow(testWindow()))
	require.NoError(t, writer.Close())

	db, err := sql.Open("sqlite3", path)
	require.NoError(t, err)
	defer db.Close()

	var count int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM entries`).Scan(&count))
	assert.Equal(t, 8, count)
}

func TestSQLiteExportEmptyWindow(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.db")

	writer, err := NewSQLiteWriter(path)
	require.NoError(t, err)
	require.NoError(t, writer.ExportWindow(&Window{Source: "empty.log"}))
	require.NoError(t, writer.Close())

	db, err := sql.Open("sqlite3", path)
	require.NoError(t, err)
	defer db.Close()

	var count int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM entries`).Scan(&count))
	assert.Equal(t, 0, count)
}
