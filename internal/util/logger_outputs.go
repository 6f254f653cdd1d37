package util

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/bytedance/sonic"
)

// ConsoleOutput writes logs to console
type ConsoleOutput struct {
	writer io.Writer
	format LogFormat
	mu     sync.Mutex
}

// NewConsoleOutput creates a new console output
func NewConsoleOutput(writer io.Writer, format LogFormat) Output {
	return &ConsoleOutput{
		writer: writer,
		format: format,
	}
}

// Write writes a log record to console
func (c *ConsoleOutput) Write(rec Record) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	output, err := renderRecord(rec, c.format)
	if err != nil {
		return err
	}

	_, err = fmt.Fprintln(c.writer, output)
	return err
}

// Close closes the console output
func (c *ConsoleOutput) Close() error {
	return nil
}

// FileOutput writes logs to a file
type FileOutput struct {
	file   *os.File
	format LogFormat
	mu     sync.Mutex
}

// NewFileOutput creates a new file output
func NewFileOutput(path string, format LogFormat) (Output, error) {
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, err
	}

	return &FileOutput{
		file:   file,
		format: format,
	}, nil
}

// Write writes a log record to file
func (f *FileOutput) Write(rec Record) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	output, err := renderRecord(rec, f.format)
	if err != nil {
		return err
	}

	_, err = fmt.Fprintln(f.file, output)
	return err
}

// Close closes the file
func (f *FileOutput) Close() error {
	return f.file.Close()
}

// renderRecord renders a record in the requested format
func renderRecord(rec Record, format LogFormat) (string, error) {
	if format == FormatJSON {
		data, err := sonic.Marshal(rec)
		if err != nil {
			return "", err
		}
		return string(data), nil
	}

	timestamp := rec.Timestamp.Format("2006/01/02 15:04:05")
	output := fmt.Sprintf("%s [%s] %s", timestamp, rec.Level, rec.Message)

	if len(rec.Fields) > 0 {
		fieldStrs := make([]string, 0, len(rec.Fields))
		for k, v := range rec.Fields {
			fieldStrs = append(fieldStrs, fmt.Sprintf("%s=%v", k, v))
		}
		output += " " + strings.Join(fieldStrs, " ")
	}

	return output, nil
}
