package scanner

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/plcscope/plcscope/internal/core/constants"
	"github.com/plcscope/plcscope/internal/util"
)

// FileScanner collects PLC log files under a base directory
type FileScanner struct {
	baseDir    string
	extensions []string
}

// NewFileScanner creates a scanner rooted at baseDir, matching the
// standard log extensions.
func NewFileScanner(baseDir string) *FileScanner {
	return &FileScanner{
		baseDir:    baseDir,
		extensions: constants.LogFileExtensions,
	}
}

// Scan walks the base directory and returns all log file paths, sorted.
// Unreadable entries are skipped rather than aborting the walk.
func (s *FileScanner) Scan() ([]string, error) {
	start := time.Now()
	var files []string
	dirCount := 0
	totalCount := 0

	util.LogDebug(fmt.Sprintf("Start scanning directory: %s", s.baseDir))

	err := filepath.Walk(s.baseDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			util.LogDebug(fmt.Sprintf("Skip file (error): %s - %v", path, err))
			return nil
		}

		if info.IsDir() {
			dirCount++
			return nil
		}

		totalCount++
		if s.matches(path) {
			files = append(files, path)
		}

		return nil
	})

	sort.Strings(files)

	duration := time.Since(start)
	util.LogDebug(fmt.Sprintf("File scan completed: duration %v, scanned %d directories, %d files, found %d log files",
		duration, dirCount, totalCount, len(files)))

	return files, err
}

func (s *FileScanner) matches(path string) bool {
	ext := filepath.Ext(path)
	for _, e := range s.extensions {
		if strings.EqualFold(ext, e) {
			return true
		}
	}
	return false
}
