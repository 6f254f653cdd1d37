package constants

import (
	"path/filepath"
	"strings"
	"time"
)

const (
	// Chunked loading defaults
	DefaultChunkDuration     = 5 * time.Minute
	DefaultMaxResidentChunks = 5

	// Debounce applied before reloading after a file change event
	DefaultRefreshDebounce = 500 * time.Millisecond

	// Pan step and zoom factor used by the interactive viewer
	BrowsePanFraction = 0.25
	BrowseZoomFactor  = 1.25
)

// LogFileExtensions lists the extensions treated as PLC log files when
// scanning and watching directories.
var LogFileExtensions = []string{".log", ".txt", ".csv"}

// IsLogFile reports whether path carries one of the recognized log
// extensions.
func IsLogFile(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range LogFileExtensions {
		if ext == e {
			return true
		}
	}
	return false
}
