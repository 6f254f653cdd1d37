package watcher

import (
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"github.com/plcscope/plcscope/internal/core/constants"
	"github.com/plcscope/plcscope/internal/util"
)

// Event reports a change to a watched log file.
type Event struct {
	Path      string
	Operation string
}

// FileWatcher watches directories for log file changes. Directories are
// added recursively, and only paths with log extensions produce events.
type FileWatcher struct {
	watcher *fsnotify.Watcher
	paths   []string
	events  chan Event
}

func NewFileWatcher(paths []string) (*FileWatcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	fw := &FileWatcher{
		watcher: watcher,
		paths:   paths,
		events:  make(chan Event, 100),
	}

	for _, path := range paths {
		if err := fw.addPath(path); err != nil {
			watcher.Close()
			return nil, err
		}
	}

	go fw.processEvents()

	return fw, nil
}

func (fw *FileWatcher) addPath(path string) error {
	// A file argument watches its parent directory, so edits done via
	// rename-and-replace are still seen.
	info, err := os.Stat(path)
	if err == nil && !info.IsDir() {
		return fw.watcher.Add(filepath.Dir(path))
	}

	return filepath.Walk(path, func(p string, info os.FileInfo, err error) error {
		if err != nil {
			return nil
		}

		if info.IsDir() {
			return fw.watcher.Add(p)
		}

		return nil
	})
}

func (fw *FileWatcher) processEvents() {
	for {
		select {
		case event, ok := <-fw.watcher.Events:
			if !ok {
				return
			}

			if constants.IsLogFile(event.Name) {
				fw.events <- Event{
					Path:      event.Name,
					Operation: event.Op.String(),
				}
			}

		case err, ok := <-fw.watcher.Errors:
			if !ok {
				return
			}
			// Log error but continue running
			util.LogError("File monitoring error: " + err.Error())
		}
	}
}

func (fw *FileWatcher) Events() <-chan Event {
	return fw.events
}

func (fw *FileWatcher) Close() error {
	return fw.watcher.Close()
}
