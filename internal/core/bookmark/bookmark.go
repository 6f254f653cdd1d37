package bookmark

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/bytedance/sonic"

	"github.com/plcscope/plcscope/internal/util"
)

// TimeBookmark marks a point of interest on a log's timeline.
type TimeBookmark struct {
	Timestamp   time.Time `json:"timestamp"`
	Label       string    `json:"label"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

type EventType string

const (
	EventAdded   EventType = "added"
	EventRemoved EventType = "removed"
)

// Event reports a bookmark change to whoever is rendering the timeline.
type Event struct {
	Type     EventType
	Bookmark TimeBookmark
}

type storeFile struct {
	Bookmarks []TimeBookmark `json:"bookmarks"`
}

// Store keeps the bookmarks for one log file, ordered by timestamp and
// persisted as JSON. Changes are announced on the Events channel; a
// listener that falls behind loses events rather than blocking edits.
type Store struct {
	path      string
	mu        sync.Mutex
	bookmarks []TimeBookmark
	events    chan Event
	now       func() time.Time
}

// Load reads the store at path. A missing file yields an empty store;
// an unreadable one is an error.
func Load(path string) (*Store, error) {
	s := &Store{
		path:   path,
		events: make(chan Event, 16),
		now:    time.Now,
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read bookmarks: %w", err)
	}

	var file storeFile
	if err := sonic.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("decode bookmarks: %w", err)
	}

	s.bookmarks = file.Bookmarks
	sort.SliceStable(s.bookmarks, func(i, j int) bool {
		return s.bookmarks[i].Timestamp.Before(s.bookmarks[j].Timestamp)
	})

	util.LogDebug(fmt.Sprintf("Loaded %d bookmarks from %s", len(s.bookmarks), path))
	return s, nil
}

// Add creates a bookmark at the given timestamp and persists the store.
func (s *Store) Add(timestamp time.Time, label, description string) (TimeBookmark, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b := TimeBookmark{
		Timestamp:   timestamp,
		Label:       label,
		Description: description,
		CreatedAt:   s.now(),
	}

	// Insert in timestamp order, after any existing bookmark at the
	// same instant.
	idx := sort.Search(len(s.bookmarks), func(i int) bool {
		return s.bookmarks[i].Timestamp.After(timestamp)
	})
	s.bookmarks = append(s.bookmarks, TimeBookmark{})
	copy(s.bookmarks[idx+1:], s.bookmarks[idx:])
	s.bookmarks[idx] = b

	if err := s.save(); err != nil {
		return TimeBookmark{}, err
	}

	s.emit(Event{Type: EventAdded, Bookmark: b})
	return b, nil
}

// Remove deletes the first bookmark at exactly the given timestamp.
// It reports whether one was removed.
func (s *Store) Remove(timestamp time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, b := range s.bookmarks {
		if b.Timestamp.Equal(timestamp) {
			s.bookmarks = append(s.bookmarks[:i], s.bookmarks[i+1:]...)
			if err := s.save(); err != nil {
				return false, err
			}
			s.emit(Event{Type: EventRemoved, Bookmark: b})
			return true, nil
		}
	}
	return false, nil
}

// All returns the bookmarks in timestamp order.
func (s *Store) All() []TimeBookmark {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]TimeBookmark, len(s.bookmarks))
	copy(out, s.bookmarks)
	return out
}

func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.bookmarks)
}

// Next returns the first bookmark strictly after t.
func (s *Store) Next(t time.Time) (TimeBookmark, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := sort.Search(len(s.bookmarks), func(i int) bool {
		return s.bookmarks[i].Timestamp.After(t)
	})
	if idx == len(s.bookmarks) {
		return TimeBookmark{}, false
	}
	return s.bookmarks[idx], true
}

// Prev returns the last bookmark strictly before t.
func (s *Store) Prev(t time.Time) (TimeBookmark, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := sort.Search(len(s.bookmarks), func(i int) bool {
		return !s.bookmarks[i].Timestamp.Before(t)
	})
	if idx == 0 {
		return TimeBookmark{}, false
	}
	return s.bookmarks[idx-1], true
}

// Events exposes the change feed consumed by the viewer.
func (s *Store) Events() <-chan Event {
	return s.events
}

// save writes the store to a sibling temp file and renames it into
// place, so a crash mid-write never truncates the bookmark file.
func (s *Store) save() error {
	data, err := sonic.ConfigDefault.MarshalIndent(storeFile{Bookmarks: s.bookmarks}, "", "  ")
	if err != nil {
		return fmt.Errorf("encode bookmarks: %w", err)
	}

	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create bookmark directory: %w", err)
		}
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("write bookmarks: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("replace bookmarks: %w", err)
	}
	return nil
}

func (s *Store) emit(ev Event) {
	select {
	case s.events <- ev:
	default:
		util.LogDebug("Bookmark event dropped: listener not draining")
	}
}
