package browse

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/plcscope/plcscope/internal/core/bookmark"
	"github.com/plcscope/plcscope/internal/core/chunk"
	"github.com/plcscope/plcscope/internal/core/constants"
	"github.com/plcscope/plcscope/internal/core/model"
	"github.com/plcscope/plcscope/internal/core/viewport"
	"github.com/plcscope/plcscope/internal/core/waveform"
	"github.com/plcscope/plcscope/internal/data/cache"
	"github.com/plcscope/plcscope/internal/data/parser"
	"github.com/plcscope/plcscope/internal/data/watcher"
	"github.com/plcscope/plcscope/internal/util"
)

// Session owns everything one open log needs: the chunked view, the
// viewport, the bookmark store, and the optional file watcher. The TUI
// talks only to the session.
type Session struct {
	config   *Config
	registry *parser.Registry

	// viewMu guards log and manager, which get swapped when the backing
	// file grows past the extracted range.
	viewMu  sync.RWMutex
	log     *chunk.Log
	manager *chunk.Manager

	vp      *viewport.State
	store   *bookmark.Store
	state   *StateManager
	refresh *RefreshController

	watcher *watcher.FileWatcher
	changes chan struct{}

	fromCache bool

	done      chan struct{}
	closeOnce sync.Once
}

// NewSession opens the log file and prepares the chunked view. The full
// time range comes from the detection cache when it has a valid entry,
// otherwise from a first/last-timestamp scan.
func NewSession(config *Config) (*Session, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	registry, err := buildRegistry(config.ParserName)
	if err != nil {
		return nil, err
	}

	var detectionCache *cache.DetectionCache
	if !config.NoCache && config.CacheDir != "" {
		detectionCache, err = cache.NewDetectionCache(config.CacheDir)
		if err != nil {
			util.LogWarnf("Detection cache disabled: %v", err)
			detectionCache = nil
		}
	}

	full, format, fromCache, err := resolveRange(config.FilePath, registry, detectionCache)
	if err != nil {
		return nil, err
	}

	log, manager, err := chunk.Open(config.FilePath, full, config.ChunkDuration, config.MaxChunks, registry)
	if err != nil {
		return nil, err
	}

	vp := viewport.New()
	if config.MinZoom > 0 || config.MaxZoom > 0 {
		min, max := config.MinZoom, config.MaxZoom
		if min <= 0 {
			min = viewport.DefaultMinZoom
		}
		if max <= 0 {
			max = viewport.DefaultMaxZoom
		}
		if err := vp.SetZoomBounds(min, max); err != nil {
			return nil, err
		}
	}
	if err := vp.SetFullTimeRange(full.Start, full.End); err != nil {
		return nil, err
	}

	store, err := loadBookmarks(config.StateDir, config.FilePath)
	if err != nil {
		return nil, err
	}

	s := &Session{
		config:    config,
		registry:  registry,
		log:       log,
		manager:   manager,
		vp:        vp,
		store:     store,
		state:     NewStateManager(),
		changes:   make(chan struct{}, 1),
		fromCache: fromCache,
		done:      make(chan struct{}),
	}
	s.refresh = NewRefreshController(manager, s.state, s.loadWindow)

	if config.Watch {
		s.startWatcher()
	}

	util.LogInfof("Opened %s: format %s, range %s (cache hit: %v)",
		config.FilePath, format, full.String(), fromCache)
	return s, nil
}

// buildRegistry returns the full registry, or one pinned to a single
// parser when the caller forced a format.
func buildRegistry(parserName string) (*parser.Registry, error) {
	registry := parser.NewDefaultRegistry()
	if parserName == "" {
		return registry, nil
	}

	p, ok := registry.Get(parserName)
	if !ok {
		return nil, fmt.Errorf("unknown parser %q (available: %v)", parserName, registry.Names())
	}
	pinned := parser.NewRegistry()
	pinned.Register(p, true)
	return pinned, nil
}

func resolveRange(path string, registry *parser.Registry, dc *cache.DetectionCache) (model.TimeRange, string, bool, error) {
	if dc != nil {
		if r := dc.Get(path); r.Found {
			util.LogDebugf("Detection cache hit for %s: format %s", path, r.Entry.Format)
			return r.Entry.TimeRange(), r.Entry.Format, true, nil
		}
	}

	p := registry.Detect(path)
	if p == nil {
		return model.TimeRange{}, "", false, fmt.Errorf("%s: %w", path, parser.ErrNoParser)
	}

	full, err := parser.ExtractTimeRange(path, p)
	if err != nil {
		return model.TimeRange{}, "", false, err
	}

	if dc != nil {
		entry := &cache.DetectionEntry{
			Format:     p.Name(),
			FirstEntry: full.Start,
			LastEntry:  full.End,
		}
		if err := dc.Set(path, entry); err != nil {
			util.LogWarnf("Failed to save detection cache for %s: %v", path, err)
		}
	}

	return full, p.Name(), false, nil
}

// loadBookmarks opens the per-file bookmark store under stateDir. Log
// file names repeat across directories, so the store name carries a path
// hash.
func loadBookmarks(stateDir, filePath string) (*bookmark.Store, error) {
	if stateDir == "" {
		stateDir = "."
	}
	if err := os.MkdirAll(stateDir, 0o755); err != nil {
		return nil, fmt.Errorf("create state dir: %w", err)
	}

	sum := md5.Sum([]byte(filePath))
	name := fmt.Sprintf("%s-%s.bookmarks.json",
		filepath.Base(filePath), hex.EncodeToString(sum[:])[:8])
	return bookmark.Load(filepath.Join(stateDir, name))
}

func (s *Session) Log() *chunk.Log {
	s.viewMu.RLock()
	defer s.viewMu.RUnlock()
	return s.log
}

func (s *Session) Viewport() *viewport.State {
	return s.vp
}

func (s *Session) State() *StateManager {
	return s.state
}

func (s *Session) Bookmarks() *bookmark.Store {
	return s.store
}

func (s *Session) FromCache() bool {
	return s.fromCache
}

// Changes delivers a notification after the watcher invalidated the
// resident chunks. The viewport owner should re-extract the range and
// reload its window.
func (s *Session) Changes() <-chan struct{} {
	return s.changes
}

// Watching reports whether file change events are being delivered.
func (s *Session) Watching() bool {
	return s.watcher != nil
}

// LoadVisible loads the viewport's visible window through the refresh
// controller and returns the resulting data. Call from the goroutine
// that owns the viewport.
func (s *Session) LoadVisible() (*WindowData, error) {
	visible, ok := s.vp.VisibleTimeRange()
	if !ok {
		return nil, fmt.Errorf("viewport not initialized")
	}
	return s.LoadWindow(visible)
}

// LoadWindow loads an explicit window through the refresh controller.
// Safe from any goroutine; the window is a value, not a viewport read.
func (s *Session) LoadWindow(window model.TimeRange) (*WindowData, error) {
	return s.refresh.RefreshData(window)
}

// loadWindow reads one window through the chunked log and builds the
// per-signal traces for it.
func (s *Session) loadWindow(window model.TimeRange) (*WindowData, error) {
	log := s.Log()

	// Ranges are half-open, but the full range's end is the last entry's
	// timestamp. Nudge the query past it when the window reaches the
	// tail so the final entry stays visible.
	queryEnd := window.End
	if !queryEnd.Before(log.TimeRange().End) {
		queryEnd = queryEnd.Add(time.Nanosecond)
	}

	entries, err := log.EntriesInRange(window.Start, queryEnd, true)
	if err != nil {
		return nil, err
	}
	return &WindowData{
		Range:   window,
		Entries: entries,
		Signals: buildWindowSignals(entries, window),
	}, nil
}

// ReextractRange rescans the file's first and last timestamps and, when
// the span changed, rebuilds the chunked view against the new range and
// widens the viewport. Call from the goroutine that owns the viewport,
// typically after a change notification.
func (s *Session) ReextractRange() (bool, error) {
	p := s.registry.Detect(s.config.FilePath)
	if p == nil {
		return false, fmt.Errorf("%s: %w", s.config.FilePath, parser.ErrNoParser)
	}
	full, err := parser.ExtractTimeRange(s.config.FilePath, p)
	if err != nil {
		return false, err
	}

	prev := s.Log().TimeRange()
	if full.Start.Equal(prev.Start) && full.End.Equal(prev.End) {
		return false, nil
	}

	log, manager, err := chunk.Open(s.config.FilePath, full,
		s.config.ChunkDuration, s.config.MaxChunks, s.registry)
	if err != nil {
		return false, err
	}

	s.viewMu.Lock()
	old := s.log
	s.log = log
	s.manager = manager
	s.viewMu.Unlock()
	old.Close()
	s.refresh.SetManager(manager)

	if err := s.vp.SetFullTimeRange(full.Start, full.End); err != nil {
		return true, err
	}

	util.LogInfof("Log range changed: %s -> %s", prev.String(), full.String())
	return true, nil
}

// buildWindowSignals turns the window's entries into render-ready
// traces, anchored at the window start, ordered by signal key.
func buildWindowSignals(entries []model.LogEntry, window model.TimeRange) []*waveform.Signal {
	groups := waveform.GroupBySignal(entries)

	keys := make([]string, 0, len(groups))
	for key := range groups {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	signals := make([]*waveform.Signal, 0, len(keys))
	for _, key := range keys {
		group := groups[key]
		first := group[0]
		sig := &waveform.Signal{
			Name:       first.SignalName,
			DeviceID:   first.DeviceID,
			Key:        key,
			Type:       first.SignalType(),
			States:     waveform.CalculateStates(group, window),
			EntryCount: len(group),
		}
		sig.BuildTimeIndex(window.Start)
		signals = append(signals, sig)
	}
	return signals
}

// PanLeft moves the visible window back by the standard pan fraction.
func (s *Session) PanLeft() error {
	return s.pan(-1)
}

// PanRight moves the visible window forward by the standard pan fraction.
func (s *Session) PanRight() error {
	return s.pan(1)
}

func (s *Session) pan(direction int) error {
	delta := time.Duration(float64(s.vp.VisibleDuration()) * constants.BrowsePanFraction)
	return s.vp.Pan(time.Duration(direction) * delta)
}

// ZoomIn narrows the visible window by the standard zoom factor.
func (s *Session) ZoomIn() error {
	return s.vp.ZoomIn(constants.BrowseZoomFactor)
}

// ZoomOut widens the visible window by the standard zoom factor.
func (s *Session) ZoomOut() error {
	return s.vp.ZoomOut(constants.BrowseZoomFactor)
}

// ResetZoom returns to the full time range.
func (s *Session) ResetZoom() error {
	return s.vp.ResetZoom()
}

// JumpToStart pans the window to the beginning of the log.
func (s *Session) JumpToStart() error {
	full, ok := s.vp.FullTimeRange()
	if !ok {
		return fmt.Errorf("viewport not initialized")
	}
	return s.vp.JumpToTime(full.Start)
}

// JumpToEnd pans the window to the end of the log.
func (s *Session) JumpToEnd() error {
	full, ok := s.vp.FullTimeRange()
	if !ok {
		return fmt.Errorf("viewport not initialized")
	}
	return s.vp.JumpToTime(full.End)
}

// AddBookmarkAtCenter drops a bookmark at the center of the visible
// window, labeled with its timestamp.
func (s *Session) AddBookmarkAtCenter() (bookmark.TimeBookmark, error) {
	visible, ok := s.vp.VisibleTimeRange()
	if !ok {
		return bookmark.TimeBookmark{}, fmt.Errorf("viewport not initialized")
	}
	center := visible.Start.Add(visible.Duration() / 2)
	label := util.GetTimeProvider().Format(center, "15:04:05.000")
	return s.store.Add(center, label, "")
}

func (s *Session) startWatcher() {
	w, err := watcher.NewFileWatcher([]string{s.config.FilePath})
	if err != nil {
		util.LogWarnf("File watching disabled: %v", err)
		return
	}
	s.watcher = w

	go func() {
		for {
			select {
			case <-s.done:
				return
			case ev, ok := <-w.Events():
				if !ok {
					return
				}
				if ev.Path != s.config.FilePath {
					continue
				}
				util.LogDebugf("File event %s on %s", ev.Operation, ev.Path)
				s.refresh.ScheduleInvalidate(s.notifyChanged)
			}
		}
	}()
}

func (s *Session) notifyChanged() {
	select {
	case s.changes <- struct{}{}:
	default:
	}
}

// Close releases the watcher and the chunked log.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		close(s.done)
		if s.watcher != nil {
			s.watcher.Close()
		}
		s.Log().Close()
	})
}
