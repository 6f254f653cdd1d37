package chunk

import (
	"container/list"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/plcscope/plcscope/internal/core/model"
	"github.com/plcscope/plcscope/internal/util"
)

const (
	// DefaultChunkDuration is one chunk's time span.
	DefaultChunkDuration = 5 * time.Minute
	// DefaultMaxResident is how many chunks stay in memory.
	DefaultMaxResident = 5
)

var (
	// ErrInvalidRange reports a query whose start is not before its end.
	// This is a caller bug, not an operational condition.
	ErrInvalidRange = errors.New("invalid time range")
	// ErrNoLoader reports a query against a manager with no loader wired.
	ErrNoLoader = errors.New("chunk loader not configured")
)

// Loader reads the backing file and builds the chunk covering window.
type Loader func(window model.TimeRange) (*Chunk, error)

// resident pairs a loaded chunk with its index for the LRU list.
type resident struct {
	index int
	chunk *Chunk
}

// Manager owns the chunk-index to Chunk mapping for one log file and keeps
// the resident set bounded: chunks load on demand and the least recently
// used ones are evicted once the count passes the configured maximum.
//
// The index to time-window mapping is a pure function of the full range
// start and the chunk duration, so no two chunks ever cover overlapping,
// distinct spans. A single mutex guards all state; loads for synchronous
// queries run under it, prefetch loads run outside it and re-check before
// inserting.
type Manager struct {
	mu sync.Mutex

	full          model.TimeRange
	chunkDuration time.Duration
	maxResident   int
	loader        Loader

	chunks map[int]*list.Element
	lru    *list.List // front is the eviction candidate, back the most recent

	// failed records the last load error per chunk index. A failed chunk
	// stays resident as an empty chunk so a corrupt span is not re-read on
	// every pan; Invalidate clears the record.
	failed map[int]error

	// Discovery grows monotonically as chunks load and survives eviction.
	signals     map[string]struct{}
	devices     map[string]struct{}
	entriesSeen int
}

// NewManager creates a manager for a file spanning full. Non-positive
// chunkDuration or maxResident fall back to the defaults. The loader may be
// nil and wired later with SetLoader.
func NewManager(full model.TimeRange, chunkDuration time.Duration, maxResident int, loader Loader) *Manager {
	if chunkDuration <= 0 {
		chunkDuration = DefaultChunkDuration
	}
	if maxResident <= 0 {
		maxResident = DefaultMaxResident
	}
	return &Manager{
		full:          full,
		chunkDuration: chunkDuration,
		maxResident:   maxResident,
		loader:        loader,
		chunks:        make(map[int]*list.Element),
		lru:           list.New(),
		failed:        make(map[int]error),
		signals:       make(map[string]struct{}),
		devices:       make(map[string]struct{}),
	}
}

// SetLoader replaces the loading machinery, so tests and alternative
// backends can swap it without rebuilding the manager.
func (m *Manager) SetLoader(loader Loader) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.loader = loader
}

// FullRange returns the file's full time span.
func (m *Manager) FullRange() model.TimeRange {
	return m.full
}

func (m *Manager) ChunkDuration() time.Duration {
	return m.chunkDuration
}

func (m *Manager) MaxChunksInMemory() int {
	return m.maxResident
}

// EntriesInRange returns all entries with timestamps in [start, end),
// merged across the chunks covering the range and sorted by timestamp with
// parse order preserved on ties. Missing chunks are loaded on demand; every
// accessed chunk, already resident or not, becomes the most recently used.
// Once all loads are done, least recently used chunks are evicted until the
// resident count is back within the maximum.
//
// With withPrefetch set, the chunk immediately after the last one covering
// the range is additionally loaded in the background. Prefetching never
// blocks and its failures are silently dropped.
//
// A chunk whose load fails is kept as an empty span: the failure is logged,
// recorded for FailedChunks, and the query carries on. Only contract
// violations (start >= end, no loader) return an error.
func (m *Manager) EntriesInRange(start, end time.Time, withPrefetch bool) ([]model.LogEntry, error) {
	if !start.Before(end) {
		return nil, fmt.Errorf("%w: start %s is not before end %s",
			ErrInvalidRange, start.Format(time.RFC3339), end.Format(time.RFC3339))
	}

	m.mu.Lock()

	if m.loader == nil {
		m.mu.Unlock()
		return nil, ErrNoLoader
	}

	// Queries are clamped to the file's span through the index walk: the
	// walk starts no earlier than chunk 0 and never passes the chunk
	// holding the last known timestamp.
	firstIdx := m.chunkIndex(start)
	if firstIdx < 0 {
		firstIdx = 0
	}
	lastKnown := m.chunkIndex(m.full.End)

	var entries []model.LogEntry
	lastTouched := -1
	for idx := firstIdx; idx <= lastKnown && m.chunkStart(idx).Before(end); idx++ {
		c := m.chunkAtLocked(idx)
		entries = append(entries, c.EntriesInRange(start, end)...)
		lastTouched = idx
	}

	// Chunks were harvested in index order, so the merge is already nearly
	// sorted; the stable sort keeps parse order on equal timestamps.
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Timestamp.Before(entries[j].Timestamp)
	})

	var prefetchIdx = -1
	if withPrefetch && lastTouched >= 0 && lastTouched < lastKnown {
		if _, ok := m.chunks[lastTouched+1]; !ok {
			prefetchIdx = lastTouched + 1
		}
	}

	m.evictLocked()
	loader := m.loader
	m.mu.Unlock()

	if prefetchIdx >= 0 {
		go m.prefetch(prefetchIdx, loader)
	}

	return entries, nil
}

// chunkAtLocked returns the chunk for idx, loading it if needed, and marks
// it most recently used. Load failures yield an empty resident chunk.
func (m *Manager) chunkAtLocked(idx int) *Chunk {
	if elem, ok := m.chunks[idx]; ok {
		m.lru.MoveToBack(elem)
		return elem.Value.(*resident).chunk
	}

	window := m.chunkWindow(idx)
	c, err := m.loader(window)
	if err != nil {
		util.LogWarnf("chunk %d [%s, %s) failed to load, treating as empty: %v",
			idx, window.Start.Format(time.RFC3339), window.End.Format(time.RFC3339), err)
		m.failed[idx] = err
		c = New(window, nil)
	} else {
		delete(m.failed, idx)
	}

	m.insertLocked(idx, c)
	return c
}

// insertLocked makes the chunk resident at the most recently used position
// and folds its contents into the discovery sets.
func (m *Manager) insertLocked(idx int, c *Chunk) {
	m.chunks[idx] = m.lru.PushBack(&resident{index: idx, chunk: c})

	for _, key := range c.Signals() {
		m.signals[key] = struct{}{}
	}
	for _, device := range c.Devices() {
		m.devices[device] = struct{}{}
	}
	m.entriesSeen += c.EntryCount()
}

// evictLocked drops least recently used chunks until the resident count is
// within the maximum.
func (m *Manager) evictLocked() {
	for m.lru.Len() > m.maxResident {
		front := m.lru.Front()
		r := front.Value.(*resident)
		delete(m.chunks, r.index)
		m.lru.Remove(front)
		util.LogDebugf("evicted chunk %d (%d entries)", r.index, r.chunk.EntryCount())
	}
}

// prefetch loads one chunk outside the lock and inserts it unless a query
// loaded it first. Failures are dropped without caching, so the next real
// query still gets its own attempt and its own warning.
func (m *Manager) prefetch(idx int, loader Loader) {
	window := m.chunkWindow(idx)
	c, err := loader(window)
	if err != nil {
		util.LogDebugf("prefetch of chunk %d failed: %v", idx, err)
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.chunks[idx]; ok {
		return
	}
	m.insertLocked(idx, c)
	m.evictLocked()
}

// ChunksInMemory returns the resident chunk count.
func (m *Manager) ChunksInMemory() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lru.Len()
}

// Signals returns every signal key observed so far, sorted. The set grows
// as chunks load and is complete only once the whole file has been visited.
func (m *Manager) Signals() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return sortedKeys(m.signals)
}

// Devices returns every device ID observed so far, sorted.
func (m *Manager) Devices() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return sortedKeys(m.devices)
}

// EntriesSeen counts entries across all chunk loads. Reloading an evicted
// chunk counts its entries again.
func (m *Manager) EntriesSeen() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.entriesSeen
}

// FailedChunks returns the recorded load error per chunk index.
func (m *Manager) FailedChunks() map[int]error {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[int]error, len(m.failed))
	for idx, err := range m.failed {
		out[idx] = err
	}
	return out
}

// Invalidate drops every resident chunk and failure record, forcing fresh
// loads, while keeping the discovered signal and device sets.
func (m *Manager) Invalidate() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.chunks = make(map[int]*list.Element)
	m.lru = list.New()
	m.failed = make(map[int]error)
}

// chunkIndex maps a timestamp to its chunk. Times before the full range
// start land at or below zero and are clamped by the callers.
func (m *Manager) chunkIndex(t time.Time) int {
	return int(t.Sub(m.full.Start) / m.chunkDuration)
}

func (m *Manager) chunkStart(idx int) time.Time {
	return m.full.Start.Add(time.Duration(idx) * m.chunkDuration)
}

func (m *Manager) chunkWindow(idx int) model.TimeRange {
	start := m.chunkStart(idx)
	return model.TimeRange{Start: start, End: start.Add(m.chunkDuration)}
}
