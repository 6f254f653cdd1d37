package chunk

import (
	"sort"
	"time"

	"github.com/plcscope/plcscope/internal/core/model"
	"github.com/plcscope/plcscope/internal/core/waveform"
)

// Chunk is an immutable, time-bounded slice of a log: the entries whose
// timestamp falls in [Start, End) plus the per-signal value intervals
// derived from them, clipped to the chunk boundary. Chunks are owned by the
// Manager and rebuilt wholesale on reload, never mutated.
type Chunk struct {
	window  model.TimeRange
	entries []model.LogEntry
	signals []string
	devices []string
	states  map[string][]waveform.State
}

// New builds a chunk for the given window. Entries outside the window are
// dropped; the rest are sorted by timestamp with parse order preserved on
// ties.
func New(window model.TimeRange, entries []model.LogEntry) *Chunk {
	kept := make([]model.LogEntry, 0, len(entries))
	for _, entry := range entries {
		if window.Contains(entry.Timestamp) {
			kept = append(kept, entry)
		}
	}
	sort.SliceStable(kept, func(i, j int) bool {
		return kept[i].Timestamp.Before(kept[j].Timestamp)
	})

	c := &Chunk{window: window, entries: kept}

	grouped := waveform.GroupBySignal(kept)
	c.states = make(map[string][]waveform.State, len(grouped))
	signalSet := make(map[string]struct{}, len(grouped))
	deviceSet := make(map[string]struct{})
	for key, group := range grouped {
		c.states[key] = waveform.CalculateStates(group, window)
		signalSet[key] = struct{}{}
		deviceSet[group[0].DeviceID] = struct{}{}
	}

	c.signals = sortedKeys(signalSet)
	c.devices = sortedKeys(deviceSet)
	return c
}

func sortedKeys(set map[string]struct{}) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Window returns the chunk's time span.
func (c *Chunk) Window() model.TimeRange {
	return c.window
}

func (c *Chunk) Start() time.Time {
	return c.window.Start
}

func (c *Chunk) End() time.Time {
	return c.window.End
}

func (c *Chunk) Duration() time.Duration {
	return c.window.Duration()
}

// Entries returns the chunk's entries in timestamp order. The slice is
// shared; callers must not modify it.
func (c *Chunk) Entries() []model.LogEntry {
	return c.entries
}

func (c *Chunk) EntryCount() int {
	return len(c.entries)
}

// Signals returns the signal keys present in this chunk, sorted.
func (c *Chunk) Signals() []string {
	return c.signals
}

// Devices returns the device IDs present in this chunk, sorted.
func (c *Chunk) Devices() []string {
	return c.devices
}

// States returns the value intervals for one signal key. The last interval
// ends at the chunk boundary, not at the signal's next real transition,
// which may live in a later chunk.
func (c *Chunk) States(key string) []waveform.State {
	return c.states[key]
}

// EntriesInRange returns the chunk's entries with timestamps in
// [start, end), located by binary search.
func (c *Chunk) EntriesInRange(start, end time.Time) []model.LogEntry {
	lo := sort.Search(len(c.entries), func(i int) bool {
		return !c.entries[i].Timestamp.Before(start)
	})
	hi := sort.Search(len(c.entries), func(i int) bool {
		return !c.entries[i].Timestamp.Before(end)
	})
	if lo >= hi {
		return nil
	}
	return c.entries[lo:hi]
}
