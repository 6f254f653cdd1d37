package browse

import (
	"sync"
	"time"

	"github.com/plcscope/plcscope/internal/core/model"
	"github.com/plcscope/plcscope/internal/core/waveform"
)

// WindowData is one loaded slice of the log: the entries in a visible
// window plus the per-signal traces built from them.
type WindowData struct {
	Range   model.TimeRange
	Entries []model.LogEntry
	Signals []*waveform.Signal
}

// StateManager manages browser state in a thread-safe manner
type StateManager struct {
	mu sync.RWMutex

	// Window state
	current  *WindowData
	previous *WindowData // Keep previous valid data during refresh

	// Loading state
	isLoading      bool
	loadingMessage string

	// Metadata
	lastDataUpdate int64 // Timestamp of last successful load
}

// NewStateManager creates a new StateManager instance
func NewStateManager() *StateManager {
	return &StateManager{}
}

// GetWindow returns the current window data (thread-safe)
func (sm *StateManager) GetWindow() *WindowData {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	return sm.current
}

// SetWindow updates the current window data, keeping the old data as
// previous so the display never goes blank mid-refresh
func (sm *StateManager) SetWindow(data *WindowData) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if sm.current != nil {
		sm.previous = sm.current
	}
	sm.current = data
	sm.lastDataUpdate = time.Now().Unix()
}

// GetLoadingState returns current loading state and message
func (sm *StateManager) GetLoadingState() (bool, string) {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	return sm.isLoading, sm.loadingMessage
}

// SetLoadingState updates loading state and message
func (sm *StateManager) SetLoadingState(isLoading bool, message string) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	sm.isLoading = isLoading
	sm.loadingMessage = message
}

// GetLastDataUpdate returns timestamp of last successful load
func (sm *StateManager) GetLastDataUpdate() int64 {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	return sm.lastDataUpdate
}

// GetWindowForDisplay returns window data appropriate for display based
// on loading state: current data when settled, the previous window while
// a load is in flight
func (sm *StateManager) GetWindowForDisplay() *WindowData {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	if !sm.isLoading && sm.current != nil {
		return sm.current
	}
	if sm.isLoading && sm.previous != nil {
		return sm.previous
	}
	return sm.current
}
