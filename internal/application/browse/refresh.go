package browse

import (
	"fmt"
	"sync"
	"time"

	"github.com/plcscope/plcscope/internal/core/chunk"
	"github.com/plcscope/plcscope/internal/core/constants"
	"github.com/plcscope/plcscope/internal/core/model"
	"github.com/plcscope/plcscope/internal/util"
)

// RefreshController serializes window reloads and turns bursts of file
// watcher events into a single debounced chunk invalidation.
type RefreshController struct {
	state      *StateManager
	loadWindow func(model.TimeRange) (*WindowData, error)

	refreshMutex sync.Mutex // Prevent concurrent refreshes
	manager      *chunk.Manager

	timerMu  sync.Mutex
	timer    *time.Timer
	debounce time.Duration
}

// NewRefreshController creates a new RefreshController instance
func NewRefreshController(manager *chunk.Manager, state *StateManager, loadWindow func(model.TimeRange) (*WindowData, error)) *RefreshController {
	return &RefreshController{
		state:      state,
		loadWindow: loadWindow,
		manager:    manager,
		debounce:   constants.DefaultRefreshDebounce,
	}
}

// SetManager swaps the chunk manager after the backing view was rebuilt.
func (rc *RefreshController) SetManager(manager *chunk.Manager) {
	rc.refreshMutex.Lock()
	rc.manager = manager
	rc.refreshMutex.Unlock()
}

// RefreshData loads the given window and publishes it to the state
// manager. Concurrent callers are serialized.
func (rc *RefreshController) RefreshData(window model.TimeRange) (*WindowData, error) {
	rc.refreshMutex.Lock()
	defer rc.refreshMutex.Unlock()

	rc.state.SetLoadingState(true, "Loading window...")
	defer rc.state.SetLoadingState(false, "")

	data, err := rc.loadWindow(window)
	if err != nil {
		return nil, fmt.Errorf("failed to load window: %w", err)
	}

	rc.state.SetWindow(data)
	return data, nil
}

// Invalidate drops all resident chunks.
func (rc *RefreshController) Invalidate() {
	rc.refreshMutex.Lock()
	manager := rc.manager
	rc.refreshMutex.Unlock()

	manager.Invalidate()
	util.LogInfo("Resident chunks invalidated after file change")
}

// ScheduleInvalidate arms the debounce timer; when it fires, resident
// chunks are dropped and done is called. Repeated calls within the
// debounce interval collapse into one invalidation. Loading fresh data
// stays with the UI loop, which reacts to done.
func (rc *RefreshController) ScheduleInvalidate(done func()) {
	rc.timerMu.Lock()
	defer rc.timerMu.Unlock()

	if rc.timer != nil {
		rc.timer.Stop()
	}
	rc.timer = time.AfterFunc(rc.debounce, func() {
		rc.Invalidate()
		if done != nil {
			done()
		}
	})
}
