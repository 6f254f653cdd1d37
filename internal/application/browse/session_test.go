package browse

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/plcscope/plcscope/internal/core/model"
)

var browseBase = time.Date(2025, 6, 10, 8, 0, 0, 0, time.UTC)

// browseLogLines interleaves a boolean and an integer signal, one entry
// every 30 seconds.
func browseLogLines(count int) []string {
	lines := make([]string, count)
	for i := 0; i < count; i++ {
		ts := browseBase.Add(time.Duration(i) * 30 * time.Second).Format("2006-01-02 15:04:05.000")
		if i%2 == 0 {
			v := "true"
			if i%4 == 2 {
				v = "false"
			}
			lines[i] = fmt.Sprintf("%s,B1ACNV13301-104@D19,MOVE_START,%s", ts, v)
		} else {
			lines[i] = fmt.Sprintf("%s,B1ACNV13301-104@D19,CARRIER_CNT,%d", ts, i)
		}
	}
	return lines
}

func writeBrowseLog(t *testing.T, dir string, lines []string) string {
	t.Helper()
	path := filepath.Join(dir, "conveyor.log")
	require.NoError(t, os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0o644))
	return path
}

func newTestSession(t *testing.T, mutate func(*Config)) *Session {
	t.Helper()
	path := writeBrowseLog(t, t.TempDir(), browseLogLines(20))
	config := &Config{
		FilePath:      path,
		StateDir:      t.TempDir(),
		CacheDir:      t.TempDir(),
		ChunkDuration: 2 * time.Minute,
		MaxChunks:     3,
	}
	if mutate != nil {
		mutate(config)
	}
	s, err := NewSession(config)
	require.NoError(t, err)
	t.Cleanup(s.Close)
	return s
}

func TestNewSessionOpensLog(t *testing.T) {
	s := newTestSession(t, nil)

	wantEnd := browseBase.Add(19 * 30 * time.Second)
	r := s.Log().TimeRange()
	assert.True(t, r.Start.Equal(browseBase), "range start = %s", r.Start)
	assert.True(t, r.End.Equal(wantEnd), "range end = %s", r.End)
	assert.False(t, s.FromCache())

	full, ok := s.Viewport().FullTimeRange()
	require.True(t, ok)
	assert.True(t, full.Start.Equal(browseBase))
	assert.True(t, full.End.Equal(wantEnd))
}

func TestNewSessionCacheHitOnReopen(t *testing.T) {
	dir := t.TempDir()
	path := writeBrowseLog(t, dir, browseLogLines(20))
	cacheDir := t.TempDir()
	config := func() *Config {
		return &Config{
			FilePath: path,
			StateDir: t.TempDir(),
			CacheDir: cacheDir,
		}
	}

	first, err := NewSession(config())
	require.NoError(t, err)
	assert.False(t, first.FromCache())
	first.Close()

	second, err := NewSession(config())
	require.NoError(t, err)
	defer second.Close()
	assert.True(t, second.FromCache())
	assert.True(t, second.Log().TimeRange().Start.Equal(browseBase))
}

func TestNewSessionUnknownParser(t *testing.T) {
	path := writeBrowseLog(t, t.TempDir(), browseLogLines(4))
	_, err := NewSession(&Config{FilePath: path, ParserName: "nope", StateDir: t.TempDir(), NoCache: true})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown parser")
}

func TestNewSessionMissingFile(t *testing.T) {
	_, err := NewSession(&Config{FilePath: filepath.Join(t.TempDir(), "absent.log"), NoCache: true})
	require.Error(t, err)
}

func TestSessionLoadVisible(t *testing.T) {
	s := newTestSession(t, nil)

	data, err := s.LoadVisible()
	require.NoError(t, err)
	require.NotNil(t, data)

	assert.Len(t, data.Entries, 20)
	require.Len(t, data.Signals, 2)
	// Sorted by key.
	assert.Equal(t, "B1ACNV13301-104::CARRIER_CNT", data.Signals[0].Key)
	assert.Equal(t, "B1ACNV13301-104::MOVE_START", data.Signals[1].Key)
	assert.Equal(t, 10, data.Signals[0].EntryCount)
	assert.Equal(t, model.SignalInteger, data.Signals[0].Type)
	assert.Equal(t, model.SignalBoolean, data.Signals[1].Type)

	// Last state of each trace runs to the window end.
	for _, sig := range data.Signals {
		last := sig.States[len(sig.States)-1]
		assert.True(t, last.End.Equal(data.Range.End), "signal %s last state ends %s", sig.Key, last.End)
	}

	assert.Same(t, data, s.State().GetWindow())
	assert.Greater(t, s.Log().ChunksInMemory(), 0)
}

func TestSessionPanAndZoom(t *testing.T) {
	s := newTestSession(t, nil)
	vp := s.Viewport()

	fullDuration := vp.FullDuration()

	// Zoom deep enough that a pan stays clear of the range edges.
	require.NoError(t, s.ZoomIn())
	require.NoError(t, s.ZoomIn())
	assert.Less(t, vp.VisibleDuration(), fullDuration)

	before, ok := vp.VisibleTimeRange()
	require.True(t, ok)
	require.NoError(t, s.PanRight())
	after, ok := vp.VisibleTimeRange()
	require.True(t, ok)
	assert.True(t, after.Start.After(before.Start))

	require.NoError(t, s.PanLeft())
	back, ok := vp.VisibleTimeRange()
	require.True(t, ok)
	assert.True(t, back.Start.Equal(before.Start))

	require.NoError(t, s.JumpToEnd())
	atEnd, ok := vp.VisibleTimeRange()
	require.True(t, ok)
	full, _ := vp.FullTimeRange()
	assert.True(t, atEnd.End.Equal(full.End))

	require.NoError(t, s.JumpToStart())
	atStart, ok := vp.VisibleTimeRange()
	require.True(t, ok)
	assert.True(t, atStart.Start.Equal(full.Start))

	require.NoError(t, s.ResetZoom())
	assert.Equal(t, fullDuration, vp.VisibleDuration())
}

func TestSessionBookmarks(t *testing.T) {
	s := newTestSession(t, nil)

	visible, ok := s.Viewport().VisibleTimeRange()
	require.True(t, ok)
	center := visible.Start.Add(visible.Duration() / 2)

	b, err := s.AddBookmarkAtCenter()
	require.NoError(t, err)
	assert.True(t, b.Timestamp.Equal(center))
	assert.NotEmpty(t, b.Label)

	all := s.Bookmarks().All()
	require.Len(t, all, 1)
	assert.True(t, all[0].Timestamp.Equal(center))
}

func TestSessionReextractRange(t *testing.T) {
	dir := t.TempDir()
	path := writeBrowseLog(t, dir, browseLogLines(20))
	s, err := NewSession(&Config{
		FilePath: path,
		StateDir: t.TempDir(),
		NoCache:  true,
	})
	require.NoError(t, err)
	defer s.Close()

	_, err = s.LoadVisible()
	require.NoError(t, err)

	changed, err := s.ReextractRange()
	require.NoError(t, err)
	assert.False(t, changed)

	// Append five minutes of new entries.
	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o644)
	require.NoError(t, err)
	for i := 0; i < 10; i++ {
		ts := browseBase.Add(10*time.Minute + time.Duration(i)*30*time.Second).Format("2006-01-02 15:04:05.000")
		_, err = fmt.Fprintf(f, "%s,B1ACNV13301-104@D19,CARRIER_CNT,%d\n", ts, 100+i)
		require.NoError(t, err)
	}
	require.NoError(t, f.Close())

	changed, err = s.ReextractRange()
	require.NoError(t, err)
	assert.True(t, changed)

	wantEnd := browseBase.Add(10*time.Minute + 9*30*time.Second)
	assert.True(t, s.Log().TimeRange().End.Equal(wantEnd))
	full, ok := s.Viewport().FullTimeRange()
	require.True(t, ok)
	assert.True(t, full.End.Equal(wantEnd))

	data, err := s.LoadWindow(s.Log().TimeRange())
	require.NoError(t, err)
	assert.Len(t, data.Entries, 30)
}

func TestRefreshControllerInvalidate(t *testing.T) {
	s := newTestSession(t, nil)

	_, err := s.LoadVisible()
	require.NoError(t, err)
	require.Greater(t, s.Log().ChunksInMemory(), 0)

	s.refresh.Invalidate()
	assert.Equal(t, 0, s.Log().ChunksInMemory())
}

func TestScheduleInvalidateDebounce(t *testing.T) {
	s := newTestSession(t, nil)

	fired := make(chan struct{}, 4)
	for i := 0; i < 4; i++ {
		s.refresh.ScheduleInvalidate(func() { fired <- struct{}{} })
		time.Sleep(20 * time.Millisecond)
	}

	select {
	case <-fired:
	case <-time.After(3 * time.Second):
		t.Fatal("Debounced invalidation never fired")
	}

	select {
	case <-fired:
		t.Fatal("Debounce should collapse repeated events into one firing")
	case <-time.After(700 * time.Millisecond):
	}
}

func TestStateManagerDoubleBuffer(t *testing.T) {
	sm := NewStateManager()
	assert.Nil(t, sm.GetWindowForDisplay())

	first := &WindowData{Range: model.TimeRange{Start: browseBase, End: browseBase.Add(time.Minute)}}
	sm.SetWindow(first)
	assert.Same(t, first, sm.GetWindowForDisplay())

	sm.SetLoadingState(true, "Loading window...")
	loading, msg := sm.GetLoadingState()
	assert.True(t, loading)
	assert.Equal(t, "Loading window...", msg)

	// While loading with no newer data, the stale window keeps showing.
	assert.Same(t, first, sm.GetWindowForDisplay())

	second := &WindowData{Range: model.TimeRange{Start: browseBase, End: browseBase.Add(2 * time.Minute)}}
	sm.SetWindow(second)
	assert.Same(t, first, sm.GetWindowForDisplay(), "previous window shows while loading")

	sm.SetLoadingState(false, "")
	assert.Same(t, second, sm.GetWindowForDisplay())
	assert.NotZero(t, sm.GetLastDataUpdate())
}

func TestConfigValidate(t *testing.T) {
	c := &Config{}
	require.Error(t, c.Validate())

	c = &Config{FilePath: "/logs/a.log"}
	require.NoError(t, c.Validate())
	assert.Equal(t, 5*time.Minute, c.ChunkDuration)
	assert.Equal(t, 5, c.MaxChunks)
	assert.Equal(t, "Local", c.Timezone)
}
