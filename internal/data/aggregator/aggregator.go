package aggregator

import (
	"sort"
	"time"

	"github.com/plcscope/plcscope/internal/core/model"
)

// SignalStats aggregates one signal's activity across a parsed log.
type SignalStats struct {
	Key            string           `json:"key"`
	DeviceID       string           `json:"deviceId"`
	SignalName     string           `json:"signalName"`
	Type           model.SignalType `json:"type"`
	EntryCount     int              `json:"entryCount"`
	Transitions    int              `json:"transitions"`
	DistinctValues int              `json:"distinctValues"`
	FirstSeen      time.Time        `json:"firstSeen"`
	LastSeen       time.Time        `json:"lastSeen"`
}

// HourlyData holds aggregate activity for one hour of the log.
type HourlyData struct {
	Hour          int64 `json:"hour"` // Unix timestamp (truncated to hour, UTC)
	EntryCount    int   `json:"entryCount"`
	Transitions   int   `json:"transitions"`
	ActiveSignals int   `json:"activeSignals"`
}

// AggregateBySignal folds time-sorted entries into per-signal statistics.
// A transition is an entry whose value differs from the signal's previous
// value; the first entry of a signal does not count.
func AggregateBySignal(entries []model.LogEntry) []SignalStats {
	statsByKey := make(map[string]*SignalStats)
	lastValue := make(map[string]model.Value)
	valueSets := make(map[string]map[string]struct{})

	for _, e := range entries {
		key := e.Key()
		stats, exists := statsByKey[key]
		if !exists {
			stats = &SignalStats{
				Key:        key,
				DeviceID:   e.DeviceID,
				SignalName: e.SignalName,
				Type:       e.SignalType(),
				FirstSeen:  e.Timestamp,
				LastSeen:   e.Timestamp,
			}
			statsByKey[key] = stats
			valueSets[key] = make(map[string]struct{})
		}

		stats.EntryCount++
		if e.Timestamp.Before(stats.FirstSeen) {
			stats.FirstSeen = e.Timestamp
		}
		if e.Timestamp.After(stats.LastSeen) {
			stats.LastSeen = e.Timestamp
		}

		valueSets[key][e.Value.String()] = struct{}{}
		if prev, seen := lastValue[key]; seen && !prev.Equal(e.Value) {
			stats.Transitions++
		}
		lastValue[key] = e.Value
	}

	result := make([]SignalStats, 0, len(statsByKey))
	for key, stats := range statsByKey {
		stats.DistinctValues = len(valueSets[key])
		result = append(result, *stats)
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].DeviceID != result[j].DeviceID {
			return result[i].DeviceID < result[j].DeviceID
		}
		return result[i].SignalName < result[j].SignalName
	})
	return result
}

// AggregateByHour folds time-sorted entries into hourly activity buckets,
// sorted by hour.
func AggregateByHour(entries []model.LogEntry) []HourlyData {
	type bucket struct {
		data HourlyData
		keys map[string]struct{}
	}

	buckets := make(map[int64]*bucket)
	lastValue := make(map[string]model.Value)

	for _, e := range entries {
		hour := truncateToHourUTC(e.Timestamp.Unix())
		b, exists := buckets[hour]
		if !exists {
			b = &bucket{data: HourlyData{Hour: hour}, keys: make(map[string]struct{})}
			buckets[hour] = b
		}

		key := e.Key()
		b.data.EntryCount++
		b.keys[key] = struct{}{}

		if prev, seen := lastValue[key]; seen && !prev.Equal(e.Value) {
			b.data.Transitions++
		}
		lastValue[key] = e.Value
	}

	result := make([]HourlyData, 0, len(buckets))
	for _, b := range buckets {
		b.data.ActiveSignals = len(b.keys)
		result = append(result, b.data)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Hour < result[j].Hour
	})
	return result
}

// TotalTransitions sums the transition counts of the given stats.
func TotalTransitions(stats []SignalStats) int {
	total := 0
	for _, s := range stats {
		total += s.Transitions
	}
	return total
}

// Helper function to truncate timestamp to hour in UTC.
func truncateToHourUTC(timestamp int64) int64 {
	return (timestamp / 3600) * 3600
}
