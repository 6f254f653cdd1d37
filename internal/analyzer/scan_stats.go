package analyzer

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/plcscope/plcscope/internal/data/cache"
	"github.com/plcscope/plcscope/internal/util"
)

// Translate cache miss reason to English string for logging
func missReasonString(r cache.MissReason) string {
	switch r {
	case cache.MissReasonNone:
		return "none"
	case cache.MissReasonError:
		return "Cache read error"
	case cache.MissReasonInode:
		return "File inode changed"
	case cache.MissReasonSize:
		return "File size changed"
	case cache.MissReasonModTime:
		return "Modification time changed"
	case cache.MissReasonFingerprint:
		return "File fingerprint changed"
	case cache.MissReasonNoFingerprint:
		return "Cached file has no fingerprint"
	case cache.MissReasonNotFound:
		return "Cache not found"
	default:
		return "Unknown reason"
	}
}

// ScanStats holds statistics for detection cache usage during a scan
type ScanStats struct {
	totalFiles  int64
	cacheHits   int64
	cacheMisses int64
	failures    int64
	mu          sync.Mutex
	missDetails []MissDetail
}

// MissDetail records details of a cache miss
type MissDetail struct {
	FilePath string
	Reason   cache.MissReason
}

// NewScanStats creates a new ScanStats instance
func NewScanStats() *ScanStats {
	return &ScanStats{
		missDetails: make([]MissDetail, 0),
	}
}

// IncrementTotal increases the total file count
func (s *ScanStats) IncrementTotal() {
	atomic.AddInt64(&s.totalFiles, 1)
}

// IncrementHit increases the cache hit count
func (s *ScanStats) IncrementHit() {
	atomic.AddInt64(&s.cacheHits, 1)
}

// IncrementMiss increases the cache miss count and records the miss detail
func (s *ScanStats) IncrementMiss(filePath string, reason cache.MissReason) {
	atomic.AddInt64(&s.cacheMisses, 1)

	s.mu.Lock()
	s.missDetails = append(s.missDetails, MissDetail{
		FilePath: filePath,
		Reason:   reason,
	})
	s.mu.Unlock()
}

// IncrementFailure increases the failure count
func (s *ScanStats) IncrementFailure() {
	atomic.AddInt64(&s.failures, 1)
}

// GetStats returns the current statistics and hit rate
func (s *ScanStats) GetStats() (total, hits, misses, failures int64, hitRate float64) {
	total = atomic.LoadInt64(&s.totalFiles)
	hits = atomic.LoadInt64(&s.cacheHits)
	misses = atomic.LoadInt64(&s.cacheMisses)
	failures = atomic.LoadInt64(&s.failures)

	if total > 0 {
		hitRate = float64(hits) / float64(total) * 100
	}

	return
}

// PrintProgress logs the current file scan progress and cache hit rate
func (s *ScanStats) PrintProgress(processed int64) {
	total, hits, misses, failures, hitRate := s.GetStats()

	util.LogInfo(fmt.Sprintf("File scan progress: processed %d/%d files, cache hit rate: %.1f%% (%d hits/%d misses/%d failures)",
		processed, total, hitRate, hits, misses, failures))
}

// PrintFinalStats logs the final cache statistics and a summary of cache miss reasons
func (s *ScanStats) PrintFinalStats() {
	total, hits, misses, failures, hitRate := s.GetStats()

	util.LogInfo(fmt.Sprintf("Detection cache statistics: total files %d, hit rate %.1f%% (%d hits/%d misses/%d failures)",
		total, hitRate, hits, misses, failures))

	if misses > 0 {
		s.mu.Lock()
		reasonCounts := make(map[cache.MissReason]int)
		for _, detail := range s.missDetails {
			reasonCounts[detail.Reason]++
		}
		s.mu.Unlock()

		util.LogDebug("Cache miss reason summary:")
		for reason, count := range reasonCounts {
			util.LogDebug(fmt.Sprintf("  %s: %d files", missReasonString(reason), count))
		}
	}
}
