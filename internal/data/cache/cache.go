package cache

import (
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/plcscope/plcscope/internal/core/model"
	"github.com/plcscope/plcscope/internal/util"
)

type MissReason int

const (
	MissReasonNone MissReason = iota
	MissReasonError
	MissReasonInode
	MissReasonSize
	MissReasonModTime
	MissReasonFingerprint
	MissReasonNoFingerprint
	MissReasonNotFound
)

// DetectionEntry records what the parser layer learned about one log
// file: the detected format and the extracted time range. Caching it
// lets repeated scans and opens skip format detection and the tail scan.
type DetectionEntry struct {
	FilePath           string    `json:"filePath"`
	Format             string    `json:"format"`
	FirstEntry         time.Time `json:"firstEntry"`
	LastEntry          time.Time `json:"lastEntry"`
	FileSize           int64     `json:"fileSize"`
	LastModified       int64     `json:"lastModified"`
	Inode              uint64    `json:"inode"`
	ContentFingerprint string    `json:"content_fingerprint,omitempty"`
}

// TimeRange returns the cached entry span. Both ends are inclusive, the
// way the tail scan reports them.
func (e *DetectionEntry) TimeRange() model.TimeRange {
	return model.TimeRange{Start: e.FirstEntry, End: e.LastEntry}
}

type Result struct {
	Entry      *DetectionEntry
	Found      bool
	MissReason MissReason
}

// DetectionCache persists detection entries under a cache directory,
// one JSON file per log path, with a write-through memory layer.
type DetectionCache struct {
	baseDir     string
	mu          sync.Mutex
	memoryCache map[string]*DetectionEntry
}

func NewDetectionCache(baseDir string) (*DetectionCache, error) {
	if err := os.MkdirAll(baseDir, 0755); err != nil {
		return nil, err
	}

	return &DetectionCache{
		baseDir:     baseDir,
		memoryCache: make(map[string]*DetectionEntry),
	}, nil
}

// cacheKey names the on-disk cache file for a log path. Log file names
// repeat across machines, so the key hashes the whole path.
func cacheKey(filePath string) string {
	sum := md5.Sum([]byte(filePath))
	return hex.EncodeToString(sum[:])
}

// Get looks up the detection entry for a log path, checking the memory
// layer first and falling back to the cache file. Entries whose file
// has changed underneath them are dropped and reported as misses.
func (c *DetectionCache) Get(filePath string) Result {
	c.mu.Lock()
	defer c.mu.Unlock()

	key := cacheKey(filePath)

	if entry, exists := c.memoryCache[key]; exists {
		if v := c.validate(entry); v.valid {
			return Result{Entry: entry, Found: true, MissReason: MissReasonNone}
		}
		delete(c.memoryCache, key)
	}

	return c.getFromFile(key)
}

func (c *DetectionCache) getFromFile(key string) Result {
	cachePath := filepath.Join(c.baseDir, key+".json")

	file, err := os.Open(cachePath)
	if err != nil {
		return Result{Found: false, MissReason: MissReasonNotFound}
	}
	defer file.Close()

	var entry DetectionEntry
	if err := json.NewDecoder(file).Decode(&entry); err != nil {
		return Result{Found: false, MissReason: MissReasonError}
	}

	if v := c.validate(&entry); !v.valid {
		return Result{Found: false, MissReason: v.reason}
	}

	c.memoryCache[key] = &entry

	return Result{Entry: &entry, Found: true, MissReason: MissReasonNone}
}

type validateResult struct {
	valid  bool
	reason MissReason
}

func (c *DetectionCache) validate(entry *DetectionEntry) validateResult {
	currentInfo, err := util.GetFileInfo(entry.FilePath)
	if err != nil {
		util.LogDebug(fmt.Sprintf("Cache validation failed for %s: unable to get file info: %v", entry.FilePath, err))
		return validateResult{valid: false, reason: MissReasonError}
	}

	// Step 1: inode, size, and modtime must all match.
	if currentInfo.Inode != entry.Inode {
		util.LogDebug(fmt.Sprintf("Cache invalidated for %s: inode changed (cached: %d, current: %d)",
			entry.FilePath, entry.Inode, currentInfo.Inode))
		return validateResult{valid: false, reason: MissReasonInode}
	}
	if currentInfo.Size != entry.FileSize {
		util.LogDebug(fmt.Sprintf("Cache invalidated for %s: size changed (cached: %d, current: %d)",
			entry.FilePath, entry.FileSize, currentInfo.Size))
		return validateResult{valid: false, reason: MissReasonSize}
	}
	if currentInfo.ModTime != entry.LastModified {
		util.LogDebug(fmt.Sprintf("Cache invalidated for %s: modtime changed (cached: %d, current: %d)",
			entry.FilePath, entry.LastModified, currentInfo.ModTime))
		return validateResult{valid: false, reason: MissReasonModTime}
	}

	// Step 2: files untouched for two days skip the fingerprint check.
	modTime := time.Unix(currentInfo.ModTime, 0)
	if time.Since(modTime) > 48*time.Hour {
		return validateResult{valid: true, reason: MissReasonNone}
	}

	// Step 3: the head fingerprint catches in-place rewrites that kept
	// the metadata identical.
	if entry.ContentFingerprint == "" {
		util.LogDebug(fmt.Sprintf("Cache invalidated for %s: no fingerprint in cached entry", entry.FilePath))
		return validateResult{valid: false, reason: MissReasonNoFingerprint}
	}

	fingerprint, err := util.CalculateFileFingerprint(entry.FilePath)
	if err != nil {
		util.LogDebug(fmt.Sprintf("Cache invalidated for %s: unable to calculate fingerprint: %v", entry.FilePath, err))
		return validateResult{valid: false, reason: MissReasonNoFingerprint}
	}

	if fingerprint != entry.ContentFingerprint {
		util.LogDebug(fmt.Sprintf("Cache invalidated for %s: fingerprint mismatch (cached: %s, current: %s)",
			entry.FilePath, entry.ContentFingerprint, fingerprint))
		return validateResult{valid: false, reason: MissReasonFingerprint}
	}
	return validateResult{valid: true, reason: MissReasonNone}
}

// Set stamps the entry with the log file's current metadata and
// fingerprint, then writes it through to disk and memory.
func (c *DetectionCache) Set(filePath string, entry *DetectionEntry) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	fileInfo, err := util.GetFileInfo(filePath)
	if err != nil {
		return err
	}

	entry.FilePath = filePath
	entry.LastModified = fileInfo.ModTime
	entry.FileSize = fileInfo.Size
	entry.Inode = fileInfo.Inode

	fingerprint, err := util.CalculateFileFingerprint(filePath)
	if err == nil {
		entry.ContentFingerprint = fingerprint
	}

	key := cacheKey(filePath)
	cachePath := filepath.Join(c.baseDir, key+".json")
	file, err := os.Create(cachePath)
	if err != nil {
		return err
	}
	defer file.Close()

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(entry); err != nil {
		return err
	}

	c.memoryCache[key] = entry

	return nil
}

// Clear drops the memory layer and removes every cache file.
func (c *DetectionCache) Clear() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.memoryCache = make(map[string]*DetectionEntry)

	return filepath.Walk(c.baseDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		if !info.IsDir() && filepath.Ext(path) == ".json" {
			os.Remove(path)
		}

		return nil
	})
}

// Preload reads every cache file into the memory layer so the first
// scan after startup skips per-file disk reads. Stale and unreadable
// entries are skipped.
func (c *DetectionCache) Preload() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var cacheFiles []string
	err := filepath.Walk(c.baseDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() && strings.HasSuffix(strings.ToLower(path), ".json") {
			cacheFiles = append(cacheFiles, path)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to scan cache directory: %w", err)
	}

	loaded := 0
	for _, path := range cacheFiles {
		entry, err := readEntry(path)
		if err != nil {
			util.LogDebug(fmt.Sprintf("Skipping unreadable cache file %s: %v", path, err))
			continue
		}
		if v := c.validate(entry); !v.valid {
			continue
		}
		c.memoryCache[cacheKey(entry.FilePath)] = entry
		loaded++
	}

	util.LogDebug(fmt.Sprintf("Preloaded %d of %d detection cache files", loaded, len(cacheFiles)))
	return nil
}

func readEntry(path string) (*DetectionEntry, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var entry DetectionEntry
	if err := json.NewDecoder(file).Decode(&entry); err != nil {
		return nil, err
	}
	return &entry, nil
}
