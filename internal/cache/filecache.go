// Package cache provides the two independent on-disk caches that
// accelerate repeat review runs: a content-hash-keyed per-file
// rule-finding cache, and a TTL-keyed reverse-dependency-graph cache.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/sindudeva/revguard/internal/model"
)

var sanitizeReplacer = strings.NewReplacer("/", "_", "\\", "_", ":", "_", ".", "_")

func sanitizePath(path string) string {
	return sanitizeReplacer.Replace(path)
}

// FileCache is the per-file rule-finding cache keyed by (normalized path,
// SHA-256 of file bytes), with an in-memory tier backed by on-disk JSON
// finding files and sibling hash sidecars.
type FileCache struct {
	dir string
	mu  sync.Mutex
	mem map[string]cacheEntry

	hits, misses int64
}

type cacheEntry struct {
	hash     string
	findings []model.Finding
}

// Open returns a FileCache rooted at cacheDir, creating the
// pmd-results/ and file-hashes/ subdirectories if they don't exist.
func Open(cacheDir string) (*FileCache, error) {
	if err := os.MkdirAll(filepath.Join(cacheDir, "pmd-results"), 0o755); err != nil {
		return nil, fmt.Errorf("create pmd-results dir: %w", err)
	}
	if err := os.MkdirAll(filepath.Join(cacheDir, "file-hashes"), 0o755); err != nil {
		return nil, fmt.Errorf("create file-hashes dir: %w", err)
	}
	return &FileCache{dir: cacheDir, mem: make(map[string]cacheEntry)}, nil
}

// HashBytes returns the hex-encoded SHA-256 of content, the value stored
// in the hash sidecar and compared against on every lookup.
func HashBytes(content []byte) string {
	sum := sha256.Sum256(content)
	return hex.EncodeToString(sum[:])
}

func (c *FileCache) resultsPath(path string) string {
	return filepath.Join(c.dir, "pmd-results", sanitizePath(path)+".json")
}

func (c *FileCache) hashPath(path string) string {
	return filepath.Join(c.dir, "file-hashes", sanitizePath(path)+".hash")
}

// Get looks up findings for path given the current file hash. Lookup
// order: memory (discarded on hash mismatch) → disk (discarded on hash
// mismatch, hydrating memory on a disk hit) → miss.
func (c *FileCache) Get(path, hash string) ([]model.Finding, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if entry, ok := c.mem[path]; ok {
		if entry.hash == hash {
			c.hits++
			return entry.findings, true
		}
		delete(c.mem, path)
	}

	storedHash, err := os.ReadFile(c.hashPath(path))
	if err != nil || strings.TrimSpace(string(storedHash)) != hash {
		c.misses++
		return nil, false
	}

	raw, err := os.ReadFile(c.resultsPath(path))
	if err != nil {
		c.misses++
		return nil, false
	}
	var findings []model.Finding
	if err := json.Unmarshal(raw, &findings); err != nil {
		c.misses++
		return nil, false
	}

	c.mem[path] = cacheEntry{hash: hash, findings: findings}
	c.hits++
	return findings, true
}

// Put writes findings for path under hash to both tiers.
func (c *FileCache) Put(path, hash string, findings []model.Finding) error {
	c.mu.Lock()
	c.mem[path] = cacheEntry{hash: hash, findings: findings}
	c.mu.Unlock()

	raw, err := json.Marshal(findings)
	if err != nil {
		return fmt.Errorf("marshal findings for %s: %w", path, err)
	}
	if err := os.WriteFile(c.resultsPath(path), raw, 0o644); err != nil {
		return fmt.Errorf("write cache results for %s: %w", path, err)
	}
	if err := os.WriteFile(c.hashPath(path), []byte(hash), 0o644); err != nil {
		return fmt.Errorf("write cache hash for %s: %w", path, err)
	}
	return nil
}

// Invalidate drops both on-disk files and the in-memory entry for path.
func (c *FileCache) Invalidate(path string) {
	c.mu.Lock()
	delete(c.mem, path)
	c.mu.Unlock()
	os.Remove(c.resultsPath(path))
	os.Remove(c.hashPath(path))
}

// SweepTTL deletes cached result/hash files whose modification time is
// older than maxAge, returning the number of entries removed.
func (c *FileCache) SweepTTL(maxAge time.Duration) (int, error) {
	resultsDir := filepath.Join(c.dir, "pmd-results")
	entries, err := os.ReadDir(resultsDir)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("read pmd-results dir: %w", err)
	}

	removed := 0
	cutoff := time.Now().Add(-maxAge)
	for _, e := range entries {
		info, err := e.Info()
		if err != nil || info.ModTime().After(cutoff) {
			continue
		}
		base := strings.TrimSuffix(e.Name(), ".json")
		os.Remove(filepath.Join(resultsDir, e.Name()))
		os.Remove(filepath.Join(c.dir, "file-hashes", base+".hash"))
		removed++
	}
	return removed, nil
}

// Stats are the hit/miss counters the "cache stats" surface reports.
type Stats struct {
	Hits          int64
	Misses        int64
	TotalCached   int
	HitRatePercent float64
}

// GetStats returns the current counters plus a fresh count of cached
// files on disk.
func (c *FileCache) GetStats() Stats {
	c.mu.Lock()
	hits, misses := c.hits, c.misses
	c.mu.Unlock()

	total := 0
	if entries, err := os.ReadDir(filepath.Join(c.dir, "pmd-results")); err == nil {
		total = len(entries)
	}

	rate := 0.0
	if hits+misses > 0 {
		rate = float64(hits) / float64(hits+misses) * 100
	}
	return Stats{Hits: hits, Misses: misses, TotalCached: total, HitRatePercent: rate}
}

// Clear removes every cached file and resets the in-memory tier and
// counters, the backing implementation for "revguard cache clear".
func (c *FileCache) Clear() error {
	c.mu.Lock()
	c.mem = make(map[string]cacheEntry)
	c.hits, c.misses = 0, 0
	c.mu.Unlock()

	for _, sub := range []string{"pmd-results", "file-hashes"} {
		dir := filepath.Join(c.dir, sub)
		entries, err := os.ReadDir(dir)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return fmt.Errorf("read %s: %w", sub, err)
		}
		for _, e := range entries {
			if err := os.Remove(filepath.Join(dir, e.Name())); err != nil {
				return fmt.Errorf("remove %s: %w", filepath.Join(sub, e.Name()), err)
			}
		}
	}
	return nil
}
