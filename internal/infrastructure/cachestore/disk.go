package cachestore

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/endemicgrants/grant-discovery/internal/core/domain/cache"
)

// The disk tier stores one JSON record per entry under
// <dir>/<cache_type>/<md5(fullKey)>.json. Records embed their own type,
// expiry and metadata, so the tier survives process restarts and can be
// rebuilt by directory scan.

func (m *Manager) entryPath(full string, t cache.Type) string {
	return filepath.Join(m.dir, string(t), hashKey(full)+".json")
}

func (m *Manager) saveToDisk(full string, entry *cache.Entry) {
	raw, err := json.Marshal(entry)
	if err != nil {
		m.logger.WithError(err).WithField("key", entry.Key).Warn("failed to encode cache entry for disk")
		return
	}
	if err := os.WriteFile(m.entryPath(full, entry.Type), raw, 0o644); err != nil {
		m.logger.WithError(err).WithField("key", entry.Key).Warn("failed to save cache entry to disk")
		return
	}
	m.mu.Lock()
	m.stats.diskWrites++
	m.mu.Unlock()
}

func (m *Manager) loadFromDisk(full string, t cache.Type) (*cache.Entry, bool) {
	raw, err := os.ReadFile(m.entryPath(full, t))
	if err != nil {
		if !os.IsNotExist(err) {
			m.logger.WithError(err).Warn("failed to read cache entry from disk")
		}
		return nil, false
	}

	var entry cache.Entry
	if err := json.Unmarshal(raw, &entry); err != nil {
		m.logger.WithError(err).Warn("corrupt cache entry on disk, treating as miss")
		return nil, false
	}

	m.mu.Lock()
	m.stats.diskReads++
	m.mu.Unlock()
	return &entry, true
}

func (m *Manager) removeFromDisk(full string, t cache.Type) {
	if err := os.Remove(m.entryPath(full, t)); err != nil && !os.IsNotExist(err) {
		m.logger.WithError(err).Warn("failed to remove cache entry from disk")
	}
}

func (m *Manager) clearTypeDir(t cache.Type) {
	files, err := filepath.Glob(filepath.Join(m.dir, string(t), "*.json"))
	if err != nil {
		return
	}
	for _, f := range files {
		if err := os.Remove(f); err != nil && !os.IsNotExist(err) {
			m.logger.WithError(err).WithField("file", f).Warn("failed to remove cache file")
		}
	}
}

// cleanupDisk removes expired records from every namespace; maxAgeHours > 0
// also removes records whose CreatedAt is older than that, matching the
// memory sweep.
func (m *Manager) cleanupDisk(maxAgeHours float64) {
	now := m.now()
	var cutoff time.Time
	if maxAgeHours > 0 {
		cutoff = now.Add(-time.Duration(maxAgeHours * float64(time.Hour)))
	}
	for _, t := range cache.Types() {
		files, err := filepath.Glob(filepath.Join(m.dir, string(t), "*.json"))
		if err != nil {
			continue
		}
		for _, f := range files {
			raw, err := os.ReadFile(f)
			if err != nil {
				continue
			}
			var entry cache.Entry
			if err := json.Unmarshal(raw, &entry); err != nil {
				// Unreadable records are junk either way.
				m.removeFile(f)
				continue
			}
			if entry.IsExpired(now) || (maxAgeHours > 0 && entry.CreatedAt.Before(cutoff)) {
				m.removeFile(f)
			}
		}
	}
}

func (m *Manager) removeFile(path string) {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		m.logger.WithError(err).WithField("file", path).Warn("error during disk cleanup")
	}
}

func (m *Manager) diskUsageBytes() int64 {
	var total int64
	for _, t := range cache.Types() {
		files, err := filepath.Glob(filepath.Join(m.dir, string(t), "*.json"))
		if err != nil {
			continue
		}
		for _, f := range files {
			if info, err := os.Stat(f); err == nil {
				total += info.Size()
			}
		}
	}
	return total
}

func (m *Manager) countByType() map[string]int {
	counts := make(map[string]int, len(cache.Types()))
	for _, t := range cache.Types() {
		files, err := filepath.Glob(filepath.Join(m.dir, string(t), "*.json"))
		if err != nil {
			counts[string(t)] = 0
			continue
		}
		counts[string(t)] = len(files)
	}
	return counts
}
