package cachestore

import (
	"container/list"
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/endemicgrants/grant-discovery/internal/core/domain/cache"
	"github.com/endemicgrants/grant-discovery/internal/core/ports"
)

// Manager is the two-tier cache store: a bounded in-memory LRU tier in front
// of a disk tier that persists entries as self-describing JSON records, one
// subdirectory per cache type. Disk failures degrade to misses or dropped
// writes; they never reach callers.
type Manager struct {
	dir             string
	memoryCacheSize int
	defaultTTLHours float64
	logger          *logrus.Logger
	now             func() time.Time

	mu      sync.Mutex
	entries map[string]*list.Element
	lru     *list.List // front = most recently used
	stats   counters
}

type counters struct {
	memoryHits int64
	diskHits   int64
	misses     int64
	evictions  int64
	diskWrites int64
	diskReads  int64
}

// Options configures a Manager. Zero values fall back to defaults
// (100 memory entries, 24h TTL, wall clock).
type Options struct {
	Dir             string
	MemoryCacheSize int
	DefaultTTLHours float64
	Clock           func() time.Time
}

// NewManager creates the cache directory tree and sweeps expired disk
// entries left over from previous runs.
func NewManager(opts Options, logger *logrus.Logger) (*Manager, error) {
	if opts.Dir == "" {
		opts.Dir = os.Getenv("CACHE_DIR")
		if opts.Dir == "" {
			opts.Dir = "/tmp/grant_discovery_cache"
		}
	}
	if opts.MemoryCacheSize <= 0 {
		opts.MemoryCacheSize = 100
	}
	if opts.DefaultTTLHours == 0 {
		opts.DefaultTTLHours = 24
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}

	for _, t := range cache.Types() {
		if err := os.MkdirAll(filepath.Join(opts.Dir, string(t)), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create cache directory: %w", err)
		}
	}

	m := &Manager{
		dir:             opts.Dir,
		memoryCacheSize: opts.MemoryCacheSize,
		defaultTTLHours: opts.DefaultTTLHours,
		logger:          logger,
		now:             opts.Clock,
		entries:         make(map[string]*list.Element),
		lru:             list.New(),
	}

	m.logger.WithField("dir", m.dir).Info("Initialized cache store")
	m.cleanupDisk(0)

	return m, nil
}

// Get returns the cached payload for key, or ok=false when absent or
// expired. Observing an expired entry purges it from both tiers.
func (m *Manager) Get(key string, t cache.Type) (json.RawMessage, bool) {
	full := cache.FullKey(key, t)
	now := m.now()

	m.mu.Lock()
	if el, ok := m.entries[full]; ok {
		entry := el.Value.(*cache.Entry)
		if entry.IsExpired(now) {
			m.lru.Remove(el)
			delete(m.entries, full)
			m.stats.misses++
			m.mu.Unlock()
			m.removeFromDisk(full, t)
			return nil, false
		}
		m.lru.MoveToFront(el)
		entry.Touch(now)
		m.stats.memoryHits++
		data := entry.Data
		m.mu.Unlock()
		cacheHitsTotal.WithLabelValues("memory").Inc()
		m.logger.WithField("key", key).Debug("memory cache hit")
		return data, true
	}
	m.mu.Unlock()

	entry, ok := m.loadFromDisk(full, t)
	if !ok {
		m.countMiss()
		return nil, false
	}
	if entry.IsExpired(now) {
		m.removeFromDisk(full, t)
		m.countMiss()
		return nil, false
	}

	entry.Touch(now)
	m.mu.Lock()
	m.addToMemoryLocked(full, entry)
	m.stats.diskHits++
	m.mu.Unlock()
	cacheHitsTotal.WithLabelValues("disk").Inc()
	m.logger.WithField("key", key).Debug("disk cache hit")
	return entry.Data, true
}

// Set stores data under key in both tiers. ttlHours <= 0 means the entry
// never expires. Marshal or disk failures drop the write with a warning.
func (m *Manager) Set(key string, data any, t cache.Type, ttlHours float64, metadata map[string]string) {
	raw, err := json.Marshal(data)
	if err != nil {
		m.logger.WithError(err).WithField("key", key).Warn("failed to encode cache entry")
		return
	}

	now := m.now()
	var expiresAt *time.Time
	if ttlHours > 0 {
		exp := now.Add(time.Duration(ttlHours * float64(time.Hour)))
		expiresAt = &exp
	}

	entry := &cache.Entry{
		Key:       key,
		Data:      raw,
		Type:      t,
		CreatedAt: now,
		ExpiresAt: expiresAt,
		Metadata:  metadata,
	}

	full := cache.FullKey(key, t)
	m.mu.Lock()
	m.addToMemoryLocked(full, entry)
	m.mu.Unlock()
	m.saveToDisk(full, entry)

	m.logger.WithFields(logrus.Fields{"key": key, "ttl_hours": ttlHours}).Debug("cached entry")
}

// Delete removes key from both tiers; absence is not an error.
func (m *Manager) Delete(key string, t cache.Type) {
	full := cache.FullKey(key, t)
	m.mu.Lock()
	if el, ok := m.entries[full]; ok {
		m.lru.Remove(el)
		delete(m.entries, full)
	}
	m.mu.Unlock()
	m.removeFromDisk(full, t)
}

// Clear purges one namespace from both tiers.
func (m *Manager) Clear(t cache.Type) {
	m.mu.Lock()
	for full, el := range m.entries {
		if el.Value.(*cache.Entry).Type == t {
			m.lru.Remove(el)
			delete(m.entries, full)
		}
	}
	m.mu.Unlock()
	m.clearTypeDir(t)
	m.logger.WithField("cache_type", string(t)).Info("cleared cache namespace")
}

// ClearAll purges every namespace from both tiers.
func (m *Manager) ClearAll() {
	m.mu.Lock()
	m.entries = make(map[string]*list.Element)
	m.lru.Init()
	m.mu.Unlock()
	for _, t := range cache.Types() {
		m.clearTypeDir(t)
	}
	m.logger.Info("cleared all cache")
}

// Cleanup sweeps both tiers for expired entries. maxAgeHours > 0 also
// removes entries older than that regardless of their TTL.
func (m *Manager) Cleanup(maxAgeHours float64) {
	now := m.now()

	m.mu.Lock()
	for full, el := range m.entries {
		entry := el.Value.(*cache.Entry)
		remove := entry.IsExpired(now)
		if !remove && maxAgeHours > 0 {
			remove = entry.CreatedAt.Before(now.Add(-time.Duration(maxAgeHours * float64(time.Hour))))
		}
		if remove {
			m.lru.Remove(el)
			delete(m.entries, full)
		}
	}
	m.mu.Unlock()

	m.cleanupDisk(maxAgeHours)
	m.logger.Info("cache cleanup completed")
}

// Stats returns a snapshot of the store's counters.
func (m *Manager) Stats() ports.CacheStats {
	m.mu.Lock()
	s := ports.CacheStats{
		MemoryHits:      m.stats.memoryHits,
		DiskHits:        m.stats.diskHits,
		Misses:          m.stats.misses,
		Evictions:       m.stats.evictions,
		DiskWrites:      m.stats.diskWrites,
		DiskReads:       m.stats.diskReads,
		MemoryCacheSize: m.lru.Len(),
	}
	m.mu.Unlock()

	s.TotalRequests = s.MemoryHits + s.DiskHits + s.Misses
	if s.TotalRequests > 0 {
		s.HitRate = float64(s.MemoryHits+s.DiskHits) / float64(s.TotalRequests)
	}
	s.DiskUsageMB = float64(m.diskUsageBytes()) / (1024 * 1024)
	s.CacheTypes = m.countByType()
	return s
}

func (m *Manager) countMiss() {
	m.mu.Lock()
	m.stats.misses++
	m.mu.Unlock()
	cacheMissesTotal.Inc()
}

// addToMemoryLocked inserts entry at the most-recent position, evicting from
// the least-recent end while over capacity. Eviction does not touch the disk
// copy. Caller holds m.mu.
func (m *Manager) addToMemoryLocked(full string, entry *cache.Entry) {
	if el, ok := m.entries[full]; ok {
		m.lru.Remove(el)
		delete(m.entries, full)
	}
	m.entries[full] = m.lru.PushFront(entry)
	for m.lru.Len() > m.memoryCacheSize {
		oldest := m.lru.Back()
		m.lru.Remove(oldest)
		delete(m.entries, cache.FullKey(oldest.Value.(*cache.Entry).Key, oldest.Value.(*cache.Entry).Type))
		m.stats.evictions++
		cacheEvictionsTotal.Inc()
	}
}

// hashKey turns a full cache key into a filesystem-safe fixed-length name.
func hashKey(full string) string {
	sum := md5.Sum([]byte(full))
	return hex.EncodeToString(sum[:])
}

var _ ports.CacheStore = (*Manager)(nil)
