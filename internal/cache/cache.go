package cache

import (
	"log/slog"
	"sync"
	"time"
)

// Cache is the subset of LRUCache the services depend on.
type Cache[T any] interface {
	Get(key string) (T, bool)
	Set(key string, data T)
	Delete(key string)
	Purge() int
	Size() int
}

// Store is implemented by every LRUCache regardless of its value type.
type Store interface {
	CleanExpired() int
	Purge() int
	Stats() Stats
}

// Manager owns a set of caches: it expires entries periodically and purges
// all of them on demand, e.g. after a write.
type Manager struct {
	mu      sync.Mutex
	caches  map[string]Store
	stop    chan struct{}
	done    chan struct{}
	started bool
}

func NewManager() *Manager {
	return &Manager{
		caches: make(map[string]Store),
		stop:   make(chan struct{}),
		done:   make(chan struct{}),
	}
}

func (m *Manager) Register(name string, c Store) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.caches[name] = c
}

// PurgeAll empties every registered cache and returns the number of dropped entries.
func (m *Manager) PurgeAll() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	total := 0
	for _, c := range m.caches {
		total += c.Purge()
	}
	return total
}

// Stats returns a usage snapshot of every registered cache keyed by name.
func (m *Manager) Stats() map[string]Stats {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]Stats, len(m.caches))
	for name, c := range m.caches {
		out[name] = c.Stats()
	}
	return out
}

func (m *Manager) cleanExpired() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	total := 0
	for _, c := range m.caches {
		total += c.CleanExpired()
	}
	return total
}

// StartCleanup begins periodic expiry of all registered caches.
func (m *Manager) StartCleanup(interval time.Duration) {
	m.mu.Lock()
	if m.started {
		m.mu.Unlock()
		return
	}
	m.started = true
	m.mu.Unlock()
	go m.cleanup(interval)
}

func (m *Manager) cleanup(interval time.Duration) {
	defer close(m.done)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if n := m.cleanExpired(); n > 0 {
				slog.Debug("Expired cache entries removed", "component", "cache", "count", n)
			}
		case <-m.stop:
			return
		}
	}
}

// Stop ends the cleanup goroutine if it was started.
func (m *Manager) Stop() {
	m.mu.Lock()
	started := m.started
	m.mu.Unlock()
	if !started {
		return
	}
	select {
	case <-m.stop:
		return
	default:
		close(m.stop)
	}
	<-m.done
}
