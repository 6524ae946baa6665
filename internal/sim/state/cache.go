package state

import (
	"sync"

	"github.com/signalsfoundry/burial-clock/model"
)

const defaultScenarioCacheSize = 64

// ScenarioCache memoises generated scenarios keyed by their sanitised
// settings. Entries are evicted in insertion order once the cache is full.
// Scenarios are immutable, so cached pointers are shared with callers.
type ScenarioCache struct {
	mu       sync.RWMutex
	entries  map[model.Settings]*model.Scenario
	order    []model.Settings
	capacity int
	hits     int64
	misses   int64
	invalids int64
}

// NewScenarioCache creates a cache holding at most capacity scenarios;
// a negative capacity uses a default and zero disables caching.
func NewScenarioCache(capacity int) *ScenarioCache {
	if capacity < 0 {
		capacity = defaultScenarioCacheSize
	}
	return &ScenarioCache{
		entries:  make(map[model.Settings]*model.Scenario),
		capacity: capacity,
	}
}

func (c *ScenarioCache) Capacity() int {
	if c == nil {
		return 0
	}
	return c.capacity
}

func (c *ScenarioCache) Len() int {
	if c == nil {
		return 0
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

func (c *ScenarioCache) Get(s model.Settings) (*model.Scenario, bool) {
	if c == nil {
		return nil, false
	}
	c.mu.RLock()
	sc, ok := c.entries[s]
	c.mu.RUnlock()
	if !ok {
		c.recordMiss()
		return nil, false
	}
	c.recordHit()
	return sc, true
}

func (c *ScenarioCache) Put(s model.Settings, sc *model.Scenario) {
	if c == nil || sc == nil || c.capacity == 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.entries[s]; ok {
		c.entries[s] = sc
		return
	}
	for len(c.order) >= c.capacity {
		oldest := c.order[0]
		c.order = c.order[1:]
		delete(c.entries, oldest)
	}
	c.entries[s] = sc
	c.order = append(c.order, s)
}

func (c *ScenarioCache) InvalidateAll() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.entries = make(map[model.Settings]*model.Scenario)
	c.order = nil
	c.invalids++
	c.mu.Unlock()
}

func (c *ScenarioCache) Stats() (hits, misses, invalids int64) {
	if c == nil {
		return 0, 0, 0
	}
	c.mu.RLock()
	hits, misses, invalids = c.hits, c.misses, c.invalids
	c.mu.RUnlock()
	return
}

func (c *ScenarioCache) recordHit() {
	c.mu.Lock()
	c.hits++
	c.mu.Unlock()
}

func (c *ScenarioCache) recordMiss() {
	c.mu.Lock()
	c.misses++
	c.mu.Unlock()
}
