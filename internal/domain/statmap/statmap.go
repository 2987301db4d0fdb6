// Package statmap provides a named-counter accumulator with default-value
// reads and chained increments. A statistic key may declare parent keys;
// incrementing the key also increments every parent, so squad-scoped
// statistics roll up into their unscoped counterparts.
package statmap

import "sort"

// ChainFunc returns the parent keys that must also receive an increment
// applied to key. A nil or empty result means the key stands alone.
type ChainFunc func(key string) []string

// Option applies a configuration option to the StatMap.
type Option func(*StatMap)

// WithChain installs the compound-key table consulted at increment time.
func WithChain(chain ChainFunc) Option {
	return func(m *StatMap) {
		if chain != nil {
			m.chain = chain
		}
	}
}

// StatMap maps statistic keys to numeric accumulators. Insertion order is
// irrelevant. The zero value is not usable; construct with New.
//
// StatMap is not safe for concurrent use; callers serialize access the same
// way they serialize the player record that owns it.
type StatMap struct {
	stats map[string]float64
	chain ChainFunc
}

// New creates an empty StatMap.
func New(opts ...Option) *StatMap {
	m := &StatMap{
		stats: make(map[string]float64),
	}

	for _, opt := range opts {
		opt(m)
	}

	return m
}

// Get returns the accumulator for key, or def when the key is absent.
func (m *StatMap) Get(key string, def float64) float64 {
	if v, ok := m.stats[key]; ok {
		return v
	}
	return def
}

// Set stores value under key without consulting the chain table.
func (m *StatMap) Set(key string, value float64) {
	m.stats[key] = value
}

// Increment adds 1 to key and to every parent key in its chain.
func (m *StatMap) Increment(key string) {
	m.IncrementBy(key, 1)
}

// IncrementBy adds amount to key and to every parent key in its chain.
func (m *StatMap) IncrementBy(key string, amount float64) {
	m.stats[key] += amount

	if m.chain == nil {
		return
	}
	for _, parent := range m.chain(key) {
		m.stats[parent] += amount
	}
}

// Len returns the number of distinct keys.
func (m *StatMap) Len() int {
	return len(m.stats)
}

// Keys returns all keys in sorted order.
func (m *StatMap) Keys() []string {
	keys := make([]string, 0, len(m.stats))
	for k := range m.stats {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Each calls fn for every key/value pair. Iteration order is unspecified.
func (m *StatMap) Each(fn func(key string, value float64)) {
	for k, v := range m.stats {
		fn(k, v)
	}
}

// Clone returns an independent copy sharing the chain table.
func (m *StatMap) Clone() *StatMap {
	out := &StatMap{
		stats: make(map[string]float64, len(m.stats)),
		chain: m.chain,
	}
	for k, v := range m.stats {
		out.stats[k] = v
	}
	return out
}

// Snapshot returns a copy of the underlying map.
func (m *StatMap) Snapshot() map[string]float64 {
	out := make(map[string]float64, len(m.stats))
	for k, v := range m.stats {
		out[k] = v
	}
	return out
}

// Reset drops all accumulated values.
func (m *StatMap) Reset() {
	m.stats = make(map[string]float64)
}
