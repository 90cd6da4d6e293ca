// Package cardinality provides fixed-memory distinct counting and
// membership tracking for span telemetry.
package cardinality

import (
	"sync"

	"github.com/axiomhq/hyperloglog"
	"github.com/bits-and-blooms/bloom/v3"
)

// Tracker tracks approximate distinct elements.
type Tracker interface {
	// Add records an element. Returns true if the element was probably not
	// seen before (trackers without membership support always return true).
	Add(key []byte) bool
	// Count returns the estimated number of distinct elements.
	Count() int64
	// Reset clears the tracker for a new window.
	Reset()
}

// HLLTracker estimates distinct counts with HyperLogLog in ~12KB regardless
// of cardinality. It cannot answer membership queries: Add always reports
// the element as new.
type HLLTracker struct {
	mu     sync.Mutex
	sketch *hyperloglog.Sketch
}

// NewHLL creates a HyperLogLog-based tracker.
func NewHLL() *HLLTracker {
	return &HLLTracker{sketch: hyperloglog.New()}
}

// Add inserts an element into the sketch.
func (t *HLLTracker) Add(key []byte) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.sketch.Insert(key)
	return true
}

// Count returns the estimated distinct count. Takes the full lock because
// Estimate may mutate internal state (sparse to dense promotion).
func (t *HLLTracker) Count() int64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return int64(t.sketch.Estimate())
}

// Reset replaces the sketch.
func (t *HLLTracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.sketch = hyperloglog.New()
}

// BloomTracker answers "have I probably seen this before" with a bloom
// filter and keeps an exact count of first sightings. False positives
// undercount; there are no false negatives.
type BloomTracker struct {
	mu       sync.Mutex
	filter   *bloom.BloomFilter
	capacity uint
	fpRate   float64
	distinct int64
}

// NewBloom creates a bloom-filter-based tracker sized for the expected
// number of distinct elements at the given false-positive rate.
func NewBloom(expected uint, fpRate float64) *BloomTracker {
	return &BloomTracker{
		filter:   bloom.NewWithEstimates(expected, fpRate),
		capacity: expected,
		fpRate:   fpRate,
	}
}

// Add records an element. Returns true if it was not seen before.
func (t *BloomTracker) Add(key []byte) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.filter.TestAndAdd(key) {
		return false
	}
	t.distinct++
	return true
}

// Count returns the number of first sightings recorded.
func (t *BloomTracker) Count() int64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.distinct
}

// Reset clears the filter and the count.
func (t *BloomTracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.filter = bloom.NewWithEstimates(t.capacity, t.fpRate)
	t.distinct = 0
}
