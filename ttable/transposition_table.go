// Package ttable memoizes leaf evaluations by position fingerprint.
//
// Entries are not qualified by the remaining depth or turn budget they
// were computed under. A leaf scored with few turns left is reused as-is
// when a deeper search reaches the same position with more turns left.
// Search results depend on this, so it is kept.
package ttable

import (
	"sync"
	"sync/atomic"

	"github.com/pbnjay/memory"
	"github.com/rs/zerolog/log"
)

// rough per-entry footprint of a Go map[uint64]float64, buckets included.
const entrySize = 40

type TableLock interface {
	Lock()
	Unlock()
	RLock()
	RUnlock()
}

type FakeLock struct{}

func (f FakeLock) Lock()    {}
func (f FakeLock) Unlock()  {}
func (f FakeLock) RLock()   {}
func (f FakeLock) RUnlock() {}

type TranspositionTable struct {
	TableLock
	table map[uint64]float64
	// 0 means no limit.
	maxEntries int

	created atomic.Uint64
	lookups atomic.Uint64
	hits    atomic.Uint64
	// puts refused because the table was full.
	dropped atomic.Uint64
}

type Stats struct {
	Entries int
	Created uint64
	Lookups uint64
	Hits    uint64
	Dropped uint64
}

// New returns an empty, unbounded table in single-threaded mode.
func New() *TranspositionTable {
	t := &TranspositionTable{table: make(map[uint64]float64)}
	t.SetSingleThreadedMode()
	return t
}

// SetSingleThreadedMode drops locking. Only one goroutine may then use
// the table at a time; the search engine guarantees that for its worker.
func (t *TranspositionTable) SetSingleThreadedMode() {
	t.TableLock = &FakeLock{}
}

func (t *TranspositionTable) SetMultiThreadedMode() {
	t.TableLock = new(sync.RWMutex)
}

// Reset empties the table and caps it at fractionOfMemory of the
// machine's total memory. A fraction of 0 removes the cap.
func (t *TranspositionTable) Reset(fractionOfMemory float64) {
	t.Lock()
	defer t.Unlock()
	t.maxEntries = 0
	if fractionOfMemory > 0 {
		totalMem := memory.TotalMemory()
		t.maxEntries = int(fractionOfMemory * float64(totalMem) / entrySize)
	}
	t.table = make(map[uint64]float64)
	t.created.Store(0)
	t.lookups.Store(0)
	t.hits.Store(0)
	t.dropped.Store(0)
	log.Info().Int("max-entries", t.maxEntries).
		Float64("fraction-of-memory", fractionOfMemory).
		Msg("transposition-table-size")
}

// SetMaxEntries caps the number of stored entries directly.
func (t *TranspositionTable) SetMaxEntries(n int) {
	t.Lock()
	defer t.Unlock()
	t.maxEntries = n
}

func (t *TranspositionTable) Get(key uint64) (float64, bool) {
	t.RLock()
	defer t.RUnlock()
	t.lookups.Add(1)
	v, ok := t.table[key]
	if ok {
		t.hits.Add(1)
	}
	return v, ok
}

// Put stores a leaf score. When the table is full, new keys are dropped
// and existing keys are still overwritten.
func (t *TranspositionTable) Put(key uint64, score float64) {
	t.Lock()
	defer t.Unlock()
	if _, exists := t.table[key]; !exists && t.maxEntries > 0 && len(t.table) >= t.maxEntries {
		t.dropped.Add(1)
		return
	}
	t.table[key] = score
	t.created.Add(1)
}

func (t *TranspositionTable) Len() int {
	t.RLock()
	defer t.RUnlock()
	return len(t.table)
}

// Range calls fn for every entry until fn returns false. The order is
// unspecified.
func (t *TranspositionTable) Range(fn func(key uint64, score float64) bool) {
	t.RLock()
	defer t.RUnlock()
	for k, v := range t.table {
		if !fn(k, v) {
			return
		}
	}
}

func (t *TranspositionTable) Stats() Stats {
	return Stats{
		Entries: t.Len(),
		Created: t.created.Load(),
		Lookups: t.lookups.Load(),
		Hits:    t.hits.Load(),
		Dropped: t.dropped.Load(),
	}
}

// HitRate is hits over lookups, or 0 before any lookup.
func (s Stats) HitRate() float64 {
	if s.Lookups == 0 {
		return 0
	}
	return float64(s.Hits) / float64(s.Lookups)
}
