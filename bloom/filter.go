// Package bloom provides a negative-lookup filter over cached request keys.
package bloom

import (
	"sync"

	"github.com/bits-and-blooms/bloom/v3"
)

// Filter wraps a Bloom filter of cache keys. A negative Test means the key
// is definitely not cached, so the storage lookup can be skipped.
// Safe for concurrent use.
type Filter struct {
	mu     sync.RWMutex
	f      *bloom.BloomFilter
	n      uint
	fpRate float64
}

// NewFilter creates a new Bloom filter sized for n expected keys
// with the given false positive rate.
func NewFilter(n uint, fpRate float64) *Filter {
	return &Filter{
		f:      bloom.NewWithEstimates(n, fpRate),
		n:      n,
		fpRate: fpRate,
	}
}

// Add adds a key to the filter.
func (f *Filter) Add(key string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.f.AddString(key)
}

// Test returns true if the key might be in the filter.
// False positives are possible; false negatives are not.
func (f *Filter) Test(key string) bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.f.TestString(key)
}

// Reset replaces the filter contents with keys.
func (f *Filter) Reset(keys []string) {
	n := f.n
	if uint(len(keys)) > n {
		n = uint(len(keys))
	}
	nf := bloom.NewWithEstimates(n, f.fpRate)
	for _, k := range keys {
		nf.AddString(k)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.f = nf
}

// EstimatedCount returns the approximate number of keys in the filter.
func (f *Filter) EstimatedCount() uint {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return uint(f.f.ApproximatedSize())
}
