package bloom_test

import (
	"fmt"
	"sync"
	"testing"

	"github.com/fwojciec/mtgrules/bloom"
	"github.com/stretchr/testify/assert"
)

func TestFilter_AddAndTest(t *testing.T) {
	t.Parallel()

	f := bloom.NewFilter(100, 0.01)

	assert.False(t, f.Test("https://example.com/mtg-rules/rules.json"))

	f.Add("https://example.com/mtg-rules/rules.json")

	assert.True(t, f.Test("https://example.com/mtg-rules/rules.json"))
	assert.False(t, f.Test("https://example.com/mtg-rules/glossary.json"))
}

func TestFilter_Reset(t *testing.T) {
	t.Parallel()

	f := bloom.NewFilter(100, 0.01)
	f.Add("https://example.com/old")

	f.Reset([]string{"https://example.com/a", "https://example.com/b"})

	assert.False(t, f.Test("https://example.com/old"), "reset drops previous keys")
	assert.True(t, f.Test("https://example.com/a"))
	assert.True(t, f.Test("https://example.com/b"))
}

func TestFilter_ResetGrowsBeyondEstimate(t *testing.T) {
	t.Parallel()

	f := bloom.NewFilter(10, 0.01)
	keys := make([]string, 1000)
	for i := range keys {
		keys[i] = fmt.Sprintf("https://example.com/asset/%d", i)
	}

	f.Reset(keys)

	for _, k := range keys {
		assert.True(t, f.Test(k))
	}
	falsePositives := 0
	for i := range 1000 {
		if f.Test(fmt.Sprintf("https://example.com/missing/%d", i)) {
			falsePositives++
		}
	}
	assert.Less(t, falsePositives, 30, "false positive rate should stay near 1%%")
}

func TestFilter_EstimatedCount(t *testing.T) {
	t.Parallel()

	f := bloom.NewFilter(1000, 0.01)
	assert.Equal(t, uint(0), f.EstimatedCount())

	f.Add("https://example.com/a")
	f.Add("https://example.com/b")
	f.Add("https://example.com/c")
	f.Add("https://example.com/c")

	count := f.EstimatedCount()
	assert.True(t, count >= 2 && count <= 4, "expected count near 3, got %d", count)
}

func TestFilter_ConcurrentUse(t *testing.T) {
	t.Parallel()

	f := bloom.NewFilter(1000, 0.01)

	var wg sync.WaitGroup
	for i := range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range 100 {
				key := fmt.Sprintf("https://example.com/%d/%d", i, j)
				f.Add(key)
				_ = f.Test(key)
			}
		}()
	}
	wg.Wait()

	assert.True(t, f.Test("https://example.com/7/99"))
}
