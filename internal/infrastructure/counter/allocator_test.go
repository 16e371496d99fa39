package counter_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkassab/orderlink/internal/infrastructure/counter"
	"github.com/mkassab/orderlink/internal/infrastructure/memory"
)

type failingStore struct{}

func (failingStore) Increment(context.Context, string, string) (int64, error) {
	return 0, errors.New("counter unreachable")
}

func TestAllocateDateScopedFormat(t *testing.T) {
	a := counter.NewAllocator(memory.NewCounterStore(), "order_counters", nil)
	now := time.Date(2025, time.September, 1, 10, 0, 0, 0, time.UTC)

	id, fallback := a.Allocate(context.Background(), now)
	require.False(t, fallback)
	assert.Equal(t, "20250901_01", id)

	id, _ = a.Allocate(context.Background(), now)
	assert.Equal(t, "20250901_02", id)
}

func TestAllocateResetsPerDay(t *testing.T) {
	a := counter.NewAllocator(memory.NewCounterStore(), "order_counters", nil)

	day1 := time.Date(2025, time.September, 1, 23, 59, 0, 0, time.UTC)
	day2 := time.Date(2025, time.September, 2, 0, 1, 0, 0, time.UTC)

	id1, _ := a.Allocate(context.Background(), day1)
	id2, _ := a.Allocate(context.Background(), day2)

	assert.Equal(t, "20250901_01", id1)
	assert.Equal(t, "20250902_01", id2)
}

func TestAllocateConcurrentIdentifiersAreDistinct(t *testing.T) {
	a := counter.NewAllocator(memory.NewCounterStore(), "order_counters", nil)
	now := time.Date(2025, time.September, 1, 10, 0, 0, 0, time.UTC)

	const n = 50
	ids := make(chan string, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			id, fallback := a.Allocate(context.Background(), now)
			assert.False(t, fallback)
			ids <- id
		}()
	}
	wg.Wait()
	close(ids)

	seen := make(map[string]bool, n)
	for id := range ids {
		assert.False(t, seen[id], "duplicate identifier %s", id)
		seen[id] = true
	}
	assert.Len(t, seen, n)
}

func TestAllocateFallbackOnStoreFailure(t *testing.T) {
	a := counter.NewAllocator(failingStore{}, "order_counters", nil)
	now := time.Now()

	id, fallback := a.Allocate(context.Background(), now)
	assert.True(t, fallback)
	assert.True(t, strings.HasPrefix(id, "F-"), "got %s", id)
	assert.NotContains(t, id, "_", "fallback must not look like the canonical form")
}
