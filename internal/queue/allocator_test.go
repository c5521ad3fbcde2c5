package queue

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/queue-service/internal/domain"
	"github.com/spec-kit/queue-service/internal/repository"
)

func TestAllocateFormatsAndIncrements(t *testing.T) {
	ctx := context.Background()
	allocator := NewAllocator(repository.NewMemoryCounterRepository())

	number, seq, err := allocator.Allocate(ctx, domain.PriorityNormal)
	require.NoError(t, err)
	assert.Equal(t, "N001", number)
	assert.Equal(t, 1, seq)

	number, seq, err = allocator.Allocate(ctx, domain.PriorityNormal)
	require.NoError(t, err)
	assert.Equal(t, "N002", number)
	assert.Equal(t, 2, seq)
}

func TestAllocateCategoriesAreIndependent(t *testing.T) {
	ctx := context.Background()
	allocator := NewAllocator(repository.NewMemoryCounterRepository())

	_, _, err := allocator.Allocate(ctx, domain.PriorityNormal)
	require.NoError(t, err)
	_, _, err = allocator.Allocate(ctx, domain.PriorityNormal)
	require.NoError(t, err)

	number, seq, err := allocator.Allocate(ctx, domain.PriorityPriority)
	require.NoError(t, err)
	assert.Equal(t, "P001", number)
	assert.Equal(t, 1, seq)
}

func TestAllocateConcurrentNoDuplicates(t *testing.T) {
	ctx := context.Background()
	allocator := NewAllocator(repository.NewMemoryCounterRepository())

	const workers = 20
	numbers := make(chan string, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			number, _, err := allocator.Allocate(ctx, domain.PriorityNormal)
			require.NoError(t, err)
			numbers <- number
		}()
	}
	wg.Wait()
	close(numbers)

	seen := make(map[string]bool, workers)
	for number := range numbers {
		assert.False(t, seen[number], "duplicate number %s", number)
		seen[number] = true
	}
	assert.Len(t, seen, workers)
	assert.True(t, seen[fmt.Sprintf("N%03d", workers)])
}

func TestResetReturnsSequencesToOne(t *testing.T) {
	ctx := context.Background()
	allocator := NewAllocator(repository.NewMemoryCounterRepository())

	for i := 0; i < 3; i++ {
		_, _, err := allocator.Allocate(ctx, domain.PriorityNormal)
		require.NoError(t, err)
	}
	_, _, err := allocator.Allocate(ctx, domain.PriorityPriority)
	require.NoError(t, err)

	require.NoError(t, allocator.Reset(ctx))

	normal, priority, err := allocator.Sequences(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, normal)
	assert.Equal(t, 1, priority)

	number, _, err := allocator.Allocate(ctx, domain.PriorityNormal)
	require.NoError(t, err)
	assert.Equal(t, "N001", number)
}

func TestSequencesDefaultToOne(t *testing.T) {
	ctx := context.Background()
	allocator := NewAllocator(repository.NewMemoryCounterRepository())

	normal, priority, err := allocator.Sequences(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, normal)
	assert.Equal(t, 1, priority)
}

func TestEnsureInitializedCreatesMissingRows(t *testing.T) {
	ctx := context.Background()
	counters := repository.NewMemoryCounterRepository()
	allocator := NewAllocator(counters)

	require.NoError(t, allocator.EnsureInitialized(ctx))

	value, ok, err := counters.Get(ctx, "counter_normal")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 1, value)

	value, ok, err = counters.Get(ctx, "counter_priority")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 1, value)
}

func TestEnsureInitializedKeepsExistingValues(t *testing.T) {
	ctx := context.Background()
	counters := repository.NewMemoryCounterRepository()
	require.NoError(t, counters.Upsert(ctx, "counter_normal", 7))

	allocator := NewAllocator(counters)
	require.NoError(t, allocator.EnsureInitialized(ctx))

	value, ok, err := counters.Get(ctx, "counter_normal")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 7, value)
}
