package queue

import (
	"context"
	"fmt"
	"sync"

	"github.com/spec-kit/queue-service/internal/domain"
	"github.com/spec-kit/queue-service/internal/repository"
)

const (
	counterKeyNormal   = "counter_normal"
	counterKeyPriority = "counter_priority"
)

// Allocator issues monotonically increasing, category-scoped ticket numbers
// backed by counter rows in the store. The read-increment-write per category
// runs under a per-category lock so concurrent allocations cannot lose
// updates.
type Allocator struct {
	counters repository.CounterRepository

	normalMu   sync.Mutex
	priorityMu sync.Mutex
}

// NewAllocator constructs an Allocator over the given counter store.
func NewAllocator(counters repository.CounterRepository) *Allocator {
	return &Allocator{counters: counters}
}

// Allocate reserves the next sequence value for the class and returns the
// formatted ticket number alongside the value it consumed.
func (a *Allocator) Allocate(ctx context.Context, class domain.PriorityClass) (string, int, error) {
	mu := a.lockFor(class)
	mu.Lock()
	defer mu.Unlock()

	key := counterKey(class)
	seq, ok, err := a.counters.Get(ctx, key)
	if err != nil {
		return "", 0, err
	}
	if !ok || seq < 1 {
		seq = 1
	}

	number := fmt.Sprintf("%s%03d", class.Prefix(), seq)
	if err := a.counters.Upsert(ctx, key, seq+1); err != nil {
		return "", 0, err
	}
	return number, seq, nil
}

// Reset returns both category sequences to 1.
func (a *Allocator) Reset(ctx context.Context) error {
	a.normalMu.Lock()
	defer a.normalMu.Unlock()
	a.priorityMu.Lock()
	defer a.priorityMu.Unlock()

	if err := a.counters.Upsert(ctx, counterKeyNormal, 1); err != nil {
		return err
	}
	return a.counters.Upsert(ctx, counterKeyPriority, 1)
}

// EnsureInitialized creates missing counter rows with value 1. Called at
// startup so displays always have a sequence to show.
func (a *Allocator) EnsureInitialized(ctx context.Context) error {
	for _, key := range []string{counterKeyNormal, counterKeyPriority} {
		_, ok, err := a.counters.Get(ctx, key)
		if err != nil {
			return err
		}
		if !ok {
			if err := a.counters.Upsert(ctx, key, 1); err != nil {
				return err
			}
		}
	}
	return nil
}

// Sequences reads the current next-to-issue values for both categories,
// defaulting to 1 when a row is absent.
func (a *Allocator) Sequences(ctx context.Context) (normal, priority int, err error) {
	normal, ok, err := a.counters.Get(ctx, counterKeyNormal)
	if err != nil {
		return 0, 0, err
	}
	if !ok {
		normal = 1
	}
	priority, ok, err = a.counters.Get(ctx, counterKeyPriority)
	if err != nil {
		return 0, 0, err
	}
	if !ok {
		priority = 1
	}
	return normal, priority, nil
}

func (a *Allocator) lockFor(class domain.PriorityClass) *sync.Mutex {
	if class == domain.PriorityPriority {
		return &a.priorityMu
	}
	return &a.normalMu
}

func counterKey(class domain.PriorityClass) string {
	if class == domain.PriorityPriority {
		return counterKeyPriority
	}
	return counterKeyNormal
}
