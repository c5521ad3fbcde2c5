package repository

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/spec-kit/queue-service/internal/domain"
)

// In-memory implementations back tests and DSN-less development runs.
// They mirror the semantics of the Postgres repositories, including
// ErrNotFound on missing ids.

type memoryTicketRepository struct {
	mu    sync.RWMutex
	items map[string]domain.Ticket
	order []string
}

// NewMemoryTicketRepository returns an in-memory TicketRepository.
func NewMemoryTicketRepository() TicketRepository {
	return &memoryTicketRepository{items: make(map[string]domain.Ticket)}
}

func (r *memoryTicketRepository) Create(_ context.Context, ticket *domain.Ticket) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if ticket.ID == "" {
		ticket.ID = uuid.NewString()
	}
	r.items[ticket.ID] = *ticket
	r.order = append(r.order, ticket.ID)
	return nil
}

func (r *memoryTicketRepository) Update(_ context.Context, ticket *domain.Ticket) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[ticket.ID]; !ok {
		return ErrNotFound
	}
	r.items[ticket.ID] = *ticket
	return nil
}

func (r *memoryTicketRepository) GetByID(_ context.Context, id string) (*domain.Ticket, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ticket, ok := r.items[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &ticket, nil
}

func (r *memoryTicketRepository) List(_ context.Context, filter TicketFilter) ([]domain.Ticket, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	result := make([]domain.Ticket, 0, len(r.order))
	for _, id := range r.order {
		ticket, ok := r.items[id]
		if !ok {
			continue
		}
		if len(filter.Statuses) > 0 && !statusIn(ticket.Status, filter.Statuses) {
			continue
		}
		result = append(result, ticket)
	}
	return result, nil
}

func (r *memoryTicketRepository) DeleteAll(_ context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items = make(map[string]domain.Ticket)
	r.order = nil
	return nil
}

func statusIn(status domain.TicketStatus, set []domain.TicketStatus) bool {
	for _, candidate := range set {
		if candidate == status {
			return true
		}
	}
	return false
}

type memoryCounterRepository struct {
	mu     sync.RWMutex
	values map[string]int
}

// NewMemoryCounterRepository returns an in-memory CounterRepository.
func NewMemoryCounterRepository() CounterRepository {
	return &memoryCounterRepository{values: make(map[string]int)}
}

func (r *memoryCounterRepository) Get(_ context.Context, key string) (int, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	value, ok := r.values[key]
	return value, ok, nil
}

func (r *memoryCounterRepository) Upsert(_ context.Context, key string, value int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.values[key] = value
	return nil
}

type memoryStaffRepository struct {
	mu    sync.RWMutex
	items map[string]domain.StaffMember
	order []string
}

// NewMemoryStaffRepository returns an in-memory StaffRepository.
func NewMemoryStaffRepository() StaffRepository {
	return &memoryStaffRepository{items: make(map[string]domain.StaffMember)}
}

func (r *memoryStaffRepository) Create(_ context.Context, staff *domain.StaffMember) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if staff.ID == "" {
		staff.ID = uuid.NewString()
	}
	if staff.CreatedAt.IsZero() {
		staff.CreatedAt = time.Now()
	}
	r.items[staff.ID] = *staff
	r.order = append(r.order, staff.ID)
	return nil
}

func (r *memoryStaffRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[id]; !ok {
		return ErrNotFound
	}
	delete(r.items, id)
	return nil
}

func (r *memoryStaffRepository) GetByID(_ context.Context, id string) (*domain.StaffMember, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	staff, ok := r.items[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &staff, nil
}

func (r *memoryStaffRepository) GetByEmail(_ context.Context, email string) (*domain.StaffMember, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, staff := range r.items {
		if staff.Email == email {
			copied := staff
			return &copied, nil
		}
	}
	return nil, ErrNotFound
}

func (r *memoryStaffRepository) List(_ context.Context) ([]domain.StaffMember, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	result := make([]domain.StaffMember, 0, len(r.order))
	for _, id := range r.order {
		if staff, ok := r.items[id]; ok {
			result = append(result, staff)
		}
	}
	return result, nil
}
