package queue

import (
	"context"
	"sort"

	"github.com/spec-kit/queue-service/internal/domain"
	"github.com/spec-kit/queue-service/internal/repository"
)

// Snapshot is the complete observable queue state pushed to observers.
type Snapshot struct {
	Tickets       []domain.Ticket `json:"tickets"`
	CurrentTicket *domain.Ticket  `json:"current_ticket"`
	RecentCalls   []domain.Ticket `json:"recent_calls"`
	NormalSeq     int             `json:"normal_seq"`
	PrioritySeq   int             `json:"priority_seq"`
}

// SnapshotBuilder projects store state into a Snapshot. It is read-only and
// recomputes from scratch on every call; nothing is cached between builds.
type SnapshotBuilder struct {
	tickets   repository.TicketRepository
	allocator *Allocator
	limit     int
}

// NewSnapshotBuilder constructs a builder. limit caps the recent-calls rail.
func NewSnapshotBuilder(tickets repository.TicketRepository, allocator *Allocator, limit int) *SnapshotBuilder {
	if limit <= 0 {
		limit = 5
	}
	return &SnapshotBuilder{tickets: tickets, allocator: allocator, limit: limit}
}

// Build assembles the snapshot from the store.
func (b *SnapshotBuilder) Build(ctx context.Context) (*Snapshot, error) {
	tickets, err := b.tickets.List(ctx, repository.TicketFilter{})
	if err != nil {
		return nil, err
	}

	normalSeq, prioritySeq, err := b.allocator.Sequences(ctx)
	if err != nil {
		return nil, err
	}

	snapshot := &Snapshot{
		Tickets:       tickets,
		CurrentTicket: CurrentTicket(tickets),
		RecentCalls:   recentCalls(tickets, b.limit),
		NormalSeq:     normalSeq,
		PrioritySeq:   prioritySeq,
	}
	return snapshot, nil
}

// CurrentTicket derives the single "now serving" ticket: the called or
// being-served ticket with the latest CalledAt. Derived on every build so it
// never drifts from the ticket set.
func CurrentTicket(tickets []domain.Ticket) *domain.Ticket {
	var current *domain.Ticket
	for i := range tickets {
		ticket := tickets[i]
		if ticket.Status != domain.TicketStatusCalled && ticket.Status != domain.TicketStatusBeingServed {
			continue
		}
		if ticket.CalledAt == nil {
			continue
		}
		if current == nil || ticket.CalledAt.After(*current.CalledAt) {
			current = &tickets[i]
		}
	}
	if current == nil {
		return nil
	}
	copied := *current
	return &copied
}

// recentCalls returns announced, still-active tickets newest first. Tickets
// that completed or were cancelled drop off the rail immediately.
func recentCalls(tickets []domain.Ticket, limit int) []domain.Ticket {
	recent := make([]domain.Ticket, 0, limit)
	for _, ticket := range tickets {
		if ticket.CalledAt == nil || ticket.Status.Terminal() {
			continue
		}
		recent = append(recent, ticket)
	}
	sort.SliceStable(recent, func(i, j int) bool {
		return recent[i].CalledAt.After(*recent[j].CalledAt)
	})
	if len(recent) > limit {
		recent = recent[:limit]
	}
	return recent
}
