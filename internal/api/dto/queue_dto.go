package dto

import (
	"time"

	"github.com/spec-kit/queue-service/internal/domain"
	"github.com/spec-kit/queue-service/internal/queue"
)

// RequestTicketRequest payload.
type RequestTicketRequest struct {
	CitizenName   string               `json:"citizen_name"`
	ServiceType   string               `json:"service_type"`
	PriorityClass domain.PriorityClass `json:"priority_class"`
}

// CallNextRequest payload.
type CallNextRequest struct {
	Counter       int      `json:"counter"`
	StaffName     string   `json:"staff_name"`
	EligibleTypes []string `json:"eligible_types"`
}

// UpdateStatusRequest payload.
type UpdateStatusRequest struct {
	Status domain.TicketStatus `json:"status"`
}

// TicketResponse is the wire form of a ticket.
type TicketResponse struct {
	ID              string               `json:"id"`
	Number          string               `json:"number"`
	CitizenName     string               `json:"citizen_name"`
	ServiceType     string               `json:"service_type"`
	PriorityClass   domain.PriorityClass `json:"priority_class"`
	Status          domain.TicketStatus  `json:"status"`
	CounterAssigned *int                 `json:"counter_assigned"`
	ServedBy        *string              `json:"served_by"`
	RequestedAt     time.Time            `json:"requested_at"`
	CalledAt        *time.Time           `json:"called_at"`
	CompletedAt     *time.Time           `json:"completed_at"`
}

// SnapshotResponse is the wire form of the full queue state.
type SnapshotResponse struct {
	Tickets       []TicketResponse `json:"tickets"`
	CurrentTicket *TicketResponse  `json:"current_ticket"`
	RecentCalls   []TicketResponse `json:"recent_calls"`
	NormalSeq     int              `json:"normal_seq"`
	PrioritySeq   int              `json:"priority_seq"`
}

// FromTicket maps a domain ticket to its wire form.
func FromTicket(ticket *domain.Ticket) TicketResponse {
	return TicketResponse{
		ID:              ticket.ID,
		Number:          ticket.Number,
		CitizenName:     ticket.CitizenName,
		ServiceType:     ticket.ServiceType,
		PriorityClass:   ticket.PriorityClass,
		Status:          ticket.Status,
		CounterAssigned: ticket.CounterAssigned,
		ServedBy:        ticket.ServedBy,
		RequestedAt:     ticket.RequestedAt,
		CalledAt:        ticket.CalledAt,
		CompletedAt:     ticket.CompletedAt,
	}
}

// FromSnapshot maps a snapshot to its wire form.
func FromSnapshot(snapshot *queue.Snapshot) SnapshotResponse {
	resp := SnapshotResponse{
		Tickets:     make([]TicketResponse, 0, len(snapshot.Tickets)),
		RecentCalls: make([]TicketResponse, 0, len(snapshot.RecentCalls)),
		NormalSeq:   snapshot.NormalSeq,
		PrioritySeq: snapshot.PrioritySeq,
	}
	for i := range snapshot.Tickets {
		resp.Tickets = append(resp.Tickets, FromTicket(&snapshot.Tickets[i]))
	}
	for i := range snapshot.RecentCalls {
		resp.RecentCalls = append(resp.RecentCalls, FromTicket(&snapshot.RecentCalls[i]))
	}
	if snapshot.CurrentTicket != nil {
		current := FromTicket(snapshot.CurrentTicket)
		resp.CurrentTicket = &current
	}
	return resp
}
