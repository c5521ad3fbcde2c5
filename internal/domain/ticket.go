package domain

import "time"

// TicketStatus enumerates lifecycle states for queue tickets.
type TicketStatus string

const (
	TicketStatusWaiting     TicketStatus = "waiting"
	TicketStatusCalled      TicketStatus = "called"
	TicketStatusBeingServed TicketStatus = "being_served"
	TicketStatusCompleted   TicketStatus = "completed"
	TicketStatusCancelled   TicketStatus = "cancelled"
)

// Known reports whether the status is one of the defined lifecycle states.
func (s TicketStatus) Known() bool {
	switch s {
	case TicketStatusWaiting, TicketStatusCalled, TicketStatusBeingServed,
		TicketStatusCompleted, TicketStatusCancelled:
		return true
	}
	return false
}

// Terminal reports whether the status ends the ticket lifecycle.
func (s TicketStatus) Terminal() bool {
	return s == TicketStatusCompleted || s == TicketStatusCancelled
}

// PriorityClass splits the queue into priority and normal service.
type PriorityClass string

const (
	PriorityNormal   PriorityClass = "normal"
	PriorityPriority PriorityClass = "priority"
)

// Known reports whether the class is one of the defined classes.
func (p PriorityClass) Known() bool {
	return p == PriorityNormal || p == PriorityPriority
}

// Prefix returns the ticket number prefix for the class.
func (p PriorityClass) Prefix() string {
	if p == PriorityPriority {
		return "P"
	}
	return "N"
}

// Ticket is a single citizen's queue entry.
type Ticket struct {
	ID              string
	Number          string
	CitizenName     string
	ServiceType     string
	PriorityClass   PriorityClass
	Status          TicketStatus
	CounterAssigned *int
	ServedBy        *string
	RequestedAt     time.Time
	CalledAt        *time.Time
	CompletedAt     *time.Time
}
