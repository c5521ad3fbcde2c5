package events

import "time"

// EventType enumerates supported event identifiers.
type EventType string

const (
	// EventQueueChanged fires after any mutation that affects ticket or
	// counter state. Subscribers rebuild the snapshot from the store, so the
	// event carries no payload beyond its cause.
	EventQueueChanged EventType = "queue_changed"
	// EventStaffChanged fires after staff creation or deletion.
	EventStaffChanged EventType = "staff_changed"
)

// Event is emitted by services after a successful store write.
type Event struct {
	ID        string    `json:"id"`
	Type      EventType `json:"type"`
	Cause     string    `json:"cause"`
	TicketID  string    `json:"ticket_id,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}
