package queue

import (
	"sort"

	"github.com/spec-kit/queue-service/internal/domain"
)

// SelectNext picks the ticket an attendant should call: waiting tickets
// only, restricted to eligibleTypes when non-empty, priority class before
// normal, earliest RequestedAt first within a class. Returns nil when
// nothing qualifies.
//
// Pure function of its inputs; the caller owns any locking around the
// select-then-update sequence.
func SelectNext(tickets []domain.Ticket, eligibleTypes []string) *domain.Ticket {
	eligible := make([]domain.Ticket, 0, len(tickets))
	for _, ticket := range tickets {
		if ticket.Status != domain.TicketStatusWaiting {
			continue
		}
		if len(eligibleTypes) > 0 && !containsType(eligibleTypes, ticket.ServiceType) {
			continue
		}
		eligible = append(eligible, ticket)
	}
	if len(eligible) == 0 {
		return nil
	}

	sort.SliceStable(eligible, func(i, j int) bool {
		a, b := eligible[i], eligible[j]
		if a.PriorityClass != b.PriorityClass {
			return a.PriorityClass == domain.PriorityPriority
		}
		return a.RequestedAt.Before(b.RequestedAt)
	})

	next := eligible[0]
	return &next
}

func containsType(types []string, serviceType string) bool {
	for _, t := range types {
		if t == serviceType {
			return true
		}
	}
	return false
}
