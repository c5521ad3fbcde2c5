package queue

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/queue-service/internal/domain"
)

func waitingTicket(number string, class domain.PriorityClass, serviceType string, requestedAt time.Time) domain.Ticket {
	return domain.Ticket{
		ID:            number,
		Number:        number,
		CitizenName:   "Citizen " + number,
		ServiceType:   serviceType,
		PriorityClass: class,
		Status:        domain.TicketStatusWaiting,
		RequestedAt:   requestedAt,
	}
}

func TestSelectNextPriorityBeforeNormal(t *testing.T) {
	base := time.Now()
	tickets := []domain.Ticket{
		waitingTicket("N001", domain.PriorityNormal, "Informações", base),
		waitingTicket("N002", domain.PriorityNormal, "Informações", base.Add(time.Second)),
		waitingTicket("P001", domain.PriorityPriority, "Informações", base.Add(2*time.Second)),
	}

	next := SelectNext(tickets, nil)
	require.NotNil(t, next)
	assert.Equal(t, "P001", next.Number, "priority ticket wins even when requested last")
}

func TestSelectNextFIFOWithinClass(t *testing.T) {
	base := time.Now()
	tickets := []domain.Ticket{
		waitingTicket("N002", domain.PriorityNormal, "Informações", base.Add(time.Second)),
		waitingTicket("N001", domain.PriorityNormal, "Informações", base),
	}

	next := SelectNext(tickets, nil)
	require.NotNil(t, next)
	assert.Equal(t, "N001", next.Number)
}

func TestSelectNextEligibilityFilter(t *testing.T) {
	base := time.Now()
	tickets := []domain.Ticket{
		waitingTicket("P001", domain.PriorityPriority, "Benefícios", base),
		waitingTicket("N001", domain.PriorityNormal, "Cadastro Novo", base.Add(time.Second)),
	}

	next := SelectNext(tickets, []string{"Cadastro Novo"})
	require.NotNil(t, next)
	assert.Equal(t, "N001", next.Number, "priority ticket outside eligible types must be skipped")

	assert.Nil(t, SelectNext(tickets, []string{"Documentação"}))
}

func TestSelectNextEmptyEligibleTypesMeansAll(t *testing.T) {
	tickets := []domain.Ticket{
		waitingTicket("N001", domain.PriorityNormal, "Atualização", time.Now()),
	}

	next := SelectNext(tickets, []string{})
	require.NotNil(t, next)
	assert.Equal(t, "N001", next.Number)
}

func TestSelectNextIgnoresNonWaiting(t *testing.T) {
	base := time.Now()
	called := waitingTicket("P001", domain.PriorityPriority, "Informações", base)
	called.Status = domain.TicketStatusCalled
	tickets := []domain.Ticket{
		called,
		waitingTicket("N001", domain.PriorityNormal, "Informações", base.Add(time.Second)),
	}

	next := SelectNext(tickets, nil)
	require.NotNil(t, next)
	assert.Equal(t, "N001", next.Number)
}

func TestSelectNextNothingWaiting(t *testing.T) {
	assert.Nil(t, SelectNext(nil, nil))

	done := waitingTicket("N001", domain.PriorityNormal, "Informações", time.Now())
	done.Status = domain.TicketStatusCompleted
	assert.Nil(t, SelectNext([]domain.Ticket{done}, nil))
}

func TestSelectNextReturnsCopy(t *testing.T) {
	tickets := []domain.Ticket{
		waitingTicket("N001", domain.PriorityNormal, "Informações", time.Now()),
	}

	next := SelectNext(tickets, nil)
	require.NotNil(t, next)
	next.Status = domain.TicketStatusCalled
	assert.Equal(t, domain.TicketStatusWaiting, tickets[0].Status)
}
