package queue

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/queue-service/internal/domain"
	"github.com/spec-kit/queue-service/internal/events"
	"github.com/spec-kit/queue-service/internal/repository"
	apperrors "github.com/spec-kit/queue-service/pkg/util"
)

// Service coordinates the ticket lifecycle: number allocation, call
// selection, status transitions and the delayed called -> being_served
// check. It holds no ticket state between operations; every command
// re-reads what it needs from the store.
type Service struct {
	tickets    repository.TicketRepository
	allocator  *Allocator
	dispatcher events.Dispatcher
	logger     *zap.Logger

	serveDelay   time.Duration
	serviceTypes []string

	// callMu serializes select-then-update in CallNext so two concurrent
	// calls cannot claim the same waiting ticket.
	callMu sync.Mutex
}

// Dependencies bundles collaborators for the queue service.
type Dependencies struct {
	TicketRepo repository.TicketRepository
	Allocator  *Allocator
	Dispatcher events.Dispatcher
	Logger     *zap.Logger
}

// Options tune engine behavior.
type Options struct {
	// ServeDelay is how long a called ticket stays "called" before the
	// engine marks it being served. Defaults to 2 seconds.
	ServeDelay time.Duration
	// ServiceTypes is the configured category enumeration accepted on
	// ticket requests.
	ServiceTypes []string
}

// NewService constructs the engine.
func NewService(deps Dependencies, opts Options) *Service {
	if opts.ServeDelay <= 0 {
		opts.ServeDelay = 2 * time.Second
	}
	return &Service{
		tickets:      deps.TicketRepo,
		allocator:    deps.Allocator,
		dispatcher:   deps.Dispatcher,
		logger:       deps.Logger,
		serveDelay:   opts.ServeDelay,
		serviceTypes: opts.ServiceTypes,
	}
}

// RequestTicket allocates a number and creates a waiting ticket.
func (s *Service) RequestTicket(ctx context.Context, citizenName, serviceType string, class domain.PriorityClass) (*domain.Ticket, error) {
	citizenName = strings.TrimSpace(citizenName)
	if citizenName == "" {
		return nil, apperrors.NewValidationError("citizen_name required", nil)
	}
	if class == "" {
		class = domain.PriorityNormal
	}
	if !class.Known() {
		return nil, apperrors.NewValidationError("unknown priority class", map[string]any{"priority_class": class})
	}
	if !s.knownServiceType(serviceType) {
		return nil, apperrors.NewValidationError("unknown service type", map[string]any{"service_type": serviceType})
	}

	number, seq, err := s.allocator.Allocate(ctx, class)
	if err != nil {
		return nil, apperrors.NewStoreError(err)
	}

	ticket := &domain.Ticket{
		Number:        number,
		CitizenName:   citizenName,
		ServiceType:   serviceType,
		PriorityClass: class,
		Status:        domain.TicketStatusWaiting,
		RequestedAt:   time.Now(),
	}
	if err := s.tickets.Create(ctx, ticket); err != nil {
		return nil, apperrors.NewStoreError(err)
	}

	s.logger.Info("ticket created",
		zap.String("ticket_id", ticket.ID),
		zap.String("number", ticket.Number),
		zap.Int("sequence", seq))
	s.publish(ctx, events.EventQueueChanged, "ticket_requested", ticket.ID)
	return ticket, nil
}

// CallNext selects and calls the next eligible waiting ticket. Returns
// (nil, nil) when nothing is eligible; that case changes no state and
// triggers no broadcast.
func (s *Service) CallNext(ctx context.Context, counter int, staffName string, eligibleTypes []string) (*domain.Ticket, error) {
	if counter <= 0 {
		return nil, apperrors.NewValidationError("counter must be positive", nil)
	}
	staffName = strings.TrimSpace(staffName)
	if staffName == "" {
		return nil, apperrors.NewValidationError("staff_name required", nil)
	}

	s.callMu.Lock()
	defer s.callMu.Unlock()

	waiting, err := s.tickets.List(ctx, repository.TicketFilter{
		Statuses: []domain.TicketStatus{domain.TicketStatusWaiting},
	})
	if err != nil {
		return nil, apperrors.NewStoreError(err)
	}

	next := SelectNext(waiting, eligibleTypes)
	if next == nil {
		return nil, nil
	}

	now := time.Now()
	next.Status = domain.TicketStatusCalled
	next.CounterAssigned = &counter
	next.ServedBy = &staffName
	next.CalledAt = &now
	if err := s.tickets.Update(ctx, next); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NewNotFound("ticket", map[string]any{"ticket_id": next.ID})
		}
		return nil, apperrors.NewStoreError(err)
	}

	s.logger.Info("ticket called",
		zap.String("ticket_id", next.ID),
		zap.String("number", next.Number),
		zap.Int("counter", counter),
		zap.String("staff", staffName))
	s.publish(ctx, events.EventQueueChanged, "ticket_called", next.ID)
	s.scheduleServeCheck(next.ID)
	return next, nil
}

// scheduleServeCheck arms the one-shot timer that moves a called ticket to
// being_served. The check re-reads current status at fire time; any
// transition out of "called" during the delay wins and the timer becomes a
// no-op. Timers are fire-and-forget across shutdown.
func (s *Service) scheduleServeCheck(ticketID string) {
	time.AfterFunc(s.serveDelay, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.beginServing(ctx, ticketID); err != nil {
			s.logger.Warn("serve check failed", zap.String("ticket_id", ticketID), zap.Error(err))
		}
	})
}

func (s *Service) beginServing(ctx context.Context, ticketID string) error {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil
		}
		return err
	}
	if ticket.Status != domain.TicketStatusCalled {
		return nil
	}

	ticket.Status = domain.TicketStatusBeingServed
	if err := s.tickets.Update(ctx, ticket); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil
		}
		return err
	}
	s.publish(ctx, events.EventQueueChanged, "ticket_serving", ticket.ID)
	return nil
}

// UpdateStatus applies an operator-driven status change. Terminal statuses
// stamp CompletedAt; moving back out of a terminal status clears it.
func (s *Service) UpdateStatus(ctx context.Context, ticketID string, status domain.TicketStatus) (*domain.Ticket, error) {
	if !status.Known() {
		return nil, apperrors.NewValidationError("unknown status", map[string]any{"status": status})
	}

	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NewNotFound("ticket", map[string]any{"ticket_id": ticketID})
		}
		return nil, apperrors.NewStoreError(err)
	}

	ticket.Status = status
	if status.Terminal() {
		now := time.Now()
		ticket.CompletedAt = &now
	} else {
		ticket.CompletedAt = nil
	}
	if err := s.tickets.Update(ctx, ticket); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NewNotFound("ticket", map[string]any{"ticket_id": ticketID})
		}
		return nil, apperrors.NewStoreError(err)
	}

	s.logger.Info("ticket status updated",
		zap.String("ticket_id", ticket.ID),
		zap.String("status", string(status)))
	s.publish(ctx, events.EventQueueChanged, "status_updated", ticket.ID)
	return ticket, nil
}

// RepeatAnnouncement re-stamps CalledAt on the current ticket so displays
// re-announce it. Queue order is untouched; with a fresh CalledAt the same
// ticket remains the most recent call. No current ticket is a no-op.
func (s *Service) RepeatAnnouncement(ctx context.Context) (*domain.Ticket, error) {
	active, err := s.tickets.List(ctx, repository.TicketFilter{
		Statuses: []domain.TicketStatus{domain.TicketStatusCalled, domain.TicketStatusBeingServed},
	})
	if err != nil {
		return nil, apperrors.NewStoreError(err)
	}

	current := CurrentTicket(active)
	if current == nil {
		return nil, nil
	}

	now := time.Now()
	current.CalledAt = &now
	if err := s.tickets.Update(ctx, current); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NewNotFound("ticket", map[string]any{"ticket_id": current.ID})
		}
		return nil, apperrors.NewStoreError(err)
	}

	s.publish(ctx, events.EventQueueChanged, "announcement_repeated", current.ID)
	return current, nil
}

// Reset deletes every ticket and returns both sequences to 1. Both effects
// land before the broadcast fires, so observers see them together.
func (s *Service) Reset(ctx context.Context) error {
	s.callMu.Lock()
	defer s.callMu.Unlock()

	if err := s.tickets.DeleteAll(ctx); err != nil {
		return apperrors.NewStoreError(err)
	}
	if err := s.allocator.Reset(ctx); err != nil {
		return apperrors.NewStoreError(err)
	}

	s.logger.Info("queue reset")
	s.publish(ctx, events.EventQueueChanged, "queue_reset", "")
	return nil
}

func (s *Service) knownServiceType(serviceType string) bool {
	if len(s.serviceTypes) == 0 {
		return strings.TrimSpace(serviceType) != ""
	}
	for _, t := range s.serviceTypes {
		if t == serviceType {
			return true
		}
	}
	return false
}

func (s *Service) publish(ctx context.Context, eventType events.EventType, cause, ticketID string) {
	if s.dispatcher == nil {
		return
	}
	_ = s.dispatcher.Publish(ctx, events.Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		Cause:     cause,
		TicketID:  ticketID,
		Timestamp: time.Now(),
	})
}
