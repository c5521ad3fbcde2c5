package queue

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/queue-service/internal/domain"
	"github.com/spec-kit/queue-service/internal/events"
	"github.com/spec-kit/queue-service/internal/repository"
	apperrors "github.com/spec-kit/queue-service/pkg/util"
)

type eventRecorder struct {
	mu     sync.Mutex
	causes []string
}

func (r *eventRecorder) record(_ context.Context, event events.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.causes = append(r.causes, event.Cause)
	return nil
}

func (r *eventRecorder) recorded() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string{}, r.causes...)
}

type engineFixture struct {
	service   *Service
	tickets   repository.TicketRepository
	allocator *Allocator
	recorder  *eventRecorder
}

func newEngineFixture(t *testing.T, serveDelay time.Duration) *engineFixture {
	t.Helper()
	tickets := repository.NewMemoryTicketRepository()
	allocator := NewAllocator(repository.NewMemoryCounterRepository())
	dispatcher := events.NewInMemoryDispatcher()
	recorder := &eventRecorder{}
	dispatcher.Subscribe(events.EventQueueChanged, recorder.record)

	service := NewService(Dependencies{
		TicketRepo: tickets,
		Allocator:  allocator,
		Dispatcher: dispatcher,
		Logger:     zap.NewNop(),
	}, Options{
		ServeDelay:   serveDelay,
		ServiceTypes: []string{"Cadastro Novo", "Atualização", "Informações", "Benefícios", "Documentação"},
	})

	return &engineFixture{service: service, tickets: tickets, allocator: allocator, recorder: recorder}
}

func TestRequestTicketAllocatesAndBroadcasts(t *testing.T) {
	ctx := context.Background()
	f := newEngineFixture(t, time.Hour)

	ticket, err := f.service.RequestTicket(ctx, "Maria", "Informações", domain.PriorityNormal)
	require.NoError(t, err)
	assert.Equal(t, "N001", ticket.Number)
	assert.Equal(t, domain.TicketStatusWaiting, ticket.Status)
	assert.NotEmpty(t, ticket.ID)
	assert.Equal(t, []string{"ticket_requested"}, f.recorder.recorded())
}

func TestRequestTicketValidation(t *testing.T) {
	ctx := context.Background()
	f := newEngineFixture(t, time.Hour)

	_, err := f.service.RequestTicket(ctx, "   ", "Informações", domain.PriorityNormal)
	requireDomainCode(t, err, "VALIDATION_FAILED")

	_, err = f.service.RequestTicket(ctx, "Maria", "Informações", domain.PriorityClass("vip"))
	requireDomainCode(t, err, "VALIDATION_FAILED")

	_, err = f.service.RequestTicket(ctx, "Maria", "Unknown Desk", domain.PriorityNormal)
	requireDomainCode(t, err, "VALIDATION_FAILED")

	assert.Empty(t, f.recorder.recorded(), "failed requests must not broadcast")
}

func TestRequestTicketDefaultsToNormalClass(t *testing.T) {
	ctx := context.Background()
	f := newEngineFixture(t, time.Hour)

	ticket, err := f.service.RequestTicket(ctx, "Maria", "Informações", "")
	require.NoError(t, err)
	assert.Equal(t, domain.PriorityNormal, ticket.PriorityClass)
	assert.Equal(t, "N001", ticket.Number)
}

// Two citizens arrive: Maria takes a normal ticket, then Ana a priority one.
// The first call must pick Ana despite Maria arriving first, and after the
// serve delay Ana's ticket moves to being served on its own.
func TestCallNextPriorityScenario(t *testing.T) {
	ctx := context.Background()
	f := newEngineFixture(t, 20*time.Millisecond)

	maria, err := f.service.RequestTicket(ctx, "Maria", "Informações", domain.PriorityNormal)
	require.NoError(t, err)
	assert.Equal(t, "N001", maria.Number)

	ana, err := f.service.RequestTicket(ctx, "Ana", "Informações", domain.PriorityPriority)
	require.NoError(t, err)
	assert.Equal(t, "P001", ana.Number)

	called, err := f.service.CallNext(ctx, 1, "João", nil)
	require.NoError(t, err)
	require.NotNil(t, called)
	assert.Equal(t, "P001", called.Number)
	assert.Equal(t, domain.TicketStatusCalled, called.Status)
	require.NotNil(t, called.CounterAssigned)
	assert.Equal(t, 1, *called.CounterAssigned)
	require.NotNil(t, called.ServedBy)
	assert.Equal(t, "João", *called.ServedBy)
	require.NotNil(t, called.CalledAt)

	require.Eventually(t, func() bool {
		stored, err := f.tickets.GetByID(ctx, called.ID)
		return err == nil && stored.Status == domain.TicketStatusBeingServed
	}, time.Second, 5*time.Millisecond, "called ticket should move to being_served after the delay")

	causes := f.recorder.recorded()
	assert.Contains(t, causes, "ticket_called")
	assert.Contains(t, causes, "ticket_serving")

	// Maria is still waiting; the next call picks her up.
	next, err := f.service.CallNext(ctx, 2, "Paula", nil)
	require.NoError(t, err)
	require.NotNil(t, next)
	assert.Equal(t, "N001", next.Number)
}

func TestCallNextEmptyQueueIsNoOp(t *testing.T) {
	ctx := context.Background()
	f := newEngineFixture(t, time.Hour)

	called, err := f.service.CallNext(ctx, 1, "João", nil)
	require.NoError(t, err)
	assert.Nil(t, called)
	assert.Empty(t, f.recorder.recorded(), "empty-queue call must not broadcast")
}

func TestCallNextValidation(t *testing.T) {
	ctx := context.Background()
	f := newEngineFixture(t, time.Hour)

	_, err := f.service.CallNext(ctx, 0, "João", nil)
	requireDomainCode(t, err, "VALIDATION_FAILED")

	_, err = f.service.CallNext(ctx, 1, "  ", nil)
	requireDomainCode(t, err, "VALIDATION_FAILED")
}

func TestServeCheckSkippedWhenStatusChangedDuringDelay(t *testing.T) {
	ctx := context.Background()
	f := newEngineFixture(t, 30*time.Millisecond)

	_, err := f.service.RequestTicket(ctx, "Maria", "Informações", domain.PriorityNormal)
	require.NoError(t, err)
	called, err := f.service.CallNext(ctx, 1, "João", nil)
	require.NoError(t, err)
	require.NotNil(t, called)

	// Cancelled before the timer fires: the transition must not happen.
	_, err = f.service.UpdateStatus(ctx, called.ID, domain.TicketStatusCancelled)
	require.NoError(t, err)

	time.Sleep(80 * time.Millisecond)
	stored, err := f.tickets.GetByID(ctx, called.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.TicketStatusCancelled, stored.Status)
	assert.NotContains(t, f.recorder.recorded(), "ticket_serving")
}

func TestServeCheckHarmlessWhenTicketDeleted(t *testing.T) {
	ctx := context.Background()
	f := newEngineFixture(t, 20*time.Millisecond)

	_, err := f.service.RequestTicket(ctx, "Maria", "Informações", domain.PriorityNormal)
	require.NoError(t, err)
	called, err := f.service.CallNext(ctx, 1, "João", nil)
	require.NoError(t, err)
	require.NotNil(t, called)

	require.NoError(t, f.service.Reset(ctx))

	time.Sleep(60 * time.Millisecond)
	assert.NotContains(t, f.recorder.recorded(), "ticket_serving")
}

func TestUpdateStatusTerminalStampsCompletedAt(t *testing.T) {
	ctx := context.Background()
	f := newEngineFixture(t, time.Hour)

	ticket, err := f.service.RequestTicket(ctx, "Maria", "Informações", domain.PriorityNormal)
	require.NoError(t, err)

	updated, err := f.service.UpdateStatus(ctx, ticket.ID, domain.TicketStatusCompleted)
	require.NoError(t, err)
	assert.Equal(t, domain.TicketStatusCompleted, updated.Status)
	require.NotNil(t, updated.CompletedAt)

	// Reopening clears the completion stamp.
	updated, err = f.service.UpdateStatus(ctx, ticket.ID, domain.TicketStatusWaiting)
	require.NoError(t, err)
	assert.Nil(t, updated.CompletedAt)
}

func TestUpdateStatusErrors(t *testing.T) {
	ctx := context.Background()
	f := newEngineFixture(t, time.Hour)

	_, err := f.service.UpdateStatus(ctx, "missing-id", domain.TicketStatusCompleted)
	requireDomainCode(t, err, "NOT_FOUND")

	ticket, err := f.service.RequestTicket(ctx, "Maria", "Informações", domain.PriorityNormal)
	require.NoError(t, err)
	_, err = f.service.UpdateStatus(ctx, ticket.ID, domain.TicketStatus("paused"))
	requireDomainCode(t, err, "VALIDATION_FAILED")
}

func TestRepeatAnnouncementRestampsCurrent(t *testing.T) {
	ctx := context.Background()
	f := newEngineFixture(t, time.Hour)

	_, err := f.service.RequestTicket(ctx, "Maria", "Informações", domain.PriorityNormal)
	require.NoError(t, err)
	called, err := f.service.CallNext(ctx, 1, "João", nil)
	require.NoError(t, err)
	require.NotNil(t, called)
	firstCall := *called.CalledAt

	time.Sleep(5 * time.Millisecond)
	repeated, err := f.service.RepeatAnnouncement(ctx)
	require.NoError(t, err)
	require.NotNil(t, repeated)
	assert.Equal(t, called.ID, repeated.ID)
	assert.True(t, repeated.CalledAt.After(firstCall))
	assert.Contains(t, f.recorder.recorded(), "announcement_repeated")
}

func TestRepeatAnnouncementNoCurrentIsNoOp(t *testing.T) {
	ctx := context.Background()
	f := newEngineFixture(t, time.Hour)

	repeated, err := f.service.RepeatAnnouncement(ctx)
	require.NoError(t, err)
	assert.Nil(t, repeated)
	assert.Empty(t, f.recorder.recorded())
}

func TestResetClearsTicketsAndSequences(t *testing.T) {
	ctx := context.Background()
	f := newEngineFixture(t, time.Hour)

	_, err := f.service.RequestTicket(ctx, "Maria", "Informações", domain.PriorityNormal)
	require.NoError(t, err)
	_, err = f.service.RequestTicket(ctx, "Ana", "Informações", domain.PriorityPriority)
	require.NoError(t, err)

	require.NoError(t, f.service.Reset(ctx))

	remaining, err := f.tickets.List(ctx, repository.TicketFilter{})
	require.NoError(t, err)
	assert.Empty(t, remaining)

	normal, priority, err := f.allocator.Sequences(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, normal)
	assert.Equal(t, 1, priority)
	assert.Contains(t, f.recorder.recorded(), "queue_reset")

	// Numbering restarts from scratch after a reset.
	ticket, err := f.service.RequestTicket(ctx, "Pedro", "Informações", domain.PriorityNormal)
	require.NoError(t, err)
	assert.Equal(t, "N001", ticket.Number)
}

func requireDomainCode(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	domainErr := apperrors.ToDomainError(err)
	assert.Equal(t, code, domainErr.Code)
}
