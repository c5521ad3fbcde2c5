package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/queue-service/internal/api/dto"
	"github.com/spec-kit/queue-service/internal/queue"
	apperrors "github.com/spec-kit/queue-service/pkg/util"
)

// QueueHandler exposes the ticket dispatch commands.
type QueueHandler struct {
	queue     *queue.Service
	snapshots *queue.SnapshotBuilder
}

// NewQueueHandler constructs handler.
func NewQueueHandler(queueService *queue.Service, snapshots *queue.SnapshotBuilder) *QueueHandler {
	return &QueueHandler{queue: queueService, snapshots: snapshots}
}

// RequestTicket handles POST /api/tickets.
func (h *QueueHandler) RequestTicket(c *fiber.Ctx) error {
	var req dto.RequestTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	ticket, err := h.queue.RequestTicket(c.UserContext(), req.CitizenName, req.ServiceType, req.PriorityClass)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.FromTicket(ticket)})
}

// CallNext handles POST /api/tickets/call. An empty eligible waiting set is
// a defined empty result, not an error.
func (h *QueueHandler) CallNext(c *fiber.Ctx) error {
	var req dto.CallNextRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	ticket, err := h.queue.CallNext(c.UserContext(), req.Counter, req.StaffName, req.EligibleTypes)
	if err != nil {
		return err
	}
	if ticket == nil {
		return c.JSON(fiber.Map{"data": fiber.Map{"called": nil}})
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"called": dto.FromTicket(ticket)}})
}

// UpdateStatus handles PATCH /api/tickets/:id/status.
func (h *QueueHandler) UpdateStatus(c *fiber.Ctx) error {
	var req dto.UpdateStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	ticket, err := h.queue.UpdateStatus(c.UserContext(), c.Params("id"), req.Status)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.FromTicket(ticket)})
}

// RepeatAnnouncement handles POST /api/tickets/repeat.
func (h *QueueHandler) RepeatAnnouncement(c *fiber.Ctx) error {
	if _, err := h.queue.RepeatAnnouncement(c.UserContext()); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

// ResetQueue handles POST /api/queue/reset.
func (h *QueueHandler) ResetQueue(c *fiber.Ctx) error {
	if err := h.queue.Reset(c.UserContext()); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"status": "queue_reset"}})
}

// GetSnapshot handles GET /api/queue/snapshot, a pull-based view of the
// same state the websocket pushes.
func (h *QueueHandler) GetSnapshot(c *fiber.Ctx) error {
	snapshot, err := h.snapshots.Build(c.UserContext())
	if err != nil {
		return apperrors.NewStoreError(err)
	}
	return c.JSON(fiber.Map{"data": dto.FromSnapshot(snapshot)})
}
