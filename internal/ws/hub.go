package ws

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/queue-service/internal/api/dto"
	"github.com/spec-kit/queue-service/internal/domain"
	"github.com/spec-kit/queue-service/internal/events"
	"github.com/spec-kit/queue-service/internal/queue"
)

// Broadcast event names on the observer wire.
const (
	EventStateSnapshot = "state_snapshot"
	EventStaffUpdated  = "staff_updated"
)

// sendBufferSize bounds the per-connection outbox. A connection that falls
// this far behind starts losing frames rather than stalling the rest; the
// next snapshot it does receive carries the complete state anyway.
const sendBufferSize = 16

// Envelope frames every message pushed to observers.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// StaffLister supplies the staff collection for staff_updated broadcasts.
type StaffLister interface {
	List(ctx context.Context) ([]domain.StaffMember, error)
}

// Hub keeps the set of connected observers and pushes freshly built
// snapshots to all of them after each mutating operation. Each connection
// has an independent buffered delivery path.
type Hub struct {
	logger    *zap.Logger
	snapshots *queue.SnapshotBuilder
	staff     StaffLister
	relay     *Relay

	mu    sync.RWMutex
	conns map[*connection]struct{}
}

// NewHub constructs a hub. relay may be nil when no Redis is configured.
func NewHub(logger *zap.Logger, snapshots *queue.SnapshotBuilder, staff StaffLister, relay *Relay) *Hub {
	h := &Hub{
		logger:    logger,
		snapshots: snapshots,
		staff:     staff,
		relay:     relay,
		conns:     make(map[*connection]struct{}),
	}
	if relay != nil {
		relay.deliver = h.broadcastLocal
	}
	return h
}

// Handler returns the Fiber handler serving observer connections.
func (h *Hub) Handler() fiber.Handler {
	return websocket.New(h.serve)
}

// UpgradeGate rejects plain HTTP requests on the websocket route.
func UpgradeGate(c *fiber.Ctx) error {
	if websocket.IsWebSocketUpgrade(c) {
		return c.Next()
	}
	return fiber.ErrUpgradeRequired
}

type connection struct {
	id      string
	ws      *websocket.Conn
	send    chan []byte
	closing sync.Once
}

func (c *connection) close() {
	c.closing.Do(func() { close(c.send) })
}

// enqueue hands a frame to the connection's writer without ever blocking
// the caller.
func (c *connection) enqueue(frame []byte) bool {
	select {
	case c.send <- frame:
		return true
	default:
		return false
	}
}

func (h *Hub) serve(ws *websocket.Conn) {
	conn := &connection{
		id:   uuid.NewString(),
		ws:   ws,
		send: make(chan []byte, sendBufferSize),
	}

	h.mu.Lock()
	h.conns[conn] = struct{}{}
	h.mu.Unlock()
	h.logger.Info("observer connected", zap.String("conn_id", conn.id))

	go h.writePump(conn)

	// Initial sync: this observer only.
	if frame, err := h.snapshotFrame(context.Background()); err != nil {
		h.logger.Warn("initial snapshot failed", zap.String("conn_id", conn.id), zap.Error(err))
	} else {
		conn.enqueue(frame)
	}

	// Observers only listen; the read loop exists to notice disconnects.
	for {
		if _, _, err := ws.ReadMessage(); err != nil {
			break
		}
	}

	h.mu.Lock()
	delete(h.conns, conn)
	h.mu.Unlock()
	conn.close()
	h.logger.Info("observer disconnected", zap.String("conn_id", conn.id))
}

func (h *Hub) writePump(conn *connection) {
	for frame := range conn.send {
		if err := conn.ws.WriteMessage(websocket.TextMessage, frame); err != nil {
			h.logger.Debug("observer write failed", zap.String("conn_id", conn.id), zap.Error(err))
			return
		}
	}
	_ = conn.ws.WriteMessage(websocket.CloseMessage, nil)
}

// HandleQueueChanged rebuilds the snapshot and pushes it to every observer.
// Registered on the dispatcher, so it runs synchronously after the
// operation's store write — broadcasts arrive in commit order.
func (h *Hub) HandleQueueChanged(ctx context.Context, _ events.Event) error {
	frame, err := h.snapshotFrame(ctx)
	if err != nil {
		h.logger.Error("snapshot build failed", zap.Error(err))
		return err
	}
	h.broadcast(ctx, frame)
	return nil
}

// HandleStaffChanged pushes the staff collection and, per the broadcast
// contract, a full snapshot as well.
func (h *Hub) HandleStaffChanged(ctx context.Context, event events.Event) error {
	list, err := h.staff.List(ctx)
	if err != nil {
		h.logger.Error("staff list failed", zap.Error(err))
		return err
	}
	frame, err := marshalEnvelope(EventStaffUpdated, dto.FromStaffList(list))
	if err != nil {
		return err
	}
	h.broadcast(ctx, frame)
	return h.HandleQueueChanged(ctx, event)
}

func (h *Hub) snapshotFrame(ctx context.Context) ([]byte, error) {
	snapshot, err := h.snapshots.Build(ctx)
	if err != nil {
		return nil, err
	}
	return marshalEnvelope(EventStateSnapshot, dto.FromSnapshot(snapshot))
}

func (h *Hub) broadcast(ctx context.Context, frame []byte) {
	h.broadcastLocal(frame)
	if h.relay != nil {
		h.relay.Publish(ctx, frame)
	}
}

func (h *Hub) broadcastLocal(frame []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for conn := range h.conns {
		if !conn.enqueue(frame) {
			h.logger.Warn("observer lagging, frame dropped", zap.String("conn_id", conn.id))
		}
	}
}

// ConnectionCount reports the number of attached observers.
func (h *Hub) ConnectionCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns)
}

func marshalEnvelope(event string, payload any) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Envelope{Event: event, Data: data})
}
