package ws

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Relay mirrors broadcast frames across engine instances over a Redis
// pub/sub channel. Every instance publishes its frames tagged with an
// origin id and replays frames from other origins to its local observers.
type Relay struct {
	client  *redis.Client
	channel string
	origin  string
	logger  *zap.Logger
	deliver func(frame []byte)
}

type relayMessage struct {
	Origin string          `json:"origin"`
	Frame  json.RawMessage `json:"frame"`
}

// NewRelay constructs a relay over the given client and channel.
func NewRelay(client *redis.Client, channel string, logger *zap.Logger) *Relay {
	return &Relay{
		client:  client,
		channel: channel,
		origin:  uuid.NewString(),
		logger:  logger,
	}
}

// Publish sends a frame to the channel. Best effort: relay failures are
// logged, never surfaced to the operation that triggered the broadcast.
func (r *Relay) Publish(ctx context.Context, frame []byte) {
	msg, err := json.Marshal(relayMessage{Origin: r.origin, Frame: frame})
	if err != nil {
		r.logger.Warn("relay marshal failed", zap.Error(err))
		return
	}
	if err := r.client.Publish(ctx, r.channel, msg).Err(); err != nil {
		r.logger.Warn("relay publish failed", zap.Error(err))
	}
}

// Run subscribes and forwards foreign frames until ctx is cancelled.
func (r *Relay) Run(ctx context.Context) {
	sub := r.client.Subscribe(ctx, r.channel)
	defer sub.Close()

	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-sub.Channel():
			if !ok {
				return
			}
			var rm relayMessage
			if err := json.Unmarshal([]byte(msg.Payload), &rm); err != nil {
				r.logger.Warn("relay decode failed", zap.Error(err))
				continue
			}
			if rm.Origin == r.origin {
				continue
			}
			if r.deliver != nil {
				r.deliver(rm.Frame)
			}
		}
	}
}
