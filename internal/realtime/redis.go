package realtime

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type relayEnvelope struct {
	Origin string `json:"origin"`
	Event  Event  `json:"event"`
}

func relayChannel(prefix string) string {
	return fmt.Sprintf("%s:events", prefix)
}

// RedisSink publishes events on a shared channel so that every instance can
// reach the websocket clients it holds.
type RedisSink struct {
	client  redis.UniversalClient
	channel string
	origin  string
}

func NewRedisSink(client redis.UniversalClient, prefix, origin string) *RedisSink {
	return &RedisSink{client: client, channel: relayChannel(prefix), origin: origin}
}

func (s *RedisSink) Name() string { return "redis" }

func (s *RedisSink) Deliver(ctx context.Context, evt Event) error {
	b, err := json.Marshal(relayEnvelope{Origin: s.origin, Event: evt})
	if err != nil {
		return err
	}
	return s.client.Publish(ctx, s.channel, b).Err()
}

// RedisRelay hands events published by other instances to the local hub.
// Events from its own origin are skipped; the HubSink already delivered them.
type RedisRelay struct {
	client  redis.UniversalClient
	channel string
	origin  string
	hub     RoomHub
	logger  *zap.SugaredLogger
}

func NewRedisRelay(client redis.UniversalClient, prefix, origin string, hub RoomHub, logger *zap.SugaredLogger) *RedisRelay {
	return &RedisRelay{client: client, channel: relayChannel(prefix), origin: origin, hub: hub, logger: logger}
}

// Run subscribes and relays until ctx is done.
func (r *RedisRelay) Run(ctx context.Context) error {
	sub := r.client.Subscribe(ctx, r.channel)
	defer sub.Close()
	if _, err := sub.Receive(ctx); err != nil {
		return fmt.Errorf("subscribe %s: %w", r.channel, err)
	}
	r.logger.Infow("redis relay subscribed", "channel", r.channel)

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			r.handle([]byte(msg.Payload))
		}
	}
}

func (r *RedisRelay) handle(raw []byte) {
	var env relayEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		r.logger.Warnw("redis relay: bad payload", "error", err)
		return
	}
	if env.Origin == r.origin {
		return
	}
	if err := deliverLocal(r.hub, env.Event); err != nil {
		r.logger.Warnw("redis relay: deliver", "room", env.Event.Room, "event", env.Event.Name, "error", err)
	}
}
