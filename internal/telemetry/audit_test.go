package telemetry

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"entity-chat-service/internal/logging"
)

type capturePublisher struct {
	key string
	got any
	err error
}

func (p *capturePublisher) Publish(_ context.Context, routingKey string, event any) error {
	p.key = routingKey
	p.got = event
	return p.err
}

func TestAuditEmitterEnvelope(t *testing.T) {
	pub := &capturePublisher{}
	e := NewAuditEmitter(pub, AuditRoutingKey, "entity-chat-service", "test", logging.Nop())

	e.Emit(context.Background(), "req-1", "u1", AuditPayload{Action: ActionChatCreated, ChatID: "c1"})

	assert.Equal(t, AuditRoutingKey, pub.key)
	env, ok := pub.got.(AuditEnvelope)
	require.True(t, ok)
	assert.Equal(t, 1, env.SchemaVersion)
	assert.Equal(t, "audit_log", env.EventType)
	assert.Equal(t, "entity-chat-service", env.Service)
	assert.Equal(t, "req-1", env.RequestID)
	assert.Equal(t, "u1", env.UserID)
	assert.Equal(t, ActionChatCreated, env.Payload.Action)
	assert.NotEmpty(t, env.OccurredAt)
}

func TestAuditEmitterSwallowsPublishErrors(t *testing.T) {
	pub := &capturePublisher{err: errors.New("broker down")}
	e := NewAuditEmitter(pub, AuditRoutingKey, "svc", "test", logging.Nop())

	assert.NotPanics(t, func() {
		e.Emit(context.Background(), "", "", AuditPayload{Action: ActionChatDeactivated})
	})
}

func TestNilAuditEmitter(t *testing.T) {
	var e *AuditEmitter
	assert.NotPanics(t, func() {
		e.Emit(context.Background(), "", "", AuditPayload{})
	})
}
