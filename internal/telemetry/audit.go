package telemetry

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Routing key for audit records on the event stream.
const AuditRoutingKey = "audit.chat"

// Audited actions.
const (
	ActionChatCreated         = "chat_created"
	ActionChatDeactivated     = "chat_deactivated"
	ActionParticipantsAdded   = "participants_added"
	ActionParticipantsRemoved = "participants_removed"
	ActionPermissionsUpdated  = "permissions_updated"
)

type Publisher interface {
	Publish(ctx context.Context, routingKey string, event any) error
}

type AuditEmitter struct {
	publisher   Publisher
	routingKey  string
	service     string
	environment string
	logger      *zap.SugaredLogger
}

type AuditEnvelope struct {
	SchemaVersion int          `json:"schema_version"`
	EventType     string       `json:"event_type"`
	OccurredAt    string       `json:"occurred_at"`
	Service       string       `json:"service"`
	Environment   string       `json:"environment"`
	RequestID     string       `json:"request_id"`
	UserID        string       `json:"user_id,omitempty"`
	Payload       AuditPayload `json:"payload"`
}

type AuditPayload struct {
	Action string `json:"action"`
	ChatID string `json:"chat_id,omitempty"`
	Count  int    `json:"count,omitempty"`
	Text   string `json:"text,omitempty"`
}

func NewAuditEmitter(publisher Publisher, routingKey, service, environment string, logger *zap.SugaredLogger) *AuditEmitter {
	return &AuditEmitter{
		publisher:   publisher,
		routingKey:  routingKey,
		service:     service,
		environment: environment,
		logger:      logger,
	}
}

// Emit publishes one audit record. Failures are logged only.
func (e *AuditEmitter) Emit(ctx context.Context, requestID, userID string, payload AuditPayload) {
	if e == nil || e.publisher == nil {
		return
	}

	envelope := AuditEnvelope{
		SchemaVersion: 1,
		EventType:     "audit_log",
		OccurredAt:    time.Now().UTC().Format(time.RFC3339Nano),
		Service:       e.service,
		Environment:   e.environment,
		RequestID:     requestID,
		UserID:        userID,
		Payload:       payload,
	}
	e.logger.Debugw("audit emit", "action", payload.Action, "chat_id", payload.ChatID, "request_id", requestID, "user_id", userID)

	if err := e.publisher.Publish(ctx, e.routingKey, envelope); err != nil {
		e.logger.Warnw("audit publish failed", "action", payload.Action, "error", err)
	}
}
