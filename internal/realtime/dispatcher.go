package realtime

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"go.uber.org/zap"

	"entity-chat-service/internal/observability"
)

// Event is the frame delivered to room members and to the event stream.
type Event struct {
	Room       string          `json:"room"`
	Name       string          `json:"event"`
	Data       json.RawMessage `json:"data"`
	OccurredAt time.Time       `json:"occurred_at"`
}

// Sink is one delivery target of the dispatcher.
type Sink interface {
	Name() string
	Deliver(ctx context.Context, evt Event) error
}

// Dispatcher decouples publishers from delivery. Publish enqueues and returns;
// a single worker fans each event out to every sink. Delivery is at most once:
// events are dropped when the queue is full and sink failures are not retried.
type Dispatcher struct {
	queue   chan Event
	sinks   []Sink
	logger  *zap.SugaredLogger
	timeout time.Duration

	mu     sync.RWMutex
	closed bool
	done   chan struct{}
}

// NewDispatcher builds a dispatcher with a queue of size buffer.
func NewDispatcher(logger *zap.SugaredLogger, buffer int, sinks ...Sink) *Dispatcher {
	if buffer <= 0 {
		buffer = 1
	}
	return &Dispatcher{
		queue:   make(chan Event, buffer),
		sinks:   sinks,
		logger:  logger,
		timeout: 5 * time.Second,
		done:    make(chan struct{}),
	}
}

// Publish marshals payload and enqueues it for room. It never blocks.
func (d *Dispatcher) Publish(_ context.Context, room, event string, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		d.logger.Errorw("marshal realtime payload", "room", room, "event", event, "error", err)
		return
	}
	evt := Event{Room: room, Name: event, Data: data, OccurredAt: time.Now().UTC()}

	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		return
	}
	select {
	case d.queue <- evt:
	default:
		observability.IncNotifierDropped()
		d.logger.Warnw("realtime queue full, event dropped", "room", room, "event", event)
	}
}

// Run delivers queued events until the queue is closed by Close. Events still
// queued at Close are delivered before Run returns.
func (d *Dispatcher) Run(ctx context.Context) {
	defer close(d.done)
	for evt := range d.queue {
		d.deliver(ctx, evt)
	}
}

func (d *Dispatcher) deliver(ctx context.Context, evt Event) {
	for _, sink := range d.sinks {
		sctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), d.timeout)
		err := sink.Deliver(sctx, evt)
		cancel()
		if err != nil {
			observability.IncNotifierEvent(sink.Name(), "error")
			d.logger.Warnw("realtime sink failed", "sink", sink.Name(), "room", evt.Room, "event", evt.Name, "error", err)
			continue
		}
		observability.IncNotifierEvent(sink.Name(), "delivered")
	}
}

// Close stops accepting events and waits for Run to drain the queue, or for ctx.
func (d *Dispatcher) Close(ctx context.Context) {
	d.mu.Lock()
	if !d.closed {
		d.closed = true
		close(d.queue)
	}
	d.mu.Unlock()

	select {
	case <-d.done:
	case <-ctx.Done():
	}
}
