package realtime

import (
	"context"
	"encoding/json"

	"entity-chat-service/internal/models"
)

// RoomHub holds the websocket connections of this process, grouped by room.
type RoomHub interface {
	Broadcast(room string, payload []byte) int
	Kick(room, userID string) int
	CloseRoom(room string) int
}

// EncodeFrame renders evt as the frame websocket clients receive.
func EncodeFrame(evt Event) ([]byte, error) {
	return json.Marshal(evt)
}

// deliverLocal broadcasts evt to the room, then applies the membership change
// it carries: removed participants are disconnected once they have seen the
// removal, and a deactivated chat loses every connection.
func deliverLocal(hub RoomHub, evt Event) error {
	payload, err := EncodeFrame(evt)
	if err != nil {
		return err
	}
	hub.Broadcast(evt.Room, payload)

	switch evt.Name {
	case models.EventParticipantsRemoved:
		var body struct {
			Removed []string `json:"removed"`
		}
		if err := json.Unmarshal(evt.Data, &body); err != nil {
			return err
		}
		for _, userID := range body.Removed {
			hub.Kick(evt.Room, userID)
		}
	case models.EventChatDeactivated:
		hub.CloseRoom(evt.Room)
	}
	return nil
}

// HubSink writes events to the connections held by this process.
type HubSink struct {
	hub RoomHub
}

func NewHubSink(hub RoomHub) *HubSink {
	return &HubSink{hub: hub}
}

func (s *HubSink) Name() string { return "ws" }

func (s *HubSink) Deliver(_ context.Context, evt Event) error {
	return deliverLocal(s.hub, evt)
}

// EventPublisher is a message broker client.
type EventPublisher interface {
	Publish(ctx context.Context, routingKey string, event any) error
}

// BrokerSink forwards events to the outbound event stream under the routing
// key "chat.<event>".
type BrokerSink struct {
	name      string
	publisher EventPublisher
}

func NewBrokerSink(name string, publisher EventPublisher) *BrokerSink {
	return &BrokerSink{name: name, publisher: publisher}
}

func (s *BrokerSink) Name() string { return s.name }

func (s *BrokerSink) Deliver(ctx context.Context, evt Event) error {
	return s.publisher.Publish(ctx, RoutingKey(evt.Name), evt)
}

// RoutingKey names the broker routing key for an event.
func RoutingKey(event string) string {
	return "chat." + event
}
