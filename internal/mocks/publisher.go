package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"entity-chat-service/internal/rabbitmq"
)

// PublisherMock stands in for both broker publishers.
type PublisherMock struct {
	mock.Mock
}

var _ rabbitmq.Publisher = (*PublisherMock)(nil)

func (m *PublisherMock) Publish(ctx context.Context, routingKey string, event any) error {
	return m.Called(ctx, routingKey, event).Error(0)
}

func (m *PublisherMock) Close() error {
	return m.Called().Error(0)
}

// RoutingKeys lists the routing keys of the recorded Publish calls, in order.
func (m *PublisherMock) RoutingKeys() []string {
	var keys []string
	for _, call := range m.Calls {
		if call.Method == "Publish" {
			keys = append(keys, call.Arguments.String(1))
		}
	}
	return keys
}
