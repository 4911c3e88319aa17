package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"entity-chat-service/internal/models"
	"entity-chat-service/internal/service"
)

// ChatServiceMock stands in for *service.ChatService in handler tests.
type ChatServiceMock struct {
	mock.Mock
}

func (m *ChatServiceMock) CreateChat(ctx context.Context, in service.CreateChatInput) (*service.ChatView, error) {
	args := m.Called(ctx, in)
	return viewArg[service.ChatView](args, 0), args.Error(1)
}

func (m *ChatServiceMock) GetChat(ctx context.Context, chatID, userID string) (*service.ChatView, error) {
	args := m.Called(ctx, chatID, userID)
	return viewArg[service.ChatView](args, 0), args.Error(1)
}

func (m *ChatServiceMock) ListUserChats(ctx context.Context, userID string, entityType models.EntityType) (*service.ChatList, error) {
	args := m.Called(ctx, userID, entityType)
	return viewArg[service.ChatList](args, 0), args.Error(1)
}

func (m *ChatServiceMock) DeactivateChat(ctx context.Context, chatID, actorID string) (*service.ChatView, error) {
	args := m.Called(ctx, chatID, actorID)
	return viewArg[service.ChatView](args, 0), args.Error(1)
}

func (m *ChatServiceMock) AddParticipants(ctx context.Context, chatID, adderID string, inputs []service.ParticipantInput) (*service.ChatView, error) {
	args := m.Called(ctx, chatID, adderID, inputs)
	return viewArg[service.ChatView](args, 0), args.Error(1)
}

func (m *ChatServiceMock) RemoveParticipants(ctx context.Context, chatID, removerID string, userIDs []string) (*service.ChatView, error) {
	args := m.Called(ctx, chatID, removerID, userIDs)
	return viewArg[service.ChatView](args, 0), args.Error(1)
}

func (m *ChatServiceMock) UpdateParticipantPermissions(ctx context.Context, chatID, targetUserID, actorID string, patch models.PermissionsPatch) (*service.ParticipantView, error) {
	args := m.Called(ctx, chatID, targetUserID, actorID, patch)
	return viewArg[service.ParticipantView](args, 0), args.Error(1)
}

func (m *ChatServiceMock) AvailableParticipants(ctx context.Context, entityType models.EntityType, entityID, currentUserID string) ([]models.UserSummary, error) {
	args := m.Called(ctx, entityType, entityID, currentUserID)
	var users []models.UserSummary
	if val := args.Get(0); val != nil {
		users = val.([]models.UserSummary)
	}
	return users, args.Error(1)
}

func (m *ChatServiceMock) AddMessage(ctx context.Context, chatID, senderID, content string, msgType models.MessageType) (*service.MessageView, error) {
	args := m.Called(ctx, chatID, senderID, content, msgType)
	return viewArg[service.MessageView](args, 0), args.Error(1)
}

func (m *ChatServiceMock) MarkAsRead(ctx context.Context, chatID, userID string) (*service.ReadResult, error) {
	args := m.Called(ctx, chatID, userID)
	return viewArg[service.ReadResult](args, 0), args.Error(1)
}

func (m *ChatServiceMock) GetMessages(ctx context.Context, chatID, userID string, page, limit int) (*service.MessagePage, error) {
	args := m.Called(ctx, chatID, userID, page, limit)
	return viewArg[service.MessagePage](args, 0), args.Error(1)
}

func (m *ChatServiceMock) SearchMessages(ctx context.Context, chatID, userID, query string) (*service.SearchResult, error) {
	args := m.Called(ctx, chatID, userID, query)
	return viewArg[service.SearchResult](args, 0), args.Error(1)
}

func (m *ChatServiceMock) IsParticipant(ctx context.Context, chatID, userID string) (bool, error) {
	args := m.Called(ctx, chatID, userID)
	return args.Bool(0), args.Error(1)
}

func viewArg[T any](args mock.Arguments, i int) *T {
	if val := args.Get(i); val != nil {
		return val.(*T)
	}
	return nil
}
