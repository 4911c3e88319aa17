package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"entity-chat-service/internal/models"
	"entity-chat-service/internal/repositories"
	"entity-chat-service/internal/service"
)

type ChatRepositoryMock struct {
	mock.Mock
}

func (m *ChatRepositoryMock) CreateChat(ctx context.Context, chat *models.Chat) error {
	args := m.Called(ctx, chat)
	return args.Error(0)
}

func (m *ChatRepositoryMock) GetChat(ctx context.Context, id primitive.ObjectID) (*models.Chat, error) {
	args := m.Called(ctx, id)
	var chat *models.Chat
	if val := args.Get(0); val != nil {
		chat = val.(*models.Chat)
	}
	return chat, args.Error(1)
}

func (m *ChatRepositoryMock) ListActiveChatsForUser(ctx context.Context, userID string, entityType models.EntityType) ([]models.Chat, error) {
	args := m.Called(ctx, userID, entityType)
	var list []models.Chat
	if val := args.Get(0); val != nil {
		list = val.([]models.Chat)
	}
	return list, args.Error(1)
}

func (m *ChatRepositoryMock) SaveChat(ctx context.Context, chat *models.Chat) error {
	args := m.Called(ctx, chat)
	return args.Error(0)
}

type UserDirectoryMock struct {
	mock.Mock
}

func (m *UserDirectoryMock) FindByIDs(ctx context.Context, ids []string) ([]models.User, error) {
	args := m.Called(ctx, ids)
	var users []models.User
	if val := args.Get(0); val != nil {
		users = val.([]models.User)
	}
	return users, args.Error(1)
}

func (m *UserDirectoryMock) FindByID(ctx context.Context, id string) (models.User, error) {
	args := m.Called(ctx, id)
	var user models.User
	if val := args.Get(0); val != nil {
		user = val.(models.User)
	}
	return user, args.Error(1)
}

func (m *UserDirectoryMock) ListActive(ctx context.Context) ([]models.User, error) {
	args := m.Called(ctx)
	var users []models.User
	if val := args.Get(0); val != nil {
		users = val.([]models.User)
	}
	return users, args.Error(1)
}

func (m *UserDirectoryMock) ListActiveByRoles(ctx context.Context, roles []string) ([]models.User, error) {
	args := m.Called(ctx, roles)
	var users []models.User
	if val := args.Get(0); val != nil {
		users = val.([]models.User)
	}
	return users, args.Error(1)
}

type TaskDirectoryMock struct {
	mock.Mock
}

func (m *TaskDirectoryMock) ResponsibleFor(ctx context.Context, taskID string) (string, error) {
	args := m.Called(ctx, taskID)
	return args.String(0), args.Error(1)
}

type NotifierMock struct {
	mock.Mock
}

func (m *NotifierMock) Publish(ctx context.Context, room, event string, payload any) {
	m.Called(ctx, room, event, payload)
}

var (
	_ repositories.ChatRepository = (*ChatRepositoryMock)(nil)
	_ repositories.UserDirectory  = (*UserDirectoryMock)(nil)
	_ repositories.TaskDirectory  = (*TaskDirectoryMock)(nil)
	_ service.Notifier            = (*NotifierMock)(nil)
)
