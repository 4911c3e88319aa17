package service

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"entity-chat-service/internal/models"
	"entity-chat-service/internal/observability"
	"entity-chat-service/internal/repositories"
)

// Realtime event names published to chat rooms.
const (
	EventParticipantsAdded   = models.EventParticipantsAdded
	EventParticipantsRemoved = models.EventParticipantsRemoved
	EventNewMessage          = models.EventNewMessage
	EventMessagesRead        = models.EventMessagesRead
	EventChatDeactivated     = models.EventChatDeactivated
)

// Notifier hands events to the realtime layer. Publish must not block and
// delivery failures are the notifier's concern, not the caller's.
type Notifier interface {
	Publish(ctx context.Context, room, event string, payload any)
}

// Option customizes a ChatService.
type Option func(*ChatService)

// WithSaveRetries bounds how many read-modify-write cycles a mutation attempts
// before reporting a conflict.
func WithSaveRetries(n int) Option {
	return func(s *ChatService) {
		if n > 0 {
			s.retries = n
		}
	}
}

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(s *ChatService) { s.now = now }
}

// ChatService owns the chat aggregate: lifecycle, participants, messages and
// read tracking.
type ChatService struct {
	chats    repositories.ChatRepository
	users    repositories.UserDirectory
	tasks    repositories.TaskDirectory
	notifier Notifier
	logger   *zap.SugaredLogger
	retries  int
	now      func() time.Time
}

// NewChatService wires the service to its collaborators.
func NewChatService(chats repositories.ChatRepository, users repositories.UserDirectory, tasks repositories.TaskDirectory, notifier Notifier, logger *zap.SugaredLogger, opts ...Option) *ChatService {
	s := &ChatService{
		chats:    chats,
		users:    users,
		tasks:    tasks,
		notifier: notifier,
		logger:   logger,
		retries:  3,
		now:      func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func parseChatID(id string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, validationErr(CodeInvalidChatID)
	}
	return oid, nil
}

func (s *ChatService) loadChat(ctx context.Context, chatID string) (*models.Chat, error) {
	oid, err := parseChatID(chatID)
	if err != nil {
		return nil, err
	}
	chat, err := s.chats.GetChat(ctx, oid)
	if err != nil {
		if errors.Is(err, repositories.ErrChatNotFound) {
			return nil, notFoundErr(CodeChatNotFound)
		}
		return nil, infraErr(err)
	}
	return chat, nil
}

// mutate runs fn against a fresh load of the chat and saves the result. When
// another writer saved in between, the whole cycle is replayed on a new load,
// up to s.retries times. fn reports false when nothing changed; the chat is
// then returned without a save.
func (s *ChatService) mutate(ctx context.Context, chatID string, fn func(chat *models.Chat) (bool, error)) (*models.Chat, error) {
	for attempt := 1; attempt <= s.retries; attempt++ {
		chat, err := s.loadChat(ctx, chatID)
		if err != nil {
			return nil, err
		}
		changed, err := fn(chat)
		if err != nil {
			return nil, err
		}
		if !changed {
			return chat, nil
		}

		err = s.chats.SaveChat(ctx, chat)
		if err == nil {
			return chat, nil
		}
		if !errors.Is(err, repositories.ErrVersionConflict) {
			return nil, infraErr(err)
		}
		observability.IncVersionConflict()
		s.logger.Warnw("chat save conflict", "chat_id", chatID, "attempt", attempt)
	}
	return nil, newError(KindConflict, CodeConcurrentUpdate, repositories.ErrVersionConflict)
}

// expand resolves user ids to display summaries. Ids missing from the directory
// expand to an id-only summary.
func (s *ChatService) expand(ctx context.Context, ids ...string) (summaries, error) {
	seen := make(map[string]struct{}, len(ids))
	unique := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok || id == "" {
			continue
		}
		seen[id] = struct{}{}
		unique = append(unique, id)
	}

	users, err := s.users.FindByIDs(ctx, unique)
	if err != nil {
		return nil, infraErr(err)
	}
	out := make(summaries, len(users))
	for _, u := range users {
		out[u.ID] = u.Summary()
	}
	return out, nil
}

// expandAfterWrite is used once a mutation is persisted: a directory failure
// there must not turn a successful write into an error.
func (s *ChatService) expandAfterWrite(ctx context.Context, ids ...string) summaries {
	users, err := s.expand(ctx, ids...)
	if err != nil {
		s.logger.Warnw("expand users after write", "error", err)
		return summaries{}
	}
	return users
}

func chatUserIDs(chat *models.Chat) []string {
	ids := make([]string, 0, len(chat.Participants)+1)
	ids = append(ids, chat.CreatedBy)
	for _, p := range chat.Participants {
		ids = append(ids, p.User)
	}
	return ids
}

func (s *ChatService) publish(ctx context.Context, chat *models.Chat, event string, payload any) {
	if s.notifier == nil {
		return
	}
	s.notifier.Publish(ctx, chat.RoomChannel(), event, payload)
}

// IsParticipant reports whether userID currently belongs to the chat.
func (s *ChatService) IsParticipant(ctx context.Context, chatID, userID string) (bool, error) {
	chat, err := s.loadChat(ctx, chatID)
	if err != nil {
		return false, err
	}
	return chat.HasParticipant(userID), nil
}
