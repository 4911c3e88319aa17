package service

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"entity-chat-service/internal/models"
	"entity-chat-service/internal/observability"
	"entity-chat-service/internal/repositories"
)

const (
	maxContentLength = 1000
	DefaultPageSize  = 50
	MaxPageSize      = 200
)

// AddMessage appends a user message. The sender must be a participant allowed to
// send; their own read receipt is recorded at send time.
func (s *ChatService) AddMessage(ctx context.Context, chatID, senderID, content string, msgType models.MessageType) (*MessageView, error) {
	if strings.TrimSpace(content) == "" || utf8.RuneCountInString(content) > maxContentLength {
		return nil, validationErr(CodeInvalidContent)
	}
	if msgType == "" {
		msgType = models.MessageText
	}
	if !msgType.Sendable() {
		return nil, validationErr(CodeInvalidMessageType)
	}

	var msg models.Message
	chat, err := s.mutate(ctx, chatID, func(chat *models.Chat) (bool, error) {
		p, ok := chat.Participant(senderID)
		if !ok || !p.Permissions.CanSendMessages {
			return false, forbiddenErr(CodeNotAuthorized)
		}
		now := s.now()
		msg = models.Message{
			ID:          primitive.NewObjectID(),
			Sender:      senderID,
			Content:     content,
			MessageType: msgType,
			Timestamp:   now,
			IsRead:      []models.ReadReceipt{{User: senderID, ReadAt: now}},
		}
		chat.Messages = append(chat.Messages, msg)
		chat.Touch(now)
		return true, nil
	})
	if err != nil {
		return nil, err
	}

	observability.IncMessagePosted(string(msg.MessageType))
	view := messageView(msg, s.senderSummary(ctx, senderID))
	s.publish(ctx, chat, EventNewMessage, map[string]any{
		"chatId":     chat.ID.Hex(),
		"message":    view,
		"entityType": chat.EntityType,
		"entityId":   chat.EntityID,
	})
	return view, nil
}

// senderSummary resolves the author of a message that is already saved. A user
// gone from the directory expands to an id-only summary.
func (s *ChatService) senderSummary(ctx context.Context, senderID string) summaries {
	user, err := s.users.FindByID(ctx, senderID)
	if err != nil {
		if !errors.Is(err, repositories.ErrUserNotFound) {
			s.logger.Warnw("resolve message sender", "user_id", senderID, "error", err)
		}
		return summaries{}
	}
	return summaries{user.ID: user.Summary()}
}

// MarkAsRead records a receipt for userID on every message sent by someone else
// that userID has not read yet. Repeated calls add nothing.
func (s *ChatService) MarkAsRead(ctx context.Context, chatID, userID string) (*ReadResult, error) {
	var (
		marked int
		readAt time.Time
	)
	chat, err := s.mutate(ctx, chatID, func(chat *models.Chat) (bool, error) {
		marked = 0
		if !chat.HasParticipant(userID) {
			return false, forbiddenErr(CodeNotParticipant)
		}
		readAt = s.now()
		for i := range chat.Messages {
			m := &chat.Messages[i]
			if m.Sender == userID {
				continue
			}
			if m.MarkRead(userID, readAt) {
				marked++
			}
		}
		return marked > 0, nil
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, chat, EventMessagesRead, map[string]any{
		"chatId": chat.ID.Hex(),
		"userId": userID,
		"readAt": readAt,
	})
	return &ReadResult{ChatID: chat.ID.Hex(), UserID: userID, ReadAt: readAt, Marked: marked}, nil
}

// pageWindow computes the [start, end) slice of a chronological list of total
// items for a latest-first page of size limit. Pages past the oldest message
// yield an empty window; the bound is checked before multiplying so that huge
// page numbers cannot overflow.
func pageWindow(total, page, limit int) (start, end int) {
	skip := page - 1
	if total == 0 || skip >= (total+limit-1)/limit {
		return 0, 0
	}
	end = total - skip*limit
	start = end - limit
	if start < 0 {
		start = 0
	}
	return start, end
}

func normalizePage(page, limit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = DefaultPageSize
	}
	if limit > MaxPageSize {
		limit = MaxPageSize
	}
	return page, limit
}

// GetMessages pages through the history newest page first; each page is in
// chronological order.
func (s *ChatService) GetMessages(ctx context.Context, chatID, userID string, page, limit int) (*MessagePage, error) {
	chat, err := s.loadChat(ctx, chatID)
	if err != nil {
		return nil, err
	}
	if !chat.HasParticipant(userID) {
		return nil, forbiddenErr(CodeNotParticipant)
	}

	page, limit = normalizePage(page, limit)
	total := len(chat.Messages)
	start, end := pageWindow(total, page, limit)

	msgs := make([]models.Message, 0, end-start)
	msgs = append(msgs, chat.Messages[start:end]...)
	return &MessagePage{
		Messages: msgs,
		Page:     page,
		Limit:    limit,
		Total:    total,
		HasMore:  start > 0,
	}, nil
}

// SearchMessages returns messages whose content contains query, ignoring case,
// in stored order.
func (s *ChatService) SearchMessages(ctx context.Context, chatID, userID, query string) (*SearchResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, validationErr(CodeInvalidInput)
	}
	chat, err := s.loadChat(ctx, chatID)
	if err != nil {
		return nil, err
	}
	if !chat.HasParticipant(userID) {
		return nil, forbiddenErr(CodeNotParticipant)
	}

	needle := strings.ToLower(query)
	matches := []models.Message{}
	for _, m := range chat.Messages {
		if strings.Contains(strings.ToLower(m.Content), needle) {
			matches = append(matches, m)
		}
	}
	return &SearchResult{Query: query, Messages: matches, Count: len(matches)}, nil
}

// ListUserChats returns the active chats userID participates in, most recently
// active first. An empty entityType lists every entity.
func (s *ChatService) ListUserChats(ctx context.Context, userID string, entityType models.EntityType) (*ChatList, error) {
	if entityType != "" && !entityType.Valid() {
		return nil, validationErr(CodeInvalidEntityType)
	}
	chats, err := s.chats.ListActiveChatsForUser(ctx, userID, entityType)
	if err != nil {
		return nil, infraErr(err)
	}

	var ids []string
	for i := range chats {
		for _, p := range chats[i].Participants {
			ids = append(ids, p.User)
		}
	}
	users, err := s.expand(ctx, ids...)
	if err != nil {
		return nil, err
	}

	items := make([]ChatListItem, 0, len(chats))
	for i := range chats {
		items = append(items, chatListItem(&chats[i], userID, users))
	}
	return &ChatList{
		Chats:      items,
		Pagination: Pagination{Page: 1, Pages: 1, Total: len(items)},
	}, nil
}
