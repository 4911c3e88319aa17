package service

import (
	"time"

	"entity-chat-service/internal/models"
)

// The views below are read-side projections: user references are expanded to
// display fields for clients. They are never persisted.

type ParticipantView struct {
	User        models.UserSummary `json:"user"`
	Role        string             `json:"role"`
	JoinedAt    time.Time          `json:"joinedAt"`
	AddedBy     string             `json:"addedBy"`
	Permissions models.Permissions `json:"permissions"`
}

type ChatView struct {
	ID           string              `json:"id"`
	EntityType   models.EntityType   `json:"entityType"`
	EntityID     string              `json:"entityId"`
	CreatedBy    models.UserSummary  `json:"createdBy"`
	Title        string              `json:"title,omitempty"`
	ChatType     models.ChatType     `json:"chatType"`
	Participants []ParticipantView   `json:"participants"`
	Messages     []models.Message    `json:"messages"`
	IsActive     bool                `json:"isActive"`
	LastActivity time.Time           `json:"lastActivity"`
	Settings     models.ChatSettings `json:"settings"`
	CreatedAt    time.Time           `json:"createdAt"`
	UpdatedAt    time.Time           `json:"updatedAt"`
}

type MessageView struct {
	ID          string               `json:"id"`
	Sender      models.UserSummary   `json:"sender"`
	Content     string               `json:"content"`
	MessageType models.MessageType   `json:"messageType"`
	Timestamp   time.Time            `json:"timestamp"`
	IsRead      []models.ReadReceipt `json:"isRead"`
}

// ChatListItem is one entry of a user's chat list.
type ChatListItem struct {
	ID           string              `json:"id"`
	EntityType   models.EntityType   `json:"entityType"`
	EntityID     string              `json:"entityId"`
	CreatedBy    string              `json:"createdBy"`
	Title        string              `json:"title,omitempty"`
	ChatType     models.ChatType     `json:"chatType"`
	Participants []ParticipantView   `json:"participants"`
	IsActive     bool                `json:"isActive"`
	LastActivity time.Time           `json:"lastActivity"`
	Settings     models.ChatSettings `json:"settings"`
	UnreadCount  int                 `json:"unreadCount"`
	LastMessage  *models.Message     `json:"lastMessage"`
	CreatedAt    time.Time           `json:"createdAt"`
}

// Pagination is reported by the chat list. The list is not paginated: it is
// always a single page holding every result.
type Pagination struct {
	Page  int `json:"page"`
	Pages int `json:"pages"`
	Total int `json:"total"`
}

type ChatList struct {
	Chats      []ChatListItem `json:"chats"`
	Pagination Pagination     `json:"pagination"`
}

type MessagePage struct {
	Messages []models.Message `json:"messages"`
	Page     int              `json:"page"`
	Limit    int              `json:"limit"`
	Total    int              `json:"total"`
	HasMore  bool             `json:"hasMore"`
}

type SearchResult struct {
	Query    string           `json:"query"`
	Messages []models.Message `json:"messages"`
	Count    int              `json:"count"`
}

type ReadResult struct {
	ChatID string    `json:"chatId"`
	UserID string    `json:"userId"`
	ReadAt time.Time `json:"readAt"`
	Marked int       `json:"marked"`
}

// summaries indexes directory users by id for expansion.
type summaries map[string]models.UserSummary

func (s summaries) get(id string) models.UserSummary {
	if u, ok := s[id]; ok {
		return u
	}
	return models.UserSummary{ID: id}
}

func participantViews(participants []models.Participant, users summaries) []ParticipantView {
	out := make([]ParticipantView, 0, len(participants))
	for _, p := range participants {
		out = append(out, ParticipantView{
			User:        users.get(p.User),
			Role:        p.Role,
			JoinedAt:    p.JoinedAt,
			AddedBy:     p.AddedBy,
			Permissions: p.Permissions,
		})
	}
	return out
}

func chatView(chat *models.Chat, users summaries) *ChatView {
	return &ChatView{
		ID:           chat.ID.Hex(),
		EntityType:   chat.EntityType,
		EntityID:     chat.EntityID,
		CreatedBy:    users.get(chat.CreatedBy),
		Title:        chat.Title,
		ChatType:     chat.ChatType,
		Participants: participantViews(chat.Participants, users),
		Messages:     chat.Messages,
		IsActive:     chat.IsActive,
		LastActivity: chat.LastActivity,
		Settings:     chat.Settings,
		CreatedAt:    chat.CreatedAt,
		UpdatedAt:    chat.UpdatedAt,
	}
}

func messageView(m models.Message, users summaries) *MessageView {
	return &MessageView{
		ID:          m.ID.Hex(),
		Sender:      users.get(m.Sender),
		Content:     m.Content,
		MessageType: m.MessageType,
		Timestamp:   m.Timestamp,
		IsRead:      m.IsRead,
	}
}

func chatListItem(chat *models.Chat, userID string, users summaries) ChatListItem {
	item := ChatListItem{
		ID:           chat.ID.Hex(),
		EntityType:   chat.EntityType,
		EntityID:     chat.EntityID,
		CreatedBy:    chat.CreatedBy,
		Title:        chat.Title,
		ChatType:     chat.ChatType,
		Participants: participantViews(chat.Participants, users),
		IsActive:     chat.IsActive,
		LastActivity: chat.LastActivity,
		Settings:     chat.Settings,
		UnreadCount:  chat.UnreadCount(userID),
		CreatedAt:    chat.CreatedAt,
	}
	if last, ok := chat.LastMessage(); ok {
		msg := *last
		item.LastMessage = &msg
	}
	return item
}
