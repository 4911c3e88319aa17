package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// EntityType identifies the domain object a chat is attached to.
type EntityType string

const (
	EntityTask    EntityType = "TacheExecutee"
	EntityProject EntityType = "Projet"
	EntityTeam    EntityType = "Equipe"
	EntityService EntityType = "Service"
)

// Valid reports whether t belongs to the fixed set of attachable entities.
func (t EntityType) Valid() bool {
	switch t {
	case EntityTask, EntityProject, EntityTeam, EntityService:
		return true
	}
	return false
}

// ChatType is the display category of a chat.
type ChatType string

const (
	ChatGeneral      ChatType = "general"
	ChatTask         ChatType = "task"
	ChatAnnouncement ChatType = "announcement"
	ChatSupport      ChatType = "support"
)

func (t ChatType) Valid() bool {
	switch t {
	case ChatGeneral, ChatTask, ChatAnnouncement, ChatSupport:
		return true
	}
	return false
}

// ChatSettings are stored with the chat but not enforced by any operation.
type ChatSettings struct {
	AllowFileUpload bool `bson:"allowFileUpload" json:"allowFileUpload"`
	MaxParticipants int  `bson:"maxParticipants" json:"maxParticipants"`
}

// DefaultChatSettings mirrors the defaults applied at creation.
func DefaultChatSettings() ChatSettings {
	return ChatSettings{AllowFileUpload: true, MaxParticipants: 50}
}

// Chat is the aggregate root: participants and messages live inside the document
// and are loaded and saved as one unit.
type Chat struct {
	ID           primitive.ObjectID `bson:"_id" json:"id"`
	EntityType   EntityType         `bson:"entityType" json:"entityType"`
	EntityID     string             `bson:"entityId" json:"entityId"`
	CreatedBy    string             `bson:"createdBy" json:"createdBy"`
	Title        string             `bson:"title,omitempty" json:"title,omitempty"`
	ChatType     ChatType           `bson:"chatType" json:"chatType"`
	Participants []Participant      `bson:"participants" json:"participants"`
	Messages     []Message          `bson:"messages" json:"messages"`
	IsActive     bool               `bson:"isActive" json:"isActive"`
	LastActivity time.Time          `bson:"lastActivity" json:"lastActivity"`
	Settings     ChatSettings       `bson:"settings" json:"settings"`
	CreatedAt    time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt    time.Time          `bson:"updatedAt" json:"updatedAt"`
	// Version is the optimistic concurrency token checked on every save.
	Version int64 `bson:"version" json:"-"`
}

// RoomChannel is the broadcast address of the chat.
func (c *Chat) RoomChannel() string {
	return RoomChannel(c.ID.Hex())
}

// RoomChannel derives the realtime room of a chat id.
func RoomChannel(chatID string) string {
	return "chat_" + chatID
}

// Participant returns the participant entry of userID, if present.
func (c *Chat) Participant(userID string) (*Participant, bool) {
	for i := range c.Participants {
		if c.Participants[i].User == userID {
			return &c.Participants[i], true
		}
	}
	return nil, false
}

// HasParticipant reports whether userID currently belongs to the chat.
func (c *Chat) HasParticipant(userID string) bool {
	_, ok := c.Participant(userID)
	return ok
}

// Touch bumps lastActivity without ever moving it backwards.
func (c *Chat) Touch(now time.Time) {
	if now.After(c.LastActivity) {
		c.LastActivity = now
	}
}

// UnreadCount counts messages not sent by userID that userID has not read.
func (c *Chat) UnreadCount(userID string) int {
	count := 0
	for i := range c.Messages {
		m := &c.Messages[i]
		if m.Sender != userID && !m.ReadBy(userID) {
			count++
		}
	}
	return count
}

// LastMessage returns the most recent message, if any.
func (c *Chat) LastMessage() (*Message, bool) {
	if len(c.Messages) == 0 {
		return nil, false
	}
	return &c.Messages[len(c.Messages)-1], true
}
