package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MessageType tags the content of a message.
type MessageType string

const (
	MessageText   MessageType = "text"
	MessageFile   MessageType = "file"
	MessageImage  MessageType = "image"
	MessageSystem MessageType = "system"
)

// Sendable reports whether users may post messages of this type. System messages
// are only produced by the chat service itself.
func (t MessageType) Sendable() bool {
	switch t {
	case MessageText, MessageFile, MessageImage:
		return true
	}
	return false
}

// ReadReceipt records that a user has seen a message.
type ReadReceipt struct {
	User   string    `bson:"user" json:"user"`
	ReadAt time.Time `bson:"readAt" json:"readAt"`
}

// Message is embedded in the chat document. Messages are append-only.
type Message struct {
	ID          primitive.ObjectID `bson:"_id" json:"id"`
	Sender      string             `bson:"sender" json:"sender"`
	Content     string             `bson:"content" json:"content"`
	MessageType MessageType        `bson:"messageType" json:"messageType"`
	Timestamp   time.Time          `bson:"timestamp" json:"timestamp"`
	IsRead      []ReadReceipt      `bson:"isRead" json:"isRead"`
}

// ReadBy reports whether userID already has a read receipt on the message.
func (m *Message) ReadBy(userID string) bool {
	for _, r := range m.IsRead {
		if r.User == userID {
			return true
		}
	}
	return false
}

// MarkRead adds a receipt for userID unless one exists. It returns true when a
// receipt was added.
func (m *Message) MarkRead(userID string, at time.Time) bool {
	if m.ReadBy(userID) {
		return false
	}
	m.IsRead = append(m.IsRead, ReadReceipt{User: userID, ReadAt: at})
	return true
}
