package models

// Realtime event names published to chat rooms.
const (
	EventParticipantsAdded   = "participants_added"
	EventParticipantsRemoved = "participants_removed"
	EventNewMessage          = "new_message"
	EventMessagesRead        = "messages_read"
	EventChatDeactivated     = "chat_deactivated"
)
