package service

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"entity-chat-service/internal/models"
)

const maxTitleLength = 100

// ParticipantInput describes a participant to admit. Role overrides the directory
// role for the snapshot; Permissions overrides the role defaults field by field.
type ParticipantInput struct {
	UserID      string                   `json:"userId" binding:"required"`
	Role        string                   `json:"role,omitempty"`
	Permissions *models.PermissionsPatch `json:"permissions,omitempty"`
}

type CreateChatInput struct {
	EntityType   models.EntityType
	EntityID     string
	CreatorID    string
	Participants []ParticipantInput
	Title        string
	ChatType     models.ChatType
}

// CreateChat persists a new chat. Participants that the directory cannot resolve
// are dropped. The creator is not added implicitly.
func (s *ChatService) CreateChat(ctx context.Context, in CreateChatInput) (*ChatView, error) {
	if !in.EntityType.Valid() {
		return nil, validationErr(CodeInvalidEntityType)
	}
	if strings.TrimSpace(in.EntityID) == "" || in.CreatorID == "" {
		return nil, validationErr(CodeInvalidInput)
	}
	title := strings.TrimSpace(in.Title)
	if utf8.RuneCountInString(title) > maxTitleLength {
		return nil, validationErr(CodeInvalidTitle)
	}
	chatType := in.ChatType
	if chatType == "" {
		chatType = models.ChatGeneral
	}
	if !chatType.Valid() {
		return nil, validationErr(CodeInvalidInput)
	}

	now := s.now()
	participants, err := s.admit(ctx, in.CreatorID, in.Participants, nil, now)
	if err != nil {
		return nil, err
	}

	chat := &models.Chat{
		EntityType:   in.EntityType,
		EntityID:     in.EntityID,
		CreatedBy:    in.CreatorID,
		Title:        title,
		ChatType:     chatType,
		Participants: participants,
		Messages:     []models.Message{},
		IsActive:     true,
		LastActivity: now,
		Settings:     models.DefaultChatSettings(),
	}
	if err := s.chats.CreateChat(ctx, chat); err != nil {
		return nil, infraErr(err)
	}
	s.logger.Infow("chat created", "chat_id", chat.ID.Hex(), "entity_type", chat.EntityType, "participants", len(participants))

	users := s.expandAfterWrite(ctx, chatUserIDs(chat)...)
	return chatView(chat, users), nil
}

// admit resolves inputs against the directory and builds participant entries
// for the ones that exist and are not in existing. Duplicate inputs collapse to
// their first occurrence.
func (s *ChatService) admit(ctx context.Context, adderID string, inputs []ParticipantInput, existing *models.Chat, now time.Time) ([]models.Participant, error) {
	pending := make([]ParticipantInput, 0, len(inputs))
	seen := make(map[string]struct{}, len(inputs))
	ids := make([]string, 0, len(inputs))
	for _, in := range inputs {
		if in.UserID == "" {
			continue
		}
		if _, dup := seen[in.UserID]; dup {
			continue
		}
		if existing != nil && existing.HasParticipant(in.UserID) {
			continue
		}
		seen[in.UserID] = struct{}{}
		pending = append(pending, in)
		ids = append(ids, in.UserID)
	}
	if len(pending) == 0 {
		return []models.Participant{}, nil
	}

	users, err := s.users.FindByIDs(ctx, ids)
	if err != nil {
		return nil, infraErr(err)
	}
	byID := make(map[string]models.User, len(users))
	for _, u := range users {
		byID[u.ID] = u
	}

	out := make([]models.Participant, 0, len(pending))
	for _, in := range pending {
		user, ok := byID[in.UserID]
		if !ok {
			continue
		}
		role := in.Role
		if role == "" {
			role = user.Role
		}
		perms := models.DefaultPermissions(role)
		if in.Permissions != nil {
			perms = in.Permissions.Apply(perms)
		}
		out = append(out, models.Participant{
			User:        user.ID,
			Role:        role,
			JoinedAt:    now,
			AddedBy:     adderID,
			Permissions: perms,
		})
	}
	return out, nil
}

// GetChat returns the aggregate to a current participant.
func (s *ChatService) GetChat(ctx context.Context, chatID, userID string) (*ChatView, error) {
	chat, err := s.loadChat(ctx, chatID)
	if err != nil {
		return nil, err
	}
	if !chat.HasParticipant(userID) {
		return nil, forbiddenErr(CodeNotParticipant)
	}
	users, err := s.expand(ctx, chatUserIDs(chat)...)
	if err != nil {
		return nil, err
	}
	return chatView(chat, users), nil
}

// canManage reports whether actorID is the creator or an elevated participant.
func canManage(chat *models.Chat, actorID string) bool {
	if chat.CreatedBy == actorID {
		return true
	}
	p, ok := chat.Participant(actorID)
	return ok && p.Elevated()
}

// DeactivateChat hides the chat from active listings. Messages and participants
// are kept.
func (s *ChatService) DeactivateChat(ctx context.Context, chatID, actorID string) (*ChatView, error) {
	var at time.Time
	chat, err := s.mutate(ctx, chatID, func(chat *models.Chat) (bool, error) {
		if !canManage(chat, actorID) {
			return false, forbiddenErr(CodeNotAuthorized)
		}
		at = s.now()
		chat.IsActive = false
		chat.Touch(at)
		return true, nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.Infow("chat deactivated", "chat_id", chatID, "by", actorID)

	s.publish(ctx, chat, EventChatDeactivated, map[string]any{
		"chatId":        chat.ID.Hex(),
		"deactivatedBy": actorID,
		"at":            at,
	})
	users := s.expandAfterWrite(ctx, chatUserIDs(chat)...)
	return chatView(chat, users), nil
}
