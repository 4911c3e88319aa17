package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"entity-chat-service/internal/models"
	"entity-chat-service/internal/repositories"
)

// requireElevatedParticipant checks participant management rights. An actor
// missing from the participant list has no rights at all.
func requireElevatedParticipant(chat *models.Chat, actorID string) error {
	p, ok := chat.Participant(actorID)
	if !ok || !p.Elevated() {
		return forbiddenErr(CodeNotAuthorized)
	}
	return nil
}

func systemMessage(senderID, content string, at time.Time) models.Message {
	return models.Message{
		ID:          primitive.NewObjectID(),
		Sender:      senderID,
		Content:     content,
		MessageType: models.MessageSystem,
		Timestamp:   at,
		IsRead:      []models.ReadReceipt{},
	}
}

// AddParticipants admits new participants. Ids already present or unknown to the
// directory are skipped; when nothing is left to add the chat is returned as is.
func (s *ChatService) AddParticipants(ctx context.Context, chatID, adderID string, inputs []ParticipantInput) (*ChatView, error) {
	if len(inputs) == 0 {
		return nil, validationErr(CodeInvalidInput)
	}

	var (
		added []models.Participant
		sys   models.Message
	)
	chat, err := s.mutate(ctx, chatID, func(chat *models.Chat) (bool, error) {
		added = nil
		if err := requireElevatedParticipant(chat, adderID); err != nil {
			return false, err
		}
		now := s.now()
		newcomers, err := s.admit(ctx, adderID, inputs, chat, now)
		if err != nil {
			return false, err
		}
		if len(newcomers) == 0 {
			return false, nil
		}
		added = newcomers
		sys = systemMessage(adderID, fmt.Sprintf("%d participant(s) ajouté(s)", len(added)), now)
		chat.Participants = append(chat.Participants, added...)
		chat.Messages = append(chat.Messages, sys)
		chat.Touch(now)
		return true, nil
	})
	if err != nil {
		return nil, err
	}

	users := s.expandAfterWrite(ctx, chatUserIDs(chat)...)
	if len(added) > 0 {
		s.logger.Infow("participants added", "chat_id", chatID, "count", len(added), "by", adderID)
		s.publish(ctx, chat, EventParticipantsAdded, map[string]any{
			"chatId":       chat.ID.Hex(),
			"participants": participantViews(added, users),
			"message":      messageView(sys, users),
		})
	}
	return chatView(chat, users), nil
}

// RemoveParticipants drops the listed users from the chat. The creator is always
// kept, whatever the list says.
func (s *ChatService) RemoveParticipants(ctx context.Context, chatID, removerID string, userIDs []string) (*ChatView, error) {
	if len(userIDs) == 0 {
		return nil, validationErr(CodeInvalidInput)
	}
	targets := make(map[string]struct{}, len(userIDs))
	for _, id := range userIDs {
		targets[id] = struct{}{}
	}

	var (
		removed []string
		sys     models.Message
	)
	chat, err := s.mutate(ctx, chatID, func(chat *models.Chat) (bool, error) {
		removed = nil
		if err := requireElevatedParticipant(chat, removerID); err != nil {
			return false, err
		}

		kept := make([]models.Participant, 0, len(chat.Participants))
		for _, p := range chat.Participants {
			if _, drop := targets[p.User]; drop && p.User != chat.CreatedBy {
				removed = append(removed, p.User)
				continue
			}
			kept = append(kept, p)
		}
		if len(removed) == 0 {
			return false, nil
		}

		now := s.now()
		sys = systemMessage(removerID, fmt.Sprintf("%d participant(s) retiré(s)", len(removed)), now)
		chat.Participants = kept
		chat.Messages = append(chat.Messages, sys)
		chat.Touch(now)
		return true, nil
	})
	if err != nil {
		return nil, err
	}

	users := s.expandAfterWrite(ctx, append(chatUserIDs(chat), removerID)...)
	if len(removed) > 0 {
		s.logger.Infow("participants removed", "chat_id", chatID, "count", len(removed), "by", removerID)
		s.publish(ctx, chat, EventParticipantsRemoved, map[string]any{
			"chatId":  chat.ID.Hex(),
			"removed": removed,
			"message": messageView(sys, users),
		})
	}
	return chatView(chat, users), nil
}

// UpdateParticipantPermissions merges patch into the permissions of the
// participant identified by targetUserID.
func (s *ChatService) UpdateParticipantPermissions(ctx context.Context, chatID, targetUserID, actorID string, patch models.PermissionsPatch) (*ParticipantView, error) {
	var updated models.Participant
	_, err := s.mutate(ctx, chatID, func(chat *models.Chat) (bool, error) {
		if !canManage(chat, actorID) {
			return false, forbiddenErr(CodeNotAuthorized)
		}
		target, ok := chat.Participant(targetUserID)
		if !ok {
			return false, notFoundErr(CodeParticipantNotFound)
		}
		if patch.Empty() {
			updated = *target
			return false, nil
		}
		target.Permissions = patch.Apply(target.Permissions)
		updated = *target
		chat.Touch(s.now())
		return true, nil
	})
	if err != nil {
		return nil, err
	}

	users := s.expandAfterWrite(ctx, updated.User)
	view := participantViews([]models.Participant{updated}, users)[0]
	return &view, nil
}

// AvailableParticipants lists the active directory users that could join a chat
// about the given entity, excluding the current user. For tasks, candidates are
// the task's responsible user and the administrators.
func (s *ChatService) AvailableParticipants(ctx context.Context, entityType models.EntityType, entityID, currentUserID string) ([]models.UserSummary, error) {
	if !entityType.Valid() {
		return nil, validationErr(CodeInvalidEntityType)
	}

	var candidates []models.User
	if entityType == models.EntityTask {
		if entityID == "" {
			return nil, validationErr(CodeInvalidInput)
		}
		responsible, err := s.tasks.ResponsibleFor(ctx, entityID)
		if err != nil {
			if errors.Is(err, repositories.ErrTaskNotFound) {
				return nil, notFoundErr(CodeTaskNotFound)
			}
			return nil, infraErr(err)
		}
		if responsible != "" {
			users, err := s.users.FindByIDs(ctx, []string{responsible})
			if err != nil {
				return nil, infraErr(err)
			}
			candidates = append(candidates, users...)
		}
		admins, err := s.users.ListActiveByRoles(ctx, []string{models.RoleAdmin, models.RoleSuperAdmin})
		if err != nil {
			return nil, infraErr(err)
		}
		candidates = append(candidates, admins...)
	} else {
		users, err := s.users.ListActive(ctx)
		if err != nil {
			return nil, infraErr(err)
		}
		candidates = users
	}

	seen := make(map[string]struct{}, len(candidates))
	out := make([]models.UserSummary, 0, len(candidates))
	for _, u := range candidates {
		if u.ID == currentUserID || !u.Active {
			continue
		}
		if _, dup := seen[u.ID]; dup {
			continue
		}
		seen[u.ID] = struct{}{}
		out = append(out, u.Summary())
	}
	return out, nil
}
