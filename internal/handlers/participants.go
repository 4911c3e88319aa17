package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"entity-chat-service/internal/i18n"
	"entity-chat-service/internal/middleware"
	"entity-chat-service/internal/models"
	"entity-chat-service/internal/service"
	"entity-chat-service/internal/telemetry"
)

type addParticipantsRequest struct {
	Participants []service.ParticipantInput `json:"participants" binding:"required,min=1,dive"`
}

type removeParticipantsRequest struct {
	UserIDs []string `json:"userIds" binding:"required,min=1,dive,required"`
}

// AddParticipants admits users to a chat.
func (h *ChatHandler) AddParticipants(c *gin.Context) {
	var req addParticipantsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	requested := len(req.Participants)
	chat, err := h.chats.AddParticipants(c.Request.Context(), c.Param("chat_id"), middleware.UserID(c), req.Participants)
	if err != nil {
		h.serviceError(c, err)
		return
	}
	h.emitAudit(c, telemetry.AuditPayload{Action: telemetry.ActionParticipantsAdded, ChatID: chat.ID, Count: requested})
	respond(c, http.StatusOK, i18n.KeyParticipantsAdded, gin.H{"chat": chat})
}

// RemoveParticipants drops users from a chat. The creator is never removed.
func (h *ChatHandler) RemoveParticipants(c *gin.Context) {
	var req removeParticipantsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	chat, err := h.chats.RemoveParticipants(c.Request.Context(), c.Param("chat_id"), middleware.UserID(c), req.UserIDs)
	if err != nil {
		h.serviceError(c, err)
		return
	}
	h.emitAudit(c, telemetry.AuditPayload{Action: telemetry.ActionParticipantsRemoved, ChatID: chat.ID, Count: len(req.UserIDs)})
	respond(c, http.StatusOK, i18n.KeyParticipantsRemoved, gin.H{"chat": chat})
}

// UpdatePermissions merges the given flags into one participant's permissions.
func (h *ChatHandler) UpdatePermissions(c *gin.Context) {
	var patch models.PermissionsPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		bindError(c, err)
		return
	}

	chatID := c.Param("chat_id")
	participant, err := h.chats.UpdateParticipantPermissions(c.Request.Context(), chatID, c.Param("user_id"), middleware.UserID(c), patch)
	if err != nil {
		h.serviceError(c, err)
		return
	}
	h.emitAudit(c, telemetry.AuditPayload{Action: telemetry.ActionPermissionsUpdated, ChatID: chatID, Text: participant.User.ID})
	respond(c, http.StatusOK, i18n.KeyPermissionsUpdated, gin.H{"participant": participant})
}

// AvailableParticipants lists users that may be added to a chat about an entity.
func (h *ChatHandler) AvailableParticipants(c *gin.Context) {
	users, err := h.chats.AvailableParticipants(c.Request.Context(),
		models.EntityType(c.Query("entityType")), c.Query("entityId"), middleware.UserID(c))
	if err != nil {
		h.serviceError(c, err)
		return
	}
	respond(c, http.StatusOK, i18n.KeyAvailableUsers, gin.H{"users": users})
}
