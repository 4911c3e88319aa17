package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"entity-chat-service/internal/i18n"
	"entity-chat-service/internal/middleware"
	"entity-chat-service/internal/models"
	"entity-chat-service/internal/service"
	"entity-chat-service/internal/telemetry"
)

// ChatService is the domain surface the HTTP layer drives.
type ChatService interface {
	CreateChat(ctx context.Context, in service.CreateChatInput) (*service.ChatView, error)
	GetChat(ctx context.Context, chatID, userID string) (*service.ChatView, error)
	ListUserChats(ctx context.Context, userID string, entityType models.EntityType) (*service.ChatList, error)
	DeactivateChat(ctx context.Context, chatID, actorID string) (*service.ChatView, error)
	AddParticipants(ctx context.Context, chatID, adderID string, inputs []service.ParticipantInput) (*service.ChatView, error)
	RemoveParticipants(ctx context.Context, chatID, removerID string, userIDs []string) (*service.ChatView, error)
	UpdateParticipantPermissions(ctx context.Context, chatID, targetUserID, actorID string, patch models.PermissionsPatch) (*service.ParticipantView, error)
	AvailableParticipants(ctx context.Context, entityType models.EntityType, entityID, currentUserID string) ([]models.UserSummary, error)
	AddMessage(ctx context.Context, chatID, senderID, content string, msgType models.MessageType) (*service.MessageView, error)
	MarkAsRead(ctx context.Context, chatID, userID string) (*service.ReadResult, error)
	GetMessages(ctx context.Context, chatID, userID string, page, limit int) (*service.MessagePage, error)
	SearchMessages(ctx context.Context, chatID, userID, query string) (*service.SearchResult, error)
}

// ChatHandler serves the chat REST API.
type ChatHandler struct {
	chats  ChatService
	audit  *telemetry.AuditEmitter
	logger *zap.SugaredLogger
}

// NewChatHandler builds a ChatHandler. audit may be nil.
func NewChatHandler(chats ChatService, audit *telemetry.AuditEmitter, logger *zap.SugaredLogger) *ChatHandler {
	return &ChatHandler{chats: chats, audit: audit, logger: logger}
}

type createChatRequest struct {
	EntityType   models.EntityType          `json:"entityType" binding:"required"`
	EntityID     string                     `json:"entityId" binding:"required"`
	Participants []service.ParticipantInput `json:"participants" binding:"dive"`
	Title        string                     `json:"title" binding:"max=100"`
	ChatType     models.ChatType            `json:"chatType"`
}

// CreateChat creates a chat attached to a business entity.
func (h *ChatHandler) CreateChat(c *gin.Context) {
	var req createChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	userID := middleware.UserID(c)
	chat, err := h.chats.CreateChat(c.Request.Context(), service.CreateChatInput{
		EntityType:   req.EntityType,
		EntityID:     req.EntityID,
		CreatorID:    userID,
		Participants: req.Participants,
		Title:        req.Title,
		ChatType:     req.ChatType,
	})
	if err != nil {
		h.serviceError(c, err)
		return
	}

	h.emitAudit(c, telemetry.AuditPayload{Action: telemetry.ActionChatCreated, ChatID: chat.ID, Count: len(chat.Participants)})
	respond(c, http.StatusCreated, i18n.KeyChatCreated, gin.H{"chat": chat})
}

// ListChats returns the active chats of the caller, optionally for one entity type.
func (h *ChatHandler) ListChats(c *gin.Context) {
	list, err := h.chats.ListUserChats(c.Request.Context(), middleware.UserID(c), models.EntityType(c.Query("entityType")))
	if err != nil {
		h.serviceError(c, err)
		return
	}
	respond(c, http.StatusOK, i18n.KeyChatsListed, gin.H{"chats": list.Chats, "pagination": list.Pagination})
}

// GetChat returns one chat to a participant.
func (h *ChatHandler) GetChat(c *gin.Context) {
	chat, err := h.chats.GetChat(c.Request.Context(), c.Param("chat_id"), middleware.UserID(c))
	if err != nil {
		h.serviceError(c, err)
		return
	}
	respond(c, http.StatusOK, i18n.KeyChatFetched, gin.H{"chat": chat})
}

// DeactivateChat hides a chat from active listings.
func (h *ChatHandler) DeactivateChat(c *gin.Context) {
	chat, err := h.chats.DeactivateChat(c.Request.Context(), c.Param("chat_id"), middleware.UserID(c))
	if err != nil {
		h.serviceError(c, err)
		return
	}
	h.emitAudit(c, telemetry.AuditPayload{Action: telemetry.ActionChatDeactivated, ChatID: chat.ID})
	respond(c, http.StatusOK, i18n.KeyChatDeactivated, gin.H{"chat": chat})
}
