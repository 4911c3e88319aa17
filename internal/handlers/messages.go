package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"entity-chat-service/internal/i18n"
	"entity-chat-service/internal/middleware"
	"entity-chat-service/internal/models"
	"entity-chat-service/internal/service"
)

type postMessageRequest struct {
	Content     string             `json:"content" binding:"required,min=1,max=1000"`
	MessageType models.MessageType `json:"messageType" binding:"omitempty,oneof=text file image"`
}

func queryInt(c *gin.Context, key string, fallback int) int {
	raw := c.Query(key)
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return n
}

// GetMessages returns one page of history, newest page first.
func (h *ChatHandler) GetMessages(c *gin.Context) {
	page := queryInt(c, "page", 1)
	limit := queryInt(c, "limit", service.DefaultPageSize)

	result, err := h.chats.GetMessages(c.Request.Context(), c.Param("chat_id"), middleware.UserID(c), page, limit)
	if err != nil {
		h.serviceError(c, err)
		return
	}
	respond(c, http.StatusOK, i18n.KeyMessagesFetched, gin.H{
		"messages": result.Messages,
		"pagination": gin.H{
			"page":    result.Page,
			"limit":   result.Limit,
			"total":   result.Total,
			"hasMore": result.HasMore,
		},
	})
}

// PostMessage sends a message to a chat.
func (h *ChatHandler) PostMessage(c *gin.Context) {
	var req postMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	msg, err := h.chats.AddMessage(c.Request.Context(), c.Param("chat_id"), middleware.UserID(c), req.Content, req.MessageType)
	if err != nil {
		h.serviceError(c, err)
		return
	}
	respond(c, http.StatusCreated, i18n.KeyMessageSent, gin.H{"message": msg})
}

// MarkAsRead records read receipts for the caller.
func (h *ChatHandler) MarkAsRead(c *gin.Context) {
	result, err := h.chats.MarkAsRead(c.Request.Context(), c.Param("chat_id"), middleware.UserID(c))
	if err != nil {
		h.serviceError(c, err)
		return
	}
	respond(c, http.StatusOK, i18n.KeyMessagesRead, gin.H{"read": result})
}

// SearchMessages filters a chat's messages by content.
func (h *ChatHandler) SearchMessages(c *gin.Context) {
	result, err := h.chats.SearchMessages(c.Request.Context(), c.Param("chat_id"), middleware.UserID(c), c.Query("q"))
	if err != nil {
		h.serviceError(c, err)
		return
	}
	respond(c, http.StatusOK, i18n.KeySearchResults, gin.H{"query": result.Query, "messages": result.Messages, "count": result.Count})
}
