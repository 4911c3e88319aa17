package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"entity-chat-service/internal/logging"
	"entity-chat-service/internal/middleware"
	"entity-chat-service/internal/mocks"
	"entity-chat-service/internal/models"
	"entity-chat-service/internal/service"
	"entity-chat-service/internal/telemetry"
)

var _ ChatService = (*mocks.ChatServiceMock)(nil)

func setupChatRouter(handler *ChatHandler) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(middleware.Locale())
	r.Use(func(c *gin.Context) {
		c.Set(middleware.UserIDKey, "u1")
		c.Next()
	})
	r.POST("/chats", handler.CreateChat)
	r.GET("/chats", handler.ListChats)
	r.GET("/chats/:chat_id", handler.GetChat)
	r.PATCH("/chats/:chat_id/deactivate", handler.DeactivateChat)
	r.POST("/chats/:chat_id/participants", handler.AddParticipants)
	r.DELETE("/chats/:chat_id/participants", handler.RemoveParticipants)
	r.PATCH("/chats/:chat_id/participants/:user_id/permissions", handler.UpdatePermissions)
	r.GET("/chats/:chat_id/messages", handler.GetMessages)
	r.POST("/chats/:chat_id/messages", handler.PostMessage)
	r.POST("/chats/:chat_id/read", handler.MarkAsRead)
	r.GET("/chats/:chat_id/messages/search", handler.SearchMessages)
	r.GET("/participants/available", handler.AvailableParticipants)
	return r
}

func newHandler(svc *mocks.ChatServiceMock, audit *telemetry.AuditEmitter) *gin.Engine {
	return setupChatRouter(NewChatHandler(svc, audit, logging.Nop()))
}

func perform(r http.Handler, method, path string, body any, headers ...string) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func TestCreateChatSuccess(t *testing.T) {
	svc := &mocks.ChatServiceMock{}
	pub := &mocks.PublisherMock{}
	audit := telemetry.NewAuditEmitter(pub, telemetry.AuditRoutingKey, "entity-chat-service", "test", logging.Nop())
	r := newHandler(svc, audit)

	svc.On("CreateChat", mock.Anything, service.CreateChatInput{
		EntityType:   models.EntityTask,
		EntityID:     "T1",
		CreatorID:    "u1",
		Participants: []service.ParticipantInput{{UserID: "u1"}, {UserID: "u2"}},
		Title:        "Suivi",
	}).Return(&service.ChatView{ID: "c1", EntityType: models.EntityTask, EntityID: "T1"}, nil).Once()
	pub.On("Publish", mock.Anything, telemetry.AuditRoutingKey, mock.MatchedBy(func(env telemetry.AuditEnvelope) bool {
		return env.Payload.Action == telemetry.ActionChatCreated && env.Payload.ChatID == "c1" && env.UserID == "u1"
	})).Return(nil).Once()

	w := perform(r, http.MethodPost, "/chats", gin.H{
		"entityType":   "TacheExecutee",
		"entityId":     "T1",
		"participants": []gin.H{{"userId": "u1"}, {"userId": "u2"}},
		"title":        "Suivi",
	})

	require.Equal(t, http.StatusCreated, w.Code)
	body := decode(t, w)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "Chat créé avec succès", body["message"])
	assert.Equal(t, "c1", body["chat"].(map[string]any)["id"])
	svc.AssertExpectations(t)
	pub.AssertExpectations(t)
}

func TestCreateChatValidationErrors(t *testing.T) {
	svc := &mocks.ChatServiceMock{}
	r := newHandler(svc, nil)

	w := perform(r, http.MethodPost, "/chats", gin.H{"entityId": "T1"})

	require.Equal(t, http.StatusBadRequest, w.Code)
	body := decode(t, w)
	assert.Equal(t, false, body["success"])
	fields, ok := body["errors"].([]any)
	require.True(t, ok)
	require.Len(t, fields, 1)
	assert.Equal(t, "entityType", fields[0].(map[string]any)["field"])
	svc.AssertNotCalled(t, "CreateChat", mock.Anything, mock.Anything)
}

func TestServiceErrorsMapToStatus(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
		msg    string
	}{
		{"validation", &service.Error{Kind: service.KindValidation, Code: service.CodeInvalidChatID}, http.StatusBadRequest, "Identifiant de chat invalide"},
		{"not found", &service.Error{Kind: service.KindNotFound, Code: service.CodeChatNotFound}, http.StatusNotFound, "Chat introuvable"},
		{"forbidden", &service.Error{Kind: service.KindForbidden, Code: service.CodeNotParticipant}, http.StatusForbidden, "Vous ne participez pas à ce chat"},
		{"conflict", &service.Error{Kind: service.KindConflict, Code: service.CodeConcurrentUpdate}, http.StatusConflict, "Le chat a été modifié simultanément, veuillez réessayer"},
		{"foreign", errors.New("mongo down"), http.StatusInternalServerError, "Erreur serveur"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc := &mocks.ChatServiceMock{}
			svc.On("GetChat", mock.Anything, "c1", "u1").Return(nil, tc.err)

			w := perform(newHandler(svc, nil), http.MethodGet, "/chats/c1", nil)

			assert.Equal(t, tc.status, w.Code)
			body := decode(t, w)
			assert.Equal(t, false, body["success"])
			assert.Equal(t, tc.msg, body["message"])
		})
	}
}

func TestErrorsAreLocalized(t *testing.T) {
	svc := &mocks.ChatServiceMock{}
	svc.On("GetChat", mock.Anything, "c1", "u1").Return(nil, &service.Error{Kind: service.KindNotFound, Code: service.CodeChatNotFound})

	w := perform(newHandler(svc, nil), http.MethodGet, "/chats/c1", nil, "Accept-Language", "en-US,en;q=0.9")

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Chat not found", decode(t, w)["message"])
}

func TestListChatsPassesEntityFilter(t *testing.T) {
	svc := &mocks.ChatServiceMock{}
	svc.On("ListUserChats", mock.Anything, "u1", models.EntityProject).Return(&service.ChatList{
		Chats:      []service.ChatListItem{{ID: "c1", UnreadCount: 2}},
		Pagination: service.Pagination{Page: 1, Pages: 1, Total: 1},
	}, nil)

	w := perform(newHandler(svc, nil), http.MethodGet, "/chats?entityType=Projet", nil)

	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	chats := body["chats"].([]any)
	require.Len(t, chats, 1)
	assert.EqualValues(t, 2, chats[0].(map[string]any)["unreadCount"])
	assert.EqualValues(t, 1, body["pagination"].(map[string]any)["total"])
}

func TestDeactivateChat(t *testing.T) {
	svc := &mocks.ChatServiceMock{}
	svc.On("DeactivateChat", mock.Anything, "c1", "u1").Return(&service.ChatView{ID: "c1"}, nil).Once()

	w := perform(newHandler(svc, nil), http.MethodPatch, "/chats/c1/deactivate", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	svc.AssertExpectations(t)
}

func TestAddParticipantsRequiresList(t *testing.T) {
	svc := &mocks.ChatServiceMock{}

	w := perform(newHandler(svc, nil), http.MethodPost, "/chats/c1/participants", gin.H{"participants": []gin.H{}})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	svc.AssertNotCalled(t, "AddParticipants", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestAddParticipants(t *testing.T) {
	svc := &mocks.ChatServiceMock{}
	canSend := false
	inputs := []service.ParticipantInput{{UserID: "u3", Role: models.RoleUser, Permissions: &models.PermissionsPatch{CanSendMessages: &canSend}}}
	svc.On("AddParticipants", mock.Anything, "c1", "u1", inputs).Return(&service.ChatView{ID: "c1"}, nil).Once()

	w := perform(newHandler(svc, nil), http.MethodPost, "/chats/c1/participants", gin.H{
		"participants": []gin.H{{"userId": "u3", "role": "utilisateur", "permissions": gin.H{"canSendMessages": false}}},
	})

	assert.Equal(t, http.StatusOK, w.Code)
	svc.AssertExpectations(t)
}

func TestRemoveParticipants(t *testing.T) {
	svc := &mocks.ChatServiceMock{}
	svc.On("RemoveParticipants", mock.Anything, "c1", "u1", []string{"u2"}).
		Return(nil, &service.Error{Kind: service.KindForbidden, Code: service.CodeNotAuthorized}).Once()

	w := perform(newHandler(svc, nil), http.MethodDelete, "/chats/c1/participants", gin.H{"userIds": []string{"u2"}})

	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "Action non autorisée", decode(t, w)["message"])
}

func TestUpdatePermissions(t *testing.T) {
	svc := &mocks.ChatServiceMock{}
	yes := true
	patch := models.PermissionsPatch{CanAddParticipants: &yes}
	svc.On("UpdateParticipantPermissions", mock.Anything, "c1", "u2", "u1", patch).Return(&service.ParticipantView{
		User:        models.UserSummary{ID: "u2"},
		Permissions: models.Permissions{CanAddParticipants: true, CanSendMessages: true},
	}, nil).Once()

	w := perform(newHandler(svc, nil), http.MethodPatch, "/chats/c1/participants/u2/permissions", gin.H{"canAddParticipants": true})

	require.Equal(t, http.StatusOK, w.Code)
	perms := decode(t, w)["participant"].(map[string]any)["permissions"].(map[string]any)
	assert.Equal(t, true, perms["canAddParticipants"])
	svc.AssertExpectations(t)
}

func TestGetMessagesParsesPaging(t *testing.T) {
	svc := &mocks.ChatServiceMock{}
	svc.On("GetMessages", mock.Anything, "c1", "u1", 3, 50).Return(&service.MessagePage{
		Messages: []models.Message{}, Page: 3, Limit: 50, Total: 120, HasMore: false,
	}, nil).Once()

	w := perform(newHandler(svc, nil), http.MethodGet, "/chats/c1/messages?page=3&limit=50", nil)

	require.Equal(t, http.StatusOK, w.Code)
	pagination := decode(t, w)["pagination"].(map[string]any)
	assert.Equal(t, false, pagination["hasMore"])
	assert.EqualValues(t, 120, pagination["total"])
	svc.AssertExpectations(t)
}

func TestGetMessagesDefaults(t *testing.T) {
	svc := &mocks.ChatServiceMock{}
	svc.On("GetMessages", mock.Anything, "c1", "u1", 1, service.DefaultPageSize).Return(&service.MessagePage{Messages: []models.Message{}}, nil).Once()

	w := perform(newHandler(svc, nil), http.MethodGet, "/chats/c1/messages?page=abc", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	svc.AssertExpectations(t)
}

func TestPostMessage(t *testing.T) {
	svc := &mocks.ChatServiceMock{}
	svc.On("AddMessage", mock.Anything, "c1", "u1", "Bonjour", models.MessageType("")).
		Return(&service.MessageView{ID: "m1", Content: "Bonjour", MessageType: models.MessageText}, nil).Once()

	w := perform(newHandler(svc, nil), http.MethodPost, "/chats/c1/messages", gin.H{"content": "Bonjour"})

	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "m1", decode(t, w)["message"].(map[string]any)["id"])
	svc.AssertExpectations(t)
}

func TestPostMessageRejectsInvalidBodies(t *testing.T) {
	bodies := []gin.H{
		{"content": ""},
		{"content": strings.Repeat("a", 1001)},
		{"content": "hi", "messageType": "system"},
	}
	for _, b := range bodies {
		svc := &mocks.ChatServiceMock{}
		w := perform(newHandler(svc, nil), http.MethodPost, "/chats/c1/messages", b)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		svc.AssertNotCalled(t, "AddMessage", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	}
}

func TestMarkAsRead(t *testing.T) {
	svc := &mocks.ChatServiceMock{}
	svc.On("MarkAsRead", mock.Anything, "c1", "u1").Return(&service.ReadResult{ChatID: "c1", UserID: "u1", Marked: 3}, nil).Once()

	w := perform(newHandler(svc, nil), http.MethodPost, "/chats/c1/read", nil)

	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 3, decode(t, w)["read"].(map[string]any)["marked"])
}

func TestSearchMessages(t *testing.T) {
	svc := &mocks.ChatServiceMock{}
	svc.On("SearchMessages", mock.Anything, "c1", "u1", "rapport").Return(&service.SearchResult{
		Query: "rapport", Messages: []models.Message{{Content: "Le Rapport final"}}, Count: 1,
	}, nil).Once()

	w := perform(newHandler(svc, nil), http.MethodGet, "/chats/c1/messages/search?q=rapport", nil)

	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.EqualValues(t, 1, body["count"])
	assert.Equal(t, "rapport", body["query"])
}

func TestAvailableParticipants(t *testing.T) {
	svc := &mocks.ChatServiceMock{}
	svc.On("AvailableParticipants", mock.Anything, models.EntityTask, "T1", "u1").Return([]models.UserSummary{{ID: "u2", Name: "Ana"}}, nil).Once()

	w := perform(newHandler(svc, nil), http.MethodGet, "/participants/available?entityType=TacheExecutee&entityId=T1", nil)

	require.Equal(t, http.StatusOK, w.Code)
	users := decode(t, w)["users"].([]any)
	require.Len(t, users, 1)
	svc.AssertExpectations(t)
}
