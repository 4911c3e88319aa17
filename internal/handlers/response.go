package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"entity-chat-service/internal/i18n"
	"entity-chat-service/internal/middleware"
	"entity-chat-service/internal/service"
)

// FieldError is one validator failure, reported to clients.
type FieldError struct {
	Field string `json:"field"`
	Rule  string `json:"rule"`
	Param string `json:"param,omitempty"`
}

func respond(c *gin.Context, status int, key string, data gin.H) {
	body := gin.H{"success": true, "message": i18n.T(middleware.Lang(c), key)}
	for k, v := range data {
		body[k] = v
	}
	c.JSON(status, body)
}

func fail(c *gin.Context, status int, code string) {
	c.JSON(status, gin.H{"success": false, "message": i18n.T(middleware.Lang(c), code)})
}

func (h *ChatHandler) serviceError(c *gin.Context, err error) {
	status := service.KindOf(err).HTTPStatus()
	if status == http.StatusInternalServerError {
		h.logger.Errorw("request failed", "path", c.FullPath(), "request_id", requestIDFromContext(c), "error", err)
	}
	fail(c, status, service.CodeOf(err))
}

// bindError reports a body that failed to decode or validate.
func bindError(c *gin.Context, err error) {
	body := gin.H{"success": false, "message": i18n.T(middleware.Lang(c), service.CodeInvalidInput)}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		fields := make([]FieldError, 0, len(verrs))
		for _, fe := range verrs {
			fields = append(fields, FieldError{Field: lowerFirst(fe.Field()), Rule: fe.Tag(), Param: fe.Param()})
		}
		body["errors"] = fields
	}
	c.JSON(http.StatusBadRequest, body)
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToLower(s[:1]) + s[1:]
}
