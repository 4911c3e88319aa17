package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"entity-chat-service/internal/auth"
	"entity-chat-service/internal/i18n"
)

// UserIDKey holds the authenticated caller's id on the gin context.
const UserIDKey = "userID"

// TokenVerifier validates bearer tokens.
type TokenVerifier interface {
	Verify(token string) (auth.Identity, error)
}

// AuthMiddleware validates the Authorization header and stores the caller's id
// under UserIDKey.
func AuthMiddleware(verifier TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			abortLocalized(c, http.StatusUnauthorized, i18n.KeyMissingToken)
			return
		}

		token := auth.BearerToken(header)
		if token == "" {
			abortLocalized(c, http.StatusUnauthorized, i18n.KeyInvalidToken)
			return
		}

		identity, err := verifier.Verify(token)
		if err != nil {
			abortLocalized(c, http.StatusUnauthorized, i18n.KeyInvalidToken)
			return
		}

		c.Set(UserIDKey, identity.UserID)
		c.Next()
	}
}

// UserID returns the authenticated caller set by AuthMiddleware.
func UserID(c *gin.Context) string {
	return c.GetString(UserIDKey)
}

func abortLocalized(c *gin.Context, status int, key string) {
	c.AbortWithStatusJSON(status, gin.H{"success": false, "message": i18n.T(Lang(c), key)})
}
