package middleware

import (
	"github.com/gin-gonic/gin"
	"golang.org/x/text/language"

	"entity-chat-service/internal/i18n"
)

const langKey = "lang"

// Locale negotiates the response language from Accept-Language.
func Locale() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(langKey, i18n.Negotiate(c.GetHeader("Accept-Language")))
		c.Next()
	}
}

// Lang returns the negotiated language, French when Locale did not run.
func Lang(c *gin.Context) language.Tag {
	if v, ok := c.Get(langKey); ok {
		if tag, ok := v.(language.Tag); ok {
			return tag
		}
	}
	return i18n.French
}
