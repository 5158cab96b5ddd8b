// internal/middleware/i18n.go
package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/javajoker/keygen-bridge/internal/i18n"
	"github.com/javajoker/keygen-bridge/internal/utils"
)

// I18nMiddleware picks the first Accept-Language entry with a catalog.
func I18nMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(utils.ContextLang, negotiateLanguage(c.GetHeader("Accept-Language")))
		c.Next()
	}
}

// Handles values like "de-DE,de;q=0.9,en;q=0.8". Quality weights are
// ignored; order wins.
func negotiateLanguage(header string) string {
	for _, part := range strings.Split(header, ",") {
		tag := strings.TrimSpace(strings.Split(part, ";")[0])
		if tag == "" || tag == "*" {
			continue
		}
		fields := strings.FieldsFunc(tag, func(r rune) bool {
			return r == '-' || r == '_'
		})
		if len(fields) == 0 {
			continue
		}
		if base := strings.ToLower(fields[0]); i18n.Supported(base) {
			return base
		}
	}
	return i18n.DefaultLanguage()
}
