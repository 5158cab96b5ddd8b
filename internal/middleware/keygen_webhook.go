// internal/middleware/keygen_webhook.go
package middleware

import (
	"bytes"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/javajoker/keygen-bridge/internal/i18n"
	"github.com/javajoker/keygen-bridge/internal/utils"
)

const (
	ContextRawBody = "raw_body"

	// Header carrying hex(HMAC-SHA256(secret, raw body)).
	KeygenSignatureHeader = "X-Signature"

	maxWebhookBody = 1 << 20
)

// VerifyKeygenWebhook authenticates licensing service callbacks against a
// shared secret. With no secret configured every callback is refused.
func VerifyKeygenWebhook(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		lang := utils.GetLangFromContext(c)

		signature := c.GetHeader(KeygenSignatureHeader)
		if secret == "" || signature == "" {
			rejectKeygenWebhook(c, lang)
			return
		}

		body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBody))
		if err != nil || len(bytes.TrimSpace(body)) == 0 {
			utils.ErrorResponse(c, http.StatusBadRequest, "BAD_REQUEST",
				i18n.T(lang, i18n.KeyWebhookMissingBody), nil)
			c.Abort()
			return
		}

		if !utils.VerifyHMACSHA256(secret, body, signature) {
			rejectKeygenWebhook(c, lang)
			return
		}

		c.Set(ContextRawBody, body)
		c.Request.Body = io.NopCloser(bytes.NewReader(body))
		c.Next()
	}
}

func rejectKeygenWebhook(c *gin.Context, lang string) {
	logrus.WithField("ip", c.ClientIP()).Warn("[keygen] rejected webhook with invalid signature")
	utils.UnauthorizedResponse(c, i18n.T(lang, i18n.KeyWebhookInvalidSignature))
	c.Abort()
}

// RawBody returns the verified webhook payload.
func RawBody(c *gin.Context) []byte {
	if v, ok := c.Get(ContextRawBody); ok {
		if body, ok := v.([]byte); ok {
			return body
		}
	}
	return nil
}
