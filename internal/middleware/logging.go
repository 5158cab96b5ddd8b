// internal/middleware/logging.go
package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/javajoker/keygen-bridge/internal/models"
	"github.com/javajoker/keygen-bridge/internal/utils"
)

const (
	RequestIDHeader  = "X-Request-ID"
	ContextRequestID = "request_id"
)

// AuditRecorder persists audit entries.
type AuditRecorder interface {
	Record(ctx context.Context, entry *models.AuditLog) error
}

// Bodies of these paths carry keys or signed payloads and are not stored.
var unauditedBodies = []string{"/webhooks/", "/activate"}

// AuditLogMiddleware records every mutating request after it completes.
func AuditLogMiddleware(recorder AuditRecorder) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method == "GET" || c.Request.Method == "OPTIONS" || c.Request.URL.Path == "/health" {
			c.Next()
			return
		}

		path := c.Request.URL.Path
		var requestData map[string]interface{}
		if c.Request.Body != nil && !skipBody(path) {
			requestBody, _ := io.ReadAll(c.Request.Body)
			c.Request.Body = io.NopCloser(bytes.NewReader(requestBody))
			if len(requestBody) > 0 {
				_ = json.Unmarshal(requestBody, &requestData)
			}
		}

		c.Next()

		entry := &models.AuditLog{
			ActorID:      c.GetString(utils.ContextCustomerID),
			ActorRole:    utils.GetRoleFromContext(c),
			Action:       c.Request.Method + " " + routePattern(c),
			ResourceType: extractResourceType(path),
			ResourceID:   firstParam(c, "license_id", "order_id", "machine_id", "customer_id"),
			Status:       c.Writer.Status(),
			NewValues:    models.JSONB(requestData),
			IPAddress:    c.ClientIP(),
			UserAgent:    c.Request.UserAgent(),
		}

		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := recorder.Record(ctx, entry); err != nil {
				logrus.WithError(err).Error("Failed to create audit log")
			}
		}()
	}
}

// RequestID keeps an incoming X-Request-ID or assigns a new one.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.NewString()
		}
		c.Set(ContextRequestID, id)
		c.Header(RequestIDHeader, id)
		c.Next()
	}
}

// RequestLogger writes one structured line per request.
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		fields := logrus.Fields{
			"request_id": c.GetString(ContextRequestID),
			"method":     c.Request.Method,
			"path":       c.Request.URL.Path,
			"status":     c.Writer.Status(),
			"duration":   time.Since(start).Milliseconds(),
			"ip":         c.ClientIP(),
		}
		if customerID := c.GetString(utils.ContextCustomerID); customerID != "" {
			fields["customer_id"] = customerID
		}

		entry := logrus.WithFields(fields)
		switch status := c.Writer.Status(); {
		case status >= 500:
			entry.Error("Request processed")
		case status >= 400:
			entry.Warn("Request processed")
		default:
			entry.Info("Request processed")
		}
	}
}

func skipBody(path string) bool {
	for _, fragment := range unauditedBodies {
		if strings.Contains(path, fragment) {
			return true
		}
	}
	return false
}

func routePattern(c *gin.Context) string {
	if pattern := c.FullPath(); pattern != "" {
		return pattern
	}
	return c.Request.URL.Path
}

func firstParam(c *gin.Context, names ...string) string {
	for _, name := range names {
		if v := c.Param(name); v != "" {
			return v
		}
	}
	return ""
}

func extractResourceType(path string) string {
	parts := strings.Split(strings.Trim(path, "/"), "/")
	for i, part := range parts {
		if part == "v1" || part == "admin" || part == "store" || part == "me" {
			continue
		}
		if part != "" {
			return parts[i]
		}
	}
	return "unknown"
}
