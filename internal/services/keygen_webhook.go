// internal/services/keygen_webhook.go
package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/javajoker/keygen-bridge/internal/models"
)

var ErrInvalidWebhook = errors.New("invalid webhook event")

// RemoteEvent is a webhook event sent by the licensing service.
type RemoteEvent struct {
	ID           string
	Event        string
	ResourceType string
	ResourceID   string
}

type webhookEnvelope struct {
	Data struct {
		ID         string `json:"id"`
		Attributes struct {
			Event   string          `json:"event"`
			Payload json.RawMessage `json:"payload"`
		} `json:"attributes"`
	} `json:"data"`
}

type webhookPayload struct {
	Data struct {
		ID   string `json:"id"`
		Type string `json:"type"`
	} `json:"data"`
}

var remoteStatusByEvent = map[string]models.LicenseStatus{
	"license.suspended": models.LicenseStatusSuspended,
	"license.revoked":   models.LicenseStatusRevoked,
	"license.deleted":   models.LicenseStatusRevoked,
}

// ParseRemoteEvent decodes a webhook body. The payload attribute arrives as
// a JSON encoded string; a plain object is accepted too.
func ParseRemoteEvent(body []byte) (*RemoteEvent, error) {
	var env webhookEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidWebhook, err)
	}
	if env.Data.Attributes.Event == "" {
		return nil, fmt.Errorf("%w: missing event name", ErrInvalidWebhook)
	}

	event := &RemoteEvent{ID: env.Data.ID, Event: env.Data.Attributes.Event}

	raw := env.Data.Attributes.Payload
	if len(raw) > 0 && raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil, fmt.Errorf("%w: payload: %v", ErrInvalidWebhook, err)
		}
		raw = json.RawMessage(s)
	}
	if len(raw) > 0 && string(raw) != "null" {
		var payload webhookPayload
		if err := json.Unmarshal(raw, &payload); err != nil {
			return nil, fmt.Errorf("%w: payload: %v", ErrInvalidWebhook, err)
		}
		event.ResourceType = payload.Data.Type
		event.ResourceID = payload.Data.ID
	}

	return event, nil
}

// HandleRemoteEvent applies license status events to the mirror. Other
// events are acknowledged without effect.
func (s *OrderEventService) HandleRemoteEvent(ctx context.Context, event *RemoteEvent) (int, error) {
	next, ok := remoteStatusByEvent[event.Event]
	if !ok || event.ResourceID == "" {
		return 0, nil
	}
	return s.ApplyRemoteStatus(ctx, event.ResourceID, next)
}
