// internal/services/payment_service.go
package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/stripe/stripe-go/v74"
	"github.com/stripe/stripe-go/v74/webhook"

	"github.com/javajoker/keygen-bridge/internal/config"
)

const orderIDMetadataKey = "order_id"

var (
	ErrPaymentsDisabled = errors.New("stripe webhook secret not configured")
	ErrInvalidSignature = errors.New("webhook signature verification failed")
)

// OrderEventHandler receives order lifecycle events by name.
type OrderEventHandler interface {
	Handle(ctx context.Context, event, orderID string) error
}

// PaymentService maps verified Stripe webhook events onto order events.
type PaymentService struct {
	webhookSecret string
	events        OrderEventHandler
	log           *logrus.Entry
}

// PaymentEventResult describes what a Stripe event was turned into.
type PaymentEventResult struct {
	StripeEventID string `json:"stripe_event_id"`
	StripeType    string `json:"stripe_type"`
	OrderEvent    string `json:"order_event,omitempty"`
	OrderID       string `json:"order_id,omitempty"`
}

func NewPaymentService(cfg config.StripeConfig, events OrderEventHandler) *PaymentService {
	stripe.Key = cfg.SecretKey

	return &PaymentService{
		webhookSecret: cfg.WebhookSecret,
		events:        events,
		log:           logrus.WithField("component", "payments"),
	}
}

// HandleWebhook verifies the Stripe-Signature header and dispatches the
// event. Events without an order id in their metadata are acknowledged and
// ignored, as are orders this service does not know.
func (s *PaymentService) HandleWebhook(ctx context.Context, payload []byte, signature string) (*PaymentEventResult, error) {
	if s.webhookSecret == "" {
		return nil, ErrPaymentsDisabled
	}

	// Only metadata is read, so events pinned to other API versions are accepted.
	event, err := webhook.ConstructEventWithOptions(payload, signature, s.webhookSecret,
		webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}

	result := &PaymentEventResult{StripeEventID: event.ID, StripeType: string(event.Type)}

	var metadata map[string]string
	switch result.StripeType {
	case "payment_intent.succeeded", "payment_intent.canceled":
		var intent stripe.PaymentIntent
		if err := json.Unmarshal(event.Data.Raw, &intent); err != nil {
			return nil, fmt.Errorf("failed to parse payment intent: %w", err)
		}
		metadata = intent.Metadata
		result.OrderEvent = EventOrderPlaced
		if result.StripeType == "payment_intent.canceled" {
			result.OrderEvent = EventOrderCanceled
		}
	case "charge.refunded":
		var charge stripe.Charge
		if err := json.Unmarshal(event.Data.Raw, &charge); err != nil {
			return nil, fmt.Errorf("failed to parse charge: %w", err)
		}
		metadata = charge.Metadata
		result.OrderEvent = EventOrderRefunded
	default:
		s.log.WithFields(logrus.Fields{"event_id": event.ID, "event_type": result.StripeType}).Debug("Unhandled Stripe event type")
		return result, nil
	}

	result.OrderID = metadata[orderIDMetadataKey]
	if result.OrderID == "" {
		s.log.WithField("event_id", event.ID).Warn("Stripe event without order_id metadata")
		result.OrderEvent = ""
		return result, nil
	}

	if err := s.events.Handle(ctx, result.OrderEvent, result.OrderID); err != nil {
		if errors.Is(err, ErrOrderNotFound) {
			s.log.WithField("order_id", result.OrderID).Warn("Stripe event for unknown order")
			return result, nil
		}
		return nil, err
	}
	return result, nil
}
