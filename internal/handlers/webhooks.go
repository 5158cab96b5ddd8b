// internal/handlers/webhooks.go
package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/javajoker/keygen-bridge/internal/i18n"
	"github.com/javajoker/keygen-bridge/internal/middleware"
	"github.com/javajoker/keygen-bridge/internal/services"
	"github.com/javajoker/keygen-bridge/internal/utils"
)

const maxStripePayload = 65536

type WebhookHandler struct {
	events   OrderEvents
	payments PaymentWebhooks
}

func NewWebhookHandler(events OrderEvents, payments PaymentWebhooks) *WebhookHandler {
	return &WebhookHandler{
		events:   events,
		payments: payments,
	}
}

// POST /hooks/keygen
// Runs behind middleware.VerifyKeygenWebhook.
func (h *WebhookHandler) KeygenWebhook(c *gin.Context) {
	lang := utils.GetLangFromContext(c)

	event, err := services.ParseRemoteEvent(middleware.RawBody(c))
	if err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "event"), nil)
		return
	}

	updated, err := h.events.HandleRemoteEvent(c.Request.Context(), event)
	if err != nil {
		respondError(c, err)
		return
	}

	logrus.WithFields(logrus.Fields{
		"event":       event.Event,
		"resource_id": event.ResourceID,
		"updated":     updated,
	}).Info("[keygen] webhook processed")

	c.JSON(http.StatusOK, gin.H{"received": true, "updated": updated})
}

// POST /hooks/stripe
func (h *WebhookHandler) StripeWebhook(c *gin.Context) {
	lang := utils.GetLangFromContext(c)

	payload, err := io.ReadAll(io.LimitReader(c.Request.Body, maxStripePayload))
	if err != nil || len(payload) == 0 {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyWebhookMissingBody), nil)
		return
	}

	result, err := h.payments.HandleWebhook(c.Request.Context(), payload, c.GetHeader("Stripe-Signature"))
	switch {
	case errors.Is(err, services.ErrPaymentsDisabled):
		utils.ErrorResponse(c, http.StatusServiceUnavailable, "PAYMENTS_DISABLED", i18n.T(lang, i18n.KeyPaymentsDisabled), nil)
		return
	case errors.Is(err, services.ErrInvalidSignature):
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyWebhookInvalidSignature), nil)
		return
	case err != nil:
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"received": true, "result": result})
}
