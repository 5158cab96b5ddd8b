// internal/handlers/errors.go
package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/javajoker/keygen-bridge/internal/i18n"
	"github.com/javajoker/keygen-bridge/internal/keygen"
	"github.com/javajoker/keygen-bridge/internal/services"
	"github.com/javajoker/keygen-bridge/internal/utils"
)

// respondError maps service and licensing errors onto HTTP answers. Upstream
// bodies are logged, never returned.
func respondError(c *gin.Context, err error) {
	lang := utils.GetLangFromContext(c)

	if validationErrors := utils.GetValidationErrors(err); len(validationErrors) > 0 {
		utils.ValidationErrorResponse(c, validationErrors)
		return
	}

	switch {
	case errors.Is(err, services.ErrLicenseNotFound):
		utils.NotFoundResponse(c, i18n.KeyLicenseNotFound)
		return
	case errors.Is(err, services.ErrOrderNotFound):
		utils.NotFoundResponse(c, i18n.KeyOrderNotFound)
		return
	case errors.Is(err, services.ErrMachineNotFound):
		utils.NotFoundResponse(c, i18n.KeyMachineDeleteFailed)
		return
	case errors.Is(err, services.ErrUnknownEvent):
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyEventUnknown), nil)
		return
	}

	if seats, ok := keygen.AsSeatsExhausted(err); ok {
		utils.ErrorResponse(c, http.StatusConflict, keygen.CodeSeatsExhausted,
			i18n.T(lang, i18n.KeySeatsExhausted), gin.H{"seats": seats.Seats})
		return
	}

	entry := logrus.WithError(err).WithField("path", c.Request.URL.Path)

	if keygen.IsAuthError(err) {
		entry.Error("[keygen] licensing service rejected credentials")
		utils.ErrorResponse(c, http.StatusUnauthorized, "KEYGEN_UNAUTHORIZED",
			i18n.T(lang, i18n.KeyKeygenUnauthorized), nil)
		return
	}

	switch status := keygen.StatusOf(err); {
	case status == http.StatusNotFound:
		utils.NotFoundResponse(c, i18n.KeyLicenseNotFound)
	case status == http.StatusBadRequest || status == http.StatusConflict || status == http.StatusUnprocessableEntity:
		entry.Warn("[keygen] request rejected")
		utils.ErrorResponse(c, http.StatusUnprocessableEntity, "KEYGEN_REJECTED",
			i18n.T(lang, i18n.KeyKeygenRequestFailed), nil)
	case status != 0:
		entry.Error("[keygen] request failed")
		utils.ErrorResponse(c, http.StatusBadGateway, "KEYGEN_ERROR",
			i18n.T(lang, i18n.KeyKeygenRequestFailed), nil)
	case errors.Is(err, keygen.ErrMalformedResponse):
		entry.Error("[keygen] malformed response")
		utils.ErrorResponse(c, http.StatusBadGateway, "KEYGEN_ERROR",
			i18n.T(lang, i18n.KeyKeygenRequestFailed), nil)
	case errors.Is(err, context.Canceled):
		c.Status(499)
	default:
		entry.Error("Request failed")
		if isTransportError(err) {
			utils.ErrorResponse(c, http.StatusServiceUnavailable, "KEYGEN_UNAVAILABLE",
				i18n.T(lang, i18n.KeyKeygenUnavailable), nil)
			return
		}
		utils.InternalErrorResponse(c, "")
	}
}

// Failures from net/http surface as *url.Error or *net.OpError, both of which
// expose Timeout.
func isTransportError(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr interface{ Timeout() bool }
	return errors.As(err, &netErr)
}
