// internal/i18n/keys.go
package i18n

// Translation keys constants
const (
	// Common
	KeyValidationInvalid = "validation.invalid"
	KeyValidationField   = "validation.field_required"
	KeyInternalError     = "error.internal"

	// Authentication
	KeyAuthRequired      = "auth.required"
	KeyAuthInvalidToken  = "auth.invalid_token"
	KeyAuthTokenExpired  = "auth.token_expired"
	KeyAdminAccessDenied = "admin.access_denied"
	KeyRateLimited       = "rate_limit.exceeded"

	// Licenses
	KeyLicenseCreated  = "license.created"
	KeyLicenseNotFound = "license.not_found"
	KeyOrderNotFound   = "order.not_found"

	// Licensing service
	KeyKeygenUnavailable   = "keygen.unavailable"
	KeyKeygenUnauthorized  = "keygen.unauthorized"
	KeyKeygenRequestFailed = "keygen.request_failed"
	KeySeatsExhausted      = "keygen.seats_exhausted"
	KeyDeviceActivated     = "keygen.device_activated"
	KeyDownloadFailed      = "keygen.download_failed"
	KeyMachineDeleteFailed = "keygen.machine_delete_failed"

	// Webhooks
	KeyWebhookInvalidSignature = "webhook.invalid_signature"
	KeyWebhookMissingBody      = "webhook.missing_body"
	KeyPaymentsDisabled        = "webhook.payments_disabled"
	KeyEventUnknown            = "event.unknown"
)
