// internal/handlers/keygen_admin.go
package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/javajoker/keygen-bridge/internal/i18n"
	"github.com/javajoker/keygen-bridge/internal/keygen"
	"github.com/javajoker/keygen-bridge/internal/services"
	"github.com/javajoker/keygen-bridge/internal/utils"
)

// KeygenAdminHandler serves the back office views of licenses and the
// remote policy catalog.
type KeygenAdminHandler struct {
	licenses LicenseManager
	catalog  PolicyCatalog
	events   OrderEvents
}

type ValidateResourceRequest struct {
	Type string `json:"type" validate:"required,oneof=product policy"`
	ID   string `json:"id" validate:"required"`
}

type OrderEventRequest struct {
	Event   string `json:"event" validate:"required"`
	OrderID string `json:"orderId" validate:"required"`
}

func NewKeygenAdminHandler(licenses LicenseManager, catalog PolicyCatalog, events OrderEvents) *KeygenAdminHandler {
	return &KeygenAdminHandler{
		licenses: licenses,
		catalog:  catalog,
		events:   events,
	}
}

// GET /admin/keygen/licenses/:order_id
func (h *KeygenAdminHandler) GetOrderLicenses(c *gin.Context) {
	rows, err := h.licenses.LicensesForOrder(c.Request.Context(), c.Param("order_id"))
	if err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{"licenses": rows})
}

// POST /admin/keygen/licenses/:order_id
func (h *KeygenAdminHandler) CreateOrderLicense(c *gin.Context) {
	lang := utils.GetLangFromContext(c)

	var req services.CreateLicenseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "input"), nil)
		return
	}
	req.OrderID = c.Param("order_id")

	if validationErrors := utils.GetValidationErrors(utils.ValidateStruct(&req)); len(validationErrors) > 0 {
		utils.ValidationErrorResponse(c, validationErrors)
		return
	}

	issued, err := h.licenses.CreateLicense(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.CreatedResponse(c, gin.H{
		"message": i18n.T(lang, i18n.KeyLicenseCreated),
		"license": issued.Record,
		"keygen":  issued.Raw,
	})
}

// GET /admin/keygen/customers/:customer_id/licenses
func (h *KeygenAdminHandler) GetCustomerLicenses(c *gin.Context) {
	licenses, err := h.licenses.CustomerOverview(c.Request.Context(), c.Param("customer_id"))
	if err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{"licenses": licenses})
}

// DELETE /admin/keygen/machines/:machine_id
func (h *KeygenAdminHandler) DeleteMachine(c *gin.Context) {
	machineID := c.Param("machine_id")
	if err := h.licenses.DeleteMachine(c.Request.Context(), machineID); err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{"id": machineID, "deleted": true})
}

// GET /admin/keygen/policies
func (h *KeygenAdminHandler) ListPolicies(c *gin.Context) {
	policies, err := h.catalog.ListPolicies(c.Request.Context(), c.Query("product_id"))
	if err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{"policies": policies})
}

// POST /admin/keygen/policies
func (h *KeygenAdminHandler) CreatePolicy(c *gin.Context) {
	var in keygen.PolicyInput
	if !bindAndValidate(c, &in) {
		return
	}

	policy, err := h.catalog.CreatePolicy(c.Request.Context(), in)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.CreatedResponse(c, gin.H{"policy": policy})
}

// POST /admin/keygen/policies/clone
func (h *KeygenAdminHandler) ClonePolicy(c *gin.Context) {
	var in keygen.CloneInput
	if !bindAndValidate(c, &in) {
		return
	}

	policy, err := h.catalog.ClonePolicy(c.Request.Context(), in)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.CreatedResponse(c, gin.H{"policy": policy})
}

// GET /admin/keygen/entitlements
func (h *KeygenAdminHandler) ListEntitlements(c *gin.Context) {
	entitlements, err := h.catalog.ListEntitlements(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{"entitlements": entitlements})
}

// POST /admin/keygen/validate
func (h *KeygenAdminHandler) ValidateResource(c *gin.Context) {
	var req ValidateResourceRequest
	if !bindAndValidate(c, &req) {
		return
	}

	resource, err := h.catalog.LookupResource(c.Request.Context(), req.Type, req.ID)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{"valid": true, "resource": resource})
}

// POST /admin/keygen/events
func (h *KeygenAdminHandler) DispatchOrderEvent(c *gin.Context) {
	var req OrderEventRequest
	if !bindAndValidate(c, &req) {
		return
	}

	if err := h.events.Handle(c.Request.Context(), req.Event, req.OrderID); err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{"event": req.Event, "orderId": req.OrderID, "handled": true})
}

func bindAndValidate(c *gin.Context, dst interface{}) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		utils.BadRequestResponse(c, i18n.T(utils.GetLangFromContext(c), i18n.KeyValidationInvalid, "input"), nil)
		return false
	}

	if validationErrors := utils.GetValidationErrors(utils.ValidateStruct(dst)); len(validationErrors) > 0 {
		utils.ValidationErrorResponse(c, validationErrors)
		return false
	}
	return true
}
