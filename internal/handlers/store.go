// internal/handlers/store.go
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/javajoker/keygen-bridge/internal/i18n"
	"github.com/javajoker/keygen-bridge/internal/keygen"
	"github.com/javajoker/keygen-bridge/internal/models"
	"github.com/javajoker/keygen-bridge/internal/services"
	"github.com/javajoker/keygen-bridge/internal/utils"
)

// StoreHandler serves the customer account and the desktop apps. Success
// bodies are plain JSON objects, not the admin envelope, because installed
// apps already parse this shape.
type StoreHandler struct {
	licenses LicenseManager
}

type licenseView struct {
	ID      string      `json:"id"`
	Key     string      `json:"key"`
	Status  string      `json:"status"`
	Product *productRef `json:"product,omitempty"`
	Policy  *productRef `json:"policy,omitempty"`
	OrderID string      `json:"orderId"`
	Created string      `json:"createdAt"`
}

type productRef struct {
	ID string `json:"id"`
}

func NewStoreHandler(licenses LicenseManager) *StoreHandler {
	return &StoreHandler{licenses: licenses}
}

func toLicenseView(row models.KeygenLicense) licenseView {
	view := licenseView{
		ID:      row.RemoteID(),
		Key:     row.Key(),
		Status:  string(row.Status),
		OrderID: row.OrderID,
		Created: row.CreatedAt.UTC().Format("2006-01-02T15:04:05Z"),
	}
	if id := row.ProductID(); id != "" {
		view.Product = &productRef{ID: id}
	}
	if id := row.PolicyID(); id != "" {
		view.Policy = &productRef{ID: id}
	}
	return view
}

// GET /store/me/licenses
func (h *StoreHandler) ListLicenses(c *gin.Context) {
	customerID, ok := utils.GetCustomerIDFromContext(c)
	if !ok {
		utils.UnauthorizedResponse(c, "")
		return
	}

	params := utils.GetOffsetParams(c)
	rows, total, err := h.licenses.ListCustomerLicenses(c.Request.Context(), services.MirrorQuery{
		CustomerID: customerID,
		Search:     params.Search,
		OrderBy:    params.Order,
		Limit:      params.Limit,
		Offset:     params.Offset,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	views := make([]licenseView, 0, len(rows))
	for _, row := range rows {
		views = append(views, toLicenseView(row))
	}

	if !params.Paginate {
		c.JSON(http.StatusOK, gin.H{"licenses": views})
		return
	}

	result := utils.OffsetResult{Count: total, Limit: params.Limit, Offset: params.Offset}
	utils.SetPaginationHeaders(c, result)
	c.JSON(http.StatusOK, gin.H{
		"licenses": views,
		"count":    result.Count,
		"limit":    result.Limit,
		"offset":   result.Offset,
	})
}

// GET /store/me/licenses/:license_id
func (h *StoreHandler) GetLicense(c *gin.Context) {
	customerID, ok := utils.GetCustomerIDFromContext(c)
	if !ok {
		utils.UnauthorizedResponse(c, "")
		return
	}

	row, err := h.licenses.GetCustomerLicense(c.Request.Context(), customerID, c.Param("license_id"))
	if err != nil {
		respondError(c, err)
		return
	}

	resp := gin.H{"license": toLicenseView(*row), "machines": []keygen.Machine{}}
	details, err := h.licenses.GetLicenseWithMachines(c.Request.Context(), row.RemoteID())
	if err != nil {
		logrus.WithError(err).WithField("license_id", row.RemoteID()).Warn("[keygen] serving license without machines")
	} else {
		resp["machines"] = details.Machines
		resp["maxMachines"] = details.MaxMachines
	}

	c.JSON(http.StatusOK, resp)
}

// POST /store/me/licenses/:license_id/download
func (h *StoreHandler) CreateDownload(c *gin.Context) {
	customerID, ok := utils.GetCustomerIDFromContext(c)
	if !ok {
		utils.UnauthorizedResponse(c, "")
		return
	}

	var req services.DownloadRequest
	if !bindAndValidate(c, &req) {
		return
	}

	licenseID := c.Param("license_id")
	link, err := h.licenses.CreateCustomerDownload(c.Request.Context(), customerID, licenseID, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"link":      link,
		"licenseId": licenseID,
		"assetId":   req.AssetID,
	})
}

// POST /store/licensing/activate
func (h *StoreHandler) Activate(c *gin.Context) {
	customerID, ok := utils.GetCustomerIDFromContext(c)
	if !ok {
		utils.UnauthorizedResponse(c, "")
		return
	}

	var req services.ActivateDeviceRequest
	if !bindAndValidate(c, &req) {
		return
	}

	activation, err := h.licenses.ActivateDevice(c.Request.Context(), customerID, &req)
	if err != nil {
		if seats, ok := keygen.AsSeatsExhausted(err); ok {
			c.JSON(http.StatusConflict, gin.H{
				"status":  "DENIED",
				"code":    keygen.CodeSeatsExhausted,
				"message": i18n.T(utils.GetLangFromContext(c), i18n.KeySeatsExhausted),
				"seats":   seats.Seats,
			})
			return
		}
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":    "ACTIVATED",
		"licenseId": activation.LicenseID,
		"machineId": activation.MachineID,
		"seats":     activation.Seats,
	})
}

// DELETE /store/licensing/devices/:machine_id
func (h *StoreHandler) DeleteDevice(c *gin.Context) {
	customerID, ok := utils.GetCustomerIDFromContext(c)
	if !ok {
		utils.UnauthorizedResponse(c, "")
		return
	}

	if err := h.licenses.DeleteCustomerMachine(c.Request.Context(), customerID, c.Param("machine_id")); err != nil {
		respondError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}
