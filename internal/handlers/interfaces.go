// internal/handlers/interfaces.go
package handlers

import (
	"context"

	"github.com/javajoker/keygen-bridge/internal/keygen"
	"github.com/javajoker/keygen-bridge/internal/models"
	"github.com/javajoker/keygen-bridge/internal/services"
)

// LicenseManager is implemented by services.LicenseService.
type LicenseManager interface {
	CreateLicense(ctx context.Context, req *services.CreateLicenseRequest) (*services.IssuedLicense, error)
	LicensesForOrder(ctx context.Context, orderID string) ([]models.KeygenLicense, error)
	CustomerOverview(ctx context.Context, customerID string) ([]services.CustomerLicense, error)
	DeleteMachine(ctx context.Context, machineID string) error
	ListCustomerLicenses(ctx context.Context, q services.MirrorQuery) ([]models.KeygenLicense, int64, error)
	GetCustomerLicense(ctx context.Context, customerID, remoteID string) (*models.KeygenLicense, error)
	GetLicenseWithMachines(ctx context.Context, remoteID string) (*keygen.LicenseDetails, error)
	ActivateDevice(ctx context.Context, customerID string, req *services.ActivateDeviceRequest) (*services.DeviceActivation, error)
	CreateCustomerDownload(ctx context.Context, customerID, remoteID string, req *services.DownloadRequest) (*keygen.DownloadLink, error)
	DeleteCustomerMachine(ctx context.Context, customerID, machineID string) error
}

// PolicyCatalog is implemented by keygen.Client.
type PolicyCatalog interface {
	ListPolicies(ctx context.Context, productID string) ([]keygen.NamedResource, error)
	ListEntitlements(ctx context.Context) ([]keygen.NamedResource, error)
	CreatePolicy(ctx context.Context, in keygen.PolicyInput) (*keygen.NamedResource, error)
	ClonePolicy(ctx context.Context, in keygen.CloneInput) (*keygen.NamedResource, error)
	LookupResource(ctx context.Context, kind, id string) (*keygen.NamedResource, error)
}

// OrderEvents is implemented by services.OrderEventService.
type OrderEvents interface {
	Handle(ctx context.Context, event, orderID string) error
	HandleRemoteEvent(ctx context.Context, event *services.RemoteEvent) (int, error)
}

type PaymentWebhooks interface {
	HandleWebhook(ctx context.Context, payload []byte, signature string) (*services.PaymentEventResult, error)
}

type AdminReports interface {
	GetDashboardStats(ctx context.Context) (*services.AdminDashboardStats, error)
	ListAuditLogs(ctx context.Context, filter services.AuditLogFilter) ([]models.AuditLog, int64, error)
}
