// internal/services/stores.go
package services

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/javajoker/keygen-bridge/internal/models"
)

var (
	ErrLicenseNotFound = errors.New("license not found")
	ErrOrderNotFound   = errors.New("order not found")
)

// MirrorQuery filters a customer's mirror rows. Limit 0 returns every row.
type MirrorQuery struct {
	CustomerID string
	Search     string
	OrderBy    string // "field:asc" or "field:desc"
	Limit      int
	Offset     int
}

// MirrorStore persists the local copy of remote license state.
type MirrorStore interface {
	Create(ctx context.Context, license *models.KeygenLicense) error
	UpdateStatus(ctx context.Context, id uuid.UUID, status models.LicenseStatus) error
	FindByOrder(ctx context.Context, orderID string) ([]models.KeygenLicense, error)
	FindByRemoteID(ctx context.Context, remoteID string) ([]models.KeygenLicense, error)
	ListByCustomer(ctx context.Context, q MirrorQuery) ([]models.KeygenLicense, int64, error)
	FindForCustomer(ctx context.Context, customerID, remoteID string) (*models.KeygenLicense, error)
	FindForCustomerProduct(ctx context.Context, customerID, productID string) (*models.KeygenLicense, error)
}

// OrderStore reads storefront orders.
type OrderStore interface {
	FindWithItems(ctx context.Context, orderID string) (*models.Order, error)
}
