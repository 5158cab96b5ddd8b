// internal/services/mirror_store.go
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/javajoker/keygen-bridge/internal/models"
)

var mirrorSortFields = map[string]string{
	"created_at":        "created_at",
	"updated_at":        "updated_at",
	"status":            "status",
	"license_key":       "license_key",
	"keygen_product_id": "keygen_product_id",
}

type gormMirrorStore struct {
	db *gorm.DB
}

func NewMirrorStore(db *gorm.DB) MirrorStore {
	return &gormMirrorStore{db: db}
}

func (s *gormMirrorStore) Create(ctx context.Context, license *models.KeygenLicense) error {
	if err := s.db.WithContext(ctx).Create(license).Error; err != nil {
		return fmt.Errorf("failed to save license mirror: %w", err)
	}
	return nil
}

func (s *gormMirrorStore) UpdateStatus(ctx context.Context, id uuid.UUID, status models.LicenseStatus) error {
	result := s.db.WithContext(ctx).Model(&models.KeygenLicense{}).
		Where("id = ?", id).
		Update("status", status)
	if result.Error != nil {
		return fmt.Errorf("failed to update license status: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrLicenseNotFound
	}
	return nil
}

func (s *gormMirrorStore) FindByOrder(ctx context.Context, orderID string) ([]models.KeygenLicense, error) {
	var licenses []models.KeygenLicense
	if err := s.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("created_at ASC").
		Find(&licenses).Error; err != nil {
		return nil, fmt.Errorf("database error: %w", err)
	}
	return licenses, nil
}

func (s *gormMirrorStore) FindByRemoteID(ctx context.Context, remoteID string) ([]models.KeygenLicense, error) {
	var licenses []models.KeygenLicense
	if err := s.db.WithContext(ctx).
		Where("keygen_license_id = ?", remoteID).
		Find(&licenses).Error; err != nil {
		return nil, fmt.Errorf("database error: %w", err)
	}
	return licenses, nil
}

func (s *gormMirrorStore) ListByCustomer(ctx context.Context, q MirrorQuery) ([]models.KeygenLicense, int64, error) {
	query := s.db.WithContext(ctx).Model(&models.KeygenLicense{}).Where("customer_id = ?", q.CustomerID)

	if q.Search != "" {
		term := "%" + strings.ToLower(q.Search) + "%"
		query = query.Where("LOWER(license_key) LIKE ? OR LOWER(keygen_license_id) LIKE ? OR LOWER(keygen_product_id) LIKE ?", term, term, term)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count licenses: %w", err)
	}

	query = query.Order(mirrorOrderClause(q.OrderBy))
	if q.Limit > 0 {
		query = query.Limit(q.Limit).Offset(q.Offset)
	}

	var licenses []models.KeygenLicense
	if err := query.Find(&licenses).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list licenses: %w", err)
	}
	return licenses, total, nil
}

func (s *gormMirrorStore) FindForCustomer(ctx context.Context, customerID, remoteID string) (*models.KeygenLicense, error) {
	return s.first(ctx, "customer_id = ? AND keygen_license_id = ?", customerID, remoteID)
}

func (s *gormMirrorStore) FindForCustomerProduct(ctx context.Context, customerID, productID string) (*models.KeygenLicense, error) {
	return s.first(ctx, "customer_id = ? AND keygen_product_id = ? AND keygen_license_id IS NOT NULL", customerID, productID)
}

func (s *gormMirrorStore) first(ctx context.Context, where string, args ...interface{}) (*models.KeygenLicense, error) {
	var license models.KeygenLicense
	if err := s.db.WithContext(ctx).Where(where, args...).Order("created_at DESC").First(&license).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrLicenseNotFound
		}
		return nil, fmt.Errorf("database error: %w", err)
	}
	return &license, nil
}

// mirrorOrderClause maps "field:dir" onto an allowed column, defaulting to
// newest first.
func mirrorOrderClause(orderBy string) string {
	field, dir, _ := strings.Cut(orderBy, ":")
	column, ok := mirrorSortFields[field]
	if !ok {
		return "created_at DESC"
	}
	if strings.EqualFold(dir, "desc") {
		return column + " DESC"
	}
	return column + " ASC"
}
