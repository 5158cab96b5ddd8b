// internal/services/admin_service.go
package services

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/javajoker/keygen-bridge/internal/models"
)

// AdminService backs the admin dashboard and the audit trail.
type AdminService struct {
	db  *gorm.DB
	now func() time.Time
}

type AdminDashboardStats struct {
	TotalLicenses        int64   `json:"total_licenses"`
	ActiveLicenses       int64   `json:"active_licenses"`
	SuspendedLicenses    int64   `json:"suspended_licenses"`
	RevokedLicenses      int64   `json:"revoked_licenses"`
	IssuedThisMonth      int64   `json:"issued_this_month"`
	IssuedLastMonth      int64   `json:"issued_last_month"`
	IssuanceGrowth       float64 `json:"issuance_growth"`
	DistinctCustomers    int64   `json:"distinct_customers"`
	FailedRequestsPerDay int64   `json:"failed_requests_last_24h"`
}

type AuditLogFilter struct {
	ActorID      string
	ResourceType string
	ResourceID   string
	Since        *time.Time
	Limit        int
	Offset       int
}

func NewAdminService(db *gorm.DB) *AdminService {
	return &AdminService{db: db, now: time.Now}
}

func (s *AdminService) GetDashboardStats(ctx context.Context) (*AdminDashboardStats, error) {
	stats := &AdminDashboardStats{}
	now := s.now()
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	lastMonthStart := monthStart.AddDate(0, -1, 0)

	licenses := func() *gorm.DB {
		return s.db.WithContext(ctx).Model(&models.KeygenLicense{})
	}

	var rows []struct {
		Status models.LicenseStatus
		Total  int64
	}
	if err := licenses().Select("status, COUNT(*) AS total").Group("status").Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to count licenses: %w", err)
	}
	for _, row := range rows {
		stats.TotalLicenses += row.Total
		switch row.Status {
		case models.LicenseStatusCreated:
			stats.ActiveLicenses = row.Total
		case models.LicenseStatusSuspended:
			stats.SuspendedLicenses = row.Total
		case models.LicenseStatusRevoked:
			stats.RevokedLicenses = row.Total
		}
	}

	licenses().Where("created_at >= ?", monthStart).Count(&stats.IssuedThisMonth)
	licenses().Where("created_at >= ? AND created_at < ?", lastMonthStart, monthStart).Count(&stats.IssuedLastMonth)
	licenses().Where("customer_id IS NOT NULL").Distinct("customer_id").Count(&stats.DistinctCustomers)

	s.db.WithContext(ctx).Model(&models.AuditLog{}).
		Where("status >= ? AND created_at >= ?", 500, now.Add(-24*time.Hour)).
		Count(&stats.FailedRequestsPerDay)

	stats.IssuanceGrowth = growth(stats.IssuedThisMonth, stats.IssuedLastMonth)

	return stats, nil
}

func growth(current, previous int64) float64 {
	if previous <= 0 {
		return 0
	}
	return float64(current-previous) / float64(previous) * 100
}

// Record stores one audit entry.
func (s *AdminService) Record(ctx context.Context, entry *models.AuditLog) error {
	if err := s.db.WithContext(ctx).Create(entry).Error; err != nil {
		return fmt.Errorf("failed to create audit log: %w", err)
	}
	return nil
}

func (s *AdminService) ListAuditLogs(ctx context.Context, filter AuditLogFilter) ([]models.AuditLog, int64, error) {
	query := s.db.WithContext(ctx).Model(&models.AuditLog{})

	if filter.ActorID != "" {
		query = query.Where("actor_id = ?", filter.ActorID)
	}
	if filter.ResourceType != "" {
		query = query.Where("resource_type = ?", filter.ResourceType)
	}
	if filter.ResourceID != "" {
		query = query.Where("resource_id = ?", filter.ResourceID)
	}
	if filter.Since != nil {
		query = query.Where("created_at >= ?", *filter.Since)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("database error: %w", err)
	}

	if filter.Limit <= 0 {
		filter.Limit = 50
	}

	var logs []models.AuditLog
	if err := query.Order("created_at DESC").
		Limit(filter.Limit).
		Offset(filter.Offset).
		Find(&logs).Error; err != nil {
		return nil, 0, fmt.Errorf("database error: %w", err)
	}

	return logs, total, nil
}
