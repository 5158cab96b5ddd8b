// internal/models/common.go
package models

import (
	"database/sql/driver"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Base model with common fields
type BaseModel struct {
	ID        uuid.UUID `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// BeforeCreate assigns an id when the row did not get one from the caller.
func (b *BaseModel) BeforeCreate(tx *gorm.DB) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	return nil
}

// JSONB type for PostgreSQL
type JSONB map[string]interface{}

func (j JSONB) Value() (driver.Value, error) {
	if j == nil {
		return nil, nil
	}
	return json.Marshal(j)
}

func (j *JSONB) Scan(value interface{}) error {
	if value == nil {
		*j = nil
		return nil
	}

	bytes, ok := value.([]byte)
	if !ok {
		return nil
	}

	return json.Unmarshal(bytes, j)
}

// String returns the value under key when it is a non-empty string.
func (j JSONB) String(key string) string {
	if j == nil {
		return ""
	}
	if s, ok := j[key].(string); ok {
		return s
	}
	return ""
}

// Enums
type LicenseStatus string

const (
	LicenseStatusCreated   LicenseStatus = "created"
	LicenseStatusSuspended LicenseStatus = "suspended"
	LicenseStatusRevoked   LicenseStatus = "revoked"
)

// CanTransitionTo reports whether a mirror row may move from s to next.
// created -> suspended|revoked, suspended -> revoked; revoked is terminal.
func (s LicenseStatus) CanTransitionTo(next LicenseStatus) bool {
	switch s {
	case LicenseStatusCreated:
		return next == LicenseStatusSuspended || next == LicenseStatusRevoked
	case LicenseStatusSuspended:
		return next == LicenseStatusRevoked
	default:
		return false
	}
}

func (s LicenseStatus) Valid() bool {
	switch s {
	case LicenseStatusCreated, LicenseStatusSuspended, LicenseStatusRevoked:
		return true
	}
	return false
}
