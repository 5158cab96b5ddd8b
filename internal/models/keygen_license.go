// internal/models/keygen_license.go
package models

// KeygenLicense is the local mirror of a license issued by the licensing service.
// Rows are never deleted; status records the last confirmed transition.
type KeygenLicense struct {
	BaseModel
	OrderID         string        `json:"order_id" gorm:"size:64;not null;index"`
	OrderItemID     *string       `json:"order_item_id" gorm:"size:64"`
	CustomerID      *string       `json:"customer_id" gorm:"size:64;index"`
	KeygenLicenseID *string       `json:"keygen_license_id" gorm:"size:64;index"`
	LicenseKey      *string       `json:"license_key" gorm:"type:text"`
	Status          LicenseStatus `json:"status" gorm:"type:varchar(20);default:'created';index"`
	KeygenPolicyID  *string       `json:"keygen_policy_id" gorm:"size:64"`
	KeygenProductID *string       `json:"keygen_product_id" gorm:"size:64;index"`
	Notes           *string       `json:"notes" gorm:"type:text"`
}

func (KeygenLicense) TableName() string {
	return "keygen_licenses"
}

// RemoteID returns the licensing service id or "" when remote creation never completed.
func (l KeygenLicense) RemoteID() string {
	if l.KeygenLicenseID == nil {
		return ""
	}
	return *l.KeygenLicenseID
}

func (l KeygenLicense) Key() string {
	if l.LicenseKey == nil {
		return ""
	}
	return *l.LicenseKey
}

func (l KeygenLicense) ProductID() string {
	if l.KeygenProductID == nil {
		return ""
	}
	return *l.KeygenProductID
}

func (l KeygenLicense) PolicyID() string {
	if l.KeygenPolicyID == nil {
		return ""
	}
	return *l.KeygenPolicyID
}

func (l KeygenLicense) ItemID() string {
	if l.OrderItemID == nil {
		return ""
	}
	return *l.OrderItemID
}

// StringPtr returns nil for the empty string.
func StringPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
