// internal/models/order.go
package models

import "time"

// Order is read from the storefront's tables; this service never writes it.
type Order struct {
	ID         string      `json:"id" gorm:"primaryKey;size:64"`
	CustomerID *string     `json:"customer_id" gorm:"size:64;index"`
	Email      string      `json:"email" gorm:"size:255"`
	Metadata   JSONB       `json:"metadata" gorm:"type:jsonb"`
	CreatedAt  time.Time   `json:"created_at"`
	Items      []OrderItem `json:"items,omitempty" gorm:"foreignKey:OrderID"`
}

type OrderItem struct {
	ID        string `json:"id" gorm:"primaryKey;size:64"`
	OrderID   string `json:"order_id" gorm:"size:64;not null;index"`
	ProductID string `json:"product_id" gorm:"size:64"`
	VariantID string `json:"variant_id" gorm:"size:64"`
	Title     string `json:"title" gorm:"size:255"`
	Quantity  int    `json:"quantity" gorm:"default:1"`
	Metadata  JSONB  `json:"metadata" gorm:"type:jsonb"`
}
