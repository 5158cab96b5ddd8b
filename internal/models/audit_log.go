// internal/models/audit_log.go
package models

type AuditLog struct {
	BaseModel
	ActorID      string `json:"actor_id" gorm:"size:64;index"`
	ActorRole    string `json:"actor_role" gorm:"size:20"`
	Action       string `json:"action" gorm:"size:150;not null;index"`
	ResourceType string `json:"resource_type" gorm:"size:50;not null;index"`
	ResourceID   string `json:"resource_id" gorm:"size:64;index"`
	Status       int    `json:"status"`
	NewValues    JSONB  `json:"new_values" gorm:"type:jsonb"`
	IPAddress    string `json:"ip_address" gorm:"size:45"`
	UserAgent    string `json:"user_agent" gorm:"type:text"`
}
