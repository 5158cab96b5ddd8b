// internal/config/database.go
package config

import (
	"fmt"
)

func (d *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s TimeZone=UTC",
		d.Host, d.Port, d.User, d.Password, d.Database, d.SSLMode,
	)
}

// Redacted describes the connection target for logs.
func (d *DatabaseConfig) Redacted() string {
	return fmt.Sprintf("%s@%s:%s/%s", d.User, d.Host, d.Port, d.Database)
}
