package domain

import "time"

// TenantDatabase maps a shop to its dedicated database. DatabaseURL is set
// once and never rewritten.
type TenantDatabase struct {
	TenantID     string    `gorm:"primaryKey;column:tenant_id" json:"tenant_id"`
	DatabaseName string    `gorm:"column:database_name;not null" json:"database_name"`
	DatabaseURL  string    `gorm:"column:database_url;not null;default:''" json:"-"`
	CreatedAt    time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt    time.Time `gorm:"not null" json:"updated_at"`
}

func (TenantDatabase) TableName() string { return "tenant_databases" }

// Ready reports whether the tenant already has a usable connection string.
func (t *TenantDatabase) Ready() bool {
	return t != nil && t.DatabaseURL != ""
}
