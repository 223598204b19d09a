package model

import (
	"time"
)

// AdminUser is an operator allowed to call the management API
type AdminUser struct {
	ID        uint       `json:"id" gorm:"primaryKey"`
	Username  string     `json:"username" gorm:"type:varchar(100);uniqueIndex;not null"`
	Password  string     `json:"-" gorm:"type:varchar(255);not null"`
	LastLogin *time.Time `json:"last_login"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// All returns every model managed by AutoMigrate, in dependency order
func All() []interface{} {
	return []interface{}{
		&AdminUser{},
		&Vendor{},
		&PurchaseOrder{},
		&HistoricalPerformance{},
	}
}
