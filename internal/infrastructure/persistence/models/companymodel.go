package models

import (
	"time"

	"gorm.io/gorm"
)

// CompanyModel represents the database persistence model for companies
// This is the anti-corruption layer between domain and database
type CompanyModel struct {
	ID           uint   `gorm:"primarykey"`
	SID          string `gorm:"column:sid;size:20;not null;uniqueIndex"`
	Name         string `gorm:"size:255;not null"`
	BusinessType string `gorm:"size:100;not null"`
	Email        string `gorm:"size:255"`
	Phone        string `gorm:"size:32"`
	Website      string `gorm:"size:255"`
	Country      string `gorm:"size:100;not null;default:'Kazakhstan'"`
	Timezone     string `gorm:"size:64;not null;default:'Asia/Almaty'"`
	OwnerID      uint   `gorm:"not null;index"`
	APIKeyHash   string `gorm:"column:api_key_hash;size:60"`
	IsActive     bool   `gorm:"not null;default:true"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
	DeletedAt    gorm.DeletedAt `gorm:"index"`
}

// TableName specifies the table name for GORM
func (CompanyModel) TableName() string {
	return "companies"
}
