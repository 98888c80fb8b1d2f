package models

import (
	"time"
)

// UsagePeriodModel represents the database persistence model for per-company
// billing period counters. The unique (company_id, period_start) index makes
// lazy creation race-safe; counter columns are only mutated through atomic
// UPDATE expressions.
type UsagePeriodModel struct {
	ID                 uint      `gorm:"primarykey"`
	SID                string    `gorm:"column:sid;size:20;not null;uniqueIndex"`
	CompanyID          uint      `gorm:"not null;uniqueIndex:idx_company_period"`
	SubscriptionID     uint      `gorm:"not null;index"`
	PeriodStart        time.Time `gorm:"not null;uniqueIndex:idx_company_period"`
	PeriodEnd          time.Time `gorm:"not null;index:idx_period_end"`
	Status             string    `gorm:"size:10;not null;default:'open';index"`
	ChatbotsUsed       int64     `gorm:"not null;default:0"`
	ConversationsCount int64     `gorm:"not null;default:0"`
	MessagesSent       int64     `gorm:"not null;default:0"`
	MessagesReceived   int64     `gorm:"not null;default:0"`
	APICallsCount      int64     `gorm:"column:api_calls_count;not null;default:0"`
	StorageUsedMB      int64     `gorm:"column:storage_used_mb;not null;default:0"`
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// TableName specifies the table name for GORM
func (UsagePeriodModel) TableName() string {
	return "usage_periods"
}
