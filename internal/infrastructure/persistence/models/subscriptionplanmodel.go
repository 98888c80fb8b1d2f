package models

import (
	"time"

	"gorm.io/datatypes"
)

// SubscriptionPlanModel represents the database persistence model for the
// plan catalog. Limit columns use -1 as the unlimited sentinel.
type SubscriptionPlanModel struct {
	ID                       uint   `gorm:"primarykey"`
	SID                      string `gorm:"column:sid;size:20;not null;uniqueIndex"`
	Name                     string `gorm:"size:100;not null"`
	Slug                     string `gorm:"size:100;not null;uniqueIndex"`
	Tier                     string `gorm:"size:20;not null"`
	Description              string `gorm:"type:text"`
	PriceMonthly             uint64 `gorm:"not null;default:0"`
	PriceYearly              uint64 `gorm:"not null;default:0"`
	MaxChatbots              int64  `gorm:"not null;default:0"`
	MaxConversationsPerMonth int64  `gorm:"not null;default:0"`
	MaxMessagesPerMonth      int64  `gorm:"not null;default:0"`
	MaxAPICallsPerMonth      int64  `gorm:"column:max_api_calls_per_month;not null;default:0"`
	MaxStorageMB             int64  `gorm:"column:max_storage_mb;not null;default:0"`
	Features                 datatypes.JSON
	IsActive                 bool `gorm:"not null;default:true;index"`
	CreatedAt                time.Time
	UpdatedAt                time.Time
}

// TableName specifies the table name for GORM
func (SubscriptionPlanModel) TableName() string {
	return "subscription_plans"
}
