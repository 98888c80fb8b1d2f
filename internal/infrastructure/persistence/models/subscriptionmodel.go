package models

import (
	"time"
)

// SubscriptionModel represents the database persistence model for
// subscriptions. Version backs optimistic locking on concurrent updates.
type SubscriptionModel struct {
	ID                 uint      `gorm:"primarykey"`
	SID                string    `gorm:"column:sid;size:20;not null;uniqueIndex"`
	CompanyID          uint      `gorm:"not null;index"`
	PlanID             uint      `gorm:"not null;index"`
	Status             string    `gorm:"size:20;not null;index"`
	CurrentPeriodStart time.Time `gorm:"not null"`
	CurrentPeriodEnd   time.Time `gorm:"not null;index"`
	TrialEnd           *time.Time
	CancelAtPeriodEnd  bool `gorm:"not null;default:false"`
	CancelledAt        *time.Time
	LastPaymentDate    *time.Time
	NextPaymentDate    *time.Time
	Version            int `gorm:"not null;default:1"`
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// TableName specifies the table name for GORM
func (SubscriptionModel) TableName() string {
	return "subscriptions"
}
