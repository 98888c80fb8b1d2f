package models

import (
	"time"
)

// ReservationModel represents the database persistence model for reservation
// tokens. Status transitions away from pending happen through guarded
// updates so a token resolves exactly once.
type ReservationModel struct {
	ID            uint      `gorm:"primarykey"`
	Token         string    `gorm:"size:20;not null;uniqueIndex"`
	CompanyID     uint      `gorm:"not null;index"`
	UsagePeriodID uint      `gorm:"not null;index:idx_period_status"`
	Metric        string    `gorm:"size:32;not null"`
	Amount        int64     `gorm:"not null"`
	Status        string    `gorm:"size:10;not null;default:'pending';index:idx_period_status;index:idx_status_expiry"`
	ExpiresAt     time.Time `gorm:"not null;index:idx_status_expiry"`
	ResolvedAt    *time.Time
	CreatedAt     time.Time
}

// TableName specifies the table name for GORM
func (ReservationModel) TableName() string {
	return "reservations"
}
