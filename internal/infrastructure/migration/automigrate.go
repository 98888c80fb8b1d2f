package migration

import (
	"chatfleet/internal/infrastructure/persistence/models"
)

func AutoMigrateModels() []interface{} {
	return []interface{}{
		&models.CompanyModel{},
		&models.SubscriptionPlanModel{},
		&models.SubscriptionModel{},
		&models.UsagePeriodModel{},
		&models.ReservationModel{},
	}
}
