package migration

import (
	"fmt"
	"path/filepath"
	"strings"

	"gorm.io/gorm"

	"chatfleet/internal/shared/logger"
)

const defaultScriptsPath = "./internal/infrastructure/migration/scripts"

// Manager runs the migration strategy picked for the environment.
type Manager struct {
	strategy Strategy
	logger   logger.Interface
}

// NewManager picks GORM AutoMigrate for development environments and the
// versioned goose scripts for everything else.
func NewManager(environment string) *Manager {
	switch strings.ToLower(environment) {
	case "development", "dev", "local":
		return NewManagerWithStrategy(NewGormAutoMigrateStrategy())
	default:
		scriptsPath, _ := filepath.Abs(defaultScriptsPath)
		return NewManagerWithStrategy(NewGooseStrategy(scriptsPath))
	}
}

func NewManagerWithStrategy(strategy Strategy) *Manager {
	return &Manager{
		strategy: strategy,
		logger:   logger.NewLogger().With("component", "migration.manager"),
	}
}

// Migrate brings the schema up to date.
func (m *Manager) Migrate(db *gorm.DB, models ...interface{}) error {
	m.logger.Infow("migrating database", "strategy", m.strategy.Name())

	if err := m.strategy.Migrate(db, models...); err != nil {
		return fmt.Errorf("migrate with strategy %s: %w", m.strategy.Name(), err)
	}

	m.logger.Infow("database migration completed", "strategy", m.strategy.Name())
	return nil
}
