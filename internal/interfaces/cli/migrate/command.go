package migrate

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"chatfleet/internal/infrastructure/config"
	"chatfleet/internal/infrastructure/database"
	"chatfleet/internal/infrastructure/migration"
	"chatfleet/internal/shared/logger"
)

var (
	env   string
	steps int
)

func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Database migration tools",
		Long:  `Apply or roll back the versioned database migrations.`,
	}

	cmd.PersistentFlags().StringVarP(&env, "env", "e", "development", "Environment (development, test, production)")

	up := &cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withGoose(func(strategy *migration.GooseStrategy, db *gorm.DB, log logger.Interface) error {
				log.Infow("applying migrations", "environment", env)
				if err := migration.NewManagerWithStrategy(strategy).Migrate(db); err != nil {
					return err
				}
				log.Infow("migrations applied")
				return nil
			})
		},
	}

	down := &cobra.Command{
		Use:   "down",
		Short: "Roll back migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withGoose(func(strategy *migration.GooseStrategy, db *gorm.DB, log logger.Interface) error {
				log.Infow("rolling back migrations", "environment", env, "steps", steps)
				return strategy.MigrateDown(db, steps)
			})
		},
	}
	down.Flags().IntVarP(&steps, "steps", "n", 1, "Number of migrations to roll back")

	status := &cobra.Command{
		Use:   "status",
		Short: "Show migration status",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withGoose(func(strategy *migration.GooseStrategy, db *gorm.DB, log logger.Interface) error {
				version, err := strategy.GetVersion(db)
				if err != nil {
					return err
				}
				fmt.Printf("\nMigration Status:\n")
				fmt.Printf("  Environment:     %s\n", env)
				fmt.Printf("  Current Version: %d\n", version)
				return strategy.Status(db)
			})
		},
	}

	cmd.AddCommand(up, down, status)
	return cmd
}

// withGoose loads config, connects, and hands the goose strategy to fn.
func withGoose(fn func(*migration.GooseStrategy, *gorm.DB, logger.Interface) error) error {
	cfg, err := config.Load(env)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := logger.Init(&cfg.Logger); err != nil {
		return fmt.Errorf("initialize logger: %w", err)
	}
	defer logger.Sync()

	if err := database.Init(&cfg.Database); err != nil {
		return fmt.Errorf("initialize database: %w", err)
	}
	defer database.Close()

	scriptsPath, err := filepath.Abs("./internal/infrastructure/migration/scripts")
	if err != nil {
		return fmt.Errorf("resolve scripts path: %w", err)
	}

	strategy, ok := migration.NewGooseStrategy(scriptsPath).(*migration.GooseStrategy)
	if !ok {
		return fmt.Errorf("goose strategy unavailable")
	}
	return fn(strategy, database.Get(), logger.NewLogger())
}
