package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	appmetering "chatfleet/internal/application/metering"
	"chatfleet/internal/infrastructure/config"
	"chatfleet/internal/infrastructure/database"
	"chatfleet/internal/infrastructure/repository"
	"chatfleet/internal/infrastructure/scheduler"
	"chatfleet/internal/shared/biztime"
	"chatfleet/internal/shared/logger"
)

// The worker runs the background maintenance loops: period rollover at the
// end of each billing period and the reservation sweep that expires stale
// tokens. It shares nothing with the API server but the database.
func main() {
	env := "development"
	if len(os.Args) > 1 {
		env = os.Args[1]
	}
	if envVar := os.Getenv("ENV"); envVar != "" {
		env = envVar
	}

	cfg, err := config.Load(env)
	if err != nil {
		fmt.Printf("failed to load config: %v\n", err)
		os.Exit(1)
	}

	if err := logger.Init(&cfg.Logger); err != nil {
		fmt.Printf("failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	log := logger.NewLogger()
	log.Infow("starting metering worker", "environment", env)

	if err := biztime.Init(cfg.Server.Timezone); err != nil {
		log.Fatalw("failed to initialize business timezone", "error", err)
	}

	if err := database.Init(&cfg.Database); err != nil {
		log.Fatalw("failed to initialize database", "error", err)
	}
	defer database.Close()

	periodRepo := repository.NewUsagePeriodRepository(database.Get(), log)
	reservationRepo := repository.NewReservationRepository(database.Get(), log)
	subscriptionRepo := repository.NewSubscriptionRepository(database.Get(), log)

	reservationTTL := time.Duration(cfg.Metering.ReservationTTLMinutes) * time.Minute
	accumulator := appmetering.NewPeriodAccumulator(periodRepo, reservationRepo, subscriptionRepo, reservationTTL, log)

	rollover := appmetering.NewPeriodRollover(
		subscriptionRepo, periodRepo, reservationRepo, accumulator,
		appmetering.RolloverConfig{
			DrainTimeout:     time.Duration(cfg.Metering.DrainTimeoutSeconds) * time.Second,
			DrainPoll:        time.Duration(cfg.Metering.DrainPollSeconds) * time.Second,
			PeriodLengthDays: cfg.Subscription.PeriodLengthDays,
		},
		log,
	)
	sweeper := appmetering.NewReservationSweeper(reservationRepo, accumulator, 0, log)

	manager, err := scheduler.NewSchedulerManager(log)
	if err != nil {
		log.Fatalw("failed to create scheduler manager", "error", err)
	}

	rolloverInterval := time.Duration(cfg.Metering.RolloverIntervalSeconds) * time.Second
	sweepInterval := time.Duration(cfg.Metering.SweepIntervalSeconds) * time.Second

	if err := manager.RegisterRolloverJob(rollover, rolloverInterval); err != nil {
		log.Fatalw("failed to register rollover job", "error", err)
	}
	if err := manager.RegisterSweepJob(sweeper, sweepInterval); err != nil {
		log.Fatalw("failed to register sweep job", "error", err)
	}

	manager.Start()
	log.Infow("metering worker started",
		"rollover_interval", rolloverInterval,
		"sweep_interval", sweepInterval)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	log.Infow("shutting down metering worker")
	if err := manager.Stop(); err != nil {
		log.Errorw("scheduler shutdown failed", "error", err)
	}
	log.Infow("metering worker exited gracefully")
}
