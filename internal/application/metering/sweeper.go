package metering

import (
	"context"
	"fmt"
	"time"

	"chatfleet/internal/domain/metering"
	"chatfleet/internal/shared/logger"
)

// ReservationSweeper expires pending reservations whose TTL elapsed without
// a confirm or abandon, returning their capacity to the pool. It is the
// safety net behind crashed or misbehaving callers.
type ReservationSweeper struct {
	reservationRepo metering.ReservationRepository
	accumulator     *PeriodAccumulator
	batchSize       int
	logger          logger.Interface
}

func NewReservationSweeper(
	reservationRepo metering.ReservationRepository,
	accumulator *PeriodAccumulator,
	batchSize int,
	log logger.Interface,
) *ReservationSweeper {
	if batchSize <= 0 {
		batchSize = 500
	}
	return &ReservationSweeper{
		reservationRepo: reservationRepo,
		accumulator:     accumulator,
		batchSize:       batchSize,
		logger:          log.Named("reservation-sweeper"),
	}
}

// Execute runs one sweep pass and returns the number of reservations it
// expired. Individual failures are logged and skipped; the sweep will see
// the same row again next pass.
func (s *ReservationSweeper) Execute(ctx context.Context) (int, error) {
	overdue, err := s.reservationRepo.ListExpiredPending(ctx, time.Now().UTC(), s.batchSize)
	if err != nil {
		return 0, fmt.Errorf("failed to list overdue reservations: %w", err)
	}

	expired := 0
	for _, res := range overdue {
		if ctx.Err() != nil {
			return expired, ctx.Err()
		}
		if err := s.accumulator.ExpireReservation(ctx, res.Token()); err != nil {
			s.logger.Errorw("failed to expire reservation",
				"token", res.Token(), "error", err)
			continue
		}
		expired++
	}

	if expired > 0 {
		s.logger.Infow("sweep pass expired reservations", "count", expired)
	}
	return expired, nil
}
