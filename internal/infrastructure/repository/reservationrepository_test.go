package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chatfleet/internal/domain/metering"
	"chatfleet/internal/shared/logger"
)

func newTestReservation(t *testing.T, token string, periodID uint, expiresAt time.Time) *metering.Reservation {
	reservation, err := metering.NewReservation(token, 1, periodID, metering.MetricMessagesSent, 1, expiresAt)
	require.NoError(t, err)
	return reservation
}

func TestReservationRepository_Create(t *testing.T) {
	db := setupTestDB(t)
	repo := NewReservationRepository(db, logger.NewLogger())
	ctx := context.Background()

	expiry := time.Now().Add(5 * time.Minute)

	t.Run("creates reservation and assigns ID", func(t *testing.T) {
		reservation := newTestReservation(t, "tok_create", 1, expiry)

		err := repo.Create(ctx, reservation)
		require.NoError(t, err)
		assert.NotZero(t, reservation.ID())

		loaded, err := repo.GetByToken(ctx, "tok_create")
		require.NoError(t, err)
		assert.Equal(t, metering.ReservationStatusPending, loaded.Status())
		assert.Equal(t, metering.MetricMessagesSent, loaded.Metric())
		assert.Equal(t, int64(1), loaded.Amount())
		assert.Nil(t, loaded.ResolvedAt())
	})

	t.Run("rejects duplicate token", func(t *testing.T) {
		first := newTestReservation(t, "tok_dup", 1, expiry)
		require.NoError(t, repo.Create(ctx, first))

		second := newTestReservation(t, "tok_dup", 1, expiry)
		err := repo.Create(ctx, second)
		assert.Error(t, err)
	})
}

func TestReservationRepository_GetByToken(t *testing.T) {
	db := setupTestDB(t)
	repo := NewReservationRepository(db, logger.NewLogger())
	ctx := context.Background()

	t.Run("returns ErrTokenNotFound for unknown token", func(t *testing.T) {
		_, err := repo.GetByToken(ctx, "tok_missing")
		assert.ErrorIs(t, err, metering.ErrTokenNotFound)
	})
}

func TestReservationRepository_ResolveIfPending(t *testing.T) {
	db := setupTestDB(t)
	repo := NewReservationRepository(db, logger.NewLogger())
	ctx := context.Background()

	expiry := time.Now().Add(5 * time.Minute)

	t.Run("resolves a pending reservation exactly once", func(t *testing.T) {
		reservation := newTestReservation(t, "tok_once", 1, expiry)
		require.NoError(t, repo.Create(ctx, reservation))

		resolvedAt := time.Now()
		won, err := repo.ResolveIfPending(ctx, "tok_once", metering.ReservationStatusCommitted, resolvedAt)
		require.NoError(t, err)
		assert.True(t, won)

		// Second resolution loses the race but is not an error.
		won, err = repo.ResolveIfPending(ctx, "tok_once", metering.ReservationStatusReleased, resolvedAt)
		require.NoError(t, err)
		assert.False(t, won)

		loaded, err := repo.GetByToken(ctx, "tok_once")
		require.NoError(t, err)
		assert.Equal(t, metering.ReservationStatusCommitted, loaded.Status())
		require.NotNil(t, loaded.ResolvedAt())
	})

	t.Run("releases a pending reservation", func(t *testing.T) {
		reservation := newTestReservation(t, "tok_release", 1, expiry)
		require.NoError(t, repo.Create(ctx, reservation))

		won, err := repo.ResolveIfPending(ctx, "tok_release", metering.ReservationStatusReleased, time.Now())
		require.NoError(t, err)
		assert.True(t, won)

		loaded, err := repo.GetByToken(ctx, "tok_release")
		require.NoError(t, err)
		assert.Equal(t, metering.ReservationStatusReleased, loaded.Status())
	})

	t.Run("unknown token", func(t *testing.T) {
		_, err := repo.ResolveIfPending(ctx, "tok_ghost", metering.ReservationStatusCommitted, time.Now())
		assert.ErrorIs(t, err, metering.ErrTokenNotFound)
	})
}

func TestReservationRepository_CountPendingByPeriod(t *testing.T) {
	db := setupTestDB(t)
	repo := NewReservationRepository(db, logger.NewLogger())
	ctx := context.Background()

	expiry := time.Now().Add(5 * time.Minute)

	for _, token := range []string{"tok_cnt_a", "tok_cnt_b", "tok_cnt_c"} {
		require.NoError(t, repo.Create(ctx, newTestReservation(t, token, 7, expiry)))
	}
	require.NoError(t, repo.Create(ctx, newTestReservation(t, "tok_cnt_other", 8, expiry)))

	won, err := repo.ResolveIfPending(ctx, "tok_cnt_a", metering.ReservationStatusCommitted, time.Now())
	require.NoError(t, err)
	require.True(t, won)

	count, err := repo.CountPendingByPeriod(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)

	count, err = repo.CountPendingByPeriod(ctx, 99)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestReservationRepository_ListPendingByPeriod(t *testing.T) {
	db := setupTestDB(t)
	repo := NewReservationRepository(db, logger.NewLogger())
	ctx := context.Background()

	expiry := time.Now().Add(5 * time.Minute)

	require.NoError(t, repo.Create(ctx, newTestReservation(t, "tok_lp_a", 11, expiry)))
	require.NoError(t, repo.Create(ctx, newTestReservation(t, "tok_lp_b", 11, expiry)))
	require.NoError(t, repo.Create(ctx, newTestReservation(t, "tok_lp_other", 12, expiry)))

	won, err := repo.ResolveIfPending(ctx, "tok_lp_b", metering.ReservationStatusReleased, time.Now())
	require.NoError(t, err)
	require.True(t, won)

	pending, err := repo.ListPendingByPeriod(ctx, 11, 0)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "tok_lp_a", pending[0].Token())
}

func TestReservationRepository_ListExpiredPending(t *testing.T) {
	db := setupTestDB(t)
	repo := NewReservationRepository(db, logger.NewLogger())
	ctx := context.Background()

	now := time.Now()

	oldest := newTestReservation(t, "tok_exp_oldest", 21, now.Add(-10*time.Minute))
	require.NoError(t, repo.Create(ctx, oldest))

	stale := newTestReservation(t, "tok_exp_stale", 21, now.Add(-1*time.Minute))
	require.NoError(t, repo.Create(ctx, stale))

	fresh := newTestReservation(t, "tok_exp_fresh", 21, now.Add(5*time.Minute))
	require.NoError(t, repo.Create(ctx, fresh))

	resolved := newTestReservation(t, "tok_exp_resolved", 21, now.Add(-5*time.Minute))
	require.NoError(t, repo.Create(ctx, resolved))
	won, err := repo.ResolveIfPending(ctx, "tok_exp_resolved", metering.ReservationStatusCommitted, now)
	require.NoError(t, err)
	require.True(t, won)

	t.Run("returns only pending past expiry, earliest first", func(t *testing.T) {
		expired, err := repo.ListExpiredPending(ctx, now, 0)
		require.NoError(t, err)
		require.Len(t, expired, 2)
		assert.Equal(t, "tok_exp_oldest", expired[0].Token())
		assert.Equal(t, "tok_exp_stale", expired[1].Token())
	})

	t.Run("honors the limit", func(t *testing.T) {
		expired, err := repo.ListExpiredPending(ctx, now, 1)
		require.NoError(t, err)
		require.Len(t, expired, 1)
		assert.Equal(t, "tok_exp_oldest", expired[0].Token())
	})
}
