package metering

import (
	"context"
	"testing"

	"chatfleet/internal/domain/metering"
	vo "chatfleet/internal/domain/subscription/valueobjects"
)

func TestQuotaEvaluator_Evaluate(t *testing.T) {
	ctx := context.Background()

	t.Run("allows within limit", func(t *testing.T) {
		f := newFixture(t, starterPlanLimits())

		d, err := f.evaluator.Evaluate(ctx, f.companyID, metering.MetricMessagesSent, 100)
		if err != nil {
			t.Fatalf("Evaluate() error = %v", err)
		}
		if !d.Allowed {
			t.Errorf("Allowed = false, want true")
		}
		if d.Limit != 2000 || d.Used != 0 {
			t.Errorf("Limit = %d, Used = %d, want 2000, 0", d.Limit, d.Used)
		}
	})

	t.Run("denies over limit", func(t *testing.T) {
		f := newFixture(t, starterPlanLimits())
		if _, _, err := f.accumulator.Reserve(ctx, f.companyID, metering.MetricMessagesSent, 1999, -1); err != nil {
			t.Fatalf("seed Reserve() error = %v", err)
		}

		d, err := f.evaluator.Evaluate(ctx, f.companyID, metering.MetricMessagesSent, 2)
		if err != nil {
			t.Fatalf("Evaluate() error = %v", err)
		}
		if d.Allowed {
			t.Error("Allowed = true, want false")
		}
		if d.Reason != metering.DenialReasonLimitExceeded {
			t.Errorf("Reason = %v, want limit_exceeded", d.Reason)
		}
		if d.Remaining != 1 {
			t.Errorf("Remaining = %d, want 1", d.Remaining)
		}
	})

	t.Run("message directions share cap but not counters", func(t *testing.T) {
		f := newFixture(t, starterPlanLimits())
		if _, _, err := f.accumulator.Reserve(ctx, f.companyID, metering.MetricMessagesSent, 1999, -1); err != nil {
			t.Fatalf("seed Reserve() error = %v", err)
		}

		sent, err := f.evaluator.Evaluate(ctx, f.companyID, metering.MetricMessagesSent, 2)
		if err != nil {
			t.Fatalf("Evaluate(sent) error = %v", err)
		}
		if sent.Allowed {
			t.Error("sent should be denied at 1999 + 2 > 2000")
		}

		received, err := f.evaluator.Evaluate(ctx, f.companyID, metering.MetricMessagesReceived, 2)
		if err != nil {
			t.Fatalf("Evaluate(received) error = %v", err)
		}
		if !received.Allowed {
			t.Error("received has its own counter at 0 and should be allowed")
		}
	})

	t.Run("unlimited metric always allowed", func(t *testing.T) {
		limits := starterPlanLimits()
		limits.MaxAPICallsPerMonth = vo.UnlimitedLimit
		f := newFixture(t, limits)

		d, err := f.evaluator.Evaluate(ctx, f.companyID, metering.MetricAPICalls, 1_000_000)
		if err != nil {
			t.Fatalf("Evaluate() error = %v", err)
		}
		if !d.Allowed {
			t.Error("Allowed = false, want true for unlimited metric")
		}
		if d.Remaining != -1 {
			t.Errorf("Remaining = %d, want -1", d.Remaining)
		}
	})

	t.Run("denies inactive subscription", func(t *testing.T) {
		f := newFixture(t, starterPlanLimits())
		if err := f.sub.Cancel(); err != nil {
			t.Fatalf("Cancel() error = %v", err)
		}

		d, err := f.evaluator.Evaluate(ctx, f.companyID, metering.MetricMessagesSent, 1)
		if err != nil {
			t.Fatalf("Evaluate() error = %v", err)
		}
		if d.Allowed {
			t.Error("Allowed = true, want false for cancelled subscription")
		}
		if d.Reason != metering.DenialReasonSubscriptionNotActive {
			t.Errorf("Reason = %v, want subscription_not_active", d.Reason)
		}
	})

	t.Run("unknown metric", func(t *testing.T) {
		f := newFixture(t, starterPlanLimits())
		if _, err := f.evaluator.Evaluate(ctx, f.companyID, metering.Metric("widgets"), 1); err != metering.ErrUnknownMetric {
			t.Errorf("Evaluate() error = %v, want ErrUnknownMetric", err)
		}
	})
}

func TestQuotaEvaluator_EvaluateDoesNotMutate(t *testing.T) {
	f := newFixture(t, starterPlanLimits())
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		if _, err := f.evaluator.Evaluate(ctx, f.companyID, metering.MetricMessagesSent, 10); err != nil {
			t.Fatalf("Evaluate() error = %v", err)
		}
	}

	// Evaluation must not open a period nor touch counters.
	if _, err := f.accumulator.Snapshot(ctx, f.companyID); err != metering.ErrPeriodNotFound {
		t.Errorf("Snapshot() after evaluations error = %v, want ErrPeriodNotFound", err)
	}
	if len(f.reservationRepo.reservations) != 0 {
		t.Errorf("evaluations created %d reservations, want 0", len(f.reservationRepo.reservations))
	}
}

func TestQuotaEvaluator_LimitFor(t *testing.T) {
	f := newFixture(t, starterPlanLimits())
	ctx := context.Background()

	limit, err := f.evaluator.LimitFor(ctx, f.companyID, metering.MetricMessagesReceived)
	if err != nil {
		t.Fatalf("LimitFor() error = %v", err)
	}
	if limit != 2000 {
		t.Errorf("LimitFor(messages_received) = %d, want shared message cap 2000", limit)
	}

	if err := f.sub.Cancel(); err != nil {
		t.Fatalf("Cancel() error = %v", err)
	}
	if _, err := f.evaluator.LimitFor(ctx, f.companyID, metering.MetricMessagesSent); err != metering.ErrSubscriptionNotActive {
		t.Errorf("LimitFor() for cancelled subscription error = %v, want ErrSubscriptionNotActive", err)
	}
}
