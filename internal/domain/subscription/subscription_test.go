package subscription

import (
	"testing"
	"time"

	vo "chatfleet/internal/domain/subscription/valueobjects"
)

func newTestSubscription(t *testing.T, trialEnd *time.Time) *Subscription {
	t.Helper()
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	s, err := NewSubscription("sub_test1", 1, 1, start, start.AddDate(0, 1, 0), trialEnd)
	if err != nil {
		t.Fatalf("NewSubscription() error = %v", err)
	}
	return s
}

func TestNewSubscription(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	trialEnd := start.AddDate(0, 0, 14)

	tests := []struct {
		name       string
		sid        string
		companyID  uint
		planID     uint
		start, end time.Time
		trialEnd   *time.Time
		wantStatus vo.SubscriptionStatus
		wantErr    bool
	}{
		{
			name:       "without trial starts inactive",
			sid:        "sub_a",
			companyID:  1,
			planID:     1,
			start:      start,
			end:        start.AddDate(0, 1, 0),
			wantStatus: vo.StatusInactive,
		},
		{
			name:       "with trial starts trialing",
			sid:        "sub_a",
			companyID:  1,
			planID:     1,
			start:      start,
			end:        start.AddDate(0, 1, 0),
			trialEnd:   &trialEnd,
			wantStatus: vo.StatusTrialing,
		},
		{
			name:      "missing SID",
			companyID: 1,
			planID:    1,
			start:     start,
			end:       start.AddDate(0, 1, 0),
			wantErr:   true,
		},
		{
			name:    "zero company ID",
			sid:     "sub_a",
			planID:  1,
			start:   start,
			end:     start.AddDate(0, 1, 0),
			wantErr: true,
		},
		{
			name:      "end not after start",
			sid:       "sub_a",
			companyID: 1,
			planID:    1,
			start:     start,
			end:       start,
			wantErr:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := NewSubscription(tt.sid, tt.companyID, tt.planID, tt.start, tt.end, tt.trialEnd)
			if (err != nil) != tt.wantErr {
				t.Fatalf("NewSubscription() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil {
				return
			}
			if s.Status() != tt.wantStatus {
				t.Errorf("Status() = %v, want %v", s.Status(), tt.wantStatus)
			}
			if s.Version() != 1 {
				t.Errorf("Version() = %d, want 1", s.Version())
			}
		})
	}
}

func TestSubscription_StatusTransitions(t *testing.T) {
	t.Run("activate from inactive", func(t *testing.T) {
		s := newTestSubscription(t, nil)
		if err := s.Activate(); err != nil {
			t.Fatalf("Activate() error = %v", err)
		}
		if s.Status() != vo.StatusActive {
			t.Errorf("Status() = %v, want active", s.Status())
		}
	})

	t.Run("activate is idempotent", func(t *testing.T) {
		s := newTestSubscription(t, nil)
		_ = s.Activate()
		v := s.Version()
		if err := s.Activate(); err != nil {
			t.Fatalf("second Activate() error = %v", err)
		}
		if s.Version() != v {
			t.Error("idempotent Activate() should not bump version")
		}
	})

	t.Run("past due from active and back", func(t *testing.T) {
		s := newTestSubscription(t, nil)
		_ = s.Activate()
		if err := s.MarkPastDue(); err != nil {
			t.Fatalf("MarkPastDue() error = %v", err)
		}
		if s.IsUsable() {
			t.Error("past_due subscription should not be usable")
		}
		if err := s.Activate(); err != nil {
			t.Fatalf("Activate() from past_due error = %v", err)
		}
	})

	t.Run("past due from inactive rejected", func(t *testing.T) {
		s := newTestSubscription(t, nil)
		if err := s.MarkPastDue(); err == nil {
			t.Error("MarkPastDue() from inactive should fail")
		}
	})

	t.Run("cancelled is terminal", func(t *testing.T) {
		s := newTestSubscription(t, nil)
		_ = s.Activate()
		if err := s.Cancel(); err != nil {
			t.Fatalf("Cancel() error = %v", err)
		}
		if s.CancelledAt() == nil {
			t.Error("CancelledAt() should be set")
		}
		if err := s.Activate(); err == nil {
			t.Error("Activate() after cancel should fail")
		}
		// idempotent
		if err := s.Cancel(); err != nil {
			t.Errorf("second Cancel() error = %v", err)
		}
	})
}

func TestSubscription_ScheduledCancellation(t *testing.T) {
	s := newTestSubscription(t, nil)

	if err := s.ScheduleCancellation(); err == nil {
		t.Error("ScheduleCancellation() on inactive subscription should fail")
	}

	_ = s.Activate()
	if err := s.ScheduleCancellation(); err != nil {
		t.Fatalf("ScheduleCancellation() error = %v", err)
	}
	if !s.CancelAtPeriodEnd() {
		t.Error("CancelAtPeriodEnd() should be true")
	}

	if err := s.Reactivate(); err != nil {
		t.Fatalf("Reactivate() error = %v", err)
	}
	if s.CancelAtPeriodEnd() {
		t.Error("Reactivate() should clear cancel_at_period_end")
	}

	_ = s.ScheduleCancellation()
	_ = s.Cancel()
	if s.CancelAtPeriodEnd() {
		t.Error("Cancel() should clear cancel_at_period_end")
	}
	if err := s.Reactivate(); err == nil {
		t.Error("Reactivate() after cancel should fail")
	}
}

func TestSubscription_AdvancePeriod(t *testing.T) {
	s := newTestSubscription(t, nil)
	_ = s.Activate()

	oldEnd := s.CurrentPeriodEnd()
	nextEnd := oldEnd.AddDate(0, 1, 0)

	if err := s.AdvancePeriod(oldEnd); err == nil {
		t.Error("AdvancePeriod() with non-advancing end should fail")
	}

	if err := s.AdvancePeriod(nextEnd); err != nil {
		t.Fatalf("AdvancePeriod() error = %v", err)
	}
	if !s.CurrentPeriodStart().Equal(oldEnd) {
		t.Errorf("CurrentPeriodStart() = %v, want %v", s.CurrentPeriodStart(), oldEnd)
	}
	if !s.CurrentPeriodEnd().Equal(nextEnd) {
		t.Errorf("CurrentPeriodEnd() = %v, want %v", s.CurrentPeriodEnd(), nextEnd)
	}
}

func TestSubscription_PeriodDue(t *testing.T) {
	s := newTestSubscription(t, nil)

	if s.PeriodDue(s.CurrentPeriodEnd().Add(-time.Second)) {
		t.Error("PeriodDue() before period end should be false")
	}
	if !s.PeriodDue(s.CurrentPeriodEnd()) {
		t.Error("PeriodDue() at period end should be true")
	}
}

func TestSubscription_RecordPayment(t *testing.T) {
	s := newTestSubscription(t, nil)
	paidAt := time.Now()

	if err := s.RecordPayment(paidAt); err != nil {
		t.Fatalf("RecordPayment() error = %v", err)
	}
	if s.Status() != vo.StatusActive {
		t.Errorf("Status() = %v, want active after payment", s.Status())
	}
	if s.LastPaymentDate() == nil || !s.LastPaymentDate().Equal(paidAt) {
		t.Errorf("LastPaymentDate() = %v, want %v", s.LastPaymentDate(), paidAt)
	}
}

func TestSubscription_ChangePlan(t *testing.T) {
	s := newTestSubscription(t, nil)

	if err := s.ChangePlan(2); err == nil {
		t.Error("ChangePlan() on inactive subscription should fail")
	}

	_ = s.Activate()
	if err := s.ChangePlan(2); err != nil {
		t.Fatalf("ChangePlan() error = %v", err)
	}
	if s.PlanID() != 2 {
		t.Errorf("PlanID() = %d, want 2", s.PlanID())
	}

	v := s.Version()
	if err := s.ChangePlan(2); err != nil {
		t.Fatalf("ChangePlan() to same plan error = %v", err)
	}
	if s.Version() != v {
		t.Error("ChangePlan() to same plan should not bump version")
	}
}
