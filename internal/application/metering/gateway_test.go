package metering

import (
	"context"
	"testing"

	"chatfleet/internal/domain/metering"
)

func TestEnforcementGateway_AuthorizeConfirm(t *testing.T) {
	f := newFixture(t, starterPlanLimits())
	ctx := context.Background()

	result, err := f.gateway.Authorize(ctx, f.companyID, metering.MetricMessagesSent, 2)
	if err != nil {
		t.Fatalf("Authorize() error = %v", err)
	}
	if !result.Decision.Allowed {
		t.Fatalf("Decision.Allowed = false, want true")
	}
	if result.Token == nil || result.Token.Token == "" {
		t.Fatal("admission must carry a token")
	}

	if err := f.gateway.Confirm(ctx, result.Token.Token); err != nil {
		t.Fatalf("Confirm() error = %v", err)
	}

	period, err := f.accumulator.Snapshot(ctx, f.companyID)
	if err != nil {
		t.Fatalf("Snapshot() error = %v", err)
	}
	if got := period.Counter(metering.MetricMessagesSent); got != 2 {
		t.Errorf("counter after confirm = %d, want 2", got)
	}
}

func TestEnforcementGateway_AuthorizeAbandon(t *testing.T) {
	f := newFixture(t, starterPlanLimits())
	ctx := context.Background()

	result, err := f.gateway.Authorize(ctx, f.companyID, metering.MetricConversations, 1)
	if err != nil {
		t.Fatalf("Authorize() error = %v", err)
	}

	if err := f.gateway.Abandon(ctx, result.Token.Token); err != nil {
		t.Fatalf("Abandon() error = %v", err)
	}

	period, err := f.accumulator.Snapshot(ctx, f.companyID)
	if err != nil {
		t.Fatalf("Snapshot() error = %v", err)
	}
	if got := period.Counter(metering.MetricConversations); got != 0 {
		t.Errorf("counter after abandon = %d, want 0", got)
	}
}

func TestEnforcementGateway_TokenIsSingleUse(t *testing.T) {
	f := newFixture(t, starterPlanLimits())
	ctx := context.Background()

	result, err := f.gateway.Authorize(ctx, f.companyID, metering.MetricAPICalls, 1)
	if err != nil {
		t.Fatalf("Authorize() error = %v", err)
	}
	token := result.Token.Token

	if err := f.gateway.Confirm(ctx, token); err != nil {
		t.Fatalf("Confirm() error = %v", err)
	}
	if err := f.gateway.Confirm(ctx, token); err != metering.ErrTokenAlreadyResolved {
		t.Errorf("second Confirm() error = %v, want ErrTokenAlreadyResolved", err)
	}
	if err := f.gateway.Abandon(ctx, token); err != metering.ErrTokenAlreadyResolved {
		t.Errorf("Abandon() after Confirm() error = %v, want ErrTokenAlreadyResolved", err)
	}
}

// Starter plan scenario: 1999 messages sent of a 2000 message cap. Sending
// two more is denied; receiving two is admitted because each direction has
// its own counter under the shared cap.
func TestEnforcementGateway_StarterMessageCap(t *testing.T) {
	f := newFixture(t, starterPlanLimits())
	ctx := context.Background()

	seed, err := f.gateway.Authorize(ctx, f.companyID, metering.MetricMessagesSent, 1999)
	if err != nil {
		t.Fatalf("seed Authorize() error = %v", err)
	}
	if err := f.gateway.Confirm(ctx, seed.Token.Token); err != nil {
		t.Fatalf("seed Confirm() error = %v", err)
	}

	denied, err := f.gateway.Authorize(ctx, f.companyID, metering.MetricMessagesSent, 2)
	if err != nil {
		t.Fatalf("Authorize(sent) error = %v", err)
	}
	if denied.Decision.Allowed {
		t.Error("sending 2 at 1999/2000 should be denied")
	}
	if denied.Decision.Reason != metering.DenialReasonLimitExceeded {
		t.Errorf("Reason = %v, want limit_exceeded", denied.Decision.Reason)
	}
	if denied.Token != nil {
		t.Error("denial must not carry a token")
	}

	admitted, err := f.gateway.Authorize(ctx, f.companyID, metering.MetricMessagesReceived, 2)
	if err != nil {
		t.Fatalf("Authorize(received) error = %v", err)
	}
	if !admitted.Decision.Allowed {
		t.Error("receiving 2 with received counter at 0 should be admitted")
	}

	// The denied authorize must not have moved the sent counter.
	period, err := f.accumulator.Snapshot(ctx, f.companyID)
	if err != nil {
		t.Fatalf("Snapshot() error = %v", err)
	}
	if got := period.Counter(metering.MetricMessagesSent); got != 1999 {
		t.Errorf("sent counter = %d, want 1999", got)
	}
	if got := period.Counter(metering.MetricMessagesReceived); got != 2 {
		t.Errorf("received counter = %d, want 2", got)
	}
}

func TestEnforcementGateway_DeniesInactiveSubscription(t *testing.T) {
	f := newFixture(t, starterPlanLimits())
	ctx := context.Background()

	if err := f.sub.Cancel(); err != nil {
		t.Fatalf("Cancel() error = %v", err)
	}

	result, err := f.gateway.Authorize(ctx, f.companyID, metering.MetricMessagesSent, 1)
	if err != nil {
		t.Fatalf("Authorize() error = %v", err)
	}
	if result.Decision.Allowed {
		t.Error("cancelled subscription should be denied")
	}
	if result.Decision.Reason != metering.DenialReasonSubscriptionNotActive {
		t.Errorf("Reason = %v, want subscription_not_active", result.Decision.Reason)
	}
}

func TestEnforcementGateway_DeniesClosingPeriod(t *testing.T) {
	f := newFixture(t, starterPlanLimits())
	ctx := context.Background()

	seed, err := f.gateway.Authorize(ctx, f.companyID, metering.MetricAPICalls, 1)
	if err != nil {
		t.Fatalf("Authorize() error = %v", err)
	}
	if err := f.gateway.Confirm(ctx, seed.Token.Token); err != nil {
		t.Fatalf("Confirm() error = %v", err)
	}

	period, err := f.accumulator.Snapshot(ctx, f.companyID)
	if err != nil {
		t.Fatalf("Snapshot() error = %v", err)
	}
	if err := f.periodRepo.MarkClosing(ctx, period.ID()); err != nil {
		t.Fatalf("MarkClosing() error = %v", err)
	}

	result, err := f.gateway.Authorize(ctx, f.companyID, metering.MetricAPICalls, 1)
	if err != nil {
		t.Fatalf("Authorize() error = %v", err)
	}
	if result.Decision.Allowed {
		t.Error("authorize during rollover drain should be denied")
	}
	if result.Decision.Reason != metering.DenialReasonPeriodClosing {
		t.Errorf("Reason = %v, want period_closing", result.Decision.Reason)
	}
}
