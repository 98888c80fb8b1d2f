package valueobjects

import "testing"

func TestSubscriptionStatus_CanUseService(t *testing.T) {
	tests := []struct {
		status SubscriptionStatus
		want   bool
	}{
		{StatusActive, true},
		{StatusTrialing, true},
		{StatusInactive, false},
		{StatusPastDue, false},
		{StatusCancelled, false},
	}

	for _, tt := range tests {
		t.Run(tt.status.String(), func(t *testing.T) {
			if got := tt.status.CanUseService(); got != tt.want {
				t.Errorf("CanUseService() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSubscriptionStatus_CanTransitionTo(t *testing.T) {
	tests := []struct {
		name string
		from SubscriptionStatus
		to   SubscriptionStatus
		want bool
	}{
		{"inactive to active", StatusInactive, StatusActive, true},
		{"inactive to trialing", StatusInactive, StatusTrialing, true},
		{"inactive to past_due", StatusInactive, StatusPastDue, false},
		{"trialing to active", StatusTrialing, StatusActive, true},
		{"trialing to cancelled", StatusTrialing, StatusCancelled, true},
		{"active to past_due", StatusActive, StatusPastDue, true},
		{"active to inactive", StatusActive, StatusInactive, false},
		{"past_due to active", StatusPastDue, StatusActive, true},
		{"cancelled to active", StatusCancelled, StatusActive, false},
		{"cancelled to anything", StatusCancelled, StatusInactive, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.from.CanTransitionTo(tt.to); got != tt.want {
				t.Errorf("CanTransitionTo() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestPlanLimits_For(t *testing.T) {
	limits := PlanLimits{
		MaxChatbots:              3,
		MaxConversationsPerMonth: 500,
		MaxMessagesPerMonth:      2000,
		MaxAPICallsPerMonth:      UnlimitedLimit,
		MaxStorageMB:             100,
	}

	tests := []struct {
		metric   string
		want     int64
		wantKnown bool
	}{
		{MetricChatbots, 3, true},
		{MetricConversations, 500, true},
		{MetricMessagesSent, 2000, true},
		{MetricMessagesReceived, 2000, true},
		{MetricAPICalls, UnlimitedLimit, true},
		{MetricStorageMB, 100, true},
		{"widgets", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.metric, func(t *testing.T) {
			got, known := limits.For(tt.metric)
			if known != tt.wantKnown {
				t.Fatalf("For(%q) known = %v, want %v", tt.metric, known, tt.wantKnown)
			}
			if got != tt.want {
				t.Errorf("For(%q) = %d, want %d", tt.metric, got, tt.want)
			}
		})
	}
}

func TestIsUnlimited(t *testing.T) {
	if !IsUnlimited(UnlimitedLimit) {
		t.Error("IsUnlimited(-1) should be true")
	}
	if IsUnlimited(0) {
		t.Error("IsUnlimited(0) should be false")
	}
	if IsUnlimited(100) {
		t.Error("IsUnlimited(100) should be false")
	}
}
