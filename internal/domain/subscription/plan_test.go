package subscription

import (
	"testing"

	vo "chatfleet/internal/domain/subscription/valueobjects"
)

func starterLimits() vo.PlanLimits {
	return vo.PlanLimits{
		MaxChatbots:              1,
		MaxConversationsPerMonth: 500,
		MaxMessagesPerMonth:      2000,
		MaxAPICallsPerMonth:      1000,
		MaxStorageMB:             100,
	}
}

func TestNewPlan(t *testing.T) {
	tests := []struct {
		name     string
		sid      string
		planName string
		slug     string
		tier     PlanTier
		limits   vo.PlanLimits
		wantErr  bool
	}{
		{"valid", "plan_a", "Starter", "starter", PlanTierStarter, starterLimits(), false},
		{"missing SID", "", "Starter", "starter", PlanTierStarter, starterLimits(), true},
		{"missing name", "plan_a", "", "starter", PlanTierStarter, starterLimits(), true},
		{"missing slug", "plan_a", "Starter", "", PlanTierStarter, starterLimits(), true},
		{"invalid tier", "plan_a", "Starter", "starter", PlanTier("gold"), starterLimits(), true},
		{
			"limit below unlimited sentinel",
			"plan_a", "Starter", "starter", PlanTierStarter,
			vo.PlanLimits{MaxChatbots: -2},
			true,
		},
		{
			"unlimited limits accepted",
			"plan_a", "Enterprise", "enterprise", PlanTierEnterprise,
			vo.PlanLimits{
				MaxChatbots:              vo.UnlimitedLimit,
				MaxConversationsPerMonth: vo.UnlimitedLimit,
				MaxMessagesPerMonth:      vo.UnlimitedLimit,
				MaxAPICallsPerMonth:      vo.UnlimitedLimit,
				MaxStorageMB:             vo.UnlimitedLimit,
			},
			false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := NewPlan(tt.sid, tt.planName, tt.slug, tt.tier, 2900, 0, tt.limits)
			if (err != nil) != tt.wantErr {
				t.Fatalf("NewPlan() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err == nil && !p.IsActive() {
				t.Error("new plan should be active")
			}
		})
	}
}

func TestPlan_YearlyDiscountPercent(t *testing.T) {
	tests := []struct {
		name         string
		priceMonthly uint64
		priceYearly  uint64
		want         float64
	}{
		{"no yearly price", 2900, 0, 0},
		{"free plan", 0, 0, 0},
		{"two months free", 1000, 10000, 16.7},
		{"no discount", 1000, 12000, 0},
		{"yearly dearer than monthly", 1000, 15000, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := NewPlan("plan_a", "Test", "test", PlanTierStarter, tt.priceMonthly, tt.priceYearly, starterLimits())
			if err != nil {
				t.Fatalf("NewPlan() error = %v", err)
			}
			if got := p.YearlyDiscountPercent(); got != tt.want {
				t.Errorf("YearlyDiscountPercent() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestPlan_Features(t *testing.T) {
	p, err := NewPlan("plan_a", "Business", "business", PlanTierBusiness, 7900, 79000, starterLimits())
	if err != nil {
		t.Fatalf("NewPlan() error = %v", err)
	}

	if p.HasFeature("priority_support") {
		t.Error("unset feature should be disabled")
	}

	p.SetFeature("priority_support", true)
	if !p.HasFeature("priority_support") {
		t.Error("enabled feature should be reported")
	}

	features := p.Features()
	features["priority_support"] = false
	if !p.HasFeature("priority_support") {
		t.Error("mutating Features() copy changed aggregate")
	}
}

func TestPlan_UpdateLimits(t *testing.T) {
	p, err := NewPlan("plan_a", "Starter", "starter", PlanTierStarter, 2900, 0, starterLimits())
	if err != nil {
		t.Fatalf("NewPlan() error = %v", err)
	}

	if err := p.UpdateLimits(vo.PlanLimits{MaxChatbots: -5}); err == nil {
		t.Error("UpdateLimits() with invalid limit should fail")
	}

	updated := starterLimits()
	updated.MaxMessagesPerMonth = 5000
	if err := p.UpdateLimits(updated); err != nil {
		t.Fatalf("UpdateLimits() error = %v", err)
	}
	if p.Limits().MaxMessagesPerMonth != 5000 {
		t.Errorf("MaxMessagesPerMonth = %d, want 5000", p.Limits().MaxMessagesPerMonth)
	}
}
