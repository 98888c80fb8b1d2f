package subscription

import (
	"fmt"
	"time"

	vo "chatfleet/internal/domain/subscription/valueobjects"
)

type PlanTier string

const (
	PlanTierStarter    PlanTier = "starter"
	PlanTierBusiness   PlanTier = "business"
	PlanTierEnterprise PlanTier = "enterprise"
)

var validTiers = map[PlanTier]bool{
	PlanTierStarter:    true,
	PlanTierBusiness:   true,
	PlanTierEnterprise: true,
}

// Plan is the subscription plan catalog entry. Catalog entries are shared,
// referenced by many subscriptions and mutated only administratively.
type Plan struct {
	id           uint
	sid          string
	name         string
	slug         string
	tier         PlanTier
	description  string
	priceMonthly uint64 // cents
	priceYearly  uint64 // cents, 0 when yearly billing is not offered
	limits       vo.PlanLimits
	features     map[string]bool
	isActive     bool
	createdAt    time.Time
	updatedAt    time.Time
}

func NewPlan(sid, name, slug string, tier PlanTier, priceMonthly, priceYearly uint64, limits vo.PlanLimits) (*Plan, error) {
	if sid == "" {
		return nil, fmt.Errorf("plan SID is required")
	}
	if name == "" {
		return nil, fmt.Errorf("plan name is required")
	}
	if slug == "" {
		return nil, fmt.Errorf("plan slug is required")
	}
	if len(name) > 100 {
		return nil, fmt.Errorf("plan name too long (max 100 characters)")
	}
	if !validTiers[tier] {
		return nil, fmt.Errorf("invalid plan tier: %s", tier)
	}
	if err := validateLimits(limits); err != nil {
		return nil, err
	}

	now := time.Now()
	return &Plan{
		sid:          sid,
		name:         name,
		slug:         slug,
		tier:         tier,
		priceMonthly: priceMonthly,
		priceYearly:  priceYearly,
		limits:       limits,
		features:     make(map[string]bool),
		isActive:     true,
		createdAt:    now,
		updatedAt:    now,
	}, nil
}

func ReconstructPlan(
	id uint,
	sid, name, slug string,
	tier PlanTier,
	description string,
	priceMonthly, priceYearly uint64,
	limits vo.PlanLimits,
	features map[string]bool,
	isActive bool,
	createdAt, updatedAt time.Time,
) (*Plan, error) {
	if id == 0 {
		return nil, fmt.Errorf("plan ID cannot be zero")
	}
	if !validTiers[tier] {
		return nil, fmt.Errorf("invalid plan tier: %s", tier)
	}
	if features == nil {
		features = make(map[string]bool)
	}

	return &Plan{
		id:           id,
		sid:          sid,
		name:         name,
		slug:         slug,
		tier:         tier,
		description:  description,
		priceMonthly: priceMonthly,
		priceYearly:  priceYearly,
		limits:       limits,
		features:     features,
		isActive:     isActive,
		createdAt:    createdAt,
		updatedAt:    updatedAt,
	}, nil
}

func validateLimits(limits vo.PlanLimits) error {
	for _, l := range []int64{
		limits.MaxChatbots,
		limits.MaxConversationsPerMonth,
		limits.MaxMessagesPerMonth,
		limits.MaxAPICallsPerMonth,
		limits.MaxStorageMB,
	} {
		if l < vo.UnlimitedLimit {
			return fmt.Errorf("plan limit must be -1 (unlimited) or non-negative, got %d", l)
		}
	}
	return nil
}

func (p *Plan) ID() uint                { return p.id }
func (p *Plan) SID() string             { return p.sid }
func (p *Plan) Name() string            { return p.name }
func (p *Plan) Slug() string            { return p.slug }
func (p *Plan) Tier() PlanTier          { return p.tier }
func (p *Plan) Description() string     { return p.description }
func (p *Plan) PriceMonthly() uint64    { return p.priceMonthly }
func (p *Plan) PriceYearly() uint64     { return p.priceYearly }
func (p *Plan) Limits() vo.PlanLimits   { return p.limits }
func (p *Plan) IsActive() bool          { return p.isActive }
func (p *Plan) CreatedAt() time.Time    { return p.createdAt }
func (p *Plan) UpdatedAt() time.Time    { return p.updatedAt }

func (p *Plan) Features() map[string]bool {
	out := make(map[string]bool, len(p.features))
	for k, v := range p.features {
		out[k] = v
	}
	return out
}

// HasFeature reports whether the named feature flag is enabled on this plan.
func (p *Plan) HasFeature(name string) bool {
	return p.features[name]
}

// SetID sets the plan ID (only for persistence layer use)
func (p *Plan) SetID(id uint) error {
	if p.id != 0 {
		return fmt.Errorf("plan ID is already set")
	}
	if id == 0 {
		return fmt.Errorf("plan ID cannot be zero")
	}
	p.id = id
	return nil
}

func (p *Plan) SetDescription(description string) {
	p.description = description
	p.updatedAt = time.Now()
}

func (p *Plan) SetFeature(name string, enabled bool) {
	p.features[name] = enabled
	p.updatedAt = time.Now()
}

func (p *Plan) UpdateLimits(limits vo.PlanLimits) error {
	if err := validateLimits(limits); err != nil {
		return err
	}
	p.limits = limits
	p.updatedAt = time.Now()
	return nil
}

func (p *Plan) UpdatePricing(priceMonthly, priceYearly uint64) {
	p.priceMonthly = priceMonthly
	p.priceYearly = priceYearly
	p.updatedAt = time.Now()
}

func (p *Plan) Activate() {
	if p.isActive {
		return
	}
	p.isActive = true
	p.updatedAt = time.Now()
}

func (p *Plan) Deactivate() {
	if !p.isActive {
		return
	}
	p.isActive = false
	p.updatedAt = time.Now()
}

// YearlyDiscountPercent returns the discount of yearly billing against twelve
// monthly payments, rounded to one decimal place. Zero when yearly billing is
// not offered.
func (p *Plan) YearlyDiscountPercent() float64 {
	if p.priceYearly == 0 || p.priceMonthly == 0 {
		return 0
	}

	monthlyTotal := float64(p.priceMonthly) * 12
	discount := (monthlyTotal - float64(p.priceYearly)) / monthlyTotal * 100
	if discount < 0 {
		return 0
	}
	return float64(int(discount*10+0.5)) / 10
}
