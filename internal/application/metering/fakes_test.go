package metering

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"time"

	"chatfleet/internal/domain/metering"
	"chatfleet/internal/domain/subscription"
	vo "chatfleet/internal/domain/subscription/valueobjects"
	"chatfleet/internal/shared/logger"
)

func testLogger() logger.Interface {
	return logger.NewLoggerWithSlog(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

type storedPeriod struct {
	id             uint
	sid            string
	companyID      uint
	subscriptionID uint
	periodStart    time.Time
	periodEnd      time.Time
	status         metering.PeriodStatus
	counters       map[metering.Metric]int64
}

type fakePeriodRepo struct {
	mu      sync.Mutex
	periods map[uint]*storedPeriod
	nextID  uint
}

func newFakePeriodRepo() *fakePeriodRepo {
	return &fakePeriodRepo{periods: make(map[uint]*storedPeriod)}
}

func (r *fakePeriodRepo) Create(_ context.Context, period *metering.UsagePeriod) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, p := range r.periods {
		if p.companyID == period.CompanyID() && p.periodStart.Equal(period.PeriodStart()) {
			return errors.New("UNIQUE constraint failed: usage_periods.company_id, usage_periods.period_start")
		}
	}

	r.nextID++
	counters := make(map[metering.Metric]int64)
	for m, v := range period.Counters() {
		counters[m] = v
	}
	r.periods[r.nextID] = &storedPeriod{
		id:             r.nextID,
		sid:            period.SID(),
		companyID:      period.CompanyID(),
		subscriptionID: period.SubscriptionID(),
		periodStart:    period.PeriodStart(),
		periodEnd:      period.PeriodEnd(),
		status:         period.Status(),
		counters:       counters,
	}
	return period.SetID(r.nextID)
}

func (r *fakePeriodRepo) toAggregate(p *storedPeriod) (*metering.UsagePeriod, error) {
	counters := make(map[metering.Metric]int64, len(p.counters))
	for m, v := range p.counters {
		counters[m] = v
	}
	return metering.ReconstructUsagePeriod(
		p.id, p.sid, p.companyID, p.subscriptionID,
		p.periodStart, p.periodEnd, p.status, counters,
		time.Now(), time.Now(),
	)
}

func (r *fakePeriodRepo) GetByID(_ context.Context, id uint) (*metering.UsagePeriod, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.periods[id]
	if !ok {
		return nil, metering.ErrPeriodNotFound
	}
	return r.toAggregate(p)
}

func (r *fakePeriodRepo) GetOpenByCompanyID(_ context.Context, companyID uint, at time.Time) (*metering.UsagePeriod, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, p := range r.periods {
		if p.companyID != companyID || p.status == metering.PeriodStatusClosed {
			continue
		}
		if !at.Before(p.periodStart) && at.Before(p.periodEnd) {
			return r.toAggregate(p)
		}
	}
	return nil, nil
}

func (r *fakePeriodRepo) TryIncrementCounter(_ context.Context, periodID uint, metric metering.Metric, delta, limit int64) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.periods[periodID]
	if !ok {
		return 0, metering.ErrPeriodNotFound
	}
	if p.status != metering.PeriodStatusOpen {
		return 0, metering.ErrPeriodClosing
	}
	if limit >= 0 && p.counters[metric]+delta > limit {
		return 0, metering.NewLimitExceededError(metric, limit, p.counters[metric], delta)
	}
	p.counters[metric] += delta
	return p.counters[metric], nil
}

func (r *fakePeriodRepo) CompensateCounter(_ context.Context, periodID uint, metric metering.Metric, amount int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.periods[periodID]
	if !ok {
		return metering.ErrPeriodNotFound
	}
	if p.status == metering.PeriodStatusClosed {
		return metering.ErrPeriodClosed
	}
	p.counters[metric] -= amount
	return nil
}

func (r *fakePeriodRepo) MarkClosing(_ context.Context, periodID uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.periods[periodID]
	if !ok {
		return metering.ErrPeriodNotFound
	}
	if p.status == metering.PeriodStatusClosed {
		return metering.ErrPeriodClosed
	}
	p.status = metering.PeriodStatusClosing
	return nil
}

func (r *fakePeriodRepo) MarkClosed(_ context.Context, periodID uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.periods[periodID]
	if !ok {
		return metering.ErrPeriodNotFound
	}
	p.status = metering.PeriodStatusClosed
	return nil
}

func (r *fakePeriodRepo) ListExpiredOpen(_ context.Context, now time.Time, limit int) ([]*metering.UsagePeriod, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []*metering.UsagePeriod
	for _, p := range r.periods {
		if p.status != metering.PeriodStatusOpen || now.Before(p.periodEnd) {
			continue
		}
		agg, err := r.toAggregate(p)
		if err != nil {
			return nil, err
		}
		out = append(out, agg)
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, nil
}

func (r *fakePeriodRepo) ListByCompanyID(_ context.Context, companyID uint, limit, offset int) ([]*metering.UsagePeriod, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []*metering.UsagePeriod
	for _, p := range r.periods {
		if p.companyID != companyID {
			continue
		}
		agg, err := r.toAggregate(p)
		if err != nil {
			return nil, err
		}
		out = append(out, agg)
	}
	return out, nil
}

// counter reads a stored counter directly, bypassing the aggregate.
func (r *fakePeriodRepo) counter(periodID uint, metric metering.Metric) int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.periods[periodID].counters[metric]
}

func (r *fakePeriodRepo) setCounter(periodID uint, metric metering.Metric, v int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.periods[periodID].counters[metric] = v
}

type storedReservation struct {
	id            uint
	token         string
	companyID     uint
	usagePeriodID uint
	metric        metering.Metric
	amount        int64
	status        metering.ReservationStatus
	expiresAt     time.Time
	resolvedAt    *time.Time
	createdAt     time.Time
}

type fakeReservationRepo struct {
	mu           sync.Mutex
	reservations map[string]*storedReservation
	nextID       uint
}

func newFakeReservationRepo() *fakeReservationRepo {
	return &fakeReservationRepo{reservations: make(map[string]*storedReservation)}
}

func (r *fakeReservationRepo) Create(_ context.Context, res *metering.Reservation) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.reservations[res.Token()]; ok {
		return errors.New("UNIQUE constraint failed: reservations.token")
	}
	r.nextID++
	r.reservations[res.Token()] = &storedReservation{
		id:            r.nextID,
		token:         res.Token(),
		companyID:     res.CompanyID(),
		usagePeriodID: res.UsagePeriodID(),
		metric:        res.Metric(),
		amount:        res.Amount(),
		status:        res.Status(),
		expiresAt:     res.ExpiresAt(),
		createdAt:     res.CreatedAt(),
	}
	return res.SetID(r.nextID)
}

func (r *fakeReservationRepo) GetByToken(_ context.Context, token string) (*metering.Reservation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.reservations[token]
	if !ok {
		return nil, metering.ErrTokenNotFound
	}
	return metering.ReconstructReservation(
		s.id, s.token, s.companyID, s.usagePeriodID,
		s.metric, s.amount, s.status, s.expiresAt, s.resolvedAt, s.createdAt,
	)
}

func (r *fakeReservationRepo) ResolveIfPending(_ context.Context, token string, target metering.ReservationStatus, resolvedAt time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.reservations[token]
	if !ok {
		return false, metering.ErrTokenNotFound
	}
	if s.status != metering.ReservationStatusPending {
		return false, nil
	}
	s.status = target
	s.resolvedAt = &resolvedAt
	return true, nil
}

func (r *fakeReservationRepo) CountPendingByPeriod(_ context.Context, periodID uint) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var n int64
	for _, s := range r.reservations {
		if s.usagePeriodID == periodID && s.status == metering.ReservationStatusPending {
			n++
		}
	}
	return n, nil
}

func (r *fakeReservationRepo) ListPendingByPeriod(_ context.Context, periodID uint, limit int) ([]*metering.Reservation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []*metering.Reservation
	for _, s := range r.reservations {
		if s.usagePeriodID != periodID || s.status != metering.ReservationStatusPending {
			continue
		}
		res, err := metering.ReconstructReservation(
			s.id, s.token, s.companyID, s.usagePeriodID,
			s.metric, s.amount, s.status, s.expiresAt, s.resolvedAt, s.createdAt,
		)
		if err != nil {
			return nil, err
		}
		out = append(out, res)
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, nil
}

func (r *fakeReservationRepo) ListExpiredPending(_ context.Context, now time.Time, limit int) ([]*metering.Reservation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []*metering.Reservation
	for _, s := range r.reservations {
		if s.status != metering.ReservationStatusPending || now.Before(s.expiresAt) {
			continue
		}
		res, err := metering.ReconstructReservation(
			s.id, s.token, s.companyID, s.usagePeriodID,
			s.metric, s.amount, s.status, s.expiresAt, s.resolvedAt, s.createdAt,
		)
		if err != nil {
			return nil, err
		}
		out = append(out, res)
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, nil
}

type fakeSubscriptionRepo struct {
	mu   sync.Mutex
	subs map[uint]*subscription.Subscription
}

func newFakeSubscriptionRepo() *fakeSubscriptionRepo {
	return &fakeSubscriptionRepo{subs: make(map[uint]*subscription.Subscription)}
}

func (r *fakeSubscriptionRepo) put(sub *subscription.Subscription) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.subs[sub.CompanyID()] = sub
}

func (r *fakeSubscriptionRepo) Create(_ context.Context, sub *subscription.Subscription) error {
	r.put(sub)
	return nil
}

func (r *fakeSubscriptionRepo) Update(_ context.Context, sub *subscription.Subscription) error {
	r.put(sub)
	return nil
}

func (r *fakeSubscriptionRepo) GetByID(_ context.Context, id uint) (*subscription.Subscription, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.subs {
		if s.ID() == id {
			return s, nil
		}
	}
	return nil, subscription.ErrSubscriptionNotFound
}

func (r *fakeSubscriptionRepo) GetBySID(_ context.Context, sid string) (*subscription.Subscription, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.subs {
		if s.SID() == sid {
			return s, nil
		}
	}
	return nil, subscription.ErrSubscriptionNotFound
}

func (r *fakeSubscriptionRepo) GetActiveByCompanyID(_ context.Context, companyID uint) (*subscription.Subscription, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.subs[companyID]
	if !ok || !s.IsUsable() {
		return nil, nil
	}
	return s, nil
}

func (r *fakeSubscriptionRepo) GetByCompanyID(_ context.Context, companyID uint) (*subscription.Subscription, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.subs[companyID]
	if !ok {
		return nil, nil
	}
	return s, nil
}

func (r *fakeSubscriptionRepo) ListPeriodDue(_ context.Context, now time.Time, limit int) ([]*subscription.Subscription, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*subscription.Subscription
	for _, s := range r.subs {
		if s.IsUsable() && s.PeriodDue(now) {
			out = append(out, s)
		}
	}
	return out, nil
}

type fakePlanRepo struct {
	mu    sync.Mutex
	plans map[uint]*subscription.Plan
}

func newFakePlanRepo() *fakePlanRepo {
	return &fakePlanRepo{plans: make(map[uint]*subscription.Plan)}
}

func (r *fakePlanRepo) put(p *subscription.Plan) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.plans[p.ID()] = p
}

func (r *fakePlanRepo) Create(_ context.Context, p *subscription.Plan) error {
	r.put(p)
	return nil
}

func (r *fakePlanRepo) Update(_ context.Context, p *subscription.Plan) error {
	r.put(p)
	return nil
}

func (r *fakePlanRepo) GetByID(_ context.Context, id uint) (*subscription.Plan, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.plans[id]
	if !ok {
		return nil, subscription.ErrPlanNotFound
	}
	return p, nil
}

func (r *fakePlanRepo) GetBySlug(_ context.Context, slug string) (*subscription.Plan, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.plans {
		if p.Slug() == slug {
			return p, nil
		}
	}
	return nil, subscription.ErrPlanNotFound
}

func (r *fakePlanRepo) ListActive(_ context.Context) ([]*subscription.Plan, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*subscription.Plan
	for _, p := range r.plans {
		if p.IsActive() {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *fakePlanRepo) List(_ context.Context) ([]*subscription.Plan, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*subscription.Plan
	for _, p := range r.plans {
		out = append(out, p)
	}
	return out, nil
}

// fixture wires the metering services over fake storage with one active
// company on the starter plan.
type fixture struct {
	periodRepo      *fakePeriodRepo
	reservationRepo *fakeReservationRepo
	subRepo         *fakeSubscriptionRepo
	planRepo        *fakePlanRepo
	accumulator     *PeriodAccumulator
	evaluator       *QuotaEvaluator
	gateway         *EnforcementGateway
	companyID       uint
	sub             *subscription.Subscription
}

func starterPlanLimits() vo.PlanLimits {
	return vo.PlanLimits{
		MaxChatbots:              1,
		MaxConversationsPerMonth: 500,
		MaxMessagesPerMonth:      2000,
		MaxAPICallsPerMonth:      1000,
		MaxStorageMB:             100,
	}
}

func newFixture(t testingT, limits vo.PlanLimits) *fixture {
	t.Helper()

	plan, err := subscription.NewPlan("plan_starter", "Starter", "starter", subscription.PlanTierStarter, 2900, 0, limits)
	if err != nil {
		t.Fatalf("NewPlan() error = %v", err)
	}
	if err := plan.SetID(1); err != nil {
		t.Fatalf("SetID() error = %v", err)
	}

	start := time.Now().UTC().Add(-time.Hour)
	sub, err := subscription.NewSubscription("sub_fixture", 1, plan.ID(), start, start.AddDate(0, 1, 0), nil)
	if err != nil {
		t.Fatalf("NewSubscription() error = %v", err)
	}
	if err := sub.SetID(1); err != nil {
		t.Fatalf("SetID() error = %v", err)
	}
	if err := sub.Activate(); err != nil {
		t.Fatalf("Activate() error = %v", err)
	}

	f := &fixture{
		periodRepo:      newFakePeriodRepo(),
		reservationRepo: newFakeReservationRepo(),
		subRepo:         newFakeSubscriptionRepo(),
		planRepo:        newFakePlanRepo(),
		companyID:       1,
		sub:             sub,
	}
	f.planRepo.put(plan)
	f.subRepo.put(sub)

	log := testLogger()
	f.accumulator = NewPeriodAccumulator(f.periodRepo, f.reservationRepo, f.subRepo, 5*time.Minute, log)
	f.evaluator = NewQuotaEvaluator(f.subRepo, f.planRepo, f.periodRepo, nil, log)
	f.gateway = NewEnforcementGateway(f.evaluator, f.accumulator, log)
	return f
}

// testingT is the subset of *testing.T the fixture needs.
type testingT interface {
	Helper()
	Fatalf(format string, args ...any)
}
