package valueobjects

type SubscriptionStatus string

const (
	StatusInactive  SubscriptionStatus = "inactive"
	StatusTrialing  SubscriptionStatus = "trialing"
	StatusActive    SubscriptionStatus = "active"
	StatusPastDue   SubscriptionStatus = "past_due"
	StatusCancelled SubscriptionStatus = "cancelled"
)

func (s SubscriptionStatus) String() string {
	return string(s)
}

// CanUseService reports whether billable actions are allowed in this status.
func (s SubscriptionStatus) CanUseService() bool {
	return s == StatusActive || s == StatusTrialing
}

func (s SubscriptionStatus) IsTerminal() bool {
	return s == StatusCancelled
}

func (s SubscriptionStatus) CanTransitionTo(target SubscriptionStatus) bool {
	transitions := map[SubscriptionStatus][]SubscriptionStatus{
		StatusInactive:  {StatusTrialing, StatusActive},
		StatusTrialing:  {StatusActive, StatusPastDue, StatusCancelled},
		StatusActive:    {StatusPastDue, StatusCancelled},
		StatusPastDue:   {StatusActive, StatusCancelled},
		StatusCancelled: {},
	}

	allowed, exists := transitions[s]
	if !exists {
		return false
	}

	for _, allowedStatus := range allowed {
		if allowedStatus == target {
			return true
		}
	}
	return false
}

var ValidStatuses = map[SubscriptionStatus]bool{
	StatusInactive:  true,
	StatusTrialing:  true,
	StatusActive:    true,
	StatusPastDue:   true,
	StatusCancelled: true,
}
