package valueobjects

// UnlimitedLimit is the sentinel value meaning "no cap" for a plan limit.
// Kept as -1 to match the catalog convention rather than a nullable column.
const UnlimitedLimit int64 = -1

// Metered metric names. These are the canonical counter identifiers shared
// between plan limits and usage period columns.
const (
	MetricChatbots         = "chatbots_used"
	MetricConversations    = "conversations_count"
	MetricMessagesSent     = "messages_sent"
	MetricMessagesReceived = "messages_received"
	MetricAPICalls         = "api_calls_count"
	MetricStorageMB        = "storage_used_mb"
)

// PlanLimits holds the per-billing-period caps of a subscription plan.
// A value of -1 means unlimited.
type PlanLimits struct {
	MaxChatbots              int64
	MaxConversationsPerMonth int64
	MaxMessagesPerMonth      int64
	MaxAPICallsPerMonth      int64
	MaxStorageMB             int64
}

// For returns the limit applied to the named metric. Sent and received
// messages share the plan's message cap. The second return is false for an
// unknown metric name.
func (l PlanLimits) For(metric string) (int64, bool) {
	switch metric {
	case MetricChatbots:
		return l.MaxChatbots, true
	case MetricConversations:
		return l.MaxConversationsPerMonth, true
	case MetricMessagesSent, MetricMessagesReceived:
		return l.MaxMessagesPerMonth, true
	case MetricAPICalls:
		return l.MaxAPICallsPerMonth, true
	case MetricStorageMB:
		return l.MaxStorageMB, true
	default:
		return 0, false
	}
}

// IsUnlimited reports whether the given limit value is the unlimited sentinel.
func IsUnlimited(limit int64) bool {
	return limit == UnlimitedLimit
}
