package metering

import (
	vo "chatfleet/internal/domain/subscription/valueobjects"
)

// Metric identifies one metered counter of a usage period.
type Metric string

const (
	MetricChatbots         Metric = vo.MetricChatbots
	MetricConversations    Metric = vo.MetricConversations
	MetricMessagesSent     Metric = vo.MetricMessagesSent
	MetricMessagesReceived Metric = vo.MetricMessagesReceived
	MetricAPICalls         Metric = vo.MetricAPICalls
	MetricStorageMB        Metric = vo.MetricStorageMB
)

var validMetrics = map[Metric]bool{
	MetricChatbots:         true,
	MetricConversations:    true,
	MetricMessagesSent:     true,
	MetricMessagesReceived: true,
	MetricAPICalls:         true,
	MetricStorageMB:        true,
}

func (m Metric) String() string {
	return string(m)
}

func (m Metric) IsValid() bool {
	return validMetrics[m]
}

// AllMetrics returns the metered counters in a stable order.
func AllMetrics() []Metric {
	return []Metric{
		MetricChatbots,
		MetricConversations,
		MetricMessagesSent,
		MetricMessagesReceived,
		MetricAPICalls,
		MetricStorageMB,
	}
}

// ParseMetric validates a metric name from an external caller.
func ParseMetric(s string) (Metric, error) {
	m := Metric(s)
	if !m.IsValid() {
		return "", ErrUnknownMetric
	}
	return m, nil
}
