package observability

import (
	"fmt"
	"time"
)

// UsageMetrics holds aggregates derived from the event log.
type UsageMetrics struct {
	AnalysesCompleted int            `json:"analyses_completed"`
	QuestionsAnswered int            `json:"questions_answered"`
	DocumentsUpdated  int            `json:"documents_updated"`
	SessionsCleared   int            `json:"sessions_cleared"`
	CapabilityCalls   int            `json:"capability_calls"`
	CallsByKind       map[string]int `json:"calls_by_kind"`
	TokensUsed        int64          `json:"tokens_used"`
	CostUSD           float64        `json:"cost_usd"`
	EventCount        int            `json:"event_count"`
	OldestEvent       *time.Time     `json:"oldest_event,omitempty"`
	NewestEvent       *time.Time     `json:"newest_event,omitempty"`
}

// UsageCalculator derives usage metrics from the event log.
type UsageCalculator interface {
	Calculate(since time.Time) (*UsageMetrics, error)
}

type usageCalculator struct {
	eventLog EventLog
}

// NewUsageCalculator creates a UsageCalculator that reads from the given EventLog.
func NewUsageCalculator(eventLog EventLog) UsageCalculator {
	return &usageCalculator{eventLog: eventLog}
}

// Calculate reads all events since the given time and aggregates them.
func (uc *usageCalculator) Calculate(since time.Time) (*UsageMetrics, error) {
	events, err := uc.eventLog.Read(EventFilter{Since: &since})
	if err != nil {
		return nil, fmt.Errorf("reading events for usage metrics: %w", err)
	}

	m := &UsageMetrics{
		CallsByKind: make(map[string]int),
	}
	m.EventCount = len(events)

	for i, event := range events {
		if i == 0 {
			t := event.Time
			m.OldestEvent = &t
		}
		t := event.Time
		m.NewestEvent = &t

		switch event.Type {
		case EventAnalysisCompleted:
			m.AnalysesCompleted++
		case EventChatAnswered:
			m.QuestionsAnswered++
		case EventDocumentUpdated:
			m.DocumentsUpdated++
		case EventSessionCleared:
			m.SessionsCleared++
		case EventCapabilityCall:
			m.CapabilityCalls++
			if kind, ok := event.Data["prompt_kind"].(string); ok {
				m.CallsByKind[kind]++
			}
			if tokens, ok := event.Data["tokens_used"].(float64); ok {
				m.TokensUsed += int64(tokens)
			}
			if cost, ok := event.Data["cost_usd"].(float64); ok {
				m.CostUSD += cost
			}
		}
	}

	return m, nil
}
