package observability

import (
	"sync/atomic"

	"github.com/marceloamor/CareDocQA/pkg/models"
)

// CostMeter accumulates token usage and derived cost across capability calls.
// Totals only ever increase for the lifetime of the process, and concurrent
// increments from different sessions are safe.
type CostMeter struct {
	calls  atomic.Int64
	tokens atomic.Int64
	// Cost is kept in micro-USD so it fits an atomic integer; a single
	// capability call costs well above one micro-dollar only in aggregate,
	// and rounding per call stays under $0.000001.
	microUSD atomic.Int64
}

// NewCostMeter returns a zeroed cost meter.
func NewCostMeter() *CostMeter {
	return &CostMeter{}
}

// Record adds one successful capability call's usage to the running totals.
// Negative inputs are ignored so the meter can never decrease.
func (m *CostMeter) Record(usage models.Usage) {
	m.calls.Add(1)
	if usage.TokensUsed > 0 {
		m.tokens.Add(int64(usage.TokensUsed))
	}
	if usage.CostUSD > 0 {
		m.microUSD.Add(int64(usage.CostUSD * 1e6))
	}
}

// Totals returns the accumulated call, token, and cost figures.
func (m *CostMeter) Totals() models.CostTotals {
	return models.CostTotals{
		Calls:   m.calls.Load(),
		Tokens:  m.tokens.Load(),
		CostUSD: float64(m.microUSD.Load()) / 1e6,
	}
}
