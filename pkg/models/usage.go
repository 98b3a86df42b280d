package models

// Usage is the token and cost accounting for a single capability call, or
// the accumulated figures for a whole operation.
type Usage struct {
	Model      string  `yaml:"model" json:"model"`
	TokensUsed int     `yaml:"tokens_used" json:"tokens_used"`
	CostUSD    float64 `yaml:"cost_usd" json:"cost_usd"`
}

// Add accumulates another call's usage into this one. The model of the most
// recent call wins, which is correct while a single model serves a session.
func (u *Usage) Add(other Usage) {
	if other.Model != "" {
		u.Model = other.Model
	}
	u.TokensUsed += other.TokensUsed
	u.CostUSD += other.CostUSD
}

// CostTotals is the running total maintained by the cost meter. Values are
// monotonically increasing for the lifetime of the process.
type CostTotals struct {
	Calls   int64   `yaml:"calls" json:"calls"`
	Tokens  int64   `yaml:"tokens" json:"tokens"`
	CostUSD float64 `yaml:"cost_usd" json:"cost_usd"`
}
