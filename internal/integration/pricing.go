package integration

// ModelPrice describes one entry of the pricing table.
type ModelPrice struct {
	Model       string  `json:"model"`
	USDPer1K    float64 `json:"usd_per_1k_tokens"`
	Description string  `json:"description"`
}

// defaultUSDPer1K is applied to models missing from the table so costs are
// never silently zero.
const defaultUSDPer1K = 0.0030

// PriceTable is a pure per-token cost lookup keyed by model identifier.
type PriceTable struct {
	prices map[string]ModelPrice
	order  []string
}

// NewPriceTable returns the built-in pricing table.
func NewPriceTable() *PriceTable {
	entries := []ModelPrice{
		{Model: "gpt-3.5-turbo", USDPer1K: 0.0015, Description: "Fast, cost-effective default"},
		{Model: "gpt-4o-mini", USDPer1K: 0.0006, Description: "Small multimodal model"},
		{Model: "gpt-4o", USDPer1K: 0.0100, Description: "Higher-accuracy analysis"},
	}

	t := &PriceTable{prices: make(map[string]ModelPrice, len(entries))}
	for _, e := range entries {
		t.prices[e.Model] = e
		t.order = append(t.order, e.Model)
	}
	return t
}

// CostFor returns the dollar cost of the given token count under the model's
// per-1K rate. Unknown models use the default rate.
func (t *PriceTable) CostFor(model string, tokens int) float64 {
	if tokens <= 0 {
		return 0
	}
	rate := defaultUSDPer1K
	if p, ok := t.prices[model]; ok {
		rate = p.USDPer1K
	}
	return float64(tokens) * rate / 1000
}

// Models returns the table entries in declaration order.
func (t *PriceTable) Models() []ModelPrice {
	result := make([]ModelPrice, 0, len(t.order))
	for _, m := range t.order {
		result = append(result, t.prices[m])
	}
	return result
}
