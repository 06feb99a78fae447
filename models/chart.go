package models

// ChartResponse is the GraphQL envelope returned by the chart-data endpoint.
// Pointers model the probing walk down data.chartData.priceBars; a nil link
// anywhere on that path is a structural mismatch, not a decode error.
type ChartResponse struct {
	Data *ChartResponseData `json:"data"`
}

type ChartResponseData struct {
	ChartData *ChartData `json:"chartData"`
}

type ChartData struct {
	PriceBars []RawBar `json:"priceBars"`
}

// PriceBars returns the bar list when the expected nesting is present.
func (r *ChartResponse) PriceBars() ([]RawBar, bool) {
	if r == nil || r.Data == nil || r.Data.ChartData == nil || r.Data.ChartData.PriceBars == nil {
		return nil, false
	}
	return r.Data.ChartData.PriceBars, true
}

// RawBar is one sampled chart point. TradeTimeMs is optional; Close may be a
// number, a percentage string, or a textual sentinel such as "UNCH".
type RawBar struct {
	TradeTimeMs *int64     `json:"tradeTimeinMills"`
	Close       FlexNumber `json:"close"`
}
