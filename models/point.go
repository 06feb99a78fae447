package models

import (
	"github.com/shopspring/decimal"
)

// Metric identifiers for the SOFR strip pipeline. The set is fixed; chart
// pipeline metric ids are assembled from configuration at process start.
const (
	MetricSOFROvernight = "SOFR_Overnight"
	MetricSOFR1MTerm    = "SOFR_1M_Term"
	MetricSOFR3MTerm    = "SOFR_3M_Term"
	MetricSOFR6MTerm    = "SOFR_6M_Term"
	MetricSOFR1YTerm    = "SOFR_1Y_Term"
	MetricSOFR30DAvg    = "SOFR_30D_Avg"
	MetricSOFR90DAvg    = "SOFR_90D_Avg"
	MetricSOFR180DAvg   = "SOFR_180D_Avg"
	MetricSOFRIndex     = "SOFR_Index"
)

// NormalizedPoint is a single time-series observation ready for storage.
// MetricID and TimestampMs form the composite store key; Unit is empty for
// metrics that carry no unit attribute.
type NormalizedPoint struct {
	MetricID    string
	TimestampMs int64
	Value       decimal.Decimal
	SourceDate  string
	Unit        string
}
