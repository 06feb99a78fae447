package models

// StripResponse is the top-level SOFR strip-rate payload published by CME.
type StripResponse struct {
	ResultsStrip []RawDayRecord `json:"resultsStrip"`
}

// RawDayRecord is one calendar day of published SOFR rates. Scalar fields
// arrive as numbers or strings depending on availability, so every value is
// a FlexNumber coerced explicitly during normalization.
type RawDayRecord struct {
	Date          string     `json:"date"`
	Overnight     FlexNumber `json:"overnight"`
	Average30Day  FlexNumber `json:"average30day"`
	Average90Day  FlexNumber `json:"average90day"`
	Average180Day FlexNumber `json:"average180day"`
	Index         FlexNumber `json:"index"`
	Rates         RawRates   `json:"rates"`
}

// RawRates nests the per-term fixing list under the day record.
type RawRates struct {
	SofrRatesFixing []RawTermRate `json:"sofrRatesFixing"`
}

// RawTermRate is one published (term, price, timestamp) triple. Multiple
// triples may share a term within the same day record.
type RawTermRate struct {
	Term      string     `json:"term"`
	Price     FlexNumber `json:"price"`
	Timestamp string     `json:"timestamp"`
}
