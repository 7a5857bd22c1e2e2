// Package market holds the shared domain types for the pipeline: instruments,
// daily price bars, and factor values.
package market

import "time"

// PriceBar is one daily OHLCV row for an instrument, carrying both the raw
// and the corporate-action-adjusted series plus the dividend and split
// applied on that date. Bars are immutable once ingested except for upsert
// corrections.
type PriceBar struct {
	Instrument InstrumentID
	Date       time.Time

	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64

	AdjOpen   float64
	AdjHigh   float64
	AdjLow    float64
	AdjClose  float64
	AdjVolume float64

	Dividend    float64
	SplitFactor float64
}

// Day truncates t to midnight UTC so dates compare cleanly no matter where
// they were parsed.
func Day(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseDay parses a YYYY-MM-DD date string.
func ParseDay(s string) (time.Time, error) {
	return time.Parse("2006-01-02", s)
}

// FormatDay renders t as YYYY-MM-DD.
func FormatDay(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}
