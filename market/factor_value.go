package market

import "time"

// FactorValue is one computed scalar, uniquely keyed by
// (instrument, date, name, version). Recomputation overwrites, never
// duplicates.
type FactorValue struct {
	Instrument InstrumentID
	Date       time.Time
	Name       string
	Value      float64
	Version    string
	Args       map[string]any
	Config     map[string]any
	Source     string
}
