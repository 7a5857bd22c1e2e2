// Package factor computes daily per-instrument factor values from price
// history and persists them through resumable checkpoints.
package factor

import (
	"github.com/rustyeddy/quant/market"
)

// Version is the factor schema version written with every row.
const Version = "v1"

// Scalar is one output value. Invalid scalars are never persisted.
type Scalar struct {
	V     float64
	Valid bool
}

// Column is one named output series aligned index-for-index with the input
// bars. Most factors emit a single column; jump risk emits two.
type Column struct {
	Name   string
	Values []Scalar
}

// Definition is one parameterized factor family instance.
type Definition interface {
	// Name is the canonical column name, e.g. "mom_252d_skip21".
	Name() string

	// StateKey is the checkpoint key for this instance.
	StateKey() string

	// BufferDays is how many calendar days of history to load before the
	// requested start so every rolling window can fill.
	BufferDays() int

	// Args is the parameter map persisted alongside each value.
	Args() map[string]any

	// Compute derives the output columns from bars sorted by date. Every
	// returned column has exactly len(bars) values.
	Compute(bars []market.PriceBar) []Column
}
