// Package selector picks the instruments a rebalance will hold, from a
// scored signal frame.
package selector

import (
	"fmt"

	"github.com/rustyeddy/quant/signal"
)

// Result is a selection: the surviving rows plus the column they were ranked
// by, kept so downstream can see why something made the cut.
type Result struct {
	Selected   *signal.Frame
	RankingCol string
}

// Selector reduces a signal frame to the rows to hold.
type Selector interface {
	Select(f *signal.Frame) (Result, error)
}

// Filter is one threshold condition on a signal column.
type Filter struct {
	Col string
	Op  string // ">", ">=", "<", "<=", "=="
	Thr float64
}

func applyFilters(f *signal.Frame, filters []Filter) (*signal.Frame, error) {
	for _, flt := range filters {
		col, ok := f.Column(flt.Col)
		if !ok {
			return nil, fmt.Errorf("signals missing filter column: %s", flt.Col)
		}
		var keep func(v float64) bool
		switch flt.Op {
		case ">":
			keep = func(v float64) bool { return v > flt.Thr }
		case ">=":
			keep = func(v float64) bool { return v >= flt.Thr }
		case "<":
			keep = func(v float64) bool { return v < flt.Thr }
		case "<=":
			keep = func(v float64) bool { return v <= flt.Thr }
		case "==":
			keep = func(v float64) bool { return v == flt.Thr }
		default:
			return nil, fmt.Errorf("unknown operator: %s", flt.Op)
		}
		f = f.FilterRows(func(i int) bool { return keep(col[i]) })
	}
	return f, nil
}
