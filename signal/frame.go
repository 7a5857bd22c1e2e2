// Package signal turns stored factor values into normalized cross-sectional
// signal frames, one per trading day.
package signal

import (
	"fmt"
	"sort"

	"github.com/rustyeddy/quant/market"
)

// Frame is a cross-section: one row per instrument, one float column per
// factor or derived signal. Column order is insertion order.
type Frame struct {
	ids   []market.InstrumentID
	names []string
	cols  map[string][]float64
}

// NewFrame creates a frame over the given instrument rows.
func NewFrame(ids []market.InstrumentID) *Frame {
	return &Frame{
		ids:  ids,
		cols: make(map[string][]float64),
	}
}

// Len is the number of rows.
func (f *Frame) Len() int { return len(f.ids) }

// Instruments returns the row identity column.
func (f *Frame) Instruments() []market.InstrumentID { return f.ids }

// Columns returns the column names in insertion order.
func (f *Frame) Columns() []string { return f.names }

// Column returns a column by name.
func (f *Frame) Column(name string) ([]float64, bool) {
	c, ok := f.cols[name]
	return c, ok
}

// SetColumn adds or replaces a column. Its length must match the row count.
func (f *Frame) SetColumn(name string, vals []float64) error {
	if len(vals) != len(f.ids) {
		return fmt.Errorf("column %s: %d values for %d rows", name, len(vals), len(f.ids))
	}
	if _, exists := f.cols[name]; !exists {
		f.names = append(f.names, name)
	}
	f.cols[name] = vals
	return nil
}

// FilterRows returns a new frame keeping only rows where keep returns true.
func (f *Frame) FilterRows(keep func(row int) bool) *Frame {
	var idx []int
	for i := range f.ids {
		if keep(i) {
			idx = append(idx, i)
		}
	}
	return f.take(idx)
}

// SortBy returns a new frame with rows stably ordered by the named column.
func (f *Frame) SortBy(name string, ascending bool) (*Frame, error) {
	col, ok := f.cols[name]
	if !ok {
		return nil, fmt.Errorf("missing sort column: %s", name)
	}
	idx := make([]int, len(f.ids))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		if ascending {
			return col[idx[a]] < col[idx[b]]
		}
		return col[idx[a]] > col[idx[b]]
	})
	return f.take(idx), nil
}

// Head returns a new frame with at most k leading rows.
func (f *Frame) Head(k int) *Frame {
	if k > len(f.ids) {
		k = len(f.ids)
	}
	idx := make([]int, k)
	for i := range idx {
		idx[i] = i
	}
	return f.take(idx)
}

func (f *Frame) take(idx []int) *Frame {
	out := &Frame{
		ids:   make([]market.InstrumentID, len(idx)),
		names: append([]string(nil), f.names...),
		cols:  make(map[string][]float64, len(f.cols)),
	}
	for i, j := range idx {
		out.ids[i] = f.ids[j]
	}
	for name, col := range f.cols {
		nc := make([]float64, len(idx))
		for i, j := range idx {
			nc[i] = col[j]
		}
		out.cols[name] = nc
	}
	return out
}
