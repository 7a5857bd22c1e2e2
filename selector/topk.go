package selector

import (
	"fmt"

	"github.com/rustyeddy/quant/signal"
)

// TopK filters, then takes the best K rows by one sort column.
type TopK struct {
	K         int
	SortBy    string
	Ascending bool
	Filters   []Filter
}

func (s *TopK) Select(f *signal.Frame) (Result, error) {
	if s.K <= 0 {
		return Result{}, fmt.Errorf("k must be > 0")
	}
	if _, ok := f.Column(s.SortBy); !ok {
		return Result{}, fmt.Errorf("signals missing sort_by column: %s", s.SortBy)
	}

	filtered, err := applyFilters(f, s.Filters)
	if err != nil {
		return Result{}, err
	}

	sorted, err := filtered.SortBy(s.SortBy, s.Ascending)
	if err != nil {
		return Result{}, err
	}
	return Result{Selected: sorted.Head(s.K), RankingCol: s.SortBy}, nil
}
