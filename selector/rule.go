package selector

import (
	"fmt"

	"github.com/rustyeddy/quant/signal"
)

// aggregateColumn is where Rule writes its transient sort score. It exists
// only on the selected frame, never in the database.
const aggregateColumn = "_selector_score"

// Rule filters by hard conditions, then ranks survivors by an aggregate of
// several rank columns and takes the top K. The aggregate is only a
// consistent ordering across columns, not a signal in its own right.
type Rule struct {
	K         int
	Rules     []Filter
	RankCols  []string
	Agg       string // "mean" or "sum"
	Ascending bool
}

func (s *Rule) Select(f *signal.Frame) (Result, error) {
	if s.K <= 0 {
		return Result{}, fmt.Errorf("k must be > 0")
	}
	if len(s.RankCols) == 0 {
		return Result{}, fmt.Errorf("rank_cols cannot be empty")
	}

	filtered, err := applyFilters(f, s.Rules)
	if err != nil {
		return Result{}, err
	}

	cols := make([][]float64, len(s.RankCols))
	for i, name := range s.RankCols {
		col, ok := filtered.Column(name)
		if !ok {
			return Result{}, fmt.Errorf("signals missing rank column: %s", name)
		}
		cols[i] = col
	}

	agg := make([]float64, filtered.Len())
	for row := range agg {
		sum := 0.0
		for _, col := range cols {
			sum += col[row]
		}
		switch s.Agg {
		case "", "mean":
			agg[row] = sum / float64(len(cols))
		case "sum":
			agg[row] = sum
		default:
			return Result{}, fmt.Errorf("unknown agg: %s", s.Agg)
		}
	}

	if err := filtered.SetColumn(aggregateColumn, agg); err != nil {
		return Result{}, err
	}
	sorted, err := filtered.SortBy(aggregateColumn, s.Ascending)
	if err != nil {
		return Result{}, err
	}
	return Result{Selected: sorted.Head(s.K), RankingCol: aggregateColumn}, nil
}
