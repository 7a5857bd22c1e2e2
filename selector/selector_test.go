package selector

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rustyeddy/quant/market"
	"github.com/rustyeddy/quant/signal"
)

func selectionFrame(t *testing.T) *signal.Frame {
	t.Helper()
	f := signal.NewFrame([]market.InstrumentID{1, 2, 3, 4, 5})
	require.NoError(t, f.SetColumn("mom_63d_rank", []float64{0.8, -0.2, 0.6, 0.9, 0.1}))
	require.NoError(t, f.SetColumn("vol_20d_ann_rank", []float64{0.5, 0.7, -0.9, 0.2, 0.4}))
	return f
}

func TestTopKSelect(t *testing.T) {
	t.Parallel()
	s := &TopK{K: 2, SortBy: "mom_63d_rank"}

	res, err := s.Select(selectionFrame(t))
	require.NoError(t, err)
	assert.Equal(t, "mom_63d_rank", res.RankingCol)
	assert.Equal(t, []market.InstrumentID{4, 1}, res.Selected.Instruments())
}

func TestTopKWithFilters(t *testing.T) {
	t.Parallel()
	s := &TopK{
		K:      3,
		SortBy: "mom_63d_rank",
		Filters: []Filter{
			{Col: "mom_63d_rank", Op: ">", Thr: 0.0},
			{Col: "vol_20d_ann_rank", Op: ">=", Thr: 0.3},
		},
	}

	res, err := s.Select(selectionFrame(t))
	require.NoError(t, err)
	// Instruments 3 and 4 fail the volatility filter, 2 the momentum one.
	assert.Equal(t, []market.InstrumentID{1, 5}, res.Selected.Instruments())
}

func TestTopKAscendingTakesWorst(t *testing.T) {
	t.Parallel()
	s := &TopK{K: 1, SortBy: "mom_63d_rank", Ascending: true}
	res, err := s.Select(selectionFrame(t))
	require.NoError(t, err)
	assert.Equal(t, []market.InstrumentID{2}, res.Selected.Instruments())
}

func TestTopKValidation(t *testing.T) {
	t.Parallel()

	_, err := (&TopK{K: 0, SortBy: "mom_63d_rank"}).Select(selectionFrame(t))
	assert.Error(t, err)

	_, err = (&TopK{K: 1, SortBy: "missing"}).Select(selectionFrame(t))
	assert.Error(t, err)

	s := &TopK{K: 1, SortBy: "mom_63d_rank", Filters: []Filter{{Col: "mom_63d_rank", Op: "!?", Thr: 0}}}
	_, err = s.Select(selectionFrame(t))
	assert.Error(t, err)
}

func TestRuleSelectMeanAggregate(t *testing.T) {
	t.Parallel()
	s := &Rule{
		K:        2,
		RankCols: []string{"mom_63d_rank", "vol_20d_ann_rank"},
	}

	res, err := s.Select(selectionFrame(t))
	require.NoError(t, err)
	assert.Equal(t, aggregateColumn, res.RankingCol)

	// Mean scores: 1:0.65, 2:0.25, 3:-0.15, 4:0.55, 5:0.25.
	assert.Equal(t, []market.InstrumentID{1, 4}, res.Selected.Instruments())

	agg, ok := res.Selected.Column(aggregateColumn)
	require.True(t, ok)
	assert.InDelta(t, 0.65, agg[0], 1e-12)
}

func TestRuleSelectWithRulesAndSum(t *testing.T) {
	t.Parallel()
	s := &Rule{
		K:        5,
		Rules:    []Filter{{Col: "mom_63d_rank", Op: ">", Thr: 0.0}},
		RankCols: []string{"mom_63d_rank"},
		Agg:      "sum",
	}

	res, err := s.Select(selectionFrame(t))
	require.NoError(t, err)
	assert.Equal(t, []market.InstrumentID{4, 1, 3, 5}, res.Selected.Instruments())
}

func TestRuleValidation(t *testing.T) {
	t.Parallel()

	_, err := (&Rule{K: 0, RankCols: []string{"mom_63d_rank"}}).Select(selectionFrame(t))
	assert.Error(t, err)

	_, err = (&Rule{K: 1}).Select(selectionFrame(t))
	assert.Error(t, err)

	_, err = (&Rule{K: 1, RankCols: []string{"missing"}}).Select(selectionFrame(t))
	assert.Error(t, err)

	s := &Rule{K: 1, RankCols: []string{"mom_63d_rank"}, Agg: "median"}
	_, err = s.Select(selectionFrame(t))
	assert.Error(t, err)
}
