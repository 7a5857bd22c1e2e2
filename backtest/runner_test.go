package backtest

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rustyeddy/quant/market"
	"github.com/rustyeddy/quant/selector"
	"github.com/rustyeddy/quant/signal"
	"github.com/rustyeddy/quant/store"
	"github.com/rustyeddy/quant/strategy"
)

func runnerFixture(t *testing.T) (*Runner, *store.SQLiteStore) {
	t.Helper()
	s, err := store.NewSQLite(filepath.Join(t.TempDir(), "quant.sqlite"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	ctx := context.Background()

	var days []time.Time
	for _, d := range []string{
		"2024-01-02", "2024-01-15", "2024-01-31",
		"2024-02-01", "2024-02-15", "2024-02-28",
	} {
		day, err := market.ParseDay(d)
		require.NoError(t, err)
		days = append(days, day)
	}
	require.NoError(t, s.AddTradingDays(ctx, days, "US"))

	// Constant prices for three instruments on every trading day.
	var bars []market.PriceBar
	for _, d := range days {
		bars = append(bars,
			market.PriceBar{Instrument: 1, Date: d, AdjClose: 10},
			market.PriceBar{Instrument: 2, Date: d, AdjClose: 20},
			market.PriceBar{Instrument: 3, Date: d, AdjClose: 30},
		)
	}
	require.NoError(t, s.UpsertPriceBars(ctx, bars))

	// Factor data exists only on the January rebalance date.
	jan31, _ := market.ParseDay("2024-01-31")
	require.NoError(t, s.UpsertFactorValues(ctx, []market.FactorValue{
		{Instrument: 1, Date: jan31, Name: "mom_63d", Value: 0.30, Version: "v1"},
		{Instrument: 2, Date: jan31, Name: "mom_63d", Value: 0.10, Version: "v1"},
		{Instrument: 3, Date: jan31, Name: "mom_63d", Value: -0.20, Version: "v1"},
	}))

	r := &Runner{
		Strategy: &strategy.ScoringStrategy{
			Specs: []signal.FactorSpec{signal.DefaultSpec("mom_63d", true)},
			Scorer: &strategy.LinearScorer{
				Terms: []strategy.Term{{Col: "mom_63d_rank", Weight: 1.0}},
			},
			Builder: &signal.Builder{Factors: s, Version: "v1"},
		},
		Selector:  &selector.TopK{K: 2, SortBy: "mom_63d_rank"},
		Prices:    s,
		Calendar:  s,
		Snapshots: s,
		Universe: func(ctx context.Context, date time.Time) ([]market.InstrumentID, error) {
			return s.TradableInstrumentIDs(ctx)
		},
		InitialCash:   1000,
		ReinvestRatio: 1.0,
		RebalanceDay:  "last",
		Market:        "US",
	}

	require.NoError(t, s.UpsertInstruments(ctx, []market.Instrument{
		{ID: 1, Symbol: "AAA", Tradable: true},
		{ID: 2, Symbol: "BBB", Tradable: true},
		{ID: 3, Symbol: "CCC", Tradable: true},
	}))

	return r, s
}

func TestRunnerRebalancesAndSkips(t *testing.T) {
	t.Parallel()
	r, s := runnerFixture(t)
	ctx := context.Background()

	start, _ := market.ParseDay("2024-01-01")
	end, _ := market.ParseDay("2024-02-29")

	res, err := r.Run(ctx, start, end, true)
	require.NoError(t, err)
	assert.NotEmpty(t, res.RunID)

	// January rebalances; February has no factor data and is skipped.
	assert.Equal(t, 1, res.Rebalanced)
	assert.Equal(t, 1, res.Skipped)

	// Frictionless equal-weight buy of the top two keeps total value intact.
	assert.InDelta(t, 1000.0, res.FinalValue, 1e-9)

	require.Len(t, res.NAV, 1)
	jan31, _ := market.ParseDay("2024-01-31")
	assert.Equal(t, jan31, res.NAV[0].Date)
	assert.InDelta(t, 1000.0, res.NAV[0].Value, 1e-9)

	nav, err := s.NAVSeries(ctx)
	require.NoError(t, err)
	require.Len(t, nav, 1)
}

func TestRunnerOverwriteReplacesSnapshots(t *testing.T) {
	t.Parallel()
	r, s := runnerFixture(t)
	ctx := context.Background()

	start, _ := market.ParseDay("2024-01-01")
	end, _ := market.ParseDay("2024-02-29")

	_, err := r.Run(ctx, start, end, true)
	require.NoError(t, err)
	_, err = r.Run(ctx, start, end, true)
	require.NoError(t, err)

	nav, err := s.NAVSeries(ctx)
	require.NoError(t, err)
	require.Len(t, nav, 1)
	assert.InDelta(t, 1000.0, nav[0].Value, 1e-9)
}

func TestRunnerDropsUnpricedSelections(t *testing.T) {
	t.Parallel()
	r, s := runnerFixture(t)
	ctx := context.Background()

	// Instrument 9 is tradable with a winning factor value, but has no
	// price history.
	jan31, _ := market.ParseDay("2024-01-31")
	require.NoError(t, s.UpsertInstruments(ctx, []market.Instrument{
		{ID: 9, Symbol: "ZZZ", Tradable: true},
	}))
	require.NoError(t, s.UpsertFactorValues(ctx, []market.FactorValue{
		{Instrument: 9, Date: jan31, Name: "mom_63d", Value: 0.99, Version: "v1"},
	}))

	start, _ := market.ParseDay("2024-01-01")
	end, _ := market.ParseDay("2024-01-31")

	res, err := r.Run(ctx, start, end, true)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Rebalanced)

	// Top two by rank are 9 and 1; 9 is unpriced, so all cash lands on 1.
	rows, err := s.NAVSeries(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.InDelta(t, 1000.0, rows[0].Value, 1e-9)
}

func TestRunnerNoTradingDays(t *testing.T) {
	t.Parallel()
	r, _ := runnerFixture(t)
	ctx := context.Background()

	start, _ := market.ParseDay("2030-01-01")
	end, _ := market.ParseDay("2030-12-31")
	_, err := r.Run(ctx, start, end, true)
	assert.Error(t, err)
}
