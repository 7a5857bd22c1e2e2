package strategy

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rustyeddy/quant/market"
	"github.com/rustyeddy/quant/signal"
	"github.com/rustyeddy/quant/store"
)

func TestScoringStrategyEndToEnd(t *testing.T) {
	t.Parallel()
	s, err := store.NewSQLite(filepath.Join(t.TempDir(), "quant.sqlite"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	ctx := context.Background()
	date := time.Date(2024, 5, 31, 0, 0, 0, 0, time.UTC)

	require.NoError(t, s.UpsertFactorValues(ctx, []market.FactorValue{
		{Instrument: 1, Date: date, Name: "mom_63d", Value: 0.10, Version: "v1"},
		{Instrument: 2, Date: date, Name: "mom_63d", Value: 0.30, Version: "v1"},
		{Instrument: 3, Date: date, Name: "mom_63d", Value: -0.20, Version: "v1"},
	}))

	st := &ScoringStrategy{
		Specs: []signal.FactorSpec{signal.DefaultSpec("mom_63d", true)},
		Scorer: &LinearScorer{
			Terms: []Term{{Col: "mom_63d_rank", Weight: 1.0}},
		},
		Builder: &signal.Builder{Factors: s, Version: "v1"},
	}

	res, err := st.ScoreForDate(ctx, date, nil)
	require.NoError(t, err)

	score, ok := res.Signals.Column(res.ScoreCol)
	require.True(t, ok)
	require.Equal(t, []market.InstrumentID{1, 2, 3}, res.Signals.Instruments())
	assert.Greater(t, score[1], score[0]) // strongest momentum scores highest
	assert.Greater(t, score[0], score[2])

	// A day with no factors reports the sentinel, not a hard error.
	_, err = st.ScoreForDate(ctx, date.AddDate(0, 0, 1), nil)
	assert.ErrorIs(t, err, signal.ErrNoFactorData)
}
