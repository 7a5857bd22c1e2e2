package backtest

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rustyeddy/quant/market"
	"github.com/rustyeddy/quant/store"
)

func calendarStore(t *testing.T, days ...string) (*store.SQLiteStore, []time.Time) {
	t.Helper()
	s, err := store.NewSQLite(filepath.Join(t.TempDir(), "quant.sqlite"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	parsed := make([]time.Time, len(days))
	for i, d := range days {
		day, err := market.ParseDay(d)
		require.NoError(t, err)
		parsed[i] = day
	}
	require.NoError(t, s.AddTradingDays(context.Background(), parsed, "US"))
	return s, parsed
}

func TestRebalanceDatesLast(t *testing.T) {
	t.Parallel()
	s, days := calendarStore(t,
		"2024-01-02", "2024-01-15", "2024-01-31",
		"2024-02-01", "2024-02-28",
	)

	got, err := rebalanceDates(context.Background(), s, days, "last", "US")
	require.NoError(t, err)
	assert.Equal(t, map[string]bool{"2024-01-31": true, "2024-02-28": true}, got)
}

func TestRebalanceDatesFirst(t *testing.T) {
	t.Parallel()
	s, days := calendarStore(t,
		"2024-01-02", "2024-01-31",
		"2024-02-01", "2024-02-28",
	)

	got, err := rebalanceDates(context.Background(), s, days, "first", "US")
	require.NoError(t, err)
	assert.Equal(t, map[string]bool{"2024-01-02": true, "2024-02-01": true}, got)
}

func TestRebalanceDatesDayOfMonthRollsForward(t *testing.T) {
	t.Parallel()
	// January 15th is a trading day; February 15th is not and rolls to the
	// 16th. March 15th has no later trading day in March, so March gets none.
	s, days := calendarStore(t,
		"2024-01-15", "2024-01-31",
		"2024-02-14", "2024-02-16",
		"2024-03-01", "2024-04-01",
	)

	got, err := rebalanceDates(context.Background(), s, days, "15", "US")
	require.NoError(t, err)
	assert.Equal(t, map[string]bool{"2024-01-15": true, "2024-02-16": true}, got)
}

func TestRebalanceDatesBadPolicy(t *testing.T) {
	t.Parallel()
	s, days := calendarStore(t, "2024-01-15")

	for _, policy := range []string{"0", "29", "sometimes"} {
		_, err := rebalanceDates(context.Background(), s, days, policy, "US")
		assert.Error(t, err, "policy %q", policy)
	}
}
