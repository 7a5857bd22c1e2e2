// Package backtest replays a monthly-rebalanced scoring strategy over the
// trading calendar and persists dated portfolio snapshots.
package backtest

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/rustyeddy/quant/market"
	"github.com/rustyeddy/quant/pkg/id"
	"github.com/rustyeddy/quant/portfolio"
	"github.com/rustyeddy/quant/selector"
	"github.com/rustyeddy/quant/signal"
	"github.com/rustyeddy/quant/store"
	"github.com/rustyeddy/quant/strategy"
)

// UniverseProvider names the instruments eligible on a given date.
type UniverseProvider func(ctx context.Context, date time.Time) ([]market.InstrumentID, error)

// Runner wires strategy, selector and portfolio into a dated simulation.
// Cash is carried under market.CashInstrument; no configuration needed.
type Runner struct {
	Strategy *strategy.ScoringStrategy
	Selector selector.Selector

	Prices    store.PriceStore
	Calendar  store.CalendarStore
	Snapshots store.SnapshotStore
	Universe  UniverseProvider

	InitialCash     float64
	Slippage        float64
	TransactionCost float64
	ExchangeCost    float64
	ReinvestRatio   float64

	// RebalanceDay is "last", "first" or "1".."28".
	RebalanceDay string
	Market       string
}

// Result summarizes one backtest run.
type Result struct {
	RunID      string
	Start, End time.Time
	FinalValue float64
	Rebalanced int
	Skipped    int
	NAV        []store.NavPoint
}

// Run replays the strategy over [start, end]. With overwrite, snapshots
// already stored for a rebalance date are deleted before being rewritten.
// Rebalance days without factor data, and days where nothing selected has a
// price, are skipped with a warning rather than failing the run.
func (r *Runner) Run(ctx context.Context, start, end time.Time, overwrite bool) (Result, error) {
	res := Result{RunID: id.New(), Start: start, End: end}

	tradingDays, err := r.Calendar.TradingDays(ctx, start, end, r.Market)
	if err != nil {
		return res, fmt.Errorf("load trading days: %w", err)
	}
	if len(tradingDays) == 0 {
		return res, fmt.Errorf("no trading days in %s..%s for market %s",
			market.FormatDay(start), market.FormatDay(end), r.Market)
	}

	rebal, err := rebalanceDates(ctx, r.Calendar, tradingDays, r.RebalanceDay, r.Market)
	if err != nil {
		return res, err
	}

	book := portfolio.New(r.InitialCash)
	book.Slippage = r.Slippage
	book.TransactionCost = r.TransactionCost
	book.ExchangeCost = r.ExchangeCost
	book.ReinvestRatio = r.ReinvestRatio

	log.Info().
		Str("run_id", res.RunID).
		Str("start", market.FormatDay(start)).
		Str("end", market.FormatDay(end)).
		Int("trading_days", len(tradingDays)).
		Int("rebalance_days", len(rebal)).
		Msg("backtest starting")

	var lastPrices map[market.InstrumentID]float64

	for _, date := range tradingDays {
		if !rebal[market.FormatDay(date)] {
			continue
		}

		if overwrite {
			if err := r.Snapshots.DeleteSnapshots(ctx, date); err != nil {
				return res, fmt.Errorf("delete snapshots for %s: %w", market.FormatDay(date), err)
			}
		}

		universe, err := r.Universe(ctx, date)
		if err != nil {
			return res, fmt.Errorf("universe for %s: %w", market.FormatDay(date), err)
		}

		scored, err := r.Strategy.ScoreForDate(ctx, date, universe)
		if err != nil {
			if errors.Is(err, signal.ErrNoFactorData) {
				res.Skipped++
				log.Warn().Str("date", market.FormatDay(date)).Err(err).Msg("skipping rebalance")
				continue
			}
			return res, err
		}

		selection, err := r.Selector.Select(scored.Signals)
		if err != nil {
			return res, err
		}
		selected := selection.Selected.Instruments()

		// Price everything we might touch: the new picks plus what we hold.
		needed := append([]market.InstrumentID(nil), selected...)
		for held := range book.Positions {
			needed = append(needed, held)
		}
		prices, err := r.Prices.PricesOnDate(ctx, needed, date)
		if err != nil {
			return res, fmt.Errorf("prices for %s: %w", market.FormatDay(date), err)
		}

		var valid []market.InstrumentID
		for _, sid := range selected {
			if _, ok := prices[sid]; ok {
				valid = append(valid, sid)
			}
		}
		if len(valid) == 0 {
			res.Skipped++
			log.Warn().Str("date", market.FormatDay(date)).Msg("nothing selected has a price, skipping rebalance")
			continue
		}
		if len(valid) < len(selected) {
			log.Debug().
				Str("date", market.FormatDay(date)).
				Int("dropped", len(selected)-len(valid)).
				Msg("dropped unpriced selections")
		}

		if err := book.Rebalance(equalWeights(valid), prices); err != nil {
			return res, fmt.Errorf("rebalance on %s: %w", market.FormatDay(date), err)
		}

		snap, err := book.Snapshot(date, prices)
		if err != nil {
			return res, fmt.Errorf("snapshot on %s: %w", market.FormatDay(date), err)
		}
		if err := r.Snapshots.InsertSnapshots(ctx, snap); err != nil {
			return res, fmt.Errorf("persist snapshot for %s: %w", market.FormatDay(date), err)
		}

		res.Rebalanced++
		lastPrices = prices
	}

	res.FinalValue = book.TotalValue(lastPrices)

	nav, err := r.Snapshots.NAVSeries(ctx)
	if err != nil {
		return res, fmt.Errorf("load nav series: %w", err)
	}
	for _, p := range nav {
		if !p.Date.Before(start) && !p.Date.After(end) {
			res.NAV = append(res.NAV, p)
		}
	}

	log.Info().
		Str("run_id", res.RunID).
		Int("rebalanced", res.Rebalanced).
		Int("skipped", res.Skipped).
		Float64("final_value", res.FinalValue).
		Msg("backtest finished")
	return res, nil
}

func equalWeights(ids []market.InstrumentID) map[market.InstrumentID]float64 {
	w := 1.0 / float64(len(ids))
	out := make(map[market.InstrumentID]float64, len(ids))
	for _, id := range ids {
		out[id] = w
	}
	return out
}
