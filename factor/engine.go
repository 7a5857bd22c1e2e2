package factor

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/rustyeddy/quant/market"
	"github.com/rustyeddy/quant/store"
)

// Stats summarizes one factor run.
type Stats struct {
	Written     int // factor rows persisted
	Failed      int // instruments that errored
	ZeroWritten int // instruments that produced no rows
}

// checkpoint is the JSON state stored per factor instance. Only the date
// drives resumption; the rest is there for operators reading the state table.
type checkpoint struct {
	LastDoneDate string `json:"last_done_date"`
	Factor       string `json:"factor"`
	Version      string `json:"version"`
}

// Engine drives factor computation across the tradable universe with a
// per-definition resumable checkpoint.
type Engine struct {
	Prices      store.PriceStore
	Factors     store.FactorStore
	State       store.StateStore
	Instruments store.InstrumentStore

	// StartDate bounds the earliest date ever computed.
	StartDate time.Time
}

// Run computes one factor definition over [checkpoint, max price date] for
// every tradable instrument. With force, the checkpoint is ignored and the
// full range recomputed. Per-instrument failures are counted, logged and
// skipped; the run keeps going.
func (e *Engine) Run(ctx context.Context, def Definition, force bool) (Stats, error) {
	var stats Stats

	ids, err := e.Instruments.TradableInstrumentIDs(ctx)
	if err != nil {
		return stats, fmt.Errorf("factor %s: list instruments: %w", def.Name(), err)
	}
	if len(ids) == 0 {
		log.Warn().Str("factor", def.Name()).Msg("no tradable instruments found")
		return stats, nil
	}

	reqEnd, ok, err := e.Prices.MaxPriceDate(ctx)
	if err != nil {
		return stats, fmt.Errorf("factor %s: max price date: %w", def.Name(), err)
	}
	if !ok {
		log.Warn().Str("factor", def.Name()).Msg("price table is empty, nothing to do")
		return stats, nil
	}

	actualStart := e.StartDate

	var cp checkpoint
	var oldLastDone time.Time
	found, err := e.State.GetState(ctx, def.StateKey(), &cp)
	if err != nil {
		return stats, fmt.Errorf("factor %s: read checkpoint: %w", def.Name(), err)
	}
	if found && cp.LastDoneDate != "" {
		oldLastDone, err = market.ParseDay(cp.LastDoneDate)
		if err != nil {
			return stats, fmt.Errorf("factor %s: bad checkpoint date %q: %w", def.Name(), cp.LastDoneDate, err)
		}
		// Resume from the last finished date itself, not the day after: the
		// write path upserts, so recomputing the boundary day is harmless and
		// closes the gap left by a partially-applied final day.
		if !force && oldLastDone.After(actualStart) {
			actualStart = oldLastDone
		}
	}

	if actualStart.After(reqEnd) {
		log.Info().Str("factor", def.Name()).Msg("already up to date, skip")
		return stats, nil
	}

	log.Info().
		Str("factor", def.Name()).
		Str("start", market.FormatDay(actualStart)).
		Str("end", market.FormatDay(reqEnd)).
		Int("instruments", len(ids)).
		Msg("computing factor")

	for _, id := range ids {
		n, err := e.computeInstrument(ctx, def, id, actualStart, reqEnd)
		if err != nil {
			stats.Failed++
			log.Warn().Str("factor", def.Name()).Int64("instrument", int64(id)).Err(err).Msg("instrument failed")
			continue
		}
		stats.Written += n
		if n == 0 {
			stats.ZeroWritten++
		}
	}

	log.Info().
		Str("factor", def.Name()).
		Int("wrote", stats.Written).
		Int("zero_written_instruments", stats.ZeroWritten).
		Int("failed_instruments", stats.Failed).
		Msg("factor finished")

	// A run that wrote nothing never advances the checkpoint, so a transient
	// data outage cannot burn a hole in the series.
	if stats.Written == 0 {
		log.Warn().Str("factor", def.Name()).Msg("wrote 0 rows, state not advanced")
		return stats, nil
	}

	newLastDone := reqEnd
	if oldLastDone.After(newLastDone) {
		newLastDone = oldLastDone
	}
	err = e.State.SetState(ctx, def.StateKey(), checkpoint{
		LastDoneDate: market.FormatDay(newLastDone),
		Factor:       def.Name(),
		Version:      Version,
	})
	if err != nil {
		return stats, fmt.Errorf("factor %s: write checkpoint: %w", def.Name(), err)
	}
	return stats, nil
}

// RunAll runs every definition in order, accumulating stats. A definition
// that fails outright stops the run.
func (e *Engine) RunAll(ctx context.Context, defs []Definition, force bool) (Stats, error) {
	var total Stats
	for _, def := range defs {
		s, err := e.Run(ctx, def, force)
		total.Written += s.Written
		total.Failed += s.Failed
		total.ZeroWritten += s.ZeroWritten
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

func (e *Engine) computeInstrument(ctx context.Context, def Definition, id market.InstrumentID, start, end time.Time) (int, error) {
	loadStart := start.AddDate(0, 0, -def.BufferDays())

	bars, err := e.Prices.Prices(ctx, id, loadStart, end)
	if err != nil {
		return 0, fmt.Errorf("load prices: %w", err)
	}
	if len(bars) == 0 {
		return 0, nil
	}

	cols := def.Compute(bars)
	args := def.Args()

	var rows []market.FactorValue
	for _, col := range cols {
		if len(col.Values) != len(bars) {
			return 0, fmt.Errorf("column %s: %d values for %d bars", col.Name, len(col.Values), len(bars))
		}
		for i, v := range col.Values {
			if !v.Valid || math.IsNaN(v.V) || math.IsInf(v.V, 0) {
				continue
			}
			if bars[i].Date.Before(start) || bars[i].Date.After(end) {
				continue
			}
			rows = append(rows, market.FactorValue{
				Instrument: id,
				Date:       bars[i].Date,
				Name:       col.Name,
				Value:      v.V,
				Version:    Version,
				Args:       args,
				Source:     "internal",
			})
		}
	}
	if len(rows) == 0 {
		return 0, nil
	}

	if err := e.Factors.UpsertFactorValues(ctx, rows); err != nil {
		return 0, fmt.Errorf("write factor values: %w", err)
	}
	return len(rows), nil
}
