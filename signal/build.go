package signal

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/rustyeddy/quant/market"
	"github.com/rustyeddy/quant/store"
)

// ErrNoFactorData marks a date with no usable factor cross-section. Callers
// treat it as "skip this day", not as a failure.
var ErrNoFactorData = errors.New("no factor data")

// Builder assembles normalized signal frames from stored factor values.
type Builder struct {
	Factors store.FactorStore

	// Version restricts reads to one factor version; empty matches all.
	Version string
}

// BuildForDate fetches the factor cross-section for one day, pivots it to a
// row-per-instrument frame and derives the normalized signal columns. Only
// instruments carrying every requested factor survive; if none do, the result
// is ErrNoFactorData.
func (b *Builder) BuildForDate(ctx context.Context, date time.Time, specs []FactorSpec, universe []market.InstrumentID) (*Frame, error) {
	if len(specs) == 0 {
		return nil, fmt.Errorf("specs cannot be empty")
	}

	names := make([]string, len(specs))
	for i, s := range specs {
		names[i] = s.FactorName
	}

	rows, err := b.Factors.FactorValuesOnDate(ctx, date, names, b.Version, universe)
	if err != nil {
		return nil, fmt.Errorf("fetch factors for %s: %w", market.FormatDay(date), err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w for %s", ErrNoFactorData, market.FormatDay(date))
	}

	// Long to wide.
	byInstrument := make(map[market.InstrumentID]map[string]float64)
	for _, r := range rows {
		m, ok := byInstrument[r.Instrument]
		if !ok {
			m = make(map[string]float64, len(names))
			byInstrument[r.Instrument] = m
		}
		m[r.Name] = r.Value
	}

	var ids []market.InstrumentID
	for id, m := range byInstrument {
		if len(m) == len(names) {
			ids = append(ids, id)
		}
	}
	if len(ids) == 0 {
		return nil, fmt.Errorf("%w for %s: no instrument has all factors", ErrNoFactorData, market.FormatDay(date))
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	f := NewFrame(ids)
	for _, name := range names {
		col := make([]float64, len(ids))
		for i, id := range ids {
			col[i] = byInstrument[id][name]
		}
		if err := f.SetColumn(name, col); err != nil {
			return nil, err
		}
	}

	if err := NormalizeCrossSection(f, specs); err != nil {
		return nil, err
	}
	return f, nil
}
