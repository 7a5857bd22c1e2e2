// Package store defines the persistence interfaces consumed by the pipeline
// and a SQLite implementation of all of them.
package store

import (
	"context"
	"time"

	"github.com/rustyeddy/quant/market"
	"github.com/rustyeddy/quant/portfolio"
)

// PriceStore reads and writes daily price bars.
type PriceStore interface {
	// Prices returns bars for one instrument in [start, end], ordered by date.
	Prices(ctx context.Context, id market.InstrumentID, start, end time.Time) ([]market.PriceBar, error)

	// PricesOnDate returns the adjusted close for each requested instrument
	// on one date. Instruments without a price that day are simply absent
	// from the result.
	PricesOnDate(ctx context.Context, ids []market.InstrumentID, date time.Time) (map[market.InstrumentID]float64, error)

	// MaxPriceDate returns the latest date present in the price table. The
	// bool is false when the table is empty.
	MaxPriceDate(ctx context.Context) (time.Time, bool, error)

	// UpsertPriceBars writes a batch of bars in one transaction.
	UpsertPriceBars(ctx context.Context, bars []market.PriceBar) error
}

// FactorStore writes and reads computed factor values.
type FactorStore interface {
	// UpsertFactorValues writes a batch of rows in one transaction,
	// overwriting on the (instrument, date, name, version) key.
	UpsertFactorValues(ctx context.Context, rows []market.FactorValue) error

	// FactorValuesOnDate returns the cross-section for one date, restricted
	// to the given factor names and, when non-empty, the given universe.
	// An empty version matches all versions.
	FactorValuesOnDate(ctx context.Context, date time.Time, names []string, version string, universe []market.InstrumentID) ([]market.FactorValue, error)
}

// StateStore is a small JSON key-value store for resumable checkpoints.
type StateStore interface {
	// GetState unmarshals the stored value for key into dest. The bool is
	// false when the key does not exist.
	GetState(ctx context.Context, key string, dest any) (bool, error)

	// SetState marshals value and upserts it under key.
	SetState(ctx context.Context, key string, value any) error

	// DeleteState removes key. Deleting a missing key is not an error.
	DeleteState(ctx context.Context, key string) error

	// States returns every key with its raw JSON value.
	States(ctx context.Context) (map[string]string, error)
}

// CalendarStore provides trading-day lookups per market.
type CalendarStore interface {
	// TradingDays returns the ordered trading days in [start, end].
	TradingDays(ctx context.Context, start, end time.Time, mkt string) ([]time.Time, error)

	// NextTradingDay returns the first trading day strictly after date. The
	// bool is false when none is known.
	NextTradingDay(ctx context.Context, date time.Time, mkt string) (time.Time, bool, error)

	// AddTradingDays inserts trading days, ignoring duplicates.
	AddTradingDays(ctx context.Context, days []time.Time, mkt string) error
}

// NavPoint is one dated net-asset-value observation.
type NavPoint struct {
	Date  time.Time
	Value float64
}

// SnapshotStore persists dated portfolio snapshots.
type SnapshotStore interface {
	// DeleteSnapshots removes every snapshot row for one date.
	DeleteSnapshots(ctx context.Context, date time.Time) error

	// InsertSnapshots writes a batch of snapshot rows in one transaction.
	InsertSnapshots(ctx context.Context, rows []portfolio.SnapshotRow) error

	// NAVSeries sums snapshot market value per date, ordered by date.
	NAVSeries(ctx context.Context) ([]NavPoint, error)
}

// InstrumentStore maintains the instrument reference table.
type InstrumentStore interface {
	// UpsertInstruments writes instrument rows, overwriting by id.
	UpsertInstruments(ctx context.Context, ins []market.Instrument) error

	// TradableInstrumentIDs returns the ids flagged tradable, ordered.
	TradableInstrumentIDs(ctx context.Context) ([]market.InstrumentID, error)
}
