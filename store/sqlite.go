package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/rustyeddy/quant/market"
	"github.com/rustyeddy/quant/portfolio"
)

// Compile-time interface checks.
var _ PriceStore = (*SQLiteStore)(nil)
var _ FactorStore = (*SQLiteStore)(nil)
var _ StateStore = (*SQLiteStore)(nil)
var _ CalendarStore = (*SQLiteStore)(nil)
var _ SnapshotStore = (*SQLiteStore)(nil)
var _ InstrumentStore = (*SQLiteStore)(nil)

// SQLiteStore implements every store interface against one SQLite file.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens (or creates) the database at path and applies the schema.
func NewSQLite(path string) (*SQLiteStore, error) {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		_ = os.MkdirAll(dir, 0o755)
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(Schema); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &SQLiteStore{db: db}, nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// DB exposes the raw handle for maintenance tooling.
func (s *SQLiteStore) DB() *sql.DB {
	return s.db
}

// ---------------------------------------------------------------------------
// PriceStore
// ---------------------------------------------------------------------------

func (s *SQLiteStore) Prices(ctx context.Context, id market.InstrumentID, start, end time.Time) ([]market.PriceBar, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT instrument_id, date, open, high, low, close, volume,
		       adj_open, adj_high, adj_low, adj_close, adj_volume,
		       dividend, split_factor
		FROM market_prices
		WHERE instrument_id = ? AND date >= ? AND date <= ?
		ORDER BY date`,
		int64(id), market.FormatDay(start), market.FormatDay(end),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var bars []market.PriceBar
	for rows.Next() {
		var (
			b       market.PriceBar
			instID  int64
			dateStr string
			o, h, l, c, v, ao, ah, al, ac, av sql.NullFloat64
		)
		if err := rows.Scan(&instID, &dateStr, &o, &h, &l, &c, &v,
			&ao, &ah, &al, &ac, &av, &b.Dividend, &b.SplitFactor); err != nil {
			return nil, err
		}
		d, err := market.ParseDay(dateStr)
		if err != nil {
			return nil, fmt.Errorf("bad date %q in market_prices: %w", dateStr, err)
		}
		b.Instrument = market.InstrumentID(instID)
		b.Date = d
		b.Open, b.High, b.Low, b.Close, b.Volume = o.Float64, h.Float64, l.Float64, c.Float64, v.Float64
		b.AdjOpen, b.AdjHigh, b.AdjLow, b.AdjClose, b.AdjVolume = ao.Float64, ah.Float64, al.Float64, ac.Float64, av.Float64
		bars = append(bars, b)
	}
	return bars, rows.Err()
}

func (s *SQLiteStore) PricesOnDate(ctx context.Context, ids []market.InstrumentID, date time.Time) (map[market.InstrumentID]float64, error) {
	out := make(map[market.InstrumentID]float64, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	args := []any{market.FormatDay(date)}
	for _, id := range ids {
		args = append(args, int64(id))
	}

	query := fmt.Sprintf(`
		SELECT instrument_id, adj_close
		FROM market_prices
		WHERE date = ? AND adj_close IS NOT NULL AND instrument_id IN (%s)`,
		placeholders(len(ids)),
	)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var id int64
		var px float64
		if err := rows.Scan(&id, &px); err != nil {
			return nil, err
		}
		out[market.InstrumentID(id)] = px
	}
	return out, rows.Err()
}

func (s *SQLiteStore) MaxPriceDate(ctx context.Context) (time.Time, bool, error) {
	var dateStr sql.NullString
	err := s.db.QueryRowContext(ctx, `SELECT MAX(date) FROM market_prices`).Scan(&dateStr)
	if err != nil {
		return time.Time{}, false, err
	}
	if !dateStr.Valid {
		return time.Time{}, false, nil
	}
	d, err := market.ParseDay(dateStr.String)
	if err != nil {
		return time.Time{}, false, err
	}
	return d, true, nil
}

func (s *SQLiteStore) UpsertPriceBars(ctx context.Context, bars []market.PriceBar) error {
	if len(bars) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO market_prices (
			instrument_id, date, open, high, low, close, volume,
			adj_open, adj_high, adj_low, adj_close, adj_volume,
			dividend, split_factor
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (instrument_id, date)
		DO UPDATE SET
			open = excluded.open, high = excluded.high, low = excluded.low,
			close = excluded.close, volume = excluded.volume,
			adj_open = excluded.adj_open, adj_high = excluded.adj_high,
			adj_low = excluded.adj_low, adj_close = excluded.adj_close,
			adj_volume = excluded.adj_volume,
			dividend = excluded.dividend, split_factor = excluded.split_factor`)
	if err != nil {
		_ = tx.Rollback()
		return err
	}
	defer stmt.Close()

	for _, b := range bars {
		_, err := stmt.ExecContext(ctx,
			int64(b.Instrument), market.FormatDay(b.Date),
			b.Open, b.High, b.Low, b.Close, b.Volume,
			b.AdjOpen, b.AdjHigh, b.AdjLow, b.AdjClose, b.AdjVolume,
			b.Dividend, b.SplitFactor,
		)
		if err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("upsert price bar %d/%s: %w", b.Instrument, market.FormatDay(b.Date), err)
		}
	}
	return tx.Commit()
}

// ---------------------------------------------------------------------------
// FactorStore
// ---------------------------------------------------------------------------

func (s *SQLiteStore) UpsertFactorValues(ctx context.Context, rows []market.FactorValue) error {
	if len(rows) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO factor_values (
			instrument_id, date, factor_name, factor_value,
			factor_version, factor_args, config, data_source
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (instrument_id, date, factor_name, factor_version)
		DO UPDATE SET
			factor_value = excluded.factor_value,
			factor_args = excluded.factor_args,
			config = excluded.config,
			data_source = excluded.data_source,
			ingested_at = datetime('now')`)
	if err != nil {
		_ = tx.Rollback()
		return err
	}
	defer stmt.Close()

	for _, r := range rows {
		args, err := marshalJSONMap(r.Args)
		if err != nil {
			_ = tx.Rollback()
			return err
		}
		cfg, err := marshalJSONMap(r.Config)
		if err != nil {
			_ = tx.Rollback()
			return err
		}
		source := r.Source
		if source == "" {
			source = "internal"
		}
		version := r.Version
		if version == "" {
			version = "v1"
		}
		_, err = stmt.ExecContext(ctx,
			int64(r.Instrument), market.FormatDay(r.Date), r.Name, r.Value,
			version, args, cfg, source,
		)
		if err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("upsert factor value %s/%d/%s: %w", r.Name, r.Instrument, market.FormatDay(r.Date), err)
		}
	}
	return tx.Commit()
}

func (s *SQLiteStore) FactorValuesOnDate(ctx context.Context, date time.Time, names []string, version string, universe []market.InstrumentID) ([]market.FactorValue, error) {
	if len(names) == 0 {
		return nil, fmt.Errorf("factor values query: names cannot be empty")
	}

	where := []string{"date = ?", fmt.Sprintf("factor_name IN (%s)", placeholders(len(names)))}
	args := []any{market.FormatDay(date)}
	for _, n := range names {
		args = append(args, n)
	}

	if version != "" {
		where = append(where, "factor_version = ?")
		args = append(args, version)
	}
	if len(universe) > 0 {
		where = append(where, fmt.Sprintf("instrument_id IN (%s)", placeholders(len(universe))))
		for _, id := range universe {
			args = append(args, int64(id))
		}
	}

	query := fmt.Sprintf(`
		SELECT instrument_id, date, factor_name, factor_value, factor_version
		FROM factor_values
		WHERE %s
		ORDER BY instrument_id, factor_name`,
		strings.Join(where, " AND "),
	)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []market.FactorValue
	for rows.Next() {
		var (
			fv      market.FactorValue
			instID  int64
			dateStr string
		)
		if err := rows.Scan(&instID, &dateStr, &fv.Name, &fv.Value, &fv.Version); err != nil {
			return nil, err
		}
		d, err := market.ParseDay(dateStr)
		if err != nil {
			return nil, err
		}
		fv.Instrument = market.InstrumentID(instID)
		fv.Date = d
		out = append(out, fv)
	}
	return out, rows.Err()
}

// ---------------------------------------------------------------------------
// StateStore
// ---------------------------------------------------------------------------

func (s *SQLiteStore) GetState(ctx context.Context, key string, dest any) (bool, error) {
	var raw string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM system_state WHERE key = ?`, key).Scan(&raw)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if dest == nil {
		return true, nil
	}
	if err := json.Unmarshal([]byte(raw), dest); err != nil {
		return true, fmt.Errorf("decode state %q: %w", key, err)
	}
	return true, nil
}

func (s *SQLiteStore) SetState(ctx context.Context, key string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode state %q: %w", key, err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO system_state (key, value, updated_at)
		VALUES (?, ?, datetime('now'))
		ON CONFLICT (key)
		DO UPDATE SET value = excluded.value, updated_at = datetime('now')`,
		key, string(raw),
	)
	return err
}

func (s *SQLiteStore) DeleteState(ctx context.Context, key string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM system_state WHERE key = ?`, key)
	return err
}

func (s *SQLiteStore) States(ctx context.Context) (map[string]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT key, value FROM system_state ORDER BY key`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string]string)
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return nil, err
		}
		out[k] = v
	}
	return out, rows.Err()
}

// ---------------------------------------------------------------------------
// CalendarStore
// ---------------------------------------------------------------------------

func (s *SQLiteStore) TradingDays(ctx context.Context, start, end time.Time, mkt string) ([]time.Time, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT date FROM trading_calendar
		WHERE market = ? AND date >= ? AND date <= ?
		ORDER BY date`,
		mkt, market.FormatDay(start), market.FormatDay(end),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var days []time.Time
	for rows.Next() {
		var dateStr string
		if err := rows.Scan(&dateStr); err != nil {
			return nil, err
		}
		d, err := market.ParseDay(dateStr)
		if err != nil {
			return nil, err
		}
		days = append(days, d)
	}
	return days, rows.Err()
}

func (s *SQLiteStore) NextTradingDay(ctx context.Context, date time.Time, mkt string) (time.Time, bool, error) {
	var dateStr sql.NullString
	err := s.db.QueryRowContext(ctx, `
		SELECT MIN(date) FROM trading_calendar
		WHERE market = ? AND date > ?`,
		mkt, market.FormatDay(date),
	).Scan(&dateStr)
	if err != nil {
		return time.Time{}, false, err
	}
	if !dateStr.Valid {
		return time.Time{}, false, nil
	}
	d, err := market.ParseDay(dateStr.String)
	if err != nil {
		return time.Time{}, false, err
	}
	return d, true, nil
}

func (s *SQLiteStore) AddTradingDays(ctx context.Context, days []time.Time, mkt string) error {
	if len(days) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	stmt, err := tx.PrepareContext(ctx, `
		INSERT OR IGNORE INTO trading_calendar (date, market) VALUES (?, ?)`)
	if err != nil {
		_ = tx.Rollback()
		return err
	}
	defer stmt.Close()

	for _, d := range days {
		if _, err := stmt.ExecContext(ctx, market.FormatDay(d), mkt); err != nil {
			_ = tx.Rollback()
			return err
		}
	}
	return tx.Commit()
}

// ---------------------------------------------------------------------------
// SnapshotStore
// ---------------------------------------------------------------------------

func (s *SQLiteStore) DeleteSnapshots(ctx context.Context, date time.Time) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM exp_positions WHERE date = ?`, market.FormatDay(date))
	return err
}

func (s *SQLiteStore) InsertSnapshots(ctx context.Context, rows []portfolio.SnapshotRow) error {
	if len(rows) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO exp_positions (
			date, instrument_id, quantity, buy_price, current_price, market_value
		)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (date, instrument_id)
		DO UPDATE SET
			quantity = excluded.quantity,
			buy_price = excluded.buy_price,
			current_price = excluded.current_price,
			market_value = excluded.market_value`)
	if err != nil {
		_ = tx.Rollback()
		return err
	}
	defer stmt.Close()

	for _, r := range rows {
		_, err := stmt.ExecContext(ctx,
			market.FormatDay(r.Date), int64(r.Instrument),
			r.Quantity, r.BuyPrice, r.CurrentPrice, r.MarketValue,
		)
		if err != nil {
			_ = tx.Rollback()
			return err
		}
	}
	return tx.Commit()
}

func (s *SQLiteStore) NAVSeries(ctx context.Context) ([]NavPoint, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT date, SUM(market_value)
		FROM exp_positions
		GROUP BY date
		ORDER BY date`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []NavPoint
	for rows.Next() {
		var dateStr string
		var value float64
		if err := rows.Scan(&dateStr, &value); err != nil {
			return nil, err
		}
		d, err := market.ParseDay(dateStr)
		if err != nil {
			return nil, err
		}
		out = append(out, NavPoint{Date: d, Value: value})
	}
	return out, rows.Err()
}

// ---------------------------------------------------------------------------
// InstrumentStore
// ---------------------------------------------------------------------------

func (s *SQLiteStore) UpsertInstruments(ctx context.Context, ins []market.Instrument) error {
	if len(ins) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO instruments (instrument_id, symbol, name, is_tradable)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (instrument_id)
		DO UPDATE SET
			symbol = excluded.symbol,
			name = excluded.name,
			is_tradable = excluded.is_tradable`)
	if err != nil {
		_ = tx.Rollback()
		return err
	}
	defer stmt.Close()

	for _, in := range ins {
		tradable := 0
		if in.Tradable {
			tradable = 1
		}
		if _, err := stmt.ExecContext(ctx, int64(in.ID), in.Symbol, in.Name, tradable); err != nil {
			_ = tx.Rollback()
			return err
		}
	}
	return tx.Commit()
}

func (s *SQLiteStore) TradableInstrumentIDs(ctx context.Context) ([]market.InstrumentID, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT instrument_id FROM instruments
		WHERE is_tradable = 1
		ORDER BY instrument_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []market.InstrumentID
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, market.InstrumentID(id))
	}
	return ids, rows.Err()
}

// ---------------------------------------------------------------------------
// helpers
// ---------------------------------------------------------------------------

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}

func marshalJSONMap(m map[string]any) (string, error) {
	if len(m) == 0 {
		return "{}", nil
	}
	raw, err := json.Marshal(m)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}
