// Package ingest loads price, calendar and instrument data from CSV files,
// transparently handling xz-compressed and zipped inputs.
package ingest

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/ulikunitz/xz"
	"github.com/xyproto/unzip"

	"github.com/rustyeddy/quant/market"
	"github.com/rustyeddy/quant/store"
)

// batchSize bounds the rows per write transaction.
const batchSize = 500

// open returns a CSV reader for path. ".xz" files are decompressed on the
// fly; ".zip" archives are extracted to a temp dir and must contain exactly
// one CSV.
func open(path string) (io.ReadCloser, func(), error) {
	noop := func() {}

	switch {
	case strings.HasSuffix(path, ".xz"):
		f, err := os.Open(path)
		if err != nil {
			return nil, noop, err
		}
		xr, err := xz.NewReader(f)
		if err != nil {
			_ = f.Close()
			return nil, noop, fmt.Errorf("open xz %s: %w", path, err)
		}
		return readCloser{Reader: xr, Closer: f}, noop, nil

	case strings.HasSuffix(path, ".zip"):
		dir, err := os.MkdirTemp("", "quant-ingest-*")
		if err != nil {
			return nil, noop, err
		}
		cleanup := func() { _ = os.RemoveAll(dir) }
		if err := unzip.Extract(path, dir); err != nil {
			cleanup()
			return nil, noop, fmt.Errorf("extract %s: %w", path, err)
		}
		matches, err := filepath.Glob(filepath.Join(dir, "*.csv"))
		if err != nil || len(matches) != 1 {
			cleanup()
			return nil, noop, fmt.Errorf("%s must contain exactly one csv, found %d", path, len(matches))
		}
		f, err := os.Open(matches[0])
		if err != nil {
			cleanup()
			return nil, noop, err
		}
		return f, cleanup, nil

	default:
		f, err := os.Open(path)
		if err != nil {
			return nil, noop, err
		}
		return f, noop, nil
	}
}

type readCloser struct {
	io.Reader
	io.Closer
}

// header maps CSV column names to indexes.
type header map[string]int

func readHeader(r *csv.Reader) (header, error) {
	rec, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	h := make(header, len(rec))
	for i, name := range rec {
		h[strings.TrimSpace(strings.ToLower(name))] = i
	}
	return h, nil
}

func (h header) str(rec []string, name string) (string, bool) {
	i, ok := h[name]
	if !ok || i >= len(rec) {
		return "", false
	}
	return strings.TrimSpace(rec[i]), true
}

func (h header) float(rec []string, name string) float64 {
	s, ok := h.str(rec, name)
	if !ok || s == "" {
		return 0
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v
}

// ImportPrices loads daily bars from a CSV with at least instrument_id, date
// and adj_close columns. Returns the number of rows written.
func ImportPrices(ctx context.Context, ps store.PriceStore, path string) (int, error) {
	rc, cleanup, err := open(path)
	if err != nil {
		return 0, err
	}
	defer cleanup()
	defer rc.Close()

	r := csv.NewReader(rc)
	h, err := readHeader(r)
	if err != nil {
		return 0, err
	}
	for _, required := range []string{"instrument_id", "date", "adj_close"} {
		if _, ok := h[required]; !ok {
			return 0, fmt.Errorf("%s: missing column %s", path, required)
		}
	}

	total := 0
	batch := make([]market.PriceBar, 0, batchSize)
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		if err := ps.UpsertPriceBars(ctx, batch); err != nil {
			return err
		}
		total += len(batch)
		batch = batch[:0]
		return nil
	}

	line := 1
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return total, fmt.Errorf("%s line %d: %w", path, line, err)
		}
		line++

		bar, err := parsePriceRecord(h, rec)
		if err != nil {
			return total, fmt.Errorf("%s line %d: %w", path, line, err)
		}
		batch = append(batch, bar)
		if len(batch) == batchSize {
			if err := flush(); err != nil {
				return total, err
			}
		}
	}
	if err := flush(); err != nil {
		return total, err
	}

	log.Info().Str("path", path).Int("rows", total).Msg("imported prices")
	return total, nil
}

func parsePriceRecord(h header, rec []string) (market.PriceBar, error) {
	var bar market.PriceBar

	idStr, _ := h.str(rec, "instrument_id")
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		return bar, fmt.Errorf("bad instrument_id %q", idStr)
	}
	dateStr, _ := h.str(rec, "date")
	date, err := market.ParseDay(dateStr)
	if err != nil {
		return bar, fmt.Errorf("bad date %q", dateStr)
	}

	bar = market.PriceBar{
		Instrument:  market.InstrumentID(id),
		Date:        date,
		Open:        h.float(rec, "open"),
		High:        h.float(rec, "high"),
		Low:         h.float(rec, "low"),
		Close:       h.float(rec, "close"),
		Volume:      h.float(rec, "volume"),
		AdjOpen:     h.float(rec, "adj_open"),
		AdjHigh:     h.float(rec, "adj_high"),
		AdjLow:      h.float(rec, "adj_low"),
		AdjClose:    h.float(rec, "adj_close"),
		AdjVolume:   h.float(rec, "adj_volume"),
		Dividend:    h.float(rec, "dividend"),
		SplitFactor: h.float(rec, "split_factor"),
	}
	if bar.SplitFactor == 0 {
		bar.SplitFactor = 1
	}
	return bar, nil
}

// ImportCalendar loads trading days from a CSV with a date column into the
// given market's calendar.
func ImportCalendar(ctx context.Context, cs store.CalendarStore, path, mkt string) (int, error) {
	rc, cleanup, err := open(path)
	if err != nil {
		return 0, err
	}
	defer cleanup()
	defer rc.Close()

	r := csv.NewReader(rc)
	h, err := readHeader(r)
	if err != nil {
		return 0, err
	}
	if _, ok := h["date"]; !ok {
		return 0, fmt.Errorf("%s: missing column date", path)
	}

	var days []time.Time
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return 0, err
		}
		dateStr, _ := h.str(rec, "date")
		d, err := market.ParseDay(dateStr)
		if err != nil {
			return 0, fmt.Errorf("%s: bad date %q", path, dateStr)
		}
		days = append(days, d)
	}
	if err := cs.AddTradingDays(ctx, days, mkt); err != nil {
		return 0, err
	}

	log.Info().Str("path", path).Str("market", mkt).Int("days", len(days)).Msg("imported trading calendar")
	return len(days), nil
}

// ImportInstruments loads the instrument table from a CSV with instrument_id
// and symbol columns. is_tradable defaults to true when absent.
func ImportInstruments(ctx context.Context, is store.InstrumentStore, path string) (int, error) {
	rc, cleanup, err := open(path)
	if err != nil {
		return 0, err
	}
	defer cleanup()
	defer rc.Close()

	r := csv.NewReader(rc)
	h, err := readHeader(r)
	if err != nil {
		return 0, err
	}
	for _, required := range []string{"instrument_id", "symbol"} {
		if _, ok := h[required]; !ok {
			return 0, fmt.Errorf("%s: missing column %s", path, required)
		}
	}

	var ins []market.Instrument
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return 0, err
		}

		idStr, _ := h.str(rec, "instrument_id")
		id, err := strconv.ParseInt(idStr, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("%s: bad instrument_id %q", path, idStr)
		}
		symbol, _ := h.str(rec, "symbol")
		name, _ := h.str(rec, "name")

		tradable := true
		if s, ok := h.str(rec, "is_tradable"); ok && s != "" {
			tradable = s == "1" || strings.EqualFold(s, "true")
		}

		ins = append(ins, market.Instrument{
			ID:       market.InstrumentID(id),
			Symbol:   symbol,
			Name:     name,
			Tradable: tradable,
		})
	}
	if err := is.UpsertInstruments(ctx, ins); err != nil {
		return 0, err
	}

	log.Info().Str("path", path).Int("instruments", len(ins)).Msg("imported instruments")
	return len(ins), nil
}
