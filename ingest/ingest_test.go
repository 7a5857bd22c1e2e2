package ingest

import (
	"archive/zip"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ulikunitz/xz"

	"github.com/rustyeddy/quant/market"
	"github.com/rustyeddy/quant/store"
)

const priceCSV = `instrument_id,date,close,volume,adj_close,adj_volume
1,2024-01-02,100,1000,100,1000
1,2024-01-03,101,1100,101,1100
2,2024-01-02,50,500,50,500
`

func testStore(t *testing.T) *store.SQLiteStore {
	t.Helper()
	s, err := store.NewSQLite(filepath.Join(t.TempDir(), "quant.sqlite"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestImportPricesCSV(t *testing.T) {
	t.Parallel()
	s := testStore(t)
	ctx := context.Background()

	n, err := ImportPrices(ctx, s, writeFile(t, "prices.csv", priceCSV))
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	start, _ := market.ParseDay("2024-01-01")
	end, _ := market.ParseDay("2024-01-31")
	bars, err := s.Prices(ctx, 1, start, end)
	require.NoError(t, err)
	require.Len(t, bars, 2)
	assert.Equal(t, 100.0, bars[0].AdjClose)
	assert.Equal(t, 1.0, bars[0].SplitFactor) // defaulted when absent
}

func TestImportPricesXZ(t *testing.T) {
	t.Parallel()
	s := testStore(t)
	ctx := context.Background()

	path := filepath.Join(t.TempDir(), "prices.csv.xz")
	f, err := os.Create(path)
	require.NoError(t, err)
	w, err := xz.NewWriter(f)
	require.NoError(t, err)
	_, err = w.Write([]byte(priceCSV))
	require.NoError(t, err)
	require.NoError(t, w.Close())
	require.NoError(t, f.Close())

	n, err := ImportPrices(ctx, s, path)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}

func TestImportPricesZip(t *testing.T) {
	t.Parallel()
	s := testStore(t)
	ctx := context.Background()

	path := filepath.Join(t.TempDir(), "prices.zip")
	f, err := os.Create(path)
	require.NoError(t, err)
	zw := zip.NewWriter(f)
	entry, err := zw.Create("prices.csv")
	require.NoError(t, err)
	_, err = entry.Write([]byte(priceCSV))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	require.NoError(t, f.Close())

	n, err := ImportPrices(ctx, s, path)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}

func TestImportPricesMissingColumn(t *testing.T) {
	t.Parallel()
	s := testStore(t)

	path := writeFile(t, "bad.csv", "instrument_id,date\n1,2024-01-02\n")
	_, err := ImportPrices(context.Background(), s, path)
	assert.Error(t, err)
}

func TestImportCalendar(t *testing.T) {
	t.Parallel()
	s := testStore(t)
	ctx := context.Background()

	path := writeFile(t, "cal.csv", "date\n2024-01-02\n2024-01-03\n")
	n, err := ImportCalendar(ctx, s, path, "US")
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	start, _ := market.ParseDay("2024-01-01")
	end, _ := market.ParseDay("2024-01-31")
	days, err := s.TradingDays(ctx, start, end, "US")
	require.NoError(t, err)
	assert.Len(t, days, 2)
}

func TestImportInstruments(t *testing.T) {
	t.Parallel()
	s := testStore(t)
	ctx := context.Background()

	path := writeFile(t, "instruments.csv",
		"instrument_id,symbol,name,is_tradable\n1,AAA,Alpha,1\n2,BBB,Beta,0\n3,CCC,,\n")
	n, err := ImportInstruments(ctx, s, path)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	ids, err := s.TradableInstrumentIDs(ctx)
	require.NoError(t, err)
	assert.Equal(t, []market.InstrumentID{1, 3}, ids)
}
