package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/quant/ingest"
	"github.com/rustyeddy/quant/store"
)

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Import prices, instruments or trading calendars from CSV",
	Long: `Import loads reference and market data into the database. Plain CSV,
xz-compressed CSV (.csv.xz) and zipped CSV (.zip) files are all accepted.

Example:
  quant import prices data/prices_2024.csv.xz
  quant import instruments data/universe.csv
  quant import calendar data/nyse.csv --market US`,
}

var importMarket string

var importPricesCmd = &cobra.Command{
	Use:   "prices <file>",
	Short: "Import daily price bars",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runImport(args[0], "price rows", func(ctx context.Context, s *store.SQLiteStore, path string) (int, error) {
			return ingest.ImportPrices(ctx, s, path)
		})
	},
}

var importInstrumentsCmd = &cobra.Command{
	Use:   "instruments <file>",
	Short: "Import the instrument reference table",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runImport(args[0], "instruments", func(ctx context.Context, s *store.SQLiteStore, path string) (int, error) {
			return ingest.ImportInstruments(ctx, s, path)
		})
	},
}

var importCalendarCmd = &cobra.Command{
	Use:   "calendar <file>",
	Short: "Import trading days for one market",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runImport(args[0], "trading days", func(ctx context.Context, s *store.SQLiteStore, path string) (int, error) {
			return ingest.ImportCalendar(ctx, s, path, importMarket)
		})
	},
}

func init() {
	rootCmd.AddCommand(importCmd)
	importCmd.AddCommand(importPricesCmd)
	importCmd.AddCommand(importInstrumentsCmd)
	importCmd.AddCommand(importCalendarCmd)

	importCalendarCmd.Flags().StringVarP(&importMarket, "market", "m", "US", "market the calendar belongs to")
}

func runImport(path, what string, doImport func(context.Context, *store.SQLiteStore, string) (int, error)) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	s, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer s.Close()

	n, err := doImport(context.Background(), s, path)
	if err != nil {
		return err
	}
	fmt.Printf("Imported %d %s from %s\n", n, what, path)
	return nil
}
