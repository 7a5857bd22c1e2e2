package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/quant/backtest"
	"github.com/rustyeddy/quant/config"
	"github.com/rustyeddy/quant/market"
	"github.com/rustyeddy/quant/selector"
	"github.com/rustyeddy/quant/signal"
	"github.com/rustyeddy/quant/store"
	"github.com/rustyeddy/quant/strategy"
)

var backtestCmd = &cobra.Command{
	Use:   "backtest",
	Short: "Replay the default scoring strategy over the trading calendar",
	Long: `Backtest replays a monthly-rebalanced top-K portfolio built from the
default factor blend: long-horizon and medium-horizon momentum, low
volatility and liquidity. Snapshots of every rebalance land in the database;
the NAV series is printed at the end.

Example:
  quant backtest --start 2015-01-01 --end 2024-12-31 --top-k 20`,
	RunE: runBacktest,
}

var (
	btStart        string
	btEnd          string
	btTopK         int
	btRebalanceDay string
	btCapital      float64
	btOverwrite    bool
	btPrintNAV     bool
)

func init() {
	rootCmd.AddCommand(backtestCmd)

	backtestCmd.Flags().StringVar(&btStart, "start", "", "start date YYYY-MM-DD (default from config)")
	backtestCmd.Flags().StringVar(&btEnd, "end", "", "end date YYYY-MM-DD (default from config)")
	backtestCmd.Flags().IntVarP(&btTopK, "top-k", "k", 0, "number of instruments to hold (default from config)")
	backtestCmd.Flags().StringVar(&btRebalanceDay, "rebalance-day", "", "monthly rebalance policy: last, first or 1-28")
	backtestCmd.Flags().Float64VarP(&btCapital, "capital", "b", 0, "starting capital (default from config)")
	backtestCmd.Flags().BoolVar(&btOverwrite, "overwrite", true, "replace stored snapshots on rebalance dates")
	backtestCmd.Flags().BoolVar(&btPrintNAV, "nav", false, "print the full NAV series")
}

// defaultStrategy is the standing factor blend: reward momentum, prefer calm
// names, insist on liquidity.
func defaultStrategy(s *store.SQLiteStore) (*strategy.ScoringStrategy, error) {
	specs := []signal.FactorSpec{
		signal.DefaultSpec("mom_252d_skip21", true),
		signal.DefaultSpec("mom_63d", true),
		signal.DefaultSpec("vol_60d_ann", false),
		signal.DefaultSpec("dv_20d_log", true),
	}

	scorer := &strategy.LinearScorer{
		Terms: []strategy.Term{
			{Col: "mom_252d_skip21_rank", Weight: 0.4},
			{Col: "mom_63d_rank", Weight: 0.3},
			{Col: "vol_60d_ann_rank", Weight: 0.2},
			{Col: "dv_20d_log_rank", Weight: 0.1},
		},
	}

	return &strategy.ScoringStrategy{
		Specs:   specs,
		Scorer:  scorer,
		Builder: &signal.Builder{Factors: s, Version: "v1"},
	}, nil
}

func runBacktest(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	s, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer s.Close()

	start, end, err := backtestRange(cfg)
	if err != nil {
		return err
	}
	topK := btTopK
	if topK <= 0 {
		topK = cfg.Backtest.TopK
	}
	rebalanceDay := btRebalanceDay
	if rebalanceDay == "" {
		rebalanceDay = cfg.Backtest.RebalanceDay
	}
	capital := btCapital
	if capital <= 0 {
		capital = cfg.Backtest.Capital
	}

	strat, err := defaultStrategy(s)
	if err != nil {
		return err
	}

	runner := &backtest.Runner{
		Strategy: strat,
		Selector: &selector.TopK{K: topK, SortBy: strategy.DefaultScoreColumn},

		Prices:    s,
		Calendar:  s,
		Snapshots: s,
		Universe: func(ctx context.Context, date time.Time) ([]market.InstrumentID, error) {
			return s.TradableInstrumentIDs(ctx)
		},

		InitialCash:     capital,
		Slippage:        cfg.Exchange.Slippage,
		TransactionCost: cfg.Exchange.TransactionCost,
		ExchangeCost:    cfg.Exchange.ExchangeCost,
		ReinvestRatio:   cfg.Exchange.ReinvestRatio,
		RebalanceDay:    rebalanceDay,
		Market:          cfg.Backtest.Market,
	}

	fmt.Printf("Running backtest %s -> %s (top %d, rebalance %s)\n",
		market.FormatDay(start), market.FormatDay(end), topK, rebalanceDay)

	res, err := runner.Run(context.Background(), start, end, btOverwrite)
	if err != nil {
		return err
	}

	fmt.Printf("\nBacktest Complete!\n")
	fmt.Printf("  Run ID: %s\n", res.RunID)
	fmt.Printf("  Rebalances: %d (skipped %d)\n", res.Rebalanced, res.Skipped)
	fmt.Printf("  Final Value: $%.2f\n", res.FinalValue)
	if capital > 0 {
		fmt.Printf("  Total Return: %.2f%%\n", (res.FinalValue/capital-1)*100)
	}

	if btPrintNAV {
		fmt.Println("\n  NAV:")
		for _, p := range res.NAV {
			fmt.Printf("    %s  %.2f\n", market.FormatDay(p.Date), p.Value)
		}
	}
	return nil
}

func backtestRange(cfg *config.Config) (time.Time, time.Time, error) {
	startStr := btStart
	if startStr == "" {
		startStr = cfg.Backtest.StartDate
	}
	endStr := btEnd
	if endStr == "" {
		endStr = cfg.Backtest.EndDate
	}

	start, err := market.ParseDay(startStr)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("bad start date %q: %w", startStr, err)
	}
	end, err := market.ParseDay(endStr)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("bad end date %q: %w", endStr, err)
	}
	if start.After(end) {
		return time.Time{}, time.Time{}, fmt.Errorf("start %s is after end %s", startStr, endStr)
	}
	return start, end, nil
}
