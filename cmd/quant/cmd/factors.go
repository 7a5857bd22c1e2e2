package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/quant/factor"
	"github.com/rustyeddy/quant/market"
)

var factorsCmd = &cobra.Command{
	Use:   "factors",
	Short: "Compute the standing factor roster over the price database",
	Long: `Factors computes every factor in the standing roster (momentum,
volatility, dollar volume, vol-of-vol, jump risk, max drawdown) for all
tradable instruments, from the last checkpoint up to the newest price.

Each factor keeps its own checkpoint, so interrupted runs resume where they
left off. Use --force to recompute from the configured start date.

Example:
  quant factors --db ./quant.sqlite
  quant factors --only mom_252d_skip21 --force`,
	RunE: runFactors,
}

var (
	factorsForce bool
	factorsOnly  string
)

func init() {
	rootCmd.AddCommand(factorsCmd)

	factorsCmd.Flags().BoolVarP(&factorsForce, "force", "f", false, "ignore checkpoints and recompute the full range")
	factorsCmd.Flags().StringVar(&factorsOnly, "only", "", "compute a single factor by name (e.g. mom_63d)")
}

func runFactors(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	s, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer s.Close()

	startDate, err := market.ParseDay(cfg.Data.DefaultStartDate)
	if err != nil {
		return fmt.Errorf("bad default_start_date: %w", err)
	}

	defs := factor.DefaultSet(cfg)
	if factorsOnly != "" {
		var filtered []factor.Definition
		for _, def := range defs {
			if def.Name() == factorsOnly {
				filtered = append(filtered, def)
			}
		}
		if len(filtered) == 0 {
			return fmt.Errorf("unknown factor: %s", factorsOnly)
		}
		defs = filtered
	}

	engine := &factor.Engine{
		Prices:      s,
		Factors:     s,
		State:       s,
		Instruments: s,
		StartDate:   startDate,
	}

	stats, err := engine.RunAll(context.Background(), defs, factorsForce)
	if err != nil {
		return err
	}

	fmt.Printf("Factor run complete!\n")
	fmt.Printf("  Rows written: %d\n", stats.Written)
	fmt.Printf("  Instruments with no output: %d\n", stats.ZeroWritten)
	fmt.Printf("  Instruments failed: %d\n", stats.Failed)
	return nil
}
