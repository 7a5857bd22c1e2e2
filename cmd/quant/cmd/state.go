package cmd

import (
	"context"
	"fmt"
	"sort"

	"github.com/spf13/cobra"
)

var stateCmd = &cobra.Command{
	Use:   "state",
	Short: "Inspect or reset pipeline checkpoints",
	Long: `State lists the pipeline's resumable checkpoints (one per factor
instance) and can clear them so the next factor run recomputes from scratch.

Example:
  quant state list
  quant state clear factor:momentum:252:21:v1`,
}

var stateListCmd = &cobra.Command{
	Use:   "list",
	Short: "List every stored checkpoint",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		s, err := openStore(cfg)
		if err != nil {
			return err
		}
		defer s.Close()

		states, err := s.States(context.Background())
		if err != nil {
			return err
		}
		if len(states) == 0 {
			fmt.Println("No checkpoints stored.")
			return nil
		}

		keys := make([]string, 0, len(states))
		for k := range states {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Printf("%s\t%s\n", k, states[k])
		}
		return nil
	},
}

var stateClearCmd = &cobra.Command{
	Use:   "clear <key>",
	Short: "Delete one checkpoint",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		s, err := openStore(cfg)
		if err != nil {
			return err
		}
		defer s.Close()

		if err := s.DeleteState(context.Background(), args[0]); err != nil {
			return err
		}
		fmt.Printf("Cleared %s\n", args[0])
		return nil
	},
}

func init() {
	rootCmd.AddCommand(stateCmd)
	stateCmd.AddCommand(stateListCmd)
	stateCmd.AddCommand(stateClearCmd)
}
