package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

const version = "1.0.0"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Long:  `Display the current version of the quant CLI.`,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("quant version %s\n", version)
		fmt.Println("A single-desk quantitative research pipeline")
		fmt.Println("https://github.com/rustyeddy/quant")
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
