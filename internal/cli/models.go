package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var modelsJSON bool

var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "List known capability models and their per-token pricing",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if Prices == nil {
			return fmt.Errorf("price table not initialized")
		}

		entries := Prices.Models()
		if modelsJSON {
			return printJSON(entries)
		}

		fmt.Printf("%-16s %-14s %s\n", "MODEL", "USD / 1K TOK", "DESCRIPTION")
		for _, e := range entries {
			marker := " "
			if Config != nil && Config.Model == e.Model {
				marker = "*"
			}
			fmt.Printf("%s%-15s %-14.4f %s\n", marker, e.Model, e.USDPer1K, e.Description)
		}
		return nil
	},
}

func init() {
	modelsCmd.Flags().BoolVar(&modelsJSON, "json", false, "Output the pricing table as JSON")
	rootCmd.AddCommand(modelsCmd)
}
