package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var corpusCmd = &cobra.Command{
	Use:   "corpus",
	Short: "Inspect the loaded policy corpus",
}

var corpusListCmd = &cobra.Command{
	Use:   "list",
	Short: "List policy sections",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if Corpus == nil {
			return fmt.Errorf("policy corpus not initialized")
		}
		for _, s := range Corpus.Sections() {
			fmt.Printf("%-8s %s\n", s.ID, s.Title)
		}
		fmt.Printf("\n%d section(s)\n", Corpus.Len())
		return nil
	},
}

var corpusShowCmd = &cobra.Command{
	Use:   "show <section-id>",
	Short: "Print one policy section in full",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if Corpus == nil {
			return fmt.Errorf("policy corpus not initialized")
		}
		s := Corpus.Get(args[0])
		if s == nil {
			return fmt.Errorf("no policy section %q", args[0])
		}
		fmt.Printf("Section %s: %s\n\n%s\n", s.ID, s.Title, s.Body)
		return nil
	},
}

func init() {
	corpusCmd.AddCommand(corpusListCmd)
	corpusCmd.AddCommand(corpusShowCmd)
	rootCmd.AddCommand(corpusCmd)
}
