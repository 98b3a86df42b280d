package cli

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

var (
	costsJSON  bool
	costsSince string
)

var costsCmd = &cobra.Command{
	Use:   "costs",
	Short: "Display capability usage and cost",
	Long: `Display aggregated capability usage derived from the event log.

Figures include analyses completed, questions answered, document updates,
capability calls by prompt kind, and total tokens and dollar cost.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if UsageCalc == nil {
			return fmt.Errorf("usage calculator not initialized (event log may be disabled)")
		}

		sinceTime, err := parseSinceDuration(costsSince)
		if err != nil {
			return fmt.Errorf("parsing --since: %w", err)
		}

		metrics, err := UsageCalc.Calculate(sinceTime)
		if err != nil {
			return fmt.Errorf("calculating usage: %w", err)
		}

		if costsJSON {
			return printJSON(metrics)
		}

		fmt.Printf("Capability usage (since %s)\n\n", sinceTime.Format("2006-01-02"))
		fmt.Printf("  %-24s %d\n", "Events recorded:", metrics.EventCount)
		fmt.Printf("  %-24s %d\n", "Analyses completed:", metrics.AnalysesCompleted)
		fmt.Printf("  %-24s %d\n", "Questions answered:", metrics.QuestionsAnswered)
		fmt.Printf("  %-24s %d\n", "Documents updated:", metrics.DocumentsUpdated)
		fmt.Printf("  %-24s %d\n", "Sessions cleared:", metrics.SessionsCleared)
		fmt.Printf("  %-24s %d\n", "Capability calls:", metrics.CapabilityCalls)
		fmt.Printf("  %-24s %d\n", "Tokens used:", metrics.TokensUsed)
		fmt.Printf("  %-24s $%.4f\n", "Total cost:", metrics.CostUSD)

		if len(metrics.CallsByKind) > 0 {
			fmt.Println("\n  Calls by prompt kind:")
			for kind, count := range metrics.CallsByKind {
				fmt.Printf("    %-22s %d\n", kind+":", count)
			}
		}

		if metrics.OldestEvent != nil {
			fmt.Printf("\n  %-24s %s\n", "Oldest event:", metrics.OldestEvent.Format(time.RFC3339))
		}
		if metrics.NewestEvent != nil {
			fmt.Printf("  %-24s %s\n", "Newest event:", metrics.NewestEvent.Format(time.RFC3339))
		}

		if CostMeter != nil {
			totals := CostMeter.Totals()
			fmt.Printf("\n  This process: %d calls, %d tokens, $%.4f\n", totals.Calls, totals.Tokens, totals.CostUSD)
		}

		return nil
	},
}

// parseSinceDuration parses a human-friendly duration string like "7d", "30d",
// or "24h" and returns the corresponding time in the past.
func parseSinceDuration(s string) (time.Time, error) {
	now := time.Now().UTC()
	s = strings.TrimSpace(s)
	if s == "" {
		return now.AddDate(0, 0, -7), nil
	}

	if strings.HasSuffix(s, "d") {
		days, err := strconv.Atoi(strings.TrimSuffix(s, "d"))
		if err != nil {
			return time.Time{}, fmt.Errorf("invalid day duration %q", s)
		}
		return now.AddDate(0, 0, -days), nil
	}

	if strings.HasSuffix(s, "h") {
		hours, err := strconv.Atoi(strings.TrimSuffix(s, "h"))
		if err != nil {
			return time.Time{}, fmt.Errorf("invalid hour duration %q", s)
		}
		return now.Add(-time.Duration(hours) * time.Hour), nil
	}

	return time.Time{}, fmt.Errorf("unsupported duration format %q (use e.g. 7d, 30d, 24h)", s)
}

func init() {
	costsCmd.Flags().BoolVar(&costsJSON, "json", false, "Output usage as JSON")
	costsCmd.Flags().StringVar(&costsSince, "since", "7d", "Time window for usage (e.g. 7d, 30d, 24h)")
	rootCmd.AddCommand(costsCmd)
}
