package cli

import (
	"fmt"
	"sort"
	"time"

	"github.com/spf13/cobra"
)

var (
	sessionID       string
	sessionShowDocs bool
	sessionSnapshot string
)

var sessionCmd = &cobra.Command{
	Use:   "session",
	Short: "Inspect and manage session incident context",
}

var sessionShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the session's current incident context",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if SessionMgr == nil {
			return fmt.Errorf("session manager not initialized")
		}

		session := SessionMgr.Get(sessionID)
		if !session.HasActiveIncident {
			fmt.Printf("Session %q has no active incident.\n", sessionID)
			return nil
		}

		fmt.Printf("Session:  %s\n", session.SessionID)
		fmt.Printf("Updated:  %s\n", session.UpdatedAt.Format(time.RFC3339))
		fmt.Printf("Severity: %s\n", session.LastAnalysis.Severity)
		fmt.Printf("Summary:  %s\n", session.IncidentSummary)

		if len(session.Artifacts) > 0 {
			keys := make([]string, 0, len(session.Artifacts))
			for k := range session.Artifacts {
				keys = append(keys, k)
			}
			sort.Strings(keys)

			fmt.Printf("\nDocuments (%d):\n", len(keys))
			for _, k := range keys {
				fmt.Printf("  - %s (%d bytes)\n", k, len(session.Artifacts[k]))
			}
			if sessionShowDocs {
				for _, k := range keys {
					fmt.Printf("\n--- %s ---\n%s\n", k, session.Artifacts[k])
				}
			}
		}
		return nil
	},
}

var sessionClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Reset the session's incident context",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if Orchestrator == nil {
			return fmt.Errorf("orchestrator not initialized")
		}
		Orchestrator.ClearContext(sessionID)
		fmt.Printf("Session %q cleared.\n", sessionID)
		return nil
	},
}

var sessionSnapshotCmd = &cobra.Command{
	Use:   "snapshot",
	Short: "Write the session context to a YAML file for auditing",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if SessionMgr == nil {
			return fmt.Errorf("session manager not initialized")
		}
		if err := SessionMgr.SaveSnapshot(sessionID, sessionSnapshot); err != nil {
			return err
		}
		fmt.Printf("Session %q written to %s\n", sessionID, sessionSnapshot)
		return nil
	},
}

func init() {
	sessionCmd.PersistentFlags().StringVar(&sessionID, "session", "default", "Session ID")
	sessionShowCmd.Flags().BoolVar(&sessionShowDocs, "docs", false, "Print the full document contents")
	sessionSnapshotCmd.Flags().StringVarP(&sessionSnapshot, "output", "o", "session.yaml", "Snapshot file path")
	sessionCmd.AddCommand(sessionShowCmd)
	sessionCmd.AddCommand(sessionClearCmd)
	sessionCmd.AddCommand(sessionSnapshotCmd)
	rootCmd.AddCommand(sessionCmd)
}
