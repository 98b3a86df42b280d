package cli

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"
)

var (
	updateSession  string
	updateFeedback string
	updateCommit   bool
	updateJSON     bool
)

var updateCmd = &cobra.Command{
	Use:   "update <document-type>",
	Short: "Revise a generated document based on feedback",
	Long: `Revise one generated document of the active incident based on feedback.

The engine rewrites the named document and, when the change affects facts
shared with other documents, proposes matching cross-updates. The result is a
preview: pass --commit to replace the session's document set with it.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if Consistency == nil || SessionMgr == nil {
			return fmt.Errorf("consistency manager not initialized")
		}

		documentType := args[0]
		session := SessionMgr.Get(updateSession)
		if !session.HasActiveIncident {
			return fmt.Errorf("session %q has no active incident; run analyze first", updateSession)
		}

		result, usage, err := Consistency.UpdateDocument(cmd.Context(), updateSession, documentType, updateFeedback, session.Artifacts)
		if err != nil {
			return describeEngineError(err)
		}

		if updateJSON {
			if updateCommit && !result.NoChangeRequested {
				if err := SessionMgr.CommitArtifacts(updateSession, result.Documents); err != nil {
					return err
				}
			}
			return printJSON(result)
		}

		if result.NoChangeRequested {
			fmt.Println("No change requested; documents left as they are.")
			return nil
		}

		fmt.Printf("Updated %s:\n\n%s\n", documentType, result.UpdatedDocument)
		if len(result.CrossUpdates) > 0 {
			fmt.Printf("\nCross-updates required (%d):\n", len(result.CrossUpdates))
			for _, cu := range result.CrossUpdates {
				fmt.Printf("  - %s: %s\n", cu.DocumentType, cu.Reason)
			}
		}
		if result.Explanation != "" {
			fmt.Printf("\nExplanation: %s\n", result.Explanation)
		}
		fmt.Printf("\nCapability usage: %d tokens ($%.4f)\n", usage.TokensUsed, usage.CostUSD)

		if !updateCommit {
			changed := changedDocs(session.Artifacts, result.Documents)
			fmt.Printf("\nPreview only. Re-run with --commit to apply changes to: %s\n", strings.Join(changed, ", "))
			return nil
		}

		if err := SessionMgr.CommitArtifacts(updateSession, result.Documents); err != nil {
			return err
		}
		fmt.Println("\nChanges committed to the session.")
		return nil
	},
}

func changedDocs(before, after map[string]string) []string {
	var changed []string
	for k, v := range after {
		if before[k] != v {
			changed = append(changed, k)
		}
	}
	sort.Strings(changed)
	return changed
}

func init() {
	updateCmd.Flags().StringVar(&updateSession, "session", "default", "Session ID of the active incident")
	updateCmd.Flags().StringVarP(&updateFeedback, "feedback", "m", "", "Feedback describing the change to make")
	updateCmd.Flags().BoolVar(&updateCommit, "commit", false, "Apply the proposed documents to the session")
	updateCmd.Flags().BoolVar(&updateJSON, "json", false, "Output the update result as JSON")
	_ = updateCmd.MarkFlagRequired("feedback")
	rootCmd.AddCommand(updateCmd)
}
