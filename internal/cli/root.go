package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	appVersion = "dev"
	appCommit  = "none"
	appDate    = "unknown"
)

// SetVersionInfo sets the version information injected via ldflags.
func SetVersionInfo(version, commit, date string) {
	appVersion = version
	appCommit = commit
	appDate = date
}

var rootCmd = &cobra.Command{
	Use:   "caredoc",
	Short: "CareDoc - social care incident analysis and document consistency engine",
	Long: `CareDoc analyses social care incident call transcripts against a policy
corpus, generates structured incident reports and notification email drafts,
and keeps the generated documents consistent as they are revised.

It provides CLI commands for analysing transcripts, asking policy questions,
updating generated documents, and inspecting capability usage and cost.`,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("caredoc %s\ncommit: %s\nbuilt:  %s\n", appVersion, appCommit, appDate)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
