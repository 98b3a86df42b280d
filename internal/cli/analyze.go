package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/marceloamor/CareDocQA/internal/core"
	"github.com/spf13/cobra"
)

var (
	analyzeSession  string
	analyzeFile     string
	analyzeJSON     bool
	analyzeSaveDocs string
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze [transcript]",
	Short: "Analyse an incident call transcript",
	Long: `Analyse an incident call transcript against the policy corpus.

The transcript is read from the argument, from --file, or from stdin. On
success the session holds the new incident context: the analysis, a populated
incident report, and notification email drafts.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if Orchestrator == nil {
			return fmt.Errorf("orchestrator not initialized")
		}

		transcript, err := readTranscript(args)
		if err != nil {
			return err
		}

		outcome, err := Orchestrator.AnalyzeTranscript(cmd.Context(), analyzeSession, transcript)
		if err != nil {
			return describeEngineError(err)
		}

		if analyzeSaveDocs != "" {
			if err := saveDocuments(analyzeSaveDocs, outcome.Documents); err != nil {
				return err
			}
		}

		if analyzeJSON {
			return printJSON(outcome)
		}

		fmt.Println(core.FormatAnalysisMessage(outcome.Analysis))
		fmt.Printf("\nDocuments generated: %s\n", strings.Join(sortedDocKeys(outcome.Documents), ", "))
		fmt.Printf("Capability usage: %d tokens ($%.4f)\n", outcome.Usage.TokensUsed, outcome.Usage.CostUSD)
		return nil
	},
}

func readTranscript(args []string) (string, error) {
	if len(args) == 1 && args[0] != "-" {
		return args[0], nil
	}
	if analyzeFile != "" {
		data, err := os.ReadFile(analyzeFile)
		if err != nil {
			return "", fmt.Errorf("reading transcript file: %w", err)
		}
		return string(data), nil
	}
	data, err := io.ReadAll(os.Stdin)
	if err != nil {
		return "", fmt.Errorf("reading transcript from stdin: %w", err)
	}
	return string(data), nil
}

func saveDocuments(dir string, docs map[string]string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating document directory: %w", err)
	}
	for docType, content := range docs {
		path := filepath.Join(dir, docType+".txt")
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			return fmt.Errorf("writing %s: %w", path, err)
		}
	}
	fmt.Printf("Documents written to %s\n", dir)
	return nil
}

func sortedDocKeys(docs map[string]string) []string {
	keys := make([]string, 0, len(docs))
	for k := range docs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func printJSON(v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("formatting output as JSON: %w", err)
	}
	fmt.Println(string(data))
	return nil
}

// describeEngineError prefixes typed engine failures with a short hint about
// what the user can do about them.
func describeEngineError(err error) error {
	switch {
	case core.IsValidationError(err):
		return fmt.Errorf("invalid input: %w", err)
	case core.IsCapabilityError(err):
		return fmt.Errorf("capability unavailable, try again: %w", err)
	case core.IsConsistencyViolation(err):
		return fmt.Errorf("update rejected: %w", err)
	case core.IsSchemaError(err):
		return fmt.Errorf("capability returned unusable output: %w", err)
	default:
		return err
	}
}

func init() {
	analyzeCmd.Flags().StringVar(&analyzeSession, "session", "default", "Session ID to store the incident context under")
	analyzeCmd.Flags().StringVarP(&analyzeFile, "file", "f", "", "Read the transcript from a file")
	analyzeCmd.Flags().BoolVar(&analyzeJSON, "json", false, "Output the full analysis as JSON")
	analyzeCmd.Flags().StringVar(&analyzeSaveDocs, "save-docs", "", "Write the generated documents to this directory")
	rootCmd.AddCommand(analyzeCmd)
}
