package cli

import (
	"fmt"
	"strings"

	"github.com/marceloamor/CareDocQA/pkg/models"
	"github.com/spf13/cobra"
)

var (
	chatSession string
	chatJSON    bool
)

var chatCmd = &cobra.Command{
	Use:   "chat <message>",
	Short: "Send a free-form message: a question or a pasted transcript",
	Long: `Send a free-form message to the engine.

Messages that look like call transcripts (length, dialogue markers, or
transcript keywords) are routed to full incident analysis. Anything else is
answered as a policy question; when the session has an active incident the
answer also draws on that incident's context.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if Orchestrator == nil {
			return fmt.Errorf("orchestrator not initialized")
		}

		message := strings.Join(args, " ")
		reply, err := Orchestrator.Chat(cmd.Context(), chatSession, message)
		if err != nil {
			return describeEngineError(err)
		}

		if chatJSON {
			return printJSON(reply)
		}

		if reply.Type == models.ReplyContextualFollowup {
			fmt.Println("(answering in the context of the active incident)")
			fmt.Println()
		}
		fmt.Println(reply.Message)
		fmt.Printf("\nCapability usage: %d tokens ($%.4f)\n", reply.Usage.TokensUsed, reply.Usage.CostUSD)
		return nil
	},
}

func init() {
	chatCmd.Flags().StringVar(&chatSession, "session", "default", "Session ID for conversation context")
	chatCmd.Flags().BoolVar(&chatJSON, "json", false, "Output the reply as JSON")
	rootCmd.AddCommand(chatCmd)
}
