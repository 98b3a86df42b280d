package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	caremcp "github.com/marceloamor/CareDocQA/internal/mcp"
	"github.com/spf13/cobra"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "MCP server commands",
	Long:  "Commands for running the caredoc MCP (Model Context Protocol) server.",
}

var mcpServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the caredoc MCP server on stdio",
	Long: `Start the caredoc MCP server on stdio transport.

The server exposes the engine as MCP tools that AI assistants can call:
analyze_transcript, ask_question, update_document, clear_session, get_usage.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if Orchestrator == nil {
			return fmt.Errorf("orchestrator not initialized")
		}

		srv := caremcp.NewServer(Orchestrator, Consistency, SessionMgr, UsageCalc, appVersion)

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		if err := srv.Run(ctx); err != nil {
			return fmt.Errorf("running MCP server: %w", err)
		}

		return nil
	},
}

func init() {
	mcpCmd.AddCommand(mcpServeCmd)
	rootCmd.AddCommand(mcpCmd)
}
