// Package mcp provides an MCP (Model Context Protocol) server that exposes
// the incident analysis engine as MCP tools for AI assistants.
package mcp

import (
	"context"
	"fmt"
	"time"

	"github.com/marceloamor/CareDocQA/internal/core"
	"github.com/marceloamor/CareDocQA/internal/observability"
	"github.com/marceloamor/CareDocQA/internal/storage"
	gomcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

// Server wraps the engine services and exposes them as MCP tools.
type Server struct {
	server       *gomcp.Server
	orchestrator core.Orchestrator
	consistency  core.ConsistencyManager
	sessions     storage.SessionContextManager
	usageCalc    observability.UsageCalculator
}

// NewServer creates a new MCP server with the given engine dependencies.
// usageCalc may be nil if the event log is disabled.
func NewServer(orchestrator core.Orchestrator, consistency core.ConsistencyManager, sessions storage.SessionContextManager, usageCalc observability.UsageCalculator, version string) *Server {
	if version == "" {
		version = "dev"
	}

	s := &Server{
		orchestrator: orchestrator,
		consistency:  consistency,
		sessions:     sessions,
		usageCalc:    usageCalc,
	}

	s.server = gomcp.NewServer(
		&gomcp.Implementation{Name: "caredoc", Version: version},
		nil,
	)

	s.registerTools()

	return s
}

// Run starts the MCP server on stdio, blocking until the client disconnects
// or the context is cancelled.
func (s *Server) Run(ctx context.Context) error {
	return s.server.Run(ctx, &gomcp.StdioTransport{})
}

// MCPServer returns the underlying mcp.Server for testing purposes.
func (s *Server) MCPServer() *gomcp.Server {
	return s.server
}

// --- Tool input/output types ---

type analyzeTranscriptInput struct {
	SessionID  string `json:"session_id" jsonschema:"required,session to store the incident context under"`
	Transcript string `json:"transcript" jsonschema:"required,the incident call transcript text"`
}

type triggeredPolicyOutput struct {
	SectionID    string   `json:"section_id"`
	Section      string   `json:"section"`
	Reason       string   `json:"reason"`
	Requirements []string `json:"requirements,omitempty"`
}

type analyzeTranscriptOutput struct {
	Summary           string                  `json:"summary"`
	Severity          string                  `json:"severity"`
	TriggeredPolicies []triggeredPolicyOutput `json:"triggered_policies"`
	RequiredActions   []string                `json:"required_actions"`
	Documents         map[string]string       `json:"documents"`
	TokensUsed        int                     `json:"tokens_used"`
	CostUSD           float64                 `json:"cost_usd"`
}

type askQuestionInput struct {
	SessionID string `json:"session_id" jsonschema:"required,session whose incident context to use"`
	Question  string `json:"question" jsonschema:"required,the policy or incident question"`
}

type askQuestionOutput struct {
	ReplyType  string  `json:"reply_type"`
	Answer     string  `json:"answer"`
	TokensUsed int     `json:"tokens_used"`
	CostUSD    float64 `json:"cost_usd"`
}

type updateDocumentInput struct {
	SessionID    string `json:"session_id" jsonschema:"required,session holding the active incident"`
	DocumentType string `json:"document_type" jsonschema:"required,the document to revise (e.g. incident_report or email_supervisor)"`
	Feedback     string `json:"feedback" jsonschema:"required,feedback describing the change to make"`
	Commit       bool   `json:"commit,omitempty" jsonschema:"apply the proposed documents to the session instead of previewing"`
}

type crossUpdateOutput struct {
	DocumentType string `json:"document_type"`
	Reason       string `json:"reason"`
}

type updateDocumentOutput struct {
	UpdatedDocument   string              `json:"updated_document"`
	CrossUpdates      []crossUpdateOutput `json:"cross_updates,omitempty"`
	Explanation       string              `json:"explanation"`
	NoChangeRequested bool                `json:"no_change_requested"`
	Committed         bool                `json:"committed"`
	TokensUsed        int                 `json:"tokens_used"`
	CostUSD           float64             `json:"cost_usd"`
}

type clearSessionInput struct {
	SessionID string `json:"session_id" jsonschema:"required,the session to reset"`
}

type clearSessionOutput struct {
	Message string `json:"message"`
}

type getUsageInput struct {
	Since string `json:"since,omitempty" jsonschema:"time window for usage (e.g. 7d, 30d, 24h). Defaults to 7d."`
}

type usageOutput struct {
	AnalysesCompleted int            `json:"analyses_completed"`
	QuestionsAnswered int            `json:"questions_answered"`
	DocumentsUpdated  int            `json:"documents_updated"`
	CapabilityCalls   int            `json:"capability_calls"`
	CallsByKind       map[string]int `json:"calls_by_kind"`
	TokensUsed        int64          `json:"tokens_used"`
	CostUSD           float64        `json:"cost_usd"`
	EventCount        int            `json:"event_count"`
}

// --- Tool registration ---

func (s *Server) registerTools() {
	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "analyze_transcript",
		Description: "Analyse an incident call transcript against the policy corpus. Returns the analysis and the generated incident report and email documents.",
	}, s.handleAnalyzeTranscript)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "ask_question",
		Description: "Answer a policy question. When the session has an active incident the answer draws on that incident's context.",
	}, s.handleAskQuestion)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "update_document",
		Description: "Revise one generated document based on feedback, with cross-document consistency checks. Previews by default; set commit to apply.",
	}, s.handleUpdateDocument)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "clear_session",
		Description: "Reset a session's incident context. Idempotent.",
	}, s.handleClearSession)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "get_usage",
		Description: "Get aggregated capability usage from the event log: analyses, questions, updates, tokens, and cost.",
	}, s.handleGetUsage)
}

// --- Tool handlers ---

func (s *Server) handleAnalyzeTranscript(ctx context.Context, _ *gomcp.CallToolRequest, input analyzeTranscriptInput) (*gomcp.CallToolResult, analyzeTranscriptOutput, error) {
	if input.SessionID == "" {
		return errorResult("session_id is required"), emptyAnalyzeTranscriptOutput(), nil
	}
	if input.Transcript == "" {
		return errorResult("transcript is required"), emptyAnalyzeTranscriptOutput(), nil
	}

	outcome, err := s.orchestrator.AnalyzeTranscript(ctx, input.SessionID, input.Transcript)
	if err != nil {
		return errorResult(fmt.Sprintf("analysing transcript: %s", err)), emptyAnalyzeTranscriptOutput(), nil
	}

	out := analyzeTranscriptOutput{
		Summary:         outcome.Analysis.Summary,
		Severity:        string(outcome.Analysis.Severity),
		RequiredActions: outcome.Analysis.RequiredActions,
		Documents:       outcome.Documents,
		TokensUsed:      outcome.Usage.TokensUsed,
		CostUSD:         outcome.Usage.CostUSD,
	}
	for _, tp := range outcome.Analysis.TriggeredPolicies {
		out.TriggeredPolicies = append(out.TriggeredPolicies, triggeredPolicyOutput{
			SectionID:    tp.SectionID,
			Section:      tp.Section,
			Reason:       tp.Reason,
			Requirements: tp.Requirements,
		})
	}

	return nil, out, nil
}

func (s *Server) handleAskQuestion(ctx context.Context, _ *gomcp.CallToolRequest, input askQuestionInput) (*gomcp.CallToolResult, askQuestionOutput, error) {
	if input.SessionID == "" {
		return errorResult("session_id is required"), askQuestionOutput{}, nil
	}
	if input.Question == "" {
		return errorResult("question is required"), askQuestionOutput{}, nil
	}

	reply, err := s.orchestrator.Chat(ctx, input.SessionID, input.Question)
	if err != nil {
		return errorResult(fmt.Sprintf("answering question: %s", err)), askQuestionOutput{}, nil
	}

	out := askQuestionOutput{
		ReplyType:  string(reply.Type),
		Answer:     reply.Message,
		TokensUsed: reply.Usage.TokensUsed,
		CostUSD:    reply.Usage.CostUSD,
	}
	return nil, out, nil
}

func (s *Server) handleUpdateDocument(ctx context.Context, _ *gomcp.CallToolRequest, input updateDocumentInput) (*gomcp.CallToolResult, updateDocumentOutput, error) {
	if input.SessionID == "" {
		return errorResult("session_id is required"), updateDocumentOutput{}, nil
	}
	if input.DocumentType == "" {
		return errorResult("document_type is required"), updateDocumentOutput{}, nil
	}
	if input.Feedback == "" {
		return errorResult("feedback is required"), updateDocumentOutput{}, nil
	}

	session := s.sessions.Get(input.SessionID)
	if !session.HasActiveIncident {
		return errorResult(fmt.Sprintf("session %s has no active incident; analyse a transcript first", input.SessionID)), updateDocumentOutput{}, nil
	}

	result, usage, err := s.consistency.UpdateDocument(ctx, input.SessionID, input.DocumentType, input.Feedback, session.Artifacts)
	if err != nil {
		return errorResult(fmt.Sprintf("updating document: %s", err)), updateDocumentOutput{}, nil
	}

	out := updateDocumentOutput{
		UpdatedDocument:   result.UpdatedDocument,
		Explanation:       result.Explanation,
		NoChangeRequested: result.NoChangeRequested,
		TokensUsed:        usage.TokensUsed,
		CostUSD:           usage.CostUSD,
	}
	for _, cu := range result.CrossUpdates {
		out.CrossUpdates = append(out.CrossUpdates, crossUpdateOutput{
			DocumentType: cu.DocumentType,
			Reason:       cu.Reason,
		})
	}

	if input.Commit && !result.NoChangeRequested {
		if err := s.sessions.CommitArtifacts(input.SessionID, result.Documents); err != nil {
			return errorResult(fmt.Sprintf("committing documents: %s", err)), updateDocumentOutput{}, nil
		}
		out.Committed = true
	}

	return nil, out, nil
}

func (s *Server) handleClearSession(_ context.Context, _ *gomcp.CallToolRequest, input clearSessionInput) (*gomcp.CallToolResult, clearSessionOutput, error) {
	if input.SessionID == "" {
		return errorResult("session_id is required"), clearSessionOutput{}, nil
	}

	s.orchestrator.ClearContext(input.SessionID)

	out := clearSessionOutput{
		Message: fmt.Sprintf("session %s cleared", input.SessionID),
	}
	return nil, out, nil
}

func (s *Server) handleGetUsage(_ context.Context, _ *gomcp.CallToolRequest, input getUsageInput) (*gomcp.CallToolResult, usageOutput, error) {
	if s.usageCalc == nil {
		return errorResult("usage calculator not available (event log may be disabled)"), emptyUsageOutput(), nil
	}

	sinceStr := input.Since
	if sinceStr == "" {
		sinceStr = "7d"
	}

	sinceTime, err := parseSince(sinceStr)
	if err != nil {
		return errorResult(fmt.Sprintf("parsing since duration: %s", err)), emptyUsageOutput(), nil
	}

	metrics, err := s.usageCalc.Calculate(sinceTime)
	if err != nil {
		return errorResult(fmt.Sprintf("calculating usage: %s", err)), emptyUsageOutput(), nil
	}

	out := usageOutput{
		AnalysesCompleted: metrics.AnalysesCompleted,
		QuestionsAnswered: metrics.QuestionsAnswered,
		DocumentsUpdated:  metrics.DocumentsUpdated,
		CapabilityCalls:   metrics.CapabilityCalls,
		CallsByKind:       metrics.CallsByKind,
		TokensUsed:        metrics.TokensUsed,
		CostUSD:           metrics.CostUSD,
		EventCount:        metrics.EventCount,
	}
	return nil, out, nil
}

// --- Helpers ---

// emptyAnalyzeTranscriptOutput returns a zero output whose collections are
// non-nil so they marshal as {}/[] and satisfy the tool's output schema.
func emptyAnalyzeTranscriptOutput() analyzeTranscriptOutput {
	return analyzeTranscriptOutput{
		TriggeredPolicies: []triggeredPolicyOutput{},
		RequiredActions:   []string{},
		Documents:         map[string]string{},
	}
}

func emptyUsageOutput() usageOutput {
	return usageOutput{
		CallsByKind: make(map[string]int),
	}
}

func errorResult(msg string) *gomcp.CallToolResult {
	return &gomcp.CallToolResult{
		Content: []gomcp.Content{&gomcp.TextContent{Text: msg}},
		IsError: true,
	}
}

// parseSince parses a human-friendly duration string like "7d", "30d", or "24h"
// into the corresponding time in the past.
func parseSince(s string) (time.Time, error) {
	now := time.Now().UTC()

	if len(s) < 2 {
		return time.Time{}, fmt.Errorf("invalid duration %q", s)
	}

	suffix := s[len(s)-1]
	numStr := s[:len(s)-1]
	var num int
	if _, err := fmt.Sscanf(numStr, "%d", &num); err != nil {
		return time.Time{}, fmt.Errorf("invalid duration %q: %w", s, err)
	}

	switch suffix {
	case 'd':
		return now.AddDate(0, 0, -num), nil
	case 'h':
		return now.Add(-time.Duration(num) * time.Hour), nil
	default:
		return time.Time{}, fmt.Errorf("unsupported duration suffix %q (use d or h)", string(suffix))
	}
}
