package core

import (
	"context"
	"strings"

	"github.com/marceloamor/CareDocQA/internal/observability"
	"github.com/marceloamor/CareDocQA/pkg/models"
)

// SessionStore is the slice of the session context manager the orchestrator
// needs.
type SessionStore interface {
	Get(sessionID string) models.SessionContext
	RecordAnalysis(sessionID string, result models.IncidentAnalysisResult, transcript string, artifacts models.DocumentSet)
	Clear(sessionID string)
	Serialize(sessionID string) (unlock func())
}

// EventRecorder receives engine lifecycle events. May be nil.
type EventRecorder interface {
	RecordEvent(eventType, sessionID, message string, data map[string]any)
}

// IncidentNotifier pushes an alert for a completed analysis. May be nil.
type IncidentNotifier interface {
	NotifyIncident(sessionID string, result *models.IncidentAnalysisResult) error
}

// AnalyzeOutcome bundles everything a successful transcript analysis
// produces: the validated analysis, the rendered artifact set, and the
// cumulative capability usage.
type AnalyzeOutcome struct {
	Analysis  *models.IncidentAnalysisResult
	Documents models.DocumentSet
	Usage     models.Usage
}

// Orchestrator coordinates transcript analysis, policy Q&A routing, and
// session lifecycle. All operations for one session run serially.
type Orchestrator interface {
	// AnalyzeTranscript runs the full analysis pipeline and, on success,
	// replaces the session's incident context wholesale. On any failure the
	// session context is untouched.
	AnalyzeTranscript(ctx context.Context, sessionID, transcript string) (*AnalyzeOutcome, error)

	// Chat routes a free-form message: transcripts go through analysis,
	// questions through policy Q&A, with incident context attached when the
	// session has an active incident.
	Chat(ctx context.Context, sessionID, message string) (*models.ChatReply, error)

	// ClearContext resets the session. Idempotent.
	ClearContext(sessionID string)

	// Session returns a deep copy of the session's current context.
	Session(sessionID string) models.SessionContext
}

type orchestrator struct {
	adapter      AnalysisAdapter
	store        SessionStore
	events       EventRecorder
	notifier     IncidentNotifier
	classifier   models.ClassifierConfig
	minUrgency   models.Urgency
	reportFields []string
}

// NewOrchestrator wires the analysis pipeline. events and notifier may be nil.
func NewOrchestrator(adapter AnalysisAdapter, store SessionStore, events EventRecorder, notifier IncidentNotifier, classifier models.ClassifierConfig, minUrgency models.Urgency, reportFields []string) Orchestrator {
	return &orchestrator{
		adapter:      adapter,
		store:        store,
		events:       events,
		notifier:     notifier,
		classifier:   classifier,
		minUrgency:   minUrgency,
		reportFields: reportFields,
	}
}

func (o *orchestrator) AnalyzeTranscript(ctx context.Context, sessionID, transcript string) (*AnalyzeOutcome, error) {
	if strings.TrimSpace(sessionID) == "" {
		return nil, NewValidationError("session id must not be empty")
	}
	if strings.TrimSpace(transcript) == "" {
		return nil, NewValidationError("transcript must not be empty")
	}

	unlock := o.store.Serialize(sessionID)
	defer unlock()

	return o.analyzeLocked(ctx, sessionID, transcript)
}

// analyzeLocked runs under the session's ordering lock. Session state is only
// written after the analysis validates, so a failed attempt leaves the prior
// incident intact.
func (o *orchestrator) analyzeLocked(ctx context.Context, sessionID, transcript string) (*AnalyzeOutcome, error) {
	result, usage, err := o.adapter.AnalyzeTranscript(ctx, transcript)
	if err != nil {
		return nil, err
	}

	result.TriggeredPolicies = dedupePolicies(result.TriggeredPolicies)

	docs := RenderDocuments(result, o.reportFields)
	o.store.RecordAnalysis(sessionID, *result, transcript, docs)

	if o.events != nil {
		o.events.RecordEvent(observability.EventAnalysisCompleted, sessionID, result.Summary, map[string]any{
			"severity":       string(result.Severity),
			"policies_count": len(result.TriggeredPolicies),
			"emails_count":   len(result.Emails),
			"tokens_used":    usage.TokensUsed,
			"cost_usd":       usage.CostUSD,
		})
	}

	if o.notifier != nil && o.shouldNotify(result) {
		// Alert delivery is best effort and never fails the analysis.
		_ = o.notifier.NotifyIncident(sessionID, result)
	}

	return &AnalyzeOutcome{Analysis: result, Documents: docs, Usage: usage}, nil
}

func (o *orchestrator) Chat(ctx context.Context, sessionID, message string) (*models.ChatReply, error) {
	if strings.TrimSpace(sessionID) == "" {
		return nil, NewValidationError("session id must not be empty")
	}
	if strings.TrimSpace(message) == "" {
		return nil, NewValidationError("message must not be empty")
	}

	unlock := o.store.Serialize(sessionID)
	defer unlock()

	if ClassifyMessage(message, o.classifier) == MessageTranscript {
		outcome, err := o.analyzeLocked(ctx, sessionID, message)
		if err != nil {
			return nil, err
		}
		return &models.ChatReply{
			Type:     models.ReplyTranscriptAnalysis,
			Message:  FormatAnalysisMessage(outcome.Analysis),
			Analysis: outcome.Analysis,
			Usage:    outcome.Usage,
		}, nil
	}

	session := o.store.Get(sessionID)
	answer, usage, err := o.adapter.AnswerQuestion(ctx, message, session)
	if err != nil {
		return nil, err
	}

	replyType := models.ReplyPolicyQuestion
	if session.HasActiveIncident {
		replyType = models.ReplyContextualFollowup
	}

	if o.events != nil {
		o.events.RecordEvent(observability.EventChatAnswered, sessionID, message, map[string]any{
			"reply_type":  string(replyType),
			"tokens_used": usage.TokensUsed,
			"cost_usd":    usage.CostUSD,
		})
	}

	return &models.ChatReply{Type: replyType, Message: answer, Usage: usage}, nil
}

func (o *orchestrator) ClearContext(sessionID string) {
	if strings.TrimSpace(sessionID) == "" {
		return
	}

	unlock := o.store.Serialize(sessionID)
	defer unlock()

	o.store.Clear(sessionID)
	if o.events != nil {
		o.events.RecordEvent(observability.EventSessionCleared, sessionID, "session context cleared", nil)
	}
}

func (o *orchestrator) Session(sessionID string) models.SessionContext {
	return o.store.Get(sessionID)
}

func (o *orchestrator) shouldNotify(result *models.IncidentAnalysisResult) bool {
	min := models.UrgencyRank(o.minUrgency)
	if models.UrgencyRank(result.Severity) >= min {
		return true
	}
	for _, email := range result.Emails {
		if models.UrgencyRank(email.Urgency) >= min {
			return true
		}
	}
	return false
}

// dedupePolicies drops triggered policies with a section id already seen,
// keeping the first occurrence and the original order.
func dedupePolicies(policies []models.TriggeredPolicy) []models.TriggeredPolicy {
	if len(policies) < 2 {
		return policies
	}
	seen := make(map[string]bool, len(policies))
	out := policies[:0]
	for _, tp := range policies {
		if seen[tp.SectionID] {
			continue
		}
		seen[tp.SectionID] = true
		out = append(out, tp)
	}
	return out
}
