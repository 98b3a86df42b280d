package core

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/marceloamor/CareDocQA/pkg/models"
)

// schemaRetryLimit is the number of corrective retries after a malformed
// structured reply; transport failures get one immediate retry instead,
// because external calls are costed.
const schemaRetryLimit = 2

// Message is a single chat message sent to the analysis capability.
type Message struct {
	Role    string
	Content string
}

// CapabilityResult is the raw outcome of one capability call.
type CapabilityResult struct {
	Content    string
	Model      string
	TokensUsed int
}

// CapabilityClient is the narrow interface the adapter needs from the
// external text-generation capability.
type CapabilityClient interface {
	Generate(ctx context.Context, messages []Message) (*CapabilityResult, error)
}

// Pricer turns a model identifier and token count into a dollar cost.
type Pricer interface {
	CostFor(model string, tokens int) float64
}

// CostRecorder receives the usage of every successful capability call.
type CostRecorder interface {
	Record(usage models.Usage)
}

// CallObserver is notified of every successful capability call, for the
// event log. May be nil.
type CallObserver interface {
	ObserveCall(promptKind string, usage models.Usage)
}

// AnalysisAdapter wraps the capability with the strict output-schema
// contract, bounded retries, and cost accounting.
type AnalysisAdapter interface {
	AnalyzeTranscript(ctx context.Context, transcript string) (*models.IncidentAnalysisResult, models.Usage, error)
	AnswerQuestion(ctx context.Context, question string, session models.SessionContext) (string, models.Usage, error)
	UpdateDocument(ctx context.Context, feedback, documentType, current string, all models.DocumentSet) (*models.UpdateResult, models.Usage, error)
}

type analysisAdapter struct {
	client       CapabilityClient
	pricer       Pricer
	meter        CostRecorder
	observer     CallObserver
	corpusText   string
	reportFields []string
}

// NewAnalysisAdapter creates the capability adapter. corpusText and
// reportFields are fixed at startup alongside the policy corpus. observer
// may be nil.
func NewAnalysisAdapter(client CapabilityClient, pricer Pricer, meter CostRecorder, observer CallObserver, corpusText string, reportFields []string) AnalysisAdapter {
	return &analysisAdapter{
		client:       client,
		pricer:       pricer,
		meter:        meter,
		observer:     observer,
		corpusText:   corpusText,
		reportFields: reportFields,
	}
}

// generate performs one costed capability call with a single immediate retry
// on transport failure. Usage is recorded for every successful call: the
// tokens are spent whether or not the content later validates.
func (a *analysisAdapter) generate(ctx context.Context, promptKind string, messages []Message) (*CapabilityResult, models.Usage, error) {
	res, err := a.client.Generate(ctx, messages)
	if err != nil && ctx.Err() == nil {
		res, err = a.client.Generate(ctx, messages)
	}
	if err != nil {
		return nil, models.Usage{}, NewCapabilityError(err, "calling analysis capability for %s", promptKind)
	}

	usage := models.Usage{
		Model:      res.Model,
		TokensUsed: res.TokensUsed,
		CostUSD:    a.pricer.CostFor(res.Model, res.TokensUsed),
	}
	a.meter.Record(usage)
	if a.observer != nil {
		a.observer.ObserveCall(promptKind, usage)
	}
	return res, usage, nil
}

// generateStructured calls the capability and decodes its reply, retrying
// with a corrective instruction when the reply does not satisfy decode.
func (a *analysisAdapter) generateStructured(ctx context.Context, promptKind, schemaName string, messages []Message, decode func([]byte) error) (models.Usage, error) {
	var total models.Usage
	msgs := messages
	var lastErr error

	for attempt := 0; attempt <= schemaRetryLimit; attempt++ {
		res, usage, err := a.generate(ctx, promptKind, msgs)
		total.Add(usage)
		if err != nil {
			return total, err
		}

		raw := extractJSON(res.Content)
		if lastErr = decode([]byte(raw)); lastErr == nil {
			return total, nil
		}

		msgs = append(append([]Message(nil), messages...),
			Message{Role: "assistant", Content: res.Content},
			Message{Role: "user", Content: correctiveInstruction(schemaName)},
		)
	}

	return total, NewSchemaError("capability output did not match the %s schema after %d attempts: %v",
		schemaName, schemaRetryLimit+1, lastErr)
}

// --- Wire format ---

type triggeredPolicyWire struct {
	SectionID    string   `json:"section_id"`
	Section      string   `json:"section"`
	Reason       string   `json:"reason"`
	Requirements []string `json:"requirements"`
}

type emailWire struct {
	RecipientType string   `json:"recipient_type"`
	Subject       string   `json:"subject"`
	Body          string   `json:"body"`
	Urgency       string   `json:"urgency"`
	CC            []string `json:"cc"`
}

type analysisWire struct {
	Analysis struct {
		Summary           string                `json:"summary"`
		TriggeredPolicies []triggeredPolicyWire `json:"triggered_policies"`
		Severity          string                `json:"severity"`
		RequiredActions   []string              `json:"required_actions"`
	} `json:"analysis"`
	IncidentReport map[string]string `json:"incident_report"`
	Emails         []emailWire       `json:"emails"`
}

type updateWire struct {
	UpdatedDocument      string               `json:"updated_document"`
	RequiresCrossUpdates bool                 `json:"requires_cross_updates"`
	CrossUpdates         []models.CrossUpdate `json:"cross_updates"`
	Explanation          string               `json:"explanation"`
	NoChangeRequested    bool                 `json:"no_change_requested"`
}

// AnalyzeTranscript turns a transcript into a validated analysis result.
// A report missing any required field counts as a schema failure and drives
// a corrective retry before surfacing as SchemaError.
func (a *analysisAdapter) AnalyzeTranscript(ctx context.Context, transcript string) (*models.IncidentAnalysisResult, models.Usage, error) {
	messages := buildAnalysisMessages(a.corpusText, a.reportFields, transcript)

	var wire analysisWire
	usage, err := a.generateStructured(ctx, PromptTranscriptAnalysis, analysisSchemaName, messages, func(raw []byte) error {
		wire = analysisWire{}
		if err := json.Unmarshal(raw, &wire); err != nil {
			return err
		}
		return validateAnalysisWire(&wire, a.reportFields)
	})
	if err != nil {
		return nil, usage, err
	}

	return analysisFromWire(&wire), usage, nil
}

// AnswerQuestion returns a plain-text answer grounded in the policy corpus
// and, when an incident is active, the session's incident context.
func (a *analysisAdapter) AnswerQuestion(ctx context.Context, question string, session models.SessionContext) (string, models.Usage, error) {
	var messages []Message
	promptKind := PromptPolicyQuestion
	if session.HasActiveIncident {
		promptKind = PromptContextualFollowup
		messages = buildFollowupMessages(a.corpusText, question, session)
	} else {
		messages = buildQuestionMessages(a.corpusText, question)
	}

	res, usage, err := a.generate(ctx, promptKind, messages)
	if err != nil {
		return "", usage, err
	}
	if strings.TrimSpace(res.Content) == "" {
		return "", usage, NewSchemaError("capability returned an empty answer")
	}
	return res.Content, usage, nil
}

// UpdateDocument applies feedback to one document and reports any required
// cross-updates. Semantic invariants (no-op detection, cross-update targets)
// are enforced by the consistency manager.
func (a *analysisAdapter) UpdateDocument(ctx context.Context, feedback, documentType, current string, all models.DocumentSet) (*models.UpdateResult, models.Usage, error) {
	messages := buildUpdateMessages(feedback, documentType, current, all)

	var wire updateWire
	usage, err := a.generateStructured(ctx, PromptDocumentUpdate, updateSchemaName, messages, func(raw []byte) error {
		wire = updateWire{}
		if err := json.Unmarshal(raw, &wire); err != nil {
			return err
		}
		if strings.TrimSpace(wire.UpdatedDocument) == "" && !wire.NoChangeRequested {
			return fmt.Errorf("updated_document is empty")
		}
		return nil
	})
	if err != nil {
		return nil, usage, err
	}

	return &models.UpdateResult{
		UpdatedDocument:      wire.UpdatedDocument,
		RequiresCrossUpdates: wire.RequiresCrossUpdates,
		CrossUpdates:         wire.CrossUpdates,
		Explanation:          wire.Explanation,
		NoChangeRequested:    wire.NoChangeRequested,
	}, usage, nil
}

// --- Validation and conversion ---

func validateAnalysisWire(wire *analysisWire, reportFields []string) error {
	if strings.TrimSpace(wire.Analysis.Summary) == "" {
		return fmt.Errorf("analysis.summary is empty")
	}

	var missing []string
	for _, field := range reportFields {
		if strings.TrimSpace(wire.IncidentReport[field]) == "" {
			missing = append(missing, field)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("incident_report is missing required fields: %s", strings.Join(missing, ", "))
	}

	for i, tp := range wire.Analysis.TriggeredPolicies {
		if strings.TrimSpace(tp.SectionID) == "" {
			return fmt.Errorf("triggered_policies[%d] has no section_id", i)
		}
	}

	for i, e := range wire.Emails {
		if strings.TrimSpace(e.RecipientType) == "" {
			return fmt.Errorf("emails[%d] has no recipient_type", i)
		}
	}

	return nil
}

func analysisFromWire(wire *analysisWire) *models.IncidentAnalysisResult {
	result := &models.IncidentAnalysisResult{
		Summary:         wire.Analysis.Summary,
		Severity:        normalizeUrgency(wire.Analysis.Severity),
		RequiredActions: wire.Analysis.RequiredActions,
		Report:          models.IncidentReport(wire.IncidentReport).Clone(),
	}

	for _, tp := range wire.Analysis.TriggeredPolicies {
		result.TriggeredPolicies = append(result.TriggeredPolicies, models.TriggeredPolicy{
			SectionID:    tp.SectionID,
			Section:      tp.Section,
			Reason:       tp.Reason,
			Requirements: tp.Requirements,
		})
	}

	for _, e := range wire.Emails {
		email := models.EmailDraft{
			RecipientType: models.RecipientType(strings.ToLower(strings.TrimSpace(e.RecipientType))),
			Subject:       e.Subject,
			Body:          e.Body,
			Urgency:       normalizeUrgency(e.Urgency),
		}
		for _, cc := range e.CC {
			email.CC = append(email.CC, models.RecipientType(strings.ToLower(strings.TrimSpace(cc))))
		}
		result.Emails = append(result.Emails, email)
	}

	return result
}

func normalizeUrgency(s string) models.Urgency {
	u := models.Urgency(strings.ToLower(strings.TrimSpace(s)))
	if models.UrgencyRank(u) == 0 {
		return models.UrgencyMedium
	}
	return u
}

// extractJSON strips markdown code fences and surrounding prose, returning
// the outermost JSON object in the reply.
func extractJSON(content string) string {
	s := strings.TrimSpace(content)

	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		if i := strings.LastIndex(s, "```"); i >= 0 {
			s = s[:i]
		}
		s = strings.TrimSpace(s)
	}

	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start >= 0 && end > start {
		return s[start : end+1]
	}
	return s
}
