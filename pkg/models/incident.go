package models

import "fmt"

// RecipientType identifies the role an email draft is addressed to.
type RecipientType string

const (
	RecipientSupervisor   RecipientType = "supervisor"
	RecipientFamily       RecipientType = "family"
	RecipientRiskAssessor RecipientType = "risk_assessor"
	RecipientGP           RecipientType = "gp"
	RecipientManager      RecipientType = "manager"
)

// Urgency grades how quickly a notification or incident must be acted on.
// The same scale is used for incident severity.
type Urgency string

const (
	UrgencyLow      Urgency = "low"
	UrgencyMedium   Urgency = "medium"
	UrgencyHigh     Urgency = "high"
	UrgencyCritical Urgency = "critical"
)

// UrgencyRank returns a comparable ordering for urgency levels, with low at 0.
// Unknown values rank below low.
func UrgencyRank(u Urgency) int {
	switch u {
	case UrgencyLow:
		return 1
	case UrgencyMedium:
		return 2
	case UrgencyHigh:
		return 3
	case UrgencyCritical:
		return 4
	default:
		return 0
	}
}

// TriggeredPolicy records a policy section the analysis determined is
// relevant to a transcript, with the stated reason and the actions the
// section requires.
type TriggeredPolicy struct {
	SectionID    string   `yaml:"section_id" json:"section_id"`
	Section      string   `yaml:"section" json:"section"`
	Reason       string   `yaml:"reason" json:"reason"`
	Requirements []string `yaml:"requirements,omitempty" json:"requirements,omitempty"`
}

// IncidentReport is the fixed-schema structured record for an incident.
// The set and order of field names is owned by the report form template;
// a report is invalid if any required field is missing or empty.
type IncidentReport map[string]string

// Clone returns a deep copy of the report.
func (r IncidentReport) Clone() IncidentReport {
	if r == nil {
		return nil
	}
	cp := make(IncidentReport, len(r))
	for k, v := range r {
		cp[k] = v
	}
	return cp
}

// EmailDraft is a generated notification document targeted at a recipient role.
type EmailDraft struct {
	RecipientType RecipientType   `yaml:"recipient_type" json:"recipient_type"`
	Subject       string          `yaml:"subject" json:"subject"`
	Body          string          `yaml:"body" json:"body"`
	Urgency       Urgency         `yaml:"urgency" json:"urgency"`
	CC            []RecipientType `yaml:"cc,omitempty" json:"cc,omitempty"`
}

// IncidentAnalysisResult is the atomic unit produced by transcript analysis
// and persisted in session context. It is replaced wholesale, never merged.
type IncidentAnalysisResult struct {
	Summary           string            `yaml:"summary" json:"summary"`
	Severity          Urgency           `yaml:"severity" json:"severity"`
	TriggeredPolicies []TriggeredPolicy `yaml:"triggered_policies" json:"triggered_policies"`
	RequiredActions   []string          `yaml:"required_actions" json:"required_actions"`
	Report            IncidentReport    `yaml:"incident_report" json:"incident_report"`
	Emails            []EmailDraft      `yaml:"emails" json:"emails"`
}

// Clone returns a deep copy of the analysis result.
func (r *IncidentAnalysisResult) Clone() *IncidentAnalysisResult {
	if r == nil {
		return nil
	}
	cp := *r
	cp.TriggeredPolicies = append([]TriggeredPolicy(nil), r.TriggeredPolicies...)
	for i, tp := range cp.TriggeredPolicies {
		cp.TriggeredPolicies[i].Requirements = append([]string(nil), tp.Requirements...)
	}
	cp.RequiredActions = append([]string(nil), r.RequiredActions...)
	cp.Report = r.Report.Clone()
	cp.Emails = append([]EmailDraft(nil), r.Emails...)
	for i, e := range cp.Emails {
		cp.Emails[i].CC = append([]RecipientType(nil), e.CC...)
	}
	return &cp
}

// DocTypeIncidentReport is the document type key for the rendered incident
// report in a DocumentSet.
const DocTypeIncidentReport = "incident_report"

// EmailDocumentType returns the DocumentSet key for an email draft addressed
// to the given recipient, e.g. "email_supervisor".
func EmailDocumentType(recipient RecipientType) string {
	return fmt.Sprintf("email_%s", recipient)
}

// DocumentSet is the rendered artifact set for an incident, keyed by document
// type. It is the unit the consistency manager operates on.
type DocumentSet map[string]string

// Clone returns a deep copy of the document set.
func (d DocumentSet) Clone() DocumentSet {
	if d == nil {
		return nil
	}
	cp := make(DocumentSet, len(d))
	for k, v := range d {
		cp[k] = v
	}
	return cp
}

// CrossUpdate is a change to an artifact other than the one directly targeted
// by user feedback, required to preserve cross-document consistency.
type CrossUpdate struct {
	DocumentType   string `yaml:"document_type" json:"document_type"`
	UpdatedContent string `yaml:"updated_content" json:"updated_content"`
	Reason         string `yaml:"reason" json:"reason"`
}

// UpdateResult is the outcome of applying feedback to one document.
// Documents holds the fully assembled proposed artifact set: the primary
// document and named cross-updates replaced, everything else byte-identical
// to the input set. Nothing is committed until the caller decides to.
type UpdateResult struct {
	UpdatedDocument      string        `yaml:"updated_document" json:"updated_document"`
	RequiresCrossUpdates bool          `yaml:"requires_cross_updates" json:"requires_cross_updates"`
	CrossUpdates         []CrossUpdate `yaml:"cross_updates,omitempty" json:"cross_updates,omitempty"`
	Explanation          string        `yaml:"explanation" json:"explanation"`
	NoChangeRequested    bool          `yaml:"no_change_requested,omitempty" json:"no_change_requested,omitempty"`
	Documents            DocumentSet   `yaml:"documents" json:"documents"`
}

// ReplyType classifies how a chat message was handled.
type ReplyType string

const (
	ReplyTranscriptAnalysis ReplyType = "transcript_analysis"
	ReplyPolicyQuestion     ReplyType = "policy_question"
	ReplyContextualFollowup ReplyType = "contextual_followup"
)

// ChatReply is the engine's answer to a chat message. Analysis is populated
// only when the message was routed to transcript analysis.
type ChatReply struct {
	Type     ReplyType               `yaml:"type" json:"type"`
	Message  string                  `yaml:"message" json:"message"`
	Analysis *IncidentAnalysisResult `yaml:"analysis,omitempty" json:"analysis,omitempty"`
	Usage    Usage                   `yaml:"usage" json:"usage"`
}
