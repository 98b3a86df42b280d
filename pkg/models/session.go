package models

import "time"

// SessionContext is the per-conversation memory of the most recent incident
// analysis. It is created empty, populated wholesale on a successful
// analysis, and reset by an explicit clear. Follow-up Q&A reads it but never
// writes it.
type SessionContext struct {
	SessionID          string                  `yaml:"session_id" json:"session_id"`
	HasActiveIncident  bool                    `yaml:"has_active_incident" json:"has_active_incident"`
	LastAnalysis       *IncidentAnalysisResult `yaml:"last_analysis,omitempty" json:"last_analysis,omitempty"`
	IncidentSummary    string                  `yaml:"incident_summary,omitempty" json:"incident_summary,omitempty"`
	OriginalTranscript string                  `yaml:"original_transcript,omitempty" json:"original_transcript,omitempty"`
	Artifacts          DocumentSet             `yaml:"artifacts,omitempty" json:"artifacts,omitempty"`
	UpdatedAt          time.Time               `yaml:"updated_at" json:"updated_at"`
}

// Clone returns a deep copy so callers can never mutate stored state through
// a returned context.
func (s SessionContext) Clone() SessionContext {
	cp := s
	cp.LastAnalysis = s.LastAnalysis.Clone()
	cp.Artifacts = s.Artifacts.Clone()
	return cp
}
