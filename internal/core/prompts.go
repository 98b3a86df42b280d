package core

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/marceloamor/CareDocQA/pkg/models"
)

// Prompt kinds, used for cost attribution in the event log.
const (
	PromptTranscriptAnalysis = "transcript_analysis"
	PromptPolicyQuestion     = "policy_question"
	PromptContextualFollowup = "contextual_followup"
	PromptDocumentUpdate     = "document_update"
)

const analysisSystemPrompt = `You are a professional social care incident analysis AI. ` +
	`Provide accurate, policy-compliant responses in valid JSON format.`

const questionSystemPrompt = `You are a knowledgeable social care policy advisor. ` +
	`Provide clear, accurate answers with policy section references.`

const updateSystemPrompt = `You are an AI assistant helping maintain consistency ` +
	`across incident response documents. Respond in valid JSON format.`

// analysisSchemaName and friends name the contracts in corrective retries.
const (
	analysisSchemaName = "incident analysis"
	updateSchemaName   = "document update"
)

func buildAnalysisMessages(policies string, reportFields []string, transcript string) []Message {
	var b strings.Builder
	b.WriteString("You are analysing a social care incident call.\n\n")
	b.WriteString("POLICIES AND PROCEDURES:\n")
	b.WriteString(policies)
	b.WriteString("\n\nINCIDENT TRANSCRIPT:\n")
	b.WriteString(transcript)
	b.WriteString("\n\nINCIDENT REPORT FORM FIELDS:\n")
	b.WriteString(strings.Join(reportFields, ", "))
	b.WriteString("\n\nAnalyse this transcript against the policies and respond with a single JSON object:\n\n")
	b.WriteString(`{
  "analysis": {
    "summary": "Brief summary of what happened",
    "triggered_policies": [
      {
        "section_id": "Section number, e.g. 4.3",
        "section": "Section name",
        "reason": "Why this section is triggered",
        "requirements": ["Required actions from this section"]
      }
    ],
    "severity": "low|medium|high|critical",
    "required_actions": ["Overall list of all required actions"]
  },
  "incident_report": {"<every form field above>": "value from the transcript"},
  "emails": [
    {
      "recipient_type": "supervisor|family|risk_assessor|gp|manager",
      "subject": "Email subject line",
      "body": "Professional email content",
      "urgency": "low|medium|high|critical",
      "cc": ["recipient types to copy in"]
    }
  ]
}`)
	b.WriteString("\n\nEvery incident report form field must be populated with a non-empty string. ")
	b.WriteString("Base the response strictly on the policies provided and the incident details in the transcript. ")
	b.WriteString("Return only the JSON object, with no surrounding prose or code fences.")

	return []Message{
		{Role: "system", Content: analysisSystemPrompt},
		{Role: "user", Content: b.String()},
	}
}

func buildQuestionMessages(policies, question string) []Message {
	user := fmt.Sprintf(`POLICIES AND PROCEDURES:
%s

USER QUESTION: %s

Provide a helpful, accurate answer based on the policies above. Include specific section references where relevant.`, policies, question)

	return []Message{
		{Role: "system", Content: questionSystemPrompt},
		{Role: "user", Content: user},
	}
}

func buildFollowupMessages(policies, question string, session models.SessionContext) []Message {
	user := fmt.Sprintf(`POLICIES AND PROCEDURES:
%s

ACTIVE INCIDENT SUMMARY:
%s

ORIGINAL CALL TRANSCRIPT:
%s

FOLLOW-UP QUESTION: %s

The question refers to the active incident above. Answer it using the incident details and the policies, with section references where relevant.`,
		policies, session.IncidentSummary, session.OriginalTranscript, question)

	return []Message{
		{Role: "system", Content: questionSystemPrompt},
		{Role: "user", Content: user},
	}
}

func buildUpdateMessages(feedback, documentType, current string, all models.DocumentSet) []Message {
	allJSON, err := json.MarshalIndent(all, "", "  ")
	if err != nil {
		allJSON = []byte("{}")
	}

	user := fmt.Sprintf(`You are updating incident response documents based on user feedback.

CURRENT %s:
%s

ALL CURRENT DOCUMENTS:
%s

USER FEEDBACK: %s

Update the specified document based on the feedback, then decide whether the change requires updates to any other document for consistency. Respond with a single JSON object:

{
  "updated_document": "The full updated %s content",
  "requires_cross_updates": true,
  "cross_updates": [
    {
      "document_type": "a key from ALL CURRENT DOCUMENTS",
      "updated_content": "the full new content",
      "reason": "why this update is needed"
    }
  ],
  "explanation": "Brief explanation of changes made",
  "no_change_requested": false
}

Set requires_cross_updates to false and cross_updates to [] when no other document is affected. Set no_change_requested to true only when the feedback explicitly asks for no change. Return only the JSON object, with no surrounding prose or code fences.`,
		strings.ToUpper(documentType), current, allJSON, feedback, documentType)

	return []Message{
		{Role: "system", Content: updateSystemPrompt},
		{Role: "user", Content: user},
	}
}

// correctiveInstruction is appended after a malformed reply so the retry
// returns parseable output.
func correctiveInstruction(schemaName string) string {
	return fmt.Sprintf("The previous output was not valid JSON matching the %s schema. "+
		"Return only a single JSON object conforming to that schema, with no surrounding prose or code fences.", schemaName)
}
