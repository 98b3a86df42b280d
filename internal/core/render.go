package core

import (
	"fmt"
	"sort"
	"strings"

	"github.com/marceloamor/CareDocQA/pkg/models"
)

// RenderDocuments turns an analysis result into the artifact set the
// consistency manager operates on: one incident report plus one document per
// email draft. Report fields render in template order so two renders of the
// same result are byte-identical.
func RenderDocuments(result *models.IncidentAnalysisResult, fieldOrder []string) models.DocumentSet {
	docs := make(models.DocumentSet, len(result.Emails)+1)
	docs[models.DocTypeIncidentReport] = renderReport(result.Report, fieldOrder)
	for _, email := range result.Emails {
		docs[models.EmailDocumentType(email.RecipientType)] = renderEmail(email)
	}
	return docs
}

func renderReport(report models.IncidentReport, fieldOrder []string) string {
	var b strings.Builder
	b.WriteString("INCIDENT REPORT\n\n")

	seen := make(map[string]bool, len(fieldOrder))
	for _, field := range fieldOrder {
		fmt.Fprintf(&b, "%s: %s\n", field, report[field])
		seen[field] = true
	}

	// Fields outside the template still render, sorted for stability.
	var extras []string
	for field := range report {
		if !seen[field] {
			extras = append(extras, field)
		}
	}
	sort.Strings(extras)
	for _, field := range extras {
		fmt.Fprintf(&b, "%s: %s\n", field, report[field])
	}

	return b.String()
}

func renderEmail(email models.EmailDraft) string {
	var b strings.Builder
	fmt.Fprintf(&b, "To: %s\n", email.RecipientType)
	if len(email.CC) > 0 {
		parts := make([]string, len(email.CC))
		for i, cc := range email.CC {
			parts[i] = string(cc)
		}
		fmt.Fprintf(&b, "Cc: %s\n", strings.Join(parts, ", "))
	}
	fmt.Fprintf(&b, "Subject: %s\n", email.Subject)
	fmt.Fprintf(&b, "Urgency: %s\n", email.Urgency)
	b.WriteString("\n")
	b.WriteString(email.Body)
	b.WriteString("\n")
	return b.String()
}

// FormatAnalysisMessage renders a human-readable summary of an analysis for
// chat surfaces.
func FormatAnalysisMessage(result *models.IncidentAnalysisResult) string {
	var b strings.Builder
	b.WriteString("**Incident Analysis Complete**\n\n")
	fmt.Fprintf(&b, "**Summary:** %s\n\n", result.Summary)
	fmt.Fprintf(&b, "**Severity:** %s\n\n", strings.ToUpper(string(result.Severity)))

	if len(result.TriggeredPolicies) > 0 {
		b.WriteString("**Triggered Policies:**\n")
		for _, tp := range result.TriggeredPolicies {
			fmt.Fprintf(&b, "- Section %s (%s): %s\n", tp.SectionID, tp.Section, tp.Reason)
		}
		b.WriteString("\n")
	}

	if len(result.RequiredActions) > 0 {
		b.WriteString("**Required Actions:**\n")
		for _, action := range result.RequiredActions {
			fmt.Fprintf(&b, "- %s\n", action)
		}
		b.WriteString("\n")
	}

	if len(result.Emails) > 0 {
		fmt.Fprintf(&b, "**Notification Emails Drafted:** %d\n", len(result.Emails))
		for _, email := range result.Emails {
			fmt.Fprintf(&b, "- %s (%s): %s\n", email.RecipientType, email.Urgency, email.Subject)
		}
	}

	return strings.TrimRight(b.String(), "\n")
}
