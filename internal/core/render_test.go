package core

import (
	"strings"
	"testing"

	"github.com/marceloamor/CareDocQA/pkg/models"
	"pgregory.net/rapid"
)

func TestRenderDocuments_ReportFollowsFieldOrder(t *testing.T) {
	result := sampleAnalysis()
	docs := RenderDocuments(result, testReportFields)

	report := docs[models.DocTypeIncidentReport]
	dateIdx := strings.Index(report, "Date:")
	userIdx := strings.Index(report, "Service User:")
	descIdx := strings.Index(report, "Description:")
	if dateIdx == -1 || userIdx == -1 || descIdx == -1 {
		t.Fatalf("report missing fields:\n%s", report)
	}
	if !(dateIdx < userIdx && userIdx < descIdx) {
		t.Errorf("fields out of template order:\n%s", report)
	}
}

func TestRenderDocuments_EmailHeaders(t *testing.T) {
	result := sampleAnalysis()
	result.Emails[0].CC = []models.RecipientType{models.RecipientManager}
	docs := RenderDocuments(result, testReportFields)

	email := docs["email_supervisor"]
	for _, want := range []string{"To: supervisor", "Cc: manager", "Subject: Fall incident", "Urgency: high", "A fall occurred."} {
		if !strings.Contains(email, want) {
			t.Errorf("email missing %q:\n%s", want, email)
		}
	}
}

func TestRenderDocuments_ExtraFieldsStillRender(t *testing.T) {
	result := sampleAnalysis()
	result.Report["Witness"] = "Care worker"
	docs := RenderDocuments(result, testReportFields)

	if !strings.Contains(docs[models.DocTypeIncidentReport], "Witness: Care worker") {
		t.Error("fields outside the template should still render")
	}
}

func TestFormatAnalysisMessage(t *testing.T) {
	msg := FormatAnalysisMessage(sampleAnalysis())
	for _, want := range []string{
		"Service user fell twice this week",
		"HIGH",
		"Section 4.3 (Repeated Falls)",
		"notify supervisor",
		"supervisor (high): Fall incident",
	} {
		if !strings.Contains(msg, want) {
			t.Errorf("message missing %q:\n%s", want, msg)
		}
	}
}

// TestProperty3_RenderingIsDeterministic verifies that rendering the same
// analysis twice yields byte-identical document sets, whatever the report
// contents.
func TestProperty3_RenderingIsDeterministic(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		result := sampleAnalysis()
		extraKeys := rapid.SliceOfN(rapid.StringMatching(`[A-Z][a-z]{1,10}`), 0, 5).Draw(t, "extraKeys")
		for _, k := range extraKeys {
			result.Report[k] = "value"
		}

		first := RenderDocuments(result, testReportFields)
		second := RenderDocuments(result, testReportFields)
		if len(first) != len(second) {
			t.Fatalf("document sets differ in size")
		}
		for k, v := range first {
			if second[k] != v {
				t.Fatalf("document %s not byte-identical across renders", k)
			}
		}
	})
}
