package core

import (
	"context"
	"testing"

	"github.com/marceloamor/CareDocQA/internal/storage"
	"github.com/marceloamor/CareDocQA/pkg/models"
)

func testDocs() models.DocumentSet {
	return models.DocumentSet{
		"incident_report":  "INCIDENT REPORT\n\nDate: 2026-08-30\n",
		"email_supervisor": "To: supervisor\nSubject: Fall\n\nA fall occurred.\n",
		"email_family":     "To: family\nSubject: Update\n\nYour mother had a fall.\n",
	}
}

func scriptedUpdate(result *models.UpdateResult) *fakeAdapter {
	return &fakeAdapter{
		updateFn: func(feedback, documentType, current string, all models.DocumentSet) (*models.UpdateResult, models.Usage, error) {
			return result, models.Usage{TokensUsed: 400, CostUSD: 0.0006}, nil
		},
	}
}

func newTestConsistency(adapter AnalysisAdapter) ConsistencyManager {
	return NewConsistencyManager(adapter, storage.NewSessionContextManager(), nil)
}

func TestUpdateDocument_InputValidation(t *testing.T) {
	mgr := newTestConsistency(&fakeAdapter{})
	docs := testDocs()

	if _, _, err := mgr.UpdateDocument(context.Background(), "", "incident_report", "fix it", docs); !IsValidationError(err) {
		t.Errorf("empty session should be a validation error, got %v", err)
	}
	if _, _, err := mgr.UpdateDocument(context.Background(), "s1", "incident_report", "  ", docs); !IsValidationError(err) {
		t.Errorf("blank feedback should be a validation error, got %v", err)
	}
	if _, _, err := mgr.UpdateDocument(context.Background(), "s1", "email_gp", "fix it", docs); !IsValidationError(err) {
		t.Errorf("unknown document type should be a validation error, got %v", err)
	}
}

func TestUpdateDocument_PrimaryOnlyChange(t *testing.T) {
	docs := testDocs()
	mgr := newTestConsistency(scriptedUpdate(&models.UpdateResult{
		UpdatedDocument: "INCIDENT REPORT\n\nDate: 2026-08-29\n",
		Explanation:     "corrected the date",
	}))

	result, usage, err := mgr.UpdateDocument(context.Background(), "s1", "incident_report", "the date is wrong", docs)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if usage.TokensUsed != 400 {
		t.Errorf("expected usage to flow through, got %d tokens", usage.TokensUsed)
	}

	if result.Documents["incident_report"] != "INCIDENT REPORT\n\nDate: 2026-08-29\n" {
		t.Error("primary document should carry the update")
	}
	// Untouched documents are byte-identical to the input set.
	if result.Documents["email_supervisor"] != docs["email_supervisor"] {
		t.Error("email_supervisor must be byte-identical")
	}
	if result.Documents["email_family"] != docs["email_family"] {
		t.Error("email_family must be byte-identical")
	}
	if len(result.Documents) != len(docs) {
		t.Errorf("document set must keep the same keys, got %d", len(result.Documents))
	}
}

func TestUpdateDocument_CrossUpdatesApplied(t *testing.T) {
	docs := testDocs()
	mgr := newTestConsistency(scriptedUpdate(&models.UpdateResult{
		UpdatedDocument:      "INCIDENT REPORT\n\nDate: 2026-08-29\n",
		RequiresCrossUpdates: true,
		CrossUpdates: []models.CrossUpdate{
			{DocumentType: "email_supervisor", UpdatedContent: "To: supervisor\nSubject: Fall\n\nCorrected date.\n", Reason: "date changed"},
		},
		Explanation: "corrected the date everywhere",
	}))

	result, _, err := mgr.UpdateDocument(context.Background(), "s1", "incident_report", "fix the date", docs)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Documents["email_supervisor"] != "To: supervisor\nSubject: Fall\n\nCorrected date.\n" {
		t.Error("declared cross-update should be applied")
	}
	if result.Documents["email_family"] != docs["email_family"] {
		t.Error("undeclared document must stay byte-identical")
	}
}

func TestUpdateDocument_NoOpRejectedUnlessDeclared(t *testing.T) {
	docs := testDocs()
	mgr := newTestConsistency(scriptedUpdate(&models.UpdateResult{
		UpdatedDocument: docs["incident_report"],
		Explanation:     "nothing changed",
	}))

	_, _, err := mgr.UpdateDocument(context.Background(), "s1", "incident_report", "make it better", docs)
	if !IsValidationError(err) {
		t.Fatalf("undeclared no-op should be a validation error, got %v", err)
	}
}

func TestUpdateDocument_ExplicitNoChangePasses(t *testing.T) {
	docs := testDocs()
	mgr := newTestConsistency(scriptedUpdate(&models.UpdateResult{
		NoChangeRequested: true,
		Explanation:       "the feedback asked for no change",
	}))

	result, _, err := mgr.UpdateDocument(context.Background(), "s1", "incident_report", "leave it as is", docs)
	if err != nil {
		t.Fatalf("declared no-change should pass: %v", err)
	}
	for k, v := range docs {
		if result.Documents[k] != v {
			t.Errorf("no-change result must keep %s identical", k)
		}
	}
}

func TestUpdateDocument_ScopeViolations(t *testing.T) {
	docs := testDocs()
	changed := "INCIDENT REPORT\n\nDate: 2026-08-29\n"

	tests := []struct {
		name    string
		result  *models.UpdateResult
		check   func(error) bool
		checked string
	}{
		{
			"declared cross-updates but none listed",
			&models.UpdateResult{UpdatedDocument: changed, RequiresCrossUpdates: true},
			IsSchemaError, "SchemaError",
		},
		{
			"cross-updates listed without declaration",
			&models.UpdateResult{
				UpdatedDocument: changed,
				CrossUpdates:    []models.CrossUpdate{{DocumentType: "email_family", UpdatedContent: "new"}},
			},
			IsConsistencyViolation, "ConsistencyViolation",
		},
		{
			"cross-update targets unknown document",
			&models.UpdateResult{
				UpdatedDocument:      changed,
				RequiresCrossUpdates: true,
				CrossUpdates:         []models.CrossUpdate{{DocumentType: "email_gp", UpdatedContent: "new"}},
			},
			IsSchemaError, "SchemaError",
		},
		{
			"cross-update targets the primary document",
			&models.UpdateResult{
				UpdatedDocument:      changed,
				RequiresCrossUpdates: true,
				CrossUpdates:         []models.CrossUpdate{{DocumentType: "incident_report", UpdatedContent: "other"}},
			},
			IsConsistencyViolation, "ConsistencyViolation",
		},
		{
			"cross-update does not change content",
			&models.UpdateResult{
				UpdatedDocument:      changed,
				RequiresCrossUpdates: true,
				CrossUpdates:         []models.CrossUpdate{{DocumentType: "email_family", UpdatedContent: docs["email_family"]}},
			},
			IsConsistencyViolation, "ConsistencyViolation",
		},
		{
			"duplicate cross-update target",
			&models.UpdateResult{
				UpdatedDocument:      changed,
				RequiresCrossUpdates: true,
				CrossUpdates: []models.CrossUpdate{
					{DocumentType: "email_family", UpdatedContent: "one"},
					{DocumentType: "email_family", UpdatedContent: "two"},
				},
			},
			IsSchemaError, "SchemaError",
		},
		{
			"no-change with cross-updates",
			&models.UpdateResult{
				NoChangeRequested: true,
				CrossUpdates:      []models.CrossUpdate{{DocumentType: "email_family", UpdatedContent: "new"}},
			},
			IsSchemaError, "SchemaError",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mgr := newTestConsistency(scriptedUpdate(tt.result))
			_, _, err := mgr.UpdateDocument(context.Background(), "s1", "incident_report", "fix it", docs)
			if !tt.check(err) {
				t.Errorf("expected %s, got %v", tt.checked, err)
			}
		})
	}
}

func TestUpdateDocument_DoesNotCommitToSession(t *testing.T) {
	store := storage.NewSessionContextManager()
	store.RecordAnalysis("s1", *sampleAnalysis(), "transcript", testDocs())
	mgr := NewConsistencyManager(scriptedUpdate(&models.UpdateResult{
		UpdatedDocument: "changed content",
	}), store, nil)

	docs := store.Get("s1").Artifacts
	if _, _, err := mgr.UpdateDocument(context.Background(), "s1", "incident_report", "fix it", docs); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	after := store.Get("s1")
	if after.Artifacts["incident_report"] == "changed content" {
		t.Error("update result is a preview; session artifacts must be unchanged")
	}
}
