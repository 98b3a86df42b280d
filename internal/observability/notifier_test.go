package observability

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/marceloamor/CareDocQA/pkg/models"
)

func sampleAlert() IncidentAlert {
	return IncidentAlert{
		SessionID:  "s1",
		Summary:    "Service user fell twice this week",
		Severity:   models.UrgencyHigh,
		Policies:   []string{"Section 4.3: Repeated Falls"},
		Recipients: []models.RecipientType{models.RecipientSupervisor, models.RecipientFamily},
	}
}

func TestSlackNotifier_PostsBlocks(t *testing.T) {
	var got slackMessage
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Content-Type") != "application/json" {
			t.Errorf("unexpected content type %q", r.Header.Get("Content-Type"))
		}
		_ = json.NewDecoder(r.Body).Decode(&got)
	}))
	defer srv.Close()

	if err := NewSlackNotifier(srv.URL).Notify(sampleAlert()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(got.Blocks) != 4 {
		t.Fatalf("expected 4 blocks, got %d", len(got.Blocks))
	}
	if got.Blocks[0].Text.Text != "Care Incident Alert" {
		t.Errorf("unexpected header %q", got.Blocks[0].Text.Text)
	}
	if !strings.Contains(got.Blocks[1].Text.Text, "HIGH") || !strings.Contains(got.Blocks[1].Text.Text, "fell twice") {
		t.Errorf("unexpected summary block %q", got.Blocks[1].Text.Text)
	}
	if !strings.Contains(got.Blocks[2].Text.Text, "Section 4.3") {
		t.Errorf("unexpected policies block %q", got.Blocks[2].Text.Text)
	}
	if !strings.Contains(got.Blocks[3].Text.Text, "supervisor, family") {
		t.Errorf("unexpected recipients block %q", got.Blocks[3].Text.Text)
	}
}

func TestSlackNotifier_NonOKStatusIsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	err := NewSlackNotifier(srv.URL).Notify(sampleAlert())
	if err == nil || !strings.Contains(err.Error(), "400") {
		t.Errorf("expected status error, got %v", err)
	}
}

func TestSlackNotifier_UnreachableWebhook(t *testing.T) {
	if err := NewSlackNotifier("http://127.0.0.1:1/webhook").Notify(sampleAlert()); err == nil {
		t.Error("expected error for unreachable webhook")
	}
}
