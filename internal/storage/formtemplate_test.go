package storage

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/marceloamor/CareDocQA/pkg/models"
)

func writeFormFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "incident_form.csv")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadFormTemplate(t *testing.T) {
	path := writeFormFile(t, "Field,Description\nDate,When it happened\nService User,Who was involved\nDescription,What happened\n")

	tmpl, err := LoadFormTemplate(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []string{"Date", "Service User", "Description"}
	if !reflect.DeepEqual(tmpl.Fields(), want) {
		t.Errorf("fields = %v, want %v", tmpl.Fields(), want)
	}
}

func TestLoadFormTemplate_SkipsBlankAndDuplicateRows(t *testing.T) {
	path := writeFormFile(t, "Field\nDate\n\nDate\nDescription\n")

	tmpl, err := LoadFormTemplate(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []string{"Date", "Description"}
	if !reflect.DeepEqual(tmpl.Fields(), want) {
		t.Errorf("fields = %v, want %v", tmpl.Fields(), want)
	}
}

func TestLoadFormTemplate_Errors(t *testing.T) {
	if _, err := LoadFormTemplate(filepath.Join(t.TempDir(), "missing.csv")); err == nil {
		t.Error("missing file should fail")
	}
	if _, err := LoadFormTemplate(writeFormFile(t, "Name,Description\nDate,x\n")); err == nil {
		t.Error("missing Field column should fail")
	}
	if _, err := LoadFormTemplate(writeFormFile(t, "Field\n")); err == nil {
		t.Error("header-only file should fail")
	}
}

func TestMissingFields(t *testing.T) {
	tmpl, err := NewFormTemplate([]string{"Date", "Service User", "Description"})
	if err != nil {
		t.Fatal(err)
	}

	report := models.IncidentReport{"Date": "2026-08-30", "Description": "  "}
	missing := tmpl.MissingFields(report)
	want := []string{"Service User", "Description"}
	if !reflect.DeepEqual(missing, want) {
		t.Errorf("missing = %v, want %v", missing, want)
	}

	full := models.IncidentReport{"Date": "x", "Service User": "y", "Description": "z"}
	if got := tmpl.MissingFields(full); len(got) != 0 {
		t.Errorf("complete report should have no missing fields, got %v", got)
	}
}
