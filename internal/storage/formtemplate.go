package storage

import (
	"encoding/csv"
	"fmt"
	"os"
	"strings"

	"github.com/marceloamor/CareDocQA/pkg/models"
)

// FormTemplate defines the fixed, ordered field set of the incident report.
// The field names are invariant across incidents; a report missing any of
// them is invalid.
type FormTemplate struct {
	fields []string
}

// LoadFormTemplate reads the incident report form CSV. The file must have a
// header row containing a "Field" column; each subsequent row names one
// required report field, in form order.
func LoadFormTemplate(path string) (*FormTemplate, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening form template %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parsing form template %s: %w", path, err)
	}
	if len(rows) < 2 {
		return nil, fmt.Errorf("form template %s has no field rows", path)
	}

	fieldCol := -1
	for i, name := range rows[0] {
		if strings.EqualFold(strings.TrimSpace(name), "Field") {
			fieldCol = i
			break
		}
	}
	if fieldCol == -1 {
		return nil, fmt.Errorf("form template %s has no Field column", path)
	}

	var fields []string
	seen := make(map[string]bool)
	for _, row := range rows[1:] {
		if fieldCol >= len(row) {
			continue
		}
		name := strings.TrimSpace(row[fieldCol])
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		fields = append(fields, name)
	}
	if len(fields) == 0 {
		return nil, fmt.Errorf("form template %s defines no fields", path)
	}

	return &FormTemplate{fields: fields}, nil
}

// NewFormTemplate builds a template directly from an ordered field list.
func NewFormTemplate(fields []string) (*FormTemplate, error) {
	if len(fields) == 0 {
		return nil, fmt.Errorf("form template defines no fields")
	}
	return &FormTemplate{fields: append([]string(nil), fields...)}, nil
}

// Fields returns the required field names in form order.
func (t *FormTemplate) Fields() []string {
	return append([]string(nil), t.fields...)
}

// MissingFields returns the required fields that are absent or empty in the
// given report, in form order.
func (t *FormTemplate) MissingFields(report models.IncidentReport) []string {
	var missing []string
	for _, name := range t.fields {
		if strings.TrimSpace(report[name]) == "" {
			missing = append(missing, name)
		}
	}
	return missing
}
