package cli

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/marceloamor/CareDocQA/internal/observability"
)

// --- parseSinceDuration unit tests ---

func TestParseSinceDuration(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
		errMsg  string
	}{
		{"empty defaults to 7d", "", false, ""},
		{"whitespace defaults to 7d", "  ", false, ""},
		{"valid 7d", "7d", false, ""},
		{"valid 30d", "30d", false, ""},
		{"valid 24h", "24h", false, ""},
		{"valid 1h", "1h", false, ""},
		{"invalid suffix", "abc", true, "unsupported duration format"},
		{"invalid day number", "xd", true, "invalid day duration"},
		{"invalid hour number", "yh", true, "invalid hour duration"},
		{"negative day is still valid", "-5d", false, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parseSinceDuration(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				if tt.errMsg != "" && !strings.Contains(err.Error(), tt.errMsg) {
					t.Errorf("error %q should contain %q", err.Error(), tt.errMsg)
				}
			} else {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
			}
		})
	}
}

// --- costsCmd tests ---

type usageMock struct {
	calcFn func(since time.Time) (*observability.UsageMetrics, error)
}

func (m *usageMock) Calculate(since time.Time) (*observability.UsageMetrics, error) {
	return m.calcFn(since)
}

func TestCostsCmd_NilCalculator(t *testing.T) {
	orig := UsageCalc
	defer func() { UsageCalc = orig }()
	UsageCalc = nil

	err := costsCmd.RunE(costsCmd, []string{})
	if err == nil {
		t.Fatal("expected error when UsageCalc is nil")
	}
	if !strings.Contains(err.Error(), "not initialized") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestCostsCmd_InvalidSinceFormat(t *testing.T) {
	orig := UsageCalc
	origSince := costsSince
	defer func() {
		UsageCalc = orig
		costsSince = origSince
	}()

	UsageCalc = &usageMock{
		calcFn: func(since time.Time) (*observability.UsageMetrics, error) {
			return &observability.UsageMetrics{}, nil
		},
	}

	costsSince = "abc"
	err := costsCmd.RunE(costsCmd, []string{})
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "unsupported duration format") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestCostsCmd_Success_TableFormat(t *testing.T) {
	orig := UsageCalc
	origSince := costsSince
	origJSON := costsJSON
	defer func() {
		UsageCalc = orig
		costsSince = origSince
		costsJSON = origJSON
	}()

	costsSince = "7d"
	costsJSON = false

	var capturedSince time.Time
	UsageCalc = &usageMock{
		calcFn: func(since time.Time) (*observability.UsageMetrics, error) {
			capturedSince = since
			return &observability.UsageMetrics{
				AnalysesCompleted: 3,
				QuestionsAnswered: 5,
				DocumentsUpdated:  2,
				CapabilityCalls:   10,
				CallsByKind:       map[string]int{"transcript_analysis": 3, "policy_question": 5},
				TokensUsed:        9000,
				CostUSD:           0.0135,
				EventCount:        20,
			}, nil
		},
	}

	err := costsCmd.RunE(costsCmd, []string{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	wantSince := time.Now().UTC().AddDate(0, 0, -7)
	if capturedSince.Sub(wantSince) > time.Minute || wantSince.Sub(capturedSince) > time.Minute {
		t.Errorf("since = %v, want about %v", capturedSince, wantSince)
	}
}

func TestCostsCmd_Success_JSONFormat(t *testing.T) {
	orig := UsageCalc
	origSince := costsSince
	origJSON := costsJSON
	defer func() {
		UsageCalc = orig
		costsSince = origSince
		costsJSON = origJSON
	}()

	costsSince = "24h"
	costsJSON = true

	UsageCalc = &usageMock{
		calcFn: func(since time.Time) (*observability.UsageMetrics, error) {
			return &observability.UsageMetrics{EventCount: 4}, nil
		},
	}

	if err := costsCmd.RunE(costsCmd, []string{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestCostsCmd_CalculateError(t *testing.T) {
	orig := UsageCalc
	origSince := costsSince
	defer func() {
		UsageCalc = orig
		costsSince = origSince
	}()

	costsSince = "7d"

	UsageCalc = &usageMock{
		calcFn: func(since time.Time) (*observability.UsageMetrics, error) {
			return nil, fmt.Errorf("event log corrupted")
		},
	}

	err := costsCmd.RunE(costsCmd, []string{})
	if err == nil {
		t.Fatal("expected error from Calculate")
	}
	if !strings.Contains(err.Error(), "calculating usage") {
		t.Errorf("unexpected error: %v", err)
	}
}
