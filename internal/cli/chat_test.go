package cli

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/marceloamor/CareDocQA/internal/core"
	"github.com/marceloamor/CareDocQA/pkg/models"
)

func TestChatCommand_NilOrchestrator(t *testing.T) {
	orig := Orchestrator
	defer func() { Orchestrator = orig }()
	Orchestrator = nil

	err := chatCmd.RunE(chatCmd, []string{"what", "is", "the", "falls", "policy"})
	if err == nil {
		t.Fatal("expected error when Orchestrator is nil")
	}
	if !strings.Contains(err.Error(), "not initialized") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestChatCommand_JoinsArgsIntoMessage(t *testing.T) {
	orig := Orchestrator
	origSession := chatSession
	defer func() {
		Orchestrator = orig
		chatSession = origSession
	}()
	chatSession = "s1"

	var gotSession, gotMessage string
	Orchestrator = &orchestratorMock{
		chatFn: func(_ context.Context, sessionID, message string) (*models.ChatReply, error) {
			gotSession = sessionID
			gotMessage = message
			return &models.ChatReply{
				Type:    models.ReplyPolicyQuestion,
				Message: "See section 4.3.",
			}, nil
		},
	}

	err := chatCmd.RunE(chatCmd, []string{"what", "is", "the", "falls", "policy"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotSession != "s1" {
		t.Errorf("session = %q, want s1", gotSession)
	}
	if gotMessage != "what is the falls policy" {
		t.Errorf("message = %q", gotMessage)
	}
}

func TestChatCommand_FollowupReply(t *testing.T) {
	orig := Orchestrator
	defer func() { Orchestrator = orig }()

	Orchestrator = &orchestratorMock{
		chatFn: func(_ context.Context, _, _ string) (*models.ChatReply, error) {
			return &models.ChatReply{
				Type:    models.ReplyContextualFollowup,
				Message: "Julie's fall is covered by section 4.3.",
			}, nil
		},
	}

	if err := chatCmd.RunE(chatCmd, []string{"was that a trigger"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestChatCommand_EngineErrorIsDescribed(t *testing.T) {
	orig := Orchestrator
	defer func() { Orchestrator = orig }()

	Orchestrator = &orchestratorMock{
		chatFn: func(_ context.Context, _, _ string) (*models.ChatReply, error) {
			return nil, core.NewCapabilityError(errors.New("timeout"), "request failed")
		},
	}

	err := chatCmd.RunE(chatCmd, []string{"question"})
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "capability unavailable") {
		t.Errorf("unexpected error: %v", err)
	}
}
