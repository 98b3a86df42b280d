package cli

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/marceloamor/CareDocQA/internal/storage"
)

func TestSessionCommands_Registration(t *testing.T) {
	var sessionRoot bool
	for _, cmd := range rootCmd.Commands() {
		if cmd.Name() == "session" {
			sessionRoot = true
			names := make(map[string]bool)
			for _, sub := range cmd.Commands() {
				names[sub.Name()] = true
			}
			for _, want := range []string{"show", "clear", "snapshot"} {
				if !names[want] {
					t.Errorf("expected 'session %s' subcommand", want)
				}
			}
		}
	}
	if !sessionRoot {
		t.Error("expected 'session' command to be registered")
	}
}

func TestSessionShowCommand_NilManager(t *testing.T) {
	orig := SessionMgr
	defer func() { SessionMgr = orig }()
	SessionMgr = nil

	err := sessionShowCmd.RunE(sessionShowCmd, []string{})
	if err == nil {
		t.Fatal("expected error when SessionMgr is nil")
	}
	if !strings.Contains(err.Error(), "not initialized") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestSessionShowCommand_EmptyAndActive(t *testing.T) {
	origMgr := SessionMgr
	origID := sessionID
	defer func() {
		SessionMgr = origMgr
		sessionID = origID
	}()

	sessionID = "s1"
	SessionMgr = storage.NewSessionContextManager()

	if err := sessionShowCmd.RunE(sessionShowCmd, []string{}); err != nil {
		t.Fatalf("empty session show failed: %v", err)
	}

	SessionMgr = seededSessionStore(t, "s1")
	if err := sessionShowCmd.RunE(sessionShowCmd, []string{}); err != nil {
		t.Fatalf("active session show failed: %v", err)
	}
}

func TestSessionClearCommand(t *testing.T) {
	origOrch := Orchestrator
	origID := sessionID
	defer func() {
		Orchestrator = origOrch
		sessionID = origID
	}()

	sessionID = "s9"
	mock := &orchestratorMock{}
	Orchestrator = mock

	if err := sessionClearCmd.RunE(sessionClearCmd, []string{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if mock.clearedID != "s9" {
		t.Errorf("cleared session = %q, want s9", mock.clearedID)
	}
}

func TestSessionSnapshotCommand(t *testing.T) {
	origMgr := SessionMgr
	origID := sessionID
	origOut := sessionSnapshot
	defer func() {
		SessionMgr = origMgr
		sessionID = origID
		sessionSnapshot = origOut
	}()

	sessionID = "s1"
	sessionSnapshot = filepath.Join(t.TempDir(), "snapshot.yaml")
	SessionMgr = seededSessionStore(t, "s1")

	if err := sessionSnapshotCmd.RunE(sessionSnapshotCmd, []string{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	data, err := os.ReadFile(sessionSnapshot)
	if err != nil {
		t.Fatalf("snapshot file not written: %v", err)
	}
	if !strings.Contains(string(data), "fall during visit") {
		t.Errorf("snapshot missing incident summary: %q", data)
	}
}
