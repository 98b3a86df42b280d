package storage

import (
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/marceloamor/CareDocQA/pkg/models"
	"gopkg.in/yaml.v3"
)

// SessionContextManager owns the per-conversation session contexts. State
// lives only for the process lifetime; SaveSnapshot exists for auditing, not
// for restore.
type SessionContextManager interface {
	// Get returns a deep copy of the session's context. An unknown session
	// yields the empty context.
	Get(sessionID string) models.SessionContext

	// RecordAnalysis transitions the session to the active-incident state,
	// fully overwriting any prior analysis. No merge ever happens.
	RecordAnalysis(sessionID string, result models.IncidentAnalysisResult, transcript string, artifacts models.DocumentSet)

	// CommitArtifacts replaces the artifact set of an active incident after
	// the caller accepts a previewed document update.
	CommitArtifacts(sessionID string, docs models.DocumentSet) error

	// Clear resets the session to the empty state. Idempotent.
	Clear(sessionID string)

	// Serialize acquires the session's ordering lock so that operations for
	// one session run at most one at a time. The returned function releases it.
	Serialize(sessionID string) (unlock func())

	// SaveSnapshot writes the session context as YAML for auditing.
	SaveSnapshot(sessionID, path string) error
}

type memorySessionStore struct {
	mu       sync.RWMutex
	contexts map[string]models.SessionContext

	// locks holds one *sync.Mutex per session ID for request serialization.
	locks sync.Map
}

// NewSessionContextManager creates an in-memory session context store.
func NewSessionContextManager() SessionContextManager {
	return &memorySessionStore{
		contexts: make(map[string]models.SessionContext),
	}
}

func (s *memorySessionStore) Get(sessionID string) models.SessionContext {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx, ok := s.contexts[sessionID]
	if !ok {
		return models.SessionContext{SessionID: sessionID}
	}
	return ctx.Clone()
}

func (s *memorySessionStore) RecordAnalysis(sessionID string, result models.IncidentAnalysisResult, transcript string, artifacts models.DocumentSet) {
	stored := models.SessionContext{
		SessionID:          sessionID,
		HasActiveIncident:  true,
		LastAnalysis:       result.Clone(),
		IncidentSummary:    result.Summary,
		OriginalTranscript: transcript,
		Artifacts:          artifacts.Clone(),
		UpdatedAt:          time.Now().UTC(),
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.contexts[sessionID] = stored
}

func (s *memorySessionStore) CommitArtifacts(sessionID string, docs models.DocumentSet) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ctx, ok := s.contexts[sessionID]
	if !ok || !ctx.HasActiveIncident {
		return fmt.Errorf("session %s has no active incident to update", sessionID)
	}

	ctx.Artifacts = docs.Clone()
	ctx.UpdatedAt = time.Now().UTC()
	s.contexts[sessionID] = ctx
	return nil
}

func (s *memorySessionStore) Clear(sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.contexts, sessionID)
}

func (s *memorySessionStore) Serialize(sessionID string) func() {
	v, _ := s.locks.LoadOrStore(sessionID, &sync.Mutex{})
	mu := v.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}

func (s *memorySessionStore) SaveSnapshot(sessionID, path string) error {
	ctx := s.Get(sessionID)

	data, err := yaml.Marshal(&ctx)
	if err != nil {
		return fmt.Errorf("marshaling session snapshot: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("writing session snapshot: %w", err)
	}
	return nil
}
