package core

import (
	"context"
	"sort"
	"strings"

	"github.com/marceloamor/CareDocQA/internal/observability"
	"github.com/marceloamor/CareDocQA/pkg/models"
)

// ConsistencyManager applies user feedback to one artifact and assembles the
// proposed replacement artifact set. The result is a preview: nothing is
// committed to the session until the caller accepts it.
type ConsistencyManager interface {
	// UpdateDocument rewrites the named document per the feedback, validates
	// the capability's declared update scope, and returns the full proposed
	// document set. Documents not named by the update are byte-identical to
	// the input set.
	UpdateDocument(ctx context.Context, sessionID, documentType, feedback string, docs models.DocumentSet) (*models.UpdateResult, models.Usage, error)
}

type consistencyManager struct {
	adapter AnalysisAdapter
	store   SessionStore
	events  EventRecorder
}

// NewConsistencyManager wires the document update pipeline. events may be nil.
func NewConsistencyManager(adapter AnalysisAdapter, store SessionStore, events EventRecorder) ConsistencyManager {
	return &consistencyManager{adapter: adapter, store: store, events: events}
}

func (m *consistencyManager) UpdateDocument(ctx context.Context, sessionID, documentType, feedback string, docs models.DocumentSet) (*models.UpdateResult, models.Usage, error) {
	if strings.TrimSpace(sessionID) == "" {
		return nil, models.Usage{}, NewValidationError("session id must not be empty")
	}
	if strings.TrimSpace(feedback) == "" {
		return nil, models.Usage{}, NewValidationError("feedback must not be empty")
	}
	current, ok := docs[documentType]
	if !ok {
		return nil, models.Usage{}, NewValidationError("unknown document type %q, have: %s",
			documentType, strings.Join(docKeys(docs), ", "))
	}

	unlock := m.store.Serialize(sessionID)
	defer unlock()

	result, usage, err := m.adapter.UpdateDocument(ctx, feedback, documentType, current, docs)
	if err != nil {
		return nil, usage, err
	}

	if err := validateUpdateScope(result, documentType, current, docs); err != nil {
		return nil, usage, err
	}

	// Assemble the proposal from a copy of the input set so every untouched
	// document carries over byte-identical.
	proposed := docs.Clone()
	if !result.NoChangeRequested {
		proposed[documentType] = result.UpdatedDocument
	}
	for _, cu := range result.CrossUpdates {
		proposed[cu.DocumentType] = cu.UpdatedContent
	}
	result.Documents = proposed

	if m.events != nil {
		m.events.RecordEvent(observability.EventDocumentUpdated, sessionID, result.Explanation, map[string]any{
			"document_type": documentType,
			"cross_updates": len(result.CrossUpdates),
			"no_change":     result.NoChangeRequested,
			"tokens_used":   usage.TokensUsed,
			"cost_usd":      usage.CostUSD,
		})
	}

	return result, usage, nil
}

// validateUpdateScope enforces the update contract: declared scope matches
// actual changes, cross-updates target known documents and actually change
// them, and a no-op primary rewrite must be explicitly declared.
func validateUpdateScope(result *models.UpdateResult, documentType, current string, docs models.DocumentSet) error {
	if result.NoChangeRequested {
		if len(result.CrossUpdates) > 0 || result.RequiresCrossUpdates {
			return NewSchemaError("update declared no change requested but listed cross-updates")
		}
		return nil
	}

	if result.UpdatedDocument == current {
		return NewValidationError("feedback produced no change to %s; rephrase the request or state explicitly that no change is wanted", documentType)
	}

	if result.RequiresCrossUpdates && len(result.CrossUpdates) == 0 {
		return NewSchemaError("update declared cross-updates required but listed none")
	}
	if !result.RequiresCrossUpdates && len(result.CrossUpdates) > 0 {
		return NewConsistencyViolation("update listed %d cross-updates without declaring them required", len(result.CrossUpdates))
	}

	seen := make(map[string]bool, len(result.CrossUpdates))
	for _, cu := range result.CrossUpdates {
		if cu.DocumentType == documentType {
			return NewConsistencyViolation("cross-update targets the primary document %q", documentType)
		}
		existing, ok := docs[cu.DocumentType]
		if !ok {
			return NewSchemaError("cross-update targets unknown document %q, have: %s",
				cu.DocumentType, strings.Join(docKeys(docs), ", "))
		}
		if cu.UpdatedContent == existing {
			return NewConsistencyViolation("cross-update to %q does not change its content", cu.DocumentType)
		}
		if seen[cu.DocumentType] {
			return NewSchemaError("duplicate cross-update for document %q", cu.DocumentType)
		}
		seen[cu.DocumentType] = true
	}

	return nil
}

func docKeys(docs models.DocumentSet) []string {
	keys := make([]string, 0, len(docs))
	for k := range docs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
