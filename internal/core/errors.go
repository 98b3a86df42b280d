// Package core contains the business logic of the incident analysis engine:
// configuration, message classification, the analysis capability adapter,
// the analysis orchestrator, and the document consistency manager.
package core

import (
	"errors"
	"fmt"
)

// ErrorKind discriminates the engine's typed failure modes.
type ErrorKind string

const (
	// KindValidation marks caller-supplied input that violates a
	// precondition. Recoverable by resubmitting corrected input.
	KindValidation ErrorKind = "validation"
	// KindSchema marks capability output that could not be coerced into the
	// required structured contract after bounded retries.
	KindSchema ErrorKind = "schema"
	// KindCapability marks network, timeout, or rate-limit failures reaching
	// the external capability.
	KindCapability ErrorKind = "capability"
	// KindConsistency marks an update response that changes content outside
	// its declared scope. Treated as a schema failure by callers.
	KindConsistency ErrorKind = "consistency"
)

// EngineError is the typed error surfaced by every engine operation. Kind
// plus Reason carry enough detail to render a user-facing message.
type EngineError struct {
	Kind   ErrorKind
	Reason string
	Err    error
}

func (e *EngineError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Reason, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Reason)
}

func (e *EngineError) Unwrap() error {
	return e.Err
}

// NewValidationError reports a caller precondition violation.
func NewValidationError(format string, args ...any) *EngineError {
	return &EngineError{Kind: KindValidation, Reason: fmt.Sprintf(format, args...)}
}

// NewSchemaError reports capability output that failed the structured contract.
func NewSchemaError(format string, args ...any) *EngineError {
	return &EngineError{Kind: KindSchema, Reason: fmt.Sprintf(format, args...)}
}

// NewCapabilityError reports a transport-level failure reaching the capability.
func NewCapabilityError(err error, format string, args ...any) *EngineError {
	return &EngineError{Kind: KindCapability, Reason: fmt.Sprintf(format, args...), Err: err}
}

// NewConsistencyViolation reports an update that escaped its declared scope.
func NewConsistencyViolation(format string, args ...any) *EngineError {
	return &EngineError{Kind: KindConsistency, Reason: fmt.Sprintf(format, args...)}
}

func kindOf(err error) (ErrorKind, bool) {
	var ee *EngineError
	if errors.As(err, &ee) {
		return ee.Kind, true
	}
	return "", false
}

// IsValidationError reports whether err is a caller input failure.
func IsValidationError(err error) bool {
	k, ok := kindOf(err)
	return ok && k == KindValidation
}

// IsSchemaError reports whether err is a structured-contract failure.
// Consistency violations count: they are a schema-failure subtype.
func IsSchemaError(err error) bool {
	k, ok := kindOf(err)
	return ok && (k == KindSchema || k == KindConsistency)
}

// IsCapabilityError reports whether err is a transport failure.
func IsCapabilityError(err error) bool {
	k, ok := kindOf(err)
	return ok && k == KindCapability
}

// IsConsistencyViolation reports whether err is specifically an
// out-of-scope update.
func IsConsistencyViolation(err error) bool {
	k, ok := kindOf(err)
	return ok && k == KindConsistency
}
