// Package etlerror defines the typed errors raised by the reconciliation pipeline.
// Callers inspect them with errors.As; every wrapping type implements Unwrap.
package etlerror

import (
	"fmt"
	"strings"
)

// MissingSourceDataError is returned when the requested scope needs a source
// that produced no records.
type MissingSourceDataError struct {
	Source string
	Scope  string
}

func (e *MissingSourceDataError) Error() string {
	return fmt.Sprintf("data federation is not possible: source %q is missing for scope %q", e.Source, e.Scope)
}

// InvalidDateError represents a date that matches none of the supported encodings.
type InvalidDateError struct {
	Value string
	Err   error
}

func (e *InvalidDateError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("invalid date '%s': %v", e.Value, e.Err)
	}
	return fmt.Sprintf("invalid date '%s'", e.Value)
}

func (e *InvalidDateError) Unwrap() error {
	return e.Err
}

// InvalidRowError represents a persisted or labeled row that cannot be decoded.
type InvalidRowError struct {
	Index  int
	Field  string
	Value  string
	Reason string
}

func (e *InvalidRowError) Error() string {
	return fmt.Sprintf("row %d: invalid %s '%s': %s", e.Index, e.Field, e.Value, e.Reason)
}

// MalformedLabelOutputError is returned when the labeler response does not
// decode into the expected structure.
type MalformedLabelOutputError struct {
	Category string
	Issues   []string
	Output   string
	Err      error
}

func (e *MalformedLabelOutputError) Error() string {
	msg := fmt.Sprintf("labeler output for %s is malformed", e.Category)
	if len(e.Issues) > 0 {
		msg += ": " + strings.Join(e.Issues, "; ")
	}
	if e.Err != nil {
		msg += fmt.Sprintf(": %v", e.Err)
	}
	return msg
}

func (e *MalformedLabelOutputError) Unwrap() error {
	return e.Err
}

// IntegrityKind names the integrity check that failed.
type IntegrityKind string

const (
	IntegrityRowCount IntegrityKind = "row-count"
	IntegrityValueSum IntegrityKind = "value-sum"
)

// IntegrityViolationError signals that the labeler dropped, invented or altered rows.
type IntegrityViolationError struct {
	Category string
	Kind     IntegrityKind
	Expected string
	Actual   string
}

func (e *IntegrityViolationError) Error() string {
	return fmt.Sprintf("integrity violation (%s) for %s: pre-labeling %s vs. post-labeling %s",
		e.Kind, e.Category, e.Expected, e.Actual)
}

// RetriesExhaustedError wraps the last failure once every labeling attempt has been used.
type RetriesExhaustedError struct {
	Category string
	Attempts int
	Err      error
}

func (e *RetriesExhaustedError) Error() string {
	return fmt.Sprintf("labeling %s failed after %d attempts: %v", e.Category, e.Attempts, e.Err)
}

func (e *RetriesExhaustedError) Unwrap() error {
	return e.Err
}

// LedgerUnavailableError represents a failure of the ledger store collaborator.
type LedgerUnavailableError struct {
	Category  string
	Operation string
	Err       error
}

func (e *LedgerUnavailableError) Error() string {
	return fmt.Sprintf("ledger %s failed for %s: %v", e.Operation, e.Category, e.Err)
}

func (e *LedgerUnavailableError) Unwrap() error {
	return e.Err
}

// SourceUnavailableError represents a failure while fetching records from a source adapter.
type SourceUnavailableError struct {
	Source string
	Err    error
}

func (e *SourceUnavailableError) Error() string {
	return fmt.Sprintf("fetching %s transactions failed: %v", e.Source, e.Err)
}

func (e *SourceUnavailableError) Unwrap() error {
	return e.Err
}

// FallbackError is the double fault: the run failed and so did the cleanup fallback.
type FallbackError struct {
	Cause       error
	FallbackErr error
}

func (e *FallbackError) Error() string {
	return fmt.Sprintf("run failed (%v) and cleanup fallback failed (%v)", e.Cause, e.FallbackErr)
}

// Unwrap exposes both errors to errors.Is / errors.As.
func (e *FallbackError) Unwrap() []error {
	return []error{e.Cause, e.FallbackErr}
}
