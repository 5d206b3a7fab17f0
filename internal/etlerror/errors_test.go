package etlerror

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMalformedLabelOutputError_Message(t *testing.T) {
	err := &MalformedLabelOutputError{
		Category: "expenses",
		Issues:   []string{"missing tokens", "row 2: expected 6 fields, got 5"},
	}
	assert.Equal(t, "labeler output for expenses is malformed: missing tokens; row 2: expected 6 fields, got 5", err.Error())
}

func TestRetriesExhaustedError_UnwrapsToIntegrityViolation(t *testing.T) {
	violation := &IntegrityViolationError{Category: "incomes", Kind: IntegrityValueSum, Expected: "1000", Actual: "999.99"}
	err := fmt.Errorf("merge incomes: %w", &RetriesExhaustedError{Category: "incomes", Attempts: 3, Err: violation})

	var target *IntegrityViolationError
	require.True(t, errors.As(err, &target))
	assert.Equal(t, IntegrityValueSum, target.Kind)
	assert.Contains(t, err.Error(), "after 3 attempts")
}

func TestFallbackError_ExposesBothErrors(t *testing.T) {
	cause := &LedgerUnavailableError{Category: "expenses", Operation: "replace", Err: errors.New("quota")}
	fallback := errors.New("sheets down")
	err := &FallbackError{Cause: cause, FallbackErr: fallback}

	var ledgerErr *LedgerUnavailableError
	assert.True(t, errors.As(err, &ledgerErr))
	assert.True(t, errors.Is(err, fallback))
	assert.Contains(t, err.Error(), "cleanup fallback failed")
}

func TestInvalidDateError_Message(t *testing.T) {
	assert.Equal(t, "invalid date '2025/13/01'", (&InvalidDateError{Value: "2025/13/01"}).Error())
}
