package logging

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMockLogger_ChildLoggersShareEntries(t *testing.T) {
	mock := NewMockLogger()
	child := mock.WithField(FieldCategory, "incomes").WithError(errors.New("boom"))

	child.Warn("child entry")
	mock.Info("parent entry")

	entries := mock.GetEntries()
	require.Len(t, entries, 2)
	assert.Equal(t, "WARN", entries[0].Level)
	assert.Equal(t, []Field{{Key: FieldCategory, Value: "incomes"}}, entries[0].Fields)
	assert.EqualError(t, entries[0].Error, "boom")
	assert.True(t, mock.HasEntry("INFO", "parent entry"))
	assert.Len(t, mock.GetEntriesByLevel("WARN"), 1)
}

func TestMockLogger_ZeroValueIsUsable(t *testing.T) {
	var mock MockLogger
	mock.Debug("hello")
	assert.True(t, mock.HasEntry("DEBUG", "hello"))
}

func TestMockLogger_ConcurrentUse(t *testing.T) {
	mock := NewMockLogger()
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			mock.WithField(FieldAttempt, i).Info("attempt")
		}(i)
	}
	wg.Wait()
	assert.Len(t, mock.GetEntries(), 20)
}
