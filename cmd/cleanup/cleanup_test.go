package cleanup

import (
	"testing"
	"time"

	"fjacquet/finance-etl/internal/dateutils"
	"fjacquet/finance-etl/internal/pipeline"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCleanupCommand_Flags(t *testing.T) {
	for name, shorthand := range map[string]string{"environment": "e", "cleanup": "c", "month": "m"} {
		flag := Cmd.Flags().Lookup(name)
		require.NotNil(t, flag, name)
		assert.Equal(t, shorthand, flag.Shorthand)
	}
	assert.Equal(t, "all", Cmd.Flags().Lookup("cleanup").DefValue)
}

func TestParseFlags(t *testing.T) {
	now := time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC)

	mode, period, err := parseFlags(cleanupFlags{Cleanup: "sheets"}, now)
	require.NoError(t, err)
	assert.Equal(t, pipeline.CleanupSheets, mode)
	assert.Equal(t, dateutils.Period{Year: 2025, Month: time.February}, period)

	mode, period, err = parseFlags(cleanupFlags{Cleanup: "mail", Month: "11-2024"}, now)
	require.NoError(t, err)
	assert.Equal(t, pipeline.CleanupMail, mode)
	assert.Equal(t, dateutils.Period{Year: 2024, Month: time.November}, period)

	for _, invalid := range []cleanupFlags{
		{Cleanup: "none"},
		{Cleanup: "fio"},
		{Cleanup: "all", Month: "13-2024"},
	} {
		_, _, err := parseFlags(invalid, now)
		assert.Error(t, err, invalid)
	}
}
