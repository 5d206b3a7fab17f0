package federation

import (
	"errors"
	"fmt"
	"testing"

	"fjacquet/finance-etl/internal/dateutils"
	"fjacquet/finance-etl/internal/etlerror"
	"fjacquet/finance-etl/internal/logging"
	"fjacquet/finance-etl/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rec(value, date string, source models.Source, account, label string) models.RawRecord {
	return models.RawRecord{
		Value:       decimal.RequireFromString(value),
		Date:        date,
		Source:      source,
		BankAccount: account,
		Label:       label,
	}
}

func newTestFederator() (*Federator, *logging.MockLogger) {
	mockLogger := logging.NewMockLogger()
	return NewFederator(mockLogger), mockLogger
}

func TestFederate_SingleIncomeFromOneSource(t *testing.T) {
	f, _ := newTestFederator()
	fio := []models.RawRecord{rec("100", "01.03.2025", models.SourceFio, "", "salary")}

	result, err := f.Federate(Config{Scope: ScopeFio}, fio, nil)
	require.NoError(t, err)

	require.Len(t, result.Incomes, 1)
	assert.Equal(t, "03/01/2025", result.Incomes[0].Row()[models.ColumnDate])
	assert.Equal(t, "100", result.Incomes[0].Row()[models.ColumnValue])
	assert.Empty(t, result.Expenses)
	assert.Empty(t, result.Investments)
}

func TestFederate_InvestmentKeywordMovesExpenseToInvestments(t *testing.T) {
	f, _ := newTestFederator()
	air := []models.RawRecord{rec("-500", "02.03.2025", models.SourceAir, "", "ETF purchase")}

	result, err := f.Federate(Config{Scope: ScopeMail, InvestmentKeywords: []string{"ETF"}}, nil, air)
	require.NoError(t, err)

	require.Len(t, result.Investments, 1)
	assert.True(t, decimal.NewFromInt(500).Equal(result.Investments[0].Value))
	assert.Empty(t, result.Expenses)
	assert.Empty(t, result.Incomes)
}

func TestFederate_MissingSourceData(t *testing.T) {
	fio := []models.RawRecord{rec("1", "2025-03-01+0100", models.SourceFio, "", "a")}
	air := []models.RawRecord{rec("1", "01.03.2025", models.SourceAir, "", "b")}

	tests := []struct {
		name    string
		scope   Scope
		fio     []models.RawRecord
		air     []models.RawRecord
		missing models.Source
	}{
		{"all without fio", ScopeAll, nil, air, models.SourceFio},
		{"all without air", ScopeAll, fio, nil, models.SourceAir},
		{"fio scope without fio", ScopeFio, nil, air, models.SourceFio},
		{"mail scope without air", ScopeMail, fio, nil, models.SourceAir},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, _ := newTestFederator()
			_, err := f.Federate(Config{Scope: tt.scope}, tt.fio, tt.air)
			var missing *etlerror.MissingSourceDataError
			require.True(t, errors.As(err, &missing))
			assert.Equal(t, string(tt.missing), missing.Source)
		})
	}
}

func TestFederate_UnknownScope(t *testing.T) {
	f, _ := newTestFederator()
	_, err := f.Federate(Config{Scope: "none"}, nil, nil)
	assert.Error(t, err)
}

func TestFederate_InvalidDateAbortsRun(t *testing.T) {
	f, _ := newTestFederator()
	fio := []models.RawRecord{rec("10", "2025/03/01", models.SourceFio, "", "bad date")}

	_, err := f.Federate(Config{Scope: ScopeFio}, fio, nil)
	var dateErr *etlerror.InvalidDateError
	require.True(t, errors.As(err, &dateErr))
	assert.Equal(t, "2025/03/01", dateErr.Value)
}

func TestFederate_ZeroValueRecordsBelongToNoCategory(t *testing.T) {
	f, mockLogger := newTestFederator()
	fio := []models.RawRecord{
		rec("0", "2025-03-03+0100", models.SourceFio, "", "zero"),
		rec("5", "2025-03-02+0100", models.SourceFio, "", "income"),
	}

	result, err := f.Federate(Config{Scope: ScopeFio}, fio, nil)
	require.NoError(t, err)

	assert.Equal(t, 1, result.Zero)
	assert.Len(t, result.Incomes, 1)
	assert.Empty(t, result.Expenses)
	assert.Empty(t, result.Investments)
	assert.Len(t, mockLogger.GetEntriesByLevel("WARN"), 1)
}

func TestFederate_StrictPartitionAndDescendingOrder(t *testing.T) {
	f, _ := newTestFederator()
	var fio, air []models.RawRecord
	for i := 0; i < 30; i++ {
		value := fmt.Sprintf("%d", (i%5-2)*10)
		fio = append(fio, rec(value, fmt.Sprintf("2025-03-%02d+0100", i%28+1), models.SourceFio, "", fmt.Sprintf("fio-%d ETF", i)))
		air = append(air, rec(value, fmt.Sprintf("%02d.03.2025", (i*7)%28+1), models.SourceAir, "", fmt.Sprintf("air-%d", i)))
	}

	result, err := f.Federate(Config{Scope: ScopeAll, InvestmentKeywords: []string{"ETF"}}, fio, air)
	require.NoError(t, err)

	seen := map[string]int{}
	for _, group := range [][]models.Transaction{result.Incomes, result.Expenses, result.Investments} {
		for i, tx := range group {
			seen[tx.Label]++
			assert.True(t, tx.Value.IsPositive(), "classified values are positive")
			if i > 0 {
				assert.GreaterOrEqual(t, dateutils.CompareDates(group[i-1].Date, tx.Date), 0, "descending dates")
			}
		}
	}

	for _, r := range append(fio, air...) {
		if r.Value.IsZero() {
			assert.Zero(t, seen[r.Label], "zero-value %s must not be classified", r.Label)
		} else {
			assert.Equal(t, 1, seen[r.Label], "record %s must land in exactly one category", r.Label)
		}
	}
}

func TestFederate_EqualDatesKeepSourceOrder(t *testing.T) {
	f, _ := newTestFederator()
	fio := []models.RawRecord{
		rec("1", "2025-03-05+0100", models.SourceFio, "", "fio-first"),
		rec("2", "2025-03-06+0100", models.SourceFio, "", "fio-newest"),
	}
	air := []models.RawRecord{
		rec("3", "05.03.2025", models.SourceAir, "", "air-second"),
	}

	result, err := f.Federate(Config{Scope: ScopeAll}, fio, air)
	require.NoError(t, err)

	labels := []string{}
	for _, tx := range result.Incomes {
		labels = append(labels, tx.Label)
	}
	assert.Equal(t, []string{"fio-newest", "fio-first", "air-second"}, labels)
}

func TestFilterTransfers(t *testing.T) {
	whitelist := []string{"2900123456/2010", "", "1234567890/3030"}
	records := []models.RawRecord{
		rec("-100", "01.03.2025", models.SourceFio, "2900123456/2010", "to savings"),
		rec("-100", "01.03.2025", models.SourceAir, "", "Transfer to 1234567890 / 3030"),
		rec("-100", "01.03.2025", models.SourceAir, "", "Coffee"),
		rec("100", "01.03.2025", models.SourceFio, "111/0100", "Refund"),
	}

	kept := FilterTransfers(records, whitelist)

	require.Len(t, kept, 2)
	assert.Equal(t, "Coffee", kept[0].Label)
	assert.Equal(t, "Refund", kept[1].Label)
}

func TestFederate_WhitelistedAccountNeverClassified(t *testing.T) {
	whitelists := [][]string{
		{"2900123456/2010"},
		{"2900123456/2010", "555/0800"},
		{"555/0800", "2900123456/2010"},
	}
	for _, whitelist := range whitelists {
		f, _ := newTestFederator()
		fio := []models.RawRecord{
			rec("250", "2025-03-01+0100", models.SourceFio, "2900123456/2010", "own transfer in"),
			rec("-250", "2025-03-01+0100", models.SourceFio, "2900123456/2010", "own transfer out ETF"),
			rec("-20", "2025-03-02+0100", models.SourceFio, "777/0300", "lunch"),
		}

		result, err := f.Federate(Config{Scope: ScopeFio, WhitelistedAccounts: whitelist, InvestmentKeywords: []string{"ETF"}}, fio, nil)
		require.NoError(t, err)

		for _, group := range [][]models.Transaction{result.Incomes, result.Expenses, result.Investments} {
			for _, tx := range group {
				assert.NotEqual(t, "2900123456/2010", tx.BankAccount)
			}
		}
		assert.Equal(t, 2, result.Filtered)
		assert.Len(t, result.Expenses, 1)
	}
}
