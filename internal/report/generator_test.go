package report

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"fjacquet/finance-etl/internal/dateutils"
	"fjacquet/finance-etl/internal/logging"
	"fjacquet/finance-etl/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func values(vs ...string) []models.Transaction {
	txs := make([]models.Transaction, 0, len(vs))
	for _, v := range vs {
		txs = append(txs, models.Transaction{Value: decimal.RequireFromString(v)})
	}
	return txs
}

var march = dateutils.Period{Year: 2025, Month: time.March}

func TestNewSummary(t *testing.T) {
	tests := []struct {
		name         string
		incomes      []models.Transaction
		expenses     []models.Transaction
		net          string
		savingsRate  string
		expenseRatio string
		status       string
	}{
		{"surplus", values("1000", "500"), values("450.50", "100"), "949.50", "63.3", "36.7", StatusSurplus},
		{"deficit", values("100"), values("150"), "-50.00", "-50.0", "150.0", StatusDeficit},
		{"break even", values("80"), values("80"), "0.00", "0.0", "100.0", StatusBreakEven},
		{"no incomes", nil, values("20"), "-20.00", "0.0", "0.0", StatusDeficit},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewSummary(march, tt.incomes, tt.expenses, values("250"))

			assert.Equal(t, tt.net, s.NetIncome)
			assert.Equal(t, tt.savingsRate, s.SavingsRate)
			assert.Equal(t, tt.expenseRatio, s.ExpenseRatio)
			assert.Equal(t, tt.status, s.Status)
			assert.Equal(t, "250.00", s.InvestmentsTotal)
			assert.Equal(t, 1, s.InvestmentsCount)
			assert.Equal(t, "03-2025", s.Period)
		})
	}
}

func TestReportGenerator_GenerateReport_HTML(t *testing.T) {
	generator := NewReportGenerator(logging.NewMockLogger())
	summary := NewSummary(march, values("1000"), values("400"), nil)
	summary.SpreadsheetID = "sheet-<1>"

	html, err := generator.GenerateReport(summary, "html")
	require.NoError(t, err)

	content := string(html)
	assert.Contains(t, content, "Finance summary for 03-2025")
	assert.Contains(t, content, "<td>Incomes</td><td>1</td><td>1000.00</td>")
	assert.Contains(t, content, `<span class="positive">600.00</span>`)
	assert.Contains(t, content, "Savings rate: 60.0 %")
	assert.NotContains(t, content, "sheet-<1>", "template output must be escaped")
}

func TestReportGenerator_GenerateReport_JSON(t *testing.T) {
	generator := NewReportGenerator(logging.NewMockLogger())
	summary := NewSummary(march, values("10"), nil, nil)
	summary.RunID = "run-1"

	out, err := generator.GenerateReport(summary, "json")
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(out, &decoded))
	assert.Equal(t, "run-1", decoded["run_id"])
	assert.Equal(t, "Surplus", decoded["status"])
	assert.NotContains(t, decoded, "StatusBackground")
}

func TestReportGenerator_UnsupportedFormat(t *testing.T) {
	generator := NewReportGenerator(logging.NewMockLogger())
	_, err := generator.GenerateReport(NewSummary(march, nil, nil, nil), "xml")
	assert.Error(t, err)
}

func TestReportGenerator_WriteReport(t *testing.T) {
	dir := t.TempDir()
	mockLogger := logging.NewMockLogger()
	generator := NewReportGenerator(mockLogger)
	summary := NewSummary(march, values("10"), values("5"), nil)

	htmlPath := filepath.Join(dir, "out", "email-body.html")
	require.NoError(t, generator.WriteReport(summary, htmlPath))
	content, err := os.ReadFile(htmlPath)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(content), "<!DOCTYPE html>"))

	jsonPath := filepath.Join(dir, "summary.json")
	require.NoError(t, generator.WriteReport(summary, jsonPath))
	content, err = os.ReadFile(jsonPath)
	require.NoError(t, err)
	assert.True(t, json.Valid(content))

	assert.True(t, mockLogger.HasEntry("INFO", "Run summary saved"))
}
