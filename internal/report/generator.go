// Package report renders the summary of a reconciliation run.
package report

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"
	"html/template"
	"path/filepath"
	"time"

	"fjacquet/finance-etl/internal/dateutils"
	"fjacquet/finance-etl/internal/fileutils"
	"fjacquet/finance-etl/internal/logging"
	"fjacquet/finance-etl/internal/models"

	"github.com/shopspring/decimal"
)

//go:embed templates/summary.html
var templates embed.FS

var hundred = decimal.NewFromInt(100)

// Status of the month's balance.
const (
	StatusSurplus   = "Surplus"
	StatusDeficit   = "Deficit"
	StatusBreakEven = "Break Even"
)

// Summary compares the incomes and expenses ingested by one run.
type Summary struct {
	Period        string    `json:"period"`
	RunID         string    `json:"run_id"`
	GeneratedAt   time.Time `json:"generated_at"`
	SpreadsheetID string    `json:"spreadsheet_id,omitempty"`

	IncomesCount     int    `json:"incomes_count"`
	IncomesTotal     string `json:"incomes_total"`
	ExpensesCount    int    `json:"expenses_count"`
	ExpensesTotal    string `json:"expenses_total"`
	InvestmentsCount int    `json:"investments_count"`
	InvestmentsTotal string `json:"investments_total"`

	NetIncome    string `json:"net_income"`
	SavingsRate  string `json:"savings_rate"`
	ExpenseRatio string `json:"expense_ratio"`
	Status       string `json:"status"`

	NetIncomeClass   string `json:"-"`
	StatusBackground string `json:"-"`
	StatusMessage    string `json:"-"`
}

// NewSummary computes totals with two decimals and ratios with one.
func NewSummary(period dateutils.Period, incomes, expenses, investments []models.Transaction) *Summary {
	incomesTotal := models.SumValues(incomes)
	expensesTotal := models.SumValues(expenses)
	net := incomesTotal.Sub(expensesTotal)

	savingsRate, expenseRatio := decimal.Zero, decimal.Zero
	if incomesTotal.IsPositive() {
		savingsRate = net.Div(incomesTotal).Mul(hundred)
		expenseRatio = expensesTotal.Div(incomesTotal).Mul(hundred)
	}

	s := &Summary{
		Period:           period.String(),
		IncomesCount:     len(incomes),
		IncomesTotal:     incomesTotal.StringFixed(2),
		ExpensesCount:    len(expenses),
		ExpensesTotal:    expensesTotal.StringFixed(2),
		InvestmentsCount: len(investments),
		InvestmentsTotal: models.SumValues(investments).StringFixed(2),
		NetIncome:        net.StringFixed(2),
		SavingsRate:      savingsRate.StringFixed(1),
		ExpenseRatio:     expenseRatio.StringFixed(1),
	}

	switch net.Sign() {
	case 1:
		s.Status, s.NetIncomeClass, s.StatusBackground = StatusSurplus, "positive", "#d4edda"
		s.StatusMessage = "You had a positive month!"
	case -1:
		s.Status, s.NetIncomeClass, s.StatusBackground = StatusDeficit, "negative", "#f8d7da"
		s.StatusMessage = "You spent more than you earned this month"
	default:
		s.Status, s.NetIncomeClass, s.StatusBackground = StatusBreakEven, "negative", "#f8d7da"
		s.StatusMessage = "You spent exactly what you earned this month"
	}
	return s
}

// ReportGenerator renders summaries.
type ReportGenerator struct {
	logger logging.Logger
	html   *template.Template
}

// NewReportGenerator creates a new instance of ReportGenerator.
func NewReportGenerator(logger logging.Logger) *ReportGenerator {
	return &ReportGenerator{
		logger: logger.WithField(logging.FieldComponent, "ReportGenerator"),
		html:   template.Must(template.ParseFS(templates, "templates/summary.html")),
	}
}

// GenerateReport renders the summary in the specified format (html or json).
func (g *ReportGenerator) GenerateReport(summary *Summary, format string) ([]byte, error) {
	switch format {
	case "html":
		return g.generateHTMLReport(summary)
	case "json":
		return g.generateJSONReport(summary)
	default:
		return nil, fmt.Errorf("unsupported report format: %s", format)
	}
}

// WriteReport renders the summary and writes it to path. The format follows
// the file extension: .json selects JSON, anything else HTML.
func (g *ReportGenerator) WriteReport(summary *Summary, path string) error {
	format := "html"
	if filepath.Ext(path) == ".json" {
		format = "json"
	}
	content, err := g.GenerateReport(summary, format)
	if err != nil {
		return err
	}
	if err := fileutils.WriteFile(path, content); err != nil {
		return fmt.Errorf("error writing report: %w", err)
	}
	g.logger.Info("Run summary saved",
		logging.Field{Key: logging.FieldFile, Value: path},
		logging.Field{Key: "status", Value: summary.Status})
	return nil
}

func (g *ReportGenerator) generateHTMLReport(summary *Summary) ([]byte, error) {
	var buf bytes.Buffer
	if err := g.html.Execute(&buf, summary); err != nil {
		g.logger.WithError(err).Error("Failed to render HTML report")
		return nil, fmt.Errorf("failed to render HTML report: %w", err)
	}
	return buf.Bytes(), nil
}

func (g *ReportGenerator) generateJSONReport(summary *Summary) ([]byte, error) {
	jsonReport, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		g.logger.WithError(err).Error("Failed to marshal JSON report")
		return nil, fmt.Errorf("failed to marshal JSON report: %w", err)
	}
	return jsonReport, nil
}
