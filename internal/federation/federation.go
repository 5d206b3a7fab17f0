// Package federation merges the records of both sources, drops transfers
// between the owner's own accounts and partitions the rest into incomes,
// expenses and investments.
package federation

import (
	"fmt"
	"strings"
	"unicode"

	"fjacquet/finance-etl/internal/etlerror"
	"fjacquet/finance-etl/internal/logging"
	"fjacquet/finance-etl/internal/models"
)

// Scope selects which sources a run ingests. It mirrors the CLI --actions values.
type Scope string

const (
	ScopeAll  Scope = "all"
	ScopeFio  Scope = "fio"
	ScopeMail Scope = "mail"
)

// Config configures a federation.
type Config struct {
	Scope               Scope
	WhitelistedAccounts []string
	InvestmentKeywords  []string
}

// Result holds the classified transactions, each slice ordered newest first.
type Result struct {
	Incomes     []models.Transaction
	Expenses    []models.Transaction
	Investments []models.Transaction

	// Filtered counts records dropped as transfers between whitelisted accounts.
	Filtered int
	// Zero counts zero-value records, which belong to no category.
	Zero int
}

// Federator runs federations and reports what it dropped.
type Federator struct {
	logger logging.Logger
}

// NewFederator creates a Federator.
func NewFederator(logger logging.Logger) *Federator {
	if logger == nil {
		logger = logging.NewLogrusAdapter("info", "text")
	}
	return &Federator{logger: logger.WithField(logging.FieldComponent, "federation")}
}

// Federate classifies the fio (first) and air (second) records.
//
// The scope decides which sources must be present: fio and all need fio
// records, mail and all need air records.
func (f *Federator) Federate(cfg Config, fio, air []models.RawRecord) (*Result, error) {
	if err := checkSources(cfg.Scope, fio, air); err != nil {
		return nil, err
	}

	all := make([]models.RawRecord, 0, len(fio)+len(air))
	all = append(all, fio...)
	all = append(all, air...)

	kept := FilterTransfers(all, cfg.WhitelistedAccounts)
	f.logger.Info("Transfers between whitelisted accounts filtered out",
		logging.Field{Key: logging.FieldCount, Value: len(all) - len(kept)},
		logging.Field{Key: "remaining", Value: len(kept)})

	normalized := make([]models.Transaction, 0, len(kept))
	for _, record := range kept {
		tx, err := models.Normalize(record)
		if err != nil {
			return nil, fmt.Errorf("normalizing %s record %q: %w", record.Source, record.Label, err)
		}
		normalized = append(normalized, tx)
	}

	result := Classify(models.SortByDateDesc(normalized), cfg.InvestmentKeywords)
	result.Filtered = len(all) - len(kept)

	if result.Zero > 0 {
		f.logger.Warn("Zero-value transactions excluded from every category",
			logging.Field{Key: logging.FieldCount, Value: result.Zero})
	}
	f.logger.Info("Data prepared",
		logging.Field{Key: "incomes", Value: len(result.Incomes)},
		logging.Field{Key: "expenses", Value: len(result.Expenses)},
		logging.Field{Key: "investments", Value: len(result.Investments)})

	return result, nil
}

func checkSources(scope Scope, fio, air []models.RawRecord) error {
	switch scope {
	case ScopeAll, ScopeFio, ScopeMail:
	default:
		return fmt.Errorf("unknown federation scope %q", scope)
	}
	if scope != ScopeMail && len(fio) == 0 {
		return &etlerror.MissingSourceDataError{Source: string(models.SourceFio), Scope: string(scope)}
	}
	if scope != ScopeFio && len(air) == 0 {
		return &etlerror.MissingSourceDataError{Source: string(models.SourceAir), Scope: string(scope)}
	}
	return nil
}

// FilterTransfers drops records whose bank account is whitelisted or whose
// label, once all whitespace is removed, mentions a whitelisted account.
func FilterTransfers(records []models.RawRecord, whitelisted []string) []models.RawRecord {
	kept := make([]models.RawRecord, 0, len(records))
	for _, record := range records {
		if isTransfer(record, whitelisted) {
			continue
		}
		kept = append(kept, record)
	}
	return kept
}

func isTransfer(record models.RawRecord, whitelisted []string) bool {
	compactLabel := stripWhitespace(record.Label)
	for _, account := range whitelisted {
		if account == "" {
			continue
		}
		if record.BankAccount == account || strings.Contains(compactLabel, account) {
			return true
		}
	}
	return false
}

func stripWhitespace(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
}

// Classify partitions already sorted transactions by sign. Expenses and
// investments carry absolute values; zero-value transactions are counted
// but not classified.
func Classify(sorted []models.Transaction, investmentKeywords []string) *Result {
	result := &Result{
		Incomes:     []models.Transaction{},
		Expenses:    []models.Transaction{},
		Investments: []models.Transaction{},
	}
	for _, tx := range sorted {
		switch tx.Value.Sign() {
		case 1:
			result.Incomes = append(result.Incomes, tx)
		case -1:
			tx.Value = tx.Value.Abs()
			if models.ContainsAny(tx.Label, investmentKeywords) {
				result.Investments = append(result.Investments, tx)
			} else {
				result.Expenses = append(result.Expenses, tx)
			}
		default:
			result.Zero++
		}
	}
	return result
}
