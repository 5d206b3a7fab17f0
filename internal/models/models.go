// Package models provides the data structures shared by the reconciliation pipeline.
package models

import (
	"slices"
	"strings"
	"time"

	"fjacquet/finance-etl/internal/dateutils"

	"github.com/shopspring/decimal"
)

// Source identifies where a record was ingested from.
type Source string

const (
	// SourceFio is the bank REST API.
	SourceFio Source = "fio"
	// SourceAir is the PDF statement delivered by email.
	SourceAir Source = "air"
)

// Category is the ledger partition a transaction is classified into.
type Category string

const (
	CategoryIncomes     Category = "incomes"
	CategoryExpenses    Category = "expenses"
	CategoryInvestments Category = "investments"
)

// Categories lists every ledger category in write order.
var Categories = []Category{CategoryIncomes, CategoryExpenses, CategoryInvestments}

// RawRecord is a transaction as produced by a source adapter, before its date is normalized.
type RawRecord struct {
	Tag         string
	Value       decimal.Decimal
	Date        string
	Source      Source
	BankAccount string
	Label       string
}

// Transaction is a normalized transaction.
//
// Tag is the leading ledger column: blank when ingested, it receives the
// category label assigned by the labeler.
type Transaction struct {
	Tag         string
	Value       decimal.Decimal
	Date        time.Time
	Source      Source
	BankAccount string
	Label       string
}

// Normalize converts a raw record into a Transaction with a calendar-day date.
func Normalize(r RawRecord) (Transaction, error) {
	date, err := dateutils.NormalizeDate(r.Date)
	if err != nil {
		return Transaction{}, err
	}
	return Transaction{
		Tag:         r.Tag,
		Value:       r.Value,
		Date:        date,
		Source:      r.Source,
		BankAccount: r.BankAccount,
		Label:       r.Label,
	}, nil
}

// SumValues adds up the value of every transaction.
func SumValues(txs []Transaction) decimal.Decimal {
	sum := decimal.Zero
	for _, tx := range txs {
		sum = sum.Add(tx.Value)
	}
	return sum
}

// Concat returns a new slice holding a followed by b.
func Concat(a, b []Transaction) []Transaction {
	out := make([]Transaction, 0, len(a)+len(b))
	out = append(out, a...)
	return append(out, b...)
}

// SortByDateDesc returns a copy of txs ordered newest first. Transactions on
// the same day keep their relative order.
func SortByDateDesc(txs []Transaction) []Transaction {
	out := slices.Clone(txs)
	slices.SortStableFunc(out, func(a, b Transaction) int {
		return dateutils.CompareDates(b.Date, a.Date)
	})
	return out
}

// ContainsAny reports whether s contains any of the non-empty needles.
func ContainsAny(s string, needles []string) bool {
	for _, needle := range needles {
		if needle != "" && strings.Contains(s, needle) {
			return true
		}
	}
	return false
}
