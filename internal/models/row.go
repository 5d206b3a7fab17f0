package models

import (
	"strings"

	"fjacquet/finance-etl/internal/dateutils"
	"fjacquet/finance-etl/internal/etlerror"

	"github.com/shopspring/decimal"
)

// RowWidth is the number of positional fields in a persisted ledger row.
const RowWidth = 6

// Positional columns of a ledger row: tag, value, date, source, bank account, label.
const (
	ColumnTag = iota
	ColumnValue
	ColumnDate
	ColumnSource
	ColumnBankAccount
	ColumnLabel
)

var columnNames = [RowWidth]string{"tag", "value", "date", "source", "bank account", "label"}

// Row serializes the transaction into its positional ledger form.
func (t Transaction) Row() []string {
	return []string{
		t.Tag,
		t.Value.String(),
		dateutils.FormatLedgerDate(t.Date),
		string(t.Source),
		t.BankAccount,
		t.Label,
	}
}

// ParseRow decodes a positional ledger row. The row must hold exactly RowWidth fields.
func ParseRow(index int, row []string) (Transaction, error) {
	if len(row) != RowWidth {
		return Transaction{}, &etlerror.InvalidRowError{
			Index:  index,
			Field:  "width",
			Value:  strings.Join(row, " | "),
			Reason: "expected 6 fields",
		}
	}

	value, err := decimal.NewFromString(strings.TrimSpace(row[ColumnValue]))
	if err != nil {
		return Transaction{}, &etlerror.InvalidRowError{
			Index: index, Field: columnNames[ColumnValue], Value: row[ColumnValue], Reason: err.Error(),
		}
	}

	date, err := dateutils.ParseLedgerDate(row[ColumnDate])
	if err != nil {
		return Transaction{}, &etlerror.InvalidRowError{
			Index: index, Field: columnNames[ColumnDate], Value: row[ColumnDate], Reason: "not a M/D/YYYY date",
		}
	}

	return Transaction{
		Tag:         row[ColumnTag],
		Value:       value,
		Date:        date,
		Source:      Source(row[ColumnSource]),
		BankAccount: row[ColumnBankAccount],
		Label:       row[ColumnLabel],
	}, nil
}

// PadRow extends a row whose trailing empty cells were trimmed by the store.
func PadRow(row []string) []string {
	if len(row) >= RowWidth {
		return row
	}
	padded := make([]string, RowWidth)
	copy(padded, row)
	return padded
}

// ToRows serializes transactions for a store or a prompt.
func ToRows(txs []Transaction) [][]string {
	rows := make([][]string, 0, len(txs))
	for _, tx := range txs {
		rows = append(rows, tx.Row())
	}
	return rows
}

// FromRows decodes positional rows, failing on the first invalid one.
func FromRows(rows [][]string) ([]Transaction, error) {
	txs := make([]Transaction, 0, len(rows))
	for i, row := range rows {
		tx, err := ParseRow(i, row)
		if err != nil {
			return nil, err
		}
		txs = append(txs, tx)
	}
	return txs, nil
}
