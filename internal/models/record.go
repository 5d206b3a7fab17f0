package models

// LedgerRecord is the CSV form of a ledger row, used by file stores and snapshots.
type LedgerRecord struct {
	Tag         string `csv:"tag"`
	Value       string `csv:"value"`
	Date        string `csv:"date"`
	Source      string `csv:"source"`
	BankAccount string `csv:"bank_account"`
	Label       string `csv:"label"`
}

// ToRecords converts transactions to their CSV form.
func ToRecords(txs []Transaction) []*LedgerRecord {
	records := make([]*LedgerRecord, 0, len(txs))
	for _, row := range ToRows(txs) {
		records = append(records, &LedgerRecord{
			Tag:         row[ColumnTag],
			Value:       row[ColumnValue],
			Date:        row[ColumnDate],
			Source:      row[ColumnSource],
			BankAccount: row[ColumnBankAccount],
			Label:       row[ColumnLabel],
		})
	}
	return records
}

// FromRecords decodes CSV records, failing on the first invalid one.
func FromRecords(records []*LedgerRecord) ([]Transaction, error) {
	rows := make([][]string, 0, len(records))
	for _, r := range records {
		rows = append(rows, []string{r.Tag, r.Value, r.Date, r.Source, r.BankAccount, r.Label})
	}
	return FromRows(rows)
}
