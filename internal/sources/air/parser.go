package air

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"fjacquet/finance-etl/internal/models"

	"github.com/shopspring/decimal"
)

var (
	columnGap = regexp.MustCompile(`\s{2,}`)
	dateCell  = regexp.MustCompile(`^\d{1,2}\.\d{1,2}\.\d{4}$`)
)

// SplitRows cuts layout text into rows of cells separated by two or more
// spaces. Only lines holding a DD.MM.YYYY cell and ending with an amount are
// transaction rows.
func SplitRows(text string) [][]string {
	var rows [][]string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		cells := columnGap.Split(line, -1)
		if len(cells) < 3 || !hasDateCell(cells) {
			continue
		}
		if _, err := parseAmount(cells[len(cells)-1]); err != nil {
			continue
		}
		rows = append(rows, cells)
	}
	return rows
}

// ParseRows converts statement rows into records. The value is the last
// cell, the date the second DD.MM.YYYY cell (the first when only one exists)
// and the label the remaining cells joined by a space.
func ParseRows(rows [][]string) ([]models.RawRecord, error) {
	records := make([]models.RawRecord, 0, len(rows))
	for i, row := range rows {
		if len(row) == 0 {
			return nil, fmt.Errorf("row %d is empty", i)
		}

		last := len(row) - 1
		value, err := parseAmount(row[last])
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}

		var dates []string
		for _, cell := range row[:last] {
			if dateCell.MatchString(cell) {
				dates = append(dates, cell)
			}
		}
		if len(dates) == 0 {
			return nil, fmt.Errorf("row %d has no DD.MM.YYYY date", i)
		}
		date := dates[0]
		if len(dates) > 1 {
			date = dates[1]
		}

		var label []string
		for _, cell := range row[:last] {
			if cell == dates[0] || cell == date {
				continue
			}
			label = append(label, cell)
		}

		records = append(records, models.RawRecord{
			Tag:    " ",
			Value:  value,
			Date:   date,
			Source: models.SourceAir,
			Label:  strings.Join(label, " "),
		})
	}
	return records, nil
}

func hasDateCell(cells []string) bool {
	for _, cell := range cells {
		if dateCell.MatchString(cell) {
			return true
		}
	}
	return false
}

// parseAmount reads a Czech formatted amount such as "-1 234,56".
func parseAmount(cell string) (decimal.Decimal, error) {
	compact := strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, cell)
	compact = strings.ReplaceAll(compact, ",", ".")
	value, err := decimal.NewFromString(compact)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid amount %q", cell)
	}
	return value, nil
}
