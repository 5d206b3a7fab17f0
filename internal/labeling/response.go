package labeling

import (
	"encoding/json"
	"fmt"
	"strings"

	"fjacquet/finance-etl/internal/etlerror"
	"fjacquet/finance-etl/internal/models"
)

// LabelResult is the validated answer of the labeler.
type LabelResult struct {
	Transactions []models.Transaction
	Tokens       int
}

type rawLabelResult struct {
	Transactions *[][]string `json:"transactions"`
	Tokens       *float64    `json:"tokens"`
}

// ParseLabelResult decodes a labeler answer and checks its shape: both keys
// present, a non-negative token count and rows that decode as ledger rows.
func ParseLabelResult(category models.Category, output string) (*LabelResult, error) {
	malformed := func(issues []string, err error) error {
		return &etlerror.MalformedLabelOutputError{
			Category: string(category),
			Issues:   issues,
			Output:   output,
			Err:      err,
		}
	}

	var raw rawLabelResult
	if err := json.Unmarshal([]byte(cleanModelJSON(output)), &raw); err != nil {
		return nil, malformed(nil, err)
	}

	var issues []string
	if raw.Transactions == nil {
		issues = append(issues, "transactions: required")
	}
	if raw.Tokens == nil {
		issues = append(issues, "tokens: required")
	} else if *raw.Tokens < 0 {
		issues = append(issues, fmt.Sprintf("tokens: must be >= 0, got %v", *raw.Tokens))
	}

	result := &LabelResult{}
	if raw.Transactions != nil {
		for i, row := range *raw.Transactions {
			tx, err := models.ParseRow(i, row)
			if err != nil {
				issues = append(issues, fmt.Sprintf("transactions[%d]: %v", i, err))
				continue
			}
			result.Transactions = append(result.Transactions, tx)
		}
	}

	if len(issues) > 0 {
		return nil, malformed(issues, nil)
	}
	result.Tokens = int(*raw.Tokens)
	return result, nil
}

// cleanModelJSON strips Markdown fences and any prose around the JSON object.
func cleanModelJSON(raw string) string {
	s := strings.TrimSpace(raw)

	if strings.HasPrefix(s, "```") {
		idx := strings.Index(s, "\n")
		if idx == -1 {
			return s
		}
		s = strings.TrimSpace(s[idx+1:])
	}
	if idx := strings.LastIndex(s, "```"); idx != -1 {
		s = s[:idx]
	}
	s = strings.TrimSpace(s)

	if start := strings.Index(s, "{"); start != -1 {
		if end := strings.LastIndex(s, "}"); end > start {
			s = s[start : end+1]
		}
	}
	return s
}
