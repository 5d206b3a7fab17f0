// Package fio fetches account movements from the Fio banka REST API.
package fio

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"fjacquet/finance-etl/internal/dateutils"
	"fjacquet/finance-etl/internal/etlerror"
	"fjacquet/finance-etl/internal/logging"
	"fjacquet/finance-etl/internal/models"

	"github.com/shopspring/decimal"
)

// DefaultBaseURL is the public API root.
const DefaultBaseURL = "https://fioapi.fio.cz/v1/rest"

const queryDateLayout = "2006-01-02"

type stringColumn struct {
	Value string `json:"value"`
}

type numberColumn struct {
	Value json.Number `json:"value"`
}

// movement maps the columns we read; the API names them by index.
type movement struct {
	Date             *stringColumn `json:"column0"`
	Amount           *numberColumn `json:"column1"`
	CounterAccount   *stringColumn `json:"column2"`
	CounterBankCode  *stringColumn `json:"column3"`
	RecipientMessage *stringColumn `json:"column16"`
	Comment          *stringColumn `json:"column25"`
}

type statement struct {
	AccountStatement struct {
		TransactionList struct {
			Transaction []movement `json:"transaction"`
		} `json:"transactionList"`
	} `json:"accountStatement"`
}

// Client reads the movements of one account.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	logger     logging.Logger
}

// NewClient creates a client. An empty baseURL selects DefaultBaseURL and a
// nil httpClient a client with a 30 second timeout.
func NewClient(token, baseURL string, httpClient *http.Client, logger logging.Logger) (*Client, error) {
	if token == "" {
		return nil, errors.New("fio token is not configured")
	}
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      token,
		httpClient: httpClient,
		logger:     logger.WithField(logging.FieldSource, string(models.SourceFio)),
	}, nil
}

// Fetch returns the movements booked during the period.
func (c *Client) Fetch(ctx context.Context, period dateutils.Period) ([]models.RawRecord, error) {
	from, to := period.Start().Format(queryDateLayout), period.End().Format(queryDateLayout)
	url := fmt.Sprintf("%s/periods/%s/%s/%s/transactions.json", c.baseURL, c.token, from, to)

	c.logger.Info("Fetching transactions",
		logging.Field{Key: logging.FieldPeriod, Value: period.String()})

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &etlerror.SourceUnavailableError{Source: string(models.SourceFio), Err: err}
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &etlerror.SourceUnavailableError{Source: string(models.SourceFio), Err: err}
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			c.logger.WithError(err).Warn("Failed to close response body")
		}
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &etlerror.SourceUnavailableError{
			Source: string(models.SourceFio),
			Err:    fmt.Errorf("HTTP status %d (API throttling, wait 30 seconds)", resp.StatusCode),
		}
	}

	var doc statement
	if err := json.NewDecoder(resp.Body).Decode(&doc); err != nil {
		return nil, &etlerror.SourceUnavailableError{Source: string(models.SourceFio), Err: fmt.Errorf("decoding statement: %w", err)}
	}

	records := make([]models.RawRecord, 0, len(doc.AccountStatement.TransactionList.Transaction))
	for i, m := range doc.AccountStatement.TransactionList.Transaction {
		record, err := m.toRecord()
		if err != nil {
			return nil, &etlerror.SourceUnavailableError{
				Source: string(models.SourceFio),
				Err:    fmt.Errorf("movement %d: %w", i, err),
			}
		}
		records = append(records, record)
	}

	c.logger.Info("Transactions fetched",
		logging.Field{Key: logging.FieldCount, Value: len(records)},
		logging.Field{Key: logging.FieldPeriod, Value: period.String()})
	return records, nil
}

func (m movement) toRecord() (models.RawRecord, error) {
	amount := decimal.Zero
	if m.Amount != nil && m.Amount.Value != "" {
		var err error
		if amount, err = decimal.NewFromString(m.Amount.Value.String()); err != nil {
			return models.RawRecord{}, fmt.Errorf("invalid amount %q: %w", m.Amount.Value, err)
		}
	}

	var bankAccount string
	if account := value(m.CounterAccount); account != "" {
		bankAccount = account + "/" + value(m.CounterBankCode)
	}

	label := value(m.Comment)
	if amount.IsPositive() {
		label = strings.TrimSpace(label + " " + value(m.RecipientMessage))
	}

	return models.RawRecord{
		Tag:         "",
		Value:       amount,
		Date:        value(m.Date),
		Source:      models.SourceFio,
		BankAccount: bankAccount,
		Label:       label,
	}, nil
}

func value(c *stringColumn) string {
	if c == nil {
		return ""
	}
	return c.Value
}
