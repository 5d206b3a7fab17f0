package fio

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"fjacquet/finance-etl/internal/dateutils"
	"fjacquet/finance-etl/internal/etlerror"
	"fjacquet/finance-etl/internal/logging"
	"fjacquet/finance-etl/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const statementJSON = `{
  "accountStatement": {
    "info": {"accountId": "2900000000", "currency": "CZK"},
    "transactionList": {
      "transaction": [
        {
          "column0": {"value": "2025-03-01+0100", "name": "Datum", "id": 0},
          "column1": {"value": 45000.5, "name": "Objem", "id": 1},
          "column2": {"value": "123456789", "name": "Protiúčet", "id": 2},
          "column3": {"value": "0800", "name": "Kód banky", "id": 3},
          "column16": {"value": "March", "name": "Zpráva pro příjemce", "id": 16},
          "column25": {"value": "Salary", "name": "Komentář", "id": 25}
        },
        {
          "column0": {"value": "2025-03-03+0100", "name": "Datum", "id": 0},
          "column1": {"value": -120, "name": "Objem", "id": 1},
          "column2": null,
          "column16": {"value": "ignored for expenses", "name": "Zpráva pro příjemce", "id": 16},
          "column25": {"value": "Card payment", "name": "Komentář", "id": 25}
        }
      ]
    }
  }
}`

func TestClient_Fetch(t *testing.T) {
	var gotPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(statementJSON))
	}))
	defer server.Close()

	client, err := NewClient("secret-token", server.URL+"/v1/rest/", server.Client(), logging.NewMockLogger())
	require.NoError(t, err)

	records, err := client.Fetch(context.Background(), dateutils.Period{Year: 2025, Month: time.February})
	require.NoError(t, err)

	assert.Equal(t, "/v1/rest/periods/secret-token/2025-02-01/2025-02-28/transactions.json", gotPath)
	require.Len(t, records, 2)

	income := records[0]
	assert.True(t, decimal.RequireFromString("45000.5").Equal(income.Value))
	assert.Equal(t, "2025-03-01+0100", income.Date)
	assert.Equal(t, "123456789/0800", income.BankAccount)
	assert.Equal(t, "Salary March", income.Label)
	assert.Equal(t, models.SourceFio, income.Source)
	assert.Equal(t, "", income.Tag)

	expense := records[1]
	assert.True(t, decimal.NewFromInt(-120).Equal(expense.Value))
	assert.Equal(t, "", expense.BankAccount)
	assert.Equal(t, "Card payment", expense.Label)

	tx, err := models.Normalize(income)
	require.NoError(t, err)
	assert.Equal(t, "03/01/2025", dateutils.FormatLedgerDate(tx.Date))
}

func TestClient_FetchFailures(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		message string
	}{
		{"throttled", http.StatusConflict, "", "API throttling"},
		{"server error", http.StatusInternalServerError, "", "HTTP status 500"},
		{"not json", http.StatusOK, "<html>", "decoding statement"},
		{"bad amount", http.StatusOK, `{"accountStatement": {"transactionList": {"transaction": [{"column1": {"value": "abc"}}]}}}`, "decoding statement"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			client, err := NewClient("token", server.URL, server.Client(), logging.NewMockLogger())
			require.NoError(t, err)

			_, err = client.Fetch(context.Background(), dateutils.Period{Year: 2025, Month: time.March})
			var unavailable *etlerror.SourceUnavailableError
			require.True(t, errors.As(err, &unavailable))
			assert.Equal(t, "fio", unavailable.Source)
			assert.Contains(t, err.Error(), tt.message)
		})
	}
}

func TestClient_EmptyStatement(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"accountStatement": {"transactionList": {"transaction": []}}}`))
	}))
	defer server.Close()

	client, err := NewClient("token", server.URL, nil, logging.NewMockLogger())
	require.NoError(t, err)

	records, err := client.Fetch(context.Background(), dateutils.Period{Year: 2025, Month: time.March})
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestNewClient_RequiresToken(t *testing.T) {
	_, err := NewClient("", "", nil, logging.NewMockLogger())
	assert.Error(t, err)
}
